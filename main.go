package main

import (
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/chaos-io/objectremover/config"
	"github.com/chaos-io/objectremover/handler"
	"github.com/chaos-io/objectremover/inpaint"
	"github.com/chaos-io/objectremover/inpaint/fal"
	"github.com/chaos-io/objectremover/inpaint/replicate"
	"github.com/chaos-io/objectremover/middleware"
	"github.com/chaos-io/objectremover/util"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found")
	}

	cfg := config.New()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}

	initLogger(cfg.Server.Mode)

	if err := os.MkdirAll(cfg.Upload.UploadDir, 0o755); err != nil {
		log.Fatalf("failed to create upload directory: %v", err)
	}

	provider := newProvider(cfg)
	svc := inpaint.NewService(provider, &inpaint.Options{
		DilationRadius: cfg.Provider.DilationRadius,
		MaxDimension:   cfg.Provider.MaxDimension,
	})

	if cfg.Cleanup.Enabled {
		c := cron.New()
		if _, err := c.AddFunc(cfg.Cleanup.Schedule, func() {
			if _, err := util.SweepDir(cfg.Upload.UploadDir, cfg.Cleanup.MaxAge); err != nil {
				slog.Warn("cleanup sweep failed", "error", err)
			}
		}); err != nil {
			log.Fatalf("invalid cleanup schedule %q: %v", cfg.Cleanup.Schedule, err)
		}
		c.Start()
		defer c.Stop()
	}

	gin.SetMode(ginMode(cfg.Server.Mode))
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())
	handler.NewRemoveHandler(cfg, svc).Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	slog.Info("starting object remover server",
		"port", cfg.Server.Port, "provider", provider.Name())
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func newProvider(cfg *config.Config) inpaint.Provider {
	switch cfg.Provider.Name {
	case "fal":
		return fal.NewClient(os.Getenv(fal.EnvAPIKey))
	default:
		return replicate.NewClient(os.Getenv(replicate.EnvAPIToken))
	}
}

func initLogger(mode string) {
	level := slog.LevelDebug
	if mode == "release" {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func ginMode(mode string) string {
	if mode == "release" {
		return gin.ReleaseMode
	}
	return gin.DebugMode
}
