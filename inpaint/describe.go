package inpaint

import (
	"fmt"
	"strings"
)

// Describe 把物体名列表拼成自然语言短语
//
//	["cat"]               -> "cat"
//	["cat","dog"]         -> "cat and dog"
//	["cat","dog","bird"]  -> "cat, dog, and bird"
func Describe(names []string) (string, error) {
	switch len(names) {
	case 0:
		return "", fmt.Errorf("%w: empty object name list", ErrInvalidInput)
	case 1:
		return names[0], nil
	case 2:
		return names[0] + " and " + names[1], nil
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1], nil
	}
}
