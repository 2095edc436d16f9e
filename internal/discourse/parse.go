package discourse

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/ppiankov/weitblick/internal/model"
	"github.com/ppiankov/weitblick/internal/prompt"
)

// ErrDiscourseMismatch is returned when a multi-party reply does not carry
// exactly one segment per expected voice
var ErrDiscourseMismatch = errors.New("discourse reply does not match the requested voices")

// ParseDiscourse splits a multi-party reply on '|' and matches each segment
// to a perspective by its leading "TAG:" marker. Order does not matter; a
// missing, repeated or unknown tag fails the whole reply.
func ParseDiscourse(text string, perspectives []model.Perspective) (map[model.Perspective]string, error) {
	byTag := make(map[string]model.Perspective, len(perspectives))
	for _, p := range perspectives {
		byTag[prompt.Tag(p)] = p
	}

	out := make(map[model.Perspective]string, len(perspectives))
	for _, segment := range strings.Split(text, "|") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		tag, body, ok := strings.Cut(segment, ":")
		if !ok || !isTag(tag) {
			return nil, fmt.Errorf("%w: segment without tag", ErrDiscourseMismatch)
		}

		p, known := byTag[tag]
		if !known {
			return nil, fmt.Errorf("%w: unknown tag %s", ErrDiscourseMismatch, tag)
		}
		if _, dup := out[p]; dup {
			return nil, fmt.Errorf("%w: duplicate tag %s", ErrDiscourseMismatch, tag)
		}

		body = strings.TrimSpace(body)
		if body == "" {
			return nil, fmt.Errorf("%w: empty segment for %s", ErrDiscourseMismatch, tag)
		}
		out[p] = segment
	}

	for _, p := range perspectives {
		if _, ok := out[p]; !ok {
			return nil, fmt.Errorf("%w: missing tag %s", ErrDiscourseMismatch, prompt.Tag(p))
		}
	}

	return out, nil
}

// isTag reports whether s is a non-empty run of upper-case letters
func isTag(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}
