package common

import (
	"errors"
	"strings"
)

var ErrModulePaused = errors.New("module paused")

type PauseView interface {
	IsPaused(module string) bool
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// StaticPauses is a PauseView fixed at start-up from operator configuration.
type StaticPauses map[string]struct{}

// NewStaticPauses normalises module names to lower case.
func NewStaticPauses(modules []string) StaticPauses {
	out := make(StaticPauses, len(modules))
	for _, module := range modules {
		name := strings.ToLower(strings.TrimSpace(module))
		if name == "" {
			continue
		}
		out[name] = struct{}{}
	}
	return out
}

func (s StaticPauses) IsPaused(module string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(module))]
	return ok
}
