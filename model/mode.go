package model

import (
	"fmt"
	"strings"
)

// Mode selects which page of the form front end a request targets.
type Mode string

const (
	ModeSlide   Mode = "slide"
	ModeCombine Mode = "combine"
)

// Modes lists every page in the order the selector shows them.
var Modes = []Mode{ModeSlide, ModeCombine}

// Title is the page heading shown for the mode.
func (m Mode) Title() string {
	switch m {
	case ModeCombine:
		return "Combine Videos"
	default:
		return "Single-Slide TTS to MP4"
	}
}

// ParseMode maps a query or form value onto a Mode. An empty value selects
// the slide page.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeSlide:
		return ModeSlide, nil
	case ModeCombine:
		return ModeCombine, nil
	default:
		return "", &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", s)}
	}
}
