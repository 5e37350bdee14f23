package stroming

import (
	"fmt"
	"strings"
)

// Direction is the order in which messages are read.
type Direction int

const (
	// Forwards reads oldest to newest.
	Forwards Direction = iota
	// Backwards reads newest to oldest.
	Backwards
)

func (d Direction) String() string {
	switch d {
	case Forwards:
		return "forwards"
	case Backwards:
		return "backwards"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection parses "forwards" or "backwards", ignoring case. An empty
// string reads forwards.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "forwards", "forward":
		return Forwards, nil
	case "backwards", "backward":
		return Backwards, nil
	default:
		return Forwards, fmt.Errorf("parse direction %q: %w", s, ErrInvalidDirection)
	}
}
