// ABOUTME: Level type with ordered integer constants for tool access comparison.
// ABOUTME: ParseLevel converts a level name to a Level; unknown names are rejected.
package access

import (
	"fmt"
	"strings"
)

// Level is an ordered access tier. Higher values include every capability of
// lower values.
type Level int

// Level constants, ordered from least to most privileged.
const (
	LevelNone  Level = 0 // no access
	LevelView  Level = 1 // read-only
	LevelEdit  Level = 2 // create and modify
	LevelAdmin Level = 3 // full control of the tool
)

var levelNames = [...]string{
	LevelNone:  "none",
	LevelView:  "view",
	LevelEdit:  "edit",
	LevelAdmin: "admin",
}

// Valid reports whether l is one of the declared levels.
func (l Level) Valid() bool {
	return l >= LevelNone && l <= LevelAdmin
}

func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel converts a level name ("none", "view", "edit", "admin") to a Level.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for l, n := range levelNames {
		if n == name {
			return Level(l), nil
		}
	}
	return LevelNone, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLevel, int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
