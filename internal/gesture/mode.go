package gesture

import (
	"fmt"
	"strings"
)

// Mode selects the active gesture vocabulary.
type Mode int

const (
	// ModeScan is the close-range scanning mode: pinch to grab, wave.
	ModeScan Mode = iota
	// ModeBrowse is the arm's-length browsing mode: fist to grab, open
	// hand to release, swipe up.
	ModeBrowse
)

// String returns the lower-case mode name.
func (m Mode) String() string {
	switch m {
	case ModeScan:
		return "scan"
	case ModeBrowse:
		return "browse"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a mode name into a Mode.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "scan":
		return ModeScan, nil
	case "browse":
		return ModeBrowse, nil
	default:
		return ModeScan, fmt.Errorf("unknown mode %q", value)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m != ModeScan && m != ModeBrowse {
		return nil, fmt.Errorf("unknown mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so modes can be
// loaded from YAML and JSON strings.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
