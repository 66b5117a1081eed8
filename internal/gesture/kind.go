package gesture

import (
	"fmt"
	"strings"
)

// Kind identifies an engine output.
type Kind int

const (
	// KindNone means no gesture fired.
	KindNone Kind = iota
	// KindCursorMove carries a new smoothed cursor position.
	KindCursorMove
	// KindGrab is a confirmed fist (browse) or pinch (scan).
	KindGrab
	// KindOpenHand is the fist to open-hand transition after a grab.
	KindOpenHand
	// KindWave is a horizontal wave (scan mode).
	KindWave
	// KindSwipeUp is an upward swipe (browse mode).
	KindSwipeUp
)

// Kinds lists every emitted kind.
var Kinds = []Kind{KindCursorMove, KindGrab, KindOpenHand, KindWave, KindSwipeUp}

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindCursorMove:
		return "cursor_move"
	case KindGrab:
		return "grab"
	case KindOpenHand:
		return "open_hand"
	case KindWave:
		return "wave"
	case KindSwipeUp:
		return "swipe_up"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseKind converts a kind name such as "swipe_up" into a Kind.
// Hyphens are accepted in place of underscores.
func ParseKind(value string) (Kind, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_")
	for _, k := range Kinds {
		if k.String() == name {
			return k, nil
		}
	}
	return KindNone, fmt.Errorf("unknown gesture %q", value)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
