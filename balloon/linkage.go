package balloon

import (
	"fmt"
	"strings"
)

// LinkageMode selects how a new balloon is tied to the rest of the scene.
// The modes are mutually exclusive.
type LinkageMode int

const (
	LinkageNone LinkageMode = iota
	// LinkageGround ties the end of the string to the floor
	LinkageGround
	// LinkageStringGroup ties the end of the string to the preceding balloon's string
	LinkageStringGroup
	// LinkageEnvelopeGroup ties the envelope to the preceding balloon's envelope
	LinkageEnvelopeGroup
)

var linkageNames = [...]string{
	LinkageNone:          "none",
	LinkageGround:        "ground",
	LinkageStringGroup:   "string-group",
	LinkageEnvelopeGroup: "envelope-group",
}

func (m LinkageMode) String() string {
	if m < 0 || int(m) >= len(linkageNames) {
		return fmt.Sprintf("LinkageMode(%d)", int(m))
	}

	return linkageNames[m]
}

// NeedsString reports whether the mode ties the end of the string
func (m LinkageMode) NeedsString() bool {
	return m == LinkageGround || m == LinkageStringGroup
}

// Next cycles through the modes
func (m LinkageMode) Next() LinkageMode {
	return (m + 1) % LinkageMode(len(linkageNames))
}

// ParseLinkageMode accepts the names returned by String, case insensitive
func ParseLinkageMode(name string) (LinkageMode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return LinkageNone, nil
	}
	for mode, candidate := range linkageNames {
		if candidate == name {
			return LinkageMode(mode), nil
		}
	}

	return LinkageNone, fmt.Errorf("linkage %q: %w", name, ErrUnknownLinkage)
}

func (m LinkageMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *LinkageMode) UnmarshalText(text []byte) error {
	mode, err := ParseLinkageMode(string(text))
	if err != nil {
		return err
	}
	*m = mode

	return nil
}
