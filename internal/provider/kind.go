package provider

import (
	"fmt"
	"strings"
)

// Kind identifies one of the supported metadata providers.
type Kind int

const (
	KindTVDB Kind = iota
	KindJikan
	KindTVMaze
)

var kindNames = map[Kind]string{
	KindTVDB:   "tvdb",
	KindJikan:  "jikan",
	KindTVMaze: "tvmaze",
}

// legacy tags used by older configuration files
var kindTags = map[string]Kind{
	"TVDB": KindTVDB,
	"JIKA": KindJikan,
	"TVMZ": KindTVMaze,
}

// Kinds returns every provider kind in display order.
func Kinds() []Kind {
	return []Kind{KindTVDB, KindJikan, KindTVMaze}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Next returns the kind after k, wrapping around.
func (k Kind) Next() Kind {
	kinds := Kinds()
	for i, candidate := range kinds {
		if candidate == k {
			return kinds[(i+1)%len(kinds)]
		}
	}
	return kinds[0]
}

// ParseKind resolves a provider name or legacy tag.
func ParseKind(value string) (Kind, error) {
	trimmed := strings.TrimSpace(value)
	if kind, ok := kindTags[trimmed]; ok {
		return kind, nil
	}
	lower := strings.ToLower(trimmed)
	for kind, name := range kindNames {
		if name == lower {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown provider %q (want tvdb, jikan or tvmaze)", value)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
