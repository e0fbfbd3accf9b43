package media

import (
	"fmt"
	"strings"
)

const invalidFilenameChars = "<>:\"/\\|?*"

// SanitizeTitle makes an episode title safe to embed in a file name. Invalid
// characters and control runes collapse into single spaces.
func SanitizeTitle(title string) (string, error) {
	var b strings.Builder
	b.Grow(len(title))

	lastSpace := false
	for _, r := range title {
		if r < 32 || r == 127 || r == ' ' || strings.ContainsRune(invalidFilenameChars, r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}

	result := strings.TrimSpace(b.String())
	if result == "" {
		return "", fmt.Errorf("title is empty after sanitization")
	}
	return result, nil
}
