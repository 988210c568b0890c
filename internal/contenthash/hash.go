// Package contenthash identifies markdown notes by their content so a note
// keeps its review progress across syncs as long as its text is unchanged.
package contenthash

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/leitner/internal/domain"
)

// Normalize lowercases and trims each part of the note and joins them with
// newlines.
func Normalize(note domain.Note) string {
	clean := func(part string) string {
		p := strings.ReplaceAll(part, "\r\n", "\n")
		return strings.TrimSpace(strings.ToLower(p))
	}
	return strings.Join([]string{clean(note.Question), clean(note.Answer), clean(note.Context)}, "\n")
}

// Hash returns the hex SHA-256 of the normalized note.
func Hash(note domain.Note) string {
	sum := sha256.Sum256([]byte(Normalize(note)))
	return fmt.Sprintf("%x", sum)
}
