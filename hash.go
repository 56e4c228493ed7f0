package chapterwise

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// HashText computes the SHA-256 hash of the trimmed text.
func HashText(text string) string {
	trimmed := strings.TrimSpace(text)
	hash := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(hash[:])
}

// SessionKey derives a stable store key for a book's session state from its
// path. Different books never collide; moving a book changes its key.
func SessionKey(bookPath string) string {
	return "session:" + HashText(bookPath)[:16]
}

// GlossaryKey derives the store key for a book's glossary. The key uses the
// file stem so the glossary survives moving the book between directories.
func GlossaryKey(bookPath string) string {
	stem := strings.TrimSuffix(filepath.Base(bookPath), filepath.Ext(bookPath))
	if stem == "" {
		return "glossary:default"
	}
	return "glossary:" + stem
}
