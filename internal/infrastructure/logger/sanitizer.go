package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// PIILevel defines how personal data is rendered in log lines.
type PIILevel string

const (
	// PIILevelNone redacts the value entirely
	PIILevelNone PIILevel = "none"
	// PIILevelHashed replaces the value with a short stable hash
	PIILevelHashed PIILevel = "hashed"
	// PIILevelFull logs the value as is
	PIILevelFull PIILevel = "full"
)

// Sanitizer renders claim values such as emails for logging.
type Sanitizer struct {
	level PIILevel
	salt  string
}

// NewSanitizer creates a sanitizer; unknown levels fall back to hashed.
func NewSanitizer(level string, salt string) *Sanitizer {
	lvl := PIILevel(strings.ToLower(strings.TrimSpace(level)))
	switch lvl {
	case PIILevelNone, PIILevelHashed, PIILevelFull:
	default:
		lvl = PIILevelHashed
	}
	return &Sanitizer{level: lvl, salt: salt}
}

// Level returns the effective level.
func (s *Sanitizer) Level() PIILevel {
	return s.level
}

// Value sanitizes a single PII value. Empty input stays empty.
func (s *Sanitizer) Value(input string) string {
	if input == "" {
		return ""
	}
	switch s.level {
	case PIILevelFull:
		return input
	case PIILevelNone:
		return "[REDACTED]"
	default:
		return "[HASH:" + s.hash(input) + "]"
	}
}

// Ptr sanitizes an optional value.
func (s *Sanitizer) Ptr(input *string) string {
	if input == nil {
		return ""
	}
	return s.Value(*input)
}

func (s *Sanitizer) hash(input string) string {
	sum := sha256.Sum256([]byte(s.salt + input))
	return hex.EncodeToString(sum[:])[:16]
}
