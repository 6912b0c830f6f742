package middleware

import (
	"path/filepath"
	"strings"
	"unicode"
)

// MaxLineLength limita cada linha antes da extração (upload e /extract)
const MaxLineLength = 10000

// SanitizeFilename sanitizes a filename by:
// - Removing path traversal attempts
// - Removing dangerous characters
func SanitizeFilename(filename string) string {
	// Nomes vindos de Windows chegam com "\"
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = filepath.Base(filename)

	filename = strings.ReplaceAll(filename, "\x00", "")
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "")

	filename = removeControlChars(filename)
	filename = strings.TrimSpace(filename)

	if filename == "" || filename == "." {
		return "unnamed_file"
	}

	return filename
}

// ValidateFilePath validates that a file path is safe and within allowed directories
func ValidateFilePath(path string, allowedDir string) bool {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return false
	}

	if allowedDir != "" {
		absPath, err := filepath.Abs(cleanPath)
		if err != nil {
			return false
		}
		absAllowed, err := filepath.Abs(allowedDir)
		if err != nil {
			return false
		}
		if absPath != absAllowed && !strings.HasPrefix(absPath, absAllowed+string(filepath.Separator)) {
			return false
		}
	}

	return true
}

// SanitizeLines removes null bytes and control characters (tabs are kept)
// and truncates each raw line. The line count never changes.
func SanitizeLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		var b strings.Builder
		for _, r := range line {
			if r == '\t' || !unicode.IsControl(r) {
				b.WriteRune(r)
			}
		}
		line = b.String()
		if len(line) > MaxLineLength {
			line = truncateUTF8(line, MaxLineLength)
		}
		out[i] = line
	}
	return out
}

func truncateUTF8(s string, max int) string {
	for max > 0 && max < len(s) && !isRuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// removeControlChars removes control characters from a string
func removeControlChars(s string) string {
	var result strings.Builder
	for _, r := range s {
		if !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}
