package internal

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// CacheBust appends a millisecond timestamp query parameter to a relative
// backend path so the UI never shows a stale cached image or audio file.
func CacheBust(path string, now time.Time) string {
	return fmt.Sprintf("%s?t=%d", path, now.UnixNano()/int64(time.Millisecond))
}

// TempFileID creates a short stable identifier for a text snippet, used to
// name temporary audio files. Format: epochMillis_md5(text)[:8].
func TempFileID(text string) string {
	epochMillis := time.Now().UnixNano() / 1000000
	hash := md5.Sum([]byte(text))
	return fmt.Sprintf("%d_%s", epochMillis, hex.EncodeToString(hash[:])[:8])
}

// SanitizeFilename creates a safe filename from a string.
func SanitizeFilename(s string) string {
	result := ""
	for _, r := range s {
		if isAlphaNumeric(r) || r == '-' || r == '_' {
			result += string(r)
		} else {
			result += "_"
		}
	}
	return result
}

func isAlphaNumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
