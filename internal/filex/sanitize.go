// Package filex sanitizes user-supplied filenames before they are stored as
// file metadata. Sanitization is pure and does no I/O, so it can be tested
// in isolation from the engine.
package filex

import (
	"regexp"
	"strings"

	"github.com/dpetrovs/localsync/internal/common"
)

// MaxNameBytes matches the common filesystem limit for a full filename
// including the extension.
const MaxNameBytes = 255

var (
	illegalChars = regexp.MustCompile(`[/\\:*?"<>|\x00-\x1f\x80-\x9f]`)
	whitespace   = regexp.MustCompile(`\s+`)
	multiUnders  = regexp.MustCompile(`_{2,}`)
	edgeUnders   = regexp.MustCompile(`^_+|_+$`)
)

// SanitizeName makes a display filename safe for storage and download:
// illegal path and control characters become underscores, whitespace runs
// collapse to a single underscore, the result is capped at MaxNameBytes,
// and an empty outcome falls back to a default name.
func SanitizeName(filename string) string {
	if filename == "" {
		return common.DefaultFileName
	}

	name, ext := splitExt(filename)

	name = illegalChars.ReplaceAllString(name, "_")
	name = whitespace.ReplaceAllString(name, "_")
	name = multiUnders.ReplaceAllString(name, "_")
	name = edgeUnders.ReplaceAllString(name, "")

	// Extensions lose illegal characters entirely instead of gaining underscores.
	ext = illegalChars.ReplaceAllString(ext, "")

	if name == "" {
		name = common.DefaultFileName
	}

	maxName := MaxNameBytes - len(ext)
	if len(name) > maxName {
		name = truncateRunes(name, maxName)
	}

	return name + ext
}

// splitExt separates the extension from the base name. A leading dot
// ("hidden" files) is treated as part of the name, not an extension.
func splitExt(filename string) (name, ext string) {
	i := strings.LastIndex(filename, ".")
	if i <= 0 {
		return filename, ""
	}
	return filename[:i], filename[i:]
}

// truncateRunes cuts s to at most max bytes without splitting a UTF-8 rune.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	for max > 0 && s[max]&0xC0 == 0x80 {
		max--
	}
	return s[:max]
}
