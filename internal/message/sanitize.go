package message

import (
	"path"
	"path/filepath"
	"strings"
)

// fallbackName is used when sanitizing leaves nothing usable.
const fallbackName = "upload.bin"

// SafeFilename reduces a caller-supplied display name to a single path
// element safe to join under the storage directory. Directory components,
// traversal sequences, separators and control bytes are stripped; the name is
// never interpreted as a path.
func SafeFilename(name string) string {
	// Normalize both separator styles before taking the base element.
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			// drop control characters
		case r == '/' || r == filepath.Separator:
			// drop any separator that survived Base
		default:
			b.WriteRune(r)
		}
	}
	name = b.String()

	// Base returns "." or ".." for degenerate inputs.
	name = strings.Trim(name, ".")
	name = strings.TrimSpace(name)

	if name == "" {
		return fallbackName
	}
	return name
}
