package fsio

import (
	"runtime"
	"strings"
	"unicode"
)

// NormalizeVolumePath rewrites a bare drive letter ("C:" or "C:\") into the
// `\\.\C:` raw-volume form Windows requires, leaving everything else (device
// paths, image file paths) untouched. On non-Windows targets it is a no-op,
// so the CLI can accept the same argument shape on every platform.
//
// Adapted from the teacher's internal/disk.NormalizeVolumePath.
func NormalizeVolumePath(path string) string {
	if runtime.GOOS != "windows" {
		return path
	}

	path = strings.TrimSpace(path)
	path = strings.ReplaceAll(path, "/", `\`)
	upper := strings.ToUpper(path)

	if strings.HasPrefix(upper, `\\.\`) {
		return upper
	}

	if len(upper) >= 2 && upper[1] == ':' && unicode.IsLetter(rune(upper[0])) {
		return `\\.\` + strings.ToUpper(string(upper[0])) + `:`
	}

	return path
}
