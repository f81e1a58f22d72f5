// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"path/filepath"
	"runtime"
	"strings"
)

// SearchPathEntries splits the PATH-style environment variable into
// directories, dropping blanks and duplicates while keeping order. On
// Windows the "Path" spelling is consulted when "PATH" is unset.
func SearchPathEntries(goos string, getenv func(string) string) []string {
	raw := getenv("PATH")
	sep := ":"
	if goos == Windows {
		sep = ";"
		if raw == "" {
			raw = getenv("Path")
		}
	}

	var entries []string
	seen := make(map[string]bool)
	for entry := range strings.SplitSeq(raw, sep) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key := NormCaseFor(goos, filepath.Clean(entry))
		if seen[key] {
			continue
		}
		seen[key] = true
		entries = append(entries, entry)
	}
	return entries
}

// NormCaseFor folds p to the case rules of the given OS: Windows paths
// compare case-insensitively, everything else is left untouched.
func NormCaseFor(goos, p string) string {
	if goos == Windows {
		return strings.ToLower(p)
	}
	return p
}

// NormCase folds p to the case rules of the running OS.
func NormCase(p string) string {
	return NormCaseFor(runtime.GOOS, p)
}

// NormalizePath cleans p so equal locations compare equal as strings.
func NormalizePath(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}

// ArePathsSame reports whether a and b name the same location under the
// running OS's case rules. Neither path is resolved against the filesystem.
func ArePathsSame(a, b string) bool {
	return NormCase(NormalizePath(a)) == NormCase(NormalizePath(b))
}

// IsParentPath reports whether child is parent itself or lies beneath it.
func IsParentPath(child, parent string) bool {
	c := NormCase(NormalizePath(child))
	p := NormCase(NormalizePath(parent))
	if c == p {
		return true
	}
	if !strings.HasSuffix(p, string(filepath.Separator)) {
		p += string(filepath.Separator)
	}
	return strings.HasPrefix(c, p)
}
