// SPDX-License-Identifier: MPL-2.0

package lowlevel

import (
	"net/url"
	"path/filepath"
	"strings"
)

// FileURI converts a local directory into the file URI used as a search
// location.
func FileURI(dir string) *url.URL {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		// Windows drive paths: file:///C:/work
		p = "/" + p
	}
	return &url.URL{Scheme: "file", Path: p}
}

// PathFromURI returns the local path of a file URI, or "" for other schemes.
func PathFromURI(u *url.URL) string {
	if u == nil || u.Scheme != "file" {
		return ""
	}
	p := u.Path
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p)
}
