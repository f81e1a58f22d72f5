// SPDX-License-Identifier: MPL-2.0

package pyfs

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/invowk/pyenvs/pkg/pyversion"
)

// venvConfigFile is written by venv and virtualenv at the environment root.
const venvConfigFile = "pyvenv.cfg"

// PythonVersionFromNearbyFiles scans the interpreter's directory for
// versioned sibling executables (python3.9, python3.10.exe, ...) and returns
// the highest version found, or the empty version.
func PythonVersionFromNearbyFiles(ctx context.Context, interpreter string) pyversion.Version {
	best := pyversion.Empty()
	siblings, err := PythonExecutablesInDir(ctx, filepath.Dir(interpreter))
	if err != nil {
		return best
	}
	for _, sibling := range siblings {
		v, err := pyversion.FromExecutable(sibling)
		if err != nil {
			continue
		}
		if pyversion.Compare(v, best) > 0 {
			best = v
		}
	}
	return best
}

// VenvConfigPath returns the pyvenv.cfg belonging to the interpreter, looking
// next to it and one level up. It returns "" when there is none.
func VenvConfigPath(interpreter string) string {
	dir := filepath.Dir(interpreter)
	for _, candidate := range []string{
		filepath.Join(dir, venvConfigFile),
		filepath.Join(filepath.Dir(dir), venvConfigFile),
	} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// ReadVenvConfig parses a pyvenv.cfg into a lower-cased key/value map.
func ReadVenvConfig(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		values[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return values, scanner.Err()
}

// PythonVersionFromVenv reads the "version" (venv) or "version_info"
// (virtualenv) key of the interpreter's pyvenv.cfg.
func PythonVersionFromVenv(interpreter string) pyversion.Version {
	cfg := VenvConfigPath(interpreter)
	if cfg == "" {
		return pyversion.Empty()
	}
	values, err := ReadVenvConfig(cfg)
	if err != nil {
		return pyversion.Empty()
	}
	for _, key := range []string{"version", "version_info"} {
		raw, ok := values[key]
		if !ok {
			continue
		}
		if v, err := parseLoose(raw); err == nil {
			return v
		}
	}
	return pyversion.Empty()
}

// PythonVersionFromConda derives the version from the python package record
// in the environment's conda-meta directory (python-3.9.1-h1234_0.json).
func PythonVersionFromConda(interpreter string) pyversion.Version {
	metaDir := filepath.Join(EnvironmentDirFromPath(interpreter), "conda-meta")
	entries, err := os.ReadDir(metaDir)
	if err != nil {
		return pyversion.Empty()
	}
	for _, entry := range entries {
		rest, ok := strings.CutPrefix(entry.Name(), "python-")
		if !ok || !strings.HasSuffix(rest, ".json") {
			continue
		}
		version, _, _ := strings.Cut(rest, "-")
		if v, err := pyversion.Parse(version); err == nil && !v.IsEmpty() {
			return v
		}
	}
	return pyversion.Empty()
}

// PythonVersionFromPath makes a best-effort guess at the interpreter's
// version without running it: the highest of the hint, nearby executables,
// pyvenv.cfg and conda-meta. Either argument may be empty.
func PythonVersionFromPath(ctx context.Context, interpreter, hint string) pyversion.Version {
	best := pyversion.Empty()
	if hint != "" {
		if v, err := pyversion.Parse(hint); err == nil {
			best = v
		}
	}
	if interpreter == "" {
		return best
	}
	for _, v := range []pyversion.Version{
		PythonVersionFromNearbyFiles(ctx, interpreter),
		PythonVersionFromVenv(interpreter),
		PythonVersionFromConda(interpreter),
	} {
		if pyversion.Compare(v, best) > 0 {
			best = v
		}
	}
	return best
}

// parseLoose accepts both the short form and the dotted long form
// ("3.9.1.final.0") found in virtualenv's version_info key.
func parseLoose(raw string) (pyversion.Version, error) {
	if strings.Count(raw, ".") >= 3 {
		return pyversion.ParseInfo(raw)
	}
	return pyversion.Parse(raw)
}
