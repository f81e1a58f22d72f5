// SPDX-License-Identifier: MPL-2.0

package interpreter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/invowk/pyenvs/internal/envinfo"
	"github.com/invowk/pyenvs/pkg/platform"
	"github.com/invowk/pyenvs/pkg/pyversion"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 15 * time.Second

// probeScript prints one JSON object. It must stay valid on Python 2.7.
const probeScript = `import json, sys, struct
print(json.dumps({"versionInfo": list(sys.version_info), "sysPrefix": sys.prefix, "sysVersion": sys.version, "is64Bit": struct.calcsize("P") == 8, "executable": sys.executable}))`

// ErrProbeFailed is the sentinel error wrapped by ProbeError.
var ErrProbeFailed = errors.New("interpreter probe failed")

type (
	// Info is what an interpreter reports about itself.
	Info struct {
		Executable string               `json:"executable"`
		Version    pyversion.Version    `json:"version"`
		Arch       envinfo.Architecture `json:"arch"`
		SysPrefix  string               `json:"sysPrefix"`
	}

	// ProbeError is returned when running the interpreter fails or its
	// output cannot be understood. It wraps ErrProbeFailed for errors.Is()
	// compatibility; the underlying cause is available through Cause.
	ProbeError struct {
		Executable string
		Reason     string
		Cause      error
	}

	// RunFunc runs name with args and returns its standard output. It is the
	// seam tests replace to avoid spawning processes.
	RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

	// Inspector probes interpreters.
	Inspector struct {
		run     RunFunc
		timeout time.Duration
	}

	// Option configures an Inspector.
	Option func(*Inspector)

	probeOutput struct {
		VersionInfo []any  `json:"versionInfo"`
		SysPrefix   string `json:"sysPrefix"`
		SysVersion  string `json:"sysVersion"`
		Is64Bit     bool   `json:"is64Bit"`
		Executable  string `json:"executable"`
	}
)

// Error implements the error interface.
func (e *ProbeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("probe %s: %s: %v", e.Executable, e.Reason, e.Cause)
	}
	return fmt.Sprintf("probe %s: %s", e.Executable, e.Reason)
}

// Unwrap returns ErrProbeFailed for errors.Is() compatibility.
func (e *ProbeError) Unwrap() error { return ErrProbeFailed }

// WithRunFunc replaces process execution.
func WithRunFunc(run RunFunc) Option {
	return func(i *Inspector) { i.run = run }
}

// WithTimeout bounds each probe. Zero or negative disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(i *Inspector) { i.timeout = d }
}

// NewInspector returns an Inspector that runs interpreters on the host,
// escaping an application sandbox when there is one.
func NewInspector(opts ...Option) *Inspector {
	i := &Inspector{run: HostRun(platform.DetectSandbox()), timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// HostRun returns a RunFunc executing commands through os/exec, rewritten
// to reach the host from inside st.
func HostRun(st platform.SandboxType) RunFunc {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		bin, argv := platform.HostCommand(st, name, args...)
		cmd := exec.CommandContext(ctx, bin, argv...)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		out, err := cmd.Output()
		if err != nil && stderr.Len() > 0 {
			return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return out, err
	}
}

// Inspect runs the interpreter at executable and reports what it says
// about itself.
func (i *Inspector) Inspect(ctx context.Context, executable string) (*Info, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}
	out, err := i.run(ctx, executable, "-c", probeScript)
	if err != nil {
		return nil, &ProbeError{Executable: executable, Reason: "run failed", Cause: err}
	}
	return ParseProbeOutput(executable, out)
}

// ParseProbeOutput decodes the probe's stdout. Interpreters that print
// banners first are tolerated: the last non-empty line is decoded.
func ParseProbeOutput(executable string, out []byte) (*Info, error) {
	line := lastLine(out)
	if line == "" {
		return nil, &ProbeError{Executable: executable, Reason: "empty output"}
	}
	var raw probeOutput
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return nil, &ProbeError{Executable: executable, Reason: "malformed output", Cause: err}
	}
	version, err := versionFromInfo(raw.VersionInfo)
	if err != nil {
		return nil, &ProbeError{Executable: executable, Reason: "unparseable version", Cause: err}
	}
	version.SysVersion = raw.SysVersion

	arch := envinfo.ArchX86
	if raw.Is64Bit {
		arch = envinfo.ArchX64
	}
	exe := raw.Executable
	if exe == "" {
		exe = executable
	}
	return &Info{Executable: exe, Version: version, Arch: arch, SysPrefix: raw.SysPrefix}, nil
}

// versionFromInfo converts sys.version_info, e.g. [3, 9, 1, "final", 0].
func versionFromInfo(parts []any) (pyversion.Version, error) {
	if len(parts) < 3 {
		return pyversion.Empty(), fmt.Errorf("version_info has %d fields", len(parts))
	}
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case float64:
			fields = append(fields, strconv.Itoa(int(v)))
		case string:
			fields = append(fields, v)
		default:
			return pyversion.Empty(), fmt.Errorf("unexpected version_info field %v", p)
		}
	}
	return pyversion.ParseInfo(strings.Join(fields, "."))
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// Apply returns a copy of env refined with what the interpreter reported.
// The reported version replaces whatever env guessed from files on disk;
// env only fills details the interpreter left out for the same version.
func (info *Info) Apply(env *envinfo.EnvInfo) *envinfo.EnvInfo {
	refined := env.Copy()
	switch {
	case info.Version.IsEmpty():
		refined.Version = env.Version.Copy()
	case pyversion.AreIdentical(info.Version, env.Version):
		refined.Version = pyversion.Merge(info.Version, env.Version)
	default:
		refined.Version = info.Version.Copy()
	}
	refined.Arch = info.Arch
	if info.SysPrefix != "" {
		refined.Executable.SysPrefix = info.SysPrefix
	}
	return refined
}
