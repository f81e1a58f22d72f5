// SPDX-License-Identifier: MPL-2.0

package envinfo

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/invowk/pyenvs/pkg/platform"
	"github.com/invowk/pyenvs/pkg/pyversion"
)

// ErrInvalidEnv is the sentinel error wrapped by InvalidEnvError.
var ErrInvalidEnv = errors.New("invalid environment info")

type (
	// EnvInfo is the canonical record for one discovered interpreter.
	EnvInfo struct {
		BaseInfo
		BuildInfo
		Distro             DistroInfo `json:"distro"`
		DefaultDisplayName string     `json:"defaultDisplayName,omitempty"`
		// SearchLocation identifies the workspace root that produced the
		// record; nil for global environments. It is a lookup key, never an
		// owning reference.
		SearchLocation *url.URL `json:"-"`
	}

	// InvalidEnvError is returned by Validate. It wraps ErrInvalidEnv for
	// errors.Is() compatibility and collects field-level validation errors.
	InvalidEnvError struct {
		Executable  string
		FieldErrors []error
	}

	// FileInfo carries the executable's file times.
	FileInfo struct {
		Ctime int64
		Mtime int64
	}

	// Init is the sparse initializer accepted by New. Zero fields are left at
	// their empty defaults.
	Init struct {
		Kind       Kind
		Executable string
		Name       string
		Location   string
		Version    *pyversion.Version
		Org        string
		Arch       Architecture
		FileInfo   *FileInfo
	}
)

// Error implements the error interface.
func (e *InvalidEnvError) Error() string {
	return fmt.Sprintf("invalid environment info for %q: %d field error(s): %v",
		e.Executable, len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidEnv for errors.Is() compatibility.
func (e *InvalidEnvError) Unwrap() error { return ErrInvalidEnv }

// Empty returns a record with every field at its empty default.
func Empty() *EnvInfo {
	return &EnvInfo{
		BaseInfo: BaseInfo{
			Kind:       KindUnknown,
			Executable: ExecutableInfo{Ctime: UnknownTime, Mtime: UnknownTime},
		},
		BuildInfo: BuildInfo{Version: pyversion.Empty(), Arch: ArchUnknown},
	}
}

// New builds a record from a sparse initializer.
func New(init Init) *EnvInfo {
	env := Empty()
	if init.FileInfo != nil {
		env.Executable.Ctime = init.FileInfo.Ctime
		env.Executable.Mtime = init.FileInfo.Mtime
	}
	if init.Kind != "" {
		env.Kind = init.Kind
	}
	env.Executable.Filename = init.Executable
	env.Name = init.Name
	env.Location = init.Location
	if init.Version != nil {
		env.Version = init.Version.Copy()
	}
	env.Distro.Org = init.Org
	env.Arch = init.Arch
	return env
}

// FromPath builds the minimal record for an executable path. An empty path
// yields nil, since such a record cannot identify anything.
func FromPath(executable string) *EnvInfo {
	if executable == "" {
		return nil
	}
	return New(Init{Executable: executable})
}

// Copy returns a deep copy of e. A nil record copies to nil.
func (e *EnvInfo) Copy() *EnvInfo {
	if e == nil {
		return nil
	}
	copied := *e
	copied.BuildInfo = e.BuildInfo.copy()
	copied.Distro = e.Distro.copy()
	if e.SearchLocation != nil {
		u := *e.SearchLocation
		copied.SearchLocation = &u
	}
	return &copied
}

// SearchLocationKey returns the canonical string of SearchLocation, or "".
func (e *EnvInfo) SearchLocationKey() string {
	if e == nil || e.SearchLocation == nil {
		return ""
	}
	return e.SearchLocation.String()
}

// Normalize returns a copy of e with every default filled in. An unset
// version is derived from the executable filename when possible. A nil
// record normalizes to Empty().
func Normalize(e *EnvInfo) *EnvInfo {
	if e == nil {
		return Empty()
	}
	norm := e.Copy()
	norm.BaseInfo = norm.BaseInfo.normalize()
	norm.BuildInfo = norm.BuildInfo.normalize()
	norm.Distro = norm.Distro.normalize()
	if norm.Version.IsEmpty() && norm.Executable.Filename != "" {
		if v, err := pyversion.FromExecutable(norm.Executable.Filename); err == nil {
			norm.Version = v
		}
	}
	return norm
}

// Validate fails with an *InvalidEnvError if e violates the record
// invariants. It assumes e has already been normalized.
func Validate(e *EnvInfo) error {
	if e == nil {
		return &InvalidEnvError{FieldErrors: []error{ErrMissingName}}
	}
	var errs []error
	errs = append(errs, e.BaseInfo.validate()...)
	errs = append(errs, e.BuildInfo.validate()...)
	errs = append(errs, e.Distro.validate()...)
	if len(errs) > 0 {
		return &InvalidEnvError{Executable: e.Executable.Filename, FieldErrors: errs}
	}
	return nil
}

// MergeEnvs returns a new record combining primary and secondary. Fields
// that are set in primary win; secondary fills the gaps. Both inputs are
// normalized first, so MergeEnvs(a, a) equals Normalize(a).
func MergeEnvs(primary, secondary *EnvInfo) *EnvInfo {
	p, s := Normalize(primary), Normalize(secondary)
	merged := p.Copy()
	merged.BaseInfo = mergeBaseInfo(p.BaseInfo, s.BaseInfo)
	merged.BuildInfo = mergeBuilds(p.BuildInfo, s.BuildInfo)
	merged.Distro = mergeDistros(p.Distro, s.Distro)
	if merged.DefaultDisplayName == "" {
		merged.DefaultDisplayName = s.DefaultDisplayName
	}
	if merged.SearchLocation == nil && s.SearchLocation != nil {
		u := *s.SearchLocation
		merged.SearchLocation = &u
	}
	return merged
}

// BuildDisplayName renders the user-facing label, for example
// "Python 3.8.1rc2 64-bit ('foo': conda)". Segments whose source value is
// empty or unknown are left out.
func BuildDisplayName(e *EnvInfo) string {
	parts := []string{"Python"}
	if !e.Version.IsEmpty() && !e.Version.IsZero() {
		parts = append(parts, e.Version.ShortString())
	}
	if arch := e.Arch.DisplayName(); arch != "" {
		parts = append(parts, arch)
	}

	var suffix []string
	if e.Name != "" {
		suffix = append(suffix, "'"+e.Name+"'")
	}
	if kind := KindDisplayName(e.Kind); kind != "" {
		suffix = append(suffix, kind)
	}
	if len(suffix) > 0 {
		parts = append(parts, "("+strings.Join(suffix, ": ")+")")
	}
	return strings.Join(parts, " ")
}

// DisplayName returns DefaultDisplayName when set, otherwise BuildDisplayName.
func (e *EnvInfo) DisplayName() string {
	if e.DefaultDisplayName != "" {
		return e.DefaultDisplayName
	}
	return BuildDisplayName(e)
}

// GetFastEnvInfo builds the minimal record for an executable as cheaply as
// possible: kind, filename and a version parsed from the filename if it
// carries one. KindUnknown is acceptable.
func GetFastEnvInfo(kind Kind, executable string) *EnvInfo {
	env := New(Init{Kind: kind, Executable: executable})
	if v, err := pyversion.FromExecutable(executable); err == nil {
		env.Version = v
	}
	return env
}

// GetMaxDerivedEnvInfo returns a copy of minimal with whatever can be
// derived without distro-specific knowledge. Architecture is deliberately
// not guessed from the host.
func GetMaxDerivedEnvInfo(minimal *EnvInfo) *EnvInfo {
	env := minimal.Copy()
	if env.Version.IsEmpty() {
		if v, err := pyversion.FromExecutable(env.Executable.Filename); err == nil {
			env.Version = v
		}
	}
	return env
}

// EnvMatcher returns a predicate reporting whether a candidate's executable
// is the same path as query. An empty query matches nothing.
func EnvMatcher(query string) func(*EnvInfo) bool {
	if query == "" {
		return func(*EnvInfo) bool { return false }
	}
	return func(candidate *EnvInfo) bool {
		return candidate != nil && platform.ArePathsSame(query, candidate.Executable.Filename)
	}
}
