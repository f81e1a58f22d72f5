// SPDX-License-Identifier: MPL-2.0

package envinfo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/invowk/pyenvs/pkg/pyversion"
)

// UnknownTime marks an executable ctime/mtime that was not read.
const UnknownTime int64 = -1

var (
	// ErrInvalidExecutable is returned when executable info violates its invariants.
	ErrInvalidExecutable = errors.New("invalid executable info")
	// ErrMissingName is returned when an environment has neither a name nor a location.
	ErrMissingName = errors.New("missing name")
)

type (
	// ExecutableInfo describes the interpreter binary of an environment.
	// An empty Filename means the executable is not known yet.
	ExecutableInfo struct {
		Filename  string `json:"filename"`
		SysPrefix string `json:"sysPrefix"`
		// Ctime and Mtime are staleness hints only; UnknownTime when unread.
		Ctime int64 `json:"ctime"`
		Mtime int64 `json:"mtime"`
	}

	// InvalidExecutableError is returned when executable info violates its invariants.
	// It wraps ErrInvalidExecutable for errors.Is() compatibility.
	InvalidExecutableError struct {
		Filename string
		Reason   string
	}

	// BaseInfo is the identity part of an environment record.
	BaseInfo struct {
		Kind       Kind           `json:"kind"`
		Executable ExecutableInfo `json:"executable"`
		Name       string         `json:"name"`
		Location   string         `json:"location"`
	}

	// BuildInfo is the build part of an environment record.
	BuildInfo struct {
		Version pyversion.Version `json:"version"`
		Arch    Architecture      `json:"arch"`
	}

	// DistroInfo carries distribution metadata (python.org, Anaconda, ...).
	// Version and BinDir are legitimately absent for most records.
	DistroInfo struct {
		Org                string             `json:"org"`
		DefaultDisplayName string             `json:"defaultDisplayName,omitempty"`
		Version            *pyversion.Version `json:"version,omitempty"`
		BinDir             string             `json:"binDir,omitempty"`
	}
)

// Error implements the error interface.
func (e *InvalidExecutableError) Error() string {
	return fmt.Sprintf("invalid executable %q: %s", e.Filename, e.Reason)
}

// Unwrap returns ErrInvalidExecutable for errors.Is() compatibility.
func (e *InvalidExecutableError) Unwrap() error { return ErrInvalidExecutable }

func (e ExecutableInfo) normalize() ExecutableInfo {
	if e.Ctime == 0 {
		e.Ctime = UnknownTime
	}
	if e.Mtime == 0 {
		e.Mtime = UnknownTime
	}
	return e
}

func (e ExecutableInfo) validate() []error {
	var errs []error
	if e.Filename != "" && strings.TrimSpace(e.Filename) == "" {
		errs = append(errs, &InvalidExecutableError{Filename: e.Filename, Reason: "whitespace-only filename"})
	}
	if e.Ctime < UnknownTime || e.Mtime < UnknownTime {
		errs = append(errs, &InvalidExecutableError{Filename: e.Filename, Reason: "negative file time"})
	}
	return errs
}

// mergeExecutables fills the gaps in e from other.
func mergeExecutables(e, other ExecutableInfo) ExecutableInfo {
	merged := e
	if merged.Filename == "" {
		merged.Filename = other.Filename
	}
	if merged.SysPrefix == "" {
		merged.SysPrefix = other.SysPrefix
	}
	if merged.Ctime == UnknownTime {
		merged.Ctime = other.Ctime
	}
	if merged.Mtime == UnknownTime {
		merged.Mtime = other.Mtime
	}
	return merged
}

func (b BaseInfo) normalize() BaseInfo {
	if b.Kind == "" {
		b.Kind = KindUnknown
	}
	b.Executable = b.Executable.normalize()
	return b
}

func (b BaseInfo) validate() []error {
	var errs []error
	if ok, kindErrs := b.Kind.IsValid(); !ok {
		errs = append(errs, kindErrs...)
	}
	errs = append(errs, b.Executable.validate()...)
	if b.Name == "" && b.Location == "" {
		errs = append(errs, ErrMissingName)
	}
	return errs
}

// mergeBaseInfo keeps the kind of b unless it is unknown and fills empty
// strings from other.
func mergeBaseInfo(b, other BaseInfo) BaseInfo {
	merged := BaseInfo{
		Kind:       b.Kind,
		Executable: mergeExecutables(b.Executable, other.Executable),
		Name:       b.Name,
		Location:   b.Location,
	}
	if merged.Kind == KindUnknown {
		merged.Kind = other.Kind
	}
	if merged.Name == "" {
		merged.Name = other.Name
	}
	if merged.Location == "" {
		merged.Location = other.Location
	}
	return merged
}

func (b BuildInfo) copy() BuildInfo {
	b.Version = b.Version.Copy()
	return b
}

func (b BuildInfo) normalize() BuildInfo {
	b.Version = pyversion.Normalize(b.Version)
	return b
}

func (b BuildInfo) validate() []error {
	var errs []error
	if err := pyversion.Validate(b.Version); err != nil {
		errs = append(errs, err)
	}
	if ok, archErrs := b.Arch.IsValid(); !ok {
		errs = append(errs, archErrs...)
	}
	return errs
}

func mergeBuilds(b, other BuildInfo) BuildInfo {
	merged := BuildInfo{
		Version: pyversion.Merge(b.Version, other.Version),
		Arch:    b.Arch,
	}
	if merged.Arch == ArchUnknown {
		merged.Arch = other.Arch
	}
	return merged
}

func (d DistroInfo) copy() DistroInfo {
	if d.Version != nil {
		v := d.Version.Copy()
		d.Version = &v
	}
	return d
}

func (d DistroInfo) normalize() DistroInfo {
	d = d.copy()
	if d.Version != nil {
		if d.Version.IsZero() {
			d.Version = nil
		} else {
			v := pyversion.Normalize(*d.Version)
			d.Version = &v
		}
	}
	return d
}

func (d DistroInfo) validate() []error {
	if d.Version == nil {
		return nil
	}
	if err := pyversion.Validate(*d.Version); err != nil {
		return []error{err}
	}
	return nil
}

func mergeDistros(d, other DistroInfo) DistroInfo {
	merged := DistroInfo{Org: d.Org, DefaultDisplayName: d.DefaultDisplayName, BinDir: d.BinDir}
	if merged.Org == "" {
		merged.Org = other.Org
	}
	if merged.DefaultDisplayName == "" {
		merged.DefaultDisplayName = other.DefaultDisplayName
	}
	switch {
	case d.Version != nil && other.Version != nil:
		v := pyversion.Merge(*d.Version, *other.Version)
		merged.Version = &v
	case d.Version != nil:
		v := d.Version.Copy()
		merged.Version = &v
	case other.Version != nil:
		v := other.Version.Copy()
		merged.Version = &v
	}
	if merged.BinDir == "" {
		merged.BinDir = other.BinDir
	}
	return merged
}
