// SPDX-License-Identifier: MPL-2.0

package envinfo

import (
	"errors"
	"fmt"
)

const (
	// ArchUnknown means the architecture was not determined.
	ArchUnknown Architecture = iota
	// ArchX86 is a 32-bit build.
	ArchX86
	// ArchX64 is a 64-bit build.
	ArchX64
)

// ErrInvalidArchitecture is returned when an Architecture value is out of range.
var ErrInvalidArchitecture = errors.New("invalid architecture")

type (
	// Architecture is the CPU architecture an interpreter was built for.
	Architecture int

	// InvalidArchitectureError is returned when an Architecture value is out of range.
	// It wraps ErrInvalidArchitecture for errors.Is() compatibility.
	InvalidArchitectureError struct {
		Value Architecture
	}
)

// Error implements the error interface.
func (e *InvalidArchitectureError) Error() string {
	return fmt.Sprintf("invalid architecture %d", int(e.Value))
}

// Unwrap returns ErrInvalidArchitecture for errors.Is() compatibility.
func (e *InvalidArchitectureError) Unwrap() error { return ErrInvalidArchitecture }

// IsValid returns whether the Architecture is one of the defined values.
func (a Architecture) IsValid() (bool, []error) {
	switch a {
	case ArchUnknown, ArchX86, ArchX64:
		return true, nil
	default:
		return false, []error{&InvalidArchitectureError{Value: a}}
	}
}

// String returns the short machine name ("x86", "x64" or "unknown").
func (a Architecture) String() string {
	switch a {
	case ArchX86:
		return "x86"
	case ArchX64:
		return "x64"
	default:
		return "unknown"
	}
}

// DisplayName returns the user-facing label ("32-bit", "64-bit") or "" when unknown.
func (a Architecture) DisplayName() string {
	switch a {
	case ArchX86:
		return "32-bit"
	case ArchX64:
		return "64-bit"
	default:
		return ""
	}
}

// MarshalText renders the architecture by its short machine name.
func (a Architecture) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText accepts the short machine names; anything else is ArchUnknown.
func (a *Architecture) UnmarshalText(text []byte) error {
	*a = ArchFromString(string(text))
	return nil
}

// ArchFromString maps "x86"/"x64" (and the common aliases reported by
// platform.machine()) to an Architecture.
func ArchFromString(s string) Architecture {
	switch s {
	case "x86", "i386", "i686", "32bit":
		return ArchX86
	case "x64", "x86_64", "amd64", "AMD64", "64bit":
		return ArchX64
	default:
		return ArchUnknown
	}
}
