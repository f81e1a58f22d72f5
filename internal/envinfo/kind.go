// SPDX-License-Identifier: MPL-2.0

package envinfo

import (
	"errors"
	"fmt"
)

// Environment kinds. The string values double as the stable kind names used
// in serialized output.
const (
	KindUnknown           Kind = "unknown"
	KindSystem            Kind = "system"
	KindMacDefault        Kind = "macDefault"
	KindWindowsStore      Kind = "winStore"
	KindPyenv             Kind = "pyenv"
	KindCondaBase         Kind = "condaBase"
	KindPoetry            Kind = "poetry"
	KindCustom            Kind = "customGlobal"
	KindOtherGlobal       Kind = "otherGlobal"
	KindVenv              Kind = "venv"
	KindVirtualEnv        Kind = "virtualenv"
	KindVirtualEnvWrapper Kind = "virtualenvWrapper"
	KindPipenv            Kind = "pipenv"
	KindConda             Kind = "conda"
	KindOtherVirtual      Kind = "otherVirtual"
)

// ErrInvalidKind is returned when a Kind value is not recognized.
var ErrInvalidKind = errors.New("invalid environment kind")

// prioritizedKinds orders kinds from most to least identifiable. Tools that
// leave a unique signature come first, then the virtual environment tools
// they build on, then global installs.
var prioritizedKinds = []Kind{
	KindCondaBase,
	KindConda,
	KindWindowsStore,
	KindPipenv,
	KindPyenv,
	KindPoetry,
	KindVenv,
	KindVirtualEnvWrapper,
	KindVirtualEnv,
	KindOtherVirtual,
	KindOtherGlobal,
	KindMacDefault,
	KindSystem,
	KindCustom,
	KindUnknown,
}

var kindDisplayNames = map[Kind]string{
	KindSystem:            "system",
	KindMacDefault:        "mac default",
	KindWindowsStore:      "windows store",
	KindPyenv:             "pyenv",
	KindCondaBase:         "conda",
	KindPoetry:            "poetry",
	KindCustom:            "custom",
	KindOtherGlobal:       "???",
	KindVenv:              "venv",
	KindVirtualEnv:        "virtualenv",
	KindVirtualEnvWrapper: "virtualenv",
	KindPipenv:            "pipenv",
	KindConda:             "conda",
	KindOtherVirtual:      "???",
}

type (
	// Kind is the categorical origin of an environment.
	Kind string

	// InvalidKindError is returned when a Kind value is not recognized.
	// It wraps ErrInvalidKind for errors.Is() compatibility.
	InvalidKindError struct {
		Value Kind
	}
)

// Error implements the error interface.
func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid environment kind %q", e.Value)
}

// Unwrap returns ErrInvalidKind for errors.Is() compatibility.
func (e *InvalidKindError) Unwrap() error { return ErrInvalidKind }

// String returns the string representation of the Kind.
func (k Kind) String() string { return string(k) }

// IsValid returns whether the Kind is one of the defined kinds.
func (k Kind) IsValid() (bool, []error) {
	if kindPriority(k) < 0 {
		return false, []error{&InvalidKindError{Value: k}}
	}
	return true, nil
}

// PrioritizedKinds returns every kind ordered from the most to the least
// identifiable. The returned slice is a copy.
func PrioritizedKinds() []Kind {
	out := make([]Kind, len(prioritizedKinds))
	copy(out, prioritizedKinds)
	return out
}

// KindName returns the stable name of the kind, or "" for KindUnknown and
// unrecognized values.
func KindName(k Kind) string {
	if k == KindUnknown || kindPriority(k) < 0 {
		return ""
	}
	return string(k)
}

// KindFromName is the inverse of KindName. "unknown" and unrecognized names
// report false.
func KindFromName(name string) (Kind, bool) {
	k := Kind(name)
	if k == KindUnknown || kindPriority(k) < 0 {
		return "", false
	}
	return k, true
}

// KindDisplayName returns the user-facing label for the kind, or "" when the
// kind has none (KindUnknown).
func KindDisplayName(k Kind) string {
	return kindDisplayNames[k]
}

// kindPriority returns the rank of k in the priority table, -1 if unknown.
func kindPriority(k Kind) int {
	for i, candidate := range prioritizedKinds {
		if candidate == k {
			return i
		}
	}
	return -1
}
