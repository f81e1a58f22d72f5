// SPDX-License-Identifier: MPL-2.0

package pyversion

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Unknown marks a version component that was not specified.
const Unknown = -1

const (
	// Alpha is the "a" pre-release level.
	Alpha ReleaseLevel = "alpha"
	// Beta is the "b" pre-release level.
	Beta ReleaseLevel = "beta"
	// Candidate is the "rc" pre-release level.
	Candidate ReleaseLevel = "candidate"
	// Final marks a regular release.
	Final ReleaseLevel = "final"
)

var (
	// ErrInvalidVersion is the sentinel error wrapped by InvalidVersionError.
	ErrInvalidVersion = errors.New("invalid version")
	// ErrInvalidReleaseLevel is returned when a ReleaseLevel value is not recognized.
	ErrInvalidReleaseLevel = errors.New("invalid release level")

	// shortVersionRegex matches MAJOR[.MINOR[.MICRO]] followed by anything.
	shortVersionRegex = regexp.MustCompile(`^(\d+)(?:\.(\d+))?(?:\.(\d+))?(.*)$`)
	// releaseSuffixRegex matches the compact pre-release suffix (e.g. "rc1").
	releaseSuffixRegex = regexp.MustCompile(`^(a|b|rc)(\d+)$`)
)

type (
	// ReleaseLevel is the release stage of a Python build.
	ReleaseLevel string

	// Release pairs a release level with its serial number.
	Release struct {
		Level  ReleaseLevel `json:"level"`
		Serial int          `json:"serial"`
	}

	// Version is a Python version tuple. Components that are not known hold
	// Unknown. The Go zero value is treated as "unset" by Normalize.
	Version struct {
		Major   int      `json:"major"`
		Minor   int      `json:"minor"`
		Micro   int      `json:"micro"`
		Release *Release `json:"release,omitempty"`
		// SysVersion is the raw sys.version string, when an interpreter was asked.
		SysVersion string `json:"sysVersion,omitempty"`
	}

	// InvalidVersionError is returned when a version string cannot be parsed
	// or a Version holds out-of-range components.
	InvalidVersionError struct {
		Value  string
		Reason string
	}

	// InvalidReleaseLevelError is returned when a ReleaseLevel value is not recognized.
	InvalidReleaseLevelError struct {
		Value ReleaseLevel
	}
)

// Error implements the error interface.
func (e *InvalidVersionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid version %q", e.Value)
	}
	return fmt.Sprintf("invalid version %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidVersion so callers can use errors.Is for programmatic detection.
func (e *InvalidVersionError) Unwrap() error { return ErrInvalidVersion }

// Error implements the error interface.
func (e *InvalidReleaseLevelError) Error() string {
	return fmt.Sprintf("invalid release level %q (valid: alpha, beta, candidate, final)", e.Value)
}

// Unwrap returns ErrInvalidReleaseLevel so callers can use errors.Is for programmatic detection.
func (e *InvalidReleaseLevelError) Unwrap() error { return ErrInvalidReleaseLevel }

// IsValid returns whether the ReleaseLevel is one of the defined levels.
func (l ReleaseLevel) IsValid() (bool, []error) {
	switch l {
	case Alpha, Beta, Candidate, Final:
		return true, nil
	default:
		return false, []error{&InvalidReleaseLevelError{Value: l}}
	}
}

// String returns the string representation of the ReleaseLevel.
func (l ReleaseLevel) String() string { return string(l) }

// rank orders levels so that Final is the newest.
func (l ReleaseLevel) rank() int {
	switch l {
	case Alpha:
		return 0
	case Beta:
		return 1
	case Candidate:
		return 2
	default:
		return 3
	}
}

// suffix is the compact form used by short version strings.
func (l ReleaseLevel) suffix() string {
	switch l {
	case Alpha:
		return "a"
	case Beta:
		return "b"
	case Candidate:
		return "rc"
	default:
		return ""
	}
}

// Empty returns the "no version known" sentinel.
func Empty() Version {
	return Version{Major: Unknown, Minor: Unknown, Micro: Unknown}
}

// IsEmpty reports whether v is the empty sentinel.
func (v Version) IsEmpty() bool {
	return v.Major == Unknown
}

// IsZero reports whether v is the Go zero value, which Normalize treats as unset.
func (v Version) IsZero() bool {
	return v.Major == 0 && v.Minor == 0 && v.Micro == 0 && v.Release == nil && v.SysVersion == ""
}

// Copy returns a deep copy of v.
func (v Version) Copy() Version {
	if v.Release != nil {
		r := *v.Release
		v.Release = &r
	}
	return v
}

// Normalize returns a copy of v with defaults applied: the zero value
// becomes the empty sentinel and a release with no level becomes Final.
func Normalize(v Version) Version {
	if v.IsZero() {
		return Empty()
	}
	norm := v.Copy()
	if norm.Release != nil && norm.Release.Level == "" {
		norm.Release.Level = Final
	}
	return norm
}

// Validate fails if v holds components outside their allowed range.
// It assumes v has already been normalized.
func Validate(v Version) error {
	for _, part := range []struct {
		name  string
		value int
	}{{"major", v.Major}, {"minor", v.Minor}, {"micro", v.Micro}} {
		if part.value < Unknown {
			return &InvalidVersionError{Value: v.String(), Reason: fmt.Sprintf("negative %s component", part.name)}
		}
	}
	if v.Major == Unknown && (v.Minor != Unknown || v.Micro != Unknown) {
		return &InvalidVersionError{Value: v.String(), Reason: "minor or micro set without major"}
	}
	if v.Release != nil {
		if ok, errs := v.Release.Level.IsValid(); !ok {
			return errors.Join(errs...)
		}
		if v.Release.Serial < 0 {
			return &InvalidVersionError{Value: v.String(), Reason: "negative release serial"}
		}
	}
	return nil
}

// Parse converts a short version string such as "3.9.0", "3.9.0a1", "3.9.0b2"
// or "3.9.0rc1" into a Version. The empty string yields the empty sentinel.
// The dotted long form ("3.9.0.final.0") is handled by ParseInfo instead.
func Parse(s string) (Version, error) {
	if s == "" {
		return Empty(), nil
	}
	m := shortVersionRegex.FindStringSubmatch(s)
	if m == nil {
		return Empty(), &InvalidVersionError{Value: s}
	}
	v := Version{
		Major:   mustAtoi(m[1]),
		Minor:   optionalAtoi(m[2]),
		Micro:   optionalAtoi(m[3]),
		Release: &Release{Level: Final},
	}
	// A release suffix is only meaningful once the micro component is known.
	if v.Micro != Unknown {
		if rm := releaseSuffixRegex.FindStringSubmatch(m[4]); rm != nil {
			v.Release = &Release{Level: levelFromSuffix(rm[1]), Serial: mustAtoi(rm[2])}
		}
	}
	return v, nil
}

// ParseInfo converts the dotted long form MAJOR.MINOR[.MICRO[.LEVEL[.SERIAL]]]
// (e.g. "3.9.0.candidate.1", as printed from sys.version_info) into a Version.
func ParseInfo(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	v := Empty()
	if len(parts) < 2 {
		return v, &InvalidVersionError{Value: s, Reason: "expected at least MAJOR.MINOR"}
	}
	var err error
	if v.Major, err = strconv.Atoi(parts[0]); err != nil {
		return Empty(), &InvalidVersionError{Value: s, Reason: "non-numeric major"}
	}
	if v.Minor, err = strconv.Atoi(parts[1]); err != nil {
		return Empty(), &InvalidVersionError{Value: s, Reason: "non-numeric minor"}
	}
	if len(parts) >= 3 {
		if v.Micro, err = strconv.Atoi(parts[2]); err != nil {
			return Empty(), &InvalidVersionError{Value: s, Reason: "non-numeric micro"}
		}
	}
	v.Release = &Release{Level: Final}
	if len(parts) >= 4 {
		level := ReleaseLevel(strings.ToLower(parts[3]))
		if ok, _ := level.IsValid(); ok {
			v.Release.Level = level
		}
	}
	if len(parts) >= 5 {
		if serial, serr := strconv.Atoi(parts[4]); serr == nil {
			v.Release.Serial = serial
		}
	}
	return v, nil
}

// FromExecutable extracts a version from an interpreter filename such as
// "python3.9", "python3.10.exe" or "python2". Names without version digits
// fail with an InvalidVersionError.
func FromExecutable(exe string) (Version, error) {
	// Accept both separators so Windows paths parse on any host.
	base := exe
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	base = strings.ToLower(base)
	base = strings.TrimSuffix(base, ".exe")
	rest, ok := strings.CutPrefix(base, "python")
	if !ok || rest == "" {
		return Empty(), &InvalidVersionError{Value: exe, Reason: "no version in executable name"}
	}
	return Parse(rest)
}

// Compare returns a negative number when a is older than b, zero when they
// denote the same version, and a positive number when a is newer. Components
// are compared in order (major, minor, micro, release level, serial); Unknown
// sorts lowest and a missing release counts as Final. Serials are ignored for
// Final releases. SysVersion never participates.
func Compare(a, b Version) int {
	for _, pair := range [][2]int{{a.Major, b.Major}, {a.Minor, b.Minor}, {a.Micro, b.Micro}} {
		if pair[0] != pair[1] {
			return sign(pair[0] - pair[1])
		}
	}
	ra, rb := effectiveRelease(a), effectiveRelease(b)
	if ra.Level.rank() != rb.Level.rank() {
		return sign(ra.Level.rank() - rb.Level.rank())
	}
	if ra.Level.rank() == Final.rank() {
		return 0
	}
	return sign(ra.Serial - rb.Serial)
}

// AreIdentical reports whether a and b compare equal (SysVersion is ignored).
func AreIdentical(a, b Version) bool {
	return Compare(a, b) == 0
}

// AreSimilar reports whether a and b share the same major.minor, i.e. the
// same ABI, ignoring micro and release. Unknown components match anything.
// A bare major-2 version is assumed to be 2.7.
func AreSimilar(a, b Version) bool {
	if AreIdentical(a, b) {
		return true
	}
	if a.Major == 2 && b.Major == 2 {
		if a.Minor == Unknown {
			a.Minor = 7
		}
		if b.Minor == Unknown {
			b.Minor = 7
		}
	}
	if a.Major == Unknown || b.Major == Unknown {
		return true
	}
	if a.Major != b.Major {
		return false
	}
	return a.Minor == Unknown || b.Minor == Unknown || a.Minor == b.Minor
}

// Merge picks the version carrying more information. When a and b compare
// equal, a wins unless it is a bare "2" (minor unknown) or b carries details
// (release, SysVersion) that a lacks. Otherwise the newer one wins.
// The result is always a fresh copy.
func Merge(a, b Version) Version {
	switch c := Compare(a, b); {
	case c < 0:
		return b.Copy()
	case c > 0:
		return a.Copy()
	}
	if a.Major == 2 && a.Minor == Unknown {
		return b.Copy()
	}
	merged := a.Copy()
	if merged.Release == nil && b.Release != nil {
		r := *b.Release
		merged.Release = &r
	}
	if merged.SysVersion == "" {
		merged.SysVersion = b.SysVersion
	}
	return merged
}

// ShortString renders v as MAJOR.MINOR.MICRO plus a pre-release suffix
// ("a", "b", "rc" followed by the serial). Final releases get no suffix.
// Unknown trailing components are omitted.
func (v Version) ShortString() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(v.Major))
	if v.Minor == Unknown {
		return sb.String()
	}
	fmt.Fprintf(&sb, ".%d", v.Minor)
	if v.Micro == Unknown {
		return sb.String()
	}
	fmt.Fprintf(&sb, ".%d", v.Micro)
	if v.Release == nil || v.Release.Level.suffix() == "" {
		return sb.String()
	}
	fmt.Fprintf(&sb, "%s%d", v.Release.Level.suffix(), v.Release.Serial)
	return sb.String()
}

// String returns the short form, or "<unknown>" for the empty sentinel.
func (v Version) String() string {
	if v.IsEmpty() {
		return "<unknown>"
	}
	return v.ShortString()
}

func effectiveRelease(v Version) Release {
	if v.Release == nil || v.Release.Level == "" {
		return Release{Level: Final}
	}
	return *v.Release
}

func levelFromSuffix(s string) ReleaseLevel {
	switch s {
	case "a":
		return Alpha
	case "b":
		return Beta
	default:
		return Candidate
	}
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return Unknown
	}
	return n
}

func optionalAtoi(s string) int {
	if s == "" {
		return Unknown
	}
	return mustAtoi(s)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
