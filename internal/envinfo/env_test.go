// SPDX-License-Identifier: MPL-2.0

package envinfo

import (
	"errors"
	"net/url"
	"reflect"
	"testing"

	"github.com/invowk/pyenvs/pkg/pyversion"
)

func mustParse(t *testing.T, s string) *pyversion.Version {
	t.Helper()
	v, err := pyversion.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return &v
}

func TestBuildDisplayName(t *testing.T) {
	t.Parallel()

	rc2 := pyversion.Version{Major: 3, Minor: 8, Micro: 1, Release: &pyversion.Release{Level: pyversion.Candidate, Serial: 2}}

	tests := []struct {
		name string
		env  *EnvInfo
		want string
	}{
		{
			name: "all segments",
			env:  New(Init{Kind: KindConda, Name: "foo", Version: &rc2, Arch: ArchX64}),
			want: "Python 3.8.1rc2 64-bit ('foo': conda)",
		},
		{
			name: "empty record",
			env:  Empty(),
			want: "Python",
		},
		{
			name: "kind only",
			env:  New(Init{Kind: KindVenv}),
			want: "Python (venv)",
		},
		{
			name: "name without kind",
			env:  New(Init{Name: "proj", Version: mustParse(t, "3.10.4")}),
			want: "Python 3.10.4 ('proj')",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := BuildDisplayName(tt.env); got != tt.want {
				t.Errorf("BuildDisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalize_FillsDefaults(t *testing.T) {
	t.Parallel()

	norm := Normalize(&EnvInfo{BaseInfo: BaseInfo{Executable: ExecutableInfo{Filename: "/usr/bin/python3.9"}}})

	if norm.Kind != KindUnknown {
		t.Errorf("Kind = %q, want unknown", norm.Kind)
	}
	if norm.Executable.Ctime != UnknownTime || norm.Executable.Mtime != UnknownTime {
		t.Errorf("file times = %d/%d, want unknown", norm.Executable.Ctime, norm.Executable.Mtime)
	}
	if norm.Version.ShortString() != "3.9" {
		t.Errorf("Version = %s, want version derived from filename", norm.Version)
	}
	if norm.Arch != ArchUnknown {
		t.Errorf("Arch = %v, want unknown", norm.Arch)
	}
}

func TestNormalize_Nil(t *testing.T) {
	t.Parallel()

	if got := Normalize(nil); !reflect.DeepEqual(got, Empty()) {
		t.Errorf("Normalize(nil) = %+v, want Empty()", got)
	}
}

func TestNormalize_DropsZeroDistroVersion(t *testing.T) {
	t.Parallel()

	env := Empty()
	env.Distro.Version = &pyversion.Version{}
	if got := Normalize(env); got.Distro.Version != nil {
		t.Errorf("Distro.Version = %+v, want nil", got.Distro.Version)
	}
}

func TestNormalize_DoesNotMutate(t *testing.T) {
	t.Parallel()

	env := &EnvInfo{BaseInfo: BaseInfo{Executable: ExecutableInfo{Filename: "/usr/bin/python3"}}}
	_ = Normalize(env)
	if env.Kind != "" || env.Executable.Ctime != 0 {
		t.Error("Normalize mutated its input")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Normalize(New(Init{Kind: KindVenv, Executable: "/ws/.venv/bin/python", Location: "/ws/.venv"}))
	if err := Validate(valid); err != nil {
		t.Errorf("Validate(valid) = %v", err)
	}

	nameless := Normalize(New(Init{Executable: "/usr/bin/python3"}))
	err := Validate(nameless)
	if !errors.Is(err, ErrInvalidEnv) {
		t.Fatalf("Validate(nameless) = %v, want ErrInvalidEnv", err)
	}
	var envErr *InvalidEnvError
	if !errors.As(err, &envErr) {
		t.Fatalf("expected *InvalidEnvError, got %T", err)
	}
	if len(envErr.FieldErrors) != 1 || !errors.Is(envErr.FieldErrors[0], ErrMissingName) {
		t.Errorf("FieldErrors = %v, want [ErrMissingName]", envErr.FieldErrors)
	}

	multi := Normalize(New(Init{Kind: "bogus", Executable: "   ", Name: "x"}))
	err = Validate(multi)
	if !errors.As(err, &envErr) || len(envErr.FieldErrors) != 2 {
		t.Errorf("Validate(multi) = %v, want 2 field errors", err)
	}
}

func TestMergeEnvs_Idempotent(t *testing.T) {
	t.Parallel()

	root, _ := url.Parse("file:///ws")
	env := New(Init{
		Kind:       KindVenv,
		Executable: "/ws/.venv/bin/python",
		Location:   "/ws/.venv",
		Version:    mustParse(t, "3.9.1"),
		Arch:       ArchX64,
		Org:        "python.org",
	})
	env.SearchLocation = root
	env.Distro.BinDir = "/ws/.venv/bin"

	if got, want := MergeEnvs(env, env), Normalize(env); !reflect.DeepEqual(got, want) {
		t.Errorf("MergeEnvs(a, a) = %+v, want %+v", got, want)
	}
}

func TestMergeEnvs_FillsGaps(t *testing.T) {
	t.Parallel()

	root, _ := url.Parse("file:///ws")
	primary := New(Init{Executable: "/ws/.venv/bin/python", Version: mustParse(t, "3.9")})
	secondary := New(Init{
		Kind:       KindVenv,
		Executable: "/ws/.venv/bin/python",
		Name:       "venv-name",
		Location:   "/ws/.venv",
		Version:    mustParse(t, "3.9.7"),
		Arch:       ArchX64,
		Org:        "python.org",
	})
	secondary.DefaultDisplayName = "My Env"
	secondary.SearchLocation = root
	distroVersion := mustParse(t, "3.9.7")
	secondary.Distro.Version = distroVersion
	secondary.Distro.BinDir = "/ws/.venv/bin"

	merged := MergeEnvs(primary, secondary)

	if merged.Kind != KindVenv {
		t.Errorf("Kind = %q, want venv", merged.Kind)
	}
	if merged.Name != "venv-name" || merged.Location != "/ws/.venv" {
		t.Errorf("Name/Location = %q/%q", merged.Name, merged.Location)
	}
	if merged.Version.ShortString() != "3.9.7" {
		t.Errorf("Version = %s, want 3.9.7", merged.Version)
	}
	if merged.Arch != ArchX64 {
		t.Errorf("Arch = %v, want x64", merged.Arch)
	}
	if merged.Distro.Org != "python.org" || merged.Distro.BinDir != "/ws/.venv/bin" {
		t.Errorf("Distro = %+v", merged.Distro)
	}
	if merged.Distro.Version == nil || merged.Distro.Version.ShortString() != "3.9.7" {
		t.Errorf("Distro.Version = %+v", merged.Distro.Version)
	}
	if merged.DefaultDisplayName != "My Env" {
		t.Errorf("DefaultDisplayName = %q", merged.DefaultDisplayName)
	}
	if merged.SearchLocationKey() != "file:///ws" {
		t.Errorf("SearchLocation = %q", merged.SearchLocationKey())
	}

	// The merged record must not share memory with its inputs.
	merged.SearchLocation.Path = "/changed"
	merged.Distro.Version.Major = 9
	if secondary.SearchLocation.Path != "/ws" || distroVersion.Major != 3 {
		t.Error("MergeEnvs result aliases secondary")
	}
}

func TestMergeEnvs_PrimaryWins(t *testing.T) {
	t.Parallel()

	primary := New(Init{Kind: KindConda, Executable: "/envs/a/bin/python", Name: "a", Arch: ArchX86})
	secondary := New(Init{Kind: KindSystem, Executable: "/usr/bin/python", Name: "b", Arch: ArchX64})

	merged := MergeEnvs(primary, secondary)
	if merged.Kind != KindConda || merged.Name != "a" || merged.Arch != ArchX86 {
		t.Errorf("merged = kind %q name %q arch %v, want primary values", merged.Kind, merged.Name, merged.Arch)
	}
	if merged.Executable.Filename != "/envs/a/bin/python" {
		t.Errorf("Executable = %q", merged.Executable.Filename)
	}
}

func TestCopy_Deep(t *testing.T) {
	t.Parallel()

	root, _ := url.Parse("file:///ws")
	env := New(Init{Executable: "/x/python", Version: mustParse(t, "3.9.0rc1")})
	env.SearchLocation = root

	cp := env.Copy()
	cp.Version.Release.Serial = 5
	cp.SearchLocation.Path = "/other"
	if env.Version.Release.Serial != 1 || env.SearchLocation.Path != "/ws" {
		t.Error("Copy shares memory with the original")
	}
	if (*EnvInfo)(nil).Copy() != nil {
		t.Error("nil.Copy() should be nil")
	}
}

func TestGetFastEnvInfo(t *testing.T) {
	t.Parallel()

	env := GetFastEnvInfo(KindUnknown, "/usr/bin/python3.11")
	if env.Executable.Filename != "/usr/bin/python3.11" || env.Version.ShortString() != "3.11" {
		t.Errorf("GetFastEnvInfo = %+v", env)
	}

	env = GetFastEnvInfo(KindVenv, "/ws/.venv/bin/python")
	if !env.Version.IsEmpty() {
		t.Errorf("expected empty version for unversioned filename, got %s", env.Version)
	}
	derived := GetMaxDerivedEnvInfo(env)
	if derived == env {
		t.Error("GetMaxDerivedEnvInfo must return a copy")
	}
}

func TestEnvMatcher(t *testing.T) {
	t.Parallel()

	match := EnvMatcher("/usr/bin/python3")
	if !match(FromPath("/usr/bin/../bin/python3")) {
		t.Error("expected equivalent paths to match")
	}
	if match(FromPath("/usr/local/bin/python3")) {
		t.Error("expected different paths not to match")
	}
	if EnvMatcher("")(FromPath("/usr/bin/python3")) {
		t.Error("empty query must match nothing")
	}
}
