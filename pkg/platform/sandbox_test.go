// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"slices"
	"testing"
)

func TestDetectSandboxFrom(t *testing.T) {
	t.Parallel()

	missing := func(string) error { return errors.New("not found") }
	present := func(string) error { return nil }

	tests := []struct {
		name string
		env  map[string]string
		stat func(string) error
		want SandboxType
	}{
		{"none", nil, missing, SandboxNone},
		{"snap", map[string]string{"SNAP_NAME": "pyenvs"}, missing, SandboxSnap},
		{"flatpak", nil, present, SandboxFlatpak},
		{"flatpak wins over snap", map[string]string{"SNAP_NAME": "pyenvs"}, present, SandboxFlatpak},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := detectSandboxFrom(func(k string) string { return tt.env[k] }, tt.stat)
			if got != tt.want {
				t.Errorf("detectSandboxFrom() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHostCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		st       SandboxType
		wantName string
		wantArgs []string
	}{
		{SandboxNone, "/usr/bin/python3", []string{"-c", "pass"}},
		{SandboxFlatpak, "flatpak-spawn", []string{"--host", "/usr/bin/python3", "-c", "pass"}},
		{SandboxSnap, "snap", []string{"run", "--shell", "/usr/bin/python3", "-c", "pass"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.st), func(t *testing.T) {
			t.Parallel()

			name, args := HostCommand(tt.st, "/usr/bin/python3", "-c", "pass")
			if name != tt.wantName || !slices.Equal(args, tt.wantArgs) {
				t.Errorf("HostCommand(%q) = %q %q, want %q %q", tt.st, name, args, tt.wantName, tt.wantArgs)
			}
		})
	}
}
