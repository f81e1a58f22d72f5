// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
	"time"
)

func TestColorScheme_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scheme ColorScheme
		want   bool
	}{
		{ColorSchemeAuto, true},
		{ColorSchemeDark, true},
		{ColorSchemeLight, true},
		{"", false},
		{"DARK", false},
		{"solarized", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.scheme), func(t *testing.T) {
			t.Parallel()
			ok, errs := tt.scheme.IsValid()
			if ok != tt.want {
				t.Fatalf("ColorScheme(%q).IsValid() = %v, want %v", tt.scheme, ok, tt.want)
			}
			if !ok && !errors.Is(errs[0], ErrInvalidColorScheme) {
				t.Errorf("error %v does not wrap ErrInvalidColorScheme", errs[0])
			}
		})
	}
}

func TestSearchPath_IsValidAndExpand(t *testing.T) {
	t.Parallel()

	if ok, errs := SearchPath(" \t").IsValid(); ok || !errors.Is(errs[0], ErrInvalidSearchPath) {
		t.Errorf("whitespace path should be invalid, got %v %v", ok, errs)
	}
	if ok, _ := SearchPath("/opt/py").IsValid(); !ok {
		t.Error("absolute path should be valid")
	}

	tests := []struct {
		in, home, want string
	}{
		{"~", "/home/u", "/home/u"},
		{"~/.condarc", "/home/u", "/home/u/.condarc"},
		{"~other/x", "/home/u", "~other/x"},
		{"/etc/condarc", "/home/u", "/etc/condarc"},
		{"~/.condarc", "", "~/.condarc"},
	}
	for _, tt := range tests {
		if got := SearchPath(tt.in).Expand(tt.home); got != tt.want {
			t.Errorf("SearchPath(%q).Expand(%q) = %q, want %q", tt.in, tt.home, got, tt.want)
		}
	}
}

func TestWorkerCount_IsValid(t *testing.T) {
	t.Parallel()

	for _, w := range []WorkerCount{MinWorkers, 8, MaxWorkers} {
		if ok, errs := w.IsValid(); !ok {
			t.Errorf("WorkerCount(%d) invalid: %v", w, errs)
		}
	}
	for _, w := range []WorkerCount{0, -1, MaxWorkers + 1} {
		ok, errs := w.IsValid()
		if ok {
			t.Errorf("WorkerCount(%d) should be invalid", w)
			continue
		}
		var wErr *InvalidWorkerCountError
		if !errors.As(errs[0], &wErr) || wErr.Value != w {
			t.Errorf("WorkerCount(%d) error = %v", w, errs[0])
		}
	}
}

func TestIgnorePattern_IsValid(t *testing.T) {
	t.Parallel()

	if ok, errs := IgnorePattern("**/node_modules/**").IsValid(); !ok {
		t.Errorf("valid pattern rejected: %v", errs)
	}
	ok, errs := IgnorePattern("[unclosed").IsValid()
	if ok {
		t.Fatal("malformed pattern accepted")
	}
	if !errors.Is(errs[0], ErrInvalidIgnorePattern) {
		t.Errorf("error %v does not wrap ErrInvalidIgnorePattern", errs[0])
	}
}

func TestConfig_IsValid(t *testing.T) {
	t.Parallel()

	if ok, errs := DefaultConfig().IsValid(); !ok {
		t.Fatalf("defaults invalid: %v", errs)
	}

	cfg := DefaultConfig()
	cfg.Discovery.SearchPaths = []SearchPath{"/ok", ""}
	cfg.Discovery.RecurseDepth = -1
	cfg.Inspect.Workers = 0
	cfg.Inspect.Timeout = -time.Second
	cfg.UI.ColorScheme = "neon"

	ok, errs := cfg.IsValid()
	if ok {
		t.Fatal("broken config accepted")
	}
	var cfgErr *InvalidConfigError
	if !errors.As(errs[0], &cfgErr) {
		t.Fatalf("error %T is not *InvalidConfigError", errs[0])
	}
	if !errors.Is(errs[0], ErrInvalidConfig) {
		t.Error("InvalidConfigError does not wrap ErrInvalidConfig")
	}
	if got := len(cfgErr.FieldErrors); got != 5 {
		t.Errorf("FieldErrors = %d (%v), want 5", got, cfgErr.FieldErrors)
	}
}
