// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/invowk/pyenvs/internal/envinfo"
)

// envView is the serialized form of a record in --json output.
type envView struct {
	DisplayName string `json:"displayName"`
	Kind        string `json:"kind"`
	Name        string `json:"name,omitempty"`
	Version     string `json:"version,omitempty"`
	Arch        string `json:"arch,omitempty"`
	Executable  string `json:"executable"`
	SysPrefix   string `json:"sysPrefix,omitempty"`
	Location    string `json:"location,omitempty"`
	Org         string `json:"org,omitempty"`
	Workspace   string `json:"workspace,omitempty"`
}

func viewOf(env *envinfo.EnvInfo) envView {
	v := envView{
		DisplayName: env.DisplayName(),
		Kind:        string(env.Kind),
		Name:        env.Name,
		Arch:        env.Arch.DisplayName(),
		Executable:  env.Executable.Filename,
		SysPrefix:   env.Executable.SysPrefix,
		Location:    env.Location,
		Org:         env.Distro.Org,
		Workspace:   workspaceLabel(env),
	}
	if !env.Version.IsEmpty() && !env.Version.IsZero() {
		v.Version = env.Version.ShortString()
	}
	return v
}

func writeJSON(w io.Writer, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(payload))
	return err
}

// renderEnvTable lays records out as a bordered table.
func renderEnvTable(envs []*envinfo.EnvInfo) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtitleStyle).
		Headers("KIND", "NAME", "VERSION", "EXECUTABLE").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
	for _, env := range envs {
		v := viewOf(env)
		version := v.Version
		if version == "" {
			version = "-"
		}
		name := v.Name
		if name == "" {
			name = "-"
		}
		t.Row(v.Kind, name, version, v.Executable)
	}
	return t.Render()
}

// renderEnvDetails prints one record as key/value lines.
func renderEnvDetails(w io.Writer, env *envinfo.EnvInfo) {
	v := viewOf(env)
	fmt.Fprintln(w, TitleStyle.Render(v.DisplayName))
	rows := []struct{ key, value string }{
		{"kind", v.Kind},
		{"name", v.Name},
		{"version", v.Version},
		{"arch", v.Arch},
		{"executable", v.Executable},
		{"sys prefix", v.SysPrefix},
		{"location", v.Location},
		{"org", v.Org},
		{"workspace", v.Workspace},
	}
	for _, r := range rows {
		if r.value == "" {
			continue
		}
		fmt.Fprintf(w, "  %s: %s\n", KeyStyle.Render(r.key), r.value)
	}
}
