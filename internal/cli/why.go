package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/neoclaw-ai/nono/internal/capability"
	"github.com/neoclaw-ai/nono/internal/state"
	"github.com/spf13/cobra"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// whyReport is the machine-readable form of `nono why --self`.
type whyReport struct {
	Sandboxed bool                `json:"sandboxed"`
	State     *state.SandboxState `json:"state,omitempty"`
	Query     *pathQuery          `json:"query,omitempty"`
}

type pathQuery struct {
	Path    string          `json:"path"`
	Allowed bool            `json:"allowed"`
	Matches []state.FSState `json:"matches"`
}

func newWhyCmd() *cobra.Command {
	var (
		self   bool
		format string
	)
	cmd := &cobra.Command{
		Use:   "why --self [PATH]",
		Short: "Explain the sandbox policy of the current process",
		Long: "Reports the capabilities granted to the sandbox this process runs in.\n" +
			"With PATH, lists every grant that covers it.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case formatText, formatJSON, formatYAML:
			default:
				return fmt.Errorf("unsupported format %q (allowed: %s, %s, %s)", format, formatText, formatJSON, formatYAML)
			}

			report, caps, err := loadSelf()
			if err != nil {
				if state.IsSecurityError(err) {
					fmt.Fprintf(cmd.ErrOrStderr(), "SECURITY: %s validation failed: %v\n", state.EnvCapFile, err)
					fmt.Fprintln(cmd.ErrOrStderr(), "SECURITY: This may indicate an attack attempt or a bug in nono")
				}
				return err
			}
			if report.Sandboxed && len(args) == 1 {
				report.Query = queryPath(caps, args[0])
			}
			return writeReport(cmd.OutOrStdout(), format, report, caps)
		},
	}
	cmd.Flags().BoolVar(&self, "self", false, "Inspect the sandbox of the current process")
	cmd.Flags().StringVar(&format, "format", formatText, "Output format: text, json, or yaml")
	_ = cmd.MarkFlagRequired("self")
	return cmd
}

func loadSelf() (whyReport, *capability.Set, error) {
	st, found, err := newStore().Load(state.OSEnvironment{})
	if err != nil {
		return whyReport{}, nil, err
	}
	if !found {
		return whyReport{Sandboxed: false}, nil, nil
	}
	caps, err := state.Decode(st)
	if err != nil {
		return whyReport{}, nil, err
	}
	return whyReport{Sandboxed: true, State: st}, caps, nil
}

func queryPath(caps *capability.Set, raw string) *pathQuery {
	path := raw
	if resolved, err := capability.Canonicalize(raw); err == nil {
		path = resolved
	} else if abs, err := filepath.Abs(raw); err == nil {
		path = abs
	}
	q := &pathQuery{Path: path, Matches: []state.FSState{}}
	for _, fs := range caps.Matching(path) {
		q.Matches = append(q.Matches, state.EncodeFS(fs))
	}
	q.Allowed = len(q.Matches) > 0
	return q
}

func writeReport(w io.Writer, format string, report whyReport, caps *capability.Set) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case formatYAML:
		out, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("render yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	}

	if !report.Sandboxed {
		_, err := fmt.Fprintln(w, "not running inside a nono sandbox")
		return err
	}
	var b strings.Builder
	b.WriteString("Running inside a nono sandbox.\n\nCapabilities:\n")
	for _, line := range strings.Split(caps.Summary(), "\n") {
		b.WriteString("  " + line + "\n")
	}
	if q := report.Query; q != nil {
		b.WriteString("\n")
		if !q.Allowed {
			fmt.Fprintf(&b, "%s: not covered by any grant; access is denied\n", q.Path)
		} else {
			fmt.Fprintf(&b, "%s: covered by %d grant(s):\n", q.Path, len(q.Matches))
			for _, fs := range caps.Matching(q.Path) {
				fmt.Fprintf(&b, "  %s [%s] (%s)\n", fs.Resolved(), fs.Access(), fs.Kind())
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
