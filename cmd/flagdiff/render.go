package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	flagstate "github.com/goliatone/go-flagstate"
	"github.com/goliatone/go-flagstate/compare"
	"github.com/goliatone/go-flagstate/featurediff"
	"github.com/goliatone/go-flagstate/linediff"
)

type printer struct {
	w       io.Writer
	json    bool
	header  lipgloss.Style
	label   lipgloss.Style
	added   lipgloss.Style
	removed lipgloss.Style
	dim     lipgloss.Style
}

func newPrinter(w io.Writer, cfg Config) *printer {
	r := lipgloss.NewRenderer(w)
	p := &printer{
		w:       w,
		json:    cfg.Output == "json",
		header:  r.NewStyle(),
		label:   r.NewStyle(),
		added:   r.NewStyle(),
		removed: r.NewStyle(),
		dim:     r.NewStyle(),
	}
	if cfg.Color {
		p.header = p.header.Foreground(lipgloss.Color("51")).Bold(true)
		p.label = p.label.Foreground(lipgloss.Color("45"))
		p.added = p.added.Foreground(lipgloss.Color("46"))
		p.removed = p.removed.Foreground(lipgloss.Color("196"))
		p.dim = p.dim.Foreground(lipgloss.Color("245"))
	}
	return p
}

func (p *printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) line(indent int, text string) {
	fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", indent), text)
}

// segments prints a dimension as +/- prefixed lines. Unchanged dimensions
// print nothing.
func (p *printer) segments(indent int, label string, segments []linediff.Segment) {
	if !linediff.HasChanges(segments) {
		return
	}
	p.line(indent, p.label.Render(label))
	for _, segment := range segments {
		for _, text := range strings.SplitAfter(segment.Value, "\n") {
			if text == "" {
				continue
			}
			text = strings.TrimSuffix(text, "\n")
			switch {
			case segment.Added:
				p.line(indent+1, p.added.Render("+ "+text))
			case segment.Removed:
				p.line(indent+1, p.removed.Render("- "+text))
			default:
				p.line(indent+1, p.dim.Render("  "+text))
			}
		}
	}
}

func (p *printer) comparison(result compare.Result, left, right string, onlyChanged bool) error {
	if p.json {
		if onlyChanged {
			result.Unchanged = nil
		}
		return p.encode(result)
	}

	p.line(0, p.header.Render(fmt.Sprintf("%s → %s: %d changed, %d unchanged", left, right, len(result.Changed), len(result.Unchanged))))
	for _, row := range result.Changed {
		p.line(1, row.ProjectFlag.Name)
		diff := row.Diff()
		p.segments(2, "enabled", diff.Enabled)
		p.segments(2, "value", diff.Value)
		if row.ValueChanged && !linediff.HasChanges(diff.Value) {
			p.line(2, p.dim.Render(fmt.Sprintf("value type %s → %s", row.LeftValue.Kind(), row.RightValue.Kind())))
		}
	}
	if onlyChanged {
		return nil
	}
	for _, row := range result.Unchanged {
		p.line(1, p.dim.Render(row.ProjectFlag.Name))
	}
	return nil
}

func (p *printer) version(name string, diff featurediff.VersionDiff) error {
	if p.json {
		return p.encode(diff)
	}

	p.line(0, p.header.Render(fmt.Sprintf("%s: %d changes", name, diff.TotalChanges)))
	if !diff.HasChanges() {
		p.line(1, p.dim.Render("No Changes"))
		return nil
	}
	if diff.Default.HasChanges() {
		p.line(1, "Environment default")
		p.segments(2, "enabled", diff.Default.Enabled)
		p.segments(2, "value", diff.Default.Value)
	}
	if featurediff.VariationChanges(diff.Variations) > 0 {
		p.line(1, "Variations")
		for _, row := range diff.Variations {
			if row.Changed {
				p.segments(2, row.Label, row.Weight)
			}
		}
	}
	for _, entry := range diff.Segments {
		if !entry.Diff.HasChanges() {
			continue
		}
		p.line(1, "Segment "+entry.Name)
		p.segments(2, "name", entry.Diff.Name)
		p.segments(2, "priority", entry.Diff.Priority)
		p.segments(2, "enabled", entry.Diff.Enabled)
		p.segments(2, "value", entry.Diff.Value)
	}
	return nil
}

func (p *printer) resolution(name string, res flagstate.Resolution) error {
	if p.json {
		return p.encode(struct {
			Feature string                  `json:"feature"`
			Level   string                  `json:"level"`
			State   *flagstate.FeatureState `json:"state"`
			Trace   flagstate.Trace         `json:"trace"`
		}{name, res.Level.String(), res.State, res.Trace})
	}

	p.line(0, p.header.Render(fmt.Sprintf("%s resolved from %s (state %d)", name, res.Level, res.State.ID)))
	p.line(1, fmt.Sprintf("enabled: %t", res.State.Enabled))
	p.line(1, fmt.Sprintf("value: %s", flagstate.Stringify(res.State.Value)))
	for _, layer := range res.Trace.Layers {
		text := layer.Level
		if layer.Priority != nil {
			text += fmt.Sprintf(" segment=%d priority=%d", layer.SegmentID, *layer.Priority+1)
		}
		switch {
		case layer.Selected:
			p.line(1, p.added.Render("* "+text))
		case layer.Evaluated && !layer.Active:
			p.line(1, p.dim.Render("  "+text+" (not matched)"))
		default:
			p.line(1, p.dim.Render("  "+text))
		}
	}
	return nil
}

func (p *printer) validation(path string, err error) {
	if err == nil {
		p.line(0, p.added.Render("ok")+" "+path)
		return
	}
	p.line(0, p.removed.Render("invalid")+" "+path)
	for _, msg := range strings.Split(err.Error(), "\n") {
		p.line(1, msg)
	}
}
