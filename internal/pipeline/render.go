package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ppiankov/entagg/internal/model"
	"gopkg.in/yaml.v3"
)

// Output formats understood by Renderer
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
)

// Renderer presents aggregation tables
type Renderer struct {
	format string
	top    int
}

// NewRenderer creates a renderer for format, keeping at most top entries
// per slug (0 = all)
func NewRenderer(format string, top int) (*Renderer, error) {
	switch format {
	case FormatText, FormatJSON, FormatYAML, FormatMarkdown:
	case "md":
		format = FormatMarkdown
	case "":
		format = FormatText
	default:
		return nil, fmt.Errorf("unknown output format %q: must be text, json, yaml, or markdown", format)
	}
	return &Renderer{format: format, top: top}, nil
}

// Render writes table to w
func (r *Renderer) Render(w io.Writer, table *model.Table) error {
	table = table.Top(r.top)

	bw := bufio.NewWriter(w)
	var err error
	switch r.format {
	case FormatJSON:
		err = renderJSON(bw, table)
	case FormatYAML:
		err = renderYAML(bw, table)
	case FormatMarkdown:
		err = renderMarkdown(bw, table)
	default:
		err = renderText(bw, table)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", r.format, err)
	}
	return bw.Flush()
}

// RenderFile writes table to path
func (r *Renderer) RenderFile(path string, table *model.Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close output file: %w", closeErr)
		}
	}()

	return r.Render(f, table)
}

func renderJSON(w io.Writer, table *model.Table) error {
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func renderYAML(w io.Writer, table *model.Table) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(table); err != nil {
		return err
	}
	return enc.Close()
}

// renderText prints one block per slug with values aligned on the count
func renderText(w io.Writer, table *model.Table) error {
	for i, slug := range table.Slugs() {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s\n", slug); err != nil {
			return err
		}

		counts, _ := table.Get(slug)
		width := 0
		for _, vc := range counts {
			width = max(width, len(displayValue(vc.Value)))
		}
		for _, vc := range counts {
			if _, err := fmt.Fprintf(w, "  %-*s  %d\n", width, displayValue(vc.Value), vc.Count); err != nil {
				return err
			}
		}
	}
	return nil
}

func renderMarkdown(w io.Writer, table *model.Table) error {
	for i, slug := range table.Slugs() {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "## %s\n\n| Value | Count |\n|---|---:|\n", slug); err != nil {
			return err
		}
		counts, _ := table.Get(slug)
		for _, vc := range counts {
			cell := strings.ReplaceAll(displayValue(vc.Value), "|", `\|`)
			if _, err := fmt.Fprintf(w, "| %s | %d |\n", cell, vc.Count); err != nil {
				return err
			}
		}
	}
	return nil
}

// displayValue quotes strings so that "null" and null stay distinguishable
func displayValue(v model.Value) string {
	if v.Kind() == model.KindString {
		return strconv.Quote(v.String())
	}
	return v.String()
}
