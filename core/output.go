package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// Field is one labeled line of text output.
type Field struct {
	Label string
	Value string
}

// Printer handles all display output for the CLI.
type Printer struct {
	JSON    bool
	Verbose bool
	Writer  io.Writer
}

// NewPrinter creates a default Printer writing to stdout.
func NewPrinter(jsonMode, verbose bool) *Printer {
	return &Printer{JSON: jsonMode, Verbose: verbose, Writer: os.Stdout}
}

// PrintRecord renders a header and labeled fields as text, or v as JSON.
func (p *Printer) PrintRecord(header []Field, fields []Field, v any) error {
	if p.JSON {
		return p.printJSON(v)
	}
	for _, f := range header {
		fmt.Fprintf(p.Writer, "%-6s: %s\n", f.Label, f.Value)
	}
	fmt.Fprintln(p.Writer)
	for _, f := range fields {
		fmt.Fprintf(p.Writer, "  %-20s %s\n", f.Label+":", f.Value)
	}
	return nil
}

// PrintTags dumps a raw tag dictionary sorted by key. Entries with a
// description show it next to the machine value in verbose mode.
func (p *Printer) PrintTags(tags TagDictionary) error {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if p.JSON {
		type jsonTag struct {
			Key         string `json:"key"`
			Value       string `json:"value"`
			Description string `json:"description,omitempty"`
		}
		out := make([]jsonTag, 0, len(keys))
		for _, k := range keys {
			e := tags[k]
			out = append(out, jsonTag{Key: k, Value: e.ValueString(), Description: e.Description})
		}
		return p.printJSON(out)
	}

	if len(keys) == 0 {
		fmt.Fprintln(p.Writer, "(no metadata found)")
		return nil
	}
	for _, k := range keys {
		e := tags[k]
		value := e.ValueString()
		switch {
		case e.Description != "" && p.Verbose:
			value = fmt.Sprintf("%s (%s)", e.Description, value)
		case e.Description != "":
			value = e.Description
		}
		fmt.Fprintf(p.Writer, "  %-34s %s\n", k+":", value)
	}
	return nil
}

func (p *Printer) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.Writer, string(b))
	return err
}

// PrintInfo prints an info line (suppressed in JSON mode).
func (p *Printer) PrintInfo(msg string) {
	if !p.JSON {
		fmt.Fprintln(p.Writer, msg)
	}
}

// PrintError prints an error to stderr.
func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, "✗ Error: "+msg)
}
