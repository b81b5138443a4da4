// Package report renders compiler diagnostics and document diffs for a
// terminal.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/hanpama/gqlc/internal/ir"
	language "github.com/hanpama/gqlc/internal/language"
	"github.com/mattn/go-isatty"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Printer writes reports to a writer, colouring them when asked to.
type Printer struct {
	w      io.Writer
	errTag *color.Color
	loc    *color.Color
	header *color.Color
	del    *color.Color
	ins    *color.Color
}

// New returns a Printer for w. Colour is enabled only when w is a terminal.
func New(w io.Writer) *Printer {
	return NewWithColor(w, isTerminal(w))
}

// NewWithColor returns a Printer for w with colour forced on or off.
func NewWithColor(w io.Writer, enabled bool) *Printer {
	p := &Printer{
		w:      w,
		errTag: color.New(color.FgRed, color.Bold),
		loc:    color.New(color.FgCyan),
		header: color.New(color.Bold),
		del:    color.New(color.FgRed),
		ins:    color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.errTag, p.loc, p.header, p.del, p.ins} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Error prints err. Validation errors are listed one violation per line
// with their source position; GraphQL syntax errors carry their location.
func (p *Printer) Error(err error) {
	var verr ir.ValidationError
	if errors.As(err, &verr) {
		for _, v := range verr {
			p.line(v.Message, v.File, v.Line, v.Column)
		}
		fmt.Fprintf(p.w, "%d violation(s)\n", len(verr))
		return
	}
	var gerr *language.Error
	if errors.As(err, &gerr) {
		line, col := 0, 0
		if len(gerr.Locations) > 0 {
			line, col = gerr.Locations[0].Line, gerr.Locations[0].Column
		}
		file, _ := gerr.Extensions["file"].(string)
		p.line(gerr.Message, file, line, col)
		return
	}
	p.line(err.Error(), "", 0, 0)
}

func (p *Printer) line(msg, file string, line, col int) {
	prefix := p.errTag.Sprint("error")
	if file == "" && line == 0 {
		fmt.Fprintf(p.w, "%s: %s\n", prefix, msg)
		return
	}
	var where string
	switch {
	case file == "":
		where = fmt.Sprintf("%d:%d", line, col)
	case line == 0:
		where = file
	default:
		where = fmt.Sprintf("%s:%d:%d", file, line, col)
	}
	fmt.Fprintf(p.w, "%s: %s: %s\n", p.loc.Sprint(where), prefix, msg)
}

// Diff prints a line diff between before and after labelled with name.
// Nothing is printed when the texts are equal. It reports whether the texts
// differed.
func (p *Printer) Diff(name, before, after string) bool {
	if before == after {
		return false
	}
	fmt.Fprintln(p.w, p.header.Sprintf("--- a/%s", name))
	fmt.Fprintln(p.w, p.header.Sprintf("+++ b/%s", name))
	for _, d := range LineDiff(before, after) {
		for _, l := range splitLines(d.Text) {
			switch d.Type {
			case diffpatch.DiffDelete:
				fmt.Fprintln(p.w, p.del.Sprint("-"+l))
			case diffpatch.DiffInsert:
				fmt.Fprintln(p.w, p.ins.Sprint("+"+l))
			default:
				fmt.Fprintln(p.w, " "+l)
			}
		}
	}
	return true
}

// LineDiff diffs before and after line by line.
func LineDiff(before, after string) []diffpatch.Diff {
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	return dmp.DiffCharsToLines(diffs, lines)
}

func splitLines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// Stripped prints one line per root listing the variables that were
// removed, ordered by root name.
func (p *Printer) Stripped(stripped map[string][]string) {
	roots := make([]string, 0, len(stripped))
	for r := range stripped {
		roots = append(roots, r)
	}
	slices.Sort(roots)
	for _, r := range roots {
		vars := make([]string, len(stripped[r]))
		for i, v := range stripped[r] {
			vars[i] = "$" + v
		}
		fmt.Fprintf(p.w, "%s: stripped %s\n", p.header.Sprint(r), strings.Join(vars, ", "))
	}
}
