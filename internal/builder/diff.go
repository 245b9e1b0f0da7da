package builder

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

var (
	diffAdd    = color.New(color.FgGreen)
	diffDelete = color.New(color.FgRed)
	diffHeader = color.New(color.Bold)
)

// writeDiff prints a line diff turning before into after, prefixed like a unified
// diff. Unchanged lines are omitted.
func writeDiff(w io.Writer, name string, before, after []byte) error {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	if _, err := diffHeader.Fprintf(w, "--- %s\n+++ %s\n", name, name); err != nil {
		return err
	}
	for _, d := range diffs {
		var (
			c      *color.Color
			prefix string
		)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			c, prefix = diffAdd, "+"
		case diffmatchpatch.DiffDelete:
			c, prefix = diffDelete, "-"
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			if !strings.HasSuffix(line, "\n") {
				line += "\n"
			}
			if _, err := c.Fprint(w, prefix+line); err != nil {
				return err
			}
		}
	}
	return nil
}

// diffStat summarizes a change in the form "+3 -1".
func diffStat(before, after []byte) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var added, deleted int
	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			deleted += n
		}
	}
	return fmt.Sprintf("+%d -%d", added, deleted)
}
