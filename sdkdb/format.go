package sdkdb

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// Reporter receives mismatches as a comparison finds them
type Reporter interface {
	Report(m *Mismatch)
}

// ReporterFunc adapts a function to the Reporter interface
type ReporterFunc func(m *Mismatch)

// Report implements the Reporter interface
func (f ReporterFunc) Report(m *Mismatch) { f(m) }

// TextReporter writes mismatches to W as the legacy diagnostic lines. if
// Color is true it will add
// red for missing keys, entries & targets
// blue for value changes
// yellow for the library annotation & visibility errors
type TextReporter struct {
	W     io.Writer
	Color bool
}

var colorMap = map[Operation]string{
	Operation("close"): "\x1b[0m", // end color tag

	DTNotEqual:      "\x1b[34m", // blue
	DTMissingKey:    "\x1b[31m", // red
	DTMissingEntry:  "\x1b[31m",
	DTMissingTarget: "\x1b[31m",
	DTVisibility:    "\x1b[33m", // yellow
	DTLibrary:       "\x1b[33m",
}

// Report implements the Reporter interface
func (r *TextReporter) Report(m *Mismatch) {
	if !r.Color {
		io.WriteString(r.W, m.String())
		return
	}
	line := m.String()
	// keep the trailing separator outside the color codes
	body, tail := line[:len(line)-1], line[len(line)-1:]
	fmt.Fprintf(r.W, "%s%s%s%s", colorMap[m.Type], body, colorMap[Operation("close")], tail)
}

// CollectReporter buffers mismatches in memory. library annotations are
// folded into the mismatches they annotate instead of being stored
type CollectReporter struct {
	mu         sync.Mutex
	mismatches Mismatches
	pending    int
}

// Report implements the Reporter interface
func (r *CollectReporter) Report(m *Mismatch) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.Type == DTLibrary {
		for _, prev := range r.mismatches[r.pending:] {
			prev.Library = m.Library
		}
		r.pending = len(r.mismatches)
		return
	}
	r.mismatches = append(r.mismatches, m)
	if m.Type != DTNotEqual && m.Type != DTMissingKey {
		r.pending = len(r.mismatches)
	}
}

// Mismatches returns everything collected so far
func (r *CollectReporter) Mismatches() Mismatches {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mismatches
}

// MultiReporter fans mismatches out to several reporters
func MultiReporter(rs ...Reporter) Reporter {
	return ReporterFunc(func(m *Mismatch) {
		for _, r := range rs {
			r.Report(m)
		}
	})
}

// FormatPrettyString is a convenience wrapper that outputs to a string
// instead of an io.Writer
func FormatPrettyString(mismatches Mismatches, colorTTY bool) string {
	buf := &bytes.Buffer{}
	FormatPretty(buf, mismatches, colorTTY)
	return buf.String()
}

// FormatPretty writes collected mismatches to w as legacy diagnostic lines.
// mismatches carrying a library are closed with their library annotation
func FormatPretty(w io.Writer, mismatches Mismatches, colorTTY bool) {
	r := &TextReporter{W: w, Color: colorTTY}
	for _, m := range mismatches {
		r.Report(m)
		if m.Library != "" && (m.Type == DTNotEqual || m.Type == DTMissingKey) {
			r.Report(&Mismatch{Type: DTLibrary, Library: m.Library})
		}
	}
}

// FormatPrettyStats prints a string of stats info
func FormatPrettyStats(st *Stats) string {
	return formatStats(st, false)
}

// FormatPrettyStatsColor prints a string of stats info with ANSI colors
func FormatPrettyStatsColor(st *Stats) string {
	return formatStats(st, true)
}

func formatStats(st *Stats, color bool) string {
	var (
		neutralColor, okColor, failColor, closeColor string
	)

	if st == nil {
		return ""
	}

	if color {
		neutralColor = "\x1b[37m"
		okColor = "\x1b[32m"
		failColor = "\x1b[31m"
		closeColor = "\x1b[0m"
	}

	buf := &bytes.Buffer{}

	targetsWord := "targets"
	if st.Targets == 1 {
		targetsWord = "target"
	}
	buf.WriteString(fmt.Sprintf("%s%d %s.%s", neutralColor, st.Targets, targetsWord, closeColor))

	entriesWord := "entries"
	if st.Entries == 1 {
		entriesWord = "entry"
	}
	buf.WriteString(fmt.Sprintf(" %s%d %s compared.%s", okColor, st.Entries, entriesWord, closeColor))

	mismatchColor := okColor
	if st.Mismatched > 0 {
		mismatchColor = failColor
	}
	buf.WriteString(fmt.Sprintf(" %s%d mismatched.%s", mismatchColor, st.Mismatched, closeColor))

	if st.Missing > 0 {
		buf.WriteString(fmt.Sprintf(" %s%d missing.%s", failColor, st.Missing, closeColor))
	}
	if st.Skipped > 0 {
		buf.WriteString(fmt.Sprintf(" %s%d skipped.%s", neutralColor, st.Skipped, closeColor))
	}

	buf.WriteRune('\n')

	return buf.String()
}
