package main

import (
	"fmt"
	"io"
	"path/filepath"

	"fileorg/internal/organizer"
	"fileorg/internal/textutil"
)

// cliSink prints progress and entries as plain lines. Calls arrive
// serialized from the organizer.
type cliSink struct {
	out   io.Writer
	color bool
	quiet bool
}

func newCLISink(out io.Writer, quiet bool) *cliSink {
	return &cliSink{out: out, color: shouldColorize(out), quiet: quiet}
}

func (s *cliSink) Progress(p organizer.Progress) {
	if p.State == organizer.StateFailed {
		return
	}
	width := len(fmt.Sprint(p.Scanned))
	line := fmt.Sprintf("[%*d/%d] %s organized, %d failed",
		width, p.Processed, p.Scanned,
		textutil.Plural(p.Succeeded, "file", "files"),
		p.Failed)
	if p.CurrentFile != "" {
		line += "  " + textutil.TruncateMiddle(filepath.Base(p.CurrentFile), 48)
	}
	fmt.Fprintln(s.out, paint(s.color, ansiBlue, line))
}

func (s *cliSink) Log(e organizer.Entry) {
	var marker, color string
	switch e.Severity {
	case organizer.SeveritySuccess:
		if s.quiet && e.Path != "" {
			return
		}
		marker, color = "✓", ansiGreen
	case organizer.SeverityWarning:
		marker, color = "!", ansiYellow
	case organizer.SeverityError:
		marker, color = "✗", ansiRed
	default:
		if s.quiet {
			return
		}
		marker, color = "·", ansiDim
	}
	fmt.Fprintf(s.out, "%s %s\n", paint(s.color, color, marker), e.Message)
}
