// Command edlinfo parses a Pro Tools session info export and prints a
// summary or the parsed session as JSON.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/therealutkarshpriyadarshi/edlkit/internal/loader"
	"github.com/therealutkarshpriyadarshi/edlkit/pkg/edl"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("edlinfo", flag.ContinueOnError)
	fs.SetOutput(stderr)

	encoding := fs.String("e", loader.EncodingAuto, "text encoding: auto, utf-8, utf-16, utf-16le, utf-16be, macintosh, windows-1252")
	unknown := fs.String("unknown", string(edl.UnknownSectionIgnore), "unknown section policy: ignore, warn, error")
	onError := fs.String("on-error", string(edl.AbortSession), "section error policy: abort_session, skip_section")
	asJSON := fs.Bool("json", false, "print the parsed session as JSON")
	verbose := fs.Bool("v", false, "list every marker and event")

	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: edlinfo [options] <export.txt>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	parser, err := edl.NewParser(edl.Options{
		OnUnknownSection:    edl.UnknownSectionPolicy(*unknown),
		OnSectionParseError: edl.SectionErrorPolicy(*onError),
	})
	if err != nil {
		fmt.Fprintf(stderr, "edlinfo: %v\n", err)
		return 2
	}

	export, err := loader.LoadFile(fs.Arg(0), *encoding)
	if err != nil {
		fmt.Fprintf(stderr, "edlinfo: %v\n", err)
		return 1
	}

	session, err := parser.Parse(export.Text)
	if err != nil {
		var perr *edl.SectionParseError
		if errors.As(err, &perr) {
			fmt.Fprintf(stderr, "edlinfo: %s:%d: %v\n", fs.Arg(0), perr.Line, err)
		} else {
			fmt.Fprintf(stderr, "edlinfo: %v\n", err)
		}
		return 1
	}

	for _, w := range session.Warnings {
		fmt.Fprintf(stderr, "warning: %s\n", w)
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(session); err != nil {
			fmt.Fprintf(stderr, "edlinfo: %v\n", err)
			return 1
		}
		return 0
	}

	printSummary(stdout, export, session, *verbose)
	return 0
}

func printSummary(out io.Writer, export *loader.Export, s *edl.Session, verbose bool) {
	h := s.Header
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	rate := h.FrameRate.String()
	if h.DropFrame {
		rate += " drop frame"
	}
	sections := make([]string, 0, len(s.Sections))
	for _, section := range s.Sections {
		sections = append(sections, section.String())
	}

	fmt.Fprintf(tw, "Session:\t%s\n", h.SessionName)
	fmt.Fprintf(tw, "Sample rate:\t%g\n", h.SampleRate)
	fmt.Fprintf(tw, "Frame rate:\t%s\n", rate)
	fmt.Fprintf(tw, "Start:\t%s\n", h.StartTimecode)
	fmt.Fprintf(tw, "Encoding:\t%s\n", export.Encoding)
	fmt.Fprintf(tw, "Sections:\t%s\n", strings.Join(sections, ", "))
	fmt.Fprintf(tw, "Files:\t%d online, %d offline\n", len(s.OnlineFiles), len(s.OfflineFiles))
	fmt.Fprintf(tw, "Clips:\t%d\n", len(s.OnlineClips))
	fmt.Fprintf(tw, "Plug-ins:\t%d\n", len(s.Plugins))
	fmt.Fprintf(tw, "Tracks:\t%d (%d events)\n", len(s.Tracks), s.EventCount())
	for _, t := range s.Tracks {
		fmt.Fprintf(tw, "  %s\t%d events, %d channels\n", t.Name, len(t.Events), t.Channels())
		if verbose {
			for _, e := range t.Events {
				fmt.Fprintf(tw, "    %d.%d\t%s\t%s - %s\n", e.Channel, e.Number, e.ClipName, e.Start, e.End)
			}
		}
	}
	fmt.Fprintf(tw, "Markers:\t%d\n", len(s.Markers))
	if verbose {
		for _, m := range s.Markers {
			fmt.Fprintf(tw, "  %d\t%s\t%s\n", m.Number, m.Location, m.Name)
		}
	}
	if len(s.Warnings) > 0 {
		fmt.Fprintf(tw, "Warnings:\t%d\n", len(s.Warnings))
	}
	tw.Flush()
}
