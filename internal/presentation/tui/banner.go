package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`  ___  ___ ___  _   _ _____ `, "#34d399"},
	{` / __|/ __/ _ \| | | |_   _|`, "#2dd4bf"},
	{` \__ \ (_| (_) | |_| | | |  `, "#22d3ee"},
	{` |___/\___\___/ \___/  |_|  `, "#38bdf8"},
}

// PrintBanner writes the scout banner to w using the terminal's color profile.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Status colors a run outcome for a one-line progress report.
func Status(w io.Writer, site string, outcome string, ok bool) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	color := "#34d399"
	if !ok {
		color = "#f87171"
	}
	fmt.Fprintf(w, "%s %s\n", out.String(site).Bold(), out.String(outcome).Foreground(p.Color(color)))
}
