package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"github.com/DollarNoob/Pay/pkg/types"
)

// printer renders projections on the terminal, keeping a spinner running
// while the swap is in flight.
type printer struct {
	mu   sync.Mutex
	out  io.Writer
	spin *spinner.Spinner
	json bool
}

func newPrinter(jsonOutput bool) *printer {
	return &printer{
		out:  os.Stdout,
		spin: spinner.New(spinner.CharSets[14], 100*time.Millisecond),
		json: jsonOutput,
	}
}

// wait shows message on the spinner until the next projection arrives.
func (p *printer) wait(message string) {
	if p.json {
		return
	}
	p.spin.Suffix = " " + message
	p.spin.Start()
}

func (p *printer) stop() {
	p.spin.Stop()
}

func (p *printer) Publish(_ context.Context, proj types.StatusProjection) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.json {
		return json.NewEncoder(p.out).Encode(proj)
	}

	p.spin.Stop()
	render(p.out, proj)
	if !proj.Final() && !hasAction(proj, types.ActionResume) {
		p.wait(proj.Title)
	}
	return nil
}

func render(w io.Writer, proj types.StatusProjection) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 60))
	fmt.Fprintln(w, "  "+paint(proj.Color).Sprint(proj.Title))
	fmt.Fprintln(w, strings.Repeat("=", 60))

	if proj.Description != "" {
		for _, line := range strings.Split(proj.Description, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	if proj.OrderID != "" {
		fmt.Fprintf(w, "\n  Order:   %s\n", color.CyanString(proj.OrderID))
	}
	if proj.ErrorCode != "" {
		fmt.Fprintf(w, "  Code:    %s\n", color.HiBlackString(proj.ErrorCode))
	}
	for _, a := range proj.Actions {
		fmt.Fprintf(w, "  %-20s %s\n", a.Label+":", color.CyanString(a.Value))
	}
}

func paint(c int) *color.Color {
	switch c {
	case types.ColorGreen:
		return color.New(color.FgGreen, color.Bold)
	case types.ColorRed:
		return color.New(color.FgRed, color.Bold)
	case types.ColorGrey:
		return color.New(color.FgHiBlack, color.Bold)
	}
	return color.New(color.FgBlue, color.Bold)
}

func hasAction(proj types.StatusProjection, kind types.ActionKind) bool {
	for _, a := range proj.Actions {
		if a.Kind == kind {
			return true
		}
	}
	return false
}
