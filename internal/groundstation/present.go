package groundstation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/roman-kulish/cansat-telemetry/internal/config"
)

const (
	DefaultTableRows = 20
	DefaultRefresh   = time.Second

	clearScreen = "\033[H\033[2J"
)

var headerColor = color.New(color.FgCyan, color.Bold)

// WithPlot renders the temperature chart to path on every refresh
func WithPlot(plotter *Plotter, path string) func(p *Presenter) {
	return func(p *Presenter) {
		p.plotter = plotter
		p.plotFile = path
	}
}

// WithTableRows sets how many of the newest rows the table shows
func WithTableRows(n int) func(p *Presenter) {
	return func(p *Presenter) {
		if n > 0 {
			p.tableRows = n
		}
	}
}

// WithRefresh sets the refresh interval
func WithRefresh(d time.Duration) func(p *Presenter) {
	return func(p *Presenter) {
		if d > 0 {
			p.refresh = d
		}
	}
}

// WithClearScreen redraws the table in place on a terminal
func WithClearScreen(clear bool) func(p *Presenter) {
	return func(p *Presenter) {
		p.clear = clear
	}
}

// WithPresenterLogger sets the diagnostic logger
func WithPresenterLogger(logger *slog.Logger) func(p *Presenter) {
	return func(p *Presenter) {
		p.logger = logger.With(slog.String("component", "presenter"))
	}
}

// Presenter periodically renders the window. It only ever reads snapshots.
type Presenter struct {
	window *Window
	out    io.Writer

	plotter  *Plotter
	plotFile string

	tableRows int
	refresh   time.Duration
	clear     bool

	logger *slog.Logger
}

func NewPresenter(window *Window, out io.Writer, options ...func(p *Presenter)) *Presenter {
	p := Presenter{
		window:    window,
		out:       out,
		tableRows: DefaultTableRows,
		refresh:   DefaultRefresh,
		logger:    config.DiscardLogger(),
	}

	for _, option := range options {
		option(&p)
	}

	return &p
}

// Run refreshes the display on a fixed ticker until ctx is cancelled
func (p *Presenter) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.Render(); err != nil {
				p.logger.Warn("error refreshing display", slog.String("error", err.Error()))
			}
		}
	}
}

// Render draws the table and the plot once from a single snapshot
func (p *Presenter) Render() error {
	rows := p.window.Snapshot()

	var buf bytes.Buffer
	if p.clear {
		buf.WriteString(clearScreen)
	}
	if err := WriteTable(&buf, rows, p.tableRows); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	buf.WriteString(statusLine(rows, p.window.Total(), p.window.Cap()))

	if _, err := p.out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}

	if p.plotter != nil && p.plotFile != "" {
		if err := p.plotter.WriteFile(p.plotFile, TemperatureSeries(rows)); err != nil {
			return fmt.Errorf("rendering plot: %w", err)
		}
	}

	return nil
}

// WriteTable writes the newest limit rows as an aligned table with a coloured header
func WriteTable(w io.Writer, rows []Row, limit int) error {
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(CSVHeader, "\t"))
	for _, r := range rows {
		cells := make([]string, Columns)
		for i, v := range r {
			if v == "" {
				v = "-"
			}
			cells[i] = v
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	header, body, _ := strings.Cut(buf.String(), "\n")
	if _, err := fmt.Fprintln(w, headerColor.Sprint(header)); err != nil {
		return err
	}
	_, err := io.WriteString(w, body)
	return err
}

func statusLine(rows []Row, total uint64, capacity int) string {
	status := fmt.Sprintf("%s rows received, %d/%d in window", humanize.Comma(int64(total)), len(rows), capacity)

	for i := len(rows) - 1; i >= 0; i-- {
		if ts, err := rows[i].Time(); err == nil {
			status += fmt.Sprintf(", newest record from %s", humanize.Time(ts))
			break
		}
	}
	return status + "\n"
}
