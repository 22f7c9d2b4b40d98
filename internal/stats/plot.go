package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	defaultPlotHeight   = 6
	minPlotWidth        = 10
	axisSeparator       = " │ "
	terminalWidthBackup = 80
)

var barBlocks = []rune(" ▁▂▃▄▅▆▇█")

var barStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

// PlotBars renders values as a vertical bar chart, oldest on the left.
// Values are resampled when there are more than width columns.
func PlotBars(w io.Writer, title string, values []float64, width, height int, useColor bool) error {
	if len(values) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}
	cols := values
	if len(cols) > width {
		cols = resampleSeries(values, width)
	}

	_, maxVal := minMax(cols)
	topLabel := fmt.Sprintf("%.0f", maxVal)
	labelWidth := max(runewidth.StringWidth(topLabel), 1)
	useColor = useColor && os.Getenv("NO_COLOR") == ""

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for row := height - 1; row >= 0; row-- {
		label := ""
		switch row {
		case height - 1:
			label = topLabel
		case 0:
			label = "0"
		}
		var b strings.Builder
		b.WriteString(runewidth.FillLeft(label, labelWidth))
		b.WriteString(axisSeparator)
		var bars strings.Builder
		for _, v := range cols {
			bars.WriteRune(barRune(v, maxVal, row, height))
		}
		if useColor {
			b.WriteString(barStyle.Render(bars.String()))
		} else {
			b.WriteString(bars.String())
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " ")); err != nil {
			return err
		}
	}
	var total float64
	for _, v := range values {
		total += v
	}
	if _, err := fmt.Fprintf(w, "%s   %d days, %.1f total, trend %s\n", strings.Repeat(" ", labelWidth), len(values), total, Sparkline(MovingAverage(values, 3))); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func barRune(v, maxVal float64, row, height int) rune {
	if maxVal <= 0 || v <= 0 {
		return barBlocks[0]
	}
	eighths := int(math.Round(v / maxVal * float64(height*8)))
	level := eighths - row*8
	if level <= 0 {
		return barBlocks[0]
	}
	if level >= 8 {
		return barBlocks[8]
	}
	return barBlocks[level]
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	plotWidth := totalWidth - utf8.RuneCountInString(axisSeparator) - 4
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// resampleSeries averages values down to width buckets.
func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	if len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := int(float64(i) * float64(len(values)) / float64(width))
		end := int(float64(i+1) * float64(len(values)) / float64(width))
		if end <= start {
			end = start + 1
		}
		if end > len(values) {
			end = len(values)
		}
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}
