package plotter

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Point is one (timestamp, size) pair of the recent series.
type Point struct {
	Timestamp time.Time
	Size      uint64
}

// Chart is everything drawn on the image.
type Chart struct {
	Title         string
	Series        []Point
	HistoricalMax uint64
}

// Renderer encodes a chart as PNG bytes.
type Renderer interface {
	Render(chart Chart) ([]byte, error)
}

var _ Renderer = (*ChartRenderer)(nil)

type ChartRenderer struct {
	Width  vg.Length
	Height vg.Length
}

func NewChartRenderer() *ChartRenderer {
	return &ChartRenderer{Width: 8 * vg.Inch, Height: 6 * vg.Inch}
}

var (
	seriesColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	maxColor    = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

func (r *ChartRenderer) Render(chart Chart) ([]byte, error) {
	if len(chart.Series) == 0 {
		return nil, errors.New("no points to plot")
	}

	p := plot.New()
	p.Title.Text = chart.Title
	p.X.Label.Text = "Timestamp"
	p.Y.Label.Text = "Size (bytes)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "15:04:05", Time: plot.UTCUnixTime}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(chart.Series))
	xmin, xmax := unixSeconds(chart.Series[0].Timestamp), unixSeconds(chart.Series[0].Timestamp)
	for i, pt := range chart.Series {
		pts[i].X = unixSeconds(pt.Timestamp)
		pts[i].Y = float64(pt.Size)
		xmin = min(xmin, pts[i].X)
		xmax = max(xmax, pts[i].X)
	}
	if xmin == xmax {
		xmin--
		xmax++
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("building size series: %w", err)
	}
	line.Color = seriesColor
	points.Color = seriesColor
	points.Shape = draw.CircleGlyph{}

	maxY := float64(chart.HistoricalMax)
	maxLine, err := plotter.NewLine(plotter.XYs{{X: xmin, Y: maxY}, {X: xmax, Y: maxY}})
	if err != nil {
		return nil, fmt.Errorf("building historical max line: %w", err)
	}
	maxLine.Color = maxColor
	maxLine.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}

	p.Add(line, points, maxLine)
	p.Legend.Add("Recent bucket size", line, points)
	p.Legend.Add(fmt.Sprintf("Historical max: %d bytes", chart.HistoricalMax), maxLine)

	p.Y.Min = 0
	if p.Y.Max <= 0 {
		p.Y.Max = 1
	}

	wt, err := p.WriterTo(r.Width, r.Height, "png")
	if err != nil {
		return nil, fmt.Errorf("creating png canvas: %w", err)
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
