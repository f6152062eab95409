package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const chartDPI = 96

var (
	barColor  = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	lineColor = color.RGBA{R: 220, G: 80, B: 60, A: 255}
)

// renderChart draws post counts over average sentiment for each bucket and
// writes the figure as PNG to path.
func renderChart(path, title string, buckets []Bucket, width, height int) error {
	if len(buckets) == 0 {
		return fmt.Errorf("rendering %s: no buckets", filepath.Base(path))
	}

	labels := make([]string, len(buckets))
	counts := make(plotter.Values, len(buckets))
	avg := make(plotter.XYs, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Label
		counts[i] = float64(b.Posts)
		avg[i].X = float64(i)
		avg[i].Y = b.AvgSentiment
	}

	top := plot.New()
	top.Title.Text = title
	top.Y.Label.Text = "Posts"
	bars, err := plotter.NewBarChart(counts, barWidth(width, len(buckets)))
	if err != nil {
		return fmt.Errorf("building post counts: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = 0
	top.Add(plotter.NewGrid(), bars)
	top.NominalX(labels...)

	bottom := plot.New()
	bottom.Y.Label.Text = "Average sentiment"
	bottom.Y.Min, bottom.Y.Max = -1, 1
	line, points, err := plotter.NewLinePoints(avg)
	if err != nil {
		return fmt.Errorf("building sentiment line: %w", err)
	}
	line.Color = lineColor
	points.Color = lineColor
	points.Shape = draw.CircleGlyph{}
	bottom.Add(plotter.NewGrid(), line, points)
	bottom.NominalX(labels...)

	img := vgimg.NewWith(vgimg.UseWH(px(width), px(height)), vgimg.UseDPI(chartDPI))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      2,
		Cols:      1,
		PadTop:    vg.Points(10),
		PadBottom: vg.Points(10),
		PadLeft:   vg.Points(10),
		PadRight:  vg.Points(10),
		PadY:      vg.Points(16),
	}
	plots := [][]*plot.Plot{{top}, {bottom}}
	canvases := plot.Align(plots, tiles, dc)
	top.Draw(canvases[0][0])
	bottom.Draw(canvases[1][0])

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating chart directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("writing chart: %w", err)
	}
	return f.Close()
}

func px(n int) vg.Length {
	return vg.Length(n) * vg.Inch / chartDPI
}

func barWidth(width, n int) vg.Length {
	w := px(width) * 0.6 / vg.Length(n)
	if w > vg.Points(40) {
		w = vg.Points(40)
	}
	return w
}
