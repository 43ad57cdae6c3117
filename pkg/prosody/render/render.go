// Package render draws feature z-scores on the standard normal curve.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"os"

	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/RyanBlaney/prosody-analyzer/pkg/prosody"
)

const (
	zMin        = -4.0
	zMax        = 4.0
	curveSample = 1000
	gridColumns = 2
)

var (
	featureLabels = map[prosody.FeatureName]string{
		prosody.AvgBand1:        "F1 Bandwidth (Hz)",
		prosody.IntensityMean:   "Intensity Mean (dB)",
		prosody.PercentUnvoiced: "Unvoiced Ratio",
		prosody.AvgDurPause:     "Pause Duration (s)",
	}

	featureColors = map[prosody.FeatureName]color.NRGBA{
		prosody.AvgBand1:        {R: 0xFF, G: 0x6B, B: 0x6B, A: 0xFF},
		prosody.IntensityMean:   {R: 0x4E, G: 0xCD, B: 0xC4, A: 0xFF},
		prosody.PercentUnvoiced: {R: 0x45, G: 0xB7, B: 0xD1, A: 0xFF},
		prosody.AvgDurPause:     {R: 0xFF, G: 0xA0, B: 0x7A, A: 0xFF},
	}

	fallbackColor = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xFF}
)

// Options controls figure size. Zero values select 7x5 inches for a single
// feature and 14x10 inches for a grid.
type Options struct {
	Width  vg.Length
	Height vg.Length
}

// Label returns the axis label of a feature.
func Label(f prosody.FeatureName) string {
	if l, ok := featureLabels[f]; ok {
		return l
	}
	return string(f)
}

// Color returns the highlight colour of a feature.
func Color(f prosody.FeatureName) color.NRGBA {
	if c, ok := featureColors[f]; ok {
		return c
	}
	return fallbackColor
}

// PNG renders one plot per distribution: a single plot for one feature,
// otherwise a two-column grid under a common title.
func PNG(dists []prosody.Distribution, gender prosody.Gender, opts Options) ([]byte, error) {
	if len(dists) == 0 {
		return nil, fmt.Errorf("nothing to render")
	}

	plots := make([]*plot.Plot, 0, len(dists))
	for _, d := range dists {
		p, err := distributionPlot(d)
		if err != nil {
			return nil, fmt.Errorf("failed to build plot for %s: %w", d.Feature, err)
		}
		plots = append(plots, p)
	}

	var buf bytes.Buffer
	if len(plots) == 1 {
		w, h := size(opts, 7*vg.Inch, 5*vg.Inch)
		wt, err := plots[0].WriterTo(w, h, "png")
		if err != nil {
			return nil, fmt.Errorf("failed to encode plot: %w", err)
		}
		if _, err := wt.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("failed to encode plot: %w", err)
		}
		return buf.Bytes(), nil
	}

	w, h := size(opts, 14*vg.Inch, 10*vg.Inch)
	rows := (len(plots) + gridColumns - 1) / gridColumns
	grid := make([][]*plot.Plot, rows)
	for i := range grid {
		grid[i] = make([]*plot.Plot, gridColumns)
	}
	for i, p := range plots {
		grid[i/gridColumns][i%gridColumns] = p
	}

	img := vgimg.New(w, h)
	dc := draw.New(img)

	titlePad := vg.Points(48)
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      gridColumns,
		PadX:      vg.Points(24),
		PadY:      vg.Points(24),
		PadTop:    titlePad,
		PadBottom: vg.Points(12),
		PadLeft:   vg.Points(12),
		PadRight:  vg.Points(12),
	}

	canvases := plot.Align(grid, tiles, dc)
	for i := range grid {
		for j, p := range grid[i] {
			if p != nil {
				p.Draw(canvases[i][j])
			}
		}
	}

	title := plots[0].Title.TextStyle
	title.Font.Size = vg.Points(16)
	title.XAlign = draw.XCenter
	title.YAlign = draw.YTop
	dc.FillText(title, vg.Point{X: (dc.Min.X + dc.Max.X) / 2, Y: dc.Max.Y - vg.Points(12)},
		fmt.Sprintf("Feature Z-Score Distribution Analysis (%s)", gender))

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode plot grid: %w", err)
	}
	return buf.Bytes(), nil
}

// Save renders to a PNG file at path.
func Save(path string, dists []prosody.Distribution, gender prosody.Gender, opts Options) error {
	data, err := PNG(dists, gender, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func size(opts Options, w, h vg.Length) (vg.Length, vg.Length) {
	if opts.Width > 0 {
		w = opts.Width
	}
	if opts.Height > 0 {
		h = opts.Height
	}
	return w, h
}

func distributionPlot(d prosody.Distribution) (*plot.Plot, error) {
	pdf := distuv.UnitNormal.Prob
	highlight := Color(d.Feature)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s\nPercentile: %.1f%%", Label(d.Feature), d.Percentile)
	p.X.Label.Text = "Z-Score"
	p.Y.Label.Text = "Probability Density"
	p.X.Min, p.X.Max = zMin, zMax
	p.Y.Min, p.Y.Max = 0, pdf(0)*1.1
	p.Add(plotter.NewGrid())

	area, err := plotter.NewPolygon(curveArea(zMin, zMax))
	if err != nil {
		return nil, err
	}
	area.Color = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0x1A}
	area.LineStyle.Width = 0
	p.Add(area)

	curve := plotter.NewFunction(pdf)
	curve.XMin, curve.XMax = zMin, zMax
	curve.Samples = curveSample
	curve.Color = color.Black
	curve.Width = vg.Points(2)
	p.Add(curve)
	p.Legend.Add("Normal Distribution", curve)

	if d.ZScore >= zMin && d.ZScore <= zMax {
		shade, err := plotter.NewPolygon(curveArea(zMin, d.ZScore))
		if err != nil {
			return nil, err
		}
		shade.Color = withAlpha(highlight, 0x4D)
		shade.LineStyle.Width = 0
		p.Add(shade)

		marker, err := plotter.NewLine(plotter.XYs{{X: d.ZScore, Y: 0}, {X: d.ZScore, Y: p.Y.Max}})
		if err != nil {
			return nil, err
		}
		marker.Color = withAlpha(highlight, 0xB3)
		marker.Width = vg.Points(2)
		marker.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		p.Add(marker)

		point, err := plotter.NewScatter(plotter.XYs{{X: d.ZScore, Y: pdf(d.ZScore)}})
		if err != nil {
			return nil, err
		}
		point.GlyphStyle.Color = highlight
		point.GlyphStyle.Radius = vg.Points(6)
		point.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(point)
		p.Legend.Add(fmt.Sprintf("Z-Score: %.2f", d.ZScore), point)
	}

	p.Legend.Top = true
	return p, nil
}

// curveArea returns the closed region under the standard normal density
// between lo and hi.
func curveArea(lo, hi float64) plotter.XYs {
	steps := max(2, int(math.Ceil((hi-lo)/(zMax-zMin)*curveSample)))
	pts := make(plotter.XYs, 0, steps+3)
	pts = append(pts, plotter.XY{X: lo, Y: 0})
	for i := 0; i <= steps; i++ {
		x := lo + (hi-lo)*float64(i)/float64(steps)
		pts = append(pts, plotter.XY{X: x, Y: distuv.UnitNormal.Prob(x)})
	}
	pts = append(pts, plotter.XY{X: hi, Y: 0})
	return pts
}

func withAlpha(c color.NRGBA, a uint8) color.NRGBA {
	c.A = a
	return c
}
