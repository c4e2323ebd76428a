package groundstation

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/roman-kulish/cansat-telemetry/internal/telemetry"
)

const (
	DefaultPlotWidth  = 800
	DefaultPlotHeight = 400

	dpi      float64 = 72
	fontSize float64 = 12

	marginLeft   = 70
	marginRight  = 20
	marginTop    = 30
	marginBottom = 40

	yTicks = 5
)

var (
	backgroundColor = color.RGBA{R: 18, G: 18, B: 24, A: 255}
	axisColor       = color.RGBA{R: 110, G: 110, B: 120, A: 255}
	gridColor       = color.RGBA{R: 40, G: 40, B: 50, A: 255}
	labelColor      = color.RGBA{R: 220, G: 220, B: 220, A: 255}
	lineColor       = colorful.Hsv(15, 0.85, 0.95)
)

// Point is one sample of the temperature series
type Point struct {
	Time  time.Time
	Value float64
}

// TemperatureSeries extracts the temperature of every high priority row in
// order. Rows with an unparsable timestamp or temperature are left out.
func TemperatureSeries(rows []Row) []Point {
	points := make([]Point, 0, len(rows))
	for _, r := range rows {
		if r.Tag() != telemetry.TagHigh {
			continue
		}
		ts, err := r.Time()
		if err != nil {
			continue
		}
		temp, ok := r.Float(ColTemperature)
		if !ok {
			continue
		}
		points = append(points, Point{Time: ts, Value: temp})
	}
	return points
}

// Plotter renders the temperature series as a line chart
type Plotter struct {
	width, height int
	context       *freetype.Context
}

func NewPlotter(width, height int) (*Plotter, error) {
	if width <= marginLeft+marginRight || height <= marginTop+marginBottom {
		return nil, fmt.Errorf("plot size %dx%d is too small", width, height)
	}

	parsedFont, err := freetype.ParseFont(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	context := freetype.NewContext()
	context.SetDPI(dpi)
	context.SetFont(parsedFont)
	context.SetFontSize(fontSize)
	context.SetSrc(image.NewUniform(labelColor))
	context.SetHinting(font.HintingFull)

	return &Plotter{width: width, height: height, context: context}, nil
}

// Render draws the full chart from scratch
func (p *Plotter) Render(points []Point) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	p.context.SetClip(img.Bounds())
	p.context.SetDst(img)

	plot := image.Rect(marginLeft, marginTop, p.width-marginRight, p.height-marginBottom)

	if len(points) == 0 {
		p.drawString("waiting for temperature data", plot.Min.X+10, plot.Min.Y+plot.Dy()/2)
		return img
	}

	tMin, tMax := points[0].Time, points[len(points)-1].Time
	vMin, vMax := points[0].Value, points[0].Value
	for _, pt := range points {
		if pt.Time.Before(tMin) {
			tMin = pt.Time
		}
		if pt.Time.After(tMax) {
			tMax = pt.Time
		}
		vMin, vMax = min(vMin, pt.Value), max(vMax, pt.Value)
	}
	if !tMax.After(tMin) {
		tMax = tMin.Add(time.Second)
	}
	if vMax-vMin < 1 {
		mid := (vMax + vMin) / 2
		vMin, vMax = mid-0.5, mid+0.5
	}

	span := tMax.Sub(tMin).Seconds()
	toPixel := func(pt Point) image.Point {
		x := plot.Min.X + int(pt.Time.Sub(tMin).Seconds()/span*float64(plot.Dx()-1))
		y := plot.Max.Y - 1 - int((pt.Value-vMin)/(vMax-vMin)*float64(plot.Dy()-1))
		return image.Pt(x, y)
	}

	// horizontal grid and Y labels
	for i := 0; i <= yTicks; i++ {
		y := plot.Max.Y - 1 - i*(plot.Dy()-1)/yTicks
		drawLine(img, image.Pt(plot.Min.X, y), image.Pt(plot.Max.X-1, y), gridColor)

		v := vMin + float64(i)*(vMax-vMin)/yTicks
		p.drawString(fmt.Sprintf("%6.1f°C", v), 4, y+4)
	}

	// axes
	drawLine(img, image.Pt(plot.Min.X, plot.Min.Y), image.Pt(plot.Min.X, plot.Max.Y-1), axisColor)
	drawLine(img, image.Pt(plot.Min.X, plot.Max.Y-1), image.Pt(plot.Max.X-1, plot.Max.Y-1), axisColor)

	// X labels
	p.drawString(tMin.Format(time.TimeOnly), plot.Min.X, plot.Max.Y+18)
	end := tMax.Format(time.TimeOnly)
	p.drawString(end, plot.Max.X-len(end)*7, plot.Max.Y+18)

	p.drawString(fmt.Sprintf("Temperature, %s samples", humanize.Comma(int64(len(points)))), plot.Min.X, marginTop-10)

	prev := toPixel(points[0])
	img.Set(prev.X, prev.Y, lineColor)
	for _, pt := range points[1:] {
		next := toPixel(pt)
		drawLine(img, prev, next, lineColor)
		prev = next
	}

	return img
}

// WriteFile renders the chart and replaces path atomically
func (p *Plotter) WriteFile(path string, points []Point) (err error) {
	img := p.Render(points)

	tmp, err := os.CreateTemp(filepath.Dir(path), ".plot-*.png")
	if err != nil {
		return fmt.Errorf("creating temporary plot file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = png.Encode(tmp, img); err != nil {
		return errors.Join(fmt.Errorf("encoding plot: %w", err), tmp.Close())
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing plot file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing plot file: %w", err)
	}
	return nil
}

func (p *Plotter) drawString(s string, x, y int) {
	_, _ = p.context.DrawString(s, freetype.Pt(x, y))
}

// drawLine plots a Bresenham line from a to b inclusive
func drawLine(img *image.RGBA, a, b image.Point, c color.Color) {
	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}

	e := dx + dy
	for {
		img.Set(a.X, a.Y, c)
		if a == b {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			a.X += sx
		}
		if e2 <= dx {
			e += dx
			a.Y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
