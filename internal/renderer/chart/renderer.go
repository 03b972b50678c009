package chart

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"zabbix-chatops/internal/models"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	backgroundColor = drawing.ColorFromHex("1b1b1b")
	foregroundColor = drawing.ColorWhite
	gridColor       = drawing.Color{R: 255, G: 255, B: 255, A: 60}
	seriesColor     = drawing.ColorFromHex("2ecc40")
	thresholdColor  = drawing.Color{R: 255, G: 65, B: 54, A: 180}
	alertColor      = drawing.ColorFromHex("ff4136")
)

// Renderer draws simulated Zabbix-style charts in process.
type Renderer struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time

	Width, Height int
}

func NewRenderer() *Renderer {
	return &Renderer{
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
		Width:  1000,
		Height: 600,
	}
}

// Render writes a PNG chart to req.OutputPath.
func (r *Renderer) Render(ctx context.Context, req models.RenderRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	s := Simulate(req.Threshold, req.Resolved, r.now(), r.rng)
	r.mu.Unlock()

	graph := r.build(req, s)

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return fmt.Errorf("could not create graphs directory: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(req.OutputPath), filepath.Base(req.OutputPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("could not create chart file: %w", err)
	}
	tmp := f.Name()
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := graph.Render(gochart.PNG, f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("could not render chart: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := ctx.Err(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, req.OutputPath)
}

// Title returns the chart heading for req.
func Title(req models.RenderRequest) string {
	title := fmt.Sprintf("%s: %s", req.AlertName, req.Host)
	if req.Resolved {
		return "RESOLVIDO: " + title
	}
	return title
}

func (r *Renderer) build(req models.RenderRequest, s Series) *gochart.Chart {
	axisStyle := gochart.Style{FontColor: foregroundColor, StrokeColor: foregroundColor}
	gridStyle := gochart.Style{StrokeColor: gridColor, StrokeWidth: 1}
	threshold := strconv.FormatFloat(req.Threshold, 'f', -1, 64)

	first, last := s.Times[0], s.Times[len(s.Times)-1]
	graph := &gochart.Chart{
		Title:      Title(req),
		TitleStyle: gochart.Style{FontColor: foregroundColor, FontSize: 14},
		Width:      r.Width,
		Height:     r.Height,
		Background: gochart.Style{
			FillColor: backgroundColor,
			Padding:   gochart.Box{Top: 60, Left: 20, Right: 30, Bottom: 20},
		},
		Canvas: gochart.Style{FillColor: backgroundColor},
		XAxis: gochart.XAxis{
			Name:           "Time",
			NameStyle:      axisStyle,
			Style:          axisStyle,
			ValueFormatter: gochart.TimeValueFormatterWithFormat("15:04"),
			GridMajorStyle: gridStyle,
		},
		YAxis: gochart.YAxis{
			Name:           fmt.Sprintf("%s (%s)", req.AlertName, req.Unit),
			NameStyle:      axisStyle,
			Style:          axisStyle,
			GridMajorStyle: gridStyle,
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    fmt.Sprintf("%s: %s", req.Host, req.AlertName),
				XValues: s.Times,
				YValues: s.Values,
				Style:   gochart.Style{StrokeColor: seriesColor, StrokeWidth: 2},
			},
			gochart.TimeSeries{
				Name:    fmt.Sprintf("Threshold: %s %s", threshold, req.Unit),
				XValues: []time.Time{first, last},
				YValues: []float64{req.Threshold, req.Threshold},
				Style: gochart.Style{
					StrokeColor:     thresholdColor,
					StrokeWidth:     1.5,
					StrokeDashArray: []float64{6, 4},
				},
			},
			gochart.TimeSeries{
				Name:    "Alerta",
				XValues: []time.Time{s.Times[s.AlertIndex]},
				YValues: []float64{s.Values[s.AlertIndex]},
				Style: gochart.Style{
					StrokeWidth: gochart.Disabled,
					DotColor:    alertColor,
					DotWidth:    6,
				},
			},
		},
	}
	graph.Elements = []gochart.Renderable{
		gochart.LegendLeft(graph, gochart.Style{
			FillColor:   backgroundColor,
			FontColor:   foregroundColor,
			StrokeColor: gridColor,
		}),
	}
	return graph
}
