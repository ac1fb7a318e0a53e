package web

import (
	"bytes"
	"fmt"
	"math"

	"github.com/cjeanneret/ScanGo/internal/logic/geometry"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// renderPointsChart draws the session seen from above the turntable, with
// height as colour.
func renderPointsChart(s geometry.Session) ([]byte, error) {
	data := make([]opts.ScatterData, 0, len(s.Points))
	for _, p := range s.Points {
		data = append(data, opts.ScatterData{Value: []interface{}{round1(p.Pos.X), round1(p.Pos.Y), round1(p.Pos.Z)}})
	}

	b := s.Bounds()
	pad := math.Max(math.Max(math.Abs(b.Min.X), math.Abs(b.Max.X)), math.Max(math.Abs(b.Min.Y), math.Abs(b.Max.Y)))
	pad = math.Ceil(pad*1.1 + 1)
	zMin, zMax := b.Min.Z, b.Max.Z
	if zMax <= zMin {
		zMax = zMin + 1
	}

	state := "running"
	if !s.Running() {
		state = "interrupted"
		if s.Complete {
			state = "complete"
		}
	}

	// Equal width and height with symmetric axes keep the plot square.
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Scan point cloud", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Scan " + s.ID.String(), Subtitle: fmt.Sprintf("%s points=%d faults=%d", state, len(data), s.Faults)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (mm)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (mm)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(zMin),
			Max:        float32(zMax),
			Dimension:  "2",
			Text:       []string{"Z high", "Z low"},
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("points", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
