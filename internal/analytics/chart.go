package analytics

import (
	"bytes"
	"errors"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoSpending indicates there is nothing to chart.
var ErrNoSpending = errors.New("no spending to chart")

var sliceColors = []drawing.Color{
	{R: 0x4f, G: 0x46, B: 0xe5, A: 255},
	{R: 0x06, G: 0xb6, B: 0xd4, A: 255},
	{R: 0x22, G: 0xc5, B: 0x5e, A: 255},
	{R: 0xf4, G: 0x3f, B: 0x5e, A: 255},
	{R: 0xf5, G: 0x9e, B: 0x0b, A: 255},
}

// PiePNG renders the category split as a pie chart PNG.
func PiePNG(report *Report) ([]byte, error) {
	if report == nil || len(report.Totals) == 0 {
		return nil, ErrNoSpending
	}

	values := make([]chart.Value, 0, len(report.Totals))
	for i, total := range report.Totals {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s ₹%d", total.Category, total.Amount),
			Value: float64(total.Amount),
			Style: chart.Style{
				FillColor: sliceColors[i%len(sliceColors)],
			},
		})
	}

	pie := chart.PieChart{
		Width:  600,
		Height: 600,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render spending pie chart: %w", err)
	}

	return buf.Bytes(), nil
}
