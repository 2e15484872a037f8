package portfolio

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// ValuePoint represents a point in a value series
type ValuePoint struct {
	Date     time.Time `json:"date"`
	Value    float64   `json:"value"`
	Drawdown float64   `json:"drawdown"`
}

// ValueSeries represents a base-100 time-series of values
type ValueSeries []ValuePoint

func newSeries(dates []time.Time, values []float64) ValueSeries {
	series := make(ValueSeries, len(values))
	peak := 0.0
	for i, v := range values {
		if v > peak {
			peak = v
		}
		drawdown := 0.0
		if v < peak && peak > 0 {
			drawdown = (peak - v) / peak
		}
		series[i] = ValuePoint{Date: dates[i], Value: v, Drawdown: drawdown}
	}
	return series
}

// Values returns the raw values
func (s ValueSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Returns calculates daily percentage returns from the series
func (s ValueSeries) Returns() []float64 {
	if len(s) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		prev := s[i-1].Value
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, s[i].Value/prev-1)
	}
	return returns
}

// MaxDrawdown returns the deepest peak-to-trough decline
func (s ValueSeries) MaxDrawdown() float64 {
	maxDD := 0.0
	for _, p := range s {
		if p.Drawdown > maxDD {
			maxDD = p.Drawdown
		}
	}
	return maxDD
}

// Last returns the final point, zero value when empty
func (s ValueSeries) Last() ValuePoint {
	if len(s) == 0 {
		return ValuePoint{}
	}
	return s[len(s)-1]
}

// ToCSV exports the series to a CSV string
func (s ValueSeries) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("date,value,drawdown\n")
	for _, point := range s {
		buf.WriteString(point.Date.Format("2006-01-02"))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Value))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Drawdown))
		buf.WriteString("\n")
	}
	return buf.String()
}

// ToJSON exports the series to a JSON string
func (s ValueSeries) ToJSON() string {
	data, _ := json.Marshal(s)
	return string(data)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
