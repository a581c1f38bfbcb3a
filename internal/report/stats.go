package report

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/witanlabs/marksheet/internal/evaluation"
)

// Stats describes the distribution of raw totals across present students.
type Stats struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Describe computes class statistics over present students' raw totals.
// The rubric row and absent students are excluded. Undefined values are NaN.
func Describe(ev *evaluation.Evaluation) Stats {
	var totals []float64
	for _, s := range ev.Present() {
		totals = append(totals, s.Total)
	}
	nan := math.NaN()
	st := Stats{Count: len(totals), Mean: nan, Std: nan, Min: nan, Q1: nan, Median: nan, Q3: nan, Max: nan}
	if len(totals) == 0 {
		return st
	}

	sort.Float64s(totals)
	st.Mean = stat.Mean(totals, nil)
	if len(totals) > 1 {
		st.Std = stat.StdDev(totals, nil)
	}
	st.Min = floats.Min(totals)
	st.Max = floats.Max(totals)
	st.Q1 = quantile(totals, 0.25)
	st.Median = quantile(totals, 0.5)
	st.Q3 = quantile(totals, 0.75)
	return st
}

// quantile interpolates linearly between closest ranks at h = (n-1)p.
// x must be sorted and non-empty.
func quantile(x []float64, p float64) float64 {
	h := float64(len(x)-1) * p
	lo := int(math.Floor(h))
	if lo+1 >= len(x) {
		return x[len(x)-1]
	}
	return x[lo] + (h-float64(lo))*(x[lo+1]-x[lo])
}

func (s Stats) rows() []struct {
	name string
	v    float64
} {
	return []struct {
		name string
		v    float64
	}{
		{"mean", s.Mean},
		{"std", s.Std},
		{"min", s.Min},
		{"25%", s.Q1},
		{"50%", s.Median},
		{"75%", s.Q3},
		{"max", s.Max},
	}
}

// Text renders the statistics one per line, values with the given precision.
func (s Stats) Text(precision int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-6s %d\n", "count", s.Count)
	for _, r := range s.rows() {
		if math.IsNaN(r.v) {
			fmt.Fprintf(&b, "%-6s %s\n", r.name, "NaN")
			continue
		}
		fmt.Fprintf(&b, "%-6s %.*f\n", r.name, precision, r.v)
	}
	b.WriteString("Name: TOTAL\n")
	return b.String()
}

// MarshalJSON encodes undefined values as null.
func (s Stats) MarshalJSON() ([]byte, error) {
	num := func(v float64) *float64 {
		if math.IsNaN(v) {
			return nil
		}
		return &v
	}
	return json.Marshal(struct {
		Count  int      `json:"count"`
		Mean   *float64 `json:"mean"`
		Std    *float64 `json:"std"`
		Min    *float64 `json:"min"`
		Q1     *float64 `json:"q1"`
		Median *float64 `json:"median"`
		Q3     *float64 `json:"q3"`
		Max    *float64 `json:"max"`
	}{s.Count, num(s.Mean), num(s.Std), num(s.Min), num(s.Q1), num(s.Median), num(s.Q3), num(s.Max)})
}
