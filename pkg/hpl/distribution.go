package hpl

import (
	"github.com/montanaflynn/stats"
)

// Distribution is a five-number summary plus mean of per-net gains.
type Distribution struct {
	Count  int     `json:"count" bson:"count"`
	Mean   float64 `json:"mean" bson:"mean"`
	StdDev float64 `json:"stddev" bson:"stddev"`
	Min    float64 `json:"min" bson:"min"`
	Q1     float64 `json:"q1" bson:"q1"`
	Median float64 `json:"median" bson:"median"`
	Q3     float64 `json:"q3" bson:"q3"`
	Max    float64 `json:"max" bson:"max"`
}

// Summarize computes the distribution of values. An empty input gives a
// zero Distribution.
func Summarize(values []float64) (Distribution, error) {
	d := Distribution{Count: len(values)}
	if len(values) == 0 {
		return d, nil
	}

	data := stats.Float64Data(values)
	var err error
	if d.Mean, err = stats.Mean(data); err != nil {
		return d, err
	}
	if d.Min, err = stats.Min(data); err != nil {
		return d, err
	}
	if d.Max, err = stats.Max(data); err != nil {
		return d, err
	}
	if d.Median, err = stats.Median(data); err != nil {
		return d, err
	}

	// Quartile needs at least two values to split into halves.
	if len(values) < 2 {
		d.Q1, d.Q3 = d.Median, d.Median
		return d, nil
	}
	q, err := stats.Quartile(data)
	if err != nil {
		return d, err
	}
	d.Q1, d.Q3 = q.Q1, q.Q3
	if d.StdDev, err = stats.StandardDeviationSample(data); err != nil {
		return d, err
	}
	return d, nil
}
