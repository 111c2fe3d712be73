package signrank

import (
	"goposthoc/domain/core"
)

// Dist is the exact signed-rank null distribution for a fixed sample
// size, with the count table built once via the shift algorithm. Use it
// on hot paths where PMF/CDF are queried repeatedly for the same n.
type Dist struct {
	n     int
	freq  []float64
	total float64
}

// New builds the distribution table for sample size n.
func New(n int) (*Dist, error) {
	if n < 1 {
		return nil, core.NewInvalidSampleSizeError(n)
	}
	freq := shiftTable(n)
	return &Dist{
		n:     n,
		freq:  freq,
		total: sum(freq),
	}, nil
}

// N returns the sample size the table was built for.
func (d *Dist) N() int {
	return d.n
}

// MaxSum returns the largest attainable rank sum, n*(n+1)/2.
func (d *Dist) MaxSum() int {
	return len(d.freq) - 1
}

// PMF returns P(W = t). Out-of-range t yields 0.
func (d *Dist) PMF(t int) float64 {
	if t < 0 || t >= len(d.freq) {
		return 0
	}
	return d.freq[t] / d.total
}

// CDF returns P(W <= t).
func (d *Dist) CDF(t int) float64 {
	if t < 0 {
		return 0
	}
	if t >= d.MaxSum() {
		return 1
	}
	c := 0.0
	for i := 0; i <= t; i++ {
		c += d.freq[i]
	}
	return c / d.total
}

// UpperTail returns P(W >= t).
func (d *Dist) UpperTail(t int) float64 {
	if t <= 0 {
		return 1
	}
	return 1 - d.CDF(t-1)
}
