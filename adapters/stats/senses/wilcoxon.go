package senses

import (
	"context"
	"fmt"
	"math"
	"sort"

	"goposthoc/domain/core"
	"goposthoc/domain/signrank"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// MaxExactN is the largest effective sample size served by the exact
// signed-rank table; above it (or with tied ranks) the sense falls back
// to the normal approximation with tie correction.
const MaxExactN = 25

// WilcoxonSense detects paired location shifts without assuming normality
type WilcoxonSense struct{}

// NewWilcoxonSense creates a new Wilcoxon signed-rank sense
func NewWilcoxonSense() *WilcoxonSense {
	return &WilcoxonSense{}
}

// Name returns the sense name
func (s *WilcoxonSense) Name() string {
	return "wilcoxon_signed_rank"
}

// Description returns a human-readable description
func (s *WilcoxonSense) Description() string {
	return "Detects paired location shifts via the signed-rank statistic, exact for small samples"
}

// RequiresGroups indicates this sense works on paired observations
func (s *WilcoxonSense) RequiresGroups() bool {
	return false
}

// Analyze performs the signed-rank test on paired observations
func (s *WilcoxonSense) Analyze(ctx context.Context, x, y []float64, varX, varY core.VariableKey) SenseResult {
	if len(x) != len(y) || len(x) < 4 {
		return SenseResult{
			SenseName:   s.Name(),
			EffectSize:  0,
			PValue:      1.0,
			Confidence:  0,
			Signal:      "weak",
			Description: "Insufficient paired data for signed-rank analysis",
		}
	}

	diffs := pairedDiffs(x, y)
	wPlus, wMinus, n, hasTies, zerosDropped := signedRankStatistic(diffs)
	if n < 2 {
		return SenseResult{
			SenseName:   s.Name(),
			EffectSize:  0,
			PValue:      1.0,
			Confidence:  0,
			Signal:      "weak",
			Description: "All paired differences are zero or missing",
		}
	}

	exact := !hasTies && n <= MaxExactN
	var pValue float64
	if exact {
		pValue = s.exactPValue(int(math.Round(wPlus)), n)
	} else {
		pValue = s.approxPValue(wPlus, n, diffs)
	}

	// Matched-pairs rank-biserial correlation
	totalRank := float64(n*(n+1)) / 2
	effectSize := (wPlus - wMinus) / totalRank

	confidence := calculateConfidence(pValue)
	signal := classifySignal(effectSize, s.Name())
	description := s.generateDescription(wPlus, pValue, effectSize, n, exact, string(varX), string(varY))

	medianDiff, _ := stats.Median(diffs)

	return SenseResult{
		SenseName:   s.Name(),
		EffectSize:  effectSize,
		PValue:      pValue,
		Confidence:  confidence,
		Signal:      signal,
		Description: description,
		Metadata: map[string]interface{}{
			"w_plus":        wPlus,
			"w_minus":       wMinus,
			"n_effective":   n,
			"zeros_dropped": zerosDropped,
			"exact":         exact,
			"median_diff":   medianDiff,
			"variable_x":    string(varX),
			"variable_y":    string(varY),
		},
	}
}

// exactPValue computes the two-sided exact p-value from the null
// distribution of the rank sum.
func (s *WilcoxonSense) exactPValue(w, n int) float64 {
	dist, err := signrank.New(n)
	if err != nil {
		return 1.0
	}
	lower := dist.CDF(w)
	upper := dist.UpperTail(w)
	p := 2 * math.Min(lower, upper)
	if p > 1 {
		p = 1
	}
	return p
}

// approxPValue uses the normal approximation with tie correction.
func (s *WilcoxonSense) approxPValue(wPlus float64, n int, diffs []float64) float64 {
	nf := float64(n)
	mu := nf * (nf + 1) / 4
	variance := nf * (nf + 1) * (2*nf + 1) / 24
	variance -= tieCorrection(diffs) / 48
	if variance <= 0 {
		return 1.0
	}
	z := (wPlus - mu) / math.Sqrt(variance)
	normal := distuv.Normal{Mu: 0, Sigma: 1}
	p := 2 * (1 - normal.CDF(math.Abs(z)))
	if p > 1 {
		p = 1
	}
	return p
}

// pairedDiffs returns x-y for pairs where both sides are present.
func pairedDiffs(x, y []float64) []float64 {
	diffs := make([]float64, 0, len(x))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		diffs = append(diffs, x[i]-y[i])
	}
	return diffs
}

// signedRankStatistic ranks |d| with average ranks on ties, dropping
// zero differences, and returns the positive and negative rank sums.
func signedRankStatistic(diffs []float64) (wPlus, wMinus float64, n int, hasTies bool, zerosDropped int) {
	type ranked struct {
		abs      float64
		positive bool
	}
	entries := make([]ranked, 0, len(diffs))
	for _, d := range diffs {
		if d == 0 {
			zerosDropped++
			continue
		}
		entries = append(entries, ranked{abs: math.Abs(d), positive: d > 0})
	}
	n = len(entries)
	if n == 0 {
		return 0, 0, 0, false, zerosDropped
	}

	sort.Slice(entries, func(a, b int) bool { return entries[a].abs < entries[b].abs })

	// Average ranks across runs of equal |d|.
	i := 0
	for i < n {
		j := i
		for j < n && entries[j].abs == entries[i].abs {
			j++
		}
		if j-i > 1 {
			hasTies = true
		}
		avgRank := float64(i+1+j) / 2 // mean of ranks i+1 .. j
		for t := i; t < j; t++ {
			if entries[t].positive {
				wPlus += avgRank
			} else {
				wMinus += avgRank
			}
		}
		i = j
	}
	return wPlus, wMinus, n, hasTies, zerosDropped
}

// tieCorrection returns sum(t^3 - t) over tie groups of nonzero |d|.
func tieCorrection(diffs []float64) float64 {
	counts := make(map[float64]int)
	for _, d := range diffs {
		if d == 0 {
			continue
		}
		counts[math.Abs(d)]++
	}
	c := 0.0
	for _, t := range counts {
		tf := float64(t)
		c += tf*tf*tf - tf
	}
	return c
}

// generateDescription creates a human-readable description of the test result
func (s *WilcoxonSense) generateDescription(wPlus, pValue, effectSize float64, n int, exact bool, varX, varY string) string {
	mode := "approximate"
	if exact {
		mode = "exact"
	}
	if pValue > 0.05 {
		return fmt.Sprintf("No significant paired shift between %s and %s (W+=%.1f, p=%.3f %s, r=%.3f, n=%d)", varX, varY, wPlus, pValue, mode, effectSize, n)
	}

	direction := "above"
	if effectSize < 0 {
		direction = "below"
	}
	return fmt.Sprintf("Significant paired shift: %s ranks %s %s (W+=%.1f, p=%.3f %s, r=%.3f, n=%d)", varX, direction, varY, wPlus, pValue, mode, effectSize, n)
}
