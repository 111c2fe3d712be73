package senses

import (
	"context"
	"fmt"
	"math"

	"goposthoc/domain/core"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// WelchTTestSense detects significant differences between group means
type WelchTTestSense struct{}

// NewWelchTTestSense creates a new Welch's t-test sense
func NewWelchTTestSense() *WelchTTestSense {
	return &WelchTTestSense{}
}

// Name returns the sense name
func (s *WelchTTestSense) Name() string {
	return "welch_ttest"
}

// Description returns a human-readable description
func (s *WelchTTestSense) Description() string {
	return "Detects significant differences between group means with unequal variances"
}

// RequiresGroups indicates this sense can benefit from group segmentation
func (s *WelchTTestSense) RequiresGroups() bool {
	return true
}

// Analyze performs Welch's t-test between groups
func (s *WelchTTestSense) Analyze(ctx context.Context, x, y []float64, varX, varY core.VariableKey) SenseResult {
	if len(x) != len(y) || len(x) < 4 {
		return SenseResult{
			SenseName:   s.Name(),
			EffectSize:  0,
			PValue:      1.0,
			Confidence:  0,
			Signal:      "weak",
			Description: "Insufficient data for Welch's t-test analysis",
		}
	}

	// If one variable looks binary/categorical, use it to split the other;
	// otherwise fall back to a median split.
	group1, group2 := s.identifyGroups(x, y)

	if len(group1) < 2 || len(group2) < 2 {
		return SenseResult{
			SenseName:   s.Name(),
			EffectSize:  0,
			PValue:      1.0,
			Confidence:  0,
			Signal:      "weak",
			Description: "Could not identify suitable groups for t-test comparison",
		}
	}

	tStat, pValue, effectSize := s.computeWelchTTest(group1, group2)

	confidence := calculateConfidence(pValue)
	signal := classifySignal(effectSize, s.Name())
	description := s.generateDescription(tStat, pValue, effectSize, len(group1), len(group2))

	mean1, _ := stats.Mean(group1)
	mean2, _ := stats.Mean(group2)

	return SenseResult{
		SenseName:   s.Name(),
		EffectSize:  effectSize, // Cohen's d effect size
		PValue:      pValue,
		Confidence:  confidence,
		Signal:      signal,
		Description: description,
		Metadata: map[string]interface{}{
			"t_statistic": tStat,
			"group1_size": len(group1),
			"group2_size": len(group2),
			"group1_mean": mean1,
			"group2_mean": mean2,
			"variable_x":  string(varX),
			"variable_y":  string(varY),
		},
	}
}

// identifyGroups attempts to split data into two groups for comparison
func (s *WelchTTestSense) identifyGroups(x, y []float64) ([]float64, []float64) {
	if s.isBinaryVariable(x) {
		return s.splitByBinaryVariable(x, y)
	}
	if s.isBinaryVariable(y) {
		return s.splitByBinaryVariable(y, x)
	}

	// Median split on the variable with more variance.
	varX, _ := stats.SampleVariance(dropNaN(x))
	varY, _ := stats.SampleVariance(dropNaN(y))
	if varX > varY {
		return s.medianSplit(x, y)
	}
	return s.medianSplit(y, x)
}

// isBinaryVariable checks if a variable appears to be binary/categorical
func (s *WelchTTestSense) isBinaryVariable(data []float64) bool {
	uniqueValues := make(map[float64]bool)
	for _, val := range data {
		if !math.IsNaN(val) {
			uniqueValues[val] = true
		}
	}
	return len(uniqueValues) == 2
}

// splitByBinaryVariable splits numeric data by a binary grouping variable
func (s *WelchTTestSense) splitByBinaryVariable(groupVar, numericVar []float64) ([]float64, []float64) {
	var val1, val2 float64
	foundFirst := false

	for _, val := range groupVar {
		if !math.IsNaN(val) {
			if !foundFirst {
				val1 = val
				foundFirst = true
			} else if val != val1 {
				val2 = val
				break
			}
		}
	}

	group1 := []float64{}
	group2 := []float64{}

	for i, g := range groupVar {
		if math.IsNaN(g) || math.IsNaN(numericVar[i]) {
			continue
		}

		if g == val1 {
			group1 = append(group1, numericVar[i])
		} else if g == val2 {
			group2 = append(group2, numericVar[i])
		}
	}

	return group1, group2
}

// medianSplit splits data around the median of the grouping variable
func (s *WelchTTestSense) medianSplit(groupVar, numericVar []float64) ([]float64, []float64) {
	valid := dropNaN(groupVar)
	if len(valid) < 2 {
		return []float64{}, []float64{}
	}

	median, err := stats.Median(valid)
	if err != nil {
		return []float64{}, []float64{}
	}

	group1 := []float64{}
	group2 := []float64{}

	for i, g := range groupVar {
		if math.IsNaN(g) || math.IsNaN(numericVar[i]) {
			continue
		}

		if g <= median {
			group1 = append(group1, numericVar[i])
		} else {
			group2 = append(group2, numericVar[i])
		}
	}

	return group1, group2
}

// computeWelchTTest performs Welch's t-test
func (s *WelchTTestSense) computeWelchTTest(group1, group2 []float64) (float64, float64, float64) {
	n1 := float64(len(group1))
	n2 := float64(len(group2))

	if n1 < 2 || n2 < 2 {
		return 0, 1.0, 0
	}

	mean1, _ := stats.Mean(group1)
	mean2, _ := stats.Mean(group2)
	var1, _ := stats.SampleVariance(group1)
	var2, _ := stats.SampleVariance(group2)

	// Welch's t-statistic: t = (mean1 - mean2) / sqrt(var1/n1 + var2/n2)
	se := math.Sqrt(var1/n1 + var2/n2)
	if se == 0 {
		return 0, 1.0, 0
	}
	tStat := (mean1 - mean2) / se

	// Degrees of freedom using Welch-Satterthwaite equation
	df := math.Pow(var1/n1+var2/n2, 2) / (math.Pow(var1/n1, 2)/(n1-1) + math.Pow(var2/n2, 2)/(n2-1))

	// Two-sided p-value from the t-distribution
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	pValue := 2 * (1 - tDist.CDF(math.Abs(tStat)))
	if pValue > 1 {
		pValue = 1
	}

	// Effect size (Cohen's d with pooled standard deviation)
	pooledSD := math.Sqrt(((n1-1)*var1 + (n2-1)*var2) / (n1 + n2 - 2))
	effectSize := 0.0
	if pooledSD > 0 {
		effectSize = (mean1 - mean2) / pooledSD
	}

	return tStat, pValue, effectSize
}

func dropNaN(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// generateDescription creates a human-readable description of the t-test result
func (s *WelchTTestSense) generateDescription(tStat, pValue, effectSize float64, n1, n2 int) string {
	if pValue > 0.05 {
		return fmt.Sprintf("No significant difference between groups (t=%.3f, p=%.3f, d=%.3f, n1=%d, n2=%d)", tStat, pValue, effectSize, n1, n2)
	}

	direction := "higher"
	if tStat < 0 {
		direction = "lower"
	}

	strength := "small"
	absD := math.Abs(effectSize)
	if absD >= 0.8 {
		strength = "very large"
	} else if absD >= 0.5 {
		strength = "large"
	} else if absD >= 0.2 {
		strength = "medium"
	}

	return fmt.Sprintf("Significant group difference: Group 1 has %s %s mean than Group 2 (t=%.3f, p=%.3f, d=%.3f, n1=%d, n2=%d)", strength, direction, tStat, pValue, effectSize, n1, n2)
}
