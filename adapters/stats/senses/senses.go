package senses

import (
	"context"
	"math"

	"goposthoc/domain/core"
)

// SenseResult represents the output of a single statistical sense
type SenseResult struct {
	SenseName   string                 `json:"sense_name"`
	EffectSize  float64                `json:"effect_size"`
	PValue      float64                `json:"p_value"`
	Confidence  float64                `json:"confidence"`  // 0-1 confidence score
	Signal      string                 `json:"signal"`      // "weak", "moderate", "strong", "very_strong"
	Description string                 `json:"description"` // Human-readable explanation
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// StatisticalSense defines the interface for each statistical sense
type StatisticalSense interface {
	Name() string
	Description() string
	Analyze(ctx context.Context, x, y []float64, varX, varY core.VariableKey) SenseResult
	RequiresGroups() bool // Some senses need group segmentation (like t-test)
}

// SenseEngine orchestrates the available statistical senses
type SenseEngine struct {
	senses []StatisticalSense
}

// NewSenseEngine creates a new statistical senses engine
func NewSenseEngine() *SenseEngine {
	return &SenseEngine{
		senses: []StatisticalSense{
			NewWilcoxonSense(),
			NewWelchTTestSense(),
		},
	}
}

// AnalyzeAll runs all senses concurrently and returns results
func (e *SenseEngine) AnalyzeAll(ctx context.Context, x, y []float64, varX, varY core.VariableKey) []SenseResult {
	results := make([]SenseResult, len(e.senses))

	type resultWithIndex struct {
		result SenseResult
		index  int
	}

	resultChan := make(chan resultWithIndex, len(e.senses))

	for i, sense := range e.senses {
		go func(sense StatisticalSense, idx int) {
			result := sense.Analyze(ctx, x, y, varX, varY)
			resultChan <- resultWithIndex{result: result, index: idx}
		}(sense, i)
	}

	for i := 0; i < len(e.senses); i++ {
		res := <-resultChan
		results[res.index] = res.result
	}

	return results
}

// AnalyzeSingle runs a specific sense by name
func (e *SenseEngine) AnalyzeSingle(ctx context.Context, senseName string, x, y []float64, varX, varY core.VariableKey) (SenseResult, bool) {
	for _, sense := range e.senses {
		if sense.Name() == senseName {
			return sense.Analyze(ctx, x, y, varX, varY), true
		}
	}
	return SenseResult{}, false
}

// ListSenses returns all available sense names
func (e *SenseEngine) ListSenses() []string {
	names := make([]string, len(e.senses))
	for i, sense := range e.senses {
		names[i] = sense.Name()
	}
	return names
}

// Helper functions for result interpretation

// classifySignal converts effect size to signal strength
func classifySignal(effectSize float64, senseType string) string {
	absEffect := math.Abs(effectSize)

	switch senseType {
	case "wilcoxon_signed_rank":
		// Rank-biserial correlation thresholds
		if absEffect < 0.1 {
			return "weak"
		} else if absEffect < 0.3 {
			return "moderate"
		} else if absEffect < 0.5 {
			return "strong"
		}
		return "very_strong"

	case "welch_ttest":
		// Cohen's d thresholds
		if absEffect < 0.2 {
			return "weak"
		} else if absEffect < 0.5 {
			return "moderate"
		} else if absEffect < 0.8 {
			return "strong"
		}
		return "very_strong"

	default:
		if absEffect < 0.3 {
			return "weak"
		} else if absEffect < 0.6 {
			return "moderate"
		}
		return "strong"
	}
}

// calculateConfidence converts p-value to confidence score (0-1)
func calculateConfidence(pValue float64) float64 {
	if pValue >= 1.0 {
		return 0.0
	}
	if pValue <= 0.001 {
		return 0.99
	}
	// Convert p-value to confidence: higher confidence for lower p-values
	c := -math.Log10(pValue+0.001) / 3.0 // Scale to 0-1 range
	if c > 0.99 {
		return 0.99
	}
	if c < 0 {
		return 0
	}
	return c
}
