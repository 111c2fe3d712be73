package stages

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"goposthoc/adapters/stats/senses"
	"goposthoc/domain/adjust"
	"goposthoc/domain/core"

	"golang.org/x/sync/semaphore"
)

// Guardrail caps for the pairwise sweep
const (
	DefaultMaxVariables = 2000   // Maximum variables to analyze
	DefaultMaxPairs     = 500000 // Maximum variable pairs (to prevent O(n²) explosion)
	DefaultMaxRuntime   = 5 * time.Minute
)

// RelationshipResult contains the result of a pairwise statistical test
// plus its family-wide adjusted p-value.
type RelationshipResult struct {
	VariableX    core.VariableKey   `json:"variable_x"`
	VariableY    core.VariableKey   `json:"variable_y"`
	FamilyID     core.FamilyID      `json:"family_id"`
	Sense        senses.SenseResult `json:"sense"`
	QValue       float64            `json:"q_value"`
	AdjustMethod adjust.Method      `json:"adjust_method"`
	Comparisons  int                `json:"total_comparisons"`
	Skipped      bool               `json:"skipped"`
	SkipReason   string             `json:"skip_reason,omitempty"`
}

// FamilyArtifact summarizes the correction applied to one sweep family.
type FamilyArtifact struct {
	FamilyID     core.FamilyID `json:"family_id"`
	Method       adjust.Method `json:"method"`
	Alpha        float64       `json:"alpha"`
	TestCount    int           `json:"test_count"`
	Significant  int           `json:"significant"`
	SkippedPairs int           `json:"skipped_pairs"`
}

// PosthocStage performs pairwise statistical tests between variable pairs
// and applies a family-wide multiple-comparison correction.
type PosthocStage struct {
	Method        adjust.Method
	Alpha         float64
	SenseName     string // which sense produces the family's p-values
	MaxConcurrent int64
	MaxVariables  int
	MaxPairs      int
	MaxRuntime    time.Duration

	engine *senses.SenseEngine
}

// NewPosthocStage creates a sweep stage with the given family correction.
func NewPosthocStage(method adjust.Method, alpha float64) *PosthocStage {
	return &PosthocStage{
		Method:        method,
		Alpha:         alpha,
		SenseName:     "wilcoxon_signed_rank",
		MaxConcurrent: 8,
		MaxVariables:  DefaultMaxVariables,
		MaxPairs:      DefaultMaxPairs,
		MaxRuntime:    DefaultMaxRuntime,
		engine:        senses.NewSenseEngine(),
	}
}

// Execute performs pairwise tests on all variable pairs of the column
// matrix (data[row][col], one column per variable) and adjusts the
// resulting p-value family.
func (p *PosthocStage) Execute(ctx context.Context, variables []core.VariableKey, data [][]float64) ([]RelationshipResult, *FamilyArtifact, error) {
	numVars := len(variables)
	if numVars < 2 {
		return nil, nil, fmt.Errorf("%w: need at least two variables", core.ErrEmptyInput)
	}
	if numVars > p.MaxVariables {
		return nil, nil, fmt.Errorf("too many variables: %d > %d", numVars, p.MaxVariables)
	}
	totalPairs := numVars * (numVars - 1) / 2 // Upper triangle only
	if totalPairs > p.MaxPairs {
		return nil, nil, fmt.Errorf("too many variable pairs: %d > %d", totalPairs, p.MaxPairs)
	}

	ctx, cancel := context.WithTimeout(ctx, p.MaxRuntime)
	defer cancel()

	familyID := core.FamilyID(core.NewID())
	results := make([]RelationshipResult, 0, totalPairs)
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := semaphore.NewWeighted(p.MaxConcurrent)

	for i := 0; i < numVars-1; i++ {
		for j := i + 1; j < numVars; j++ {
			if err := sem.Acquire(ctx, 1); err != nil {
				return nil, nil, fmt.Errorf("sweep exceeded runtime budget: %w", err)
			}
			wg.Add(1)
			go func(i, j int) {
				defer wg.Done()
				defer sem.Release(1)
				rel := p.analyzePair(ctx, variables[i], variables[j], extractColumn(data, i), extractColumn(data, j), familyID)
				mu.Lock()
				results = append(results, rel)
				mu.Unlock()
			}(i, j)
		}
	}
	wg.Wait()

	// Deterministic ordering regardless of goroutine completion order.
	sortByPair(results)

	family, err := p.applyCorrection(results, familyID)
	if err != nil {
		return nil, nil, err
	}
	return results, family, nil
}

// applyCorrection adjusts the family of raw p-values from non-skipped
// pairs and writes q-values back onto the results.
func (p *PosthocStage) applyCorrection(results []RelationshipResult, familyID core.FamilyID) (*FamilyArtifact, error) {
	tested := make([]int, 0, len(results))
	raw := make([]float64, 0, len(results))
	skipped := 0
	for i := range results {
		if results[i].Skipped {
			skipped++
			continue
		}
		tested = append(tested, i)
		raw = append(raw, results[i].Sense.PValue)
	}

	adjusted, err := adjust.AdjustWithAlpha(raw, p.Method, p.Alpha)
	if err != nil {
		return nil, fmt.Errorf("family correction failed: %w", err)
	}

	significant := 0
	for pos, i := range tested {
		results[i].QValue = adjusted[pos]
		results[i].AdjustMethod = p.Method
		results[i].Comparisons = len(tested)
		if adjusted[pos] <= p.Alpha {
			significant++
		}
	}

	return &FamilyArtifact{
		FamilyID:     familyID,
		Method:       p.Method,
		Alpha:        p.Alpha,
		TestCount:    len(tested),
		Significant:  significant,
		SkippedPairs: skipped,
	}, nil
}

// analyzePair runs the configured sense on one variable pair
func (p *PosthocStage) analyzePair(ctx context.Context, varX, varY core.VariableKey, colX, colY []float64, familyID core.FamilyID) RelationshipResult {
	rel := RelationshipResult{
		VariableX: varX,
		VariableY: varY,
		FamilyID:  familyID,
	}

	if len(colX) != len(colY) || len(colX) == 0 {
		rel.Skipped = true
		rel.SkipReason = "column length mismatch"
		return rel
	}
	if missingRate(colX) > 0.30 || missingRate(colY) > 0.30 {
		rel.Skipped = true
		rel.SkipReason = "high missingness"
		return rel
	}
	if hasZeroVariance(colX) || hasZeroVariance(colY) {
		rel.Skipped = true
		rel.SkipReason = "zero variance"
		return rel
	}

	sense, ok := p.engine.AnalyzeSingle(ctx, p.SenseName, colX, colY, varX, varY)
	if !ok {
		rel.Skipped = true
		rel.SkipReason = fmt.Sprintf("unknown sense %q", p.SenseName)
		return rel
	}
	rel.Sense = sense
	return rel
}

// extractColumn extracts a column from the data matrix
func extractColumn(data [][]float64, colIndex int) []float64 {
	column := make([]float64, len(data))
	for i, row := range data {
		if colIndex < len(row) {
			column[i] = row[colIndex]
		} else {
			// Pad with NaN if row is too short
			column[i] = math.NaN()
		}
	}
	return column
}

func missingRate(values []float64) float64 {
	if len(values) == 0 {
		return 1
	}
	missing := 0
	for _, v := range values {
		if math.IsNaN(v) {
			missing++
		}
	}
	return float64(missing) / float64(len(values))
}

// hasZeroVariance checks if a variable has essentially zero variance
func hasZeroVariance(values []float64) bool {
	var first float64
	seen := false
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if !seen {
			first = v
			seen = true
			continue
		}
		if math.Abs(v-first) > 1e-10 {
			return false
		}
	}
	return true
}

func sortByPair(results []RelationshipResult) {
	sort.Slice(results, func(a, b int) bool {
		if results[a].VariableX != results[b].VariableX {
			return results[a].VariableX < results[b].VariableX
		}
		return results[a].VariableY < results[b].VariableY
	})
}
