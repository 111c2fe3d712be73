package ui

import (
	"net/http"
	"strconv"
	"time"

	"goposthoc/adapters/postgres"
	"goposthoc/adapters/stats/stages"
	"goposthoc/domain/adjust"
	"goposthoc/domain/core"
	"goposthoc/domain/signrank"

	"github.com/gin-gonic/gin"
)

// AdjustRequest is the body for POST /api/adjust.
type AdjustRequest struct {
	PValues []float64 `json:"p_values"`
	Method  string    `json:"method"`
	Alpha   float64   `json:"alpha"`
}

// AdjustResponse echoes the family back with its adjusted values.
type AdjustResponse struct {
	Method      adjust.Method `json:"method"`
	Alpha       float64       `json:"alpha"`
	RawP        []float64     `json:"raw_p"`
	AdjustedP   []float64     `json:"adjusted_p"`
	Significant int           `json:"significant"`
}

// SweepRequest is the body for POST /api/sweep: a column matrix plus the
// family correction to apply.
type SweepRequest struct {
	Variables []string    `json:"variables"`
	Rows      [][]float64 `json:"rows"`
	Method    string      `json:"method"`
	Alpha     float64     `json:"alpha"`
}

// SweepResponse carries the pairwise results, the family summary, and the
// persisted run id when a repository is configured.
type SweepResponse struct {
	RunID   string                      `json:"run_id,omitempty"`
	Family  *stages.FamilyArtifact      `json:"family"`
	Results []stages.RelationshipResult `json:"results"`
}

// handleAdjust corrects one p-value family.
func (s *Server) handleAdjust(c *gin.Context) {
	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	method, err := adjust.ParseMethod(req.Method)
	if err != nil {
		s.renderError(c, err)
		return
	}
	alpha := req.Alpha
	if alpha == 0 {
		alpha = s.cfg.Stats.Alpha
	}

	adjusted, err := adjust.AdjustWithAlpha(req.PValues, method, alpha)
	if err != nil {
		s.renderError(c, err)
		return
	}

	significant := 0
	for _, q := range adjusted {
		if q <= alpha {
			significant++
		}
	}

	c.JSON(http.StatusOK, AdjustResponse{
		Method:      method,
		Alpha:       alpha,
		RawP:        req.PValues,
		AdjustedP:   adjusted,
		Significant: significant,
	})
}

// handleSignrankPMF serves P(W = t) for sample size n.
func (s *Server) handleSignrankPMF(c *gin.Context) {
	s.handleSignrank(c, signrank.PMF, "pmf")
}

// handleSignrankCDF serves P(W <= t) for sample size n.
func (s *Server) handleSignrankCDF(c *gin.Context) {
	s.handleSignrank(c, signrank.CDF, "cdf")
}

func (s *Server) handleSignrank(c *gin.Context, eval func(t, n int, m signrank.Method) (float64, error), kind string) {
	t, err := strconv.Atoi(c.Query("t"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter t must be an integer"})
		return
	}
	n, err := strconv.Atoi(c.Query("n"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter n must be an integer"})
		return
	}
	method, err := signrank.ParseMethod(c.Query("method"))
	if err != nil {
		s.renderError(c, err)
		return
	}

	value, err := eval(t, n, method)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statistic": kind,
		"t":         t,
		"n":         n,
		"method":    method,
		"value":     value,
	})
}

// handleSweep runs pairwise tests over a column matrix and applies the
// family correction; the run is persisted when a repository is configured.
func (s *Server) handleSweep(c *gin.Context) {
	var req SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	method, err := adjust.ParseMethod(req.Method)
	if err != nil {
		s.renderError(c, err)
		return
	}
	alpha := req.Alpha
	if alpha == 0 {
		alpha = s.cfg.Stats.Alpha
	}

	variables := make([]core.VariableKey, len(req.Variables))
	for i, v := range req.Variables {
		variables[i] = core.VariableKey(v)
	}

	stage := stages.NewPosthocStage(method, alpha)
	stage.MaxVariables = s.cfg.Stats.MaxVariables
	stage.MaxPairs = s.cfg.Stats.MaxPairs
	stage.MaxConcurrent = s.cfg.Stats.MaxConcurrent

	results, family, err := stage.Execute(c.Request.Context(), variables, req.Rows)
	if err != nil {
		s.renderError(c, err)
		return
	}

	resp := SweepResponse{Family: family, Results: results}
	if s.runs != nil {
		run := buildSweepRun(results, family)
		if err := s.runs.Insert(c.Request.Context(), run); err != nil {
			s.logger.Error("failed to persist sweep run: %v", err)
		} else {
			resp.RunID = run.ID.String()
		}
	}

	c.JSON(http.StatusOK, resp)
}

// buildSweepRun flattens the tested pairs of a sweep into a persistable run.
func buildSweepRun(results []stages.RelationshipResult, family *stages.FamilyArtifact) *postgres.SweepRun {
	run := &postgres.SweepRun{
		ID:          core.RunID(core.NewID()),
		CreatedAt:   time.Now().UTC(),
		Method:      family.Method,
		Alpha:       family.Alpha,
		Significant: family.Significant,
	}
	for _, rel := range results {
		if rel.Skipped {
			continue
		}
		run.Variables = append(run.Variables, rel.VariableX.String()+"/"+rel.VariableY.String())
		run.RawP = append(run.RawP, rel.Sense.PValue)
		run.AdjustedP = append(run.AdjustedP, rel.QValue)
	}
	return run
}

// handleListRuns returns the most recent persisted sweep runs.
func (s *Server) handleListRuns(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run persistence is not configured"})
		return
	}
	limit := 20
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	runs, err := s.runs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// handleGetRun returns one persisted sweep run by id.
func (s *Server) handleGetRun(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run persistence is not configured"})
		return
	}
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	run, err := s.runs.GetByID(c.Request.Context(), id)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// renderError maps domain errors onto HTTP status codes.
func (s *Server) renderError(c *gin.Context, err error) {
	switch {
	case core.IsContractViolation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case core.IsTooExpensive(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case core.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
