package inversion

import (
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Report is the objective summary emitted once per run: the residual
// energy time series across outer iterations, tagged with a run ID so
// an orchestrator can correlate it with the gradient files.
type Report struct {
	RunID      string    `json:"run_id"`
	CreatedAt  time.Time `json:"created_at"`
	Iterations int       `json:"iterations"`
	Objective  []float64 `json:"objective"`
}

// NewReport builds a report from iteration results.
func NewReport(results []*Result) *Report {
	r := &Report{
		RunID:      uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Iterations: len(results),
		Objective:  make([]float64, len(results)),
	}
	for i, res := range results {
		r.Objective[i] = res.Objective
	}
	return r
}

// Write serialises the report as indented JSON to path.
func (r *Report) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
