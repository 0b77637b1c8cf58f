package api

// JobRequest submits a gradient computation over one SEIS input file.
// The file must carry a velocity model, acquisition metadata and an
// observed shot gather.
type JobRequest struct {
	DataFile     string `json:"data_file"`
	Order        *int   `json:"order,omitempty"`
	Workers      *int   `json:"workers,omitempty"`
	ShotWorkers  *int   `json:"shot_workers,omitempty"`
	Iterations   *int   `json:"iterations,omitempty"`
	Precondition bool   `json:"precondition,omitempty"`
	Smooth       bool   `json:"smooth,omitempty"`
	RBell        int    `json:"rbell,omitempty"`
	MuteRows     int    `json:"mute_rows,omitempty"`
}

const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

type JobResponse struct {
	ID          string    `json:"id"`
	Object      string    `json:"object"`
	Status      string    `json:"status"`
	CreatedAt   int64     `json:"created_at"`
	CompletedAt *int64    `json:"completed_at,omitempty"`
	DataFile    string    `json:"data_file,omitempty"`
	Error       string    `json:"error,omitempty"`
	Objective   []float64 `json:"objective,omitempty"`
}

type JobListResponse struct {
	Object string        `json:"object"`
	Data   []JobResponse `json:"data"`
}

// JobResultResponse carries the final iteration's gradient and
// illumination on the interior grid, column linearised with depth
// fastest.
type JobResultResponse struct {
	ID        string    `json:"id"`
	Object    string    `json:"object"`
	Nz        int       `json:"nz"`
	Nx        int       `json:"nx"`
	Dz        float64   `json:"dz"`
	Dx        float64   `json:"dx"`
	Objective []float64 `json:"objective"`
	Gradient  []float64 `json:"gradient"`
	Illum     []float64 `json:"illum"`
}

type JobError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
