package api

import (
	"github.com/phrazzld/scry-summarizer/internal/domain"
)

// Supported values of AnalysisActionRequest.Action.
const (
	ActionStartAnalysis = "startAnalysis"
	ActionCheckResult   = "checkResult"
)

// AnalysisActionRequest is the body of POST /api/analysis. Action selects the
// operation; the remaining fields are read according to it.
type AnalysisActionRequest struct {
	Action          string `json:"action"`
	FileURL         string `json:"fileUrl"`
	FileType        string `json:"fileType"`
	IsFullAnalysis  bool   `json:"isFullAnalysis"`
	ExistingSummary string `json:"existingSummary,omitempty"`
	TaskID          string `json:"taskId,omitempty"`
}

// StartAnalysisRequest holds the fields startAnalysis reads.
type StartAnalysisRequest struct {
	FileURL         string `json:"fileUrl"  validate:"required,url"`
	FileType        string `json:"fileType" validate:"max=32"`
	IsFullAnalysis  bool   `json:"isFullAnalysis"`
	ExistingSummary string `json:"existingSummary,omitempty"`
	TaskID          string `json:"taskId,omitempty" validate:"max=128"`
}

// CheckResultRequest holds the fields checkResult reads.
type CheckResultRequest struct {
	TaskID string `json:"taskId" validate:"required,max=128"`
}

// QuickSummaryRequest is the body of POST /api/analysis/quick.
type QuickSummaryRequest struct {
	FileURL         string `json:"fileUrl"  validate:"required,url"`
	FileType        string `json:"fileType" validate:"max=32"`
	IsFullAnalysis  bool   `json:"isFullAnalysis"`
	ExistingSummary string `json:"existingSummary,omitempty"`
}

// StartAnalysisResponse is returned once the task is registered.
type StartAnalysisResponse struct {
	Success bool   `json:"success"`
	TaskID  string `json:"taskId"`
	Message string `json:"message"`
}

// CheckResultResponse reports the state of a task. Summary and IsPartial are
// only set for Completed tasks, Error only for Failed and NotFound ones.
type CheckResultResponse struct {
	Success   bool              `json:"success"`
	TaskID    string            `json:"taskId"`
	Status    domain.TaskStatus `json:"status"`
	Summary   string            `json:"summary,omitempty"`
	IsPartial *bool             `json:"isPartial,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// QuickSummaryResponse carries a synchronously produced summary.
type QuickSummaryResponse struct {
	Success   bool   `json:"success"`
	Summary   string `json:"summary"`
	IsPartial bool   `json:"isPartial"`
}

// StartRequest converts the action body into its startAnalysis view.
func (r AnalysisActionRequest) StartRequest() StartAnalysisRequest {
	return StartAnalysisRequest{
		FileURL:         r.FileURL,
		FileType:        r.FileType,
		IsFullAnalysis:  r.IsFullAnalysis,
		ExistingSummary: r.ExistingSummary,
		TaskID:          r.TaskID,
	}
}

// ToDomain builds the immutable analysis request.
func (r StartAnalysisRequest) ToDomain() domain.AnalysisRequest {
	return domain.AnalysisRequest{
		FileURL:         r.FileURL,
		FileType:        r.FileType,
		IsFullAnalysis:  r.IsFullAnalysis,
		ExistingSummary: r.ExistingSummary,
	}
}

// ToDomain builds the immutable analysis request.
func (r QuickSummaryRequest) ToDomain() domain.AnalysisRequest {
	return domain.AnalysisRequest{
		FileURL:         r.FileURL,
		FileType:        r.FileType,
		IsFullAnalysis:  r.IsFullAnalysis,
		ExistingSummary: r.ExistingSummary,
	}
}

// TaskResponse maps a registry record to the checkResult body.
func TaskResponse(t domain.Task) CheckResultResponse {
	resp := CheckResultResponse{
		Success: true,
		TaskID:  t.ID,
		Status:  t.Status,
	}
	switch t.Status {
	case domain.TaskStatusCompleted:
		partial := t.IsPartial
		resp.Summary = t.Summary
		resp.IsPartial = &partial
	case domain.TaskStatusFailed, domain.TaskStatusNotFound:
		resp.Error = t.Error
	}
	return resp
}
