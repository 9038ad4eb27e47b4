package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-summarizer/internal/api/shared"
	"github.com/phrazzld/scry-summarizer/internal/events"
	"github.com/phrazzld/scry-summarizer/internal/service"
)

// UnsupportedActionMessage is the error returned for unknown action values.
const UnsupportedActionMessage = "unsupported action"

// StatsSource provides the lifecycle counters served at /api/analysis/stats.
type StatsSource interface {
	Snapshot() events.Stats
}

// AnalysisHandler serves the start/poll protocol.
type AnalysisHandler struct {
	analysisService service.AnalysisService
	stats           StatsSource
	logger          *slog.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler. stats may be nil, in which
// case the stats endpoint reports zero counters.
func NewAnalysisHandler(
	analysisService service.AnalysisService,
	stats StatsSource,
	logger *slog.Logger,
) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if stats == nil {
		stats = events.NewStatsRecorder()
	}
	return &AnalysisHandler{
		analysisService: analysisService,
		stats:           stats,
		logger:          logger.With("component", "analysis_handler"),
	}
}

// HandleAction handles POST /api/analysis and dispatches on the action field.
func (h *AnalysisHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	var req AnalysisActionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	switch req.Action {
	case ActionStartAnalysis:
		h.startAnalysis(w, r, req.StartRequest())
	case ActionCheckResult:
		h.checkResult(w, r, CheckResultRequest{TaskID: req.TaskID})
	default:
		shared.RespondWithError(w, r, http.StatusBadRequest, UnsupportedActionMessage)
	}
}

func (h *AnalysisHandler) startAnalysis(w http.ResponseWriter, r *http.Request, req StartAnalysisRequest) {
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	taskID, err := h.analysisService.StartAnalysis(r.Context(), req.ToDomain(), req.TaskID)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, StartAnalysisResponse{
		Success: true,
		TaskID:  taskID,
		Message: service.StartedMessage,
	})
}

func (h *AnalysisHandler) checkResult(w http.ResponseWriter, r *http.Request, req CheckResultRequest) {
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	t, err := h.analysisService.CheckResult(r.Context(), req.TaskID)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskResponse(t))
}

// QuickSummary handles POST /api/analysis/quick. The summary is produced
// while the request is open.
func (h *AnalysisHandler) QuickSummary(w http.ResponseWriter, r *http.Request) {
	var req QuickSummaryRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	result, err := h.analysisService.ProcessQuickSummary(r.Context(), req.ToDomain())
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, QuickSummaryResponse{
		Success:   true,
		Summary:   result.Summary,
		IsPartial: result.IsPartial,
	})
}

// Stats handles GET /api/analysis/stats.
func (h *AnalysisHandler) Stats(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.stats.Snapshot())
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AnalysisHandler) respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	var opts []shared.ResponseOption
	if status == http.StatusConflict || status == http.StatusServiceUnavailable {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err, opts...)
}
