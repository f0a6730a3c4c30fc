package api

import (
	"net/http"
	"strings"

	"github.com/okian/gantt/internal/domain/types"
)

// IdempotencyKeyHeader makes POST /v1/jobs safe to retry.
const IdempotencyKeyHeader = "Idempotency-Key"

// JobsHandler handles asynchronous transform jobs.
type JobsHandler struct {
	deps   Dependencies
	server *Server
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps Dependencies, server *Server) *JobsHandler {
	return &JobsHandler{deps: deps, server: server}
}

// HandleSubmit handles POST /v1/jobs requests.
func (h *JobsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_job"
	var req types.TimelineRequest
	if err := h.server.decode(w, r, &req); err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	accepted, err := h.deps.Submit(r.Context(), req, key)
	if err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	w.Header().Set("Location", "/v1/jobs/"+accepted.JobID)
	writeJSON(w, http.StatusAccepted, accepted)
}

// HandleGet handles GET /v1/jobs/{id} requests.
func (h *JobsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_job"
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		h.server.fail(w, r, op, NewKind(op, ErrNotFound))
		return
	}
	status, err := h.deps.Job(r.Context(), id)
	if err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
