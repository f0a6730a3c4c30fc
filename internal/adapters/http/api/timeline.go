package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/gantt/internal/adapters/svg"
	"github.com/okian/gantt/internal/domain/types"
)

// TimelineHandler serves synchronous transforms.
type TimelineHandler struct {
	deps   Dependencies
	server *Server
}

// NewTimelineHandler creates a new timeline handler.
func NewTimelineHandler(deps Dependencies, server *Server) *TimelineHandler {
	return &TimelineHandler{deps: deps, server: server}
}

// HandleTimeline handles POST /v1/timeline requests.
func (h *TimelineHandler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	const op = "api.timeline"
	var req types.TimelineRequest
	if err := h.server.decode(w, r, &req); err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	res, err := h.deps.Render(r.Context(), req)
	if err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromResult(res))
}

// HandleRender handles POST /v1/render?width= requests and answers with SVG.
func (h *TimelineHandler) HandleRender(w http.ResponseWriter, r *http.Request) {
	const op = "api.render"
	opts := []svg.Option{
		svg.WithTimeFormat(h.server.timeFormat),
		svg.WithLocation(h.server.loc),
	}
	if raw := r.URL.Query().Get("width"); raw != "" {
		width, err := strconv.ParseFloat(raw, 64)
		if err != nil || width <= 0 {
			h.server.fail(w, r, op, fmt.Errorf("%w: width must be a positive number", ErrBadRequest))
			return
		}
		opts = append(opts, svg.WithWidth(width))
	}
	if title := r.URL.Query().Get("title"); title != "" {
		opts = append(opts, svg.WithTitle(title))
	}

	var req types.TimelineRequest
	if err := h.server.decode(w, r, &req); err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	res, err := h.deps.Render(r.Context(), req)
	if err != nil {
		h.server.fail(w, r, op, err)
		return
	}

	var buf bytes.Buffer
	if err := svg.NewWriter(opts...).Write(&buf, res); err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
