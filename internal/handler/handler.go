package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"topowatch/internal/adapter"
	"topowatch/internal/codec"
	"topowatch/internal/domain"
	"topowatch/internal/service"
)

// SourceDescriber reports the configured source, typically the Poller
type SourceDescriber interface {
	Info() adapter.SourceInfo
}

// GraphHandler serves the latest published topology
type GraphHandler struct {
	svc    *service.TopologyService
	source adapter.Source
	poller SourceDescriber
	logger *log.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(svc *service.TopologyService, logger *log.Logger) *GraphHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &GraphHandler{svc: svc, logger: logger}
}

// SetSource sets the source used for on-demand refreshes
func (h *GraphHandler) SetSource(src adapter.Source) {
	h.source = src
}

// SetPoller sets the poller described by GET /api/source
func (h *GraphHandler) SetPoller(p SourceDescriber) {
	h.poller = p
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ViewResponse reports the view mode chosen for the latest graph
type ViewResponse struct {
	Mode      string `json:"mode"`
	Visible   int    `json:"visible"`
	Threshold int    `json:"threshold"`
}

// GetGraph returns the latest publication. ?format=yaml selects YAML output.
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	pub := h.svc.Current()

	format := r.URL.Query().Get("format")
	if format == "" || format == "json" {
		h.writeJSON(w, pub, http.StatusOK)
		return
	}

	c, err := codec.Lookup(format)
	if err != nil {
		h.writeError(w, "Unsupported format", err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	if err := c.Export(pub, w); err != nil {
		// Headers are already sent
		h.logger.Error("failed to export graph", "format", c.Format(), "err", err)
	}
}

// ListNodes returns published nodes, filtered by ?q= and an optional ?key=
func (h *GraphHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.writeJSON(w, h.svc.Search(q.Get("key"), q.Get("q")), http.StatusOK)
}

// GetNode returns a single published node by identity
func (h *GraphHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "nid")
	nid, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.writeError(w, "Invalid node ID", err.Error(), http.StatusBadRequest)
		return
	}

	node, err := h.svc.Node(domain.NID(nid))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		h.writeError(w, "Failed to get node", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, node, http.StatusOK)
}

// ListEdges returns the published edge positions
func (h *GraphHandler) ListEdges(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.svc.Current().Edges, http.StatusOK)
}

// ListShortcuts returns the collapsed topology's shortcut positions
func (h *GraphHandler) ListShortcuts(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.svc.Current().Shortcuts, http.StatusOK)
}

// GetView returns the view mode for the latest graph. ?threshold= overrides
// the configured density limit.
func (h *GraphHandler) GetView(w http.ResponseWriter, r *http.Request) {
	threshold, ok := h.intParam(w, r, "threshold")
	if !ok {
		return
	}
	if threshold <= 0 {
		threshold = h.svc.DensityMax()
	}

	mode, visible := h.svc.Mode(threshold, nil)
	h.writeJSON(w, ViewResponse{
		Mode:      string(mode),
		Visible:   visible,
		Threshold: threshold,
	}, http.StatusOK)
}

// ListCycles returns recent cycle records, newest first
func (h *GraphHandler) ListCycles(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.intParam(w, r, "limit")
	if !ok {
		return
	}

	cycles, err := h.svc.Cycles(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list cycles", "err", err)
		h.writeError(w, "Failed to list cycles", err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, cycles, http.StatusOK)
}

// Refresh runs one cycle against the configured source and returns its record
func (h *GraphHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		h.writeError(w, "Source not configured", "No snapshot source is registered", http.StatusServiceUnavailable)
		return
	}

	rec, err := h.svc.RunCycle(r.Context(), h.source)
	switch {
	case errors.Is(err, adapter.ErrSuperseded):
		h.writeJSON(w, rec, http.StatusConflict)
	case err != nil:
		h.writeError(w, "Refresh failed", err.Error(), http.StatusBadGateway)
	default:
		h.writeJSON(w, rec, http.StatusOK)
	}
}

// GetSource describes the snapshot source and its polling schedule
func (h *GraphHandler) GetSource(w http.ResponseWriter, r *http.Request) {
	if h.poller != nil {
		h.writeJSON(w, h.poller.Info(), http.StatusOK)
		return
	}
	if h.source != nil {
		h.writeJSON(w, adapter.SourceInfo{Name: h.source.Name()}, http.StatusOK)
		return
	}
	h.writeError(w, "Source not configured", "No snapshot source is registered", http.StatusNotFound)
}

// Healthz reports liveness and the latest published cycle
func (h *GraphHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	pub := h.svc.Current()
	h.writeJSON(w, map[string]any{
		"status": "ok",
		"cycle":  pub.Cycle,
		"nodes":  len(pub.Nodes),
	}, http.StatusOK)
}

// Helper methods

func (h *GraphHandler) intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		h.writeError(w, "Invalid "+name, err.Error(), http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

func (h *GraphHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON", "err", err)
	}
}

func (h *GraphHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	h.writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}
