package httptransport

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"orderscope/internal/engine"
	"orderscope/internal/orders"
	dErrors "orderscope/pkg/domain-errors"
	"orderscope/pkg/platform/httputil"
)

// actorHeader identifies the calling system for rate limiting. Falls back to
// the client address when absent.
const actorHeader = "X-Actor-Id"

// Handler wires the analytics endpoints to the engine.
type Handler struct {
	engine *engine.Engine
	logger *slog.Logger
}

// New constructs the HTTP handler.
func New(eng *engine.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: eng, logger: logger}
}

// Register mounts the operation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/detect", h.HandleDetect)
	r.Get("/stores/{storeRef}/orders/{orderID}", h.HandleGetOrder)
	r.Get("/stores/{storeRef}/duplicates", h.HandleDuplicates)
	r.Get("/stores/{storeRef}/ip-groups", h.HandleIPGroups)
	r.Delete("/stores/{storeRef}/cache", h.HandleInvalidateCache)
	r.Get("/runs", h.HandleRecentRuns)
}

// HandleHealth reports process liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReady reports readiness including the order source probe.
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if !h.engine.SourceHealthy(r.Context()) {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"source": "unreachable",
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleDetect runs IP detection for the order in the request body.
func (h *Handler) HandleDetect(w http.ResponseWriter, r *http.Request) {
	var order orders.Record
	if err := httputil.DecodeJSON(r, &order); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.engine.DetectIP(r.Context(), actor(r), order)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleGetOrder returns one order through the detail cache.
func (h *Handler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	record, err := h.engine.GetOrder(r.Context(), actor(r), chi.URLParam(r, "storeRef"), chi.URLParam(r, "orderID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleDuplicates runs duplicate correlation over the store's window.
func (h *Handler) HandleDuplicates(w http.ResponseWriter, r *http.Request) {
	windowDays, err := queryInt(r, "window_days", 30)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.engine.DetectDuplicates(r.Context(), actor(r), chi.URLParam(r, "storeRef"), windowDays)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleIPGroups buckets the store's window by resolved IP.
func (h *Handler) HandleIPGroups(w http.ResponseWriter, r *http.Request) {
	windowDays, err := queryInt(r, "window_days", 30)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	minOrders, err := queryInt(r, "min_orders", 2)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	groups, err := h.engine.GroupOrdersByIP(r.Context(), actor(r), chi.URLParam(r, "storeRef"), windowDays, minOrders)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"groups": groups,
		"count":  len(groups),
	})
}

// HandleInvalidateCache drops every cached result for the store.
func (h *Handler) HandleInvalidateCache(w http.ResponseWriter, r *http.Request) {
	removed, err := h.engine.InvalidateStoreCache(r.Context(), chi.URLParam(r, "storeRef"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// HandleRecentRuns lists recent run summaries.
func (h *Handler) HandleRecentRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	runs, err := h.engine.RecentRuns(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func actor(r *http.Request) string {
	if id := r.Header.Get(actorHeader); id != "" {
		return id
	}
	return r.RemoteAddr
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "%s must be an integer", name)
	}
	return n, nil
}
