package assistant

import (
	"context"
	"encoding/json"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/kilianp07/evroute/api"
	"github.com/kilianp07/evroute/core/logger"
	infralogger "github.com/kilianp07/evroute/infra/logger"
)

// Handler serves POST /api/assistant/chat.
type Handler struct {
	responder Responder
	limiter   *rate.Limiter
	conf      Conf
	log       logger.Logger
}

// NewHandler wraps responder with the rate limit and timeout from conf.
func NewHandler(responder Responder, conf Conf, log logger.Logger) *Handler {
	conf.SetDefaults()
	if log == nil {
		log = infralogger.NopLogger{}
	}
	return &Handler{
		responder: responder,
		limiter:   rate.NewLimiter(rate.Limit(conf.RateLimitRPS), conf.RateLimitBurst),
		conf:      conf,
		log:       log,
	}
}

// Register mounts the route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("POST /api/assistant/chat", h)
}

type chatRequest struct {
	Message json.RawMessage `json:"message"`
	Context map[string]any  `json:"context"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		api.WriteError(w, http.StatusTooManyRequests, "Too many requests")
		return
	}
	var req chatRequest
	if _, err := api.DecodeBody(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Message is required")
		return
	}
	var message string
	if err := json.Unmarshal(req.Message, &message); err != nil || message == "" {
		api.WriteError(w, http.StatusBadRequest, "Message is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.conf.Timeout())
	defer cancel()
	reply, err := h.responder.Reply(ctx, message, req.Context)
	if err != nil {
		h.log.Errorf("assistant chat: %v", err)
		api.WriteError(w, http.StatusServiceUnavailable, "Assistant unavailable")
		return
	}
	if err := api.WriteJSON(w, http.StatusOK, chatResponse{Reply: reply}); err != nil {
		h.log.Errorf("encode assistant reply: %v", err)
	}
}
