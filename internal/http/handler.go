package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ai-model4vda/lamp2-4.0/internal/rag"
	"go.uber.org/zap"
)

// BadRequestMessage is returned for any request body that fails validation.
const BadRequestMessage = "Bad Request, Data isn't in correct format."

const maxBodyBytes = 1 << 20

// Responder is the orchestration surface the handlers drive.
type Responder interface {
	Respond(ctx context.Context, req rag.IncomingRequest) (rag.Reply, error)
	RespondWithoutRetrieval(ctx context.Context, req rag.IncomingRequest) (rag.Reply, error)
}

type Handler struct {
	svc    Responder
	logger *zap.Logger
}

func NewHandler(svc Responder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "API is running"})
}

// GetResult answers with retrieved similar cases in the prompt.
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "getresult", h.svc.Respond)
}

// GetResultWithoutRAG answers from the plain prompt only.
func (h *Handler) GetResultWithoutRAG(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "getresultwithoutrag", h.svc.RespondWithoutRetrieval)
}

type respondFunc func(context.Context, rag.IncomingRequest) (rag.Reply, error)

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, route string, respond respondFunc) {
	log := h.logger.With(zap.String("route", route), zap.String("request_id", RequestID(r.Context())))

	var body any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		log.Debug("undecodable request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, BadRequestMessage)
		return
	}

	req, err := rag.ParseRequest(body)
	if err != nil {
		log.Debug("invalid request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, BadRequestMessage)
		return
	}

	reply, err := respond(r.Context(), req)
	if err != nil {
		log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if reply.Degraded {
		log.Info("answered with fallback message")
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": reply.Text})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
