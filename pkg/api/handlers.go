package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/harborview-rehab/scheduler/pkg/core/engine"
	"github.com/harborview-rehab/scheduler/pkg/core/model"
)

// Handler holds the API's dependencies
type Handler struct {
	engine *engine.Engine
	auth   Authenticator
	logger *zap.Logger
}

// NewHandler creates the API handler
func NewHandler(eng *engine.Engine, auth Authenticator, logger *zap.Logger) *Handler {
	return &Handler{engine: eng, auth: auth, logger: logger}
}

// errorResponse is the body for every non-2xx response
type errorResponse struct {
	Error        string                       `json:"error"`
	Code         engine.Code                  `json:"code,omitempty"`
	Availability *engine.AvailabilityConflict `json:"availability,omitempty"`
}

// ApplyAction is the single RPC entry point: it takes a DragAction body and
// runs it through the orchestrator
func (h *Handler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	actorID, err := h.auth.Authenticate(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	var action model.DragAction
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body", Code: engine.CodeInvalidRequest})
		return
	}

	result, err := h.engine.Apply(r.Context(), actorID, action)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Health is a liveness probe
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeEngineError maps a reason-coded rejection to its HTTP status;
// anything else is an opaque 500
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	engErr, ok := engine.AsEngineError(err)
	if !ok {
		h.logger.Error("Schedule action failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, statusFor(engErr.Code), errorResponse{
		Error:        engErr.Message,
		Code:         engErr.Code,
		Availability: engErr.Availability,
	})
}

func statusFor(code engine.Code) int {
	switch code {
	case engine.CodeInvalidRequest:
		return http.StatusBadRequest
	case engine.CodeNotAManager:
		return http.StatusForbidden
	case engine.CodeCycleNotFound, engine.CodeShiftNotFound:
		return http.StatusNotFound
	default:
		// business-rule conflicts: date range, availability, limits,
		// duplicates, lead rules, published cycles
		return http.StatusConflict
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
