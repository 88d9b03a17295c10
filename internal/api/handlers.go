package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/BTreeMap/FlowState/internal/contact"
	"github.com/BTreeMap/FlowState/internal/models"
)

// maxSessionIDLength bounds session ids accepted in paths.
const maxSessionIDLength = 128

func newSessionID() string {
	return uuid.NewString()
}

// sessionIDParam reads the session id path parameter, writing a 400 response when it is unusable.
func sessionIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if id == "" || len(id) > maxSessionIDLength {
		slog.Warn("Server: invalid session id", "length", len(id))
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid session id"))
		return "", false
	}
	return id, true
}

func (s *Server) pingHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("pong", nil))
}

// createSessionHandler handles POST /sessions
func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := s.newID()
	slog.Debug("Server.createSessionHandler: issued session id", "sessionID", id)
	writeJSONResponse(w, http.StatusCreated, models.Success(models.SessionInfo{SessionID: id}))
}

// getStateHandler handles GET /sessions/{sessionID}/state
func (s *Server) getStateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	state, err := s.manager.Get(r.Context(), id)
	if err != nil {
		slog.Error("Server.getStateHandler: failed to load state", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load conversation state"))
		return
	}
	view := models.StateView{SessionID: id, Flow: models.FlowNone}
	if state != nil {
		view.Flow = state.Flow
		view.Active = state.Flow != models.FlowNone
		view.State = state
	}
	writeJSONResponse(w, http.StatusOK, models.Success(view))
}

// clearStateHandler handles DELETE /sessions/{sessionID}/state
func (s *Server) clearStateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	if err := s.manager.Clear(r.Context(), id); err != nil {
		slog.Error("Server.clearStateHandler: failed to clear state", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to clear conversation state"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Conversation state cleared", nil))
}

// updateDataHandler handles PATCH /sessions/{sessionID}/data
func (s *Server) updateDataHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	var req models.UpdateDataRequest
	if !decodeRequest(w, r, "updateDataHandler", &req) {
		return
	}
	state, err := s.manager.UpdateData(r.Context(), id, req.Data)
	if err != nil {
		slog.Error("Server.updateDataHandler: failed to update data", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to update flow data"))
		return
	}
	if state == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("No active flow for session"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(state))
}

// startOrderHandler handles POST /sessions/{sessionID}/flows/order
func (s *Server) startOrderHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	var req models.StartOrderRequest
	if !decodeRequest(w, r, "startOrderHandler", &req) {
		return
	}
	state, err := s.manager.StartOrderCreationFlow(r.Context(), id, req.Items, req.HasCustomerID, req.GuestInfo)
	if err != nil {
		slog.Error("Server.startOrderHandler: failed to start flow", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to start order flow"))
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.Success(state))
}

// startOCRInvoiceHandler handles POST /sessions/{sessionID}/flows/ocr-invoice
func (s *Server) startOCRInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	var req models.StartOCRInvoiceRequest
	if !decodeRequest(w, r, "startOCRInvoiceHandler", &req) {
		return
	}
	state, err := s.manager.StartOCRInvoiceFlow(r.Context(), id, req.ParsedInvoice)
	if err != nil {
		slog.Error("Server.startOCRInvoiceHandler: failed to start flow", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to start invoice flow"))
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.Success(state))
}

// startCRUDConfirmationHandler handles POST /sessions/{sessionID}/flows/crud-confirmation
func (s *Server) startCRUDConfirmationHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	var req models.StartCRUDConfirmationRequest
	if !decodeRequest(w, r, "startCRUDConfirmationHandler", &req) {
		return
	}
	state, err := s.manager.StartCRUDConfirmationFlow(r.Context(), id, req.CRUDConfirmation)
	if err != nil {
		slog.Error("Server.startCRUDConfirmationHandler: failed to start flow", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to start confirmation flow"))
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.Success(state))
}

// messageHandler handles POST /sessions/{sessionID}/messages
func (s *Server) messageHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	var req models.MessageRequest
	if !decodeRequest(w, r, "messageHandler", &req) {
		return
	}
	result, err := s.dispatcher.ProcessFlowResponse(r.Context(), id, req.Message)
	if err != nil {
		slog.Error("Server.messageHandler: failed to process message", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process message"))
		return
	}
	slog.Debug("Server.messageHandler: processed", "sessionID", id, "continue", result.ShouldContinue,
		"confirmed", result.IsConfirmed, "cancelled", result.IsCancelled)
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

// extractContactHandler handles POST /extract/contact
func (s *Server) extractContactHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ExtractContactRequest
	if !decodeRequest(w, r, "extractContactHandler", &req) {
		return
	}
	info := contact.Extract(req.Text)
	writeJSONResponse(w, http.StatusOK, models.Success(models.ContactExtraction{
		GuestInfo: info,
		Complete:  info.Complete(),
		Missing:   info.Missing(),
	}))
}
