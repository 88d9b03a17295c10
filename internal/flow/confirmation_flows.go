package flow

import (
	"context"
	"log/slog"

	"github.com/BTreeMap/FlowState/internal/models"
)

// handleOCRInvoice confirms a parsed invoice on any message that is not a cancellation.
// The confirmed flag is recorded so the caller can tell a confirmed invoice from a pending one
// until it clears the state after saving.
func (d *Dispatcher) handleOCRInvoice(ctx context.Context, state *models.ConversationState) (models.FlowResult, error) {
	if _, err := d.manager.UpdateData(ctx, state.SessionID, models.FlowData{string(models.DataKeyConfirmed): true}); err != nil {
		return models.FlowResult{}, err
	}
	slog.Debug("Dispatcher OCR invoice confirmed", "sessionID", state.SessionID)
	return models.FlowResult{ShouldContinue: true, IsConfirmed: true}, nil
}

// handleCRUDConfirmation confirms the pending entity mutation on any message that is not a cancellation.
func (d *Dispatcher) handleCRUDConfirmation(_ context.Context, state *models.ConversationState) (models.FlowResult, error) {
	slog.Debug("Dispatcher CRUD action confirmed", "sessionID", state.SessionID,
		"action", state.Data.String(models.DataKeyAction), "entityType", state.Data.String(models.DataKeyEntityType))
	return models.FlowResult{ShouldContinue: true, IsConfirmed: true}, nil
}
