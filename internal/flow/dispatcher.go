package flow

import (
	"context"
	"log/slog"

	"github.com/BTreeMap/FlowState/internal/contact"
	"github.com/BTreeMap/FlowState/internal/models"
)

const cancelledPrompt = "Đã hủy thao tác. Bạn cần hỗ trợ gì thêm không?"

// ExtractFunc parses delivery contact details out of a chat message.
type ExtractFunc func(text string) models.GuestInfo

// Dispatcher routes an incoming chat message to the step handler of the session's active flow.
type Dispatcher struct {
	manager *Manager
	extract ExtractFunc
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithExtractor replaces the contact extractor used at the guest info step.
func WithExtractor(fn ExtractFunc) DispatcherOption {
	return func(d *Dispatcher) {
		if fn != nil {
			d.extract = fn
		}
	}
}

// NewDispatcher creates a Dispatcher over the given manager.
func NewDispatcher(m *Manager, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{manager: m, extract: contact.Extract}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Manager returns the session manager the dispatcher works on.
func (d *Dispatcher) Manager() *Manager {
	return d.manager
}

// ProcessFlowResponse decides what an incoming message means for the session's active flow.
//
// With no active flow it returns ShouldContinue=false so the caller falls back to
// intent detection. Cancellation wording is honored first in every flow and clears
// the state. Malformed input never produces an error; the handler re-prompts instead.
// Errors are only returned when the store fails.
func (d *Dispatcher) ProcessFlowResponse(ctx context.Context, sessionID, message string) (models.FlowResult, error) {
	state, err := d.manager.Get(ctx, sessionID)
	if err != nil {
		return models.FlowResult{}, err
	}
	if state == nil {
		slog.Debug("Dispatcher ProcessFlowResponse no active flow", "sessionID", sessionID)
		return models.FlowResult{ShouldContinue: false}, nil
	}

	msg := normalize(message)
	slog.Debug("Dispatcher ProcessFlowResponse", "sessionID", sessionID, "flow", state.Flow, "step", state.Step)

	if isCancel(msg) {
		return d.cancel(ctx, state)
	}

	switch state.Flow {
	case models.FlowOrderCreation:
		return d.handleOrderCreation(ctx, state, message, msg)
	case models.FlowOCRInvoice:
		return d.handleOCRInvoice(ctx, state)
	case models.FlowCRUDConfirmation:
		return d.handleCRUDConfirmation(ctx, state)
	default:
		return d.handleGeneric(ctx, state, msg)
	}
}

// cancel clears the session and reports the flow as abandoned.
func (d *Dispatcher) cancel(ctx context.Context, state *models.ConversationState) (models.FlowResult, error) {
	if err := d.manager.Clear(ctx, state.SessionID); err != nil {
		return models.FlowResult{}, err
	}
	slog.Info("Dispatcher flow cancelled", "sessionID", state.SessionID, "flow", state.Flow, "step", state.Step)
	return models.FlowResult{ShouldContinue: true, IsCancelled: true, NextPrompt: cancelledPrompt}, nil
}

// handleGeneric applies plain confirm/cancel matching for flows or steps without a dedicated handler.
func (d *Dispatcher) handleGeneric(ctx context.Context, state *models.ConversationState, msg string) (models.FlowResult, error) {
	switch {
	case isCancel(msg):
		return d.cancel(ctx, state)
	case isGenericConfirm(msg):
		slog.Debug("Dispatcher generic confirmation", "sessionID", state.SessionID, "flow", state.Flow)
		return models.FlowResult{ShouldContinue: true, IsConfirmed: true}, nil
	default:
		return models.FlowResult{ShouldContinue: false}, nil
	}
}
