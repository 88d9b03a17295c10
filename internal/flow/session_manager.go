// Package flow manages the conversation state of multi-turn chat tasks and
// routes incoming messages to the step handler of the active flow.
package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BTreeMap/FlowState/internal/models"
	"github.com/BTreeMap/FlowState/internal/store"
)

const (
	// StateKeyPrefix namespaces conversation states inside the shared store.
	StateKeyPrefix = "conv_state:"
	// DefaultStateTTL is the lifetime of a freshly started flow.
	DefaultStateTTL = 30 * time.Minute
	// DefaultRefreshTTL is the lifetime granted by every update.
	DefaultRefreshTTL = 30 * time.Minute
	// initialStep is the step every flow starts at.
	initialStep = 1
)

var (
	// ErrInvalidFlow is returned when starting or switching to an unknown flow or to FlowNone.
	ErrInvalidFlow = errors.New("invalid flow type")
	// ErrStepRegression is returned when an update would move a flow's step backwards.
	ErrStepRegression = errors.New("step cannot decrease")
	// ErrEmptySessionID is returned for operations without a session id.
	ErrEmptySessionID = errors.New("session id is required")
)

// Manager owns the lifecycle of conversation states kept in an expiring store.
type Manager struct {
	store      store.Store
	now        func() time.Time
	defaultTTL time.Duration
	refreshTTL time.Duration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithDefaultTTL sets the TTL used by Start when the caller passes none.
func WithDefaultTTL(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.defaultTTL = d
		}
	}
}

// WithRefreshTTL sets the TTL every update extends the state by.
func WithRefreshTTL(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.refreshTTL = d
		}
	}
}

// NewManager creates a Manager backed by st.
func NewManager(st store.Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:      st,
		now:        time.Now,
		defaultTTL: DefaultStateTTL,
		refreshTTL: DefaultRefreshTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	slog.Debug("FlowManager created", "defaultTTL", m.defaultTTL, "refreshTTL", m.refreshTTL)
	return m
}

func stateKey(sessionID string) string {
	return StateKeyPrefix + sessionID
}

// Get returns the state of a session, or nil when there is none or it expired.
func (m *Manager) Get(ctx context.Context, sessionID string) (*models.ConversationState, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	raw, ok, err := m.store.Get(ctx, stateKey(sessionID))
	if err != nil {
		slog.Error("FlowManager Get failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to load conversation state: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var state models.ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		slog.Error("FlowManager Get decode failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to decode conversation state: %w", err)
	}
	// The store's own clock may lag ours; the state's expiry is authoritative.
	if state.IsExpired(m.now()) {
		slog.Debug("FlowManager Get found expired state", "sessionID", sessionID)
		if err := m.store.Delete(ctx, stateKey(sessionID)); err != nil {
			slog.Warn("FlowManager Get eviction failed", "error", err, "sessionID", sessionID)
		}
		return nil, nil
	}
	if state.Data == nil {
		state.Data = models.FlowData{}
	}
	return &state, nil
}

// save writes state with a TTL matching its ExpiresAt.
func (m *Manager) save(ctx context.Context, state *models.ConversationState) error {
	ttl := state.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return fmt.Errorf("state for session %s already expired", state.SessionID)
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode conversation state: %w", err)
	}
	if err := m.store.Put(ctx, stateKey(state.SessionID), raw, ttl); err != nil {
		slog.Error("FlowManager save failed", "error", err, "sessionID", state.SessionID)
		return fmt.Errorf("failed to save conversation state: %w", err)
	}
	return nil
}

// Start begins flow for a session, replacing any existing state.
// A step below 1 starts at 1 and a non-positive ttl uses the default TTL.
func (m *Manager) Start(ctx context.Context, sessionID string, flow models.FlowType, step int, data models.FlowData, ttl time.Duration) (*models.ConversationState, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	if flow == models.FlowNone || !flow.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFlow, flow)
	}
	if step < initialStep {
		step = initialStep
	}
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	now := m.now()
	state := &models.ConversationState{
		SessionID: sessionID,
		Flow:      flow,
		Step:      step,
		Data:      models.FlowData{}.Merge(data),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := m.save(ctx, state); err != nil {
		return nil, err
	}
	slog.Info("FlowManager Start", "sessionID", sessionID, "flow", flow, "step", step, "ttl", ttl)
	return state, nil
}

// Update overwrites the top-level fields set in upd and refreshes the expiry.
// It returns nil without writing when the session has no state.
// Switching to FlowNone clears the state.
func (m *Manager) Update(ctx context.Context, sessionID string, upd models.StateUpdate) (*models.ConversationState, error) {
	state, err := m.Get(ctx, sessionID)
	if err != nil || state == nil {
		return nil, err
	}

	if upd.Flow != nil {
		if *upd.Flow == models.FlowNone {
			return nil, m.Clear(ctx, sessionID)
		}
		if !upd.Flow.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFlow, *upd.Flow)
		}
		state.Flow = *upd.Flow
	}
	if upd.Step != nil {
		if *upd.Step < state.Step {
			return nil, fmt.Errorf("%w: %d to %d", ErrStepRegression, state.Step, *upd.Step)
		}
		state.Step = *upd.Step
	}
	if upd.Data != nil {
		state.Data = upd.Data
	}
	state.ExpiresAt = m.now().Add(m.refreshTTL)

	if err := m.save(ctx, state); err != nil {
		return nil, err
	}
	slog.Debug("FlowManager Update", "sessionID", sessionID, "flow", state.Flow, "step", state.Step)
	return state, nil
}

// AdvanceStep moves the session's flow to the next step.
func (m *Manager) AdvanceStep(ctx context.Context, sessionID string) (*models.ConversationState, error) {
	state, err := m.Get(ctx, sessionID)
	if err != nil || state == nil {
		return nil, err
	}
	next := state.Step + 1
	return m.Update(ctx, sessionID, models.StateUpdate{Step: &next})
}

// UpdateData merges patch into the session's data. Keys absent from patch are kept.
func (m *Manager) UpdateData(ctx context.Context, sessionID string, patch models.FlowData) (*models.ConversationState, error) {
	state, err := m.Get(ctx, sessionID)
	if err != nil || state == nil {
		return nil, err
	}
	return m.Update(ctx, sessionID, models.StateUpdate{Data: state.Data.Merge(patch)})
}

// Clear removes the session's state. Clearing an absent state is not an error.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	if err := m.store.Delete(ctx, stateKey(sessionID)); err != nil {
		slog.Error("FlowManager Clear failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to clear conversation state: %w", err)
	}
	slog.Info("FlowManager Clear", "sessionID", sessionID)
	return nil
}

// IsActive reports whether the session is in a flow.
func (m *Manager) IsActive(ctx context.Context, sessionID string) (bool, error) {
	state, err := m.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return state != nil && state.Flow != models.FlowNone, nil
}

// CurrentFlow returns the session's flow, FlowNone when it has none.
func (m *Manager) CurrentFlow(ctx context.Context, sessionID string) (models.FlowType, error) {
	state, err := m.Get(ctx, sessionID)
	if err != nil {
		return models.FlowNone, err
	}
	if state == nil {
		return models.FlowNone, nil
	}
	return state.Flow, nil
}

// FlowData returns the session's data. It is never nil.
func (m *Manager) FlowData(ctx context.Context, sessionID string) (models.FlowData, error) {
	state, err := m.Get(ctx, sessionID)
	if err != nil {
		return models.FlowData{}, err
	}
	if state == nil {
		return models.FlowData{}, nil
	}
	return state.Data, nil
}

// StartOrderCreationFlow begins an order at the item confirmation step.
// Guest details are only asked for when there is no customer account and
// existingGuest is incomplete; any partial details given are kept.
func (m *Manager) StartOrderCreationFlow(ctx context.Context, sessionID string, items []models.OrderItem, hasCustomerID bool, existingGuest *models.GuestInfo) (*models.ConversationState, error) {
	needsGuestInfo := !hasCustomerID && (existingGuest == nil || !existingGuest.Complete())
	if items == nil {
		items = []models.OrderItem{}
	}
	data := models.FlowData{
		string(models.DataKeyItems):          items,
		string(models.DataKeyCurrentStep):    string(models.OrderStepConfirmItems),
		string(models.DataKeyNeedsGuestInfo): needsGuestInfo,
	}
	if existingGuest != nil && !existingGuest.IsEmpty() {
		data[string(models.DataKeyGuestInfo)] = *existingGuest
	}
	slog.Debug("FlowManager StartOrderCreationFlow", "sessionID", sessionID, "items", len(items), "needsGuestInfo", needsGuestInfo)
	return m.Start(ctx, sessionID, models.FlowOrderCreation, initialStep, data, 0)
}

// StartOCRInvoiceFlow begins confirmation of a parsed invoice.
func (m *Manager) StartOCRInvoiceFlow(ctx context.Context, sessionID string, parsedInvoice map[string]any) (*models.ConversationState, error) {
	data := models.FlowData{
		string(models.DataKeyParsedInvoice): parsedInvoice,
		string(models.DataKeyConfirmed):     false,
	}
	return m.Start(ctx, sessionID, models.FlowOCRInvoice, initialStep, data, 0)
}

// StartCRUDConfirmationFlow begins confirmation of a pending entity mutation.
func (m *Manager) StartCRUDConfirmationFlow(ctx context.Context, sessionID string, c models.CRUDConfirmation) (*models.ConversationState, error) {
	return m.Start(ctx, sessionID, models.FlowCRUDConfirmation, initialStep, c.FlowData(), 0)
}

// OrderStep returns the named order step of the session, confirm_items when unset.
func (m *Manager) OrderStep(ctx context.Context, sessionID string) (models.OrderStep, error) {
	data, err := m.FlowData(ctx, sessionID)
	if err != nil {
		return models.OrderStepConfirmItems, err
	}
	step, _ := models.ParseOrderStep(data.String(models.DataKeyCurrentStep))
	return step, nil
}

// SetOrderStep records the named order step of the session.
func (m *Manager) SetOrderStep(ctx context.Context, sessionID string, step models.OrderStep) (*models.ConversationState, error) {
	return m.UpdateData(ctx, sessionID, models.FlowData{string(models.DataKeyCurrentStep): string(step)})
}
