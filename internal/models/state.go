// Package models defines state management structures for conversation flows.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ConversationState is the progress of one chat session through a flow.
type ConversationState struct {
	SessionID string    `json:"session_id"`
	Flow      FlowType  `json:"flow"`
	Step      int       `json:"step"`
	Data      FlowData  `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the state is past its expiry at the given time.
func (s *ConversationState) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// StateUpdate carries the top-level fields to overwrite in an update. Nil fields are left unchanged.
type StateUpdate struct {
	Flow *FlowType
	Step *int
	Data FlowData
}

// FlowData is the flow-defined payload of a conversation state.
// Values have been through a JSON round trip: numbers are float64 and nested objects are maps.
type FlowData map[string]any

// Merge returns a new FlowData with the keys of patch written over d. d is not modified.
func (d FlowData) Merge(patch FlowData) FlowData {
	merged := make(FlowData, len(d)+len(patch))
	for k, v := range d {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}

// Get returns the raw value stored under key.
func (d FlowData) Get(key DataKey) (any, bool) {
	v, ok := d[string(key)]
	return v, ok
}

// String returns the string stored under key, or "" when absent or not a string.
func (d FlowData) String(key DataKey) string {
	s, _ := d[string(key)].(string)
	return s
}

// Bool returns the bool stored under key, or false when absent or not a bool.
func (d FlowData) Bool(key DataKey) bool {
	b, _ := d[string(key)].(bool)
	return b
}

// Decode re-marshals the value under key into out. It returns false when the key is absent.
func (d FlowData) Decode(key DataKey, out any) (bool, error) {
	v, ok := d[string(key)]
	if !ok || v == nil {
		return false, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return true, fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// FlowResult is the dispatcher's decision for one incoming message.
type FlowResult struct {
	ShouldContinue bool   `json:"should_continue"`
	IsConfirmed    bool   `json:"is_confirmed,omitempty"`
	IsCancelled    bool   `json:"is_cancelled,omitempty"`
	NextPrompt     string `json:"next_prompt,omitempty"`
}
