// Package models defines the core data structures for FlowState.
//
// It includes the conversation state, flow payloads and the API request/response
// envelopes shared across modules.
package models

import (
	"errors"
	"strings"
)

// Validation constants for input validation
const (
	// MaxMessageLength defines the maximum allowed length for an incoming chat message
	MaxMessageLength = 4096
	// MaxOrderItems defines the maximum number of items an order flow can be seeded with
	MaxOrderItems = 200
)

// Error variables for better error handling and testability
var (
	ErrEmptyMessage        = errors.New("message cannot be empty")
	ErrMessageTooLong      = errors.New("message exceeds maximum length")
	ErrMissingItems        = errors.New("at least one order item is required")
	ErrTooManyItems        = errors.New("too many order items")
	ErrEmptyProductName    = errors.New("order item product name cannot be empty")
	ErrInvalidQuantity     = errors.New("order item quantity must be positive")
	ErrMissingInvoice      = errors.New("parsed invoice is required")
	ErrMissingAction       = errors.New("action is required")
	ErrMissingEntityType   = errors.New("entity type is required")
	ErrEmptyDataPatch      = errors.New("data patch cannot be empty")
	ErrEmptyExtractionText = errors.New("text cannot be empty")
)

// MessageRequest is one chat turn sent by the chat route.
type MessageRequest struct {
	Message string `json:"message"`
}

// Validate checks the message is present and bounded.
func (r *MessageRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return ErrEmptyMessage
	}
	if len(r.Message) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// StartOrderRequest seeds an order creation flow.
type StartOrderRequest struct {
	Items         []OrderItem `json:"items"`
	HasCustomerID bool        `json:"has_customer_id"`
	GuestInfo     *GuestInfo  `json:"guest_info,omitempty"`
}

// Validate checks the order items.
func (r *StartOrderRequest) Validate() error {
	if len(r.Items) == 0 {
		return ErrMissingItems
	}
	if len(r.Items) > MaxOrderItems {
		return ErrTooManyItems
	}
	for _, item := range r.Items {
		if strings.TrimSpace(item.ProductName) == "" {
			return ErrEmptyProductName
		}
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

// StartOCRInvoiceRequest seeds an OCR invoice confirmation flow.
type StartOCRInvoiceRequest struct {
	ParsedInvoice map[string]any `json:"parsed_invoice"`
}

// Validate checks the invoice payload is present.
func (r *StartOCRInvoiceRequest) Validate() error {
	if len(r.ParsedInvoice) == 0 {
		return ErrMissingInvoice
	}
	return nil
}

// StartCRUDConfirmationRequest seeds a CRUD confirmation flow.
type StartCRUDConfirmationRequest struct {
	CRUDConfirmation
}

// Validate checks action and entity type are present.
func (r *StartCRUDConfirmationRequest) Validate() error {
	if strings.TrimSpace(r.Action) == "" {
		return ErrMissingAction
	}
	if strings.TrimSpace(r.EntityType) == "" {
		return ErrMissingEntityType
	}
	return nil
}

// UpdateDataRequest shallow-merges keys into the flow data of a session.
type UpdateDataRequest struct {
	Data FlowData `json:"data"`
}

// Validate checks the patch is not empty.
func (r *UpdateDataRequest) Validate() error {
	if len(r.Data) == 0 {
		return ErrEmptyDataPatch
	}
	return nil
}

// ExtractContactRequest asks for a contact-info extraction of free text.
type ExtractContactRequest struct {
	Text string `json:"text"`
}

// Validate checks the text is present.
func (r *ExtractContactRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return ErrEmptyExtractionText
	}
	return nil
}

// ContactExtraction is the result of running the contact extractor on free text.
type ContactExtraction struct {
	GuestInfo GuestInfo `json:"guest_info"`
	Complete  bool      `json:"complete"`
	Missing   []string  `json:"missing,omitempty"`
}

// SessionInfo is returned when a new chat session id is issued.
type SessionInfo struct {
	SessionID string `json:"session_id"`
}

// StateView is the API representation of a session's state. Flow is always concrete.
type StateView struct {
	SessionID string             `json:"session_id"`
	Flow      FlowType           `json:"flow"`
	Active    bool               `json:"active"`
	State     *ConversationState `json:"state,omitempty"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{
		response: APIResponse{},
	}
}

// WithStatus sets the status of the API response.
func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithResult sets the result data of the API response.
func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build constructs and returns the final APIResponse.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithResult(result).
		Build()
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithMessage(message).
		WithResult(result).
		Build()
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		Build()
}
