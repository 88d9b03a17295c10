// Package models defines flow type definitions shared by the flow, store and api packages.
package models

// FlowType identifies a multi-turn task a conversation can be in.
type FlowType string

// DataKey represents a key for storing flow-specific data.
type DataKey string

// Flow type constants. FlowNone is never persisted: an absent state is FlowNone.
const (
	FlowNone             FlowType = "NONE"
	FlowOrderCreation    FlowType = "ORDER_CREATION"
	FlowOCRInvoice       FlowType = "OCR_INVOICE"
	FlowCRUDConfirmation FlowType = "CRUD_CONFIRMATION"
)

// IsValid reports whether f is one of the known flow types.
func (f FlowType) IsValid() bool {
	switch f {
	case FlowNone, FlowOrderCreation, FlowOCRInvoice, FlowCRUDConfirmation:
		return true
	default:
		return false
	}
}

// OrderStep is the named sub-step of the order creation flow, kept in Data under DataKeyCurrentStep.
type OrderStep string

// Order creation steps.
const (
	OrderStepConfirmItems      OrderStep = "confirm_items"
	OrderStepGuestInfo         OrderStep = "guest_info"
	OrderStepPaymentMethod     OrderStep = "payment_method"
	OrderStepFinalConfirmation OrderStep = "final_confirmation" // terminal
)

// ParseOrderStep converts a stored step name into an OrderStep.
// An empty value maps to OrderStepConfirmItems; unknown values report ok=false.
func ParseOrderStep(s string) (step OrderStep, ok bool) {
	switch OrderStep(s) {
	case "":
		return OrderStepConfirmItems, true
	case OrderStepConfirmItems, OrderStepGuestInfo, OrderStepPaymentMethod, OrderStepFinalConfirmation:
		return OrderStep(s), true
	default:
		return OrderStep(s), false
	}
}

// PaymentMethod is the normalized payment choice of an order.
type PaymentMethod string

// Payment methods.
const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentVNPay        PaymentMethod = "VNPAY"
	PaymentMoMo         PaymentMethod = "MOMO"
)

// PaymentType tells whether the order is paid in full or by deposit.
type PaymentType string

const (
	PaymentTypeFull    PaymentType = "FULL"
	PaymentTypeDeposit PaymentType = "DEPOSIT"
)

// DefaultDepositPercentage is the share paid upfront for deposit orders.
const DefaultDepositPercentage = 50

// Data key constants for the order creation flow.
const (
	DataKeyItems             DataKey = "items"
	DataKeyCurrentStep       DataKey = "currentStep"
	DataKeyNeedsGuestInfo    DataKey = "needsGuestInfo"
	DataKeyGuestInfo         DataKey = "guestInfo"
	DataKeyPaymentMethod     DataKey = "paymentMethod"
	DataKeyPaymentType       DataKey = "paymentType"
	DataKeyDepositPercentage DataKey = "depositPercentage"
)

// Data key constants for the OCR invoice flow.
const (
	DataKeyParsedInvoice DataKey = "parsedInvoice"
	DataKeyConfirmed     DataKey = "confirmed"
)

// Data key constants for the CRUD confirmation flow.
const (
	DataKeyAction         DataKey = "action"
	DataKeyEntityType     DataKey = "entityType"
	DataKeyEntityData     DataKey = "entityData"
	DataKeyPreviewMessage DataKey = "previewMessage"
)
