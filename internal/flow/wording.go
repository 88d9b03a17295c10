package flow

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/BTreeMap/FlowState/internal/models"
)

// normalize lower-cases and trims a chat message for keyword matching.
func normalize(message string) string {
	return strings.ToLower(strings.TrimSpace(message))
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func equalsAny(s string, words ...string) bool {
	for _, w := range words {
		if s == w {
			return true
		}
	}
	return false
}

// isCancel reports whether the message asks to abandon the flow.
func isCancel(msg string) bool {
	return containsAny(msg, "hủy", "huỷ", "cancel")
}

// isGenericConfirm is the confirmation wording accepted outside the order flow.
func isGenericConfirm(msg string) bool {
	return containsAny(msg, "xác nhận", "confirm") || equalsAny(msg, "ok", "đồng ý")
}

// isEarlyOrderConfirm matches the explicit "confirm the order" phrases accepted at any order step.
func isEarlyOrderConfirm(msg string) bool {
	return equalsAny(msg, "xác nhận đặt hàng", "xác nhận")
}

// isOrderConfirm is the confirmation wording accepted at the item confirmation step.
// "đặt hàng" alone confirms, but not inside a fresh request like "tôi muốn đặt hàng".
func isOrderConfirm(msg string) bool {
	if equalsAny(msg, "xác nhận", "confirm", "ok", "okay", "đồng ý", "có", "yes") {
		return true
	}
	if containsAny(msg, "xác nhận", "confirm") {
		return true
	}
	return strings.Contains(msg, "đặt hàng") && !containsAny(msg, "muốn", "tôi")
}

// isSelection reports whether the message looks like a new product pick rather than a confirmation.
func isSelection(msg string) bool {
	if msg != "" && strings.IndexFunc(msg, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return true
	}
	if containsAny(msg, "chọn", "số", "select") {
		return true
	}
	return utf8.RuneCountInString(msg) > 2
}

// parsePaymentMethod maps a number or keyword to a payment method, CASH when nothing matches.
func parsePaymentMethod(msg string) models.PaymentMethod {
	switch {
	case msg == "1" || containsAny(msg, "tiền mặt", "cash", "cod"):
		return models.PaymentCash
	case msg == "2" || containsAny(msg, "chuyển khoản", "bank", "transfer"):
		return models.PaymentBankTransfer
	case msg == "3" || strings.Contains(msg, "vnpay"):
		return models.PaymentVNPay
	case msg == "4" || strings.Contains(msg, "momo"):
		return models.PaymentMoMo
	default:
		return models.PaymentCash
	}
}

// parsePaymentType reports DEPOSIT when the message mentions a deposit.
func parsePaymentType(msg string) models.PaymentType {
	if containsAny(msg, "cọc", "deposit", "50%") {
		return models.PaymentTypeDeposit
	}
	return models.PaymentTypeFull
}

var paymentMethodLabels = map[models.PaymentMethod]string{
	models.PaymentCash:         "Tiền mặt",
	models.PaymentBankTransfer: "Chuyển khoản ngân hàng",
	models.PaymentVNPay:        "VNPay",
	models.PaymentMoMo:         "MoMo",
}

// paymentMethodLabel is the customer-facing name of a payment method.
func paymentMethodLabel(m models.PaymentMethod) string {
	if label, ok := paymentMethodLabels[m]; ok {
		return label
	}
	return string(m)
}
