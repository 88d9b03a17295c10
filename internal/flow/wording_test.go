package flow

import (
	"testing"

	"github.com/BTreeMap/FlowState/internal/models"
)

func TestIsCancel(t *testing.T) {
	tests := map[string]bool{
		"hủy":            true,
		"huỷ đơn":        true,
		"please cancel":  true,
		"xác nhận":       false,
		"":               false,
		"hũy":            false,
		"cancelled it":   true,
		"không hủy đâu": true,
	}
	for in, want := range tests {
		if got := isCancel(normalize(in)); got != want {
			t.Errorf("isCancel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsGenericConfirm(t *testing.T) {
	tests := map[string]bool{
		"xác nhận":    true,
		"Confirm":     true,
		" OK ":        true,
		"đồng ý":      true,
		"ok luôn":     false,
		"có":          false,
		"tôi đồng ý": false,
	}
	for in, want := range tests {
		if got := isGenericConfirm(normalize(in)); got != want {
			t.Errorf("isGenericConfirm(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsOrderConfirm(t *testing.T) {
	tests := map[string]bool{
		"xác nhận":               true,
		"Okay":                   true,
		"có":                     true,
		"yes":                    true,
		"mình xác nhận nhé":      true,
		"đặt hàng":               true,
		"đặt hàng luôn":          true,
		"tôi muốn đặt hàng":      false,
		"muốn đặt hàng xi măng": false,
		"không":                  false,
	}
	for in, want := range tests {
		if got := isOrderConfirm(normalize(in)); got != want {
			t.Errorf("isOrderConfirm(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsSelection(t *testing.T) {
	tests := map[string]bool{
		"3":         true,
		"12":        true,
		"chọn":      true,
		"số 2":      true,
		"select":    true,
		"gạch đỏ":   true,
		"à":         false,
		"no":        false,
		"":          false,
	}
	for in, want := range tests {
		if got := isSelection(normalize(in)); got != want {
			t.Errorf("isSelection(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParsePayment(t *testing.T) {
	methods := map[string]models.PaymentMethod{
		"1":                  models.PaymentCash,
		"cod":                models.PaymentCash,
		"2":                  models.PaymentBankTransfer,
		"bank transfer":      models.PaymentBankTransfer,
		"3":                  models.PaymentVNPay,
		"4":                  models.PaymentMoMo,
		"ví momo":            models.PaymentMoMo,
		"5":                  models.PaymentCash,
	}
	for in, want := range methods {
		if got := parsePaymentMethod(normalize(in)); got != want {
			t.Errorf("parsePaymentMethod(%q) = %s, want %s", in, got, want)
		}
	}

	types := map[string]models.PaymentType{
		"đặt cọc":     models.PaymentTypeDeposit,
		"deposit":     models.PaymentTypeDeposit,
		"trả 50%":     models.PaymentTypeDeposit,
		"trả hết":     models.PaymentTypeFull,
		"chuyển khoản": models.PaymentTypeFull,
	}
	for in, want := range types {
		if got := parsePaymentType(normalize(in)); got != want {
			t.Errorf("parsePaymentType(%q) = %s, want %s", in, got, want)
		}
	}
}
