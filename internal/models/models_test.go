package models

import (
	"errors"
	"testing"
	"time"
)

func TestFlowDataMergeKeepsUntouchedKeys(t *testing.T) {
	base := FlowData{"a": "1", "keep": true}
	merged := base.Merge(FlowData{"b": "2", "a": "one"})

	if merged["a"] != "one" || merged["b"] != "2" || merged["keep"] != true {
		t.Errorf("unexpected merge result: %v", merged)
	}
	if _, ok := base["b"]; ok {
		t.Error("Merge must not modify the receiver")
	}
}

func TestFlowDataTypedReaders(t *testing.T) {
	d := FlowData{
		string(DataKeyCurrentStep):    "guest_info",
		string(DataKeyNeedsGuestInfo): true,
		string(DataKeyGuestInfo):      map[string]any{"name": "A", "phone": "0901234567"},
	}

	if got := d.String(DataKeyCurrentStep); got != "guest_info" {
		t.Errorf("String: got %q", got)
	}
	if !d.Bool(DataKeyNeedsGuestInfo) {
		t.Error("Bool: expected true")
	}
	if d.String(DataKeyNeedsGuestInfo) != "" {
		t.Error("String on a bool value should return empty")
	}

	var g GuestInfo
	found, err := d.Decode(DataKeyGuestInfo, &g)
	if err != nil || !found {
		t.Fatalf("Decode: found=%v err=%v", found, err)
	}
	if g.Name != "A" || g.Phone != "0901234567" || g.Address != "" {
		t.Errorf("Decode: unexpected guest info %+v", g)
	}

	found, err = d.Decode(DataKeyPaymentMethod, &g)
	if found || err != nil {
		t.Errorf("Decode of absent key: found=%v err=%v", found, err)
	}
}

func TestParseOrderStep(t *testing.T) {
	tests := []struct {
		in     string
		want   OrderStep
		wantOK bool
	}{
		{"", OrderStepConfirmItems, true},
		{"confirm_items", OrderStepConfirmItems, true},
		{"guest_info", OrderStepGuestInfo, true},
		{"payment_method", OrderStepPaymentMethod, true},
		{"final_confirmation", OrderStepFinalConfirmation, true},
		{"vat_info", OrderStep("vat_info"), false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseOrderStep(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseOrderStep(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestGuestInfoMissing(t *testing.T) {
	g := GuestInfo{Name: "A"}
	missing := g.Missing()
	if len(missing) != 2 || missing[0] != "phone" || missing[1] != "address" {
		t.Errorf("unexpected missing fields: %v", missing)
	}
	if g.Complete() {
		t.Error("partial guest info reported complete")
	}
	if !(GuestInfo{Name: "A", Phone: "0901234567", Address: "HCM"}).Complete() {
		t.Error("full guest info reported incomplete")
	}
}

func TestConversationStateIsExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := ConversationState{CreatedAt: now, ExpiresAt: now.Add(time.Minute)}
	if s.IsExpired(now) {
		t.Error("state expired too early")
	}
	if !s.IsExpired(now.Add(time.Minute)) {
		t.Error("state should be expired at its expiry instant")
	}
}

func TestStartOrderRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  StartOrderRequest
		want error
	}{
		{"no items", StartOrderRequest{}, ErrMissingItems},
		{"empty name", StartOrderRequest{Items: []OrderItem{{Quantity: 1}}}, ErrEmptyProductName},
		{"zero quantity", StartOrderRequest{Items: []OrderItem{{ProductName: "Xi măng", Quantity: 0}}}, ErrInvalidQuantity},
		{"valid", StartOrderRequest{Items: []OrderItem{{ProductName: "Xi măng", Quantity: 10, Unit: "bao"}}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMessageRequestValidate(t *testing.T) {
	if err := (&MessageRequest{Message: "  "}).Validate(); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
	if err := (&MessageRequest{Message: "xác nhận"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
