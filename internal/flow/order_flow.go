package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/FlowState/internal/models"
)

const (
	guestInfoPrompt = "📝 **Thông tin giao hàng**\n\n" +
		"Vui lòng cung cấp:\n" +
		"- Họ tên\n" +
		"- Số điện thoại\n" +
		"- Địa chỉ nhận hàng\n\n" +
		"💡 *Ví dụ: Nguyễn Văn A, 0901234567, 123 Nguyễn Huệ, Q1, HCM*"

	confirmItemsPrompt = "💡 Bạn có muốn xác nhận đặt hàng không? Hoặc bạn có thể hủy bỏ.\n\n" +
		"Vui lòng chọn:\n" +
		"- \"Xác nhận\" để tiếp tục\n" +
		"- \"Hủy\" để hủy đơn hàng"

	notProvided = "(chưa có)"
)

var missingFieldLabels = map[string]string{
	"name":    "Họ tên",
	"phone":   "Số điện thoại",
	"address": "Địa chỉ",
}

// incompleteGuestInfoPrompt echoes what was understood and names what is still missing.
func incompleteGuestInfoPrompt(info models.GuestInfo) string {
	orNone := func(s string) string {
		if s == "" {
			return notProvided
		}
		return s
	}

	var b strings.Builder
	b.WriteString("❌ Thông tin chưa đầy đủ. Vui lòng cung cấp:\n")
	for _, field := range info.Missing() {
		fmt.Fprintf(&b, "- %s\n", missingFieldLabels[field])
	}
	b.WriteString("\n💡 Thông tin đã nhận:\n")
	fmt.Fprintf(&b, "- Tên: %s\n", orNone(info.Name))
	fmt.Fprintf(&b, "- SĐT: %s\n", orNone(info.Phone))
	fmt.Fprintf(&b, "- Địa chỉ: %s\n\n", orNone(info.Address))
	b.WriteString("💡 Ví dụ: Nguyễn Văn A, 0901234567, 123 Nguyễn Huệ, Q1, HCM")
	return b.String()
}

func paymentConfirmedPrompt(method models.PaymentMethod, paymentType models.PaymentType) string {
	prompt := fmt.Sprintf("💳 Phương thức thanh toán: **%s**", paymentMethodLabel(method))
	if paymentType == models.PaymentTypeDeposit {
		prompt += fmt.Sprintf(" (cọc %d%%)", models.DefaultDepositPercentage)
	}
	return prompt + "\n\nGõ \"Xác nhận\" để hoàn tất đơn hàng hoặc \"Hủy\" để hủy."
}

// storedGuestInfo returns the guest details already recorded in the order, if any.
func storedGuestInfo(data models.FlowData) models.GuestInfo {
	var info models.GuestInfo
	if _, err := data.Decode(models.DataKeyGuestInfo, &info); err != nil {
		slog.Warn("Dispatcher stored guest info unreadable", "error", err)
		return models.GuestInfo{}
	}
	return info
}

// handleOrderCreation runs the named step of the order creation flow.
// Unknown steps fall back to generic confirm/cancel matching.
func (d *Dispatcher) handleOrderCreation(ctx context.Context, state *models.ConversationState, raw, msg string) (models.FlowResult, error) {
	step, known := models.ParseOrderStep(state.Data.String(models.DataKeyCurrentStep))
	if !known {
		slog.Warn("Dispatcher unknown order step", "sessionID", state.SessionID, "step", step)
		return d.handleGeneric(ctx, state, msg)
	}

	// The order summary's confirm button sends these at whatever step the chat is in.
	if step != models.OrderStepConfirmItems && step != models.OrderStepFinalConfirmation && isEarlyOrderConfirm(msg) {
		return d.earlyOrderConfirm(ctx, state, step)
	}

	switch step {
	case models.OrderStepConfirmItems:
		return d.handleConfirmItems(ctx, state, msg)
	case models.OrderStepGuestInfo:
		return d.handleGuestInfo(ctx, state, raw)
	case models.OrderStepPaymentMethod:
		return d.handlePaymentMethod(ctx, state, msg)
	default:
		slog.Debug("Dispatcher order final confirmation", "sessionID", state.SessionID)
		return models.FlowResult{ShouldContinue: true, IsConfirmed: true}, nil
	}
}

// advanceOrderStep moves the order to next, bumping the step counter and merging extra data in one write.
func (d *Dispatcher) advanceOrderStep(ctx context.Context, state *models.ConversationState, next models.OrderStep, extra models.FlowData) error {
	patch := models.FlowData{string(models.DataKeyCurrentStep): string(next)}.Merge(extra)
	step := state.Step + 1
	updated, err := d.manager.Update(ctx, state.SessionID, models.StateUpdate{
		Step: &step,
		Data: state.Data.Merge(patch),
	})
	if err != nil {
		return err
	}
	if updated == nil {
		return fmt.Errorf("session %s expired during order step %s", state.SessionID, next)
	}
	slog.Debug("Dispatcher order step advanced", "sessionID", state.SessionID, "orderStep", next, "step", step)
	return nil
}

func (d *Dispatcher) earlyOrderConfirm(ctx context.Context, state *models.ConversationState, step models.OrderStep) (models.FlowResult, error) {
	if state.Data.Bool(models.DataKeyNeedsGuestInfo) && storedGuestInfo(state.Data).Phone == "" {
		if step != models.OrderStepGuestInfo {
			if err := d.advanceOrderStep(ctx, state, models.OrderStepGuestInfo, nil); err != nil {
				return models.FlowResult{}, err
			}
		}
		return models.FlowResult{ShouldContinue: true, NextPrompt: guestInfoPrompt}, nil
	}
	slog.Debug("Dispatcher order early confirmation", "sessionID", state.SessionID, "orderStep", step)
	return models.FlowResult{ShouldContinue: true, IsConfirmed: true}, nil
}

func (d *Dispatcher) handleConfirmItems(ctx context.Context, state *models.ConversationState, msg string) (models.FlowResult, error) {
	switch {
	case isOrderConfirm(msg):
		if !state.Data.Bool(models.DataKeyNeedsGuestInfo) {
			return models.FlowResult{ShouldContinue: true, IsConfirmed: true}, nil
		}
		if err := d.advanceOrderStep(ctx, state, models.OrderStepGuestInfo, nil); err != nil {
			return models.FlowResult{}, err
		}
		return models.FlowResult{ShouldContinue: true, NextPrompt: guestInfoPrompt}, nil
	case isSelection(msg):
		// Looks like a new product pick; hand the message back to the caller.
		return models.FlowResult{ShouldContinue: false}, nil
	default:
		return models.FlowResult{ShouldContinue: true, NextPrompt: confirmItemsPrompt}, nil
	}
}

// handleGuestInfo extracts delivery details from raw. Fields the message leaves out are
// taken from details recorded when the order started.
func (d *Dispatcher) handleGuestInfo(ctx context.Context, state *models.ConversationState, raw string) (models.FlowResult, error) {
	info := d.extract(raw)
	prev := storedGuestInfo(state.Data)
	if info.Name == "" {
		info.Name = prev.Name
	}
	if info.Phone == "" {
		info.Phone = prev.Phone
	}
	if info.Address == "" {
		info.Address = prev.Address
	}

	if !info.Complete() {
		slog.Debug("Dispatcher guest info incomplete", "sessionID", state.SessionID, "missing", info.Missing())
		return models.FlowResult{ShouldContinue: true, NextPrompt: incompleteGuestInfoPrompt(info)}, nil
	}

	updated, err := d.manager.UpdateData(ctx, state.SessionID, models.FlowData{string(models.DataKeyGuestInfo): info})
	if err != nil {
		return models.FlowResult{}, err
	}
	if updated == nil {
		return models.FlowResult{ShouldContinue: false}, nil
	}
	slog.Info("Dispatcher guest info collected", "sessionID", state.SessionID)
	return models.FlowResult{ShouldContinue: true, IsConfirmed: true}, nil
}

func (d *Dispatcher) handlePaymentMethod(ctx context.Context, state *models.ConversationState, msg string) (models.FlowResult, error) {
	method := parsePaymentMethod(msg)
	paymentType := parsePaymentType(msg)

	extra := models.FlowData{
		string(models.DataKeyPaymentMethod): string(method),
		string(models.DataKeyPaymentType):   string(paymentType),
	}
	if paymentType == models.PaymentTypeDeposit {
		extra[string(models.DataKeyDepositPercentage)] = models.DefaultDepositPercentage
	}
	if err := d.advanceOrderStep(ctx, state, models.OrderStepFinalConfirmation, extra); err != nil {
		return models.FlowResult{}, err
	}
	slog.Debug("Dispatcher payment method selected", "sessionID", state.SessionID, "method", method, "type", paymentType)
	return models.FlowResult{ShouldContinue: true, NextPrompt: paymentConfirmedPrompt(method, paymentType)}, nil
}
