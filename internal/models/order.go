package models

import "strings"

// OrderItem is one pending line of an order being assembled in chat.
type OrderItem struct {
	ProductID   string   `json:"productId,omitempty"`
	ProductName string   `json:"productName"`
	Quantity    float64  `json:"quantity"`
	Unit        string   `json:"unit"`
	UnitPrice   *float64 `json:"unitPrice,omitempty"`
}

// GuestInfo is the delivery contact of a customer without an account.
// An empty field means the value is absent.
type GuestInfo struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Complete reports whether name, phone and address are all present.
func (g GuestInfo) Complete() bool {
	return g.Name != "" && g.Phone != "" && g.Address != ""
}

// IsEmpty reports whether no field is present.
func (g GuestInfo) IsEmpty() bool {
	return g.Name == "" && g.Phone == "" && g.Address == ""
}

// Missing lists the names of absent fields in name, phone, address order.
func (g GuestInfo) Missing() []string {
	var missing []string
	if strings.TrimSpace(g.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(g.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(g.Address) == "" {
		missing = append(missing, "address")
	}
	return missing
}

// CRUDConfirmation is the pending entity mutation awaiting the user's confirmation.
type CRUDConfirmation struct {
	Action         string         `json:"action"`
	EntityType     string         `json:"entityType"`
	EntityData     map[string]any `json:"entityData,omitempty"`
	PreviewMessage string         `json:"previewMessage,omitempty"`
}

// FlowData returns the seed data of a CRUD confirmation flow.
func (c CRUDConfirmation) FlowData() FlowData {
	return FlowData{
		string(DataKeyAction):         c.Action,
		string(DataKeyEntityType):     c.EntityType,
		string(DataKeyEntityData):     c.EntityData,
		string(DataKeyPreviewMessage): c.PreviewMessage,
	}
}
