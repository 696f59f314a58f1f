package telegram

import "strings"

// Callback kinds. The kind never contains the delimiter, and order numbers
// carry only dashes, so encoded callbacks parse back unambiguously.
const (
	CallbackFood    = "food"    // value: menu item key
	CallbackSlot    = "slot"    // value: delivery slot key
	CallbackCutlery = "cutlery" // value: "yes" or "no"
	CallbackPickup  = "pickup"  // value: "yes" or "no"
	CallbackPaid    = "paid"    // value: "paypal" or "cash"
	CallbackApprove = "approve" // value: order number
	CallbackReject  = "reject"  // value: order number
)

const callbackSep = ":"

// Callback is a structured button payload: an action kind plus its value.
type Callback struct {
	Kind  string
	Value string
}

// Encode packs the callback for the wire.
func (c Callback) Encode() string {
	if c.Value == "" {
		return c.Kind
	}
	return c.Kind + callbackSep + c.Value
}

// ParseCallback splits a wire payload back into kind and value. The value
// may itself contain the delimiter (slot keys do).
func ParseCallback(data string) Callback {
	kind, value, _ := strings.Cut(data, callbackSep)
	return Callback{Kind: kind, Value: value}
}
