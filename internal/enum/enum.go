package enum

// ── Order lifecycle (CHECK constrained in DB) ──

const (
	OrderStatusPending  = "pending"
	OrderStatusApproved = "approved"
	OrderStatusCanceled = "canceled"
)

// ── Fulfillment ──

const (
	DeliveryMethodDelivery    = "delivery"
	DeliveryMethodPickup      = "pickup"
	DeliveryMethodCheckStreet = "check_street"
)

// DeliveryMode selects which conversation flow the bot runs:
// immediate per-item daily capacity, or slot-based pre-order.
const (
	DeliveryModeImmediate = "immediate"
	DeliveryModeSlot      = "slot"
)

// ── Payment (manual confirmation signal, not a verified transaction) ──

const (
	PaymentMethodPayPal = "PayPal"
	PaymentMethodCash   = "Cash"
)
