package session

// Persistent reply-keyboard labels. Inbound text is matched against these
// verbatim, so they double as commands.
const (
	BtnStartOrder  = "🍽 Start order"
	BtnCancelOrder = "❌ Cancel order"
	BtnContact     = "📞 Contact us"

	BtnReport         = "📊 Report"
	BtnSetEmergency   = "⚠️ Emergency notice"
	BtnClearEmergency = "🟢 Clear emergency notice"
	BtnTestModeOn     = "🧪 Test mode on"
	BtnTestModeOff    = "🏭 Test mode off"
)

const (
	msgWelcome = "👋 Welcome!\n" +
		"🚗 Delivery in 30163 and selected streets of 30165\n" +
		"📍 All of Hannover coming soon\n\n" +
		"Use the buttons below to get started:"
	msgAdminPanel = "⚙️ Admin panel:"
	msgUseMenu    = "Use the menu below to get started."
	msgClosed     = "🔥 No menu available today!\n" +
		"📅 Service on Monday and Thursday only\n" +
		"⏰ 12:00 – 18:00"
	msgNoPreOrderDay  = "📅 Pre-orders open the day after a service day. Please come back then."
	msgSlotsFull      = "🚫 All delivery windows for the next service day are taken."
	msgSlotTaken      = "⚠️ That window was just taken. Please pick another one."
	msgPickSlot       = "🗓 Please pick a delivery window:"
	msgTodaysMenu     = "📋 Today's menu, please choose:"
	msgOrderCanceled  = "Order canceled."
	msgMainMenu       = "Main menu:"
	msgContact        = "Reach us directly:"
	msgNumbersOnly    = "Please enter numbers only."
	msgEnterQuantity  = "📦 Please enter the quantity:"
	msgCutleryTooMany = "❗ Cutlery count cannot exceed the number of meals."
	msgEnterPostcode  = "📮 Please enter your postcode:"
	msgEnterStreet    = "📌 Please enter your street name:"
	msgEnterFullName  = "👤 Please enter your full name:"
	msgEnterPhone     = "📞 Please enter your phone number:"
	msgEnterAddress   = "🏠 Please enter your full address:"
	msgStreetNotIn    = "🚫 That street is not in our delivery area."
	msgOutOfRange     = "🚫 Outside our delivery area."
	msgPlaceFailed    = "⚠️ Something went wrong while recording your order. Please try again."

	msgEmergencyPrompt  = "Please enter the emergency notice text:"
	msgEmergencySet     = "⚠️ Emergency notice is active. New orders are blocked."
	msgEmergencyCleared = "🟢 Emergency notice cleared. Ordering is open again."
	msgTestModeOn       = "🧪 Test mode enabled: full menu, no opening-hours gate."
	msgTestModeOff      = "🏭 Test mode disabled."
	msgNoOrdersYet      = "No orders recorded yet."
	msgDecisionStale    = "⚠️ This order was already processed."

	msgApprovedDelivery = "🍽 Your order is confirmed!\n" +
		"⏳ Preparation takes about 20–25 minutes\n\n" +
		"🚗 Your order will be delivered."
	msgCanceledByAdmin = "❌ Your order was canceled."

	pickupAddressPlaceholder = "pickup"
)
