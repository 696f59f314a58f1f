package session

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/chaschni/orderbot/internal/calendar"
	"github.com/chaschni/orderbot/internal/menu"
	"github.com/chaschni/orderbot/internal/telegram"
)

func mainMenuKeyboard() telegram.ReplyKeyboardMarkup {
	return telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: BtnStartOrder}},
			{{Text: BtnCancelOrder}, {Text: BtnContact}},
		},
		ResizeKeyboard: true,
	}
}

func adminPanelKeyboard() telegram.ReplyKeyboardMarkup {
	return telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: BtnReport}},
			{{Text: BtnSetEmergency}, {Text: BtnClearEmergency}},
			{{Text: BtnTestModeOn}, {Text: BtnTestModeOff}},
		},
		ResizeKeyboard: true,
	}
}

func contactKeyboard(username string) telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			telegram.InlineRow(telegram.InlineKeyboardButton{
				Text: "✉️ Message us",
				URL:  "https://t.me/" + username,
			}),
		},
	}
}

func foodKeyboard(items []menu.Item) telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(items))
	for _, it := range items {
		rows = append(rows, telegram.InlineRow(telegram.InlineKeyboardButton{
			Text:         fmt.Sprintf("%s (€%s)", it.Name, it.Price.StringFixed(2)),
			CallbackData: telegram.Callback{Kind: telegram.CallbackFood, Value: it.Key}.Encode(),
		}))
	}
	return telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func slotKeyboard(slots []calendar.Slot) telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(slots))
	for _, s := range slots {
		rows = append(rows, telegram.InlineRow(telegram.InlineKeyboardButton{
			Text:         s.Label(),
			CallbackData: telegram.Callback{Kind: telegram.CallbackSlot, Value: s.Key()}.Encode(),
		}))
	}
	return telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func cutleryKeyboard() telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			telegram.InlineRow(
				telegram.InlineKeyboardButton{
					Text:         "✅ Yes",
					CallbackData: telegram.Callback{Kind: telegram.CallbackCutlery, Value: "yes"}.Encode(),
				},
				telegram.InlineKeyboardButton{
					Text:         "❌ No",
					CallbackData: telegram.Callback{Kind: telegram.CallbackCutlery, Value: "no"}.Encode(),
				},
			),
		},
	}
}

func pickupKeyboard() telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			telegram.InlineRow(
				telegram.InlineKeyboardButton{
					Text:         "🎒 Pick up myself",
					CallbackData: telegram.Callback{Kind: telegram.CallbackPickup, Value: "yes"}.Encode(),
				},
				telegram.InlineKeyboardButton{
					Text:         "❌ Cancel order",
					CallbackData: telegram.Callback{Kind: telegram.CallbackPickup, Value: "no"}.Encode(),
				},
			),
		},
	}
}

// payKeyboard links straight to PayPal with the amount appended; both
// buttons report back through the paid callback.
func payKeyboard(paypalLink string, total decimal.Decimal, withCash bool) telegram.InlineKeyboardMarkup {
	rows := [][]telegram.InlineKeyboardButton{
		telegram.InlineRow(telegram.InlineKeyboardButton{
			Text: "💳 Pay with PayPal",
			URL:  fmt.Sprintf("%s/%s", paypalLink, total.StringFixed(2)),
		}),
		telegram.InlineRow(telegram.InlineKeyboardButton{
			Text:         "✅ I have paid",
			CallbackData: telegram.Callback{Kind: telegram.CallbackPaid, Value: "paypal"}.Encode(),
		}),
	}
	if withCash {
		rows = append(rows, telegram.InlineRow(telegram.InlineKeyboardButton{
			Text:         "💶 Cash on delivery",
			CallbackData: telegram.Callback{Kind: telegram.CallbackPaid, Value: "cash"}.Encode(),
		}))
	}
	return telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func adminReviewKeyboard(orderNo string) telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			telegram.InlineRow(
				telegram.InlineKeyboardButton{
					Text:         "✅ Approve",
					CallbackData: telegram.Callback{Kind: telegram.CallbackApprove, Value: orderNo}.Encode(),
				},
				telegram.InlineKeyboardButton{
					Text:         "❌ Cancel",
					CallbackData: telegram.Callback{Kind: telegram.CallbackReject, Value: orderNo}.Encode(),
				},
			),
		},
	}
}
