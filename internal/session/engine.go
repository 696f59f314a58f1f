package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chaschni/orderbot/internal/calendar"
	"github.com/chaschni/orderbot/internal/capacity"
	"github.com/chaschni/orderbot/internal/clock"
	"github.com/chaschni/orderbot/internal/database"
	"github.com/chaschni/orderbot/internal/delivery"
	"github.com/chaschni/orderbot/internal/enum"
	"github.com/chaschni/orderbot/internal/menu"
	"github.com/chaschni/orderbot/internal/service"
	"github.com/chaschni/orderbot/internal/telegram"
)

// OrderLedger is the durable-order surface the engine drives.
// Satisfied by *service.OrderService.
type OrderLedger interface {
	Place(ctx context.Context, req service.PlaceOrderRequest) (database.Order, error)
	Close(ctx context.Context, orderNo, status string) (*service.RuntimeOrder, error)
	Report(ctx context.Context) ([]service.ReportRow, error)
}

// CapacityLedger is the stock/slot counter surface.
// Satisfied by *capacity.Ledger.
type CapacityLedger interface {
	DailyCap() int
	Remaining(ctx context.Context, foodKey string, day time.Time) (int, error)
	CommitDaily(ctx context.Context, foodKey string, day time.Time, qty int) error
	ReleaseDaily(foodKey string, day time.Time, qty int)
	ReserveSlot(key string) bool
	ReleaseSlot(key string)
	AvailableSlots(slots []calendar.Slot) []calendar.Slot
}

// FeedPublisher pushes order lifecycle events to the admin dashboard.
// Satisfied by *ws.Hub.
type FeedPublisher interface {
	Publish(eventType string, payload any)
}

// Config carries the business knobs of the conversation.
type Config struct {
	AdminChatID     int64
	Mode            string // enum.DeliveryModeImmediate or enum.DeliveryModeSlot
	PayPalLink      string
	ContactUsername string
	CutleryPrice    decimal.Decimal
	PreOrderItem    menu.Item // slot mode: the fixed bundle, one per order
}

// Engine advances per-user order conversations. Each inbound event is
// processed under that user's lock; capacity counters carry their own
// locking inside the ledger.
type Engine struct {
	cfg      Config
	clock    clock.Clock
	calendar *calendar.Policy
	ledger   CapacityLedger
	orders   OrderLedger
	sender   telegram.Sender
	feed     FeedPublisher
	log      *slog.Logger

	registry *Registry

	mu        sync.Mutex
	emergency string
	testMode  bool
}

func NewEngine(
	cfg Config,
	clk clock.Clock,
	cal *calendar.Policy,
	ledger CapacityLedger,
	orders OrderLedger,
	sender telegram.Sender,
	feed FeedPublisher,
	log *slog.Logger,
) *Engine {
	return &Engine{
		cfg:      cfg,
		clock:    clk,
		calendar: cal,
		ledger:   ledger,
		orders:   orders,
		sender:   sender,
		feed:     feed,
		log:      log,
		registry: NewRegistry(),
	}
}

// ExpireIdle drops conversations idle for longer than maxIdle, handing back
// any delivery window they still held.
func (e *Engine) ExpireIdle(now time.Time, maxIdle time.Duration) {
	e.registry.ExpireIdle(now, maxIdle, e.releaseHeld)
}

// releaseHeld returns an uncommitted slot reservation to the ledger. A live
// session can only hold a window that no order has claimed yet: Place
// destroys the session on success.
func (e *Engine) releaseHeld(sess *Session) {
	if sess.SlotKey != "" {
		e.ledger.ReleaseSlot(sess.SlotKey)
	}
}

// discard drops the entry's session, releasing any window it held.
func (e *Engine) discard(entry *userEntry) {
	if entry.sess != nil {
		e.releaseHeld(entry.sess)
	}
	entry.sess = nil
}

func (e *Engine) isAdmin(userID int64) bool { return userID == e.cfg.AdminChatID }

func (e *Engine) emergencyNotice() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.emergency
}

func (e *Engine) setEmergency(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emergency = text
}

func (e *Engine) testModeOn() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.testMode
}

func (e *Engine) setTestMode(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.testMode = on
}

// today truncates the business clock to the capacity bucket day.
func (e *Engine) today() time.Time {
	now := e.clock.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// HandleStart answers the /start command with the persistent menu, plus the
// admin panel for the admin chat.
func (e *Engine) HandleStart(ctx context.Context, userID int64) error {
	if err := e.sender.SendMenu(ctx, userID, msgWelcome, mainMenuKeyboard()); err != nil {
		return err
	}
	if e.isAdmin(userID) {
		return e.sender.SendMenu(ctx, userID, msgAdminPanel, adminPanelKeyboard())
	}
	return nil
}

// HandleText processes a free-text message from the user.
func (e *Engine) HandleText(ctx context.Context, userID int64, text string) error {
	entry := e.registry.entry(userID)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.touched = e.clock.Now()

	// An active emergency notice blocks new order starts for everyone.
	if notice := e.emergencyNotice(); notice != "" && text == BtnStartOrder {
		return e.sender.SendText(ctx, userID, notice)
	}

	if e.isAdmin(userID) {
		handled, err := e.handleAdminText(ctx, userID, entry, text)
		if handled {
			return err
		}
	}

	switch text {
	case BtnStartOrder:
		return e.startOrder(ctx, userID, entry)
	case BtnCancelOrder:
		e.discard(entry)
		return e.sender.SendMenu(ctx, userID, msgOrderCanceled, mainMenuKeyboard())
	case BtnContact:
		return e.sender.SendMenu(ctx, userID, msgContact, contactKeyboard(e.cfg.ContactUsername))
	}

	sess := entry.sess
	if sess == nil {
		return e.sender.SendText(ctx, userID, msgUseMenu)
	}

	switch sess.Step {
	case StepQuantity:
		return e.textQuantity(ctx, userID, sess, text)
	case StepCutleryQuantity:
		return e.textCutleryQuantity(ctx, userID, sess, text)
	case StepPostcode:
		return e.textPostcode(ctx, userID, sess, text)
	case StepStreet:
		return e.textStreet(ctx, userID, sess, text)
	case StepFullName:
		return e.textFullName(ctx, userID, sess, text)
	case StepPhone:
		return e.textPhone(ctx, userID, sess, text)
	case StepAddress:
		return e.textAddress(ctx, userID, sess, text)
	}
	// Waiting on a button press; free text does not advance anything.
	return e.sender.SendText(ctx, userID, msgUseMenu)
}

// handleAdminText covers the admin panel commands. The bool reports whether
// the message was consumed.
func (e *Engine) handleAdminText(ctx context.Context, userID int64, entry *userEntry, text string) (bool, error) {
	if entry.sess != nil && entry.sess.Step == stepSetEmergency {
		e.setEmergency(text)
		entry.sess = nil
		return true, e.sender.SendText(ctx, userID, msgEmergencySet)
	}

	switch strings.TrimSpace(text) {
	case BtnSetEmergency:
		entry.sess = &Session{Step: stepSetEmergency}
		return true, e.sender.SendText(ctx, userID, msgEmergencyPrompt)
	case BtnClearEmergency:
		e.setEmergency("")
		return true, e.sender.SendText(ctx, userID, msgEmergencyCleared)
	case BtnTestModeOn:
		e.setTestMode(true)
		return true, e.sender.SendText(ctx, userID, msgTestModeOn)
	case BtnTestModeOff:
		e.setTestMode(false)
		return true, e.sender.SendText(ctx, userID, msgTestModeOff)
	case BtnReport, "report", "/report":
		return true, e.sendReport(ctx, userID)
	}
	return false, nil
}

func (e *Engine) sendReport(ctx context.Context, userID int64) error {
	rows, err := e.orders.Report(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return e.sender.SendText(ctx, userID, msgNoOrdersYet)
	}

	var b strings.Builder
	b.WriteString("📊 Sales report:\n\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "📌 Order: %s\n", r.OrderNo)
		fmt.Fprintf(&b, "👤 User: %d\n", r.UserID)
		fmt.Fprintf(&b, "🍽 Food: %s × %d\n", r.FoodName, r.Quantity)
		fmt.Fprintf(&b, "🥄 Cutlery: %d\n", r.CutleryQuantity)
		fmt.Fprintf(&b, "💳 Payment: %s\n", r.PaymentMethod)
		fmt.Fprintf(&b, "💶 Total: €%s\n", r.Total.StringFixed(2))
		fmt.Fprintf(&b, "📅 Placed: %s\n", r.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Fprintf(&b, "📦 Status: %s\n", r.Status)
		b.WriteString("---------------------------\n")
	}
	return e.sender.SendText(ctx, userID, b.String())
}

// startOrder opens the flow for the configured delivery mode. No session is
// created until the customer actually picks a food or a slot.
func (e *Engine) startOrder(ctx context.Context, userID int64, entry *userEntry) error {
	if e.cfg.Mode == enum.DeliveryModeSlot {
		return e.startSlotOrder(ctx, userID, entry)
	}

	testMode := e.testModeOn()
	if !testMode && !e.calendar.IsWorkingTime(e.clock.Now()) {
		return e.sender.SendText(ctx, userID, msgClosed)
	}
	items := menu.ForWeekday(e.clock.Now().Weekday(), testMode)
	if len(items) == 0 {
		return e.sender.SendText(ctx, userID, msgClosed)
	}
	return e.sender.SendMenu(ctx, userID, msgTodaysMenu, foodKeyboard(items))
}

func (e *Engine) startSlotOrder(ctx context.Context, userID int64, entry *userEntry) error {
	day, ok := e.calendar.NextDeliveryDay(e.clock.Now())
	if !ok {
		return e.sender.SendText(ctx, userID, msgNoPreOrderDay)
	}
	free := e.ledger.AvailableSlots(e.calendar.Slots(day))
	if len(free) == 0 {
		return e.sender.SendText(ctx, userID, msgSlotsFull)
	}

	// A restart while a window was already held must hand it back first.
	e.discard(entry)

	it := e.cfg.PreOrderItem
	entry.sess = &Session{
		Step:           StepSlotSelect,
		FoodKey:        it.Key,
		FoodName:       it.Name,
		UnitPrice:      it.Price,
		Quantity:       1,
		DeliveryMethod: enum.DeliveryMethodDelivery,
		DeliveryDay:    day,
	}
	prompt := fmt.Sprintf("%s (€%s), delivery %s\n%s",
		it.Name, it.Price.StringFixed(2), day.Format("Mon 02 Jan"), msgPickSlot)
	return e.sender.SendMenu(ctx, userID, prompt, slotKeyboard(free))
}

// --- Text steps ---

func (e *Engine) textQuantity(ctx context.Context, userID int64, sess *Session, text string) error {
	qty, ok := parseCount(text)
	if !ok {
		return e.sender.SendText(ctx, userID, msgNumbersOnly)
	}

	dailyCap := e.ledger.DailyCap()
	if qty <= 0 || qty > dailyCap {
		return e.sender.SendText(ctx, userID, fmt.Sprintf("Maximum per order: %d", dailyCap))
	}

	remaining, err := e.ledger.Remaining(ctx, sess.FoodKey, e.today())
	if err != nil {
		return err
	}
	if qty > remaining {
		if remaining <= 0 {
			return e.sender.SendText(ctx, userID,
				fmt.Sprintf("🚫 %s is sold out for today!", sess.FoodName))
		}
		return e.sender.SendText(ctx, userID,
			fmt.Sprintf("⚠️ Only %d × %s remaining today.", remaining, sess.FoodName))
	}

	sess.Quantity = qty
	sess.FoodTotal = sess.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
	sess.Step = StepCutleryChoice
	prompt := fmt.Sprintf("🥄 Need cutlery? (€%s each)", e.cfg.CutleryPrice.StringFixed(2))
	return e.sender.SendMenu(ctx, userID, prompt, cutleryKeyboard())
}

func (e *Engine) textCutleryQuantity(ctx context.Context, userID int64, sess *Session, text string) error {
	c, ok := parseCount(text)
	if !ok {
		return e.sender.SendText(ctx, userID, msgNumbersOnly)
	}
	if c > sess.Quantity {
		return e.sender.SendText(ctx, userID, msgCutleryTooMany)
	}
	sess.CutleryQuantity = c
	sess.Step = StepPostcode
	return e.sender.SendText(ctx, userID, msgEnterPostcode)
}

func (e *Engine) textPostcode(ctx context.Context, userID int64, sess *Session, text string) error {
	sess.Postcode = foldDigits(text)

	switch delivery.ClassifyPostcode(sess.Postcode) {
	case enum.DeliveryMethodDelivery:
		sess.DeliveryMethod = enum.DeliveryMethodDelivery
		sess.Step = StepFullName
		return e.sender.SendText(ctx, userID, msgEnterFullName)
	case enum.DeliveryMethodCheckStreet:
		sess.DeliveryMethod = enum.DeliveryMethodCheckStreet
		sess.Step = StepStreet
		return e.sender.SendText(ctx, userID, msgEnterStreet)
	}

	sess.DeliveryMethod = enum.DeliveryMethodPickup
	sess.Step = StepPickupConfirm
	prompt := fmt.Sprintf("%s\n🎒 Pickup at: %s\nContinue anyway?",
		msgOutOfRange, delivery.PickupAddressShort)
	return e.sender.SendMenu(ctx, userID, prompt, pickupKeyboard())
}

func (e *Engine) textStreet(ctx context.Context, userID int64, sess *Session, text string) error {
	sess.Street = text
	if delivery.MatchStreet(text) {
		sess.DeliveryMethod = enum.DeliveryMethodDelivery
		sess.Step = StepFullName
		return e.sender.SendText(ctx, userID, msgEnterFullName)
	}
	sess.DeliveryMethod = enum.DeliveryMethodPickup
	sess.Step = StepPickupConfirm
	prompt := fmt.Sprintf("%s\n🎒 Pickup at %s", msgStreetNotIn, delivery.PickupAddressShort)
	return e.sender.SendMenu(ctx, userID, prompt, pickupKeyboard())
}

func (e *Engine) textFullName(ctx context.Context, userID int64, sess *Session, text string) error {
	if strings.TrimSpace(text) == "" {
		return e.sender.SendText(ctx, userID, msgEnterFullName)
	}
	sess.FullName = text
	sess.Step = StepPhone
	return e.sender.SendText(ctx, userID, msgEnterPhone)
}

func (e *Engine) textPhone(ctx context.Context, userID int64, sess *Session, text string) error {
	if strings.TrimSpace(text) == "" {
		return e.sender.SendText(ctx, userID, msgEnterPhone)
	}
	sess.Phone = text

	if sess.DeliveryMethod == enum.DeliveryMethodDelivery {
		sess.Step = StepAddress
		return e.sender.SendText(ctx, userID, msgEnterAddress)
	}

	sess.Address = pickupAddressPlaceholder
	return e.toPayment(ctx, userID, sess, false)
}

func (e *Engine) textAddress(ctx context.Context, userID int64, sess *Session, text string) error {
	if strings.TrimSpace(text) == "" {
		return e.sender.SendText(ctx, userID, msgEnterAddress)
	}
	sess.Address = text
	return e.toPayment(ctx, userID, sess, true)
}

// toPayment computes the final total exactly once and offers the payment
// options. Cash is only offered on the delivery path.
func (e *Engine) toPayment(ctx context.Context, userID int64, sess *Session, withCash bool) error {
	cutlery := e.cfg.CutleryPrice.Mul(decimal.NewFromInt(int64(sess.CutleryQuantity)))
	sess.Total = sess.FoodTotal.Add(cutlery)
	sess.Step = StepPay

	prompt := fmt.Sprintf("💶 Total: €%s\n💳 Please choose a payment method:", sess.Total.StringFixed(2))
	return e.sender.SendMenu(ctx, userID, prompt, payKeyboard(e.cfg.PayPalLink, sess.Total, withCash))
}

// --- Button presses ---

// HandleCallback processes an inline-button press. messageText is the text
// of the message the button was attached to, used when annotating it.
func (e *Engine) HandleCallback(ctx context.Context, userID int64, messageID int64, messageText string, cb telegram.Callback) error {
	entry := e.registry.entry(userID)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.touched = e.clock.Now()

	switch cb.Kind {
	case telegram.CallbackFood:
		return e.pickFood(ctx, userID, entry, messageID, cb.Value)
	case telegram.CallbackSlot:
		return e.pickSlot(ctx, userID, entry, messageID, cb.Value)
	case telegram.CallbackCutlery:
		return e.pickCutlery(ctx, userID, entry, messageID, cb.Value)
	case telegram.CallbackPickup:
		return e.pickupDecision(ctx, userID, entry, messageID, cb.Value)
	case telegram.CallbackPaid:
		return e.confirmPayment(ctx, userID, entry, cb.Value)
	case telegram.CallbackApprove, telegram.CallbackReject:
		if !e.isAdmin(userID) {
			return nil
		}
		return e.decide(ctx, messageID, messageText, cb)
	}

	e.log.Warn("unknown callback", "kind", cb.Kind, "user_id", userID)
	return nil
}

func (e *Engine) pickFood(ctx context.Context, userID int64, entry *userEntry, messageID int64, key string) error {
	if e.cfg.Mode != enum.DeliveryModeImmediate {
		return nil
	}
	items := menu.ForWeekday(e.clock.Now().Weekday(), e.testModeOn())
	it, ok := menu.Find(items, key)
	if !ok {
		return e.sender.SendText(ctx, userID, msgClosed)
	}

	e.discard(entry)
	entry.sess = &Session{
		Step:      StepQuantity,
		FoodKey:   it.Key,
		FoodName:  it.Name,
		UnitPrice: it.Price,
	}
	return e.sender.EditMessage(ctx, userID, messageID,
		fmt.Sprintf("%s selected.\n%s", it.Name, msgEnterQuantity))
}

// pickSlot re-checks the window under the ledger lock before consuming it:
// a slot enumerated a moment ago may have been taken by another user.
func (e *Engine) pickSlot(ctx context.Context, userID int64, entry *userEntry, messageID int64, slotKey string) error {
	sess := entry.sess
	if sess == nil || sess.Step != StepSlotSelect {
		return e.sender.SendText(ctx, userID, msgUseMenu)
	}

	if !e.ledger.ReserveSlot(slotKey) {
		free := e.ledger.AvailableSlots(e.calendar.Slots(sess.DeliveryDay))
		if len(free) == 0 {
			entry.sess = nil
			return e.sender.EditMessage(ctx, userID, messageID, msgSlotsFull)
		}
		if err := e.sender.EditMessage(ctx, userID, messageID, msgSlotTaken); err != nil {
			return err
		}
		return e.sender.SendMenu(ctx, userID, msgPickSlot, slotKeyboard(free))
	}

	sess.SlotKey = slotKey
	sess.Total = sess.UnitPrice
	sess.Step = StepPay

	prompt := fmt.Sprintf("✅ Window reserved: %s\n💶 Total: €%s\n💳 Please choose a payment method:",
		slotKey, sess.Total.StringFixed(2))
	if err := e.sender.EditMessage(ctx, userID, messageID, prompt); err != nil {
		return err
	}
	return e.sender.SendMenu(ctx, userID, "💳 Payment:", payKeyboard(e.cfg.PayPalLink, sess.Total, true))
}

func (e *Engine) pickCutlery(ctx context.Context, userID int64, entry *userEntry, messageID int64, choice string) error {
	sess := entry.sess
	if sess == nil || sess.Step != StepCutleryChoice {
		return e.sender.SendText(ctx, userID, msgUseMenu)
	}

	if choice == "yes" {
		sess.Step = StepCutleryQuantity
		return e.sender.EditMessage(ctx, userID, messageID,
			fmt.Sprintf("🥄 €%s each.\nPlease enter how many you need:", e.cfg.CutleryPrice.StringFixed(2)))
	}
	sess.CutleryQuantity = 0
	sess.Step = StepPostcode
	return e.sender.EditMessage(ctx, userID, messageID, msgEnterPostcode)
}

func (e *Engine) pickupDecision(ctx context.Context, userID int64, entry *userEntry, messageID int64, choice string) error {
	sess := entry.sess
	if sess == nil || sess.Step != StepPickupConfirm {
		return e.sender.SendText(ctx, userID, msgUseMenu)
	}

	if choice == "yes" {
		sess.DeliveryMethod = enum.DeliveryMethodPickup
		sess.Step = StepFullName
		return e.sender.EditMessage(ctx, userID, messageID, msgEnterFullName)
	}
	e.discard(entry)
	if err := e.sender.EditMessage(ctx, userID, messageID, msgOrderCanceled); err != nil {
		return err
	}
	return e.sender.SendMenu(ctx, userID, msgMainMenu, mainMenuKeyboard())
}

// confirmPayment finalizes the session into a durable order. For immediate
// mode the daily stock is committed here, atomically, so two customers can
// never oversell a food between them.
func (e *Engine) confirmPayment(ctx context.Context, userID int64, entry *userEntry, method string) error {
	sess := entry.sess
	if sess == nil || sess.Step != StepPay {
		return e.sender.SendText(ctx, userID, msgUseMenu)
	}

	if method == "cash" {
		sess.PaymentMethod = enum.PaymentMethodCash
	} else {
		sess.PaymentMethod = enum.PaymentMethodPayPal
	}

	fulfillmentDay := e.today()
	if e.cfg.Mode == enum.DeliveryModeSlot {
		fulfillmentDay = sess.DeliveryDay
	} else {
		err := e.ledger.CommitDaily(ctx, sess.FoodKey, fulfillmentDay, sess.Quantity)
		var capErr *capacity.Error
		if errors.As(err, &capErr) {
			if capErr.Remaining <= 0 {
				return e.sender.SendText(ctx, userID,
					fmt.Sprintf("🚫 %s sold out while you were ordering.", sess.FoodName))
			}
			return e.sender.SendText(ctx, userID,
				fmt.Sprintf("⚠️ Only %d × %s left. Please restart with a smaller quantity.",
					capErr.Remaining, sess.FoodName))
		}
		if err != nil {
			return err
		}
	}

	order, err := e.orders.Place(ctx, service.PlaceOrderRequest{
		UserID:          userID,
		FoodKey:         sess.FoodKey,
		FoodName:        sess.FoodName,
		Quantity:        sess.Quantity,
		CutleryQuantity: sess.CutleryQuantity,
		Total:           sess.Total,
		PaymentMethod:   sess.PaymentMethod,
		DeliveryMethod:  sess.DeliveryMethod,
		FulfillmentDay:  fulfillmentDay,
		SlotKey:         sess.SlotKey,
		Contact: service.ContactInfo{
			FullName: sess.FullName,
			Phone:    sess.Phone,
			Address:  sess.Address,
			Postcode: sess.Postcode,
		},
	})
	if err != nil {
		// Hand the capacity back; the event is NACKed and may be retried.
		if e.cfg.Mode == enum.DeliveryModeSlot {
			e.ledger.ReleaseSlot(sess.SlotKey)
			sess.SlotKey = ""
			sess.Step = StepSlotSelect
		} else {
			e.ledger.ReleaseDaily(sess.FoodKey, fulfillmentDay, sess.Quantity)
		}
		if sendErr := e.sender.SendText(ctx, userID, msgPlaceFailed); sendErr != nil {
			e.log.Error("notify place failure", "error", sendErr)
		}
		return err
	}

	if err := e.sender.SendText(ctx, userID, e.confirmationText(order.OrderNo, sess)); err != nil {
		e.log.Error("send order confirmation", "order_no", order.OrderNo, "error", err)
	}
	if err := e.sender.SendMenu(ctx, e.cfg.AdminChatID, e.reviewText(order.OrderNo, userID, sess),
		adminReviewKeyboard(order.OrderNo)); err != nil {
		e.log.Error("send admin review", "order_no", order.OrderNo, "error", err)
	}

	e.feed.Publish("order.created", map[string]any{
		"order_no":  order.OrderNo,
		"food_name": sess.FoodName,
		"quantity":  sess.Quantity,
		"total":     sess.Total.StringFixed(2),
	})

	e.log.Info("order placed",
		"order_no", order.OrderNo,
		"user_id", userID,
		"food_key", sess.FoodKey,
		"quantity", sess.Quantity,
		"total", sess.Total.StringFixed(2),
	)
	entry.sess = nil
	return nil
}

func (e *Engine) confirmationText(orderNo string, sess *Session) string {
	var b strings.Builder
	b.WriteString("💳 Payment recorded.\n")
	fmt.Fprintf(&b, "🧾 Order number: %s\n\n", orderNo)
	fmt.Fprintf(&b, "🍽 %s × %d\n", sess.FoodName, sess.Quantity)
	if e.cfg.Mode == enum.DeliveryModeSlot {
		fmt.Fprintf(&b, "🗓 Delivery window: %s\n", sess.SlotKey)
	} else {
		fmt.Fprintf(&b, "🥄 Cutlery: %d\n", sess.CutleryQuantity)
	}
	fmt.Fprintf(&b, "💶 Total: €%s\n\n", sess.Total.StringFixed(2))
	b.WriteString("⏳ Your order is awaiting admin approval.")
	return b.String()
}

func (e *Engine) reviewText(orderNo string, userID int64, sess *Session) string {
	var b strings.Builder
	b.WriteString("⚠️ New order for review\n\n")
	fmt.Fprintf(&b, "Order number: %s\n", orderNo)
	fmt.Fprintf(&b, "👤 Name: %s\n", sess.FullName)
	fmt.Fprintf(&b, "📞 Phone: %s\n", sess.Phone)
	fmt.Fprintf(&b, "📍 Address: %s\n", sess.Address)
	fmt.Fprintf(&b, "📮 Postcode: %s\n", sess.Postcode)
	fmt.Fprintf(&b, "💳 Payment: %s\n\n", sess.PaymentMethod)
	fmt.Fprintf(&b, "🍽 Food: %s × %d\n", sess.FoodName, sess.Quantity)
	if e.cfg.Mode == enum.DeliveryModeSlot {
		fmt.Fprintf(&b, "🗓 Window: %s\n", sess.SlotKey)
	} else {
		fmt.Fprintf(&b, "🥄 Cutlery: %d\n", sess.CutleryQuantity)
	}
	fmt.Fprintf(&b, "💶 Total: €%s", sess.Total.StringFixed(2))
	return b.String()
}

// decide applies an admin approve/reject. Replays are no-ops: the ledger
// only closes orders still pending, and a stale decision is reported back
// to the admin.
func (e *Engine) decide(ctx context.Context, messageID int64, messageText string, cb telegram.Callback) error {
	orderNo := cb.Value
	status := enum.OrderStatusApproved
	if cb.Kind == telegram.CallbackReject {
		status = enum.OrderStatusCanceled
	}

	ro, err := e.orders.Close(ctx, orderNo, status)
	if errors.Is(err, service.ErrOrderNotFound) {
		return e.sender.SendText(ctx, e.cfg.AdminChatID, msgDecisionStale)
	}
	if err != nil {
		return err
	}

	var annotation string
	if status == enum.OrderStatusApproved {
		annotation = "\n\n✔️ Approved"
	} else {
		annotation = "\n\n❌ Canceled"
		// A canceled order releases its capacity.
		if ro != nil {
			if ro.SlotKey != "" {
				e.ledger.ReleaseSlot(ro.SlotKey)
			} else {
				e.ledger.ReleaseDaily(ro.FoodKey, ro.FulfillmentDay, ro.Quantity)
			}
		}
	}

	if ro != nil {
		text := msgCanceledByAdmin
		if status == enum.OrderStatusApproved {
			if ro.DeliveryMethod == enum.DeliveryMethodDelivery {
				text = msgApprovedDelivery
			} else {
				text = fmt.Sprintf("🍽 Your order is confirmed!\n"+
					"⏳ Preparation takes about 20–25 minutes\n\n"+
					"📍 Please pick it up at:\n%s", delivery.PickupAddressFull)
			}
		}
		if err := e.sender.SendText(ctx, ro.UserID, text); err != nil {
			e.log.Error("notify customer", "order_no", orderNo, "error", err)
		}
	}

	e.feed.Publish("order."+status, map[string]any{"order_no": orderNo})
	e.log.Info("order closed", "order_no", orderNo, "status", status)

	return e.sender.EditMessage(ctx, e.cfg.AdminChatID, messageID, messageText+annotation)
}
