package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/chaschni/orderbot/internal/clock"
	"github.com/chaschni/orderbot/internal/database"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrOrderNotFound = errors.New("order not found or already processed")
)

// OrderStore defines the DB methods needed by the order ledger.
// Satisfied by *database.Queries.
type OrderStore interface {
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CloseOrder(ctx context.Context, arg database.CloseOrderParams) (int64, error)
	SumQuantity(ctx context.Context, arg database.SumQuantityParams) (int32, error)
	ListOrders(ctx context.Context) ([]database.Order, error)
	SlotUsage(ctx context.Context, day time.Time) ([]database.SlotUsageRow, error)
}

// ContactInfo is what the conversation collected about the customer.
type ContactInfo struct {
	FullName string
	Phone    string
	Address  string
	Postcode string
}

// PlaceOrderRequest is the finalized session handed over on payment
// confirmation.
type PlaceOrderRequest struct {
	UserID          int64
	FoodKey         string
	FoodName        string
	Quantity        int
	CutleryQuantity int
	Total           decimal.Decimal
	PaymentMethod   string
	DeliveryMethod  string
	FulfillmentDay  time.Time
	SlotKey         string // empty outside slot mode
	Contact         ContactInfo
}

// RuntimeOrder holds the session-derived fields needed to notify the
// customer (and release capacity) when the admin decides. Lives only until
// the decision is processed.
type RuntimeOrder struct {
	UserID         int64
	DeliveryMethod string
	FoodKey        string
	Quantity       int
	FulfillmentDay time.Time
	SlotKey        string
	Contact        ContactInfo
}

// OrderService is the durable order ledger: it numbers, records, and closes
// orders, and owns the runtime index of orders awaiting an admin decision.
type OrderService struct {
	store   OrderStore
	clock   clock.Clock
	randInt func(n int) int // offset into [100, 999]

	mu      sync.Mutex
	runtime map[string]*RuntimeOrder
}

// NewOrderService creates a new OrderService.
func NewOrderService(store OrderStore, clk clock.Clock) *OrderService {
	return &OrderService{
		store:   store,
		clock:   clk,
		randInt: rand.Intn,
		runtime: make(map[string]*RuntimeOrder),
	}
}

// isOrderNumberConflict checks if the error is a unique constraint violation
// on the order number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_no_key"
	}
	return false
}

// Place records the order as pending and registers it in the runtime index.
// Order numbers are CH-<date>-<3 random digits> and guaranteed unique by the
// DB constraint; on a collision the insert retries with a fresh suffix.
func (s *OrderService) Place(ctx context.Context, req PlaceOrderRequest) (database.Order, error) {
	now := s.clock.Now()

	slotKey := pgtype.Text{}
	if req.SlotKey != "" {
		slotKey = pgtype.Text{String: req.SlotKey, Valid: true}
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		orderNo := fmt.Sprintf("CH-%s-%03d", now.Format("20060102"), 100+s.randInt(900))

		order, err := s.store.CreateOrder(ctx, database.CreateOrderParams{
			ID:              uuid.New(),
			OrderNo:         orderNo,
			UserID:          req.UserID,
			FoodKey:         req.FoodKey,
			FoodName:        req.FoodName,
			Quantity:        int32(req.Quantity),
			CutleryQuantity: int32(req.CutleryQuantity),
			Total:           decimalToNumeric(req.Total),
			PaymentMethod:   req.PaymentMethod,
			DeliveryMethod:  req.DeliveryMethod,
			FulfillmentDay:  req.FulfillmentDay,
			SlotKey:         slotKey,
			CreatedAt:       now,
		})
		if err != nil {
			if isOrderNumberConflict(err) {
				lastErr = err
				continue
			}
			return database.Order{}, fmt.Errorf("create order: %w", err)
		}

		s.mu.Lock()
		s.runtime[orderNo] = &RuntimeOrder{
			UserID:         req.UserID,
			DeliveryMethod: req.DeliveryMethod,
			FoodKey:        req.FoodKey,
			Quantity:       req.Quantity,
			FulfillmentDay: req.FulfillmentDay,
			SlotKey:        req.SlotKey,
			Contact:        req.Contact,
		}
		s.mu.Unlock()
		return order, nil
	}
	return database.Order{}, fmt.Errorf("order number exhausted after %d attempts: %w", maxOrderNumberRetries, lastErr)
}

// Close transitions a pending order to the given terminal status and removes
// it from the runtime index. A second decision on the same order returns
// ErrOrderNotFound and changes nothing. The returned RuntimeOrder is nil
// when the index was lost (e.g. a restart between placement and decision).
func (s *OrderService) Close(ctx context.Context, orderNo, status string) (*RuntimeOrder, error) {
	rows, err := s.store.CloseOrder(ctx, database.CloseOrderParams{
		OrderNo:   orderNo,
		Status:    status,
		CheckedAt: s.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("close order: %w", err)
	}
	if rows == 0 {
		return nil, ErrOrderNotFound
	}

	s.mu.Lock()
	ro := s.runtime[orderNo]
	delete(s.runtime, orderNo)
	s.mu.Unlock()
	return ro, nil
}

// SoldQuantity reports committed stock for a food on a fulfillment day.
// Implements capacity.DailyUsage.
func (s *OrderService) SoldQuantity(ctx context.Context, foodKey string, day time.Time) (int, error) {
	sum, err := s.store.SumQuantity(ctx, database.SumQuantityParams{FoodKey: foodKey, Day: day})
	if err != nil {
		return 0, fmt.Errorf("sum quantity: %w", err)
	}
	return int(sum), nil
}

// RestoreSlots replays durable slot consumption for a delivery day into the
// given counter, rebuilding in-memory state after a restart.
func (s *OrderService) RestoreSlots(ctx context.Context, day time.Time, restore func(key string, consumed int)) error {
	usage, err := s.store.SlotUsage(ctx, day)
	if err != nil {
		return fmt.Errorf("slot usage: %w", err)
	}
	for _, u := range usage {
		restore(u.SlotKey, int(u.Consumed))
	}
	return nil
}

// ReportRow is one order in the sales report.
type ReportRow struct {
	OrderNo         string          `json:"order_no"`
	UserID          int64           `json:"user_id"`
	FoodName        string          `json:"food_name"`
	Quantity        int             `json:"quantity"`
	CutleryQuantity int             `json:"cutlery_quantity"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethod   string          `json:"payment_method"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Report lists all orders, newest first.
func (s *OrderService) Report(ctx context.Context) ([]ReportRow, error) {
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	rows := make([]ReportRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, ReportRow{
			OrderNo:         o.OrderNo,
			UserID:          o.UserID,
			FoodName:        o.FoodName,
			Quantity:        int(o.Quantity),
			CutleryQuantity: int(o.CutleryQuantity),
			Total:           numericToDecimal(o.Total),
			PaymentMethod:   o.PaymentMethod,
			Status:          o.Status,
			CreatedAt:       o.CreatedAt,
		})
	}
	return rows, nil
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
