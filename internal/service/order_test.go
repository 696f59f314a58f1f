package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/chaschni/orderbot/internal/clock"
	"github.com/chaschni/orderbot/internal/database"
	"github.com/chaschni/orderbot/internal/enum"
)

// --- Mock implementations ---

// mockOrderStore implements OrderStore with configurable behavior.
type mockOrderStore struct {
	createOrderFn func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	closeOrderFn  func(ctx context.Context, arg database.CloseOrderParams) (int64, error)
	sumQuantityFn func(ctx context.Context, arg database.SumQuantityParams) (int32, error)
	listOrdersFn  func(ctx context.Context) ([]database.Order, error)
	slotUsageFn   func(ctx context.Context, day time.Time) ([]database.SlotUsageRow, error)
}

func (m *mockOrderStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	return m.createOrderFn(ctx, arg)
}
func (m *mockOrderStore) CloseOrder(ctx context.Context, arg database.CloseOrderParams) (int64, error) {
	return m.closeOrderFn(ctx, arg)
}
func (m *mockOrderStore) SumQuantity(ctx context.Context, arg database.SumQuantityParams) (int32, error) {
	return m.sumQuantityFn(ctx, arg)
}
func (m *mockOrderStore) ListOrders(ctx context.Context) ([]database.Order, error) {
	return m.listOrdersFn(ctx)
}
func (m *mockOrderStore) SlotUsage(ctx context.Context, day time.Time) ([]database.SlotUsageRow, error) {
	return m.slotUsageFn(ctx, day)
}

var testNow = time.Date(2026, 8, 31, 13, 30, 0, 0, time.UTC)

func fixedClock() clock.Clock {
	return clock.Func(func() time.Time { return testNow })
}

func echoCreate(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	return database.Order{
		ID:              arg.ID,
		OrderNo:         arg.OrderNo,
		UserID:          arg.UserID,
		FoodKey:         arg.FoodKey,
		FoodName:        arg.FoodName,
		Quantity:        arg.Quantity,
		CutleryQuantity: arg.CutleryQuantity,
		Total:           arg.Total,
		Status:          enum.OrderStatusPending,
		PaymentMethod:   arg.PaymentMethod,
		DeliveryMethod:  arg.DeliveryMethod,
		FulfillmentDay:  arg.FulfillmentDay,
		SlotKey:         arg.SlotKey,
		CreatedAt:       arg.CreatedAt,
	}, nil
}

func basicReq() PlaceOrderRequest {
	return PlaceOrderRequest{
		UserID:          42,
		FoodKey:         "ash",
		FoodName:        "🍲 Ash Reshteh",
		Quantity:        2,
		CutleryQuantity: 1,
		Total:           decimal.RequireFromString("12.30"),
		PaymentMethod:   enum.PaymentMethodPayPal,
		DeliveryMethod:  enum.DeliveryMethodDelivery,
		FulfillmentDay:  testNow,
		Contact:         ContactInfo{FullName: "Jo Doe", Phone: "0511 123", Address: "Moorkamp 1"},
	}
}

func conflictErr() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_no_key"}
}

// =====================
// Place tests
// =====================

func TestPlaceOrderNumberFormat(t *testing.T) {
	store := &mockOrderStore{createOrderFn: echoCreate}
	svc := NewOrderService(store, fixedClock())
	svc.randInt = func(n int) int { return 123 }

	order, err := svc.Place(context.Background(), basicReq())
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if order.OrderNo != "CH-20260831-223" {
		t.Errorf("order number: got %q", order.OrderNo)
	}
	if order.Status != enum.OrderStatusPending {
		t.Errorf("status: got %q, want pending", order.Status)
	}
}

func TestPlaceRetriesOnNumberConflict(t *testing.T) {
	attempts := 0
	store := &mockOrderStore{
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			attempts++
			if attempts == 1 {
				return database.Order{}, conflictErr()
			}
			return echoCreate(ctx, arg)
		},
	}
	svc := NewOrderService(store, fixedClock())

	if _, err := svc.Place(context.Background(), basicReq()); err != nil {
		t.Fatalf("place: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
}

func TestPlaceGivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	store := &mockOrderStore{
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			attempts++
			return database.Order{}, conflictErr()
		},
	}
	svc := NewOrderService(store, fixedClock())

	_, err := svc.Place(context.Background(), basicReq())
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if attempts != maxOrderNumberRetries {
		t.Fatalf("attempts = %d, want %d", attempts, maxOrderNumberRetries)
	}
}

func TestPlaceDoesNotRetryOtherErrors(t *testing.T) {
	dbErr := errors.New("connection reset")
	attempts := 0
	store := &mockOrderStore{
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			attempts++
			return database.Order{}, dbErr
		},
	}
	svc := NewOrderService(store, fixedClock())

	_, err := svc.Place(context.Background(), basicReq())
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped db error, got: %v", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestPlaceOmitsEmptySlotKey(t *testing.T) {
	store := &mockOrderStore{createOrderFn: echoCreate}
	svc := NewOrderService(store, fixedClock())

	order, err := svc.Place(context.Background(), basicReq())
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if order.SlotKey.Valid {
		t.Error("slot key should be NULL outside slot mode")
	}
}

// =====================
// Close tests
// =====================

func TestCloseReturnsRuntimeInfo(t *testing.T) {
	store := &mockOrderStore{
		createOrderFn: echoCreate,
		closeOrderFn: func(ctx context.Context, arg database.CloseOrderParams) (int64, error) {
			if arg.Status != enum.OrderStatusApproved {
				t.Errorf("close status: got %q", arg.Status)
			}
			if !arg.CheckedAt.Equal(testNow) {
				t.Errorf("checked at: got %v", arg.CheckedAt)
			}
			return 1, nil
		},
	}
	svc := NewOrderService(store, fixedClock())

	order, err := svc.Place(context.Background(), basicReq())
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	ro, err := svc.Close(context.Background(), order.OrderNo, enum.OrderStatusApproved)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if ro == nil {
		t.Fatal("expected runtime info")
	}
	if ro.UserID != 42 || ro.Contact.FullName != "Jo Doe" {
		t.Errorf("runtime info: %+v", ro)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	closed := false
	store := &mockOrderStore{
		createOrderFn: echoCreate,
		closeOrderFn: func(ctx context.Context, arg database.CloseOrderParams) (int64, error) {
			if closed {
				return 0, nil
			}
			closed = true
			return 1, nil
		},
	}
	svc := NewOrderService(store, fixedClock())

	order, _ := svc.Place(context.Background(), basicReq())

	if _, err := svc.Close(context.Background(), order.OrderNo, enum.OrderStatusApproved); err != nil {
		t.Fatalf("first close: %v", err)
	}
	_, err := svc.Close(context.Background(), order.OrderNo, enum.OrderStatusCanceled)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("second close: expected ErrOrderNotFound, got: %v", err)
	}
}

func TestCloseUnknownOrder(t *testing.T) {
	store := &mockOrderStore{
		closeOrderFn: func(ctx context.Context, arg database.CloseOrderParams) (int64, error) {
			return 0, nil
		},
	}
	svc := NewOrderService(store, fixedClock())

	_, err := svc.Close(context.Background(), "CH-20260831-999", enum.OrderStatusApproved)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}

func TestCloseSurvivesLostRuntimeIndex(t *testing.T) {
	store := &mockOrderStore{
		closeOrderFn: func(ctx context.Context, arg database.CloseOrderParams) (int64, error) {
			return 1, nil
		},
	}
	svc := NewOrderService(store, fixedClock())

	// No Place beforehand: simulates a restart losing the index.
	ro, err := svc.Close(context.Background(), "CH-20260831-500", enum.OrderStatusApproved)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if ro != nil {
		t.Fatalf("expected nil runtime info, got %+v", ro)
	}
}

// =====================
// Queries
// =====================

func TestSoldQuantity(t *testing.T) {
	store := &mockOrderStore{
		sumQuantityFn: func(ctx context.Context, arg database.SumQuantityParams) (int32, error) {
			if arg.FoodKey != "ash" {
				t.Errorf("food key: %q", arg.FoodKey)
			}
			return 7, nil
		},
	}
	svc := NewOrderService(store, fixedClock())

	sold, err := svc.SoldQuantity(context.Background(), "ash", testNow)
	if err != nil {
		t.Fatalf("sold quantity: %v", err)
	}
	if sold != 7 {
		t.Fatalf("sold = %d, want 7", sold)
	}
}

func TestRestoreSlots(t *testing.T) {
	store := &mockOrderStore{
		slotUsageFn: func(ctx context.Context, day time.Time) ([]database.SlotUsageRow, error) {
			return []database.SlotUsageRow{
				{SlotKey: "2026-08-31 12:00-12:30", Consumed: 2},
				{SlotKey: "2026-08-31 13:00-13:30", Consumed: 1},
			}, nil
		},
	}
	svc := NewOrderService(store, fixedClock())

	got := map[string]int{}
	if err := svc.RestoreSlots(context.Background(), testNow, func(key string, consumed int) {
		got[key] = consumed
	}); err != nil {
		t.Fatalf("restore slots: %v", err)
	}
	if got["2026-08-31 12:00-12:30"] != 2 || got["2026-08-31 13:00-13:30"] != 1 {
		t.Fatalf("restored: %v", got)
	}
}

func TestReport(t *testing.T) {
	store := &mockOrderStore{
		createOrderFn: echoCreate,
		listOrdersFn: func(ctx context.Context) ([]database.Order, error) {
			o, _ := echoCreate(ctx, database.CreateOrderParams{
				OrderNo:       "CH-20260831-101",
				UserID:        42,
				FoodName:      "🍲 Ash Reshteh",
				Quantity:      2,
				Total:         decimalToNumeric(decimal.RequireFromString("12.30")),
				PaymentMethod: enum.PaymentMethodCash,
				CreatedAt:     testNow,
			})
			return []database.Order{o}, nil
		},
	}
	svc := NewOrderService(store, fixedClock())

	rows, err := svc.Report(context.Background())
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: %d", len(rows))
	}
	if !rows[0].Total.Equal(decimal.RequireFromString("12.30")) {
		t.Errorf("total: %s", rows[0].Total)
	}
	if !strings.HasPrefix(rows[0].OrderNo, "CH-") {
		t.Errorf("order number: %q", rows[0].OrderNo)
	}
}
