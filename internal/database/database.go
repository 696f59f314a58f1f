// Package database is the hand-written pgx query layer for the order
// ledger. Consumers depend on narrow interfaces satisfied by *Queries.
package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries holds all order queries.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id UUID PRIMARY KEY,
	order_no TEXT NOT NULL UNIQUE,
	user_id BIGINT NOT NULL,
	food_key TEXT NOT NULL,
	food_name TEXT NOT NULL,
	quantity INTEGER NOT NULL CHECK (quantity > 0),
	cutlery_quantity INTEGER NOT NULL DEFAULT 0 CHECK (cutlery_quantity >= 0),
	total NUMERIC(10,2) NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','approved','canceled')),
	payment_method TEXT NOT NULL,
	delivery_method TEXT NOT NULL,
	fulfillment_day DATE NOT NULL,
	slot_key TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	payment_checked_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_orders_food_day ON orders (food_key, fulfillment_day);
CREATE INDEX IF NOT EXISTS idx_orders_slot_day ON orders (fulfillment_day, slot_key);
`

// EnsureSchema applies the idempotent DDL at startup.
func (q *Queries) EnsureSchema(ctx context.Context) error {
	_, err := q.db.Exec(ctx, schema)
	return err
}

// Order is one durable order row.
type Order struct {
	ID               uuid.UUID
	OrderNo          string
	UserID           int64
	FoodKey          string
	FoodName         string
	Quantity         int32
	CutleryQuantity  int32
	Total            pgtype.Numeric
	Status           string
	PaymentMethod    string
	DeliveryMethod   string
	FulfillmentDay   time.Time
	SlotKey          pgtype.Text
	CreatedAt        time.Time
	PaymentCheckedAt pgtype.Timestamptz
}

const orderColumns = `id, order_no, user_id, food_key, food_name, quantity, cutlery_quantity,
	total, status, payment_method, delivery_method, fulfillment_day, slot_key,
	created_at, payment_checked_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNo, &o.UserID, &o.FoodKey, &o.FoodName, &o.Quantity,
		&o.CutleryQuantity, &o.Total, &o.Status, &o.PaymentMethod,
		&o.DeliveryMethod, &o.FulfillmentDay, &o.SlotKey, &o.CreatedAt,
		&o.PaymentCheckedAt,
	)
	return o, err
}

type CreateOrderParams struct {
	ID              uuid.UUID
	OrderNo         string
	UserID          int64
	FoodKey         string
	FoodName        string
	Quantity        int32
	CutleryQuantity int32
	Total           pgtype.Numeric
	PaymentMethod   string
	DeliveryMethod  string
	FulfillmentDay  time.Time
	SlotKey         pgtype.Text
	CreatedAt       time.Time
}

const createOrder = `
INSERT INTO orders (id, order_no, user_id, food_key, food_name, quantity, cutlery_quantity,
	total, status, payment_method, delivery_method, fulfillment_day, slot_key, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', $9, $10, $11, $12, $13)
RETURNING ` + orderColumns

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.ID, arg.OrderNo, arg.UserID, arg.FoodKey, arg.FoodName,
		arg.Quantity, arg.CutleryQuantity, arg.Total, arg.PaymentMethod,
		arg.DeliveryMethod, arg.FulfillmentDay, arg.SlotKey, arg.CreatedAt,
	)
	return scanOrder(row)
}

type CloseOrderParams struct {
	OrderNo   string
	Status    string
	CheckedAt time.Time
}

const closeOrder = `
UPDATE orders SET status = $2, payment_checked_at = $3
WHERE order_no = $1 AND status = 'pending'
`

// CloseOrder transitions a pending order to its terminal status. The
// status='pending' predicate makes the transition single-shot: a repeated
// decision affects zero rows.
func (q *Queries) CloseOrder(ctx context.Context, arg CloseOrderParams) (int64, error) {
	tag, err := q.db.Exec(ctx, closeOrder, arg.OrderNo, arg.Status, arg.CheckedAt)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type SumQuantityParams struct {
	FoodKey string
	Day     time.Time
}

const sumQuantity = `
SELECT COALESCE(SUM(quantity), 0)::int FROM orders
WHERE food_key = $1 AND fulfillment_day = $2::date AND status <> 'canceled'
`

// SumQuantity returns the quantity already committed for a food on a
// fulfillment day. Canceled orders release their stock.
func (q *Queries) SumQuantity(ctx context.Context, arg SumQuantityParams) (int32, error) {
	var sum int32
	err := q.db.QueryRow(ctx, sumQuantity, arg.FoodKey, arg.Day).Scan(&sum)
	return sum, err
}

const listOrders = `
SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC
`

func (q *Queries) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// SlotUsageRow is the consumed count of one delivery slot.
type SlotUsageRow struct {
	SlotKey  string
	Consumed int32
}

const slotUsage = `
SELECT slot_key, COUNT(*)::int FROM orders
WHERE fulfillment_day = $1::date AND slot_key IS NOT NULL AND status <> 'canceled'
GROUP BY slot_key
`

// SlotUsage rebuilds the in-memory slot counters from durable orders,
// e.g. after a restart.
func (q *Queries) SlotUsage(ctx context.Context, day time.Time) ([]SlotUsageRow, error) {
	rows, err := q.db.Query(ctx, slotUsage, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usage []SlotUsageRow
	for rows.Next() {
		var r SlotUsageRow
		if err := rows.Scan(&r.SlotKey, &r.Consumed); err != nil {
			return nil, err
		}
		usage = append(usage, r)
	}
	return usage, rows.Err()
}
