package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/chaschni/orderbot/internal/calendar"
	"github.com/chaschni/orderbot/internal/capacity"
	"github.com/chaschni/orderbot/internal/clock"
	"github.com/chaschni/orderbot/internal/config"
	"github.com/chaschni/orderbot/internal/database"
	"github.com/chaschni/orderbot/internal/enum"
	"github.com/chaschni/orderbot/internal/handler"
	"github.com/chaschni/orderbot/internal/menu"
	"github.com/chaschni/orderbot/internal/ratelimit"
	"github.com/chaschni/orderbot/internal/router"
	"github.com/chaschni/orderbot/internal/service"
	"github.com/chaschni/orderbot/internal/session"
	"github.com/chaschni/orderbot/internal/telegram"
	"github.com/chaschni/orderbot/internal/ws"
)

const (
	sessionMaxIdle = 30 * time.Minute
	janitorPeriod  = time.Minute
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.Load()

	if cfg.BotToken == "" {
		log.Error("BOT_TOKEN is required")
		os.Exit(1)
	}
	if cfg.AdminChatID == 0 {
		log.Error("ADMIN_CHAT_ID is required")
		os.Exit(1)
	}

	clk, err := clock.NewBusiness(cfg.Timezone)
	if err != nil {
		log.Error("load timezone", "tz", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	cutleryPrice, err := decimal.NewFromString(cfg.CutleryPrice)
	if err != nil {
		log.Error("parse CUTLERY_PRICE", "value", cfg.CutleryPrice, "error", err)
		os.Exit(1)
	}
	preOrderPrice, err := decimal.NewFromString(cfg.PreOrderItemPrice)
	if err != nil {
		log.Error("parse PREORDER_ITEM_PRICE", "value", cfg.PreOrderItemPrice, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("connect database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}

	queries := database.New(pool)
	if err := queries.EnsureSchema(ctx); err != nil {
		log.Error("apply schema", "error", err)
		os.Exit(1)
	}
	log.Info("connected to database")

	cal := calendar.New(clk)
	orders := service.NewOrderService(queries, clk)
	ledger := capacity.New(orders, capacity.DefaultDailyCap, capacity.DefaultSlotCapacity)

	// In slot mode the in-memory window counters are rebuilt from the
	// durable orders, so a restart cannot double-book a window.
	if cfg.DeliveryMode == enum.DeliveryModeSlot {
		if day, ok := cal.NextDeliveryDay(clk.Now()); ok {
			if err := orders.RestoreSlots(ctx, day, ledger.RestoreSlot); err != nil {
				log.Error("restore slot counters", "error", err)
				os.Exit(1)
			}
			log.Info("slot counters restored", "day", day.Format("2006-01-02"))
		}
	}

	hub := ws.NewHub(log)
	go hub.Run()

	client := telegram.NewClient(cfg.BotToken)
	engine := session.NewEngine(session.Config{
		AdminChatID:     cfg.AdminChatID,
		Mode:            cfg.DeliveryMode,
		PayPalLink:      cfg.PayPalLink,
		ContactUsername: cfg.ContactUsername,
		CutleryPrice:    cutleryPrice,
		PreOrderItem: menu.Item{
			Key:   "preorder",
			Name:  cfg.PreOrderItemName,
			Price: preOrderPrice,
		},
	}, clk, cal, ledger, orders, client, hub, log)

	limiter := ratelimit.New(ratelimit.DefaultWindow, ratelimit.DefaultLimit)
	webhook := handler.NewWebhookHandler(cfg.BotToken, engine, limiter, client, clk, log)
	dashboard := handler.NewDashboardHandler(orders, cfg.DashboardSecret, cfg.DashboardPasswordHash)

	if cfg.PublicURL != "" {
		url := fmt.Sprintf("%s/webhook/%s", cfg.PublicURL, cfg.BotToken)
		if err := client.SetWebhook(ctx, url); err != nil {
			log.Error("register webhook", "error", err)
			os.Exit(1)
		}
		log.Info("webhook registered", "url", cfg.PublicURL)
	}

	go janitor(engine, limiter, ledger, clk)

	r := router.New(cfg, webhook, dashboard, hub)
	addr := ":" + cfg.Port
	log.Info("starting server", "addr", addr, "mode", cfg.DeliveryMode)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// janitor periodically expires idle conversations, sweeps stale rate-limit
// entries, and drops capacity buckets for past days.
func janitor(engine *session.Engine, limiter *ratelimit.Limiter, ledger *capacity.Ledger, clk clock.Clock) {
	ticker := time.NewTicker(janitorPeriod)
	defer ticker.Stop()

	for range ticker.C {
		now := clk.Now()
		engine.ExpireIdle(now, sessionMaxIdle)
		limiter.Sweep(now, 10*ratelimit.DefaultWindow)
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		ledger.DropBefore(today)
	}
}
