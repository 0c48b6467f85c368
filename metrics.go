// FILE: metrics.go
// Package main – Prometheus metrics for observability.
//
// Exposes the primary metrics the bot updates during operation:
//   • bot_decisions_total{action}  – Decision events (enter/exit_*/skip_*)
//   • bot_orders_total{type}       – Orders placed (market|stop|limit)
//   • bot_equity_usd               – Current equity snapshot (gauge)
//   • bot_daily_stops_total        – Daily kill-switch activations
//   • bot_bar_errors_total         – Bars whose evaluation failed/panicked
//   • bot_shadow_log_errors_total  – Shadow JSONL writes that failed
//
// These are registered in init() and served by the HTTP handler started
// in main.go at /metrics (Prometheus text exposition format).

package main

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_decisions_total",
			Help: "Decision events by action",
		},
		[]string{"action"},
	)

	mtxOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_orders_total",
			Help: "Orders placed by type",
		},
		[]string{"type"},
	)

	mtxEquity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_equity_usd",
			Help: "Equity in USD",
		},
	)

	mtxDailyStops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_daily_stops_total",
			Help: "Daily kill-switch activations",
		},
	)

	mtxBarErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_bar_errors_total",
			Help: "Bars whose evaluation errored or panicked",
		},
	)

	mtxShadowErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_shadow_log_errors_total",
			Help: "Shadow JSONL rows that failed to write",
		},
	)
)

func init() {
	prometheus.MustRegister(mtxDecisions, mtxOrders, mtxEquity)
	prometheus.MustRegister(mtxDailyStops, mtxBarErrors, mtxShadowErrors)
}

// Helper setters used across files.
func IncDecisions(action string) { mtxDecisions.WithLabelValues(action).Inc() }
func IncOrders(orderType string) { mtxOrders.WithLabelValues(orderType).Inc() }
func IncDailyStops()             { mtxDailyStops.Inc() }
func IncBarErrors()              { mtxBarErrors.Inc() }
func IncShadowErrors()           { mtxShadowErrors.Inc() }
