// FILE: main.go
// Package main – Program entrypoint and HTTP/metrics server.
//
// Boot sequence:
//   1) loadBotEnv()                – read .env (no shell exports required)
//   2) cfg := loadConfigFromEnv()  – build runtime Config
//   3) load expert/brain artifacts (experts degrade to neutral; a missing
//      brain is fatal only when USE_BRAIN=true)
//   4) wire gateway/portfolio/logs and the decision core
//   5) start Prometheus /healthz server on cfg.Port
//   6) runBacktest or runLive based on flags
//
// Flags:
//   -backtest <csv>     Run a backtest against CSV candles on the paper gateway
//   -live               Run the real-time polling loop
//   -once               With -live: evaluate the freshest bar once and exit
//   -symbol <sym>       Override SYMBOL from the environment
//   -interval-min <n>   Live poll cadence in minutes (default BAR_MINUTES)
//   -feed <name>        Market-data feed override (e.g. iex, sip)
//   -log-file <path>    CSV decision log path override
//   -edge-size <f>      Per-trade equity fraction override (EDGE_SIZE)
//   -min-hold-min <n>   Minimum hold minutes override (MIN_HOLD_MIN)
//
// Example:
//   go run . -backtest data/tsla_5min.csv
//   go run . -live -once -symbol TSLA
//
// Notes:
//   - Live mode needs BROKER_API_KEY / BROKER_API_SECRET even when DRY_RUN=true,
//     because the market-data API authenticates with the same pair.
//   - No environment exports are needed; keep editing .env and restart.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// ---- Flags ----
	var csvBacktest string
	var live, once bool
	var intervalMin int
	var symbol, feed, logFile string
	var edgeSize float64
	var minHoldMin int
	flag.StringVar(&csvBacktest, "backtest", "", "Path to CSV (time,open,high,low,close,volume)")
	flag.BoolVar(&live, "live", false, "Run live loop (ignores -backtest)")
	flag.BoolVar(&once, "once", false, "With -live: evaluate one bar and exit")
	flag.IntVar(&intervalMin, "interval-min", 0, "Live poll cadence in minutes (0 = BAR_MINUTES)")
	flag.StringVar(&symbol, "symbol", "", "Symbol override (default from SYMBOL)")
	flag.StringVar(&feed, "feed", "", "Market-data feed override (default from DATA_FEED)")
	flag.StringVar(&logFile, "log-file", "", "CSV decision log path override")
	flag.Float64Var(&edgeSize, "edge-size", 0, "Per-trade equity fraction override (0 = EDGE_SIZE)")
	flag.IntVar(&minHoldMin, "min-hold-min", 0, "Minimum hold minutes override (0 = MIN_HOLD_MIN)")
	flag.Parse()

	// ---- Environment & Config ----
	loadBotEnv()
	debugEnabled = getEnvBool("DEBUG", false)
	cfg := loadConfigFromEnv()
	cfg = applyFlagOverrides(cfg, symbol, feed, logFile, edgeSize, minHoldMin)
	if intervalMin <= 0 {
		intervalMin = cfg.BarMinutes
	}

	// ---- Model artifacts ----
	// Experts degrade to neutral (p=0.5) so a missing file never blocks a run.
	experts := make([]*Expert, 0, 3)
	for _, m := range []struct{ name, path string }{
		{"rsi_expert", cfg.RSIExpertFile},
		{"macd_expert", cfg.MACDExpertFile},
		{"trend_expert", cfg.TrendExpertFile},
	} {
		ex, err := LoadExpert(m.name, m.path)
		if err != nil {
			log.Printf("[BOOT] expert %s unavailable (%v); using neutral", m.name, err)
			ex = newNeutralExpert(m.name)
		}
		experts = append(experts, ex)
	}

	// The brain is only load-bearing in probability mode; there a stale or
	// missing artifact must stop the process rather than trade on garbage.
	brain := NewNeutralBrain()
	if b, err := LoadBrain(cfg.BrainFile, FeatureList); err == nil {
		brain = b
	} else if cfg.UseBrain {
		log.Fatalf("[BOOT] brain artifact %s: %v", cfg.BrainFile, err)
	} else {
		log.Printf("[BOOT] brain unavailable (%v); RSI mode continues without it", err)
	}

	// ---- Logs ----
	tlog := NewTradeLog(cfg.LogFile)
	shadow := NewShadowLogger(cfg.ShadowEnabled, cfg.ShadowLogPath)
	defer shadow.Close()

	// ---- HTTP metrics/health ----
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}
	go func() {
		log.Printf("serving metrics on :%d/metrics", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	// ---- Run selected mode ----
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if csvBacktest != "" && !live {
		paper := NewPaperGateway(cfg.Symbol, cfg.PaperEquity)
		core := NewCore(coreConfigFrom(cfg), paper, paper, experts, brain, tlog, shadow)
		runBacktest(ctx, csvBacktest, cfg, core, paper)
	} else {
		key := requireEnv("BROKER_API_KEY")
		secret := requireEnv("BROKER_API_SECRET")
		broker := NewBrokerGateway(cfg.BrokerBaseURL, cfg.DataBaseURL, cfg.DataFeed, key, secret)

		var gw OrderGateway = broker
		var pf Portfolio = broker
		if cfg.DryRun {
			paper := NewPaperGateway(cfg.Symbol, cfg.PaperEquity)
			gw, pf = paper, paper
			log.Printf("[BOOT] DRY_RUN=true: orders stay on the paper gateway")
		}

		core := NewCore(coreConfigFrom(cfg), gw, pf, experts, brain, tlog, shadow)
		runLive(ctx, cfg, core, broker, time.Duration(intervalMin)*time.Minute, once)
	}

	// ---- Graceful shutdown for HTTP server ----
	shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
	defer c()
	_ = srv.Shutdown(shutdownCtx)
}

// applyFlagOverrides layers non-zero CLI flag values over the env
// config. Zero values mean "keep the environment's setting".
func applyFlagOverrides(cfg Config, symbol, feed, logFile string, edgeSize float64, minHoldMin int) Config {
	if symbol != "" {
		cfg.Symbol = symbol
	}
	if feed != "" {
		cfg.DataFeed = feed
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if edgeSize > 0 {
		cfg.EdgeSize = edgeSize
	}
	if minHoldMin > 0 {
		cfg.MinHoldMin = minHoldMin
	}
	return cfg
}
