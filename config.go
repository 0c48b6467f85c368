// FILE: config.go
// Package main – Runtime configuration model and loader.
//
// This file defines the Config struct (all the knobs the bot uses) and a
// helper to populate it from environment variables. The .env file is read
// by loadBotEnv() (see env.go), so you can tune behavior without exports.
//
// Typical flow (see main.go):
//   loadBotEnv()
//   cfg := loadConfigFromEnv()
//
// Broker credentials (BROKER_API_KEY / BROKER_API_SECRET) are NOT loaded
// here; the live runner pulls them through requireEnv so a backtest never
// needs them.

package main

// Config holds all runtime knobs for trading and operations.
type Config struct {
	// Trading target
	Symbol     string // e.g., "TSLA"
	BarMinutes int    // resample cadence for bars/indicators (default 5)

	// Mode selection
	UseBrain bool // false: RSI-direct cascade; true: probability-driven sizing
	LongOnly bool // suppress short entries (spot/default true)
	DryRun   bool // paper gateway even in live mode

	// RSI-direct cascade (spec'd defaults from the 2020-2024 TSLA runs)
	EdgeSize       float64 // fraction of equity per entry (0.0025 = 0.25%)
	MinHoldMin     int     // minimum hold before an RSI exit is allowed
	DailyStopPct   float64 // daily kill-switch threshold (-0.01 = -1%)
	StopATRMult    float64 // protective stop distance in ATRs
	TPATRMult      float64 // take-profit distance in ATRs
	SessionOpen    float64 // earliest entry hour (exchange-local, 10.0)
	SessionClose   float64 // latest entry hour (exchange-local, 15.5)
	VolZFloor      float64 // minimum vol_z to trade at all
	VolmZFloor     float64 // minimum volm_z to confirm an entry
	EMA200RelFloor float64 // trend filter floor (fractional, -0.05)
	BBZCeiling     float64 // Bollinger confirmation ceiling (-0.8)

	// Probability mode
	BrainCap float64 // position size cap for size_from_prob (0.0020)
	MinEdge  float64 // |p-0.5| gate below which we flatten (0.05)

	// Model artifacts
	RSIExpertFile   string
	MACDExpertFile  string
	TrendExpertFile string
	BrainFile       string

	// Sizing strategy for the RSI-direct mode: "notional" (equity*EdgeSize)
	// or "atr" (risk-parity against the ATR stop distance).
	SizerMode       string
	RiskPerTradePct float64 // used by the "atr" sizer (fraction of equity risked)

	// Broker / data
	BrokerBaseURL     string // trading API; paper endpoint by default
	DataBaseURL       string // market-data API
	DataFeed          string // e.g., "iex" for free paper keys
	MaxHistoryCandles int

	// Ops
	Port        int
	LogFile     string // CSV decision log path
	PaperEquity float64

	// Shadow-mode ML logging (explicit; never re-read from env at call time)
	ShadowEnabled bool
	ShadowLogPath string
}

// loadConfigFromEnv reads the process env (already hydrated by loadBotEnv())
// and returns a Config with sane defaults if keys are missing.
func loadConfigFromEnv() Config {
	return Config{
		Symbol:     getEnv("SYMBOL", "TSLA"),
		BarMinutes: getEnvInt("BAR_MINUTES", 5),

		UseBrain: getEnvBool("USE_BRAIN", false),
		LongOnly: getEnvBool("LONG_ONLY", true),
		DryRun:   getEnvBool("DRY_RUN", true),

		EdgeSize:       getEnvFloat("EDGE_SIZE", 0.0025),
		MinHoldMin:     getEnvInt("MIN_HOLD_MIN", 30),
		DailyStopPct:   getEnvFloat("DAILY_STOP_PCT", -0.01),
		StopATRMult:    getEnvFloat("STOP_ATR_MULT", 1.0),
		TPATRMult:      getEnvFloat("TP_ATR_MULT", 2.0),
		SessionOpen:    getEnvFloat("SESSION_OPEN_HOUR", 10.0),
		SessionClose:   getEnvFloat("SESSION_CLOSE_HOUR", 15.5),
		VolZFloor:      getEnvFloat("VOL_Z_FLOOR", 0.5),
		VolmZFloor:     getEnvFloat("VOLM_Z_FLOOR", 1.0),
		EMA200RelFloor: getEnvFloat("EMA200_REL_FLOOR", -0.05),
		BBZCeiling:     getEnvFloat("BB_Z_CEILING", -0.8),

		BrainCap: getEnvFloat("BRAIN_CAP", 0.0020),
		MinEdge:  getEnvFloat("MIN_EDGE", 0.05),

		RSIExpertFile:   getEnv("RSI_EXPERT_FILE", "models/rsi_expert.json"),
		MACDExpertFile:  getEnv("MACD_EXPERT_FILE", "models/macd_expert.json"),
		TrendExpertFile: getEnv("TREND_EXPERT_FILE", "models/trend_expert.json"),
		BrainFile:       getEnv("BRAIN_FILE", "models/brain.json"),

		SizerMode:       getEnv("SIZER_MODE", "notional"),
		RiskPerTradePct: getEnvFloat("RISK_PER_TRADE_PCT", 0.0025),

		BrokerBaseURL:     getEnv("BROKER_BASE_URL", "https://paper-api.alpaca.markets"),
		DataBaseURL:       getEnv("BROKER_DATA_URL", "https://data.alpaca.markets"),
		DataFeed:          getEnv("DATA_FEED", "iex"),
		MaxHistoryCandles: getEnvInt("MAX_HISTORY_CANDLES", 5000),

		Port:        getEnvInt("PORT", 8080),
		LogFile:     getEnv("LOG_FILE", "trading_log.csv"),
		PaperEquity: getEnvFloat("PAPER_EQUITY", 100000.0),

		ShadowEnabled: getEnvBool("ML_SHADOW_ENABLED", false),
		ShadowLogPath: getEnv("ML_SHADOW_LOG_PATH", "ml_shadow_log.jsonl"),
	}
}
