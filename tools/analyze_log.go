// tools/analyze_log.go
// CLI to summarize the bot's CSV decision log: completed round trips,
// win rate, profit factor, Sharpe, drawdown, and the per-filter skip
// breakdown (how selective the entry cascade actually is).
//
// Usage:
//   go run tools/analyze_log.go -log-file trading_log.csv
//   go run tools/analyze_log.go -log-file trading_log.csv -days 7
//
// Notes:
// - A trade is an "enter" row paired with the next exit_* row after it.
// - An enter with no later exit counts as still open and is skipped.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

type logRow struct {
	Time   time.Time
	Symbol string
	Action string
	Price  float64
	Qty    int
	Note   string
}

type trade struct {
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Qty        int
	PnL        float64
	ReturnPct  float64
	HoldMin    float64
	ExitReason string
}

var skipActions = []string{
	"skip_time_of_day",
	"skip_volatility",
	"skip_volume",
	"skip_trend",
	"skip_bb",
	"skip_short",
}

func main() {
	var logFile string
	var days int
	flag.StringVar(&logFile, "log-file", "trading_log.csv", "Path to the CSV decision log")
	flag.IntVar(&days, "days", 0, "Only analyze the last N days (0 = all)")
	flag.Parse()

	rows, err := loadRows(logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", logFile, err)
		os.Exit(1)
	}
	if days > 0 {
		cutoff := time.Now().AddDate(0, 0, -days)
		kept := rows[:0]
		for _, r := range rows {
			if !r.Time.Before(cutoff) {
				kept = append(kept, r)
			}
		}
		rows = kept
	}
	if len(rows) == 0 {
		fmt.Println("no log rows in range")
		return
	}

	trades := extractTrades(rows)
	printReport(rows, trades)
}

func loadRows(path string) ([]logRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	recs, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	var rows []logRow
	for i, rec := range recs {
		if i == 0 && len(rec) > 0 && rec[0] == "timestamp" {
			continue // header
		}
		if len(rec) < 7 {
			continue
		}
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			continue
		}
		price, _ := strconv.ParseFloat(rec[3], 64)
		qty, _ := strconv.Atoi(rec[5])
		rows = append(rows, logRow{
			Time:   ts,
			Symbol: rec[1],
			Action: rec[2],
			Price:  price,
			Qty:    qty,
			Note:   rec[6],
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })
	return rows, nil
}

// extractTrades pairs each enter with the first exit_* row after it.
func extractTrades(rows []logRow) []trade {
	var trades []trade
	var open *logRow
	for i := range rows {
		r := rows[i]
		switch {
		case r.Action == "enter":
			cp := r
			open = &cp
		case strings.HasPrefix(r.Action, "exit") && open != nil:
			qty := open.Qty
			pnl := (r.Price - open.Price) * float64(qty)
			trades = append(trades, trade{
				EntryTime:  open.Time,
				ExitTime:   r.Time,
				EntryPrice: open.Price,
				ExitPrice:  r.Price,
				Qty:        qty,
				PnL:        pnl,
				ReturnPct:  (r.Price/open.Price - 1) * 100,
				HoldMin:    r.Time.Sub(open.Time).Minutes(),
				ExitReason: r.Action,
			})
			open = nil
		}
	}
	return trades
}

func printReport(rows []logRow, trades []trade) {
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("DECISION LOG ANALYSIS  (%s .. %s, %d rows)\n",
		rows[0].Time.Format("2006-01-02"), rows[len(rows)-1].Time.Format("2006-01-02"), len(rows))
	fmt.Println(strings.Repeat("=", 70))

	// ---- Trade performance ----
	if len(trades) == 0 {
		fmt.Println("\nno completed round trips yet")
	} else {
		var wins, losses []float64
		var totalPnL float64
		var returns []float64
		for _, t := range trades {
			totalPnL += t.PnL
			returns = append(returns, t.ReturnPct/100)
			if t.PnL > 0 {
				wins = append(wins, t.PnL)
			} else {
				losses = append(losses, t.PnL)
			}
		}
		grossProfit := sum(wins)
		grossLoss := math.Abs(sum(losses))
		pf := 0.0
		if grossLoss > 0 {
			pf = grossProfit / grossLoss
		}

		fmt.Printf("\nTrades:        %d\n", len(trades))
		fmt.Printf("Win rate:      %.1f%%\n", 100*float64(len(wins))/float64(len(trades)))
		fmt.Printf("Total PnL:     $%.2f\n", totalPnL)
		fmt.Printf("Profit factor: %.2f\n", pf)
		fmt.Printf("Avg win:       $%.2f\n", mean(wins))
		fmt.Printf("Avg loss:      $%.2f\n", mean(losses))
		fmt.Printf("Sharpe (ann.): %.2f\n", sharpe(returns))
		fmt.Printf("Max drawdown:  $%.2f\n", maxDrawdown(trades))

		// Exit reason breakdown.
		reasons := map[string]int{}
		for _, t := range trades {
			reasons[t.ExitReason]++
		}
		fmt.Println("\nExits by reason:")
		for _, k := range sortedKeys(reasons) {
			fmt.Printf("  %-16s %d\n", k, reasons[k])
		}
	}

	// ---- Filter selectivity ----
	counts := map[string]int{}
	entries := 0
	for _, r := range rows {
		if r.Action == "enter" {
			entries++
		}
		counts[r.Action]++
	}
	totalSkips := 0
	fmt.Println("\nFilter skips:")
	for _, a := range skipActions {
		fmt.Printf("  %-18s %d\n", a, counts[a])
		totalSkips += counts[a]
	}
	if totalSkips+entries > 0 {
		fmt.Printf("Selectivity: %.1f%% of candidate bars rejected\n",
			100*float64(totalSkips)/float64(totalSkips+entries))
	}
	fmt.Println(strings.Repeat("=", 70))
}

func sum(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		s += v
	}
	return s
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return sum(x) / float64(len(x))
}

// sharpe annualizes per-trade returns assuming roughly one trade a day.
func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	m := mean(returns)
	var ss float64
	for _, r := range returns {
		ss += (r - m) * (r - m)
	}
	sd := math.Sqrt(ss / float64(len(returns)-1))
	return m / (sd + 1e-6) * math.Sqrt(252)
}

func maxDrawdown(trades []trade) float64 {
	var cum, peak, maxDD float64
	for _, t := range trades {
		cum += t.PnL
		if cum > peak {
			peak = cum
		}
		if dd := cum - peak; dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
