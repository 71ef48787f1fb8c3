package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"StockPulse/internal/analytics"
)

// DigestLine is one ticker's row in a warm digest. Err is set when the ticker
// could not be refreshed.
type DigestLine struct {
	Ticker   string
	Close    float64
	High52w  float64
	Low52w   float64
	Position float64
	Source   string
	Inserted int
	Err      error
}

// FormatWarmDigest formats a warm pass into a Telegram message.
func FormatWarmDigest(lines []DigestLine, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>StockPulse digest</b> | %s\n\n", at.Format("2006-01-02")))

	failed := 0
	for _, l := range lines {
		if l.Err != nil {
			failed++
			b.WriteString(fmt.Sprintf("❌ %s: %s\n", l.Ticker, html.EscapeString(l.Err.Error())))
			continue
		}
		b.WriteString(fmt.Sprintf("%s %s: %.2f | 52w %.2f - %.2f (%.0f%%) | %s",
			trendIcon(l.Position), l.Ticker, l.Close, l.Low52w, l.High52w, l.Position*100, l.Source))
		if l.Inserted > 0 {
			b.WriteString(fmt.Sprintf(" +%d", l.Inserted))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\n%d/%d tickers refreshed", len(lines)-failed, len(lines)))
	return b.String()
}

func trendIcon(position float64) string {
	switch {
	case position >= 0.8:
		return "🔺"
	case position <= 0.2:
		return "🔻"
	default:
		return "▫️"
	}
}

// FormatSymbols lists the supported tickers.
func FormatSymbols(symbols []string) string {
	return fmt.Sprintf("📋 <b>Supported symbols</b> (%d)\n\n%s", len(symbols), strings.Join(symbols, ", "))
}

// FormatSummary formats one ticker's summary statistics.
func FormatSummary(ticker string, s analytics.SummaryStats) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>%s summary</b>\n\n", ticker))
	b.WriteString(fmt.Sprintf("Current close: %.2f\n", s.CurrentClose))
	b.WriteString(fmt.Sprintf("52w high: %.2f\n", s.High52w))
	b.WriteString(fmt.Sprintf("52w low: %.2f\n", s.Low52w))
	b.WriteString(fmt.Sprintf("Average close: %.2f\n", s.AvgClose))
	b.WriteString(fmt.Sprintf("Records: %d (%s to %s)\n", s.TotalRecords, s.DateRange.Start, s.DateRange.End))
	return b.String()
}

// FormatComparison formats a two-ticker comparison.
func FormatComparison(c analytics.Comparison) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("⚖️ <b>%s vs %s</b>\n\n", c.Symbol1, c.Symbol2))
	writeMetrics(&b, c.Symbol1, c.Symbol1Metrics)
	writeMetrics(&b, c.Symbol2, c.Symbol2Metrics)
	b.WriteString(fmt.Sprintf("Correlation: %.4f (%s)\n", c.Correlation, c.Insights.CorrelationInterpretation))
	b.WriteString(fmt.Sprintf("Better performer: <b>%s</b> by %.2f%%\n", c.Insights.BetterPerformer, c.Insights.ReturnDifference))
	return b.String()
}

func writeMetrics(b *strings.Builder, ticker string, m analytics.TickerMetrics) {
	b.WriteString(fmt.Sprintf("<b>%s</b>: return %+.2f%% | volatility %.4f | avg %.2f\n",
		ticker, m.TotalReturnPct, m.Volatility, m.AvgPrice))
}
