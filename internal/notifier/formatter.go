package notifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/th3rrry/minees/internal/generator"
	"github.com/th3rrry/minees/internal/market"
	"github.com/th3rrry/minees/internal/model"
)

var explanationTemplates = map[string]string{
	generator.KeyGrowthBuy:       "Price is moving {trend} by {change}% over 24h",
	generator.KeyFallSell:        "Price fell {change}% over 24h, trend is {trend}",
	generator.KeyHighRate:        "{base}/{quote} rate {rate} is above its usual band",
	generator.KeyLowRate:         "{base}/{quote} rate {rate} is below its usual band",
	generator.KeyCurrentRate:     "{base}/{quote} is trading at {rate}",
	generator.KeyTradingHours:    "Active trading session ({hour}:{minute})",
	generator.KeyNonTradingHours: "Outside the main session ({hour}:{minute})",
	generator.KeyPriceInfo:       "Price {price}, 24h change {change}% ({trend})",
	generator.KeyDataUnavailable: "No market data available",
	generator.KeyErrorGetting:    "Error getting market data",
}

// RenderExplanation fills the template for key with params. Unknown keys
// render as the key itself.
func RenderExplanation(key string, params map[string]any) string {
	tmpl, ok := explanationTemplates[key]
	if !ok {
		return key
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, 2*len(names))
	for _, name := range names {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(params[name]))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func directionIcon(d model.Direction) string {
	switch d {
	case model.DirectionBuy:
		return "🟢"
	case model.DirectionSell:
		return "🔴"
	}
	return "⚪"
}

// FormatSignal renders one signal as a Telegram HTML message.
func FormatSignal(sig model.Signal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s</b> %s | %d%%\n", directionIcon(sig.Direction), sig.Pair, sig.Direction, sig.Confidence)
	fmt.Fprintf(&b, "%s\n", RenderExplanation(sig.Explanation, sig.ExplanationParams))
	if !sig.Synthetic {
		fmt.Fprintf(&b, "Price: %.4f (%+.2f%%)\n", sig.Price, sig.Change24h)
	}
	if sig.TechnicalReasoning != "" {
		fmt.Fprintf(&b, "<i>%s</i>\n", sig.TechnicalReasoning)
	}
	fmt.Fprintf(&b, "%s · %s", sig.Path, time.UnixMilli(sig.Timestamp).UTC().Format("2006-01-02 15:04 MST"))
	return b.String()
}

// FormatSignals renders a one-line-per-instrument overview.
func FormatSignals(sigs []model.Signal) string {
	if len(sigs) == 0 {
		return "No signals yet. They will be available after the next update cycle."
	}
	var b strings.Builder
	b.WriteString("📊 <b>Latest signals</b>\n\n")
	for _, sig := range sigs {
		fmt.Fprintf(&b, "%s %s %s %d%%\n", directionIcon(sig.Direction), sig.Pair, sig.Direction, sig.Confidence)
	}
	return b.String()
}

// FormatWaiting is the reply for an instrument without a signal yet.
func FormatWaiting(pair string) string {
	return fmt.Sprintf("⏳ %s: Signal will be available on next update cycle", pair)
}

// FormatMarkets renders the market board.
func FormatMarkets(statuses []market.Status) string {
	var b strings.Builder
	b.WriteString("🕒 <b>Markets</b>\n\n")
	for _, s := range statuses {
		if s.Available {
			fmt.Fprintf(&b, "✅ %s: open\n", s.Market)
			continue
		}
		fmt.Fprintf(&b, "⛔ %s: closed", s.Market)
		if s.NextAvailable != nil {
			fmt.Fprintf(&b, ", reopens %s", s.NextAvailable.Format("Mon 2006-01-02"))
		}
		b.WriteString("\n")
	}
	return b.String()
}
