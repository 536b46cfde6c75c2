// Package calculator implements the calculator tool: financial ratio
// computation over loosely formatted figures pulled out of research text.
package calculator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ChamsBouzaiene/scout/internal/engine"
)

// Metrics holds the ratios the tool can derive.
type Metrics struct {
	PERatio        *float64 `json:"pe_ratio,omitempty"`
	PriceToBook    *float64 `json:"price_to_book,omitempty"`
	DebtToEquity   *float64 `json:"debt_to_equity,omitempty"`
	ReturnOnEquity *float64 `json:"return_on_equity,omitempty"`
	ProfitMargin   *float64 `json:"profit_margin,omitempty"`
	RevenueGrowth  *float64 `json:"revenue_growth,omitempty"`
	FreeCashFlow   *float64 `json:"free_cash_flow,omitempty"`
}

var (
	suffixRe = regexp.MustCompile(`(?i)(billion|million|thousand|[bmk])`)

	// Figures appear in prose as "revenue of $1.2B", "EPS: 3.45" and so on.
	fieldPatterns = map[string]*regexp.Regexp{
		"stock_price":          regexp.MustCompile(`(?i)stock price.*?\$?([\d,\.]+)`),
		"earnings_per_share":   regexp.MustCompile(`(?i)(?:eps|earnings per share).*?\$?([\d,\.]+)`),
		"net_income":           regexp.MustCompile(`(?i)net income.*?\$?([\d,\.]+\s*(?:[BMK]|billion|million|thousand)?)`),
		"revenue":              regexp.MustCompile(`(?i)revenue.*?\$?([\d,\.]+\s*(?:[BMK]|billion|million|thousand)?)`),
		"previous_revenue":     regexp.MustCompile(`(?i)(?:previous|prior) (?:year |period )?revenue.*?\$?([\d,\.]+\s*(?:[BMK]|billion|million|thousand)?)`),
		"total_debt":           regexp.MustCompile(`(?i)total debt.*?\$?([\d,\.]+\s*(?:[BMK]|billion|million|thousand)?)`),
		"total_equity":         regexp.MustCompile(`(?i)(?:total equity|shareholders.equity).*?\$?([\d,\.]+\s*(?:[BMK]|billion|million|thousand)?)`),
		"book_value_per_share": regexp.MustCompile(`(?i)book value per share.*?\$?([\d,\.]+)`),
		"free_cash_flow":       regexp.MustCompile(`(?i)free cash flow.*?\$?([\d,\.]+\s*(?:[BMK]|billion|million|thousand)?)`),
	}
)

// ParseValue parses a loosely formatted financial figure such as "$123.4M",
// "45.2B" or "12.5%". Percentages come back as decimals.
func ParseValue(s string) (float64, bool) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return 0, false
	}
	clean = strings.ReplaceAll(clean, "$", "")
	clean = strings.ReplaceAll(clean, ",", "")

	if strings.Contains(clean, "%") {
		v, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(clean, "%", "")), 64)
		if err != nil {
			return 0, false
		}
		return v / 100, true
	}

	multiplier := 1.0
	switch {
	case containsFold(clean, "b", "billion"):
		multiplier = 1e9
	case containsFold(clean, "m", "million"):
		multiplier = 1e6
	case containsFold(clean, "k", "thousand"):
		multiplier = 1e3
	}
	clean = suffixRe.ReplaceAllString(clean, "")

	v, err := strconv.ParseFloat(strings.TrimSpace(clean), 64)
	if err != nil {
		return 0, false
	}
	return v * multiplier, true
}

func containsFold(s string, short, long string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, long) || strings.Contains(lower, short)
}

// ExtractData scans free text for recognized financial fields.
func ExtractData(text string) map[string]float64 {
	data := make(map[string]float64)
	for field, re := range fieldPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v, ok := ParseValue(m[1]); ok {
			data[field] = v
		}
	}
	return data
}

// Compute derives every ratio the extracted data supports.
func Compute(data map[string]float64) Metrics {
	var m Metrics
	if ratio, ok := div(data, "stock_price", "earnings_per_share"); ok {
		m.PERatio = ratio
	}
	if ratio, ok := div(data, "stock_price", "book_value_per_share"); ok {
		m.PriceToBook = ratio
	}
	if ratio, ok := div(data, "total_debt", "total_equity"); ok {
		m.DebtToEquity = ratio
	}
	if ratio, ok := div(data, "net_income", "total_equity"); ok {
		m.ReturnOnEquity = ratio
	}
	if ratio, ok := div(data, "net_income", "revenue"); ok {
		m.ProfitMargin = ratio
	}
	if cur, ok := data["revenue"]; ok {
		if prev, ok := data["previous_revenue"]; ok && prev != 0 {
			growth := (cur - prev) / prev
			m.RevenueGrowth = &growth
		}
	}
	if fcf, ok := data["free_cash_flow"]; ok {
		m.FreeCashFlow = &fcf
	}
	return m
}

func div(data map[string]float64, num, den string) (*float64, bool) {
	n, ok := data[num]
	if !ok {
		return nil, false
	}
	d, ok := data[den]
	if !ok || d == 0 {
		return nil, false
	}
	v := n / d
	return &v, true
}

// format renders the requested metrics, skipping anything the data did not
// support.
func format(m Metrics, requested []string) string {
	want := make(map[string]bool, len(requested))
	for _, r := range requested {
		want[r] = true
	}
	all := len(requested) == 0

	var lines []string
	add := func(name, label, fmtSpec string, v *float64) {
		if v == nil || (!all && !want[name]) {
			return
		}
		lines = append(lines, fmt.Sprintf("%s: "+fmtSpec, label, *v))
	}
	add("pe_ratio", "P/E Ratio", "%.2f", m.PERatio)
	add("price_to_book", "Price-to-Book Ratio", "%.2f", m.PriceToBook)
	add("debt_to_equity", "Debt-to-Equity Ratio", "%.2f", m.DebtToEquity)
	add("return_on_equity", "Return on Equity", "%.2f", m.ReturnOnEquity)
	add("profit_margin", "Profit Margin", "%.2f", m.ProfitMargin)
	add("revenue_growth", "Revenue Growth", "%.2f", m.RevenueGrowth)
	add("free_cash_flow", "Free Cash Flow", "%.0f", m.FreeCashFlow)

	if len(lines) == 0 {
		return "Unable to calculate requested metrics from provided data"
	}
	return strings.Join(lines, "; ")
}

// New wraps the calculator as the calculator engine tool.
func New() engine.Tool {
	return engine.Tool{
		Kind:        engine.KindCalculator,
		Description: "Calculates financial ratios and metrics (P/E, debt-to-equity, ROE, profit margin, revenue growth) from figures found in gathered text.",
		SchemaJSON:  `{"type":"object","properties":{"financial_data":{"type":"string","description":"Text containing the financial figures"},"metrics":{"type":"array","items":{"type":"string"},"description":"Metrics to calculate; empty for all derivable"}},"required":["financial_data"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			text, _ := args["financial_data"].(string)
			var requested []string
			if raw, ok := args["metrics"].([]any); ok {
				for _, r := range raw {
					if s, ok := r.(string); ok {
						requested = append(requested, s)
					}
				}
			}

			metrics := Compute(ExtractData(text))
			out, err := json.Marshal(map[string]any{
				"result":  format(metrics, requested),
				"metrics": metrics,
			})
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	}
}
