package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
)

const notAvailable = "N/A"

// Payload is a loosely typed webhook body. Field names differ between alert sources.
type Payload map[string]any

// ParsePayload decodes body as a JSON object. Numbers keep their literal text.
func ParsePayload(body []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrMalformedPayload)
	}

	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object, got %T", ErrMalformedPayload, v)
	}
	return Payload(m), nil
}

// Lookup returns the first of keys that is present and not null, rendered as a display string.
func (p Payload) Lookup(keys ...string) (string, bool) {
	for _, key := range keys {
		v, ok := p[key]
		if !ok || v == nil {
			continue
		}
		return displayValue(v), true
	}
	return "", false
}

func (p Payload) lookupOr(def string, keys ...string) string {
	if v, ok := p.Lookup(keys...); ok {
		return v
	}
	return def
}

// HasIdentity reports whether the payload names a ticker, symbol or direction
func (p Payload) HasIdentity() bool {
	_, ok := p.Lookup("ticker", "direction", "symbol")
	return ok
}

// Signal is a payload with every recognized field resolved
type Signal struct {
	Ticker     string
	Direction  string
	Entry      string
	StopLoss   string
	TakeProfit string
	Contracts  string
	Strategy   string
	Timeframe  string
}

// ResolveSignal applies the field fallbacks and defaults to p
func ResolveSignal(p Payload) Signal {
	direction := "Signal"
	if raw, ok := p.Lookup("direction"); ok {
		direction = NormalizeDirection(raw)
	}

	return Signal{
		Ticker:     p.lookupOr("Unknown", "ticker", "symbol"),
		Direction:  direction,
		Entry:      p.lookupOr(notAvailable, "entry_price", "price", "close"),
		StopLoss:   p.lookupOr(notAvailable, "sl", "stop_loss"),
		TakeProfit: p.lookupOr(notAvailable, "tp1", "take_profit"),
		Contracts:  p.lookupOr(notAvailable, "contracts"),
		Strategy:   p.lookupOr(notAvailable, "strategy"),
		Timeframe:  p.lookupOr(notAvailable, "timeframe"),
	}
}

// NormalizeDirection maps anything mentioning BUY or SELL to Buy / Sell and leaves other values alone
func NormalizeDirection(raw string) string {
	upper := strings.ToUpper(raw)
	switch {
	case strings.Contains(upper, "BUY"):
		return "Buy"
	case strings.Contains(upper, "SELL"):
		return "Sell"
	default:
		return raw
	}
}

// FormatSignal renders a payload as an HTML notification
func FormatSignal(p Payload) string {
	return ResolveSignal(p).Format()
}

// Format renders the signal. Optional lines are dropped when their value is not displayable.
func (s Signal) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🚨 <b>%s %s</b> @ %s",
		html.EscapeString(s.Direction), html.EscapeString(s.Ticker), html.EscapeString(s.Entry))

	optional := []struct {
		label string
		value string
	}{
		{"📊 <b>Strategy:</b>", s.Strategy},
		{"⏱ <b>Timeframe:</b>", s.Timeframe},
		{"📦 <b>Contracts:</b>", s.Contracts},
		{"🛑 <b>SL:</b>", s.StopLoss},
		{"🎯 <b>TP1:</b>", s.TakeProfit},
	}
	for _, line := range optional {
		if !displayable(line.value) {
			continue
		}
		fmt.Fprintf(&sb, "\n%s %s", line.label, html.EscapeString(line.value))
	}
	return sb.String()
}

// FormatRaw renders the first limit characters of body as a preformatted debug notification
func FormatRaw(body []byte, limit int) string {
	text := string(body)
	if runes := []rune(text); limit > 0 && len(runes) > limit {
		text = string(runes[:limit]) + "…"
	}
	if strings.TrimSpace(text) == "" {
		text = "(empty body)"
	}
	return fmt.Sprintf("📥 <b>Raw alert</b>\n<pre>%s</pre>", html.EscapeString(text))
}

// FormatFailure renders the notice sent to channels when an alert could not be processed
func FormatFailure(err error) string {
	return fmt.Sprintf("⚠️ Failed to process webhook alert: %v", err)
}

// displayable treats "N/A" and the empty string the same: nothing to show.
func displayable(v string) bool {
	return v != "" && v != notAvailable
}

func displayValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
