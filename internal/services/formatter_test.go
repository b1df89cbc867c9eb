package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	t.Run("Object keeps number text", func(t *testing.T) {
		payload, err := ParsePayload([]byte(`{"ticker":"BTCUSD","price":60000.50,"contracts":1}`))
		require.NoError(t, err)

		price, ok := payload.Lookup("price")
		assert.True(t, ok)
		assert.Equal(t, "60000.50", price)
	})

	t.Run("Invalid inputs", func(t *testing.T) {
		for _, body := range []string{"not json", "", `["a"]`, `"text"`, `{"a":1} trailing`} {
			_, err := ParsePayload([]byte(body))
			assert.ErrorIs(t, err, ErrMalformedPayload, body)
		}
	})
}

func TestPayloadLookup(t *testing.T) {
	payload := Payload{"symbol": "ETHUSDT", "ticker": nil, "sl": "", "flag": true}

	v, ok := payload.Lookup("ticker", "symbol")
	assert.True(t, ok)
	assert.Equal(t, "ETHUSDT", v, "null counts as absent")

	v, ok = payload.Lookup("sl", "stop_loss")
	assert.True(t, ok, "empty string counts as present")
	assert.Equal(t, "", v)

	v, ok = payload.Lookup("flag")
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	_, ok = payload.Lookup("missing")
	assert.False(t, ok)
}

func TestHasIdentity(t *testing.T) {
	assert.True(t, Payload{"ticker": "X"}.HasIdentity())
	assert.True(t, Payload{"symbol": "X"}.HasIdentity())
	assert.True(t, Payload{"direction": "buy"}.HasIdentity())
	assert.False(t, Payload{"price": "1"}.HasIdentity())
	assert.False(t, Payload{"ticker": nil}.HasIdentity())
}

func TestNormalizeDirection(t *testing.T) {
	cases := map[string]string{
		"buy":                "Buy",
		"strategy.BuyEntry":  "Buy",
		"SELL":               "Sell",
		"sell_short":         "Sell",
		"strategy.entrylong": "strategy.entrylong",
		"":                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeDirection(in), in)
	}
}

func TestResolveSignal(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		signal := ResolveSignal(Payload{})
		assert.Equal(t, "Unknown", signal.Ticker)
		assert.Equal(t, "Signal", signal.Direction)
		assert.Equal(t, "N/A", signal.Entry)
		assert.Equal(t, "N/A", signal.StopLoss)
		assert.Equal(t, "N/A", signal.TakeProfit)
		assert.Equal(t, "N/A", signal.Contracts)
	})

	t.Run("Fallback order", func(t *testing.T) {
		signal := ResolveSignal(Payload{
			"symbol":      "ETHUSDT",
			"close":       "3000",
			"price":       "3001",
			"stop_loss":   "2900",
			"take_profit": "3200",
		})
		assert.Equal(t, "ETHUSDT", signal.Ticker)
		assert.Equal(t, "3001", signal.Entry)
		assert.Equal(t, "2900", signal.StopLoss)
		assert.Equal(t, "3200", signal.TakeProfit)
	})

	t.Run("Primary fields win", func(t *testing.T) {
		signal := ResolveSignal(Payload{
			"ticker": "BTCUSD", "symbol": "IGNORED",
			"entry_price": "1", "price": "2",
			"sl": "3", "stop_loss": "4",
			"tp1": "5", "take_profit": "6",
		})
		assert.Equal(t, "BTCUSD", signal.Ticker)
		assert.Equal(t, "1", signal.Entry)
		assert.Equal(t, "3", signal.StopLoss)
		assert.Equal(t, "5", signal.TakeProfit)
	})
}

func TestFormatSignal(t *testing.T) {
	t.Run("Pass-through direction with stop loss only", func(t *testing.T) {
		payload, err := ParsePayload([]byte(`{"ticker":"BTCUSD","direction":"strategy.entrylong","sl":"60000"}`))
		require.NoError(t, err)

		text := FormatSignal(payload)
		assert.NotContains(t, text, "Buy BTCUSD")
		assert.Contains(t, text, "strategy.entrylong BTCUSD")
		assert.Contains(t, text, "<b>SL:</b> 60000")
		assert.NotContains(t, text, "TP1")
	})

	t.Run("All optional lines", func(t *testing.T) {
		text := FormatSignal(Payload{
			"ticker": "ETHUSDT", "direction": "sell", "price": "3000",
			"strategy": "RSI", "timeframe": "15m", "contracts": "2",
			"sl": "3100", "tp1": "2800",
		})
		lines := strings.Split(text, "\n")
		require.Len(t, lines, 6)
		assert.Equal(t, "🚨 <b>Sell ETHUSDT</b> @ 3000", lines[0])
		assert.Contains(t, text, "<b>Strategy:</b> RSI")
		assert.Contains(t, text, "<b>Timeframe:</b> 15m")
		assert.Contains(t, text, "<b>Contracts:</b> 2")
		assert.Contains(t, text, "<b>TP1:</b> 2800")
	})

	t.Run("N/A and empty values are hidden", func(t *testing.T) {
		text := FormatSignal(Payload{"ticker": "X", "strategy": "", "timeframe": "N/A"})
		assert.Equal(t, "🚨 <b>Signal X</b> @ N/A", text)
	})

	t.Run("Markup is escaped", func(t *testing.T) {
		text := FormatSignal(Payload{"ticker": "<b>X</b>", "strategy": "a&b"})
		assert.Contains(t, text, "&lt;b&gt;X&lt;/b&gt;")
		assert.Contains(t, text, "a&amp;b")
	})
}

func TestDisplayable(t *testing.T) {
	assert.False(t, displayable(""))
	assert.False(t, displayable("N/A"))
	assert.True(t, displayable("0"))
	assert.True(t, displayable("n/a"))
}

func TestFormatRaw(t *testing.T) {
	t.Run("Short body", func(t *testing.T) {
		assert.Equal(t, "📥 <b>Raw alert</b>\n<pre>not json</pre>", FormatRaw([]byte("not json"), 800))
	})

	t.Run("Truncated by characters", func(t *testing.T) {
		body := strings.Repeat("é", 900)
		text := FormatRaw([]byte(body), 800)
		assert.Contains(t, text, strings.Repeat("é", 800)+"…</pre>")
		assert.NotContains(t, text, strings.Repeat("é", 801))
	})

	t.Run("Empty body", func(t *testing.T) {
		assert.Contains(t, FormatRaw(nil, 800), "(empty body)")
	})

	t.Run("Escaped", func(t *testing.T) {
		assert.Contains(t, FormatRaw([]byte(`{"a":"<x>"}`), 800), "&lt;x&gt;")
	})
}
