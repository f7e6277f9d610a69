package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizePayloadMasksPins(t *testing.T) {
	payload := map[string]any{
		"username": "ada",
		"pin":      "1234",
		"nested": map[string]any{
			"transaction-pin": "9999",
			"amount":          "10.00",
		},
		"items": []any{map[string]any{"PIN": "0000"}},
	}

	out, ok := SanitizePayload(payload).(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "ada", out["username"])
	assert.Equal(t, "******", out["pin"])

	nested := out["nested"].(map[string]any)
	assert.Equal(t, "******", nested["transaction-pin"])
	assert.Equal(t, "10.00", nested["amount"])

	items := out["items"].([]any)
	assert.Equal(t, "******", items[0].(map[string]any)["PIN"])
}

func TestSanitizePayloadUnmarshalable(t *testing.T) {
	assert.Equal(t, "<unavailable>", SanitizePayload(make(chan int)))
}

func TestErrorWritesSanitizedFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Use(zap.New(core))
	t.Cleanup(func() { Use(zap.NewNop()) })

	Error("withdraw failed", errors.New("boom"), Fields{"pin": "1234", "accountId": "acc-1"})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "******", ctx["pin"])
	assert.Equal(t, "acc-1", ctx["accountId"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	t.Cleanup(func() { Use(zap.NewNop()) })
	assert.Error(t, Init("chatty"))
	assert.NoError(t, Init("debug"))
}
