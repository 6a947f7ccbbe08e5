package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderLine(t *testing.T, format logFormat, ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: aw,
		format: format,
	})
	LogEvent(ctx, slog.New(handler).With("component", component), level, event, attrs...)
	require.NoError(t, aw.Flush())
	require.NoError(t, aw.Close())
	return strings.TrimSpace(buf.String())
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	ctx := WithRID(Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	line := renderLine(t, formatKV, ctx, "service.players", slog.LevelInfo, "player.registered",
		slog.String("status", "ok"),
		slog.String("player", "Bob"),
		slog.Int64("number_group", 3),
	)

	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=service.players", "event=player.registered", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "player=Bob", "number_group=3"}
	require.GreaterOrEqual(t, len(tokens), len(expected), line)
	for i, prefix := range expected {
		assert.True(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, expected prefix %s", i, tokens[i], prefix)
	}
}

func TestStructuredHandlerJSON(t *testing.T) {
	ctx := WithRID(Background(), "12:34:56")
	line := renderLine(t, formatJSON, ctx, "store", slog.LevelError, "money.adjust",
		slog.String("status", "error"),
		slog.Any("err", errors.New("boom")),
		slog.Duration("duration", 1500*time.Microsecond),
	)

	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &fields), line)
	assert.Equal(t, "ERROR", fields["level"])
	assert.Equal(t, "store", fields["component"])
	assert.Equal(t, "fail", fields["status"])
	assert.Equal(t, "boom", fields["err"])
	assert.Equal(t, float64(2), fields["duration_ms"])
	assert.Equal(t, CompactRID("12:34:56"), fields["rid"])
	assert.Equal(t, "12:34:56", fields["rid_full"])
	assert.Contains(t, fields, "ts_unix_nano")
	assert.True(t, strings.HasPrefix(line, `{"ts":`), line)
}

func TestStructuredHandlerCompactRIDKV(t *testing.T) {
	line := renderLine(t, formatKV, WithRID(Background(), "123:456:789"), "app", slog.LevelInfo, "rid.test")
	assert.Contains(t, line, "rid="+CompactRID("123:456:789"))
	assert.NotContains(t, line, "rid_full=")
}

func TestStructuredHandlerDefaults(t *testing.T) {
	line := renderLine(t, formatKV, Background(), "", slog.LevelWarn, "",
		slog.String("outcome", "weird"),
		slog.String("payload", "has space"),
	)
	assert.Contains(t, line, "component=app")
	assert.Contains(t, line, "event=unknown")
	assert.Contains(t, line, `payload="has space"`)
	assert.NotContains(t, line, "outcome=")
}

func TestCompactRID(t *testing.T) {
	assert.Equal(t, "1.2.3", CompactRID("1:2:3"))
	assert.Equal(t, "a.-1.z", CompactRID("10:-1:35"))
	assert.Equal(t, "not-a-rid", CompactRID("not-a-rid"))
	assert.Equal(t, "1:x:3", CompactRID("1:x:3"))
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "ab\tc", Sanitize("a\x00b\tc\u200b"))
	assert.Equal(t, "при", SanitizeLimit("привет", 3))
	assert.Equal(t, "", SanitizeLimit("x", 0))
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	assert.Equal(t, []bool{true, false, false, true}, got)

	s.Set(0, 0)
	assert.True(t, s.Allow())

	n, d := parseRatioSpec("2/5")
	assert.Equal(t, []int{2, 5}, []int{n, d})
	n, d = parseRatioSpec("10")
	assert.Equal(t, []int{1, 10}, []int{n, d})
	n, d = parseRatioSpec("off")
	assert.Equal(t, []int{0, 0}, []int{n, d})
}
