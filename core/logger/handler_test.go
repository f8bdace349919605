package logger

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, format logFormat) (*structuredHandler, *asyncWriter, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	h := newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	return h, aw, buf
}

func drain(t *testing.T, aw *asyncWriter, buf *bytes.Buffer) string {
	t.Helper()
	require.NoError(t, aw.Flush())
	require.NoError(t, aw.Close())
	return strings.TrimSpace(buf.String())
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	h, aw, buf := newTestHandler(t, formatKV)
	ctx := WithRID(Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := slog.New(h).With("component", "conversation")
	LogEvent(ctx, log, slog.LevelInfo, "turn",
		slog.String("status", "ok"),
		slog.String("state", "BROWSING"),
		slog.String("next_state", "VIEWING_ITEM"),
	)

	line := drain(t, aw, buf)
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=conversation", "event=turn", "status=ok", "rid=rid-123"}
	require.GreaterOrEqual(t, len(tokens), len(expected), line)
	for i, prefix := range expected {
		assert.True(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, expected prefix %s", i, tokens[i], prefix)
	}
	assert.Less(t, strings.Index(line, "state=BROWSING"), strings.Index(line, "next_state=VIEWING_ITEM"))
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	h, aw, buf := newTestHandler(t, formatJSON)
	ctx := WithRID(Background(), "rid-json")
	ctx = WithUpdateMeta(ctx, 11, 22, 33)

	log := slog.New(h).With("component", "commerce")
	LogEvent(ctx, log, slog.LevelWarn, "cart.add",
		slog.String("status", "failed"),
		slog.String("err", "boom"),
	)

	line := drain(t, aw, buf)
	require.True(t, strings.HasPrefix(line, "{"), line)
	prefixes := []string{`{"ts":`, `"level":"WARN"`, `"component":"commerce"`, `"event":"cart.add"`, `"status":"fail"`, `"rid":"rid-json"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		require.True(t, idx > pos, "prefix %s not found in order within %s", pref, line)
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	rawRID := BuildRID(123, 456, 789)

	h, aw, buf := newTestHandler(t, formatKV)
	LogEvent(WithRID(Background(), rawRID), slog.New(h), slog.LevelInfo, "rid.test")
	line := drain(t, aw, buf)
	assert.Contains(t, line, "rid="+CompactRID(rawRID))
	assert.NotContains(t, line, "rid_full=")

	h, aw, buf = newTestHandler(t, formatJSON)
	LogEvent(WithRID(Background(), rawRID), slog.New(h), slog.LevelInfo, "rid.test")
	line = drain(t, aw, buf)
	assert.Contains(t, line, `"rid":"`+CompactRID(rawRID)+`"`)
	assert.Contains(t, line, `"rid_full":"`+rawRID+`"`)
	assert.Contains(t, line, `"ts_unix_nano"`)
}

func TestStructuredHandlerDurationMillis(t *testing.T) {
	h, aw, buf := newTestHandler(t, formatKV)
	slog.New(h).Info("op", slog.Duration("duration", 1500*time.Millisecond), slog.Duration("wait", 20*time.Millisecond))
	line := drain(t, aw, buf)
	assert.Contains(t, line, "duration_ms=1500")
	assert.Contains(t, line, "wait_ms=20")
}

func TestAlertHookForwardsErrors(t *testing.T) {
	var (
		mu   sync.Mutex
		got  []string
		seen []string
	)
	SetAlertHook(func(component string, line []byte) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, component)
		got = append(got, string(line))
	})
	t.Cleanup(func() { SetAlertHook(nil) })

	h, aw, buf := newTestHandler(t, formatKV)
	log := slog.New(h)
	log.With("component", "commerce").Error("cart.fetch", slog.String("err", "boom"))
	log.With("component", "commerce").Warn("cart.slow")
	log.With("component", "tg.sender").Error("send.failed")
	log.With("component", "tg.alert").Error("alert.failed")
	_ = drain(t, aw, buf)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"commerce"}, seen)
	assert.Contains(t, got[0], "event=cart.fetch")
	assert.Contains(t, got[0], "err=boom")
}

func TestCompactRIDKeepsUnknownFormat(t *testing.T) {
	assert.Equal(t, "abc", CompactRID("abc"))
	assert.Equal(t, "1:x:3", CompactRID("1:x:3"))
	assert.Equal(t, "a.b.c", CompactRID("10:11:12"))
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "héllo", SanitizeLimit("h\u200béllo\x00 world", 5))
	assert.Equal(t, "", SanitizeLimit("x", 0))
}
