package logger

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/SergIvo/dvmn-fish-shop-bot/core/config"
)

func TestParseSampleRate(t *testing.T) {
	tests := []struct {
		spec string
		want *sampleRate
	}{
		{"", &sampleRate{keep: 1, every: 50}},
		{"off", nil},
		{"0", nil},
		{"1/10", &sampleRate{keep: 1, every: 10}},
		{" 3 / 4 ", &sampleRate{keep: 3, every: 4}},
		{"20", &sampleRate{keep: 1, every: 20}},
		{"5/5", nil},
		{"x/y", &sampleRate{keep: 1, every: 50}},
		{"0/7", &sampleRate{keep: 1, every: 50}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseSampleRate(tt.spec), tt.spec)
	}
}

func TestSamplerAllow(t *testing.T) {
	var s sampler
	s.Set(&sampleRate{keep: 1, every: 3})
	var got []bool
	for range 6 {
		got = append(got, s.Allow())
	}
	assert.Equal(t, []bool{true, false, false, true, false, false}, got)

	s.Set(nil)
	assert.True(t, s.Allow())
}

func TestResolveSettings(t *testing.T) {
	s := resolve(nil)
	assert.Equal(t, slog.LevelInfo, s.level)
	assert.Equal(t, formatJSON, s.format)
	assert.Equal(t, "prod", s.profile)

	cfg := &coreconfig.Config{}
	cfg.Logging.Level = "WARNING"
	cfg.Logging.Profile = "Dev"
	cfg.Logging.KeysOrder = "event, ts,,level"
	cfg.Logging.DebugSample = "off"
	cfg.Logging.Dir = "logs"
	cfg.Logging.BotFile = "bot.log"
	cfg.Session.Backend = "redis"

	s = resolve(cfg)
	assert.Equal(t, slog.LevelWarn, s.level)
	assert.Equal(t, formatKV, s.format)
	assert.Equal(t, []string{"event", "ts", "level"}, s.keyOrder)
	assert.Nil(t, s.sample)
	assert.Equal(t, filepath.Join("logs", "bot.log"), s.filePath)
	assert.Equal(t, "redis", s.backend)

	cfg.Logging.Format = "json"
	assert.Equal(t, formatJSON, resolve(cfg).format)
}

func TestAsyncWriterFansOut(t *testing.T) {
	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	w := newAsyncWriter([]io.Writer{a, nil, b}, 16)
	for _, line := range []string{"one\n", "two\n", "three\n"} {
		require.NoError(t, w.Write([]byte(line)))
	}
	require.NoError(t, w.Flush())
	assert.Equal(t, "one\ntwo\nthree\n", a.String())
	assert.Equal(t, a.String(), b.String())

	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), errWriterClosed)
	assert.NoError(t, w.Flush())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrShortWrite }

func TestAsyncWriterReportsSinkError(t *testing.T) {
	w := newAsyncWriter([]io.Writer{failingWriter{}}, 1)
	require.NoError(t, w.Write([]byte("x\n")))
	assert.ErrorIs(t, w.Flush(), io.ErrShortWrite)
	assert.ErrorIs(t, w.Write([]byte("y\n")), io.ErrShortWrite)
	assert.ErrorIs(t, w.Close(), io.ErrShortWrite)
}

func TestUtil(t *testing.T) {
	assert.Equal(t, "ok", Status(nil))
	assert.Equal(t, "fail", Status(io.EOF))
	assert.Equal(t, 2*time.Millisecond, RoundMS(1600*time.Microsecond))
	assert.Zero(t, RoundMS(-time.Second))

	s, cut := SummarizeStrings([]string{"a", "b", "c"}, 2)
	assert.Equal(t, "a, b", s)
	assert.True(t, cut)
	s, cut = SummarizeStrings([]string{"a"}, 2)
	assert.Equal(t, "a", s)
	assert.False(t, cut)
}

func TestStatusName(t *testing.T) {
	assert.Equal(t, "fail", statusName("Failed"))
	assert.Equal(t, "cancelled", statusName("canceled"))
	assert.Equal(t, "weird", statusName(" WEIRD "))
	assert.Equal(t, "WARN", levelName("warning"))
	assert.Equal(t, "INFO", levelName(""))
}
