package logger

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	tsLayout = "2006-01-02T15:04:05.000Z07:00"
)

var errNoWriter = errors.New("logger: writer not initialized")

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// structuredHandler renders a record as one flat line. Groups become dotted
// keys, durations become *_ms integers and keys follow keyOrder, with the
// rest sorted after them.
type structuredHandler struct {
	cfg    handlerConfig
	rank   map[string]int
	preset []slog.Attr
	prefix string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = defaultKeyOrder
	}
	rank := make(map[string]int, len(cfg.keyOrder))
	for i, k := range cfg.keyOrder {
		if _, dup := rank[k]; !dup {
			rank[k] = i
		}
	}
	return &structuredHandler{cfg: cfg, rank: rank}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.preset = append(slices.Clip(h.preset), h.qualify(attrs)...)
	return &next
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.join(name)
	return &next
}

func (h *structuredHandler) join(key string) string {
	if h.prefix == "" {
		return key
	}
	if key == "" {
		return h.prefix
	}
	return h.prefix + "." + key
}

// qualify applies the current group prefix to attrs added with WithAttrs.
func (h *structuredHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.prefix == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.join(a.Key), Value: a.Value}
	}
	return out
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errNoWriter
	}
	e := entry{}
	ts := r.Time.UTC()
	e["ts"] = ts.Truncate(time.Millisecond).Format(tsLayout)
	e["level"] = levelName(r.Level.String())
	if h.cfg.format == formatJSON {
		e["ts_unix_nano"] = ts.UnixNano()
	}
	for _, a := range h.preset {
		e.add("", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		e.add(h.prefix, a)
		return true
	})
	e.fromContext(ctx)
	e.finish(r.Message, h.cfg.format == formatJSON)

	var line []byte
	if h.cfg.format == formatJSON {
		var err error
		if line, err = h.encodeJSON(e); err != nil {
			return err
		}
	} else {
		line = h.encodeKV(e)
	}
	if r.Level >= slog.LevelError {
		forwardAlert(e.str("component"), line)
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

// entry is the flattened field set of one record.
type entry map[string]any

func (e entry) str(key string) string {
	switch v := e[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (e entry) add(prefix string, a slog.Attr) {
	key := a.Key
	if prefix != "" {
		key = strings.TrimSuffix(prefix+"."+key, ".")
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			e.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if k, val, ok := plain(key, v); ok {
		e[k] = val
	}
}

// fromContext fills correlation ids the record did not set itself.
func (e entry) fromContext(ctx context.Context) {
	m := metaFrom(ctx)
	fill := func(key string, val any, ok bool) {
		if _, set := e[key]; ok && !set {
			e[key] = val
		}
	}
	fill("rid", m.rid, m.rid != "")
	fill("update_id", int64(m.updateID), m.updateID != 0)
	fill("user_id", m.userID, m.userID != 0)
	fill("chat_id", m.chatID, m.chatID != 0)
	fill("handler", m.handler, m.handler != "")
}

func (e entry) finish(msg string, full bool) {
	if rid := e.str("rid"); rid != "" {
		if short := CompactRID(rid); short != rid {
			if _, set := e["rid_full"]; full && !set {
				e["rid_full"] = rid
			}
			e["rid"] = short
		}
	}
	if e.str("event") == "" {
		e["event"] = cmp.Or(msg, "unknown")
	}
	if e.str("component") == "" {
		e["component"] = "app"
	}
	e["level"] = levelName(e.str("level"))
	if s := e.str("status"); s != "" {
		e["status"] = statusName(s)
	}
	for k, v := range e {
		if v == nil || v == "" {
			delete(e, k)
		}
	}
}

// plain converts v into a JSON-friendly value. Durations are renamed to *_ms.
func plain(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return msKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return "", nil, false
	case error:
		return key, x.Error(), true
	case time.Duration:
		return msKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

func msKey(key string) string {
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}

func (h *structuredHandler) keys(e entry) []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		ra, oka := h.rank[a]
		rb, okb := h.rank[b]
		switch {
		case oka && okb:
			return ra - rb
		case oka:
			return -1
		case okb:
			return 1
		}
		return strings.Compare(a, b)
	})
	return keys
}

func (h *structuredHandler) encodeJSON(e entry) ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range h.keys(e) {
		val, err := json.Marshal(e[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %q: %w", k, err)
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// encodeKV writes key=value pairs. rid_full is JSON only.
func (h *structuredHandler) encodeKV(e entry) []byte {
	var b bytes.Buffer
	for _, k := range h.keys(e) {
		if k == "rid_full" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		s := fmt.Sprint(e[k])
		if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
			s = strconv.Quote(s)
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(s)
	}
	return b.Bytes()
}
