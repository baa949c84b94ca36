package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
)

type logFormat string

const (
	formatJSON   logFormat = "json"
	formatKV     logFormat = "kv"
	formatPretty logFormat = "pretty"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
	// fluent receives a copy of every record's fields when set.
	fluent *fluent.Fluent
}

// scopedAttr remembers the group prefix an attribute was added under.
type scopedAttr struct {
	prefix string
	attr   slog.Attr
}

// structuredHandler writes one flat line per record with a stable key order.
// Groups are flattened into dotted keys and durations into *_ms integers.
type structuredHandler struct {
	cfg    handlerConfig
	attrs  []scopedAttr
	groups []string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = append([]string(nil), defaultKeyOrder...)
	}
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]scopedAttr(nil), h.attrs...)
	prefix := strings.Join(h.groups, ".")
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, scopedAttr{prefix: prefix, attr: a})
	}
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errors.New("logger: writer not initialized")
	}
	isJSON := h.cfg.format == formatJSON

	ts := r.Time.UTC()
	fields := fieldSet{
		"ts":    ts.Truncate(time.Millisecond).Format(timeFormatMillis),
		"level": normalizeLevel(r.Level.String()),
	}
	if isJSON {
		fields["ts_unix_nano"] = ts.UnixNano()
	}

	for _, sa := range h.attrs {
		fields.add(sa.prefix, sa.attr)
	}
	prefix := strings.Join(h.groups, ".")
	r.Attrs(func(a slog.Attr) bool {
		fields.add(prefix, a)
		return true
	})
	fields.addMeta(metaFrom(ctx))

	if rid := fields.str("rid"); rid != "" {
		if compact := CompactRID(rid); compact != rid {
			if isJSON {
				fields.setDefault("rid_full", rid)
			}
			fields["rid"] = compact
		}
	}
	if fields.str("event") == "" {
		event := r.Message
		if event == "" {
			event = "unknown"
		}
		fields["event"] = event
	}
	if fields.str("component") == "" {
		fields["component"] = "app"
	}
	fields.normalize()

	var line []byte
	if isJSON {
		var err error
		if line, err = encodeJSON(fields, h.cfg.keyOrder); err != nil {
			return err
		}
	} else {
		line = encodeKV(fields, h.cfg.keyOrder)
	}
	if _, err := h.cfg.writer.Write(line); err != nil {
		return err
	}
	if h.cfg.fluent != nil {
		// Best effort: stdout already has the line.
		_ = h.cfg.fluent.Post(fields.str("component"), map[string]any(fields))
	}
	return nil
}

// fieldSet is the flattened content of one log line.
type fieldSet map[string]any

func (f fieldSet) str(key string) string {
	switch v := f[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func (f fieldSet) setDefault(key string, v any) {
	if _, ok := f[key]; !ok {
		f[key] = v
	}
}

// add flattens attr under prefix, expanding groups into dotted keys.
func (f fieldSet) add(prefix string, attr slog.Attr) {
	key := attr.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if key == "" {
		key = prefix
	}
	v := attr.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			f.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if k, val, ok := flatValue(key, v); ok {
		f[k] = val
	}
}

func (f fieldSet) addMeta(m updateMeta) {
	if m.rid != "" {
		f.setDefault("rid", m.rid)
	}
	if m.updateID != 0 {
		f.setDefault("update_id", m.updateID)
	}
	if m.userID != 0 {
		f.setDefault("user_id", m.userID)
	}
	if m.chatID != 0 {
		f.setDefault("chat_id", m.chatID)
	}
	if m.handler != "" {
		f.setDefault("handler", m.handler)
	}
}

// normalize maps level, status and outcome onto their vocabularies and drops
// empty values.
func (f fieldSet) normalize() {
	f["level"] = normalizeLevel(f.str("level"))
	if s := f.str("status"); s != "" {
		f["status"], _ = normalizeStatus(s)
	}
	if o := f.str("outcome"); o != "" {
		if norm, ok := normalizeOutcome(o); ok {
			f["outcome"] = norm
		} else {
			delete(f, "outcome")
		}
	}
	for k := range f {
		if f.str(k) == "" {
			delete(f, k)
		}
	}
}

// flatValue converts v to a JSON-friendly scalar. Durations are written in
// whole milliseconds under a *_ms key.
func flatValue(key string, v slog.Value) (string, any, bool) {
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
		return key, nil, false
	case error:
		return key, x.Error(), true
	case string:
		return key, strings.TrimSpace(x), true
	case time.Duration:
		return msKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

func msKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}
