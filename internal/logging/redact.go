package logging

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const redacted = "[REDACTED]"

// RedactedString logs the length of val without its content.
func RedactedString(key, val string) zap.Field {
	return zap.String(key, "[REDACTED:"+strconv.Itoa(len(val))+"]")
}

// redactingEncoder hides configured field names and scrubs string values
// before they reach the wrapped encoder.
type redactingEncoder struct {
	zapcore.Encoder
	keys     map[string]struct{}
	scrubber Scrubber
}

func newRedactingEncoder(base zapcore.Encoder, cfg RedactionConfig, scrubber Scrubber) zapcore.Encoder {
	if !cfg.Enabled {
		return base
	}
	keys := make(map[string]struct{}, len(cfg.Fields))
	for _, f := range cfg.Fields {
		keys[strings.ToLower(f)] = struct{}{}
	}
	return &redactingEncoder{Encoder: base, keys: keys, scrubber: scrubber}
}

func (e *redactingEncoder) hidden(key string) bool {
	_, ok := e.keys[strings.ToLower(key)]
	return ok
}

func (e *redactingEncoder) scrub(val string) string {
	if e.scrubber == nil {
		return val
	}
	return e.scrubber.Scrub(val)
}

func (e *redactingEncoder) field(f zapcore.Field) zapcore.Field {
	switch {
	case e.hidden(f.Key):
		return zap.String(f.Key, redacted)
	case f.Type == zapcore.StringType:
		f.String = e.scrub(f.String)
	}
	return f
}

// EncodeEntry covers fields passed at the log call site.
func (e *redactingEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		out[i] = e.field(f)
	}
	ent.Message = e.scrub(ent.Message)
	return e.Encoder.EncodeEntry(ent, out)
}

// The Add methods cover fields attached through Logger.With.

func (e *redactingEncoder) AddString(key, val string) {
	if e.hidden(key) {
		val = redacted
	}
	e.Encoder.AddString(key, e.scrub(val))
}

func (e *redactingEncoder) AddByteString(key string, val []byte) {
	e.AddString(key, string(val))
}

func (e *redactingEncoder) AddReflected(key string, val any) error {
	if e.hidden(key) {
		e.Encoder.AddString(key, redacted)
		return nil
	}
	return e.Encoder.AddReflected(key, val)
}

func (e *redactingEncoder) AddArray(key string, arr zapcore.ArrayMarshaler) error {
	if e.hidden(key) {
		e.Encoder.AddString(key, redacted)
		return nil
	}
	return e.Encoder.AddArray(key, arr)
}

func (e *redactingEncoder) AddObject(key string, obj zapcore.ObjectMarshaler) error {
	if e.hidden(key) {
		e.Encoder.AddString(key, redacted)
		return nil
	}
	return e.Encoder.AddObject(key, obj)
}

func (e *redactingEncoder) Clone() zapcore.Encoder {
	return &redactingEncoder{
		Encoder:  e.Encoder.Clone(),
		keys:     e.keys,
		scrubber: e.scrubber,
	}
}
