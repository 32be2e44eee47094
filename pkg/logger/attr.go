package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Attribute keys shared by every package that logs through this one.
const (
	KeyError      = "error"
	KeyErrors     = "errors"
	KeyCallerID   = "caller_id"
	KeyEntity     = "entity"
	KeyEntityID   = "entity_id"
	KeyAdapter    = "adapter"
	KeyGeneration = "generation"
	KeyField      = "field"
	KeyFlag       = "flag"
	KeyDuration   = "duration"
	KeyComponent  = "component"
	KeyEvent      = "event"
)

// Group nests attrs under name.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors nests the non-nil errs under KeyErrors, keyed by their position.
// It returns the empty Attr, which slog drops, when every err is nil.
func Errors(errs ...error) slog.Attr {
	var nested []slog.Attr
	for i, err := range errs {
		if err == nil {
			continue
		}
		nested = append(nested, slog.Any(strconv.Itoa(i), err))
	}
	if nested == nil {
		return slog.Attr{}
	}
	return Group(KeyErrors, nested...)
}

// Error is a nil-safe error attribute.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any(KeyError, err)
}

// CallerID is omitted for anonymous callers.
func CallerID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String(KeyCallerID, id)
}

// EntityKey names the data layer, e.g. "wigg-likes".
func EntityKey(key string) slog.Attr { return slog.String(KeyEntity, key) }

// EntityID is the instance the data layer is serving.
func EntityID(id string) slog.Attr { return slog.String(KeyEntityID, id) }

func Adapter(name string) slog.Attr { return slog.String(KeyAdapter, name) }

// Generation is the hook request counter; newer generations supersede older ones.
func Generation(gen uint64) slog.Attr { return slog.Uint64(KeyGeneration, gen) }

func Field(name string) slog.Attr { return slog.String(KeyField, name) }

func Flag(key string) slog.Attr { return slog.String(KeyFlag, key) }

func Duration(d time.Duration) slog.Attr { return slog.Duration(KeyDuration, d) }

func Component(name string) slog.Attr { return slog.String(KeyComponent, name) }

func Event(name string) slog.Attr { return slog.String(KeyEvent, name) }
