package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Strings(key string, values []string) Field {
	return Field{Key: key, Value: values}
}

// Domain field helpers

func Component(name string) Field {
	return String("component", name)
}

// ElementID names a graph element: a zone name or a derived portal edge id.
func ElementID(id string) Field {
	return String("element_id", id)
}

// Kind is "node" or "edge".
func Kind(kind string) Field {
	return String("kind", kind)
}

// Pass correlates the log lines of one reconciliation pass.
func Pass(id string) Field {
	return String("pass", id)
}

func Operation(op string) Field {
	return String("operation", op)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}
