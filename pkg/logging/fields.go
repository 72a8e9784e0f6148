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

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Component field helpers for common engine fields
func Component(name string) Field {
	return String("component", name)
}

func Qubit(id int) Field {
	return Int("qubit", id)
}

func SliceIndex(t int) Field {
	return Int("slice", t)
}

func Slices(n int) Field {
	return Int("slices", n)
}

func Qubits(n int) Field {
	return Int("qubits", n)
}

func Edges(n int) Field {
	return Int("edges", n)
}

func Clusters(n int) Field {
	return Int("clusters", n)
}

func Iterations(n int) Field {
	return Int("iterations", n)
}

func Generation(g uint64) Field {
	return Field{Key: "generation", Value: g}
}

func RunID(id string) Field {
	return String("run_id", id)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

func Path(p string) Field {
	return String("path", p)
}
