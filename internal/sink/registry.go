package sink

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/dbroute/internal/config"
)

// Factory builds a sink from the target settings. It validates its own
// config record and returns a ConfigError before touching the network.
type Factory func(ctx context.Context, targets config.Targets) (Sink, error)

var (
	mu        sync.RWMutex
	factories = map[Kind]Factory{}
)

// Register makes a store available under kind. Call it from init().
//
// Panics if kind is empty, f is nil, or kind is already registered.
func Register(kind Kind, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("sink: Register called with empty kind")
	}
	if f == nil {
		panic("sink: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("sink: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// Registered returns the kinds that currently have a factory, sorted.
func Registered() []Kind {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]Kind, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Dispatch returns the sink for d. The graph store addresses an endpoint
// from config, so only the other kinds require d.Name.
func Dispatch(ctx context.Context, d Descriptor, targets config.Targets) (Sink, error) {
	mu.RLock()
	f := factories[d.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, &UnsupportedTargetError{Target: string(d.Kind)}
	}
	if d.Kind != Graph && strings.TrimSpace(d.Name) == "" {
		return nil, &ConfigError{Kind: d.Kind, Fields: []string{"table_name"}}
	}
	return f(ctx, targets)
}

// unregister removes kind; tests use it to restore the registry.
func unregister(kind Kind) {
	mu.Lock()
	defer mu.Unlock()
	delete(factories, kind)
}
