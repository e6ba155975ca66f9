// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about editor sessions, child synchronization,
// and store operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This keeps the core library free of observability-framework imports while
// allowing different backends (OpenTelemetry, Prometheus, plain logs).
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetEditorHooks(&myEditorHooks{})
//	    observability.SetSyncHooks(&mySyncHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Sync().OnSyncComplete(ctx, parentID, created, updated, retired, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// EditorHooks receives events from interactive editing sessions.
type EditorHooks interface {
	// OnSessionOpen records a session opening over a parent card.
	OnSessionOpen(ctx context.Context, parentID string, rectCount int)

	// OnRectDrawn records a completed draw gesture that produced a rectangle.
	OnRectDrawn(ctx context.Context, parentID, rectID string)

	// OnRectDeleted records an immediate rectangle deletion.
	OnRectDeleted(ctx context.Context, parentID, rectID string)

	// OnSessionClose records a session ending, saved or discarded.
	OnSessionClose(ctx context.Context, parentID string, saved bool)
}

// SyncHooks receives events from the child synchronizer.
type SyncHooks interface {
	// OnSyncComplete records one synchronization pass over a parent.
	OnSyncComplete(ctx context.Context, parentID string, created, updated, retired int, duration time.Duration, err error)
}

// StoreHooks receives events from persistence backends.
type StoreHooks interface {
	// OnPersist records a durable persistence call.
	OnPersist(ctx context.Context, backend string, duration time.Duration, err error)
}

// NoopEditorHooks is a no-op implementation of EditorHooks.
type NoopEditorHooks struct{}

func (NoopEditorHooks) OnSessionOpen(context.Context, string, int)    {}
func (NoopEditorHooks) OnRectDrawn(context.Context, string, string)   {}
func (NoopEditorHooks) OnRectDeleted(context.Context, string, string) {}
func (NoopEditorHooks) OnSessionClose(context.Context, string, bool)  {}

// NoopSyncHooks is a no-op implementation of SyncHooks.
type NoopSyncHooks struct{}

func (NoopSyncHooks) OnSyncComplete(context.Context, string, int, int, int, time.Duration, error) {
}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnPersist(context.Context, string, time.Duration, error) {}

var (
	editorHooks EditorHooks = NoopEditorHooks{}
	syncHooks   SyncHooks   = NoopSyncHooks{}
	storeHooks  StoreHooks  = NoopStoreHooks{}
	hooksMu     sync.RWMutex
)

// SetEditorHooks registers custom editor hooks.
// This should be called once at application startup before any sessions open.
func SetEditorHooks(h EditorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		editorHooks = h
	}
}

// SetSyncHooks registers custom synchronizer hooks.
// This should be called once at application startup before any saves.
func SetSyncHooks(h SyncHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		syncHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any store use.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Editor returns the registered editor hooks.
func Editor() EditorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return editorHooks
}

// Sync returns the registered synchronizer hooks.
func Sync() SyncHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return syncHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	editorHooks = NoopEditorHooks{}
	syncHooks = NoopSyncHooks{}
	storeHooks = NoopStoreHooks{}
}
