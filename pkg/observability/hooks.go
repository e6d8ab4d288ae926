// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Hosts can register hooks
// at startup to receive events about editor mutations, layout runs, and
// interaction gestures.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach avoids import cycles (hooks are registered by main, not by
// libraries) and keeps the core library free of observability frameworks.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetEditorHooks(&myEditorHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Editor().OnLayoutStart(ctx, engine, nodeCount)
//	// ... run layout ...
//	observability.Editor().OnLayoutComplete(ctx, engine, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Editor Hooks
// =============================================================================

// EditorHooks receives events from editor instances.
type EditorHooks interface {
	// Mutation events
	OnMutation(ctx context.Context, instanceID, kind string, nodeCount, edgeCount int)

	// Layout events
	OnLayoutStart(ctx context.Context, engine string, nodeCount int)
	OnLayoutComplete(ctx context.Context, engine string, duration time.Duration, err error)
}

// =============================================================================
// Interaction Hooks
// =============================================================================

// InteractionHooks receives events from pointer gesture handling.
type InteractionHooks interface {
	// OnGesture records a completed gesture (drag, pan, edge-draw, zoom).
	OnGesture(ctx context.Context, gesture string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEditorHooks is a no-op implementation of EditorHooks.
type NoopEditorHooks struct{}

func (NoopEditorHooks) OnMutation(context.Context, string, string, int, int)           {}
func (NoopEditorHooks) OnLayoutStart(context.Context, string, int)                     {}
func (NoopEditorHooks) OnLayoutComplete(context.Context, string, time.Duration, error) {}

// NoopInteractionHooks is a no-op implementation of InteractionHooks.
type NoopInteractionHooks struct{}

func (NoopInteractionHooks) OnGesture(context.Context, string) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	editorHooks      EditorHooks      = NoopEditorHooks{}
	interactionHooks InteractionHooks = NoopInteractionHooks{}
	hooksMu          sync.RWMutex
)

// SetEditorHooks registers custom editor hooks.
// This should be called once at application startup before any editor operations.
func SetEditorHooks(h EditorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		editorHooks = h
	}
}

// SetInteractionHooks registers custom interaction hooks.
// This should be called once at application startup before any pointer events.
func SetInteractionHooks(h InteractionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		interactionHooks = h
	}
}

// Editor returns the registered editor hooks.
func Editor() EditorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return editorHooks
}

// Interaction returns the registered interaction hooks.
func Interaction() InteractionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return interactionHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	editorHooks = NoopEditorHooks{}
	interactionHooks = NoopInteractionHooks{}
}
