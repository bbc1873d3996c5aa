package presence

import (
	"context"

	"github.com/arnold-1324/twitterClone-sub000/internal/event"
)

// Conn is the transport handle stored per online user. TrySend is best-effort
// and must never block the caller; it reports whether the event was enqueued.
type Conn interface {
	TrySend(ev event.WsEvent) bool
}

// Registry maps a user identity to at most one active transport connection.
// A later Register for the same user replaces the earlier handle. Stale
// handles must never be returned by Lookup, which is why Unregister is
// conn-matched: the disconnect of a replaced connection does not evict the
// replacement.
type Registry interface {
	// Register stores c as the user's active handle, replacing any prior one.
	Register(ctx context.Context, userID string, c Conn) error

	// Unregister removes the user's entry if it still maps to c; a nil c
	// removes unconditionally. Idempotent.
	Unregister(ctx context.Context, userID string, c Conn) error

	// Lookup returns the user's active handle, if any.
	Lookup(ctx context.Context, userID string) (Conn, bool)

	// Online returns the ids of all currently registered users.
	Online(ctx context.Context) ([]string, error)

	// Watch registers fn to run after every membership change. Used by the
	// hub to rebroadcast the presence snapshot; the callback must not call
	// back into the registry's mutating methods.
	Watch(fn func())

	Close() error
}
