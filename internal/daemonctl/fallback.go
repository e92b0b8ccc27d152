package daemonctl

import (
	"fmt"

	"fieldsync/internal/queue"
)

// Session represents a queue access handle and its cleanup function.
type Session struct {
	Access Access
	Daemon bool
	close  func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// StoreOpener opens the queue store for direct access alongside an optional
// syncer used when no daemon is available.
type StoreOpener func() (*queue.Store, *queue.Queue, error)

// OpenWithFallback tries daemon API access first, then falls back to direct
// store access.
func OpenWithFallback(dial func() (*Client, error), openStore StoreOpener) (Session, error) {
	if dial != nil {
		if client, err := dial(); err == nil {
			return Session{
				Access: NewAPIAccess(client),
				Daemon: true,
				close:  client.Close,
			}, nil
		}
	}

	if openStore == nil {
		return Session{}, fmt.Errorf("open queue store: no store opener configured")
	}
	store, syncer, err := openStore()
	if err != nil {
		return Session{}, fmt.Errorf("open queue store: %w", err)
	}
	return Session{
		Access: NewStoreAccess(store, syncer),
		close:  store.Close,
	}, nil
}
