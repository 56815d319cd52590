package transfer

import (
	"context"
	"sync"
)

// keyLocks serializes transfers per bucket/key.
type keyLocks struct {
	mu   sync.Mutex
	held map[string]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{held: make(map[string]*keyLock)}
}

// acquire blocks until bucket/key is free or ctx is done. The returned
// function releases the lock.
func (l *keyLocks) acquire(ctx context.Context, bucket, key string) (func(), error) {
	id := bucket + "/" + key

	l.mu.Lock()
	kl, ok := l.held[id]
	if !ok {
		kl = &keyLock{sem: make(chan struct{}, 1)}
		l.held[id] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.sem <- struct{}{}:
		return func() {
			<-kl.sem
			l.unref(id, kl)
		}, nil
	case <-ctx.Done():
		l.unref(id, kl)
		return nil, ctx.Err()
	}
}

func (l *keyLocks) unref(id string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.held, id)
	}
}
