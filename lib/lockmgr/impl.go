package lockmgr

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

type lockMgrImpl struct {
	locks *xsync.MapOf[string, *sync.Mutex]
}

// NewLockManager creates a new lock manager without any locks.
// Locks are created lazily on first use and live as long as the manager.
func NewLockManager() ILockManager {
	return &lockMgrImpl{
		locks: xsync.NewMapOf[string, *sync.Mutex](),
	}
}

func (lm *lockMgrImpl) AcquireLock(key string) func() {
	mu := lm.mutex(key)
	mu.Lock()
	return releaseOnce(mu)
}

func (lm *lockMgrImpl) TryAcquireLock(key string) (func(), bool) {
	mu := lm.mutex(key)
	if !mu.TryLock() {
		return nil, false
	}
	return releaseOnce(mu), true
}

func (lm *lockMgrImpl) Len() int {
	return lm.locks.Size()
}

// mutex returns the mutex for key, creating it atomically if necessary
func (lm *lockMgrImpl) mutex(key string) *sync.Mutex {
	mu, _ := lm.locks.LoadOrCompute(key, func() *sync.Mutex {
		return &sync.Mutex{}
	})
	return mu
}

func releaseOnce(mu *sync.Mutex) func() {
	var once sync.Once
	return func() {
		once.Do(mu.Unlock)
	}
}
