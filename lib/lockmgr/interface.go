package lockmgr

// ILockManager defines the interface for a keyed lock provider.
type ILockManager interface {
	// AcquireLock blocks until the lock for the given key is held by the caller.
	// The returned release function unlocks it and is safe to call more than once.
	AcquireLock(key string) (release func())

	// TryAcquireLock acquires the lock for the given key if it is free.
	// ok is false if the lock is currently held, release is nil in that case.
	TryAcquireLock(key string) (release func(), ok bool)

	// Len returns the number of keys a lock has ever been created for
	Len() int
}
