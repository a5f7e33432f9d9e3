// Package lockmgr implements an in-process keyed locking mechanism. Each key
// gets its own blocking mutex, so holders of different keys never wait for
// each other while holders of the same key are totally ordered.
//
// The store routes of the server use the absolute path of their backing file
// as key. Two routes sharing one file therefore share one lock, and the whole
// load, mutate and save sequence of a request runs under it.
//
// Core Functionality:
//   - Blocking acquisition (AcquireLock) for request handlers
//   - Non-blocking acquisition (TryAcquireLock) for callers that would rather
//     fail than wait
//   - Idempotent release functions
//
// Implementation Approach:
//
//	Mutexes are kept in an xsync.MapOf and created with LoadOrCompute, which
//	guarantees that concurrent first users of a key end up with the same
//	mutex. Mutexes are never removed: the number of keys is bounded by the
//	number of configured store files.
//
// Usage Example:
//
//	locks := lockmgr.NewLockManager()
//
//	release := locks.AcquireLock("/srv/mock/users.json")
//	defer release()
//	// load, mutate and save the store
//
// Thread Safety:
//
//	All methods are safe for concurrent use.
package lockmgr
