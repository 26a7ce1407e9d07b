package domain

// Snapshotter is implemented by state holders that support call-boundary
// rollback. Snapshot returns a revision handle; RevertToSnapshot undoes
// every mutation made after that handle was taken.
//
// Handles are only valid until the next RevertToSnapshot with an earlier
// handle, mirroring the nested-revert semantics of an execution
// environment's call stack.
type Snapshotter interface {
	Snapshot() int
	RevertToSnapshot(int)
}
