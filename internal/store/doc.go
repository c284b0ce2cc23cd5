// Package store provides typed access to the document store.
//
// A Store wraps a driver Backend (MongoDB or in-memory) and applies a
// per-call deadline, tracing and metrics to every operation. Resource kinds
// obtain a Collection[T] with NewCollection and work with typed records;
// mutations return the store's own acknowledgement objects unchanged.
package store
