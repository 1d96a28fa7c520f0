// Package transport declares the message-passing contract the core
// composition code (radixk and the sortlast façade) is written against. The core
// never implements a transport itself (spec §1 Non-goals); production
// callers plug in their own Transport backed by whatever message-passing
// layer the cluster runs (MPI, a custom RDMA fabric, etc.).
package transport

import "context"

// Request is an opaque handle to an in-flight non-blocking operation,
// returned by Isend/Irecv and consumed by WaitAny/WaitAll.
type Request interface {
	// Done reports whether the operation has already completed. Polling
	// Done is never required for correctness — WaitAny/WaitAll are the
	// only blocking primitives the core relies on — but implementations
	// may expose it for diagnostics.
	Done() bool
}

// Transport is the inbound collaborator interface spec §6 names:
// non-blocking send/recv, wait-any, wait-all, a blocking send, and
// gather. Reliable, in-order delivery per (source, destination, tag) is
// assumed; no message size cap beyond the declared byte count.
type Transport interface {
	// Isend starts a non-blocking send of buf to peer tagged tag.
	Isend(ctx context.Context, buf []byte, peer int, tag int) (Request, error)
	// Irecv starts a non-blocking receive into buf from peer tagged tag.
	// buf must already be sized to the expected message (spec §4.2 step
	// 5: receive slots are pre-sized via
	// sparseimage.SplitPartitionNumPixels before posting).
	Irecv(ctx context.Context, buf []byte, peer int, tag int) (Request, error)
	// WaitAny blocks until at least one of reqs completes and returns its
	// index.
	WaitAny(ctx context.Context, reqs []Request) (int, error)
	// WaitAll blocks until every request in reqs has completed.
	WaitAll(ctx context.Context, reqs []Request) error
	// Send performs a blocking send of buf to peer tagged tag.
	Send(ctx context.Context, buf []byte, peer int, tag int) error
	// Gather collects buf from every rank in group into the returned
	// slice (indexed the same as group), landing on every caller (an
	// allgather), as used by the sortlast façade to collect every group
	// member's composited piece.
	Gather(ctx context.Context, group []int, buf []byte) ([][]byte, error)
}
