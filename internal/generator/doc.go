// Package generator writes a large file of random "<sequence>.<phrase>" lines
// up to an exact byte size.
//
// Concurrency model:
//
//	N Producers (fill pooled buffers, reserve bytes from a shared budget)
//	     → Channel (bounded, N*8 slots; Send blocks when full)
//	     → 1 Consumer (writes buffers, truncates at the target, releases buffers)
//
// Generator.Generate is the coordinator. Its ordering is the one protocol the
// package depends on: start the consumer, start the producers, wait for every
// producer, close the channel, wait for the consumer. Closing early drops
// data; waiting on the consumer first deadlocks once the channel fills.
//
// Buffers travel pool → producer → channel → consumer → pool and are released
// exactly once (see bufpool.Buffer).
package generator

import "context"

// Worker is a unit of work run by the coordinator. Producers and the
// consumer both implement it.
type Worker interface {
	Run(ctx context.Context) error
}

// Options mirrors the generator configuration section.
type Options struct {
	OutputPath string
	TargetSize uint64
	Workers    int
	BufferSize int

	// Strict enables compare-and-swap budget reservation; see State.TryCommit.
	Strict bool
}
