package health

import (
	"context"
	"fmt"
)

// Pinger is implemented by storage backends.
type Pinger interface {
	Ping(ctx context.Context) error
	Backend() string
}

// StorageChecker checks the project store's connectivity.
type StorageChecker struct {
	pinger Pinger
}

// NewStorageChecker creates a new storage health checker.
func NewStorageChecker(p Pinger) *StorageChecker {
	return &StorageChecker{pinger: p}
}

// Name returns the checker name.
func (c *StorageChecker) Name() string {
	if c.pinger == nil {
		return "storage"
	}
	return "storage:" + c.pinger.Backend()
}

// Check verifies the store is reachable.
func (c *StorageChecker) Check(ctx context.Context) error {
	if c.pinger == nil {
		return fmt.Errorf("storage not initialized")
	}
	return c.pinger.Ping(ctx)
}

// QueueDepth reports how many writes are waiting to reach the store.
type QueueDepth func() int

// WriteQueueChecker fails when the outbound write backlog grows past a
// threshold, which means the store has been unreachable for a while.
type WriteQueueChecker struct {
	depth QueueDepth
	max   int
}

// NewWriteQueueChecker creates a checker that fails above max pending writes.
func NewWriteQueueChecker(depth QueueDepth, max int) *WriteQueueChecker {
	return &WriteQueueChecker{depth: depth, max: max}
}

// Name returns the checker name.
func (c *WriteQueueChecker) Name() string {
	return "write_queue"
}

// Check compares the current backlog with the threshold.
func (c *WriteQueueChecker) Check(ctx context.Context) error {
	if c.depth == nil {
		return fmt.Errorf("write queue not running")
	}
	if n := c.depth(); c.max > 0 && n > c.max {
		return fmt.Errorf("%d writes pending (max %d)", n, c.max)
	}
	return nil
}
