// Package gather defines the common shape of the pipeline's data-gathering
// jobs.
package gather

import (
	"context"
)

// Gatherer is the interface for all data gathering processes.
type Gatherer interface {
	// Name returns the gatherer identifier.
	Name() string
	// Run performs one complete gathering pass. It returns early with an
	// error when ctx is cancelled.
	Run(ctx context.Context) error
}
