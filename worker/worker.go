package worker

import "context"

// Worker runs until ctx is cancelled.
type Worker interface {
	Start(ctx context.Context) error
}
