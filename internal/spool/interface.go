package spool

import "context"

// Watcher monitors the spool directory for dropped raw capture files and
// replays them through the utterance pipeline.
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}
