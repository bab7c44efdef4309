package main

import (
	"context"
	"log"
	"time"
)

// snapshotWorker owns the single mutable BusSnapshot, folding raw bus
// messages into it and emitting an immutable clone once per tick, adapted
// from the teacher's statsWorker in stats.go. Owning the snapshot in one
// goroutine is what gives condition evaluators their "observe a consistent
// snapshot as of tick start" guarantee from the concurrency model.
func snapshotWorker(
	ctx context.Context,
	rawChan <-chan RawMessage,
	outChan chan<- *BusSnapshot,
	tickInterval time.Duration,
) {
	log.Println("snapshot worker started")

	snap := NewBusSnapshot()
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-rawChan:
			switch {
			case msg.IsNull:
				snap.SetNull(msg.Path, msg.At)
			default:
				if f, ok := parseScalar(msg.Payload); ok {
					snap.SetFloat(msg.Path, f, msg.At)
				} else {
					snap.SetString(msg.Path, msg.Payload, msg.At)
				}
			}

		case <-ticker.C:
			clone := snap.Clone()
			select {
			case outChan <- clone:
			default:
				// Downstream hasn't drained the previous tick; drop rather
				// than block the fold loop, matching the broadcast worker's
				// drop-on-full send.
			}

		case <-ctx.Done():
			log.Println("snapshot worker stopped")
			return
		}
	}
}
