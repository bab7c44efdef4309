package main

import (
	"context"
	"log"
)

// broadcastWorker fans out every BusSnapshot to both generator workers, so
// the relay (Generator0) and Fischer-Panda (FischerPanda0) instances share
// one Bus Monitor exactly as spec.md §2 requires. Non-blocking send with
// drop-on-full, adapted from the teacher's broadcast_worker.go.
func broadcastWorker(ctx context.Context, in <-chan *BusSnapshot, out []chan<- *BusSnapshot) {
	log.Println("broadcast worker started")
	for {
		select {
		case snap := <-in:
			for _, ch := range out {
				select {
				case ch <- snap:
				default:
					log.Println("broadcast worker: downstream channel full, dropping snapshot")
				}
			}
		case <-ctx.Done():
			log.Println("broadcast worker stopped")
			return
		}
	}
}
