package main

import (
	"context"
	"log"
	"time"
)

// SafeGo launches a worker goroutine with panic recovery and retry logic,
// adapted from the teacher's main.go. Every component of the data flow in
// spec.md §2 is started through this wrapper, so one evaluator panic can
// never take down the whole daemon silently.
//
// On panic, the worker restarts with exponential backoff (capped at 10
// retries); the retry counter resets if the worker ran healthily for at
// least resetAfter before failing again. Exhausting retries cancels ctx,
// which unwinds the rest of the daemon through their own ctx.Done() cases.
func SafeGo(
	ctx context.Context,
	cancel context.CancelFunc,
	name string,
	fn func(ctx context.Context),
) {
	const maxRetries = 10
	const maxDelay = 10 * time.Minute
	const resetAfter = 2 * time.Minute

	go func() {
		retries := 0
		delay := time.Second

		for {
			startTime := time.Now()
			var panicValue any

			func() {
				defer func() {
					panicValue = recover()
				}()
				fn(ctx)
			}()

			if panicValue == nil {
				return
			}

			if time.Since(startTime) >= resetAfter {
				retries = 0
				delay = time.Second
			}

			retries++
			log.Printf("panic in %s (attempt %d/%d): %v\n", name, retries, maxRetries, panicValue)

			if retries >= maxRetries {
				log.Printf("%s failed after %d retries, shutting down\n", name, maxRetries)
				cancel()
				return
			}

			log.Printf("%s will retry in %v\n", name, delay)
			select {
			case <-time.After(delay):
				delay = min(delay*2, maxDelay)
			case <-ctx.Done():
				return
			}
		}
	}()
}
