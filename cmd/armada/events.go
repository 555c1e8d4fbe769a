package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nauticalops/armada/orchestrate"
)

// streamEvents prints every orchestration event to stderr as it's
// published, for the -v flag. Returns a func to stop the stream (the
// subscription itself stops when ctx is cancelled; this just lets the
// caller wait for the draining goroutine to exit cleanly).
func streamEvents(ctx context.Context, log *orchestrate.EventLog) func() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for evt := range log.Subscribe(ctx, 0) {
			printEvent(evt)
		}
	}()
	return func() { <-done }
}

func printEvent(evt orchestrate.Event) {
	switch {
	case evt.Instance != "":
		fmt.Fprintf(os.Stderr, "%s %s instance=%s ship=%s", evt.Time.Format("15:04:05.000"), evt.Type, evt.Instance, evt.Ship)
	case evt.Type == orchestrate.EventLevelStarted || evt.Type == orchestrate.EventLevelCompleted:
		fmt.Fprintf(os.Stderr, "%s %s level=%d", evt.Time.Format("15:04:05.000"), evt.Type, evt.Level)
	default:
		fmt.Fprintf(os.Stderr, "%s %s", evt.Time.Format("15:04:05.000"), evt.Type)
	}
	if evt.Error != "" {
		fmt.Fprintf(os.Stderr, " error=%q", evt.Error)
	}
	fmt.Fprintln(os.Stderr)
}
