package main

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/nauticalops/armada/orchestrate"
)

func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stderr = w
	defer func() { os.Stderr = old }()

	fn()

	w.Close()
	data := make([]byte, 64*1024)
	n, _ := r.Read(data)
	return string(data[:n])
}

func TestStreamEvents_PrintsPublishedEvents(t *testing.T) {
	log := orchestrate.NewEventLog()
	ctx, cancel := context.WithCancel(context.Background())

	var output string
	output = captureStderr(t, func() {
		stop := streamEvents(ctx, log)
		log.Publish(orchestrate.Event{Type: orchestrate.EventInstanceStarting, Instance: "web-1", Ship: "vm1"})
		log.Publish(orchestrate.Event{Type: orchestrate.EventLevelStarted, Level: 0})
		time.Sleep(50 * time.Millisecond)
		cancel()
		stop()
	})

	if !strings.Contains(output, "instance=web-1") || !strings.Contains(output, "ship=vm1") {
		t.Errorf("expected instance event in output, got:\n%s", output)
	}
	if !strings.Contains(output, "level=0") {
		t.Errorf("expected level event in output, got:\n%s", output)
	}
}

func TestPrintEvent_IncludesErrorWhenSet(t *testing.T) {
	output := captureStderr(t, func() {
		printEvent(orchestrate.Event{Type: orchestrate.EventInstanceFailed, Instance: "web-1", Error: "boom", Time: time.Now()})
	})
	if !strings.Contains(output, `error="boom"`) {
		t.Errorf("expected error field in output, got: %s", output)
	}
}
