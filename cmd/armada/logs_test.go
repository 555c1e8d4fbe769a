package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/nauticalops/armada/daemon"
)

func TestScanPrefixed_PrefixesEachLine(t *testing.T) {
	var buf bytes.Buffer
	scanPrefixed(&buf, "web-1", strings.NewReader("line one\nline two\n"))
	got := buf.String()
	if got != "web-1 | line one\nweb-1 | line two\n" {
		t.Errorf("got %q", got)
	}
}

type fakeLogsClient struct {
	logs io.ReadCloser
}

func (f *fakeLogsClient) Pull(ctx context.Context, image string, auth daemon.RegistryAuth) error {
	return nil
}
func (f *fakeLogsClient) ImageExists(ctx context.Context, image string) (bool, error) { return true, nil }
func (f *fakeLogsClient) Create(ctx context.Context, name string, cfg daemon.ContainerSpec) (string, error) {
	return name, nil
}
func (f *fakeLogsClient) Start(ctx context.Context, id string) error           { return nil }
func (f *fakeLogsClient) Stop(ctx context.Context, id string, timeout int) error { return nil }
func (f *fakeLogsClient) Remove(ctx context.Context, id string, force bool) error { return nil }
func (f *fakeLogsClient) Inspect(ctx context.Context, nameOrID string) (daemon.Status, error) {
	return daemon.Status{Exists: true, Running: true}, nil
}
func (f *fakeLogsClient) Logs(ctx context.Context, nameOrID string, opts daemon.LogOptions) (io.ReadCloser, error) {
	return f.logs, nil
}
func (f *fakeLogsClient) Close() error { return nil }

func TestTailInstance_DemuxesStdoutAndStderr(t *testing.T) {
	var framed bytes.Buffer
	stdoutW := stdcopy.NewStdWriter(&framed, stdcopy.Stdout)
	stdoutW.Write([]byte("hello from stdout\n"))
	stderrW := stdcopy.NewStdWriter(&framed, stdcopy.Stderr)
	stderrW.Write([]byte("oops from stderr\n"))

	client := &fakeLogsClient{logs: io.NopCloser(bytes.NewReader(framed.Bytes()))}

	output := captureStdout(t, func() {
		if err := tailInstance(context.Background(), "web-1", client, false, 200); err != nil {
			t.Fatal(err)
		}
	})

	if !strings.Contains(output, "web-1 | hello from stdout") {
		t.Errorf("expected demuxed stdout line, got:\n%s", output)
	}
	if !strings.Contains(output, "web-1 | oops from stderr") {
		t.Errorf("expected demuxed stderr line, got:\n%s", output)
	}
}
