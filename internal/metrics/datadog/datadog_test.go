package datadog

import (
	"net"
	"reflect"
	"strings"
	"testing"
	"time"

	"linesort/internal/metrics"
)

func TestNewBackendRequiresAddr(t *testing.T) {
	t.Parallel()

	if b, err := NewBackend(Config{}); err == nil || b != nil {
		t.Fatalf("NewBackend(empty) = %v, %v; want nil, error", b, err)
	}
}

func TestLabelsToTags(t *testing.T) {
	t.Parallel()

	if got := labelsToTags(nil); got != nil {
		t.Fatalf("labelsToTags(nil) = %v, want nil", got)
	}
	got := labelsToTags(metrics.Labels{"step": "merge", "job": "nightly", "status": "success"})
	want := []string{"job:nightly", "status:success", "step:merge"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("labelsToTags = %v, want %v", got, want)
	}
}

// TestSendsToAgent points the backend at a local UDP socket standing in for
// the DogStatsD agent.
func TestSendsToAgent(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp listen: %v", err)
	}
	defer conn.Close()

	b, err := NewBackend(Config{Addr: conn.LocalAddr().String(), Namespace: "batch.", GlobalTags: []string{"env:test"}})
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	defer b.Close()

	metrics.SetBackend(b)
	metrics.RecordRecords("nightly", metrics.KindMergedLines, 42)
	b.ObserveHistogram(metrics.StepDurationSeconds, 0.25, metrics.Labels{"step": "merge"})
	if err := metrics.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var got strings.Builder
	buf := make([]byte, 4096)
	deadline := time.Now().Add(2 * time.Second)
	// Counter and histogram may arrive in separate datagrams.
	for !(strings.Contains(got.String(), "|h") && strings.Contains(got.String(), "|c")) && time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			break
		}
		got.Write(buf[:n])
	}

	payload := got.String()
	for _, want := range []string{
		"batch." + metrics.RecordsTotal + ":42|c",
		"kind:" + metrics.KindMergedLines,
		"env:test",
		"batch." + metrics.StepDurationSeconds + ":0.25|h",
	} {
		if !strings.Contains(payload, want) {
			t.Fatalf("payload %q does not contain %q", payload, want)
		}
	}
}
