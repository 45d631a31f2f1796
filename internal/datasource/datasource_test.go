package datasource

import (
	"context"
	"errors"
	"io"
	"testing"
)

func TestStringSource(t *testing.T) {
	t.Parallel()

	src := NewString("mem", "1.Apple\n")
	if src.Name() != "mem" {
		t.Fatalf("Name() = %q", src.Name())
	}
	for range 2 {
		rc, err := src.Open(context.Background())
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		got, _ := io.ReadAll(rc)
		_ = rc.Close()
		if string(got) != "1.Apple\n" {
			t.Fatalf("got %q", got)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Open(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Open on canceled ctx = %v", err)
	}
}
