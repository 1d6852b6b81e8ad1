package worker

import (
	"context"
	"testing"
	"time"
)

func TestSubmitRunsJob(t *testing.T) {
	p := New(1)
	defer p.Close()

	done := make(chan string, 1)
	ok := p.Submit(context.Background(), "test", func(ctx context.Context) {
		done <- "ran"
	})
	if !ok {
		t.Fatal("Expected submit to succeed on an idle pool")
	}
	select {
	case got := <-done:
		if got != "ran" {
			t.Fatalf("Expected ran, got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Job did not run")
	}
}

func TestSubmitDropsWhenQueueFull(t *testing.T) {
	p := New(1)
	defer p.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	p.Submit(context.Background(), "blocker", func(ctx context.Context) {
		close(started)
		<-release
	})
	<-started

	// Worker is busy; the first submit fills the single slot, the second is dropped.
	if !p.Submit(context.Background(), "queued", func(ctx context.Context) {}) {
		t.Fatal("Expected the queue slot to accept one job")
	}
	if p.Submit(context.Background(), "dropped", func(ctx context.Context) {}) {
		t.Fatal("Expected submit to be dropped when the slot is full")
	}
	close(release)
}

func TestJobReceivesContext(t *testing.T) {
	p := New(1)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := make(chan error, 1)
	p.Submit(ctx, "ctx", func(ctx context.Context) { got <- ctx.Err() })
	select {
	case err := <-got:
		if err != context.Canceled {
			t.Fatalf("Expected canceled context, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Job did not run")
	}
}
