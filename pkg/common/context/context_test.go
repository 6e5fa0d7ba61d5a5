package context

import (
	"context"
	"testing"
	"time"
)

func TestIsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	if IsCanceled(ctx) {
		t.Fatal("fresh context reported as canceled")
	}
	cancel()
	if !IsCanceled(ctx) {
		t.Fatal("canceled context not reported as canceled")
	}
	if IsTimedOut(ctx) {
		t.Fatal("explicit cancel reported as timeout")
	}
}

func TestWithTimeoutOrCancel(t *testing.T) {
	ctx, cancel := WithTimeoutOrCancel(context.Background(), 10*time.Millisecond)
	defer cancel()

	<-ctx.Done()
	if !IsTimedOut(ctx) {
		t.Fatalf("expected deadline exceeded, got %v", ctx.Err())
	}
}

func TestWithTimeoutOrCancel_NoTimeout(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := WithTimeoutOrCancel(parent, 0)
	defer cancel()

	if _, ok := ctx.Deadline(); ok {
		t.Fatal("zero timeout should not set a deadline")
	}
	cancelParent()
	<-ctx.Done()
	if !IsCanceled(ctx) {
		t.Fatal("child should follow parent cancellation")
	}
}
