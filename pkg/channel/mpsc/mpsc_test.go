package mpsc

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/wakeflow/internal/testutil"
	"github.com/vnykmshr/wakeflow/pkg/channel"
	wferrors "github.com/vnykmshr/wakeflow/pkg/common/errors"
	"github.com/vnykmshr/wakeflow/pkg/metrics"
)

func TestSendRecv_FIFO(t *testing.T) {
	tx, rx := New[int]()
	defer rx.Close()
	defer tx.Close()

	for i := 0; i < 100; i++ {
		testutil.AssertNoError(t, tx.Send(i))
	}
	testutil.AssertEqual(t, rx.Len(), 100)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	for i := 0; i < 100; i++ {
		v, ok, err := rx.Recv(ctx)
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, ok, true)
		testutil.AssertEqual(t, v, i)
	}
}

func TestSenderDropped_EndsStream(t *testing.T) {
	tx, rx := New[struct{}]()
	defer rx.Close()
	tx.Close()

	_, ok, err := rx.Recv(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ok, false)
}

func TestSenderDropped_DrainsBeforeEnd(t *testing.T) {
	tx, rx := New[int]()
	defer rx.Close()

	testutil.AssertNoError(t, tx.Send(1))
	testutil.AssertNoError(t, tx.Send(2))
	tx.Close()

	v, st := rx.TryRecv()
	testutil.AssertEqual(t, st, channel.Ready)
	testutil.AssertEqual(t, v, 1)
	v, st = rx.TryRecv()
	testutil.AssertEqual(t, st, channel.Ready)
	testutil.AssertEqual(t, v, 2)
	_, st = rx.TryRecv()
	testutil.AssertEqual(t, st, channel.Done)
}

func TestReceiverDropped(t *testing.T) {
	tx, rx := New[int]()
	defer tx.Close()
	rx.Close()

	testutil.AssertEqual(t, tx.IsReceiverDropped(), true)

	err := tx.Send(7)
	testutil.AssertErrorIs(t, err, wferrors.ErrReceiverDropped)
	var serr *wferrors.SendError[int]
	if !errors.As(err, &serr) {
		t.Fatalf("expected *SendError[int], got %T", err)
	}
	testutil.AssertEqual(t, serr.Value, 7)
}

func TestMultipleSenders(t *testing.T) {
	tx, rx := New[int]()
	defer rx.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(tx *Sender[int], v int) {
			defer wg.Done()
			defer tx.Close()
			if err := tx.Send(v); err != nil {
				t.Errorf("send %d: %v", v, err)
			}
		}(tx.Clone(), i)
	}
	tx.Close()

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	var got []int
	for v := range rx.All(ctx) {
		got = append(got, v)
	}
	testutil.AssertNoError(t, ctx.Err())
	wg.Wait()

	sort.Ints(got)
	testutil.AssertEqual(t, len(got), 10)
	for i, v := range got {
		testutil.AssertEqual(t, v, i)
	}
}

func TestPerProducerOrderPreserved(t *testing.T) {
	const producers, perProducer = 4, 250

	tx, rx := New[[2]int]()
	defer rx.Close()

	for p := 0; p < producers; p++ {
		go func(tx *Sender[[2]int], p int) {
			defer tx.Close()
			for j := 0; j < perProducer; j++ {
				_ = tx.Send([2]int{p, j})
			}
		}(tx.Clone(), p)
	}
	tx.Close()

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	next := make([]int, producers)
	total := 0
	for v := range rx.All(ctx) {
		p, j := v[0], v[1]
		if j != next[p] {
			t.Fatalf("producer %d: got %d, want %d", p, j, next[p])
		}
		next[p]++
		total++
	}
	testutil.AssertEqual(t, total, producers*perProducer)
}

func TestLastSenderCloseWakesReceiver(t *testing.T) {
	tx, rx := New[int]()
	defer rx.Close()
	tx2 := tx.Clone()

	w := &testutil.WakeRecorder{}
	_, st := rx.Poll(w)
	testutil.AssertEqual(t, st, channel.Pending)

	tx.Close()
	testutil.AssertEqual(t, w.Count(), 0)

	tx2.Close()
	testutil.AssertEqual(t, w.Count(), 1)

	_, st = rx.Poll(w)
	testutil.AssertEqual(t, st, channel.Done)
}

func TestRecv_BlocksUntilSend(t *testing.T) {
	tx, rx := New[string]()
	defer rx.Close()

	go func() {
		defer tx.Close()
		time.Sleep(10 * time.Millisecond)
		_ = tx.Send("late")
	}()

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	v, ok, err := rx.Recv(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, v, "late")
}

func TestRecv_ContextCanceled(t *testing.T) {
	tx, rx := New[int]()
	defer tx.Close()
	defer rx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok, err := rx.Recv(ctx)
	testutil.AssertEqual(t, ok, false)
	testutil.AssertErrorIs(t, err, context.DeadlineExceeded)
}

func TestPoll_LatestWakerWins(t *testing.T) {
	tx, rx := New[int]()
	defer tx.Close()
	defer rx.Close()

	first := &testutil.WakeRecorder{}
	second := &testutil.WakeRecorder{}
	rx.Poll(first)
	rx.Poll(second)

	testutil.AssertNoError(t, tx.Send(1))
	testutil.AssertEqual(t, first.Count(), 0)
	testutil.AssertEqual(t, second.Count(), 1)
}

func TestWakeOutsideLock(t *testing.T) {
	tx, rx := New[int]()
	defer tx.Close()
	defer rx.Close()

	var got int
	w := &testutil.WakeRecorder{}
	w.OnWake = func() {
		got, _ = rx.TryRecv()
	}
	rx.Poll(w)

	testutil.AssertNoError(t, tx.Send(4))
	testutil.AssertEqual(t, got, 4)
}

func TestSenderClose_Idempotent(t *testing.T) {
	tx, rx := New[int]()
	defer rx.Close()
	tx2 := tx.Clone()

	tx.Close()
	tx.Close()
	testutil.AssertEqual(t, rx.Stats().Senders, 1)

	testutil.AssertErrorIs(t, tx.Send(1), wferrors.ErrClosed)
	testutil.AssertNoError(t, tx2.Send(2))

	closedClone := tx.Clone()
	testutil.AssertEqual(t, rx.Stats().Senders, 1)
	testutil.AssertErrorIs(t, closedClone.Send(3), wferrors.ErrClosed)
	closedClone.Close()
	testutil.AssertEqual(t, rx.Stats().Senders, 1)

	tx2.Close()
	testutil.AssertEqual(t, rx.Stats().Senders, 0)
}

func TestStats(t *testing.T) {
	tx, rx := New[int]()
	defer tx.Close()

	_ = tx.Send(1)
	_ = tx.Send(2)
	rx.TryRecv()

	s := rx.Stats()
	testutil.AssertEqual(t, s.Sent, uint64(2))
	testutil.AssertEqual(t, s.Received, uint64(1))
	testutil.AssertEqual(t, s.Buffered, 1)
	testutil.AssertEqual(t, s.Senders, 1)

	rx.Close()
	_ = tx.Send(3)
	testutil.AssertEqual(t, rx.Stats().Rejected, uint64(1))
	testutil.AssertEqual(t, rx.Stats().Buffered, 0)
}

func TestAll_StopsEarly(t *testing.T) {
	tx, rx := New[int]()
	defer tx.Close()
	defer rx.Close()

	for i := 0; i < 5; i++ {
		_ = tx.Send(i)
	}

	var got []int
	for v := range rx.All(context.Background()) {
		got = append(got, v)
		if len(got) == 2 {
			break
		}
	}
	testutil.AssertEqual(t, len(got), 2)
	testutil.AssertEqual(t, rx.Len(), 3)
}

func TestMetrics(t *testing.T) {
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	tx, rx := NewWithConfig[int](channel.Config{Name: "jobs", Metrics: reg})

	w := &testutil.WakeRecorder{}
	rx.Poll(w)
	_ = tx.Send(1)
	_ = tx.Send(2)
	rx.TryRecv()
	tx.Close()
	rx.Close()

	testutil.AssertEqual(t, promtest.ToFloat64(reg.ChannelSends.WithLabelValues("mpsc", "jobs")), 2.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.ChannelReceives.WithLabelValues("mpsc", "jobs")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.ChannelWakeups.WithLabelValues("mpsc", "jobs")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.ChannelBuffered.WithLabelValues("mpsc", "jobs")), 0.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.ChannelSenders.WithLabelValues("mpsc", "jobs")), 0.0)
}
