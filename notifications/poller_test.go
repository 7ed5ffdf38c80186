package notifications_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/kaziflow-client/notifications"
	"github.com/jrsteele09/kaziflow-client/sessions"
	fakesessionrepo "github.com/jrsteele09/kaziflow-client/sessions/repofakes"
	"github.com/jrsteele09/kaziflow-client/users"
	"github.com/stretchr/testify/require"
)

var errUnavailable = errors.New("backend unavailable")

type fakeSource struct {
	mu        sync.Mutex
	list      []notifications.Notification
	err       error
	ackErr    error
	listCalls int
	ackCalls  int

	inFlight    atomic.Int32
	maxInFlight atomic.Int32

	gate    chan struct{} // List blocks until closed
	entered chan struct{} // signalled when List starts
}

func newFakeSource(list ...notifications.Notification) *fakeSource {
	return &fakeSource{list: list}
}

func (f *fakeSource) ListNotifications(ctx context.Context) ([]notifications.Notification, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxInFlight.Load()
		if n <= max || f.maxInFlight.CompareAndSwap(max, n) {
			break
		}
	}

	// The response reflects the server state when the request arrived.
	f.mu.Lock()
	f.listCalls++
	gate, entered := f.gate, f.entered
	list, err := append([]notifications.Notification(nil), f.list...), f.err
	f.mu.Unlock()

	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}
	return list, nil
}

func (f *fakeSource) MarkNotificationRead(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ackCalls++
	if f.ackErr != nil {
		return f.ackErr
	}
	for i := range f.list {
		if f.list[i].ID == id {
			f.list[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeSource) set(list []notifications.Notification, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list, f.err = list, err
}

func (f *fakeSource) block() (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.entered = make(chan struct{}, 16)
	gate := f.gate
	return func() { close(gate) }
}

func (f *fakeSource) calls() (list, ack int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.ackCalls
}

func sample(unread, read int) []notifications.Notification {
	var out []notifications.Notification
	for i := 0; i < unread+read; i++ {
		out = append(out, notifications.Notification{
			ID:        string(rune('a' + i)),
			Title:     "Invoice update",
			Message:   "Invoice status changed",
			CreatedAt: time.Date(2024, 3, 1, 9, 0, i, 0, time.UTC),
			IsRead:    i >= unread,
		})
	}
	return out
}

func TestCountUnread(t *testing.T) {
	require.Equal(t, 0, notifications.CountUnread(nil))
	require.Equal(t, 3, notifications.CountUnread(sample(3, 4)))
	require.Equal(t, 0, notifications.CountUnread(sample(0, 2)))
}

func TestPoller_FetchNotifications(t *testing.T) {
	source := newFakeSource(sample(2, 3)...)
	poller := notifications.NewPoller(source)

	require.Empty(t, poller.Snapshot())
	require.Equal(t, 0, poller.UnreadCount())

	require.True(t, poller.FetchNotifications(context.Background()))
	require.Len(t, poller.Snapshot(), 5)
	require.Equal(t, 2, poller.UnreadCount())
}

func TestPoller_FailedFetchKeepsSnapshot(t *testing.T) {
	source := newFakeSource(sample(1, 1)...)
	poller := notifications.NewPoller(source)
	require.True(t, poller.FetchNotifications(context.Background()))
	before := poller.Snapshot()

	source.set(nil, errUnavailable)
	require.True(t, poller.FetchNotifications(context.Background()))

	require.Equal(t, before, poller.Snapshot())
	require.Equal(t, 1, poller.UnreadCount())
}

func TestPoller_FirstFetchFailureLeavesEmpty(t *testing.T) {
	source := newFakeSource()
	source.set(nil, errUnavailable)
	poller := notifications.NewPoller(source)

	poller.FetchNotifications(context.Background())
	require.Empty(t, poller.Snapshot())
	require.Equal(t, 0, poller.UnreadCount())
}

func TestPoller_SnapshotIsACopy(t *testing.T) {
	poller := notifications.NewPoller(newFakeSource(sample(1, 0)...))
	poller.FetchNotifications(context.Background())

	snapshot := poller.Snapshot()
	snapshot[0].IsRead = true
	require.False(t, poller.Snapshot()[0].IsRead)
}

func TestPoller_SingleFlight(t *testing.T) {
	source := newFakeSource(sample(1, 0)...)
	release := source.block()
	poller := notifications.NewPoller(source)

	var wg sync.WaitGroup
	results := make(chan bool, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- poller.FetchNotifications(context.Background())
		}()
	}

	// Only one fetch can reach the source, the others return straight away.
	<-source.entered
	for i := 0; i < 4; i++ {
		require.False(t, <-results)
	}
	release()
	wg.Wait()
	require.True(t, <-results)

	list, _ := source.calls()
	require.Equal(t, 1, list)
	require.Equal(t, int32(1), source.maxInFlight.Load())
	require.Equal(t, 1, poller.UnreadCount())
}

func TestPoller_MarkAsRead(t *testing.T) {
	t.Run("acknowledges and refetches", func(t *testing.T) {
		source := newFakeSource(sample(2, 0)...)
		poller := notifications.NewPoller(source)
		poller.FetchNotifications(context.Background())
		require.Equal(t, 2, poller.UnreadCount())

		require.True(t, poller.MarkAsRead(context.Background(), "a"))
		require.Equal(t, 1, poller.UnreadCount())

		list, ack := source.calls()
		require.Equal(t, 2, list)
		require.Equal(t, 1, ack)
	})

	t.Run("refetches even when the acknowledgement fails", func(t *testing.T) {
		source := newFakeSource(sample(2, 0)...)
		source.ackErr = errUnavailable
		poller := notifications.NewPoller(source)
		poller.FetchNotifications(context.Background())

		require.False(t, poller.MarkAsRead(context.Background(), "a"))
		require.Equal(t, 2, poller.UnreadCount())

		list, _ := source.calls()
		require.Equal(t, 2, list)
	})

	t.Run("read during an in-flight fetch refetches once it completes", func(t *testing.T) {
		source := newFakeSource(sample(2, 0)...)
		poller := notifications.NewPoller(source)
		poller.FetchNotifications(context.Background())

		release := source.block()
		done := make(chan bool, 1)
		go func() {
			done <- poller.FetchNotifications(context.Background())
		}()
		<-source.entered

		// The running fetch already holds the list from before the acknowledgement.
		require.True(t, poller.MarkAsRead(context.Background(), "a"))
		release()
		require.True(t, <-done)

		require.Equal(t, 1, poller.UnreadCount())
		require.True(t, poller.Snapshot()[0].IsRead)
		list, ack := source.calls()
		require.Equal(t, 3, list)
		require.Equal(t, 1, ack)
		require.Equal(t, int32(1), source.maxInFlight.Load())
	})

	t.Run("queued refetch is dropped when the poller stops", func(t *testing.T) {
		source := newFakeSource(sample(2, 0)...)
		poller := notifications.NewPoller(source)

		release := source.block()
		done := make(chan bool, 1)
		go func() {
			done <- poller.FetchNotifications(context.Background())
		}()
		<-source.entered

		require.True(t, poller.MarkAsRead(context.Background(), "a"))
		poller.Stop()
		release()
		require.False(t, <-done)

		require.Empty(t, poller.Snapshot())
		list, _ := source.calls()
		require.Equal(t, 1, list)
	})

	t.Run("blank id is ignored", func(t *testing.T) {
		source := newFakeSource()
		poller := notifications.NewPoller(source)
		require.False(t, poller.MarkAsRead(context.Background(), "  "))

		list, ack := source.calls()
		require.Zero(t, list)
		require.Zero(t, ack)
	})
}

func TestPoller_StartTicksUntilStopped(t *testing.T) {
	source := newFakeSource(sample(1, 0)...)
	poller := notifications.NewPoller(source, notifications.WithInterval(5*time.Millisecond))

	poller.Start(context.Background())
	require.True(t, poller.Running())
	require.Eventually(t, func() bool {
		list, _ := source.calls()
		return list >= 3
	}, time.Second, time.Millisecond)

	poller.Stop()
	require.False(t, poller.Running())
	require.Empty(t, poller.Snapshot())

	list, _ := source.calls()
	time.Sleep(20 * time.Millisecond)
	after, _ := source.calls()
	require.Equal(t, list, after)
}

func TestPoller_SlowSourceNeverOverlaps(t *testing.T) {
	source := newFakeSource(sample(1, 0)...)
	poller := notifications.NewPoller(source, notifications.WithInterval(time.Millisecond))

	// Manual fetches race the ticker while the source is slow.
	release := source.block()
	poller.Start(context.Background())
	<-source.entered
	for i := 0; i < 10; i++ {
		require.False(t, poller.FetchNotifications(context.Background()))
	}
	release()

	require.Eventually(t, func() bool {
		return poller.UnreadCount() == 1
	}, time.Second, time.Millisecond)
	poller.Stop()
	require.Equal(t, int32(1), source.maxInFlight.Load())
}

func TestPoller_StartTwiceIsNoop(t *testing.T) {
	source := newFakeSource()
	poller := notifications.NewPoller(source, notifications.WithInterval(time.Hour))

	poller.Start(context.Background())
	poller.Start(context.Background())
	require.Eventually(t, func() bool {
		list, _ := source.calls()
		return list == 1
	}, time.Second, time.Millisecond)
	poller.Stop()

	list, _ := source.calls()
	require.Equal(t, 1, list)
}

func TestPoller_StopDiscardsInFlightResult(t *testing.T) {
	source := newFakeSource(sample(3, 0)...)
	release := source.block()
	poller := notifications.NewPoller(source)

	applied := make(chan bool, 1)
	go func() {
		applied <- poller.FetchNotifications(context.Background())
	}()
	<-source.entered

	poller.Stop()
	release()

	require.False(t, <-applied)
	require.Empty(t, poller.Snapshot())
	require.Equal(t, 0, poller.UnreadCount())
}

func TestPoller_ContextCancelStopsLoop(t *testing.T) {
	source := newFakeSource()
	poller := notifications.NewPoller(source, notifications.WithInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	poller.Start(ctx)
	cancel()

	require.Eventually(t, func() bool {
		return !poller.Running()
	}, time.Second, time.Millisecond)
}

func newSessionStore(t *testing.T) *sessions.Store {
	t.Helper()
	store, err := sessions.NewStore(fakesessionrepo.NewFakeSessionRepo())
	require.NoError(t, err)
	return store
}

func TestPoller_FollowSession(t *testing.T) {
	t.Run("public session does not poll", func(t *testing.T) {
		source := newFakeSource()
		poller := notifications.NewPoller(source, notifications.WithInterval(time.Millisecond))
		detach := poller.FollowSession(context.Background(), newSessionStore(t))
		defer detach()

		require.False(t, poller.Running())
		time.Sleep(10 * time.Millisecond)
		list, _ := source.calls()
		require.Zero(t, list)
	})

	t.Run("login starts and logout stops", func(t *testing.T) {
		source := newFakeSource(sample(2, 1)...)
		store := newSessionStore(t)
		poller := notifications.NewPoller(source, notifications.WithInterval(time.Hour))
		detach := poller.FollowSession(context.Background(), store)
		defer detach()

		require.NoError(t, store.Login("tok", users.RoleVendor))
		require.True(t, poller.Running())
		require.Eventually(t, func() bool {
			return poller.UnreadCount() == 2
		}, time.Second, time.Millisecond)

		require.NoError(t, store.Logout())
		require.False(t, poller.Running())
		require.Empty(t, poller.Snapshot())
		require.Equal(t, 0, poller.UnreadCount())
	})

	t.Run("already authenticated store polls immediately", func(t *testing.T) {
		source := newFakeSource(sample(1, 0)...)
		repo := fakesessionrepo.NewFakeSessionRepoWith(sessions.Record{Token: "tok", Role: "bank"})
		store, err := sessions.NewStore(repo)
		require.NoError(t, err)

		poller := notifications.NewPoller(source, notifications.WithInterval(time.Hour))
		detach := poller.FollowSession(context.Background(), store)
		defer detach()

		require.Eventually(t, func() bool {
			return poller.UnreadCount() == 1
		}, time.Second, time.Millisecond)
	})

	t.Run("new login starts from an empty snapshot", func(t *testing.T) {
		source := newFakeSource(sample(2, 0)...)
		store := newSessionStore(t)
		poller := notifications.NewPoller(source, notifications.WithInterval(time.Hour))
		detach := poller.FollowSession(context.Background(), store)
		defer detach()

		require.NoError(t, store.Login("first", users.RoleVendor))
		require.Eventually(t, func() bool {
			return poller.UnreadCount() == 2
		}, time.Second, time.Millisecond)

		release := source.block()
		source.set(sample(0, 1), nil)
		require.NoError(t, store.Login("second", users.RoleRetailer))
		<-source.entered

		require.Empty(t, poller.Snapshot())
		release()
		require.Eventually(t, func() bool {
			return len(poller.Snapshot()) == 1
		}, time.Second, time.Millisecond)
		require.Equal(t, 0, poller.UnreadCount())
	})

	t.Run("logout during an in-flight fetch discards the result", func(t *testing.T) {
		source := newFakeSource(sample(4, 0)...)
		release := source.block()
		defer release()

		store := newSessionStore(t)
		poller := notifications.NewPoller(source, notifications.WithInterval(time.Hour))
		detach := poller.FollowSession(context.Background(), store)
		defer detach()

		require.NoError(t, store.Login("tok", users.RoleVendor))
		<-source.entered

		require.NoError(t, store.Logout())
		require.False(t, poller.Running())
		require.Empty(t, poller.Snapshot())
		require.Equal(t, 0, poller.UnreadCount())
	})

	t.Run("detach stops polling and ignores later logins", func(t *testing.T) {
		source := newFakeSource()
		store := newSessionStore(t)
		poller := notifications.NewPoller(source, notifications.WithInterval(time.Hour))
		detach := poller.FollowSession(context.Background(), store)

		require.NoError(t, store.Login("tok", users.RoleVendor))
		require.True(t, poller.Running())

		detach()
		require.False(t, poller.Running())

		require.NoError(t, store.Logout())
		require.NoError(t, store.Login("again", users.RoleVendor))
		require.False(t, poller.Running())
	})
}
