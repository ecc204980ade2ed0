package dialogue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/mr1hm/cuya-bot/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	sink := &mockSink{}
	st := NewStore(newTestMachine(t, sink), time.Hour)
	ctx := context.Background()

	if _, err := st.Handle(ctx, "alice", "May sunog!"); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	// Bob's message must not be taken as Alice's location.
	reply, err := st.Handle(ctx, "bob", "Manila")
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if reply.Text == "" {
		t.Error("expected a reply for bob")
	}

	alice, ok := st.Session("alice")
	if !ok {
		t.Fatal("expected alice's session to exist")
	}
	if alice.Stage != models.StageAwaitingLocation {
		t.Errorf("expected alice awaiting location, got %s", alice.Stage)
	}

	// Bob never left idle, so nothing is kept for him.
	if _, ok := st.Session("bob"); ok {
		t.Error("expected no retained session for bob")
	}

	if st.Len() != 1 {
		t.Errorf("expected 1 session, got %d", st.Len())
	}
}

func TestStore_ConcurrentDialogues(t *testing.T) {
	sink := &mockSink{}
	st := NewStore(newTestMachine(t, sink), time.Hour)
	ctx := context.Background()

	numSessions := 20
	var wg sync.WaitGroup
	for i := 0; i < numSessions; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("session_%d", n)
			for _, msg := range []string{"May sunog!", "Burgos", "Wala", "Maliit"} {
				if _, err := st.Handle(ctx, id, msg); err != nil {
					t.Errorf("Handle(%s, %q) failed: %v", id, msg, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	if sink.count() != numSessions {
		t.Errorf("expected %d reports, got %d", numSessions, sink.count())
	}
}

func TestStore_Sweep(t *testing.T) {
	st := NewStore(newTestMachine(t, &mockSink{}), 30*time.Minute)
	ctx := context.Background()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }

	st.Handle(ctx, "old", "May sunog!")

	now = now.Add(20 * time.Minute)
	st.Handle(ctx, "fresh", "May baha!")

	now = now.Add(15 * time.Minute)
	if n := st.Sweep(); n != 1 {
		t.Errorf("expected 1 session evicted, got %d", n)
	}
	if _, ok := st.Session("old"); ok {
		t.Error("expected old session to be evicted")
	}
	if _, ok := st.Session("fresh"); !ok {
		t.Error("expected fresh session to survive")
	}

	// An evicted conversation starts over from idle.
	reply, _ := st.Handle(ctx, "old", "Burgos")
	if reply.Text != st.machine.replies.Fallback {
		t.Errorf("expected fallback reply, got %q", reply.Text)
	}
	if _, ok := st.Session("old"); ok {
		t.Error("expected no session kept for an idle conversation")
	}
}

func TestStore_SweepConcurrentWithHandle(t *testing.T) {
	st := NewStore(newTestMachine(t, &mockSink{}), 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				msg := "May sunog!"
				if j%2 == 1 {
					msg = "hello"
				}
				st.Handle(ctx, fmt.Sprintf("s_%d_%d", n, j%5), msg)
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			st.Sweep()
		}
	}()
	wg.Wait()

	t.Logf("%d sessions left after concurrent sweeps", st.Len())
}

func TestJanitor_StartStop(t *testing.T) {
	st := NewStore(newTestMachine(t, &mockSink{}), time.Millisecond)
	st.Handle(context.Background(), "idle", "May sunog!")
	if st.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", st.Len())
	}

	j, err := StartJanitor(st, time.Second)
	if err != nil {
		t.Fatalf("StartJanitor failed: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for st.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	j.Stop()

	if st.Len() != 0 {
		t.Errorf("expected janitor to evict idle session, %d left", st.Len())
	}
}

func TestStartJanitor_InvalidInterval(t *testing.T) {
	st := NewStore(newTestMachine(t, &mockSink{}), time.Minute)
	if _, err := StartJanitor(st, -time.Second); err == nil {
		t.Error("expected error for negative interval")
	}
}

func TestStore_SweepKeepsUnsavedReport(t *testing.T) {
	sink := &mockSink{err: errors.New("disk full")}
	st := NewStore(newTestMachine(t, sink), 30*time.Minute)
	ctx := context.Background()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }

	for _, msg := range []string{"May sunog!", "Burgos", "Wala"} {
		if _, err := st.Handle(ctx, "s1", msg); err != nil {
			t.Fatalf("Handle(%q) failed: %v", msg, err)
		}
	}
	if _, err := st.Handle(ctx, "s1", "Maliit"); !errors.Is(err, ErrReportNotSaved) {
		t.Fatalf("expected ErrReportNotSaved, got %v", err)
	}

	now = now.Add(31 * time.Minute)
	if n := st.Sweep(); n != 0 {
		t.Errorf("expected unsaved session to survive sweep, %d evicted", n)
	}
	s, ok := st.Session("s1")
	if !ok || s.Stage != models.StageCompleted {
		t.Fatalf("expected completed session kept, got ok=%v stage=%s", ok, s.Stage)
	}

	sink.mu.Lock()
	sink.err = nil
	sink.mu.Unlock()

	reply, err := st.Handle(ctx, "s1", "retry")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if reply.Report == nil || sink.count() != 1 {
		t.Fatalf("expected report saved on retry, got %d reports", sink.count())
	}
	if st.Len() != 0 {
		t.Errorf("expected session released after save, %d left", st.Len())
	}
}

func TestStore_IdleMessagesDoNotCreateSessions(t *testing.T) {
	st := NewStore(newTestMachine(t, &mockSink{}), time.Hour)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		if _, err := st.Handle(ctx, fmt.Sprintf("anon_%d", i), "hello"); err != nil {
			t.Fatalf("Handle failed: %v", err)
		}
	}
	if st.Len() != 0 {
		t.Errorf("expected no retained sessions, got %d", st.Len())
	}
}

func TestStore_MaxSessions(t *testing.T) {
	st := NewStore(newTestMachine(t, &mockSink{}), time.Hour, WithMaxSessions(2))
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if _, err := st.Handle(ctx, id, "May sunog!"); err != nil {
			t.Fatalf("Handle(%s) failed: %v", id, err)
		}
	}

	if _, err := st.Handle(ctx, "c", "May sunog!"); !errors.Is(err, ErrTooManySessions) {
		t.Errorf("expected ErrTooManySessions, got %v", err)
	}

	// Small talk needs no slot.
	if reply, err := st.Handle(ctx, "c", "hello"); err != nil || reply.Text == "" {
		t.Errorf("expected small talk served at capacity, got %q, %v", reply.Text, err)
	}

	// Existing conversations continue at capacity.
	if _, err := st.Handle(ctx, "a", "Burgos"); err != nil {
		t.Errorf("expected existing session to continue, got %v", err)
	}

	// Leaving a dialogue frees a slot.
	if _, err := st.Handle(ctx, "b", "Manila"); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if _, err := st.Handle(ctx, "c", "May sunog!"); err != nil {
		t.Errorf("expected slot to be free, got %v", err)
	}
}
