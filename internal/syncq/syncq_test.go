package syncq

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/tuicalm/internal/model"
	"github.com/verte-zerg/tuicalm/internal/store"
)

type flakySender struct {
	fail map[string]bool
	sent []string
}

func (f *flakySender) Send(_ context.Context, item model.QueueItem) error {
	if f.fail[item.Kind] {
		return errors.New("offline")
	}
	f.sent = append(f.sent, item.Kind)
	return nil
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "q.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestFlushDeletesSentAndRetriesFailed(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	if _, err := st.Enqueue(ctx, KindRelax, []byte(`{}`), now); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := st.Enqueue(ctx, KindBreath, []byte(`{}`), now); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	sender := &flakySender{fail: map[string]bool{KindBreath: true}}
	q := New(st, sender, nil)

	res, err := q.Flush(ctx)
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if res != (FlushResult{Sent: 1, Failed: 1}) {
		t.Fatalf("unexpected result %+v", res)
	}
	items, err := st.ListQueue(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Kind != KindBreath || items[0].Attempts != 1 {
		t.Fatalf("expected failed breath item to remain, got %+v", items)
	}
}

func TestFlushDropsAfterMaxAttempts(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	if _, err := st.Enqueue(ctx, KindBreath, []byte(`{}`), time.Now()); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	q := New(st, &flakySender{fail: map[string]bool{KindBreath: true}}, nil)

	var last FlushResult
	for i := 0; i < MaxAttempts; i++ {
		res, err := q.Flush(ctx)
		if err != nil {
			t.Fatalf("flush %d: %v", i, err)
		}
		last = res
	}
	if last.Dropped != 1 {
		t.Fatalf("expected drop on attempt %d, got %+v", MaxAttempts, last)
	}
	items, err := st.ListQueue(ctx, 0)
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty queue, got %d (%v)", len(items), err)
	}
}

func TestHTTPSenderPostsToKindPath(t *testing.T) {
	var gotPath, gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := NewHTTPSender(srv.URL + "/")
	err := sender.Send(context.Background(), model.QueueItem{Kind: KindRelax, Payload: []byte(`{"id":"x"}`)})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/api/relax" || gotBody != `{"id":"x"}` || gotType != "application/json" {
		t.Fatalf("unexpected request %q %q %q", gotPath, gotBody, gotType)
	}
}

func TestHTTPSenderRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if err := NewHTTPSender(srv.URL).Send(context.Background(), model.QueueItem{Kind: KindBreath}); err == nil {
		t.Fatalf("expected error for 503")
	}
	if err := (&HTTPSender{}).Send(context.Background(), model.QueueItem{Kind: KindBreath}); err == nil {
		t.Fatalf("expected error without endpoint")
	}
}
