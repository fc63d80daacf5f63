package blog

import (
	"database/sql"
	"sync"
	"testing"
)

func TestSubscribeNormalizesEmail(t *testing.T) {
	s := setupTestStore(t)

	sub, err := s.Subscribe("  Reader@Example.COM ")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if sub.Email != "reader@example.com" {
		t.Errorf("email = %q, want reader@example.com", sub.Email)
	}
	if sub.Status != "active" {
		t.Errorf("status = %q, want active", sub.Status)
	}

	for _, bad := range []string{"", "   ", "not-an-email"} {
		if _, err := s.Subscribe(bad); err == nil {
			t.Errorf("Subscribe(%q) should fail", bad)
		}
	}
}

func TestSubscribeActiveDuplicateRejected(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.Subscribe("reader@example.com"); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if _, err := s.Subscribe("READER@example.com"); err != ErrAlreadySubscribed {
		t.Errorf("second Subscribe = %v, want ErrAlreadySubscribed", err)
	}
}

func TestResubscribeReactivatesInPlace(t *testing.T) {
	s := setupTestStore(t)

	first, err := s.Subscribe("reader@example.com")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := s.Unsubscribe("reader@example.com"); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}

	again, err := s.Subscribe("reader@example.com")
	if err != nil {
		t.Fatalf("resubscribe failed: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("resubscribe created a new row: id %d, want %d", again.ID, first.ID)
	}
	if again.Status != "active" {
		t.Errorf("status after resubscribe = %q, want active", again.Status)
	}

	subs, err := s.ListSubscribers()
	if err != nil {
		t.Fatalf("ListSubscribers failed: %v", err)
	}
	if len(subs) != 1 {
		t.Errorf("subscriber rows = %d, want 1", len(subs))
	}
}

func TestConcurrentSubscribeSameEmail(t *testing.T) {
	s := setupTestStore(t)

	const n = 8
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Subscribe("reader@example.com")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok, dup := 0, 0
	for err := range errs {
		switch err {
		case nil:
			ok++
		case ErrAlreadySubscribed:
			dup++
		default:
			t.Errorf("unexpected subscribe error: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("successful subscribes = %d, want exactly 1", ok)
	}
	if dup != n-1 {
		t.Errorf("already-subscribed errors = %d, want %d", dup, n-1)
	}

	subs, err := s.ListSubscribers()
	if err != nil {
		t.Fatalf("ListSubscribers failed: %v", err)
	}
	if len(subs) != 1 {
		t.Errorf("subscriber rows = %d, want 1", len(subs))
	}
}

func TestUnsubscribeUnknownEmail(t *testing.T) {
	s := setupTestStore(t)

	if err := s.Unsubscribe("nobody@example.com"); err != sql.ErrNoRows {
		t.Errorf("Unsubscribe = %v, want sql.ErrNoRows", err)
	}
}

func TestSettingsUpsert(t *testing.T) {
	s := setupTestStore(t)

	if v, err := s.GetSetting("tagline"); err != nil || v != "" {
		t.Fatalf("GetSetting on empty store = (%q, %v), want empty", v, err)
	}
	if err := s.SetSetting("tagline", "notes from the terminal"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if err := s.SetSetting("tagline", "updated"); err != nil {
		t.Fatalf("SetSetting overwrite failed: %v", err)
	}
	v, err := s.GetSetting("tagline")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if v != "updated" {
		t.Errorf("setting = %q, want updated", v)
	}

	all, err := s.AllSettings()
	if err != nil {
		t.Fatalf("AllSettings failed: %v", err)
	}
	if len(all) != 1 || all["tagline"] != "updated" {
		t.Errorf("AllSettings = %v", all)
	}
}
