package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"hn-frontpage/internal/model"
)

func newStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, "front_page", 100, ttl), mr
}

func TestKey(t *testing.T) {
	s, _ := newStore(t, time.Minute)
	if got, want := s.Key(), "hn:stories:front_page:100"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}

func TestMiss(t *testing.T) {
	s, _ := newStore(t, time.Minute)
	stories, savedAt, ok, err := s.LoadStories(context.Background())
	if err != nil || ok || stories != nil || !savedAt.IsZero() {
		t.Fatalf("expected clean miss, got %v %v %v %v", stories, savedAt, ok, err)
	}
}

func TestSaveLoadRoundTripKeepsOrder(t *testing.T) {
	s, mr := newStore(t, 5*time.Minute)
	saved := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return saved }
	ctx := context.Background()
	in := []model.Story{
		{ID: "9", Title: "Later", Points: 1, CreatedAt: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)},
		{ID: "3", Title: "Earlier", URL: "https://example.com", Points: 99, Author: "carol"},
	}
	if err := s.SaveStories(ctx, in); err != nil {
		t.Fatalf("SaveStories: %v", err)
	}
	if ttl := mr.TTL(s.Key()); ttl != 5*time.Minute {
		t.Errorf("ttl = %v", ttl)
	}
	got, savedAt, ok, err := s.LoadStories(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadStories: ok=%v err=%v", ok, err)
	}
	if !savedAt.Equal(saved) {
		t.Errorf("savedAt = %v, want %v", savedAt, saved)
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("batch mismatch (-want +got):\n%s", diff)
	}
}

func TestExpiry(t *testing.T) {
	s, mr := newStore(t, time.Minute)
	ctx := context.Background()
	if err := s.SaveStories(ctx, []model.Story{{ID: "1"}}); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Minute)
	if _, _, ok, _ := s.LoadStories(ctx); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestEmptyBatchAndClear(t *testing.T) {
	s, _ := newStore(t, 0)
	ctx := context.Background()
	if err := s.SaveStories(ctx, nil); err != nil {
		t.Fatal(err)
	}
	got, _, ok, err := s.LoadStories(ctx)
	if err != nil || !ok || got == nil || len(got) != 0 {
		t.Fatalf("expected empty hit, got %v %v %v", got, ok, err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, _, ok, _ := s.LoadStories(ctx); ok {
		t.Fatal("expected miss after Clear")
	}
}

func TestCorruptEntry(t *testing.T) {
	s, mr := newStore(t, time.Minute)
	if err := mr.Set(s.Key(), "not json"); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := s.LoadStories(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}
