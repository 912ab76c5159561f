package registry

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"distfs/internal/model"
)

func TestListLiveNoServers(t *testing.T) {
	s := NewServerStore()
	if got := s.ListLive(time.Now()); len(got) != 0 {
		t.Fatalf("ListLive on empty store = %v, want empty", got)
	}
}

func TestListLiveFiltersStale(t *testing.T) {
	s := NewServerStore()
	now := time.Now()

	staleID := uuid.New()
	s.m[staleID] = mustServer(staleID, "stale", now.Add(-10*time.Second))

	freshID := uuid.New()
	s.m[freshID] = mustServer(freshID, "fresh", now)

	live := s.ListLive(now)
	if len(live) != 1 {
		t.Fatalf("ListLive = %d servers, want 1", len(live))
	}
	if live[0].ID != freshID {
		t.Fatalf("ListLive returned %s, want the fresh server %s", live[0].ID, freshID)
	}
}

func TestListLiveBoundaryInclusive(t *testing.T) {
	s := NewServerStore()
	now := time.Now()
	id := uuid.New()
	s.m[id] = mustServer(id, "boundary", now.Add(-6*time.Second))

	live := s.ListLive(now)
	if len(live) != 1 {
		t.Fatalf("server exactly at the liveness window should still be live, got %d", len(live))
	}
}

func TestGetUnknownServer(t *testing.T) {
	s := NewServerStore()
	if _, err := s.Get(uuid.New()); err == nil {
		t.Fatal("Get on unknown server id should error")
	}
}

func TestPingUpsertRegistersThenAdvances(t *testing.T) {
	s := NewServerStore()
	id := uuid.New()
	now := time.Now()

	rec := s.Ping(id, "http://host:1", now)
	if rec.Address != "http://host:1" {
		t.Fatalf("first ping should record address, got %q", rec.Address)
	}
	if len(s.m) != 1 {
		t.Fatalf("map size after first ping = %d, want 1", len(s.m))
	}

	later := now.Add(time.Second)
	rec2 := s.Ping(id, "http://ignored:2", later)
	if len(s.m) != 1 {
		t.Fatalf("map size after second ping = %d, want 1 (upsert)", len(s.m))
	}
	if !rec2.LatestPing.Equal(later) {
		t.Fatalf("second ping should advance latest_ping to %v, got %v", later, rec2.LatestPing)
	}
}

func TestPingRepeatedLeavesMapSizeUnchanged(t *testing.T) {
	s := NewServerStore()
	id := uuid.New()
	now := time.Now()

	for i := 0; i < 5; i++ {
		s.Ping(id, "http://host", now.Add(time.Duration(i)*time.Second))
	}
	if len(s.m) != 1 {
		t.Fatalf("map size after repeated pings = %d, want 1", len(s.m))
	}
}

func mustServer(id uuid.UUID, addr string, ping time.Time) model.ServerRecord {
	return model.ServerRecord{ID: id, Address: addr, LatestPing: ping}
}
