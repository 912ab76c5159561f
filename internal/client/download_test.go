package client

import (
	"testing"

	"github.com/google/uuid"

	"distfs/internal/model"
)

func TestGroupByPartGroupsAndSorts(t *testing.T) {
	fileID := uuid.New()
	serverA, serverB := uuid.New(), uuid.New()

	chunks := []model.ChunkRecord{
		{ID: uuid.New(), FileID: fileID, PartNum: 1, ServerID: serverA},
		{ID: uuid.New(), FileID: fileID, PartNum: 0, ServerID: serverA},
		{ID: uuid.New(), FileID: fileID, PartNum: 1, ServerID: serverB},
		{ID: uuid.New(), FileID: fileID, PartNum: 0, ServerID: serverB},
	}

	groups := groupByPart(chunks)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0][0].PartNum != 0 || groups[1][0].PartNum != 1 {
		t.Fatalf("groups not in part-number order: %+v", groups)
	}
	if len(groups[0]) != 2 || len(groups[1]) != 2 {
		t.Fatalf("expected 2 replicas per group, got %d and %d", len(groups[0]), len(groups[1]))
	}
}

func TestGroupByPartSingleChunk(t *testing.T) {
	fileID := uuid.New()
	chunks := []model.ChunkRecord{{ID: uuid.New(), FileID: fileID, PartNum: 0, ServerID: uuid.New()}}
	groups := groupByPart(chunks)
	if len(groups) != 1 || len(groups[0]) != 1 {
		t.Fatalf("got %v, want one group of one", groups)
	}
}
