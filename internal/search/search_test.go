package search

import (
	"encoding/json"
	"testing"

	meili "github.com/meilisearch/meilisearch-go"
)

func TestEntityKey(t *testing.T) {
	got := EntityKey("user-1", "rooms", "tmp-abc")
	if got != "user-1_rooms_tmp-abc" {
		t.Fatalf("EntityKey = %q", got)
	}
}

func TestHitToResultEntity(t *testing.T) {
	hit := meili.Hit{
		"id":         json.RawMessage(`"user-1_rooms_7"`),
		"collection": json.RawMessage(`"rooms"`),
		"entityId":   json.RawMessage(`"7"`),
		"state":      json.RawMessage(`"persisted"`),
		"title":      json.RawMessage(`"Deluxe"`),
		"summary":    json.RawMessage(`"Sea view"`),
		"_formatted": json.RawMessage(`{"title":"<mark>Deluxe</mark>","summary":""}`),
	}

	r := hitToResult(hit, ResultEntity)
	if r.Title != "<mark>Deluxe</mark>" {
		t.Fatalf("highlighted title preferred, got %q", r.Title)
	}
	if r.Snippet != "Sea view" {
		t.Fatalf("blank formatted falls back to raw, got %q", r.Snippet)
	}
	if r.EntityID != "7" || r.Collection != "rooms" || r.State != "persisted" {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestIndexToResultType(t *testing.T) {
	if indexToResultType(idxEntities) != ResultEntity {
		t.Fatal("entities index")
	}
	if indexToResultType(idxEvents) != ResultEvent {
		t.Fatal("events index")
	}
	if indexToResultType("other") != "" {
		t.Fatal("unknown index")
	}
}
