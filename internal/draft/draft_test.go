package draft

import (
	"strings"
	"testing"

	"hotelops/api/internal/blob"
	"hotelops/api/internal/util"
)

func TestNewDraftPrependsNewestFirst(t *testing.T) {
	s := NewStore()
	s.SetAll([]Entity{
		{ID: "1", State: StatePersisted, Fields: map[string]string{"room_type": "Deluxe"}},
	})

	d := NewDraft(map[string]string{"room_type": "Suite"}, nil)
	if !strings.HasPrefix(d.ID, util.DraftIDPrefix) {
		t.Fatalf("draft id %q must carry the local prefix", d.ID)
	}
	s.Prepend(d)

	list := s.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(list))
	}
	if list[0].ID != d.ID || list[1].ID != "1" {
		t.Fatalf("draft must land at the front, got order %s, %s", list[0].ID, list[1].ID)
	}
	if s.DraftCount() != 1 {
		t.Fatalf("expected 1 draft, got %d", s.DraftCount())
	}
}

func TestReplaceKeepsPosition(t *testing.T) {
	s := NewStore()
	s.SetAll([]Entity{
		{ID: "tmp-a", State: StateDraft},
		{ID: "7", State: StatePersisted},
		{ID: "tmp-b", State: StateDraft},
	})

	ok := s.Replace("tmp-a", Entity{ID: "42", State: StatePersisted, Fields: map[string]string{"room_type": "Twin"}})
	if !ok {
		t.Fatal("Replace should find tmp-a")
	}

	list := s.List()
	if list[0].ID != "42" {
		t.Fatalf("replacement must keep index 0, got %s", list[0].ID)
	}
	if list[0].State != StatePersisted {
		t.Fatalf("replacement must be persisted, got %s", list[0].State)
	}
	if s.Index("tmp-b") != 2 {
		t.Fatalf("other entities must not move, tmp-b at %d", s.Index("tmp-b"))
	}

	if s.Replace("missing", Entity{ID: "x"}) {
		t.Fatal("Replace of unknown id must report false")
	}
}

func TestRemoveReturnsEntity(t *testing.T) {
	s := NewStore()
	s.SetAll([]Entity{
		{ID: "tmp-a", State: StateDraft, Media: []blob.Ref{{Key: "k1", URL: "/api/media/staging/k1"}}},
		{ID: "3", State: StatePersisted},
	})

	removed, ok := s.Remove("tmp-a")
	if !ok || removed.ID != "tmp-a" {
		t.Fatalf("Remove failed: ok=%v id=%s", ok, removed.ID)
	}
	if len(removed.Media) != 1 {
		t.Fatal("removed entity must carry its media for release")
	}
	if s.Len() != 1 || s.Index("tmp-a") != -1 {
		t.Fatal("entity must be gone from the queue")
	}

	if _, ok := s.Remove("tmp-a"); ok {
		t.Fatal("second remove must fail")
	}
}

func TestSetAllReturnsDisplaced(t *testing.T) {
	s := NewStore()
	s.SetAll([]Entity{
		{ID: "tmp-a", State: StateDraft},
		{ID: "1", State: StatePersisted},
	})

	displaced := s.SetAll([]Entity{{ID: "2", State: StatePersisted}})
	if len(displaced) != 2 {
		t.Fatalf("expected 2 displaced entities, got %d", len(displaced))
	}
	if s.Len() != 1 || s.List()[0].ID != "2" {
		t.Fatal("queue must hold only the new entities")
	}
}

func TestListReturnsCopies(t *testing.T) {
	s := NewStore()
	s.SetAll([]Entity{{ID: "1", State: StatePersisted, Fields: map[string]string{"room_type": "Deluxe"}}})

	list := s.List()
	list[0].Fields["room_type"] = "mutated"
	list[0].ID = "mutated"

	fresh, _ := s.Get("1")
	if fresh.Fields["room_type"] != "Deluxe" {
		t.Fatal("mutating a listed entity must not touch the store")
	}
}

func TestFormTakeMovesMediaOwnership(t *testing.T) {
	f := NewForm()
	f.SetField("room_type", "Suite")
	displaced := f.AttachMedia([]blob.Ref{{Key: "k1", URL: "/api/media/staging/k1"}})
	if len(displaced) != 0 {
		t.Fatalf("empty form displaces nothing, got %d", len(displaced))
	}

	target, fields, media := f.Take()
	if target != "" || fields["room_type"] != "Suite" || len(media) != 1 {
		t.Fatalf("Take returned target=%q fields=%v media=%d", target, fields, len(media))
	}

	// After Take the form owns nothing: Reset must not surrender the refs again.
	if leftover := f.Reset(); len(leftover) != 0 {
		t.Fatalf("form still owned %d refs after Take", len(leftover))
	}
}

func TestFormResetSurrendersMedia(t *testing.T) {
	f := NewForm()
	f.AttachMedia([]blob.Ref{{Key: "k1", URL: "/api/media/staging/k1"}})

	leftover := f.Reset()
	if len(leftover) != 1 || leftover[0].Key != "k1" {
		t.Fatalf("Reset must return the owned refs, got %v", leftover)
	}
}

func TestFormAttachMediaDisplacesPrevious(t *testing.T) {
	f := NewForm()
	f.AttachMedia([]blob.Ref{{Key: "old", URL: "/api/media/staging/old"}})
	displaced := f.AttachMedia([]blob.Ref{{Key: "new", URL: "/api/media/staging/new"}})
	if len(displaced) != 1 || displaced[0].Key != "old" {
		t.Fatalf("expected old ref displaced, got %v", displaced)
	}
	_, _, media := f.Snapshot()
	if len(media) != 1 || media[0].Key != "new" {
		t.Fatalf("form must hold the new ref, got %v", media)
	}
}

func TestFormLoadForEdit(t *testing.T) {
	f := NewForm()
	f.AttachMedia([]blob.Ref{{Key: "stale", URL: "/api/media/staging/stale"}})

	displaced := f.Load("7", map[string]string{"room_type": "Twin"},
		[]blob.Ref{{URL: "https://backend.example.com/storage/rooms/7.jpg"}})
	if len(displaced) != 1 || displaced[0].Key != "stale" {
		t.Fatalf("Load must displace the previous media, got %v", displaced)
	}

	target, fields, media := f.Snapshot()
	if target != "7" || fields["room_type"] != "Twin" {
		t.Fatalf("form not loaded: target=%q fields=%v", target, fields)
	}
	if len(media) != 1 || media[0].Key != "" {
		t.Fatalf("persisted media keeps URL only, got %v", media)
	}
}

func TestFormNeverSurrendersBorrowedMedia(t *testing.T) {
	f := NewForm()
	f.Load("7", nil, []blob.Ref{{Key: "q1", URL: "/api/media/staging/q1"}})

	// Selecting new files supersedes the borrowed previews, but the entity
	// still owns them: they must not come back for release.
	displaced := f.AttachMedia([]blob.Ref{{Key: "new", URL: "/api/media/staging/new"}})
	if len(displaced) != 0 {
		t.Fatalf("borrowed refs must not be displaced for release, got %v", displaced)
	}
	_, _, media := f.Snapshot()
	if len(media) != 1 || media[0].Key != "new" {
		t.Fatalf("new files replace the shown set, got %v", media)
	}

	f2 := NewForm()
	f2.Load("7", nil, []blob.Ref{{Key: "q1", URL: "/api/media/staging/q1"}})
	if leftover := f2.Reset(); len(leftover) != 0 {
		t.Fatalf("Reset after Load must release nothing, got %v", leftover)
	}
}
