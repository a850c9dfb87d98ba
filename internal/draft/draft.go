// Package draft holds the ordered queue of entities a dashboard user is
// working on. Each entity is either a local draft (known only to this
// gateway) or a persisted record confirmed by the upstream backend; the
// position in the queue is the sort ordinal sent upstream on save.
package draft

import (
	"sync"

	"hotelops/api/internal/blob"
	"hotelops/api/internal/util"
)

type State string

const (
	StateDraft     State = "draft"
	StatePersisted State = "persisted"
)

type Entity struct {
	ID     string
	State  State
	Fields map[string]string
	// Media previews, in display order. While the entity is a draft every
	// ref carries the staged object key; once persisted only URLs remain.
	Media []blob.Ref
}

func (e Entity) IsDraft() bool {
	return e.State == StateDraft
}

// Previews returns the preview URLs in order.
func (e Entity) Previews() []string {
	urls := make([]string, 0, len(e.Media))
	for _, m := range e.Media {
		urls = append(urls, m.URL)
	}
	return urls
}

func clone(e Entity) Entity {
	fields := make(map[string]string, len(e.Fields))
	for k, v := range e.Fields {
		fields[k] = v
	}
	media := make([]blob.Ref, len(e.Media))
	copy(media, e.Media)
	e.Fields = fields
	e.Media = media
	return e
}

// Store is the ordered entity queue. New drafts go to the front (newest
// first, matching display order); Replace keeps list position so a synced
// entity lands exactly where its draft sat.
type Store struct {
	mu       sync.Mutex
	entities []Entity
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entities)
}

func (s *Store) List() []Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entity, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, clone(e))
	}
	return out
}

// Prepend adds a new draft entity to the front of the queue.
func (s *Store) Prepend(e Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = append([]Entity{clone(e)}, s.entities...)
}

// Replace swaps the entity with the given id, preserving its position.
func (s *Store) Replace(id string, e Entity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entities {
		if s.entities[i].ID == id {
			s.entities[i] = clone(e)
			return true
		}
	}
	return false
}

// Remove deletes the entity with the given id and returns it.
func (s *Store) Remove(id string) (Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entities {
		if s.entities[i].ID == id {
			removed := s.entities[i]
			s.entities = append(s.entities[:i], s.entities[i+1:]...)
			return removed, true
		}
	}
	return Entity{}, false
}

func (s *Store) Get(id string) (Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entities {
		if e.ID == id {
			return clone(e), true
		}
	}
	return Entity{}, false
}

// Index returns the current list position of id, or -1.
func (s *Store) Index(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entities {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Drafts returns the unsaved entities in list order.
func (s *Store) Drafts() []Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entity
	for _, e := range s.entities {
		if e.IsDraft() {
			out = append(out, clone(e))
		}
	}
	return out
}

func (s *Store) DraftCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, e := range s.entities {
		if e.IsDraft() {
			count++
		}
	}
	return count
}

// SetAll replaces the whole queue (refresh from upstream). Returns the
// entities that were displaced so the caller can release their media.
func (s *Store) SetAll(entities []Entity) []Entity {
	cloned := make([]Entity, 0, len(entities))
	for _, e := range entities {
		cloned = append(cloned, clone(e))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	displaced := s.entities
	s.entities = cloned
	return displaced
}

// NewDraft builds a draft entity with a locally-generated id.
func NewDraft(fields map[string]string, media []blob.Ref) Entity {
	return clone(Entity{
		ID:     util.NewDraftID(),
		State:  StateDraft,
		Fields: fields,
		Media:  media,
	})
}
