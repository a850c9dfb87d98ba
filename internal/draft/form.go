package draft

import (
	"sync"

	"hotelops/api/internal/blob"
)

// Form is the per-user editing buffer. It tracks two kinds of media:
// borrowed refs loaded from an existing entity (the entity keeps owning
// them) and owned refs staged during this editing session. Only owned refs
// are the form's to release; Take moves them out, after which a Reset
// releases nothing.
type Form struct {
	mu       sync.Mutex
	targetID string
	fields   map[string]string
	borrowed []blob.Ref
	owned    []blob.Ref
}

func NewForm() *Form {
	return &Form{fields: make(map[string]string)}
}

// Load fills the form for editing an existing entity. The entity's media
// comes in as borrowed. Owned refs from a previous session are returned
// for release.
func (f *Form) Load(targetID string, fields map[string]string, media []blob.Ref) []blob.Ref {
	f.mu.Lock()
	defer f.mu.Unlock()
	displaced := f.owned
	f.targetID = targetID
	f.fields = cloneFields(fields)
	f.borrowed = append([]blob.Ref(nil), media...)
	f.owned = nil
	return displaced
}

func (f *Form) SetField(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields[name] = value
}

func (f *Form) SetFields(fields map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range fields {
		f.fields[k] = v
	}
}

// AttachMedia replaces the form's media with freshly staged refs. Picking
// new files supersedes whatever was shown before: previously owned refs
// are returned for release and borrowed refs are dropped (their entity
// still owns them).
func (f *Form) AttachMedia(refs []blob.Ref) []blob.Ref {
	f.mu.Lock()
	defer f.mu.Unlock()
	displaced := f.owned
	f.owned = append([]blob.Ref(nil), refs...)
	f.borrowed = nil
	return displaced
}

func (f *Form) TargetID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.targetID
}

// Snapshot returns a copy of the form contents without changing ownership.
// Media is the combined borrowed-then-owned set.
func (f *Form) Snapshot() (targetID string, fields map[string]string, media []blob.Ref) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.targetID, cloneFields(f.fields), f.combinedLocked()
}

// Borrowed returns the media refs the form shows but does not own.
func (f *Form) Borrowed() []blob.Ref {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]blob.Ref(nil), f.borrowed...)
}

// Take empties the form and hands its contents to the caller. Ownership of
// the owned refs moves with the result.
func (f *Form) Take() (targetID string, fields map[string]string, media []blob.Ref) {
	f.mu.Lock()
	defer f.mu.Unlock()
	targetID, fields, media = f.targetID, f.fields, f.combinedLocked()
	f.targetID = ""
	f.fields = make(map[string]string)
	f.borrowed = nil
	f.owned = nil
	return targetID, fields, media
}

// Reset clears the form and returns the refs it owned so the caller can
// release them.
func (f *Form) Reset() []blob.Ref {
	f.mu.Lock()
	defer f.mu.Unlock()
	displaced := f.owned
	f.targetID = ""
	f.fields = make(map[string]string)
	f.borrowed = nil
	f.owned = nil
	return displaced
}

func (f *Form) combinedLocked() []blob.Ref {
	media := make([]blob.Ref, 0, len(f.borrowed)+len(f.owned))
	media = append(media, f.borrowed...)
	media = append(media, f.owned...)
	return media
}

func cloneFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
