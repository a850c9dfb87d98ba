// Package reconcile drives the draft/persisted entity workflow for one
// user and one collection: staging drafts locally, pushing them upstream in
// list order, and keeping staged media ownership consistent across every
// transition.
package reconcile

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"

	"hotelops/api/internal/blob"
	"hotelops/api/internal/draft"
	"hotelops/api/internal/remote"
	"hotelops/api/internal/util"
	"hotelops/api/internal/validate"
)

type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseValidating      Phase = "validating"
	PhaseStagingLocal    Phase = "staging_local"
	PhaseSyncingCreate   Phase = "syncing_create"
	PhaseSyncingUpdate   Phase = "syncing_update"
	PhaseAwaitingConfirm Phase = "awaiting_delete_confirmation"
	PhaseSyncingDelete   Phase = "syncing_delete"
	PhaseError           Phase = "error"
)

var (
	ErrEntityBusy      = errors.New("entity has a sync in flight")
	ErrEntityNotFound  = errors.New("entity not in the working queue")
	ErrNoPendingDelete = errors.New("no delete awaiting confirmation")
	ErrDeletePending   = errors.New("another delete awaits confirmation")
)

// Backend is the slice of the upstream client the controller needs.
type Backend interface {
	List(ctx context.Context, collection string) ([]remote.Record, error)
	Create(ctx context.Context, collection string, fields map[string]string, sortOrder int, media []remote.Upload) (remote.Record, error)
	Update(ctx context.Context, collection, id string, fields map[string]string, sortOrder int, keepURLs []string, media []remote.Upload) (remote.Record, error)
	Delete(ctx context.Context, collection, id string) error
}

// Snapshotter persists the working queue so drafts survive restarts.
type Snapshotter interface {
	SaveQueue(ctx context.Context, entities []draft.Entity) error
}

// Notifier receives the outcome of every sync attempt.
type Notifier interface {
	Event(ctx context.Context, ev Event)
}

type Event struct {
	Collection string
	EntityID   string
	Action     string // create, update, delete
	Outcome    string // ok, failed
	Message    string
}

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"

	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// MediaFile is an upload arriving from the dashboard, not yet staged.
type MediaFile struct {
	Filename    string
	ContentType string
	Body        io.Reader
	Size        int64
}

type Controller struct {
	collection string
	rules      validate.Rules
	backend    Backend
	blobs      *blob.Manager
	snapshots  Snapshotter
	notifier   Notifier

	queue *draft.Store
	form  *draft.Form

	mu            sync.Mutex
	phase         Phase
	lastError     string
	inflight      map[string]bool
	pendingDelete string
}

func New(collection string, rules validate.Rules, backend Backend, blobs *blob.Manager, snapshots Snapshotter, notifier Notifier) *Controller {
	return &Controller{
		collection: collection,
		rules:      rules,
		backend:    backend,
		blobs:      blobs,
		snapshots:  snapshots,
		notifier:   notifier,
		queue:      draft.NewStore(),
		form:       draft.NewForm(),
		phase:      PhaseIdle,
		inflight:   make(map[string]bool),
	}
}

// Seed loads a previously snapshotted queue. Called once before the
// controller serves requests.
func (c *Controller) Seed(entities []draft.Entity) {
	c.queue.SetAll(entities)
}

type Status struct {
	Phase         Phase  `json:"phase"`
	LastError     string `json:"last_error,omitempty"`
	PendingDelete string `json:"pending_delete,omitempty"`
	DraftCount    int    `json:"draft_count"`
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Phase:         c.phase,
		LastError:     c.lastError,
		PendingDelete: c.pendingDelete,
		DraftCount:    c.queue.DraftCount(),
	}
}

func (c *Controller) List() []draft.Entity {
	return c.queue.List()
}

// FormSnapshot exposes the current form buffer for rendering.
func (c *Controller) FormSnapshot() (targetID string, fields map[string]string, media []blob.Ref) {
	return c.form.Snapshot()
}

// Refresh replaces the queue with the upstream list. Drafts dropped by the
// replacement have their staged media released. An aborted fetch (caller
// went away) keeps the current queue and reports no error.
func (c *Controller) Refresh(ctx context.Context) error {
	records, err := c.backend.List(ctx, c.collection)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		c.fail(err)
		return err
	}

	entities := make([]draft.Entity, 0, len(records))
	for _, r := range records {
		entities = append(entities, entityFromRecord(r))
	}

	bg := context.WithoutCancel(ctx)
	displaced := c.queue.SetAll(entities)
	for _, e := range displaced {
		if e.IsDraft() {
			c.blobs.ReleaseAll(bg, e.Previews())
		}
	}
	c.snapshot(bg)
	c.setPhase(PhaseIdle)
	return nil
}

// StageMedia stages uploads and attaches them to the form, displacing
// whatever the form showed before. The batch size is checked before any
// byte is stored.
func (c *Controller) StageMedia(ctx context.Context, files []MediaFile) ([]blob.Ref, error) {
	if err := c.rules.CheckMediaLimit(len(files)); err != nil {
		return nil, err
	}

	refs := make([]blob.Ref, 0, len(files))
	for _, f := range files {
		ref, err := c.blobs.CreatePreview(ctx, f.Filename, f.ContentType, f.Body, f.Size)
		if err != nil {
			c.blobs.ReleaseAll(context.WithoutCancel(ctx), urlsOf(refs))
			return nil, err
		}
		refs = append(refs, ref)
	}

	displaced := c.form.AttachMedia(refs)
	c.blobs.ReleaseAll(context.WithoutCancel(ctx), urlsOf(displaced))
	return refs, nil
}

// BeginEdit loads an entity into the form. Its media comes along as
// borrowed previews.
func (c *Controller) BeginEdit(ctx context.Context, id string) error {
	if c.busy(id) {
		return ErrEntityBusy
	}
	e, ok := c.queue.Get(id)
	if !ok {
		return ErrEntityNotFound
	}
	displaced := c.form.Load(id, e.Fields, e.Media)
	c.blobs.ReleaseAll(context.WithoutCancel(ctx), urlsOf(displaced))
	return nil
}

func (c *Controller) SetFields(fields map[string]string) {
	c.form.SetFields(fields)
}

// DiscardForm abandons the current edit and releases the media the form
// owned.
func (c *Controller) DiscardForm(ctx context.Context) {
	displaced := c.form.Reset()
	c.blobs.ReleaseAll(context.WithoutCancel(ctx), urlsOf(displaced))
	c.setPhase(PhaseIdle)
}

// Submit validates the form and applies it. A blank target stages a new
// draft, a draft target edits it in place (both local, no network); a
// persisted target syncs the update upstream immediately. On validation
// failure the form keeps its contents for correction.
func (c *Controller) Submit(ctx context.Context) (draft.Entity, error) {
	target, fields, media := c.form.Snapshot()

	c.setPhase(PhaseValidating)
	if err := c.rules.Check(fields, len(media)); err != nil {
		c.fail(err)
		return draft.Entity{}, err
	}

	switch {
	case target == "":
		return c.stageNewDraft(ctx)
	case util.IsDraftID(target):
		return c.restageDraft(ctx, target)
	default:
		return c.syncUpdate(ctx, target, fields, media)
	}
}

func (c *Controller) stageNewDraft(ctx context.Context) (draft.Entity, error) {
	c.setPhase(PhaseStagingLocal)
	_, fields, media := c.form.Take()
	e := draft.NewDraft(fields, media)
	c.queue.Prepend(e)
	c.snapshot(context.WithoutCancel(ctx))
	c.setPhase(PhaseIdle)
	return e, nil
}

func (c *Controller) restageDraft(ctx context.Context, id string) (draft.Entity, error) {
	old, ok := c.queue.Get(id)
	if !ok {
		c.fail(ErrEntityNotFound)
		return draft.Entity{}, ErrEntityNotFound
	}

	c.setPhase(PhaseStagingLocal)
	_, fields, media := c.form.Take()
	e := draft.Entity{ID: id, State: draft.StateDraft, Fields: fields, Media: media}
	c.queue.Replace(id, e)

	// Previews the new version no longer references go back to the pool.
	bg := context.WithoutCancel(ctx)
	c.blobs.ReleaseAll(bg, missingFrom(old.Previews(), e.Previews()))
	c.snapshot(bg)
	c.setPhase(PhaseIdle)
	return e, nil
}

func (c *Controller) syncUpdate(ctx context.Context, id string, fields map[string]string, media []blob.Ref) (draft.Entity, error) {
	if !c.acquire(id) {
		return draft.Entity{}, ErrEntityBusy
	}
	defer c.release(id)

	idx := c.queue.Index(id)
	if idx < 0 {
		c.fail(ErrEntityNotFound)
		return draft.Entity{}, ErrEntityNotFound
	}

	c.setPhase(PhaseSyncingUpdate)
	// The mutation must outlive the request that triggered it.
	bg := context.WithoutCancel(ctx)

	keep, uploads, closers, err := c.openMedia(bg, media)
	if err != nil {
		c.fail(err)
		return draft.Entity{}, err
	}
	rec, err := c.backend.Update(bg, c.collection, id, fields, idx, keep, uploads)
	closeAll(closers)
	if err != nil {
		c.fail(err)
		c.notify(bg, Event{Collection: c.collection, EntityID: id, Action: ActionUpdate, Outcome: OutcomeFailed, Message: err.Error()})
		return draft.Entity{}, err
	}

	e := entityFromRecord(rec)
	if e.ID == "" {
		e.ID = id
	}
	c.queue.Replace(id, e)

	// Upstream holds the media now; the staged copies are spent.
	_, _, taken := c.form.Take()
	c.blobs.ReleaseAll(bg, urlsOf(taken))
	c.snapshot(bg)
	c.notify(bg, Event{Collection: c.collection, EntityID: e.ID, Action: ActionUpdate, Outcome: OutcomeOK})
	c.setPhase(PhaseIdle)
	return e, nil
}

// Summary reports how a save-all run went. A failure stops the run; the
// entities already saved stay saved.
type Summary struct {
	Saved     int    `json:"saved"`
	Remaining int    `json:"remaining"`
	FailedID  string `json:"failed_id,omitempty"`
	Err       error  `json:"-"`
}

// SaveAll pushes every draft upstream sequentially, in list order. Each
// draft's sort ordinal is its index in the full list at the moment it is
// sent. The first failure ends the run.
func (c *Controller) SaveAll(ctx context.Context) Summary {
	bg := context.WithoutCancel(ctx)
	drafts := c.queue.Drafts()

	var sum Summary
	for _, d := range drafts {
		idx := c.queue.Index(d.ID)
		if idx < 0 {
			continue
		}
		if !c.acquire(d.ID) {
			c.fail(ErrEntityBusy)
			c.notify(bg, Event{Collection: c.collection, EntityID: d.ID, Action: ActionCreate, Outcome: OutcomeFailed, Message: ErrEntityBusy.Error()})
			sum.FailedID, sum.Err = d.ID, ErrEntityBusy
			break
		}

		c.setPhase(PhaseSyncingCreate)
		_, uploads, closers, err := c.openMedia(bg, d.Media)
		if err == nil {
			var rec remote.Record
			rec, err = c.backend.Create(bg, c.collection, d.Fields, idx, uploads)
			if err == nil {
				e := entityFromRecord(rec)
				c.queue.Replace(d.ID, e)
				c.blobs.ReleaseAll(bg, d.Previews())
				c.notify(bg, Event{Collection: c.collection, EntityID: e.ID, Action: ActionCreate, Outcome: OutcomeOK})
				sum.Saved++
			}
		}
		closeAll(closers)
		c.release(d.ID)

		if err != nil {
			c.fail(err)
			c.notify(bg, Event{Collection: c.collection, EntityID: d.ID, Action: ActionCreate, Outcome: OutcomeFailed, Message: err.Error()})
			sum.FailedID, sum.Err = d.ID, err
			break
		}
	}

	sum.Remaining = c.queue.DraftCount()
	c.snapshot(bg)
	if sum.Err == nil {
		c.setPhase(PhaseIdle)
	}
	return sum
}

// RequestDelete marks an entity for deletion, pending confirmation.
func (c *Controller) RequestDelete(id string) (draft.Entity, error) {
	e, ok := c.queue.Get(id)
	if !ok {
		return draft.Entity{}, ErrEntityNotFound
	}
	if c.busy(id) {
		return draft.Entity{}, ErrEntityBusy
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingDelete != "" && c.pendingDelete != id {
		return draft.Entity{}, ErrDeletePending
	}
	c.pendingDelete = id
	c.phase = PhaseAwaitingConfirm
	return e, nil
}

// CancelDelete abandons the pending delete.
func (c *Controller) CancelDelete() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingDelete == "" {
		return ErrNoPendingDelete
	}
	c.pendingDelete = ""
	c.phase = PhaseIdle
	return nil
}

// ConfirmDelete executes the pending delete. Drafts are dropped locally
// and their media released; persisted entities are deleted upstream first
// and removed from the queue only after the backend confirms.
func (c *Controller) ConfirmDelete(ctx context.Context) (string, error) {
	c.mu.Lock()
	id := c.pendingDelete
	c.mu.Unlock()
	if id == "" {
		return "", ErrNoPendingDelete
	}

	e, ok := c.queue.Get(id)
	if !ok {
		c.clearPending()
		return "", ErrEntityNotFound
	}

	bg := context.WithoutCancel(ctx)
	if e.IsDraft() {
		c.clearPending()
		c.queue.Remove(id)
		c.dropFormTarget(bg, id)
		c.blobs.ReleaseAll(bg, e.Previews())
		c.snapshot(bg)
		c.setPhase(PhaseIdle)
		return id, nil
	}

	if !c.acquire(id) {
		return "", ErrEntityBusy
	}
	c.setPhase(PhaseSyncingDelete)
	err := c.backend.Delete(bg, c.collection, id)
	c.release(id)
	if err != nil {
		c.clearPending()
		c.fail(err)
		c.notify(bg, Event{Collection: c.collection, EntityID: id, Action: ActionDelete, Outcome: OutcomeFailed, Message: err.Error()})
		return "", err
	}

	c.clearPending()
	c.queue.Remove(id)
	c.dropFormTarget(bg, id)
	c.snapshot(bg)
	c.notify(bg, Event{Collection: c.collection, EntityID: id, Action: ActionDelete, Outcome: OutcomeOK})
	c.setPhase(PhaseIdle)
	return id, nil
}

// dropFormTarget resets the form if it was editing the removed entity.
func (c *Controller) dropFormTarget(ctx context.Context, id string) {
	if c.form.TargetID() != id {
		return
	}
	c.blobs.ReleaseAll(ctx, urlsOf(c.form.Reset()))
}

func (c *Controller) openMedia(ctx context.Context, media []blob.Ref) (keep []string, uploads []remote.Upload, closers []io.Closer, err error) {
	for _, m := range media {
		if m.Key == "" || !blob.IsStaged(m.URL) {
			keep = append(keep, m.URL)
			continue
		}
		r, contentType, oerr := c.blobs.Open(ctx, m.Key)
		if oerr != nil {
			closeAll(closers)
			return nil, nil, nil, oerr
		}
		closers = append(closers, r)
		uploads = append(uploads, remote.Upload{Filename: m.Key, ContentType: contentType, Body: r})
	}
	return keep, uploads, closers, nil
}

func (c *Controller) acquire(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[id] {
		return false
	}
	c.inflight[id] = true
	return true
}

func (c *Controller) release(id string) {
	c.mu.Lock()
	delete(c.inflight, id)
	c.mu.Unlock()
}

func (c *Controller) busy(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[id]
}

func (c *Controller) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	if p != PhaseError {
		c.lastError = ""
	}
	c.mu.Unlock()
}

func (c *Controller) fail(err error) {
	c.mu.Lock()
	c.phase = PhaseError
	c.lastError = err.Error()
	c.mu.Unlock()
}

func (c *Controller) clearPending() {
	c.mu.Lock()
	c.pendingDelete = ""
	c.mu.Unlock()
}

func (c *Controller) snapshot(ctx context.Context) {
	if c.snapshots == nil {
		return
	}
	if err := c.snapshots.SaveQueue(ctx, c.queue.List()); err != nil {
		log.Printf("reconcile: snapshot %s queue: %v", c.collection, err)
	}
}

func (c *Controller) notify(ctx context.Context, ev Event) {
	if c.notifier == nil {
		return
	}
	c.notifier.Event(ctx, ev)
}

func entityFromRecord(r remote.Record) draft.Entity {
	media := make([]blob.Ref, 0, len(r.MediaURLs))
	for _, u := range r.MediaURLs {
		media = append(media, blob.Ref{URL: u})
	}
	fields := r.Fields
	if fields == nil {
		fields = make(map[string]string)
	}
	return draft.Entity{ID: r.ID, State: draft.StatePersisted, Fields: fields, Media: media}
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}

func urlsOf(refs []blob.Ref) []string {
	urls := make([]string, 0, len(refs))
	for _, r := range refs {
		urls = append(urls, r.URL)
	}
	return urls
}

// missingFrom returns the URLs in prev that next no longer references.
func missingFrom(prev, next []string) []string {
	keep := make(map[string]bool, len(next))
	for _, u := range next {
		keep[u] = true
	}
	var gone []string
	for _, u := range prev {
		if !keep[u] {
			gone = append(gone, u)
		}
	}
	return gone
}
