// Package app wires the gateway together: sessions and roles, the
// per-user reconciliation controllers, upstream credentials, content
// publishing, search and report export.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"hotelops/api/internal/auth"
	"hotelops/api/internal/authpw"
	"hotelops/api/internal/blob"
	"hotelops/api/internal/config"
	"hotelops/api/internal/content"
	"hotelops/api/internal/draft"
	"hotelops/api/internal/export"
	"hotelops/api/internal/rbac"
	"hotelops/api/internal/reconcile"
	"hotelops/api/internal/remote"
	"hotelops/api/internal/search"
	"hotelops/api/internal/session"
	"hotelops/api/internal/store"
	"hotelops/api/internal/util"
	"hotelops/api/internal/validate"
)

// Store is the persistence surface the service needs.
type Store interface {
	Ping(ctx context.Context) error
	CreateUser(ctx context.Context, user store.User) error
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, id string) (store.User, error)
	UpdateUserRole(ctx context.Context, id, role string) error
	ReplaceDraftQueue(ctx context.Context, userID, collection string, drafts []store.DraftRecord) error
	LoadDraftQueue(ctx context.Context, userID, collection string) ([]store.DraftRecord, error)
	InsertSyncEvent(ctx context.Context, event store.SyncEvent) error
	ListSyncEvents(ctx context.Context, userID, collection string, limit int) ([]store.SyncEvent, error)
}

type Service struct {
	cfg      config.Config
	store    Store
	sessions *session.RedisStore
	blobs    *blob.Manager
	search   *search.Service
	content  *content.Service
	accounts *authpw.Service

	mu          sync.Mutex
	controllers map[string]*reconcile.Controller

	notesMu sync.Mutex
	notes   map[string][]Notification
}

func New(cfg config.Config, st Store, sessions *session.RedisStore, blobs *blob.Manager, searcher *search.Service, contentSvc *content.Service) *Service {
	return &Service{
		cfg:         cfg,
		store:       st,
		sessions:    sessions,
		blobs:       blobs,
		search:      searcher,
		content:     contentSvc,
		accounts:    authpw.NewService(st),
		controllers: make(map[string]*reconcile.Controller),
		notes:       make(map[string][]Notification),
	}
}

// Bootstrap seeds the initial admin account and warms the search index.
func (s *Service) Bootstrap(ctx context.Context) {
	if s.cfg.AdminEmail != "" && s.cfg.AdminPassword != "" {
		if _, err := s.store.GetUserByEmail(ctx, s.cfg.AdminEmail); errors.Is(err, sql.ErrNoRows) {
			_, err := s.accounts.SignUp(ctx, authpw.SignUpRequest{
				Email:       s.cfg.AdminEmail,
				Password:    s.cfg.AdminPassword,
				DisplayName: "Administrator",
				Role:        string(rbac.RoleAdmin),
			})
			if err != nil {
				log.Printf("app: seed admin account: %v", err)
			} else {
				log.Printf("app: seeded admin account %s", s.cfg.AdminEmail)
			}
		}
	}
	if s.search != nil {
		s.search.ReindexAllFromPG(ctx)
	}
}

func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if s.sessions != nil {
		if err := s.sessions.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// ── Sessions ──

type Session struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	Role         string    `json:"role"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (Session, error) {
	user, err := s.accounts.SignUp(ctx, authpw.SignUpRequest{Email: email, Password: password, DisplayName: displayName})
	if err != nil {
		return Session{}, domainError(http.StatusBadRequest, "signup_failed", err.Error())
	}
	return s.issueSession(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.accounts.SignIn(ctx, authpw.SignInRequest{Email: email, Password: password})
	if err != nil {
		return Session{}, domainError(http.StatusUnauthorized, "invalid_credentials", err.Error())
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	expiresAt := time.Now().Add(s.cfg.AccessTTL)
	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.DisplayName,
		Role: user.Role,
		JTI:  util.NewID("jti"),
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, fmt.Errorf("issue access token: %w", err)
	}

	refresh := util.NewID("rft")
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user, time.Now().Add(s.cfg.RefreshTTL)); err != nil {
		return Session{}, fmt.Errorf("save refresh session: %w", err)
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Role:         user.Role,
		ExpiresAt:    expiresAt,
	}, nil
}

// Refresh rotates a refresh token into a fresh session. The role is
// re-read from the database so grants and revocations take effect here.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	hash := auth.HashToken(refreshToken)
	cached, err := s.sessions.LookupRefreshSession(ctx, hash)
	if err != nil {
		return Session{}, domainError(http.StatusUnauthorized, "invalid_refresh_token", "refresh token not found or expired")
	}
	if err := s.sessions.RevokeRefreshSession(ctx, hash); err != nil {
		return Session{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	user, err := s.store.GetUserByID(ctx, cached.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, domainError(http.StatusUnauthorized, "invalid_refresh_token", "account no longer exists")
		}
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
}

// SessionFromToken resolves an access token to the account behind it.
func (s *Service) SessionFromToken(ctx context.Context, token string) (store.User, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return store.User{}, err
	}
	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.User{}, auth.ErrInvalidToken
		}
		return store.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

// GrantRole changes another account's role. Admin only.
func (s *Service) GrantRole(ctx context.Context, userID, role string) error {
	return s.store.UpdateUserRole(ctx, userID, string(rbac.Normalize(role)))
}

// ── Upstream credentials ──

// SetUpstreamToken stores the caller's upstream API token. An empty token
// clears both scopes.
func (s *Service) SetUpstreamToken(ctx context.Context, userID, token string, persistent bool) error {
	if token == "" {
		return s.sessions.ClearCredentials(ctx, userID)
	}
	return s.sessions.SaveCredential(ctx, userID, token, persistent, s.cfg.RefreshTTL)
}

// HasUpstreamToken reports whether the caller can reach the upstream at all.
func (s *Service) HasUpstreamToken(ctx context.Context, userID string) bool {
	resolver := session.CredentialResolver{Store: s.sessions, Fallback: s.cfg.UpstreamToken}
	_, ok := resolver.Credential(ctx, userID, "")
	return ok
}

// tokenSource resolves one user's upstream bearer token at request time.
type tokenSource struct {
	svc    *Service
	userID string
}

func (t tokenSource) Token(ctx context.Context) (string, bool) {
	resolver := session.CredentialResolver{Store: t.svc.sessions, Fallback: t.svc.cfg.UpstreamToken}
	return resolver.Credential(ctx, t.userID, "")
}

// ── Reconciliation controllers ──

// Controller returns the reconciliation controller for one user and
// collection, creating and seeding it on first use.
func (s *Service) Controller(ctx context.Context, userID, collection string) (*reconcile.Controller, error) {
	rules, ok := validate.ForCollection(collection)
	if !ok {
		return nil, domainError(http.StatusNotFound, "unknown_collection", "unknown collection "+collection)
	}

	key := userID + "|" + collection
	s.mu.Lock()
	if c, ok := s.controllers[key]; ok {
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()

	records, err := s.store.LoadDraftQueue(ctx, userID, collection)
	if err != nil {
		return nil, fmt.Errorf("load draft queue: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.controllers[key]; ok {
		return c, nil
	}

	backend := remote.NewClient(s.cfg.UpstreamBaseURL, s.cfg.UpstreamPrefix, tokenSource{svc: s, userID: userID})
	c := reconcile.New(collection, rules, backend,
		s.blobs,
		&queueSnapshots{svc: s, userID: userID, collection: collection},
		&eventRecorder{svc: s, userID: userID},
	)
	c.Seed(entitiesFromRecords(records))
	s.controllers[key] = c
	return c, nil
}

// queueSnapshots persists one controller's queue and mirrors it into the
// search index.
type queueSnapshots struct {
	svc        *Service
	userID     string
	collection string
}

func (q *queueSnapshots) SaveQueue(ctx context.Context, entities []draft.Entity) error {
	records := make([]store.DraftRecord, 0, len(entities))
	for i, e := range entities {
		media := make([]store.DraftMedia, 0, len(e.Media))
		for _, m := range e.Media {
			media = append(media, store.DraftMedia{Key: m.Key, URL: m.URL})
		}
		records = append(records, store.DraftRecord{
			EntityID:   e.ID,
			UserID:     q.userID,
			Collection: q.collection,
			Position:   i,
			Fields:     e.Fields,
			Media:      media,
		})
	}
	if err := q.svc.store.ReplaceDraftQueue(ctx, q.userID, q.collection, records); err != nil {
		return err
	}

	if q.svc.search != nil {
		for _, e := range entities {
			q.svc.search.IndexEntity(search.EntityRecord{
				ID:         search.EntityKey(q.userID, q.collection, e.ID),
				EntityID:   e.ID,
				UserID:     q.userID,
				Collection: q.collection,
				Title:      entityTitle(e),
				Summary:    entitySummary(e),
				State:      string(e.State),
			})
		}
	}
	return nil
}

// eventRecorder appends sync outcomes to the audit log and search index.
type eventRecorder struct {
	svc    *Service
	userID string
}

func (r *eventRecorder) Event(ctx context.Context, ev reconcile.Event) {
	record := store.SyncEvent{
		ID:         util.NewID("evt"),
		UserID:     r.userID,
		Collection: ev.Collection,
		EntityID:   ev.EntityID,
		Action:     ev.Action,
		Outcome:    ev.Outcome,
		Message:    ev.Message,
	}
	if err := r.svc.store.InsertSyncEvent(ctx, record); err != nil {
		log.Printf("app: record sync event: %v", err)
	}

	level := "success"
	message := ev.Action + " succeeded"
	if ev.Outcome == reconcile.OutcomeFailed {
		level = "error"
		message = ev.Message
	}
	r.svc.pushNotification(r.userID, Notification{
		Level:      level,
		Collection: ev.Collection,
		EntityID:   ev.EntityID,
		Message:    message,
		CreatedAt:  time.Now(),
	})
	if r.svc.search != nil {
		r.svc.search.IndexEvent(search.EventRecord{
			ID:         record.ID,
			UserID:     record.UserID,
			Collection: record.Collection,
			EntityID:   record.EntityID,
			Action:     record.Action,
			Outcome:    record.Outcome,
			Message:    record.Message,
		})
	}
}

func entitiesFromRecords(records []store.DraftRecord) []draft.Entity {
	entities := make([]draft.Entity, 0, len(records))
	for _, r := range records {
		state := draft.StatePersisted
		if util.IsDraftID(r.EntityID) {
			state = draft.StateDraft
		}
		media := make([]blob.Ref, 0, len(r.Media))
		for _, m := range r.Media {
			media = append(media, blob.Ref{Key: m.Key, URL: m.URL})
		}
		fields := r.Fields
		if fields == nil {
			fields = make(map[string]string)
		}
		entities = append(entities, draft.Entity{ID: r.EntityID, State: state, Fields: fields, Media: media})
	}
	return entities
}

func entityTitle(e draft.Entity) string {
	if t := e.Fields["room_type"]; t != "" {
		return t
	}
	if n := e.Fields["name"]; n != "" {
		return n
	}
	return e.ID
}

func entitySummary(e draft.Entity) string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return strings.Join(parts, ", ")
}

// ── Notifications ──

// Notification is one transient toast-style message. Reading the feed
// drains it.
type Notification struct {
	Level      string    `json:"level"` // success, error
	Collection string    `json:"collection"`
	EntityID   string    `json:"entity_id"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

func (s *Service) pushNotification(userID string, n Notification) {
	s.notesMu.Lock()
	defer s.notesMu.Unlock()
	s.notes[userID] = append(s.notes[userID], n)
	// Unread feeds are capped; a dashboard that never drains should not
	// grow the gateway without bound.
	if len(s.notes[userID]) > 100 {
		s.notes[userID] = s.notes[userID][len(s.notes[userID])-100:]
	}
}

// DrainNotifications returns the pending transient notifications and
// clears the feed.
func (s *Service) DrainNotifications(userID string) []Notification {
	s.notesMu.Lock()
	defer s.notesMu.Unlock()
	pending := s.notes[userID]
	delete(s.notes, userID)
	if pending == nil {
		pending = []Notification{}
	}
	return pending
}

func (s *Service) Notifications(ctx context.Context, userID, collection string, limit int) ([]store.SyncEvent, error) {
	events, err := s.store.ListSyncEvents(ctx, userID, collection, limit)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []store.SyncEvent{}
	}
	return events, nil
}

// ── Search ──

func (s *Service) Search(q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(q)
}

// ── Home page content ──

func (s *Service) HomeContent(propertyID string) (content.Sections, content.CommitInfo, error) {
	if err := s.content.EnsureRepo(propertyID, content.Sections{}, "system"); err != nil {
		return content.Sections{}, content.CommitInfo{}, err
	}
	return s.content.Get(propertyID)
}

func (s *Service) PublishHome(propertyID string, sections content.Sections, author, message string) (content.CommitInfo, error) {
	if err := s.content.EnsureRepo(propertyID, content.Sections{}, author); err != nil {
		return content.CommitInfo{}, err
	}
	if message == "" {
		message = "Update home page sections"
	}
	return s.content.Save(propertyID, sections, author, message)
}

func (s *Service) HomeHistory(propertyID string, limit int) ([]content.CommitInfo, error) {
	if err := s.content.EnsureRepo(propertyID, content.Sections{}, "system"); err != nil {
		return nil, err
	}
	return s.content.History(propertyID, limit)
}

func (s *Service) HomeAt(propertyID, hash string) (content.Sections, error) {
	return s.content.GetByHash(propertyID, hash)
}

// ── Report export ──

func (s *Service) ExportReport(ctx context.Context, userID, propertyID string, includeEvents bool) (*export.Result, error) {
	exporter := export.NewService(&reportData{svc: s, userID: userID})
	return exporter.Export(ctx, export.Request{PropertyID: propertyID, IncludeEvents: includeEvents})
}

// reportData feeds the exporter from one user's working queues, the
// published home content and the sync audit log.
type reportData struct {
	svc    *Service
	userID string
}

func (d *reportData) GetProperty(ctx context.Context, id string) (export.PropertyInfo, error) {
	c, err := d.svc.Controller(ctx, d.userID, "properties")
	if err != nil {
		return export.PropertyInfo{}, err
	}
	if len(c.List()) == 0 {
		if err := c.Refresh(ctx); err != nil {
			return export.PropertyInfo{}, err
		}
	}
	for _, e := range c.List() {
		if e.ID == id {
			return export.PropertyInfo{ID: e.ID, Name: e.Fields["name"], Address: e.Fields["address"]}, nil
		}
	}
	return export.PropertyInfo{}, domainError(http.StatusNotFound, "property_not_found", "property not in the working queue")
}

func (d *reportData) ListRooms(ctx context.Context, propertyID string) ([]export.RoomInfo, error) {
	c, err := d.svc.Controller(ctx, d.userID, "rooms")
	if err != nil {
		return nil, err
	}
	if len(c.List()) == 0 {
		if err := c.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	rooms := make([]export.RoomInfo, 0)
	for _, e := range c.List() {
		rooms = append(rooms, export.RoomInfo{
			RoomType:      e.Fields["room_type"],
			PricePerNight: e.Fields["price_per_night"],
			Capacity:      e.Fields["capacity"],
			State:         string(e.State),
		})
	}
	return rooms, nil
}

func (d *reportData) GetHomeSections(ctx context.Context, propertyID string) (export.SectionsInfo, error) {
	sections, _, err := d.svc.content.Get(propertyID)
	if err != nil {
		return export.SectionsInfo{}, err
	}
	return export.SectionsInfo{
		HeroTitle:    sections.HeroTitle,
		HeroSubtitle: sections.HeroSubtitle,
		About:        sections.About,
		Amenities:    sections.Amenities,
		ContactEmail: sections.ContactEmail,
		ContactPhone: sections.ContactPhone,
	}, nil
}

func (d *reportData) ListRecentEvents(ctx context.Context, propertyID string) ([]export.EventInfo, error) {
	events, err := d.svc.store.ListSyncEvents(ctx, d.userID, "", 20)
	if err != nil {
		return nil, err
	}
	infos := make([]export.EventInfo, 0, len(events))
	for _, ev := range events {
		infos = append(infos, export.EventInfo{
			Action:    ev.Action,
			Outcome:   ev.Outcome,
			Message:   ev.Message,
			CreatedAt: ev.CreatedAt,
		})
	}
	return infos, nil
}
