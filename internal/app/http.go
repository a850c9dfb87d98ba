package app

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hotelops/api/internal/auth"
	"hotelops/api/internal/blob"
	"hotelops/api/internal/content"
	"hotelops/api/internal/draft"
	"hotelops/api/internal/export"
	"hotelops/api/internal/rbac"
	"hotelops/api/internal/reconcile"
	"hotelops/api/internal/remote"
	"hotelops/api/internal/search"
	"hotelops/api/internal/store"
	"hotelops/api/internal/util"
	"hotelops/api/internal/validate"
)

type Handler struct {
	svc *Service
}

// NewHandler builds the HTTP surface of the gateway.
func NewHandler(svc *Service) http.Handler {
	h := &Handler{svc: svc}
	return withMiddleware(http.HandlerFunc(h.route), svc.cfg.CORSOrigin)
}

func (h *Handler) route(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path)
	if len(parts) < 2 || parts[0] != "api" {
		writeError(w, domainError(http.StatusNotFound, "not_found", "no such endpoint"))
		return
	}
	p := parts[1:]
	ctx := r.Context()

	// Public endpoints.
	switch {
	case len(p) == 1 && p[0] == "health" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return

	case len(p) == 1 && p[0] == "ready" && r.Method == http.MethodGet:
		if err := h.svc.Ping(ctx); err != nil {
			writeError(w, domainError(http.StatusServiceUnavailable, "not_ready", err.Error()))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return

	case len(p) == 2 && p[0] == "auth" && p[1] == "signup" && r.Method == http.MethodPost:
		h.handleSignUp(w, r)
		return

	case len(p) == 2 && p[0] == "auth" && p[1] == "signin" && r.Method == http.MethodPost:
		h.handleSignIn(w, r)
		return

	case len(p) == 2 && p[0] == "session" && p[1] == "refresh" && r.Method == http.MethodPost:
		h.handleRefresh(w, r)
		return

	case len(p) == 2 && p[0] == "session" && p[1] == "logout" && r.Method == http.MethodPost:
		h.handleLogout(w, r)
		return

	// Staged previews are fetched by <img> tags, which carry no
	// Authorization header. The object keys are unguessable.
	case len(p) == 3 && p[0] == "media" && p[1] == "staging" && r.Method == http.MethodGet:
		h.handleStagedMedia(w, r, p[2])
		return
	}

	// Everything below needs a session.
	user, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	switch {
	case len(p) == 1 && p[0] == "session" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"user_id":        user.ID,
			"user_name":      user.DisplayName,
			"role":           user.Role,
			"upstream_ready": h.svc.HasUpstreamToken(r.Context(), user.ID),
		})
		return

	case len(p) == 2 && p[0] == "settings" && p[1] == "upstream-token" && r.Method == http.MethodPut:
		h.handleUpstreamToken(w, r, user)
		return

	case len(p) == 3 && p[0] == "users" && p[2] == "role" && r.Method == http.MethodPut:
		h.handleGrantRole(w, r, user, p[1])
		return

	case len(p) == 1 && p[0] == "search" && r.Method == http.MethodGet:
		h.handleSearch(w, r, user)
		return

	case len(p) == 1 && p[0] == "notifications" && r.Method == http.MethodGet:
		h.handleNotifications(w, r, user)
		return

	case len(p) >= 2 && p[0] == "content" && p[1] == "home":
		h.handleHomeContent(w, r, user, p[2:])
		return

	case len(p) == 3 && p[0] == "properties" && p[2] == "export" && r.Method == http.MethodPost:
		h.handleExport(w, r, user, p[1])
		return
	}

	h.handleCollection(w, r, user, p)
}

// ── Auth and session handlers ──

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.svc.SignUp(r.Context(), body.Email, body.Password, body.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.svc.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.svc.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.Logout(r.Context(), body.RefreshToken); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *Handler) handleUpstreamToken(w http.ResponseWriter, r *http.Request, user store.User) {
	if !h.requireRole(w, user, rbac.ActionWrite) {
		return
	}
	var body struct {
		Token string `json:"token"`
		// remember selects the persistent credential scope.
		Remember bool `json:"remember"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.SetUpstreamToken(r.Context(), user.ID, body.Token, body.Remember); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"stored": body.Token != ""})
}

func (h *Handler) handleGrantRole(w http.ResponseWriter, r *http.Request, user store.User, targetID string) {
	if !h.requireRole(w, user, rbac.ActionManage) {
		return
	}
	var body struct {
		Role string `json:"role"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.GrantRole(r.Context(), targetID, body.Role); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"user_id": targetID, "role": string(rbac.Normalize(body.Role))})
}

// ── Search and notifications ──

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request, user store.User) {
	if !h.requireRole(w, user, rbac.ActionRead) {
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	resp := h.svc.Search(search.Query{
		Text:             q.Get("q"),
		UserID:           user.ID,
		FilterType:       search.ResultType(q.Get("type")),
		FilterCollection: q.Get("collection"),
		Limit:            limit,
		Offset:           offset,
	})
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleNotifications(w http.ResponseWriter, r *http.Request, user store.User) {
	if !h.requireRole(w, user, rbac.ActionRead) {
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	events, err := h.svc.Notifications(r.Context(), user.ID, q.Get("collection"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": h.svc.DrainNotifications(user.ID),
		"events":        eventsPayload(events),
	})
}

// ── Home page content ──

func (h *Handler) handleHomeContent(w http.ResponseWriter, r *http.Request, user store.User, rest []string) {
	propertyID := r.URL.Query().Get("property_id")
	if propertyID == "" {
		propertyID = "default"
	}

	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		if !h.requireRole(w, user, rbac.ActionRead) {
			return
		}
		sections, head, err := h.svc.HomeContent(propertyID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sections": sections, "commit": head})

	case len(rest) == 0 && r.Method == http.MethodPut:
		if !h.requireRole(w, user, rbac.ActionWrite) {
			return
		}
		var body struct {
			Sections content.Sections `json:"sections"`
			Message  string           `json:"message"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, err)
			return
		}
		info, err := h.svc.PublishHome(propertyID, body.Sections, user.DisplayName, body.Message)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"commit": info})

	case len(rest) == 1 && rest[0] == "history" && r.Method == http.MethodGet:
		if !h.requireRole(w, user, rbac.ActionRead) {
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 20
		}
		items, err := h.svc.HomeHistory(propertyID, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"history": items})

	case len(rest) == 2 && rest[0] == "history" && r.Method == http.MethodGet:
		if !h.requireRole(w, user, rbac.ActionRead) {
			return
		}
		sections, err := h.svc.HomeAt(propertyID, rest[1])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sections": sections})

	default:
		writeError(w, domainError(http.StatusNotFound, "not_found", "no such endpoint"))
	}
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, user store.User, propertyID string) {
	if !h.requireRole(w, user, rbac.ActionRead) {
		return
	}
	var body struct {
		IncludeEvents bool `json:"include_events"`
	}
	if r.ContentLength > 0 {
		if err := decodeBody(r, &body); err != nil {
			writeError(w, err)
			return
		}
	}
	result, err := h.svc.ExportReport(r.Context(), user.ID, propertyID, body.IncludeEvents)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

// ── Collection workflow ──

func (h *Handler) handleCollection(w http.ResponseWriter, r *http.Request, user store.User, p []string) {
	ctx := r.Context()
	collection := p[0]

	c, err := h.svc.Controller(ctx, user.ID, collection)
	if err != nil {
		writeError(w, err)
		return
	}

	switch {
	case len(p) == 1 && r.Method == http.MethodGet:
		if !h.requireRole(w, user, rbac.ActionRead) {
			return
		}
		// A plain read serves the working queue as-is; only an explicit
		// reload (or a queue that has never been filled) goes upstream,
		// because Refresh replaces the queue and drops queued drafts.
		if r.URL.Query().Get("refresh") == "1" || len(c.List()) == 0 {
			if err := c.Refresh(ctx); err != nil {
				writeError(w, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, collectionPayload(c))

	case len(p) == 2 && p[1] == "media" && r.Method == http.MethodPost:
		if !h.requireRole(w, user, rbac.ActionWrite) {
			return
		}
		h.handleStageMedia(w, r, c)

	// The form endpoint does double duty: an edit_id alone loads the
	// entity into the form buffer, fields submit the buffer.
	case len(p) == 2 && p[1] == "form" && r.Method == http.MethodPost:
		if !h.requireRole(w, user, rbac.ActionWrite) {
			return
		}
		var body struct {
			EditID string            `json:"edit_id"`
			Fields map[string]string `json:"fields"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, err)
			return
		}
		if body.EditID != "" {
			if err := c.BeginEdit(ctx, body.EditID); err != nil {
				writeError(w, err)
				return
			}
		}
		if body.Fields == nil {
			writeJSON(w, http.StatusOK, map[string]any{"form": formPayloadOf(c)})
			return
		}
		c.SetFields(body.Fields)
		e, err := c.Submit(ctx)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entity": entityPayloadOf(e), "status": c.Status()})

	case len(p) == 2 && p[1] == "form" && r.Method == http.MethodDelete:
		if !h.requireRole(w, user, rbac.ActionWrite) {
			return
		}
		c.DiscardForm(ctx)
		writeJSON(w, http.StatusOK, map[string]any{"form": formPayloadOf(c)})

	case len(p) == 2 && p[1] == "save" && r.Method == http.MethodPost:
		if !h.requireRole(w, user, rbac.ActionWrite) {
			return
		}
		h.handleSaveAll(w, r, c)

	case len(p) == 3 && p[2] == "delete-request" && r.Method == http.MethodPost:
		if !h.requireRole(w, user, rbac.ActionWrite) {
			return
		}
		e, err := c.RequestDelete(p[1])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entity": entityPayloadOf(e), "status": c.Status()})

	case len(p) == 3 && p[2] == "delete-confirm" && r.Method == http.MethodPost:
		if !h.requireRole(w, user, rbac.ActionWrite) {
			return
		}
		id, err := c.ConfirmDelete(ctx)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": id, "status": c.Status()})

	case len(p) == 3 && p[2] == "delete-cancel" && r.Method == http.MethodPost:
		if !h.requireRole(w, user, rbac.ActionWrite) {
			return
		}
		if err := c.CancelDelete(); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": c.Status()})

	default:
		writeError(w, domainError(http.StatusNotFound, "not_found", "no such endpoint"))
	}
}

func (h *Handler) handleStageMedia(w http.ResponseWriter, r *http.Request, c *reconcile.Controller) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, domainError(http.StatusBadRequest, "invalid_multipart", "could not parse upload"))
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["images[]"]
	}

	files := make([]reconcile.MediaFile, 0, len(headers))
	var closers []io.Closer
	defer func() {
		for _, cl := range closers {
			_ = cl.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, domainError(http.StatusBadRequest, "invalid_multipart", "could not read upload"))
			return
		}
		closers = append(closers, f)
		files = append(files, reconcile.MediaFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
			Size:        fh.Size,
		})
	}

	refs, err := c.StageMedia(r.Context(), files)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"media": refs})
}

func (h *Handler) handleSaveAll(w http.ResponseWriter, r *http.Request, c *reconcile.Controller) {
	sum := c.SaveAll(r.Context())
	resp := map[string]any{
		"saved":     sum.Saved,
		"remaining": sum.Remaining,
		"status":    c.Status(),
	}
	if sum.Err != nil {
		status, code, message, details := errorParts(sum.Err)
		resp["failed_id"] = sum.FailedID
		resp["code"] = code
		resp["error"] = message
		if details != nil {
			resp["details"] = details
		}
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleStagedMedia(w http.ResponseWriter, r *http.Request, key string) {
	rc, contentType, err := h.svc.blobs.Open(r.Context(), key)
	if err != nil {
		writeError(w, domainError(http.StatusNotFound, "not_found", "staged media not found"))
		return
	}
	defer rc.Close()
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	_, _ = io.Copy(w, rc)
}

// ── Session helpers ──

func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request) (store.User, bool) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, domainError(http.StatusUnauthorized, "missing_token", "authorization required"))
		return store.User{}, false
	}
	user, err := h.svc.SessionFromToken(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return store.User{}, false
	}
	return user, true
}

func (h *Handler) requireRole(w http.ResponseWriter, user store.User, action rbac.Action) bool {
	if !h.svc.Can(user.Role, action) {
		writeError(w, domainError(http.StatusForbidden, "forbidden", "role "+user.Role+" may not "+string(action)))
		return false
	}
	return true
}

// ── Payload shapes ──

type entityPayload struct {
	ID     string            `json:"id"`
	State  string            `json:"state"`
	Fields map[string]string `json:"fields"`
	Media  []blob.Ref        `json:"media"`
}

func entityPayloadOf(e draft.Entity) entityPayload {
	media := e.Media
	if media == nil {
		media = []blob.Ref{}
	}
	return entityPayload{ID: e.ID, State: string(e.State), Fields: e.Fields, Media: media}
}

type formPayload struct {
	TargetID string            `json:"target_id"`
	Fields   map[string]string `json:"fields"`
	Media    []blob.Ref        `json:"media"`
}

func formPayloadOf(c *reconcile.Controller) formPayload {
	targetID, fields, media := c.FormSnapshot()
	if media == nil {
		media = []blob.Ref{}
	}
	return formPayload{TargetID: targetID, Fields: fields, Media: media}
}

func collectionPayload(c *reconcile.Controller) map[string]any {
	entities := c.List()
	payload := make([]entityPayload, 0, len(entities))
	for _, e := range entities {
		payload = append(payload, entityPayloadOf(e))
	}
	return map[string]any{
		"entities": payload,
		"status":   c.Status(),
		"form":     formPayloadOf(c),
	}
}

type eventPayload struct {
	ID         string    `json:"id"`
	Collection string    `json:"collection"`
	EntityID   string    `json:"entity_id"`
	Action     string    `json:"action"`
	Outcome    string    `json:"outcome"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func eventsPayload(events []store.SyncEvent) []eventPayload {
	out := make([]eventPayload, 0, len(events))
	for _, ev := range events {
		out = append(out, eventPayload{
			ID:         ev.ID,
			Collection: ev.Collection,
			EntityID:   ev.EntityID,
			Action:     ev.Action,
			Outcome:    ev.Outcome,
			Message:    ev.Message,
			CreatedAt:  ev.CreatedAt,
		})
	}
	return out
}

// ── HTTP plumbing ──

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("app: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, code, message, details := errorParts(err)
	body := map[string]any{"code": code, "error": message}
	if details != nil {
		body["details"] = details
	}
	writeJSON(w, status, body)
}

// errorParts maps an error to its HTTP representation. Unknown errors are
// logged and hidden behind a generic 500.
func errorParts(err error) (status int, code, message string, details map[string]string) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Status, de.Code, de.Message, de.Details
	}

	var ve *validate.Error
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, "validation_failed", ve.Error(), ve.Fields
	}

	var re *remote.Error
	if errors.As(err, &re) {
		switch re.Kind {
		case remote.KindUnauthenticated:
			return http.StatusUnauthorized, "upstream_unauthenticated", re.Message, nil
		case remote.KindForbidden:
			return http.StatusForbidden, "upstream_forbidden", re.Message, nil
		case remote.KindNotFound:
			return http.StatusNotFound, "upstream_not_found", re.Message, nil
		case remote.KindValidation:
			return http.StatusUnprocessableEntity, "upstream_validation", re.Message, re.Fields
		default:
			return http.StatusBadGateway, "upstream_unavailable", re.Message, nil
		}
	}

	switch {
	case errors.Is(err, reconcile.ErrEntityBusy):
		return http.StatusConflict, "entity_busy", err.Error(), nil
	case errors.Is(err, reconcile.ErrEntityNotFound):
		return http.StatusNotFound, "entity_not_found", err.Error(), nil
	case errors.Is(err, reconcile.ErrNoPendingDelete):
		return http.StatusConflict, "no_pending_delete", err.Error(), nil
	case errors.Is(err, reconcile.ErrDeletePending):
		return http.StatusConflict, "delete_pending", err.Error(), nil
	case errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized, "expired_token", err.Error(), nil
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid_token", err.Error(), nil
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound, "not_found", "record not found", nil
	case errors.Is(err, export.ErrPDFDependencyMissing):
		return http.StatusServiceUnavailable, "pdf_unavailable", err.Error(), nil
	}

	log.Printf("app: internal error: %v", err)
	return http.StatusInternalServerError, "internal_error", "internal error", nil
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return domainError(http.StatusBadRequest, "invalid_body", "could not decode request body")
	}
	return nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// ── Middleware ──

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func withMiddleware(next http.Handler, corsOrigin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = util.NewID("req")
		}
		w.Header().Set("X-Request-ID", requestID)
		setCORSHeaders(w, corsOrigin)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		entry, _ := json.Marshal(map[string]any{
			"time":        time.Now().UTC().Format(time.RFC3339),
			"request_id":  requestID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		log.Println(string(entry))
	})
}

func setCORSHeaders(w http.ResponseWriter, origin string) {
	if origin == "" {
		origin = "*"
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
	w.Header().Set("Access-Control-Max-Age", "86400")
}
