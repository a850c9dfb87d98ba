// Package remote talks to the upstream hotel backend. All entity mutations
// go through here; the gateway never fabricates persisted state on its own.
package remote

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TokenSource resolves the upstream bearer credential for the current
// caller. A false return means no credential is available anywhere.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// Upload is one media file to send upstream.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type Client struct {
	http   *http.Client
	base   string // scheme://host, no trailing slash
	prefix string // e.g. /api
	tokens TokenSource
}

func NewClient(base, prefix string, tokens TokenSource) *Client {
	return &Client{
		http:   &http.Client{Timeout: 30 * time.Second},
		base:   strings.TrimRight(base, "/"),
		prefix: prefix,
		tokens: tokens,
	}
}

// BaseURL returns the backend base used to resolve relative media paths.
func (c *Client) BaseURL() string {
	return c.base
}

func (c *Client) url(parts ...string) string {
	return c.base + c.prefix + "/" + strings.Join(parts, "/")
}

// bearer resolves the credential before any network activity happens. The
// absence of a credential is a terminal condition, not a request failure.
func (c *Client) bearer(ctx context.Context) (string, *Error) {
	token, ok := c.tokens.Token(ctx)
	if !ok || token == "" {
		return "", &Error{Kind: KindUnauthenticated, Message: "no upstream credential configured"}
	}
	return token, nil
}

func (c *Client) do(req *http.Request, token string) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, netError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, responseError(resp)
	}
	return resp, nil
}

// List fetches every record of a collection.
func (c *Client) List(ctx context.Context, collection string) ([]Record, error) {
	token, terr := c.bearer(ctx)
	if terr != nil {
		return nil, terr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(collection), nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}
	resp, err := c.do(req, token)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, netError(err)
	}
	return decodeList(c.base, body)
}

// Create posts a new record as multipart form data. sortOrder is the
// record's position in the full list at save time.
func (c *Client) Create(ctx context.Context, collection string, fields map[string]string, sortOrder int, media []Upload) (Record, error) {
	token, terr := c.bearer(ctx)
	if terr != nil {
		return Record{}, terr
	}

	body, contentType, err := buildMultipart(fields, sortOrder, nil, media, "")
	if err != nil {
		return Record{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(collection), body)
	if err != nil {
		return Record{}, fmt.Errorf("build create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req, token)
	if err != nil {
		return Record{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Record{}, netError(err)
	}
	return decodeOne(c.base, raw)
}

// Update edits an existing record. The backend only accepts multipart on
// POST, so the PATCH intent travels as a _method override field. keepURLs
// lists the already-persisted media the record should retain.
func (c *Client) Update(ctx context.Context, collection, id string, fields map[string]string, sortOrder int, keepURLs []string, media []Upload) (Record, error) {
	token, terr := c.bearer(ctx)
	if terr != nil {
		return Record{}, terr
	}

	body, contentType, err := buildMultipart(fields, sortOrder, keepURLs, media, "PATCH")
	if err != nil {
		return Record{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(collection, id), body)
	if err != nil {
		return Record{}, fmt.Errorf("build update request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req, token)
	if err != nil {
		return Record{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Record{}, netError(err)
	}
	return decodeOne(c.base, raw)
}

// Delete removes a record upstream.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	token, terr := c.bearer(ctx)
	if terr != nil {
		return terr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.url(collection, id), nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	resp, err := c.do(req, token)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func buildMultipart(fields map[string]string, sortOrder int, keepURLs []string, media []Upload, methodOverride string) (io.Reader, string, error) {
	var buf strings.Builder
	w := multipart.NewWriter(&buf)

	if methodOverride != "" {
		if err := w.WriteField("_method", methodOverride); err != nil {
			return nil, "", fmt.Errorf("write method override: %w", err)
		}
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := w.WriteField(name, fields[name]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", name, err)
		}
	}
	if err := w.WriteField("sort_order", strconv.Itoa(sortOrder)); err != nil {
		return nil, "", fmt.Errorf("write sort_order: %w", err)
	}
	for _, u := range keepURLs {
		if err := w.WriteField("existing_images[]", u); err != nil {
			return nil, "", fmt.Errorf("write existing image: %w", err)
		}
	}

	for _, m := range media {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="images[]"; filename=%q`, m.Filename))
		if m.ContentType != "" {
			header.Set("Content-Type", m.ContentType)
		}
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create media part: %w", err)
		}
		if _, err := io.Copy(part, m.Body); err != nil {
			return nil, "", fmt.Errorf("copy media %s: %w", m.Filename, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finish multipart body: %w", err)
	}
	return strings.NewReader(buf.String()), w.FormDataContentType(), nil
}
