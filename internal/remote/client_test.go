package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type staticTokens struct {
	token string
}

func (s staticTokens) Token(context.Context) (string, bool) {
	return s.token, s.token != ""
}

func TestMissingCredentialFailsBeforeNetwork(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "/api", staticTokens{})
	_, err := c.List(context.Background(), "rooms")

	var rerr *Error
	if !errors.As(err, &rerr) || rerr.Kind != KindUnauthenticated {
		t.Fatalf("expected unauthenticated error, got %v", err)
	}
	if hits != 0 {
		t.Fatalf("no request may be sent without a credential, got %d", hits)
	}
}

func TestListResponseShapes(t *testing.T) {
	shapes := map[string]string{
		"bare array":  `[{"id": 1, "room_type": "Deluxe"}]`,
		"data":        `{"data": [{"id": 1, "room_type": "Deluxe"}]}`,
		"paginator":   `{"data": {"data": [{"id": 1, "room_type": "Deluxe"}], "total": 1}}`,
		"first array": `{"rooms": [{"id": 1, "room_type": "Deluxe"}]}`,
	}

	for name, body := range shapes {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/rooms" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
					t.Errorf("bad auth header %q", got)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "/api", staticTokens{token: "tok-1"})
			records, err := c.List(context.Background(), "rooms")
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(records) != 1 || records[0].ID != "1" || records[0].Fields["room_type"] != "Deluxe" {
				t.Fatalf("unexpected records %+v", records)
			}
		})
	}
}

func TestListResolvesMediaURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": 2, "images": ["/storage/rooms/2.jpg", "https://cdn.example.com/a.jpg"]}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "/api", staticTokens{token: "tok-1"})
	records, err := c.List(context.Background(), "rooms")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{srv.URL + "/storage/rooms/2.jpg", "https://cdn.example.com/a.jpg"}
	if len(records[0].MediaURLs) != 2 || records[0].MediaURLs[0] != want[0] || records[0].MediaURLs[1] != want[1] {
		t.Fatalf("media urls = %v, want %v", records[0].MediaURLs, want)
	}
}

func TestCreateSendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/rooms" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("not multipart: %v", err)
		}
		if got := r.FormValue("room_type"); got != "Suite" {
			t.Errorf("room_type = %q", got)
		}
		if got := r.FormValue("sort_order"); got != "0" {
			t.Errorf("sort_order = %q", got)
		}
		files := r.MultipartForm.File["images[]"]
		if len(files) != 1 || files[0].Filename != "a.jpg" {
			t.Fatalf("images[] = %+v", files)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data": {"id": 9, "room_type": "Suite"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "/api", staticTokens{token: "tok-1"})
	rec, err := c.Create(context.Background(), "rooms",
		map[string]string{"room_type": "Suite"}, 0,
		[]Upload{{Filename: "a.jpg", ContentType: "image/jpeg", Body: strings.NewReader("jpeg")}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if rec.ID != "9" {
		t.Fatalf("record id = %q", rec.ID)
	}
}

func TestUpdateUsesMethodOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/rooms/9" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("not multipart: %v", err)
		}
		if got := r.FormValue("_method"); got != "PATCH" {
			t.Errorf("_method = %q", got)
		}
		kept := r.MultipartForm.Value["existing_images[]"]
		if len(kept) != 1 || kept[0] != "https://cdn.example.com/a.jpg" {
			t.Errorf("existing_images[] = %v", kept)
		}
		w.Write([]byte(`{"id": 9, "room_type": "Twin"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "/api", staticTokens{token: "tok-1"})
	rec, err := c.Update(context.Background(), "rooms", "9",
		map[string]string{"room_type": "Twin"}, 2,
		[]string{"https://cdn.example.com/a.jpg"}, nil)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if rec.Fields["room_type"] != "Twin" {
		t.Fatalf("record fields = %v", rec.Fields)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		body   string
		kind   Kind
		msg    string
	}{
		{401, `{}`, KindUnauthenticated, "upstream rejected the credential"},
		{403, `{}`, KindForbidden, "upstream denied access"},
		{404, `{}`, KindNotFound, "record not found upstream"},
		{422, `{"message": "Invalid.", "errors": {"room_type": ["Room type is required."], "capacity": ["Capacity must be a number."]}}`,
			KindValidation, "Capacity must be a number. Room type is required."},
		{500, `boom`, KindServer, "upstream error (500)"},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			w.Write([]byte(tc.body))
		}))

		c := NewClient(srv.URL, "/api", staticTokens{token: "tok-1"})
		err := c.Delete(context.Background(), "rooms", "1")
		srv.Close()

		var rerr *Error
		if !errors.As(err, &rerr) {
			t.Fatalf("status %d: expected *Error, got %v", tc.status, err)
		}
		if rerr.Kind != tc.kind || rerr.Message != tc.msg {
			t.Errorf("status %d: got kind=%s msg=%q, want kind=%s msg=%q",
				tc.status, rerr.Kind, rerr.Message, tc.kind, tc.msg)
		}
	}
}

func TestAbortStaysDetectable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, "/api", staticTokens{token: "tok-1"})
	_, err := c.List(ctx, "rooms")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancellation must survive wrapping, got %v", err)
	}
	var rerr *Error
	if !errors.As(err, &rerr) || rerr.Kind != KindNetwork {
		t.Fatalf("aborted request classifies as network error, got %v", err)
	}
}

func TestToAbsoluteURL(t *testing.T) {
	base := "https://backend.example.com"
	cases := map[string]string{
		"":                              "",
		"/storage/a.jpg":                base + "/storage/a.jpg",
		"storage/a.jpg":                 base + "/storage/a.jpg",
		"https://cdn.example.com/a.jpg": "https://cdn.example.com/a.jpg",
		"http://cdn.example.com/a.jpg":  "http://cdn.example.com/a.jpg",
		"blob:preview-1":                "blob:preview-1",
		"data:image/png;base64,AAAA":    "data:image/png;base64,AAAA",
	}
	for in, want := range cases {
		if got := ToAbsoluteURL(base, in); got != want {
			t.Errorf("ToAbsoluteURL(%q) = %q, want %q", in, got, want)
		}
	}
}
