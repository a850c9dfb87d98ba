package blob

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestCreatePreviewAndOpen(t *testing.T) {
	objects := NewMemoryStore()
	mgr := NewManager(objects)
	ctx := context.Background()

	ref, err := mgr.CreatePreview(ctx, "room.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"), 10)
	if err != nil {
		t.Fatalf("CreatePreview failed: %v", err)
	}
	if !IsStaged(ref.URL) {
		t.Fatalf("preview URL %q should be staged", ref.URL)
	}
	if !strings.HasSuffix(ref.Key, ".jpg") {
		t.Fatalf("key should keep the extension, got %q", ref.Key)
	}

	r, contentType, err := mgr.Open(ctx, ref.Key)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	if string(data) != "jpeg-bytes" || contentType != "image/jpeg" {
		t.Fatalf("unexpected object back: %q %q", data, contentType)
	}
}

func TestReleaseAllDeletesExactlyOnce(t *testing.T) {
	objects := NewMemoryStore()
	mgr := NewManager(objects)
	ctx := context.Background()

	ref, err := mgr.CreatePreview(ctx, "a.png", "image/png", strings.NewReader("png"), 3)
	if err != nil {
		t.Fatalf("CreatePreview failed: %v", err)
	}
	if objects.Len() != 1 || mgr.Live() != 1 {
		t.Fatalf("expected one staged object, got store=%d live=%d", objects.Len(), mgr.Live())
	}

	mgr.ReleaseAll(ctx, []string{ref.URL})
	if objects.Len() != 0 || mgr.Live() != 0 {
		t.Fatalf("expected staged object gone, got store=%d live=%d", objects.Len(), mgr.Live())
	}

	// Second release of the same URL is a no-op.
	mgr.ReleaseAll(ctx, []string{ref.URL})
	if mgr.Live() != 0 {
		t.Fatalf("double release must stay a no-op")
	}
}

func TestReleaseAllIgnoresForeignURLs(t *testing.T) {
	mgr := NewManager(NewMemoryStore())
	mgr.ReleaseAll(context.Background(), []string{
		"https://backend.example.com/storage/rooms/1.jpg",
		"data:image/png;base64,AAAA",
		"",
		"/api/media/staging/never-created",
	})
	if mgr.Live() != 0 {
		t.Fatalf("foreign URLs must not be tracked")
	}
}

func TestOpenUnknownKeyFails(t *testing.T) {
	mgr := NewManager(NewMemoryStore())
	if _, _, err := mgr.Open(context.Background(), "nope.jpg"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestSanitizeExt(t *testing.T) {
	cases := map[string]string{
		"photo.JPG":       ".jpg",
		"photo.png":       ".png",
		"no-extension":    "",
		"weird.j%g":       "",
		"dotted.name.gif": ".gif",
	}
	for in, want := range cases {
		if got := sanitizeExt(in); got != want {
			t.Errorf("sanitizeExt(%q) = %q, want %q", in, got, want)
		}
	}
}
