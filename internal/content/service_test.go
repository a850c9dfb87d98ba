package content

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestHomeSectionsLifecycle(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	initial := Sections{
		HeroTitle:    "Seaside Hotel",
		HeroSubtitle: "Rooms by the shore",
		About:        "Family-run since 1982.",
		Amenities:    "Pool, spa, parking",
		ContactEmail: "front@seaside.example.com",
		ContactPhone: "+30 210 0000000",
	}

	if err := svc.EnsureRepo("prop-1", initial, "Avery"); err != nil {
		t.Fatalf("EnsureRepo() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "prop-1")); err != nil {
		t.Fatalf("repo directory missing: %v", err)
	}
	// Second ensure is a no-op.
	if err := svc.EnsureRepo("prop-1", Sections{}, "Avery"); err != nil {
		t.Fatalf("EnsureRepo() second call error = %v", err)
	}

	got, head, err := svc.Get("prop-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != initial || head.Hash == "" {
		t.Fatalf("unexpected head: %+v %+v", got, head)
	}

	updated := initial
	updated.About = "Family-run since 1982, renovated in 2024."
	commit, err := svc.Save("prop-1", updated, "Avery", "Update about section")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if commit.Hash == head.Hash {
		t.Fatal("expected a new commit")
	}

	history, err := svc.History("prop-1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].Hash != commit.Hash {
		t.Fatalf("history must be newest first, got %+v", history)
	}

	old, err := svc.GetByHash("prop-1", head.Hash)
	if err != nil {
		t.Fatalf("GetByHash() error = %v", err)
	}
	if old.About != initial.About {
		t.Fatalf("past commit must keep the old copy, got %+v", old)
	}
}

func TestSaveWithoutChangesKeepsHead(t *testing.T) {
	svc := New(t.TempDir())
	initial := Sections{HeroTitle: "Hotel"}
	if err := svc.EnsureRepo("prop-1", initial, "Avery"); err != nil {
		t.Fatalf("EnsureRepo() error = %v", err)
	}

	_, head, err := svc.Get("prop-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	commit, err := svc.Save("prop-1", initial, "Avery", "No-op save")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if commit.Hash != head.Hash {
		t.Fatal("identical sections must not create a commit")
	}
}

func TestConcurrentSaves(t *testing.T) {
	svc := New(t.TempDir())
	initial := Sections{HeroTitle: "Hotel"}
	if err := svc.EnsureRepo("prop-1", initial, "Avery"); err != nil {
		t.Fatalf("EnsureRepo() error = %v", err)
	}

	const writers = 8
	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			next := initial
			next.About = fmt.Sprintf("about-%02d", idx)
			if _, err := svc.Save("prop-1", next, "Avery", fmt.Sprintf("Save %02d", idx)); err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Fatalf("Save() concurrent error = %v", err)
	}

	history, err := svc.History("prop-1", 100)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) < 2 {
		t.Fatalf("expected commits from concurrent saves, got %d", len(history))
	}
}
