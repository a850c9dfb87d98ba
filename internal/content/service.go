// Package content versions the public home-page sections of each property
// in a per-property git repository, so every published change keeps its
// author and can be inspected or restored later.
package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Sections is the editable home-page copy for one property.
type Sections struct {
	HeroTitle    string `json:"hero_title"`
	HeroSubtitle string `json:"hero_subtitle"`
	About        string `json:"about"`
	Amenities    string `json:"amenities"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
}

type CommitInfo struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

type Service struct {
	baseDir string
	lockMu  sync.Mutex
	locks   map[string]*sync.Mutex
}

func New(baseDir string) *Service {
	return &Service{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}
}

// EnsureRepo initializes the property's content repo with a baseline
// commit. Calling it again is a no-op.
func (s *Service) EnsureRepo(propertyID string, initial Sections, author string) error {
	lock := s.propertyLock(propertyID)
	lock.Lock()
	defer lock.Unlock()

	path := s.repoPath(propertyID)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat repo path: %w", err)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create repo dir: %w", err)
	}

	repo, err := git.PlainInit(path, false)
	if err != nil {
		return fmt.Errorf("init repo: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	payload, err := json.MarshalIndent(initial, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal initial sections: %w", err)
	}
	if err := os.WriteFile(filepath.Join(path, "home.json"), append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("write initial sections: %w", err)
	}
	if _, err := worktree.Add("home.json"); err != nil {
		return fmt.Errorf("git add initial sections: %w", err)
	}
	hash, err := worktree.Commit("Import home page baseline", &git.CommitOptions{
		Author: signature(author),
	})
	if err != nil {
		return fmt.Errorf("commit initial sections: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), hash)); err != nil {
		return fmt.Errorf("set main branch ref: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))); err != nil {
		return fmt.Errorf("set HEAD to main: %w", err)
	}
	return nil
}

// Save commits new sections on main. Unchanged content is not committed;
// the current head is returned instead.
func (s *Service) Save(propertyID string, sections Sections, author, message string) (CommitInfo, error) {
	lock := s.propertyLock(propertyID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(propertyID))
	if err != nil {
		return CommitInfo{}, fmt.Errorf("open repo: %w", err)
	}

	head, headInfo, err := headSections(repo)
	if err != nil {
		return CommitInfo{}, err
	}
	if head == sections {
		return headInfo, nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return CommitInfo{}, fmt.Errorf("open worktree: %w", err)
	}

	payload, err := json.MarshalIndent(sections, "", "  ")
	if err != nil {
		return CommitInfo{}, fmt.Errorf("marshal sections: %w", err)
	}
	repoRoot := worktree.Filesystem.Root()
	if err := os.WriteFile(filepath.Join(repoRoot, "home.json"), append(payload, '\n'), 0o644); err != nil {
		return CommitInfo{}, fmt.Errorf("write home.json: %w", err)
	}
	if _, err := worktree.Add("home.json"); err != nil {
		return CommitInfo{}, fmt.Errorf("git add sections: %w", err)
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{Author: signature(author)})
	if err != nil {
		return CommitInfo{}, fmt.Errorf("commit sections: %w", err)
	}
	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("read commit object: %w", err)
	}
	return toCommitInfo(commitObj), nil
}

// Get returns the published sections at the head of main.
func (s *Service) Get(propertyID string) (Sections, CommitInfo, error) {
	lock := s.propertyLock(propertyID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(propertyID))
	if err != nil {
		return Sections{}, CommitInfo{}, fmt.Errorf("open repo: %w", err)
	}
	return headSections(repo)
}

// GetByHash returns the sections as of a past commit.
func (s *Service) GetByHash(propertyID, hash string) (Sections, error) {
	lock := s.propertyLock(propertyID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(propertyID))
	if err != nil {
		return Sections{}, fmt.Errorf("open repo: %w", err)
	}

	resolvedHash, err := resolveHash(repo, hash)
	if err != nil {
		return Sections{}, err
	}
	commitObj, err := repo.CommitObject(resolvedHash)
	if err != nil {
		return Sections{}, fmt.Errorf("read commit %s: %w", hash, err)
	}
	return readSectionsFromCommit(commitObj)
}

// History lists past publishes, newest first.
func (s *Service) History(propertyID string, limit int) ([]CommitInfo, error) {
	lock := s.propertyLock(propertyID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(propertyID))
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	ref, err := repo.Reference(plumbing.NewBranchReferenceName("main"), true)
	if err != nil {
		return nil, fmt.Errorf("resolve main: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]CommitInfo, 0, limit)
	count := 0
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, toCommitInfo(commitObj))
		count++
		if limit > 0 && count >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

func (s *Service) repoPath(propertyID string) string {
	return filepath.Join(s.baseDir, propertyID)
}

func (s *Service) propertyLock(propertyID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[propertyID]
	if ok {
		return lock
	}
	lock = &sync.Mutex{}
	s.locks[propertyID] = lock
	return lock
}

func headSections(repo *git.Repository) (Sections, CommitInfo, error) {
	ref, err := repo.Reference(plumbing.NewBranchReferenceName("main"), true)
	if err != nil {
		return Sections{}, CommitInfo{}, fmt.Errorf("resolve main: %w", err)
	}
	commitObj, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return Sections{}, CommitInfo{}, fmt.Errorf("load commit object: %w", err)
	}
	sections, err := readSectionsFromCommit(commitObj)
	if err != nil {
		return Sections{}, CommitInfo{}, err
	}
	return sections, toCommitInfo(commitObj), nil
}

func readSectionsFromCommit(commitObj *object.Commit) (Sections, error) {
	file, err := commitObj.File("home.json")
	if err != nil {
		return Sections{}, fmt.Errorf("load home.json from commit: %w", err)
	}
	reader, err := file.Reader()
	if err != nil {
		return Sections{}, fmt.Errorf("open sections reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return Sections{}, fmt.Errorf("read sections bytes: %w", err)
	}

	var sections Sections
	if err := json.Unmarshal(data, &sections); err != nil {
		return Sections{}, fmt.Errorf("decode commit sections: %w", err)
	}
	return sections, nil
}

func toCommitInfo(commitObj *object.Commit) CommitInfo {
	return CommitInfo{
		Hash:      commitObj.Hash.String()[:7],
		Message:   commitObj.Message,
		Author:    commitObj.Author.Name,
		CreatedAt: commitObj.Author.When,
	}
}

func signature(author string) *object.Signature {
	return &object.Signature{
		Name:  author,
		Email: fmt.Sprintf("%s@local.hotelops.dev", sanitizeEmail(author)),
		When:  time.Now(),
	}
}

func sanitizeEmail(input string) string {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
			continue
		}
		if r == ' ' || r == '-' || r == '_' {
			out = append(out, '.')
		}
	}
	if len(out) == 0 {
		return "user"
	}
	return string(out)
}

func resolveHash(repo *git.Repository, hash string) (plumbing.Hash, error) {
	if len(hash) == 40 {
		return plumbing.NewHash(hash), nil
	}
	resolved, err := repo.ResolveRevision(plumbing.Revision(hash))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve hash %s: %w", hash, err)
	}
	return *resolved, nil
}
