package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// TestRepoConfig describes one commit of a test repository
type TestRepoConfig struct {
	// Files maps path to content
	Files map[string]string

	// Author for the commit; a default is used when nil
	Author *object.Signature
}

// CreateTestRepo creates a temporary Git repository holding one commit with
// the given files. The repository lives under t.TempDir and is removed when
// the test finishes.
func CreateTestRepo(t *testing.T, config TestRepoConfig) string {
	t.Helper()

	repoDir, _, _ := initTestRepo(t, config)
	return repoDir
}

// CreateTestRepoWithCommits creates a temporary Git repository with one
// commit per entry, returning the repository path and the commit hashes in
// order.
func CreateTestRepoWithCommits(t *testing.T, commits []TestRepoConfig) (string, []plumbing.Hash) {
	t.Helper()

	if len(commits) == 0 {
		t.Fatal("at least one commit is required")
	}

	repoDir, workTree, first := initTestRepo(t, commits[0])
	hashes := []plumbing.Hash{first}

	for _, commit := range commits[1:] {
		hashes = append(hashes, commitFiles(t, repoDir, workTree, commit))
	}

	return repoDir, hashes
}

// CreateTestRepoWithBranches creates a temporary Git repository where the
// first commit forms the default branch and each named entry becomes a
// branch with one additional commit.
func CreateTestRepoWithBranches(t *testing.T, mainCommit TestRepoConfig, branches map[string]TestRepoConfig) string {
	t.Helper()

	repoDir, workTree, _ := initTestRepo(t, mainCommit)

	for branchName, branchConfig := range branches {
		err := workTree.Checkout(&git.CheckoutOptions{
			Branch: plumbing.NewBranchReferenceName(branchName),
			Create: true,
		})
		if err != nil {
			t.Fatalf("Failed to create branch %s: %v", branchName, err)
		}

		commitFiles(t, repoDir, workTree, branchConfig)
	}

	return repoDir
}

func initTestRepo(t *testing.T, config TestRepoConfig) (string, *git.Worktree, plumbing.Hash) {
	t.Helper()

	repoDir := t.TempDir()

	repo, err := git.PlainInit(repoDir, false)
	if err != nil {
		t.Fatalf("Failed to init repository: %v", err)
	}

	workTree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}

	hash := commitFiles(t, repoDir, workTree, config)
	return repoDir, workTree, hash
}

func commitFiles(t *testing.T, repoDir string, workTree *git.Worktree, config TestRepoConfig) plumbing.Hash {
	t.Helper()

	author := config.Author
	if author == nil {
		author = &object.Signature{
			Name:  "Test Author",
			Email: "test@example.org",
		}
	}

	for filename, content := range config.Files {
		filePath := filepath.Join(repoDir, filename)

		if dir := filepath.Dir(filePath); dir != repoDir {
			if err := os.MkdirAll(dir, 0755); err != nil {
				t.Fatalf("Failed to create directory %s: %v", dir, err)
			}
		}

		if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write file %s: %v", filename, err)
		}

		if _, err := workTree.Add(filename); err != nil {
			t.Fatalf("Failed to add file %s: %v", filename, err)
		}
	}

	hash, err := workTree.Commit("Update files", &git.CommitOptions{Author: author})
	if err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
	return hash
}
