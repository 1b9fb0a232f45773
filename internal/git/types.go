package git

import (
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
)

// CloneConfig selects what to clone. At most one of Branch, Tag, or Commit
// should be set; when none is, the remote's default branch is used.
type CloneConfig struct {
	URL    string
	Branch string
	Tag    string
	Commit string
}

// RepositoryInfo is a handle to a cloned in-memory repository.
type RepositoryInfo struct {
	// Repository is the go-git repository instance
	Repository *git.Repository

	// Branch is the checked out branch, when HEAD points at one
	Branch string

	// RemoteURL is the URL the repository was cloned from
	RemoteURL string

	// storerFilesystem holds the in-memory filesystem containing the Git
	// object database. It is kept here so Cleanup can clear it explicitly;
	// go-git does not release its internal storage on its own.
	storerFilesystem billy.Filesystem

	// objectCache holds the LRU cache for decompressed Git objects. The
	// garbage collector cannot reclaim cached objects while this reference
	// exists, so Cleanup clears it explicitly.
	objectCache cache.Object
}
