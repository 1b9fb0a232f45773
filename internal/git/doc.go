// Package git clones catalog fragment repositories and reads files out of
// them, entirely in memory.
//
// The Client interface covers the three operations the git source handler
// needs: Clone a repository at a branch, tag, or commit; GetFileContent to
// pull a fragment document out of the checkout; and Cleanup to release the
// clone's memory. Branch and tag clones are shallow; commit clones fetch the
// full history so the requested commit is guaranteed to resolve.
//
// Clones never touch disk. Both the worktree and the object storer live on
// in-memory filesystems wrapped by LimitedFs, which caps the file count and
// total bytes a clone may write. Only public repositories reachable over
// HTTPS are supported.
package git
