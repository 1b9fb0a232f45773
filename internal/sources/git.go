package sources

import (
	"context"
	"crypto/sha256"
	"fmt"
	"runtime"
	"time"

	"github.com/go-logr/logr"

	"github.com/meridianmaps/catalog-server/internal/config"
	gitclient "github.com/meridianmaps/catalog-server/internal/git"
	"github.com/meridianmaps/catalog-server/internal/logging"
)

const (
	// DefaultFragmentFile is the in-repository path used when a git source
	// does not name one
	DefaultFragmentFile = "catalog.json"
)

// gitSourceHandler assembles groups from catalog fragments kept in Git
// repositories. Every fetch is a fresh in-memory clone of the configured
// reference, so the handler never holds repository state between calls.
type gitSourceHandler struct {
	gitClient gitclient.Client
	validator FragmentValidator
}

// NewGitSourceHandler creates a new Git source handler
func NewGitSourceHandler() SourceHandler {
	return &gitSourceHandler{
		gitClient: gitclient.NewDefaultGitClient(),
		validator: NewFragmentValidator(),
	}
}

// Validate validates the Git source configuration
func (*gitSourceHandler) Validate(groupCfg *config.GroupConfig) error {
	if groupCfg == nil {
		return fmt.Errorf("group configuration cannot be nil")
	}

	if groupCfg.Git == nil {
		return fmt.Errorf("git configuration is required")
	}

	gitCfg := groupCfg.Git

	if gitCfg.Repository == "" {
		return fmt.Errorf("git repository URL cannot be empty")
	}

	specified := 0
	if gitCfg.Branch != "" {
		specified++
	}
	if gitCfg.Tag != "" {
		specified++
	}
	if gitCfg.Commit != "" {
		specified++
	}
	if specified > 1 {
		return fmt.Errorf("only one of branch, tag, or commit may be specified")
	}

	return nil
}

// FetchGroup clones the repository and assembles the group from its fragment
// file
func (h *gitSourceHandler) FetchGroup(ctx context.Context, groupCfg *config.GroupConfig) (*FetchResult, error) {
	data, err := h.fetchFragmentData(ctx, groupCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fragment data: %w", err)
	}

	fragment, err := h.validator.ValidateFragment(data, formatFromExtension(fragmentPath(groupCfg.Git)))
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	group := fragment.Group(groupCfg.Name, groupCfg.Description)

	hash := fmt.Sprintf("%x", sha256.Sum256(data))

	return NewFetchResult(group, hash, FormatCatalog), nil
}

// CurrentHash returns the hash of the fragment file at the configured
// reference. Reading the file requires a clone either way, so this costs the
// same as a full fetch.
func (h *gitSourceHandler) CurrentHash(ctx context.Context, groupCfg *config.GroupConfig) (string, error) {
	data, err := h.fetchFragmentData(ctx, groupCfg)
	if err != nil {
		return "", fmt.Errorf("failed to fetch fragment data: %w", err)
	}

	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

// fetchFragmentData clones the repository and reads the fragment file out of
// the in-memory checkout
func (h *gitSourceHandler) fetchFragmentData(ctx context.Context, groupCfg *config.GroupConfig) ([]byte, error) {
	if err := h.Validate(groupCfg); err != nil {
		return nil, fmt.Errorf("group validation failed: %w", err)
	}

	gitCfg := groupCfg.Git
	cloneConfig := &gitclient.CloneConfig{
		URL:    gitCfg.Repository,
		Branch: gitCfg.Branch,
		Tag:    gitCfg.Tag,
		Commit: gitCfg.Commit,
	}

	logger := logging.FromContext(ctx)
	logger.V(1).Info("Cloning fragment repository",
		"repository", cloneConfig.URL,
		"branch", cloneConfig.Branch,
		"tag", cloneConfig.Tag,
		"commit", cloneConfig.Commit)

	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)

	start := time.Now()
	repoInfo, err := h.gitClient.Clone(ctx, cloneConfig)
	cloneDuration := time.Since(start)

	if err != nil {
		logger.Error(err, "Git clone failed",
			"repository", cloneConfig.URL,
			"duration", cloneDuration.String())
		return nil, fmt.Errorf("failed to clone repository: %w", err)
	}

	cloneAttrs := []any{
		"repository", cloneConfig.URL,
		"branch", repoInfo.Branch,
		"duration", cloneDuration.String(),
	}
	if repoInfo.Repository != nil {
		if ref, headErr := repoInfo.Repository.Head(); headErr == nil {
			cloneAttrs = append(cloneAttrs, "commit", ref.Hash().String())
		}
	}
	logger.V(1).Info("Git clone completed", cloneAttrs...)

	defer func() {
		if cleanupErr := h.gitClient.Cleanup(ctx, repoInfo); cleanupErr != nil {
			logger.Error(cleanupErr, "Failed to clean up repository", "repository", cloneConfig.URL)
		}
		logHeapAfterClone(logger, &memBefore)
	}()

	path := fragmentPath(gitCfg)
	data, err := h.gitClient.GetFileContent(repoInfo, path)
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s from repository: %w", path, err)
	}

	return data, nil
}

// fragmentPath resolves the in-repository fragment path, falling back to the
// default file name
func fragmentPath(gitCfg *config.GitConfig) string {
	if gitCfg.Path != "" {
		return gitCfg.Path
	}
	return DefaultFragmentFile
}

// logHeapAfterClone records the heap delta a clone and its cleanup left
// behind. In-memory clones are the largest transient allocation in the
// process.
func logHeapAfterClone(logger logr.Logger, before *runtime.MemStats) {
	var after runtime.MemStats
	runtime.ReadMemStats(&after)

	beforeMB := before.HeapAlloc / (1024 * 1024)
	afterMB := after.HeapAlloc / (1024 * 1024)
	var deltaMB int64
	if afterMB >= beforeMB {
		// #nosec G115 -- heap sizes in MB never exceed int64 max
		deltaMB = int64(afterMB - beforeMB)
	} else {
		// #nosec G115 -- heap sizes in MB never exceed int64 max
		deltaMB = -int64(beforeMB - afterMB)
	}

	logger.V(1).Info("Heap after clone cleanup",
		"heap_alloc_mb", afterMB,
		"heap_released_mb", after.HeapReleased/(1024*1024),
		"delta_mb", deltaMB)
}
