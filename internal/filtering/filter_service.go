package filtering

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/meridianmaps/catalog-server/internal/catalog"
	"github.com/meridianmaps/catalog-server/internal/config"
	"github.com/meridianmaps/catalog-server/internal/logging"
)

// FilterService applies a group's filter rules to its freshly loaded members
type FilterService interface {
	// ApplyFilters returns a copy of the group without the members the
	// filter rules reject. A nil or empty filter returns the group
	// unchanged.
	ApplyFilters(
		ctx context.Context,
		group *catalog.Group,
		filter *config.FilterConfig,
	) (*catalog.Group, error)
}

// defaultFilterService implements FilterService using glob name matching.
//
// Include patterns constrain items only. Child groups are structural: they
// are dropped when an exclude pattern matches their name (taking the whole
// subtree with them) and traversed otherwise, so an include pattern keeps a
// matching item wherever it sits in the tree. A child group whose items are
// all filtered away stays, empty.
type defaultFilterService struct {
	nameFilter NameFilter
}

var _ FilterService = (*defaultFilterService)(nil)

// NewDefaultFilterService creates a filter service with the default name filter
func NewDefaultFilterService() FilterService {
	return &defaultFilterService{
		nameFilter: NewDefaultNameFilter(),
	}
}

// NewFilterService creates a filter service with a custom name filter
func NewFilterService(nameFilter NameFilter) FilterService {
	return &defaultFilterService{
		nameFilter: nameFilter,
	}
}

// ApplyFilters filters the group's members based on the filter configuration
func (s *defaultFilterService) ApplyFilters(
	ctx context.Context,
	group *catalog.Group,
	filter *config.FilterConfig,
) (*catalog.Group, error) {
	if group == nil {
		return nil, fmt.Errorf("group cannot be nil")
	}
	if filter == nil || (len(filter.Include) == 0 && len(filter.Exclude) == 0) {
		return group, nil
	}

	logger := logging.FromContext(ctx)

	filtered, included, excluded := s.filterGroup(ctx, group, filter)

	logger.V(1).Info("Applied member filters",
		"group", group.Name,
		"included", included,
		"excluded", excluded)

	return filtered, nil
}

// filterGroup rebuilds one level of the member tree, recursing into child
// groups. The returned counts cover items only; an excluded child group
// contributes its full item count.
func (s *defaultFilterService) filterGroup(
	ctx context.Context,
	group *catalog.Group,
	filter *config.FilterConfig,
) (*catalog.Group, int, int) {
	logger := logging.FromContext(ctx)

	filtered := catalog.NewGroup(group.Name)
	filtered.Description = group.Description

	included, excluded := 0, 0
	for _, member := range group.Members {
		name := member.MemberName()

		if child, ok := member.(*catalog.Group); ok {
			keep, reason := s.nameFilter.ShouldInclude(name, nil, filter.Exclude)
			if !keep {
				excluded += child.ItemCount()
				logging.Trace(logger).Info("Excluding group subtree",
					"group", group.Name,
					"member", name,
					"reason", reason)
				continue
			}
			filteredChild, childIncluded, childExcluded := s.filterGroup(ctx, child, filter)
			included += childIncluded
			excluded += childExcluded
			filtered.Add(filteredChild)
			continue
		}

		keep, reason := s.nameFilter.ShouldInclude(name, filter.Include, filter.Exclude)
		if !keep {
			excluded++
			logging.Trace(logger).Info("Excluding member",
				"group", group.Name,
				"member", name,
				"reason", reason)
			continue
		}
		included++
		logging.Trace(logger).Info("Including member",
			"group", group.Name,
			"member", name,
			"reason", reason)
		filtered.Add(member)
	}

	return filtered, included, excluded
}

// FilterHash returns a stable fingerprint of the filter rules, or the empty
// string when there are none. The refresh manager stores it alongside the
// source hash so a rules change forces a reload even when the source data
// has not moved.
func FilterHash(filter *config.FilterConfig) string {
	if filter == nil || (len(filter.Include) == 0 && len(filter.Exclude) == 0) {
		return ""
	}
	data, err := json.Marshal(filter)
	if err != nil {
		// FilterConfig is two string slices; marshaling cannot fail
		return ""
	}
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
