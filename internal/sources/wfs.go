package sources

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/meridianmaps/catalog-server/internal/catalog"
	"github.com/meridianmaps/catalog-server/internal/config"
	"github.com/meridianmaps/catalog-server/internal/geojson"
	"github.com/meridianmaps/catalog-server/internal/httpclient"
	"github.com/meridianmaps/catalog-server/internal/logging"
	"github.com/meridianmaps/catalog-server/internal/proxy"
	"github.com/meridianmaps/catalog-server/internal/urlutil"
)

// wfsSourceHandler builds catalog groups from WFS GetFeature responses
type wfsSourceHandler struct {
	httpClient httpclient.Client
	proxy      proxy.Resolver
	support    config.SupportConfig
}

// NewWFSSourceHandler creates a new WFS source handler
func NewWFSSourceHandler(client httpclient.Client, resolver proxy.Resolver, support config.SupportConfig) SourceHandler {
	return &wfsSourceHandler{
		httpClient: client,
		proxy:      resolver,
		support:    support,
	}
}

// Validate validates the WFS source configuration.
//
// The url, typeNames, and nameProperty fields are not checked here. An empty
// or unreachable URL produces a request failure at fetch time, reported
// through the group's user-facing load error.
func (*wfsSourceHandler) Validate(groupCfg *config.GroupConfig) error {
	if groupCfg == nil {
		return fmt.Errorf("group configuration cannot be nil")
	}

	if groupCfg.WFS == nil {
		return fmt.Errorf("wfs configuration is required")
	}

	return nil
}

// FetchGroup retrieves the feature collection and assembles one item per
// feature, bucketed into sub-groups by the groupBy attribute value when one
// is configured.
func (h *wfsSourceHandler) FetchGroup(ctx context.Context, groupCfg *config.GroupConfig) (*FetchResult, error) {
	if err := h.Validate(groupCfg); err != nil {
		return nil, fmt.Errorf("group validation failed: %w", err)
	}

	body, err := h.httpClient.Get(ctx, h.collectionURL(groupCfg.WFS))
	if err != nil {
		return nil, newRequestFailedError(groupCfg.Name, h.support, err)
	}

	collection, err := geojson.DecodeCollection(body)
	if err != nil {
		if isShapeViolation(err) {
			return nil, newInvalidShapeError(groupCfg.Name, h.support, err)
		}
		// A malformed body is indistinguishable from a truncated or non-JSON
		// reply and folds into the request failure path.
		return nil, newRequestFailedError(groupCfg.Name, h.support, err)
	}

	group, skipped := h.assembleGroup(ctx, groupCfg, collection)

	hash := fmt.Sprintf("%x", sha256.Sum256(body))
	result := NewFetchResult(group, hash, FormatGeoJSON)
	result.SkippedCount = skipped
	return result, nil
}

// CurrentHash fetches the feature collection and hashes the raw body. WFS
// offers no cheaper change probe, so this costs one full GetFeature call.
func (h *wfsSourceHandler) CurrentHash(ctx context.Context, groupCfg *config.GroupConfig) (string, error) {
	if err := h.Validate(groupCfg); err != nil {
		return "", fmt.Errorf("group validation failed: %w", err)
	}

	body, err := h.httpClient.Get(ctx, h.collectionURL(groupCfg.WFS))
	if err != nil {
		return "", newRequestFailedError(groupCfg.Name, h.support, err)
	}

	return fmt.Sprintf("%x", sha256.Sum256(body)), nil
}

// assembleGroup materializes one item per feature, in response order.
func (h *wfsSourceHandler) assembleGroup(
	ctx context.Context,
	groupCfg *config.GroupConfig,
	collection *geojson.FeatureCollection,
) (*catalog.Group, int) {
	logger := logging.FromContext(ctx)
	wfsCfg := groupCfg.WFS

	group := &catalog.Group{
		Name:        groupCfg.Name,
		Description: groupCfg.Description,
	}

	skipped := 0
	for i := range collection.Features {
		feature := &collection.Features[i]

		name, hasName := feature.StringProperty(wfsCfg.NameProperty)
		if hasName && wfsCfg.Denylist[name] {
			skipped++
			logging.Trace(logger).Info("Skipping denylisted feature",
				"group", groupCfg.Name,
				"name", name)
			continue
		}

		item := catalog.NewItem(name, h.featureURL(wfsCfg, feature.ID))
		// Defaults are merged after the derived name and URL and may
		// override them when the keys collide.
		item.ApplyOverrides(wfsCfg.ItemDefaults)

		target := group
		if wfsCfg.GroupByProperty != "" {
			if key, ok := feature.StringProperty(wfsCfg.GroupByProperty); ok {
				target = group.FindOrCreateChild(key)
			}
		}
		target.Add(item)
	}

	return group, skipped
}

// collectionURL builds the GetFeature query for the whole collection,
// requesting only the properties needed to name and bucket the features.
// The base URL is stripped of any query string first and rewritten through
// the CORS relay when the resolver requires it.
func (h *wfsSourceHandler) collectionURL(wfsCfg *config.WFSConfig) string {
	base := urlutil.CleanURL(wfsCfg.URL)

	requestBase := base
	if h.proxy != nil && h.proxy.ShouldProxy(base) {
		requestBase = h.proxy.ProxiedURL(base)
	}

	propertyNames := urlutil.EscapeQueryComponent(wfsCfg.NameProperty)
	if wfsCfg.GroupByProperty != "" {
		propertyNames += "," + urlutil.EscapeQueryComponent(wfsCfg.GroupByProperty)
	}

	return requestBase +
		"?service=WFS&version=1.1.0&request=GetFeature&typeName=" +
		urlutil.EscapeQueryComponent(wfsCfg.TypeNames) +
		"&outputFormat=JSON&propertyName=" + propertyNames
}

// featureURL builds the single-feature re-fetch URL embedded in each item.
// It always points at the unproxied base URL; clients resolve proxying
// themselves when they fetch it.
func (*wfsSourceHandler) featureURL(wfsCfg *config.WFSConfig, id geojson.FeatureID) string {
	return urlutil.CleanURL(wfsCfg.URL) +
		"?service=WFS&version=1.1.0&request=GetFeature&typeName=" +
		urlutil.EscapeQueryComponent(wfsCfg.TypeNames) +
		"&featureID=" + urlutil.EscapeQueryComponent(id.String()) +
		"&outputFormat=JSON"
}

// isShapeViolation reports whether err is a structural validation failure
// rather than a parse failure.
func isShapeViolation(err error) bool {
	return errors.Is(err, geojson.ErrNotFeatureCollection) ||
		errors.Is(err, geojson.ErrMissingFeatures) ||
		errors.Is(err, geojson.ErrInvalidFeatures)
}
