package sources

import (
	"fmt"

	"github.com/meridianmaps/catalog-server/internal/config"
	"github.com/meridianmaps/catalog-server/internal/httpclient"
	"github.com/meridianmaps/catalog-server/internal/proxy"
)

// defaultSourceHandlerFactory is the default implementation of
// SourceHandlerFactory. It carries the shared dependencies the WFS handler
// needs; the other handlers are self-contained.
type defaultSourceHandlerFactory struct {
	httpClient httpclient.Client
	proxy      proxy.Resolver
	support    config.SupportConfig
}

var _ SourceHandlerFactory = (*defaultSourceHandlerFactory)(nil)

// NewSourceHandlerFactory creates a new source handler factory
func NewSourceHandlerFactory(client httpclient.Client, resolver proxy.Resolver, support config.SupportConfig) SourceHandlerFactory {
	return &defaultSourceHandlerFactory{
		httpClient: client,
		proxy:      resolver,
		support:    support,
	}
}

// CreateHandler creates a source handler for the given source type
func (f *defaultSourceHandlerFactory) CreateHandler(sourceType string) (SourceHandler, error) {
	switch sourceType {
	case config.SourceTypeWFS:
		return NewWFSSourceHandler(f.httpClient, f.proxy, f.support), nil
	case config.SourceTypeFile:
		return NewFileSourceHandler(), nil
	case config.SourceTypeGit:
		return NewGitSourceHandler(), nil
	case config.SourceTypeStatic:
		return NewStaticSourceHandler(), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", sourceType)
	}
}
