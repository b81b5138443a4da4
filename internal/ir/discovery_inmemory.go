package ir

import (
	"context"
	"fmt"
	"sort"
)

type InMemorySource struct {
	Name    string
	Content string
}

// InMemoryDiscovery is a test implementation of Discovery that stores data in memory
type InMemoryDiscovery struct {
	sources  map[SourceID]*SourceMetadata
	contents map[SourceID]string
}

// NewInMemoryDiscovery creates a new InMemoryDiscovery instance
func NewInMemoryDiscovery(srcs []InMemorySource) *InMemoryDiscovery {
	discovery := &InMemoryDiscovery{
		sources:  make(map[SourceID]*SourceMetadata),
		contents: make(map[SourceID]string),
	}

	for _, src := range srcs {
		id := SourceID(src.Name)
		discovery.sources[id] = &SourceMetadata{
			ID:       id,
			FilePath: src.Name,
		}
		discovery.contents[id] = src.Content
	}
	return discovery
}

// ListMetadata implements Discovery interface
func (d *InMemoryDiscovery) ListMetadata(ctx context.Context) ([]*SourceMetadata, error) {
	srcs := make([]*SourceMetadata, 0, len(d.sources))
	for _, src := range d.sources {
		srcs = append(srcs, src)
	}
	sort.Slice(srcs, func(i, j int) bool { return srcs[i].ID < srcs[j].ID })
	return srcs, nil
}

// ReadSource implements Discovery interface
func (d *InMemoryDiscovery) ReadSource(ctx context.Context, id SourceID) (string, error) {
	content, exists := d.contents[id]
	if !exists {
		return "", fmt.Errorf("source %q not found", id)
	}
	return content, nil
}
