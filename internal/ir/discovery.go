package ir

import (
	"context"
)

// SourceMetadata describes one GraphQL document file.
type SourceMetadata struct {
	ID       SourceID
	FilePath string
}

// SourceID is a unique identifier for a document source.
// ex. "app/queries/User.graphql"
type SourceID string

type Discovery interface {
	ListMetadata(ctx context.Context) ([]*SourceMetadata, error)
	ReadSource(ctx context.Context, id SourceID) (string, error)
}
