package vector

import (
	"context"
	"fmt"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/quiverhq/quiver/pkg/config"
)

// PineconeStore is a Pinecone-backed vector store. Collections map to
// Pinecone indexes; the configured index name is used when the caller
// passes an empty collection.
type PineconeStore struct {
	client    *pinecone.Client
	indexName string
}

func NewPineconeStore(category config.Category, cfg Config) (*PineconeStore, error) {
	if cfg.APIKey == "" {
		return nil, config.MissingKeyError(category, "api_key")
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: cfg.APIKey,
		Host:   cfg.Host,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone client: %w", err)
	}

	indexName := cfg.IndexName
	if indexName == "" {
		indexName = "quiver-index"
	}

	return &PineconeStore{
		client:    client,
		indexName: indexName,
	}, nil
}

func (s *PineconeStore) indexConnection(ctx context.Context, collection string) (*pinecone.IndexConnection, error) {
	name := collection
	if name == "" {
		name = s.indexName
	}

	index, err := s.client.DescribeIndex(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index %s: %w", name, err)
	}

	indexConn, err := s.client.Index(pinecone.NewIndexConnParams{
		Host: index.Host,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create index connection: %w", err)
	}

	return indexConn, nil
}

func (s *PineconeStore) Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error {
	indexConn, err := s.indexConnection(ctx, collection)
	if err != nil {
		return err
	}
	defer indexConn.Close()

	var pineconeMetadata *pinecone.Metadata
	if len(metadata) > 0 {
		pineconeMetadata, err = structpb.NewStruct(metadata)
		if err != nil {
			return fmt.Errorf("failed to convert metadata: %w", err)
		}
	}

	_, err = indexConn.UpsertVectors(ctx, []*pinecone.Vector{{
		Id:       id,
		Values:   vector,
		Metadata: pineconeMetadata,
	}})
	if err != nil {
		return fmt.Errorf("failed to upsert vector: %w", err)
	}

	return nil
}

func (s *PineconeStore) Search(ctx context.Context, collection string, queryVector []float32, topK int) ([]SearchResult, error) {
	indexConn, err := s.indexConnection(ctx, collection)
	if err != nil {
		return nil, err
	}
	defer indexConn.Close()

	queryResponse, err := indexConn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          queryVector,
		TopK:            uint32(topK),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query pinecone: %w", err)
	}

	results := make([]SearchResult, 0, len(queryResponse.Matches))
	for _, match := range queryResponse.Matches {
		if match.Vector == nil {
			continue
		}

		metadata := make(map[string]any)
		if match.Vector.Metadata != nil {
			metadata = match.Vector.Metadata.AsMap()
		}

		content := ""
		if v, ok := metadata["content"].(string); ok {
			content = v
		}

		results = append(results, SearchResult{
			ID:       match.Vector.Id,
			Content:  content,
			Score:    match.Score,
			Metadata: metadata,
		})
	}

	return results, nil
}

func (s *PineconeStore) Delete(ctx context.Context, collection string, id string) error {
	indexConn, err := s.indexConnection(ctx, collection)
	if err != nil {
		return err
	}
	defer indexConn.Close()

	if err := indexConn.DeleteVectorsById(ctx, []string{id}); err != nil {
		return fmt.Errorf("failed to delete vector: %w", err)
	}

	return nil
}

func (s *PineconeStore) Close() error {
	return nil
}
