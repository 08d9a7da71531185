package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kerem-kaynak/hrportal/internal/entity"
	"github.com/kerem-kaynak/hrportal/internal/utils"
	"github.com/meilisearch/meilisearch-go"
)

const EmployeesIndex = "employees"

// DirectoryIndex is a full-text index over employee names and positions.
type DirectoryIndex interface {
	Index(ctx context.Context, users []entity.UserMetadata) error
	Search(ctx context.Context, query string, limit int) ([]uuid.UUID, error)
}

type MeilisearchDirectory struct {
	client *meilisearch.Client
	index  string
}

func NewMeilisearchDirectory(client *meilisearch.Client) *MeilisearchDirectory {
	return &MeilisearchDirectory{client: client, index: EmployeesIndex}
}

func (d *MeilisearchDirectory) Index(_ context.Context, users []entity.UserMetadata) error {
	if len(users) == 0 {
		return nil
	}
	documents := make([]map[string]interface{}, 0, len(users))
	for i := range users {
		documents = append(documents, utils.EmployeeToDocument(&users[i]))
	}
	if _, err := d.client.Index(d.index).AddDocuments(documents, "id"); err != nil {
		return fmt.Errorf("failed to index employees: %w", err)
	}
	return nil
}

func (d *MeilisearchDirectory) Search(_ context.Context, query string, limit int) ([]uuid.UUID, error) {
	resp, err := d.client.Index(d.index).Search(query, &meilisearch.SearchRequest{
		Limit: int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search employees: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		doc, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		raw, ok := doc["id"].(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
