// Package search maintains a full-text task index in Elasticsearch. The
// index is advisory: when the client is absent the task listings fall back
// to SQL LIKE matching.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/dkharitonov/task_manager/internal/models"
)

type Tasks struct {
	ES    *elasticsearch.Client
	Index string
}

func NewClient(url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("search: create client: %w", err)
	}
	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("search: ping: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search: ping: %s", res.Status())
	}
	return client, nil
}

func (s *Tasks) Available() bool {
	return s != nil && s.ES != nil
}

type taskDoc struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

func (s *Tasks) IndexTask(ctx context.Context, t *models.Task) error {
	if !s.Available() {
		return nil
	}
	if t.DeletedAt != nil {
		return s.DeleteTask(ctx, t.ID)
	}
	doc := taskDoc{ID: t.ID, Title: t.Title, Description: t.Description, Status: t.Status}
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	res, err := s.ES.Index(
		s.Index,
		bytes.NewReader(body),
		s.ES.Index.WithDocumentID(strconv.FormatUint(uint64(t.ID), 10)),
		s.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("search: index task %d: %w", t.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("search: index task %d: %s", t.ID, res.Status())
	}
	return nil
}

func (s *Tasks) DeleteTask(ctx context.Context, id uint) error {
	if !s.Available() {
		return nil
	}
	res, err := s.ES.Delete(
		s.Index,
		strconv.FormatUint(uint64(id), 10),
		s.ES.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("search: delete task %d: %w", id, err)
	}
	res.Body.Close()
	return nil
}

// SearchIDs returns the ids of tasks matching the query, title weighted
// above description. Callers load the rows from the database.
func (s *Tasks) SearchIDs(ctx context.Context, query string, size int) ([]uint, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"size": size,
		"_source": []string{"id"},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search: query: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search: query: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source taskDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, err
	}

	ids := make([]uint, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		ids[i] = hit.Source.ID
	}
	return ids, nil
}
