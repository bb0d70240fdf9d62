package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"alumniverse/internal/model"
	"alumniverse/pkg/es"
)

// SearchResult 是人脉搜索的返回结构。
type SearchResult struct {
	Total int                    `json:"total"`
	Users []model.EsUserDocument `json:"users"`
}

// SearchService 基于 Elasticsearch 提供人脉搜索能力。
type SearchService interface {
	// SearchUsers 对姓名、院校、公司、职位和专业做全文检索，
	// role 不为空时按角色过滤。
	SearchUsers(ctx context.Context, query, role string, page, pageSize int) (*SearchResult, error)
}

type searchService struct {
	indexName string
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(indexName string) SearchService {
	return &searchService{indexName: indexName}
}

// esSearchResponse 只映射我们关心的响应字段。
type esSearchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source model.EsUserDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *searchService) SearchUsers(ctx context.Context, query, role string, page, pageSize int) (*SearchResult, error) {
	offset, limit := paginate(page, pageSize)

	// 姓名权重更高，其余资料字段参与全文检索
	must := []map[string]interface{}{
		{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "college_name", "current_company", "job_title", "major"},
				"fuzziness": "AUTO",
			},
		},
	}
	var filter []map[string]interface{}
	if role != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"role": role},
		})
	}

	body := map[string]interface{}{
		"from": offset,
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	res, err := es.ESClient.Search(
		es.ESClient.Search.WithContext(ctx),
		es.ESClient.Search.WithIndex(s.indexName),
		es.ESClient.Search.WithBody(bytes.NewReader(bodyBytes)),
		es.ESClient.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, readErr := io.ReadAll(io.LimitReader(res.Body, 4096))
		if readErr == nil && len(raw) > 0 {
			return nil, fmt.Errorf("elasticsearch returned an error: %s", string(raw))
		}
		return nil, fmt.Errorf("elasticsearch returned status %s", res.Status())
	}

	var parsed esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	result := &SearchResult{
		Total: parsed.Hits.Total.Value,
		Users: make([]model.EsUserDocument, 0, len(parsed.Hits.Hits)),
	}
	for _, hit := range parsed.Hits.Hits {
		result.Users = append(result.Users, hit.Source)
	}
	return result, nil
}
