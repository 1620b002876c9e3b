package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Page Laravel length-aware paginator
type Page[T any] struct {
	Data        []T `json:"data"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// unwrap returns the first non-null value under keys, or body itself
func unwrap(body []byte, keys ...string) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return trimmed
	}
	for _, k := range keys {
		if v, ok := obj[k]; ok && !isNull(v) {
			return v
		}
	}
	return trimmed
}

// decodeList accepts a bare array, an envelope under keys, or a paginator
func decodeList(body []byte, keys ...string) ([]json.RawMessage, error) {
	items, _, err := decodeListPage(body, keys...)
	return items, err
}

// decodeListPage like decodeList, also reporting the paginator's last page
// (1 for anything that is not a paginator)
func decodeListPage(body []byte, keys ...string) ([]json.RawMessage, int, error) {
	// a bare paginator also has a "data" key; unwrapping it would lose last_page
	var head struct {
		Data     []json.RawMessage `json:"data"`
		LastPage *int              `json:"last_page"`
	}
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &head); err == nil && head.LastPage != nil {
			if head.Data == nil {
				head.Data = []json.RawMessage{}
			}
			return head.Data, max(*head.LastPage, 1), nil
		}
	}

	v := unwrap(body, keys...)
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err == nil {
		return items, 1, nil
	}
	var page Page[json.RawMessage]
	if err := json.Unmarshal(v, &page); err != nil {
		return nil, 0, fmt.Errorf("failed to decode list: %w", err)
	}
	if page.Data == nil {
		page.Data = []json.RawMessage{}
	}
	return page.Data, max(page.LastPage, 1), nil
}

func decodeInto(v json.RawMessage, out any) error {
	if err := json.Unmarshal(v, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func isNull(v json.RawMessage) bool {
	return len(bytes.TrimSpace(v)) == 0 || string(bytes.TrimSpace(v)) == "null"
}

// decodePage accepts a paginator or a bare array (treated as a single page)
func decodePage[T any](v json.RawMessage) (*Page[T], error) {
	trimmed := bytes.TrimSpace(v)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to decode page: %w", err)
		}
		return &Page[T]{Data: items, CurrentPage: 1, LastPage: 1, PerPage: len(items), Total: len(items)}, nil
	}
	var page Page[T]
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}
	if page.Data == nil {
		page.Data = []T{}
	}
	return &page, nil
}
