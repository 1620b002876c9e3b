package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Scope which residents listing the caller is entitled to
type Scope string

const (
	ScopeAdmin Scope = "admin"
	ScopeStaff Scope = "staff"
)

func residentsListPath(scope Scope) string {
	if scope == ScopeStaff {
		return "/staff/residents-list"
	}
	return "/admin/residents"
}

// maxResidentPages upper bound on paginator pages followed by ListResidents
const maxResidentPages = 100

// ListResidents raw resident objects; callers decide how to treat malformed
// items. A paginated answer is followed to its last page.
func (c *Client) ListResidents(ctx context.Context, scope Scope) ([]json.RawMessage, error) {
	path := residentsListPath(scope)
	body, err := c.getJSON(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	items, lastPage, err := decodeListPage(body, "residents", "data")
	if err != nil {
		return nil, err
	}
	if lastPage > maxResidentPages {
		c.logger.Warn("Resident list truncated",
			zap.String("path", path),
			zap.Int("last_page", lastPage),
			zap.Int("followed", maxResidentPages),
		)
		lastPage = maxResidentPages
	}
	for page := 2; page <= lastPage; page++ {
		body, err := c.getJSON(ctx, path, func(r *resty.Request) {
			r.SetQueryParam("page", strconv.Itoa(page))
		})
		if err != nil {
			return nil, err
		}
		more, _, err := decodeListPage(body, "residents", "data")
		if err != nil {
			return nil, fmt.Errorf("resident list page %d: %w", page, err)
		}
		items = append(items, more...)
	}
	return items, nil
}

func (c *Client) GetResident(ctx context.Context, id string) (json.RawMessage, error) {
	body, err := c.getJSON(ctx, "/admin/residents/{id}", func(r *resty.Request) {
		r.SetPathParam("id", id)
	})
	if err != nil {
		return nil, err
	}
	return unwrap(body, "resident", "data"), nil
}

// UpdateResident PUT of the changed fields only
func (c *Client) UpdateResident(ctx context.Context, id string, fields map[string]any) (json.RawMessage, error) {
	body, err := c.sendJSON(ctx, http.MethodPut, "/admin/residents/{id}", fields, func(r *resty.Request) {
		r.SetPathParam("id", id)
	})
	if err != nil {
		return nil, err
	}
	return unwrap(body, "resident", "data"), nil
}

func (c *Client) ApproveVerification(ctx context.Context, id string) (json.RawMessage, error) {
	body, err := c.sendJSON(ctx, http.MethodPost, "/admin/residents/{id}/approve-verification", nil, func(r *resty.Request) {
		r.SetPathParam("id", id)
	})
	if err != nil {
		return nil, err
	}
	return unwrap(body, "resident", "data"), nil
}

func (c *Client) DenyVerification(ctx context.Context, id, comment string) (json.RawMessage, error) {
	payload := map[string]any{}
	if comment != "" {
		payload["comment"] = comment
	}
	body, err := c.sendJSON(ctx, http.MethodPost, "/admin/residents/{id}/deny-verification", payload, func(r *resty.Request) {
		r.SetPathParam("id", id)
	})
	if err != nil {
		return nil, err
	}
	return unwrap(body, "resident", "data"), nil
}

func (c *Client) DisableResident(ctx context.Context, id, reason string) (json.RawMessage, error) {
	body, err := c.sendJSON(ctx, http.MethodPut, "/admin/residents/{id}/disable", map[string]any{
		"disable_reason": reason,
	}, func(r *resty.Request) {
		r.SetPathParam("id", id)
	})
	if err != nil {
		return nil, err
	}
	return unwrap(body, "resident", "data"), nil
}
