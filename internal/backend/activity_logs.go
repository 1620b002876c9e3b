package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Maristella28/Bms-1125-sub002/internal/domain"

	"github.com/go-resty/resty/v2"
)

// ActivityLogQuery filters accepted by /admin/activity-logs
type ActivityLogQuery struct {
	Search    string `json:"search,omitempty"`
	Action    string `json:"action,omitempty"`
	ModelType string `json:"model_type,omitempty"`
	Role      string `json:"user_type,omitempty"`
	DateFrom  string `json:"date_from,omitempty"`
	DateTo    string `json:"date_to,omitempty"`
	Page      int    `json:"page,omitempty"`
	PerPage   int    `json:"per_page,omitempty"`
}

// Params non-empty filters as query parameters
func (q ActivityLogQuery) Params() map[string]string {
	params := map[string]string{}
	set := func(k, v string) {
		if v != "" {
			params[k] = v
		}
	}
	set("search", q.Search)
	set("action", q.Action)
	set("model_type", q.ModelType)
	set("user_type", q.Role)
	set("date_from", q.DateFrom)
	set("date_to", q.DateTo)
	if q.Page > 0 {
		params["page"] = strconv.Itoa(q.Page)
	}
	if q.PerPage > 0 {
		params["per_page"] = strconv.Itoa(q.PerPage)
	}
	return params
}

// ActivityLogPage one page of logs plus per-role counts
type ActivityLogPage struct {
	Logs   Page[domain.ActivityLog] `json:"logs"`
	Counts map[string]int           `json:"counts"`
}

// FlagResult outcome of the bulk for_review update
type FlagResult struct {
	Message      string `json:"message"`
	FlaggedCount int    `json:"flagged_count"`
}

// CleanupResult outcome of deleting old logs
type CleanupResult struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deleted_count"`
}

// ExportedFile server-generated export
type ExportedFile struct {
	ContentType string
	Disposition string
	Data        []byte
}

func (c *Client) ListActivityLogs(ctx context.Context, q ActivityLogQuery) (*ActivityLogPage, error) {
	body, err := c.getJSON(ctx, "/admin/activity-logs", func(r *resty.Request) {
		r.SetQueryParams(q.Params())
	})
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Logs       json.RawMessage `json:"logs"`
		Counts     map[string]int  `json:"counts"`
		RoleCounts map[string]int  `json:"role_counts"`
	}
	// bare arrays and paginators have no envelope; decodePage reports real errors
	_ = json.Unmarshal(body, &envelope)

	logs := envelope.Logs
	if isNull(logs) {
		logs = body
	}
	page, err := decodePage[domain.ActivityLog](logs)
	if err != nil {
		return nil, err
	}

	out := &ActivityLogPage{Logs: *page, Counts: envelope.Counts}
	if out.Counts == nil {
		out.Counts = envelope.RoleCounts
	}
	if out.Counts == nil {
		out.Counts = map[string]int{}
	}
	return out, nil
}

// ActivityLogFilterOptions distinct action and model_type values, passed through
func (c *Client) ActivityLogFilterOptions(ctx context.Context) (json.RawMessage, error) {
	body, err := c.getJSON(ctx, "/admin/activity-logs/filters/options", nil)
	if err != nil {
		return nil, err
	}
	return unwrap(body, "data"), nil
}

func (c *Client) ActivityLogStatistics(ctx context.Context) (json.RawMessage, error) {
	body, err := c.getJSON(ctx, "/admin/activity-logs/statistics/summary", nil)
	if err != nil {
		return nil, err
	}
	return unwrap(body, "data"), nil
}

func (c *Client) SecurityAlerts(ctx context.Context) (json.RawMessage, error) {
	body, err := c.getJSON(ctx, "/admin/activity-logs/security/alerts", nil)
	if err != nil {
		return nil, err
	}
	return unwrap(body, "data"), nil
}

// InactiveResidents residents with no activity for a year or more
func (c *Client) InactiveResidents(ctx context.Context, page, perPage int) (*Page[json.RawMessage], error) {
	body, err := c.getJSON(ctx, "/admin/activity-logs/inactive-residents", func(r *resty.Request) {
		if page > 0 {
			r.SetQueryParam("page", strconv.Itoa(page))
		}
		if perPage > 0 {
			r.SetQueryParam("per_page", strconv.Itoa(perPage))
		}
	})
	if err != nil {
		return nil, err
	}
	return decodePage[json.RawMessage](unwrap(body, "residents"))
}

func (c *Client) FlagInactiveResidents(ctx context.Context) (*FlagResult, error) {
	body, err := c.sendJSON(ctx, http.MethodPost, "/admin/activity-logs/flag-inactive-residents", nil, nil)
	if err != nil {
		return nil, err
	}
	var out FlagResult
	if err := decodeInto(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportActivityLogs server-side CSV for the given filters
func (c *Client) ExportActivityLogs(ctx context.Context, q ActivityLogQuery) (*ExportedFile, error) {
	req := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "text/csv, application/json").
		SetBody(q)
	resp, err := c.execute(ctx, req, http.MethodPost, "/admin/activity-logs/export")
	if err != nil {
		return nil, err
	}
	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = "text/csv; charset=utf-8"
	}
	return &ExportedFile{
		ContentType: contentType,
		Disposition: resp.Header().Get("Content-Disposition"),
		Data:        resp.Body(),
	}, nil
}

// CleanupActivityLogs deletes logs older than 90 days
func (c *Client) CleanupActivityLogs(ctx context.Context) (*CleanupResult, error) {
	body, err := c.sendJSON(ctx, http.MethodDelete, "/admin/activity-logs/cleanup", nil, nil)
	if err != nil {
		return nil, err
	}
	var out CleanupResult
	if err := decodeInto(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
