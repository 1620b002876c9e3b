package backend

import (
	"context"
	"encoding/json"

	"github.com/Maristella28/Bms-1125-sub002/internal/domain"

	"github.com/go-resty/resty/v2"
)

func (c *Client) Program(ctx context.Context, id string) (json.RawMessage, error) {
	body, err := c.getJSON(ctx, "/programs/{id}", func(r *resty.Request) {
		r.SetPathParam("id", id)
	})
	if err != nil {
		return nil, err
	}
	return unwrap(body, "program", "data"), nil
}

func (c *Client) ProgramAnnouncements(ctx context.Context, programID string) ([]json.RawMessage, error) {
	body, err := c.getJSON(ctx, "/program-announcements", func(r *resty.Request) {
		if programID != "" {
			r.SetQueryParam("program_id", programID)
		}
	})
	if err != nil {
		return nil, err
	}
	return decodeList(body, "announcements", "data")
}

func (c *Client) ApplicationForms(ctx context.Context, programID string) ([]json.RawMessage, error) {
	body, err := c.getJSON(ctx, "/program-application-forms", func(r *resty.Request) {
		if programID != "" {
			r.SetQueryParam("program_id", programID)
		}
	})
	if err != nil {
		return nil, err
	}
	return decodeList(body, "forms", "data")
}

// Notifications current notification feed
func (c *Client) Notifications(ctx context.Context) ([]domain.Notification, error) {
	body, err := c.getJSON(ctx, "/notifications", nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeList(body, "notifications", "data")
	if err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(items))
	for _, raw := range items {
		var n domain.Notification
		if err := decodeInto(raw, &n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
