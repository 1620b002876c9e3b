package backend

import (
	"bytes"
	"context"
	"net/http"

	"github.com/Maristella28/Bms-1125-sub002/internal/domain"

	"github.com/go-resty/resty/v2"
)

// UploadFile proof attachment for a receipt submission
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReceiptForm multipart payload of validate-receipt. A nil ReceiptNumber
// leaves the receipt_number part out of the request entirely.
type ReceiptForm struct {
	ReceiptNumber *string
	Comment       string
	Proof         *UploadFile
}

// Fields form values that will be sent
func (f ReceiptForm) Fields() map[string]string {
	fields := map[string]string{}
	if f.ReceiptNumber != nil {
		fields["receipt_number"] = *f.ReceiptNumber
	}
	if f.Comment != "" {
		fields["comment"] = f.Comment
	}
	return fields
}

func (c *Client) MyBenefits(ctx context.Context) ([]domain.Beneficiary, error) {
	body, err := c.getJSON(ctx, "/my-benefits", nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeList(body, "benefits", "data")
	if err != nil {
		return nil, err
	}
	out := make([]domain.Beneficiary, 0, len(items))
	for _, raw := range items {
		var b domain.Beneficiary
		if err := decodeInto(raw, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (c *Client) Beneficiary(ctx context.Context, id string) (*domain.Beneficiary, error) {
	body, err := c.getJSON(ctx, "/my-benefits/{id}", func(r *resty.Request) {
		r.SetPathParam("id", id)
	})
	if err != nil {
		return nil, err
	}
	var b domain.Beneficiary
	if err := decodeInto(unwrap(body, "benefit", "beneficiary", "data"), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Tracking full, server-computed tracking object
func (c *Client) Tracking(ctx context.Context, id string) (*domain.BenefitTracking, error) {
	body, err := c.getJSON(ctx, "/my-benefits/{id}/track", func(r *resty.Request) {
		r.SetPathParam("id", id)
	})
	if err != nil {
		return nil, err
	}
	var t domain.BenefitTracking
	if err := decodeInto(unwrap(body, "tracking", "data"), &t); err != nil {
		return nil, err
	}
	if t.Stages == nil {
		t.Stages = []domain.TrackingStage{}
	}
	return &t, nil
}

// ValidateReceipt posts the multipart form; the response carries no stages
func (c *Client) ValidateReceipt(ctx context.Context, id string, form ReceiptForm) error {
	req := c.request(ctx).
		SetPathParam("id", id).
		SetMultipartFormData(form.Fields())
	if form.Proof != nil {
		req.SetMultipartField("proof_file", form.Proof.Name, form.Proof.ContentType, bytes.NewReader(form.Proof.Data))
	}
	_, err := c.execute(ctx, req, http.MethodPost, "/my-benefits/{id}/validate-receipt")
	return err
}
