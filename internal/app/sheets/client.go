// Package sheets is a best-effort client for the legacy spreadsheet-backed
// API. Directory deletes mirror into the old sheet and drop orphaned photos;
// failures here never fail the primary operation, callers only log them.
package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client talks to the legacy spreadsheet service.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// New creates a client. token is the static bearer token the legacy service
// expects on every call.
func New(baseURL, token string, logger *zap.Logger) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: http, logger: logger}
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DeleteEmployee removes the sheet row for the given natural key.
func (c *Client) DeleteEmployee(ctx context.Context, kgid string) error {
	var out apiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"kgid": kgid}).
		SetResult(&out).
		Post("/deleteEmployee")
	if err != nil {
		return fmt.Errorf("sheet delete %s: %w", kgid, err)
	}
	if resp.IsError() || !out.Success {
		return fmt.Errorf("sheet delete %s: status %d: %s", kgid, resp.StatusCode(), out.Message)
	}

	c.logger.Debug("sheet row deleted", zap.String("kgid", kgid))
	return nil
}

// DeleteImage removes a stored photo by its file id.
func (c *Client) DeleteImage(ctx context.Context, fileID string) error {
	var out apiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"fileId": fileID}).
		SetResult(&out).
		Post("/deleteImage")
	if err != nil {
		return fmt.Errorf("image delete %s: %w", fileID, err)
	}
	if resp.IsError() || !out.Success {
		return fmt.Errorf("image delete %s: status %d: %s", fileID, resp.StatusCode(), out.Message)
	}

	c.logger.Debug("image deleted", zap.String("file_id", fileID))
	return nil
}
