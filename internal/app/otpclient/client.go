// Package otpclient is the engine-side client of the OTP verification
// service RPC surface. The service itself lives in features/otp; deployments
// may point this client at a remote instance instead.
package otpclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/dalemusser/rosterhub/internal/domain/models"
)

// RequestResult is the response to an OTP issuance request.
type RequestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// VerifyResult is the response to an OTP verification. Employee is set only
// on success.
type VerifyResult struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Employee *models.Employee `json:"employee,omitempty"`
}

// Client calls the OTP verification service.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// New creates a client for the service at baseURL.
func New(baseURL string, logger *zap.Logger) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: http, logger: logger}
}

// RequestOTP asks the service to issue and deliver a code for the email.
func (c *Client) RequestOTP(ctx context.Context, email string) (RequestResult, error) {
	var out RequestResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email}).
		SetResult(&out).
		SetError(&out).
		Post("/otp/request")
	if err != nil {
		return RequestResult{}, fmt.Errorf("request otp: %w", err)
	}
	if resp.IsError() && out.Message == "" {
		return RequestResult{}, fmt.Errorf("request otp: status %d", resp.StatusCode())
	}
	return out, nil
}

// VerifyOTP submits a code for verification and returns the account record
// on success.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (VerifyResult, error) {
	var out VerifyResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "code": code}).
		SetResult(&out).
		SetError(&out).
		Post("/otp/verify")
	if err != nil {
		return VerifyResult{}, fmt.Errorf("verify otp: %w", err)
	}
	if resp.IsError() && out.Message == "" {
		return VerifyResult{}, fmt.Errorf("verify otp: status %d", resp.StatusCode())
	}
	return out, nil
}

// UpdatePINRequest is the wire shape of a PIN update. OldPINHash is empty in
// the forgot-PIN flow, where a verified OTP stands in for the old PIN.
type UpdatePINRequest struct {
	Email      string `json:"email"`
	NewPINHash string `json:"newPinHash"`
	OldPINHash string `json:"oldPinHash,omitempty"`
	IsForgot   bool   `json:"isForgot"`
}

// UpdatePIN asks the service to replace the stored PIN hash.
func (c *Client) UpdatePIN(ctx context.Context, req UpdatePINRequest) (RequestResult, error) {
	var out RequestResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post("/pin/update")
	if err != nil {
		return RequestResult{}, fmt.Errorf("update pin: %w", err)
	}
	if resp.IsError() && out.Message == "" {
		return RequestResult{}, fmt.Errorf("update pin: status %d", resp.StatusCode())
	}
	if !out.Success {
		c.logger.Debug("pin update rejected", zap.String("message", out.Message))
	}
	return out, nil
}
