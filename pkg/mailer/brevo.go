package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oakline/oakline-backend/pkg/config"
	"github.com/oakline/oakline-backend/pkg/logger"
)

var errAPIKeyRequired = errors.New("brevo api key is required")

// Sender delivers one-time codes through a transactional email provider.
type Sender interface {
	SendOTP(ctx context.Context, email, name, code string, templateID int) error
}

// Brevo sends transactional template emails via the Brevo v3 API.
type Brevo struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logg    *logger.Logger
}

// NewBrevo initializes the Brevo client with the configured credentials.
func NewBrevo(cfg config.BrevoConfig, logg *logger.Logger) (*Brevo, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.brevo.com/v3"
	}
	return &Brevo{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		logg:    logg,
	}, nil
}

type templateEmailRequest struct {
	To         []emailRecipient `json:"to"`
	TemplateID int              `json:"templateId"`
	Params     map[string]any   `json:"params"`
}

type emailRecipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// SendOTP delivers the code through the given template. Provider error bodies
// are logged but never returned to callers.
func (b *Brevo) SendOTP(ctx context.Context, email, name, code string, templateID int) error {
	if email == "" {
		return errors.New("recipient email is required")
	}
	if templateID <= 0 {
		return errors.New("template id is required")
	}

	payload := templateEmailRequest{
		To:         []emailRecipient{{Email: email, Name: name}},
		TemplateID: templateID,
		Params: map[string]any{
			"otp":  code,
			"name": name,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/smtp/email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("api-key", b.apiKey)

	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("send email request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if b.logg != nil {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		ctx = b.logg.WithFields(ctx, map[string]any{
			"status":   resp.StatusCode,
			"template": templateID,
		})
		b.logg.Warn(ctx, "brevo rejected email: "+string(detail))
	}
	return fmt.Errorf("email provider returned status %d", resp.StatusCode)
}
