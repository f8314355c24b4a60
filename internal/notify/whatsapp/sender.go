// Package whatsapp is the secondary-channel collaborator behind
// notify.MessageSender, speaking the Twilio WhatsApp messaging API.
package whatsapp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"bloodlink/internal/domain"
	"bloodlink/internal/notify"
	"bloodlink/internal/platform/config"
)

// Sender posts messages through the provider's HTTP API.
type Sender struct {
	cfg    config.WhatsAppConfig
	client *http.Client
}

// New returns a Sender, or nil when the channel is not configured so the
// dispatcher records skipped outcomes instead of failures.
func New(cfg config.WhatsAppConfig) *Sender {
	if cfg.AccountSID == "" {
		return nil
	}
	return &Sender{cfg: cfg, client: &http.Client{}}
}

func (s *Sender) Send(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(s.cfg.BaseURL, "/"), s.cfg.AccountSID)

	form := url.Values{}
	form.Set("From", "whatsapp:"+s.cfg.FromNumber)
	form.Set("To", "whatsapp:"+normalizePhone(to))
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build whatsapp request: %w", err)
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err = fmt.Errorf("whatsapp api status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return &notify.SendError{Reason: domain.ReasonInvalidRecipient, Err: err}
	}
	return &notify.SendError{Reason: domain.ReasonProviderRejected, Err: err}
}

// normalizePhone strips separators so numbers pass the provider's E.164
// validation.
func normalizePhone(phone string) string {
	var b strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' || (i == 0 && r == '+') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
