package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	httpclient "github.com/kevin07696/mealplan-service/pkg/http"
	"github.com/kevin07696/mealplan-service/pkg/resilience"
)

// HTTPTransport posts messages as JSON to a mail relay API
type HTTPTransport struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
}

// NewHTTPTransport creates a relay transport with the mail relay client profile
func NewHTTPTransport(endpoint, apiKey, from string) *HTTPTransport {
	return &HTTPTransport{
		endpoint: endpoint,
		apiKey:   apiKey,
		from:     from,
		client:   httpclient.NewClient(httpclient.MailRelayProfile()),
	}
}

type relayRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	ToName  string `json:"to_name,omitempty"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

func (t *HTTPTransport) Deliver(ctx context.Context, msg Message) error {
	var headers map[string]string
	if t.apiKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + t.apiKey}
	}

	req := relayRequest{From: t.from, To: msg.To, ToName: msg.ToName, Subject: msg.Subject, Text: msg.Body}
	err := httpclient.PostJSON(ctx, t.client, t.endpoint, req, headers)
	if err == nil {
		return nil
	}
	var se *httpclient.StatusError
	if errors.As(err, &se) && !se.Retryable() {
		return resilience.Permanent(fmt.Errorf("mail relay: %w", err))
	}
	return fmt.Errorf("mail relay: %w", err)
}
