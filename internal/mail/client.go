package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gradient/internal/config"
)

// Client implements Source against a Gmail-style REST API using a static
// bearer token from config.
type Client struct {
	baseURL    string
	token      string
	userID     string
	httpClient *http.Client
}

func NewClient(cfg config.MailConfig) *Client {
	userID := cfg.UserID
	if userID == "" {
		userID = "me"
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		userID:  userID,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type listResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func (c *Client) ListNewMessageIDs(ctx context.Context, limit int) ([]string, error) {
	endpoint := fmt.Sprintf("%s/users/%s/messages?labelIds=INBOX&maxResults=%d", c.baseURL, c.userID, limit)

	var parsed listResponse
	if err := c.getJSON(ctx, endpoint, &parsed); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(parsed.Messages))
	for _, m := range parsed.Messages {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

type messageResponse struct {
	ID      string `json:"id"`
	Payload struct {
		Headers []Header `json:"headers"`
		Body    struct {
			Data string `json:"data"`
		} `json:"body"`
		Parts []struct {
			MimeType string `json:"mimeType"`
			Body     struct {
				Data string `json:"data"`
			} `json:"body"`
		} `json:"parts"`
	} `json:"payload"`
}

func (c *Client) GetMessage(ctx context.Context, id string) (*RawMessage, error) {
	endpoint := fmt.Sprintf("%s/users/%s/messages/%s?format=full", c.baseURL, c.userID, id)

	var parsed messageResponse
	if err := c.getJSON(ctx, endpoint, &parsed); err != nil {
		return nil, err
	}

	msg := &RawMessage{
		ID:      parsed.ID,
		Headers: parsed.Payload.Headers,
	}
	if parsed.Payload.Body.Data != "" {
		msg.BodyParts = append(msg.BodyParts, BodyPart{MimeType: "text/plain", Data: parsed.Payload.Body.Data})
	}
	for _, p := range parsed.Payload.Parts {
		msg.BodyParts = append(msg.BodyParts, BodyPart{MimeType: p.MimeType, Data: p.Body.Data})
	}
	return msg, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mail source error: %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
