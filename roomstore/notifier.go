package roomstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tcriess/lightspeed-board/types"
)

// Notifier announces a newly created room externally. Announcement failures
// never fail the room creation, they are logged and dropped.
type Notifier interface {
	AnnounceRoom(ctx context.Context, room types.Room) error
}

// WebhookNotifier posts a short announcement with the room link to a
// configured endpoint.
type WebhookNotifier struct {
	url     string
	siteUrl string
	client  *http.Client
}

func NewWebhookNotifier(url, siteUrl string) *WebhookNotifier {
	return &WebhookNotifier{
		url:     url,
		siteUrl: strings.TrimSuffix(siteUrl, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) AnnounceRoom(ctx context.Context, room types.Room) error {
	payload := map[string]string{
		"text": fmt.Sprintf("A new room just opened: %s/%s", n.siteUrl, room.Id),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("announcement endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
