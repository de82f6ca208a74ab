package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// QRCodeClient renders QR codes through a remote image endpoint.
type QRCodeClient struct {
	endpoint string
	http     *http.Client
}

// NewQRCodeClient creates a client for the given rendering endpoint.
func NewQRCodeClient(endpoint string) *QRCodeClient {
	return &QRCodeClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Generate returns PNG bytes encoding the given payload.
func (c *QRCodeClient) Generate(ctx context.Context, data string) ([]byte, error) {
	u := fmt.Sprintf("%s?size=150x150&data=%s", c.endpoint, url.QueryEscape(data))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build qr request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("qr endpoint returned status %d", resp.StatusCode)
	}
	png, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read qr response: %w", err)
	}
	return png, nil
}
