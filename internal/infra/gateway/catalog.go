package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"circulation-core/internal/pkg/config"

	"github.com/google/uuid"
)

// CatalogClient talks to the catalog collaborator that owns bibliographic
// metadata and copy registration. The circulation core only reads from it.
type CatalogClient struct {
	baseURL string
	client  *http.Client
}

func NewCatalogClient(cfg config.GatewayConfig) *CatalogClient {
	return &CatalogClient{
		baseURL: cfg.CatalogBaseURL,
		client:  &http.Client{Timeout: cfg.ClientTimeout},
	}
}

type copyInfo struct {
	CopyID uuid.UUID `json:"copy_id"`
	BookID uuid.UUID `json:"book_id"`
}

func (c *CatalogClient) CopyExists(ctx context.Context, copyID uuid.UUID) (bool, error) {
	_, err := c.getCopy(ctx, copyID)
	if err != nil {
		if err == errCopyUnknown {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *CatalogClient) BookOf(ctx context.Context, copyID uuid.UUID) (uuid.UUID, error) {
	info, err := c.getCopy(ctx, copyID)
	if err != nil {
		return uuid.Nil, err
	}
	return info.BookID, nil
}

var errCopyUnknown = fmt.Errorf("copy unknown to catalog")

func (c *CatalogClient) getCopy(ctx context.Context, copyID uuid.UUID) (*copyInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/copies/%s", c.baseURL, copyID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, errCopyUnknown
	default:
		return nil, fmt.Errorf("catalog returned unexpected status code: %d", resp.StatusCode)
	}

	var info copyInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}

	return &info, nil
}
