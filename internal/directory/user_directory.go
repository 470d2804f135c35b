package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/neos-mentors/mentor-queue/internal/config"
	"github.com/neos-mentors/mentor-queue/internal/domain"
)

// UserDirectory resolves external identities to user profiles. A nil
// profile with nil error means the identity does not exist.
type UserDirectory interface {
	GetByExternalID(ctx context.Context, externalID string) (*domain.UserProfile, error)
}

// HTTPUserDirectory queries the platform user API.
type HTTPUserDirectory struct {
	baseURL string
	client  *http.Client
}

// NewHTTPUserDirectory builds a directory client from configuration.
func NewHTTPUserDirectory(cfg config.DirectoryConfig) *HTTPUserDirectory {
	return &HTTPUserDirectory{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout()},
	}
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// GetByExternalID looks the identity up; a 404 resolves to (nil, nil).
func (d *HTTPUserDirectory) GetByExternalID(ctx context.Context, externalID string) (*domain.UserProfile, error) {
	endpoint := d.baseURL + "/users/" + url.PathEscape(externalID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user directory request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body userResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("decode user directory response: %w", err)
		}
		return &domain.UserProfile{ID: body.ID, Username: body.Username}, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("user directory returned status %d", resp.StatusCode)
	}
}
