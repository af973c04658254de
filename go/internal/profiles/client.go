package profiles

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/mcdev12/matchboard/go/internal/auth"
	"github.com/mcdev12/matchboard/go/internal/models"
)

// Client talks to the profile endpoints as one operator. The owner is
// taken from the token (or dev header), so the ownerID arguments of the
// ProfileLoader methods are ignored.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	ownerID    string
}

func NewClient(httpClient *http.Client, baseURL, token, ownerID string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, baseURL: baseURL, token: token, ownerID: ownerID}
}

func (c *Client) GetProfile(ctx context.Context, _ string) (*models.Profile, error) {
	return c.do(ctx, http.MethodGet, "/api/profile", nil)
}

func (c *Client) SetTheme(ctx context.Context, theme models.Theme) (*models.Profile, error) {
	body, err := sonic.Marshal(SetThemeRequest{Theme: theme})
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPut, "/api/profile/theme", body)
}

func (c *Client) ToggleTheme(ctx context.Context) (*models.Profile, error) {
	return c.do(ctx, http.MethodPost, "/api/profile/theme/toggle", nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*models.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build profile request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.ownerID != "" {
		req.Header.Set(auth.DevOwnerHeader, c.ownerID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "profile request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read profile response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("profile request %s %s: %s: %s", method, path, resp.Status, bytes.TrimSpace(data))
	}
	var p models.Profile
	if err := sonic.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "decode profile")
	}
	return &p, nil
}
