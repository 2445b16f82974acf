package emby

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	mhttp "github.com/danmuhq/danmuz/pkg/http"
)

// DefaultTimeout keeps webhook handling responsive when the media server is
// slow or unreachable.
const DefaultTimeout = time.Second * 5

// User is an Emby user as returned by /emby/Users.
type User struct {
	ID     string     `json:"Id"`
	Name   string     `json:"Name"`
	Policy UserPolicy `json:"Policy"`
}

type UserPolicy struct {
	IsAdministrator bool `json:"IsAdministrator"`
}

// Item is the subset of an Emby library item we care about.
type Item struct {
	ID          string            `json:"Id"`
	Name        string            `json:"Name"`
	Type        string            `json:"Type"`
	ProviderIDs map[string]string `json:"ProviderIds"`
}

// ClientInterface is the surface consumed by the metadata enhancer.
type ClientInterface interface {
	ListUsers(ctx context.Context) ([]User, error)
	UserItem(ctx context.Context, userID, itemID string) (*Item, error)
}

// Client talks to an Emby server's REST API.
type Client struct {
	baseURL *url.URL
	apiKey  string
	client  mhttp.HTTPClient
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient sets the http client used for requests
func WithHTTPClient(client mhttp.HTTPClient) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// New creates an Emby API client. The apiKey may be empty for servers that do
// not require authentication.
func New(baseURL, apiKey string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse emby url: %w", err)
	}

	c := &Client{
		baseURL: u,
		apiKey:  apiKey,
		client: mhttp.NewRateLimitedHTTPClient(
			mhttp.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
		),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Client) endpoint(elem ...string) string {
	u := *c.baseURL
	u.Path = path.Join(append([]string{u.Path, "emby"}, elem...)...)
	if c.apiKey != "" {
		q := u.Query()
		q.Set("api_key", c.apiKey)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("emby returned status %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// ListUsers lists the users known to the server.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.get(ctx, c.endpoint("Users"), &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UserItem fetches a library item in the context of the given user. The user
// context matters: item-level provider ids are only populated on this endpoint.
func (c *Client) UserItem(ctx context.Context, userID, itemID string) (*Item, error) {
	var item Item
	if err := c.get(ctx, c.endpoint("Users", userID, "Items", itemID), &item); err != nil {
		return nil, fmt.Errorf("get item %s: %w", itemID, err)
	}
	return &item, nil
}
