package images

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.unsplash.com"

// Client looks up representative photos through the Unsplash search API.
// Lookups are best-effort decoration: every failure resolves to nil.
type Client struct {
	accessKey string
	baseURL   string
	client    *http.Client
}

// NewClient builds the lookup client. An empty access key yields a client
// whose searches always return nil.
func NewClient(accessKey string) *Client {
	return &Client{
		accessKey: accessKey,
		baseURL:   defaultBaseURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(accessKey, baseURL string) *Client {
	c := NewClient(accessKey)
	c.baseURL = baseURL
	return c
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

// Search resolves a free-text query to a photo URL, or nil when no credential
// is configured or anything at all goes wrong.
func (c *Client) Search(ctx context.Context, query string) *string {
	if c == nil || c.accessKey == "" {
		return nil
	}
	endpoint := fmt.Sprintf("%s/search/photos?query=%s&per_page=1", c.baseURL, url.QueryEscape(query+" travel"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Printf("unsplash request: %v", err)
		return nil
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("unsplash search: %v", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("unsplash search: status %d", resp.StatusCode)
		return nil
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Printf("unsplash decode: %v", err)
		return nil
	}
	if len(body.Results) == 0 || body.Results[0].URLs.Regular == "" {
		return nil
	}
	u := body.Results[0].URLs.Regular
	return &u
}
