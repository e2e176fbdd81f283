package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/odsconseil/bms/errors"
	"github.com/odsconseil/bms/internal/httpclient"
)

const googleSearchURL = "https://www.googleapis.com/customsearch/v1"

// Google queries the Google Custom Search JSON API, restricted to
// results from the last seven days.
type Google struct {
	apiKey     string
	cseID      string
	client     *httpclient.Client
	baseURL    string
	maxResults int
	now        func() time.Time
}

// NewGoogle creates a Google Custom Search provider.
func NewGoogle(apiKey, cseID string, client *httpclient.Client, maxResults int) *Google {
	return &Google{
		apiKey:     apiKey,
		cseID:      cseID,
		client:     client,
		baseURL:    googleSearchURL,
		maxResults: maxResults,
		now:        time.Now,
	}
}

// WithBaseURL overrides the API endpoint. For tests.
func (g *Google) WithBaseURL(baseURL string) *Google {
	g.baseURL = baseURL
	return g
}

func (g *Google) Name() string { return "Google" }

func (g *Google) Configured() bool { return g.apiKey != "" && g.cseID != "" }

type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"items"`
}

func (g *Google) Search(ctx context.Context, keywords string) ([]Result, error) {
	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("cx", g.cseID)
	params.Set("q", keywords+tenderQualifier)
	params.Set("num", strconv.Itoa(g.maxResults))
	params.Set("dateRestrict", "d7")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build google request")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "google search request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("google search returned status %d", resp.StatusCode)
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "decode google response")
	}

	discoveredAt := g.now().UTC()
	results := make([]Result, 0, len(body.Items))
	for _, item := range body.Items {
		results = append(results, Result{
			Title:        item.Title,
			Description:  item.Snippet,
			URL:          item.Link,
			Source:       g.Name(),
			DiscoveredAt: discoveredAt,
		})
	}

	return results, nil
}

func (g *Google) Status(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL, nil)
	if err != nil {
		return errors.Wrap(err, "build google status request")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "google unreachable")
	}
	resp.Body.Close()
	return nil
}
