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

const bingSearchURL = "https://api.bing.microsoft.com/v7.0/search"

// Bing queries the Bing Web Search API, restricted to results from the
// last week.
type Bing struct {
	apiKey     string
	client     *httpclient.Client
	baseURL    string
	maxResults int
	now        func() time.Time
}

// NewBing creates a Bing Web Search provider.
func NewBing(apiKey string, client *httpclient.Client, maxResults int) *Bing {
	return &Bing{
		apiKey:     apiKey,
		client:     client,
		baseURL:    bingSearchURL,
		maxResults: maxResults,
		now:        time.Now,
	}
}

// WithBaseURL overrides the API endpoint. For tests.
func (b *Bing) WithBaseURL(baseURL string) *Bing {
	b.baseURL = baseURL
	return b
}

func (b *Bing) Name() string { return "Bing" }

func (b *Bing) Configured() bool { return b.apiKey != "" }

type bingResponse struct {
	WebPages struct {
		Value []struct {
			Name    string `json:"name"`
			Snippet string `json:"snippet"`
			URL     string `json:"url"`
		} `json:"value"`
	} `json:"webPages"`
}

func (b *Bing) Search(ctx context.Context, keywords string) ([]Result, error) {
	params := url.Values{}
	params.Set("q", keywords+tenderQualifier)
	params.Set("count", strconv.Itoa(b.maxResults))
	params.Set("freshness", "Week")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build bing request")
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "bing search request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("bing search returned status %d", resp.StatusCode)
	}

	var body bingResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "decode bing response")
	}

	discoveredAt := b.now().UTC()
	results := make([]Result, 0, len(body.WebPages.Value))
	for _, item := range body.WebPages.Value {
		results = append(results, Result{
			Title:        item.Name,
			Description:  item.Snippet,
			URL:          item.URL,
			Source:       b.Name(),
			DiscoveredAt: discoveredAt,
		})
	}

	return results, nil
}

func (b *Bing) Status(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL, nil)
	if err != nil {
		return errors.Wrap(err, "build bing status request")
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "bing unreachable")
	}
	resp.Body.Close()
	return nil
}
