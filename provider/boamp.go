package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/odsconseil/bms/errors"
	"github.com/odsconseil/bms/internal/httpclient"
)

const boampBaseURL = "https://www.boamp.fr"

// BOAMP scrapes the public French procurement announcement board. No
// credentials needed, so it serves as the always-available fallback when
// the web search APIs are unconfigured or empty.
type BOAMP struct {
	client     *httpclient.Client
	baseURL    string
	maxResults int
	now        func() time.Time
}

// NewBOAMP creates a BOAMP scraping provider.
func NewBOAMP(client *httpclient.Client, maxResults int) *BOAMP {
	return &BOAMP{
		client:     client,
		baseURL:    boampBaseURL,
		maxResults: maxResults,
		now:        time.Now,
	}
}

// WithBaseURL overrides the board URL. For tests.
func (b *BOAMP) WithBaseURL(baseURL string) *BOAMP {
	b.baseURL = baseURL
	return b
}

func (b *BOAMP) Name() string { return "BOAMP" }

func (b *BOAMP) Configured() bool { return true }

func (b *BOAMP) Search(ctx context.Context, keywords string) ([]Result, error) {
	searchURL := b.baseURL + "/recherche?" + url.Values{"q": {keywords}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build boamp request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; bms/1.0)")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "boamp search request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("boamp returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "parse boamp page")
	}

	return b.parseResults(doc), nil
}

// parseResults extracts announcements from a BOAMP result page. The
// board renders one article per announcement with a title link and a
// summary paragraph.
func (b *BOAMP) parseResults(doc *goquery.Document) []Result {
	discoveredAt := b.now().UTC()
	var results []Result

	doc.Find("article.annonce, div.resultat-annonce, li.result-item").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return true
		}

		href, _ := link.Attr("href")
		if strings.HasPrefix(href, "/") {
			href = b.baseURL + href
		}

		description := strings.TrimSpace(sel.Find("p").First().Text())

		results = append(results, Result{
			Title:        title,
			Description:  description,
			URL:          href,
			Source:       b.Name(),
			DiscoveredAt: discoveredAt,
		})

		return len(results) < b.maxResults
	})

	return results
}

func (b *BOAMP) Status(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL, nil)
	if err != nil {
		return errors.Wrap(err, "build boamp status request")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "boamp unreachable")
	}
	resp.Body.Close()
	return nil
}
