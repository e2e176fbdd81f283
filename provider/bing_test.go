package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odsconseil/bms/internal/httpclient"
)

func TestBingConfigured(t *testing.T) {
	client := httpclient.WrapClient(http.DefaultClient)

	assert.True(t, NewBing("key", client, 10).Configured())
	assert.False(t, NewBing("", client, 10).Configured())
}

func TestBingSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, "Week", r.URL.Query().Get("freshness"))
		assert.Contains(t, r.URL.Query().Get("q"), `"appel d'offres"`)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"webPages": {
				"value": [
					{"name": "Avis de marché travaux", "snippet": "Rénovation de bâtiment", "url": "https://example.com/avis/9"}
				]
			}
		}`))
	}))
	defer server.Close()

	bing := NewBing("secret-key", httpclient.WrapClient(server.Client()), 10).
		WithBaseURL(server.URL)

	results, err := bing.Search(context.Background(), "rénovation bâtiment")
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "Avis de marché travaux", results[0].Title)
	assert.Equal(t, "Rénovation de bâtiment", results[0].Description)
	assert.Equal(t, "https://example.com/avis/9", results[0].URL)
	assert.Equal(t, "Bing", results[0].Source)
}

func TestBingSearchAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	bing := NewBing("expired", httpclient.WrapClient(server.Client()), 10).
		WithBaseURL(server.URL)

	_, err := bing.Search(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestBingSearchEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	bing := NewBing("k", httpclient.WrapClient(server.Client()), 10).
		WithBaseURL(server.URL)

	results, err := bing.Search(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, results)
}
