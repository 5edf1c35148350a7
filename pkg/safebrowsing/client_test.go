package safebrowsing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", WithAPIURL(srv.URL))
}

func TestLookupURLsParsesMatches(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req lookupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.ThreatInfo.ThreatEntries, 2)
		assert.Equal(t, []string{"ANY_PLATFORM"}, req.ThreatInfo.PlatformTypes)

		resp := lookupResponse{}
		resp.Matches = append(resp.Matches, struct {
			ThreatType   string `json:"threatType"`
			PlatformType string `json:"platformType"`
			Threat       struct {
				URL string `json:"url"`
			} `json:"threat"`
			CacheDuration string `json:"cacheDuration"`
		}{
			ThreatType:    "SOCIAL_ENGINEERING",
			PlatformType:  "ANY_PLATFORM",
			CacheDuration: "300s",
		})
		resp.Matches[0].Threat.URL = "https://evil.example"
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	verdicts, err := c.LookupURLs(context.Background(),
		[]string{"https://evil.example", "https://clean.example"})
	require.NoError(t, err)

	assert.True(t, verdicts["https://evil.example"].Malicious)
	assert.Equal(t, []string{"SOCIAL_ENGINEERING"}, verdicts["https://evil.example"].Threats)
	assert.Equal(t, 300*time.Second, verdicts["https://evil.example"].CacheTTL)
	assert.False(t, verdicts["https://clean.example"].Malicious)
}

func TestLookupURLsDefaultsToCleanOnServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	verdicts, err := c.LookupURLs(context.Background(), []string{"https://a.example"})
	require.NoError(t, err)
	assert.False(t, verdicts["https://a.example"].Malicious)
}

func TestLookupURLsDefaultsToCleanOnTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on
	c := NewClient("test-key", WithAPIURL(srv.URL))

	verdicts, err := c.LookupURLs(context.Background(), []string{"https://a.example"})
	require.NoError(t, err)
	assert.False(t, verdicts["https://a.example"].Malicious)
}

func TestLookupURLsBatches(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req lookupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.LessOrEqual(t, len(req.ThreatInfo.ThreatEntries), 50)
		require.NoError(t, json.NewEncoder(w).Encode(lookupResponse{}))
	})

	urls := make([]string, 75)
	for i := range urls {
		urls[i] = "https://site.example/" + strconv.Itoa(i)
	}
	_, err := c.LookupURLs(context.Background(), urls)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestLookupURL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(lookupResponse{}))
	})

	verdict, err := c.LookupURL(context.Background(), "https://a.example")
	require.NoError(t, err)
	assert.False(t, verdict.Malicious)
}
