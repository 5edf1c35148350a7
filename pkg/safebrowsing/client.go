// Package safebrowsing implements the blocklist collaborator used to vet
// discovered knowledge sources before admission.
package safebrowsing

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	defaultAPIURL = "https://safebrowsing.googleapis.com/v4/threatMatches:find"

	// the API accepts at most 50 threat entries per request
	batchSize = 50

	clientID      = "brandwatch"
	clientVersion = "1.0.0"
)

var threatTypes = []string{
	"MALWARE",
	"SOCIAL_ENGINEERING",
	"THREAT_TYPE_UNSPECIFIED",
	"UNWANTED_SOFTWARE",
	"POTENTIALLY_HARMFUL_APPLICATION",
}

// Verdict is the per-URL blocklist result.
type Verdict struct {
	Malicious bool
	Platforms []string
	Threats   []string
	CacheTTL  time.Duration
}

// Client talks to the Safe Browsing v4 lookup API.
type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

type Option func(*Client)

// WithAPIURL overrides the API endpoint, mainly for tests.
func WithAPIURL(u string) Option {
	return func(c *Client) {
		c.apiURL = u
	}
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		apiURL:     defaultAPIURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type threatEntry struct {
	URL string `json:"url"`
}

type lookupRequest struct {
	Client struct {
		ClientID      string `json:"clientId"`
		ClientVersion string `json:"clientVersion"`
	} `json:"client"`
	ThreatInfo struct {
		ThreatTypes      []string      `json:"threatTypes"`
		PlatformTypes    []string      `json:"platformTypes"`
		ThreatEntryTypes []string      `json:"threatEntryTypes"`
		ThreatEntries    []threatEntry `json:"threatEntries"`
	} `json:"threatInfo"`
}

type lookupResponse struct {
	Matches []struct {
		ThreatType   string `json:"threatType"`
		PlatformType string `json:"platformType"`
		Threat       struct {
			URL string `json:"url"`
		} `json:"threat"`
		CacheDuration string `json:"cacheDuration"`
	} `json:"matches"`
}

// LookupURLs checks URLs against the blocklist in batches of up to 50.
// Transport or API failures default the whole batch to non-malicious rather
// than failing the pipeline.
func (c *Client) LookupURLs(ctx context.Context, urls []string, platforms ...string) (map[string]Verdict, error) {
	if len(platforms) == 0 {
		platforms = []string{"ANY_PLATFORM"}
	}

	results := make(map[string]Verdict, len(urls))
	for _, u := range urls {
		results[u] = Verdict{}
	}

	for start := 0; start < len(urls); start += batchSize {
		end := start + batchSize
		if end > len(urls) {
			end = len(urls)
		}
		c.lookupBatch(ctx, urls[start:end], platforms, results)
	}

	return results, nil
}

// LookupURL checks a single URL.
func (c *Client) LookupURL(ctx context.Context, url string, platforms ...string) (Verdict, error) {
	results, err := c.LookupURLs(ctx, []string{url}, platforms...)
	if err != nil {
		return Verdict{}, err
	}
	return results[url], nil
}

func (c *Client) lookupBatch(ctx context.Context, urls, platforms []string, results map[string]Verdict) {
	var reqBody lookupRequest
	reqBody.Client.ClientID = clientID
	reqBody.Client.ClientVersion = clientVersion
	reqBody.ThreatInfo.ThreatTypes = threatTypes
	reqBody.ThreatInfo.PlatformTypes = platforms
	reqBody.ThreatInfo.ThreatEntryTypes = []string{"URL"}
	for _, u := range urls {
		reqBody.ThreatInfo.ThreatEntries = append(reqBody.ThreatInfo.ThreatEntries, threatEntry{URL: u})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		log.Errorf("safebrowsing: marshal request: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"?key="+c.apiKey, bytes.NewReader(payload))
	if err != nil {
		log.Errorf("safebrowsing: build request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// lookup unavailable, default the batch to non-malicious
		log.Warnf("safebrowsing: lookup failed, defaulting %d urls to clean: %v", len(urls), err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("safebrowsing: status %d, defaulting %d urls to clean", resp.StatusCode, len(urls))
		return
	}

	var parsed lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		log.Warnf("safebrowsing: decode response: %v", err)
		return
	}

	for _, u := range urls {
		verdict := Verdict{}
		for _, match := range parsed.Matches {
			if match.Threat.URL != u {
				continue
			}
			verdict.Malicious = true
			verdict.Platforms = appendUnique(verdict.Platforms, match.PlatformType)
			verdict.Threats = appendUnique(verdict.Threats, match.ThreatType)
			if ttl, err := time.ParseDuration(match.CacheDuration); err == nil {
				if verdict.CacheTTL == 0 || ttl < verdict.CacheTTL {
					verdict.CacheTTL = ttl
				}
			}
		}
		results[u] = verdict
	}
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
