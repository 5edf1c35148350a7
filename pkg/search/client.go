// Package search implements the web-search collaborator used for brand
// knowledge discovery.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	bwerrors "brandwatch/pkg/errors"
	"brandwatch/pkg/urlutil"
)

const defaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// Result is a single search hit.
type Result struct {
	URL          string
	Title        string
	PubDate      *time.Time
	ThumbnailURL string
	ContextURL   string
}

// TextQuery describes a web search request.
type TextQuery struct {
	Query               string
	Num                 int
	ForbiddenDomains    []string
	ForbiddenSubdomains []string
	TruncateTitle       bool
}

// Client talks to the Custom Search JSON API.
type Client struct {
	apiKey     string
	engineID   string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

func NewClient(apiKey, engineID string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		engineID:   engineID,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiResponse struct {
	Items []apiItem `json:"items"`
	Error *apiError `json:"error"`
}

type apiItem struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	PageMap struct {
		MetaTags []map[string]string `json:"metatags"`
	} `json:"pagemap"`
	Image struct {
		ThumbnailLink string `json:"thumbnailLink"`
		ContextLink   string `json:"contextLink"`
	} `json:"image"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) query(ctx context.Context, params url.Values) (*apiResponse, error) {
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, bwerrors.NewProviderError("search", err)
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, bwerrors.NewProviderError("search", err)
	}

	if parsed.Error != nil {
		if parsed.Error.Code == http.StatusTooManyRequests {
			return nil, bwerrors.ErrQuotaExceeded
		}
		return nil, bwerrors.NewProviderError("search",
			fmt.Errorf("api error %d: %s", parsed.Error.Code, parsed.Error.Message))
	}

	return &parsed, nil
}

func (q TextQuery) normalized() TextQuery {
	if q.Num <= 0 {
		q.Num = 5
	}
	return q
}

// TextSearch runs a web search and returns up to q.Num results. Hits whose
// registrable domain contains the query's own domain token are moved to the
// front of the list; truncation happens only after that reordering. Hits on
// forbidden domains or subdomains are dropped.
func (c *Client) TextSearch(ctx context.Context, q TextQuery) ([]Result, error) {
	q = q.normalized()
	if q.Query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", q.Query)
	params.Set("num", "5")

	parsed, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}

	queryToken := urlutil.FromURL(q.Query).Domain
	forbidden := toSet(q.ForbiddenDomains)
	forbiddenSub := toSet(q.ForbiddenSubdomains)

	var results []Result
	for _, item := range parsed.Items {
		host := hostOf(item.Link)
		parts := urlutil.Split(host)
		if forbidden[parts.Domain] || forbiddenSub[subdomainOf(host, parts)] {
			continue
		}

		title := item.Title
		if q.TruncateTitle {
			title = truncateTitle(title)
		}

		res := Result{
			URL:     item.Link,
			Title:   title,
			PubDate: pubDateOf(item.PageMap.MetaTags),
		}

		// prioritize the most relevant recommendation
		if queryToken != "" && containsToken(parts.Domain, queryToken) {
			results = append([]Result{res}, results...)
		} else {
			results = append(results, res)
		}
	}

	if len(results) > q.Num {
		results = results[:q.Num]
	}

	log.Debugf("search %q returned %d results", q.Query, len(results))
	return results, nil
}

// ImageSearch runs an image search and returns thumbnail plus context links.
func (c *Client) ImageSearch(ctx context.Context, query string, num int) ([]Result, error) {
	if query == "" {
		return nil, nil
	}
	if num <= 0 {
		num = 3
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("searchType", "image")
	params.Set("num", strconv.Itoa(num))
	params.Set("filter", "1")

	parsed, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, item := range parsed.Items {
		results = append(results, Result{
			URL:          item.Image.ContextLink,
			Title:        item.Title,
			ThumbnailURL: item.Image.ThumbnailLink,
			ContextURL:   item.Image.ContextLink,
		})
	}
	return results, nil
}

func toSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, s := range list {
		set[s] = true
	}
	return set
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func subdomainOf(host string, parts urlutil.Parts) string {
	reg := parts.Registrable()
	if host == reg {
		return ""
	}
	if len(host) > len(reg) && host[len(host)-len(reg):] == reg {
		return host[:len(host)-len(reg)-1]
	}
	return ""
}

func containsToken(domain, token string) bool {
	return token != "" && domain != "" && strings.Contains(domain, token)
}

// truncateTitle removes the site-name suffix that search titles carry
// after " - ".
func truncateTitle(title string) string {
	head, _, _ := strings.Cut(title, " - ")
	return head
}
