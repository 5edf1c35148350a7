package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type annotationFixture struct {
	Responses []map[string]interface{} `json:"responses"`
}

func newOCRClient(t *testing.T, fixture annotationFixture) (*Client, *[]annotateRequest) {
	t.Helper()
	var requests []annotateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req annotateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)
		require.NoError(t, json.NewEncoder(w).Encode(fixture))
	}))
	t.Cleanup(srv.Close)
	return NewClient("test-key", WithAPIURL(srv.URL)), &requests
}

func TestDetectText(t *testing.T) {
	c, requests := newOCRClient(t, annotationFixture{
		Responses: []map[string]interface{}{{
			"textAnnotations": []map[string]string{
				{"description": "Chase Bank\nSign In"},
				{"description": "Chase"},
				{"description": "Bank"},
			},
		}},
	})

	texts, err := c.DetectText(context.Background(), []byte("logo-bytes"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Chase Bank\nSign In", "Chase", "Bank"}, texts)

	require.Len(t, *requests, 1)
	req := (*requests)[0].Requests[0]
	assert.Equal(t, "TEXT_DETECTION", req.Features[0].Type)
	require.NotNil(t, req.ImageContext)
	assert.NotEmpty(t, req.ImageContext.LanguageHints)
}

func TestDetectTextEmpty(t *testing.T) {
	c, _ := newOCRClient(t, annotationFixture{
		Responses: []map[string]interface{}{{}},
	})

	texts, err := c.DetectText(context.Background(), []byte("blank"))
	require.NoError(t, err)
	assert.Empty(t, texts)
}

func TestDetectBrands(t *testing.T) {
	c, requests := newOCRClient(t, annotationFixture{
		Responses: []map[string]interface{}{{
			"logoAnnotations": []map[string]string{
				{"description": "Chase"},
			},
		}},
	})

	labels, err := c.DetectBrands(context.Background(), []byte("logo-bytes"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Chase"}, labels)

	require.Len(t, *requests, 1)
	req := (*requests)[0].Requests[0]
	assert.Equal(t, "LOGO_DETECTION", req.Features[0].Type)
	assert.Nil(t, req.ImageContext)
}

func TestAnnotateErrorSurfaces(t *testing.T) {
	c, _ := newOCRClient(t, annotationFixture{
		Responses: []map[string]interface{}{{
			"error": map[string]string{"message": "image too large"},
		}},
	})

	_, err := c.DetectText(context.Background(), []byte("huge"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image too large")
}

func TestAnnotateNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)
	c := NewClient("bad-key", WithAPIURL(srv.URL))

	_, err := c.DetectBrands(context.Background(), []byte("logo"))
	assert.Error(t, err)
}
