package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"linkgate/internal/repository"
)

func TestExtractMetaTag(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="Hello World">
		<meta content="Reversed order" property="og:description">
		<meta name="description" content="Plain description">
	</head></html>`

	assert.Equal(t, "Hello World", ExtractMetaTag(html, "og:title"))
	assert.Equal(t, "Reversed order", ExtractMetaTag(html, "og:description"))
	assert.Equal(t, "Plain description", ExtractMetaTag(html, "description"))
	assert.Equal(t, "", ExtractMetaTag(html, "og:image"))
}

func TestMetadataFetch_ParsesAndCaches(t *testing.T) {
	var hits int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head>
			<title>Fallback Title</title>
			<meta property="og:title" content="OG Title">
			<meta property="og:description" content="OG Description">
		</head></html>`)
	}))
	defer upstream.Close()

	store := repository.NewMemoryStore()
	svc := NewMetadataService(store)

	meta := svc.Fetch(context.Background(), upstream.URL)
	require.NotNil(t, meta)
	assert.Equal(t, "OG Title", meta.Title)
	assert.Equal(t, "OG Description", meta.Description)

	// Second call is served from cache.
	meta = svc.Fetch(context.Background(), upstream.URL)
	require.NotNil(t, meta)
	assert.Equal(t, "OG Title", meta.Title)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestMetadataFetch_TitleFallback(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title> Just a Title </title></head></html>`)
	}))
	defer upstream.Close()

	svc := NewMetadataService(repository.NewMemoryStore())
	meta := svc.Fetch(context.Background(), upstream.URL)
	require.NotNil(t, meta)
	assert.Equal(t, "Just a Title", meta.Title)
}

func TestMetadataFetch_NonHTMLAndErrorsReturnNil(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer upstream.Close()

	svc := NewMetadataService(repository.NewMemoryStore())
	assert.Nil(t, svc.Fetch(context.Background(), upstream.URL+"/json"))
	assert.Nil(t, svc.Fetch(context.Background(), upstream.URL+"/missing"))
	assert.Nil(t, svc.Fetch(context.Background(), "http://127.0.0.1:1/unreachable"))
}
