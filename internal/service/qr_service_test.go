package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"linkgate/internal/model"
)

func TestGenerate_StyledWhenRendererHealthy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	svc := NewQRService(upstream.URL)
	pref := &model.QRPreference{Style: "square", ColorScheme: "blue"}

	res := svc.Generate(context.Background(), "https://example.com", pref)
	require.NotNil(t, res)
	assert.False(t, res.Degraded)
	assert.Contains(t, res.ImageURL, "color=1e40af")
	assert.Contains(t, res.ImageURL, "bgcolor=f0f9ff")
	assert.Contains(t, res.ImageURL, url.QueryEscape("https://example.com"))
}

func TestGenerate_DegradesOnRendererError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	svc := NewQRService(upstream.URL)
	pref := &model.QRPreference{Style: "square", ColorScheme: "blue"}

	res := svc.Generate(context.Background(), "https://example.com", pref)
	require.NotNil(t, res)
	assert.True(t, res.Degraded)
	assert.Equal(t, svc.BasicImageURL("https://example.com"), res.ImageURL)
	assert.NotContains(t, res.ImageURL, "color=")
}

func TestGenerate_DegradesWhenRendererUnreachable(t *testing.T) {
	// Closed port: transport error instead of an HTTP status.
	svc := NewQRService("http://127.0.0.1:1")
	pref := &model.QRPreference{Style: "square", ColorScheme: "classic"}

	res := svc.Generate(context.Background(), "https://example.com", pref)
	require.NotNil(t, res)
	assert.True(t, res.Degraded)
	assert.Equal(t, svc.BasicImageURL("https://example.com"), res.ImageURL)
}

func TestStyledImageURL_UnknownSchemeFallsBackToClassic(t *testing.T) {
	svc := NewQRService("http://renderer.test")
	styled := svc.StyledImageURL("https://example.com", &model.QRPreference{ColorScheme: "neon"})
	assert.Contains(t, styled, "color=000000")
	assert.Contains(t, styled, "bgcolor=ffffff")
}
