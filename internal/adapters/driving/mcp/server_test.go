package mcp

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil search service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingSearchService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil search service returns error", func(t *testing.T) {
		assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingSearchService)
	})

	t.Run("search only is valid", func(t *testing.T) {
		assert.NoError(t, (&Ports{Search: &mockSearchService{}}).Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		crop := newCropService(t)
		ports := &Ports{Search: &mockSearchService{}, Crop: crop, Engine: crop.Engine()}
		assert.NoError(t, ports.Validate())
	})
}

func TestServer_MetricsRoute(t *testing.T) {
	server, err := NewServer(&Ports{Search: &mockSearchService{}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.httpHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.NotEqual(t, "gangboyz_up 1", rec.Body.String())

	server.SetMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "gangboyz_up 1")
	}))

	rec = httptest.NewRecorder()
	server.httpHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gangboyz_up 1", rec.Body.String())
}
