package translate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate_a/single", r.URL.Path)
		assert.Equal(t, "gtx", r.URL.Query().Get("client"))
		assert.Equal(t, "az", r.URL.Query().Get("sl"))
		assert.Equal(t, "en", r.URL.Query().Get("tl"))
		assert.Equal(t, "dağ mənzərəsi", r.URL.Query().Get("q"))
		w.Write([]byte(`[[["mountain ","dağ ",null,null],["landscape","mənzərəsi",null,null]],null,"az"]`))
	}))
	defer server.Close()

	c := NewClient(server.URL, 5*time.Second)
	out, err := c.Translate(context.Background(), "dağ mənzərəsi", "az", "en")
	require.NoError(t, err)
	assert.Equal(t, "mountain landscape", out)
}

func TestTranslateEmptyInput(t *testing.T) {
	c := NewClient("http://localhost", time.Second)
	out, err := c.Translate(context.Background(), "   ", "az", "en")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestTranslateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second)
	_, err := c.Translate(context.Background(), "mətn", "az", "en")
	assert.ErrorContains(t, err, "status 503")
}

func TestTranslateMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second)
	_, err := c.Translate(context.Background(), "mətn", "az", "en")
	assert.ErrorContains(t, err, "malformed translation response")
}

func TestTranslateNoSegments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[],null,"az"]`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second)
	_, err := c.Translate(context.Background(), "mətn", "az", "en")
	assert.ErrorContains(t, err, "no text")
}
