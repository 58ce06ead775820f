package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embed", r.URL.Path)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "연차 휴가 규정", req.Text)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"dense": []float32{0.1, 0.2, 0.3},
			"sparse": map[string]interface{}{
				"indices": []uint32{3, 17},
				"values":  []float32{0.5, 0.9},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	vec, err := c.EmbedQuery(context.Background(), "연차 휴가 규정")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec.Dense)
	assert.Equal(t, float32(0.9), vec.Sparse[17])
	assert.Len(t, vec.Sparse, 2)
}

func TestEmbedQueryServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.EmbedQuery(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestEmbedQueryMissingDense(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sparse":{"indices":[],"values":[]}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.EmbedQuery(context.Background(), "text")
	require.Error(t, err)
}
