package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeciesStatusRequiresQuery(t *testing.T) {
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected request")
		return nil, nil
	})
	_, err := client.SpeciesStatus(context.Background(), " ", "")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSpeciesStatusFallsBackToSecondPath(t *testing.T) {
	var paths []string
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/api/species-status" {
			return jsonResponse(http.StatusNotFound, `{"error":"not found"}`), nil
		}
		assert.Equal(t, "Myrtaceae", r.URL.Query().Get("family"))
		assert.False(t, r.URL.Query().Has("specie"))
		return jsonResponse(http.StatusOK, `[{"family":"Myrtaceae","specie":"Eugenia","status":"EN","descricao":"Em perigo"}]`), nil
	})

	records, err := client.SpeciesStatus(context.Background(), "Myrtaceae", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/api/species-status", "/api/species/status"}, paths)
	require.Len(t, records, 1)
	assert.Equal(t, "Em perigo", records[0].Description)
	assert.Equal(t, "EN", records[0].Status)
}

func TestSpeciesStatusSingleObject(t *testing.T) {
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"family":"Fabaceae","specie":"Inga","status":"LC","description":"Pouco preocupante"}`), nil
	})

	records, err := client.SpeciesStatus(context.Background(), "", "Inga")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Pouco preocupante", records[0].Description)
}

func TestSpeciesStatusNotFoundEverywhere(t *testing.T) {
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, `{}`), nil
	})

	_, err := client.SpeciesStatus(context.Background(), "x", "y")
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
}
