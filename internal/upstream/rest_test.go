package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termrelay/termrelay/internal/config"
)

func restConfig(url string) *config.Config {
	cfg := config.NewForTesting()
	cfg.GwURL = url
	cfg.GwOplogID = 7
	cfg.GwRestAPIKey = "rest-key"
	return cfg
}

func TestRestCreateEntry(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/oplog/api/entries/", r.URL.Path)
		assert.Equal(t, "Api-Key rest-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"id":55}`))
	}))
	defer srv.Close()

	client, err := New(restConfig(srv.URL))
	require.NoError(t, err)

	id, err := client.CreateEntry(context.Background(), sampleEntry())
	require.NoError(t, err)
	assert.Equal(t, int64(55), id)

	assert.EqualValues(t, 7, captured["oplog_id"])
	assert.Equal(t, "kubectl get pods", captured["command"])
	assert.Equal(t, "2023-04-11 19:18:00", captured["start_date"])
	assert.NotContains(t, captured, "start_time")
	assert.NotContains(t, captured, "output")
}

func TestRestUpdateEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/oplog/api/entries/55/", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		_, _ = w.Write([]byte(`{"id":55}`))
	}))
	defer srv.Close()

	client, err := New(restConfig(srv.URL))
	require.NoError(t, err)

	e := sampleEntry()
	e.RemoteID = 55
	id, err := client.UpdateEntry(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, int64(55), id)
}

func TestRestDetailIsApplicationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"detail":"Invalid token."}`))
	}))
	defer srv.Close()

	client, err := New(restConfig(srv.URL))
	require.NoError(t, err)

	_, err = client.CreateEntry(context.Background(), sampleEntry())
	ue, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindApplication, ue.Kind)
	assert.Equal(t, "Invalid token.", ue.Message)
}

func TestRestMissingIDIsProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := New(restConfig(srv.URL))
	require.NoError(t, err)

	_, err = client.CreateEntry(context.Background(), sampleEntry())
	ue, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindProtocol, ue.Kind)
}

func TestVariantSelection(t *testing.T) {
	cfg := restConfig("http://gw.example.com")
	client, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &restClient{}, client)

	// GraphQL takes precedence when both keys are configured.
	cfg.GwGraphQLAPIKey = "gql-key"
	client, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &graphQLClient{}, client)
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.GwURL = "gw.example.com" // no scheme
	cfg.GwOplogID = 7
	cfg.GwRestAPIKey = "k"
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = restConfig("http://gw.example.com")
	cfg.GwOplogID = 0
	_, err = New(cfg)
	assert.Error(t, err)

	cfg = restConfig("http://gw.example.com")
	cfg.GwRestAPIKey = ""
	_, err = New(cfg)
	assert.Error(t, err)
}
