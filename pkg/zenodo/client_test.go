package zenodo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sustainlab/ecopipe/pkg/config"
)

func testMeta() *config.DepositMeta {
	return &config.DepositMeta{
		Title:       "Process sustainability artifacts",
		Description: "Scored dataset, fitted model, metrics",
		Creators:    []config.Creator{{Name: "Doe, Jane"}},
	}
}

// fakeArchive imitates the deposit API surface the client touches.
func fakeArchive(t *testing.T) (*httptest.Server, map[string][]byte) {
	t.Helper()
	uploads := make(map[string][]byte)

	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/api/deposit/depositions", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"invalid token"}`)
			return
		}
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Contains(t, body, "metadata")

		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"id": 99, "state": "unsubmitted", "links": {"bucket": %q, "publish": %q}}`,
			srv.URL+"/api/files/bucket-99", srv.URL+"/api/deposit/depositions/99/actions/publish")
	})

	mux.HandleFunc("/api/files/bucket-99/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		uploads[filepath.Base(r.URL.Path)] = b
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{}`)
	})

	mux.HandleFunc("/api/deposit/depositions/99/actions/publish", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"id": 99, "state": "done", "doi": "10.5281/zenodo.99", "links": {"bucket": "x"}}`)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, uploads
}

func TestBaseURLFor(t *testing.T) {
	u, err := BaseURLFor(EnvSandbox)
	require.NoError(t, err)
	assert.Equal(t, SandboxBaseURL, u)

	u, err = BaseURLFor(EnvProduction)
	require.NoError(t, err)
	assert.Equal(t, ProductionBaseURL, u)

	_, err = BaseURLFor("staging")
	assert.Error(t, err)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(context.Background(), "", "tok")
	assert.Error(t, err)

	_, err = NewClient(context.Background(), SandboxBaseURL, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestDepositFlow(t *testing.T) {
	srv, uploads := fakeArchive(t)
	ctx := context.Background()

	c, err := NewClient(ctx, srv.URL, "good-token")
	require.NoError(t, err)

	dep, err := c.CreateDeposition(ctx, testMeta())
	require.NoError(t, err)
	assert.Equal(t, 99, dep.ID)
	assert.NotEmpty(t, dep.Links.Bucket)

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"kind":"poly_ridge"}`), 0600))
	require.NoError(t, c.UploadFile(ctx, dep, path))
	assert.Equal(t, []byte(`{"kind":"poly_ridge"}`), uploads["model.json"])

	pub, err := c.Publish(ctx, dep)
	require.NoError(t, err)
	assert.Equal(t, "done", pub.State)
	assert.Equal(t, "10.5281/zenodo.99", pub.DOI)
}

func TestDepositAuthFailureSurfaced(t *testing.T) {
	srv, _ := fakeArchive(t)
	ctx := context.Background()

	c, err := NewClient(ctx, srv.URL, "bad-token")
	require.NoError(t, err)

	_, err = c.CreateDeposition(ctx, testMeta())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestCreateDepositionInvalidMeta(t *testing.T) {
	srv, _ := fakeArchive(t)
	c, err := NewClient(context.Background(), srv.URL, "good-token")
	require.NoError(t, err)

	_, err = c.CreateDeposition(context.Background(), &config.DepositMeta{Title: "x"})
	assert.Error(t, err)

	_, err = c.CreateDeposition(context.Background(), nil)
	assert.Error(t, err)
}

func TestFetchRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/records/16256961", r.URL.Path)
		fmt.Fprint(w, `{"id": 16256961, "doi": "10.5281/zenodo.16256961", "metadata": {"title": "Raw process data"}}`)
	}))
	defer srv.Close()

	rec, err := FetchRecord(srv.URL, "16256961")
	require.NoError(t, err)
	assert.Equal(t, 16256961, rec.ID)
	assert.Equal(t, "Raw process data", rec.Metadata.Title)

	_, err = FetchRecord(srv.URL, "")
	assert.Error(t, err)
}

func TestFetchRecordFile(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/records/16256961/files/raw_data.csv", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("download"))
		w.Write([]byte("time_s,temperature,rpm,yield\n1,2,3,4\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path, cached, err := FetchRecordFile(srv.URL, "16256961", "raw_data.csv", dir)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.FileExists(t, path)

	// second fetch uses the local copy
	_, cached, err = FetchRecordFile(srv.URL, "16256961", "raw_data.csv", dir)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, hits)

	_, _, err = FetchRecordFile(srv.URL, "", "raw_data.csv", dir)
	assert.Error(t, err)
}
