package greenhouse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmirror/internal/ats"
	"jobmirror/internal/domain"
	"jobmirror/internal/identity"
)

const boardHTML = `<html><body><div id="main">
<section class="level-0">
  <div class="opening"><a href="/acme/jobs/4567890">Fleet Manager</a><span class="location">Remote</span></div>
  <div class="opening"><a href="/acme/jobs/4567891?utm_source=x">Dispatcher</a><span class="location">Memphis, TN</span></div>
</section></div></body></html>`

const jobHTML = `<html><body><div id="content"><p>Run the fleet.</p><p>Pay: competitive</p></div></body></html>`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/acme", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(boardHTML)) })
	mux.HandleFunc("/acme/", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(boardHTML)) })
	mux.HandleFunc("/acme/jobs/4567890", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(jobHTML)) })
	mux.HandleFunc("/acme/jobs/4567891", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`<html><body>moved</body></html>`)) })
	mux.HandleFunc("/empty/", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`<html><body><h1>Welcome</h1></body></html>`)) })
	mux.HandleFunc("/slow/", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(boardHTML))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNormalizeCareerSite(t *testing.T) {
	c := New(ats.Options{})
	got, err := c.NormalizeCareerSite("https://boards.greenhouse.io/acme")
	require.NoError(t, err)
	assert.Equal(t, "https://boards.greenhouse.io/acme/", got)

	_, err = c.NormalizeCareerSite("https://careers.acme.com/jobs")
	assert.ErrorIs(t, err, domain.ErrUnsupportedSite)
}

func TestFetchListing(t *testing.T) {
	srv := newServer(t)
	c := New(ats.Options{}, WithBaseURL(srv.URL))

	leads, err := c.FetchListing(context.Background(), domain.Run{ID: "r1"}, srv.URL+"/acme/")
	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, "Fleet Manager", leads[0].Title)
	assert.Equal(t, srv.URL+"/acme/jobs/4567890", leads[0].URL)
	assert.Equal(t, domain.RemoteYes, leads[0].Remote)

	assert.Equal(t, srv.URL+"/acme/jobs/4567891", leads[1].URL, "tracking params are dropped")
	assert.Equal(t, "Memphis, TN", leads[1].Location)
	assert.Equal(t, domain.RemoteUnknown, leads[1].Remote)

	id, err := c.Identity().Derive(leads[0].URL, srv.URL+"/acme/")
	require.NoError(t, err)
	assert.Equal(t, identity.Derive("4567890"), id)
}

func TestFetchListing_Failures(t *testing.T) {
	srv := newServer(t)

	c := New(ats.Options{}, WithBaseURL(srv.URL))
	_, err := c.FetchListing(context.Background(), domain.Run{}, srv.URL+"/empty/")
	assert.ErrorIs(t, err, domain.ErrParse)

	_, err = c.FetchListing(context.Background(), domain.Run{}, srv.URL+"/missing/")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	slow := New(ats.Options{Timeout: 20 * time.Millisecond}, WithBaseURL(srv.URL))
	_, err = slow.FetchListing(context.Background(), domain.Run{}, srv.URL+"/slow/")
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestFetchDetail(t *testing.T) {
	srv := newServer(t)
	c := New(ats.Options{}, WithBaseURL(srv.URL))

	job, err := c.FetchDetail(context.Background(), domain.Run{}, domain.Job{URL: srv.URL + "/acme/jobs/4567890", Title: "Fleet Manager"})
	require.NoError(t, err)
	assert.Contains(t, job.Description, "Run the fleet.")
	assert.Equal(t, "Fleet Manager", job.Title)

	partial := domain.Job{URL: srv.URL + "/acme/jobs/4567891", Title: "Dispatcher"}
	job, err = c.FetchDetail(context.Background(), domain.Run{}, partial)
	assert.ErrorIs(t, err, domain.ErrParse)
	assert.Equal(t, partial, job, "failed detail leaves the posting as it was")
}
