package feed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/adapters/feed"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/domain"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/ports"
)

// --- helpers ---

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func makeHTTPFeed(t *testing.T, cfg feed.HTTPConfig) *feed.HTTPFeed {
	t.Helper()
	f, err := feed.NewHTTPFeed(cfg)
	require.NoError(t, err)
	return f
}

// --- tests ---

func TestNewHTTPFeed_RequiresURL(t *testing.T) {
	_, err := feed.NewHTTPFeed(feed.HTTPConfig{})
	assert.Error(t, err)
}

func TestHTTPFeed_FetchLatest_ChronologicalOrder(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(`{"results":["P","B","T"]}`))
	defer srv.Close()

	f := makeHTTPFeed(t, feed.HTTPConfig{URL: srv.URL})
	outcomes, err := f.FetchLatest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.Outcome{domain.PlayerWin, domain.BankerWin, domain.Tie}, outcomes)
}

func TestHTTPFeed_FetchLatest_NewestFirstIsReversed(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(`{"results":["P","B","T"]}`))
	defer srv.Close()

	f := makeHTTPFeed(t, feed.HTTPConfig{URL: srv.URL, NewestFirst: true})
	outcomes, err := f.FetchLatest(context.Background())
	require.NoError(t, err)

	// El feed lista el más reciente primero; el adaptador lo invierte.
	assert.Equal(t, []domain.Outcome{domain.Tie, domain.BankerWin, domain.PlayerWin}, outcomes)
}

func TestHTTPFeed_FetchLatest_CustomResultsPath(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(`{"data":{"history":["banker","player"]}}`))
	defer srv.Close()

	f := makeHTTPFeed(t, feed.HTTPConfig{URL: srv.URL, ResultsPath: "data.history"})
	outcomes, err := f.FetchLatest(context.Background())
	require.NoError(t, err)

	// Los nombres largos se normalizan por su inicial.
	assert.Equal(t, []domain.Outcome{domain.BankerWin, domain.PlayerWin}, outcomes)
}

func TestHTTPFeed_FetchLatest_SkipsUnknownTokens(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(`{"results":["P","X","","B"]}`))
	defer srv.Close()

	f := makeHTTPFeed(t, feed.HTTPConfig{URL: srv.URL})
	outcomes, err := f.FetchLatest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.Outcome{domain.PlayerWin, domain.BankerWin}, outcomes)
}

func TestHTTPFeed_FetchLatest_EmptySnapshotIsErrNoOutcomes(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(`{"results":[]}`))
	defer srv.Close()

	f := makeHTTPFeed(t, feed.HTTPConfig{URL: srv.URL})
	_, err := f.FetchLatest(context.Background())
	assert.ErrorIs(t, err, ports.ErrNoOutcomes)
}

func TestHTTPFeed_FetchLatest_MissingResultsPath(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(`{"other":true}`))
	defer srv.Close()

	f := makeHTTPFeed(t, feed.HTTPConfig{URL: srv.URL})
	_, err := f.FetchLatest(context.Background())
	assert.ErrorContains(t, err, "not found")
}

func TestHTTPFeed_FetchLatest_SendsConfiguredHeaders(t *testing.T) {
	var gotKey, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{"results":["P"]}`))
	}))
	defer srv.Close()

	f := makeHTTPFeed(t, feed.HTTPConfig{URL: srv.URL, Headers: map[string]string{"X-Api-Key": "secret"}})
	_, err := f.FetchLatest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "application/json", gotAccept)
}

func TestHTTPFeed_FetchLatest_ClientErrorFailsFast(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "no such table", http.StatusNotFound)
	}))
	defer srv.Close()

	f := makeHTTPFeed(t, feed.HTTPConfig{URL: srv.URL})
	_, err := f.FetchLatest(context.Background())

	assert.ErrorContains(t, err, "client error 404")
	assert.Equal(t, 1, calls, "los 4xx no se reintentan")
}

func TestHTTPFeed_FetchLatest_RetriesAfterRateLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"results":["B"]}`))
	}))
	defer srv.Close()

	f := makeHTTPFeed(t, feed.HTTPConfig{URL: srv.URL})
	outcomes, err := f.FetchLatest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.Outcome{domain.BankerWin}, outcomes)
	assert.Equal(t, 2, calls)
}

func TestHTTPFeed_FetchLatest_ServerErrorsExhaustRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := makeHTTPFeed(t, feed.HTTPConfig{URL: srv.URL})
	_, err := f.FetchLatest(context.Background())

	assert.ErrorContains(t, err, "server error 502")
	assert.Equal(t, 4, calls, "intento inicial más tres reintentos")
}
