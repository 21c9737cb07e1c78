package calendarprovider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"golang.org/x/oauth2"

	"github.com/haasonsaas/brickwork/pkg/models"
)

type memTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*oauth2.Token
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[string]*oauth2.Token)}
}

func (m *memTokenStore) Load(ctx context.Context, userID string) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[userID], nil
}

func (m *memTokenStore) Save(ctx context.Context, userID string, token *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[userID] = token
	return nil
}

func TestGoogleProvider_ListCalendars(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/me/calendarList", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": "primary", "summary": "Work", "primary": true, "accessRole": "owner"},
				{"id": "cal2", "summary": "Shared", "accessRole": "reader"},
			},
		})
	}))
	defer server.Close()

	store := newMemTokenStore()
	store.tokens["u1"] = &oauth2.Token{AccessToken: "tok", Expiry: time.Now().Add(time.Hour)}

	p := NewGoogleProvider(GoogleConfig{TokenStore: store, BaseURL: server.URL})
	cals, err := p.ListCalendars(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, cals, 2)
	require.True(t, cals[0].Primary)
	require.True(t, cals[1].ReadOnly)
}

func TestGoogleProvider_ListEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"id":      "evt1",
					"summary": "Standup",
					"start":   map[string]any{"dateTime": "2024-01-15T09:00:00Z"},
					"end":     map[string]any{"dateTime": "2024-01-15T09:30:00Z"},
				},
			},
		})
	}))
	defer server.Close()

	store := newMemTokenStore()
	store.tokens["u1"] = &oauth2.Token{AccessToken: "tok", Expiry: time.Now().Add(time.Hour)}
	p := NewGoogleProvider(GoogleConfig{TokenStore: store, BaseURL: server.URL})

	events, err := p.ListEvents(context.Background(), "u1", "primary", time.Now(), time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "Standup", events[0].Title)
	require.False(t, events[0].IsMoveable)
}

func TestGoogleProvider_UpdateEventRequiresExternalID(t *testing.T) {
	store := newMemTokenStore()
	p := NewGoogleProvider(GoogleConfig{TokenStore: store, BaseURL: "http://example.invalid"})
	_, err := p.UpdateEvent(context.Background(), "u1", "primary", models.Event{Title: "No external id"})
	require.Error(t, err)
}

func TestTokenRefresher_CollapsesConcurrentRefresh(t *testing.T) {
	var calls int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]any{"access_token": "new-token", "token_type": "Bearer", "expires_in": 3600})
	}))
	defer server.Close()

	store := newMemTokenStore()
	store.tokens["u1"] = &oauth2.Token{AccessToken: "expired", Expiry: time.Now().Add(-time.Hour)}

	refresher := newTokenRefresher(oauth2.Config{
		ClientID: "client", ClientSecret: "secret",
		Endpoint: oauth2.Endpoint{TokenURL: server.URL},
	}, store)

	var wg sync.WaitGroup
	results := make([]*oauth2.Token, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := refresher.tokenFor(context.Background(), "u1")
			require.NoError(t, err)
			results[i] = tok
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, calls)
	for _, tok := range results {
		require.Equal(t, "new-token", tok.AccessToken)
	}
}
