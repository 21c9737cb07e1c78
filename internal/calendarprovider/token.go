package calendarprovider

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

// TokenStore persists and retrieves a user's OAuth2 token for a calendar
// provider. Implementations are expected to be durable (§5); credential
// encryption at rest is out of scope here (caller's concern).
type TokenStore interface {
	Load(ctx context.Context, userID string) (*oauth2.Token, error)
	Save(ctx context.Context, userID string, token *oauth2.Token) error
}

// tokenRefresher wraps an oauth2.Config + TokenStore and collapses
// concurrent refreshes for the same user into a single underlying call
// (§5's "per-user idempotent refresh" requirement), instead of letting N
// goroutines each race the provider's token endpoint.
type tokenRefresher struct {
	oauthConfig oauth2.Config
	store       TokenStore

	mu       sync.Mutex
	inFlight map[string]*refreshCall
}

type refreshCall struct {
	done  chan struct{}
	token *oauth2.Token
	err   error
}

func newTokenRefresher(cfg oauth2.Config, store TokenStore) *tokenRefresher {
	return &tokenRefresher{oauthConfig: cfg, store: store, inFlight: make(map[string]*refreshCall)}
}

// tokenFor returns a valid, non-expired token for userID, refreshing via
// the OAuth2 token endpoint at most once even under concurrent callers.
func (r *tokenRefresher) tokenFor(ctx context.Context, userID string) (*oauth2.Token, error) {
	tok, err := r.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if tok.Valid() {
		return tok, nil
	}

	r.mu.Lock()
	if call, ok := r.inFlight[userID]; ok {
		r.mu.Unlock()
		<-call.done
		return call.token, call.err
	}

	call := &refreshCall{done: make(chan struct{})}
	r.inFlight[userID] = call
	r.mu.Unlock()

	source := r.oauthConfig.TokenSource(ctx, tok)
	refreshed, err := source.Token()
	if err == nil {
		if saveErr := r.store.Save(ctx, userID, refreshed); saveErr != nil {
			err = saveErr
		}
	}

	call.token, call.err = refreshed, err
	close(call.done)

	r.mu.Lock()
	delete(r.inFlight, userID)
	r.mu.Unlock()

	return call.token, call.err
}
