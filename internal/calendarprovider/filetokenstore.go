package calendarprovider

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"golang.org/x/oauth2"

	"github.com/haasonsaas/brickwork/internal/kinderr"
)

// FileTokenStore persists one OAuth2 token per user_id as a JSON file,
// suitable for single-node deployments where a database-backed TokenStore
// would be overkill.
type FileTokenStore struct {
	path string
	mu   sync.Mutex
}

// NewFileTokenStore returns a FileTokenStore backed by path. The file is
// created on first Save if it does not already exist.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) Load(ctx context.Context, userID string) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	tok, ok := tokens[userID]
	if !ok {
		return nil, kinderr.New(kinderr.NotFound, "no calendar token stored for user").WithHint("the user must complete the OAuth flow first")
	}
	return tok, nil
}

func (s *FileTokenStore) Save(ctx context.Context, userID string, token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.readLocked()
	if err != nil {
		return err
	}
	if tokens == nil {
		tokens = map[string]*oauth2.Token{}
	}
	tokens[userID] = token

	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return kinderr.Wrap(kinderr.Internal, "marshal calendar tokens", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return kinderr.Wrap(kinderr.Internal, "write calendar token store", err)
	}
	return nil
}

func (s *FileTokenStore) readLocked() (map[string]*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]*oauth2.Token{}, nil
	}
	if err != nil {
		return nil, kinderr.Wrap(kinderr.Internal, "read calendar token store", err)
	}
	var tokens map[string]*oauth2.Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, kinderr.Wrap(kinderr.Internal, "decode calendar token store", err)
	}
	return tokens, nil
}
