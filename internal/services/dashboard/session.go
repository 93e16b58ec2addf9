package dashboard

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"

	"github.com/devatlas/devatlas/internal/dataset"
	"github.com/devatlas/devatlas/internal/indicator"
)

const sessionCookie = "devatlas_session"

// sessionStore keeps per-browser selections in memory. Selections are
// transient UI state and are never persisted.
type sessionStore struct {
	mu         sync.Mutex
	selections map[string]dataset.Selection
}

func newSessionStore() *sessionStore {
	return &sessionStore{selections: make(map[string]dataset.Selection)}
}

func (s *sessionStore) get(id string) (dataset.Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	selection, ok := s.selections[id]
	return selection, ok
}

func (s *sessionStore) put(id string, selection dataset.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections[id] = selection
}

// clear drops every selection. Used after a workbook replacement so
// stale sectors and codes cannot linger in any session.
func (s *sessionStore) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections = make(map[string]dataset.Selection)
}

func newSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// defaultSelection seeds a fresh session from the workbook catalog:
// first sector, its first code, the latest available year.
func defaultSelection(store *indicator.Store) dataset.Selection {
	selection := dataset.Selection{Palette: DefaultPalette}
	sectors := store.Sectors()
	if len(sectors) > 0 {
		selection.Sector = sectors[0]
		codes := store.Codes(selection.Sector)
		if len(codes) > 0 {
			selection.Code = codes[0]
		}
	}
	years := store.Years()
	if len(years) > 0 {
		selection.Year = years[len(years)-1]
	}
	return selection
}

// selectionFor returns the request's selection, creating the session
// and its cookie when absent.
func (a *App) selectionFor(w http.ResponseWriter, r *http.Request) (string, dataset.Selection, error) {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		if selection, ok := a.sessions.get(cookie.Value); ok {
			return cookie.Value, selection, nil
		}
	}

	id, err := newSessionID()
	if err != nil {
		return "", dataset.Selection{}, err
	}
	selection := defaultSelection(a.indicators.Load())
	a.sessions.put(id, selection)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id, selection, nil
}
