// Package session keeps the per-annotator browser state: who they said
// they are, which sentence is in front of them, and which label is shown
// first. Everything lives in a signed cookie; the server stays stateless
// across restarts except for the cookie secret.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gorilla/sessions"

	"framelabel/pkg/config"
	"framelabel/pkg/logger"
	"framelabel/pkg/models"
)

const (
	keyAnnotator  = "annotator_id"
	keySentence   = "sentence_id"
	keyLabelFirst = "label_first"
)

// State is the decoded session payload. A zero AnnotatorID means the
// visitor has not identified yet.
type State struct {
	AnnotatorID       string
	CurrentSentenceID string
	// LabelFirst is the label shown first; empty falls back to the
	// canonical Positive-first order.
	LabelFirst string
}

// LabelOrder returns the two labels in display order.
func (s State) LabelOrder() [2]string {
	if s.LabelFirst == models.LabelNegative {
		return [2]string{models.LabelNegative, models.LabelPositive}
	}
	return [2]string{models.LabelPositive, models.LabelNegative}
}

// Manager wraps a cookie store with the annotation session schema.
type Manager struct {
	store      *sessions.CookieStore
	cookieName string
	maxAge     int
}

// NewManager builds the cookie store. An empty secret gets a random one,
// which is logged as a warning because sessions then reset on restart.
func NewManager(cfg config.SessionConfig) *Manager {
	secret := cfg.Secret
	if secret == "" {
		b := make([]byte, 32)
		_, _ = rand.Read(b)
		secret = hex.EncodeToString(b)
		logger.Warn("session_secret_generated", "hint", "set session.secret to keep sessions across restarts")
	}
	maxAge := int(cfg.MaxAge.Duration().Seconds())
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{store: store, cookieName: cfg.CookieName, maxAge: maxAge}
}

// State decodes the request's session. Tampered or stale cookies come
// back as a fresh empty state.
func (m *Manager) State(r *http.Request) State {
	sess, err := m.store.Get(r, m.cookieName)
	if err != nil {
		logger.Debug("session_decode_failed", "err", err)
		return State{}
	}
	var st State
	if v, ok := sess.Values[keyAnnotator].(string); ok {
		st.AnnotatorID = v
	}
	if v, ok := sess.Values[keySentence].(string); ok {
		st.CurrentSentenceID = v
	}
	if v, ok := sess.Values[keyLabelFirst].(string); ok {
		st.LabelFirst = v
	}
	return st
}

// SaveState writes st back into the cookie.
func (m *Manager) SaveState(w http.ResponseWriter, r *http.Request, st State) error {
	sess, _ := m.store.Get(r, m.cookieName)
	sess.Values[keyAnnotator] = st.AnnotatorID
	sess.Values[keySentence] = st.CurrentSentenceID
	sess.Values[keyLabelFirst] = st.LabelFirst
	return sess.Save(r, w)
}

// Clear drops the session, ending the annotating state.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, m.cookieName)
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// AddFlash queues a one-shot notice on the request's session. The queue
// is persisted by the next SaveState or Clear on the same request, so a
// handler that flashes and saves emits a single cookie write.
func (m *Manager) AddFlash(r *http.Request, msg string) {
	sess, _ := m.store.Get(r, m.cookieName)
	sess.AddFlash(msg)
}

// Flashes returns queued notices and clears them.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) []string {
	sess, _ := m.store.Get(r, m.cookieName)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	// persist the removal
	if err := sess.Save(r, w); err != nil {
		logger.Debug("session_flash_save_failed", "err", err)
	}
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
