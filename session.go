package chapterwise

import (
	"context"
	"encoding/json"
	"time"
)

// SessionStore persists serialized session and glossary state. Implementations
// live in the store package; any Load/Save pair will do.
type SessionStore interface {
	// Load returns the stored bytes for key, with found=false when absent.
	Load(ctx context.Context, key string) (data []byte, found bool, err error)

	// Save stores bytes under key, overwriting any previous value.
	Save(ctx context.Context, key string, data []byte) error
}

// Session is the resumable state of a translation run over one book. It is
// keyed per chapter title so chapters can be translated out of order and a
// re-run picks up exactly where the last one stopped.
type Session struct {
	Book       string `json:"book"`
	Backend    string `json:"backend"`
	Model      string `json:"model"`
	TargetLang string `json:"target_lang"`

	// Translations maps chapter title to translated sentences in order.
	Translations map[string][]string `json:"translations"`

	// RawTranslations keeps the unparsed model output per chapter for
	// inspection and re-parsing after a protocol fix.
	RawTranslations map[string][]string `json:"raw_translations,omitempty"`

	// TranslatedTitles maps original chapter titles to translated ones.
	TranslatedTitles map[string]string `json:"translated_titles,omitempty"`

	TotalChars  int       `json:"total_chars"`
	TotalTokens int       `json:"total_tokens"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewSession creates an empty session for a book.
func NewSession(book, backendName, model, targetLang string) *Session {
	return &Session{
		Book:             book,
		Backend:          backendName,
		Model:            model,
		TargetLang:       targetLang,
		Translations:     make(map[string][]string),
		RawTranslations:  make(map[string][]string),
		TranslatedTitles: make(map[string]string),
	}
}

// Matches reports whether the session was produced with the same backend,
// model and target language. A mismatch means stored translations must not
// be mixed with new output.
func (s *Session) Matches(backendName, model, targetLang string) bool {
	return s.Backend == backendName && s.Model == model && s.TargetLang == targetLang
}

// ChapterDone reports whether a chapter already has a stored translation.
func (s *Session) ChapterDone(title string) bool {
	_, ok := s.Translations[title]
	return ok
}

// SetChapter records a chapter's translation and raw output.
func (s *Session) SetChapter(title string, translations, raw []string) {
	if s.Translations == nil {
		s.Translations = make(map[string][]string)
	}
	s.Translations[title] = translations
	if raw != nil {
		if s.RawTranslations == nil {
			s.RawTranslations = make(map[string][]string)
		}
		s.RawTranslations[title] = raw
	}
	s.UpdatedAt = time.Now().UTC()
}

// LoadSession loads a book's session from the store. A missing session is not
// an error; it returns (nil, nil) so callers can start fresh.
func LoadSession(ctx context.Context, st SessionStore, bookPath string) (*Session, error) {
	data, found, err := st.Load(ctx, SessionKey(bookPath))
	if err != nil {
		return nil, &StoreError{Operation: "load", Key: SessionKey(bookPath), Cause: err}
	}
	if !found {
		return nil, nil
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &StoreError{Operation: "decode", Key: SessionKey(bookPath), Cause: err}
	}
	return &s, nil
}

// SaveSession persists a book's session to the store.
func SaveSession(ctx context.Context, st SessionStore, bookPath string, s *Session) error {
	s.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(s)
	if err != nil {
		return &StoreError{Operation: "encode", Key: SessionKey(bookPath), Cause: err}
	}
	if err := st.Save(ctx, SessionKey(bookPath), data); err != nil {
		return &StoreError{Operation: "save", Key: SessionKey(bookPath), Cause: err}
	}
	return nil
}

// LoadGlossary loads a book's glossary from the store. A missing glossary
// returns a fresh empty one.
func LoadGlossary(ctx context.Context, st SessionStore, bookPath string) (*Glossary, error) {
	key := GlossaryKey(bookPath)

	data, found, err := st.Load(ctx, key)
	if err != nil {
		return nil, &StoreError{Operation: "load", Key: key, Cause: err}
	}
	if !found {
		return NewGlossary(), nil
	}

	g := NewGlossary()
	if err := json.Unmarshal(data, g); err != nil {
		return nil, &StoreError{Operation: "decode", Key: key, Cause: err}
	}
	return g, nil
}

// SaveGlossary persists a book's glossary to the store.
func SaveGlossary(ctx context.Context, st SessionStore, bookPath string, g *Glossary) error {
	key := GlossaryKey(bookPath)

	data, err := json.Marshal(g)
	if err != nil {
		return &StoreError{Operation: "encode", Key: key, Cause: err}
	}
	if err := st.Save(ctx, key, data); err != nil {
		return &StoreError{Operation: "save", Key: key, Cause: err}
	}
	return nil
}
