package state

import (
	"errors"
	"sort"
)

// Persisted keys
const (
	KeyTheme    = "theme"
	KeyImage    = "image"     // local path of an image waiting for upload
	KeyImageURL = "image_url" // url returned by the upload endpoint
)

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

var ErrNotMounted = errors.New("session not mounted")

// Session is the UI state handed to views. Its lifecycle is
// Mount -> Hydrate -> (reads and writes) -> Flush. Writes stay in memory
// until Flush.
type Session struct {
	store    *Store
	values   map[string]string
	changed  map[string]bool
	hydrated bool
}

// NewSession returns an unmounted session with defaults
func NewSession() *Session {
	return &Session{
		values:  map[string]string{KeyTheme: ThemeDark},
		changed: make(map[string]bool),
	}
}

// Mount attaches the persistent store
func (s *Session) Mount(store *Store) {
	s.store = store
}

// Hydrate loads persisted values over the defaults
func (s *Session) Hydrate() error {
	if s.store == nil {
		return ErrNotMounted
	}
	stored, err := s.store.All()
	if err != nil {
		return err
	}
	for k, v := range stored {
		if !s.changed[k] {
			s.values[k] = v
		}
	}
	s.hydrated = true
	return nil
}

// Hydrated reports whether persisted values were loaded
func (s *Session) Hydrated() bool { return s.hydrated }

func (s *Session) Get(key string) string { return s.values[key] }

// Set records a change; an empty value clears the key on flush
func (s *Session) Set(key, value string) {
	if s.values[key] == value {
		return
	}
	s.values[key] = value
	s.changed[key] = true
}

// Pending lists keys changed since the last flush
func (s *Session) Pending() []string {
	keys := make([]string, 0, len(s.changed))
	for k := range s.changed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flush writes changed keys to the store
func (s *Session) Flush() error {
	if s.store == nil {
		return ErrNotMounted
	}
	for _, k := range s.Pending() {
		var err error
		if v := s.values[k]; v == "" {
			err = s.store.Delete(k)
		} else {
			err = s.store.Set(k, v)
		}
		if err != nil {
			return err
		}
		delete(s.changed, k)
	}
	return nil
}

func (s *Session) Theme() string {
	if s.values[KeyTheme] == ThemeLight {
		return ThemeLight
	}
	return ThemeDark
}

// ToggleTheme switches between dark and light and returns the new theme
func (s *Session) ToggleTheme() string {
	next := ThemeLight
	if s.Theme() == ThemeLight {
		next = ThemeDark
	}
	s.Set(KeyTheme, next)
	return next
}

// StageImage remembers a local image for the upload flow and clears a
// previous upload result
func (s *Session) StageImage(path string) {
	s.Set(KeyImage, path)
	s.Set(KeyImageURL, "")
}

// StagedImage returns the local path waiting for upload
func (s *Session) StagedImage() string { return s.values[KeyImage] }

// SetImageURL records the uploaded url
func (s *Session) SetImageURL(url string) { s.Set(KeyImageURL, url) }

// ImageURL returns the uploaded url not yet attached to a product
func (s *Session) ImageURL() string { return s.values[KeyImageURL] }

// ClearImage drops the staging keys once the image is attached
func (s *Session) ClearImage() {
	s.Set(KeyImage, "")
	s.Set(KeyImageURL, "")
}
