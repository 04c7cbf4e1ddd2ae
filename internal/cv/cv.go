// Package cv owns the CV collection, the currently open CV, and the draft
// the editor works on. The draft is a mutable working copy kept separate
// from the last-saved snapshot; the two are compared structurally to derive
// the unsaved-changes flag.
package cv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/resumeforge/resumeforge-go/internal/api"
	"github.com/resumeforge/resumeforge-go/internal/download"
	"github.com/resumeforge/resumeforge-go/internal/store"
	"github.com/resumeforge/resumeforge-go/internal/types"
)

// Draft is the in-progress, possibly-unsaved copy of a CV's content and
// settings. Unauthenticated and new-CV flows edit a default-seeded draft
// with no backing snapshot.
type Draft struct {
	Name            string
	MarkdownContent string
	Settings        types.Settings
}

// NewDraft returns the default draft a fresh editing session starts with.
func NewDraft() Draft {
	return Draft{
		Name:     "My CV",
		Settings: types.DefaultSettings(),
	}
}

// Store holds CV state in reactive containers.
type Store struct {
	CVs       *store.Store[[]types.CV]
	Current   *store.Store[*types.CV]
	Draft     *store.Store[Draft]
	Templates *store.Store[[]types.Template]
	Loading   *store.Store[bool]
	Err       *store.Store[string]

	client *api.Client
	saver  download.Saver
	logger *slog.Logger
}

// New creates a CV store. saver receives downloaded payloads; a nil saver
// makes the download operations fail cleanly.
func New(client *api.Client, saver download.Saver, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		CVs:       store.New[[]types.CV](nil),
		Current:   store.New[*types.CV](nil),
		Draft:     store.New(NewDraft()),
		Templates: store.New[[]types.Template](nil),
		Loading:   store.New(false),
		Err:       store.New(""),
		client:    client,
		saver:     saver,
		logger:    logger,
	}
}

// Dirty reports whether the draft differs from the last-saved snapshot.
// With no CV open there is nothing to be dirty against.
func (s *Store) Dirty() bool {
	current := s.Current.Get()
	if current == nil {
		return false
	}
	draft := s.Draft.Get()
	return current.MarkdownContent != draft.MarkdownContent || current.Settings != draft.Settings
}

// LoadCVs fetches the user's CV collection.
func (s *Store) LoadCVs(ctx context.Context) ([]types.CV, error) {
	done := s.begin()
	defer done()

	var cvs []types.CV
	if err := s.client.Do(ctx, http.MethodGet, "/cvs/", nil, &cvs); err != nil {
		return nil, s.fail(err, "Failed to load CVs")
	}
	s.CVs.Set(cvs)
	return cvs, nil
}

// LoadCV fetches one CV, makes it current, and seeds the draft from it.
func (s *Store) LoadCV(ctx context.Context, id uuid.UUID) (*types.CV, error) {
	done := s.begin()
	defer done()

	var cv types.CV
	if err := s.client.Do(ctx, http.MethodGet, "/cvs/"+id.String(), nil, &cv); err != nil {
		return nil, s.fail(err, "Failed to load CV")
	}
	s.Current.Set(&cv)
	s.Draft.Set(Draft{
		Name:            cv.Name,
		MarkdownContent: cv.MarkdownContent,
		Settings:        cv.Settings,
	})
	return &cv, nil
}

// CreateCV creates a CV, either instantiated from a template or blank with
// defaulted settings. CV creation is plan-gated, so a quota rejection comes
// back as *api.RateLimitError. The new CV is prepended to the collection
// and opened.
func (s *Store) CreateCV(ctx context.Context, name, content string, settings *types.Settings, templateID *uuid.UUID) (*types.CV, error) {
	done := s.begin()
	defer done()

	var cv types.CV
	if templateID != nil {
		req := types.CreateFromTemplateRequest{TemplateID: *templateID, CVName: name}
		if err := req.Validate(); err != nil {
			return nil, s.fail(err, "Invalid CV name")
		}
		if err := s.client.DoGated(ctx, http.MethodPost, "/templates/create-cv", &req, &cv); err != nil {
			return nil, s.fail(err, "Failed to create CV")
		}
	} else {
		effective := types.DefaultSettings()
		if settings != nil {
			effective = *settings
		}
		req := types.CreateCVRequest{Name: name, MarkdownContent: content, Settings: effective}
		if err := req.Validate(); err != nil {
			return nil, s.fail(err, "Invalid CV name")
		}
		if err := s.client.DoGated(ctx, http.MethodPost, "/cvs/", &req, &cv); err != nil {
			return nil, s.fail(err, "Failed to create CV")
		}
	}

	s.CVs.Update(func(list []types.CV) []types.CV {
		return append([]types.CV{cv}, list...)
	})
	s.Current.Set(&cv)
	s.Draft.Set(Draft{
		Name:            cv.Name,
		MarkdownContent: cv.MarkdownContent,
		Settings:        cv.Settings,
	})
	return &cv, nil
}

// UpdateCV saves name, content, and settings, refreshing the snapshot and
// the collection entry.
func (s *Store) UpdateCV(ctx context.Context, id uuid.UUID, name, content string, settings types.Settings) (*types.CV, error) {
	done := s.begin()
	defer done()

	req := types.UpdateCVRequest{Name: name, MarkdownContent: content, Settings: settings}
	if err := req.Validate(); err != nil {
		return nil, s.fail(err, "Invalid CV name")
	}

	var cv types.CV
	if err := s.client.Do(ctx, http.MethodPut, "/cvs/"+id.String(), &req, &cv); err != nil {
		return nil, s.fail(err, "Failed to update CV")
	}

	s.Current.Set(&cv)
	s.CVs.Update(func(list []types.CV) []types.CV {
		out := make([]types.CV, len(list))
		copy(out, list)
		for i := range out {
			if out[i].ID == id {
				out[i] = cv
			}
		}
		return out
	})
	return &cv, nil
}

// DeleteCV removes the CV from the backend and the local collection. If the
// deleted CV was open, the current slot and draft reset so nothing dangles.
func (s *Store) DeleteCV(ctx context.Context, id uuid.UUID) error {
	done := s.begin()
	defer done()

	if err := s.client.Do(ctx, http.MethodDelete, "/cvs/"+id.String(), nil, nil); err != nil {
		return s.fail(err, "Failed to delete CV")
	}

	s.CVs.Update(func(list []types.CV) []types.CV {
		out := list[:0:0]
		for _, cv := range list {
			if cv.ID != id {
				out = append(out, cv)
			}
		}
		return out
	})
	if current := s.Current.Get(); current != nil && current.ID == id {
		s.ClearCurrent()
	}
	return nil
}

// LoadTemplates fetches the public template catalog.
func (s *Store) LoadTemplates(ctx context.Context) ([]types.Template, error) {
	done := s.begin()
	defer done()

	var templates []types.Template
	if err := s.client.DoPublic(ctx, http.MethodGet, "/templates/", nil, &templates); err != nil {
		return nil, s.fail(err, "Failed to load templates")
	}
	s.Templates.Set(templates)
	return templates, nil
}

// DownloadPDF fetches the rendered PDF and hands it to the saver. filename
// may be empty, in which case the backend's suggestion or a default is used.
// Returns the filename the payload was saved under.
func (s *Store) DownloadPDF(ctx context.Context, id uuid.UUID, filename string) (string, error) {
	return s.downloadTo(ctx, "/cvs/"+id.String()+"/pdf", filename, "cv.pdf")
}

// DownloadMarkdown fetches the raw markdown and hands it to the saver.
func (s *Store) DownloadMarkdown(ctx context.Context, id uuid.UUID, filename string) (string, error) {
	return s.downloadTo(ctx, "/cvs/"+id.String()+"/markdown", filename, "cv.md")
}

func (s *Store) downloadTo(ctx context.Context, path, filename, fallback string) (string, error) {
	if s.saver == nil {
		return "", errors.New("no download saver configured")
	}
	payload, err := s.client.Download(ctx, path)
	if err != nil {
		return "", s.fail(err, "Failed to download")
	}
	name := filename
	if name == "" {
		name = payload.Filename
	}
	if name == "" {
		name = fallback
	}
	if err := s.saver.Save(name, payload.Data); err != nil {
		return "", s.fail(err, "Failed to save download")
	}
	return name, nil
}

// AutoSave is the editor's best-effort partial save: content and settings
// only, never the name. Failures are swallowed into the boolean result so a
// background save can never interrupt typing.
func (s *Store) AutoSave(ctx context.Context, id uuid.UUID, content string, settings types.Settings) bool {
	if id == uuid.Nil {
		return false
	}
	req := types.AutoSaveRequest{MarkdownContent: content, Settings: settings}
	var cv types.CV
	if err := s.client.Do(ctx, http.MethodPut, "/cvs/"+id.String(), &req, &cv); err != nil {
		s.logger.Debug("auto-save failed", slog.Any("error", err))
		return false
	}
	s.Current.Set(&cv)
	return true
}

// ClearCurrent closes the open CV and resets the draft to defaults.
func (s *Store) ClearCurrent() {
	s.Current.Set(nil)
	s.Draft.Set(NewDraft())
}

// SetDraftContent replaces the draft's markdown content.
func (s *Store) SetDraftContent(content string) {
	s.Draft.Update(func(d Draft) Draft {
		d.MarkdownContent = content
		return d
	})
}

// SetDraftSettings replaces the draft's settings.
func (s *Store) SetDraftSettings(settings types.Settings) {
	s.Draft.Update(func(d Draft) Draft {
		d.Settings = settings
		return d
	})
}

// begin flips the loading flag on and clears the error container, returning
// the finalizer that flips it back off on every exit path.
func (s *Store) begin() func() {
	s.Loading.Set(true)
	s.Err.Set("")
	return func() { s.Loading.Set(false) }
}

// fail records the user-facing message in the error container and returns
// the original error for the caller.
func (s *Store) fail(err error, fallback string) error {
	s.Err.Set(errMessage(err, fallback))
	return err
}

// errMessage prefers the backend's detail message, falling back to a
// generic description of the failed operation.
func errMessage(err error, fallback string) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	var rle *api.RateLimitError
	if errors.As(err, &rle) && rle.Detail.Message != "" {
		return rle.Detail.Message
	}
	if errors.Is(err, api.ErrNoToken) || errors.Is(err, api.ErrAuthExpired) {
		return fmt.Sprintf("%s: %s", fallback, err)
	}
	return fallback
}
