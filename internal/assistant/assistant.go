// Package assistant owns the LLM-backed features: the chat transcript, the
// inline-edit cycle with its undo history, and ATS analysis. All LLM
// traffic goes through the ResumeForge backend; this store never talks to a
// model provider directly.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/resumeforge/resumeforge-go/internal/api"
	"github.com/resumeforge/resumeforge-go/internal/cv"
	"github.com/resumeforge/resumeforge-go/internal/schemas"
	"github.com/resumeforge/resumeforge-go/internal/storage"
	"github.com/resumeforge/resumeforge-go/internal/store"
	"github.com/resumeforge/resumeforge-go/internal/types"
)

// ErrEditNotFound indicates an undo referenced an edit id that is not in
// the history.
var ErrEditNotFound = errors.New("edit not found in history")

// EditRecord is one applied inline edit, with enough prior state to undo
// it. PreviousContent is the full draft content captured immediately before
// the edit was applied.
type EditRecord struct {
	ID              uuid.UUID `json:"id"`
	CVID            uuid.UUID `json:"cv_id"`
	Timestamp       time.Time `json:"timestamp"`
	Instruction     string    `json:"instruction"`
	Section         string    `json:"section,omitempty"`
	ChangesMade     []string  `json:"changes_made,omitempty"`
	PreviousContent string    `json:"previous_content"`
}

// ChatResult is the assistant's reply to one chat message.
type ChatResult struct {
	Reply       string
	Suggestions []string
}

// EditResult is the outcome of one applied inline edit.
type EditResult struct {
	Record        EditRecord
	EditedContent string
}

// UndoResult reports what an undo restored: how many history records it
// discarded (the target edit plus everything applied after it), the CV the
// edits belonged to, and the content the draft was reset to.
type UndoResult struct {
	Discarded       int
	CVID            uuid.UUID
	RestoredContent string
}

// Store holds assistant state. Chat, inline edit, and ATS each get their
// own loading flag so the three features never contend for one spinner.
type Store struct {
	Chat        *store.Store[[]types.ChatMessage]
	History     *store.Store[[]EditRecord]
	Analysis    *store.Store[*types.ATSAnalysis]
	ChatLoading *store.Store[bool]
	EditLoading *store.Store[bool]
	ATSLoading  *store.Store[bool]
	Err         *store.Store[string]

	client  *api.Client
	cvs     *cv.Store
	backend storage.Backend
	logger  *slog.Logger
}

// New creates an assistant store bound to the CV store whose draft the
// inline-edit cycle reads and rewrites. A non-nil backend persists the edit
// history across processes; malformed stored history is discarded.
func New(client *api.Client, cvs *cv.Store, backend storage.Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{
		Chat:        store.New[[]types.ChatMessage](nil),
		History:     store.New[[]EditRecord](nil),
		Analysis:    store.New[*types.ATSAnalysis](nil),
		ChatLoading: store.New(false),
		EditLoading: store.New(false),
		ATSLoading:  store.New(false),
		Err:         store.New(""),
		client:      client,
		cvs:         cvs,
		backend:     backend,
		logger:      logger,
	}
	s.hydrateHistory()
	return s
}

func (s *Store) hydrateHistory() {
	if s.backend == nil {
		return
	}
	raw, ok := s.backend.Get(storage.KeyEditHistory)
	if !ok {
		return
	}
	var history []EditRecord
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		s.logger.Debug("discarding malformed stored edit history", slog.Any("error", err))
		_ = s.backend.Delete(storage.KeyEditHistory)
		return
	}
	s.History.Set(history)
}

func (s *Store) persistHistory(history []EditRecord) {
	if s.backend == nil {
		return
	}
	if len(history) == 0 {
		_ = s.backend.Delete(storage.KeyEditHistory)
		return
	}
	data, err := json.Marshal(history)
	if err != nil {
		return
	}
	if err := s.backend.Set(storage.KeyEditHistory, string(data)); err != nil {
		s.logger.Warn("failed to persist edit history", slog.Any("error", err))
	}
}

// ChatAboutCV sends a message plus the existing transcript and, on success,
// appends both the user message and the assistant reply to the transcript.
// The store is the transcript's only writer, so entries can neither
// duplicate nor go missing. LLM calls are plan-gated.
func (s *Store) ChatAboutCV(ctx context.Context, message string, cvID *uuid.UUID, cvContent *string) (*ChatResult, error) {
	s.ChatLoading.Set(true)
	s.Err.Set("")
	defer s.ChatLoading.Set(false)

	req := types.ChatRequest{
		Message:             message,
		CVID:                cvID,
		CVContent:           cvContent,
		ConversationHistory: s.Chat.Get(),
	}
	if req.ConversationHistory == nil {
		req.ConversationHistory = []types.ChatMessage{}
	}
	if err := req.Validate(); err != nil {
		return nil, s.fail(err, "Chat failed")
	}

	var resp types.ChatResponse
	if err := s.client.DoGated(ctx, http.MethodPost, "/llm/chat", &req, &resp); err != nil {
		return nil, s.fail(err, "Chat failed")
	}

	s.Chat.Update(func(history []types.ChatMessage) []types.ChatMessage {
		out := make([]types.ChatMessage, len(history), len(history)+2)
		copy(out, history)
		out = append(out,
			types.ChatMessage{Role: types.RoleUser, Content: message},
			types.ChatMessage{Role: types.RoleAssistant, Content: resp.Reply},
		)
		return out
	})

	return &ChatResult{Reply: resp.Reply, Suggestions: resp.Suggestions}, nil
}

// InlineEdit asks the backend to rewrite the draft (or one section of it)
// per the instruction. The draft content is snapshotted before the request
// so the edit can be undone; auto-save is always disabled at the transport
// layer because the draft, not the stored CV, is the editing surface.
func (s *Store) InlineEdit(ctx context.Context, cvID uuid.UUID, instruction string, section *string) (*EditResult, error) {
	s.EditLoading.Set(true)
	s.Err.Set("")
	defer s.EditLoading.Set(false)

	previous := s.cvs.Draft.Get().MarkdownContent

	req := types.InlineEditRequest{
		CVID:        cvID,
		Instruction: instruction,
		Section:     section,
		AutoSave:    false,
	}
	if err := req.Validate(); err != nil {
		return nil, s.fail(err, "Inline edit failed")
	}

	var resp types.InlineEditResponse
	if err := s.client.DoGated(ctx, http.MethodPost, "/llm/inline-edit", &req, &resp); err != nil {
		return nil, s.fail(err, "Inline edit failed")
	}

	record := EditRecord{
		ID:              uuid.New(),
		CVID:            cvID,
		Timestamp:       time.Now(),
		Instruction:     instruction,
		ChangesMade:     resp.ChangesMade,
		PreviousContent: previous,
	}
	if section != nil {
		record.Section = *section
	}

	s.cvs.SetDraftContent(resp.EditedContent)
	updated := s.History.Update(func(history []EditRecord) []EditRecord {
		out := make([]EditRecord, len(history), len(history)+1)
		copy(out, history)
		return append(out, record)
	})
	s.persistHistory(updated)

	s.logger.Debug("inline edit applied",
		slog.String("edit_id", record.ID.String()),
		slog.Int("changes", len(record.ChangesMade)))

	return &EditResult{Record: record, EditedContent: resp.EditedContent}, nil
}

// UndoInlineEdit restores the draft to the state before the identified edit
// and discards that edit together with every edit applied after it. The
// history is linear: there is no redo, and discarded records are gone.
func (s *Store) UndoInlineEdit(editID uuid.UUID) (*UndoResult, error) {
	history := s.History.Get()
	idx := -1
	for i, record := range history {
		if record.ID == editID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrEditNotFound
	}

	restored := history[idx].PreviousContent
	s.cvs.SetDraftContent(restored)
	remaining := append([]EditRecord(nil), history[:idx]...)
	s.History.Set(remaining)
	s.persistHistory(remaining)

	discarded := len(history) - idx
	s.logger.Debug("inline edits undone", slog.Int("discarded", discarded))
	return &UndoResult{
		Discarded:       discarded,
		CVID:            history[idx].CVID,
		RestoredContent: restored,
	}, nil
}

// AnalyzeATS scores the CV against an optional target role and job
// description. Blank or whitespace-only role/description are sent as null.
// The response is normalized (flat or nested shape) and schema-checked
// before being stored.
func (s *Store) AnalyzeATS(ctx context.Context, cvID *uuid.UUID, cvContent, targetRole, jobDescription string) (*types.ATSAnalysis, error) {
	s.ATSLoading.Set(true)
	s.Err.Set("")
	defer s.ATSLoading.Set(false)

	req := types.ATSRequest{
		CVID:           cvID,
		TargetRole:     trimmedOrNil(targetRole),
		JobDescription: trimmedOrNil(jobDescription),
	}
	if cvContent != "" {
		req.CVContent = &cvContent
	}

	var raw json.RawMessage
	if err := s.client.DoGated(ctx, http.MethodPost, "/llm/ats-score", &req, &raw); err != nil {
		return nil, s.fail(err, "ATS analysis failed")
	}

	analysis, err := types.DecodeATSAnalysis(raw)
	if err != nil {
		return nil, s.fail(err, "ATS analysis failed")
	}

	normalized, err := json.Marshal(analysis)
	if err != nil {
		return nil, s.fail(err, "ATS analysis failed")
	}
	if err := schemas.ValidateATSAnalysis(normalized); err != nil {
		return nil, s.fail(err, "ATS analysis returned an unexpected shape")
	}

	s.Analysis.Set(analysis)
	return analysis, nil
}

// ClearChat drops the transcript.
func (s *Store) ClearChat() {
	s.Chat.Set(nil)
}

// ClearATS drops the stored analysis.
func (s *Store) ClearATS() {
	s.Analysis.Set(nil)
}

// ClearInlineEditHistory drops the undo history. The draft keeps its
// current content; only the ability to undo is lost.
func (s *Store) ClearInlineEditHistory() {
	s.History.Set(nil)
	s.persistHistory(nil)
}

func (s *Store) fail(err error, fallback string) error {
	s.Err.Set(errMessage(err, fallback))
	return err
}

func errMessage(err error, fallback string) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	var rle *api.RateLimitError
	if errors.As(err, &rle) && rle.Detail.Message != "" {
		return rle.Detail.Message
	}
	return fallback
}

func trimmedOrNil(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
