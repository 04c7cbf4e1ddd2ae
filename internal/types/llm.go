package types

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one transcript entry. Only role and content cross the wire;
// any local metadata stays client-side.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest asks the assistant about a CV. The full transcript travels
// with every call; the backend is stateless with respect to conversations.
type ChatRequest struct {
	Message             string        `json:"message" validate:"required,min=1"`
	CVID                *uuid.UUID    `json:"cv_id,omitempty"`
	CVContent           *string       `json:"cv_content,omitempty"`
	ConversationHistory []ChatMessage `json:"conversation_history"`
}

// ChatResponse is the assistant's reply.
type ChatResponse struct {
	Success     bool     `json:"success"`
	Reply       string   `json:"reply"`
	Suggestions []string `json:"suggestions"`
	Error       string   `json:"error,omitempty"`
}

// InlineEditRequest rewrites part of a CV according to an instruction.
type InlineEditRequest struct {
	CVID        uuid.UUID `json:"cv_id" validate:"required"`
	Instruction string    `json:"instruction" validate:"required,min=1"`
	Section     *string   `json:"section,omitempty"`
	AutoSave    bool      `json:"auto_save"`
}

// InlineEditResponse carries the rewritten content.
type InlineEditResponse struct {
	Success       bool     `json:"success"`
	EditedContent string   `json:"edited_content"`
	ChangesMade   []string `json:"changes_made"`
	AutoSaved     bool     `json:"auto_saved"`
	Error         string   `json:"error,omitempty"`
}

// ATSRequest asks for an ATS score of a CV, optionally against a target
// role and job description.
type ATSRequest struct {
	CVID           *uuid.UUID `json:"cv_id,omitempty"`
	CVContent      *string    `json:"cv_content,omitempty"`
	TargetRole     *string    `json:"target_role,omitempty"`
	JobDescription *string    `json:"job_description,omitempty"`
}

// ATSAnalysis is the normalized analysis stored client-side, regardless of
// whether the backend returned flat fields or a nested analysis object.
type ATSAnalysis struct {
	Score              int                        `json:"ats_score"`
	ScoreBreakdown     map[string]int             `json:"score_breakdown"`
	Strengths          []string                   `json:"strengths"`
	Weaknesses         []string                   `json:"weaknesses"`
	UpgradeSuggestions []string                   `json:"upgrade_suggestions"`
	KeywordAnalysis    map[string]json.RawMessage `json:"keyword_analysis,omitempty"`
}

// atsEnvelope accepts both response shapes the backend has used: the current
// flat fields and the older nested {"analysis": {...}} wrapper.
type atsEnvelope struct {
	ATSAnalysis
	Nested *ATSAnalysis `json:"analysis,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// DecodeATSAnalysis normalizes a raw ATS response body into one shape.
func DecodeATSAnalysis(data []byte) (*ATSAnalysis, error) {
	var envelope atsEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	if envelope.Nested != nil {
		return envelope.Nested, nil
	}
	analysis := envelope.ATSAnalysis
	return &analysis, nil
}

// Validate validates the ChatRequest using the validator.
func (r *ChatRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the InlineEditRequest using the validator.
func (r *InlineEditRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
