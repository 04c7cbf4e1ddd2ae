package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Default CV settings applied when a draft is seeded or a create request
// omits them.
const (
	DefaultFont     = "Arial"
	DefaultFontSize = 11
	DefaultTheme    = "professional"
)

// Margins holds page margins in millimetres.
type Margins struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

// Settings holds the rendering settings attached to a CV.
type Settings struct {
	Font     string  `json:"font"`
	FontSize int     `json:"fontSize"`
	Margins  Margins `json:"margins"`
	Theme    string  `json:"theme"`
}

// DefaultSettings returns the settings a fresh draft starts with.
func DefaultSettings() Settings {
	return Settings{
		Font:     DefaultFont,
		FontSize: DefaultFontSize,
		Margins:  Margins{Top: 20, Bottom: 20, Left: 15, Right: 15},
		Theme:    DefaultTheme,
	}
}

// CV is a stored CV as returned by the backend.
type CV struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MarkdownContent string    `json:"markdown_content"`
	Settings        Settings  `json:"settings"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

// CreateCVRequest creates a blank CV.
type CreateCVRequest struct {
	Name            string   `json:"name" validate:"required,min=1"`
	MarkdownContent string   `json:"markdown_content"`
	Settings        Settings `json:"settings"`
}

// CreateFromTemplateRequest instantiates a CV from a template.
type CreateFromTemplateRequest struct {
	TemplateID uuid.UUID `json:"template_id" validate:"required"`
	CVName     string    `json:"cv_name" validate:"required,min=1"`
}

// UpdateCVRequest is a full update (name, content, settings).
type UpdateCVRequest struct {
	Name            string   `json:"name" validate:"required,min=1"`
	MarkdownContent string   `json:"markdown_content"`
	Settings        Settings `json:"settings"`
}

// AutoSaveRequest is the partial update issued by the editor's auto-save:
// content and settings only, never the name.
type AutoSaveRequest struct {
	MarkdownContent string   `json:"markdown_content"`
	Settings        Settings `json:"settings"`
}

// Template is a starting-point CV offered by the backend.
type Template struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	IsPremium   bool      `json:"is_premium,omitempty"`
}

// Validate validates the CreateCVRequest using the validator.
func (r *CreateCVRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the CreateFromTemplateRequest using the validator.
func (r *CreateFromTemplateRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the UpdateCVRequest using the validator.
func (r *UpdateCVRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
