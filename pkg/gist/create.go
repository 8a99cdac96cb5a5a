package gist

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrNoFiles is returned when a create request has no usable file.
var ErrNoFiles = errors.New("gist requires at least one file with both filename and content")

var validate = validator.New()

// Draft is one file as entered by the user before submission.
type Draft struct {
	Filename string
	Content  string
}

// NewCreateRequest builds a create payload from drafts. Drafts whose filename
// or content is blank are dropped; at least one file must remain. A later
// draft with the same filename replaces an earlier one.
func NewCreateRequest(description string, public bool, drafts []Draft) (CreateRequest, error) {
	req := CreateRequest{
		Description: description,
		Public:      public,
		Files:       make(map[string]FileContent, len(drafts)),
	}

	for _, d := range drafts {
		if strings.TrimSpace(d.Filename) == "" || strings.TrimSpace(d.Content) == "" {
			continue
		}
		req.Files[d.Filename] = FileContent{Content: d.Content}
	}

	if len(req.Files) == 0 {
		return CreateRequest{}, ErrNoFiles
	}
	if err := req.Validate(); err != nil {
		return CreateRequest{}, err
	}
	return req, nil
}

// Validate checks the payload shape.
func (r CreateRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, formatFieldError(e))
			}
			return fmt.Errorf("invalid gist: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid gist: %w", err)
	}
	return nil
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Namespace())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
