// internal/workers/compliance/validate-company-profile/models.go
package validatecompanyprofile

import (
	"encoding/json"

	"bidbuddy-workers/internal/common/validation"
	"bidbuddy-workers/internal/models"
)

type Input struct {
	Profile json.RawMessage `json:"profile"`
	// Persist upserts the normalized profile when it is valid.
	Persist bool `json:"persist,omitempty"`
}

type Output struct {
	IsValid          bool                         `json:"isValid"`
	Profile          *models.CompanyProfile       `json:"profile,omitempty"`
	ValidationErrors []validation.ValidationError `json:"validationErrors"`
	Persisted        bool                         `json:"persisted"`
}
