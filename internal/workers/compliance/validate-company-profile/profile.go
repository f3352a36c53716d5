// internal/workers/compliance/validate-company-profile/profile.go
package validatecompanyprofile

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"

	"bidbuddy-workers/internal/common/validation"
	"bidbuddy-workers/internal/models"
)

const (
	gstLength = 15
	panLength = 10
)

// NormalizeProfile trims free text, upper-cases tax identifiers and removes
// case-insensitive duplicates from the list fields, keeping first spellings.
func NormalizeProfile(p *models.CompanyProfile) {
	p.Name = strings.TrimSpace(p.Name)
	p.RegistrationNumber = strings.TrimSpace(p.RegistrationNumber)
	p.PAN = strings.ToUpper(strings.TrimSpace(p.PAN))
	p.GST = strings.ToUpper(strings.TrimSpace(p.GST))
	p.MSMECategory = strings.TrimSpace(p.MSMECategory)
	p.ContactEmail = strings.TrimSpace(p.ContactEmail)
	p.ContactPhone = strings.TrimSpace(p.ContactPhone)

	p.Certifications = dedupeFold(p.Certifications)
	p.AvailableDocuments = dedupeFold(p.AvailableDocuments)
	p.Sectors = dedupeFold(p.Sectors)

	for i := range p.PastProjects {
		p.PastProjects[i].Name = strings.TrimSpace(p.PastProjects[i].Name)
		p.PastProjects[i].Client = strings.TrimSpace(p.PastProjects[i].Client)
		p.PastProjects[i].Sector = strings.TrimSpace(p.PastProjects[i].Sector)
	}
	if p.PastProjects == nil {
		p.PastProjects = []models.PastProject{}
	}
}

// CheckProfile applies the rules a JSON schema cannot express well. Call it
// on a normalized profile.
func CheckProfile(p *models.CompanyProfile) []validation.ValidationError {
	var out []validation.ValidationError

	err := ozzo.ValidateStruct(p,
		ozzo.Field(&p.Name, ozzo.Required.Error("must not be blank")),
		ozzo.Field(&p.GST, ozzo.Length(gstLength, gstLength)),
		ozzo.Field(&p.PAN, ozzo.Length(panLength, panLength)),
		ozzo.Field(&p.AnnualTurnover, ozzo.Min(0.0)),
		ozzo.Field(&p.NetWorth, ozzo.Min(0.0)),
		ozzo.Field(&p.YearsInOperation, ozzo.Min(0)),
		ozzo.Field(&p.MaxSingleProjectValue, ozzo.Min(0.0)),
	)
	out = append(out, fromOzzo("", err)...)

	for i := range p.PastProjects {
		pp := &p.PastProjects[i]
		err := ozzo.ValidateStruct(pp,
			ozzo.Field(&pp.Name, ozzo.Required.Error("must not be blank")),
			ozzo.Field(&pp.Value, ozzo.Min(0.0)),
		)
		out = append(out, fromOzzo(fmt.Sprintf("pastProjects.%d.", i), err)...)
	}
	return out
}

func fromOzzo(prefix string, err error) []validation.ValidationError {
	if err == nil {
		return nil
	}

	var fieldErrs ozzo.Errors
	if !errors.As(err, &fieldErrs) {
		return []validation.ValidationError{{Field: strings.TrimSuffix(prefix, "."), Message: err.Error()}}
	}

	fields := make([]string, 0, len(fieldErrs))
	for field := range fieldErrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := make([]validation.ValidationError, 0, len(fields))
	for _, field := range fields {
		fe := fieldErrs[field]
		ve := validation.ValidationError{Field: prefix + field, Message: fe.Error()}
		var coded ozzo.Error
		if errors.As(fe, &coded) {
			ve.Code = strings.ToUpper(coded.Code())
		}
		out = append(out, ve)
	}
	return out
}

func dedupeFold(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
