package leads

import (
	"net/mail"
	"strings"

	"Sparkle/internal/repo"
)

// Submission is the raw form body for any of the three lead kinds.
type Submission struct {
	FormID             string `json:"form_id"`
	Name               string `json:"name"`
	ClientName         string `json:"client_name"`
	CompanyName        string `json:"company_name"`
	PhoneNumber        string `json:"phone_number"`
	Email              string `json:"email"`
	Location           string `json:"location"`
	RequirementMessage string `json:"requirement_message"`
	BusinessDetails    string `json:"business_details"`
	SystemDetails      string `json:"system_details"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(msgs, "; ")
}

type field struct {
	name  string
	label string
	value func(*Submission) *string
}

var (
	fName        = field{"name", "Name", func(s *Submission) *string { return &s.Name }}
	fClientName  = field{"client_name", "Client name", func(s *Submission) *string { return &s.ClientName }}
	fCompany     = field{"company_name", "Company name", func(s *Submission) *string { return &s.CompanyName }}
	fPhone       = field{"phone_number", "Phone number", func(s *Submission) *string { return &s.PhoneNumber }}
	fEmail       = field{"email", "Email", func(s *Submission) *string { return &s.Email }}
	fLocation    = field{"location", "Location", func(s *Submission) *string { return &s.Location }}
	fRequirement = field{"requirement_message", "Requirement message", func(s *Submission) *string { return &s.RequirementMessage }}
	fBusiness    = field{"business_details", "Business details", func(s *Submission) *string { return &s.BusinessDetails }}
	fSystem      = field{"system_details", "System details", func(s *Submission) *string { return &s.SystemDetails }}
)

var requiredFields = map[repo.Kind][]field{
	repo.KindConsultancy: {fName, fPhone, fEmail, fLocation, fRequirement},
	repo.KindPartner:     {fName, fCompany, fPhone, fEmail, fLocation, fBusiness},
	repo.KindAMC:         {fClientName, fPhone, fEmail, fLocation, fSystem},
}

// Validate trims every field in place and reports each missing or malformed
// required field of kind.
func Validate(kind repo.Kind, s *Submission) FieldErrors {
	for _, f := range []field{fName, fClientName, fCompany, fPhone, fEmail, fLocation, fRequirement, fBusiness, fSystem} {
		p := f.value(s)
		*p = strings.TrimSpace(*p)
	}
	s.FormID = strings.TrimSpace(s.FormID)

	var errs FieldErrors
	for _, f := range requiredFields[kind] {
		v := *f.value(s)
		switch {
		case v == "":
			errs = append(errs, FieldError{f.name, f.label + " is required"})
		case f.name == fEmail.name:
			if _, err := mail.ParseAddress(v); err != nil {
				errs = append(errs, FieldError{f.name, "Please enter a valid email address"})
			}
		}
	}
	return errs
}

// toLead maps a validated submission onto the stored record.
func toLead(kind repo.Kind, s Submission) repo.Lead {
	l := repo.Lead{
		Kind:        kind,
		Status:      repo.StatusNew,
		Name:        s.Name,
		PhoneNumber: s.PhoneNumber,
		Email:       s.Email,
		Location:    s.Location,
		FormID:      s.FormID,
	}
	switch kind {
	case repo.KindConsultancy:
		l.Details = s.RequirementMessage
	case repo.KindPartner:
		l.CompanyName = s.CompanyName
		l.Details = s.BusinessDetails
	case repo.KindAMC:
		l.Name = s.ClientName
		l.Details = s.SystemDetails
	}
	return l
}
