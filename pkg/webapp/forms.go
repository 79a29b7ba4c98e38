package webapp

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"academic-erp/pkg/apperror"
	"academic-erp/pkg/models"
)

// organisationForm is the flattened HTML form for both create and edit.
type organisationForm struct {
	Name          string `validate:"required"`
	Address       string `validate:"required"`
	FirstName     string `validate:"required"`
	LastName      string `validate:"required"`
	Email         string `validate:"required,email"`
	ContactNumber string `validate:"required,digits10"`
}

var formFieldMessages = map[string]string{
	"organisationForm.Name.required":           "Organisation name is required",
	"organisationForm.Address.required":        "Address is required",
	"organisationForm.FirstName.required":      "First name is required",
	"organisationForm.LastName.required":       "Last name is required",
	"organisationForm.Email.required":          "Email is required",
	"organisationForm.Email.email":             "Please enter a valid email address",
	"organisationForm.ContactNumber.required":  "Contact number is required",
	"organisationForm.ContactNumber.digits10":  "Contact number must be exactly 10 digits",
}

// normalizePhone strips non-digits and truncates to ten digits. Applying it
// twice gives the same result, so resubmitted values pass through unchanged.
func normalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == 10 {
				break
			}
		}
	}
	return b.String()
}

func parseOrganisationForm(r *http.Request) organisationForm {
	return organisationForm{
		Name:          strings.TrimSpace(r.PostFormValue("name")),
		Address:       strings.TrimSpace(r.PostFormValue("address")),
		FirstName:     strings.TrimSpace(r.PostFormValue("firstName")),
		LastName:      strings.TrimSpace(r.PostFormValue("lastName")),
		Email:         strings.TrimSpace(r.PostFormValue("email")),
		ContactNumber: normalizePhone(r.PostFormValue("contactNumber")),
	}
}

func formFromOrganisation(org *models.Organisation) organisationForm {
	f := organisationForm{Name: org.Name, Address: org.Address}
	if org.HRDetails != nil {
		f.FirstName = org.HRDetails.FirstName
		f.LastName = org.HRDetails.LastName
		f.Email = org.HRDetails.Email
		f.ContactNumber = org.HRDetails.ContactNumber
	}
	return f
}

// fieldErrors validates the form and returns field -> message, empty when
// the form is valid.
func (f organisationForm) fieldErrors(validate *validator.Validate) map[string]string {
	if err := validate.Struct(f); err != nil {
		return apperror.FieldErrors(err, formFieldMessages)
	}
	return map[string]string{}
}

func (f organisationForm) hr() *models.OrganisationHR {
	return &models.OrganisationHR{
		FirstName:     f.FirstName,
		LastName:      f.LastName,
		Email:         f.Email,
		ContactNumber: f.ContactNumber,
	}
}

func (f organisationForm) toRequest() *models.OrganisationRequest {
	return &models.OrganisationRequest{Name: f.Name, Address: f.Address, HRDetails: f.hr()}
}

func (f organisationForm) toUpdate() *models.OrganisationUpdate {
	return &models.OrganisationUpdate{Name: f.Name, Address: f.Address, HRDetails: f.hr()}
}
