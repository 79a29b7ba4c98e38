package models

// OrganisationHR is the HR contact nested under an Organisation. It has no
// lifecycle of its own: it is created, updated and removed with its parent.
type OrganisationHR struct {
	ID            int64  `json:"id,omitempty" db:"id"`
	FirstName     string `json:"firstName" db:"first_name" validate:"required"`
	LastName      string `json:"lastName" db:"last_name" validate:"required"`
	Email         string `json:"email" db:"email" validate:"required,email"`
	ContactNumber string `json:"contactNumber" db:"contact_number" validate:"required,digits10"`
}

// Organisation represents a stored organisation record. HRDetails may be nil
// for records predating the HR contact requirement; such records must still
// render in every screen.
type Organisation struct {
	ID        int64           `json:"id,omitempty" db:"id"`
	Name      string          `json:"name" db:"name"`
	Address   string          `json:"address" db:"address"`
	HRDetails *OrganisationHR `json:"hrDetails,omitempty"`
}

// OrganisationRequest is the payload for creating an organisation. HR details
// are mandatory on creation.
type OrganisationRequest struct {
	Name      string          `json:"name" validate:"required"`
	Address   string          `json:"address" validate:"required"`
	HRDetails *OrganisationHR `json:"hrDetails" validate:"required"`
}

// OrganisationUpdate is the payload for updating an organisation. Omitted HR
// details leave the existing contact untouched.
type OrganisationUpdate struct {
	Name      string          `json:"name" validate:"required"`
	Address   string          `json:"address" validate:"required"`
	HRDetails *OrganisationHR `json:"hrDetails,omitempty"`
}

// OrganisationPage is the envelope returned by the paginated listing.
type OrganisationPage struct {
	Content       []Organisation `json:"content"`
	Page          int            `json:"page"`
	Size          int            `json:"size"`
	TotalElements int            `json:"totalElements"`
	TotalPages    int            `json:"totalPages"`
}
