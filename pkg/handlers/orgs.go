package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	chiRoute "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"academic-erp/pkg/apperror"
	"academic-erp/pkg/database"
	"academic-erp/pkg/models"
	"academic-erp/pkg/utils"
)

// organisationFieldMessages maps validation failures on organisation payloads
// to the messages surfaced in validationErrors.
var organisationFieldMessages = map[string]string{
	"OrganisationRequest.name.required":                     "Organisation name is required",
	"OrganisationRequest.address.required":                  "Address is required",
	"OrganisationRequest.hrDetails.required":                "HR details are required",
	"OrganisationRequest.hrDetails.firstName.required":      "First name is required",
	"OrganisationRequest.hrDetails.lastName.required":       "Last name is required",
	"OrganisationRequest.hrDetails.email.required":          "Email is required",
	"OrganisationRequest.hrDetails.email.email":             "Please provide a valid email address",
	"OrganisationRequest.hrDetails.contactNumber.required":  "Contact number is required",
	"OrganisationRequest.hrDetails.contactNumber.digits10":  "Contact number must be exactly 10 digits",
	"OrganisationUpdate.name.required":                      "Organisation name is required",
	"OrganisationUpdate.address.required":                   "Address is required",
	"OrganisationUpdate.hrDetails.firstName.required":       "First name is required",
	"OrganisationUpdate.hrDetails.lastName.required":        "Last name is required",
	"OrganisationUpdate.hrDetails.email.required":           "Email is required",
	"OrganisationUpdate.hrDetails.email.email":              "Please provide a valid email address",
	"OrganisationUpdate.hrDetails.contactNumber.required":   "Contact number is required",
	"OrganisationUpdate.hrDetails.contactNumber.digits10":   "Contact number must be exactly 10 digits",
}

// OrgsHandler serves the organisation CRUD endpoints.
type OrgsHandler struct {
	store    database.Store
	log      *zap.Logger
	validate *validator.Validate
}

// NewOrgsHandler creates the organisation handler.
func NewOrgsHandler(store database.Store, log *zap.Logger, validate *validator.Validate) *OrgsHandler {
	return &OrgsHandler{store: store, log: log, validate: validate}
}

func orgIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chiRoute.URLParam(r, "id"), 10, 64)
}

// List handles GET /api/organisations.
func (h *OrgsHandler) List(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.store.ListOrganisations()
	if err != nil {
		h.log.Error("list organisations failed", zap.Error(err))
		utils.WriteInternalServerError(w, "Failed to list organisations")
		return
	}
	utils.WriteJSON(w, http.StatusOK, orgs)
}

// ListPaginated handles GET /api/organisations/paginated.
func (h *OrgsHandler) ListPaginated(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(utils.GetQueryParam(r, "page", "0"))
	size, _ := strconv.Atoi(utils.GetQueryParam(r, "size", "10"))
	sortBy := utils.GetQueryParam(r, "sortBy", "id")
	sortDir := utils.GetQueryParam(r, "sortDir", "asc")

	orgs, total, err := h.store.ListOrganisationsPage(page, size, sortBy, sortDir)
	if err != nil {
		h.log.Error("paginated list failed", zap.Error(err))
		utils.WriteInternalServerError(w, "Failed to list organisations")
		return
	}
	if size <= 0 {
		size = 10
	}
	utils.WriteJSON(w, http.StatusOK, models.OrganisationPage{
		Content:       orgs,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    (total + size - 1) / size,
	})
}

// Search handles GET /api/organisations/search?searchTerm=.
func (h *OrgsHandler) Search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("searchTerm")
	if term == "" {
		utils.WriteBadRequest(w, "searchTerm is required")
		return
	}
	orgs, err := h.store.SearchOrganisations(term)
	if err != nil {
		h.log.Error("search failed", zap.String("term", term), zap.Error(err))
		utils.WriteInternalServerError(w, "Failed to search organisations")
		return
	}
	utils.WriteJSON(w, http.StatusOK, orgs)
}

// SearchByName handles GET /api/organisations/search/name?name=.
func (h *OrgsHandler) SearchByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		utils.WriteBadRequest(w, "name is required")
		return
	}
	orgs, err := h.store.SearchOrganisationsByName(name)
	if err != nil {
		h.log.Error("search by name failed", zap.String("name", name), zap.Error(err))
		utils.WriteInternalServerError(w, "Failed to search organisations")
		return
	}
	utils.WriteJSON(w, http.StatusOK, orgs)
}

// Get handles GET /api/organisations/{id}.
func (h *OrgsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := orgIDParam(r)
	if err != nil {
		utils.WriteBadRequest(w, "Invalid organisation id")
		return
	}
	org, err := h.store.GetOrganisation(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFound(w, fmt.Sprintf("Organisation not found with id: %d", id))
			return
		}
		h.log.Error("get organisation failed", zap.Int64("id", id), zap.Error(err))
		utils.WriteInternalServerError(w, "Failed to get organisation")
		return
	}
	utils.WriteJSON(w, http.StatusOK, org)
}

// Create handles POST /api/organisations.
func (h *OrgsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.OrganisationRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, apperror.FieldErrors(err, organisationFieldMessages))
		return
	}

	exists, err := h.store.HREmailExists(req.HRDetails.Email)
	if err != nil {
		h.log.Error("HR email check failed", zap.Error(err))
		utils.WriteInternalServerError(w, "Failed to create organisation")
		return
	}
	if exists {
		utils.WriteConflict(w, "Organisation with this HR email already exists")
		return
	}

	org := &models.Organisation{Name: req.Name, Address: req.Address, HRDetails: req.HRDetails}
	if err := h.store.CreateOrganisation(org); err != nil {
		h.log.Error("create organisation failed", zap.Error(err))
		utils.WriteInternalServerError(w, "Failed to create organisation")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, org)
}

// Update handles PUT /api/organisations/{id}. Omitted HR details keep the
// existing contact.
func (h *OrgsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := orgIDParam(r)
	if err != nil {
		utils.WriteBadRequest(w, "Invalid organisation id")
		return
	}

	var req models.OrganisationUpdate
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, apperror.FieldErrors(err, organisationFieldMessages))
		return
	}

	current, err := h.store.GetOrganisation(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFound(w, fmt.Sprintf("Organisation not found with id: %d", id))
			return
		}
		h.log.Error("get organisation failed", zap.Int64("id", id), zap.Error(err))
		utils.WriteInternalServerError(w, "Failed to update organisation")
		return
	}

	// Reject an HR email change colliding with another organisation.
	if req.HRDetails != nil {
		emailChanged := current.HRDetails == nil || current.HRDetails.Email != req.HRDetails.Email
		if emailChanged {
			exists, err := h.store.HREmailExists(req.HRDetails.Email)
			if err != nil {
				h.log.Error("HR email check failed", zap.Error(err))
				utils.WriteInternalServerError(w, "Failed to update organisation")
				return
			}
			if exists {
				utils.WriteConflict(w, "Organisation with this HR email already exists")
				return
			}
		}
	}

	org := &models.Organisation{ID: id, Name: req.Name, Address: req.Address, HRDetails: req.HRDetails}
	if org.HRDetails == nil {
		org.HRDetails = current.HRDetails
	}
	if err := h.store.UpdateOrganisation(org); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFound(w, fmt.Sprintf("Organisation not found with id: %d", id))
			return
		}
		h.log.Error("update organisation failed", zap.Int64("id", id), zap.Error(err))
		utils.WriteInternalServerError(w, "Failed to update organisation")
		return
	}
	utils.WriteJSON(w, http.StatusOK, org)
}

// Delete handles DELETE /api/organisations/{id}.
func (h *OrgsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := orgIDParam(r)
	if err != nil {
		utils.WriteBadRequest(w, "Invalid organisation id")
		return
	}
	if err := h.store.DeleteOrganisation(id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFound(w, fmt.Sprintf("Organisation not found with id: %d", id))
			return
		}
		h.log.Error("delete organisation failed", zap.Int64("id", id), zap.Error(err))
		utils.WriteInternalServerError(w, "Failed to delete organisation")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Organisation deleted successfully"})
}

// Exists handles GET /api/organisations/{id}/exists.
func (h *OrgsHandler) Exists(w http.ResponseWriter, r *http.Request) {
	id, err := orgIDParam(r)
	if err != nil {
		utils.WriteBadRequest(w, "Invalid organisation id")
		return
	}
	exists, err := h.store.OrganisationExists(id)
	if err != nil {
		h.log.Error("exists check failed", zap.Int64("id", id), zap.Error(err))
		utils.WriteInternalServerError(w, "Failed to check organisation")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// CheckEmail handles GET /api/organisations/check-email?email=.
func (h *OrgsHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		utils.WriteBadRequest(w, "email is required")
		return
	}
	exists, err := h.store.HREmailExists(email)
	if err != nil {
		h.log.Error("check-email failed", zap.Error(err))
		utils.WriteInternalServerError(w, "Failed to check email")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}
