// Package database defines the persistence contract and its PostgreSQL
// implementation.
package database

import (
	"errors"

	"academic-erp/pkg/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence interface consumed by the API handlers.
type Store interface {
	// Organisations
	CreateOrganisation(org *models.Organisation) error
	GetOrganisation(id int64) (*models.Organisation, error)
	ListOrganisations() ([]models.Organisation, error)
	// ListOrganisationsPage returns one page plus the total record count.
	// sortBy is restricted to a fixed column whitelist.
	ListOrganisationsPage(page, size int, sortBy, sortDir string) ([]models.Organisation, int, error)
	SearchOrganisations(term string) ([]models.Organisation, error)
	SearchOrganisationsByName(name string) ([]models.Organisation, error)
	UpdateOrganisation(org *models.Organisation) error
	DeleteOrganisation(id int64) error
	OrganisationExists(id int64) (bool, error)
	HREmailExists(email string) (bool, error)

	// Employees
	GetEmployeeByEmail(email string) (*models.Employee, error)
	EmployeeExists(email string) (bool, error)
	CreateEmployeeIfMissing(email, firstName, lastName string) (*models.Employee, error)

	HealthCheck() error
	Close() error
}
