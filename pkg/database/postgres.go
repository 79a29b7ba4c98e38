package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"academic-erp/pkg/models"
)

// PostgresStore implements Store on PostgreSQL via database/sql.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool and verifies it with a ping.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

const organisationColumns = `
	o.id, o.name, o.address,
	hr.id, hr.first_name, hr.last_name, hr.email, hr.contact_number
`

const organisationFrom = `
	FROM organisations o
	LEFT JOIN organisation_hr hr ON hr.organisation_id = o.id
`

// scanOrganisation reads one joined row. HR columns are nullable because the
// join is a LEFT JOIN: legacy records may have no HR contact.
func scanOrganisation(scanner interface{ Scan(...interface{}) error }) (*models.Organisation, error) {
	var org models.Organisation
	var hrID sql.NullInt64
	var hrFirst, hrLast, hrEmail, hrContact sql.NullString

	err := scanner.Scan(
		&org.ID, &org.Name, &org.Address,
		&hrID, &hrFirst, &hrLast, &hrEmail, &hrContact,
	)
	if err != nil {
		return nil, err
	}

	if hrID.Valid {
		org.HRDetails = &models.OrganisationHR{
			ID:            hrID.Int64,
			FirstName:     hrFirst.String,
			LastName:      hrLast.String,
			Email:         hrEmail.String,
			ContactNumber: hrContact.String,
		}
	}
	return &org, nil
}

// CreateOrganisation inserts the organisation and its HR contact in one
// transaction, assigning both generated IDs back onto org.
func (s *PostgresStore) CreateOrganisation(org *models.Organisation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRow(
		`INSERT INTO organisations (name, address) VALUES ($1, $2) RETURNING id`,
		org.Name, org.Address,
	).Scan(&org.ID)
	if err != nil {
		return fmt.Errorf("failed to create organisation: %w", err)
	}

	if org.HRDetails != nil {
		hr := org.HRDetails
		err = tx.QueryRow(
			`INSERT INTO organisation_hr (organisation_id, first_name, last_name, email, contact_number)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			org.ID, hr.FirstName, hr.LastName, hr.Email, hr.ContactNumber,
		).Scan(&hr.ID)
		if err != nil {
			return fmt.Errorf("failed to create HR contact: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// GetOrganisation fetches one organisation with its HR contact.
func (s *PostgresStore) GetOrganisation(id int64) (*models.Organisation, error) {
	row := s.db.QueryRow(`SELECT `+organisationColumns+organisationFrom+` WHERE o.id = $1`, id)
	org, err := scanOrganisation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get organisation: %w", err)
	}
	return org, nil
}

// ListOrganisations returns every organisation ordered by id.
func (s *PostgresStore) ListOrganisations() ([]models.Organisation, error) {
	rows, err := s.db.Query(`SELECT ` + organisationColumns + organisationFrom + ` ORDER BY o.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list organisations: %w", err)
	}
	defer rows.Close()
	return collectOrganisations(rows)
}

// sortColumns whitelists sortable columns to keep user input out of SQL.
var sortColumns = map[string]string{
	"id":      "o.id",
	"name":    "o.name",
	"address": "o.address",
}

// ListOrganisationsPage returns one page of organisations plus the total count.
func (s *PostgresStore) ListOrganisationsPage(page, size int, sortBy, sortDir string) ([]models.Organisation, int, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 10
	}
	col, ok := sortColumns[sortBy]
	if !ok {
		col = "o.id"
	}
	dir := "ASC"
	if strings.EqualFold(sortDir, "desc") {
		dir = "DESC"
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM organisations`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count organisations: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s %s LIMIT $1 OFFSET $2`,
		organisationColumns, organisationFrom, col, dir)
	rows, err := s.db.Query(query, size, page*size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list organisations: %w", err)
	}
	defer rows.Close()

	orgs, err := collectOrganisations(rows)
	if err != nil {
		return nil, 0, err
	}
	return orgs, total, nil
}

// SearchOrganisations matches the term case-insensitively against name,
// address and the HR contact fields.
func (s *PostgresStore) SearchOrganisations(term string) ([]models.Organisation, error) {
	pattern := "%" + term + "%"
	rows, err := s.db.Query(`
		SELECT `+organisationColumns+organisationFrom+`
		WHERE o.name ILIKE $1
		   OR o.address ILIKE $1
		   OR hr.first_name ILIKE $1
		   OR hr.last_name ILIKE $1
		   OR hr.email ILIKE $1
		ORDER BY o.id`, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search organisations: %w", err)
	}
	defer rows.Close()
	return collectOrganisations(rows)
}

// SearchOrganisationsByName matches the term against the organisation name
// only.
func (s *PostgresStore) SearchOrganisationsByName(name string) ([]models.Organisation, error) {
	rows, err := s.db.Query(`
		SELECT `+organisationColumns+organisationFrom+`
		WHERE o.name ILIKE $1
		ORDER BY o.id`, "%"+name+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search organisations by name: %w", err)
	}
	defer rows.Close()
	return collectOrganisations(rows)
}

// UpdateOrganisation updates the organisation row and, when HR details are
// present, upserts the HR contact.
func (s *PostgresStore) UpdateOrganisation(org *models.Organisation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE organisations SET name = $1, address = $2 WHERE id = $3`,
		org.Name, org.Address, org.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update organisation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if org.HRDetails != nil {
		hr := org.HRDetails
		err = tx.QueryRow(
			`INSERT INTO organisation_hr (organisation_id, first_name, last_name, email, contact_number)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (organisation_id) DO UPDATE
			 SET first_name = EXCLUDED.first_name,
			     last_name = EXCLUDED.last_name,
			     email = EXCLUDED.email,
			     contact_number = EXCLUDED.contact_number
			 RETURNING id`,
			org.ID, hr.FirstName, hr.LastName, hr.Email, hr.ContactNumber,
		).Scan(&hr.ID)
		if err != nil {
			return fmt.Errorf("failed to update HR contact: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// DeleteOrganisation removes an organisation; the HR row goes with it via
// ON DELETE CASCADE.
func (s *PostgresStore) DeleteOrganisation(id int64) error {
	res, err := s.db.Exec(`DELETE FROM organisations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete organisation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// OrganisationExists reports whether an organisation with the id exists.
func (s *PostgresStore) OrganisationExists(id int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM organisations WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check organisation: %w", err)
	}
	return exists, nil
}

// HREmailExists reports whether any HR contact already uses the email.
func (s *PostgresStore) HREmailExists(email string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM organisation_hr WHERE LOWER(email) = LOWER($1))`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check HR email: %w", err)
	}
	return exists, nil
}

// GetEmployeeByEmail looks up a directory entry by email.
func (s *PostgresStore) GetEmployeeByEmail(email string) (*models.Employee, error) {
	var e models.Employee
	err := s.db.QueryRow(`
		SELECT employee_id, first_name, last_name, email,
		       COALESCE(title, ''), COALESCE(department, ''),
		       COALESCE(photograph_path, ''), COALESCE(password_hash, '')
		FROM employees
		WHERE LOWER(email) = LOWER($1)`, email).
		Scan(&e.EmployeeID, &e.FirstName, &e.LastName, &e.Email,
			&e.Title, &e.Department, &e.PhotographPath, &e.PasswordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &e, nil
}

// EmployeeExists reports whether an employee with the email is registered.
func (s *PostgresStore) EmployeeExists(email string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM employees WHERE LOWER(email) = LOWER($1))`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check employee: %w", err)
	}
	return exists, nil
}

// CreateEmployeeIfMissing returns the existing employee for the email or
// creates a bare record with the provided names.
func (s *PostgresStore) CreateEmployeeIfMissing(email, firstName, lastName string) (*models.Employee, error) {
	existing, err := s.GetEmployeeByEmail(email)
	if err == nil {
		return existing, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	if strings.TrimSpace(firstName) == "" {
		firstName = "Unknown"
	}
	if strings.TrimSpace(lastName) == "" {
		lastName = "User"
	}

	e := &models.Employee{FirstName: firstName, LastName: lastName, Email: email}
	err = s.db.QueryRow(
		`INSERT INTO employees (first_name, last_name, email) VALUES ($1, $2, $3) RETURNING employee_id`,
		e.FirstName, e.LastName, e.Email,
	).Scan(&e.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}
	return e, nil
}

// HealthCheck pings the database.
func (s *PostgresStore) HealthCheck() error {
	return s.db.Ping()
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func collectOrganisations(rows *sql.Rows) ([]models.Organisation, error) {
	orgs := []models.Organisation{}
	for rows.Next() {
		org, err := scanOrganisation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organisation: %w", err)
		}
		orgs = append(orgs, *org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate organisations: %w", err)
	}
	return orgs, nil
}
