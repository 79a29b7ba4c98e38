package handlers

import (
	"sort"
	"strings"
	"sync"

	"academic-erp/pkg/database"
	"academic-erp/pkg/models"
)

// memStore is an in-memory database.Store for handler tests.
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	orgs      map[int64]*models.Organisation
	employees map[string]*models.Employee
}

func newMemStore() *memStore {
	return &memStore{
		orgs:      make(map[int64]*models.Organisation),
		employees: make(map[string]*models.Employee),
	}
}

func (m *memStore) addEmployee(e *models.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[strings.ToLower(e.Email)] = e
}

func (m *memStore) CreateOrganisation(org *models.Organisation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	org.ID = m.nextID
	if org.HRDetails != nil {
		org.HRDetails.ID = m.nextID
	}
	cp := *org
	m.orgs[org.ID] = &cp
	return nil
}

func (m *memStore) GetOrganisation(id int64) (*models.Organisation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	org, ok := m.orgs[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *org
	return &cp, nil
}

func (m *memStore) ListOrganisations() ([]models.Organisation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedLocked(), nil
}

func (m *memStore) sortedLocked() []models.Organisation {
	orgs := make([]models.Organisation, 0, len(m.orgs))
	for _, org := range m.orgs {
		orgs = append(orgs, *org)
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].ID < orgs[j].ID })
	return orgs
}

func (m *memStore) ListOrganisationsPage(page, size int, sortBy, sortDir string) ([]models.Organisation, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sortedLocked()
	total := len(all)
	start := page * size
	if start >= total {
		return []models.Organisation{}, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *memStore) SearchOrganisations(term string) ([]models.Organisation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	term = strings.ToLower(term)
	var matched []models.Organisation
	for _, org := range m.sortedLocked() {
		haystack := strings.ToLower(org.Name + " " + org.Address)
		if org.HRDetails != nil {
			haystack += " " + strings.ToLower(org.HRDetails.FirstName+" "+org.HRDetails.LastName+" "+org.HRDetails.Email)
		}
		if strings.Contains(haystack, term) {
			matched = append(matched, org)
		}
	}
	return matched, nil
}

func (m *memStore) SearchOrganisationsByName(name string) ([]models.Organisation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name = strings.ToLower(name)
	var matched []models.Organisation
	for _, org := range m.sortedLocked() {
		if strings.Contains(strings.ToLower(org.Name), name) {
			matched = append(matched, org)
		}
	}
	return matched, nil
}

func (m *memStore) UpdateOrganisation(org *models.Organisation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orgs[org.ID]; !ok {
		return database.ErrNotFound
	}
	cp := *org
	m.orgs[org.ID] = &cp
	return nil
}

func (m *memStore) DeleteOrganisation(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orgs[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.orgs, id)
	return nil
}

func (m *memStore) OrganisationExists(id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.orgs[id]
	return ok, nil
}

func (m *memStore) HREmailExists(email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, org := range m.orgs {
		if org.HRDetails != nil && strings.EqualFold(org.HRDetails.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) GetEmployeeByEmail(email string) (*models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[strings.ToLower(email)]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) EmployeeExists(email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.employees[strings.ToLower(email)]
	return ok, nil
}

func (m *memStore) CreateEmployeeIfMissing(email, firstName, lastName string) (*models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.employees[strings.ToLower(email)]; ok {
		cp := *e
		return &cp, nil
	}
	if firstName == "" {
		firstName = "Unknown"
	}
	if lastName == "" {
		lastName = "User"
	}
	e := &models.Employee{Email: email, FirstName: firstName, LastName: lastName}
	m.employees[strings.ToLower(email)] = e
	cp := *e
	return &cp, nil
}

func (m *memStore) HealthCheck() error { return nil }
func (m *memStore) Close() error       { return nil }
