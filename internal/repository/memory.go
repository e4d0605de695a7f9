package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"nursery-platform/internal/models"
)

// MemoryStore keeps every record in process memory. It implements both
// NurseryRepository and SpeciesRepository and backs the "memory" database
// driver and the service tests.
type MemoryStore struct {
	mu sync.RWMutex

	nextID    int64
	nurseries map[int64]models.Nursery
	plantings map[int64]models.Planting
	tasks     map[int64]models.Task
	logs      map[int64]models.InputLog
	species   map[int64]models.Species
	settings  models.AppSettings

	now func() time.Time
}

var (
	_ NurseryRepository = (*MemoryStore)(nil)
	_ SpeciesRepository = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nurseries: make(map[int64]models.Nursery),
		plantings: make(map[int64]models.Planting),
		tasks:     make(map[int64]models.Task),
		logs:      make(map[int64]models.InputLog),
		species:   make(map[int64]models.Species),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

// CreateNursery creates a new nursery
func (m *MemoryStore) CreateNursery(_ context.Context, nursery *models.Nursery) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	nursery.ID = m.id()
	m.nurseries[nursery.ID] = *nursery
	return nil
}

// GetNursery retrieves a nursery by ID
func (m *MemoryStore) GetNursery(_ context.Context, id int64) (*models.Nursery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.nurseries[id]
	if !ok {
		return nil, notFound("nursery", id)
	}
	return &n, nil
}

// ListNurseries retrieves every nursery ordered by ID
func (m *MemoryStore) ListNurseries(_ context.Context) ([]*models.Nursery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Nursery, 0, len(m.nurseries))
	for _, n := range m.nurseries {
		n := n
		out = append(out, &n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateNursery stores the editable fields of a nursery
func (m *MemoryStore) UpdateNursery(_ context.Context, nursery *models.Nursery) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.nurseries[nursery.ID]
	if !ok {
		return notFound("nursery", nursery.ID)
	}
	existing.Name = nursery.Name
	existing.StartMonth = nursery.StartMonth
	existing.Region = nursery.Region
	existing.Language = nursery.Language
	existing.UpdatedAt = nursery.UpdatedAt
	m.nurseries[nursery.ID] = existing
	return nil
}

// DeleteNursery removes a nursery with everything it owns
func (m *MemoryStore) DeleteNursery(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.nurseries[id]; !ok {
		return notFound("nursery", id)
	}
	for key, l := range m.logs {
		if l.NurseryID == id {
			delete(m.logs, key)
		}
	}
	for key, t := range m.tasks {
		if t.NurseryID == id {
			delete(m.tasks, key)
		}
	}
	for key, p := range m.plantings {
		if p.NurseryID == id {
			delete(m.plantings, key)
		}
	}
	if m.settings.ActiveNurseryID != nil && *m.settings.ActiveNurseryID == id {
		m.settings.ActiveNurseryID = nil
		m.settings.UpdatedAt = m.now()
	}
	delete(m.nurseries, id)
	return nil
}

// GetNurseryStats aggregates plant and task counts of a nursery
func (m *MemoryStore) GetNurseryStats(_ context.Context, id int64) (*models.NurseryStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.nurseries[id]; !ok {
		return nil, notFound("nursery", id)
	}

	stats := &models.NurseryStats{NurseryID: id}
	species := make(map[string]bool)
	for _, p := range m.plantings {
		if p.NurseryID != id {
			continue
		}
		stats.TotalPlants += p.Quantity
		species[plantingSpeciesKey(p)] = true
	}
	stats.TotalSpecies = len(species)

	for _, t := range m.tasks {
		if t.NurseryID != id {
			continue
		}
		switch t.Status {
		case models.TaskPending:
			stats.PendingTasks++
		case models.TaskCompleted:
			stats.CompletedTasks++
		}
	}
	return stats, nil
}

func plantingSpeciesKey(p models.Planting) string {
	if p.SpeciesID != nil {
		return fmt.Sprintf("id:%d", *p.SpeciesID)
	}
	return "name:" + strings.ToLower(p.SpeciesName)
}

// GetSettings retrieves the application settings
func (m *MemoryStore) GetSettings(_ context.Context) (*models.AppSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	settings := m.settings
	if settings.ActiveNurseryID != nil {
		id := *settings.ActiveNurseryID
		settings.ActiveNurseryID = &id
	}
	return &settings, nil
}

// SetActiveNursery records the selected nursery; nil clears the selection
func (m *MemoryStore) SetActiveNursery(_ context.Context, id *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == nil {
		m.settings.ActiveNurseryID = nil
	} else {
		if _, ok := m.nurseries[*id]; !ok {
			return notFound("nursery", *id)
		}
		active := *id
		m.settings.ActiveNurseryID = &active
	}
	m.settings.UpdatedAt = m.now()
	return nil
}

// CreatePlanting creates a new planting
func (m *MemoryStore) CreatePlanting(_ context.Context, planting *models.Planting) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.nurseries[planting.NurseryID]; !ok {
		return notFound("nursery", planting.NurseryID)
	}
	planting.ID = m.id()
	m.plantings[planting.ID] = *planting
	return nil
}

// GetPlanting retrieves a planting by ID
func (m *MemoryStore) GetPlanting(_ context.Context, id int64) (*models.Planting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plantings[id]
	if !ok {
		return nil, notFound("planting", id)
	}
	return &p, nil
}

// ListPlantings retrieves the plantings of a nursery ordered by ID
func (m *MemoryStore) ListPlantings(_ context.Context, nurseryID int64) ([]*models.Planting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*models.Planting{}
	for _, p := range m.plantings {
		if p.NurseryID == nurseryID {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeletePlanting removes a planting and detaches its tasks and logs
func (m *MemoryStore) DeletePlanting(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.plantings[id]; !ok {
		return notFound("planting", id)
	}
	for key, t := range m.tasks {
		if t.PlantingID != nil && *t.PlantingID == id {
			t.PlantingID = nil
			m.tasks[key] = t
		}
	}
	for key, l := range m.logs {
		if l.PlantingID != nil && *l.PlantingID == id {
			l.PlantingID = nil
			m.logs[key] = l
		}
	}
	delete(m.plantings, id)
	return nil
}

// CreateTask creates a new task
func (m *MemoryStore) CreateTask(_ context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.nurseries[task.NurseryID]; !ok {
		return notFound("nursery", task.NurseryID)
	}
	task.ID = m.id()
	m.tasks[task.ID] = *task
	return nil
}

// GetTask retrieves a task by ID
func (m *MemoryStore) GetTask(_ context.Context, id int64) (*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, notFound("task", id)
	}
	return &t, nil
}

// ListTasks retrieves tasks ordered by date with filtering and pagination
func (m *MemoryStore) ListTasks(_ context.Context, filter TaskFilter) ([]*models.Task, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := []*models.Task{}
	for _, t := range m.tasks {
		if !taskMatches(t, filter) {
			continue
		}
		t := t
		matched = append(matched, &t)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.Before(matched[j].Date)
		}
		return matched[i].ID < matched[j].ID
	})

	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

func taskMatches(t models.Task, f TaskFilter) bool {
	if t.NurseryID != f.NurseryID {
		return false
	}
	if f.PlantingID != nil && (t.PlantingID == nil || *t.PlantingID != *f.PlantingID) {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	if f.StartDate != nil && t.Date.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && t.Date.After(*f.EndDate) {
		return false
	}
	return true
}

// UpdateTaskStatus stores the status and completion time of a task
func (m *MemoryStore) UpdateTaskStatus(_ context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.tasks[task.ID]
	if !ok {
		return notFound("task", task.ID)
	}
	existing.Status = task.Status
	existing.CompletedAt = task.CompletedAt
	m.tasks[task.ID] = existing
	return nil
}

// CreateInputLog creates a new input log
func (m *MemoryStore) CreateInputLog(_ context.Context, log *models.InputLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.nurseries[log.NurseryID]; !ok {
		return notFound("nursery", log.NurseryID)
	}
	log.ID = m.id()
	m.logs[log.ID] = *log
	return nil
}

// ListInputLogs retrieves input logs newest first
func (m *MemoryStore) ListInputLogs(_ context.Context, filter InputLogFilter) ([]*models.InputLog, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := []*models.InputLog{}
	for _, l := range m.logs {
		if !inputLogMatches(l, filter) {
			continue
		}
		l := l
		matched = append(matched, &l)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].ID > matched[j].ID
	})

	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

func inputLogMatches(l models.InputLog, f InputLogFilter) bool {
	if l.NurseryID != f.NurseryID {
		return false
	}
	if f.PlantingID != nil && (l.PlantingID == nil || *l.PlantingID != *f.PlantingID) {
		return false
	}
	if f.InputType != nil && l.InputType != *f.InputType {
		return false
	}
	if f.StartDate != nil && l.Date.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && l.Date.After(*f.EndDate) {
		return false
	}
	return true
}

// DeleteInputLog removes an input log
func (m *MemoryStore) DeleteInputLog(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.logs[id]; !ok {
		return notFound("input_log", id)
	}
	delete(m.logs, id)
	return nil
}

// HealthCheck always succeeds
func (m *MemoryStore) HealthCheck(_ context.Context) error {
	return nil
}

// CountSpecies returns the number of species in the library
func (m *MemoryStore) CountSpecies(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.species), nil
}

// InsertSpeciesBatch inserts every species or none of them
func (m *MemoryStore) InsertSpeciesBatch(_ context.Context, species []*models.Species) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool, len(m.species)+len(species))
	for _, s := range m.species {
		seen[s.ScientificName] = true
	}
	for _, s := range species {
		if seen[s.ScientificName] {
			return &DuplicateError{Resource: "species", Key: s.ScientificName}
		}
		seen[s.ScientificName] = true
	}

	for _, s := range species {
		s.ID = m.id()
		m.species[s.ID] = *s
	}
	return nil
}

// ReplaceSpecies swaps the whole library, keeping the previous one when the
// new set holds duplicates
func (m *MemoryStore) ReplaceSpecies(_ context.Context, species []*models.Species) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool, len(species))
	for _, s := range species {
		if seen[s.ScientificName] {
			return &DuplicateError{Resource: "species", Key: s.ScientificName}
		}
		seen[s.ScientificName] = true
	}

	m.species = make(map[int64]models.Species, len(species))
	for _, s := range species {
		s.ID = m.id()
		m.species[s.ID] = *s
	}
	return nil
}

// GetSpecies retrieves a species by ID
func (m *MemoryStore) GetSpecies(_ context.Context, id int64) (*models.Species, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.species[id]
	if !ok {
		return nil, notFound("species", id)
	}
	return &s, nil
}

// ListSpecies retrieves species ordered by common name
func (m *MemoryStore) ListSpecies(_ context.Context, filter SpeciesFilter) ([]*models.Species, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := []*models.Species{}
	for _, s := range m.species {
		if filter.Category != nil && s.Category != *filter.Category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(s.CommonName), term) &&
			!strings.Contains(strings.ToLower(s.ScientificName), term) {
			continue
		}
		if filter.NitrogenFixer != nil && s.NitrogenFixer != *filter.NitrogenFixer {
			continue
		}
		if filter.Native != nil && s.NativeToRegion != *filter.Native {
			continue
		}
		s := s
		matched = append(matched, &s)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CommonName != matched[j].CommonName {
			return matched[i].CommonName < matched[j].CommonName
		}
		return matched[i].ID < matched[j].ID
	})

	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

// GetSpeciesStats counts the library by category, nitrogen fixers and natives
func (m *MemoryStore) GetSpeciesStats(_ context.Context) (*models.SpeciesStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &models.SpeciesStats{ByCategory: make(map[string]int)}
	for _, s := range m.species {
		stats.Total++
		stats.ByCategory[s.Category]++
		if s.NitrogenFixer {
			stats.NitrogenFixers++
		}
		if s.NativeToRegion {
			stats.NativeSpecies++
		}
	}
	return stats, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
