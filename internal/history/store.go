// Package history persists the income profile and the ordered goal result
// history on top of a pluggable key-value backend.
package history

import (
	"context"
	"encoding/json"
	"sync"

	apperrors "worth-it/internal/common/errors"
	"worth-it/internal/common/logger"
	"worth-it/internal/common/validation"
	"worth-it/internal/models"
)

// Keys of the two persisted records.
const (
	IncomeKey = "income-profile"
	GoalsKey  = "goal-results"
)

// Backend is the key-value capability the store is built on. Values are JSON text.
type Backend interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Store is the sole writer of the persisted records. Read-modify-write cycles
// on the goal list are serialized by mu; concurrent writers on other
// processes sharing the backend are not protected.
type Store struct {
	backend Backend
	logger  logger.Logger
	mu      sync.Mutex
}

func NewStore(backend Backend, log logger.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  log.WithFields(map[string]interface{}{"component": "history"}),
	}
}

// SaveIncome overwrites the stored income profile.
func (s *Store) SaveIncome(ctx context.Context, p models.IncomeProfile) error {
	return s.writeJSON(ctx, IncomeKey, p)
}

// LoadIncome returns the stored profile. Absent, unreadable or invalid records
// all yield ok=false; the failure is logged, never returned.
func (s *Store) LoadIncome(ctx context.Context) (models.IncomeProfile, bool) {
	raw, found := s.read(ctx, IncomeKey)
	if !found {
		return models.IncomeProfile{}, false
	}

	if res := validation.IncomeProfileSchema.ValidateBytes([]byte(raw)); !res.Valid {
		s.logger.Warn("stored income profile is invalid, ignoring", map[string]interface{}{
			"key":    IncomeKey,
			"errors": res.GetErrorMessages(),
		})
		return models.IncomeProfile{}, false
	}

	var p models.IncomeProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.logger.Warn("failed to parse stored income profile", map[string]interface{}{"key": IncomeKey, "error": err})
		return models.IncomeProfile{}, false
	}
	if err := p.Validate(); err != nil {
		s.logger.Warn("stored income profile is out of range, ignoring", map[string]interface{}{"key": IncomeKey, "error": err})
		return models.IncomeProfile{}, false
	}
	return p, true
}

// SaveGoal appends a result to the history. It does not deduplicate by id.
func (s *Store) SaveGoal(ctx context.Context, r models.GoalResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	goals := s.loadGoals(ctx)
	goals = append(goals, r)
	return s.writeJSON(ctx, GoalsKey, goals)
}

// UpdateGoal replaces the first entry with the same id in place. An unknown
// id is a logged no-op and reports updated=false.
func (s *Store) UpdateGoal(ctx context.Context, r models.GoalResult) (updated bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	goals := s.loadGoals(ctx)
	for i := range goals {
		if goals[i].ID == r.ID {
			goals[i] = r
			if err := s.writeJSON(ctx, GoalsKey, goals); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	s.logger.Warn("goal to update not found in history", map[string]interface{}{"goalId": r.ID})
	return false, nil
}

// UpsertGoal replaces the entry with the same id in place, or appends r when
// no entry matches. Lookup and write happen under one lock.
func (s *Store) UpsertGoal(ctx context.Context, r models.GoalResult) (updated bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	goals := s.loadGoals(ctx)
	for i := range goals {
		if goals[i].ID == r.ID {
			goals[i] = r
			updated = true
			break
		}
	}
	if !updated {
		goals = append(goals, r)
	}

	if err := s.writeJSON(ctx, GoalsKey, goals); err != nil {
		return false, err
	}
	return updated, nil
}

// LoadGoals returns the history in stored order, or an empty slice when the
// record is absent, unreadable or invalid.
func (s *Store) LoadGoals(ctx context.Context) []models.GoalResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadGoals(ctx)
}

// FindGoal returns the history entry with the given id.
func (s *Store) FindGoal(ctx context.Context, id string) (models.GoalResult, bool) {
	for _, g := range s.LoadGoals(ctx) {
		if g.ID == id {
			return g, true
		}
	}
	return models.GoalResult{}, false
}

// ClearGoals removes the goal history only.
func (s *Store) ClearGoals(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(ctx, GoalsKey)
}

// ClearAll removes both records unconditionally.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.remove(ctx, IncomeKey); err != nil {
		return err
	}
	return s.remove(ctx, GoalsKey)
}

func (s *Store) loadGoals(ctx context.Context) []models.GoalResult {
	raw, found := s.read(ctx, GoalsKey)
	if !found {
		return []models.GoalResult{}
	}

	if res := validation.GoalResultListSchema.ValidateBytes([]byte(raw)); !res.Valid {
		s.logger.Warn("stored goal history is invalid, ignoring", map[string]interface{}{
			"key":    GoalsKey,
			"errors": res.GetErrorMessages(),
		})
		return []models.GoalResult{}
	}

	var goals []models.GoalResult
	if err := json.Unmarshal([]byte(raw), &goals); err != nil {
		s.logger.Warn("failed to parse stored goal history", map[string]interface{}{"key": GoalsKey, "error": err})
		return []models.GoalResult{}
	}
	if goals == nil {
		goals = []models.GoalResult{}
	}
	return goals
}

func (s *Store) read(ctx context.Context, key string) (string, bool) {
	raw, found, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.Warn("storage read failed, treating record as absent", map[string]interface{}{
			"key":   key,
			"error": apperrors.NewStorageReadFailedError(key, err),
		})
		return "", false
	}
	return raw, found
}

func (s *Store) writeJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.backend.Set(ctx, key, string(data)); err != nil {
		return apperrors.NewStorageWriteFailedError(key, err)
	}
	s.logger.Debug("record written", map[string]interface{}{"key": key, "bytes": len(data)})
	return nil
}

func (s *Store) remove(ctx context.Context, key string) error {
	if err := s.backend.Remove(ctx, key); err != nil {
		return apperrors.NewStorageWriteFailedError(key, err)
	}
	return nil
}
