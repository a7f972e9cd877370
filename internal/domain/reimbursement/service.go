package reimbursement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medinsure/medinsure/internal/platform/cache"
)

var one = decimal.NewFromInt(1)

type Service struct {
	levels LevelRepository
	cache  *cache.Cache
	now    func() time.Time
}

func NewService(levels LevelRepository) *Service {
	return &Service{levels: levels, now: time.Now}
}

// SetCache attaches an optional Redis cache for effective-level lookups.
func (s *Service) SetCache(c *cache.Cache) { s.cache = c }

// SetClock overrides the service clock; used by tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func validateLevel(l *Level) error {
	if l.LevelCode == "" {
		return fmt.Errorf("level_code is required")
	}
	if l.LevelName == "" {
		return fmt.Errorf("level_name is required")
	}
	if l.InsuranceType == "" {
		return fmt.Errorf("insurance_type is required")
	}
	if l.HospitalLevel == "" {
		return fmt.Errorf("hospital_level is required")
	}
	if l.Deductible.IsNegative() {
		return fmt.Errorf("deductible must not be negative")
	}
	if l.MaxReimbursement.IsNegative() {
		return fmt.Errorf("max_reimbursement must not be negative")
	}
	rates := map[string]decimal.Decimal{
		"category_a_rate": l.CategoryARate,
		"category_b_rate": l.CategoryBRate,
		"category_c_rate": l.CategoryCRate,
		"treatment_rate":  l.TreatmentRate,
		"service_rate":    l.ServiceRate,
	}
	for name, r := range rates {
		if r.IsNegative() || r.GreaterThan(one) {
			return fmt.Errorf("%s must be a fraction in [0,1], got %s", name, r)
		}
	}
	if l.EffectiveTime.IsZero() || l.ExpireTime.IsZero() {
		return fmt.Errorf("effective_time and expire_time are required")
	}
	if !l.ExpireTime.After(l.EffectiveTime) {
		return fmt.Errorf("expire_time must be after effective_time")
	}
	if l.Status != StatusEnabled && l.Status != StatusDisabled {
		return fmt.Errorf("invalid level status: %d", l.Status)
	}
	return nil
}

func (s *Service) CreateLevel(ctx context.Context, l *Level) error {
	if err := validateLevel(l); err != nil {
		return err
	}
	if existing, err := s.levels.GetByCode(ctx, l.LevelCode); err == nil && existing != nil {
		return fmt.Errorf("level code already exists: %s", l.LevelCode)
	}
	if err := s.levels.Create(ctx, l); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) GetLevel(ctx context.Context, id uuid.UUID) (*Level, error) {
	return s.levels.GetByID(ctx, id)
}

func (s *Service) UpdateLevel(ctx context.Context, l *Level) error {
	if err := validateLevel(l); err != nil {
		return err
	}
	if existing, err := s.levels.GetByCode(ctx, l.LevelCode); err == nil && existing != nil && existing.ID != l.ID {
		return fmt.Errorf("level code already exists: %s", l.LevelCode)
	}
	if err := s.levels.Update(ctx, l); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) DeleteLevel(ctx context.Context, id uuid.UUID) error {
	if err := s.levels.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) ListLevels(ctx context.Context, filter ListFilter, limit, offset int) ([]*Level, int, error) {
	return s.levels.List(ctx, filter, limit, offset)
}

// CopyLevel duplicates a level under a "_COPY"-suffixed code. The copy starts
// disabled so it never competes with its source until reviewed.
func (s *Service) CopyLevel(ctx context.Context, id uuid.UUID, createBy string) (*Level, error) {
	original, err := s.levels.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading level %s: %w", id, err)
	}

	dup := *original
	dup.ID = uuid.Nil
	dup.LevelCode = original.LevelCode + "_COPY"
	dup.LevelName = original.LevelName + " (copy)"
	dup.Status = StatusDisabled
	dup.CreateBy = &createBy
	dup.UpdateBy = nil
	remark := "copied from " + original.LevelCode
	dup.Remark = &remark

	if existing, err := s.levels.GetByCode(ctx, dup.LevelCode); err == nil && existing != nil {
		return nil, fmt.Errorf("level code already exists: %s", dup.LevelCode)
	}
	if err := s.levels.Create(ctx, &dup); err != nil {
		return nil, err
	}
	return &dup, nil
}

func (s *Service) SetLevelStatus(ctx context.Context, id uuid.UUID, status int, updateBy string) error {
	if status != StatusEnabled && status != StatusDisabled {
		return fmt.Errorf("invalid level status: %d", status)
	}
	if err := s.levels.SetStatus(ctx, id, status, updateBy); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

const effectiveCachePrefix = "levels:effective"

// ListEffective returns the enabled levels whose window contains now,
// read through the Redis cache when one is attached.
func (s *Service) ListEffective(ctx context.Context) ([]*Level, error) {
	if s.cache != nil {
		var cached []*Level
		if err := s.cache.Get(ctx, effectiveCachePrefix, &cached); err == nil {
			return cached, nil
		}
	}
	levels, err := s.levels.ListEffective(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, effectiveCachePrefix, levels)
	}
	return levels, nil
}

// MatchEffective resolves the single level applicable to the given insurance
// type and hospital level right now. Matching itself is delegated to the
// pure Match function.
func (s *Service) MatchEffective(ctx context.Context, insuranceType, hospitalLevel string) (*Level, error) {
	levels, err := s.ListEffective(ctx)
	if err != nil {
		return nil, err
	}
	return Match(insuranceType, hospitalLevel, s.now(), levels)
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.DeletePrefix(ctx, effectiveCachePrefix)
	}
}
