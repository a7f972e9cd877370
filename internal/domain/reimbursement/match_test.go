package reimbursement

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func effectiveLevel(code, insuranceType, hospitalLevel string, effective time.Time) *Level {
	return &Level{
		ID:            uuid.New(),
		LevelCode:     code,
		LevelName:     code,
		InsuranceType: insuranceType,
		HospitalLevel: hospitalLevel,
		Status:        StatusEnabled,
		EffectiveTime: effective,
		ExpireTime:    effective.AddDate(5, 0, 0),
	}
}

func TestMatch_SingleEffectiveLevel(t *testing.T) {
	levels := []*Level{
		effectiveLevel("LV001", "城镇职工", "三级", baseTime.AddDate(-1, 0, 0)),
	}

	got, err := Match("城镇职工", "三级", baseTime, levels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.LevelCode != "LV001" {
		t.Errorf("expected LV001, got %s", got.LevelCode)
	}
}

func TestMatch_NoMatch(t *testing.T) {
	levels := []*Level{
		effectiveLevel("LV001", "城镇职工", "三级", baseTime.AddDate(-1, 0, 0)),
	}

	_, err := Match("城乡居民", "三级", baseTime, levels)
	var noMatch *NoMatchingLevelError
	if !errors.As(err, &noMatch) {
		t.Fatalf("expected NoMatchingLevelError, got %v", err)
	}
	if noMatch.InsuranceType != "城乡居民" {
		t.Errorf("unexpected insurance type in error: %s", noMatch.InsuranceType)
	}
}

func TestMatch_SkipsDisabledLevel(t *testing.T) {
	disabled := effectiveLevel("LV001", "城镇职工", "三级", baseTime.AddDate(-1, 0, 0))
	disabled.Status = StatusDisabled

	_, err := Match("城镇职工", "三级", baseTime, []*Level{disabled})
	var noMatch *NoMatchingLevelError
	if !errors.As(err, &noMatch) {
		t.Fatalf("expected NoMatchingLevelError for disabled level, got %v", err)
	}
}

func TestMatch_SkipsExpiredLevel(t *testing.T) {
	expired := effectiveLevel("LV001", "城镇职工", "三级", baseTime.AddDate(-10, 0, 0))
	expired.ExpireTime = baseTime.AddDate(-1, 0, 0)

	_, err := Match("城镇职工", "三级", baseTime, []*Level{expired})
	var noMatch *NoMatchingLevelError
	if !errors.As(err, &noMatch) {
		t.Fatalf("expected NoMatchingLevelError for expired level, got %v", err)
	}
}

func TestMatch_SkipsNotYetEffectiveLevel(t *testing.T) {
	future := effectiveLevel("LV001", "城镇职工", "三级", baseTime.AddDate(0, 1, 0))

	_, err := Match("城镇职工", "三级", baseTime, []*Level{future})
	var noMatch *NoMatchingLevelError
	if !errors.As(err, &noMatch) {
		t.Fatalf("expected NoMatchingLevelError for future level, got %v", err)
	}
}

func TestMatch_LatestEffectiveTimeWins(t *testing.T) {
	older := effectiveLevel("LV-OLD", "城镇职工", "三级", baseTime.AddDate(-2, 0, 0))
	newer := effectiveLevel("LV-NEW", "城镇职工", "三级", baseTime.AddDate(-1, 0, 0))

	got, err := Match("城镇职工", "三级", baseTime, []*Level{older, newer})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.LevelCode != "LV-NEW" {
		t.Errorf("expected the later effective level LV-NEW, got %s", got.LevelCode)
	}

	// Order of the candidate slice must not matter.
	got, err = Match("城镇职工", "三级", baseTime, []*Level{newer, older})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.LevelCode != "LV-NEW" {
		t.Errorf("expected LV-NEW regardless of input order, got %s", got.LevelCode)
	}
}

func TestMatch_ExactTieIsAmbiguous(t *testing.T) {
	effective := baseTime.AddDate(-1, 0, 0)
	a := effectiveLevel("LV-A", "城镇职工", "三级", effective)
	b := effectiveLevel("LV-B", "城镇职工", "三级", effective)

	_, err := Match("城镇职工", "三级", baseTime, []*Level{a, b})
	var ambiguous *AmbiguousLevelError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected AmbiguousLevelError, got %v", err)
	}
	if len(ambiguous.LevelCodes) != 2 {
		t.Errorf("expected 2 tied codes, got %v", ambiguous.LevelCodes)
	}
}

func TestMatch_TieBrokenByLaterCandidate(t *testing.T) {
	effective := baseTime.AddDate(-2, 0, 0)
	a := effectiveLevel("LV-A", "城镇职工", "三级", effective)
	b := effectiveLevel("LV-B", "城镇职工", "三级", effective)
	winner := effectiveLevel("LV-WIN", "城镇职工", "三级", baseTime.AddDate(-1, 0, 0))

	// A later level resolves an earlier tie.
	got, err := Match("城镇职工", "三级", baseTime, []*Level{a, b, winner})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.LevelCode != "LV-WIN" {
		t.Errorf("expected LV-WIN, got %s", got.LevelCode)
	}
}

func TestMatch_WindowBoundsInclusive(t *testing.T) {
	l := effectiveLevel("LV001", "城镇职工", "三级", baseTime)
	l.ExpireTime = baseTime.AddDate(1, 0, 0)

	if _, err := Match("城镇职工", "三级", l.EffectiveTime, []*Level{l}); err != nil {
		t.Errorf("expected match at effective_time, got %v", err)
	}
	if _, err := Match("城镇职工", "三级", l.ExpireTime, []*Level{l}); err != nil {
		t.Errorf("expected match at expire_time, got %v", err)
	}
}
