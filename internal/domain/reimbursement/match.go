package reimbursement

import (
	"fmt"
	"time"
)

// NoMatchingLevelError indicates no enabled level covers the given insurance
// type and hospital level at the requested time.
type NoMatchingLevelError struct {
	InsuranceType string
	HospitalLevel string
	AsOf          time.Time
}

func (e *NoMatchingLevelError) Error() string {
	return fmt.Sprintf("no effective reimbursement level for insurance type %q, hospital level %q at %s",
		e.InsuranceType, e.HospitalLevel, e.AsOf.Format(time.RFC3339))
}

// AmbiguousLevelError indicates several effective levels match and share the
// same effective time, so no deterministic winner exists.
type AmbiguousLevelError struct {
	InsuranceType string
	HospitalLevel string
	LevelCodes    []string
}

func (e *AmbiguousLevelError) Error() string {
	return fmt.Sprintf("ambiguous reimbursement levels for insurance type %q, hospital level %q: %v",
		e.InsuranceType, e.HospitalLevel, e.LevelCodes)
}

// Match selects the single level applicable to (insuranceType, hospitalLevel)
// at asOf. Candidates must be enabled and have asOf inside their validity
// window. When several candidates remain, the one with the latest effective
// time wins; an exact effective-time tie is reported as ambiguous rather
// than resolved arbitrarily.
//
// Match is a pure function: it never consults a clock or storage.
func Match(insuranceType, hospitalLevel string, asOf time.Time, levels []*Level) (*Level, error) {
	var best *Level
	tied := false
	var tiedCodes []string

	for _, l := range levels {
		if l.InsuranceType != insuranceType || l.HospitalLevel != hospitalLevel {
			continue
		}
		if !l.IsEffective(asOf) {
			continue
		}
		switch {
		case best == nil:
			best = l
		case l.EffectiveTime.After(best.EffectiveTime):
			best = l
			tied = false
		case l.EffectiveTime.Equal(best.EffectiveTime):
			if !tied {
				tiedCodes = []string{best.LevelCode}
				tied = true
			}
			tiedCodes = append(tiedCodes, l.LevelCode)
		}
	}

	if best == nil {
		return nil, &NoMatchingLevelError{
			InsuranceType: insuranceType,
			HospitalLevel: hospitalLevel,
			AsOf:          asOf,
		}
	}
	if tied {
		return nil, &AmbiguousLevelError{
			InsuranceType: insuranceType,
			HospitalLevel: hospitalLevel,
			LevelCodes:    tiedCodes,
		}
	}
	return best, nil
}
