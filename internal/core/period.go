package core

import (
	"errors"
	"fmt"
	"time"
)

const (
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

// Granularity is the unit of aggregation: a calendar month or a calendar year.
type Granularity string

// ErrInvalidPeriod marks a malformed period request (month outside 1-12,
// nonsensical year). It is rejected before any aggregation runs.
var ErrInvalidPeriod = errors.New("invalid period")

// PeriodKey identifies one aggregate: a subject plus a calendar window.
// Month is zero when the granularity is yearly.
type PeriodKey struct {
	SubjectID   string
	Granularity Granularity
	Year        int
	Month       int
}

// MonthlyKey builds the key for one calendar month.
func MonthlyKey(subjectID string, year, month int) PeriodKey {
	return PeriodKey{SubjectID: subjectID, Granularity: Monthly, Year: year, Month: month}
}

// YearlyKey builds the key for a full calendar year.
func YearlyKey(subjectID string, year int) PeriodKey {
	return PeriodKey{SubjectID: subjectID, Granularity: Yearly, Year: year}
}

func (k PeriodKey) Validate() error {
	if k.SubjectID == "" {
		return ErrEmptySubject
	}
	if k.Year < 1970 || k.Year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, k.Year)
	}
	switch k.Granularity {
	case Monthly:
		if k.Month < 1 || k.Month > 12 {
			return fmt.Errorf("%w: month %d", ErrInvalidPeriod, k.Month)
		}
	case Yearly:
		if k.Month != 0 {
			return fmt.Errorf("%w: yearly key with month %d", ErrInvalidPeriod, k.Month)
		}
	default:
		return fmt.Errorf("%w: granularity %q", ErrInvalidPeriod, k.Granularity)
	}
	return nil
}

// String renders the cache identity, e.g. "u1|monthly|2025|03" or
// "u1|yearly|2025".
func (k PeriodKey) String() string {
	if k.Granularity == Monthly {
		return fmt.Sprintf("%s|%s|%04d|%02d", k.SubjectID, k.Granularity, k.Year, k.Month)
	}
	return fmt.Sprintf("%s|%s|%04d", k.SubjectID, k.Granularity, k.Year)
}

// SubjectPrefix is the leading portion shared by every key of one subject.
// Used to invalidate all of a subject's cache entries at once.
func SubjectPrefix(subjectID string) string {
	return subjectID + "|"
}

// Window returns the inclusive [start, end] bounds of the period in UTC.
// Monthly windows run from the first of the month at 00:00:00 to the last
// day at 23:59:59; the month length arithmetic is delegated to time.Date,
// so leap Februaries come out right.
func (k PeriodKey) Window() (start, end time.Time) {
	switch k.Granularity {
	case Monthly:
		start = time.Date(k.Year, time.Month(k.Month), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0).Add(-time.Second)
	default:
		start = time.Date(k.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(k.Year, time.December, 31, 23, 59, 59, 0, time.UTC)
	}
	return start, end
}

// Previous returns the immediately preceding period: the prior calendar
// month (December of year-1 for January) or the prior year.
func (k PeriodKey) Previous() PeriodKey {
	if k.Granularity == Monthly {
		if k.Month == 1 {
			return MonthlyKey(k.SubjectID, k.Year-1, 12)
		}
		return MonthlyKey(k.SubjectID, k.Year, k.Month-1)
	}
	return YearlyKey(k.SubjectID, k.Year-1)
}
