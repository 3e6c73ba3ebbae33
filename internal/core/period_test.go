package core

import (
	"errors"
	"testing"
	"time"
)

func TestPeriodKeyValidate(t *testing.T) {
	tests := []struct {
		name    string
		key     PeriodKey
		wantErr error
	}{
		{"valid monthly", MonthlyKey("u1", 2025, 3), nil},
		{"valid yearly", YearlyKey("u1", 2025), nil},
		{"empty subject", MonthlyKey("", 2025, 3), ErrEmptySubject},
		{"month zero", MonthlyKey("u1", 2025, 0), ErrInvalidPeriod},
		{"month thirteen", MonthlyKey("u1", 2025, 13), ErrInvalidPeriod},
		{"year too small", MonthlyKey("u1", 1969, 1), ErrInvalidPeriod},
		{"year too large", YearlyKey("u1", 10000), ErrInvalidPeriod},
		{"yearly with month", PeriodKey{SubjectID: "u1", Granularity: Yearly, Year: 2025, Month: 4}, ErrInvalidPeriod},
		{"unknown granularity", PeriodKey{SubjectID: "u1", Granularity: "weekly", Year: 2025}, ErrInvalidPeriod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPeriodKeyString(t *testing.T) {
	monthly := MonthlyKey("u1", 2025, 3)
	if got := monthly.String(); got != "u1|monthly|2025|03" {
		t.Errorf("monthly String() = %q", got)
	}

	yearly := YearlyKey("u1", 2025)
	if got := yearly.String(); got != "u1|yearly|2025" {
		t.Errorf("yearly String() = %q", got)
	}
}

func TestPeriodKeyWindow(t *testing.T) {
	t.Run("regular month", func(t *testing.T) {
		start, end := MonthlyKey("u1", 2025, 3).Window()
		if !start.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("start = %v", start)
		}
		if !end.Equal(time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)) {
			t.Errorf("end = %v", end)
		}
	})

	t.Run("leap february", func(t *testing.T) {
		_, end := MonthlyKey("u1", 2024, 2).Window()
		if !end.Equal(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)) {
			t.Errorf("end = %v", end)
		}
	})

	t.Run("yearly", func(t *testing.T) {
		start, end := YearlyKey("u1", 2025).Window()
		if !start.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("start = %v", start)
		}
		if !end.Equal(time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)) {
			t.Errorf("end = %v", end)
		}
	})
}

func TestPeriodKeyPrevious(t *testing.T) {
	tests := []struct {
		name string
		key  PeriodKey
		want PeriodKey
	}{
		{"mid-year month", MonthlyKey("u1", 2025, 3), MonthlyKey("u1", 2025, 2)},
		{"january wraps to december", MonthlyKey("u1", 2025, 1), MonthlyKey("u1", 2024, 12)},
		{"yearly", YearlyKey("u1", 2025), YearlyKey("u1", 2024)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.Previous(); got != tt.want {
				t.Errorf("Previous() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSubjectPrefix(t *testing.T) {
	prefix := SubjectPrefix("u1")
	for _, key := range []PeriodKey{MonthlyKey("u1", 2025, 3), YearlyKey("u1", 2025)} {
		if got := key.String(); len(got) < len(prefix) || got[:len(prefix)] != prefix {
			t.Errorf("key %q does not start with prefix %q", got, prefix)
		}
	}
	// Prefix must not match a different subject that shares leading characters.
	other := MonthlyKey("u12", 2025, 3).String()
	if other[:len(prefix)] == prefix {
		t.Errorf("prefix %q wrongly matches %q", prefix, other)
	}
}
