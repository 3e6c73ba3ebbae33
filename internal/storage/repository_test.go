package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bilancio/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testRecord(id, subject string, cents int64, kind core.Kind, occurred time.Time) core.TransactionRecord {
	return core.TransactionRecord{
		OriginalID:     id,
		SubjectID:      subject,
		Description:    "test " + id,
		Amount:         core.Money{Cents: cents},
		Kind:           kind,
		Category:       "misc",
		OccurredAt:     occurred,
		Status:         core.StatusCompleted,
		LastModifiedAt: occurred,
		SyncedAt:       occurred.Add(time.Hour),
	}
}

func TestInsertAndGetByOriginalID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	occurred := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	want := testRecord("tx-1", "u1", 4500, core.Expense, occurred)
	if err := repo.Insert(ctx, want); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := repo.GetByOriginalID(ctx, "tx-1", "u1")
	if err != nil {
		t.Fatalf("GetByOriginalID() error = %v", err)
	}
	if got.OriginalID != "tx-1" || got.SubjectID != "u1" {
		t.Errorf("identity = %s/%s", got.OriginalID, got.SubjectID)
	}
	if got.Amount.Cents != 4500 || got.Kind != core.Expense || got.Category != "misc" {
		t.Errorf("record = %+v", got)
	}
	if !got.OccurredAt.Equal(occurred) {
		t.Errorf("OccurredAt = %v, want %v", got.OccurredAt, occurred)
	}
	if !got.SyncedAt.Equal(occurred.Add(time.Hour)) {
		t.Errorf("SyncedAt = %v", got.SyncedAt)
	}
}

func TestGetByOriginalIDNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetByOriginalID(context.Background(), "missing", "u1")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("GetByOriginalID() error = %v, want ErrNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	occurred := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	rec := testRecord("tx-1", "u1", 4500, core.Expense, occurred)
	if err := repo.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	rec.Amount = core.Money{Cents: 9900}
	rec.LastModifiedAt = occurred.AddDate(0, 0, 1)
	if err := repo.Update(ctx, rec); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByOriginalID(ctx, "tx-1", "u1")
	if err != nil {
		t.Fatalf("GetByOriginalID() error = %v", err)
	}
	if got.Amount.Cents != 9900 {
		t.Errorf("Amount = %d, want 9900", got.Amount.Cents)
	}
	if !got.LastModifiedAt.Equal(occurred.AddDate(0, 0, 1)) {
		t.Errorf("LastModifiedAt = %v", got.LastModifiedAt)
	}
}

func TestUpdateMissingRecord(t *testing.T) {
	repo := newTestRepo(t)

	rec := testRecord("tx-ghost", "u1", 100, core.Expense, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	err := repo.Update(context.Background(), rec)
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestFindWindowAndStatusFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	march := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	april := time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)

	records := []core.TransactionRecord{
		testRecord("tx-1", "u1", 4500, core.Expense, march),
		testRecord("tx-2", "u1", 300000, core.Income, march.AddDate(0, 0, 5)),
		testRecord("tx-3", "u1", 1200, core.Expense, april),
		testRecord("tx-4", "u2", 9999, core.Expense, march),
	}
	pending := testRecord("tx-5", "u1", 777, core.Expense, march)
	pending.Status = core.StatusPending
	records = append(records, pending)

	for _, rec := range records {
		if err := repo.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert(%s) error = %v", rec.OriginalID, err)
		}
	}

	from, to := core.MonthlyKey("u1", 2025, 3).Window()

	t.Run("completed only", func(t *testing.T) {
		got, err := repo.Find(ctx, "u1", from, to, core.StatusCompleted)
		if err != nil {
			t.Fatalf("Find() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		// Newest first.
		if got[0].OriginalID != "tx-2" || got[1].OriginalID != "tx-1" {
			t.Errorf("order = %s, %s", got[0].OriginalID, got[1].OriginalID)
		}
	})

	t.Run("no status filter", func(t *testing.T) {
		got, err := repo.Find(ctx, "u1", from, to, "")
		if err != nil {
			t.Fatalf("Find() error = %v", err)
		}
		if len(got) != 3 {
			t.Errorf("len = %d, want 3 (pending included)", len(got))
		}
	})

	t.Run("empty window", func(t *testing.T) {
		emptyFrom, emptyTo := core.MonthlyKey("u1", 2025, 1).Window()
		got, err := repo.Find(ctx, "u1", emptyFrom, emptyTo, core.StatusCompleted)
		if err != nil {
			t.Fatalf("Find() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("len = %d, want 0", len(got))
		}
	})
}

func TestDuplicateOriginalIDRejected(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	occurred := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	rec := testRecord("tx-1", "u1", 4500, core.Expense, occurred)
	if err := repo.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := repo.Insert(ctx, rec); err == nil {
		t.Fatal("duplicate Insert() = nil error, want unique constraint violation")
	}

	// The same original id under another subject is a different copy.
	rec.SubjectID = "u2"
	if err := repo.Insert(ctx, rec); err != nil {
		t.Errorf("Insert() for other subject error = %v", err)
	}
}

func TestCountBySubject(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	occurred := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	for i, subject := range []string{"u1", "u1", "u2"} {
		rec := testRecord("tx-"+string(rune('a'+i)), subject, 100, core.Expense, occurred)
		if err := repo.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	count, err := repo.CountBySubject(ctx, "u1")
	if err != nil {
		t.Fatalf("CountBySubject() error = %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestMostRecentSyncedAt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("nothing synced", func(t *testing.T) {
		got, err := repo.MostRecentSyncedAt(ctx, "u1")
		if err != nil {
			t.Fatalf("MostRecentSyncedAt() error = %v", err)
		}
		if !got.IsZero() {
			t.Errorf("got %v, want zero time", got)
		}
	})

	t.Run("newest stamp wins", func(t *testing.T) {
		older := testRecord("tx-1", "u1", 100, core.Expense, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
		older.SyncedAt = time.Date(2025, 3, 18, 8, 0, 0, 0, time.UTC)
		newer := testRecord("tx-2", "u1", 200, core.Expense, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC))
		newer.SyncedAt = time.Date(2025, 3, 19, 8, 0, 0, 0, time.UTC)

		for _, rec := range []core.TransactionRecord{older, newer} {
			if err := repo.Insert(ctx, rec); err != nil {
				t.Fatalf("Insert() error = %v", err)
			}
		}

		got, err := repo.MostRecentSyncedAt(ctx, "u1")
		if err != nil {
			t.Fatalf("MostRecentSyncedAt() error = %v", err)
		}
		if !got.Equal(newer.SyncedAt) {
			t.Errorf("got %v, want %v", got, newer.SyncedAt)
		}
	})
}

func TestProfileRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetProfile(ctx, "u1")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("GetProfile() error = %v, want ErrNotFound", err)
	}

	p := core.Profile{
		SubjectID:     "u1",
		Name:          "Anna",
		Email:         "anna@example.com",
		Currency:      "EUR",
		MonthlyIncome: core.Money{Cents: 300000},
		SyncedAt:      time.Date(2025, 3, 19, 8, 0, 0, 0, time.UTC),
	}
	if err := repo.SaveProfile(ctx, p); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}

	got, err := repo.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if got.Name != "Anna" || got.MonthlyIncome.Cents != 300000 {
		t.Errorf("profile = %+v", got)
	}

	// Upsert replaces the existing row.
	p.Name = "Anna B"
	if err := repo.SaveProfile(ctx, p); err != nil {
		t.Fatalf("SaveProfile() upsert error = %v", err)
	}
	got, err = repo.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if got.Name != "Anna B" {
		t.Errorf("Name = %q, want updated value", got.Name)
	}
}
