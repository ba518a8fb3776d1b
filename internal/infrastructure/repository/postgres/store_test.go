package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &Store{db: db}, mock, func() { _ = db.Close() }
}

func TestQueryFeeScheduleByCode(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"id", "code", "description", "specialty", "fee", "documentation"}).
		AddRow("fs-1", "A005", "Consultation", "family medicine", 77.20, "Referral note required")

	mock.ExpectQuery("SELECT id, code, description, specialty, fee, documentation FROM fee_schedule").
		WithArgs("A005").
		WillReturnRows(rows)

	hits, err := store.Query(context.Background(), domain.StructuredQuery{
		Table:   "fee_schedule",
		Filters: map[string]any{"code": "A005"},
		Limit:   10,
	})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].RowID != "fs-1" {
		t.Fatalf("expected row id fs-1, got %q", hits[0].RowID)
	}
	if got, ok := hits[0].Float("fee"); !ok || got != 77.20 {
		t.Fatalf("expected fee 77.20, got %v (ok=%v)", got, ok)
	}
	if got := hits[0].String("code"); got != "A005" {
		t.Fatalf("expected code A005, got %q", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestQueryZeroRowsIsSuccess(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, din, name").
		WithArgs("nonexistol").
		WillReturnRows(sqlmock.NewRows([]string{"id", "din", "name", "generic_name", "interchangeable_group", "price", "limited_use", "lu_criteria", "covered"}))

	hits, err := store.Query(context.Background(), domain.StructuredQuery{
		Table:   "odb_formulary",
		Filters: map[string]any{"drug": "nonexistol"},
	})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected empty result, got %d hits", len(hits))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestQueryTimeoutClassified(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, device_type").
		WithArgs("walker").
		WillReturnError(context.DeadlineExceeded)

	_, err := store.Query(context.Background(), domain.StructuredQuery{
		Table:   "adp_funding_rules",
		Filters: map[string]any{"device_type": "walker"},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrQueryTimeout) {
		t.Fatalf("expected ErrQueryTimeout, got %v", err)
	}
}

func TestQueryFailureClassified(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, code").
		WithArgs("A005").
		WillReturnError(errors.New("connection reset"))

	_, err := store.Query(context.Background(), domain.StructuredQuery{
		Table:   "fee_schedule",
		Filters: map[string]any{"code": "A005"},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrQueryFailure) {
		t.Fatalf("expected ErrQueryFailure, got %v", err)
	}
}

func TestQueryRejectsUnknownTable(t *testing.T) {
	store, _, done := newStoreWithMock(t)
	defer done()

	_, err := store.Query(context.Background(), domain.StructuredQuery{
		Table:   "users; DROP TABLE users",
		Filters: map[string]any{"code": "A005"},
	})
	if err == nil {
		t.Fatalf("expected error for unknown table")
	}
	if !domain.IsKind(err, domain.ErrQueryFailure) {
		t.Fatalf("expected ErrQueryFailure, got %v", err)
	}
}

func TestQueryRejectsUnknownFilter(t *testing.T) {
	store, _, done := newStoreWithMock(t)
	defer done()

	_, err := store.Query(context.Background(), domain.StructuredQuery{
		Table:   "fee_schedule",
		Filters: map[string]any{"evil": "1 OR 1=1"},
	})
	if err == nil {
		t.Fatalf("expected error for unknown filter")
	}
}

func TestBuildQueryFilterOrderIsDeterministic(t *testing.T) {
	q := domain.StructuredQuery{
		Table: "fee_schedule",
		Filters: map[string]any{
			"specialty": "cardiology",
			"code":      "A005",
		},
	}

	first, args, _, err := buildQuery(q)
	if err != nil {
		t.Fatalf("buildQuery() error = %v", err)
	}
	for i := 0; i < 20; i++ {
		again, againArgs, _, err := buildQuery(q)
		if err != nil {
			t.Fatalf("buildQuery() error = %v", err)
		}
		if again != first {
			t.Fatalf("query text changed between builds:\n%s\n%s", first, again)
		}
		if len(againArgs) != len(args) || againArgs[0] != args[0] {
			t.Fatalf("argument order changed between builds")
		}
	}
	if args[0] != "A005" {
		t.Fatalf("expected code arg first (sorted keys), got %v", args[0])
	}
}
