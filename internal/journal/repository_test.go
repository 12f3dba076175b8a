package journal

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*SQLiteRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteRepository(db), mock, db
}

func TestRepository_UpsertVault_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+vaults`).
		WithArgs("/a.vault", "A", "f", sqlmock.AnyArg()).
		WillReturnError(errors.New("disk I/O error"))

	err := repo.UpsertVault(context.Background(), Vault{Path: "/a.vault", Name: "A", Fingerprint: "f", LastUsed: time.Now()})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`failed to upsert vault /a.vault: disk I/O error`), err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Recent_QueryError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT\s+path`).WillReturnError(errors.New("db down"))

	_, err := repo.Recent(context.Background(), 5)
	require.ErrorContains(t, err, "failed to list vaults")
}

func TestRepository_Recent_ScanError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"path", "name", "fingerprint", "last_used"}).
		AddRow("/a.vault", "A", "f", "not-a-number")
	mock.ExpectQuery(`SELECT\s+path`).WithArgs(5).WillReturnRows(rows)

	_, err := repo.Recent(context.Background(), 5)
	require.ErrorContains(t, err, "failed to scan vault row")
}

func TestRepository_Events_RowError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"id", "vault_path", "name", "fingerprint", "op", "outcome", "at"}).
		AddRow(1, "/a.vault", "A", "f", OpOpen, "none", int64(1)).
		RowError(0, errors.New("row broke"))
	mock.ExpectQuery(`(?s)SELECT\s+e\.id`).WithArgs("/a.vault", 3).WillReturnRows(rows)

	_, err := repo.Events(context.Background(), "/a.vault", 3)
	require.ErrorContains(t, err, "failed to iterate event rows")
}

func TestRepository_DeleteVault_StopsOnFirstError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(`DELETE\s+FROM\s+events`).WithArgs("/a.vault").WillReturnError(errors.New("locked"))

	err := repo.DeleteVault(context.Background(), "/a.vault")
	require.ErrorContains(t, err, "failed to delete events for /a.vault")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJournal_Record_RollsBackOnEventFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)INSERT\s+INTO\s+vaults`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT\s+INTO\s+events`).WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	j := New(db, logging.NewNop())
	err = j.Record(context.Background(), Event{VaultPath: "/a.vault", Op: OpSave, Outcome: "none", At: time.Unix(1, 0)})
	require.ErrorContains(t, err, "failed to insert event")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJournal_Record_CommitsBothRows(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	ts := time.Unix(100, 5)
	mock.ExpectBegin()
	mock.ExpectExec(`(?s)INSERT\s+INTO\s+vaults`).
		WithArgs("/a.vault", "A", "fp", ts.UnixNano()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT\s+INTO\s+events`).
		WithArgs("/a.vault", OpOpen, "none", ts.UnixNano()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	j := New(db, logging.NewNop())
	require.NoError(t, j.Record(context.Background(), Event{
		VaultPath: "/a.vault", VaultName: "A", Fingerprint: "fp", Op: OpOpen, Outcome: "none", At: ts,
	}))
	require.NoError(t, mock.ExpectationsWereMet())
}
