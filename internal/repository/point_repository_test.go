package repository

import (
    "context"
    "regexp"
    "testing"
    "time"

    sqlmock "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

var grantColumns = []string{"id", "user_id", "amount", "earned_by_id", "used_by_id",
    "description", "is_used", "expires_at", "created_at"}

func newPointRepoMock(t *testing.T) (*PointRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    return NewPointRepo(db), mock
}

func TestLiveGrantsIncludeBoundaryInstant(t *testing.T) {
    repo, mock := newPointRepoMock(t)
    now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

    mock.ExpectBegin()
    // A grant expiring exactly now still satisfies expires_at >= now.
    mock.ExpectQuery(regexp.QuoteMeta("is_used = 0 AND expires_at >= ?")).
        WillReturnRows(sqlmock.NewRows(grantColumns).
            AddRow(7, 42, 500, nil, nil, "booking abc", false, now, now.AddDate(0, -3, 0)))

    tx, err := repo.db.Begin()
    require.NoError(t, err)
    grants, err := repo.LiveGrantsTx(context.Background(), tx, 42, now)
    require.NoError(t, err)
    require.Len(t, grants, 1)
    assert.Equal(t, int64(500), grants[0].Amount)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireGrantBoundaryInstantStaysLive(t *testing.T) {
    repo, mock := newPointRepoMock(t)
    now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta("FROM points WHERE id = ? FOR UPDATE")).
        WillReturnRows(sqlmock.NewRows(grantColumns).
            AddRow(7, 42, 500, nil, nil, "booking abc", false, now, now.AddDate(0, -3, 0)))
    mock.ExpectRollback()

    ok, err := repo.ExpireGrant(context.Background(), 7, now)
    require.NoError(t, err)
    assert.False(t, ok)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireGrantPastExpiryRetires(t *testing.T) {
    repo, mock := newPointRepoMock(t)
    now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta("FROM points WHERE id = ? FOR UPDATE")).
        WillReturnRows(sqlmock.NewRows(grantColumns).
            AddRow(7, 42, 500, nil, nil, "booking abc", false, now.Add(-time.Second), now.AddDate(0, -3, 0)))
    mock.ExpectExec(regexp.QuoteMeta("UPDATE points SET is_used = 1 WHERE id = ?")).
        WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET points_balance = points_balance - ?")).
        WithArgs(500, 42).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    ok, err := repo.ExpireGrant(context.Background(), 7, now)
    require.NoError(t, err)
    assert.True(t, ok)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireGrantAlreadyConsumedSkips(t *testing.T) {
    repo, mock := newPointRepoMock(t)
    now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta("FROM points WHERE id = ? FOR UPDATE")).
        WillReturnRows(sqlmock.NewRows(grantColumns).
            AddRow(7, 42, 500, nil, nil, "booking abc", true, now.Add(-time.Hour), now.AddDate(0, -3, 0)))
    mock.ExpectRollback()

    ok, err := repo.ExpireGrant(context.Background(), 7, now)
    require.NoError(t, err)
    assert.False(t, ok)
    assert.NoError(t, mock.ExpectationsWereMet())
}
