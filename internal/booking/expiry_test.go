package booking

import (
    "context"
    "regexp"
    "testing"
    "time"

    sqlmock "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

var (
    expiredIDsSQL = regexp.QuoteMeta("SELECT id FROM points WHERE is_used = 0 AND expires_at < ?")
    lockGrantSQL  = regexp.QuoteMeta("FROM points WHERE id = ? FOR UPDATE")
)

func grantRow(id uint64, used bool) *sqlmock.Rows {
    return sqlmock.NewRows([]string{"id", "user_id", "amount", "earned_by_id", "used_by_id",
        "description", "is_used", "expires_at", "created_at"}).
        AddRow(id, 42, 100, nil, nil, "booking abc", used,
            engineNow.Add(-time.Hour), engineNow.AddDate(0, -3, 0))
}

func TestExpireStalePointsShortBatch(t *testing.T) {
    eng, mock, _ := newTestEngine(t)

    mock.ExpectQuery(expiredIDsSQL).
        WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
    mock.ExpectBegin()
    mock.ExpectQuery(lockGrantSQL).WillReturnRows(grantRow(7, false))
    mock.ExpectExec(regexp.QuoteMeta("UPDATE points SET is_used = 1 WHERE id = ?")).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET points_balance = points_balance - ?")).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    expired, err := eng.ExpireStalePoints(context.Background())
    require.NoError(t, err)
    assert.Equal(t, 1, expired)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireStalePointsStopsWithoutProgress(t *testing.T) {
    // A full batch whose grants were all consumed by racing bookings
    // must not be refetched forever; the sweep ends after one pass.
    eng, mock, _ := newTestEngine(t)

    ids := sqlmock.NewRows([]string{"id"})
    for i := 1; i <= expiryBatchSize; i++ {
        ids.AddRow(i)
    }
    mock.ExpectQuery(expiredIDsSQL).WillReturnRows(ids)
    for i := 1; i <= expiryBatchSize; i++ {
        mock.ExpectBegin()
        mock.ExpectQuery(lockGrantSQL).WillReturnRows(grantRow(uint64(i), true))
        mock.ExpectRollback()
    }

    expired, err := eng.ExpireStalePoints(context.Background())
    require.NoError(t, err)
    assert.Zero(t, expired)
    assert.NoError(t, mock.ExpectationsWereMet())
}
