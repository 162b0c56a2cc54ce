package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mixmaxy/event-ticketing/internal/model"
	"github.com/mixmaxy/event-ticketing/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when no user matches the lookup key.
var ErrUserNotFound = errors.New("user not found")

const userColumns = "id,email,password_hash,role,points_balance,referral_code,is_active,created_at,updated_at"

// Create inserts a user with a freshly generated referral code and
// returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	referral, err := utils.NewReferralCode()
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, referral_code) VALUES (?,?,?,?)",
		email, hash, role, referral)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (r *UserRepo) scanRow(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.PointsBalance,
		&u.ReferralCode, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanRow(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanRow(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByReferralCode fetches a user by their referral code.  It returns
// ErrUserNotFound when the code does not belong to any user.
func (r *UserRepo) GetByReferralCode(ctx context.Context, code string) (model.User, error) {
	u, err := r.scanRow(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE referral_code=? LIMIT 1",
		strings.TrimSpace(code)))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// GetForUpdateTx loads a user inside the given transaction with a
// row-level lock (SELECT ... FOR UPDATE).  The booking engine acquires
// this lock before reading the points balance so that concurrent
// debits against the same user serialize.
func (r *UserRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.User, error) {
	var u model.User
	err := tx.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? FOR UPDATE", id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.PointsBalance,
			&u.ReferralCode, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// AddPointsBalanceTx adjusts the cached points balance by delta inside
// the given transaction.  The conditional WHERE clause refuses any
// update that would take the balance negative; it returns false when
// no row was updated.  Callers must adjust the balance and the point
// grants in the same transaction.
func (r *UserRepo) AddPointsBalanceTx(ctx context.Context, tx *sql.Tx, userID uint64, delta int64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE users SET points_balance = points_balance + ?, updated_at = NOW() WHERE id = ? AND points_balance + ? >= 0",
		delta, userID, delta)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
