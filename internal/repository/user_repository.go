package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nevermore-backend/internal/entity"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, username, password, COALESCE(first_name, ''),
	COALESCE(last_name, ''), role, COALESCE(avatar, ''), auth_provider,
	email_verified_at, COALESCE(pending_email, ''), created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*entity.User, error) {
	u := &entity.User{}
	var verifiedAt sql.NullTime

	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FirstName,
		&u.LastName, &u.Role, &u.Avatar, &u.AuthProvider, &verifiedAt,
		&u.PendingEmail, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		u.EmailVerifiedAt = &t
	}
	return u, nil
}

func (r *UserRepository) ByID(ctx context.Context, id int64) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrUserNotFound
	}
	return u, err
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrUserNotFound
	}
	return u, err
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username).Scan(&exists)
	return exists, err
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User, passwordHash, verificationToken string, expiresAt time.Time) (int64, error) {
	query := `INSERT INTO users
		(email, username, password, role, auth_provider,
		 email_verification_token, email_verification_expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NOW())`

	res, err := r.db.ExecContext(ctx, query, user.Email, user.Username,
		passwordHash, user.Role, user.AuthProvider, verificationToken, expiresAt)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return res.LastInsertId()
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

func (r *UserRepository) PasswordHash(ctx context.Context, id int64) (string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx, `SELECT password FROM users WHERE id = ?`, id).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", entity.ErrUserNotFound
	}
	return hash, err
}

func (r *UserRepository) SetVerificationToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET email_verification_token = ?, email_verification_expires_at = ? WHERE id = ?`,
		token, expiresAt, userID)
	return err
}

// VerifyByToken marks the matching unexpired user verified and clears the
// token, returning entity.ErrTokenInvalid when nothing matches.
func (r *UserRepository) VerifyByToken(ctx context.Context, token string, now time.Time) (*entity.User, error) {
	var user *entity.User

	err := withTransaction(ctx, r.db, func(tx *sql.Tx) error {
		u, err := scanUser(tx.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users
			 WHERE email_verification_token = ? AND email_verification_expires_at > ?`,
			token, now))
		if errors.Is(err, sql.ErrNoRows) {
			return entity.ErrTokenInvalid
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE users SET email_verified_at = ?, email_verification_token = NULL,
			 email_verification_expires_at = NULL WHERE id = ?`, now, u.ID)
		if err != nil {
			return err
		}

		user = u
		return nil
	})
	return user, err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password = ? WHERE id = ?`, passwordHash, userID)
	return err
}

func (r *UserRepository) UpdateNames(ctx context.Context, userID int64, firstName, lastName *string) error {
	sets := ""
	var args []interface{}
	if firstName != nil {
		sets += "first_name = ?"
		args = append(args, *firstName)
	}
	if lastName != nil {
		if sets != "" {
			sets += ", "
		}
		sets += "last_name = ?"
		args = append(args, *lastName)
	}
	if sets == "" {
		return nil
	}
	args = append(args, userID)

	_, err := r.db.ExecContext(ctx, `UPDATE users SET `+sets+` WHERE id = ?`, args...)
	return err
}

func (r *UserRepository) SetPendingEmail(ctx context.Context, userID int64, pendingEmail, tokenHash string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET pending_email = ?, email_change_token_hash = ?, email_change_expires_at = ? WHERE id = ?`,
		pendingEmail, tokenHash, expiresAt, userID)
	return err
}

// CommitEmailChange swaps pending_email into email for the matching
// unexpired token hash.
func (r *UserRepository) CommitEmailChange(ctx context.Context, tokenHash string, now time.Time) (*entity.User, error) {
	var user *entity.User

	err := withTransaction(ctx, r.db, func(tx *sql.Tx) error {
		u, err := scanUser(tx.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users
			 WHERE email_change_token_hash = ? AND email_change_expires_at > ?
			   AND pending_email IS NOT NULL AND pending_email != ''`,
			tokenHash, now))
		if errors.Is(err, sql.ErrNoRows) {
			return entity.ErrTokenInvalid
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE users SET email = pending_email, pending_email = NULL,
			 email_change_token_hash = NULL, email_change_expires_at = NULL WHERE id = ?`, u.ID)
		if err != nil {
			return err
		}

		// Returned with the old address so callers can revoke its session.
		user = u
		return nil
	})
	return user, err
}

func (r *UserRepository) CountRecentResets(ctx context.Context, email string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM password_resets WHERE email = ? AND created_at > ?`,
		email, since).Scan(&count)
	return count, err
}

func (r *UserRepository) InvalidateResets(ctx context.Context, userID int64, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE password_resets SET used_at = ? WHERE user_id = ? AND used_at IS NULL`,
		now, userID)
	return err
}

func (r *UserRepository) CreateReset(ctx context.Context, reset *entity.PasswordReset) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO password_resets (user_id, email, token_hash, expires_at, created_at, request_ip, user_agent)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		reset.UserID, reset.Email, reset.TokenHash, reset.ExpiresAt,
		reset.CreatedAt, reset.RequestIP, reset.UserAgent)
	if err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}
	return nil
}

func (r *UserRepository) FindReset(ctx context.Context, tokenHash string, now time.Time) (*entity.PasswordReset, error) {
	reset := &entity.PasswordReset{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, email, token_hash, expires_at, created_at
		 FROM password_resets
		 WHERE token_hash = ? AND used_at IS NULL AND expires_at > ?`,
		tokenHash, now).Scan(&reset.ID, &reset.UserID, &reset.Email,
		&reset.TokenHash, &reset.ExpiresAt, &reset.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	return reset, nil
}

// ResetPassword updates the password and burns the reset row atomically.
func (r *UserRepository) ResetPassword(ctx context.Context, resetID, userID int64, passwordHash string) error {
	return withTransaction(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET password = ? WHERE id = ?`, passwordHash, userID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE password_resets SET used_at = NOW() WHERE id = ?`, resetID)
		return err
	})
}
