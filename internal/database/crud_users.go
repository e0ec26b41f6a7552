// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/segmentus/internal/logging"
	"github.com/tomtom215/segmentus/internal/models"
)

const userColumns = `id, email, username, full_name, hashed_password, role, is_active, created_at, updated_at`

// CreateUser inserts a user and fills in ID and timestamps. Role defaults
// to user. Duplicate usernames and emails return ErrUsernameTaken and
// ErrEmailTaken respectively.
func (db *DB) CreateUser(ctx context.Context, user *models.User) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("insert", "users", time.Now(), &err)

	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if !models.IsValidRole(user.Role) {
		return fmt.Errorf("invalid role %q", user.Role)
	}
	if err := db.checkUserConflicts(ctx, 0, &user.Username, &user.Email); err != nil {
		return err
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `INSERT INTO users (email, username, full_name, hashed_password, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`
	err = db.conn.QueryRowContext(ctx, query,
		user.Email, user.Username, nullString(user.FullName), user.HashedPassword,
		user.Role, user.IsActive, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return uniqueViolation(err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by primary key.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return db.getUser(ctx, "id = ?", id)
}

// GetUserByUsername retrieves a user by username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.getUser(ctx, "username = ?", username)
}

// GetUserByEmail retrieves a user by email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.getUser(ctx, "email = ?", email)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (user *models.User, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "users", time.Now(), &err)

	row := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	return scanUser(row)
}

// UpdateUser applies a partial update and returns the stored row. A
// username or email owned by another user is rejected.
func (db *DB) UpdateUser(ctx context.Context, id int64, upd models.UserUpdate) (user *models.User, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("update", "users", time.Now(), &err)

	current, err := scanUser(db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}

	// DuckDB rewrites updates of indexed columns as delete+insert, so
	// unchanged unique columns are left out of the SET list.
	if upd.Username != nil && *upd.Username == current.Username {
		upd.Username = nil
	}
	if upd.Email != nil && *upd.Email == current.Email {
		upd.Email = nil
	}
	if err := db.checkUserConflicts(ctx, id, upd.Username, upd.Email); err != nil {
		return nil, err
	}

	var sets []string
	var args []any
	if upd.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *upd.Username)
	}
	if upd.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *upd.Email)
	}
	if upd.FullName != nil {
		sets = append(sets, "full_name = ?")
		args = append(args, nullString(*upd.FullName))
	}
	if upd.HashedPassword != nil {
		sets = append(sets, "hashed_password = ?")
		args = append(args, *upd.HashedPassword)
	}
	if len(sets) == 0 {
		return current, nil
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if _, err = db.conn.ExecContext(ctx, query, args...); err != nil {
		if isUniqueConstraintError(err) {
			return nil, uniqueViolation(err)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return scanUser(db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// SetUserRole changes a user's role.
func (db *DB) SetUserRole(ctx context.Context, id int64, role string) (*models.User, error) {
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	return db.setUserColumn(ctx, id, "role", role)
}

// SetUserActive enables or disables a user.
func (db *DB) SetUserActive(ctx context.Context, id int64, active bool) (*models.User, error) {
	return db.setUserColumn(ctx, id, "is_active", active)
}

// setUserColumn updates one non-unique column. column is never user input.
func (db *DB) setUserColumn(ctx context.Context, id int64, column string, value any) (user *models.User, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("update", "users", time.Now(), &err)

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET `+column+` = ?, updated_at = ? WHERE id = ?`, value, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrUserNotFound
	}
	return scanUser(db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// DeleteUser removes a user together with their profiles and prediction
// history in a single transaction.
func (db *DB) DeleteUser(ctx context.Context, id int64) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("delete", "users", time.Now(), &err)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logging.Error().
					Err(rbErr).
					AnErr("original_error", err).
					Msg("Transaction rollback failed")
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM prediction_history WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete prediction history: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM customer_profiles WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete customer profiles: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrUserNotFound
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user deletion: %w", err)
	}
	return nil
}

// ListUsers returns a page of users ordered by id plus the total count.
func (db *DB) ListUsers(ctx context.Context, skip, limit int) (users []models.User, total int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "users", time.Now(), &err)

	skip, limit = normalizePage(skip, limit, 100, 1000)

	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer closeQuietly(rows)

	users = make([]models.User, 0, limit)
	for rows.Next() {
		u, scanErr := scanUser(rows)
		if scanErr != nil {
			err = scanErr
			return nil, 0, err
		}
		users = append(users, *u)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, total, nil
}

// GetUserStats returns the admin dashboard aggregates.
func (db *DB) GetUserStats(ctx context.Context) (stats *models.UserStats, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "users", time.Now(), &err)

	stats = &models.UserStats{UsersByRole: make(map[string]int64, len(models.ValidRoles))}
	for _, role := range models.ValidRoles {
		stats.UsersByRole[role] = 0
	}

	err = db.conn.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			(SELECT COUNT(*) FROM prediction_history),
			(SELECT COUNT(*) FROM customer_profiles)
		FROM users`).Scan(&stats.TotalUsers, &stats.ActiveUsers, &stats.TotalPredictions, &stats.TotalProfiles)
	if err != nil {
		return nil, fmt.Errorf("failed to compute user stats: %w", err)
	}
	stats.InactiveUsers = stats.TotalUsers - stats.ActiveUsers

	rows, err := db.conn.QueryContext(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("failed to count users by role: %w", err)
	}
	defer closeQuietly(rows)
	for rows.Next() {
		var role string
		var n int64
		if err = rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("failed to scan role count: %w", err)
		}
		stats.UsersByRole[role] = n
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate role counts: %w", err)
	}
	return stats, nil
}

// checkUserConflicts reports whether username or email already belongs to
// a user other than selfID. Nil pointers are skipped.
func (db *DB) checkUserConflicts(ctx context.Context, selfID int64, username, email *string) error {
	if username != nil {
		var id int64
		err := db.conn.QueryRowContext(ctx, `SELECT id FROM users WHERE username = ?`, *username).Scan(&id)
		switch {
		case err == nil && id != selfID:
			return ErrUsernameTaken
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("failed to check username: %w", err)
		}
	}
	if email != nil {
		var id int64
		err := db.conn.QueryRowContext(ctx, `SELECT id FROM users WHERE email = ?`, *email).Scan(&id)
		switch {
		case err == nil && id != selfID:
			return ErrEmailTaken
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("failed to check email: %w", err)
		}
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var fullName sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.Username, &fullName, &u.HashedPassword,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.FullName = fullName.String
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
