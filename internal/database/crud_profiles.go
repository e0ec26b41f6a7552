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
	"time"

	"github.com/tomtom215/segmentus/internal/models"
)

const profileColumns = `id, user_id, name, sex, age, annual_income, spending_score, purchase_frequency, notes, created_at, updated_at`

// Every profile query filters on user_id, so a profile owned by someone
// else is indistinguishable from a missing one and yields ErrProfileNotFound.

// CreateProfile inserts a profile and fills in ID and timestamps.
func (db *DB) CreateProfile(ctx context.Context, p *models.CustomerProfile) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("insert", "customer_profiles", time.Now(), &err)

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `INSERT INTO customer_profiles (
		user_id, name, sex, age, annual_income, spending_score, purchase_frequency, notes, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`
	err = db.conn.QueryRowContext(ctx, query,
		p.UserID, p.Name, p.Sex, p.Age, p.AnnualIncome, p.SpendingScore, p.PurchaseFrequency,
		nullString(p.Notes), p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create customer profile: %w", err)
	}
	return nil
}

// GetProfile retrieves one of userID's profiles.
func (db *DB) GetProfile(ctx context.Context, userID, id int64) (p *models.CustomerProfile, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "customer_profiles", time.Now(), &err)

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM customer_profiles WHERE id = ? AND user_id = ?`, id, userID)
	return scanProfile(row)
}

// ListProfiles returns a page of userID's profiles, newest first.
func (db *DB) ListProfiles(ctx context.Context, userID int64, skip, limit int) (profiles []models.CustomerProfile, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "customer_profiles", time.Now(), &err)

	skip, limit = normalizePage(skip, limit, 100, 1000)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM customer_profiles WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		userID, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer profiles: %w", err)
	}
	defer closeQuietly(rows)

	profiles = make([]models.CustomerProfile, 0)
	for rows.Next() {
		p, scanErr := scanProfile(rows)
		if scanErr != nil {
			err = scanErr
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customer profiles: %w", err)
	}
	return profiles, nil
}

// UpdateProfile applies a partial update to one of userID's profiles.
func (db *DB) UpdateProfile(ctx context.Context, userID, id int64, upd models.CustomerProfileUpdate) (p *models.CustomerProfile, err error) {
	p, err = db.GetProfile(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	upd.Apply(p)
	p.UpdatedAt = time.Now().UTC()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("update", "customer_profiles", time.Now(), &err)

	_, err = db.conn.ExecContext(ctx, `UPDATE customer_profiles SET
			name = ?, sex = ?, age = ?, annual_income = ?, spending_score = ?,
			purchase_frequency = ?, notes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		p.Name, p.Sex, p.Age, p.AnnualIncome, p.SpendingScore,
		p.PurchaseFrequency, nullString(p.Notes), p.UpdatedAt, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update customer profile: %w", err)
	}
	return p, nil
}

// DeleteProfile removes one of userID's profiles.
func (db *DB) DeleteProfile(ctx context.Context, userID, id int64) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("delete", "customer_profiles", time.Now(), &err)

	res, err := db.conn.ExecContext(ctx, `DELETE FROM customer_profiles WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete customer profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrProfileNotFound
		return err
	}
	return nil
}

// CountProfiles returns how many profiles userID has saved.
func (db *DB) CountProfiles(ctx context.Context, userID int64) (n int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "customer_profiles", time.Now(), &err)

	err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM customer_profiles WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count customer profiles: %w", err)
	}
	return n, nil
}

func scanProfile(row rowScanner) (*models.CustomerProfile, error) {
	var p models.CustomerProfile
	var notes sql.NullString
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Sex, &p.Age, &p.AnnualIncome,
		&p.SpendingScore, &p.PurchaseFrequency, &notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to scan customer profile: %w", err)
	}
	p.Notes = notes.String
	return &p, nil
}
