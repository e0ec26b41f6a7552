// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package models

import "time"

// CustomerProfile is a named customer record saved by a user for later
// prediction. Profiles are always scoped to their owner.
type CustomerProfile struct {
	ID                int64     `json:"id"`
	UserID            int64     `json:"user_id"`
	Name              string    `json:"name"`
	Sex               string    `json:"sex"`
	Age               int       `json:"age"`
	AnnualIncome      float64   `json:"annual_income"`
	SpendingScore     int       `json:"spending_score"`
	PurchaseFrequency int       `json:"purchase_frequency"`
	Notes             string    `json:"notes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CustomerProfileUpdate carries a partial update. Nil fields are left unchanged.
type CustomerProfileUpdate struct {
	Name              *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Sex               *string  `json:"sex" validate:"omitempty,oneof=Male Female"`
	Age               *int     `json:"age" validate:"omitempty,min=18,max=100"`
	AnnualIncome      *float64 `json:"annual_income" validate:"omitempty,min=0"`
	SpendingScore     *int     `json:"spending_score" validate:"omitempty,min=1,max=100"`
	PurchaseFrequency *int     `json:"purchase_frequency" validate:"omitempty,min=0"`
	Notes             *string  `json:"notes" validate:"omitempty,max=1000"`
}

// Apply copies the non-nil fields of u onto p.
func (u CustomerProfileUpdate) Apply(p *CustomerProfile) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Sex != nil {
		p.Sex = *u.Sex
	}
	if u.Age != nil {
		p.Age = *u.Age
	}
	if u.AnnualIncome != nil {
		p.AnnualIncome = *u.AnnualIncome
	}
	if u.SpendingScore != nil {
		p.SpendingScore = *u.SpendingScore
	}
	if u.PurchaseFrequency != nil {
		p.PurchaseFrequency = *u.PurchaseFrequency
	}
	if u.Notes != nil {
		p.Notes = *u.Notes
	}
}
