// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package config

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// PasswordPolicy defines requirements for password strength.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigit     bool
	RequireSpecial   bool

	// MaxConsecutiveRepeats is the longest allowed run of one character; 0 disables the check.
	MaxConsecutiveRepeats int

	ForbidCommonPasswords    bool
	ForbidUsernameSimilarity bool
}

// DefaultPasswordPolicy is enforced on the bootstrap admin in production.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:                12,
		RequireUppercase:         true,
		RequireLowercase:         true,
		RequireDigit:             true,
		RequireSpecial:           true,
		MaxConsecutiveRepeats:    3,
		ForbidCommonPasswords:    true,
		ForbidUsernameSimilarity: true,
	}
}

// UserPasswordPolicy applies to self-registered accounts.
func UserPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{MinLength: 6}
}

// Validate returns every rule the password breaks.
func (p PasswordPolicy) Validate(password, username string) []string {
	var problems []string

	if len(password) < p.MinLength {
		problems = append(problems, "must be at least "+strconv.Itoa(p.MinLength)+" characters")
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if p.RequireUppercase && !upper {
		problems = append(problems, "must contain an uppercase letter")
	}
	if p.RequireLowercase && !lower {
		problems = append(problems, "must contain a lowercase letter")
	}
	if p.RequireDigit && !digit {
		problems = append(problems, "must contain a digit")
	}
	if p.RequireSpecial && !special {
		problems = append(problems, "must contain a special character")
	}

	if p.MaxConsecutiveRepeats > 0 && longestRun(password) > p.MaxConsecutiveRepeats {
		problems = append(problems, "must not repeat a character more than "+strconv.Itoa(p.MaxConsecutiveRepeats)+" times in a row")
	}
	if p.ForbidCommonPasswords && commonPasswords[strings.ToLower(password)] {
		problems = append(problems, "is too common")
	}
	if p.ForbidUsernameSimilarity && username != "" &&
		strings.Contains(strings.ToLower(password), strings.ToLower(username)) {
		problems = append(problems, "must not contain the username")
	}
	return problems
}

// ValidateWithError joins Validate's findings into one error, or returns nil.
func (p PasswordPolicy) ValidateWithError(password, username string) error {
	problems := p.Validate(password, username)
	if len(problems) == 0 {
		return nil
	}
	return errors.New("password " + strings.Join(problems, "; "))
}

func longestRun(s string) int {
	best, run := 0, 0
	var last rune
	for i, r := range s {
		if i > 0 && r == last {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
		last = r
	}
	return best
}

var commonPasswords = map[string]bool{
	"password": true, "password1": true, "password123": true, "123456": true,
	"12345678": true, "123456789": true, "qwerty": true, "qwerty123": true,
	"letmein": true, "welcome": true, "admin": true, "admin123": true,
	"administrator": true, "iloveyou": true, "monkey": true, "dragon": true,
	"password!": true, "passw0rd": true, "p@ssw0rd": true, "p@ssword123!": true,
}
