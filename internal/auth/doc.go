// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

/*
Package auth provides authentication for the Segmentus HTTP API.

Components:
  - JWTManager: HS256 access tokens carrying user id, role and a unique JTI
  - HashPassword / CheckPassword: bcrypt password hashing
  - RevocationStore: logged-out token JTIs kept until the token would expire
    (BadgerDB in production, in-memory for tests)
  - Middleware: resolves the bearer token or "token" cookie into Claims
  - RateLimiter: per-key token buckets for login attempts

Authorization (which role may do what) lives in internal/authz.

Auth modes:
  - jwt: every protected route requires a valid, unrevoked token for an
    active user
  - none: development only; requests run as an anonymous admin
*/
package auth
