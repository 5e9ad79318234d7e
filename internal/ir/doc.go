// Package ir provides the canonical data types shared by every bookshelf package.
//
// This package contains type definitions, the bounded-bytes validator, and the
// canonical encoding used for content-addressed identity. All other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - BoundedBytes values are immutable and only constructed through Bound
//   - NO float types anywhere - use int64 for numbers
//   - All JSON tags use snake_case
//   - Logical clocks (seq) only, never wall-clock timestamps
package ir
