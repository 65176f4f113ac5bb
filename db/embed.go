// Package db embeds the storefront schema: catalog items, discounts, taxes
// and orders.
package db

import _ "embed"

// Schema is applied on every start; all statements are idempotent.
//
//go:embed migrations/001_schema.sql
var Schema string
