// Package db embeds the storefront schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for the products, offers, coupons, and orders
// tables.
//
//go:embed migrations/001_schema.sql
var Schema string
