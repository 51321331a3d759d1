// Package db embeds the trade service schema so the server and the seed tool
// can migrate without shipping SQL files alongside the binary.
package db

import _ "embed"

// Schema holds the idempotent DDL for the trade tables (addresses, catalog
// variants, coupon cards, order headers and lines).
//
//go:embed migrations/001_schema.sql
var Schema string
