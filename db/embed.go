// Package db provides the embedded schema of the receipt journal.
package db

import _ "embed"

// Schema contains the DDL statements for all journal tables.
//
//go:embed migrations/001_schema.sql
var Schema string
