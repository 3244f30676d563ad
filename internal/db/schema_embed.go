package db

import _ "embed"

// Schema holds the bootstrap SQL for integration tests and local development.
//
//go:embed migrations/000001_create_followup_tables.up.sql
var Schema string
