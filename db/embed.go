package db

import "embed"

// Migrations holds the goose SQL migrations run by the migrate command.
//
//go:embed migrations/*.sql
var Migrations embed.FS
