// Package postgres implements every store interface on PostgreSQL through a
// pgx connection pool. The schema ships embedded and is applied with goose.
package postgres
