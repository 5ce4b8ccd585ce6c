// Package postgres implements the store interfaces on PostgreSQL
// through database/sql with the pgx driver.
package postgres
