package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/lib/pq"
)

// CreateDatabaseIfNotExists connects to the maintenance database of the same
// server and creates the target database when missing. It reports whether a
// database was created.
func CreateDatabaseIfNotExists(ctx context.Context, connString string) (bool, error) {
	dbName, err := extractDBName(connString)
	if err != nil {
		return false, fmt.Errorf("failed to parse connection string: %w", err)
	}

	rootConnStr, err := replaceDBName(connString, "postgres")
	if err != nil {
		return false, fmt.Errorf("failed to create root connection string: %w", err)
	}

	db, err := sql.Open("postgres", rootConnStr)
	if err != nil {
		return false, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()

	var one int
	err = db.QueryRowContext(ctx, "SELECT 1 FROM pg_database WHERE datname = $1", dbName).Scan(&one)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("failed to check if database exists: %w", err)
	}

	if _, err := db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(dbName)); err != nil {
		return false, fmt.Errorf("failed to create database: %w", err)
	}
	return true, nil
}

func extractDBName(connString string) (string, error) {
	if isURL(connString) {
		u, err := url.Parse(connString)
		if err != nil {
			return "", fmt.Errorf("failed to parse connection URL: %w", err)
		}
		if name := strings.TrimPrefix(u.Path, "/"); name != "" {
			return name, nil
		}
		return "", fmt.Errorf("connection URL has no database name")
	}

	for _, pair := range strings.Fields(connString) {
		if strings.HasPrefix(pair, "dbname=") {
			return strings.TrimPrefix(pair, "dbname="), nil
		}
	}
	return "", fmt.Errorf("could not find database name in connection string")
}

func replaceDBName(connString, newName string) (string, error) {
	if isURL(connString) {
		u, err := url.Parse(connString)
		if err != nil {
			return "", err
		}
		u.Path = "/" + newName
		return u.String(), nil
	}

	pairs := strings.Fields(connString)
	for i, pair := range pairs {
		if strings.HasPrefix(pair, "dbname=") {
			pairs[i] = "dbname=" + newName
		}
	}
	return strings.Join(pairs, " "), nil
}

func isURL(connString string) bool {
	return strings.HasPrefix(connString, "postgres://") || strings.HasPrefix(connString, "postgresql://")
}
