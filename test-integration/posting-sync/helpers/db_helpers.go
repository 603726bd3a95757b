package helpers

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/posting-sync/internal/config"
)

// DBHelper seeds and inspects the test database
type DBHelper struct {
	pool *pgxpool.Pool
}

// NewDBHelper connects to connStr
func NewDBHelper(ctx context.Context, connStr string) (*DBHelper, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return &DBHelper{pool: pool}, nil
}

// Close releases the pool
func (h *DBHelper) Close() {
	h.pool.Close()
}

// Reset empties every table between specs
func (h *DBHelper) Reset(ctx context.Context) error {
	_, err := h.pool.Exec(ctx, `TRUNCATE postings, watchlist_memberships, notifications,
		distributed_locks, locations, keyword_sync_status`)
	return err
}

// AddWatcher puts companyID on the watchlist of memberID
func (h *DBHelper) AddWatcher(ctx context.Context, memberID, companyID string) error {
	_, err := h.pool.Exec(ctx,
		`INSERT INTO watchlist_memberships (member_id, company_id) VALUES ($1, $2)`, memberID, companyID)
	return err
}

// AddLocation stores a location record
func (h *DBHelper) AddLocation(ctx context.Context, id, name, countryCode string) error {
	_, err := h.pool.Exec(ctx,
		`INSERT INTO locations (id, name, country_code) VALUES ($1, $2, $3)`, id, name, countryCode)
	return err
}

// CountPostings counts the stored postings of keyword
func (h *DBHelper) CountPostings(ctx context.Context, keyword string) (int, error) {
	var n int
	err := h.pool.QueryRow(ctx, `SELECT count(*) FROM postings WHERE keyword = $1`, keyword).Scan(&n)
	return n, err
}

// CountStalePostings counts the postings of keyword marked stale
func (h *DBHelper) CountStalePostings(ctx context.Context, keyword string) (int, error) {
	var n int
	err := h.pool.QueryRow(ctx,
		`SELECT count(*) FROM postings WHERE keyword = $1 AND stale`, keyword).Scan(&n)
	return n, err
}

// DatabaseConfig builds the database section for connStr. The password is
// written to a file under dir.
func DatabaseConfig(connStr, dir string) (*config.DatabaseConfig, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return nil, fmt.Errorf("invalid port in connection string: %w", err)
	}

	password, _ := u.User.Password()
	passwordFile := filepath.Join(dir, "db-password")
	if err := os.WriteFile(passwordFile, []byte(password), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write password file: %w", err)
	}

	return &config.DatabaseConfig{
		Host:         u.Hostname(),
		Port:         port,
		User:         u.User.Username(),
		PasswordFile: passwordFile,
		Database:     strings.TrimPrefix(u.Path, "/"),
		SSLMode:      "disable",
	}, nil
}
