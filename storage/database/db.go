// Package database opens, bootstraps and migrates the postgres database behind the postgres repositories.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/fs"
)

const (
	migrationsDir = "migrations"
	maintenanceDB = "postgres"
	pingAttempts  = 30
)

// dsn builds the connection URL of dbName, as the admin user when asAdmin is set and one is configured.
func dsn(dc core.DatabaseConfig, dbName string, asAdmin bool) string {
	user := url.UserPassword(dc.User, dc.Password)
	if asAdmin && dc.AdminUser != "" {
		user = url.UserPassword(dc.AdminUser, dc.AdminPassword)
	}
	q := url.Values{"timezone": {"utc"}, "sslmode": {"require"}}
	if dc.DisableTLS {
		q.Set("sslmode", "disable")
	}
	u := url.URL{Scheme: dc.Engine, User: user, Host: dc.Address(), Path: dbName, RawQuery: q.Encode()}
	return u.String()
}

func connect(dc core.DatabaseConfig, dbName string, asAdmin bool) (*sqlx.DB, error) {
	db, err := sqlx.Open(dc.Engine, dsn(dc, dbName, asAdmin))
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", dbName)
	}
	if err = waitReady(db); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "connecting to %s", dbName)
	}
	return db, nil
}

// Open connects to the app database, waiting for postgres to accept connections.
func Open(conf *core.Config) (*sqlx.DB, error) {
	return connect(conf.Database, conf.Database.Name, false)
}

// waitReady pings db until it answers, backing off a little more after each failure.
func waitReady(db *sqlx.DB) error {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	return errors.Wrap(err, "ping timeout")
}

// ensure runs create unless the lookup query finds name.
func ensure(db *sqlx.DB, lookup, name, create string) error {
	var found bool
	err := db.Get(&found, lookup, name)
	if err != nil && errors.Cause(err) != sql.ErrNoRows {
		return err
	}
	if found {
		return nil
	}
	_, err = db.Exec(create)
	return err
}

// CreateIfNotExist bootstraps a fresh server: the app role is created as the admin user,
// then the app database is created as the app role so that it owns it.
func CreateIfNotExist(conf *core.Config) error {
	dc := conf.Database

	if dc.User != "" {
		adminDB, err := connect(dc, maintenanceDB, true)
		if err != nil {
			return err
		}
		// roles and passwords cannot be bound as parameters
		err = ensure(adminDB,
			"SELECT true FROM pg_roles WHERE rolname = $1", dc.User,
			fmt.Sprintf("CREATE USER %q CREATEDB ENCRYPTED PASSWORD '%s'", dc.User, dc.Password),
		)
		_ = adminDB.Close()
		if err != nil {
			return errors.Wrapf(err, "creating role %s", dc.User)
		}
	}

	db, err := connect(dc, maintenanceDB, false)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	err = ensure(db,
		"SELECT true FROM pg_database WHERE datname = $1", dc.Name,
		fmt.Sprintf("CREATE DATABASE %q", dc.Name),
	)
	return errors.Wrapf(err, "creating database %s", dc.Name)
}

// RunMigrations runs a goose command (up, down, status, ...) against the embedded migrations.
func RunMigrations(db *sqlx.DB, command string, args ...string) error {
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	return goose.Run(command, db.DB, migrationsDir, args...)
}

// Migrate applies every pending migration.
func Migrate(db *sqlx.DB) error {
	return errors.Wrap(RunMigrations(db, "up"), "migrating database")
}
