package db

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/callparrot/internal/profile"
	"github.com/hrygo/callparrot/store"
	"github.com/hrygo/callparrot/store/db/postgres"
	"github.com/hrygo/callparrot/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'postgres' and 'sqlite' are supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}

// Open creates the driver for profile and migrates its schema.
func Open(ctx context.Context, profile *profile.Profile) (store.Driver, error) {
	driver, err := NewDBDriver(profile)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx, driver); err != nil {
		_ = driver.Close()
		return nil, errors.Wrap(err, "failed to migrate")
	}
	return driver, nil
}
