//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const postgresDSNEnv = "STOCKPARTS_TEST_POSTGRES_DSN"

// Test groups test targets (all, unit, postgres).
type Test mg.Namespace

// All runs every test. PostgreSQL tests run only when the DSN is set.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Unit runs the tests with the PostgreSQL DSN cleared.
func (Test) Unit() error {
	return sh.RunWithV(map[string]string{postgresDSNEnv: ""}, binGo, "test", "-race", "./...")
}

// Postgres runs the PostgreSQL store tests. It fails if the DSN is unset.
func (Test) Postgres() error {
	if os.Getenv(postgresDSNEnv) == "" {
		return fmt.Errorf("%s is not set", postgresDSNEnv)
	}
	return sh.RunV(binGo, "test", "-v", "-count=1", "./internal/postgres/...")
}

// Golden regenerates golden files for the export tests.
func (Test) Golden() error {
	return sh.RunV(binGo, "test", "./internal/export/...", "-update")
}
