package main

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct {
	calls   []string
	steps   int
	forced  int
	err     error
	version uint
}

func (f *fakeMigrator) Up() error   { f.calls = append(f.calls, "up"); return f.err }
func (f *fakeMigrator) Down() error { f.calls = append(f.calls, "down"); return f.err }
func (f *fakeMigrator) Steps(n int) error {
	f.calls = append(f.calls, "steps")
	f.steps = n
	return f.err
}
func (f *fakeMigrator) Force(v int) error {
	f.calls = append(f.calls, "force")
	f.forced = v
	return f.err
}
func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, false, f.err }

func TestRunDownStepsOneByDefault(t *testing.T) {
	m := &fakeMigrator{}
	require.NoError(t, run(m, []string{"down"}, false))
	assert.Equal(t, []string{"steps"}, m.calls)
	assert.Equal(t, -1, m.steps)

	m = &fakeMigrator{}
	require.NoError(t, run(m, []string{"down"}, true))
	assert.Equal(t, []string{"down"}, m.calls)
}

func TestRunNoChangeIsNotAnError(t *testing.T) {
	m := &fakeMigrator{err: migrate.ErrNoChange}
	assert.NoError(t, run(m, []string{"up"}, false))
}

func TestRunVersionWithoutMigrations(t *testing.T) {
	m := &fakeMigrator{err: migrate.ErrNilVersion}
	assert.NoError(t, run(m, []string{"version"}, false))
}

func TestRunForce(t *testing.T) {
	m := &fakeMigrator{}
	require.NoError(t, run(m, []string{"force", "2"}, false))
	assert.Equal(t, 2, m.forced)

	assert.Error(t, run(m, []string{"force"}, false))
	assert.Error(t, run(m, []string{"force", "x"}, false))
}

func TestRunErrors(t *testing.T) {
	m := &fakeMigrator{err: errors.New("dirty database")}
	assert.ErrorContains(t, run(m, []string{"up"}, false), "dirty database")
	assert.Error(t, run(m, []string{"sideways"}, false))
}
