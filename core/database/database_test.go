package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "bot", Password: "p a'ss", Name: "realty", SSLMode: "disable"}
	assert.Equal(t, `host='db' port='5432' user='bot' password='p a\'ss' dbname='realty' sslmode='disable'`, DSN(cfg))

	cfg.Password = ""
	assert.NotContains(t, DSN(cfg), "password")
}

func TestURL(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "bot", Password: "s@cret", Name: "realty", SSLMode: "require"}
	assert.Equal(t, "postgres://bot:s%40cret@db:5432/realty?sslmode=require", URL(cfg))
}

func TestUpFilesAndBetween(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"0010_add_source.up.sql", "0002_index.up.sql", "0001_create.up.sql",
		"0001_create.down.sql", "README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	files := upFiles(dir)
	assert.Equal(t, []string{"0001_create.up.sql", "0002_index.up.sql", "0010_add_source.up.sql"}, files)
	assert.Equal(t, []string{"0002_index.up.sql", "0010_add_source.up.sql"}, between(files, 1, 10))
	assert.Empty(t, between(files, 10, 10))
	assert.Nil(t, upFiles(filepath.Join(dir, "missing")))
}

type fakeMigrator struct {
	versions []uint
	dirty    bool
	upErr    error
	ups      int
}

func (f *fakeMigrator) Version() (uint, bool, error) {
	if len(f.versions) == 0 {
		return 0, false, migrate.ErrNilVersion
	}
	v := f.versions[0]
	if len(f.versions) > 1 {
		f.versions = f.versions[1:]
	}
	return v, f.dirty, nil
}

func (f *fakeMigrator) Up() error {
	f.ups++
	return f.upErr
}

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		m       *fakeMigrator
		wantErr string
		ups     int
	}{
		{name: "fresh database", m: &fakeMigrator{}, ups: 1},
		{name: "upgrade", m: &fakeMigrator{versions: []uint{1, 2}}, ups: 1},
		{name: "no change", m: &fakeMigrator{versions: []uint{2}, upErr: migrate.ErrNoChange}, ups: 1},
		{name: "dirty", m: &fakeMigrator{versions: []uint{3}, dirty: true}, wantErr: "dirty at version 3"},
		{name: "failure", m: &fakeMigrator{versions: []uint{1}, upErr: errors.New("syntax error")}, wantErr: "migrate up: syntax error", ups: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := apply(context.Background(), tt.m, t.TempDir())
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.ups, tt.m.ups)
		})
	}
}
