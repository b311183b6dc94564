package main

import (
	"bytes"
	"errors"
	"io/fs"
	"testing"

	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/infrastructure/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMigrator struct {
	calls  []string
	steps  int
	forced int
	status migration.Status
	err    error
	closed bool
}

func (f *fakeMigrator) Up() error   { f.calls = append(f.calls, "up"); return f.err }
func (f *fakeMigrator) Down() error { f.calls = append(f.calls, "down"); return f.err }
func (f *fakeMigrator) Steps(n int) error {
	f.calls = append(f.calls, "steps")
	f.steps = n
	return f.err
}
func (f *fakeMigrator) Status() (migration.Status, error) {
	f.calls = append(f.calls, "status")
	return f.status, f.err
}
func (f *fakeMigrator) Force(v int) error {
	f.calls = append(f.calls, "force")
	f.forced = v
	return f.err
}
func (f *fakeMigrator) Close() error { f.closed = true; return nil }

func withFakeMigrator(t *testing.T, fake *fakeMigrator) {
	t.Helper()
	orig := openMigrator
	openMigrator = func(fs.FS, *zap.Logger) (schemaMigrator, error) { return fake, nil }
	t.Cleanup(func() { openMigrator = orig })
}

func TestRun_DatabaseCommands(t *testing.T) {
	tests := []struct {
		name      string
		argv      []string
		wantCalls []string
		check     func(t *testing.T, f *fakeMigrator)
		wantErr   string
	}{
		{name: "up", argv: []string{"up"}, wantCalls: []string{"up"}},
		{name: "down", argv: []string{"down"}, wantCalls: []string{"down"}},
		{
			name:      "step back one",
			argv:      []string{"step", "-1"},
			wantCalls: []string{"steps"},
			check:     func(t *testing.T, f *fakeMigrator) { assert.Equal(t, -1, f.steps) },
		},
		{name: "step without count", argv: []string{"step"}, wantErr: "step count required"},
		{name: "step with text", argv: []string{"step", "two"}, wantErr: `invalid step count "two"`},
		{
			name:      "force",
			argv:      []string{"-log-level", "error", "force", "2"},
			wantCalls: []string{"force"},
			check:     func(t *testing.T, f *fakeMigrator) { assert.Equal(t, 2, f.forced) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeMigrator{}
			withFakeMigrator(t, fake)

			err := run(tt.argv, &bytes.Buffer{})

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Empty(t, fake.calls)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantCalls, fake.calls)
			}
			assert.True(t, fake.closed)
			if tt.check != nil {
				tt.check(t, fake)
			}
		})
	}
}

func TestRun_MigratorErrorIsReturned(t *testing.T) {
	fake := &fakeMigrator{err: errors.New("dirty database version 2")}
	withFakeMigrator(t, fake)

	err := run([]string{"up"}, &bytes.Buffer{})

	assert.EqualError(t, err, "dirty database version 2")
	assert.True(t, fake.closed)
}

func TestRun_Status(t *testing.T) {
	fake := &fakeMigrator{status: migration.Status{
		Version: 1,
		Dirty:   true,
		Applied: []string{"000001_create_invoices"},
		Pending: []string{"000002_create_invoice_audit_entries"},
	}}
	withFakeMigrator(t, fake)
	var out bytes.Buffer

	require.NoError(t, run([]string{"status"}, &out))

	assert.Equal(t, "Version: 1\n"+
		"Dirty: yes (repair with force)\n"+
		"Applied: 1\n"+
		"Pending: 1\n"+
		"  - 000002_create_invoice_audit_entries\n", out.String())
}

func TestRun_ListDoesNotConnect(t *testing.T) {
	orig := openMigrator
	openMigrator = func(fs.FS, *zap.Logger) (schemaMigrator, error) {
		t.Fatal("list must not open the database")
		return nil, nil
	}
	t.Cleanup(func() { openMigrator = orig })
	var out bytes.Buffer

	require.NoError(t, run([]string{"list"}, &out))

	assert.Equal(t, "  - 000001_create_invoices\n  - 000002_create_invoice_audit_entries\n", out.String())
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		wantErr string
	}{
		{name: "no command", argv: nil, wantErr: "no command given"},
		{name: "unknown command", argv: []string{"redo"}, wantErr: `unknown command "redo"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := run(tt.argv, &out)

			assert.EqualError(t, err, tt.wantErr)
			assert.Contains(t, out.String(), "DME billing schema migrations")
			assert.Contains(t, out.String(), "step <n>")
			assert.Contains(t, out.String(), "DME_DATABASE_PASSWORD")
		})
	}
}
