package notionsync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMapping_OverridesOnlyListedFields(t *testing.T) {
	m, err := ParseMapping([]byte(`
category: [Category, Categoría]
date: [Date]
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"Category", "Categoría"}, m.Category)
	assert.Equal(t, []string{"Date"}, m.Date)
	assert.Equal(t, DefaultMapping().Name, m.Name)
	assert.Equal(t, DefaultMapping().ExpenseType, m.ExpenseType)
}

func TestParseMapping_Invalid(t *testing.T) {
	_, err := ParseMapping([]byte("name: [\"  \"]"))
	assert.ErrorContains(t, err, "name: blank property name")

	_, err = ParseMapping([]byte("name: {not: a list"))
	assert.Error(t, err)
}

func TestLoadMapping_MissingFile(t *testing.T) {
	_, err := LoadMapping(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWatchMapping_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [Nombre]\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan FieldMapping, 4)
	done := make(chan error, 1)
	go func() {
		done <- WatchMapping(ctx, path, zerolog.Nop(), func(m FieldMapping) { reloaded <- m })
	}()

	// Keep rewriting until the watcher has registered and picked up a change.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("name: [Concepto]\n"), 0o644)
		select {
		case m := <-reloaded:
			return len(m.Name) == 1 && m.Name[0] == "Concepto"
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestWatchMapping_SurvivesRenameSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [Nombre]\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan FieldMapping, 16)
	done := make(chan error, 1)
	go func() {
		done <- WatchMapping(ctx, path, zerolog.Nop(), func(m FieldMapping) { reloaded <- m })
	}()

	// saveAtomically writes a sibling temp file and renames it over path.
	saveAtomically := func(content string) {
		tmp := filepath.Join(dir, ".mapping.yaml.tmp")
		_ = os.WriteFile(tmp, []byte(content), 0o644)
		_ = os.Rename(tmp, path)
	}

	waitFor := func(name string) {
		require.Eventually(t, func() bool {
			saveAtomically("name: [" + name + "]\n")
			for {
				select {
				case m := <-reloaded:
					if len(m.Name) == 1 && m.Name[0] == name {
						return true
					}
				case <-time.After(50 * time.Millisecond):
					return false
				}
			}
		}, 5*time.Second, 100*time.Millisecond)
	}

	// The second save only lands if the watch outlived the first rename.
	waitFor("Concepto")
	waitFor("Descripción")

	cancel()
	assert.NoError(t, <-done)
}

func TestWatchMapping_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [Nombre]\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan FieldMapping, 16)
	go func() {
		_ = WatchMapping(ctx, path, zerolog.Nop(), func(m FieldMapping) { reloaded <- m })
	}()

	// Wait until the watcher is live, then touch only a neighbour.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("name: [Concepto]\n"), 0o644)
		select {
		case <-reloaded:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 100*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	for len(reloaded) > 0 {
		<-reloaded
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("name: [Otro]\n"), 0o644))

	select {
	case m := <-reloaded:
		t.Fatalf("unexpected reload from sibling file: %v", m.Name)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchMapping_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "mapping.yaml")

	err := WatchMapping(context.Background(), path, zerolog.Nop(), func(FieldMapping) {})

	assert.ErrorContains(t, err, "WatchMapping: watch")
}
