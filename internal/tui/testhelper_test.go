package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/farmavet/farmavet/internal/config"
	"github.com/farmavet/farmavet/internal/database"
	"github.com/farmavet/farmavet/internal/models"
	"github.com/farmavet/farmavet/internal/util"
)

// testNow is the reference instant used by all TUI tests.
var testNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// newTestApp creates an App instance backed by an in-memory database for
// testing. The App uses a default config, a fixed clock, and a threshold
// save func that records into the returned pointer. The window is set to
// 120x40 and marked ready.
func newTestApp(t *testing.T) (*App, *models.Thresholds) {
	t.Helper()

	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Run migrations
	migrationsDir := filepath.Join("..", "database", "migrations")
	runTestMigrations(t, db, migrationsDir)

	cfg := config.Default()
	clock := util.NewFixedClock(testNow)

	saved := &models.Thresholds{}
	save := func(th models.Thresholds) error {
		*saved = th
		return nil
	}

	app := New(db, cfg, clock, save)

	// Simulate a window size message to make the app ready
	app.width = 120
	app.height = 40
	app.ready = true
	app.updateViewDimensions()

	return app, saved
}

// runTestMigrations runs SQL migration files (Up portion only) on the database.
func runTestMigrations(t *testing.T, db *database.DB, migrationsDir string) {
	t.Helper()

	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("reading migrations directory: %v", err)
	}

	ctx := context.Background()
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".sql" {
			continue
		}

		sqlPath := filepath.Join(migrationsDir, file.Name())
		sqlBytes, err := os.ReadFile(sqlPath)
		if err != nil {
			t.Fatalf("reading migration %s: %v", file.Name(), err)
		}

		sqlStr := string(sqlBytes)
		if idx := strings.Index(sqlStr, "-- +migrate Down"); idx >= 0 {
			sqlStr = sqlStr[:idx]
		}

		if _, err := db.ExecContext(ctx, sqlStr); err != nil {
			t.Fatalf("executing migration %s: %v", file.Name(), err)
		}
	}
}

// insertTestMedicine adds a medicine row directly and returns its ID.
func insertTestMedicine(t *testing.T, app *App, code, name string, qty, minStock int, expiry time.Time) int64 {
	t.Helper()

	res, err := app.db.ExecContext(context.Background(), `
		INSERT INTO medicines (code, name, dose, animal_type, supplier, quantity, min_stock, expiry_date, created_at, updated_at)
		VALUES (?, ?, '', 'general', '', ?, ?, ?, ?, ?)`,
		code, name, qty, minStock,
		expiry.Format(util.DateFormat), testNow.Format(time.RFC3339), testNow.Format(time.RFC3339))
	if err != nil {
		t.Fatalf("inserting medicine %s: %v", code, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("reading medicine id: %v", err)
	}
	return id
}

// keyMsg creates a tea.KeyMsg for a regular character key.
func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// specialKeyMsg creates a tea.KeyMsg for a special key type.
func specialKeyMsg(keyType tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: keyType}
}
