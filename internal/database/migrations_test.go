package database

import (
	"path/filepath"
	"testing"

	"github.com/doodledrop/backend/internal/doodles"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestApplyMigrationsBackfillsSenderFields(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "migration.db")

	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}

	// Legacy store layout: sender columns were nullable.
	legacySchema := `CREATE TABLE doodles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		to_code TEXT NOT NULL,
		from_code TEXT,
		from_name TEXT,
		data_url TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`
	if err := database.Exec(legacySchema).Error; err != nil {
		testContext.Fatalf("failed to create legacy table: %v", err)
	}
	insert := "INSERT INTO doodles (to_code, from_code, from_name, data_url, created_at) VALUES ('AB12', NULL, NULL, 'data:image/png;base64,AAAA', 1700000000000)"
	if err := database.Exec(insert).Error; err != nil {
		testContext.Fatalf("failed to insert legacy row: %v", err)
	}
	if err := database.AutoMigrate(&migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to apply migrations: %v", err)
	}

	var stored doodles.Doodle
	if err := database.Where("to_code = ?", "AB12").Take(&stored).Error; err != nil {
		testContext.Fatalf("failed to reload doodle: %v", err)
	}
	if stored.FromCode != "" || stored.FromName != "" {
		testContext.Fatalf("expected sender fields backfilled, got %q %q", stored.FromCode, stored.FromName)
	}

	var record migrationRecord
	if err := database.Where("name = ?", migrationBackfillSenderFields).Take(&record).Error; err != nil {
		testContext.Fatalf("expected migration record to be created: %v", err)
	}
	if record.AppliedAtSeconds == 0 {
		testContext.Fatalf("expected migration timestamp to be set")
	}
}

func TestOpenSQLiteIsIdempotent(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "nested", "data.db")

	for i := 0; i < 2; i++ {
		database, err := OpenSQLite(databasePath, zap.NewNop())
		if err != nil {
			testContext.Fatalf("open attempt %d failed: %v", i+1, err)
		}
		sqlDB, err := database.DB()
		if err != nil {
			testContext.Fatalf("failed to unwrap sql db: %v", err)
		}
		if err := sqlDB.Close(); err != nil {
			testContext.Fatalf("failed to close database: %v", err)
		}
	}
}

func TestOpenSQLiteRequiresPath(testContext *testing.T) {
	if _, err := OpenSQLite("", zap.NewNop()); err == nil {
		testContext.Fatalf("expected error for empty path")
	}
}
