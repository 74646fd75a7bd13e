package db

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mfarias/cotizador/internal/models"
)

// ConnectAndMigrate opens the database named by DATABASE_DSN and brings the
// schema up to date. A DSN starting with sqlite: (or file:/:memory:) opens an
// embedded sqlite database, anything else is treated as postgres.
func ConnectAndMigrate(dsn string) (*gorm.DB, error) {
	dsn = NormalizeDSN(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is empty, check environment configuration")
	}

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	// TranslateError turns driver uniqueness/FK violations into
	// gorm.ErrDuplicatedKey and friends so handlers can map them.
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel), TranslateError: true}

	var db *gorm.DB
	var err error
	if sqliteDSN(dsn) {
		db, err = gorm.Open(sqlite.Open(strings.TrimPrefix(dsn, "sqlite:")), cfg)
	} else {
		for i := 0; i < 10; i++ {
			db, err = gorm.Open(postgres.Open(dsn), cfg)
			if err == nil {
				break
			}
			fmt.Println("Retrying DB connection...", err)
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	// SQL migrations via golang-migrate when MIGRATIONS=1 (postgres);
	// otherwise AutoMigrate keeps the schema in sync with the models.
	if v := strings.ToLower(os.Getenv("MIGRATIONS")); !sqliteDSN(dsn) && (v == "1" || v == "true" || v == "yes") {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
	}

	for _, table := range []string{"sales_reps", "products", "quotes"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}

	if v := strings.ToLower(os.Getenv("DB_SEED")); v == "1" || v == "true" || v == "yes" {
		seed(db)
	}
	return db, nil
}

// AutoMigrate migrates every model in dependency order.
func AutoMigrate(db *gorm.DB) error {
	modelsToMigrate := []interface{}{
		&models.Entity{}, &models.Client{}, &models.SalesRep{},
		&models.Product{}, &models.Quote{}, &models.LineItem{},
		&models.DailyIndicators{}, &models.Template{}, &models.TemplateItem{},
	}
	for _, m := range modelsToMigrate {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func sqliteDSN(dsn string) bool {
	lower := strings.ToLower(dsn)
	return strings.HasPrefix(lower, "sqlite:") ||
		strings.HasPrefix(lower, "file:") ||
		strings.HasPrefix(lower, ":memory:")
}

var kvPairRegex = regexp.MustCompile(`(?i)\b(host|user|password|dbname|port|sslmode)=`)

// NormalizeDSN accepts a URL style DSN (postgres://...), a lib/pq key=value
// list, or a sqlite path. Trims quotes and whitespace; key=value form gets a
// default sslmode if missing.
func NormalizeDSN(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'")
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") || sqliteDSN(s) {
		return s
	}
	if !kvPairRegex.MatchString(s) {
		return s
	}
	fields := strings.Fields(s)
	cleaned := strings.Join(fields, " ")
	if !strings.Contains(strings.ToLower(cleaned), "sslmode=") {
		cleaned += " sslmode=disable"
	}
	return cleaned
}

// seed inserts minimal development fixtures, skipping anything that exists.
func seed(db *gorm.DB) {
	reps := []models.SalesRep{
		{Name: "Admin", Email: "admin@example.cl", Role: models.RoleAdmin},
		{Name: "Gerente Demo", Email: "gerente@example.cl", Role: models.RoleManager},
		{Name: "Vendedor Demo", Email: "vendedor@example.cl", Role: models.RoleRep},
	}
	for _, r := range reps {
		var existing models.SalesRep
		if err := db.Where("email = ?", r.Email).First(&existing).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			db.Create(&r)
		}
	}
	entity := models.Entity{Name: "Hospital Demo", Address: "Av. Demo 123", Region: "RM"}
	var existingEntity models.Entity
	if err := db.Where("name = ?", entity.Name).First(&existingEntity).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		db.Create(&entity)
		db.Create(&models.Client{EntityID: entity.ID, Name: "Compras Hospital Demo", Email: "compras@example.cl"})
	}
}
