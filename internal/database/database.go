package database

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/ElanScarton/leilao-api/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase initializes and returns a new GORM DB connection.
// The path comes from DATABASE_PATH, defaulting to a local file.
func NewDatabase() (*gorm.DB, error) {
	path := os.Getenv("DATABASE_PATH")
	if path == "" {
		path = "leilao.db"
	}
	return open(path)
}

// NewTestDatabase returns an isolated in-memory database for tests.
// Each call gets its own named memory database so tests do not share state.
func NewTestDatabase() (*gorm.DB, error) {
	return open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String()))
}

func open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&types.Auction{},
		&types.Bid{},
		&types.SupplierAssignment{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
