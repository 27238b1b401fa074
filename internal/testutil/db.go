package testutil

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/himTresor1/celia-sub001/internal/entity"
)

// NewDB opens an isolated in-memory sqlite database with every model migrated.
//
// The pool is capped at one connection so concurrent transactions queue the
// way row locks make them queue on postgres.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(entity.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// CreateUser inserts a user with a unique username. Options mutate the row before insert.
func CreateUser(t testing.TB, db *gorm.DB, opts ...func(*entity.User)) *entity.User {
	t.Helper()

	user := &entity.User{
		ID:       uuid.New(),
		Username: "user_" + uuid.NewString()[:8],
	}
	for _, opt := range opts {
		opt(user)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// CreateEvent inserts an event hosted by hostID with the given status.
func CreateEvent(t testing.TB, db *gorm.DB, hostID uuid.UUID, status entity.EventStatus) *entity.Event {
	t.Helper()

	event := &entity.Event{
		ID:     uuid.New(),
		HostID: hostID,
		Title:  "Rooftop study session",
		Status: status,
	}
	if err := db.Create(event).Error; err != nil {
		t.Fatalf("create event: %v", err)
	}
	return event
}

// ReloadUser reads the user row back from the database.
func ReloadUser(t testing.TB, db *gorm.DB, id uuid.UUID) *entity.User {
	t.Helper()

	var user entity.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return &user
}

// CountRows counts rows of model matching the optional where clause.
func CountRows(t testing.TB, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()

	var count int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}
