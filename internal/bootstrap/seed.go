package bootstrap

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/himTresor1/celia-sub001/internal/entity"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(entity.All()...)
}

// SeedDemoUsers creates a handful of profiles for local development.
// Existing usernames are left alone.
func SeedDemoUsers(db *gorm.DB) error {
	demo := []entity.User{
		{Username: "ayla", FullName: "Ayla Nkurunziza", College: "University of Rwanda", Major: "Computer Science", Interests: []string{"hiking", "chess"}},
		{Username: "bruno", FullName: "Bruno Kamanzi", College: "University of Rwanda", Major: "Economics", Interests: []string{"football"}},
		{Username: "chloe", FullName: "Chloe Uwase", College: "ALU", Major: "Design", Interests: []string{"photography", "hiking"}},
	}

	for _, user := range demo {
		var count int64
		if err := db.Model(&entity.User{}).
			Where("username = ?", user.Username).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		if err := db.Create(&user).Error; err != nil {
			return err
		}
		slog.Info("demo user seeded", "username", user.Username, "id", user.ID)
	}

	return nil
}
