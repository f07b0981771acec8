package db

import (
	"fmt"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model for migration: CRM entities first, then
// the assistant's conversation, ticket, audit and learning tables.
func AllModels() []interface{} {
	return []interface{}{
		&models.Contact{},
		&models.Lead{},
		&models.Opportunity{},
		&models.Campaign{},
		&models.Quote{},
		&models.Payment{},
		&models.Note{},
		&models.Email{},
		&models.FollowUpSequence{},
		&models.SequenceStep{},
		&models.ConversationTurn{},
		&models.PendingAction{},
		&models.AuditEntry{},
		&models.UserPreference{},
		&models.Interaction{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
