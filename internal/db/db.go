package db

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/field-booking/internal/config"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

func NewDB(cfg *config.Config, log *zap.Logger) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("failed to get sql.DB", zap.Error(err))
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.AutoMigrate(Models()...); err != nil {
		log.Fatal("failed to migrate", zap.Error(err))
	}

	for _, stmt := range constraints {
		if err := db.Exec(stmt).Error; err != nil {
			log.Warn("constraint not applied", zap.String("sql", stmt), zap.Error(err))
		}
	}

	db.Exec(`
        UPDATE fields
        SET timezone = 'Africa/Abidjan'
        WHERE timezone IS NULL OR timezone = ''
    `)

	return db
}

// Models lista as tabelas migradas, na ordem das dependências.
func Models() []any {
	return []any{
		&models.User{},
		&models.UserRole{},
		&models.Field{},
		&models.FieldPhoto{},
		&models.FieldSchedule{},
		&models.FieldAvailability{},
		&models.PromoCode{},
		&models.PromoRedemption{},
		&models.Cagnotte{},
		&models.CagnotteContribution{},
		&models.Booking{},
		&models.Payment{},
		&models.WebhookEvent{},
		&models.Payout{},
		&models.Conversation{},
		&models.Message{},
		&models.ConversationNotification{},
		&models.AuditLog{},
	}
}

// constraints que o AutoMigrate não expressa.
var constraints = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,
	// reservas ativas de um terreno nunca se sobrepõem
	`DO $$ BEGIN
		ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap
			EXCLUDE USING gist (field_id WITH =, tstzrange(starts_at, ends_at) WITH &&)
			WHERE (status IN ('pending', 'approved', 'provisional', 'confirmed', 'owner_confirmed'));
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$`,
	// uma cagnotte aberta por slot
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_cagnottes_open_slot
		ON cagnottes (slot_id)
		WHERE status IN ('collecting', 'holding')`,
	`CREATE INDEX IF NOT EXISTS idx_fields_geo ON fields (latitude, longitude)`,
}
