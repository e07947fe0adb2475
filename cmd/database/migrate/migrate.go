package migration

import (
	"fmt"
	"log"

	"github.com/akgtechceo/pharmarx-sub003/entities"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")

	if err := db.AutoMigrate(&entities.User{}); err != nil {
		log.Fatalf("Error migrating user database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.PrescriptionOrder{}); err != nil {
		log.Fatalf("Error migrating prescription order database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.OrderAuditEntry{}); err != nil {
		log.Fatalf("Error migrating order audit database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.PaymentAttempt{}); err != nil {
		log.Fatalf("Error migrating payment attempt database: %v", err)
		return err
	}

	// One settled payment per order, enforced at the database level so a
	// concurrent double charge cannot slip past the transactional check.
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_payment_attempts_order_succeeded " +
		"ON payment_attempts (order_id) WHERE status = 'succeeded';")

	fmt.Println("Database migration complete")
	return nil
}
