package main

import (
	"log"

	"github.com/akgtechceo/pharmarx-sub003/cmd/config"
	migration "github.com/akgtechceo/pharmarx-sub003/cmd/database/migrate"
	"github.com/akgtechceo/pharmarx-sub003/internal/utils"
)

func main() {
	utils.LoadConfig()

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := migration.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	app, err := config.NewApp(db)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}

	if err := app.Listen(":8080"); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
