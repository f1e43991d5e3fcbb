package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/nestmatch/nestmatch-api/internal/config"
	"github.com/nestmatch/nestmatch-api/internal/database"
	"github.com/nestmatch/nestmatch-api/internal/models"
)

func main() {
	var dsn string

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the NestMatch database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("load configuration: %w", err)
				}
				dsn = cfg.DatabaseURL
			}

			db, err := database.ConnectPostgres(dsn)
			if err != nil {
				return err
			}

			if err := db.AutoMigrate(
				&models.User{},
				&models.Listing{},
				&models.Swipe{},
				&models.Match{},
				&models.Message{},
				&models.Notification{},
			); err != nil {
				return fmt.Errorf("migrate schema: %w", err)
			}

			log.Println("schema up to date")
			return nil
		},
	}

	root.Flags().StringVar(&dsn, "dsn", "", "postgres connection string (defaults to NESTMATCH_DATABASE_URL)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
