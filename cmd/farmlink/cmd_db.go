package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/farmlink/config"
	"github.com/shashiranjanraj/farmlink/database/migrations"
	"github.com/shashiranjanraj/farmlink/database/seeders"
	"github.com/shashiranjanraj/farmlink/pkg/migration"
)

func runner(db *gorm.DB) *migration.Runner {
	return migration.New(db, migrations.All(), os.Stdout)
}

// farmlink migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(_ *config.Config, db *gorm.DB) error {
			fmt.Println("Running migrations…")
			_, err := runner(db).Run()
			return err
		})
	},
}

// farmlink migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(_ *config.Config, db *gorm.DB) error {
			fmt.Println("Rolling back last batch…")
			_, err := runner(db).Rollback()
			return err
		})
	},
}

// farmlink migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(_ *config.Config, db *gorm.DB) error {
			_, err := runner(db).Status()
			return err
		})
	},
}

var seedOpts = seeders.DefaultOptions()

// farmlink seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill an empty database with demo farmers, vendors and products",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(_ *config.Config, db *gorm.DB) error {
			if _, err := runner(db).Run(); err != nil {
				return err
			}
			fmt.Println("Running seeders…")
			if err := seeders.RunAll(cmd.Context(), db, seeders.All(seedOpts), os.Stdout); err != nil {
				return err
			}
			fmt.Printf("Demo accounts use the password %q.\n", seeders.DemoPassword)
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedOpts.Farmers, "farmers", seedOpts.Farmers, "number of farmers")
	seedCmd.Flags().IntVar(&seedOpts.Vendors, "vendors", seedOpts.Vendors, "number of vendors")
	seedCmd.Flags().IntVar(&seedOpts.ProductsPerFarmer, "products", seedOpts.ProductsPerFarmer, "products per farmer")
	seedCmd.Flags().Int64Var(&seedOpts.Seed, "seed", seedOpts.Seed, "random seed")
}
