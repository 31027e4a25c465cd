package main

import (
	"context"
	"fmt"
	"time"

	"venuemap/internal/db"
	"venuemap/internal/db/migrations"
)

type migrateCmd struct {
	CreateDatabase bool          `help:"Create the database first if it does not exist." default:"true" negatable:""`
	Timeout        time.Duration `help:"Overall timeout." default:"1m"`
}

func (c *migrateCmd) Run(g *globalCmd) error {
	cfg, _, err := g.setup()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	if c.CreateDatabase {
		created, err := db.CreateDatabaseIfNotExists(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if created {
			fmt.Println("created database")
		}
	}

	database, err := g.database(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	applied, err := migrations.RunMigrations(ctx, database.DB)
	for _, name := range applied {
		fmt.Printf("applied %s\n", name)
	}
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Println("database is up to date")
	}
	return nil
}
