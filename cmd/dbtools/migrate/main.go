// cmd/dbtools/migrate/main.go
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/codr1/themestudio/internal/store"
)

func main() {
	var (
		dbPath  = flag.String("db", "", "Path to SQLite database")
		command = flag.String("command", "", "Command to run (up, down, version)")
	)
	flag.Parse()

	if *dbPath == "" || *command == "" {
		flag.Usage()
		os.Exit(1)
	}

	db, err := sql.Open("sqlite3", *dbPath)
	if err != nil {
		log.Fatalf("Open database failed: %v", err)
	}
	defer db.Close()

	// Execute command
	switch *command {
	case "up":
		if err := store.RunMigrations(db); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
	case "down":
		if err := store.RollbackMigrations(db); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
	case "version":
		version, dirty, err := store.MigrationVersion(db)
		if err != nil {
			log.Fatalf("Get version failed: %v", err)
		}
		fmt.Printf("Version: %d, Dirty: %v\n", version, dirty)
	default:
		log.Fatalf("Unknown command: %s", *command)
	}
}
