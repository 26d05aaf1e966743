package main

import (
	"database/sql"
	"fmt"
	"log"

	"paybridge/internal/config"

	_ "github.com/lib/pq"
)

// Smoke-checks database connectivity and the migrated schema without
// going through the ORM, so it also works before the first migration.
func main() {
	fmt.Println("🔍 Verifying database connection...")

	if err := config.LoadConfig(""); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	sqlDB, err := sql.Open("postgres", config.AppConfig.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Database unreachable: %v", err)
	}

	var dbName string
	if err := sqlDB.QueryRow("SELECT current_database()").Scan(&dbName); err != nil {
		log.Fatalf("Failed to get database name: %v", err)
	}
	fmt.Printf("📋 Connected to database: %s\n", dbName)

	for _, table := range []string{"bills", "payment_intents"} {
		var count int64
		if err := sqlDB.QueryRow(`
			SELECT COUNT(*)
			FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		`, table).Scan(&count); err != nil {
			log.Fatalf("Failed to query schema: %v", err)
		}
		if count == 0 {
			fmt.Printf("❌ Table %s does not exist; run the server once to migrate\n", table)
			continue
		}
		fmt.Printf("✅ Table %s present\n", table)
	}

	fmt.Println("✅ Database verification complete")
}
