package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

// Applies scripts/init_db.sql to the configured database. The DSN comes from
// POSTGRES_DSN or the first command line argument.
func main() {
	dsn := os.Getenv("POSTGRES_DSN")
	if len(os.Args) > 1 {
		dsn = os.Args[1]
	}
	if dsn == "" {
		log.Fatal("set POSTGRES_DSN or pass the connection string as an argument")
	}

	fmt.Printf("connecting to %s\n", maskPassword(dsn))

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	script, err := os.ReadFile("scripts/init_db.sql")
	if err != nil {
		log.Fatalf("failed to read init_db.sql: %v", err)
	}

	if _, err := db.Exec(string(script)); err != nil {
		log.Fatalf("failed to execute init_db.sql: %v", err)
	}

	fmt.Println("schema applied")

	for _, table := range []string{"organisations", "organisation_hr", "employees"} {
		var count int
		if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			log.Printf("warning: failed to query table %s: %v", table, err)
			continue
		}
		fmt.Printf("table %s: %d rows\n", table, count)
	}

	var email string
	err = db.QueryRow("SELECT email FROM employees WHERE department = 'Outreach' LIMIT 1").Scan(&email)
	if err != nil {
		log.Printf("warning: no Outreach employee seeded: %v", err)
	} else {
		fmt.Printf("seeded Outreach employee: %s\n", email)
	}
}

// maskPassword hides the credential portion of the connection string.
func maskPassword(dsn string) string {
	if len(dsn) > 50 {
		return dsn[:20] + "***" + dsn[len(dsn)-20:]
	}
	if len(dsn) > 10 {
		return dsn[:10] + "***"
	}
	return "***"
}
