package main

import (
	"fmt"
	"log"
	"os"

	"guest-assistant-be/internal/model"
	"guest-assistant-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting Authoritative GORM Migration...")

	// 3. Pre-Migration: Extensions
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.ContentEmbedding{},
		&model.ChatTurn{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: Similarity-Search Functions
	// One function per domain. Each filters on its domain and on the tier of
	// the incoming query vector, so a fast-tier query never compares against
	// rows embedded at a different dimensionality.
	log.Println("Step 3: Creating Similarity-Search Functions...")

	matchFunctions := map[string]string{
		"match_accommodation_units": "accommodation",
		"match_tourism_content":     "tourism",
		"match_regulatory_docs":     "regulatory",
	}

	for fn, domain := range matchFunctions {
		sql := fmt.Sprintf(`CREATE OR REPLACE FUNCTION %s(query_embedding vector, match_threshold float, match_count int)
		 RETURNS TABLE (identity varchar, content text, metadata jsonb, similarity float)
		 LANGUAGE sql STABLE AS $$
		   SELECT ce.identity, ce.content, ce.metadata,
		          1 - (ce.embedding <=> query_embedding) AS similarity
		   FROM content_embeddings ce
		   WHERE ce.domain = '%s'
		     AND ce.dimensions = vector_dims(query_embedding)
		     AND 1 - (ce.embedding <=> query_embedding) >= match_threshold
		   ORDER BY ce.embedding <=> query_embedding
		   LIMIT match_count;
		 $$;`, fn, domain)

		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to create %s: %v", fn, err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
