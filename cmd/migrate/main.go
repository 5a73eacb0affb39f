package main

import (
	"log"
	"os"

	"regen-advisor-be/internal/constant"
	"regen-advisor-be/internal/model"
	"regen-advisor-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Environment
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Database
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM migration...")

	// 3. Extensions (AutoMigrate cannot create these)
	log.Println("Step 1: Setting up extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate all models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.Outcome{},
		&model.Indicator{},
		&model.Method{},
		&model.Recommendation{},
		&model.Gap{},
		&model.KnowledgeCollection{},
		&model.KnowledgeEntry{},
		&model.KnowledgeEmbedding{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Seed the two knowledge collections the pipeline queries
	log.Println("Step 3: Ensuring knowledge collections...")

	collections := []model.KnowledgeCollection{
		{Key: constant.CollectionOutcomeIndicators, Description: "Measurable indicators per desired outcome"},
		{Key: constant.CollectionIndicatorMethods, Description: "Monitoring methods with accuracy, cost and ease-of-use ratings per indicator"},
	}
	for _, c := range collections {
		result := db.Where("key = ?", c.Key).FirstOrCreate(&c)
		if result.Error != nil {
			log.Printf("Warn: Failed to ensure collection %q: %v", c.Key, result.Error)
		}
	}

	// 6. Vector index for similarity search
	log.Println("Step 4: Creating vector index...")
	indexSQL := `CREATE INDEX IF NOT EXISTS idx_knowledge_embeddings_vector
		ON knowledge_embeddings USING hnsw (embedding_value vector_cosine_ops);`
	if err := db.Exec(indexSQL).Error; err != nil {
		log.Printf("Warn: Failed to create vector index: %v", err)
	}

	log.Println("Success: Database migration completed via GORM.")
}
