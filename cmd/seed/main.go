package main

import (
	"encoding/json"
	"log"

	"regen-advisor-be/internal/config"
	"regen-advisor-be/internal/constant"
	"regen-advisor-be/internal/model"
	"regen-advisor-be/pkg/database"
	"regen-advisor-be/pkg/embedding"
	"regen-advisor-be/pkg/embedding/jina"
	"regen-advisor-be/pkg/utils"

	"github.com/fatih/color"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type seedEntry struct {
	CollectionKey string
	Title         string
	Content       string
}

// Starter corpus so a fresh deployment can answer pipeline queries before an
// operator curates real knowledge. Ratings use the very low..very high scale.
var starterEntries = []seedEntry{
	{
		CollectionKey: constant.CollectionOutcomeIndicators,
		Title:         "Soil health indicators",
		Content: `Outcome: improved soil health.
Indicators: soil organic carbon, earthworm abundance, water infiltration rate, soil aggregate stability, microbial biomass.`,
	},
	{
		CollectionKey: constant.CollectionOutcomeIndicators,
		Title:         "Bird population indicators",
		Content: `Outcome: increased bird populations.
Indicators: breeding bird abundance, species richness, nest success rate, territory density of target species.`,
	},
	{
		CollectionKey: constant.CollectionOutcomeIndicators,
		Title:         "Water quality indicators",
		Content: `Outcome: improved water quality in streams and ponds.
Indicators: nitrate concentration, phosphate concentration, turbidity, macroinvertebrate community index.`,
	},
	{
		CollectionKey: constant.CollectionIndicatorMethods,
		Title:         "Methods for soil organic carbon",
		Content: `Indicator: soil organic carbon.
Methods:
[{"name": "Laboratory dry combustion analysis", "accuracy": "very high", "cost": "high", "ease_of_use": "low"},
 {"name": "Loss on ignition test", "accuracy": "medium", "cost": "low", "ease_of_use": "medium"},
 {"name": "Soil colour chart assessment", "accuracy": "low", "cost": "very low", "ease_of_use": "very high"}]`,
	},
	{
		CollectionKey: constant.CollectionIndicatorMethods,
		Title:         "Methods for breeding bird abundance",
		Content: `Indicator: breeding bird abundance.
Methods:
[{"name": "Territory mapping survey", "accuracy": "very high", "cost": "high", "ease_of_use": "low"},
 {"name": "Point count survey", "accuracy": "high", "cost": "medium", "ease_of_use": "medium"},
 {"name": "Acoustic recorder deployment", "accuracy": "medium", "cost": "medium", "ease_of_use": "high"}]`,
	},
	{
		CollectionKey: constant.CollectionIndicatorMethods,
		Title:         "Methods for nitrate concentration",
		Content: `Indicator: nitrate concentration.
Methods:
[{"name": "Laboratory ion chromatography", "accuracy": "very high", "cost": "high", "ease_of_use": "low"},
 {"name": "Field test strips", "accuracy": "low", "cost": "very low", "ease_of_use": "very high"},
 {"name": "Portable colorimeter", "accuracy": "medium", "cost": "medium", "ease_of_use": "high"}]`,
	},
}

func main() {
	cfg := config.Load()

	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	embedder := newEmbedder(cfg)

	color.Cyan("Seeding starter knowledge corpus")

	for _, se := range starterEntries {
		if err := seedOne(db, embedder, se); err != nil {
			color.Red("Failed %q: %v", se.Title, err)
			continue
		}
		color.Green("Seeded %q (%s)", se.Title, se.CollectionKey)
	}

	color.Cyan("Seeding completed")
}

func seedOne(db *gorm.DB, embedder embedding.EmbeddingProvider, se seedEntry) error {
	var collection model.KnowledgeCollection
	if err := db.Where("key = ?", se.CollectionKey).First(&collection).Error; err != nil {
		return err
	}

	var existing model.KnowledgeEntry
	if err := db.Where("title = ? AND collection_id = ?", se.Title, collection.Id).First(&existing).Error; err == nil {
		color.Yellow("Entry %q already exists, skipping", se.Title)
		return nil
	}

	metadata, _ := json.Marshal(map[string]any{"source": "starter-corpus"})
	entry := model.KnowledgeEntry{
		Title:        se.Title,
		Content:      se.Content,
		Metadata:     datatypes.JSON(metadata),
		CollectionId: collection.Id,
	}
	if err := db.Create(&entry).Error; err != nil {
		return err
	}

	chunks := utils.SplitText("Title: "+se.Title+"\n\n"+se.Content, 1500, 200)
	for i, chunk := range chunks {
		res, err := embedder.Generate(chunk, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return err
		}
		row := model.KnowledgeEmbedding{
			Document:       chunk,
			EmbeddingValue: pgvector.NewVector(res.Embedding.Values),
			EntryId:        entry.Id,
			CollectionKey:  collection.Key,
			ChunkIndex:     i,
		}
		if err := db.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func newEmbedder(cfg *config.Config) embedding.EmbeddingProvider {
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	case "jina":
		return jina.NewJinaProvider(cfg.Keys.Jina)
	default:
		return embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}
}
