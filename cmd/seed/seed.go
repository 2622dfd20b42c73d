package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/modelmux/modelmux/internal/store/model"
	"github.com/modelmux/modelmux/internal/store/sqlite"
)

// Seeds the settings database with the six built-in providers, keyed to the
// conventional environment variables.
func main() {
	repo, err := sqlite.NewSQLiteStorage("modelmux.db")
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	seeds := []model.ProviderSetting{
		{Name: "openai", Type: "openai", Label: "OpenAI", APIKeyEnv: "OPENAI_API_KEY"},
		{Name: "anthropic", Type: "anthropic", Label: "Anthropic", APIKeyEnv: "ANTHROPIC_API_KEY"},
		{Name: "google", Type: "google", Label: "Google Gemini", APIKeyEnv: "GOOGLE_API_KEY"},
		{Name: "mistral", Type: "mistral", Label: "Mistral", APIKeyEnv: "MISTRAL_API_KEY"},
		{Name: "deepseek", Type: "deepseek", Label: "DeepSeek", APIKeyEnv: "DEEPSEEK_API_KEY", Region: "cn"},
		{Name: "qwen", Type: "qwen", Label: "Qwen", APIKeyEnv: "DASHSCOPE_API_KEY", Region: "cn"},
	}

	for _, s := range seeds {
		s.ID = uuid.NewString()
		s.Enabled = true
		s.CreatedAt = now
		s.UpdatedAt = now
		if err := repo.Providers().Upsert(ctx, &s); err != nil {
			log.Fatalf("failed to seed provider %s: %v", s.Name, err)
		}
		fmt.Printf("Seeded provider: %s (env %s)\n", s.Name, s.APIKeyEnv)
	}

	fmt.Println("\nDone. Enable the database in config and export the API key env vars.")
}
