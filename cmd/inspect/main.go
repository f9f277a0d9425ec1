package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/dh-automation/internal/repositories/campaigns"
	"github.com/KirkDiggler/dh-automation/internal/repositories/tables"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	campaignID := flag.String("campaign", os.Getenv("CAMPAIGN_ID"), "campaign to inspect")
	flag.Parse()
	if *campaignID == "" {
		*campaignID = "default"
	}

	// Set up Redis
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	campaign, err := campaigns.NewRedis(client).Get(ctx, *campaignID)
	if err != nil {
		log.Fatalf("Failed to load campaign %s: %v", *campaignID, err)
	}
	fmt.Printf("Campaign %s\n", campaign.ID)
	fmt.Printf("  fear: %d/%d\n", campaign.Fear.Value, campaign.Fear.Max)
	fmt.Printf("  automation: triggers=%t hopeFear=%t\n", campaign.Automation.Triggers, campaign.Automation.HopeFear)

	ids := make([]string, 0, len(campaign.Countdowns))
	for id := range campaign.Countdowns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	fmt.Printf("\nFound %d countdowns:\n", len(ids))
	for _, id := range ids {
		cd := campaign.Countdowns[id]
		fmt.Printf("  %s (%s): %d/%d\n", cd.Name, cd.Type, cd.Progress.Current, cd.Progress.Max)
	}

	rollTables, err := tables.NewRedis(client).List(ctx)
	if err != nil {
		log.Fatalf("Failed to list roll tables: %v", err)
	}
	fmt.Printf("\nFound %d roll tables:\n", len(rollTables))
	for _, t := range rollTables {
		fmt.Printf("  %s: %s, %d rows\n", t.ID, t.Formula, len(t.Results))
	}

	actorKeys, err := client.Keys(ctx, "actor:*").Result()
	if err != nil {
		log.Fatalf("Failed to get actor keys: %v", err)
	}
	messageKeys, err := client.Keys(ctx, "message:*").Result()
	if err != nil {
		log.Fatalf("Failed to get message keys: %v", err)
	}
	fmt.Printf("\n%d actors, %d workflow messages\n", len(actorKeys), len(messageKeys))
}
