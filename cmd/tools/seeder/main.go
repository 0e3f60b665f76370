package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/toko-cart/internal/cache"
	"github.com/noah-isme/toko-cart/internal/config"
	"github.com/noah-isme/toko-cart/internal/discount"
)

func main() {
	var (
		file   = flag.String("discounts", "discounts.json", "JSON file with discount definitions")
		dryRun = flag.Bool("dry-run", false, "validate the definitions without writing them")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read %s: %v", *file, err)
	}
	var defs []discount.Discount
	if err := json.Unmarshal(data, &defs); err != nil {
		log.Fatalf("decode %s: %v", *file, err)
	}
	if _, err := discount.NewMemory(defs...); err != nil {
		log.Fatalf("validate discounts: %v", err)
	}
	if *dryRun {
		log.Printf("%d discount definitions are valid", len(defs))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	slots := cache.NewJSON(client, 0)
	for _, d := range defs {
		if err := slots.Set(ctx, cache.KeyDiscount(d.Code), d); err != nil {
			log.Fatalf("store discount %s: %v", d.Code, err)
		}
		log.Printf("stored discount %s", d.Code)
	}
}
