// Command seed fills the development database with demo posts.
package main

import (
	"flag"
	"log"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/seed"
)

func main() {
	posts := flag.Int("posts", 25, "number of posts to create")
	authors := flag.Int("authors", 3, "number of synthetic author identities")
	maxDays := flag.Int("max-days", 90, "maximum age of generated posts in days")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Env == "production" || cfg.Env == "prod" {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	factory := seed.NewFactory(db, seed.Options{
		Posts:   *posts,
		Authors: *authors,
		MaxDays: *maxDays,
	})

	created, err := factory.Run()
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d posts", created)
}
