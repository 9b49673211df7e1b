// Command seed fills the database with demo narrative projects.
package main

import (
	"flag"
	"log"

	"storyloom/internal/config"
	"storyloom/internal/database"
	"storyloom/internal/seed"
)

func main() {
	owner := flag.String("owner", "", "Email of the demo projects' owner (default writer@storyloom.local)")
	numProjects := flag.Int("projects", 1, "Number of demo projects to create")
	seedValue := flag.Int64("seed", 1, "Random seed for generated names and colors")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	summary, err := seed.Demo(db, seed.Options{
		OwnerEmail:  *owner,
		NumProjects: *numProjects,
		Seed:        *seedValue,
	})
	if err != nil {
		log.Fatalf("Demo seeding failed: %v", err)
	}

	log.Printf("Seeded %d projects: %d characters, %d dialogues, %d conversations, %d questions",
		summary.Projects, summary.Characters, summary.Dialogues, summary.Conversations, summary.Questions)
}
