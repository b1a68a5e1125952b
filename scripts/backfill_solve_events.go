// Backfill solve_events for puzzles solved before the events table existed.
//
// Normally the arbiter writes the event in the same transaction as the solve;
// this script only matters after importing data from an older deployment.
//
// Usage: go run scripts/backfill_solve_events.go

package main

import (
	"log"
	"os"

	"takarawalk_backend/internal/config"
	"takarawalk_backend/internal/model"
	"takarawalk_backend/pkg/database"

	"gopkg.in/yaml.v3"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("failed to parse config file: %v", err)
	}

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	var solved []model.Puzzle
	if err := db.Where("solved = ?", true).Find(&solved).Error; err != nil {
		log.Fatalf("failed to load solved puzzles: %v", err)
	}

	backfilled := 0
	for _, p := range solved {
		if p.SolvedBy == nil || p.SolvedAt == nil {
			log.Printf("skipping puzzle %s: solved but missing winner fields", p.ID)
			continue
		}

		var count int64
		if err := db.Model(&model.SolveEvent{}).Where("puzzle_id = ?", p.ID).Count(&count).Error; err != nil {
			log.Fatalf("failed to check events for puzzle %s: %v", p.ID, err)
		}
		if count > 0 {
			continue
		}

		event := model.SolveEvent{
			PuzzleID:   p.ID,
			SolverName: *p.SolvedBy,
			SolverUID:  p.SolvedByUID,
			SolvedAt:   *p.SolvedAt,
		}
		if err := db.Create(&event).Error; err != nil {
			log.Fatalf("failed to create event for puzzle %s: %v", p.ID, err)
		}
		backfilled++
	}

	log.Printf("backfill complete: %d solved puzzles, %d events created", len(solved), backfilled)
}
