// Command seed imports the station, train and schedule catalogs from
// JSON files and generates train runs with seat inventory for upcoming
// dates.  It is the command-line counterpart of the admin import
// endpoint, intended for first-time setup.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/rajeet-04/railway/internal/config"
	"github.com/rajeet-04/railway/internal/database"
	"github.com/rajeet-04/railway/internal/importer"
	"github.com/rajeet-04/railway/internal/repository"
)

func main() {
	stationsPath := flag.String("stations", "data/stations.json", "path to stations JSON")
	trainsPath := flag.String("trains", "data/trains.json", "path to trains JSON")
	schedulesPath := flag.String("schedules", "data/schedules.json", "path to schedules JSON")
	daysAhead := flag.Int("days-ahead", 30, "number of days to create train runs for")
	skipRuns := flag.Bool("skip-runs", false, "skip creating train runs and seats")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	db, err := database.Open(cfg.DBDriver, cfg.DBPath, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if cfg.DBDriver != "mysql" {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	im := importer.New(
		repository.NewStationRepo(db),
		repository.NewTrainRepo(db),
		repository.NewTrainRunRepo(db),
		repository.NewSeatRepo(db),
	)
	sum, err := im.Run(ctx, *stationsPath, *trainsPath, *schedulesPath, *daysAhead, *skipRuns)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
	log.Printf("import completed: %d stations, %d trains, %d stops, %d runs, %d seats",
		sum.Stations, sum.Trains, sum.Stops, sum.Runs, sum.Seats)
}
