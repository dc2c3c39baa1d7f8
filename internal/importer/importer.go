// Package importer loads the station, train and schedule catalogs from
// JSON files and generates bookable train runs with seat inventory for
// upcoming dates.  Imports are idempotent: records that already exist
// are skipped, so the importer can run repeatedly against the same
// database.
package importer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/rajeet-04/railway/internal/model"
	"github.com/rajeet-04/railway/internal/repository"
)

// Importer wires the repositories the import pipeline writes through.
type Importer struct {
	Stations *repository.StationRepo
	Trains   *repository.TrainRepo
	Runs     *repository.TrainRunRepo
	Seats    *repository.SeatRepo
}

func New(stations *repository.StationRepo, trains *repository.TrainRepo,
	runs *repository.TrainRunRepo, seats *repository.SeatRepo) *Importer {
	return &Importer{Stations: stations, Trains: trains, Runs: runs, Seats: seats}
}

// Summary reports how many records an import pass created.
type Summary struct {
	Stations int `json:"stations"`
	Trains   int `json:"trains"`
	Stops    int `json:"stops"`
	Runs     int `json:"runs"`
	Seats    int `json:"seats"`
}

// feature is a GeoJSON-style wrapper: catalog files may carry either a
// bare array of features or a {"features": [...]} document.
type feature struct {
	Properties json.RawMessage `json:"properties"`
	Geometry   *struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
}

func readFeatures(path string) ([]feature, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Features []feature `json:"features"`
	}
	if err := json.Unmarshal(raw, &doc); err == nil && doc.Features != nil {
		return doc.Features, nil
	}
	var list []feature
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return list, nil
}

type stationProps struct {
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	State   *string `json:"state"`
	Zone    *string `json:"zone"`
	Address *string `json:"address"`
}

// ImportStations reads the station catalog.  Stations whose code
// already exists are skipped.
func (im *Importer) ImportStations(ctx context.Context, path string) (int, error) {
	features, err := readFeatures(path)
	if err != nil {
		return 0, err
	}
	imported := 0
	for _, f := range features {
		if f.Properties == nil {
			continue
		}
		var props stationProps
		if err := json.Unmarshal(f.Properties, &props); err != nil {
			continue
		}
		if props.Code == "" || props.Name == "" {
			continue
		}
		s := model.Station{
			Code:    props.Code,
			Name:    props.Name,
			State:   props.State,
			Zone:    props.Zone,
			Address: props.Address,
		}
		if f.Geometry != nil && len(f.Geometry.Coordinates) >= 2 {
			lon, lat := f.Geometry.Coordinates[0], f.Geometry.Coordinates[1]
			s.Longitude = &lon
			s.Latitude = &lat
		}
		created, err := im.Stations.Upsert(ctx, &s)
		if err != nil {
			return imported, fmt.Errorf("station %s: %w", props.Code, err)
		}
		if created {
			imported++
		}
	}
	log.Printf("importer: %d stations imported from %s", imported, path)
	return imported, nil
}

type trainProps struct {
	Number          string  `json:"number"`
	Name            string  `json:"name"`
	FromStationCode string  `json:"from_station_code"`
	ToStationCode   string  `json:"to_station_code"`
	Departure       *string `json:"departure"`
	Arrival         *string `json:"arrival"`
	DurationH       *int    `json:"duration_h"`
	DurationM       *int    `json:"duration_m"`
	Type            *string `json:"type"`
	Zone            *string `json:"zone"`
	DistanceKm      *int    `json:"distance_km"`
	Classes         string  `json:"classes"`
}

// ImportTrains reads the train catalog.  Trains whose number already
// exists are skipped.
func (im *Importer) ImportTrains(ctx context.Context, path string) (int, error) {
	features, err := readFeatures(path)
	if err != nil {
		return 0, err
	}
	imported := 0
	for _, f := range features {
		if f.Properties == nil {
			continue
		}
		var props trainProps
		if err := json.Unmarshal(f.Properties, &props); err != nil {
			continue
		}
		if props.Number == "" || props.Name == "" {
			continue
		}
		t := model.Train{
			Number:          props.Number,
			Name:            props.Name,
			FromStationCode: props.FromStationCode,
			ToStationCode:   props.ToStationCode,
			DepartureTime:   props.Departure,
			ArrivalTime:     props.Arrival,
			DurationH:       props.DurationH,
			DurationM:       props.DurationM,
			Type:            props.Type,
			Zone:            props.Zone,
			DistanceKm:      props.DistanceKm,
			Classes:         props.Classes,
		}
		created, err := im.Trains.Create(ctx, &t)
		if err != nil {
			return imported, fmt.Errorf("train %s: %w", props.Number, err)
		}
		if created {
			imported++
		}
	}
	log.Printf("importer: %d trains imported from %s", imported, path)
	return imported, nil
}

type scheduleStop struct {
	StationCode         string  `json:"station_code"`
	Sequence            *uint32 `json:"sequence"`
	ArrivalTime         *string `json:"arrival_time"`
	DepartureTime       *string `json:"departure_time"`
	DayOffset           int     `json:"day_offset"`
	DistanceFromStartKm *int    `json:"distance_from_start_km"`
	Platform            *string `json:"platform"`
	HaltMinutes         *int    `json:"halt_minutes"`
}

type scheduleProps struct {
	TrainNumber string         `json:"train_number"`
	Stops       []scheduleStop `json:"stops"`
}

// flatStop is the alternative schedules format: one record per stop,
// grouped by train number, with 1-based day numbers.
type flatStop struct {
	TrainNumber string  `json:"train_number"`
	StationCode string  `json:"station_code"`
	Arrival     *string `json:"arrival"`
	Departure   *string `json:"departure"`
	Day         *int    `json:"day"`
	Sequence    *uint32 `json:"sequence"`
}

// ImportSchedules reads the stop schedules for trains already in the
// catalog.  Two formats are accepted: feature records carrying a
// train_number plus a stops array, or a flat array of per-stop records.
// Trains with existing stops are skipped entirely.
func (im *Importer) ImportSchedules(ctx context.Context, path string) (int, error) {
	features, err := readFeatures(path)
	if err != nil {
		return 0, err
	}
	imported := 0
	flat := make(map[string][]flatStop)
	for _, f := range features {
		if f.Properties == nil {
			// Possibly the flat format; re-parsed below.
			continue
		}
		var props scheduleProps
		if err := json.Unmarshal(f.Properties, &props); err != nil || props.TrainNumber == "" {
			continue
		}
		n, err := im.importTrainStops(ctx, props.TrainNumber, props.Stops)
		if err != nil {
			return imported, err
		}
		imported += n
	}
	if imported > 0 {
		log.Printf("importer: %d train stops imported from %s", imported, path)
		return imported, nil
	}

	// Fall back to the flat format.
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var flatList []flatStop
	if err := json.Unmarshal(raw, &flatList); err != nil {
		log.Printf("importer: no stops found in %s", path)
		return 0, nil
	}
	for _, s := range flatList {
		if s.TrainNumber == "" || s.StationCode == "" {
			continue
		}
		flat[s.TrainNumber] = append(flat[s.TrainNumber], s)
	}
	for number, stops := range flat {
		sort.SliceStable(stops, func(i, j int) bool {
			di, dj := 1, 1
			if stops[i].Day != nil {
				di = *stops[i].Day
			}
			if stops[j].Day != nil {
				dj = *stops[j].Day
			}
			if di != dj {
				return di < dj
			}
			li, lj := "", ""
			if stops[i].Departure != nil {
				li = *stops[i].Departure
			}
			if stops[j].Departure != nil {
				lj = *stops[j].Departure
			}
			return li < lj
		})
		converted := make([]scheduleStop, 0, len(stops))
		for idx, s := range stops {
			seq := uint32(idx + 1)
			if s.Sequence != nil {
				seq = *s.Sequence
			}
			day := 0
			if s.Day != nil {
				day = *s.Day - 1
			}
			converted = append(converted, scheduleStop{
				StationCode:   s.StationCode,
				Sequence:      &seq,
				ArrivalTime:   s.Arrival,
				DepartureTime: s.Departure,
				DayOffset:     day,
			})
		}
		n, err := im.importTrainStops(ctx, number, converted)
		if err != nil {
			return imported, err
		}
		imported += n
	}
	log.Printf("importer: %d train stops imported from %s", imported, path)
	return imported, nil
}

func (im *Importer) importTrainStops(ctx context.Context, trainNumber string, stops []scheduleStop) (int, error) {
	train, err := im.Trains.GetByNumber(ctx, trainNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("train %s: %w", trainNumber, err)
	}
	exists, err := im.Trains.HasStops(ctx, train.ID)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, nil
	}
	rows := make([]model.TrainStop, 0, len(stops))
	for i, s := range stops {
		if s.StationCode == "" {
			continue
		}
		seq := uint32(i + 1)
		if s.Sequence != nil {
			seq = *s.Sequence
		}
		rows = append(rows, model.TrainStop{
			TrainID:             train.ID,
			StationCode:         s.StationCode,
			StopSequence:        seq,
			ArrivalTime:         s.ArrivalTime,
			DepartureTime:       s.DepartureTime,
			DayOffset:           s.DayOffset,
			DistanceFromStartKm: s.DistanceFromStartKm,
			Platform:            s.Platform,
			HaltMinutes:         s.HaltMinutes,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := im.Trains.CreateStopsBulk(ctx, rows); err != nil {
		return 0, fmt.Errorf("stops for train %s: %w", trainNumber, err)
	}
	return len(rows), nil
}

// seatConfig describes how many seats of a class each generated run
// gets and at what price.
type seatConfig struct {
	Class      string
	Count      int
	PriceCents uint32
}

// defaultSeatConfigs yields 100 seats per run across four classes.
var defaultSeatConfigs = []seatConfig{
	{"1A", 20, 300000},
	{"2A", 30, 200000},
	{"3A", 30, 150000},
	{"SL", 20, 80000},
}

// GenerateRuns creates train runs with full seat inventory for every
// train over the next daysAhead dates, starting today.  Existing runs
// are left untouched.  Returns runs and seats created.
func (im *Importer) GenerateRuns(ctx context.Context, daysAhead int) (int, int, error) {
	if daysAhead <= 0 {
		daysAhead = 30
	}
	trains, err := im.Trains.List(ctx)
	if err != nil {
		return 0, 0, err
	}
	today := time.Now().UTC()
	runsCreated, seatsCreated := 0, 0
	for _, train := range trains {
		for offset := 0; offset < daysAhead; offset++ {
			runDate := today.AddDate(0, 0, offset).Format("2006-01-02")
			if _, err := im.Runs.GetByTrainAndDate(ctx, train.ID, runDate); err == nil {
				continue
			} else if !errors.Is(err, sql.ErrNoRows) {
				return runsCreated, seatsCreated, err
			}

			runID, err := im.Runs.Create(ctx, train.ID, runDate, 0)
			if err != nil {
				return runsCreated, seatsCreated, fmt.Errorf("run %s/%s: %w", train.Number, runDate, err)
			}
			runsCreated++

			seats := make([]model.Seat, 0, 100)
			for _, cfg := range defaultSeatConfigs {
				coach := cfg.Class[:1] + "1"
				for i := 1; i <= cfg.Count; i++ {
					seats = append(seats, model.Seat{
						TrainRunID:  runID,
						SeatNumber:  fmt.Sprintf("%s-%d", cfg.Class, i),
						CoachNumber: coach,
						SeatClass:   cfg.Class,
						PriceCents:  cfg.PriceCents,
						Status:      model.SeatAvailable,
					})
				}
			}
			if err := im.Seats.CreateBulk(ctx, seats); err != nil {
				return runsCreated, seatsCreated, fmt.Errorf("seats for run %d: %w", runID, err)
			}
			seatsCreated += len(seats)

			if err := im.Runs.SetTotals(ctx, runID, uint32(len(seats)), uint32(len(seats))); err != nil {
				return runsCreated, seatsCreated, err
			}
		}
	}
	log.Printf("importer: created %d runs with %d seats", runsCreated, seatsCreated)
	return runsCreated, seatsCreated, nil
}

// Run executes the full pipeline: stations, trains, schedules, then
// run generation.  Any missing catalog file is skipped with a log line
// rather than failing the whole import.
func (im *Importer) Run(ctx context.Context, stationsPath, trainsPath, schedulesPath string, daysAhead int, skipRuns bool) (Summary, error) {
	var sum Summary
	steps := []struct {
		path string
		fn   func() error
	}{
		{stationsPath, func() error {
			n, err := im.ImportStations(ctx, stationsPath)
			sum.Stations = n
			return err
		}},
		{trainsPath, func() error {
			n, err := im.ImportTrains(ctx, trainsPath)
			sum.Trains = n
			return err
		}},
		{schedulesPath, func() error {
			n, err := im.ImportSchedules(ctx, schedulesPath)
			sum.Stops = n
			return err
		}},
	}
	for _, step := range steps {
		if step.path == "" {
			continue
		}
		if _, err := os.Stat(step.path); err != nil {
			log.Printf("importer: %s not found, skipping", step.path)
			continue
		}
		if err := step.fn(); err != nil {
			return sum, err
		}
	}
	if !skipRuns {
		runs, seats, err := im.GenerateRuns(ctx, daysAhead)
		sum.Runs, sum.Seats = runs, seats
		if err != nil {
			return sum, err
		}
	}
	return sum, nil
}
