package main

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"go-freight/internal/config"
	"go-freight/internal/database"
	"go-freight/internal/features/listing"
	"go-freight/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const (
	consignmentCount = 480
	tripSheetCount   = 120
)

var (
	cities   = []string{"Chennai", "Bengaluru", "Hyderabad", "Coimbatore", "Madurai", "Mumbai", "Pune"}
	traders  = []string{"Sri Balaji Traders", "Lakshmi Textiles", "Kaveri Agro", "Annapoorna Foods", "Vel Steel", "Murugan Hardware", "Ganesh Plastics", "Sakthi Motors"}
	drivers  = []string{"Ravi Kumar", "Senthil", "Abdul Rahim", "Prakash", "Manoj", "Suresh Babu"}
	statuses = []string{"booked", "in_transit", "delivered", "delivered", "cancelled"}
	payments = []string{"paid", "to_pay", "tbb"}
)

// Seed fills the freight collections with reproducible demo data.
func Seed(lc fx.Lifecycle, repo listing.ListingRepository, logger *zap.Logger, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						logger.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
				defer cancel()

				logger.Info("Starting demo data seeding")
				rng := rand.New(rand.NewPCG(2024, 3))
				today := time.Now().UTC().Truncate(24 * time.Hour)

				seeds := []struct {
					resource string
					docs     []bson.M
				}{
					{"parties", parties(rng, today)},
					{"consignments", consignments(rng, today)},
					{"trip_sheets", tripSheets(rng, today)},
				}
				for _, s := range seeds {
					schema, err := listing.LookupResource(s.resource)
					if err != nil {
						logger.Error("Unknown resource", zap.String("resource", s.resource))
						continue
					}
					n, err := repo.InsertMany(ctx, schema, s.docs)
					if err != nil {
						logger.Error("Failed to seed", zap.String("resource", s.resource), zap.Error(err))
						continue
					}
					logger.Info("Seeded", zap.String("resource", s.resource), zap.Int("count", n))
				}

				if err := repo.EnsureIndexes(ctx); err != nil {
					logger.Warn("Failed to ensure indexes", zap.Error(err))
				}
				logger.Info("Seeding complete")
			}()
			return nil
		},
	})
}

func pick[T any](rng *rand.Rand, from []T) T {
	return from[rng.IntN(len(from))]
}

func vehicleNo(rng *rand.Rand) string {
	return fmt.Sprintf("TN %02d %c%c %04d", rng.IntN(99)+1, 'A'+rng.IntN(26), 'A'+rng.IntN(26), rng.IntN(10000))
}

func parties(rng *rand.Rand, today time.Time) []bson.M {
	docs := make([]bson.M, 0, len(traders))
	types := []string{"consignor", "consignee", "broker"}
	for i, name := range traders {
		docs = append(docs, bson.M{
			"name":                 name,
			"type":                 types[i%len(types)],
			"city":                 pick(rng, cities),
			"gstin":                fmt.Sprintf("33AAB%04dK1Z%d", rng.IntN(10000), i%10),
			"phone":                fmt.Sprintf("98%08d", rng.IntN(100000000)),
			listing.FieldCreatedAt: today.AddDate(0, 0, -rng.IntN(365)),
		})
	}
	return docs
}

func consignments(rng *rand.Rand, today time.Time) []bson.M {
	docs := make([]bson.M, 0, consignmentCount)
	for i := 1; i <= consignmentCount; i++ {
		origin := pick(rng, cities)
		destination := pick(rng, cities)
		for destination == origin {
			destination = pick(rng, cities)
		}
		packages := rng.IntN(40) + 1
		docs = append(docs, bson.M{
			"cn_number":      fmt.Sprintf("CN-%05d", i),
			"booking_date":   today.AddDate(0, 0, -rng.IntN(90)),
			"consignor":      pick(rng, traders),
			"consignee":      pick(rng, traders),
			"origin":         origin,
			"destination":    destination,
			"vehicle_no":     vehicleNo(rng),
			"packages":       packages,
			"weight_kg":      packages * (rng.IntN(30) + 5),
			"freight_amount": float64(packages) * (80 + float64(rng.IntN(120))),
			"payment_mode":   pick(rng, payments),
			"status":         pick(rng, statuses),
		})
	}
	return docs
}

func tripSheets(rng *rand.Rand, today time.Time) []bson.M {
	docs := make([]bson.M, 0, tripSheetCount)
	for i := 1; i <= tripSheetCount; i++ {
		status := "closed"
		if i > tripSheetCount-20 {
			status = "open"
		}
		docs = append(docs, bson.M{
			"trip_number":       fmt.Sprintf("TS-%04d", i),
			"trip_date":         today.AddDate(0, 0, -(tripSheetCount-i)/2),
			"vehicle_no":        vehicleNo(rng),
			"driver_name":       pick(rng, drivers),
			"origin":            pick(rng, cities),
			"destination":       pick(rng, cities),
			"consignment_count": rng.IntN(25) + 1,
			"status":            status,
		})
	}
	return docs
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			listing.NewListingRepository,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}

	<-app.Done()
}
