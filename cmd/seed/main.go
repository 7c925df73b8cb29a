package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/caresched/caresched/internal/availability"
	"github.com/caresched/caresched/internal/config"
	"github.com/caresched/caresched/internal/db"
	"github.com/caresched/caresched/internal/identity"
	"github.com/caresched/caresched/internal/logging"
	"github.com/caresched/caresched/internal/patient"
	"github.com/caresched/caresched/internal/provider"
	redisclient "github.com/caresched/caresched/internal/redis"
)

// Every seeded account gets this password so the API can be exercised by
// hand after seeding.
const seedPassword = "CareSched-Demo1!"

var specializations = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var timezones = []string{
	"America/New_York",
	"America/Chicago",
	"America/Los_Angeles",
	"Europe/London",
	"Asia/Kolkata",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init("seed", "dev")
		log.Fatal().Err(err).Msg("config load error")
	}
	logging.Init("seed", cfg.Env)
	log.Info().Msg("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.PgMaxConns)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisPoolSize)
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer rdb.Close()

	gofakeit.Seed(time.Now().UnixNano())

	hasher := identity.NewHasher(cfg.BcryptCost)
	tokens := identity.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL)

	providers := provider.NewService(provider.NewPgRepository(pool), hasher, tokens, log.Logger)
	patients := patient.NewService(patient.NewPgRepository(pool), hasher, tokens, log.Logger)
	schedule := availability.NewService(availability.NewPgRepository(pool), locker, log.Logger)

	seeded, err := seedProviders(context.Background(), providers, 25)
	if err != nil {
		log.Fatal().Err(err).Msg("seed providers")
	}
	if err := seedPatients(context.Background(), patients, 200); err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}
	if err := seedAvailability(context.Background(), schedule, seeded); err != nil {
		log.Fatal().Err(err).Msg("seed availability")
	}

	log.Info().Str("password", seedPassword).Msg("seed complete, all accounts share the seed password")
}

func seedProviders(ctx context.Context, svc *provider.Service, count int) ([]*provider.Provider, error) {
	log.Info().Int("count", count).Msg("seeding providers")

	out := make([]*provider.Provider, 0, count)
	for i := 0; i < count; i++ {
		years := gofakeit.Number(1, 35)
		p, err := svc.Register(ctx, provider.RegisterParams{
			FirstName:         gofakeit.FirstName(),
			LastName:          gofakeit.LastName(),
			Email:             fmt.Sprintf("provider%d@caresched.dev", i),
			PhoneNumber:       gofakeit.Phone(),
			Password:          seedPassword,
			Specialization:    specializations[gofakeit.Number(0, len(specializations)-1)],
			LicenseNumber:     fmt.Sprintf("MD-%06d", gofakeit.Number(100000, 999999)),
			YearsOfExperience: &years,
			ClinicAddress: provider.ClinicAddress{
				Street:  gofakeit.Street(),
				City:    gofakeit.City(),
				State:   gofakeit.StateAbr(),
				Zip:     gofakeit.Zip(),
				Country: "US",
			},
		})
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	log.Info().Msg("providers seeded")
	return out, nil
}

func seedPatients(ctx context.Context, svc *patient.Service, count int) error {
	log.Info().Int("count", count).Msg("seeding patients")

	genders := []patient.Gender{patient.GenderMale, patient.GenderFemale, patient.GenderOther}
	for i := 0; i < count; i++ {
		_, err := svc.Register(ctx, patient.RegisterParams{
			FirstName:   gofakeit.FirstName(),
			LastName:    gofakeit.LastName(),
			Email:       fmt.Sprintf("patient%d@caresched.dev", i),
			PhoneNumber: gofakeit.Phone(),
			Password:    seedPassword,
			DateOfBirth: gofakeit.DateRange(
				time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2006, 12, 31, 0, 0, 0, 0, time.UTC),
			),
			Gender: genders[gofakeit.Number(0, len(genders)-1)],
			Address: patient.Address{
				Street: gofakeit.Street(),
				City:   gofakeit.City(),
				State:  gofakeit.StateAbr(),
				Zip:    gofakeit.Zip(),
			},
		})
		if err != nil {
			return err
		}
	}

	log.Info().Msg("patients seeded")
	return nil
}

func seedAvailability(ctx context.Context, svc *availability.Service, providers []*provider.Provider) error {
	log.Info().Int("providers", len(providers)).Msg("seeding availability")

	tomorrow := time.Now().UTC().AddDate(0, 0, 1)
	types := []availability.AppointmentType{
		availability.TypeConsultation,
		availability.TypeFollowUp,
		availability.TypeTelemedicine,
	}

	for _, p := range providers {
		tz := timezones[gofakeit.Number(0, len(timezones)-1)]
		apptType := types[gofakeit.Number(0, len(types)-1)]
		recurring := gofakeit.Bool()

		decl := availability.Declaration{
			Date:            tomorrow,
			StartTime:       availability.WallClock{Hour: 9},
			EndTime:         availability.WallClock{Hour: 17},
			Timezone:        tz,
			IsRecurring:     recurring,
			SlotDuration:    30,
			BreakDuration:   15,
			MaxAppointments: 1,
			AppointmentType: apptType,
			Location: availability.Location{
				Type:    availability.LocationClinic,
				Address: gofakeit.Street(),
				City:    gofakeit.City(),
				State:   gofakeit.StateAbr(),
				Zip:     gofakeit.Zip(),
			},
			Pricing: availability.Pricing{
				BaseFee:           decimal.NewFromInt(int64(gofakeit.Number(50, 400))),
				Currency:          "USD",
				InsuranceAccepted: gofakeit.Bool(),
			},
		}
		if recurring {
			pattern := availability.RecurrenceWeekly
			endDate := tomorrow.AddDate(0, 0, 21)
			decl.RecurrencePattern = &pattern
			decl.RecurrenceEndDate = &endDate
		}
		if apptType == availability.TypeTelemedicine {
			decl.Location = availability.Location{Type: availability.LocationTelemedicine}
		}

		result, err := svc.Create(ctx, p.ID, decl)
		if err != nil {
			return fmt.Errorf("availability for %s: %w", p.Email, err)
		}
		log.Debug().
			Str("provider", p.Email).
			Int("slots", result.SlotsCreated).
			Msg("availability seeded")
	}

	log.Info().Msg("availability seeded")
	return nil
}
