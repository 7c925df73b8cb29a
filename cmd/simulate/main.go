package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/caresched/caresched/internal/logging"
)

// simulate hammers a single slot with concurrent booking attempts and
// reports how many succeeded. With the slot lock and the compare-and-set
// claim in place, exactly one attempt should win no matter how many
// workers race.

type SimConfig struct {
	APIBaseURL   string
	SlotID       string
	Workers      int
	SeedPassword string
}

func loadSimConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getenv("API_BASE_URL", "http://localhost:8080"),
		SlotID:       os.Getenv("SLOT_ID"),
		Workers:      50,
		SeedPassword: getenv("SEED_PASSWORD", "CareSched-Demo1!"),
	}
	if raw := os.Getenv("WORKERS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type Metrics struct {
	Total     int64
	Booked    int64
	Conflicts int64
	Errors    int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (m *Metrics) Record(latency time.Duration, status int) {
	atomic.AddInt64(&m.Total, 1)
	switch {
	case status == http.StatusCreated:
		atomic.AddInt64(&m.Booked, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&m.Conflicts, 1)
	default:
		atomic.AddInt64(&m.Errors, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *Metrics) Stats() (p50, p95, max time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(m.latencies))
	copy(latencies, m.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	idx := func(pct int) int {
		i := len(latencies) * pct / 100
		if i >= len(latencies) {
			i = len(latencies) - 1
		}
		return i
	}
	return latencies[idx(50)], latencies[idx(95)], latencies[len(latencies)-1]
}

func main() {
	logging.Init("simulate", getenv("APP_ENV", "dev"))

	cfg := loadSimConfig()
	if cfg.SlotID == "" {
		log.Fatal().Msg("SLOT_ID is required")
	}

	log.Info().
		Str("slot_id", cfg.SlotID).
		Int("workers", cfg.Workers).
		Msg("contention simulation starting")

	client := &http.Client{Timeout: 10 * time.Second}

	tokens := make([]string, cfg.Workers)
	for i := range tokens {
		token, err := login(client, cfg, fmt.Sprintf("patient%d@caresched.dev", i))
		if err != nil {
			log.Fatal().Err(err).Int("patient", i).Msg("login failed, run the seed command first")
		}
		tokens[i] = token
	}
	log.Info().Int("patients", len(tokens)).Msg("patients logged in")

	var metrics Metrics
	start := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			<-start

			began := time.Now()
			status, err := bookSlot(client, cfg, token)
			if err != nil {
				metrics.Record(time.Since(began), 0)
				return
			}
			metrics.Record(time.Since(began), status)
		}(tokens[i])
	}

	close(start)
	wg.Wait()

	p50, p95, max := metrics.Stats()
	log.Info().
		Int64("attempts", metrics.Total).
		Int64("booked", metrics.Booked).
		Int64("conflicts", metrics.Conflicts).
		Int64("errors", metrics.Errors).
		Dur("p50", p50).
		Dur("p95", p95).
		Dur("max", max).
		Msg("simulation complete")

	if metrics.Booked == 1 {
		log.Info().Msg("exactly one booking won the race")
	} else {
		log.Error().Int64("booked", metrics.Booked).Msg("expected exactly one winner")
		os.Exit(1)
	}
}

func login(client *http.Client, cfg SimConfig, email string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": cfg.SeedPassword,
	})

	resp, err := client.Post(cfg.APIBaseURL+"/api/v1/patients/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login %s: status %d: %s", email, resp.StatusCode, data)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

func bookSlot(client *http.Client, cfg SimConfig, token string) (int, error) {
	body, _ := json.Marshal(map[string]string{"slot_id": cfg.SlotID})

	req, err := http.NewRequest(http.MethodPost, cfg.APIBaseURL+"/api/v1/appointments", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
