package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const (
	defaultRate            = 30
	defaultTarget          = "http://localhost:8080"
	defaultTenants         = 5
	defaultScenarioWeights = "30,70" // writes, reads
)

type Config struct {
	Rate            int
	Target          string
	Tenants         int
	ScenarioWeights []int
	RequestTimeout  time.Duration
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loadGen := NewLoadGenerator(cfg, nil)

	errChan := make(chan error, 1)
	go func() {
		if err := loadGen.Start(ctx); err != nil {
			errChan <- fmt.Errorf("load generator failed: %w", err)
		}
	}()

	log.Printf("Load generator started against %s", cfg.Target)
	log.Printf("Configuration: rate=%d req/s, tenants=%d, scenario_weights=%v", cfg.Rate, cfg.Tenants, cfg.ScenarioWeights)

	select {
	case <-ctx.Done():
		log.Printf("Received shutdown signal, stopping...")
	case err := <-errChan:
		log.Printf("Error occurred: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := loadGen.Stop(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Printf("Load generator stopped")
}

func parseFlags(args []string) (Config, error) {
	fs := flag.NewFlagSet("load-generator", flag.ContinueOnError)

	var (
		rate            = fs.Int("rate", defaultRate, "Requests per second")
		target          = fs.String("target", defaultTarget, "Base URL of the hooks demo")
		tenants         = fs.Int("tenants", defaultTenants, "Number of tenants to spread requests over")
		scenarioWeights = fs.String("scenario-weights", defaultScenarioWeights, "Comma-separated weights for write,read scenarios")
		requestTimeout  = fs.Duration("request-timeout", 5*time.Second, "Timeout of a single request")
	)

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *rate <= 0 {
		return Config{}, fmt.Errorf("rate must be positive, got %d", *rate)
	}

	if *tenants <= 0 {
		return Config{}, fmt.Errorf("tenants must be positive, got %d", *tenants)
	}

	weights, err := parseScenarioWeights(*scenarioWeights)
	if err != nil {
		return Config{}, fmt.Errorf("invalid scenario weights '%s': %w", *scenarioWeights, err)
	}

	return Config{
		Rate:            *rate,
		Target:          strings.TrimRight(*target, "/"),
		Tenants:         *tenants,
		ScenarioWeights: weights,
		RequestTimeout:  *requestTimeout,
	}, nil
}

func parseScenarioWeights(weightsStr string) ([]int, error) {
	parts := strings.Split(weightsStr, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("expected 2 weights, got %d", len(parts))
	}

	weights := make([]int, 2)
	total := 0
	for i, part := range parts {
		weight, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid weight '%s': %w", part, err)
		}
		if weight < 0 || weight > 100 {
			return nil, fmt.Errorf("weight %d out of range [0, 100]", weight)
		}
		weights[i] = weight
		total += weight
	}

	if total != 100 {
		return nil, fmt.Errorf("weights must sum to 100, got %d", total)
	}

	return weights, nil
}
