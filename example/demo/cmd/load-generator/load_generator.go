// Package main implements a load generator for the hooks demo. It spreads document writes and reads
// over several tenants at a configurable rate, so every request passes the tenant hooks and listeners.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

const (
	scenarioWrite  = "write"
	scenarioRead   = "read"
	headerTenantID = "X-Tenant-ID"
)

var (
	jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

	errUnexpectedStatus = errors.New("unexpected response status")
)

// LoadGenerator sends requests to the hooks demo at a fixed rate and keeps request and error counts.
type LoadGenerator struct {
	config Config
	client *http.Client

	// Rate limiting
	ticker   *time.Ticker
	stopChan chan struct{}
	stopOnce sync.Once
	loopDone chan struct{}
	wg       sync.WaitGroup

	requestCount int64
	errorCount   int64
	startTime    time.Time
	mu           sync.RWMutex
}

// NewLoadGenerator creates a LoadGenerator. A nil httpClient uses one with the configured request timeout.
func NewLoadGenerator(config Config, httpClient *http.Client) *LoadGenerator {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.RequestTimeout}
	}

	return &LoadGenerator{
		config:   config,
		client:   httpClient,
		stopChan: make(chan struct{}),
		loopDone: make(chan struct{}),
	}
}

// Start begins load generation with the configured request rate.
// It runs until the context is cancelled or Stop() is called.
func (lg *LoadGenerator) Start(ctx context.Context) error {
	defer close(lg.loopDone)

	lg.mu.Lock()
	lg.startTime = time.Now()
	lg.requestCount = 0
	lg.errorCount = 0
	lg.mu.Unlock()

	interval := time.Second / time.Duration(lg.config.Rate)
	lg.ticker = time.NewTicker(interval)
	defer lg.ticker.Stop()

	log.Printf("Load generator starting with %d requests/second (interval: %v), initial goroutines: %d", lg.config.Rate, interval, runtime.NumGoroutine())

	lg.wg.Add(1)
	go lg.metricsReporter(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Load generator stopping due to context cancellation")
			return nil

		case <-lg.stopChan:
			log.Printf("Load generator stopping due to stop signal")
			return nil

		case <-lg.ticker.C:
			lg.wg.Add(1)
			go lg.executeScenario(ctx)
		}
	}
}

// Stop gracefully shuts down the load generator. It must only be called after Start.
func (lg *LoadGenerator) Stop(ctx context.Context) error {
	lg.stopOnce.Do(func() { close(lg.stopChan) })

	// no scenario is scheduled once the loop has returned
	done := make(chan struct{})
	go func() {
		<-lg.loopDone
		lg.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		lg.logStats("Final Stats")
		return nil
	case <-ctx.Done():
		lg.logStats("Final Stats")
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

// Stats returns the number of requests sent and how many of them failed.
func (lg *LoadGenerator) Stats() (requests int64, failures int64) {
	lg.mu.RLock()
	defer lg.mu.RUnlock()

	return lg.requestCount, lg.errorCount
}

func (lg *LoadGenerator) executeScenario(ctx context.Context) {
	defer lg.wg.Done()

	scenarioType := lg.selectScenario(rand.Intn(100)) //nolint:gosec // load testing, weak random is fine
	tenant := lg.randomTenant()

	var err error
	switch scenarioType {
	case scenarioWrite:
		err = lg.runWriteScenario(ctx, tenant)
	default:
		err = lg.runReadScenario(ctx, tenant)
	}

	lg.mu.Lock()
	lg.requestCount++
	if err != nil {
		lg.errorCount++
		log.Printf("Scenario error (%s): %v", scenarioType, err)
	}
	lg.mu.Unlock()
}

// selectScenario maps a number in [0, 100) onto the [write, read] weights.
// Example: [30, 70] -> write: 0-29, read: 30-99
func (lg *LoadGenerator) selectScenario(r int) string {
	if r < lg.config.ScenarioWeights[0] {
		return scenarioWrite
	}

	return scenarioRead
}

// runWriteScenario creates a document and soft-deletes every tenth one it created.
func (lg *LoadGenerator) runWriteScenario(ctx context.Context, tenant string) error {
	body, err := jsonAPI.Marshal(map[string]any{
		"title":    fmt.Sprintf("  Load test document %s ", uuid.NewString()),
		"settings": map[string]any{"source": "load-generator"},
	})
	if err != nil {
		return err
	}

	var created map[string]any
	if err := lg.do(ctx, http.MethodPost, "/documents", tenant, body, http.StatusCreated, &created); err != nil {
		return err
	}

	if rand.Intn(10) != 0 { //nolint:gosec // load testing, weak random is fine
		return nil
	}

	return lg.do(ctx, http.MethodDelete, fmt.Sprintf("/documents/%v", created["id"]), tenant, nil, http.StatusOK, nil)
}

// runReadScenario lists the latest documents or counts them.
func (lg *LoadGenerator) runReadScenario(ctx context.Context, tenant string) error {
	if rand.Intn(2) == 0 { //nolint:gosec // load testing, weak random is fine
		var documents []map[string]any
		return lg.do(ctx, http.MethodGet, "/documents?take=20", tenant, nil, http.StatusOK, &documents)
	}

	var count int64
	return lg.do(ctx, http.MethodGet, "/documents/count", tenant, nil, http.StatusOK, &count)
}

func (lg *LoadGenerator) do(
	ctx context.Context,
	method string,
	path string,
	tenant string,
	body []byte,
	wantStatus int,
	result any,
) error {
	opCtx, cancel := context.WithTimeout(ctx, lg.config.RequestTimeout)
	defer cancel()

	request, err := http.NewRequestWithContext(opCtx, method, lg.config.Target+path, bytes.NewReader(body))
	if err != nil {
		return err
	}

	request.Header.Set(headerTenantID, tenant)
	request.Header.Set("Content-Type", "application/json")

	response, err := lg.client.Do(request)
	if err != nil {
		return err
	}
	defer func() { _ = response.Body.Close() }()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode != wantStatus {
		return fmt.Errorf("%w: %s %s returned %d: %s", errUnexpectedStatus, method, path, response.StatusCode, responseBody)
	}

	if result == nil {
		return nil
	}

	return jsonAPI.Unmarshal(responseBody, result)
}

func (lg *LoadGenerator) randomTenant() string {
	return fmt.Sprintf("tenant-%d", rand.Intn(lg.config.Tenants)+1) //nolint:gosec // load testing, weak random is fine
}

// metricsReporter logs stats periodically.
func (lg *LoadGenerator) metricsReporter(ctx context.Context) {
	defer lg.wg.Done()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-lg.stopChan:
			return
		case <-ticker.C:
			lg.logStats("Stats")
		}
	}
}

func (lg *LoadGenerator) logStats(prefix string) {
	lg.mu.RLock()
	duration := time.Since(lg.startTime)
	requests := lg.requestCount
	failures := lg.errorCount
	lg.mu.RUnlock()

	if duration <= 0 || requests == 0 {
		return
	}

	rps := float64(requests) / duration.Seconds()
	errorRate := float64(failures) / float64(requests) * 100
	log.Printf("%s: %d requests in %v (%.1f req/s), %d errors (%.1f%%), %d goroutines",
		prefix, requests, duration.Truncate(time.Second), rps, failures, errorRate, runtime.NumGoroutine())
}
