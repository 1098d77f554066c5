// Command loadtest drives concurrent decode requests against a running
// gateway/decoder to measure throughput, latency, and cache hit rate,
// grounded on the teacher's search load generator (same worker-pool,
// ticker-progress, percentile-report shape, retargeted from GET /search
// queries to POST /api/v1/decode sentences).
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Sentences   []string
}

type decodeRequestBody struct {
	Text  string `json:"text"`
	NBest int    `json:"nbest"`
}

type decodeResponseBody struct {
	CacheHit bool `json:"cache_hit"`
}

type Stats struct {
	totalRequests atomic.Int64
	successCount  atomic.Int64
	errorCount    atomic.Int64
	cacheHits     atomic.Int64
	latencies     []time.Duration
	latenciesMu   sync.Mutex
	statusCodes   map[int]*atomic.Int64
	statusCodesMu sync.Mutex
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]*atomic.Int64),
	}
}

func (s *Stats) RecordRequest(duration time.Duration, statusCode int, cacheHit bool, err error) {
	s.totalRequests.Add(1)

	if err != nil {
		s.errorCount.Add(1)
		return
	}

	if statusCode >= 200 && statusCode < 300 {
		s.successCount.Add(1)
		if cacheHit {
			s.cacheHits.Add(1)
		}
	} else {
		s.errorCount.Add(1)
	}

	s.latenciesMu.Lock()
	s.latencies = append(s.latencies, duration)
	s.latenciesMu.Unlock()

	s.statusCodesMu.Lock()
	if _, ok := s.statusCodes[statusCode]; !ok {
		s.statusCodes[statusCode] = &atomic.Int64{}
	}
	s.statusCodes[statusCode].Add(1)
	s.statusCodesMu.Unlock()
}

func main() {
	baseURL := flag.String("url", "http://localhost:8082", "base URL of the gateway")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	apiKey := flag.String("api-key", "", "api key for the X-API-Key header (optional)")
	flag.Parse()

	sentences := []string{
		"the house is red",
		"i would like a cup of coffee",
		"she walks to the market every morning",
		"can you help me with this translation",
		"the weather is nice today",
		"he wrote a letter to his friend",
		"the cat is sleeping on the chair",
		"we are going to the cinema tonight",
		"please open the window",
		"the train leaves at noon",
		"this book is very interesting",
		"they are playing in the garden",
		"the meeting starts in five minutes",
		"what time is it",
		"i need to buy some bread",
	}

	cfg := Config{
		BaseURL:     *baseURL,
		Concurrency: *concurrency,
		Duration:    *duration,
		Sentences:   sentences,
	}

	fmt.Println("=== Cube Decoder Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Sentences:   %d unique\n", len(cfg.Sentences))
	fmt.Println()

	stats := runLoadTest(cfg, *apiKey)
	printReport(stats, cfg.Duration)
}

func runLoadTest(cfg Config, apiKey string) *Stats {
	stats := NewStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	fmt.Print("Running")

	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			sentenceIdx := workerID

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				sentence := cfg.Sentences[sentenceIdx%len(cfg.Sentences)]
				sentenceIdx++

				start := time.Now()
				statusCode, cacheHit, err := decode(ctx, client, cfg.BaseURL, apiKey, sentence)
				duration := time.Since(start)
				stats.RecordRequest(duration, statusCode, cacheHit, err)
			}
		}(w)
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()

	wg.Wait()
	fmt.Println(" done!")
	fmt.Println()
	return stats
}

func decode(ctx context.Context, client *http.Client, baseURL, apiKey, sentence string) (statusCode int, cacheHit bool, err error) {
	body, err := json.Marshal(decodeRequestBody{Text: sentence, NBest: 1})
	if err != nil {
		return 0, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/v1/decode", bytes.NewReader(body))
	if err != nil {
		return 0, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, false, err
	}
	defer resp.Body.Close()

	var decoded decodeResponseBody
	data, _ := io.ReadAll(resp.Body)
	json.Unmarshal(data, &decoded)

	return resp.StatusCode, decoded.CacheHit, nil
}

func printReport(stats *Stats, duration time.Duration) {
	total := stats.totalRequests.Load()
	success := stats.successCount.Load()
	errors := stats.errorCount.Load()
	cacheHits := stats.cacheHits.Load()

	fmt.Println("=== Results ===")
	fmt.Printf("Total Requests:  %d\n", total)
	fmt.Printf("Successful:      %d\n", success)
	fmt.Printf("Errors:          %d\n", errors)
	fmt.Printf("Cache Hits:      %d\n", cacheHits)

	if total > 0 {
		errorRate := float64(errors) / float64(total) * 100
		fmt.Printf("Error Rate:      %.2f%%\n", errorRate)
		rps := float64(total) / duration.Seconds()
		fmt.Printf("Requests/sec:    %.2f\n", rps)
	}
	if success > 0 {
		hitRate := float64(cacheHits) / float64(success) * 100
		fmt.Printf("Cache Hit Rate:  %.2f%%\n", hitRate)
	}

	stats.latenciesMu.Lock()
	latencies := make([]time.Duration, len(stats.latencies))
	copy(latencies, stats.latencies)
	stats.latenciesMu.Unlock()

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool {
			return latencies[i] < latencies[j]
		})

		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))

		fmt.Println()
		fmt.Println("=== Latency ===")
		fmt.Printf("Min:    %s\n", latencies[0])
		fmt.Printf("Avg:    %s\n", avg)
		fmt.Printf("P50:    %s\n", percentile(latencies, 50))
		fmt.Printf("P90:    %s\n", percentile(latencies, 90))
		fmt.Printf("P95:    %s\n", percentile(latencies, 95))
		fmt.Printf("P99:    %s\n", percentile(latencies, 99))
		fmt.Printf("Max:    %s\n", latencies[len(latencies)-1])

		var sumSquared float64
		avgFloat := float64(avg)
		for _, l := range latencies {
			diff := float64(l) - avgFloat
			sumSquared += diff * diff
		}
		stddev := time.Duration(math.Sqrt(sumSquared / float64(len(latencies))))
		fmt.Printf("StdDev: %s\n", stddev)
	}

	fmt.Println()
	fmt.Println("=== Status Codes ===")
	stats.statusCodesMu.Lock()
	codes := make([]int, 0, len(stats.statusCodes))
	for code := range stats.statusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		count := stats.statusCodes[code].Load()
		fmt.Printf("  %d: %d\n", code, count)
	}
	stats.statusCodesMu.Unlock()

	if total == 0 {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the service running?")
		os.Exit(1)
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
