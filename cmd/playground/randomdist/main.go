// randomdist hammers GET /singers/random from several concurrent clients and checks
// that every singer id shows up at roughly the same rate.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/kawabatas/spanner-otel-app/internal/domain/model"
)

type result struct {
	id     int64
	status int
	err    error
}

func fetch(ctx context.Context, client *http.Client, url string) result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return result{err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return result{err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return result{status: resp.StatusCode}
	}
	var s model.Singer
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return result{status: resp.StatusCode, err: err}
	}
	return result{id: s.ID, status: resp.StatusCode}
}

func worker(ctx context.Context, n int, client *http.Client, url string, out chan<- result, wg *sync.WaitGroup) {
	defer wg.Done()
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}
		out <- fetch(ctx, client, url)
	}
}

func main() {
	base := flag.String("addr", "http://localhost:8080", "server base URL")
	workers := flag.Int("workers", 8, "concurrent clients")
	perWorker := flag.Int("n", 250, "requests per client")
	tolerance := flag.Float64("tolerance", 0.25, "allowed relative deviation from the expected count")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: 5 * time.Second}
	url := *base + "/singers/random"

	out := make(chan result, *workers)
	var wg sync.WaitGroup
	wg.Add(*workers)
	start := time.Now()
	for i := 0; i < *workers; i++ {
		go worker(ctx, *perWorker, client, url, out, &wg)
	}
	go func() {
		wg.Wait()
		close(out)
	}()

	counts := map[int64]int{}
	var total, notFound, failed int
	for r := range out {
		switch {
		case r.err != nil:
			failed++
			log.Printf("[request] ERR: %v", r.err)
		case r.status == http.StatusNotFound:
			notFound++
		case r.status == http.StatusOK:
			counts[r.id]++
			total++
		default:
			failed++
			log.Printf("[request] unexpected status %d", r.status)
		}
	}
	log.Printf("done in %v: ok=%d not_found=%d failed=%d distinct=%d",
		time.Since(start), total, notFound, failed, len(counts))

	if total == 0 {
		log.Println("RESULT: no singers returned (empty table?)")
		return
	}

	// 検証: 各 id の出現回数が期待値から tolerance 以内
	expected := float64(total) / float64(len(counts))
	ids := make([]int64, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	passed := failed == 0
	var violations []string
	for _, id := range ids {
		dev := math.Abs(float64(counts[id])-expected) / expected
		log.Printf("  id=%d count=%d dev=%.2f", id, counts[id], dev)
		if dev > *tolerance {
			passed = false
			violations = append(violations, fmt.Sprintf("id %d: count %d deviates %.0f%% from %.1f", id, counts[id], dev*100, expected))
		}
	}

	if passed {
		log.Println("RESULT: PASS (random singer distribution is roughly uniform)")
		return
	}
	log.Println("RESULT: FAIL")
	for _, v := range violations {
		log.Printf(" - %s", v)
	}
	stop()
	os.Exit(1)
}
