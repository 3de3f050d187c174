// Command feed loads a JSON product export into a running fodsync instance
// through the ingest endpoint, posting batches concurrently.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lowfodlabs/fodsync/internal/records"
)

const envURL = "FODSYNC_API_URL"

type ingestRequest struct {
	Products []records.IngestCommand `json:"products"`
}

type ingestResponse struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

func main() {
	var (
		file    = flag.String("file", "", "Path to JSON product export (array of {id, name, category})")
		baseURL = flag.String("url", "", "API base URL (default $FODSYNC_API_URL or http://localhost:8080/api)")
		batch   = flag.Int("batch", 200, "Products per ingest request")
		workers = flag.Int("workers", 4, "Concurrent ingest requests")
		timeout = flag.Duration("timeout", 30*time.Second, "Per-request timeout")
	)
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *baseURL == "" {
		*baseURL = os.Getenv(envURL)
	}
	if *baseURL == "" {
		*baseURL = "http://localhost:8080/api"
	}
	if *batch < 1 {
		log.Fatal("batch must be at least 1")
	}

	products, err := loadProducts(*file)
	if err != nil {
		log.Fatalf("load products: %v", err)
	}
	if len(products) == 0 {
		log.Fatal("no products in export")
	}

	inserted, updated, err := ingest(context.Background(), *baseURL, products, *batch, *workers, *timeout)
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}

	fmt.Printf("ingested %d products: %d inserted, %d updated\n", len(products), inserted, updated)
}

func loadProducts(path string) ([]records.IngestCommand, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var products []records.IngestCommand
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}
	return products, nil
}

func ingest(
	ctx context.Context,
	baseURL string,
	products []records.IngestCommand,
	batchSize int,
	workers int,
	timeout time.Duration,
) (inserted, updated int, err error) {
	client := &http.Client{Timeout: timeout}
	url := baseURL + "/records/ingest"

	results := make([]ingestResponse, (len(products)+batchSize-1)/batchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < len(products); i += batchSize {
		end := min(i+batchSize, len(products))
		idx := i / batchSize
		chunk := products[i:end]

		g.Go(func() error {
			resp, err := postBatch(gctx, client, url, chunk)
			if err != nil {
				return fmt.Errorf("batch %d: %w", idx+1, err)
			}
			results[idx] = *resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	for _, r := range results {
		inserted += r.Inserted
		updated += r.Updated
	}
	return inserted, updated, nil
}

func postBatch(
	ctx context.Context,
	client *http.Client,
	url string,
	chunk []records.IngestCommand,
) (*ingestResponse, error) {
	body, err := json.Marshal(ingestRequest{Products: chunk})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, excerpt)
	}

	var result ingestResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}
