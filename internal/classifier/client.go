// Package classifier implements the HTTP client for the remote FODMAP
// classification service: batched submission, batched status polling, and a
// TTL-cached health probe, all with bounded exponential-backoff retry.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/lowfodlabs/fodsync/internal/records"
)

const maxBodyExcerpt = 512

var versionSuffix = regexp.MustCompile(`/v\d+$`)

// Client talks to the classification service. The zero endpoint leaves it
// unconfigured; IsConfigured gates every operation.
type Client struct {
	cfg    *Config
	http   *http.Client
	logger *slog.Logger
	health *healthCache
}

// New creates a classifier Client from the given configuration.
func New(cfg *Config, logger *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.RequestTimeoutDuration()},
		logger: logger.With("system", "classifier"),
		health: newHealthCache(cfg.HealthyTTLDuration(), cfg.UnhealthyTTLDuration()),
	}
}

// IsConfigured returns true iff a base endpoint is set.
func (c *Client) IsConfigured() bool {
	return c.cfg.Endpoint != ""
}

// SubmitRecords posts records for classification in submit-batch-size chunks.
// Each batch is retried with exponential backoff; a batch that exhausts its
// retries aborts the remaining batches and surfaces which batch was in
// flight. Earlier batches stay submitted (idempotency is the service's
// responsibility).
func (c *Client) SubmitRecords(ctx context.Context, recs []records.Record) (*SubmitResult, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if len(recs) == 0 {
		return nil, ErrNoRecords
	}

	batches := chunk(recs, c.cfg.SubmitBatchSize)
	result := &SubmitResult{}

	for i, batch := range batches {
		req := submitRequest{Products: make([]submitProduct, len(batch))}
		for j, rec := range batch {
			req.Products[j] = submitProduct{
				ID:       rec.ID,
				Name:     rec.Name,
				Category: rec.Category,
			}
		}

		resp, err := withRetry(ctx, c, "submit", func() (*submitResponse, error) {
			var out submitResponse
			if err := c.post(ctx, c.submitURL(), req, &out); err != nil {
				return nil, err
			}
			return &out, nil
		})
		if err != nil {
			return nil, fmt.Errorf(
				"submit batch %d of %d (%d records): %w",
				i+1, len(batches), len(batch), err,
			)
		}

		result.SubmittedCount += resp.SubmittedCount
		if resp.Message != "" {
			result.Message = resp.Message
		}
	}

	c.logger.Info(
		"records submitted",
		"count", result.SubmittedCount,
		"batches", len(batches),
	)
	return result, nil
}

// PollStatus queries classification state for the given ids in
// poll-batch-size chunks, aggregating results, found/missing counts, and
// missing ids across batches. An empty id set returns an empty result
// without touching the network.
func (c *Client) PollStatus(ctx context.Context, ids []string) (*PollResult, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	result := &PollResult{
		Results:    []StatusResult{},
		MissingIDs: []string{},
	}
	if len(ids) == 0 {
		return result, nil
	}

	batches := chunk(ids, c.cfg.PollBatchSize)

	for i, batch := range batches {
		req := statusRequest{IDs: batch}

		resp, err := withRetry(ctx, c, "status", func() (*statusResponse, error) {
			var out statusResponse
			if err := c.post(ctx, c.statusURL(), req, &out); err != nil {
				return nil, err
			}
			return &out, nil
		})
		if err != nil {
			return nil, fmt.Errorf(
				"poll batch %d of %d (%d ids): %w",
				i+1, len(batches), len(batch), err,
			)
		}

		result.Results = append(result.Results, resp.Results...)
		result.Found += resp.Found
		result.Missing += resp.Missing
		result.MissingIDs = append(result.MissingIDs, resp.MissingIDs...)
	}

	c.logger.Debug(
		"status polled",
		"ids", len(ids),
		"found", result.Found,
		"missing", result.Missing,
	)
	return result, nil
}

// withRetry runs op with the client's exponential backoff policy: delays of
// base, base*multiplier, base*multiplier², ... between attempts, up to
// MaxAttempts total tries. The final attempt's error is the one returned.
func withRetry[T any](ctx context.Context, c *Client, operation string, op backoff.Operation[T]) (T, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.cfg.BaseDelayDuration()
	expo.Multiplier = c.cfg.BackoffMultiplier
	expo.RandomizationFactor = 0

	attempt := 1
	return backoff.Retry(
		ctx,
		op,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(c.cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, delay time.Duration) {
			c.logger.Warn(
				"classifier request failed, retrying",
				"operation", operation,
				"attempt", attempt,
				"retry_in", delay,
				"error", err,
			)
			attempt++
		}),
	)
}

func (c *Client) post(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &StatusError{
			Code: resp.StatusCode,
			Body: readExcerpt(resp.Body),
		}
		if serr.Permanent() {
			return backoff.Permanent(serr)
		}
		return serr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimSuffix(c.cfg.Endpoint, "/")
}

func (c *Client) submitURL() string {
	return c.base() + "/products/submit"
}

func (c *Client) statusURL() string {
	return c.base() + "/products/status"
}

// healthURL strips any version suffix from the base endpoint, so
// https://host/api/v1 probes https://host/api/health.
func (c *Client) healthURL() string {
	return versionSuffix.ReplaceAllString(c.base(), "") + "/health"
}

func readExcerpt(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxBodyExcerpt))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func chunk[T any](items []T, size int) [][]T {
	batches := make([][]T, 0, (len(items)+size-1)/size)
	for size < len(items) {
		items, batches = items[size:], append(batches, items[:size])
	}
	return append(batches, items)
}
