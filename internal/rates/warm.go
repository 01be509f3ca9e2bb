package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// TaskTypeWarm identifies the cache warming task in the queue.
const TaskTypeWarm = "rates:warm"

// WarmPayload names the currency pair a warming task should prefetch.
type WarmPayload struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

// NewWarmTask builds a queue task that prefetches one currency pair.
func NewWarmTask(base, quote string) (*asynq.Task, error) {
	payload, err := json.Marshal(WarmPayload{Base: base, Quote: quote})
	if err != nil {
		return nil, fmt.Errorf("rates: marshal warm payload: %w", err)
	}
	return asynq.NewTask(TaskTypeWarm, payload), nil
}

// ParsePair splits a "EUR/CHF" pair string into base and quote codes.
func ParsePair(pair string) (base, quote string, err error) {
	parts := strings.Split(strings.TrimSpace(pair), "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("rates: malformed pair %q", pair)
	}
	base = strings.ToUpper(strings.TrimSpace(parts[0]))
	quote = strings.ToUpper(strings.TrimSpace(parts[1]))
	if base == "" || quote == "" {
		return "", "", fmt.Errorf("rates: malformed pair %q", pair)
	}
	return base, quote, nil
}

// Warmer prefetches rates through the full cache chain so interactive
// requests hit warm caches instead of the upstream.
type Warmer struct {
	Source Source
	Logger zerolog.Logger
}

// HandleWarmTask implements the asynq handler for warming tasks.
func (w Warmer) HandleWarmTask(ctx context.Context, task *asynq.Task) error {
	var payload WarmPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("rates: unmarshal warm payload: %w", err)
	}
	rate, err := w.Source.Rate(ctx, payload.Base, payload.Quote)
	if err != nil {
		w.Logger.Warn().Err(err).
			Str("pair", PairKey(payload.Base, payload.Quote)).
			Msg("rate warm failed")
		return err
	}
	w.Logger.Debug().
		Str("pair", PairKey(payload.Base, payload.Quote)).
		Str("rate", rate.Value.String()).
		Time("expires_at", rate.ExpiresAt).
		Msg("rate warmed")
	return nil
}
