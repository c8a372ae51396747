package streamgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
	"github.com/rs/zerolog"
)

// Defaults applied when the corresponding GenerateOpts field is left zero.
const (
	DefaultTimeout     = 60 * time.Second
	DefaultChunkSize   = 1524
	DefaultMaxRetries  = 3
	DefaultBaseBackoff = 500 * time.Millisecond
	DefaultMaxBackoff  = 10 * time.Second
)

// DefaultModel is the model requested when neither the constructor nor
// GenerateOpts names one.
const DefaultModel = openai.ChatModelGPT3_5Turbo

// DefaultSystemInstructions set the model up to produce code together
// with a prose explanation. Override by passing systemInstructions to
// the constructor.
const DefaultSystemInstructions = "You are an expert code developer. " +
	"Generate efficient code that follows best practices and explain it clearly as you go. " +
	"Structure the output so it is easy to follow for both beginners and experienced developers."

// TimeoutScope selects what the configured timeout covers. The choice is
// deliberately explicit because the two readings differ observably once
// retries happen.
type TimeoutScope int

const (
	// TimeoutPerAttempt applies the timeout to each streaming attempt
	// individually. Backoff waits between attempts are not counted. This
	// is the default and matches a per-request timeout on the provider
	// call.
	TimeoutPerAttempt TimeoutScope = iota

	// TimeoutPerCall applies one timeout budget across all attempts,
	// backoff waits included. A backoff wait is cut short when the budget
	// runs out.
	TimeoutPerCall
)

// ChatCompletionStreamer is the slice of the OpenAI API the Generator
// depends on. It is implemented by the SDK's openai.ChatCompletionService
// and can be substituted with a fake, such as LoremStreamer, in tests and
// demos.
type ChatCompletionStreamer interface {
	NewStreaming(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) *ssestream.Stream[openai.ChatCompletionChunk]
}

var _ ChatCompletionStreamer = (*openai.ChatCompletionService)(nil)

// GenerateOpts configures a single GenerateCodeWithExplanation call. A nil
// *GenerateOpts or a zero field means the default.
type GenerateOpts struct {
	// Model overrides the model the Generator was constructed with.
	Model string

	// Timeout bounds the call; see TimeoutScope for what exactly it
	// covers. Defaults to DefaultTimeout.
	Timeout time.Duration

	// TimeoutScope selects per-attempt or per-call timeout semantics.
	// Defaults to TimeoutPerAttempt.
	TimeoutScope TimeoutScope

	// ChunkSize is an advisory hint for chunk consumption, used to
	// pre-size the accumulation buffer. Defaults to DefaultChunkSize.
	ChunkSize int

	// MaxRetries bounds how many times a retryable failure restarts the
	// stream, so the call makes at most MaxRetries+1 attempts. Zero means
	// DefaultMaxRetries; a negative value disables retries.
	MaxRetries int

	// BaseBackoff is the wait before the first retry. The k-th retry
	// waits BaseBackoff * 2^(k-1), capped at MaxBackoff. Defaults to
	// DefaultBaseBackoff.
	BaseBackoff time.Duration

	// MaxBackoff caps the backoff growth. Defaults to DefaultMaxBackoff.
	MaxBackoff time.Duration

	// TokenCounter overrides how tokens are estimated from chunk text.
	// Defaults to WordCounter.
	TokenCounter TokenCounter

	// OnProgress, when set, is invoked with a stats snapshot after every
	// received chunk. Useful for progress bars.
	OnProgress func(StatsSnapshot)
}

// GenerationResult is the outcome of a successful generation call.
type GenerationResult struct {
	// Text is the full response: every non-empty chunk concatenated in
	// arrival order.
	Text string

	// Code is the contents of the first fenced code block in Text, or ""
	// when the response contains no fenced block. In that case Text is the
	// whole combined answer.
	Code string

	// Explanation is the prose surrounding the first fenced code block,
	// or "" when no fenced block was found.
	Explanation string

	// Stats is the final snapshot of the stream accounting. On failure
	// the snapshot is still returned alongside the error so elapsed time
	// remains observable, but any partial text is discarded.
	Stats StatsSnapshot
}

// Generator produces code plus an explanation from a prompt by driving
// one streaming chat-completion request at a time, with stream accounting
// and bounded retry.
//
// A Generator is stateless across calls apart from its configuration, so
// it may be shared by concurrent callers; every call owns its own
// StreamStats.
type Generator struct {
	client             ChatCompletionStreamer
	model              string
	systemInstructions string
	logger             zerolog.Logger

	// seams for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGenerator creates a Generator on top of an existing streaming
// client. An empty model or systemInstructions selects DefaultModel and
// DefaultSystemInstructions.
func NewGenerator(client ChatCompletionStreamer, model, systemInstructions string) *Generator {
	if model == "" {
		model = DefaultModel
	}
	if systemInstructions == "" {
		systemInstructions = DefaultSystemInstructions
	}
	return &Generator{
		client:             client,
		model:              model,
		systemInstructions: systemInstructions,
		logger:             zerolog.Nop(),
		now:                time.Now,
		sleep:              sleepContext,
	}
}

// NewGeneratorWithKey builds the OpenAI client from an API key and wraps
// it in a Generator. The key is only passed through to the SDK.
func NewGeneratorWithKey(apiKey, model, systemInstructions string) *Generator {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return NewGenerator(&client.Chat.Completions, model, systemInstructions)
}

// WithLogger sets the logger used for retry and timeout events and
// returns the Generator for chaining. The default is a no-op logger.
func (g *Generator) WithLogger(logger zerolog.Logger) *Generator {
	g.logger = logger
	return g
}

// GenerateCodeWithExplanation streams a completion for prompt, invoking
// onChunk once per received network-level chunk (empty chunks included,
// so external progress displays stay accurate) and accumulating non-empty
// chunk text into the result.
//
// On a retryable failure (rate limiting, provider 5xx, stream transport
// or decode errors) the stream is restarted from scratch after an
// exponential backoff wait: chunk counters and the accumulation buffer
// reset, and onChunk is re-invoked from the beginning of the new attempt.
// Non-retryable failures and timeouts are returned immediately. Once
// retries are exhausted the last error is returned with the attempt count
// attached; errors.As still reaches the underlying taxonomy error.
//
// The returned GenerationResult carries the final stats snapshot even on
// failure; its text fields are only populated on success.
func (g *Generator) GenerateCodeWithExplanation(ctx context.Context, prompt string, onChunk func(chunk string), opts *GenerateOpts) (GenerationResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return GenerationResult{}, EmptyPromptErr
	}
	if opts == nil {
		opts = &GenerateOpts{}
	}

	model := opts.Model
	if model == "" {
		model = g.model
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	} else if maxRetries < 0 {
		maxRetries = 0
	}
	baseBackoff := opts.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = DefaultBaseBackoff
	}
	maxBackoff := opts.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = DefaultMaxBackoff
	}

	stats := newStreamStats(opts.TokenCounter, g.now)

	callCtx := ctx
	if opts.TimeoutScope == TimeoutPerCall {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// RandomizationFactor zero keeps the schedule at exactly
	// baseBackoff * 2^(k-1) up to the cap.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = baseBackoff
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = maxBackoff
	bo.Reset()

	params := openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(g.systemInstructions),
			openai.UserMessage(prompt),
		},
	}

	attempts := maxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := callCtx.Err(); err != nil {
			stats.MarkStatus(StatusFailed)
			return GenerationResult{Stats: stats.Snapshot()}, timeoutOr(err, stats)
		}

		stats.resetCounters()
		stats.MarkStatus(StatusStreaming)

		attemptCtx := callCtx
		var cancel context.CancelFunc
		if opts.TimeoutScope == TimeoutPerAttempt {
			attemptCtx, cancel = context.WithTimeout(callCtx, timeout)
		}
		text, err := g.consumeStream(attemptCtx, params, onChunk, opts.OnProgress, stats, chunkSize)
		if cancel != nil {
			// closes the underlying connection of the finished attempt
			cancel()
		}

		if err == nil {
			stats.MarkStatus(StatusCompleted)
			code, explanation := splitCodeAndExplanation(text)
			return GenerationResult{
				Text:        text,
				Code:        code,
				Explanation: explanation,
				Stats:       stats.Snapshot(),
			}, nil
		}

		// A timeout is terminal for the call: partial text is discarded
		// but the elapsed time stays observable in the snapshot.
		if errors.Is(err, context.DeadlineExceeded) {
			stats.MarkStatus(StatusFailed)
			toErr := TimeoutErr{Elapsed: stats.Elapsed()}
			g.logger.Warn().Int("attempt", attempt).Dur("elapsed", toErr.Elapsed).Msg("generation timed out")
			return GenerationResult{Stats: stats.Snapshot()}, toErr
		}
		if errors.Is(err, context.Canceled) {
			stats.MarkStatus(StatusFailed)
			return GenerationResult{Stats: stats.Snapshot()}, err
		}

		lastErr = classifyErr(err)
		if !retryable(lastErr) {
			stats.MarkStatus(StatusFailed)
			return GenerationResult{Stats: stats.Snapshot()}, lastErr
		}
		if attempt == attempts {
			break
		}

		wait := bo.NextBackOff()
		stats.MarkStatus(StatusRetrying)
		g.logger.Warn().Err(lastErr).Int("attempt", attempt).Dur("backoff", wait).Msg("retrying generation")
		if err := g.sleep(callCtx, wait); err != nil {
			stats.MarkStatus(StatusFailed)
			return GenerationResult{Stats: stats.Snapshot()}, timeoutOr(err, stats)
		}
	}

	stats.MarkStatus(StatusFailed)
	return GenerationResult{Stats: stats.Snapshot()},
		fmt.Errorf("generation failed after %d attempts: %w", attempts, lastErr)
}

// consumeStream drives one streaming attempt to completion, recording
// every chunk and invoking the callbacks. It returns the accumulated
// non-empty chunk text, or the raw stream error for the caller to
// classify.
func (g *Generator) consumeStream(ctx context.Context, params openai.ChatCompletionNewParams, onChunk func(string), onProgress func(StatsSnapshot), stats *StreamStats, chunkSize int) (string, error) {
	stream := g.client.NewStreaming(ctx, params)
	defer stream.Close()

	var buf strings.Builder
	buf.Grow(chunkSize)
	for stream.Next() {
		chunk := stream.Current()
		var text string
		if len(chunk.Choices) > 0 {
			text = chunk.Choices[0].Delta.Content
		}
		stats.RecordChunk(text)
		if onChunk != nil {
			onChunk(text)
		}
		if text != "" {
			buf.WriteString(text)
		}
		if onProgress != nil {
			onProgress(stats.Snapshot())
		}
	}
	if err := stream.Err(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// timeoutOr converts a context deadline error into a TimeoutErr carrying
// the elapsed time; other errors pass through.
func timeoutOr(err error, stats *StreamStats) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return TimeoutErr{Elapsed: stats.Elapsed()}
	}
	return err
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
