// Package streamgen generates code plus an explanation by calling the
// OpenAI chat-completion API in streaming mode, with per-chunk progress
// accounting and bounded retry on transient failures.
//
// The package wraps a single vendor SDK call; it adds no protocol or
// storage of its own. What it provides on top of the raw stream is:
//
//   - a per-chunk callback invoked once for every network-level chunk,
//     empty chunks included, so progress displays stay accurate
//   - StreamStats, counting chunks, non-empty chunks, approximate tokens,
//     and elapsed time, observable mid-stream through snapshots
//   - a closed StreamStatus lifecycle (idle, streaming, retrying,
//     completed, failed)
//   - an error taxonomy that separates retryable failures (rate limits,
//     provider 5xx, stream transport and decode errors) from fatal ones
//     (authentication, malformed requests, timeouts), and a retry loop
//     with exponential backoff driven by that classification
//
// # Usage
//
//	gen := streamgen.NewGeneratorWithKey(os.Getenv("OPENAI_API_KEY"), "", "")
//
//	result, err := gen.GenerateCodeWithExplanation(ctx, "add two numbers",
//		func(chunk string) { fmt.Print(chunk) }, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("\n%d tokens in %s\n", result.Stats.Tokens, result.Stats.Elapsed)
//
// Retries restart the stream from scratch: the accumulation buffer and
// chunk counters reset, and the chunk callback is re-invoked from the
// beginning of the new attempt. Callers must therefore not assume that a
// callback invocation implies eventual success.
//
// The Timeout option is scoped per attempt by default; set
// GenerateOpts.TimeoutScope to TimeoutPerCall for one budget spanning
// retries and backoff waits. See TimeoutScope for the trade-off.
//
// For demos and tests without an API key, LoremStreamer fabricates a
// streaming response from lorem ipsum text.
package streamgen
