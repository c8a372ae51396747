package streamgen

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	lorem "github.com/bozaro/golorem"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
)

// LoremStreamer is a ChatCompletionStreamer that fabricates a streaming
// response from lorem ipsum text instead of calling the network. It needs
// no API key, which makes it useful in examples and tests that exercise
// the full streaming path.
//
//	gen := streamgen.NewGenerator(&streamgen.LoremStreamer{Words: 40}, "", "")
type LoremStreamer struct {
	// Words is the approximate number of words to stream, one word per
	// chunk. Defaults to 30.
	Words int

	// Delay is the pause before each chunk, simulating network pacing.
	// Zero streams as fast as the consumer reads.
	Delay time.Duration
}

func (l *LoremStreamer) NewStreaming(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) *ssestream.Stream[openai.ChatCompletionChunk] {
	words := l.Words
	if words <= 0 {
		words = 30
	}

	gen := lorem.New()
	var chunks []string
	for len(chunks) < words {
		for _, w := range strings.Fields(gen.Sentence(5, 15)) {
			chunks = append(chunks, w+" ")
		}
	}

	return ssestream.NewStream[openai.ChatCompletionChunk](&loremDecoder{
		ctx:    ctx,
		chunks: chunks,
		delay:  l.Delay,
	}, nil)
}

var _ ChatCompletionStreamer = (*LoremStreamer)(nil)

// loremDecoder emits one SSE event per lorem word, shaped like a chat
// completion chunk so the stream decodes it the same way a real response
// would be.
type loremDecoder struct {
	ctx    context.Context
	chunks []string
	delay  time.Duration

	pos int
	cur ssestream.Event
	err error
}

type loremDelta struct {
	Content string `json:"content"`
}

type loremChoice struct {
	Delta loremDelta `json:"delta"`
}

type loremChunk struct {
	Choices []loremChoice `json:"choices"`
}

func (d *loremDecoder) Next() bool {
	if d.err != nil || d.pos >= len(d.chunks) {
		return false
	}
	if d.delay > 0 {
		t := time.NewTimer(d.delay)
		defer t.Stop()
		select {
		case <-d.ctx.Done():
			d.err = d.ctx.Err()
			return false
		case <-t.C:
		}
	} else if err := d.ctx.Err(); err != nil {
		d.err = err
		return false
	}

	data, err := json.Marshal(loremChunk{Choices: []loremChoice{{Delta: loremDelta{Content: d.chunks[d.pos]}}}})
	if err != nil {
		d.err = err
		return false
	}
	d.pos++
	d.cur = ssestream.Event{Data: data}
	return true
}

func (d *loremDecoder) Event() ssestream.Event {
	return d.cur
}

func (d *loremDecoder) Err() error {
	return d.err
}

func (d *loremDecoder) Close() error {
	d.pos = len(d.chunks)
	return nil
}
