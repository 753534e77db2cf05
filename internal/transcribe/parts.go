package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mgpai22/shabd/internal/transcript"
)

// holds the result of transcribing one part
type partResult struct {
	Index  int
	Result *Result
	Error  error
}

// TranscribeParts transcribes consecutive recordings of one session in
// parallel and joins them with Concat. Parts are laid end to end in the
// order given.
func TranscribeParts(
	ctx context.Context,
	t Transcriber,
	paths []string,
	concurrency int,
) (*Result, error) {
	if len(paths) == 0 {
		return &Result{Transcript: transcript.FlatText("")}, nil
	}

	if concurrency <= 0 {
		concurrency = 3
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workChan := make(chan int, len(paths))
	resultChan := make(chan partResult, len(paths))

	var wg sync.WaitGroup
	for range min(concurrency, len(paths)) {
		wg.Go(func() {
			for idx := range workChan {
				if ctx.Err() != nil {
					resultChan <- partResult{Index: idx, Error: ctx.Err()}
					continue
				}
				res, err := t.Transcribe(ctx, paths[idx])
				if err != nil {
					cancel()
				}
				resultChan <- partResult{Index: idx, Result: res, Error: err}
			}
		})
	}

	for i := range paths {
		workChan <- i
	}
	close(workChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]*Result, len(paths))
	var firstErr error
	for r := range resultChan {
		if r.Error != nil {
			// parts skipped after a failure report context.Canceled; keep
			// the failure itself
			if firstErr == nil || errors.Is(firstErr, context.Canceled) {
				firstErr = fmt.Errorf("part %d (%s) failed: %w", r.Index, paths[r.Index], r.Error)
			}
			continue
		}
		results[r.Index] = r.Result
	}
	if firstErr != nil {
		return nil, firstErr
	}

	return Concat(results), nil
}

// Concat joins per-part results into one, shifting each part's timestamps by
// the total duration of the parts before it. A part's duration is the
// provider-reported one, or its last token's end when none was reported.
//
// All word parts stay word-level; any utterance part makes the whole result
// utterance-level. If any part has no timing at all the result degrades to
// flat text.
func Concat(results []*Result) *Result {
	out := &Result{}

	var (
		tokens   []transcript.Token
		texts    []string
		allWords = true
		flat     bool
		offset   float64
	)

	for _, r := range results {
		if r == nil {
			continue
		}
		if out.Language == "" {
			out.Language = r.Language
		}

		switch r.Transcript.(type) {
		case transcript.UtteranceTokens:
			allWords = false
		case transcript.FlatText:
			flat = true
		}

		if text := strings.TrimSpace(transcript.Text(r.Transcript)); text != "" {
			texts = append(texts, text)
		}

		partEnd := r.Duration
		for _, tok := range transcript.Tokens(r.Transcript) {
			tok.Start += offset
			tok.End += offset
			tokens = append(tokens, tok)
			partEnd = max(partEnd, tok.End-offset)
		}
		offset += partEnd
	}

	out.Duration = offset

	switch {
	case flat:
		out.Transcript = transcript.FlatText(strings.Join(texts, " "))
	case allWords:
		out.Transcript = transcript.WordTokens(tokens)
	default:
		out.Transcript = transcript.UtteranceTokens(tokens)
	}
	return out
}
