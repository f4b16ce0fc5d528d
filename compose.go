package autosave

import (
	"context"
	"fmt"
	"strings"
	"sync"

	saveErrors "github.com/c0deZ3R0/go-autosave-kit/errors"
)

type sequentialTransport struct {
	transports []Transport
}

// ComposeTransports chains transports into a pipeline that runs them in
// order and short-circuits on the first failure. The final transport's
// result is the pipeline's result. Composing a single transport returns it
// unchanged.
func ComposeTransports(transports ...Transport) (Transport, error) {
	if len(transports) == 0 {
		return nil, saveErrors.NewConfigError(saveErrors.OpCompose, fmt.Errorf("no transports provided"))
	}
	for i, t := range transports {
		if t == nil {
			return nil, saveErrors.NewConfigError(saveErrors.OpCompose, fmt.Errorf("transport %d is nil", i))
		}
	}
	if len(transports) == 1 {
		return transports[0], nil
	}
	return &sequentialTransport{transports: transports}, nil
}

func (s *sequentialTransport) Save(ctx context.Context, payload Payload, sc *SaveContext) (*SaveResult, error) {
	var last *SaveResult
	for i, t := range s.transports {
		result, err := t.Save(ctx, payload, sc)
		if err != nil {
			return Failure(saveErrors.NewTransportError(saveErrors.OpCompose,
				fmt.Errorf("stage %d: %w", i, err))), nil
		}
		if result == nil {
			return Failure(saveErrors.NewTransportError(saveErrors.OpCompose,
				fmt.Errorf("stage %d returned no result", i))), nil
		}
		if !result.OK {
			// The failing stage's result carries its own error code and
			// metadata, so it is handed back untouched.
			return result, nil
		}
		last = result
	}
	return last, nil
}

type parallelTransport struct {
	transports []Transport
}

// ParallelTransports fans a save out to every transport concurrently and
// waits for all of them, even after one fails. If any transport fails the
// aggregate result is a failure whose error lists every failed branch; on
// full success the first transport's result is returned.
func ParallelTransports(transports ...Transport) (Transport, error) {
	if len(transports) == 0 {
		return nil, saveErrors.NewConfigError(saveErrors.OpCompose, fmt.Errorf("no transports provided"))
	}
	for i, t := range transports {
		if t == nil {
			return nil, saveErrors.NewConfigError(saveErrors.OpCompose, fmt.Errorf("transport %d is nil", i))
		}
	}
	if len(transports) == 1 {
		return transports[0], nil
	}
	return &parallelTransport{transports: transports}, nil
}

func (p *parallelTransport) Save(ctx context.Context, payload Payload, sc *SaveContext) (*SaveResult, error) {
	results := make([]*SaveResult, len(p.transports))
	errs := make([]error, len(p.transports))

	var wg sync.WaitGroup
	for i, t := range p.transports {
		wg.Add(1)
		go func(i int, t Transport) {
			defer wg.Done()
			results[i], errs[i] = t.Save(ctx, payload, sc)
		}(i, t)
	}
	wg.Wait()

	var failures []string
	for i := range p.transports {
		switch {
		case errs[i] != nil:
			failures = append(failures, fmt.Sprintf("transport %d: %v", i, errs[i]))
		case results[i] == nil || !results[i].OK:
			msg := "reported failure"
			if results[i] != nil && results[i].Err != nil {
				msg = results[i].Err.Error()
			}
			failures = append(failures, fmt.Sprintf("transport %d: %s", i, msg))
		}
	}
	if len(failures) > 0 {
		return Failure(saveErrors.NewTransportError(saveErrors.OpCompose,
			fmt.Errorf("%d of %d transports failed: %s",
				len(failures), len(p.transports), strings.Join(failures, "; ")))), nil
	}
	return results[0], nil
}
