package runner

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Pool bounds how many jobs run at once and how fast they start.
type Pool struct {
	Workers int
	// Limiter is waited on before each job; nil means unthrottled.
	Limiter *rate.Limiter
}

func (p Pool) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Limiter == nil {
		return nil
	}
	return p.Limiter.Wait(ctx)
}

type indexed[T any] struct {
	i int
	v T
}

// RunOrdered calls process for every job and hands the results to handle
// in job order, whatever order they complete in. handle runs on a single
// goroutine. Once ctx is done no job starts and results still in flight
// are dropped; RunOrdered then returns ctx.Err().
func RunOrdered[J, R any](
	ctx context.Context,
	p Pool,
	jobs []J,
	process func(context.Context, J) R,
	handle func(R),
) error {
	workers := min(p.Workers, len(jobs))
	if workers <= 1 {
		for _, job := range jobs {
			if err := p.wait(ctx); err != nil {
				return err
			}
			handle(process(ctx, job))
		}
		return nil
	}

	jobCh := make(chan indexed[J])
	results := make(chan indexed[R], workers)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
		failed   = make(chan struct{})
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				if err := p.wait(ctx); err != nil {
					errOnce.Do(func() {
						firstErr = err
						close(failed)
					})
					return
				}
				out := indexed[R]{i: job.i, v: process(ctx, job.v)}
				select {
				case results <- out:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		pending := make(map[int]R)
		next := 0
		for out := range results {
			pending[out.i] = out.v
			for {
				v, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				handle(v)
				next++
			}
		}
	}()

sendJobs:
	for i, job := range jobs {
		select {
		case jobCh <- indexed[J]{i: i, v: job}:
		case <-ctx.Done():
			break sendJobs
		case <-failed:
			break sendJobs
		}
	}
	close(jobCh)
	wg.Wait()
	close(results)
	<-done

	if err := ctx.Err(); err != nil {
		return err
	}
	return firstErr
}
