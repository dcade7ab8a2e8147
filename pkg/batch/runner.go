// Package batch runs the extraction over many observations at once. Each
// observation is independent; one failing doesn't stop the rest.
package batch

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/Samridh-Tiwari/StreakLightCurve/pkg/streak"
)

// A Job is one observation's worth of work. Do should load whatever it
// needs, and run the extraction.
type Job struct {
	Name string
	Do   func() (*streak.Result, error)
}

type Outcome struct {
	Job     Job
	Result  *streak.Result
	Err     error
	Elapsed time.Duration
}

// Runner fans jobs out over a pool of goroutines.
type Runner struct {
	Workers   int      // defaults to GOMAXPROCS
	Metrics   *Metrics // optional
	Verbosity int
}

type indexedJob struct {
	i   int
	job Job
}

// Run does all the jobs, and returns their outcomes in the order the jobs
// were given. Failures are logged and returned, never fatal. Once ctx is
// done, jobs not yet started come back with ctx's error.
func (r Runner) Run(ctx context.Context, jobs []Job) []Outcome {
	nWorkers := r.Workers
	if nWorkers < 1 {
		nWorkers = runtime.GOMAXPROCS(0)
	}

	var wg sync.WaitGroup
	jobsChan := make(chan indexedJob, len(jobs))
	resultsChan := make(chan indexedJob, len(jobs))
	outcomes := make([]Outcome, len(jobs))

	// Kick off worker pool
	for i := 0; i < nWorkers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			for ij := range jobsChan {
				outcomes[ij.i] = r.do(ctx, ij.job)
				resultsChan <- ij
			}
		}()
	}

	// Feed in jobs
	for i, job := range jobs {
		jobsChan <- indexedJob{i, job}
	}
	close(jobsChan)
	wg.Wait()
	close(resultsChan)

	nFailed := 0
	for ij := range resultsChan {
		o := outcomes[ij.i]
		if r.Metrics != nil {
			r.Metrics.Record(o)
		}
		if o.Err != nil {
			nFailed++
		}
	}

	log.Printf(" -- batch: %d observations, %d failed\n", len(jobs), nFailed)
	if r.Metrics != nil && r.Verbosity > 0 {
		log.Printf(" -- batch: %s\n", r.Metrics.LatencySummary())
	}

	return outcomes
}

// do runs one job, turning a panic into an error so the batch carries on.
func (r Runner) do(ctx context.Context, job Job) (o Outcome) {
	o.Job = job
	if err := ctx.Err(); err != nil {
		o.Err = err
		return o
	}

	start := time.Now()
	defer func() {
		o.Elapsed = time.Since(start)
		if p := recover(); p != nil {
			o.Result, o.Err = nil, fmt.Errorf("panic: %v", p)
		}
		if o.Err != nil {
			log.Printf("%s: skipping: %v\n", job.Name, o.Err)
		} else if r.Verbosity > 0 && o.Result != nil {
			log.Printf("%s: ok, %s (%s)\n", job.Name, o.Result.Profile, o.Elapsed)
		}
	}()

	o.Result, o.Err = job.Do()
	return o
}
