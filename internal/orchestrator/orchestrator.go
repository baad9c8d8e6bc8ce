// Package orchestrator consumes jobs from the queue and drives each one
// through enhancement, generation, compression, and delivery.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"emojigen/internal/codec"
	"emojigen/internal/delivery"
	"emojigen/internal/domain"
	"emojigen/internal/infra"
	"emojigen/internal/providers"
	"emojigen/internal/queue"
)

// JobQueue is the queue surface the orchestrator consumes.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Delivery, error)
	Complete(ctx context.Context, jobID, receipt string) error
	UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus) error
	RetryFailed(ctx context.Context, maxRetries int) (int, error)
}

// Generator is the provider-chain surface the orchestrator drives.
type Generator interface {
	EnhancePrompt(ctx context.Context, messageContext, description string) (string, error)
	GenerateImage(ctx context.Context, prompt string) (*providers.Result, error)
}

// Deliverer places finished artifacts into the chat surface.
type Deliverer interface {
	Deliver(ctx context.Context, job *domain.Job, artifact *domain.Artifact, meta *providers.Result) (*delivery.Result, error)
}

// Options configures an Orchestrator.
type Options struct {
	Queue              JobQueue
	Chain              Generator
	Deliverer          Deliverer
	Logger             infra.Logger
	PollInterval       time.Duration
	JobTimeout         time.Duration
	RetrySweepInterval time.Duration
	MaxRetries         int
}

// Orchestrator runs the worker side of the pipeline. Steps within one job are
// strictly sequential; concurrency lives between jobs, across worker
// processes.
type Orchestrator struct {
	queue      JobQueue
	chain      Generator
	deliverer  Deliverer
	logger     infra.Logger
	poll       time.Duration
	jobTimeout time.Duration
	sweepEvery time.Duration
	maxRetries int
}

// New constructs an orchestrator, applying defaults for unset intervals.
func New(opts Options) (*Orchestrator, error) {
	if opts.Queue == nil || opts.Chain == nil || opts.Deliverer == nil {
		return nil, errors.New("orchestrator: queue, chain, and deliverer are required")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 2 * time.Minute
	}
	if opts.RetrySweepInterval <= 0 {
		opts.RetrySweepInterval = time.Minute
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	return &Orchestrator{
		queue:      opts.Queue,
		chain:      opts.Chain,
		deliverer:  opts.Deliverer,
		logger:     opts.Logger,
		poll:       opts.PollInterval,
		jobTimeout: opts.JobTimeout,
		sweepEvery: opts.RetrySweepInterval,
		maxRetries: opts.MaxRetries,
	}, nil
}

// Run polls the queue until the context is canceled. A periodic sweep
// re-enqueues failed jobs under the retry ceiling and abandons the rest.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info().Msg("orchestrator: started")

	sweep := time.NewTicker(o.sweepEvery)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sweep.C:
			o.sweepFailed(ctx)
		default:
		}

		processed, err := o.ProcessNext(ctx)
		if err != nil {
			o.logger.Error().Err(err).Msg("orchestrator: dequeue failed")
		}
		if !processed {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(o.poll):
			}
		}
	}
}

// ProcessNext handles at most one job. It reports whether a job was claimed.
func (o *Orchestrator) ProcessNext(ctx context.Context) (bool, error) {
	delivered, err := o.queue.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if delivered == nil {
		return false, nil
	}
	o.process(ctx, delivered)
	return true, nil
}

// process runs one job to completion or failure. A fatal step records the
// failed status and leaves the message unacknowledged so the queue's
// redelivery policy governs retries; there is no second retry loop here.
func (o *Orchestrator) process(parent context.Context, delivered *queue.Delivery) {
	job := delivered.Job

	ctx, cancel := context.WithTimeout(parent, o.jobTimeout)
	defer cancel()

	log := o.logger.With().
		Str("job_id", job.ID).
		Str("trace_id", job.TraceID).
		Int("retry_count", job.RetryCount).
		Logger()
	log.Info().Str("description", job.Description).Msg("orchestrator: picked job")

	if err := o.runSteps(ctx, job, log); err != nil {
		log.Error().Err(err).Msg("orchestrator: job failed")
		if statusErr := o.queue.UpdateStatus(parent, job.ID, domain.JobStatusFailed); statusErr != nil {
			log.Error().Err(statusErr).Msg("orchestrator: status update failed")
		}
		return
	}

	if err := o.queue.Complete(ctx, job.ID, delivered.Receipt); err != nil {
		// Receipt expired mid-flight; the redelivered copy owns the job now.
		log.Warn().Err(err).Msg("orchestrator: acknowledge failed")
		return
	}
	if err := o.queue.UpdateStatus(ctx, job.ID, domain.JobStatusCompleted); err != nil {
		log.Error().Err(err).Msg("orchestrator: status update failed")
	}
	log.Info().Msg("orchestrator: job completed")
}

func (o *Orchestrator) runSteps(ctx context.Context, job *domain.Job, log infra.Logger) error {
	// Enhancement is polish: its failure degrades to the raw description
	// instead of failing the job.
	description := job.Description
	enhanced, err := o.chain.EnhancePrompt(ctx, job.MessageContext, job.Description)
	if err != nil {
		log.Warn().Err(err).Msg("orchestrator: prompt enhancement failed, using raw description")
	} else if enhanced != "" {
		description = enhanced
	}

	prompt := buildPrompt(description, job.Style)

	result, err := o.chain.GenerateImage(ctx, prompt)
	if err != nil {
		return fmt.Errorf("generate image: %w", err)
	}
	if result.IsFallback {
		log.Info().
			Str("provider", result.Provider).
			Str("reason", result.FallbackReason).
			Msg("orchestrator: generated via fallback provider")
	}

	spec := job.Sharing.ImageSize.Spec()
	compressed, err := codec.Compress(result.Data, spec)
	if err != nil {
		return fmt.Errorf("compress image: %w", err)
	}
	artifact, err := codec.Finalize(job.Name, compressed, spec)
	if err != nil {
		return fmt.Errorf("finalize artifact: %w", err)
	}

	delivered, err := o.deliverer.Deliver(ctx, job, artifact, result)
	if err != nil {
		return fmt.Errorf("deliver artifact: %w", err)
	}
	log.Info().
		Str("file_url", delivered.FileURL).
		Str("thread_ref", delivered.ThreadRef).
		Msg("orchestrator: artifact delivered")

	return nil
}

func (o *Orchestrator) sweepFailed(ctx context.Context) {
	count, err := o.queue.RetryFailed(ctx, o.maxRetries)
	if err != nil {
		o.logger.Error().Err(err).Msg("orchestrator: retry sweep failed")
		return
	}
	if count > 0 {
		o.logger.Info().Int("count", count).Msg("orchestrator: re-enqueued failed jobs")
	}
}
