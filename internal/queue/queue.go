package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"emojigen/internal/domain"
	"emojigen/internal/infra"
	"emojigen/internal/sqlinline"
)

// Queue is a Postgres-backed at-least-once job queue. A claimed message stays
// invisible for the visibility timeout; if it is not acknowledged in that
// window it becomes eligible for redelivery with a fresh receipt.
type Queue struct {
	db         infra.SQLExecutor
	visibility time.Duration
}

// Delivery pairs a dequeued job with the single-use receipt required to
// acknowledge it.
type Delivery struct {
	Job     *domain.Job
	Receipt string
}

// JobSummary is the side-channel view of a job used by the status surface.
type JobSummary struct {
	ID         string           `json:"id"`
	TraceID    string           `json:"trace_id"`
	Status     domain.JobStatus `json:"status"`
	RetryCount int              `json:"retry_count"`
	Abandoned  bool             `json:"abandoned"`
	CreatedAt  time.Time        `json:"created_at"`
}

// New constructs a queue over the given executor.
func New(db infra.SQLExecutor, visibility time.Duration) *Queue {
	if visibility <= 0 {
		visibility = 5 * time.Minute
	}
	return &Queue{db: db, visibility: visibility}
}

// Enqueue serializes the job and makes it visible to consumers. The returned
// message id is the job id.
func (q *Queue) Enqueue(ctx context.Context, job *domain.Job) (string, error) {
	const op = "queue.Enqueue"
	if job == nil {
		return "", fmt.Errorf("%s: %w: job is nil", op, domain.ErrValidation)
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("%s: encode job: %w", op, err)
	}
	if _, err := q.db.Exec(ctx, sqlinline.QEnqueueJob, job.ID, job.TraceID, payload); err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, domain.ErrTransport, err)
	}
	return job.ID, nil
}

// Dequeue claims the next visible message. Absence of work is not an error;
// it is reported as a nil delivery.
func (q *Queue) Dequeue(ctx context.Context) (*Delivery, error) {
	const op = "queue.Dequeue"

	receipt := uuid.NewString()
	row := q.db.QueryRow(ctx, sqlinline.QClaimJob, receipt, int(q.visibility.Seconds()))

	var (
		id      string
		payload []byte
		retries int
	)
	if err := row.Scan(&id, &payload, &retries); err != nil {
		if infra.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w: %v", op, domain.ErrTransport, err)
	}

	var job domain.Job
	if err := json.Unmarshal(payload, &job); err != nil {
		return nil, fmt.Errorf("%s: decode job %s: %w", op, id, err)
	}
	job.Status = domain.JobStatusProcessing
	job.RetryCount = retries

	return &Delivery{Job: &job, Receipt: receipt}, nil
}

// Complete acknowledges a processed message. The receipt is single-use: once
// the visibility window lapses and the message is redelivered, the old receipt
// no longer matches and the ack is rejected.
func (q *Queue) Complete(ctx context.Context, jobID, receipt string) error {
	const op = "queue.Complete"
	tag, err := q.db.Exec(ctx, sqlinline.QCompleteJob, jobID, receipt)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrTransport, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: receipt for job %s is no longer valid", op, jobID)
	}
	return nil
}

// UpdateStatus records a best-effort status, independent of message delivery.
func (q *Queue) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus) error {
	const op = "queue.UpdateStatus"
	if _, err := q.db.Exec(ctx, sqlinline.QUpdateJobStatus, jobID, string(status)); err != nil {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrTransport, err)
	}
	return nil
}

// GetStatus reads the side-channel status for a job.
func (q *Queue) GetStatus(ctx context.Context, jobID string) (*JobSummary, error) {
	const op = "queue.GetStatus"
	row := q.db.QueryRow(ctx, sqlinline.QGetJobStatus, jobID)

	summary := JobSummary{ID: jobID}
	var status string
	if err := row.Scan(&status, &summary.RetryCount, &summary.Abandoned); err != nil {
		if infra.IsNoRows(err) {
			return nil, fmt.Errorf("%s: job %s: %w", op, jobID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w: %v", op, domain.ErrTransport, err)
	}
	summary.Status = domain.JobStatus(status)
	return &summary, nil
}

// RetryFailed re-enqueues failed jobs still under the retry ceiling and
// abandons the rest. Every re-enqueue counts against the ceiling, so a job
// that keeps failing is abandoned after maxRetries sweeps. It returns how
// many jobs were re-enqueued.
func (q *Queue) RetryFailed(ctx context.Context, maxRetries int) (int, error) {
	const op = "queue.RetryFailed"

	if _, err := q.db.Exec(ctx, sqlinline.QAbandonExhausted, maxRetries); err != nil {
		return 0, fmt.Errorf("%s: %w: %v", op, domain.ErrTransport, err)
	}
	tag, err := q.db.Exec(ctx, sqlinline.QRetryFailed, maxRetries)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %v", op, domain.ErrTransport, err)
	}
	return int(tag.RowsAffected()), nil
}

// ListRecent returns the newest jobs for the ops listing.
func (q *Queue) ListRecent(ctx context.Context, limit int) ([]JobSummary, error) {
	const op = "queue.ListRecent"
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := q.db.Query(ctx, sqlinline.QListRecentJobs, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, domain.ErrTransport, err)
	}
	defer rows.Close()

	var out []JobSummary
	for rows.Next() {
		var s JobSummary
		var status string
		if err := rows.Scan(&s.ID, &s.TraceID, &status, &s.RetryCount, &s.Abandoned, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		s.Status = domain.JobStatus(status)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, domain.ErrTransport, err)
	}
	return out, nil
}
