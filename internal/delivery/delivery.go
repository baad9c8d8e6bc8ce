// Package delivery places a finished artifact into the chat surface the job
// asked for and emits the upload instructions.
package delivery

import (
	"context"
	"fmt"
	"strings"

	"emojigen/internal/domain"
	"emojigen/internal/infra"
	"emojigen/internal/providers"
	"emojigen/internal/slack"
)

// API is the subset of the Slack client the service depends on.
type API interface {
	UploadFile(ctx context.Context, channelID, threadTS, filename string, data []byte) (*slack.FileRef, error)
	PostMessage(ctx context.Context, channelID, threadTS, text string) (string, error)
	PostEphemeral(ctx context.Context, channelID, userID, text string) error
	OpenDM(ctx context.Context, userID string) (string, error)
}

// Result reports where the artifact ended up. ThreadRef is populated whenever
// a thread was used or created so re-delivery can reuse it.
type Result struct {
	OK        bool
	FileURL   string
	ThreadRef string
}

// Service routes artifacts according to the job's sharing preferences.
type Service struct {
	api    API
	logger infra.Logger
}

// NewService constructs a delivery service over the given chat API.
func NewService(api API, logger infra.Logger) *Service {
	return &Service{api: api, logger: logger}
}

// Deliver uploads the artifact to the share location and posts instructions
// when requested. Instruction posting is best-effort; only the upload itself
// gates success.
func (s *Service) Deliver(ctx context.Context, job *domain.Job, artifact *domain.Artifact, meta *providers.Result) (*Result, error) {
	const op = "delivery.Deliver"

	channelID := job.ChannelID
	threadTS := ""

	switch job.Sharing.ShareLocation {
	case domain.ShareThread:
		threadTS = job.Sharing.ThreadRef
	case domain.ShareNewThread:
		ref, err := s.resolveNewThread(ctx, job)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		threadTS = ref
	case domain.ShareDM:
		dm, err := s.api.OpenDM(ctx, job.UserID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		channelID = dm
	}

	file, err := s.api.UploadFile(ctx, channelID, threadTS, artifact.Filename(), artifact.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if job.Sharing.IncludeInstructions {
		s.postInstructions(ctx, job, artifact, meta, channelID, threadTS)
	}

	return &Result{OK: true, FileURL: file.URL, ThreadRef: threadTS}, nil
}

// resolveNewThread finds or creates the thread a new_thread delivery attaches
// under. A thread reference recorded on the job (redelivery) or an originating
// message timestamp is reused rather than creating a second thread.
func (s *Service) resolveNewThread(ctx context.Context, job *domain.Job) (string, error) {
	if ref := strings.TrimSpace(job.Sharing.ThreadRef); ref != "" {
		return ref, nil
	}
	if job.MessageTS != "" {
		return job.MessageTS, nil
	}
	ts, err := s.api.PostMessage(ctx, job.ChannelID, "", anchorText(job))
	if err != nil {
		return "", err
	}
	return ts, nil
}

func (s *Service) postInstructions(ctx context.Context, job *domain.Job, artifact *domain.Artifact, meta *providers.Result, channelID, threadTS string) {
	text := BuildInstructions(job, artifact, meta)

	var err error
	switch {
	case job.Sharing.ShareLocation == domain.ShareDM:
		_, err = s.api.PostMessage(ctx, channelID, "", text)
	case job.Sharing.InstructionVisibility == domain.VisibilityRequester:
		err = s.api.PostEphemeral(ctx, channelID, job.UserID, text)
	default:
		_, err = s.api.PostMessage(ctx, channelID, threadTS, text)
	}
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("job_id", job.ID).
			Str("trace_id", job.TraceID).
			Msg("delivery: instructions post failed")
	}
}
