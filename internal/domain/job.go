package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// ShareLocation enumerates where a finished emoji is delivered.
type ShareLocation string

const (
	ShareChannel   ShareLocation = "channel"
	ShareThread    ShareLocation = "thread"
	ShareNewThread ShareLocation = "new_thread"
	ShareDM        ShareLocation = "dm"
)

// InstructionVisibility controls who sees the upload instructions message.
type InstructionVisibility string

const (
	VisibilityEveryone  InstructionVisibility = "everyone"
	VisibilityRequester InstructionVisibility = "requester"
)

// StylePrefs captures the structured style choices collected at intake.
type StylePrefs struct {
	StyleType   string `json:"style_type,omitempty"`
	ColorScheme string `json:"color_scheme,omitempty"`
	DetailLevel string `json:"detail_level,omitempty"`
	Tone        string `json:"tone,omitempty"`
}

// SharingPrefs captures how and to whom the finished emoji is delivered.
type SharingPrefs struct {
	ShareLocation         ShareLocation         `json:"share_location"`
	InstructionVisibility InstructionVisibility `json:"instruction_visibility"`
	ImageSize             ImageSize             `json:"image_size"`
	ThreadRef             string                `json:"thread_ref,omitempty"`
	IncludeInstructions   bool                  `json:"include_upload_instructions"`
}

// Job is the unit of work for one emoji generation request. It is owned by the
// pipeline from enqueue to acknowledgment; the queue owns the receipt handle.
type Job struct {
	ID             string                `json:"id"`
	TraceID        string                `json:"trace_id"`
	Description    string                `json:"description"`
	MessageContext string                `json:"message_context,omitempty"`
	Name           string                `json:"name,omitempty"`
	Style          StylePrefs            `json:"style"`
	Sharing        SharingPrefs          `json:"sharing"`
	ChannelID      string                `json:"channel_id"`
	UserID         string                `json:"user_id"`
	MessageTS      string                `json:"message_ts,omitempty"`
	Status         JobStatus             `json:"status"`
	RetryCount     int                   `json:"retry_count"`
	CreatedAt      time.Time             `json:"created_at"`
}

// NewJob validates and constructs a pending job. A thread share location
// without a thread reference is rejected at construction time, before the job
// can ever reach the queue.
func NewJob(description, messageContext, name string, style StylePrefs, sharing SharingPrefs, channelID, userID, messageTS, traceID string) (*Job, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if strings.TrimSpace(channelID) == "" {
		return nil, fmt.Errorf("%w: channel id is required", ErrValidation)
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	switch sharing.ShareLocation {
	case ShareChannel, ShareThread, ShareNewThread, ShareDM:
	case "":
		sharing.ShareLocation = ShareChannel
	default:
		return nil, fmt.Errorf("%w: unknown share location %q", ErrValidation, sharing.ShareLocation)
	}
	if sharing.ShareLocation == ShareThread && strings.TrimSpace(sharing.ThreadRef) == "" {
		return nil, fmt.Errorf("%w: thread share location requires a thread reference", ErrValidation)
	}
	if sharing.InstructionVisibility == "" {
		sharing.InstructionVisibility = VisibilityEveryone
	}
	if sharing.ImageSize == "" {
		sharing.ImageSize = SizeEmoji
	}
	if traceID == "" {
		traceID = uuid.NewString()
	}
	if name == "" {
		name = defaultEmojiName(description)
	}

	return &Job{
		ID:             uuid.NewString(),
		TraceID:        traceID,
		Description:    strings.TrimSpace(description),
		MessageContext: strings.TrimSpace(messageContext),
		Name:           name,
		Style:          style,
		Sharing:        sharing,
		ChannelID:      channelID,
		UserID:         userID,
		MessageTS:      messageTS,
		Status:         JobStatusPending,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// defaultEmojiName derives a usable emoji short name from the description.
func defaultEmojiName(description string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(description)))
	if len(fields) > 3 {
		fields = fields[:3]
	}
	name := strings.Join(fields, "_")
	cleaned := make([]rune, 0, len(name))
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			cleaned = append(cleaned, r)
		}
	}
	if len(cleaned) == 0 {
		return "custom_emoji"
	}
	return string(cleaned)
}
