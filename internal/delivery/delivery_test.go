package delivery

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"emojigen/internal/domain"
	"emojigen/internal/slack"
)

type uploadCall struct {
	channelID string
	threadTS  string
	filename  string
}

type messageCall struct {
	channelID string
	threadTS  string
	text      string
}

type fakeAPI struct {
	uploads    []uploadCall
	messages   []messageCall
	ephemerals []messageCall

	uploadErr    error
	messageErr   error
	ephemeralErr error
	dmErr        error

	postedTS  string
	dmChannel string
}

func (f *fakeAPI) UploadFile(ctx context.Context, channelID, threadTS, filename string, data []byte) (*slack.FileRef, error) {
	f.uploads = append(f.uploads, uploadCall{channelID: channelID, threadTS: threadTS, filename: filename})
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &slack.FileRef{ID: "F123", URL: "https://files.example/F123"}, nil
}

func (f *fakeAPI) PostMessage(ctx context.Context, channelID, threadTS, text string) (string, error) {
	f.messages = append(f.messages, messageCall{channelID: channelID, threadTS: threadTS, text: text})
	if f.messageErr != nil {
		return "", f.messageErr
	}
	if f.postedTS != "" {
		return f.postedTS, nil
	}
	return "1700000000.000200", nil
}

func (f *fakeAPI) PostEphemeral(ctx context.Context, channelID, userID, text string) error {
	f.ephemerals = append(f.ephemerals, messageCall{channelID: channelID, text: text})
	return f.ephemeralErr
}

func (f *fakeAPI) OpenDM(ctx context.Context, userID string) (string, error) {
	if f.dmErr != nil {
		return "", f.dmErr
	}
	if f.dmChannel != "" {
		return f.dmChannel, nil
	}
	return "D999", nil
}

func testArtifact(t *testing.T) *domain.Artifact {
	t.Helper()
	spec := domain.SizeEmoji.Spec()
	artifact, err := domain.NewArtifact("facepalm", "image/png", bytes.Repeat([]byte{1}, 512), 128, 128, spec)
	if err != nil {
		t.Fatalf("NewArtifact returned error: %v", err)
	}
	return artifact
}

func deliveryJob(t *testing.T, sharing domain.SharingPrefs, messageTS string) *domain.Job {
	t.Helper()
	job, err := domain.NewJob("deploy facepalm", "", "facepalm", domain.StylePrefs{}, sharing, "C123", "U123", messageTS, "trace-1")
	if err != nil {
		t.Fatalf("NewJob returned error: %v", err)
	}
	return job
}

func newTestService(api *fakeAPI) *Service {
	return NewService(api, zerolog.New(io.Discard))
}

func TestDeliverToChannel(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	svc := newTestService(api)
	job := deliveryJob(t, domain.SharingPrefs{}, "")

	res, err := svc.Deliver(context.Background(), job, testArtifact(t), nil)
	if err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if !res.OK || res.FileURL == "" {
		t.Fatalf("result = %+v", res)
	}
	if len(api.uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(api.uploads))
	}
	if got := api.uploads[0]; got.channelID != "C123" || got.threadTS != "" || got.filename != "facepalm.png" {
		t.Fatalf("upload call = %+v", got)
	}
}

func TestDeliverToThread(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	svc := newTestService(api)
	job := deliveryJob(t, domain.SharingPrefs{
		ShareLocation: domain.ShareThread,
		ThreadRef:     "1700000000.000100",
	}, "")

	res, err := svc.Deliver(context.Background(), job, testArtifact(t), nil)
	if err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if res.ThreadRef != "1700000000.000100" {
		t.Fatalf("thread ref = %q", res.ThreadRef)
	}
	if api.uploads[0].threadTS != "1700000000.000100" {
		t.Fatalf("upload thread = %q", api.uploads[0].threadTS)
	}
}

func TestDeliverNewThreadReusesOriginMessage(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	svc := newTestService(api)
	job := deliveryJob(t, domain.SharingPrefs{ShareLocation: domain.ShareNewThread}, "1700000000.000300")

	res, err := svc.Deliver(context.Background(), job, testArtifact(t), nil)
	if err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if res.ThreadRef != "1700000000.000300" {
		t.Fatalf("thread ref = %q, want the originating message ts", res.ThreadRef)
	}
	if len(api.messages) != 0 {
		t.Fatalf("posted %d anchor messages, want 0", len(api.messages))
	}
}

func TestDeliverNewThreadCreatesAnchor(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{postedTS: "1700000000.000400"}
	svc := newTestService(api)
	job := deliveryJob(t, domain.SharingPrefs{ShareLocation: domain.ShareNewThread}, "")

	res, err := svc.Deliver(context.Background(), job, testArtifact(t), nil)
	if err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if res.ThreadRef != "1700000000.000400" {
		t.Fatalf("thread ref = %q, want the anchor ts", res.ThreadRef)
	}
	if len(api.messages) != 1 {
		t.Fatalf("posted %d messages, want the anchor only", len(api.messages))
	}
}

func TestDeliverToDM(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{dmChannel: "D777"}
	svc := newTestService(api)
	job := deliveryJob(t, domain.SharingPrefs{ShareLocation: domain.ShareDM}, "")

	if _, err := svc.Deliver(context.Background(), job, testArtifact(t), nil); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if api.uploads[0].channelID != "D777" {
		t.Fatalf("upload channel = %q, want the dm channel", api.uploads[0].channelID)
	}
}

func TestDeliverUploadFailureIsFatal(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{uploadErr: domain.ErrDelivery}
	svc := newTestService(api)
	job := deliveryJob(t, domain.SharingPrefs{}, "")

	if _, err := svc.Deliver(context.Background(), job, testArtifact(t), nil); !errors.Is(err, domain.ErrDelivery) {
		t.Fatalf("err = %v, want ErrDelivery", err)
	}
}

func TestDeliverInstructionsEphemeralForRequester(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	svc := newTestService(api)
	job := deliveryJob(t, domain.SharingPrefs{
		IncludeInstructions:   true,
		InstructionVisibility: domain.VisibilityRequester,
	}, "")

	if _, err := svc.Deliver(context.Background(), job, testArtifact(t), nil); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if len(api.ephemerals) != 1 {
		t.Fatalf("ephemerals = %d, want 1", len(api.ephemerals))
	}
	if len(api.messages) != 0 {
		t.Fatalf("messages = %d, want none for requester-only visibility", len(api.messages))
	}
}

func TestDeliverInstructionFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{messageErr: errors.New("channel archived")}
	svc := newTestService(api)
	job := deliveryJob(t, domain.SharingPrefs{IncludeInstructions: true}, "")

	res, err := svc.Deliver(context.Background(), job, testArtifact(t), nil)
	if err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if !res.OK {
		t.Fatal("upload succeeded but result not OK")
	}
}
