package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	transcribetypes "github.com/aws/aws-sdk-go-v2/service/transcribe/types"

	"amplify_server/config"
	"amplify_server/logger"
	"amplify_server/metrics"
	"amplify_server/models"
)

var errFileTooLarge = errors.New("video exceeds transcription size limit")

// TranscribeAPI is the part of *transcribe.Client the server uses.
type TranscribeAPI interface {
	StartTranscriptionJob(ctx context.Context, in *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, in *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
}

// TranscriptObjects is what transcription needs from object storage.
type TranscriptObjects interface {
	BucketName() string
	URI(key string) string
	Stat(ctx context.Context, key string) (*ObjectInfo, error)
	ReadObject(ctx context.Context, key string) ([]byte, error)
}

// TranscriptWriter records transcription progress on the video row.
type TranscriptWriter interface {
	SetTranscriptStatus(ctx context.Context, id, status string) error
	SaveTranscript(ctx context.Context, id, transcript string) error
}

// TranscriptionService runs one background Amazon Transcribe job per uploaded video.
type TranscriptionService struct {
	Client  TranscribeAPI
	Storage TranscriptObjects
	Videos  TranscriptWriter
	Config  config.TranscriptionConfig
	Log     logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTranscriptionService(client TranscribeAPI, storage TranscriptObjects, videos TranscriptWriter, cfg config.TranscriptionConfig, log logger.Logger) *TranscriptionService {
	ctx, cancel := context.WithCancel(context.Background())
	return &TranscriptionService{
		Client:  client,
		Storage: storage,
		Videos:  videos,
		Config:  cfg,
		Log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// NewTranscribeClient builds the SDK client from cfg.
func NewTranscribeClient(cfg aws.Config) *transcribe.Client {
	return transcribe.NewFromConfig(cfg)
}

// Enqueue starts transcribing video in the background. It returns immediately.
func (ts *TranscriptionService) Enqueue(video *models.Video) {
	if ts.ctx.Err() != nil {
		return
	}
	ts.wg.Add(1)
	go func() {
		defer ts.wg.Done()
		ts.Run(ts.ctx, video.ID, video.Filename)
	}()
}

// Run transcribes one video synchronously and records the outcome.
func (ts *TranscriptionService) Run(ctx context.Context, videoID, filename string) {
	log := ts.Log.WithFields(map[string]interface{}{"videoId": videoID})
	// Status writes must land even when ctx is cancelled on shutdown.
	store := context.WithoutCancel(ctx)

	if !ts.Config.Enabled {
		log.Warn("transcription disabled, marking video failed", nil)
		ts.finish(store, log, videoID, models.TranscriptFailed)
		return
	}

	if err := ts.Videos.SetTranscriptStatus(store, videoID, models.TranscriptProcessing); err != nil {
		log.WithError(err).Error("failed to mark transcription processing", nil)
		return
	}

	transcript, err := ts.transcribe(ctx, videoID, filename)
	if err != nil {
		log.WithError(err).Error("transcription failed", nil)
		ts.finish(store, log, videoID, models.TranscriptFailed)
		return
	}

	if err := ts.Videos.SaveTranscript(store, videoID, transcript); err != nil {
		log.WithError(err).Error("failed to save transcript", nil)
		ts.finish(store, log, videoID, models.TranscriptFailed)
		return
	}
	metrics.TranscriptionJobsTotal.WithLabelValues(models.TranscriptCompleted).Inc()
	log.Info("transcription completed", map[string]interface{}{"length": len(transcript)})
}

func (ts *TranscriptionService) finish(ctx context.Context, log logger.Logger, videoID, status string) {
	metrics.TranscriptionJobsTotal.WithLabelValues(status).Inc()
	if err := ts.Videos.SetTranscriptStatus(ctx, videoID, status); err != nil {
		log.WithError(err).Error("failed to record transcription status", map[string]interface{}{"status": status})
	}
}

func (ts *TranscriptionService) transcribe(ctx context.Context, videoID, filename string) (string, error) {
	key := VideoKey(filename)
	info, err := ts.Storage.Stat(ctx, key)
	if err != nil {
		return "", err
	}
	if ts.Config.MaxFileSize > 0 && info.Size > ts.Config.MaxFileSize {
		return "", fmt.Errorf("%w: %d bytes", errFileTooLarge, info.Size)
	}

	ctx, cancel := context.WithTimeout(ctx, ts.Config.Timeout)
	defer cancel()

	jobName := JobName(videoID, time.Now())
	in := &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
		LanguageCode:         transcribetypes.LanguageCode(ts.Config.LanguageCode),
		Media:                &transcribetypes.Media{MediaFileUri: aws.String(ts.Storage.URI(key))},
		OutputBucketName:     aws.String(ts.Storage.BucketName()),
		OutputKey:            aws.String(TranscriptKey(videoID)),
	}
	if format, ok := MediaFormat(filename); ok {
		in.MediaFormat = format
	}
	if _, err := ts.Client.StartTranscriptionJob(ctx, in); err != nil {
		return "", fmt.Errorf("start transcription job: %w", err)
	}

	if err := ts.wait(ctx, jobName); err != nil {
		return "", err
	}

	raw, err := ts.Storage.ReadObject(ctx, TranscriptKey(videoID))
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return ParseTranscript(raw)
}

func (ts *TranscriptionService) wait(ctx context.Context, jobName string) error {
	ticker := time.NewTicker(ts.Config.PollInterval)
	defer ticker.Stop()

	for {
		out, err := ts.Client.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
			TranscriptionJobName: aws.String(jobName),
		})
		if err != nil {
			return fmt.Errorf("poll transcription job: %w", err)
		}
		if job := out.TranscriptionJob; job != nil {
			switch job.TranscriptionJobStatus {
			case transcribetypes.TranscriptionJobStatusCompleted:
				return nil
			case transcribetypes.TranscriptionJobStatusFailed:
				return fmt.Errorf("transcription job failed: %s", aws.ToString(job.FailureReason))
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("transcription job %s: %w", jobName, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Shutdown stops new jobs, cancels running ones and waits for them to record their status.
func (ts *TranscriptionService) Shutdown(ctx context.Context) error {
	ts.cancel()
	done := make(chan struct{})
	go func() {
		ts.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// JobName is unique per attempt; Transcribe rejects reused names.
func JobName(videoID string, at time.Time) string {
	return fmt.Sprintf("amplify-%s-%d", videoID, at.UnixMilli())
}

// MediaFormat maps an upload's extension to a Transcribe media format. Other containers are
// left for Transcribe to detect.
func MediaFormat(filename string) (transcribetypes.MediaFormat, bool) {
	ext := strings.ToLower(filename)
	if i := strings.LastIndexByte(ext, '.'); i >= 0 {
		ext = ext[i+1:]
	}
	switch ext {
	case "mp4", "m4v":
		return transcribetypes.MediaFormatMp4, true
	case "webm":
		return transcribetypes.MediaFormatWebm, true
	case "ogg":
		return transcribetypes.MediaFormatOgg, true
	}
	return "", false
}

type transcriptDocument struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

// ParseTranscript extracts the text from Transcribe's output document. No speech is an
// empty transcript, not an error.
func ParseTranscript(raw []byte) (string, error) {
	var doc transcriptDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("parse transcript: %w", err)
	}
	if len(doc.Results.Transcripts) == 0 {
		return "", nil
	}
	return strings.TrimSpace(doc.Results.Transcripts[0].Transcript), nil
}
