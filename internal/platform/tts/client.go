package tts

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/pkg/fault"
)

// Synthesizer converts one script piece into encoded audio. Pieces are
// synthesized independently; concatenation of MP3 frames is valid output.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, cfg VoiceConfig) ([]byte, error)
	Close() error
}

type VoiceConfig struct {
	LanguageCode string
	VoiceName    string
	SpeakingRate float64
}

type synthesizer struct {
	log    *logger.Logger
	client *texttospeech.Client

	maxRetries int
}

func NewSynthesizer(log *logger.Logger) (Synthesizer, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "TTSSynthesizer")

	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	ctx := context.Background()

	var c *texttospeech.Client
	var err error
	if creds != "" {
		c, err = texttospeech.NewClient(ctx, option.WithCredentialsFile(creds))
	} else {
		c, err = texttospeech.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("texttospeech client: %w", err)
	}

	return &synthesizer{
		log:        slog,
		client:     c,
		maxRetries: 4,
	}, nil
}

func (s *synthesizer) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *synthesizer) Synthesize(ctx context.Context, text string, cfg VoiceConfig) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fault.Errorf(fault.KindInputInvalid, "empty synthesis input")
	}

	lang := cfg.LanguageCode
	if lang == "" {
		lang = "en-US"
	}
	rate := cfg.SpeakingRate
	if rate == 0 {
		rate = 1.0
	}

	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: lang,
			Name:         cfg.VoiceName,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  rate,
		},
	}

	resp, err := s.retrySynth(ctx, func() (*texttospeechpb.SynthesizeSpeechResponse, error) {
		return s.client.SynthesizeSpeech(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	if len(resp.GetAudioContent()) == 0 {
		return nil, fault.Errorf(fault.KindContractViolation, "empty audio content from synthesis")
	}
	return resp.GetAudioContent(), nil
}

func (s *synthesizer) retrySynth(ctx context.Context, fn func() (*texttospeechpb.SynthesizeSpeechResponse, error)) (*texttospeechpb.SynthesizeSpeechResponse, error) {
	backoff := 750 * time.Millisecond
	var last error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		last = err

		code := status.Code(err)
		if code != codes.Unavailable && code != codes.ResourceExhausted && code != codes.DeadlineExceeded {
			return nil, classifyGRPC(err, code)
		}
		if attempt == s.maxRetries {
			break
		}
		time.Sleep(backoff)
		backoff *= 2
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}
	return nil, classifyGRPC(last, status.Code(last))
}

func classifyGRPC(err error, code codes.Code) error {
	if err == nil {
		return nil
	}
	switch code {
	// ResourceExhausted is the provider throttling us, not the user's own
	// generation quota.
	case codes.ResourceExhausted, codes.Unavailable, codes.DeadlineExceeded, codes.Aborted:
		return fault.New(fault.KindTransient, err)
	case codes.InvalidArgument:
		return fault.New(fault.KindInputInvalid, err)
	default:
		return err
	}
}
