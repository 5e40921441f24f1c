package speech

import (
	"context"
	"os"
	"strings"

	apperrors "github.com/facecast/server/internal/shared/errors"
)

// TextPolicy decides what is actually spoken for a piece of request text.
type TextPolicy interface {
	Prepare(ctx context.Context, text string) (string, error)
}

// VerbatimPolicy speaks the request text unchanged.
type VerbatimPolicy struct{}

func (VerbatimPolicy) Prepare(_ context.Context, text string) (string, error) {
	return text, nil
}

type responder interface {
	Respond(ctx context.Context, text string) (string, error)
}

// ConversationalPolicy treats the request text as a user message and speaks a
// generated reply instead.
type ConversationalPolicy struct {
	rewriter responder
}

func NewConversationalPolicy(rewriter responder) *ConversationalPolicy {
	return &ConversationalPolicy{rewriter: rewriter}
}

func (p *ConversationalPolicy) Prepare(ctx context.Context, text string) (string, error) {
	return p.rewriter.Respond(ctx, text)
}

type audioConverter interface {
	Synthesize(ctx context.Context, text, speaker string) ([]byte, error)
}

// Synthesizer produces a WAV file for one request: resolve the voice, apply
// the text policy, call the speech backend and persist the audio.
type Synthesizer struct {
	tts    audioConverter
	policy TextPolicy
	voices VoiceTable
}

func NewSynthesizer(tts audioConverter, policy TextPolicy, voices VoiceTable) *Synthesizer {
	return &Synthesizer{tts: tts, policy: policy, voices: voices}
}

// Synthesize writes spoken audio for text to outPath. Text and voice hints
// are validated before any collaborator is called: empty text is rejected
// first, then an invalid gender, so bad requests never reach the network.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, sel Selector, outPath string) error {
	if strings.TrimSpace(text) == "" {
		return apperrors.ValidationError("text must not be empty")
	}

	voice, err := s.voices.Resolve(sel)
	if err != nil {
		return err
	}

	spoken, err := s.policy.Prepare(ctx, text)
	if err != nil {
		return err
	}

	audio, err := s.tts.Synthesize(ctx, spoken, voice)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, audio, 0o644); err != nil {
		return apperrors.Internal("failed to write audio file", err)
	}

	return nil
}
