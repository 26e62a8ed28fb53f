// Package speech provides the speech-input collaborators: a live microphone
// path and a pre-recorded file path, both transcribed locally with
// whisper.cpp.
package speech

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sage/internal/assistant"
	"sage/internal/audio"
	"sage/internal/notify"
	"sage/pkg/stt"
)

// Mic captures one utterance from the default input device and transcribes
// it. It implements assistant.Listener.
type Mic struct {
	rec    *audio.Recorder
	tr     *stt.Transcriber
	earcon string
}

func NewMic(modelPath, earcon string) (*Mic, error) {
	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		return nil, fmt.Errorf("init audio: %w", err)
	}

	tr, err := stt.NewTranscriber(modelPath)
	if err != nil {
		rec.Close()
		return nil, fmt.Errorf("load whisper model: %w", err)
	}

	return &Mic{rec: rec, tr: tr, earcon: earcon}, nil
}

func (m *Mic) Close() {
	m.tr.Close()
	m.rec.Close()
}

// Capture waits up to onsetTimeout for speech to begin and at most phraseCap
// for it to end, then transcribes the recording. Silence and unintelligible
// audio come back as assistant.ErrNoSpeech.
func (m *Mic) Capture(ctx context.Context, onsetTimeout, phraseCap time.Duration) (string, error) {
	if m.earcon != "" {
		if err := notify.Beep(m.earcon); err != nil {
			slog.Debug("earcon failed", "err", err)
		}
	}

	pcm, err := m.rec.Record(onsetTimeout, phraseCap)
	if err != nil {
		return "", fmt.Errorf("record: %w", err)
	}
	if len(pcm) == 0 {
		return "", assistant.ErrNoSpeech
	}

	res, err := m.tr.TranscribePCM(ctx, pcm, stt.Options{Language: "en"})
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		return "", assistant.ErrNoSpeech
	}

	return text, nil
}
