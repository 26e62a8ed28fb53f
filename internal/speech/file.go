package speech

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sage/internal/assistant"
	"sage/pkg/audioconv"
	"sage/pkg/stt"
)

// Queue feeds pre-recorded audio files through the same transcription path
// as the microphone, one utterance per file. Useful for machines without a
// capture device and for replaying recorded sessions. Once the queue is
// exhausted it blocks like a silent microphone until the context ends.
type Queue struct {
	tr    *stt.Transcriber
	files []string
	next  int
}

func NewQueue(modelPath string, files []string) (*Queue, error) {
	tr, err := stt.NewTranscriber(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load whisper model: %w", err)
	}
	return &Queue{tr: tr, files: files}, nil
}

func (q *Queue) Close() {
	q.tr.Close()
}

func (q *Queue) Capture(ctx context.Context, _, _ time.Duration) (string, error) {
	if q.next >= len(q.files) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	path := q.files[q.next]
	q.next++

	pcm, err := audioconv.ConvertFileToPCM16k(ctx, path, audioconv.Options{})
	if err != nil {
		slog.Warn("decode failed", "file", path, "err", err)
		return "", assistant.ErrNoSpeech
	}
	if len(pcm) == 0 {
		return "", assistant.ErrNoSpeech
	}

	res, err := q.tr.TranscribePCM(ctx, pcm, stt.Options{Language: "en"})
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", path, err)
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		return "", assistant.ErrNoSpeech
	}

	slog.Info("transcribed file", "file", path, "text", text)
	return text, nil
}
