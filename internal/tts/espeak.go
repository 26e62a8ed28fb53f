package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <espeak-ng/speak_lib.h>

int
espeak_say(const char *text)
{
	if (!text)
	{ return -1; }

	espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0);
	espeak_VOICE specs = { .languages = "en" };
	espeak_SetVoiceByProperties(&specs);

	espeak_Synth(text, 500, 0, 0, 0, espeakCHARS_AUTO, NULL, NULL);
	espeak_Synchronize();
	espeak_Terminate();

	return 0;
}
*/
import "C"

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unsafe"

	"sage/internal/audio"
)

// Engine vocalizes replies through espeak-ng. When a Ducker is supplied,
// other playback streams are faded down for the duration of the utterance.
type Engine struct {
	ducker *audio.Ducker
}

func New(ducker *audio.Ducker) *Engine {
	return &Engine{ducker: ducker}
}

func (e *Engine) Speak(text string) error {
	if text == "" {
		return nil
	}

	if e.ducker != nil {
		if err := e.ducker.DuckOthers(context.Background(), 0.3, 200*time.Millisecond); err != nil {
			slog.Debug("duck failed", "err", err)
		}
		defer func() {
			if err := e.ducker.UnduckOthers(context.Background(), 300*time.Millisecond); err != nil {
				slog.Debug("unduck failed", "err", err)
			}
		}()
	}

	return say(text)
}

func say(text string) error {
	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))

	rc := C.espeak_say(ctext)
	if rc != 0 {
		return fmt.Errorf("espeak_say failed: %d", int(rc))
	}

	return nil
}
