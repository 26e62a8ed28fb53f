package audio

import (
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	sampleRate       = 16000
	frameSize        = 320 // 20ms
	frameMillis      = 20
	silenceThreshRMS = 0.015
	silenceMillis    = 600 // end of phrase after this much trailing silence
)

type Recorder struct{}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record captures one phrase from the default input device as mono float32
// PCM at 16 kHz. It waits up to onsetTimeout for speech to rise above the
// silence threshold; no speech in that window returns an empty slice. Once
// speech starts, capture ends after 600ms of trailing silence or when
// phraseCap is reached.
func (r *Recorder) Record(onsetTimeout, phraseCap time.Duration) ([]float32, error) {
	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	var (
		out           = make([]float32, 0, sampleRate*3)
		speaking      bool
		silenceFrames int
	)

	onsetFrames := int(onsetTimeout.Milliseconds() / frameMillis)
	phraseFrames := int(phraseCap.Milliseconds() / frameMillis)

	for i := 0; ; i++ {
		if !speaking && i >= onsetFrames {
			// nobody spoke within the listening window
			return nil, nil
		}
		if speaking && len(out)/frameSize >= phraseFrames {
			break
		}

		if err := stream.Read(); err != nil {
			return nil, err
		}

		rms := frameRMS(buf)

		if rms > silenceThreshRMS {
			speaking = true
			silenceFrames = 0
			out = append(out, buf...)
			continue
		}
		if speaking {
			silenceFrames++
			if silenceFrames*frameMillis >= silenceMillis {
				break
			}
			out = append(out, buf...)
		}
	}

	return out, nil
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
