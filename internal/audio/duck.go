package audio

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

type streamInfo struct {
	ID      int
	Volume  int
	AppName string
}

type fadeTarget struct {
	id   int
	from int
	to   int
}

// Ducker fades down the volume of other PulseAudio playback streams while
// the assistant speaks, then restores them. Streams whose application.name
// matches selfNames are left alone.
type Ducker struct {
	mu          sync.Mutex
	active      bool
	selfNames   []string
	originalVol map[int]int // id -> original volume %
	minVolume   int
}

func NewDucker(selfNames []string, minVolume int) *Ducker {
	if minVolume < 0 {
		minVolume = 0
	}
	if minVolume > 150 {
		minVolume = 150
	}

	return &Ducker{
		selfNames:   append([]string(nil), selfNames...),
		originalVol: make(map[int]int),
		minVolume:   minVolume,
	}
}

// DuckOthers fades every foreign stream to current*factor, clamped to
// minVolume. A second call while active is a no-op.
func (d *Ducker) DuckOthers(ctx context.Context, factor float64, duration time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	streams, err := listStreams(ctx)
	if err != nil {
		return fmt.Errorf("listStreams: %w", err)
	}

	d.originalVol = make(map[int]int)

	var targets []fadeTarget
	for _, s := range streams {
		if d.isSelfStream(s) {
			continue
		}

		target := float64(s.Volume) * factor
		if target < float64(d.minVolume) {
			target = float64(d.minVolume)
		}
		if target > 150.0 {
			target = 150.0
		}

		d.originalVol[s.ID] = s.Volume
		targets = append(targets, fadeTarget{id: s.ID, from: s.Volume, to: int(math.Round(target))})
	}

	if len(targets) > 0 {
		if err := fadeInputs(ctx, targets, duration); err != nil {
			return err
		}
	}

	d.active = true
	return nil
}

// UnduckOthers fades foreign streams back to their recorded volumes.
func (d *Ducker) UnduckOthers(ctx context.Context, duration time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	streams, err := listStreams(ctx)
	if err != nil {
		return fmt.Errorf("listStreams: %w", err)
	}

	var targets []fadeTarget
	for _, s := range streams {
		if d.isSelfStream(s) {
			continue
		}
		orig, ok := d.originalVol[s.ID]
		if !ok {
			// stream appeared after ducking, leave it as is
			continue
		}
		targets = append(targets, fadeTarget{id: s.ID, from: s.Volume, to: orig})
	}

	if len(targets) > 0 {
		if err := fadeInputs(ctx, targets, duration); err != nil {
			return err
		}
	}

	d.originalVol = make(map[int]int)
	d.active = false
	return nil
}

func (d *Ducker) isSelfStream(s streamInfo) bool {
	for _, name := range d.selfNames {
		if s.AppName == name {
			return true
		}
	}
	return false
}

// fadeInputs steps a set of sink inputs from their current volumes to the
// targets over duration.
func fadeInputs(ctx context.Context, targets []fadeTarget, duration time.Duration) error {
	if duration <= 0 {
		for _, t := range targets {
			if err := setSinkInputVolume(ctx, t.id, t.to); err != nil {
				return fmt.Errorf("set volume id=%d: %w", t.id, err)
			}
		}
		return nil
	}

	const minStepDuration = 10 * time.Millisecond

	steps := int(duration / minStepDuration)
	if steps < 1 {
		steps = 1
	}
	stepDuration := duration / time.Duration(steps)

	for i := 1; i <= steps; i++ {
		frac := float64(i) / float64(steps)
		for _, t := range targets {
			vol := t.from + int(math.Round(float64(t.to-t.from)*frac))
			if err := setSinkInputVolume(ctx, t.id, vol); err != nil {
				return fmt.Errorf("set volume id=%d: %w", t.id, err)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(stepDuration):
		}
	}

	return nil
}

// listStreams enumerates PulseAudio sink inputs via pactl.
func listStreams(ctx context.Context) ([]streamInfo, error) {
	out, err := exec.CommandContext(ctx, "pactl", "list", "sink-inputs").Output()
	if err != nil {
		return nil, err
	}
	return parseSinkInputs(string(out)), nil
}

func parseSinkInputs(out string) []streamInfo {
	var (
		streams []streamInfo
		cur     *streamInfo
	)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Sink Input #"):
			if cur != nil {
				streams = append(streams, *cur)
			}
			id, err := strconv.Atoi(strings.TrimPrefix(line, "Sink Input #"))
			if err != nil {
				cur = nil
				continue
			}
			cur = &streamInfo{ID: id}
		case cur != nil && strings.HasPrefix(line, "Volume:"):
			if m := percentRe.FindStringSubmatch(line); m != nil {
				cur.Volume, _ = strconv.Atoi(m[1])
			}
		case cur != nil && strings.HasPrefix(line, "application.name"):
			if _, val, ok := strings.Cut(line, "="); ok {
				cur.AppName = strings.Trim(strings.TrimSpace(val), `"`)
			}
		}
	}
	if cur != nil {
		streams = append(streams, *cur)
	}

	return streams
}

func setSinkInputVolume(ctx context.Context, id, volume int) error {
	return exec.CommandContext(ctx, "pactl", "set-sink-input-volume",
		strconv.Itoa(id), fmt.Sprintf("%d%%", volume)).Run()
}
