package native

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"inputhook/internal/event"
)

// maxReplayGap caps the pause between two replayed events
const maxReplayGap = 2 * time.Second

// ReadEvents decodes newline-delimited JSON events from r.
// Blank lines are skipped.
func ReadEvents(r io.Reader) ([]*event.Event, error) {
	var evs []*event.Event
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var ev event.Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		evs = append(evs, &ev)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return evs, nil
}

// Replay is a Hook that plays back a recorded event stream, honouring the
// recorded spacing between events (capped at maxReplayGap).
type Replay struct {
	*Synthetic
	events []*event.Event
	paced  bool
}

// NewReplay creates a replay hook over evs
func NewReplay(evs []*event.Event, paced bool) *Replay {
	return &Replay{Synthetic: NewSynthetic(), events: evs, paced: paced}
}

// ReplayFactory loads the recording at path and returns a factory of replay hooks over it.
func ReplayFactory(path string, paced bool) (Factory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay file: %w", err)
	}
	defer f.Close()

	evs, err := ReadEvents(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read replay file %s: %w", path, err)
	}
	log.Printf("Replay: loaded %d events from %s", len(evs), path)
	return func() Hook { return NewReplay(evs, paced) }, nil
}

// RunAsync starts the capture goroutine and begins feeding the recording
func (r *Replay) RunAsync(h Handler) error {
	if err := r.Synthetic.RunAsync(h); err != nil {
		return err
	}
	go r.play()
	return nil
}

func (r *Replay) play() {
	var prev time.Time
	for _, ev := range r.events {
		if r.paced && !prev.IsZero() && ev.Time.After(prev) {
			gap := ev.Time.Sub(prev)
			if gap > maxReplayGap {
				gap = maxReplayGap
			}
			time.Sleep(gap)
		}
		prev = ev.Time
		if err := r.Emit(ev); err != nil {
			return
		}
	}
	log.Printf("Replay: finished %d events", len(r.events))
}
