// Package chime plays a short synthesized tone when a response arrives.
package chime

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const (
	SampleRate = beep.SampleRate(44100)
	volume     = 0.3
)

// Note is one tone of the chime.
type Note struct {
	Freq     float64
	Duration time.Duration
}

// Response is the two-note chime played after a response.
var Response = []Note{
	{Freq: 880, Duration: 120 * time.Millisecond},
	{Freq: 1318.5, Duration: 180 * time.Millisecond},
}

// Player owns the speaker. The zero value is not usable; use New.
type Player struct {
	initOnce sync.Once
	initErr  error
	mu       sync.Mutex
	notes    []Note
}

func New(notes []Note) *Player {
	if len(notes) == 0 {
		notes = Response
	}
	return &Player{notes: notes}
}

func (p *Player) init() error {
	p.initOnce.Do(func() {
		p.initErr = speaker.Init(SampleRate, SampleRate.N(time.Second/10))
		if p.initErr != nil {
			log.Printf("Audio disabled: Failed to initialize speaker: %v", p.initErr)
		}
	})
	return p.initErr
}

// Play starts the chime and returns immediately.
func (p *Player) Play() error {
	if err := p.init(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	speaker.Play(Sequence(SampleRate, p.notes))
	return nil
}

// Sequence joins the notes into one streamer.
func Sequence(sr beep.SampleRate, notes []Note) beep.Streamer {
	streamers := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		streamers = append(streamers, Tone(sr, n.Freq, n.Duration))
	}
	return beep.Seq(streamers...)
}

// Tone is a sine wave with a linear decay, exactly d long.
func Tone(sr beep.SampleRate, freq float64, d time.Duration) beep.Streamer {
	total := sr.N(d)
	pos := 0
	step := 2 * math.Pi * freq / float64(sr)
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= total {
			return 0, false
		}
		n := 0
		for i := range samples {
			if pos >= total {
				break
			}
			env := 1 - float64(pos)/float64(total)
			v := volume * env * math.Sin(step*float64(pos))
			samples[i][0] = v
			samples[i][1] = v
			pos++
			n++
		}
		return n, true
	})
}
