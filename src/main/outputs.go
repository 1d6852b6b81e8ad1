package main

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"screen-timer-llm/src/chime"
	"screen-timer-llm/src/clipboard"
	"screen-timer-llm/src/config"
	"screen-timer-llm/src/countdown"
	"screen-timer-llm/src/history"
	"screen-timer-llm/src/logutil"
)

// outputs fans a fresh outcome out to the optional clipboard copy, chime and
// history store.
type outputs struct {
	copyResponse bool
	copy         func(string) error
	play         func() error
	record       func(context.Context, countdown.Outcome) error

	mu   sync.Mutex
	last string
}

func newOutputs(cfg *config.Config) (*outputs, func()) {
	o := &outputs{copyResponse: cfg.CopyResponse, copy: clipboard.Write}
	closeFn := func() {}

	if cfg.Chime {
		o.play = chime.New(nil).Play
	}
	if cfg.HistoryPath != "" {
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			log.Printf("History disabled: %v", err)
		} else {
			log.Printf("Recording history in %s", cfg.HistoryPath)
			o.record = store.Record
			closeFn = func() { _ = store.Close() }
		}
	}
	return o, closeFn
}

// Handle is called on the event-loop goroutine for every outcome shown.
func (o *outputs) Handle(out countdown.Outcome) {
	if out.Err != nil {
		log.Printf("Cycle %d failed after %v: %v", out.Cycle, out.Elapsed, out.Err)
	} else {
		log.Printf("Cycle %d answered in %v: %s", out.Cycle, out.Elapsed, logutil.SanitizeForLog(out.Text))
		o.mu.Lock()
		o.last = out.Text
		o.mu.Unlock()
		if o.copyResponse && o.copy != nil {
			if err := o.copy(out.Text); err != nil {
				log.Printf("Failed to copy response: %v", err)
			}
		}
	}

	if o.play != nil {
		if err := o.play(); err != nil {
			log.Printf("Chime failed: %v", err)
		}
	}
	if o.record != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := o.record(ctx, out); err != nil {
			log.Printf("Failed to record history: %v", err)
		}
	}
}

// CopyLast copies the most recent successful response.
func (o *outputs) CopyLast() error {
	o.mu.Lock()
	text := o.last
	o.mu.Unlock()
	if text == "" {
		return errors.New("no response yet")
	}
	return o.copy(text)
}
