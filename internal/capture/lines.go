package capture

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

// LineRecognizer treats each non-blank line of a reader as a final result and
// each blank line as the end of an utterance. It emits EventEnd at EOF.
// A reader can only be consumed once.
type LineRecognizer struct {
	r    io.Reader
	stop chan struct{}
	once sync.Once
}

func NewLineRecognizer(r io.Reader) *LineRecognizer {
	return &LineRecognizer{r: r, stop: make(chan struct{})}
}

func (l *LineRecognizer) Start(ctx context.Context) (<-chan Event, error) {
	out := make(chan Event)
	go func() {
		defer close(out)

		send := func(ev Event) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			case <-l.stop:
				return false
			}
		}

		sc := bufio.NewScanner(l.r)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			ev := Event{Kind: EventResult, Text: line, Final: true}
			if line == "" {
				ev = Event{Kind: EventSpeechEnd}
			}
			if !send(ev) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			send(Event{Kind: EventError, Err: err})
			return
		}
		send(Event{Kind: EventEnd})
	}()
	return out, nil
}

func (l *LineRecognizer) Stop() {
	l.once.Do(func() { close(l.stop) })
}
