package capture

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"voicenotes/internal/logger"
)

// DefaultSilence is how long a session keeps listening without new speech.
const DefaultSilence = 2 * time.Second

type EventKind int

const (
	EventResult EventKind = iota
	EventSpeechEnd
	EventError
	EventEnd
)

// Event is one notification from a Recognizer. Text and Final are set for
// EventResult, Err for EventError.
type Event struct {
	Kind  EventKind
	Text  string
	Final bool
	Err   error
}

// Recognizer produces transcript events. The channel should be closed, or at
// least abandoned, once ctx is done or Stop is called.
type Recognizer interface {
	Start(ctx context.Context) (<-chan Event, error)
	Stop()
}

type State int

const (
	Idle State = iota
	Listening
)

func (s State) String() string {
	if s == Listening {
		return "listening"
	}
	return "idle"
}

// Snapshot is a consistent view of a session.
type Snapshot struct {
	State       State
	Transcript  string
	Title       string
	TitleFrozen bool
	Err         error
}

type Options struct {
	// Silence stops listening after this long without a result. Zero means
	// DefaultSilence; negative disables the timer.
	Silence time.Duration
	// OnChange, when set, is called on the event goroutine after every handled
	// event, outside any lock. It may call Stop, SetTitle and Snapshot; it must
	// not call Close, which waits for that goroutine.
	OnChange func(Snapshot)
	Logger   *slog.Logger
}

// Session drives one Recognizer at a time: Idle until Start, Listening until
// Stop, silence, an error or the end of the stream.
type Session struct {
	newRecognizer func() Recognizer
	silence       time.Duration
	onChange      func(Snapshot)
	log           *slog.Logger

	control sync.Mutex // serialises Start, Stop and Close
	wg      sync.WaitGroup

	mu      sync.Mutex
	state   State
	gen     uint64
	rec     Recognizer
	cancel  context.CancelFunc
	timer   *time.Timer
	done    chan struct{}
	finals  []string
	interim string
	title   string
	frozen  bool
	lastErr error
	closed  bool
}

var ErrClosed = errors.New("capture: session closed")

func NewSession(newRecognizer func() Recognizer, opts Options) *Session {
	silence := opts.Silence
	if silence == 0 {
		silence = DefaultSilence
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	done := make(chan struct{})
	close(done)
	return &Session{
		newRecognizer: newRecognizer,
		silence:       silence,
		onChange:      opts.OnChange,
		log:           log.With("component", "capture"),
		done:          done,
	}
}

// Start replaces any running recognizer with a fresh one and begins listening
// with an empty transcript and an unfrozen title.
func (s *Session) Start(ctx context.Context) error {
	s.control.Lock()
	defer s.control.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	release := s.detachLocked()
	s.resetLocked()
	s.lastErr = nil
	s.gen++
	gen := s.gen
	s.mu.Unlock()
	release()

	rec := s.newRecognizer()
	rctx, cancel := context.WithCancel(ctx)
	events, err := rec.Start(rctx)
	if err != nil {
		cancel()
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.rec = rec
	s.cancel = cancel
	s.state = Listening
	s.done = make(chan struct{})
	s.armTimerLocked(gen)
	s.mu.Unlock()

	s.wg.Add(1)
	go s.pump(rctx, gen, events)

	s.log.Debug("listening", slog.Uint64("run", gen))
	return nil
}

// Stop ends the current run, if any. The transcript is kept.
func (s *Session) Stop() {
	s.control.Lock()
	defer s.control.Unlock()

	s.mu.Lock()
	release := s.detachLocked()
	s.mu.Unlock()
	release()
}

// Close stops listening and waits for the event goroutine to exit. The
// session cannot be started again.
func (s *Session) Close() {
	s.control.Lock()
	s.mu.Lock()
	s.closed = true
	release := s.detachLocked()
	s.mu.Unlock()
	release()
	s.control.Unlock()

	// control is released first: an OnChange still running on the event
	// goroutine may call Stop.
	s.wg.Wait()
}

// Done is closed when the current run returns to Idle.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// SetTitle overrides the title. It no longer follows the transcript until Reset.
func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	s.title = title
	s.frozen = true
	s.mu.Unlock()
}

// Reset clears the transcript and title and unfreezes the title.
func (s *Session) Reset() {
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) State() State { return s.Snapshot().State }

func (s *Session) Transcript() string { return s.Snapshot().Transcript }

func (s *Session) Title() string { return s.Snapshot().Title }

func (s *Session) pump(ctx context.Context, gen uint64, events <-chan Event) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				s.handle(gen, Event{Kind: EventEnd})
				return
			}
			s.handle(gen, ev)
		}
	}
}

func (s *Session) handle(gen uint64, ev Event) {
	s.mu.Lock()
	if gen != s.gen || s.state != Listening {
		s.mu.Unlock()
		return
	}

	release := func() {}
	switch ev.Kind {
	case EventResult:
		text := strings.TrimSpace(ev.Text)
		if ev.Final {
			if text != "" {
				s.finals = append(s.finals, text)
			}
			s.interim = ""
		} else {
			s.interim = text
		}
		if !s.frozen {
			s.title = GenerateTitle(s.transcriptLocked())
		}
		s.armTimerLocked(gen)
	case EventSpeechEnd:
		s.armTimerLocked(gen)
	case EventError:
		s.lastErr = ev.Err
		s.log.Warn("recognition error", logger.Err(ev.Err))
		release = s.detachLocked()
	case EventEnd:
		release = s.detachLocked()
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	release()
	if s.onChange != nil {
		s.onChange(snap)
	}
}

func (s *Session) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state != Listening {
		s.mu.Unlock()
		return
	}
	s.log.Debug("silence timeout", slog.Uint64("run", gen))
	release := s.detachLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	release()
	if s.onChange != nil {
		s.onChange(snap)
	}
}

func (s *Session) armTimerLocked(gen uint64) {
	if s.silence < 0 {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.silence, func() { s.expire(gen) })
}

// detachLocked moves the session to Idle and returns a func that stops the
// detached recognizer. Call it after releasing mu.
func (s *Session) detachLocked() func() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.state == Listening {
		close(s.done)
	}
	s.state = Idle

	rec, cancel := s.rec, s.cancel
	s.rec, s.cancel = nil, nil
	return func() {
		if cancel != nil {
			cancel()
		}
		if rec != nil {
			rec.Stop()
		}
	}
}

func (s *Session) resetLocked() {
	s.finals = nil
	s.interim = ""
	s.title = ""
	s.frozen = false
}

func (s *Session) transcriptLocked() string {
	t := strings.Join(s.finals, " ")
	if s.interim != "" {
		if t != "" {
			t += " "
		}
		t += s.interim
	}
	return t
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:       s.state,
		Transcript:  s.transcriptLocked(),
		Title:       s.title,
		TitleFrozen: s.frozen,
		Err:         s.lastErr,
	}
}
