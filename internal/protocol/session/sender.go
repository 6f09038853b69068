package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/simwire/internal/lifecycle"
	"github.com/danmuck/simwire/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownMessage    = errors.New("session: unknown message id")
	ErrAttemptsExhausted = errors.New("session: redelivery attempts exhausted")
)

// Sender writes lifecycle frames to w and keeps each one pending until
// Ack. Redeliver resends due frames with frame.FlagRedelive set.
type Sender struct {
	mu     sync.Mutex
	w      io.Writer
	cfg    Config
	rng    *rand.Rand
	nextID uint64
	auth   []byte
	outbox *Outbox
}

func NewSender(w io.Writer, cfg Config) *Sender {
	return &Sender{
		w:      w,
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		outbox: NewOutbox(),
	}
}

// SetRand replaces the jitter source, for deterministic schedules.
func (s *Sender) SetRand(rng *rand.Rand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rng
}

// SetAuth attaches token as the auth block of every frame sent after the
// call. Frames already pending keep the block they were sent with.
func (s *Sender) SetAuth(token []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = append([]byte(nil), token...)
}

func (s *Sender) SendUpdate(u lifecycle.ChannelEndUpdate, now time.Time) (uint64, error) {
	return s.send(now, describe(func(w io.Writer) error { return lifecycle.FprintUpdate(w, u) }), func(id uint64) ([]byte, error) {
		return lifecycle.EncodeUpdateFrame(id, 0, u)
	})
}

func (s *Sender) SendNotification(n lifecycle.ChannelChangeNotification, now time.Time) (uint64, error) {
	return s.send(now, describe(func(w io.Writer) error { return lifecycle.FprintNotification(w, n) }), func(id uint64) ([]byte, error) {
		return lifecycle.EncodeNotificationFrame(id, 0, n)
	})
}

func (s *Sender) send(now time.Time, summary string, encode func(uint64) ([]byte, error)) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID + 1
	raw, err := encode(id)
	if err != nil {
		return 0, err
	}
	if len(s.auth) > 0 {
		if raw, err = rewrite(raw, func(f *frame.Frame) { f.Auth = s.auth }); err != nil {
			return 0, err
		}
	}
	s.nextID = id
	s.outbox.Upsert(Pending{MessageID: id, Describe: summary, Frame: raw, QueuedAt: now})

	_, werr := s.w.Write(raw)
	s.markAttempt(id, now, werr)
	if werr != nil {
		log.Warn().Msgf("session.Send id=%d err=%v", id, werr)
		return id, werr
	}
	log.Debug().Msgf("session.Send id=%d %s", id, summary)
	return id, nil
}

// Ack drops a frame from the outbox.
func (s *Sender) Ack(id uint64) error {
	if !s.outbox.Remove(id) {
		return fmt.Errorf("%w: %d", ErrUnknownMessage, id)
	}
	return nil
}

// Redeliver resends every due frame and returns how many were written.
// Frames that reach MaxAttempts are dropped from the outbox and reported
// through ErrAttemptsExhausted after the remaining frames are sent.
func (s *Sender) Redeliver(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sent := 0
	var exhausted []uint64
	for _, item := range s.outbox.Due(now) {
		if s.cfg.MaxAttempts > 0 && item.Attempts >= s.cfg.MaxAttempts {
			s.outbox.Remove(item.MessageID)
			exhausted = append(exhausted, item.MessageID)
			log.Warn().Msgf("session.Redeliver id=%d attempts=%d exhausted last_err=%q", item.MessageID, item.Attempts, item.LastError)
			continue
		}
		raw, err := rewrite(item.Frame, func(f *frame.Frame) { f.Header.Flags |= frame.FlagRedelive })
		if err != nil {
			return sent, err
		}
		_, werr := s.w.Write(raw)
		s.markAttempt(item.MessageID, now, werr)
		if werr != nil {
			return sent, werr
		}
		sent++
		log.Debug().Msgf("session.Redeliver id=%d attempt=%d %s", item.MessageID, item.Attempts+1, item.Describe)
	}
	if len(exhausted) > 0 {
		return sent, fmt.Errorf("%w: %v", ErrAttemptsExhausted, exhausted)
	}
	return sent, nil
}

// Pending lists unacknowledged frames ordered by message id.
func (s *Sender) Pending() []Pending {
	return s.outbox.List()
}

func (s *Sender) markAttempt(id uint64, now time.Time, err error) {
	item, ok := s.outbox.Get(id)
	if !ok {
		return
	}
	next := now.Add(NextBackoffDelay(s.cfg.Backoff, item.Attempts+1, s.rng))
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	s.outbox.MarkAttempt(id, now, next, msg)
}

func describe(fprint func(io.Writer) error) string {
	var b strings.Builder
	_ = fprint(&b)
	return strings.TrimSuffix(b.String(), "\n")
}

func rewrite(raw []byte, edit func(*frame.Frame)) ([]byte, error) {
	f, err := frame.ReadFrame(bytes.NewReader(raw), frame.DefaultLimits())
	if err != nil {
		return nil, err
	}
	edit(&f)
	var buf bytes.Buffer
	if err := frame.WriteFrame(&buf, f, frame.DefaultLimits()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
