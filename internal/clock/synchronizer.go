package clock

import (
	"fmt"
	"sort"
	"sync"

	"github.com/danmuck/simwire/internal/identity"
	"github.com/danmuck/simwire/internal/observability"
	"github.com/rs/zerolog/log"
)

// Config is the correction policy shared by every peer of a Synchronizer.
type Config struct {
	Jump uint32
	// Gain enables smoothed correction when non-zero.
	Gain float64
}

func (c Config) options() []Option {
	if c.Gain == 0 {
		return nil
	}
	return []Option{WithGain(c.Gain)}
}

// Synchronizer holds one PeerClock per peer node.
type Synchronizer struct {
	mu    sync.Mutex
	cfg   Config
	peers map[identity.Identity]*PeerClock
}

func NewSynchronizer(cfg Config) (*Synchronizer, error) {
	// Fail on a bad policy now rather than on the first report.
	if _, err := NewPeerClock(cfg.Jump, cfg.options()...); err != nil {
		return nil, err
	}
	return &Synchronizer{
		cfg:   cfg,
		peers: make(map[identity.Identity]*PeerClock),
	}, nil
}

// Observe applies one peer tick report. The first report from a peer
// creates its clock with a zero offset.
func (s *Synchronizer) Observe(peer identity.Identity, reported, local Tick, resync bool) (Correction, error) {
	if err := identity.Require(peer, "clock peer"); err != nil {
		return Correction{}, err
	}

	s.mu.Lock()
	pc, ok := s.peers[peer]
	if !ok {
		var err error
		pc, err = NewPeerClock(s.cfg.Jump, s.cfg.options()...)
		if err != nil {
			s.mu.Unlock()
			return Correction{}, err
		}
		s.peers[peer] = pc
	}
	c := pc.AdjustDelta(reported, local, resync)
	offset := pc.Offset()
	s.mu.Unlock()

	observability.RecordClockCorrection(c.Mode.String(), c.Delta)
	if c.Mode == ModeBounded || c.Mode == ModeSmoothed {
		log.Debug().Msgf("clock.Observe peer=%s mode=%s delta=%d step=%d remaining=%d offset=%d",
			peer, c.Mode, c.Delta, c.Step, c.Remaining, offset)
	}
	return c, nil
}

// Corrected maps local onto peer's timeline. ok is false for unknown peers.
func (s *Synchronizer) Corrected(peer identity.Identity, local Tick) (Tick, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pc, ok := s.peers[peer]
	if !ok {
		return local, false
	}
	return pc.Corrected(local), true
}

// Offset returns the current offset for peer.
func (s *Synchronizer) Offset(peer identity.Identity) (int32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pc, ok := s.peers[peer]
	if !ok {
		return 0, false
	}
	return pc.Offset(), true
}

func (s *Synchronizer) Forget(peer identity.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, peer)
}

// Peers lists known peers in identity order.
func (s *Synchronizer) Peers() []identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]identity.Identity, 0, len(s.peers))
	for id := range s.peers {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func (s *Synchronizer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("clock.Synchronizer{peers=%d jump=%d gain=%v}", len(s.peers), s.cfg.Jump, s.cfg.Gain)
}
