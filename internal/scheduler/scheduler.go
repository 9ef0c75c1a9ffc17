// Package scheduler implements the class-weighted admission/dispatch
// discipline: three per-class FIFO queues, a MaxWeight dispatch rule, and a
// strict-priority + work-in-progress variant. Queues are guarded by the
// scheduler's own mutex; submit and next are both suspension points but
// never block on anything besides that mutex.
package scheduler

import (
	"sync"

	"github.com/localmind/agentkernel/internal/types"
)

// Weights are the MaxWeight class multipliers. Recommended defaults give
// Interactive overwhelming priority over Background, which in turn
// dominates Maintenance; this is intentional, not a bug, per the Interactive
// latency SLO.
type Weights struct {
	Interactive float64
	Background  float64
	Maintenance float64
}

// DefaultWeights returns the recommended 1000:10:1 ratio between
// Interactive, Background and Maintenance classes.
func DefaultWeights() Weights {
	return Weights{Interactive: 1000, Background: 10, Maintenance: 1}
}

func (w Weights) forClass(c types.TaskClass) float64 {
	switch c {
	case types.Interactive:
		return w.Interactive
	case types.Background:
		return w.Background
	case types.Maintenance:
		return w.Maintenance
	default:
		return 0
	}
}

// Scheduler is the common interface both dispatch disciplines satisfy.
type Scheduler interface {
	// Submit enqueues a batch descriptor onto its class queue.
	Submit(b *types.BatchDescriptor) error
	// Next pops one batch descriptor, or ok=false if every queue is empty.
	// Next never blocks.
	Next() (b *types.BatchDescriptor, ok bool)
}

// classOrder is the tie-break / strict-priority ordering.
var classOrder = [...]types.TaskClass{types.Interactive, types.Background, types.Maintenance}

// MaxWeight is a three-queue scheduler that dispatches the class maximizing
// weight * queue-length on every Next call, breaking ties by class order.
type MaxWeight struct {
	mu       sync.Mutex
	weights  Weights
	queues   map[types.TaskClass][]*types.BatchDescriptor
	announce Announcer // optional, see announce.go
}

// NewMaxWeight constructs a MaxWeight scheduler with the given weights.
func NewMaxWeight(w Weights) *MaxWeight {
	return &MaxWeight{
		weights: w,
		queues:  make(map[types.TaskClass][]*types.BatchDescriptor, 3),
	}
}

// WithAnnouncer attaches a best-effort dispatch announcer; see announce.go.
func (s *MaxWeight) WithAnnouncer(a Announcer) *MaxWeight {
	s.announce = a
	return s
}

func (s *MaxWeight) Submit(b *types.BatchDescriptor) error {
	s.mu.Lock()
	s.queues[b.Metadata.Class] = append(s.queues[b.Metadata.Class], b)
	s.mu.Unlock()
	return nil
}

func (s *MaxWeight) Next() (*types.BatchDescriptor, bool) {
	s.mu.Lock()
	bestClass := -1
	bestScore := 0.0
	for i, c := range classOrder {
		q := s.queues[c]
		if len(q) == 0 {
			continue
		}
		score := s.weights.forClass(c) * float64(len(q))
		if bestClass == -1 || score > bestScore {
			bestScore = score
			bestClass = i
		}
	}
	if bestClass == -1 {
		s.mu.Unlock()
		return nil, false
	}
	c := classOrder[bestClass]
	q := s.queues[c]
	b := q[0]
	s.queues[c] = q[1:]
	s.mu.Unlock()

	if s.announce != nil {
		s.announce.Announce(b)
	}
	return b, true
}
