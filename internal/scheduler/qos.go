package scheduler

import (
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/localmind/agentkernel/internal/types"
)

// ErrWIPLimitReached is returned by QoS.Submit when a non-Interactive class
// is already at its work-in-progress ceiling.
type ErrWIPLimitReached struct{ Class types.TaskClass }

func (e *ErrWIPLimitReached) Error() string {
	return fmt.Sprintf("wip_limit_reached: class=%s", e.Class)
}

// WIPLimits caps in-flight batches per non-Interactive class. Ceilings are
// fixed when the QoS scheduler is constructed; zero means the class admits
// no batches at all.
type WIPLimits struct {
	Background  int64
	Maintenance int64
}

// QoS is a strict-priority scheduler (Interactive, then Background, then
// Maintenance) with work-in-progress admission ceilings on the two
// non-interactive classes. Ceilings are enforced with a weighted semaphore
// per class, acquired on Submit and released once the batch is popped by
// Next, rather than a hand-rolled counter — the idiomatic Go primitive for
// bounding concurrent admission (golang.org/x/sync/semaphore).
type QoS struct {
	mu     sync.Mutex
	queues map[types.TaskClass][]*types.BatchDescriptor
	sems   map[types.TaskClass]*semaphore.Weighted
}

// NewQoS constructs a QoS scheduler with the given WIP ceilings.
func NewQoS(limits WIPLimits) *QoS {
	return &QoS{
		queues: make(map[types.TaskClass][]*types.BatchDescriptor, 3),
		sems: map[types.TaskClass]*semaphore.Weighted{
			types.Background:  semaphore.NewWeighted(limits.Background),
			types.Maintenance: semaphore.NewWeighted(limits.Maintenance),
		},
	}
}

func (s *QoS) Submit(b *types.BatchDescriptor) error {
	class := b.Metadata.Class
	if sem, ok := s.sems[class]; ok {
		if !sem.TryAcquire(1) {
			return &ErrWIPLimitReached{Class: class}
		}
	}
	s.mu.Lock()
	s.queues[class] = append(s.queues[class], b)
	s.mu.Unlock()
	return nil
}

func (s *QoS) Next() (*types.BatchDescriptor, bool) {
	s.mu.Lock()
	var picked *types.BatchDescriptor
	var pickedClass types.TaskClass
	for _, c := range classOrder {
		q := s.queues[c]
		if len(q) == 0 {
			continue
		}
		picked = q[0]
		pickedClass = c
		s.queues[c] = q[1:]
		break
	}
	s.mu.Unlock()
	if picked == nil {
		return nil, false
	}
	if sem, ok := s.sems[pickedClass]; ok {
		sem.Release(1)
	}
	return picked, true
}
