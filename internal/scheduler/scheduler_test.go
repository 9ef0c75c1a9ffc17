package scheduler

import (
	"testing"
	"time"

	"github.com/localmind/agentkernel/internal/types"
)

func descriptor(class types.TaskClass) *types.BatchDescriptor {
	return &types.BatchDescriptor{
		Metadata: types.BatchMetadata{
			ID:               types.NewID(),
			Class:            class,
			ArrivalMonotonic: time.Now(),
		},
	}
}

func TestMaxWeight_InteractiveDispatchedFirst(t *testing.T) {
	s := NewMaxWeight(DefaultWeights())
	for i := 0; i < 50; i++ {
		if err := s.Submit(descriptor(types.Background)); err != nil {
			t.Fatalf("submit background: %v", err)
		}
	}
	if err := s.Submit(descriptor(types.Interactive)); err != nil {
		t.Fatalf("submit interactive: %v", err)
	}
	b, ok := s.Next()
	if !ok {
		t.Fatalf("expected a batch")
	}
	if b.Metadata.Class != types.Interactive {
		t.Fatalf("expected interactive dispatched first, got %v", b.Metadata.Class)
	}
}

func TestMaxWeight_EmptyQueuesReturnsFalse(t *testing.T) {
	s := NewMaxWeight(DefaultWeights())
	_, ok := s.Next()
	if ok {
		t.Fatalf("expected no batch")
	}
}

func TestMaxWeight_FIFOWithinClass(t *testing.T) {
	s := NewMaxWeight(DefaultWeights())
	first := descriptor(types.Background)
	second := descriptor(types.Background)
	_ = s.Submit(first)
	_ = s.Submit(second)
	got, _ := s.Next()
	if got != first {
		t.Fatalf("expected FIFO order within class")
	}
}

func TestQoS_WIPLimitReached(t *testing.T) {
	s := NewQoS(WIPLimits{Background: 0, Maintenance: 1})
	err := s.Submit(descriptor(types.Background))
	if err == nil {
		t.Fatalf("expected wip_limit_reached")
	}
	if _, ok := err.(*ErrWIPLimitReached); !ok {
		t.Fatalf("expected ErrWIPLimitReached, got %T", err)
	}
	// queue contents unchanged: next still reports nothing for background
	_, ok := s.Next()
	if ok {
		t.Fatalf("expected submit rejection to leave queue empty")
	}
}

func TestQoS_StrictPriorityOrder(t *testing.T) {
	s := NewQoS(WIPLimits{Background: 10, Maintenance: 10})
	_ = s.Submit(descriptor(types.Maintenance))
	_ = s.Submit(descriptor(types.Background))
	_ = s.Submit(descriptor(types.Interactive))
	b, _ := s.Next()
	if b.Metadata.Class != types.Interactive {
		t.Fatalf("expected interactive first, got %v", b.Metadata.Class)
	}
	b, _ = s.Next()
	if b.Metadata.Class != types.Background {
		t.Fatalf("expected background second, got %v", b.Metadata.Class)
	}
	b, _ = s.Next()
	if b.Metadata.Class != types.Maintenance {
		t.Fatalf("expected maintenance third, got %v", b.Metadata.Class)
	}
}

func TestQoS_ReleaseOnDispatchAllowsResubmit(t *testing.T) {
	s := NewQoS(WIPLimits{Background: 1, Maintenance: 1})
	if err := s.Submit(descriptor(types.Background)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := s.Submit(descriptor(types.Background)); err == nil {
		t.Fatalf("expected second submit to hit ceiling")
	}
	if _, ok := s.Next(); !ok {
		t.Fatalf("expected dispatch to succeed")
	}
	if err := s.Submit(descriptor(types.Background)); err != nil {
		t.Fatalf("expected submit to succeed after dispatch freed WIP slot: %v", err)
	}
}
