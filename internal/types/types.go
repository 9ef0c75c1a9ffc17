// Package types holds the plane-tagged data model shared across the kernel:
// task classes, model tiers, plane tags, candidate chunks, selection
// results, batch descriptors, streamed tokens and receipts. The
// pending-request record is kept by internal/orchestrator.
package types

import (
	"time"

	"github.com/google/uuid"
)

// TaskClass is the scheduling class a batch is admitted under.
type TaskClass int

const (
	Interactive TaskClass = iota
	Background
	Maintenance
)

func (c TaskClass) String() string {
	switch c {
	case Interactive:
		return "interactive"
	case Background:
		return "background"
	case Maintenance:
		return "maintenance"
	default:
		return "unknown"
	}
}

// ModelTier is the coarse class of inference backend a router selects.
type ModelTier int

const (
	LocalSmall ModelTier = iota
	LocalLarge
	RemoteHeavy
)

func (t ModelTier) String() string {
	switch t {
	case LocalSmall:
		return "local_small"
	case LocalLarge:
		return "local_large"
	case RemoteHeavy:
		return "remote_heavy"
	default:
		return "unknown"
	}
}

// Plane tags the role a table plays in the spine schema.
type Plane int

const (
	Knowledge Plane = iota
	Context
	Control
	Execution
)

func (p Plane) String() string {
	switch p {
	case Knowledge:
		return "knowledge"
	case Context:
		return "context"
	case Control:
		return "control"
	case Execution:
		return "execution"
	default:
		return "unknown"
	}
}

// CandidateChunk is a borrowed view into a columnar batch: its Text and
// Embedding fields are slices into the backing batch's buffers, which must
// outlive the chunk. See internal/columnar for the zero-copy builder.
type CandidateChunk struct {
	ID        string
	Text      string // may be empty; absence is distinct from ""
	HasText   bool
	Tokens    int32
	Embedding []float32
	Relevance float64
}

// SelectionResult is the ordered output of the context selector. Indices
// index into the candidate slice the selector was given; order is the
// greedy pick order and is semantically meaningful.
type SelectionResult struct {
	Indices     []int
	TotalTokens int
}

// BatchMetadata accompanies an opaque payload handle through the scheduler.
type BatchMetadata struct {
	ID               [16]byte
	Class            TaskClass
	ArrivalMonotonic time.Time
	EstimatedTokens  int
}

// BatchDescriptor is the scheduler's atomic unit: an opaque payload handle
// the scheduler never inspects, plus metadata it dispatches on.
type BatchDescriptor struct {
	Payload  any
	Metadata BatchMetadata
}

// Token is one streamed unit from the inference engine boundary.
type Token struct {
	TokenID int64
	Text    string
}

// NewID generates a fresh 128-bit id using github.com/google/uuid.
func NewID() [16]byte {
	return uuid.New()
}

// FormatID renders a 128-bit id as a canonical hyphenated hex string.
func FormatID(id [16]byte) string {
	return uuid.UUID(id).String()
}

// Receipt is one entry in the tamper-evident audit chain.
type Receipt struct {
	ID             [16]byte
	Timestamp      time.Time
	Action         string
	PolicyDecision string
	CapabilityID   *[16]byte
	InputHash      string // hex of 32 bytes
	OutputHash     string // hex of 32 bytes
	PrevHash       string // hex, empty for the first entry
	ChainHash      string // hex
}
