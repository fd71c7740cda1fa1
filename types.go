package coroutine

import "github.com/Swind/go-coroutine-registry/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the coroutine package for most use cases.

// Routine is the body of a cooperative task
type Routine = core.Routine

// Instruction tells the host when to resume a suspended routine
type Instruction = core.Instruction

// Handle identifies a started task
type Handle = core.Handle

// Owner is a non-owning identity that tasks can be attached to
type Owner = core.Owner

// TaskData is a read-only snapshot of a live task
type TaskData = core.TaskData

// HistoryRecord describes a task that has left the registry
type HistoryRecord = core.HistoryRecord

// Status is a task's lifecycle state
type Status = core.Status

// Clock is the scaled/real time source
type Clock = core.Clock

// Host drives task bodies
type Host = core.Host

// Status constants
const (
	StatusRunning   Status = core.StatusRunning
	StatusCompleted Status = core.StatusCompleted
	StatusStopped   Status = core.StatusStopped
)

// Instruction constructors
var (
	NextTick        = core.NextTick
	WaitTicks       = core.WaitTicks
	WaitFor         = core.WaitFor
	WaitForRealtime = core.WaitForRealtime
	WaitUntilScaled = core.WaitUntilScaled
	WaitUntil       = core.WaitUntil
	WaitWhile       = core.WaitWhile
	Once            = core.Once
)

// OwnerOf returns the Owner identity of p without keeping p alive.
func OwnerOf[T any](p *T) Owner {
	return core.OwnerOf(p)
}

// OwnerID returns an Owner for a host-level identifier
var OwnerID = core.OwnerID

// Errors
var (
	ErrInvalidArgument = core.ErrInvalidArgument
	ErrHostUnavailable = core.ErrHostUnavailable
	ErrLoopClosed      = core.ErrLoopClosed
	ErrTaskPanicked    = core.ErrTaskPanicked
)
