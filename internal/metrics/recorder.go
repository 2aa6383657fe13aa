package metrics

// TickResultLabel enumerates scheduler tick outcomes for counters.
type TickResultLabel string

const (
	TickPaused TickResultLabel = "paused"
	TickNotDue TickResultLabel = "not_due"
	TickEmpty  TickResultLabel = "empty"
	TickFired  TickResultLabel = "fired"
)

// Recorder defines observability hooks for the scheduler and the state store.
// Implementations must be safe for concurrent use.
type Recorder interface {
	IncTick(result TickResultLabel)
	IncFired()
	IncDeliveryFailure()
	IncPersistFailure()
	SetState(dailyCount int64, items int, paused bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncTick(TickResultLabel)    {}
func (NoopRecorder) IncFired()                  {}
func (NoopRecorder) IncDeliveryFailure()        {}
func (NoopRecorder) IncPersistFailure()         {}
func (NoopRecorder) SetState(int64, int, bool) {}
