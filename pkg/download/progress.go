package download

// ProgressReporter receives per-task progress and completion events. A
// transfer handed to TaskFinished is terminal and must not be mutated.
//
// TaskProgress may be called at a high rate from worker goroutines;
// implementations are expected to bound their own output rate.
type ProgressReporter interface {
	TaskStarted(t *TransferState)
	TaskProgress(t *TransferState)
	TaskFinished(t *TransferState)
}

// NoopReporter discards all progress events.
type NoopReporter struct{}

var _ ProgressReporter = NoopReporter{}

func (NoopReporter) TaskStarted(*TransferState)  {}
func (NoopReporter) TaskProgress(*TransferState) {}
func (NoopReporter) TaskFinished(*TransferState) {}
