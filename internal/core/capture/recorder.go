package capture

// Recorder empfängt Messwerte der Pipeline
type Recorder interface {
	SessionFinished(state State)
	LookupCompleted(hit bool)
	TickProcessed()
	AppendFailed()
}

type nopRecorder struct{}

func (nopRecorder) SessionFinished(State) {}
func (nopRecorder) LookupCompleted(bool) {}
func (nopRecorder) TickProcessed() {}
func (nopRecorder) AppendFailed() {}
