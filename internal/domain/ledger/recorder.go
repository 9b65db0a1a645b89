package ledger

type Recorder interface {
	ObserveOperation(operation string, err error)
	ObserveBalanceChange(kind string, amount float64)
}

type noopRecorder struct{}

func (noopRecorder) ObserveOperation(string, error) {}

func (noopRecorder) ObserveBalanceChange(string, float64) {}
