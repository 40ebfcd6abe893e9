package metrics

import "time"

// Observer receives provisioning lifecycle events. Implementations must be
// cheap; they are called inline from the controller.
type Observer interface {
	ProvisionStarted(nodeId string)
	ProvisionFinished(nodeId, instanceId string, elapsed time.Duration, err error)
	InstanceTerminated(nodeId, instanceId string)
}

type nopObserver struct{}

func (nopObserver) ProvisionStarted(string)                                {}
func (nopObserver) ProvisionFinished(string, string, time.Duration, error) {}
func (nopObserver) InstanceTerminated(string, string)                      {}

// Nop returns an Observer that discards all events.
func Nop() Observer {
	return nopObserver{}
}
