package connector

import "context"

// Target is the logical agent node a Launcher attaches the remote agent to.
type Target struct {
	NodeId    string
	RemoteDir string
}

// Launcher is the capability shared by the lifecycle controller and the
// downstream connection handlers it delegates to: the hosting scheduler can
// treat both uniformly.
type Launcher interface {
	// Launch starts the remote agent on the target. The context cancels any
	// blocking wait.
	Launch(ctx context.Context, target Target, progress Progress) error

	// AfterDisconnect runs cleanup after the agent connection has gone away.
	AfterDisconnect(target Target, progress Progress) error

	// IsLaunchSupported reports whether the hosting scheduler may spin this
	// launcher up on demand.
	IsLaunchSupported() bool

	// Describe returns a short human-readable description of the launcher.
	Describe() string
}

// Connector produces a Launcher bound to a resolved public address. It is the
// handoff point between instance readiness and the remote-connection mechanism.
type Connector interface {
	Connect(address string, progress Progress) (Launcher, error)
}
