package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/chunga/ict-nodeops/kernel/connector"
	"github.com/chunga/ict-nodeops/kernel/ec2"
	"github.com/chunga/ict-nodeops/kernel/metrics"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultRetryInterval = 10 * time.Second
	DefaultMaxRetries    = 60
)

// Controller owns the lifecycle of exactly one cloud instance: it provisions
// the instance from its image, polls until the provider reports it running,
// hands the public address to the downstream connector, and terminates the
// instance after disconnect.
//
// A Controller is not safe for concurrent use; the hosting scheduler must
// invoke Launch and AfterDisconnect serially.
type Controller struct {
	nodeId        string
	client        ec2.Client
	desc          ec2.Descriptor
	connector     connector.Connector
	retryInterval time.Duration
	maxRetries    int
	observer      metrics.Observer

	// session state, never persisted
	instanceId  string
	address     string
	preLaunchOk bool
	launcher    connector.Launcher
}

// NewController binds a controller to a fixed descriptor and connector. The
// descriptor fields are immutable for the controller's lifetime; configuration
// edits take effect only through constructing a new controller.
func NewController(nodeId string, client ec2.Client, desc ec2.Descriptor, conn connector.Connector) *Controller {
	return &Controller{
		nodeId:        nodeId,
		client:        client,
		desc:          desc,
		connector:     conn,
		retryInterval: DefaultRetryInterval,
		maxRetries:    DefaultMaxRetries,
		observer:      metrics.Nop(),
	}
}

// WithRetry overrides the poll tunables.
func (c *Controller) WithRetry(interval time.Duration, maxRetries int) *Controller {
	if interval > 0 {
		c.retryInterval = interval
	}
	if maxRetries > 0 {
		c.maxRetries = maxRetries
	}
	return c
}

// WithObserver attaches a provisioning telemetry observer.
func (c *Controller) WithObserver(observer metrics.Observer) *Controller {
	c.observer = observer
	return c
}

func (c *Controller) Describe() string {
	return fmt.Sprintf("instance lifecycle controller for node [%s], image [%s]", c.nodeId, c.desc.ImageId)
}

// InstanceId returns the held instance identifier, empty before launch.
func (c *Controller) InstanceId() string {
	return c.instanceId
}

// Address returns the public address resolved at the last successful handoff,
// empty before that.
func (c *Controller) Address() string {
	return c.address
}

// IsLaunchSupported answers the hosting scheduler's spin-up question. Before
// cloud-side provisioning has ever succeeded it always answers true, so the
// scheduler treats the node as auto-launchable. Once an instance exists the
// answer comes from the downstream launcher; without that delegation the
// scheduler would see a perpetually launchable node and re-provision endlessly.
func (c *Controller) IsLaunchSupported() bool {
	if c.preLaunchOk && c.launcher != nil {
		supported := c.launcher.IsLaunchSupported()
		logrus.Debugf("instance for node [%s] is up, downstream launcher answers launch-supported=%v", c.nodeId, supported)
		return supported
	}
	return true
}

// InstanceIsRunning reports whether an instance identifier is held and its
// live state is running.
func (c *Controller) InstanceIsRunning() bool {
	if c.instanceId == "" {
		return false
	}
	state, err := c.client.DescribeState(c.instanceId)
	if err != nil {
		logrus.Warnf("unable to query state of instance [%s]: %v", c.instanceId, err)
		return false
	}
	return state == ec2.StateRunning
}

// Launch drives the provisioning state machine and, once the instance is
// reachable, delegates the remote launch to the downstream launcher. Every
// failure is written to the progress sink before being returned; handoff never
// proceeds after a failure.
func (c *Controller) Launch(ctx context.Context, target connector.Target, progress connector.Progress) error {
	state := ec2.StateAbsent
	if c.instanceId != "" {
		var err error
		if state, err = c.client.DescribeState(c.instanceId); err != nil {
			progress.Printf("%v", err)
			return err
		}
	}

	switch state {
	case ec2.StatePending:
		// launched previously and still in flight. The identifier is kept; a
		// later launch re-evaluates the state and either skips provisioning or
		// re-provisions.
		err := &UnexpectedStateError{InstanceId: c.instanceId, State: state}
		progress.Printf("%v", err)
		return err

	case ec2.StateAbsent, ec2.StateTerminated, ec2.StateShuttingDown, ec2.StateStopped, ec2.StateStopping:
		if err := c.provisionAndAwaitReady(ctx, progress); err != nil {
			progress.Printf("%v", err)
			return err
		}
		c.preLaunchOk = true

	default:
		logrus.Infof("instance [%s] for node [%s] is already running, skipping provisioning", c.instanceId, c.nodeId)
	}

	address, err := c.client.DescribePublicAddress(c.instanceId)
	if err != nil {
		progress.Printf("%v", err)
		return err
	}
	if address == "" {
		err := errors.Errorf("instance [%s] is running but has no public address yet", c.instanceId)
		progress.Printf("%v", err)
		return err
	}

	c.address = address

	logrus.Infof("instance [%s] is ready to serve node [%s], passing control to the downstream launcher", c.instanceId, c.nodeId)
	launcher, err := c.connector.Connect(address, progress)
	if err != nil {
		progress.Printf("%v", err)
		return err
	}
	c.launcher = launcher

	return c.launcher.Launch(ctx, target, progress)
}

// provisionAndAwaitReady launches a fresh instance and polls its state until
// the provider reports it running, the bounded retries run out, the state
// diverges, or the context is cancelled. Cancellation unwinds as the context's
// error, distinct from retry exhaustion.
func (c *Controller) provisionAndAwaitReady(ctx context.Context, progress connector.Progress) (err error) {
	progress.Printf("creating new instance from image [%s]...", c.desc.ImageId)

	c.observer.ProvisionStarted(c.nodeId)
	start := time.Now()
	defer func() {
		c.observer.ProvisionFinished(c.nodeId, c.instanceId, time.Since(start), err)
	}()

	instanceId, err := c.client.Launch(c.desc)
	if err != nil {
		return err
	}
	c.instanceId = instanceId

	for retries := 1; retries <= c.maxRetries; retries++ {
		progress.Printf("checking state of instance [%s]...", c.instanceId)

		state, err := c.client.DescribeState(c.instanceId)
		if err != nil {
			return err
		}
		progress.Printf("state of instance [%s] is [%s]", c.instanceId, state)

		switch state {
		case ec2.StateRunning:
			progress.Printf("instance [%s] is running, proceeding to launch node [%s]", c.instanceId, c.nodeId)
			return nil

		case ec2.StatePending:
			progress.Printf("instance [%s] is pending, waiting [%s] before retrying", c.instanceId, c.retryInterval)
			if err := c.sleep(ctx); err != nil {
				return err
			}

		default:
			return &UnexpectedStateError{InstanceId: c.instanceId, State: state}
		}
	}

	return &RetryExhaustedError{InstanceId: c.instanceId, MaxRetries: c.maxRetries}
}

func (c *Controller) sleep(ctx context.Context) error {
	timer := time.NewTimer(c.retryInterval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AfterDisconnect runs the downstream launcher's disconnect hook, then
// terminates the held instance and returns the controller to its initial
// state. Termination is best effort: a failure is reported but does not keep
// the session state alive, otherwise a later launch could adopt a half-dead
// instance.
func (c *Controller) AfterDisconnect(target connector.Target, progress connector.Progress) error {
	if c.launcher != nil {
		if err := c.launcher.AfterDisconnect(target, progress); err != nil {
			logrus.Warnf("downstream launcher disconnect hook failed for node [%s]: %v", c.nodeId, err)
		}
	}

	if c.instanceId != "" {
		progress.Printf("terminating instance [%s]...", c.instanceId)
		if err := c.client.Terminate(c.instanceId); err != nil {
			progress.Printf("%v", err)
			logrus.Warnf("unable to terminate instance [%s]: %v", c.instanceId, err)
		} else {
			c.observer.InstanceTerminated(c.nodeId, c.instanceId)
		}
	}

	c.instanceId = ""
	c.address = ""
	c.preLaunchOk = false
	c.launcher = nil
	return nil
}
