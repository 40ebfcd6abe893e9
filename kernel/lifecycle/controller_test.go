package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chunga/ict-nodeops/kernel/connector"
	"github.com/chunga/ict-nodeops/kernel/ec2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ connector.Launcher = (*Controller)(nil)

type fakeLauncher struct {
	launchCalls     int
	disconnectCalls int
	supported       bool
	disconnectErr   error
}

func (l *fakeLauncher) Launch(ctx context.Context, target connector.Target, progress connector.Progress) error {
	l.launchCalls++
	return nil
}

func (l *fakeLauncher) AfterDisconnect(target connector.Target, progress connector.Progress) error {
	l.disconnectCalls++
	return l.disconnectErr
}

func (l *fakeLauncher) IsLaunchSupported() bool {
	return l.supported
}

func (l *fakeLauncher) Describe() string {
	return "fake launcher"
}

type fakeConnector struct {
	launcher     *fakeLauncher
	connectCalls int
	addresses    []string
}

func (c *fakeConnector) Connect(address string, progress connector.Progress) (connector.Launcher, error) {
	c.connectCalls++
	c.addresses = append(c.addresses, address)
	return c.launcher, nil
}

func newTestController(states ...ec2.InstanceState) (*Controller, *ec2.FakeClient, *fakeConnector) {
	fake := &ec2.FakeClient{Address: "ec2-1-2-3-4.compute.amazonaws.com"}
	fake.SetStates(states...)
	conn := &fakeConnector{launcher: &fakeLauncher{supported: true}}
	desc := ec2.Descriptor{
		ImageId:      "ami-0a1b2c3d",
		InstanceType: "t3.micro",
		KeypairName:  "test-keypair",
	}
	controller := NewController("test-node", fake, desc, conn).WithRetry(time.Millisecond, 5)
	return controller, fake, conn
}

func launchArgs() (context.Context, connector.Target, connector.Progress, *bytes.Buffer) {
	log := &bytes.Buffer{}
	return context.Background(), connector.Target{NodeId: "test-node", RemoteDir: "/opt/nodeops"}, connector.NewWriterProgress(log), log
}

func TestLaunchProvisionsBeforeHandoff(t *testing.T) {
	controller, fake, conn := newTestController(ec2.StatePending, ec2.StatePending, ec2.StateRunning)

	ctx, target, progress, log := launchArgs()
	require.NoError(t, controller.Launch(ctx, target, progress))

	assert.Equal(t, 1, fake.LaunchCalls)
	assert.Equal(t, 3, fake.DescribeCalls, "two pending polls then running")
	require.Equal(t, 1, conn.connectCalls)
	assert.Equal(t, "ec2-1-2-3-4.compute.amazonaws.com", conn.addresses[0])
	assert.Equal(t, 1, conn.launcher.launchCalls)
	assert.Equal(t, "i-000001", controller.InstanceId())
	assert.Contains(t, log.String(), "creating new instance from image [ami-0a1b2c3d]")
}

func TestLaunchFailsAfterRetryExhaustion(t *testing.T) {
	controller, fake, conn := newTestController(ec2.StatePending)

	ctx, target, progress, _ := launchArgs()
	err := controller.Launch(ctx, target, progress)

	retryErr := &RetryExhaustedError{}
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, 5, retryErr.MaxRetries)
	assert.Equal(t, 0, conn.connectCalls, "no handoff after failure")
	// the instance is left to run its own course
	assert.Equal(t, 0, fake.TerminateCalls)
	assert.Equal(t, "i-000001", controller.InstanceId())
}

func TestLaunchFailsOnUnexpectedState(t *testing.T) {
	controller, fake, conn := newTestController(ec2.StateTerminated)

	ctx, target, progress, _ := launchArgs()
	err := controller.Launch(ctx, target, progress)

	stateErr := &UnexpectedStateError{}
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, ec2.StateTerminated, stateErr.State)
	assert.Equal(t, 1, fake.DescribeCalls, "polling stops on first divergent state")
	assert.Equal(t, 0, conn.connectCalls)
}

func TestLaunchSkipsProvisioningWhenAlreadyRunning(t *testing.T) {
	controller, fake, conn := newTestController(ec2.StateRunning)

	ctx, target, progress, _ := launchArgs()
	require.NoError(t, controller.Launch(ctx, target, progress))
	require.Equal(t, 1, fake.LaunchCalls)

	// second launch finds the held instance running and goes straight to handoff
	require.NoError(t, controller.Launch(ctx, target, progress))
	assert.Equal(t, 1, fake.LaunchCalls, "no second provisioning")
	assert.Equal(t, 2, conn.connectCalls)
}

func TestLaunchAbortsWhenHeldInstancePending(t *testing.T) {
	controller, fake, conn := newTestController(ec2.StateRunning)

	ctx, target, progress, _ := launchArgs()
	require.NoError(t, controller.Launch(ctx, target, progress))

	fake.SetStates(ec2.StatePending)
	err := controller.Launch(ctx, target, progress)

	stateErr := &UnexpectedStateError{}
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, ec2.StatePending, stateErr.State)
	assert.Contains(t, err.Error(), "unclear how to proceed")
	assert.Equal(t, "i-000001", controller.InstanceId(), "identifier is preserved")
	assert.Equal(t, 1, fake.LaunchCalls)
	assert.Equal(t, 1, conn.connectCalls, "no handoff for this attempt")
}

func TestRelaunchAfterExternalTermination(t *testing.T) {
	controller, fake, _ := newTestController(ec2.StateRunning)

	ctx, target, progress, _ := launchArgs()
	require.NoError(t, controller.Launch(ctx, target, progress))
	first := controller.InstanceId()

	// instance terminated externally: the next launch provisions a fresh one
	fake.SetStates(ec2.StateTerminated, ec2.StatePending, ec2.StateRunning)
	require.NoError(t, controller.Launch(ctx, target, progress))

	assert.Equal(t, 2, fake.LaunchCalls)
	assert.NotEqual(t, first, controller.InstanceId())
}

func TestLaunchReportsProviderFailure(t *testing.T) {
	controller, fake, conn := newTestController(ec2.StatePending)
	fake.LaunchErr = &ec2.ProviderError{Op: "run-instances", Err: assert.AnError}

	ctx, target, progress, log := launchArgs()
	err := controller.Launch(ctx, target, progress)

	providerErr := &ec2.ProviderError{}
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, "", controller.InstanceId())
	assert.Equal(t, 0, conn.connectCalls)
	assert.Contains(t, log.String(), "run-instances")
}

func TestLaunchInterruptedDuringPoll(t *testing.T) {
	controller, _, conn := newTestController(ec2.StatePending)
	controller.WithRetry(time.Minute, 5)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, target, progress, _ := launchArgs()
	err := controller.Launch(ctx, target, progress)

	require.ErrorIs(t, err, context.Canceled, "cancellation must not look like exhaustion")
	var retryErr *RetryExhaustedError
	assert.False(t, errors.As(err, &retryErr))
	assert.Equal(t, 0, conn.connectCalls)
}

func TestLaunchFailsWithoutPublicAddress(t *testing.T) {
	controller, fake, conn := newTestController(ec2.StateRunning)
	fake.Address = ""

	ctx, target, progress, _ := launchArgs()
	err := controller.Launch(ctx, target, progress)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no public address")
	assert.Equal(t, 0, conn.connectCalls)
}

func TestIsLaunchSupportedDelegation(t *testing.T) {
	controller, _, conn := newTestController(ec2.StateRunning)
	conn.launcher.supported = false

	assert.True(t, controller.IsLaunchSupported(), "auto-launchable before provisioning")

	ctx, target, progress, _ := launchArgs()
	require.NoError(t, controller.Launch(ctx, target, progress))

	assert.False(t, controller.IsLaunchSupported(), "downstream launcher answers once provisioned")

	conn.launcher.supported = true
	assert.True(t, controller.IsLaunchSupported())
}

func TestAfterDisconnectTerminatesAndClears(t *testing.T) {
	controller, fake, conn := newTestController(ec2.StateRunning)

	ctx, target, progress, _ := launchArgs()
	require.NoError(t, controller.Launch(ctx, target, progress))
	instanceId := controller.InstanceId()

	require.NoError(t, controller.AfterDisconnect(target, progress))

	assert.Equal(t, 1, conn.launcher.disconnectCalls)
	assert.Equal(t, 1, fake.TerminateCalls)
	assert.Equal(t, []string{instanceId}, fake.TerminatedIds)
	assert.Equal(t, "", controller.InstanceId())
	assert.True(t, controller.IsLaunchSupported(), "readiness flag cleared")
}

func TestAfterDisconnectTerminatesDespiteHookFailure(t *testing.T) {
	controller, fake, conn := newTestController(ec2.StateRunning)
	conn.launcher.disconnectErr = assert.AnError

	ctx, target, progress, _ := launchArgs()
	require.NoError(t, controller.Launch(ctx, target, progress))

	require.NoError(t, controller.AfterDisconnect(target, progress))
	assert.Equal(t, 1, fake.TerminateCalls)
	assert.Equal(t, "", controller.InstanceId())
}

func TestAfterDisconnectWithoutInstance(t *testing.T) {
	controller, fake, _ := newTestController()

	_, target, progress, _ := launchArgs()
	require.NoError(t, controller.AfterDisconnect(target, progress))
	assert.Equal(t, 0, fake.TerminateCalls)
}

func TestInstanceIsRunning(t *testing.T) {
	controller, fake, _ := newTestController(ec2.StateRunning)

	assert.False(t, controller.InstanceIsRunning(), "no identifier held")

	ctx, target, progress, _ := launchArgs()
	require.NoError(t, controller.Launch(ctx, target, progress))
	assert.True(t, controller.InstanceIsRunning())

	fake.SetStates(ec2.StateTerminated)
	assert.False(t, controller.InstanceIsRunning())
}
