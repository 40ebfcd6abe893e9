package ec2

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// FakeClient is an in-memory Client for testing. DescribeState walks the
// scripted States sequence, repeating the last entry once the script runs out.
type FakeClient struct {
	mu sync.Mutex

	States   []InstanceState
	stateIdx int

	Address string
	Zones   []string
	Groups  []string
	Images  []string

	LaunchErr    error
	DescribeErr  error
	TerminateErr error

	LaunchCalls    int
	DescribeCalls  int
	TerminateCalls int

	LaunchedIds   []string
	TerminatedIds []string
}

func (f *FakeClient) Launch(desc Descriptor) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.LaunchCalls++
	if f.LaunchErr != nil {
		return "", f.LaunchErr
	}
	id := fmt.Sprintf("i-%06d", f.LaunchCalls)
	f.LaunchedIds = append(f.LaunchedIds, id)
	return id, nil
}

func (f *FakeClient) DescribeState(instanceId string) (InstanceState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.DescribeCalls++
	if f.DescribeErr != nil {
		return StateUnknown, f.DescribeErr
	}
	if len(f.States) == 0 {
		return StateUnknown, &ProviderError{Op: "describe-instances", Err: errors.Errorf("instance [%s] not found", instanceId)}
	}
	state := f.States[f.stateIdx]
	if f.stateIdx < len(f.States)-1 {
		f.stateIdx++
	}
	return state, nil
}

// SetStates replaces the scripted state sequence and rewinds it.
func (f *FakeClient) SetStates(states ...InstanceState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.States = states
	f.stateIdx = 0
}

func (f *FakeClient) DescribePublicAddress(instanceId string) (string, error) {
	return f.Address, nil
}

func (f *FakeClient) Terminate(instanceId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.TerminateCalls++
	if f.TerminateErr != nil {
		return f.TerminateErr
	}
	f.TerminatedIds = append(f.TerminatedIds, instanceId)
	return nil
}

func (f *FakeClient) ListAvailabilityZones() ([]string, error) {
	if f.DescribeErr != nil {
		return nil, f.DescribeErr
	}
	return f.Zones, nil
}

func (f *FakeClient) ListSecurityGroups() ([]string, error) {
	if f.DescribeErr != nil {
		return nil, f.DescribeErr
	}
	return f.Groups, nil
}

func (f *FakeClient) DescribeImage(imageId string) error {
	for _, id := range f.Images {
		if id == imageId {
			return nil
		}
	}
	return &ProviderError{Op: "describe-images", Err: errors.Errorf("image [%s] not found", imageId)}
}
