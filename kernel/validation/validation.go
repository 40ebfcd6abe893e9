package validation

import (
	"fmt"

	"github.com/chunga/ict-nodeops/kernel/ec2"
	"github.com/openziti/foundation/v2/stringz"
	"golang.org/x/sync/errgroup"
)

// Result is a configuration-time check outcome: success or failure plus a
// human-readable message. These checks live outside the lifecycle state
// machine.
type Result struct {
	Name    string
	Ok      bool
	Message string
}

func ok(name, format string, args ...interface{}) Result {
	return Result{Name: name, Ok: true, Message: fmt.Sprintf(format, args...)}
}

func failed(name string, err error) Result {
	return Result{Name: name, Ok: false, Message: err.Error()}
}

// CheckCredentials verifies the supplied credentials by attempting a zone
// listing.
func CheckCredentials(client ec2.Client) Result {
	zones, err := client.ListAvailabilityZones()
	if err != nil {
		return failed("credentials", err)
	}
	return ok("credentials", "credentials accepted, %d availability zone(s) visible", len(zones))
}

// CheckImage verifies that the image id exists at the provider.
func CheckImage(client ec2.Client, imageId string) Result {
	if err := client.DescribeImage(imageId); err != nil {
		return failed("image", err)
	}
	return ok("image", "image [%s] found", imageId)
}

// CheckAvailabilityZone verifies a configured zone against the provider's
// catalog. An empty zone means provider default and always passes.
func CheckAvailabilityZone(client ec2.Client, zone string) Result {
	if zone == "" {
		return ok("availability-zone", "using provider default placement")
	}
	zones, err := client.ListAvailabilityZones()
	if err != nil {
		return failed("availability-zone", err)
	}
	if !stringz.Contains(zones, zone) {
		return Result{Name: "availability-zone", Ok: false, Message: fmt.Sprintf("availability zone [%s] not found, known zones: %v", zone, zones)}
	}
	return ok("availability-zone", "availability zone [%s] found", zone)
}

// CheckSecurityGroup verifies a configured security group against the
// provider's catalog. An empty group means provider default and always passes.
func CheckSecurityGroup(client ec2.Client, group string) Result {
	if group == "" {
		return ok("security-group", "using default security group")
	}
	groups, err := client.ListSecurityGroups()
	if err != nil {
		return failed("security-group", err)
	}
	if !stringz.Contains(groups, group) {
		return Result{Name: "security-group", Ok: false, Message: fmt.Sprintf("security group [%s] not found", group)}
	}
	return ok("security-group", "security group [%s] found", group)
}

// CheckAll fans the checks for one descriptor out concurrently and returns
// the results in a fixed order.
func CheckAll(client ec2.Client, desc ec2.Descriptor) []Result {
	results := make([]Result, 4)
	group := errgroup.Group{}

	group.Go(func() error {
		results[0] = CheckCredentials(client)
		return nil
	})
	group.Go(func() error {
		results[1] = CheckImage(client, desc.ImageId)
		return nil
	})
	group.Go(func() error {
		results[2] = CheckAvailabilityZone(client, desc.AvailabilityZone)
		return nil
	})
	group.Go(func() error {
		results[3] = CheckSecurityGroup(client, desc.SecurityGroup)
		return nil
	})

	_ = group.Wait()
	return results
}
