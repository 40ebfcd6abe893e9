package ec2

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	awsec2 "github.com/aws/aws-sdk-go/service/ec2"
	"github.com/pkg/errors"
)

// Credentials are supplied at construction; there is no storage or rotation
// here, the caller owns them.
type Credentials struct {
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
}

type awsClient struct {
	ec2 *awsec2.EC2
}

// NewClient builds a Client backed by the AWS EC2 API.
func NewClient(creds Credentials) (Client, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(creds.Region),
		Credentials: credentials.NewStaticCredentials(creds.AccessKey, creds.SecretKey, ""),
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to create aws session")
	}
	return &awsClient{ec2: awsec2.New(sess)}, nil
}

func (c *awsClient) Launch(desc Descriptor) (string, error) {
	securityGroup := desc.SecurityGroup
	if securityGroup == "" {
		securityGroup = "default"
	}

	params := &awsec2.RunInstancesInput{
		ImageId:        aws.String(desc.ImageId),
		InstanceType:   aws.String(desc.InstanceType),
		KeyName:        aws.String(desc.KeypairName),
		MinCount:       aws.Int64(1),
		MaxCount:       aws.Int64(1),
		SecurityGroups: []*string{aws.String(securityGroup)},
	}
	if desc.AvailabilityZone != "" {
		params.Placement = &awsec2.Placement{
			AvailabilityZone: aws.String(desc.AvailabilityZone),
		}
	}

	result, err := c.ec2.RunInstances(params)
	if err != nil {
		return "", &ProviderError{Op: "run-instances", Err: err}
	}
	if len(result.Instances) < 1 {
		return "", &ProviderError{Op: "run-instances", Err: errors.New("provider returned no instances")}
	}
	return aws.StringValue(result.Instances[0].InstanceId), nil
}

func (c *awsClient) describeInstance(instanceId string) (*awsec2.Instance, error) {
	result, err := c.ec2.DescribeInstances(&awsec2.DescribeInstancesInput{
		InstanceIds: []*string{aws.String(instanceId)},
	})
	if err != nil {
		return nil, &ProviderError{Op: "describe-instances", Err: err}
	}
	if len(result.Reservations) < 1 || len(result.Reservations[0].Instances) < 1 {
		return nil, &ProviderError{Op: "describe-instances", Err: errors.Errorf("instance [%s] not found", instanceId)}
	}
	return result.Reservations[0].Instances[0], nil
}

func (c *awsClient) DescribeState(instanceId string) (InstanceState, error) {
	instance, err := c.describeInstance(instanceId)
	if err != nil {
		return StateUnknown, err
	}
	switch aws.StringValue(instance.State.Name) {
	case awsec2.InstanceStateNamePending:
		return StatePending, nil
	case awsec2.InstanceStateNameRunning:
		return StateRunning, nil
	case awsec2.InstanceStateNameShuttingDown:
		return StateShuttingDown, nil
	case awsec2.InstanceStateNameTerminated:
		return StateTerminated, nil
	case awsec2.InstanceStateNameStopping:
		return StateStopping, nil
	case awsec2.InstanceStateNameStopped:
		return StateStopped, nil
	}
	return StateUnknown, nil
}

func (c *awsClient) DescribePublicAddress(instanceId string) (string, error) {
	instance, err := c.describeInstance(instanceId)
	if err != nil {
		return "", err
	}
	return aws.StringValue(instance.PublicDnsName), nil
}

func (c *awsClient) Terminate(instanceId string) error {
	_, err := c.ec2.TerminateInstances(&awsec2.TerminateInstancesInput{
		InstanceIds: []*string{aws.String(instanceId)},
	})
	if err != nil {
		return &ProviderError{Op: "terminate-instances", Err: err}
	}
	return nil
}

func (c *awsClient) ListAvailabilityZones() ([]string, error) {
	result, err := c.ec2.DescribeAvailabilityZones(&awsec2.DescribeAvailabilityZonesInput{})
	if err != nil {
		return nil, &ProviderError{Op: "describe-availability-zones", Err: err}
	}
	zones := make([]string, 0, len(result.AvailabilityZones))
	for _, zone := range result.AvailabilityZones {
		zones = append(zones, aws.StringValue(zone.ZoneName))
	}
	return zones, nil
}

func (c *awsClient) ListSecurityGroups() ([]string, error) {
	result, err := c.ec2.DescribeSecurityGroups(&awsec2.DescribeSecurityGroupsInput{})
	if err != nil {
		return nil, &ProviderError{Op: "describe-security-groups", Err: err}
	}
	groups := make([]string, 0, len(result.SecurityGroups))
	for _, group := range result.SecurityGroups {
		groups = append(groups, aws.StringValue(group.GroupName))
	}
	return groups, nil
}

func (c *awsClient) DescribeImage(imageId string) error {
	result, err := c.ec2.DescribeImages(&awsec2.DescribeImagesInput{
		ImageIds: []*string{aws.String(imageId)},
	})
	if err != nil {
		return &ProviderError{Op: "describe-images", Err: err}
	}
	if len(result.Images) < 1 {
		return &ProviderError{Op: "describe-images", Err: errors.Errorf("image [%s] not found", imageId)}
	}
	return nil
}
