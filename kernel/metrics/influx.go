package metrics

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/sirupsen/logrus"
)

// InfluxConfig enables the optional provisioning telemetry reporter.
type InfluxConfig struct {
	Url    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

func (c InfluxConfig) Enabled() bool {
	return c.Url != ""
}

type influxObserver struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
	starts map[string]time.Time
}

// NewInfluxObserver reports provisioning timings to an InfluxDB v2 bucket.
// Write failures are logged and otherwise ignored; telemetry never fails a
// launch.
func NewInfluxObserver(cfg InfluxConfig) Observer {
	client := influxdb2.NewClient(cfg.Url, cfg.Token)
	return &influxObserver{
		client: client,
		write:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		starts: make(map[string]time.Time),
	}
}

func (o *influxObserver) ProvisionStarted(nodeId string) {
	o.starts[nodeId] = time.Now()
}

func (o *influxObserver) ProvisionFinished(nodeId, instanceId string, elapsed time.Duration, err error) {
	delete(o.starts, nodeId)
	point := influxdb2.NewPointWithMeasurement("provision").
		AddTag("node", nodeId).
		AddField("instance_id", instanceId).
		AddField("duration_ms", elapsed.Milliseconds()).
		AddField("success", err == nil).
		SetTime(time.Now())
	if writeErr := o.write.WritePoint(context.Background(), point); writeErr != nil {
		logrus.Warnf("unable to write provision point: %v", writeErr)
	}
}

func (o *influxObserver) InstanceTerminated(nodeId, instanceId string) {
	point := influxdb2.NewPointWithMeasurement("terminate").
		AddTag("node", nodeId).
		AddField("instance_id", instanceId).
		SetTime(time.Now())
	if err := o.write.WritePoint(context.Background(), point); err != nil {
		logrus.Warnf("unable to write terminate point: %v", err)
	}
}
