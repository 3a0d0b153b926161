// Package notify publishes change notifications for modified resources to a
// message broker. Kafka and AWS SQS are supported.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/relabs-tech/gestion/core"
)

// DriverType selects the notification broker
type DriverType string

// the supported drivers
const (
	None        DriverType = ""
	DriverKafka DriverType = "kafka"
	DriverSQS   DriverType = "sqs"
)

// Configuration contains the configuration for change notifications
type Configuration struct {
	DriverType DriverType
	// KafkaBrokers is a comma separated list of host:port
	KafkaBrokers string
	KafkaTopic   string
	SQSQueueURL  string
	AWSRegion    string
	AccessID     string
	AccessKey    string
}

// Notifier is a core.Notifier which can be closed
type Notifier interface {
	core.Notifier
	Close() error
}

// New returns the notifier selected by config, or nil for None
func New(ctx context.Context, config Configuration) (Notifier, error) {
	switch config.DriverType {
	case None:
		return nil, nil
	case DriverKafka:
		var brokers []string
		for _, b := range strings.Split(config.KafkaBrokers, ",") {
			if b = strings.TrimSpace(b); len(b) > 0 {
				brokers = append(brokers, b)
			}
		}
		if len(brokers) == 0 || len(config.KafkaTopic) == 0 {
			return nil, fmt.Errorf("kafka notifications require brokers and a topic")
		}
		return NewKafka(brokers, config.KafkaTopic), nil
	case DriverSQS:
		if len(config.SQSQueueURL) == 0 {
			return nil, fmt.Errorf("sqs notifications require a queue url")
		}
		return NewSQS(ctx, config)
	}
	return nil, fmt.Errorf("unknown notification driver '%s'", config.DriverType)
}
