package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/relabs-tech/gestion/core"
	"github.com/relabs-tech/gestion/core/logger"
)

// messageSender is the part of the sqs client used by SQS
type messageSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQS publishes notifications to an AWS SQS queue. Resource and operation are
// passed as message attributes.
type SQS struct {
	client   messageSender
	queueURL string
}

// NewSQS returns a notifier sending to config.SQSQueueURL. Without an access id
// the default credential chain is used.
func NewSQS(ctx context.Context, cfg Configuration) (*SQS, error) {
	options := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if len(cfg.AccessID) > 0 {
		options = append(options, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessID, cfg.AccessKey, "")))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("cannot load aws configuration: %w", err)
	}
	logger.Default().Debugln("sqs notifications enabled:", cfg.SQSQueueURL)
	return &SQS{client: sqs.NewFromConfig(awsConfig), queueURL: cfg.SQSQueueURL}, nil
}

// Notify implements core.Notifier
func (s *SQS) Notify(ctx context.Context, resource string, operation core.Operation, payload []byte) error {
	_, err := s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"resource":  {DataType: aws.String("String"), StringValue: aws.String(resource)},
			"operation": {DataType: aws.String("String"), StringValue: aws.String(string(operation))},
		},
	})
	return err
}

// Close implements Notifier
func (s *SQS) Close() error {
	return nil
}
