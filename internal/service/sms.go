package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"hydromate/internal/config"
)

// SMSSender sends one SMS. Success/failure only; no delivery receipts are
// consumed anywhere in the system.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// SNSClient sends SMS through AWS SNS.
type SNSClient struct {
	client *sns.Client
}

// NewSNSClient builds an SNS client from the configured region and, when
// provided, static credentials (otherwise the default AWS chain applies).
func NewSNSClient(ctx context.Context, cfg *config.Config) (*SNSClient, error) {
	if cfg.AWSRegion == "" {
		return nil, fmt.Errorf("missing AWS region for SMS")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for SNS: %w", err)
	}

	return &SNSClient{client: sns.NewFromConfig(awsCfg)}, nil
}

// Send publishes one transactional SMS directly to a phone number.
func (c *SNSClient) Send(ctx context.Context, to, body string) error {
	_, err := c.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(body),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}

	log.Printf("[SNS] SMS sent: to=%s", to)
	return nil
}

// NormalizePhone rewrites a stored number into something SNS will accept.
// Numbers already carrying an international prefix pass through unchanged;
// anything else is assumed to belong to the default region: a leading zero
// is dropped and the default prefix is prepended.
func NormalizePhone(number, defaultPrefix string) string {
	number = strings.TrimSpace(number)
	if number == "" {
		return number
	}
	if strings.HasPrefix(number, "+") {
		return number
	}
	number = strings.TrimPrefix(number, "0")
	return defaultPrefix + number
}
