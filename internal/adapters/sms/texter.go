package sms

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"gatherly/internal/domain"
)

// SNSConfig holds configuration for AWS SNS.
type SNSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// TexterConfig holds configuration for creating a texter.
type TexterConfig struct {
	Provider string
	SNS      SNSConfig
}

// NewTexter creates a texter from config. Provider "sns" uses AWS SNS; "noop" or unknown uses a no-op texter.
func NewTexter(config TexterConfig) (domain.Texter, error) {
	switch config.Provider {
	case "sns":
		awsCfg := aws.Config{
			Region: config.SNS.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(
					config.SNS.AccessKeyID,
					config.SNS.SecretAccessKey,
					"",
				),
			),
		}
		return &snsTexter{client: sns.NewFromConfig(awsCfg)}, nil
	case "noop":
		return &noopTexter{}, nil
	default:
		log.Printf("[TEXTER] Unknown sms provider %q, using noop", config.Provider)
		return &noopTexter{}, nil
	}
}

type snsTexter struct {
	client *sns.Client
}

func (t *snsTexter) Send(ctx context.Context, phone, body string) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(NormalizePhone(phone)),
		Message:     aws.String(body),
	}
	result, err := t.client.Publish(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send sms via SNS: %w", err)
	}
	log.Printf("[TEXTER] SMS sent via SNS. MessageID: %s", aws.ToString(result.MessageId))
	return nil
}

// NormalizePhone strips punctuation and prepends the +1 country code for
// bare 10-digit numbers.
func NormalizePhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if strings.HasPrefix(phone, "+") && len(d) > 10 {
		return "+" + d
	}
	return "+1" + d
}

type noopTexter struct{}

func (n *noopTexter) Send(ctx context.Context, phone, body string) error {
	log.Println("[TEXTER] SMS would be sent (noop)", "to", phone)
	return nil
}
