package notifier

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
)

const charset = "UTF-8"

type sesClient interface {
	SendEmailWithContext(aws.Context, *ses.SendEmailInput, ...request.Option) (*ses.SendEmailOutput, error)
}

// sends via Amazon SES. sender address (or its domain) must be verified in SES
type SES struct {
	ses sesClient
}

var _ Transport = (*SES)(nil)

func NewSES(region string) (*SES, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, err
	}

	return &SES{ses.New(sess)}, nil
}

func (s *SES) Send(ctx context.Context, msg Message) error {
	_, err := s.ses.SendEmailWithContext(ctx, &ses.SendEmailInput{
		Source: aws.String(msg.From),
		Destination: &ses.Destination{
			ToAddresses: aws.StringSlice(msg.To),
		},
		Message: &ses.Message{
			Subject: &ses.Content{
				Charset: aws.String(charset),
				Data:    aws.String(msg.Subject),
			},
			Body: &ses.Body{
				Text: &ses.Content{
					Charset: aws.String(charset),
					Data:    aws.String(msg.Body),
				},
			},
		},
	})
	return err
}
