// Package notify sends the best-effort applicant and operator notifications
// issued after the correctness-critical intake steps.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	apperrors "recruit-intake/internal/common/errors"
	"recruit-intake/internal/common/logger"
)

type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// Mailer sends the applicant a confirmation email after acceptance.
type Mailer struct {
	sesClient SESService
	fromEmail string
	logger    logger.Logger
}

func NewMailer(sesClient SESService, fromEmail string, log logger.Logger) *Mailer {
	return &Mailer{
		sesClient: sesClient,
		fromEmail: fromEmail,
		logger:    log.WithFields(map[string]interface{}{"component": "mailer"}),
	}
}

// SendConfirmation emails the applicant that their application was recorded.
func (m *Mailer) SendConfirmation(ctx context.Context, to, name, team string) error {
	subject := fmt.Sprintf("Your %s team application has been received", team)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour application for the %s team has been recorded. We will reach out with next steps soon.\n",
		name, team,
	)

	_, err := m.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(m.fromEmail),
	})
	if err != nil {
		return apperrors.NewNotificationSendFailedError("confirmation-email", err)
	}
	return nil
}

// Alerter publishes operator alerts about degraded partitions.
type Alerter struct {
	snsClient SNSService
	topicARN  string
	logger    logger.Logger
}

func NewAlerter(snsClient SNSService, topicARN string, log logger.Logger) *Alerter {
	return &Alerter{
		snsClient: snsClient,
		topicARN:  topicARN,
		logger:    log.WithFields(map[string]interface{}{"component": "alerter"}),
	}
}

// AlertDegradedPartition tells the operator a partition exists without its
// header row. Best effort; a publish failure is only logged.
func (a *Alerter) AlertDegradedPartition(ctx context.Context, team, partition, reason string) {
	message := fmt.Sprintf(
		"Partition %q (team %s) was created but its header row was not written: %s. Run the repair endpoint to reconcile.",
		partition, team, reason,
	)

	_, err := a.snsClient.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(a.topicARN),
		Subject:  aws.String("Degraded recruitment partition"),
		Message:  aws.String(message),
	})
	if err != nil {
		a.logger.Error("degraded partition alert failed", map[string]interface{}{
			"partition": partition,
			"error":     err.Error(),
		})
		return
	}
	a.logger.Info("degraded partition alert published", map[string]interface{}{
		"partition": partition,
	})
}
