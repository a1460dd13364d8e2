// internal/notify/notify_test.go
package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "recruit-intake/internal/common/errors"
	"recruit-intake/internal/common/logger"
)

type stubSES struct {
	input *ses.SendEmailInput
	err   error
}

func (s *stubSES) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &ses.SendEmailOutput{}, nil
}

type stubSNS struct {
	input *sns.PublishInput
	err   error
}

func (s *stubSNS) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &sns.PublishOutput{}, nil
}

func TestSendConfirmation(t *testing.T) {
	client := &stubSES{}
	m := NewMailer(client, "noreply@club.example", logger.NewTestLogger(t))

	err := m.SendConfirmation(context.Background(), "a@college.edu", "Asha", "Technical")
	require.NoError(t, err)

	require.NotNil(t, client.input)
	assert.Equal(t, []string{"a@college.edu"}, client.input.Destination.ToAddresses)
	assert.Equal(t, "noreply@club.example", *client.input.Source)
	assert.Contains(t, *client.input.Message.Subject.Data, "Technical")
	assert.Contains(t, *client.input.Message.Body.Text.Data, "Asha")
}

func TestSendConfirmation_Failure(t *testing.T) {
	client := &stubSES{err: errors.New("throttled")}
	m := NewMailer(client, "noreply@club.example", logger.NewTestLogger(t))

	err := m.SendConfirmation(context.Background(), "a@college.edu", "Asha", "Technical")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, apperrors.AsStandardError(err).Code)
	assert.True(t, apperrors.IsRetryable(err))
}

func TestAlertDegradedPartition(t *testing.T) {
	client := &stubSNS{}
	a := NewAlerter(client, "arn:aws:sns:ap-south-1:1234:alerts", logger.NewTestLogger(t))

	a.AlertDegradedPartition(context.Background(), "design", "Design", "write timed out")

	require.NotNil(t, client.input)
	assert.Equal(t, "arn:aws:sns:ap-south-1:1234:alerts", *client.input.TopicArn)
	assert.Contains(t, *client.input.Message, "Design")
	assert.Contains(t, *client.input.Message, "write timed out")
}

func TestAlertDegradedPartition_PublishFailureDoesNotPanic(t *testing.T) {
	client := &stubSNS{err: errors.New("topic gone")}
	a := NewAlerter(client, "arn:aws:sns:ap-south-1:1234:alerts", logger.NewTestLogger(t))

	a.AlertDegradedPartition(context.Background(), "design", "Design", "write timed out")
}
