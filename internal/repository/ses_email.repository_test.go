package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/require"
)

type fakeSesClient struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSesClient) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestEmailRepository_SendEmail(t *testing.T) {
	t.Run("builds html message", func(t *testing.T) {
		client := &fakeSesClient{}
		repository := emailRepositoryHandler{sesClient: client, fromEmail: "reports@example.com"}

		err := repository.SendEmail(context.Background(), []string{"a@example.com", "b@example.com"}, "Backtest", "<p>hi</p>")
		require.NoError(t, err)
		require.Len(t, client.inputs, 1)

		input := client.inputs[0]
		require.Equal(t, "reports@example.com", *input.FromEmailAddress)
		require.Equal(t, []string{"a@example.com", "b@example.com"}, input.Destination.ToAddresses)
		require.Equal(t, "Backtest", *input.Content.Simple.Subject.Data)
		require.Equal(t, "<p>hi</p>", *input.Content.Simple.Body.Html.Data)
	})

	t.Run("no recipients", func(t *testing.T) {
		client := &fakeSesClient{}
		repository := emailRepositoryHandler{sesClient: client, fromEmail: "reports@example.com"}

		err := repository.SendEmail(context.Background(), nil, "Backtest", "<p>hi</p>")
		require.Error(t, err)
		require.Empty(t, client.inputs)
	})

	t.Run("ses failure", func(t *testing.T) {
		client := &fakeSesClient{err: fmt.Errorf("throttled")}
		repository := emailRepositoryHandler{sesClient: client, fromEmail: "reports@example.com"}

		err := repository.SendEmail(context.Background(), []string{"a@example.com"}, "Backtest", "<p>hi</p>")
		require.ErrorContains(t, err, "throttled")
	})
}
