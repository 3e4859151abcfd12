package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// SSM resolves secrets from AWS SSM Parameter Store with decryption enabled.
type SSM struct {
	client *ssm.Client
}

// NewSSM creates a new SSM-backed secret provider.
func NewSSM(client *ssm.Client) *SSM {
	return &SSM{client: client}
}

// GetSecret fetches a decrypted parameter value by name.
func (s *SSM) GetSecret(ctx context.Context, name string) (string, error) {
	output, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("failed to get parameter %s: %w", name, err)
	}
	if output.Parameter == nil || output.Parameter.Value == nil {
		return "", fmt.Errorf("%w: parameter %s has no value", ErrNotFound, name)
	}
	return *output.Parameter.Value, nil
}
