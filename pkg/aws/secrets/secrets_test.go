package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSecretsManager struct {
	secretsmanageriface.SecretsManagerAPI

	values map[string]*string
	err    error
}

func (s *stubSecretsManager) GetSecretValueWithContext(_ aws.Context, in *secretsmanager.GetSecretValueInput, _ ...request.Option) (*secretsmanager.GetSecretValueOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: s.values[*in.SecretId]}, nil
}

func Test_Client_GetSecret(t *testing.T) {
	mockErr := errors.New("mock error")
	tests := []struct {
		name     string
		secretId string
		stubErr  error
		expValue string
		expErr   string
	}{
		{
			name:     "Happy path",
			secretId: "line/channel-secret",
			expValue: "s3cr3t",
		},
		{
			name:     "Sad path - Empty secret string",
			secretId: "line/empty",
			expErr:   "secret has no string value",
		},
		{
			name:     "Sad path - Missing secret string",
			secretId: "line/binary",
			expErr:   "secret has no string value",
		},
		{
			name:     "Sad path - AWS error",
			secretId: "line/channel-secret",
			stubErr:  mockErr,
			expErr:   mockErr.Error(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{
				secretsClient: &stubSecretsManager{
					values: map[string]*string{
						"line/channel-secret": aws.String("s3cr3t"),
						"line/empty":          aws.String(""),
					},
					err: tt.stubErr,
				},
			}

			got, err := c.GetSecret(context.Background(), tt.secretId)

			if tt.expErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.expValue, got)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expErr)
			}
		})
	}
}
