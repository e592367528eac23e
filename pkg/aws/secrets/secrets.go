package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
)

// Ensure Client implements ClientIFace
var _ ClientIFace = (*Client)(nil)

type ClientIFace interface {
	Connect() error
	GetSecret(ctx context.Context, secretId string) (string, error)
}

type Client struct {
	cfg           *aws.Config
	secretsClient secretsmanageriface.SecretsManagerAPI
	session       *session.Session
}

func New() *Client {
	cfg := aws.NewConfig()
	return &Client{
		cfg: cfg,
	}
}

func (c *Client) Connect() error {
	awsSession, err := session.NewSession(c.cfg)
	if err != nil {
		return err
	}
	c.session = awsSession
	c.secretsClient = secretsmanager.New(c.session, c.cfg)
	return nil
}

func (c *Client) GetSecret(ctx context.Context, secretId string) (string, error) {
	out, err := c.secretsClient.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretId),
	})
	if err != nil {
		return "", err
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return "", fmt.Errorf("secret has no string value: [%s]", secretId)
	}
	return *out.SecretString, nil
}
