// File: internal/secrets/secrets.go
package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecap/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrIncompleteSecret is returned when the secret lacks a username or password.
var ErrIncompleteSecret = errors.New("secret must contain non-empty username and password")

// GetSecretValueAPI is the subset of the Secrets Manager client the provider needs.
type GetSecretValueAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ensure SecretsManagerProvider implements the interface
var _ schemas.SecretProvider = (*SecretsManagerProvider)(nil)

// SecretsManagerProvider resolves credentials stored as a JSON document
// {"username": "...", "password": "..."} in AWS Secrets Manager.
type SecretsManagerProvider struct {
	client GetSecretValueAPI
	logger *zap.Logger
}

// NewSecretsManagerProvider creates a provider over a Secrets Manager client.
func NewSecretsManagerProvider(client GetSecretValueAPI, logger *zap.Logger) *SecretsManagerProvider {
	return &SecretsManagerProvider{client: client, logger: logger.Named("secrets")}
}

// Credentials fetches and decodes the secret. The text form takes precedence
// over the binary form.
func (p *SecretsManagerProvider) Credentials(ctx context.Context, secretID string) (schemas.Credentials, error) {
	if secretID == "" {
		return schemas.Credentials{}, errors.New("secret id is empty")
	}

	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return schemas.Credentials{}, fmt.Errorf("get secret value %s: %w", secretID, err)
	}

	var raw []byte
	switch {
	case out.SecretString != nil:
		raw = []byte(aws.ToString(out.SecretString))
	case len(out.SecretBinary) > 0:
		raw = out.SecretBinary
	default:
		return schemas.Credentials{}, fmt.Errorf("secret %s has no value", secretID)
	}

	creds, err := ParseCredentials(raw)
	if err != nil {
		return schemas.Credentials{}, fmt.Errorf("secret %s: %w", secretID, err)
	}
	p.logger.Debug("Credentials resolved.", zap.String("secret_id", secretID), zap.String("version", aws.ToString(out.VersionId)))
	return creds, nil
}

// ParseCredentials decodes a credential document and requires both fields.
func ParseCredentials(raw []byte) (schemas.Credentials, error) {
	var creds schemas.Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return schemas.Credentials{}, fmt.Errorf("decode credential document: %w", err)
	}
	if creds.Username == "" || creds.Password == "" {
		return schemas.Credentials{}, ErrIncompleteSecret
	}
	return creds, nil
}

// ensure StaticProvider implements the interface
var _ schemas.SecretProvider = StaticProvider{}

// StaticProvider returns fixed credentials and ignores the secret id.
type StaticProvider struct {
	Creds schemas.Credentials
}

// Credentials returns the configured pair.
func (s StaticProvider) Credentials(context.Context, string) (schemas.Credentials, error) {
	if s.Creds.Username == "" || s.Creds.Password == "" {
		return schemas.Credentials{}, ErrIncompleteSecret
	}
	return s.Creds, nil
}
