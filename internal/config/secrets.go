package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

var errNoSecretDataFound = errors.New("secret has neither a string nor a binary value")

// SecretsOverlay is the JSON document stored in Secrets Manager. Empty fields
// leave the loaded configuration untouched.
type SecretsOverlay struct {
	DatabasePassword string `json:"database_password"`
	SourceAPIKey     string `json:"source_api_key"`
}

// SecretGetter is the part of the Secrets Manager client the loader uses.
type SecretGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

func (o SecretsOverlay) apply(cfg *Config) {
	if o.DatabasePassword != "" {
		cfg.Database.Password = o.DatabasePassword
	}
	if o.SourceAPIKey != "" {
		cfg.Source.APIKey = o.SourceAPIKey
	}
}

func decodeSecret(out *secretsmanager.GetSecretValueOutput) (SecretsOverlay, error) {
	var raw []byte
	switch {
	case out.SecretString != nil:
		raw = []byte(*out.SecretString)
	case out.SecretBinary != nil:
		raw = out.SecretBinary
	default:
		return SecretsOverlay{}, errNoSecretDataFound
	}

	var overlay SecretsOverlay
	if err := json.Unmarshal(raw, &overlay); err != nil {
		return SecretsOverlay{}, fmt.Errorf("decode secret: %w", err)
	}
	return overlay, nil
}

// ApplySecrets fetches secretName with client and overlays it onto cfg.
func ApplySecrets(ctx context.Context, cfg *Config, client SecretGetter, secretName string) error {
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(secretName)})
	if err != nil {
		return fmt.Errorf("get secret %s: %w", secretName, err)
	}
	overlay, err := decodeSecret(out)
	if err != nil {
		return fmt.Errorf("secret %s: %w", secretName, err)
	}
	overlay.apply(cfg)
	return nil
}

// LoadSecretsFromAWS overlays secretName from Secrets Manager in region onto cfg
// using the default AWS credential chain.
func LoadSecretsFromAWS(ctx context.Context, cfg *Config, region, secretName string) error {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return fmt.Errorf("load AWS config: %w", err)
	}
	return ApplySecrets(ctx, cfg, secretsmanager.NewFromConfig(awsCfg), secretName)
}
