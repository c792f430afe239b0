package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

var ErrSegredoVazio = errors.New("segredo sem username/password")

// secretsAPI é o recorte do cliente do Secrets Manager usado aqui.
type secretsAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

func novoClienteSecrets(ctx context.Context, region string) (*secretsmanager.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("carregar config aws: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

func buscarCredenciais(ctx context.Context, cli secretsAPI, secretID string) (Credentials, error) {
	if secretID == "" {
		return Credentials{}, errors.New("db.secret_id vazio e credenciais ausentes")
	}
	out, err := cli.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretID),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("ler segredo %s: %w", secretID, err)
	}
	if out.SecretString == nil {
		return Credentials{}, ErrSegredoVazio
	}
	var c Credentials
	if err := json.Unmarshal([]byte(*out.SecretString), &c); err != nil {
		return Credentials{}, fmt.Errorf("decodificar segredo: %w", err)
	}
	if c.Username == "" || c.Password == "" {
		return Credentials{}, ErrSegredoVazio
	}
	return c, nil
}
