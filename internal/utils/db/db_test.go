package db

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/zebee/manager-api/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DBConfig{Host: "db.local", Port: 6543, Name: "zebee", SSLMode: "require"}
	got := DSN(cfg, "app", "it's a secret")
	want := `host=db.local user=app password='it\'s a secret' dbname=zebee port=6543 sslmode=require`
	if got != want {
		t.Errorf("DSN =\n%s\nwant\n%s", got, want)
	}

	got = DSN(config.DBConfig{Host: "h", Name: "n"}, "u", "")
	if got != "host=h user=u password='' dbname=n port=5432" {
		t.Errorf("DSN padrão = %s", got)
	}
}

type fakeSecrets struct {
	out *secretsmanager.GetSecretValueOutput
	err error
	id  string
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.id = aws.ToString(in.SecretId)
	return f.out, f.err
}

func TestBuscarCredenciais(t *testing.T) {
	ctx := context.Background()

	f := &fakeSecrets{out: &secretsmanager.GetSecretValueOutput{SecretString: aws.String(`{"username":"app","password":"pw"}`)}}
	c, err := buscarCredenciais(ctx, f, "prod/db")
	if err != nil || c.Username != "app" || c.Password != "pw" || f.id != "prod/db" {
		t.Errorf("credenciais = %+v, %v (id %s)", c, err, f.id)
	}

	f = &fakeSecrets{out: &secretsmanager.GetSecretValueOutput{SecretString: aws.String(`{"username":"app"}`)}}
	if _, err := buscarCredenciais(ctx, f, "x"); !errors.Is(err, ErrSegredoVazio) {
		t.Errorf("segredo incompleto: %v", err)
	}

	f = &fakeSecrets{err: errors.New("denied")}
	if _, err := buscarCredenciais(ctx, f, "x"); err == nil {
		t.Error("esperava erro da aws")
	}

	if _, err := buscarCredenciais(ctx, &fakeSecrets{}, ""); err == nil {
		t.Error("esperava erro sem secret id")
	}
}
