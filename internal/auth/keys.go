package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/zebee/manager-api/internal/config"
	"github.com/zebee/manager-api/internal/logger"
)

// CarregarChavePrivada lê uma chave RSA em PEM, PKCS#1 ou PKCS#8.
func CarregarChavePrivada(path string) (*rsa.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ler chave privada: %w", err)
	}
	return ParseChavePrivada(b)
}

func ParseChavePrivada(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("pem decode da chave privada falhou")
	}
	if k, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return k, nil
	}
	k8, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse da chave privada: %w", err)
	}
	k, ok := k8.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("chave privada não é RSA")
	}
	return k, nil
}

// NovoEmissorDeConfig monta o Emissor a partir da configuração. Sem caminho de
// chave (só permitido fora de produção) gera uma chave efêmera: tokens deixam
// de valer a cada reinício.
func NovoEmissorDeConfig(cfg config.AuthConfig, log *logger.Logger) (*Emissor, error) {
	var (
		priv *rsa.PrivateKey
		err  error
	)
	if cfg.PrivateKeyPath != "" {
		priv, err = CarregarChavePrivada(cfg.PrivateKeyPath)
	} else {
		log.Warn("auth.private_key_path vazio, gerando chave RSA efêmera")
		priv, err = rsa.GenerateKey(rand.Reader, 2048)
	}
	if err != nil {
		return nil, err
	}
	return NovoEmissor(priv, OpcoesEmissor{
		KID:       cfg.KID,
		Issuer:    cfg.Issuer,
		Audience:  cfg.Audience,
		AccessTTL: cfg.AccessTTL,
	})
}
