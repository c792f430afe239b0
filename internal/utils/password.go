package utils

import (
	"crypto/rand"
	"errors"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// ErrSenhaVazia é retornado quando se tenta gerar hash de senha em branco.
var ErrSenhaVazia = errors.New("senha vazia")

// HashSenha retorna o hash bcrypt da senha em texto.
func HashSenha(senha string) (string, error) {
	if senha == "" {
		return "", ErrSenhaVazia
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(senha), bcrypt.DefaultCost)
	return string(hash), err
}

// VerificarSenha compara hash bcrypt com a senha em texto puro.
func VerificarSenha(hash, senha string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(senha)) == nil
}

const alfabetoSenha = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GerarSenhaTemporaria gera uma senha aleatória com o tamanho pedido (mínimo 12).
func GerarSenhaTemporaria(tamanho int) (string, error) {
	if tamanho < 12 {
		tamanho = 12
	}
	out := make([]byte, tamanho)
	limite := big.NewInt(int64(len(alfabetoSenha)))
	for i := range out {
		n, err := rand.Int(rand.Reader, limite)
		if err != nil {
			return "", err
		}
		out[i] = alfabetoSenha[n.Int64()]
	}
	return string(out), nil
}
