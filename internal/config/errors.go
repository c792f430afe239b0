package config

import "errors"

var (
	ErrInvalidConfig = errors.New("configuração inválida")
	ErrLoadConfig    = errors.New("falha ao carregar configuração")
)
