package apiclient

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// NomeArquivoSessao é o nome fixo do arquivo que guarda o token.
const NomeArquivoSessao = "zebee_token"

// SessionProvider é a única fonte do token de acesso durante a execução.
type SessionProvider interface {
	Load() error
	Get() string
	Clear() error
}

// SessionWriter é implementado pelos providers que aceitam gravar um token novo.
type SessionWriter interface {
	Set(token string) error
}

// FileSession persiste o token em dir/zebee_token com permissão 0600.
type FileSession struct {
	path string

	mu    sync.RWMutex
	token string
}

func NovaFileSession(dir string) *FileSession {
	return &FileSession{path: filepath.Join(dir, NomeArquivoSessao)}
}

func (s *FileSession) Path() string { return s.path }

// Load lê o arquivo; ausência vale sessão vazia.
func (s *FileSession) Load() error {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		b, err = nil, nil
	}
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.token = strings.TrimSpace(string(b))
	s.mu.Unlock()
	return nil
}

func (s *FileSession) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *FileSession) Set(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return err
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *FileSession) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// MemSession guarda o token só em memória.
type MemSession struct {
	mu    sync.RWMutex
	token string
}

func (s *MemSession) Load() error { return nil }

func (s *MemSession) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *MemSession) Set(token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *MemSession) Clear() error { return s.Set("") }
