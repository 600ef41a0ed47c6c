// Package storage guarda as fotos dos terrenos.
package storage

import (
	"context"
	"fmt"
	"sync"
)

type Storage interface {
	// Put grava o objeto e devolve a URL pública.
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// MemoryStorage é usado em testes e quando nenhum bucket está configurado.
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	baseURL string
}

func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{objects: map[string][]byte{}, baseURL: baseURL}
}

func (m *MemoryStorage) Put(_ context.Context, key, _ string, body []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), body...)
	return fmt.Sprintf("%s/%s", m.baseURL, key), nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryStorage) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	return b, ok
}

// PhotoKey monta a chave do objeto de uma foto.
func PhotoKey(fieldID uint, name string) string {
	return fmt.Sprintf("fields/%d/%s.webp", fieldID, name)
}
