package blob

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
)

// MemoryStore keeps blobs in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob
	clock clockwork.Clock
}

type memoryBlob struct {
	ref  Ref
	data []byte
}

func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string]memoryBlob),
		clock: clock,
	}
}

func (s *MemoryStore) Upload(ctx context.Context, filename string, data []byte) (Ref, error) {
	name, contentType, err := prepare(filename, data)
	if err != nil {
		return Ref{}, err
	}
	if err := ctx.Err(); err != nil {
		return Ref{}, ErrUploadFailed
	}

	ref := Ref{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
		ModTime:     s.clock.Now(),
	}
	s.mu.Lock()
	s.blobs[name] = memoryBlob{ref: ref, data: bytes.Clone(data)}
	s.mu.Unlock()
	return ref, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Ref, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Ref, 0, len(s.blobs))
	for _, b := range s.blobs {
		out = append(out, b.ref)
	}
	slices.SortFunc(out, func(a, b Ref) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *MemoryStore) Open(ctx context.Context, name string) (io.ReadCloser, Ref, error) {
	s.mu.RLock()
	b, ok := s.blobs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, Ref{}, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b.data)), b.ref, nil
}
