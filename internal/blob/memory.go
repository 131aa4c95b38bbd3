package blob

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"sync"
)

type object struct {
	contentType string
	data        []byte
}

// Memory keeps blobs in process. ImageURL returns data URIs, so images
// stored here can be sent to a model directly.
type Memory struct {
	mu         sync.RWMutex
	containers map[string]map[string]object
}

func NewMemory() *Memory {
	return &Memory{containers: map[string]map[string]object{}}
}

func (m *Memory) Exists(_ context.Context, container, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.containers[container][name]
	return ok, nil
}

func (m *Memory) ImageURL(_ context.Context, container, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.containers[container][name]
	if !ok {
		return "", fmt.Errorf("%v/%v: %w", container, name, ErrNotFound)
	}

	return fmt.Sprintf("data:%v;base64,%v", obj.contentType, base64.StdEncoding.EncodeToString(obj.data)), nil
}

func (m *Memory) Upload(_ context.Context, container, name, contentType string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.containers[container] == nil {
		m.containers[container] = map[string]object{}
	}
	m.containers[container][name] = object{contentType: contentType, data: append([]byte(nil), data...)}
	return nil
}

func (m *Memory) ListContainers(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.containers))
	for name := range m.containers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) ListBlobs(_ context.Context, container, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.containers[container] {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) CountBlobs(ctx context.Context, container string) (int, error) {
	names, err := m.ListBlobs(ctx, container, "")
	return len(names), err
}
