package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/shashiranjanraj/stockdesk/config"
	"github.com/shashiranjanraj/stockdesk/pkg/logger"
)

// Manager resolves disks by name.
type Manager struct {
	mu          sync.RWMutex
	disks       map[string]Disk
	defaultDisk string
}

func NewManager(defaultDisk string) *Manager {
	if defaultDisk == "" {
		defaultDisk = "local"
	}
	return &Manager{disks: map[string]Disk{}, defaultDisk: defaultDisk}
}

// FromConfig boots the local disk and, when S3_BUCKET is set, the s3 disk.
// A misconfigured s3 disk is logged and left out.
func FromConfig(ctx context.Context) *Manager {
	m := NewManager(config.StorageDefault())
	m.Register("local", NewLocalDisk(config.StorageLocalRoot(), config.Get("STORAGE_URL", "")))

	if config.StorageS3Bucket() != "" {
		d, err := NewS3Disk(ctx, S3Config{
			Bucket:   config.StorageS3Bucket(),
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
			BaseURL:  config.Get("S3_URL", ""),
		})
		if err != nil {
			logger.Warn("storage/s3: disk disabled", "error", err)
		} else {
			m.Register("s3", d)
		}
	}
	return m
}

// Register plugs a Disk in under name.
func (m *Manager) Register(name string, d Disk) {
	m.mu.Lock()
	m.disks[name] = d
	m.mu.Unlock()
}

// Use returns the named disk; an empty name means the default disk.
func (m *Manager) Use(name string) (Disk, error) {
	if name == "" {
		name = m.defaultDisk
	}
	m.mu.RLock()
	d, ok := m.disks[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: disk %q is not configured", name)
	}
	return d, nil
}

// Default returns the default disk, or nil when it is not configured.
func (m *Manager) Default() Disk {
	d, _ := m.Use("")
	return d
}

// Names lists the registered disks.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.disks))
	for name := range m.disks {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Open streams path from the named disk.
func (m *Manager) Open(ctx context.Context, disk, path string) (io.ReadCloser, error) {
	d, err := m.Use(disk)
	if err != nil {
		return nil, err
	}
	return d.Open(ctx, path)
}
