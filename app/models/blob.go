package models

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// BlobRef names a binary on a storage disk. An empty Disk means the default
// disk. Drafts may spell it as "path", "disk:path" or {disk, path}.
type BlobRef struct {
	Disk string `json:"disk,omitempty" yaml:"disk,omitempty"`
	Path string `json:"path"           yaml:"path"`
}

// ParseBlobRef splits "disk:path". A colon after the first slash belongs to
// the path.
func ParseBlobRef(s string) BlobRef {
	s = strings.TrimSpace(s)
	if disk, p, ok := strings.Cut(s, ":"); ok && disk != "" && !strings.Contains(disk, "/") {
		return BlobRef{Disk: disk, Path: p}
	}
	return BlobRef{Path: s}
}

func (b BlobRef) String() string {
	if b.Disk == "" {
		return b.Path
	}
	return b.Disk + ":" + b.Path
}

// Filename is the base name sent as the multipart filename.
func (b BlobRef) Filename() string { return path.Base(b.Path) }

// Empty reports whether the reference points nowhere.
func (b *BlobRef) Empty() bool { return b == nil || strings.TrimSpace(b.Path) == "" }

func (b *BlobRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = ParseBlobRef(s)
		return nil
	}
	type plain BlobRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("blob ref: %w", err)
	}
	*b = BlobRef(p)
	return nil
}

func (b *BlobRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*b = ParseBlobRef(node.Value)
		return nil
	}
	type plain BlobRef
	var p plain
	if err := node.Decode(&p); err != nil {
		return fmt.Errorf("blob ref: %w", err)
	}
	*b = BlobRef(p)
	return nil
}
