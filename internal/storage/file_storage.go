// internal/storage/file_storage.go
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// JSONDir 是一个只存放 JSON 文档的目录，写入是原子的
type JSONDir struct {
	root  string
	locks sync.Map // name -> *sync.RWMutex
}

// NewJSONDir 打开（必要时创建）目录
func NewJSONDir(root string) (*JSONDir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", root, err)
	}
	return &JSONDir{root: root}, nil
}

// Root returns the directory path.
func (d *JSONDir) Root() string {
	return d.root
}

func (d *JSONDir) lockFor(name string) *sync.RWMutex {
	mu, _ := d.locks.LoadOrStore(name, &sync.RWMutex{})
	return mu.(*sync.RWMutex)
}

func (d *JSONDir) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("storage: invalid document name %q", name)
	}
	return filepath.Join(d.root, name), nil
}

// Write 编码 v 并替换 name；读者要么看到旧文档要么看到新文档
func (d *JSONDir) Write(name string, v interface{}) error {
	target, err := d.path(name)
	if err != nil {
		return err
	}
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", name, err)
	}

	mu := d.lockFor(name)
	mu.Lock()
	defer mu.Unlock()

	tmp, err := os.CreateTemp(d.root, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("storage: temp file for %s: %w", name, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("storage: commit %s: %w", name, err)
	}
	committed = true
	return nil
}

// Read decodes name into v. A missing document yields an error matching fs.ErrNotExist.
func (d *JSONDir) Read(name string, v interface{}) error {
	target, err := d.path(name)
	if err != nil {
		return err
	}

	mu := d.lockFor(name)
	mu.RLock()
	payload, err := os.ReadFile(target)
	mu.RUnlock()
	if err != nil {
		return fmt.Errorf("storage: read %s: %w", name, err)
	}

	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("storage: decode %s: %w", name, err)
	}
	return nil
}

// Exists 仅对普通文件返回 true
func (d *JSONDir) Exists(name string) bool {
	target, err := d.path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(target)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes name and forgets its lock.
func (d *JSONDir) Remove(name string) error {
	target, err := d.path(name)
	if err != nil {
		return err
	}

	mu := d.lockFor(name)
	mu.Lock()
	err = os.Remove(target)
	mu.Unlock()
	d.locks.Delete(name)

	if err != nil {
		return fmt.Errorf("storage: remove %s: %w", name, err)
	}
	return nil
}

// Names 列出带 suffix 的文档名，按字典序；临时文件和子目录不算
func (d *JSONDir) Names(suffix string) ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", d.root, err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, suffix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
