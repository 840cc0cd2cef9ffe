package filerepo

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/jrsteele09/go-docs-auth/internal/errors"
	"github.com/jrsteele09/go-docs-auth/sessions"
	"gopkg.in/yaml.v3"
)

const (
	dirPermissions  = 0700
	filePermissions = 0600
)

var _ sessions.Repo = (*FileRepo)(nil)

// document is the on-disk layout: origin -> key -> value.
type document struct {
	Origins map[string]map[string]string `yaml:"origins"`
}

// FileRepo persists session records for one origin in a YAML file shared by
// every origin. The file is re-read on each call so writes from other
// processes are observed; concurrent writers race and the last rename wins.
type FileRepo struct {
	path   string
	origin string
	lock   sync.Mutex
}

func New(path, origin string) (*FileRepo, error) {
	if path == "" {
		return nil, fmt.Errorf("session file path is required")
	}
	if origin == "" {
		return nil, fmt.Errorf("origin is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}
	return &FileRepo{path: path, origin: origin}, nil
}

func (fr *FileRepo) Path() string {
	return fr.path
}

func (fr *FileRepo) Set(key, value string) error {
	fr.lock.Lock()
	defer fr.lock.Unlock()

	doc, err := fr.load()
	if err != nil {
		return err
	}
	values, ok := doc.Origins[fr.origin]
	if !ok {
		values = make(map[string]string)
		doc.Origins[fr.origin] = values
	}
	values[key] = value
	return fr.save(doc)
}

func (fr *FileRepo) Get(key string) (string, error) {
	fr.lock.Lock()
	defer fr.lock.Unlock()

	doc, err := fr.load()
	if err != nil {
		return "", err
	}
	value, ok := doc.Origins[fr.origin][key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return value, nil
}

func (fr *FileRepo) Remove(key string) error {
	fr.lock.Lock()
	defer fr.lock.Unlock()

	doc, err := fr.load()
	if err != nil {
		return err
	}
	values, ok := doc.Origins[fr.origin]
	if !ok {
		return nil
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	if len(values) == 0 {
		delete(doc.Origins, fr.origin)
	}
	return fr.save(doc)
}

func (fr *FileRepo) load() (*document, error) {
	doc := &document{Origins: make(map[string]map[string]string)}
	data, err := os.ReadFile(fr.path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decoding session file %s: %w", fr.path, err)
	}
	if doc.Origins == nil {
		doc.Origins = make(map[string]map[string]string)
	}
	return doc, nil
}

func (fr *FileRepo) save(doc *document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding session file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fr.path), ".session-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(filePermissions); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp session file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp session file: %w", err)
	}
	if err := os.Rename(tmpName, fr.path); err != nil {
		return fmt.Errorf("replacing session file: %w", err)
	}
	return nil
}
