package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	storage "tradebook/internal/domain/entity/storage"
	"tradebook/internal/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// FileStore keeps every document as <root>/<name>.json.
// There is no locking: two writers racing on one document lose one update.
type FileStore struct {
	root   string
	logger *logrus.Entry
}

var _ interfaces.DocumentStore = (*FileStore)(nil)

func NewFileStore(root string, logger *logrus.Logger) *FileStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FileStore{
		root:   root,
		logger: logger.WithField("component", "file_store"),
	}
}

// Root returns the directory the documents live in.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.root, name+".json")
}

func (s *FileStore) Get(_ context.Context, name string) storage.Result {
	res := s.read(name)
	if res.Degraded() {
		s.logger.WithError(res.Err).WithField("document", name).Warn("read document failed, using empty document")
	}
	return res
}

func (s *FileStore) Mutate(ctx context.Context, name string, fn func(doc storage.Document) error) storage.Result {
	res := s.Get(ctx, name)
	if err := fn(res.Doc); err != nil {
		return storage.Result{Doc: res.Doc, Status: res.Status, Err: err}
	}
	if err := s.write(name, res.Doc); err != nil {
		s.logger.WithError(err).WithField("document", name).Error("write document failed")
		return storage.Result{Doc: res.Doc, Status: storage.StatusWriteFailed, Err: err}
	}
	if res.Degraded() {
		return res
	}
	return storage.Result{Doc: res.Doc, Status: storage.StatusOK}
}

func (s *FileStore) read(name string) storage.Result {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return storage.Result{Doc: storage.Document{}, Status: storage.StatusDegraded, Err: fmt.Errorf("create data dir: %w", err)}
	}
	raw, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.Result{Doc: storage.Document{}, Status: storage.StatusMissing}
		}
		return storage.Result{Doc: storage.Document{}, Status: storage.StatusDegraded, Err: err}
	}
	return decode(raw)
}

func (s *FileStore) write(name string, doc storage.Document) error {
	data, err := encode(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.root, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path(name), err)
	}
	return nil
}

// decode turns stored bytes into a document. Blank content is an empty document,
// anything that is not a JSON object is reported as degraded.
func decode(raw []byte) storage.Result {
	if len(bytes.TrimSpace(raw)) == 0 {
		return storage.Result{Doc: storage.Document{}, Status: storage.StatusOK}
	}
	var doc storage.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return storage.Result{Doc: storage.Document{}, Status: storage.StatusDegraded, Err: fmt.Errorf("decode document: %w", err)}
	}
	if doc == nil {
		doc = storage.Document{}
	}
	return storage.Result{Doc: doc, Status: storage.StatusOK}
}

func encode(doc storage.Document) ([]byte, error) {
	if doc == nil {
		doc = storage.Document{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}
