package templatestore

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/qumplus/simuserver/pkg/logging"
	"github.com/qumplus/simuserver/pkg/routes"
)

// Errors returned by the store.
var (
	ErrNotFound    = errors.New("template not found")
	ErrInvalidName = errors.New("template name has no usable characters")
)

// templateGlob matches template files at any depth below the directory.
const templateGlob = "**/*.{json,yaml,yml}"

//go:embed presets/*.json
var presetFS embed.FS

// Summary describes a stored template.
type Summary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Routes      int    `json:"routes"`
	File        string `json:"file"`
}

// Store is a directory of template files.
type Store struct {
	dir string
	log *slog.Logger
	mu  sync.Mutex
}

// Option configures a Store.
type Option func(*storeOptions)

type storeOptions struct {
	logger  *slog.Logger
	presets bool
}

// WithLogger sets the logger used to report unreadable files.
func WithLogger(log *slog.Logger) Option {
	return func(o *storeOptions) { o.logger = log }
}

// WithoutPresets skips writing the built-in presets.
func WithoutPresets() Option {
	return func(o *storeOptions) { o.presets = false }
}

// Open creates dir if needed and writes any missing preset files.
func Open(dir string, opts ...Option) (*Store, error) {
	o := storeOptions{logger: logging.Nop(), presets: true}
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create template directory %s: %w", dir, err)
	}
	s := &Store{dir: dir, log: o.logger.With("component", "templatestore")}

	if o.presets {
		if _, err := s.InstallPresets(false); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Dir returns the directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

// PresetFiles returns the file names of the built-in presets.
func PresetFiles() []string {
	entries, _ := fs.ReadDir(presetFS, "presets")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// InstallPresets writes the built-in presets. Existing files are kept unless
// overwrite is set. It returns the files written.
func (s *Store) InstallPresets(overwrite bool) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var written []string
	for _, name := range PresetFiles() {
		target := filepath.Join(s.dir, name)
		if !overwrite {
			if _, err := os.Stat(target); err == nil {
				continue
			}
		}
		data, err := presetFS.ReadFile(path.Join("presets", name))
		if err != nil {
			return written, fmt.Errorf("read preset %s: %w", name, err)
		}
		if err := writeAtomic(target, data); err != nil {
			return written, err
		}
		written = append(written, name)
	}
	return written, nil
}

// files returns template files relative to the store directory, sorted.
func (s *Store) files() ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(s.dir), templateGlob)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.dir, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func (s *Store) read(rel string) (*routes.RouteTemplate, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}
	tpl, err := Decode(data, FormatFromPath(rel))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rel, err)
	}
	return tpl, nil
}

// List returns a summary of every readable template. Unreadable or invalid
// files are logged and skipped.
func (s *Store) List() ([]Summary, error) {
	files, err := s.files()
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(files))
	for _, rel := range files {
		tpl, err := s.read(rel)
		if err != nil {
			s.log.Warn("skipping template file", "file", rel, "error", err)
			continue
		}
		desc := tpl.Description
		if desc == "" {
			desc = "No description"
		}
		out = append(out, Summary{
			Name:        tpl.Name,
			Description: desc,
			Version:     tpl.Version,
			Routes:      len(tpl.Routes),
			File:        rel,
		})
	}
	return out, nil
}

func stem(rel string) string {
	base := path.Base(rel)
	return strings.TrimSuffix(base, path.Ext(base))
}

// find returns the file and template whose name or file stem equals name.
// Names are compared before stems.
func (s *Store) find(name string) (string, *routes.RouteTemplate, error) {
	files, err := s.files()
	if err != nil {
		return "", nil, err
	}

	var stemMatch string
	var stemTpl *routes.RouteTemplate
	for _, rel := range files {
		tpl, err := s.read(rel)
		if err != nil {
			s.log.Warn("skipping template file", "file", rel, "error", err)
			continue
		}
		if tpl.Name == name {
			return rel, tpl, nil
		}
		if stemTpl == nil && stem(rel) == name {
			stemMatch, stemTpl = rel, tpl
		}
	}
	if stemTpl != nil {
		return stemMatch, stemTpl, nil
	}
	return "", nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Get returns the template with the given name. A file stem such as
// "instagram" is accepted as well.
func (s *Store) Get(name string) (*routes.RouteTemplate, error) {
	_, tpl, err := s.find(name)
	return tpl, err
}

// Save writes tpl to <slug(name)><ext> and returns the file path.
func (s *Store) Save(tpl *routes.RouteTemplate, format Format) (string, error) {
	if tpl == nil {
		return "", errors.New("template cannot be nil")
	}
	slug := Slug(tpl.Name)
	if slug == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, tpl.Name)
	}

	data, err := Encode(tpl, format)
	if err != nil {
		return "", fmt.Errorf("encode template: %w", err)
	}
	if _, err := Decode(data, format); err != nil {
		return "", err
	}

	target := filepath.Join(s.dir, slug+format.Ext())

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeAtomic(target, data); err != nil {
		return "", err
	}
	return target, nil
}

// Delete removes the file holding the named template.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rel, _, err := s.find(name)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(rel))); err != nil {
		return fmt.Errorf("delete template %s: %w", name, err)
	}
	return nil
}

func writeAtomic(target string, data []byte) error {
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
