// Package fixture loads canned streaming requests from YAML files. A fixture
// file holds one or more YAML documents, each describing a request and,
// optionally, the outcome it is expected to produce.
package fixture

import (
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/chunkstream"
	"github.com/fwojciec/chunkstream/json"
	"gopkg.in/yaml.v3"
)

// Fixture is one request loaded from a file.
type Fixture struct {
	Name    string // file path without extension, plus "#n" for documents after the first
	Request chunkstream.Request
	Expect  *Expectation
}

// Expectation is the outcome a fixture's request should produce when
// collected.
type Expectation struct {
	Text   string `yaml:"text"`
	Status string `yaml:"status"`
}

type document struct {
	ID      string          `yaml:"id"`
	Prompt  string          `yaml:"prompt"`
	Options json.OptionsDTO `yaml:"options"`
	Expect  *Expectation    `yaml:"expect"`
}

// Load reads every file in fsys matching the doublestar pattern. Files are
// visited in lexical order.
func Load(fsys iofs.FS, pattern string) ([]Fixture, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid fixture pattern %q", pattern)
	}
	var paths []string
	err := doublestar.GlobWalk(fsys, pattern, func(p string, d iofs.DirEntry) error {
		if !d.IsDir() {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("match fixtures: %w", err)
	}
	slices.Sort(paths)

	var fixtures []Fixture
	for _, p := range paths {
		loaded, err := loadFile(fsys, p)
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, loaded...)
	}
	return fixtures, nil
}

// LoadDir is Load over os.DirFS(dir).
func LoadDir(dir, pattern string) ([]Fixture, error) {
	return Load(os.DirFS(dir), pattern)
}

// Requests returns the requests of fs in order.
func Requests(fs []Fixture) []chunkstream.Request {
	reqs := make([]chunkstream.Request, len(fs))
	for i, f := range fs {
		reqs[i] = f.Request
	}
	return reqs
}

func loadFile(fsys iofs.FS, p string) ([]Fixture, error) {
	f, err := fsys.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	base := strings.TrimSuffix(p, path.Ext(p))
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var fixtures []Fixture
	for i := 0; ; i++ {
		var doc document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: decode document %d: %w", p, i, err)
		}
		opts, err := doc.Options.Options()
		if err != nil {
			return nil, fmt.Errorf("%s: document %d: %w", p, i, err)
		}
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s#%d", base, i)
		}
		fixtures = append(fixtures, Fixture{
			Name:    name,
			Request: chunkstream.Request{ID: doc.ID, Prompt: doc.Prompt, Options: opts},
			Expect:  doc.Expect,
		})
	}
	return fixtures, nil
}
