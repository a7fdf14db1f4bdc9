// Package bank loads quizzes from a directory of YAML or JSON files. Every
// file is validated against an embedded JSON schema before it is decoded into
// the domain model, so authoring mistakes surface with a path into the file.
package bank

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"quiz-assessment/internal/domain"
)

//go:embed quiz.schema.json
var quizSchemaJSON []byte

const schemaURL = "schema://quiz.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// Extensions lists the file suffixes recognised as quiz files, in lookup order.
var Extensions = []string{".yaml", ".yml", ".json"}

// Loader reads quizzes from dir. A quiz is stored in <id>.yaml, <id>.yml or
// <id>.json; an id inside the document must match the file name.
type Loader struct {
	dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

func (l *Loader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quizID == "" || strings.ContainsAny(quizID, `/\`) {
		return domain.Quiz{}, fmt.Errorf("%w: %q", domain.ErrQuizNotFound, quizID)
	}
	for _, ext := range Extensions {
		path := filepath.Join(l.dir, quizID+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return domain.Quiz{}, fmt.Errorf("read %s: %w", path, err)
		}
		return ParseFile(path, data)
	}
	return domain.Quiz{}, fmt.Errorf("%w: %s", domain.ErrQuizNotFound, quizID)
}

// LoadAll parses every quiz file in the directory, sorted by ID. It stops at
// the first invalid file.
func (l *Loader) LoadAll() ([]domain.Quiz, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}
	var quizzes []domain.Quiz
	for _, e := range entries {
		if e.IsDir() || !isQuizFile(e.Name()) {
			continue
		}
		path := filepath.Join(l.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		quiz, err := ParseFile(path, data)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].ID < quizzes[j].ID })
	return quizzes, nil
}

// ParseFile decodes, validates and checks one quiz file. YAML and JSON are
// told apart by the extension of path.
func ParseFile(path string, data []byte) (domain.Quiz, error) {
	var doc any
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return domain.Quiz{}, fmt.Errorf("%s: parse json: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return domain.Quiz{}, fmt.Errorf("%s: parse yaml: %w", path, err)
		}
	}

	// Normalise through JSON so YAML and JSON files validate the same way.
	normalised, err := json.Marshal(doc)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := Validate(normalised); err != nil {
		return domain.Quiz{}, fmt.Errorf("%s: %w", path, err)
	}

	var quiz domain.Quiz
	if err := json.Unmarshal(normalised, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("%s: decode quiz: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch quiz.ID {
	case "":
		quiz.ID = name
	case name:
	default:
		return domain.Quiz{}, fmt.Errorf("%s: %w: quiz id %q does not match file name", path, domain.ErrInvalidQuestion, quiz.ID)
	}
	if err := quiz.Check(); err != nil {
		return domain.Quiz{}, fmt.Errorf("%s: %w", path, err)
	}
	return quiz, nil
}

// Validate checks a JSON quiz document against the embedded schema.
// Violations wrap domain.ErrInvalidQuestion.
func Validate(raw []byte) error {
	schema, err := quizSchema()
	if err != nil {
		return err
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", domain.ErrInvalidQuestion, err)
	}
	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("%w: schema validation failed: %v", domain.ErrInvalidQuestion, err)
	}
	return nil
}

func quizSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var def any
		if err := json.Unmarshal(quizSchemaJSON, &def); err != nil {
			compileErr = fmt.Errorf("parse quiz schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

func isQuizFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
