package templates

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// DefaultCacheSize bounds the number of parsed templates kept in memory.
const DefaultCacheSize = 64

// typeName restricts template types to plain file-name characters.
var typeName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Store loads templates of one Kind from a directory. Safe for concurrent use.
type Store struct {
	kind      Kind
	dir       string
	cacheSize int
	cache     *lru.Cache[string, *Template]
	log       zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for parse warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithCacheSize overrides DefaultCacheSize.
func WithCacheSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.cacheSize = n
		}
	}
}

// NewStore creates a Store for kind reading from dir. The directory is not
// required to exist: a Spec store still serves its built-in defaults.
func NewStore(kind Kind, dir string, opts ...Option) (*Store, error) {
	if kind != KindPRD && kind != KindSpec {
		return nil, fmt.Errorf("unknown template kind %q", kind)
	}
	s := &Store{
		kind:      kind,
		dir:       dir,
		cacheSize: DefaultCacheSize,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	cache, err := lru.New[string, *Template](s.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating template cache: %w", err)
	}
	s.cache = cache
	return s, nil
}

// Kind returns the template family served by the store.
func (s *Store) Kind() Kind { return s.kind }

// Load returns the template for templateType. For Spec stores a missing or
// broken file yields the built-in default (the api default for unrecognized
// types); for PRD stores it yields false.
func (s *Store) Load(templateType string) (*Template, bool) {
	if t, ok := s.cache.Get(templateType); ok {
		return t, true
	}

	if typeName.MatchString(templateType) {
		t, err := s.readFile(templateType)
		switch {
		case err == nil:
			s.cache.Add(templateType, t)
			return t, true
		case errors.Is(err, os.ErrNotExist):
		default:
			s.log.Warn().Err(err).
				Str("kind", string(s.kind)).
				Str("template_type", templateType).
				Msg("template file unreadable, ignoring")
		}
	}

	if s.kind == KindSpec {
		return defaultSpecTemplate(templateType), true
	}
	return nil, false
}

// readFile parses <type>-<kind>.json, then .yaml, then .yml.
func (s *Store) readFile(templateType string) (*Template, error) {
	base := filepath.Join(s.dir, templateType+"-"+string(s.kind))

	if data, err := os.ReadFile(base + ".json"); err == nil {
		return parseJSON(data)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading %s.json: %w", base, err)
	}

	for _, ext := range []string{".yaml", ".yml"} {
		data, err := os.ReadFile(base + ext)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s%s: %w", base, ext, err)
		}
		return parseYAML(data)
	}
	return nil, os.ErrNotExist
}

// jsonTemplate keeps sections raw so they can be walked key by key.
type jsonTemplate struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	TemplateType string          `json:"templateType"`
	Sections     json.RawMessage `json:"sections"`
}

func parseJSON(data []byte) (*Template, error) {
	var raw jsonTemplate
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing template json: %w", err)
	}

	t := &Template{
		Name:         raw.Name,
		Description:  raw.Description,
		TemplateType: raw.TemplateType,
		Sections:     orderedmap.New[string, Section](),
	}
	body := bytes.TrimSpace(raw.Sections)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return t, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("parsing template json: sections must be an object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing template json: %w", err)
		}
		key := tok.(string)
		if _, dup := t.Sections.Get(key); dup {
			return nil, fmt.Errorf("parsing template json: duplicate section %q", key)
		}
		var sec Section
		if err := dec.Decode(&sec); err != nil {
			return nil, fmt.Errorf("parsing template json: section %q: %w", key, err)
		}
		t.Sections.Set(key, sec)
	}
	return t, nil
}

// yamlTemplate keeps sections as a raw node so their order survives decoding.
type yamlTemplate struct {
	Name         string    `yaml:"name"`
	Description  string    `yaml:"description"`
	TemplateType string    `yaml:"templateType"`
	Sections     yaml.Node `yaml:"sections"`
}

func parseYAML(data []byte) (*Template, error) {
	var raw yamlTemplate
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing template yaml: %w", err)
	}

	t := &Template{
		Name:         raw.Name,
		Description:  raw.Description,
		TemplateType: raw.TemplateType,
		Sections:     orderedmap.New[string, Section](),
	}

	node := raw.Sections
	if node.Kind == 0 {
		return t, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parsing template yaml: sections must be a mapping (line %d)", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if _, dup := t.Sections.Get(key); dup {
			return nil, fmt.Errorf("parsing template yaml: duplicate section %q (line %d)", key, node.Content[i].Line)
		}
		var sec Section
		if err := node.Content[i+1].Decode(&sec); err != nil {
			return nil, fmt.Errorf("parsing template yaml: section %q: %w", key, err)
		}
		t.Sections.Set(key, sec)
	}
	return t, nil
}

// AvailableTypes lists template types on disk, plus the built-in Spec types
// for Spec stores. The result is sorted and free of duplicates.
func (s *Store) AvailableTypes() []string {
	seen := map[string]bool{}
	if s.kind == KindSpec {
		for _, t := range DefaultSpecTypes {
			seen[t] = true
		}
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn().Err(err).Str("dir", s.dir).Msg("listing templates")
	}
	suffix := "-" + string(s.kind)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}
		stem := strings.TrimSuffix(name, ext)
		if !strings.HasSuffix(stem, suffix) {
			continue
		}
		if t := strings.TrimSuffix(stem, suffix); t != "" {
			seen[t] = true
		}
	}

	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Sections returns a copy of the template's sections; empty when absent.
func (s *Store) Sections(templateType string) *Sections {
	t, ok := s.Load(templateType)
	if !ok {
		return orderedmap.New[string, Section]()
	}
	return copySections(t.Sections)
}

// RequiredSections returns the keys of required sections.
func (s *Store) RequiredSections(templateType string) []string {
	t, _ := s.Load(templateType)
	return t.RequiredKeys()
}

// SectionPrompts returns the guiding prompts of one section.
func (s *Store) SectionPrompts(templateType, key string) []string {
	t, ok := s.Load(templateType)
	if !ok {
		return nil
	}
	sec, ok := t.Sections.Get(key)
	if !ok {
		return nil
	}
	return append([]string(nil), sec.Prompts...)
}

// Info describes the template; the zero Info when it does not exist.
func (s *Store) Info(templateType string) Info {
	t, ok := s.Load(templateType)
	if !ok {
		return Info{}
	}
	tt := t.TemplateType
	if tt == "" {
		tt = templateType
	}
	return Info{
		Name:             t.Name,
		Description:      t.Description,
		TemplateType:     tt,
		Sections:         t.Keys(),
		RequiredSections: t.RequiredKeys(),
	}
}

// Validate checks that every required section has non-blank content in data.
func (s *Store) Validate(templateType string, data map[string]string) ValidationResult {
	t, ok := s.Load(templateType)
	if !ok {
		return ValidationResult{
			Errors:          []string{fmt.Sprintf("Template %s not found", templateType)},
			MissingRequired: []string{},
		}
	}

	missing := []string{}
	for p := t.Sections.Oldest(); p != nil; p = p.Next() {
		if !p.Value.Required {
			continue
		}
		if strings.TrimSpace(data[p.Key]) == "" {
			title := p.Value.Title
			if title == "" {
				title = p.Key
			}
			missing = append(missing, title)
		}
	}

	res := ValidationResult{Errors: []string{}, MissingRequired: missing}
	if len(missing) > 0 {
		res.Errors = append(res.Errors, "Missing required sections: "+strings.Join(missing, ", "))
	}
	res.IsValid = len(res.Errors) == 0
	return res
}
