// Package source loads raw menu trees from files or remote services.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mchmarny/menugate/pkg/menu"
)

// ErrUnsuccessful is returned when an envelope reports success: false.
var ErrUnsuccessful = errors.New("menu source reported failure")

// Source provides a raw, unresolved menu.
type Source interface {
	Load(ctx context.Context) (*menu.Menu, error)
}

// LoadObserver is told about every load. *metric.Recorder implements it.
type LoadObserver interface {
	ObserveLoad(kind string, err error)
}

// Format is the encoding of a menu document.
type Format int

const (
	JSON Format = iota
	YAML
)

// FormatFor picks the format from a file name or URL path.
func FormatFor(name string) Format {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return YAML
	}
	return JSON
}

// document accepts a Menu object or a {success, data} envelope.
type document struct {
	Success   *bool       `json:"success" yaml:"success"`
	Message   string      `json:"message" yaml:"message"`
	Data      []menu.Node `json:"data" yaml:"data"`
	menu.Menu `yaml:",inline"`
}

// Decode parses a menu document. It may be a bare list of nodes, a Menu
// object with "items", or an envelope whose "data" holds the nodes.
// The decoded tree is validated.
func Decode(b []byte, f Format) (*menu.Menu, error) {
	var (
		m   *menu.Menu
		err error
	)

	switch f {
	case YAML:
		m, err = decodeYAML(b)
	default:
		m, err = decodeJSON(b)
	}
	if err != nil {
		return nil, err
	}

	if err := menu.Validate(m.Items); err != nil {
		return nil, fmt.Errorf("invalid menu: %w", err)
	}

	return m, nil
}

func decodeJSON(b []byte) (*menu.Menu, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return nil, errors.New("empty menu document")
	}

	if trimmed[0] == '[' {
		var items []menu.Node
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode json menu: %w", err)
		}
		return &menu.Menu{Items: items}, nil
	}

	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode json menu: %w", err)
	}

	return doc.menu()
}

func decodeYAML(b []byte) (*menu.Menu, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(b, &root); err != nil {
		return nil, fmt.Errorf("decode yaml menu: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, errors.New("empty menu document")
	}

	body := root.Content[0]
	if body.Kind == yaml.SequenceNode {
		var items []menu.Node
		if err := body.Decode(&items); err != nil {
			return nil, fmt.Errorf("decode yaml menu: %w", err)
		}
		return &menu.Menu{Items: items}, nil
	}

	var doc document
	if err := body.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml menu: %w", err)
	}

	return doc.menu()
}

func (d document) menu() (*menu.Menu, error) {
	if d.Success != nil && !*d.Success {
		if d.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrUnsuccessful, d.Message)
		}
		return nil, ErrUnsuccessful
	}

	m := d.Menu
	if d.Data != nil {
		m.Items = d.Data
	}

	return &m, nil
}

// Config selects and tunes a source.
type Config struct {
	// Location is a file path or an http(s) URL.
	Location string

	// Token is sent as a bearer token to remote sources.
	Token string

	// Timeout bounds a remote fetch. Zero means no timeout.
	Timeout time.Duration

	// TTL caches loads. Zero disables caching.
	TTL time.Duration

	// Observer is notified of every underlying load. May be nil.
	Observer LoadObserver
}

// New builds the source described by cfg.
func New(cfg Config) (Source, error) {
	if cfg.Location == "" {
		return nil, errors.New("source location is required")
	}

	var src Source
	if strings.HasPrefix(cfg.Location, "http://") || strings.HasPrefix(cfg.Location, "https://") {
		src = &HTTP{URL: cfg.Location, Token: cfg.Token, Timeout: cfg.Timeout, Observer: cfg.Observer}
	} else {
		src = &File{Path: cfg.Location, Observer: cfg.Observer}
	}

	if cfg.TTL > 0 {
		return NewCached(src, cfg.TTL), nil
	}

	return src, nil
}
