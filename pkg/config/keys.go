package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Errors returned by Get and Set.
var (
	ErrUnknownKey   = errors.New("unknown configuration key")
	ErrInvalidValue = errors.New("invalid configuration value")
)

func toMap(cfg *ServerConfiguration) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Get returns the value at a dotted key such as "server.port".
func Get(cfg *ServerConfiguration, key string) (any, error) {
	m, err := toMap(cfg)
	if err != nil {
		return nil, err
	}

	var cur any = m
	for _, part := range strings.Split(key, ".") {
		section, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		if cur, ok = section[part]; !ok {
			if optionalKeys[key] {
				return "", nil
			}
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
	}
	return cur, nil
}

// Set parses raw as a YAML scalar and stores it at a dotted key. The value
// must fit the type of the field.
func Set(cfg *ServerConfiguration, key, raw string) error {
	m, err := toMap(cfg)
	if err != nil {
		return err
	}

	parts := strings.Split(key, ".")
	section := m
	for _, part := range parts[:len(parts)-1] {
		next, ok := section[part].(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		section = next
	}
	leaf := parts[len(parts)-1]
	if _, ok := section[leaf]; !ok && !optionalKeys[key] {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return fmt.Errorf("%w for %s: %v", ErrInvalidValue, key, err)
	}
	section[leaf] = value

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w for %s: %v", ErrInvalidValue, key, err)
	}
	updated := *cfg
	if err := json.Unmarshal(data, &updated); err != nil {
		return fmt.Errorf("%w for %s: %v", ErrInvalidValue, key, err)
	}
	*cfg = updated
	return nil
}

// optionalKeys are omitted from the encoded form when empty.
var optionalKeys = map[string]bool{
	"logging.file": true,
}

// Keys returns every dotted key, sorted.
func Keys() []string {
	m, _ := toMap(Default())
	var keys []string
	for section, v := range m {
		fields, ok := v.(map[string]any)
		if !ok {
			continue
		}
		for field := range fields {
			keys = append(keys, section+"."+field)
		}
	}
	for k := range optionalKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
