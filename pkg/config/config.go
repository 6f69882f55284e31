package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"
)

// Config is a merged, read-only configuration document.
type Config struct {
	lookupEnv func(string) (string, bool)
	envPrefix string
	raw       []byte
	files     []string
}

// Load reads paths in order and merges them.
// Files that do not exist are skipped; an empty result is a valid empty Config.
func Load(paths []string, opts ...Option) (*Config, error) {
	c := newConfig(opts...)

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, errors.Join(ErrReadFile, fmt.Errorf("%s: %w", p, err))
		}

		if isYAML(p) {
			if data, err = yamlToJSON(data); err != nil {
				return nil, errors.Join(ErrInvalidFile, fmt.Errorf("%s: %w", p, err))
			}
		}

		if err := c.merge(data); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		c.files = append(c.files, p)
	}

	return c, nil
}

// Parse builds a Config from a single JSON document.
func Parse(data []byte, opts ...Option) (*Config, error) {
	c := newConfig(opts...)
	if err := c.merge(data); err != nil {
		return nil, err
	}
	return c, nil
}

func newConfig(opts ...Option) *Config {
	c := &Config{
		raw:       []byte("{}"),
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// merge copies every top-level key of data over the current document.
func (c *Config) merge(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if !gjson.ValidBytes(data) {
		return ErrInvalidFile
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return ErrNotObject
	}

	var err error
	doc.ForEach(func(key, value gjson.Result) bool {
		c.raw, err = sjson.SetRawBytes(c.raw, gjson.Escape(key.String()), []byte(value.Raw))
		return err == nil
	})
	if err != nil {
		return errors.Join(ErrMerge, err)
	}

	return nil
}

// Files returns the files that were found and merged, in order.
func (c *Config) Files() []string {
	return c.files
}

// Raw returns the merged JSON document.
func (c *Config) Raw() []byte {
	return c.raw
}

// Get returns the value at a gjson path such as "twig.dir" or "db.read.0".
// A missing key yields a Result with Exists() == false.
func (c *Config) Get(path string) gjson.Result {
	if v, ok := c.env(path); ok {
		if gjson.Valid(v) {
			return gjson.Parse(v)
		}
		quoted, _ := json.Marshal(v)
		return gjson.Result{Type: gjson.String, Str: v, Raw: string(quoted)}
	}
	return gjson.GetBytes(c.raw, path)
}

// Has reports whether path is set.
func (c *Config) Has(path string) bool {
	return c.Get(path).Exists()
}

// String returns the value at path as a string, or def when missing.
func (c *Config) String(path, def string) string {
	v := c.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return def
	}
	return v.String()
}

// Bool returns the value at path as a bool. Missing keys are false.
func (c *Config) Bool(path string) bool {
	return c.Get(path).Bool()
}

// Int returns the value at path as an int, or def when missing.
func (c *Config) Int(path string, def int) int {
	v := c.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return def
	}
	return int(v.Int())
}

// Decode unmarshals the whole document into v using mapstructure tags.
// Environment overrides apply to every tagged field of v, including fields
// whose key is absent from the files.
func (c *Config) Decode(v any) error {
	vp, err := c.viper("", v)
	if err != nil {
		return err
	}
	if err := vp.Unmarshal(v); err != nil {
		return errors.Join(ErrDecode, err)
	}
	return nil
}

// DecodeKey unmarshals the value under key into v.
func (c *Config) DecodeKey(key string, v any) error {
	vp, err := c.viper(key, v)
	if err != nil {
		return err
	}
	if err := vp.UnmarshalKey(key, v); err != nil {
		return errors.Join(ErrDecode, fmt.Errorf("%s: %w", key, err))
	}
	return nil
}

// viper loads the document with environment overrides written into it,
// for the keys present in the files and for the keys target declares under
// prefix. Overrides become part of the document so a parent key decodes
// with both file and environment values.
func (c *Config) viper(prefix string, target any) (*viper.Viper, error) {
	raw := c.raw
	if c.envPrefix != "" {
		keys := gjsonKeys(gjson.ParseBytes(raw), "")
		if target != nil {
			keys = append(keys, fieldKeys(reflect.TypeOf(target), prefix)...)
		}
		for _, key := range keys {
			v, ok := c.env(key)
			if !ok {
				continue
			}
			patched, err := sjson.SetBytes(raw, key, envValue(v))
			if err != nil {
				return nil, errors.Join(ErrDecode, fmt.Errorf("%s: %w", key, err))
			}
			raw = patched
		}
	}

	vp := viper.New()
	vp.SetConfigType("json")
	if err := vp.ReadConfig(bytes.NewReader(raw)); err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	return vp, nil
}

// gjsonKeys lists the dotted paths of every value in doc, objects included.
func gjsonKeys(doc gjson.Result, prefix string) []string {
	if !doc.IsObject() {
		return nil
	}
	var keys []string
	doc.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if prefix != "" {
			key = prefix + "." + key
		}
		keys = append(keys, key)
		keys = append(keys, gjsonKeys(v, key)...)
		return true
	})
	return keys
}

// fieldKeys lists the dotted mapstructure keys of the leaf fields of t.
func fieldKeys(t reflect.Type, prefix string) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		if prefix == "" {
			return nil
		}
		return []string{prefix}
	}

	var keys []string
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = strings.ToLower(f.Name)
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		keys = append(keys, fieldKeys(f.Type, name)...)
	}
	return keys
}

// envValue decodes JSON literals (numbers, booleans, objects, arrays) and
// keeps anything else as a string, matching Get.
func envValue(raw string) any {
	if gjson.Valid(raw) {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return v
		}
	}
	return raw
}

func (c *Config) env(path string) (string, bool) {
	if c.envPrefix == "" {
		return "", false
	}
	name := c.envPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(path))
	return c.lookupEnv(name)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(normalizeYAML(doc))
}

// normalizeYAML turns map[any]any produced for non-string keys into
// map[string]any so the value can be encoded as JSON.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[keyString(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	}
	return v
}

func keyString(k any) string {
	switch t := k.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	}
	return fmt.Sprint(k)
}
