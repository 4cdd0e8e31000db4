package views

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
)

// Format is an artifact encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the encoding from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", apperr.InvalidArgument("output %s: unsupported extension, use .json, .yaml or .yml", path)
}

// Encode serializes doc.
func Encode(doc Document, f Format) ([]byte, error) {
	var buf bytes.Buffer
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
	default:
		return nil, apperr.InvalidArgument("unknown format %q", f)
	}
	return buf.Bytes(), nil
}

// Write encodes doc by the extension of path and writes it.
func Write(fs afero.Fs, path string, doc Document) error {
	f, err := FormatForPath(path)
	if err != nil {
		return err
	}
	data, err := Encode(doc, f)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// measureSet is the YAML shape of a measure set file.
type measureSet struct {
	Measures []string `yaml:"measures"`
}

// ReadMeasureSet reads measure references from path. A .yaml/.yml file is
// either a list or a mapping with a measures list; anything else holds one
// reference per line with '#' comments.
func ReadMeasureSet(fs afero.Fs, path string) ([]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, apperr.NewLoadError(path, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var refs []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var list []string
		if err := yaml.Unmarshal(data, &list); err != nil {
			var set measureSet
			if err2 := yaml.Unmarshal(data, &set); err2 != nil {
				return nil, apperr.NewLoadError(path, err)
			}
			list = set.Measures
		}
		for _, r := range list {
			if r = strings.TrimSpace(r); r != "" {
				refs = append(refs, r)
			}
		}
	default:
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			refs = append(refs, strings.Trim(line, `"'`))
		}
		if err := sc.Err(); err != nil {
			return nil, apperr.NewLoadError(path, err)
		}
	}
	if len(refs) == 0 {
		return nil, apperr.InvalidArgument("measure set %s is empty", path)
	}
	return refs, nil
}
