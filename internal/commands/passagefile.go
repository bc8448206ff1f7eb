package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/mind-engage/ielts-studio/internal/passage"
	"github.com/mind-engage/ielts-studio/internal/zones"
)

// PassageFile is the on-disk YAML form of a passage.
type PassageFile struct {
	ID               string `yaml:"id,omitempty" json:"id,omitempty"`
	Kind             string `yaml:"kind" json:"kind"`
	Title            string `yaml:"title" json:"title"`
	Content          string `yaml:"content" json:"content"`
	HighlightContent string `yaml:"highlight_content,omitempty" json:"highlight_content,omitempty"`
}

func (pf PassageFile) Text() zones.DualText {
	return zones.DualText{Primary: pf.Content, Highlight: pf.HighlightContent}
}

func (pf PassageFile) WithText(dt zones.DualText) PassageFile {
	pf.Content, pf.HighlightContent = dt.Primary, dt.Highlight
	return pf
}

func (pf PassageFile) Passage() passage.Passage {
	return passage.Passage{
		ID:               pf.ID,
		Kind:             passage.Kind(pf.Kind),
		Title:            pf.Title,
		Content:          pf.Content,
		HighlightContent: pf.HighlightContent,
	}
}

func ReadPassageFile(path string) (PassageFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PassageFile{}, fmt.Errorf("read passage file: %w", err)
	}
	var pf PassageFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return PassageFile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return pf, nil
}

// WritePassageFile replaces path atomically.
func WritePassageFile(path string, pf PassageFile) error {
	data, err := yaml.Marshal(pf)
	if err != nil {
		return fmt.Errorf("encode passage file: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".zonectl-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// expandPatterns resolves doublestar globs ("passages/**/*.yaml") into a
// sorted, de-duplicated file list. A pattern matching nothing is an error.
func expandPatterns(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, errors.New("at least one file or pattern is required")
	}
	var out []string
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", p)
		}
		out = append(out, matches...)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
