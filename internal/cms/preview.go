package cms

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const previewFile = "home/preview.yaml"

// Word is a vocabulary card in the preview.
type Word struct {
	Japanese      string `yaml:"japanese"`
	Speak         string `yaml:"speak"`
	Pronunciation string `yaml:"pronunciation"`
	Meaning       string `yaml:"meaning"`
	Example       string `yaml:"example"`
}

// SpeakText returns the text sent to TTS, defaulting to the Japanese form.
func (w Word) SpeakText() string { return firstNonEmpty(w.Speak, w.Japanese) }

// Conversation is one sample exchange.
type Conversation struct {
	Situation     string `yaml:"situation"`
	Japanese      string `yaml:"japanese"`
	Pronunciation string `yaml:"pronunciation"`
	Korean        string `yaml:"korean"`
}

// Culture is a short cultural note; Body is markdown.
type Culture struct {
	Title    string        `yaml:"title"`
	Body     string        `yaml:"body"`
	BodyHTML template.HTML `yaml:"-"`
}

// Dialect pairs a regional expression with its standard form.
type Dialect struct {
	Region   string `yaml:"region"`
	Dialect  string `yaml:"dialect"`
	Speak    string `yaml:"speak"`
	Standard string `yaml:"standard"`
	Meaning  string `yaml:"meaning"`
}

// SpeakText returns the text sent to TTS.
func (d Dialect) SpeakText() string { return firstNonEmpty(d.Speak, d.Dialect) }

// PreviewTab is one tab of the home page sample preview.
type PreviewTab struct {
	Key           string         `yaml:"key"`
	Label         string         `yaml:"label"`
	Heading       string         `yaml:"heading"`
	Words         []Word         `yaml:"words"`
	Conversations []Conversation `yaml:"conversations"`
	Culture       *Culture       `yaml:"culture"`
	Dialects      []Dialect      `yaml:"dialects"`
}

// Preview is the ordered set of sample tabs.
type Preview struct {
	Tabs []PreviewTab `yaml:"tabs"`
}

// Tab returns the tab for key, or the first tab when key is empty.
func (p Preview) Tab(key string) (PreviewTab, bool) {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" && len(p.Tabs) > 0 {
		return p.Tabs[0], true
	}
	for _, t := range p.Tabs {
		if t.Key == key {
			return t, true
		}
	}
	return PreviewTab{}, false
}

// Preview loads the home preview definition.
func (s *Store) Preview(_ context.Context) (Preview, error) {
	s.mu.RLock()
	entry := s.preview
	s.mu.RUnlock()
	if entry != nil && !s.now().After(entry.expires) {
		return entry.preview, nil
	}

	p, err := s.readPreview()
	if err != nil {
		return Preview{}, err
	}
	s.mu.Lock()
	s.preview = &previewEntry{preview: p, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return p, nil
}

func (s *Store) readPreview() (Preview, error) {
	file := filepath.Join(s.dir, filepath.FromSlash(previewFile))
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Preview{}, ErrNotFound
		}
		return Preview{}, err
	}
	var p Preview
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preview{}, fmt.Errorf("cms: parse %s: %w", file, err)
	}
	for i := range p.Tabs {
		p.Tabs[i].Key = strings.TrimSpace(strings.ToLower(p.Tabs[i].Key))
		if c := p.Tabs[i].Culture; c != nil {
			html, err := RenderMarkdown(c.Body)
			if err != nil {
				return Preview{}, fmt.Errorf("cms: render culture %s: %w", p.Tabs[i].Key, err)
			}
			c.BodyHTML = html
		}
	}
	return p, nil
}

type previewEntry struct {
	preview Preview
	expires time.Time
}
