package router

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SmallTalk maps a trigger phrase to a canned reply.
type SmallTalk struct {
	Phrase string `yaml:"phrase"`
	Reply  string `yaml:"reply"`
}

// PrefixTool routes input starting with Prefix to Tool.
type PrefixTool struct {
	Prefix string `yaml:"prefix"`
	Tool   string `yaml:"tool"`
}

// Config holds the router tables. Order within each table is priority order.
type Config struct {
	ExitWords    []string     `yaml:"exit_words"`
	SmallTalk    []SmallTalk  `yaml:"small_talk"`
	PrefixTools  []PrefixTool `yaml:"prefix_tools"`
	KeywordTools []string     `yaml:"keyword_tools"`
}

func DefaultConfig() Config {
	return Config{
		ExitWords: []string{"exit", "quit"},
		SmallTalk: []SmallTalk{
			{Phrase: "how are you", Reply: "Running smooth at 24 frames per second. What are we animating today?"},
			{Phrase: "who are you", Reply: "I'm Frames AI. I help build storyboards and turn sprites into poses and motion."},
			{Phrase: "thank you", Reply: "Anytime! Ping me when the next scene is ready."},
		},
		PrefixTools: []PrefixTool{
			{Prefix: "calc", Tool: "calc"},
		},
		KeywordTools: []string{"pixelate", "walk", "run", "sit", "jump", "turn"},
	}
}

// Merge replaces each table of c that source sets. Tables are replaced
// wholesale so a file can also shrink a default table.
func (c *Config) Merge(source *Config) {
	if source.ExitWords != nil {
		c.ExitWords = source.ExitWords
	}
	if source.SmallTalk != nil {
		c.SmallTalk = source.SmallTalk
	}
	if source.PrefixTools != nil {
		c.PrefixTools = source.PrefixTools
	}
	if source.KeywordTools != nil {
		c.KeywordTools = source.KeywordTools
	}
}

// LoadConfig reads a YAML router file and merges it over the defaults.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read router config: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse router config: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
