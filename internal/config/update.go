package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SetValue writes key (dotted for nested keys, e.g. "popup.width") into the
// config file at path, creating the file if needed. Other keys, comments and
// ordering are preserved. The resulting file must still validate.
func SetValue(path, key, value string) error {
	if _, ok := knownKeys()[key]; !ok {
		return fmt.Errorf("unknown config key '%s'", key)
	}

	var root yaml.Node
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &root); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if root.Kind == 0 {
		root = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return fmt.Errorf("invalid YAML document structure")
	}

	node := root.Content[0]
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping at document root")
	}

	parts := strings.Split(key, ".")
	for _, part := range parts[:len(parts)-1] {
		child := findMapValue(node, part)
		if child == nil {
			child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			node.Content = append(node.Content, scalar(part), child)
		}
		if child.Kind != yaml.MappingNode {
			return fmt.Errorf("'%s' is not a section", part)
		}
		node = child
	}

	leaf := parts[len(parts)-1]
	newValue := valueNode(key, value)
	if existing := findMapValue(node, leaf); existing != nil {
		newValue.HeadComment = existing.HeadComment
		newValue.LineComment = existing.LineComment
		*existing = *newValue
	} else {
		node.Content = append(node.Content, scalar(leaf), newValue)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if err := checkContent(buf.Bytes()); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// checkContent loads and validates YAML that is about to be written.
func checkContent(data []byte) error {
	tmp, err := os.CreateTemp("", "tmuxmon-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to check config: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to check config: %w", err)
	}
	tmp.Close()

	cfg, err := Load(tmp.Name())
	if err != nil {
		return err
	}
	return Validate(cfg)
}

// valueNode builds the YAML node for value. List keys take a comma
// separated value.
func valueNode(key, value string) *yaml.Node {
	if key == "clipboard.backends" {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				seq.Content = append(seq.Content, scalar(item))
			}
		}
		return seq
	}
	n := &yaml.Node{Kind: yaml.ScalarNode, Value: value}
	// Let YAML infer numbers and booleans; keep anything else a string.
	var probe interface{}
	if err := yaml.Unmarshal([]byte(value), &probe); err != nil {
		n.Tag = "!!str"
		return n
	}
	switch probe.(type) {
	case int, float64, bool:
	default:
		n.Tag = "!!str"
	}
	return n
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// Keys returns the settable config keys in display order.
func Keys() []string {
	return []string{
		"refresh_rate", "window_filter", "cpu_mode", "confirm_kill", "action_timeout",
		"popup.width", "popup.height", "clipboard.backends", "clipboard.timeout",
	}
}

func knownKeys() map[string]struct{} {
	keys := map[string]struct{}{}
	for _, k := range Keys() {
		keys[k] = struct{}{}
	}
	return keys
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return valueNode
		}
	}

	return nil
}

// fileConfig is Config as it is written to disk, with durations spelled out.
type fileConfig struct {
	Version       int         `yaml:"version"`
	RefreshRate   float64     `yaml:"refresh_rate"`
	WindowFilter  string      `yaml:"window_filter"`
	CPUMode       string      `yaml:"cpu_mode"`
	ConfirmKill   bool        `yaml:"confirm_kill"`
	ActionTimeout string      `yaml:"action_timeout"`
	Popup         PopupConfig `yaml:"popup"`
	Clipboard     struct {
		Backends []string `yaml:"backends,flow"`
		Timeout  string   `yaml:"timeout"`
	} `yaml:"clipboard"`
}

// Marshal renders cfg as YAML that Load reads back unchanged.
func Marshal(cfg *Config) ([]byte, error) {
	fc := fileConfig{
		Version:       cfg.Version,
		RefreshRate:   cfg.RefreshRate,
		WindowFilter:  cfg.WindowFilter,
		CPUMode:       cfg.CPUMode,
		ConfirmKill:   cfg.ConfirmKill,
		ActionTimeout: cfg.ActionTimeout.String(),
		Popup:         cfg.Popup,
	}
	fc.Clipboard.Backends = cfg.Clipboard.Backends
	fc.Clipboard.Timeout = cfg.Clipboard.Timeout.String()

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(fc); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()
	return buf.Bytes(), nil
}
