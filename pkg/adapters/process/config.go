package process

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/scout/pkg/domain"
)

// toolName matches names every model provider accepts for function calls.
var toolName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ToolConfig declares one allow-listed command offered to the model as a tool.
type ToolConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
	// Group is jobs (scrapers for the entry agent) or web (page readers for the planner).
	Group string `yaml:"group" json:"group"`
	// Parameters is an optional JSON schema for the tool arguments.
	Parameters map[string]any `yaml:"parameters" json:"parameters"`
}

func (c *ToolConfig) normalize() error {
	var errs []error
	if !toolName.MatchString(c.Name) {
		errs = append(errs, fmt.Errorf("name %q must be 1-64 letters, digits, '_' or '-'", c.Name))
	}
	if c.Command == "" {
		errs = append(errs, errors.New("command is required"))
	}
	switch c.Group {
	case "":
		c.Group = domain.ToolGroupJobs
	case domain.ToolGroupJobs, domain.ToolGroupWeb:
	default:
		errs = append(errs, fmt.Errorf("group %q is neither %s nor %s", c.Group, domain.ToolGroupJobs, domain.ToolGroupWeb))
	}
	if c.Parameters != nil {
		if t, _ := c.Parameters["type"].(string); t != "object" {
			errs = append(errs, errors.New(`parameters must be a JSON schema of type "object"`))
		}
	}
	return errors.Join(errs...)
}

// LoadTools reads tools.yaml (or a .json file of the same shape) keyed by tool
// name. A missing file means no tools are configured. Every invalid entry is
// reported, not just the first.
func LoadTools(path string) (map[string]ToolConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]ToolConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tools config: %w", err)
	}

	var file struct {
		Tools []ToolConfig `yaml:"tools" json:"tools"`
	}
	decode := yaml.Unmarshal
	if strings.EqualFold(filepath.Ext(path), ".json") {
		decode = json.Unmarshal
	}
	if err := decode(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	tools := make(map[string]ToolConfig, len(file.Tools))
	var errs []error
	for i, tool := range file.Tools {
		if err := tool.normalize(); err != nil {
			errs = append(errs, fmt.Errorf("tools[%d]: %w", i, err))
			continue
		}
		if _, dup := tools[tool.Name]; dup {
			errs = append(errs, fmt.Errorf("tools[%d]: %s is declared twice", i, tool.Name))
			continue
		}
		tools[tool.Name] = tool
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return tools, nil
}
