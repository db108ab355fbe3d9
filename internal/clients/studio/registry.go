package studio

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// The registry maps agent keys to the IDs provisioned in the studio. IDs come
// from STUDIO_AGENTS_FILE (YAML) when set, with STUDIO_AGENT_<KEY> env vars
// overriding individual entries.
type agentsFile struct {
	Agents map[string]string `yaml:"agents"`
}

func loadAgentRegistry() (map[AgentKey]string, error) {
	agents := make(map[AgentKey]string)

	if path := strings.TrimSpace(os.Getenv("STUDIO_AGENTS_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read agents file: %w", err)
		}
		var parsed agentsFile
		if err := yaml.Unmarshal(raw, &parsed); err != nil {
			return nil, fmt.Errorf("parse agents file: %w", err)
		}
		for key, id := range parsed.Agents {
			agents[AgentKey(key)] = strings.TrimSpace(id)
		}
	}

	for _, key := range []AgentKey{
		AgentNewsTopicSelector,
		AgentNewsSourcer,
		AgentFormatNewsLinkedIn,
		AgentFormatNewsTwitter,
		AgentManufacturingMetrics,
		AgentManufacturingModels,
		AgentFormatSource,
	} {
		envName := "STUDIO_AGENT_" + strings.ToUpper(string(key))
		if v := strings.TrimSpace(os.Getenv(envName)); v != "" {
			agents[key] = v
		}
	}

	return agents, nil
}
