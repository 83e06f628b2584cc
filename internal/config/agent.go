package config

import (
	"fmt"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	EnvAgentProviderName = "SNARE_AGENT_PROVIDER_NAME"
	EnvAgentBaseURL      = "SNARE_AGENT_BASE_URL"
	EnvAgentToken        = "SNARE_AGENT_TOKEN"
	EnvAgentDeployment   = "SNARE_AGENT_DEPLOYMENT"
	EnvAgentAPIVersion   = "SNARE_AGENT_API_VERSION"
	EnvAgentAuthType     = "SNARE_AGENT_AUTH_TYPE"
	EnvAgentModelName    = "SNARE_AGENT_MODEL_NAME"
)

const (
	defaultAgentName  = "snare"
	defaultAgentModel = "llama3.1"
)

// FinalizeAgent applies the finalize pattern to a go-agents AgentConfig:
// defaults from go-agents DefaultAgentConfig, environment variable
// overrides, and validation.
func FinalizeAgent(c *gaconfig.AgentConfig) error {
	loadAgentDefaults(c)
	loadAgentEnv(c)
	return validateAgent(c)
}

func loadAgentDefaults(c *gaconfig.AgentConfig) {
	defaults := gaconfig.DefaultAgentConfig()
	defaults.Name = defaultAgentName
	defaults.Model.Name = defaultAgentModel
	defaults.Merge(c)
	*c = defaults
}

func loadAgentEnv(c *gaconfig.AgentConfig) {
	if c.Provider.Options == nil {
		c.Provider.Options = make(map[string]any)
	}
	if v := os.Getenv(EnvAgentProviderName); v != "" {
		c.Provider.Name = v
	}
	if v := os.Getenv(EnvAgentBaseURL); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv(EnvAgentModelName); v != "" {
		c.Model.Name = v
	}

	setOption := func(envVar, key string) {
		if v := os.Getenv(envVar); v != "" {
			c.Provider.Options[key] = v
		}
	}

	setOption(EnvAgentToken, "token")
	setOption(EnvAgentDeployment, "deployment")
	setOption(EnvAgentAPIVersion, "api_version")
	setOption(EnvAgentAuthType, "auth_type")

	if _, ok := c.Provider.Options["auth_type"]; !ok {
		if _, ok := c.Provider.Options["token"]; ok {
			c.Provider.Options["auth_type"] = "bearer"
		}
	}
}

func validateAgent(c *gaconfig.AgentConfig) error {
	if c.Name == "" {
		return fmt.Errorf("name required")
	}
	if c.Provider.Name == "" {
		return fmt.Errorf("provider name required")
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider base_url required")
	}
	if c.Model.Name == "" {
		return fmt.Errorf("model name required")
	}
	return nil
}
