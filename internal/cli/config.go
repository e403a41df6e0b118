package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/evidentia/internal/model"
)

// configHierarchy is shown anywhere the config layering needs explaining.
const configHierarchy = `Configuration hierarchy (highest to lowest priority):
  1. CLI flags
  2. Environment variables (EVIDENTIA_*, OPENAI_API_KEY, ANTHROPIC_API_KEY)
  3. Config file (~/.evidentia/config.yaml)
  4. Defaults`

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Evidentia configuration",
	Long:  "Manage Evidentia configuration files and settings.\n\n" + configHierarchy,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging the config file over the defaults.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if file := viper.ConfigFileUsed(); file != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", file)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		rendered, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("render config: %w", err)
		}

		banner(os.Stdout, "Current Configuration")
		fmt.Printf("\n%s\n", rendered)
		fmt.Println(configHierarchy)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.evidentia/config.yaml with all available options.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("find home directory: %w", err)
		}
		path := filepath.Join(home, ".evidentia", "config.yaml")

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s\nview it with 'evidentia config show', or delete it first to recreate", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		content, err := renderDefaultConfig()
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, content, 0644); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		fmt.Printf("✓ Created default configuration: %s\n\n", path)
		fmt.Printf("View it with 'evidentia config show', or edit it directly:\n")
		fmt.Printf("  $EDITOR %s\n\n", path)
		return nil
	},
}

// renderDefaultConfig produces the annotated YAML written by config init
func renderDefaultConfig() ([]byte, error) {
	body, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# Evidentia configuration.\n")
	buf.WriteString("# Values here override the built-in defaults; flags and\n")
	buf.WriteString("# EVIDENTIA_* environment variables override values here.\n\n")
	buf.Write(body)
	buf.WriteString("\n# API keys are better kept in the environment:\n")
	buf.WriteString("#   export OPENAI_API_KEY=sk-...\n")
	buf.WriteString("#   export ANTHROPIC_API_KEY=sk-ant-...\n")
	buf.WriteString("#   export OLLAMA_BASE_URL=http://localhost:11434\n")
	return buf.Bytes(), nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
