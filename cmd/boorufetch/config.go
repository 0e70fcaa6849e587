package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"boorufetch/pkg/config"
	"boorufetch/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage boorufetch configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'boorufetch.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources:
  - Command line flags
  - Environment variables
  - Configuration file
  - Default values

Sensitive values like the API key will be masked for security.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Required fields
  - Value types and ranges
  - Path accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = "boorufetch.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# boorufetch Configuration File
#
# This file contains all available configuration options.
# You can also use environment variables prefixed with BOORUFETCH_
# For example: BOORUFETCH_USERNAME, BOORUFETCH_API_KEY

# Board connection
booru:
  # Board URL
  base_url: "https://danbooru.donmai.us"

  # Board username (optional, anonymous access works at a lower rate)
  username: ""

  # API key from your profile settings (optional)
  api_key: ""

  # User agent string (optional)
  # Leave empty to use default
  user_agent: ""

# Rate limiting configuration
rate_limit:
  # Requests per minute
  requests_per_minute: 60

  # Burst size (number of requests allowed in burst)
  burst_size: 5

  # Maximum number of retry attempts per asset
  max_retries: 5

# Listing configuration
retrieval:
  # Posts per listing page (board maximum is 200)
  page_size: 200

  # Successive listing errors before a page is skipped
  successive_error_limit: 5

  # Below this post count an ordered listing with an ID filter is used
  order_by_id_threshold: 10000

# Output configuration
output:
  # Root directory for acquisitions
  base_directory: "./outputs"

  # Default tag list file for batch runs
  tag_list_file: "./inputs/tags.txt"

  # Keep a manifest.txt of acquired IDs next to the files
  write_manifest: true

# Download configuration
download:
  # Number of concurrent downloads
  concurrent_downloads: 4

  # File extensions that are never fetched (e.g. ["zip", "swf"])
  forbidden_extensions: []

  # Compare extensions case-sensitively
  extension_match_case_sensitive: false

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional)
  # Leave empty to log to stderr only
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the configuration file, or run 'boorufetch auth login' for credentials")
	fmt.Println("2. Run 'boorufetch config validate' to check the configuration")
	fmt.Println("3. Start downloading with 'boorufetch fetch <tag>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Create a sanitized version for display
	displayCfg := *cfg

	if displayCfg.Booru.APIKey != "" {
		if len(displayCfg.Booru.APIKey) > 8 {
			displayCfg.Booru.APIKey = displayCfg.Booru.APIKey[:4] + "..." + displayCfg.Booru.APIKey[len(displayCfg.Booru.APIKey)-4:]
		} else {
			displayCfg.Booru.APIKey = "***"
		}
	}

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (BOORUFETCH_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile == "" {
		// Try to find config file in common locations
		possiblePaths := []string{
			"boorufetch.yaml",
			"boorufetch.yml",
			".boorufetch.yaml",
			".boorufetch.yml",
			filepath.Join(os.Getenv("HOME"), ".boorufetch.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "boorufetch", "config.yaml"),
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			os.Exit(1)
		}
	}

	ui.PrintInfo("Validating configuration", configFile)

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	warnings := []string{}
	errors := []string{}

	if cfg.Booru.Username == "" || cfg.Booru.APIKey == "" {
		warnings = append(warnings, "no credentials configured, fetching will be anonymous")
	}

	if cfg.Output.BaseDirectory != "" {
		if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create output directory: %v", err))
		}
	}

	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if len(errors) > 0 {
		ui.PrintError("Configuration has errors:", "")
		for _, err := range errors {
			fmt.Printf("  - %s\n", err)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:", "")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Board: %s\n", cfg.Booru.BaseURL)
	fmt.Printf("  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Printf("  Concurrent downloads: %d\n", cfg.Download.ConcurrentDownloads)
	fmt.Printf("  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Printf("  Max retries: %d\n", cfg.RateLimit.MaxRetries)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}