package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"apodget/pkg/config"
	errs "apodget/pkg/errors"
)

// defaultConfigPath is where 'config init' writes when --config is not given
const defaultConfigPath = ".apodget.yaml"

const exampleConfig = `# apodget configuration file
#
# Values can also be set with environment variables prefixed with APODGET_,
# for example APODGET_TIMEOUT=30s or APODGET_MAX_ATTEMPTS=10.
# Precedence: flags > environment (.env included) > this file > defaults.

# Where pages live and how they are scraped.
# The selectors follow the site's markup and may need updating if it changes.
apod:
  # {{DATE}} is replaced with the date as YYMMDD
  page_url_template: "http://apod.nasa.gov/apod/ap{{DATE}}.html"

  # Relative image sources are resolved against this URL
  image_base_url: "http://apod.nasa.gov/apod/"

  # The first element matching this selector supplies the image
  image_selector: "img"

  # Paragraph holding the explanation
  description_selector: "body > p:nth-child(3)"

  user_agent: "apodget/1.0 (+https://apod.nasa.gov/apod/)"

http:
  # Timeout for each request
  timeout: 15s

# Random mode
random:
  # Dates to try before giving up
  max_attempts: 5

  # Pause between attempts
  retry_delay: 0s

output:
  # The download directory is only ever taken from --download <dir>.

  # File name used when the image URL has no usable last segment
  fallback_filename: "APODdownload"

  # Prefer the full-size image linked from the page
  prefer_hd: false

logging:
  # Log level: debug, info, warn, error, disabled
  level: "warn"

  # Log format: console, json
  format: "console"

  # Optional log file, written in addition to stderr
  file: ""

ui:
  # Colored error messages on stderr
  color: true

  # Progress bar for downloads in verbose mode
  progress: true
`

func (a *app) newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
		Long: `Manage apodget configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (APODGET_*, also read from .env)
  - Configuration file
  - Default values (lowest priority)`,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create an example configuration file",
		Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.apodget.yaml'
unless a different path is specified with the --config flag.`,
		Args: noArgs,
		RunE: a.runConfigInit,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long: `Show the effective configuration after merging flags, environment
variables, the configuration file and defaults.`,
		Args: noArgs,
		RunE: a.runConfigShow,
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Keys apodget does not know about`,
		Args: noArgs,
		RunE: a.runConfigValidate,
	}

	configCmd.AddCommand(initCmd, showCmd, validateCmd)
	return configCmd
}

func (a *app) runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := a.opts.configFile
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); err == nil {
		return &errs.Error{
			Type:    errs.ErrorTypeValidation,
			Message: "configuration file already exists; remove it first to overwrite",
			Path:    configPath,
		}
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errs.Wrap(errs.ErrorTypeValidation, err, "failed to create configuration directory")
		}
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return errs.Wrap(errs.ErrorTypeValidation, err, "failed to create configuration file")
	}

	term := a.terminal()
	term.PrintInfo("Configuration file created", configPath)
	term.PrintDim("Run 'apodget config validate --config " + configPath + "' after editing it.")
	return nil
}

func (a *app) runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeValidation, err, "failed to format configuration")
	}

	fmt.Fprint(a.stdout, string(data))

	term := a.terminal()
	source := a.opts.configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	if source == "" {
		source = "(none found)"
	}
	term.PrintInfo("Configuration file", source)
	return nil
}

func (a *app) runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath := a.opts.configFile
	if configPath == "" {
		configPath = config.FindConfigFile()
		if configPath == "" {
			return errs.New(errs.ErrorTypeValidation, "no configuration file found; specify one with --config")
		}
		a.opts.configFile = configPath
	}

	term := a.terminal()
	term.PrintInfo("Validating configuration", configPath)

	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}

	var problems []string
	if err := checkKnownKeys(configPath); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		for _, p := range problems {
			term.PrintWarning("  - " + p)
		}
		return errs.Newf(errs.ErrorTypeValidation, "configuration has %d problem(s)", len(problems))
	}

	term.PrintInfo("Configuration is valid", fmt.Sprintf("timeout %s, %d random attempts, log level %s",
		cfg.HTTP.Timeout, cfg.Random.MaxAttempts, cfg.Logging.Level))
	return nil
}

// checkKnownKeys decodes the file strictly so misspelled or retired keys,
// which a normal load ignores, are reported.
func checkKnownKeys(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var cfg config.Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
