package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// Config represents the CLI configuration.
type Config struct {
	ActiveContext string    `toml:"active_context"`
	Contexts      []Context `toml:"contexts"`
}

// Context represents a named HMC connection with credentials.
type Context struct {
	Name         string `toml:"name"`
	Host         string `toml:"host"`
	Userid       string `toml:"userid"`
	Password     string `toml:"password"`
	NoVerifyCert bool   `toml:"no_verify_cert"`
	CACerts      string `toml:"ca_certs"`
}

// getConfigPath returns the path to the config file.
func getConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "zhmc", "cli.toml"), nil
}

// ensureConfigDir creates the config directory if it doesn't exist.
func ensureConfigDir() error {
	configPath, err := getConfigPath()
	if err != nil {
		return err
	}
	return os.MkdirAll(filepath.Dir(configPath), 0700)
}

// loadConfig loads the configuration from the config file.
func loadConfig() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	// If config doesn't exist, return empty config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{
			Contexts: []Context{},
		}, nil
	}

	var config Config
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// saveConfig saves the configuration to the config file.
func saveConfig(config *Config) error {
	if err := ensureConfigDir(); err != nil {
		return err
	}

	configPath, err := getConfigPath()
	if err != nil {
		return err
	}

	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// The config file holds the HMC password.
	if err := os.Chmod(configPath, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	return nil
}

// getContext returns a context by name.
func (c *Config) getContext(name string) *Context {
	for i := range c.Contexts {
		if c.Contexts[i].Name == name {
			return &c.Contexts[i]
		}
	}
	return nil
}

// addContext adds a new context or updates an existing one.
func (c *Config) addContext(ctx Context) {
	for i := range c.Contexts {
		if c.Contexts[i].Name == ctx.Name {
			c.Contexts[i] = ctx
			return
		}
	}
	c.Contexts = append(c.Contexts, ctx)
}

// removeContext removes a context by name.
func (c *Config) removeContext(name string) bool {
	for i := range c.Contexts {
		if c.Contexts[i].Name == name {
			c.Contexts = append(c.Contexts[:i], c.Contexts[i+1:]...)
			return true
		}
	}
	return false
}

// getActiveContext returns the active context.
func (c *Config) getActiveContext() *Context {
	if c.ActiveContext == "" {
		return nil
	}
	return c.getContext(c.ActiveContext)
}

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage named HMC connection contexts",
	Long: `Manage named HMC connection contexts.

A context stores the HMC host, userid, password and certificate settings
in ` + "`~/.config/zhmc/cli.toml`" + ` so they do not need to be specified on
every invocation. The active context is used whenever no connection
options or environment variables are given.`,
}

func init() {
	rootCmd.AddCommand(contextCmd)

	// context create
	var (
		createHost     string
		createUserid   string
		createPassword string
		createNoVerify bool
		createCACerts  string
	)
	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if createHost == "" {
				return fmt.Errorf("no HMC host specified (use --host)")
			}
			if createUserid == "" {
				return fmt.Errorf("no HMC userid specified (use --userid)")
			}

			config, err := loadConfig()
			if err != nil {
				return err
			}
			if config.getContext(name) != nil {
				return fmt.Errorf("context '%s' already exists", name)
			}

			password := createPassword
			if password == "" {
				password, err = promptPassword(fmt.Sprintf("Enter password for user %s on HMC %s", createUserid, createHost))
				if err != nil {
					return err
				}
			}

			config.addContext(Context{
				Name:         name,
				Host:         createHost,
				Userid:       createUserid,
				Password:     password,
				NoVerifyCert: createNoVerify,
				CACerts:      createCACerts,
			})

			// The first context becomes the active one.
			if len(config.Contexts) == 1 {
				config.ActiveContext = name
			}

			if err := saveConfig(config); err != nil {
				return err
			}

			fmt.Printf("Context '%s' created\n", name)
			if config.ActiveContext == name {
				fmt.Printf("Context '%s' is now active\n", name)
			}
			return nil
		},
	}
	createCmd.Flags().StringVar(&createHost, "host", "", "Hostname or IP address of the HMC")
	createCmd.Flags().StringVarP(&createUserid, "userid", "u", "", "Userid on the HMC")
	createCmd.Flags().StringVar(&createPassword, "password", "", "Password of the userid (prompted when omitted)")
	createCmd.Flags().BoolVarP(&createNoVerify, "no-verify-cert", "n", false, "Do not verify the HMC server certificate")
	createCmd.Flags().StringVar(&createCACerts, "ca-certs", "", "Path of a PEM file with CA certificates")
	contextCmd.AddCommand(createCmd)

	// context list
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all contexts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}
			if len(config.Contexts) == 0 {
				fmt.Println("No contexts found")
				return nil
			}
			for _, ctx := range config.Contexts {
				active := ""
				if ctx.Name == config.ActiveContext {
					active = " (active)"
				}
				fmt.Printf("%s%s\n", ctx.Name, active)
			}
			return nil
		},
	}
	contextCmd.AddCommand(listCmd)

	// context show
	showCmd := &cobra.Command{
		Use:   "show [NAME]",
		Short: "Show a context (the active context by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			var ctx *Context
			if len(args) == 1 {
				ctx = config.getContext(args[0])
				if ctx == nil {
					return fmt.Errorf("context '%s' not found", args[0])
				}
			} else {
				ctx = config.getActiveContext()
				if ctx == nil {
					fmt.Println("No active context")
					return nil
				}
			}

			fmt.Printf("Name:           %s\n", ctx.Name)
			fmt.Printf("Host:           %s\n", ctx.Host)
			fmt.Printf("Userid:         %s\n", ctx.Userid)
			fmt.Printf("No verify cert: %t\n", ctx.NoVerifyCert)
			if ctx.CACerts != "" {
				fmt.Printf("CA certs:       %s\n", ctx.CACerts)
			}
			return nil
		},
	}
	contextCmd.AddCommand(showCmd)

	// context use
	useCmd := &cobra.Command{
		Use:   "use NAME",
		Short: "Set the active context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			config, err := loadConfig()
			if err != nil {
				return err
			}
			if config.getContext(name) == nil {
				return fmt.Errorf("context '%s' not found", name)
			}
			config.ActiveContext = name
			if err := saveConfig(config); err != nil {
				return err
			}
			fmt.Printf("Active context: %s\n", name)
			return nil
		},
	}
	contextCmd.AddCommand(useCmd)

	// context delete
	deleteCmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			config, err := loadConfig()
			if err != nil {
				return err
			}
			if !config.removeContext(name) {
				return fmt.Errorf("context '%s' not found", name)
			}
			if config.ActiveContext == name {
				config.ActiveContext = ""
			}
			if err := saveConfig(config); err != nil {
				return err
			}
			fmt.Printf("Context '%s' deleted\n", name)
			return nil
		},
	}
	contextCmd.AddCommand(deleteCmd)
}
