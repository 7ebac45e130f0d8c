package main

import (
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zhmcclient/zhmc-go/pkg/zhmc"
)

// globalOpts holds the general options that apply to every command. Each
// value can come from a command line option, an environment variable, or
// the active context in the config file, in that order of precedence.
type globalOpts struct {
	host         string
	userid       string
	noVerifyCert bool
	caCerts      string
	outputFormat string
	logLevel     string
	contextName  string
}

var opts globalOpts

// version of the zhmc CLI, recorded in exported DPM configuration files.
const version = "1.0.0"

// resolvedUserid is set by resolveConnection for commands that report the
// acting user.
var resolvedUserid string

var rootCmd = &cobra.Command{
	Use:   "zhmc",
	Short: "Command line client for the IBM Z HMC Web Services API",
	Long: `zhmc is a command line client for the IBM Z Hardware Management
Console (HMC). It gives access to CPCs and their child resources through
the HMC Web Services API.

Connection data and credentials are taken from the command line options,
from the ZHMC_HOST, ZHMC_USERID, ZHMC_PASSWORD, ZHMC_NO_VERIFY_CERT and
ZHMC_CA_CERTS environment variables, or from the active context created
with 'zhmc context create'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(opts.logLevel)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.host, "host", "", "Hostname or IP address of the HMC (default: $ZHMC_HOST or active context)")
	pf.StringVarP(&opts.userid, "userid", "u", "", "Userid on the HMC (default: $ZHMC_USERID or active context)")
	pf.BoolVarP(&opts.noVerifyCert, "no-verify-cert", "n", false, "Do not verify the HMC server certificate (default: $ZHMC_NO_VERIFY_CERT)")
	pf.StringVar(&opts.caCerts, "ca-certs", "", "Path of a PEM file with CA certificates for verifying the HMC certificate (default: $ZHMC_CA_CERTS)")
	pf.StringVarP(&opts.outputFormat, "output-format", "o", "table", "Output format: table, json, csv or yaml")
	pf.StringVar(&opts.logLevel, "log", "warning", "Log level: debug, info, warning or error")
	pf.StringVar(&opts.contextName, "context", "", "Name of the context to use (default: active context)")
}

func setupLogging(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stderr)
	return nil
}

// resolveConnection merges options, environment variables, and the context
// config into the final connection settings.
func resolveConnection() (host, userid, password string, noVerify bool, caCerts string, err error) {
	var cctx *Context
	config, cfgErr := loadConfig()
	if cfgErr == nil {
		if opts.contextName != "" {
			cctx = config.getContext(opts.contextName)
			if cctx == nil {
				return "", "", "", false, "", fmt.Errorf("context '%s' does not exist", opts.contextName)
			}
		} else {
			cctx = config.getActiveContext()
		}
	}

	host = opts.host
	if host == "" {
		host = os.Getenv("ZHMC_HOST")
	}
	if host == "" && cctx != nil {
		host = cctx.Host
	}
	if host == "" {
		return "", "", "", false, "", fmt.Errorf("no HMC host specified (use --host, $ZHMC_HOST, or a context)")
	}

	userid = opts.userid
	if userid == "" {
		userid = os.Getenv("ZHMC_USERID")
	}
	if userid == "" && cctx != nil {
		userid = cctx.Userid
	}
	if userid == "" {
		return "", "", "", false, "", fmt.Errorf("no HMC userid specified (use --userid, $ZHMC_USERID, or a context)")
	}

	password = os.Getenv("ZHMC_PASSWORD")
	if password == "" && cctx != nil {
		password = cctx.Password
	}
	if password == "" {
		password, err = promptPassword(fmt.Sprintf("Enter password for user %s on HMC %s", userid, host))
		if err != nil {
			return "", "", "", false, "", err
		}
	}

	noVerify = opts.noVerifyCert
	if !noVerify {
		v := strings.ToLower(os.Getenv("ZHMC_NO_VERIFY_CERT"))
		noVerify = v == "1" || v == "true" || v == "yes"
	}
	if !noVerify && cctx != nil {
		noVerify = cctx.NoVerifyCert
	}

	caCerts = opts.caCerts
	if caCerts == "" {
		caCerts = os.Getenv("ZHMC_CA_CERTS")
	}
	if caCerts == "" && cctx != nil {
		caCerts = cctx.CACerts
	}
	resolvedUserid = userid
	return host, userid, password, noVerify, caCerts, nil
}

// buildClient creates the HMC client from the resolved connection settings.
func buildClient() (*zhmc.Client, error) {
	host, userid, password, noVerify, caCerts, err := resolveConnection()
	if err != nil {
		return nil, err
	}

	clientOpts := []zhmc.ClientOption{
		zhmc.WithLogger(logrus.WithField("component", "zhmc")),
	}
	if noVerify {
		clientOpts = append(clientOpts, zhmc.WithSkipTLSVerify(true))
	}
	if caCerts != "" {
		pem, err := os.ReadFile(caCerts)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificates file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no CA certificates found in %s", caCerts)
		}
		clientOpts = append(clientOpts, zhmc.WithCACertPool(pool))
	}
	if sessionID := os.Getenv("ZHMC_SESSION_ID"); sessionID != "" {
		clientOpts = append(clientOpts, zhmc.WithSessionID(sessionID))
	}

	return zhmc.NewClient(host, userid, password, clientOpts...), nil
}

// newSpinner returns a started spinner when stdout is a terminal, and a
// no-op spinner otherwise so output redirection stays clean.
func newSpinner() *spinner.Spinner {
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond,
		spinner.WithWriter(os.Stderr))
	if isatty.IsTerminal(os.Stdout.Fd()) && isatty.IsTerminal(os.Stderr.Fd()) {
		s.Start()
	}
	return s
}

func promptPassword(prompt string) (string, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return "", fmt.Errorf("no password specified and stdin is not a terminal (set $ZHMC_PASSWORD)")
	}
	fmt.Fprintf(os.Stderr, "%s: ", prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
