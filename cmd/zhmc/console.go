package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhmcclient/zhmc-go/pkg/zhmc"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Manage the HMC itself",
}

// hiddenConsoleProperties are long or deeply nested console properties
// that are hidden in table output unless --all is given.
var hiddenConsoleProperties = []string{
	"ec-mcl-description",
	"network-info",
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.AddCommand(newHWMessageCmd(consoleMessageTarget))

	// console show
	var showAll bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show details of the HMC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := buildClient()
			if err != nil {
				return err
			}
			sp := newSpinner()
			defer sp.Stop()
			props, err := client.Console.GetProperties(cmd.Context())
			if err != nil {
				return err
			}
			sp.Stop()

			hide := hiddenConsoleProperties
			if showAll || opts.outputFormat == formatJSON || opts.outputFormat == formatYAML {
				hide = nil
			}
			return printProperties(opts.outputFormat, props, hide)
		},
	}
	showCmd.Flags().BoolVar(&showAll, "all", false, "Show all properties")
	consoleCmd.AddCommand(showCmd)

	// console restart
	var force bool
	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the HMC",
		Long: `Restart the HMC.

Restarting ends the Web Services API session that was used for the
restart operation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := buildClient()
			if err != nil {
				return err
			}
			sp := newSpinner()
			defer sp.Stop()
			if err := client.Console.Restart(cmd.Context(), force); err != nil {
				return err
			}
			sp.Stop()
			fmt.Println("The HMC is restarting.")
			return nil
		},
	}
	restartCmd.Flags().BoolVar(&force, "force", false, "Restart even when users are logged on to the HMC user interface")
	consoleCmd.AddCommand(restartCmd)

	// console list-api-features
	var featureName string
	apiFeaturesCmd := &cobra.Command{
		Use:   "list-api-features",
		Short: "List the Web Services API features available on the HMC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := buildClient()
			if err != nil {
				return err
			}
			sp := newSpinner()
			defer sp.Stop()
			features, err := client.Console.ListAPIFeatures(cmd.Context(), featureName)
			if err != nil {
				return err
			}
			sp.Stop()
			return printList(opts.outputFormat, features)
		},
	}
	apiFeaturesCmd.Flags().StringVar(&featureName, "name", "", "Regular expression to filter by feature name")
	consoleCmd.AddCommand(apiFeaturesCmd)

	// console list-firmware
	listFirmwareCmd := &cobra.Command{
		Use:   "list-firmware",
		Short: "List the firmware levels on the HMC",
		Long: `List the firmware levels on the HMC.

The firmware levels are listed for each EC stream of the HMC, in the same
report format as 'zhmc cpc list-firmware'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := buildClient()
			if err != nil {
				return err
			}
			sp := newSpinner()
			defer sp.Stop()
			levels, err := client.Console.GetFirmwareLevels(cmd.Context())
			if err != nil {
				return err
			}
			sp.Stop()
			return printTable(opts.outputFormat, firmwareHeaders, firmwareRows(levels))
		},
	}
	consoleCmd.AddCommand(listFirmwareCmd)

	// console upgrade
	var (
		upgradeBundle  string
		upgradeAccept  bool
		upgradeTimeout int
	)
	upgradeCmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade the firmware on the HMC in a single step",
		Long: `Upgrade the firmware on the HMC in a single step, by performing the
Single Step Install operation on the console: optional accept of the
currently installed firmware, retrieval of the new firmware from the IBM
support site or an FTP server, installation, and activation (which
restarts the HMC).

HMCs whose version does not report a bundle level do not support firmware
upgrade through the Web Services API.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ftpServer, err := ftpServerFromFlags(cmd)
			if err != nil {
				return err
			}
			ftpHost := ""
			if ftpServer != nil {
				ftpHost = ftpServer.Host
			}
			level := levelString(upgradeBundle, ftpHost)

			client, err := buildClient()
			if err != nil {
				return err
			}
			sp := newSpinner()
			err = checkHMCSupportsUpgrade(cmd.Context(), client)
			sp.Stop()
			if err != nil {
				return err
			}

			fmt.Printf("Upgrading the HMC to %s, and waiting for completion (timeout: %d s)\n", level, upgradeTimeout)
			ctx, cancel := withTimeout(cmd.Context(), upgradeTimeout)
			defer cancel()
			sp = newSpinner()
			defer sp.Stop()
			err = client.Console.SingleStepInstall(ctx, zhmc.SingleStepInstallOptions{
				BundleLevel:    upgradeBundle,
				AcceptFirmware: upgradeAccept,
				FTPServer:      ftpServer,
			})
			sp.Stop()
			if zhmc.IsHMCError(err, 400, 356) {
				fmt.Printf("The HMC was already at %s and did not need to be upgraded\n", level)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("The HMC has been upgraded to %s\n", level)
			return nil
		},
	}
	upgradeCmd.Flags().StringVarP(&upgradeBundle, "bundle-level", "b", "", "Name of the bundle to be installed on the HMC (e.g. 'H71'); default is all available code changes")
	upgradeCmd.Flags().BoolVarP(&upgradeAccept, "accept-firmware", "a", true, "Accept the previous bundle level before installing the new level")
	upgradeCmd.Flags().IntVarP(&upgradeTimeout, "timeout", "T", 1200, "Timeout (in seconds) when waiting for the HMC upgrade to be complete")
	ftpFlags(upgradeCmd)
	consoleCmd.AddCommand(upgradeCmd)
}
