package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhmcclient/zhmc-go/pkg/zhmc"
)

var firmwareHeaders = []string{
	"ec-number", "description", "retrieved", "installable-conc",
	"activated", "accepted", "removable-conc",
}

func firmwareRows(levels []zhmc.FirmwareLevel) [][]any {
	rows := make([][]any, 0, len(levels))
	for _, l := range levels {
		rows = append(rows, []any{
			l.ECNumber, l.Description, l.Retrieved, l.InstallableConc,
			l.Activated, l.Accepted, l.RemovableConc,
		})
	}
	return rows
}

// levelString describes the firmware selected for a single step install.
func levelString(bundleLevel, ftpHost string) string {
	if bundleLevel != "" {
		source := "the IBM support site"
		if ftpHost != "" {
			source = fmt.Sprintf("FTP server '%s'", ftpHost)
		}
		return fmt.Sprintf("bundle level %s with firmware retrieval from %s", bundleLevel, source)
	}
	if ftpHost != "" {
		return fmt.Sprintf("all firmware from FTP server '%s'", ftpHost)
	}
	return "all locally available firmware"
}

// mclString describes the MCLs selected for an install-and-activate.
func mclString(bundleLevel, ecLevels string, all, concurrent, disruptive bool) (string, string) {
	dis := " (disruptive MCLs will fail)"
	if disruptive {
		dis = " (including disruptive MCLs)"
	}
	switch {
	case bundleLevel != "":
		return "bundle level " + bundleLevel, dis
	case ecLevels != "":
		return "EC levels " + ecLevels, dis
	case all:
		return "all locally available MCLs", dis
	default:
		return "all locally available non-disruptive MCLs", ""
	}
}

// ftpFlags adds the FTP server options shared by the SE and HMC upgrade
// commands, and ftpServerFromFlags builds the option struct from them.
func ftpFlags(cmd *cobra.Command) {
	cmd.Flags().String("ftp-host", "", "Hostname of the FTP server from which the firmware is retrieved; default is the IBM support site")
	cmd.Flags().String("ftp-protocol", "sftp", "Protocol to connect to the FTP server: sftp, ftp or ftps")
	cmd.Flags().String("ftp-user", "", "Username for the FTP server login")
	cmd.Flags().String("ftp-password", "", "Password for the FTP server login; a hyphen '-' prompts for the password")
	cmd.Flags().String("ftp-directory", "", "Path name of the directory on the FTP server with the firmware files")
}

// checkHMCSupportsUpgrade verifies that the HMC reports a firmware bundle
// level. HMCs whose version does not report one cannot perform firmware
// upgrades through the Web Services API, neither for themselves nor for
// the SE of a CPC.
func checkHMCSupportsUpgrade(ctx context.Context, client *zhmc.Client) error {
	hmcBundle, err := client.Console.BundleLevel(ctx)
	if err != nil {
		return err
	}
	if hmcBundle == "" {
		return fmt.Errorf("the HMC does not support firmware upgrade through the Web Services API")
	}
	return nil
}

func ftpServerFromFlags(cmd *cobra.Command) (*zhmc.FTPServerInfo, error) {
	flags := cmd.Flags()
	host, _ := flags.GetString("ftp-host")
	if host == "" {
		return nil, nil
	}
	protocol, _ := flags.GetString("ftp-protocol")
	switch protocol {
	case "sftp", "ftp", "ftps":
	default:
		return nil, fmt.Errorf("invalid FTP protocol %q (valid: sftp, ftp, ftps)", protocol)
	}
	user, _ := flags.GetString("ftp-user")
	password, _ := flags.GetString("ftp-password")
	if password == "-" {
		var err error
		password, err = promptPassword(fmt.Sprintf("Enter password for user %s on FTP server %s", user, host))
		if err != nil {
			return nil, err
		}
	}
	directory, _ := flags.GetString("ftp-directory")
	return &zhmc.FTPServerInfo{
		Host:      host,
		Protocol:  protocol,
		User:      user,
		Password:  password,
		Directory: directory,
	}, nil
}

func init() {
	// cpc list-firmware
	listFirmwareCmd := &cobra.Command{
		Use:   "list-firmware CPC",
		Short: "List the firmware levels on the Support Element (SE) of a CPC",
		Long: `List the firmware levels on the Support Element (SE) of a CPC.

The firmware levels are listed for each EC stream of the SE as MCL levels
for different installation states:

* retrieved - latest MCL level that has been retrieved
* installable-conc - latest MCL level that has been retrieved and is
  concurrently installable
* activated - latest MCL level that has been installed and activated
* accepted - latest MCL level that has been accepted (= cannot be removed)
* removable-conc - latest MCL level that has been installed and activated
  and can be removed concurrently (down to latest accepted)

The MCL levels '0' and '000' are shown as '-' which means there is no such
level. If a particular installation state is not available, this is shown
as 'n/a'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := buildClient()
			if err != nil {
				return err
			}
			sp := newSpinner()
			defer sp.Stop()
			cpc, err := client.CPC.FindByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			levels, err := client.CPC.GetFirmwareLevels(cmd.Context(), cpc.ObjectURI)
			if err != nil {
				return err
			}
			sp.Stop()
			return printTable(opts.outputFormat, firmwareHeaders, firmwareRows(levels))
		},
	}
	cpcCmd.AddCommand(listFirmwareCmd)

	// cpc upgrade
	var (
		upgradeBundle  string
		upgradeAccept  bool
		upgradeTimeout int
	)
	upgradeCmd := &cobra.Command{
		Use:   "upgrade CPC",
		Short: "Upgrade the firmware in a single step on the SE of a CPC",
		Long: `Upgrade the firmware in a single step on the Support Element (SE) of a
CPC, by performing the CPC Single Step Install operation: backup of the
CPC to its SE hard drive, optional accept of the currently installed
firmware, retrieval of the new firmware from the IBM support site or an
FTP server, installation, and activation (which reboots the SE).

It is not possible to downgrade the SE firmware with this operation. If
the SE firmware is already at the requested bundle level, nothing is
changed and the command succeeds.`,
		Args: cobra.ExactArgs(1),
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

			// The SE upgrade is driven by the HMC, so the HMC itself
			// must be at a version that reports a bundle level.
			sp := newSpinner()
			err = checkHMCSupportsUpgrade(cmd.Context(), client)
			sp.Stop()
			if err != nil {
				return err
			}

			fmt.Printf("Upgrading the SE of CPC %s to %s, and waiting for completion (timeout: %d s)\n", args[0], level, upgradeTimeout)
			ctx, cancel := withTimeout(cmd.Context(), upgradeTimeout)
			defer cancel()
			sp = newSpinner()
			defer sp.Stop()
			cpc, err := client.CPC.FindByName(ctx, args[0])
			if err != nil {
				return err
			}
			err = client.CPC.SingleStepInstall(ctx, cpc.ObjectURI, zhmc.SingleStepInstallOptions{
				BundleLevel:    upgradeBundle,
				AcceptFirmware: upgradeAccept,
				FTPServer:      ftpServer,
			})
			sp.Stop()
			if zhmc.IsHMCError(err, 400, 356) {
				fmt.Printf("The SE of CPC %s was already at %s and did not need to be upgraded\n", args[0], level)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("The SE of CPC %s has been upgraded to %s\n", args[0], level)
			return nil
		},
	}
	upgradeCmd.Flags().StringVarP(&upgradeBundle, "bundle-level", "b", "", "Name of the bundle to be installed on the SE (e.g. 'S71'); default is all available code changes")
	upgradeCmd.Flags().BoolVarP(&upgradeAccept, "accept-firmware", "a", true, "Accept the previous bundle level before installing the new level")
	upgradeCmd.Flags().IntVarP(&upgradeTimeout, "timeout", "T", 1200, "Timeout (in seconds) when waiting for the SE upgrade to be complete")
	ftpFlags(upgradeCmd)
	cpcCmd.AddCommand(upgradeCmd)

	// cpc install-firmware
	var (
		installBundle     string
		installECLevels   string
		installAll        bool
		installConcurrent bool
		installDisruptive bool
		installTimeout    int
	)
	installCmd := &cobra.Command{
		Use:   "install-firmware CPC",
		Short: "Install retrieved firmware on the SE of a CPC",
		Long: `Install firmware that was previously retrieved to the Support Element
(SE) of a CPC, and activate it.

Exactly one of --bundle-level, --ec-levels, --all and --all-concurrent
must be specified to select the updates to be installed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			numSelectors := 0
			for _, set := range []bool{installBundle != "", installECLevels != "", installAll, installConcurrent} {
				if set {
					numSelectors++
				}
			}
			if numSelectors != 1 {
				return fmt.Errorf("exactly one option for specifying the firmware to be installed must be specified, but there were %d", numSelectors)
			}
			if installDisruptive && installECLevels == "" {
				return fmt.Errorf("--install-disruptive is only allowed with --ec-levels")
			}

			installOpts := zhmc.InstallAndActivateOptions{}
			switch {
			case installBundle != "":
				installOpts.BundleLevel = installBundle
			case installECLevels != "":
				levels, err := parseECLevels("--ec-levels", installECLevels)
				if err != nil {
					return err
				}
				installOpts.ECLevels = levels
				installOpts.InstallDisruptive = installDisruptive
			case installAll:
				installOpts.InstallDisruptive = true
			case installConcurrent:
				// all concurrent updates; nothing to select
			}

			level, dis := mclString(installBundle, installECLevels, installAll, installConcurrent, installOpts.InstallDisruptive)

			client, err := buildClient()
			if err != nil {
				return err
			}
			fmt.Printf("Upgrading the SE of CPC %s to %s%s, and waiting for completion (timeout: %d s)\n", args[0], level, dis, installTimeout)
			ctx, cancel := withTimeout(cmd.Context(), installTimeout)
			defer cancel()
			sp := newSpinner()
			defer sp.Stop()
			cpc, err := client.CPC.FindByName(ctx, args[0])
			if err != nil {
				return err
			}
			err = client.CPC.InstallAndActivate(ctx, cpc.ObjectURI, installOpts)
			sp.Stop()
			if installBundle != "" && zhmc.IsHMCError(err, 500, 263) {
				fmt.Printf("The SE of CPC %s was already at %s and did not need to be upgraded\n", args[0], level)
				return nil
			}
			if installECLevels != "" && zhmc.IsHMCError(err, 400, 379) {
				// The HMC cannot distinguish failure from "already at
				// the requested levels" in this case.
				return fmt.Errorf("the SE of CPC %s either was already at %s, or above (cannot downgrade), or the firmware is not available on the SE: %w", args[0], level, err)
			}
			if err != nil {
				return err
			}
			fmt.Printf("The SE of CPC %s has been upgraded to %s\n", args[0], level)
			return nil
		},
	}
	installCmd.Flags().StringVarP(&installBundle, "bundle-level", "b", "", "Install the updates of a specific SE bundle (e.g. 'S71'); disruptive updates will fail")
	installCmd.Flags().StringVarP(&installECLevels, "ec-levels", "e", "", "Install specific EC levels, as a list in YAML Flow Collection style, e.g. \"[P30719.015, P30730.007]\"")
	installCmd.Flags().BoolVarP(&installAll, "all", "a", false, "Install all updates that are locally available on the SE, including disruptive updates")
	installCmd.Flags().BoolVarP(&installConcurrent, "all-concurrent", "c", false, "Install all concurrent (non-disruptive) updates that are locally available on the SE")
	installCmd.Flags().BoolVar(&installDisruptive, "install-disruptive", false, "Install any disruptive updates that are encountered; only allowed with --ec-levels")
	installCmd.Flags().IntVarP(&installTimeout, "timeout", "T", 1200, "Timeout (in seconds) when waiting for the installation to be complete")
	cpcCmd.AddCommand(installCmd)

	// cpc delete-uninstalled-firmware
	var (
		deleteECLevels string
		deleteAll      bool
		deleteTimeout  int
	)
	deleteFirmwareCmd := &cobra.Command{
		Use:   "delete-uninstalled-firmware CPC",
		Short: "Delete retrieved but uninstalled firmware from the SE of a CPC",
		Long: `Delete firmware that was retrieved to the Support Element (SE) of a CPC
but not installed.

Exactly one of --ec-levels and --all must be specified to select the
firmware to be deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (deleteECLevels != "") == deleteAll {
				num := 0
				if deleteECLevels != "" {
					num++
				}
				if deleteAll {
					num++
				}
				return fmt.Errorf("exactly one option for specifying the firmware to be deleted must be specified, but there were %d", num)
			}

			deleteOpts := zhmc.DeleteRetrievedInternalCodeOptions{}
			level := "all locally available MCLs"
			if deleteECLevels != "" {
				levels, err := parseECLevels("--ec-levels", deleteECLevels)
				if err != nil {
					return err
				}
				deleteOpts.ECLevels = levels
				level = "EC levels " + deleteECLevels
			}

			client, err := buildClient()
			if err != nil {
				return err
			}
			fmt.Printf("Deleting %s from the SE of CPC %s, and waiting for completion (timeout: %d s)\n", level, args[0], deleteTimeout)
			ctx, cancel := withTimeout(cmd.Context(), deleteTimeout)
			defer cancel()
			sp := newSpinner()
			defer sp.Stop()
			cpc, err := client.CPC.FindByName(ctx, args[0])
			if err != nil {
				return err
			}
			if err := client.CPC.DeleteRetrievedInternalCode(ctx, cpc.ObjectURI, deleteOpts); err != nil {
				return err
			}
			sp.Stop()
			fmt.Printf("%s have been deleted from the SE of CPC %s\n", strings.ToUpper(level[:1])+level[1:], args[0])
			return nil
		},
	}
	deleteFirmwareCmd.Flags().StringVarP(&deleteECLevels, "ec-levels", "e", "", "Delete specific EC levels, as a list in YAML Flow Collection style, e.g. \"[P30719.015, P30730.007]\"")
	deleteFirmwareCmd.Flags().BoolVarP(&deleteAll, "all", "a", false, "Delete all uninstalled firmware that is locally available on the SE")
	deleteFirmwareCmd.Flags().IntVarP(&deleteTimeout, "timeout", "T", 1200, "Timeout (in seconds) when waiting for the deletion to be complete")
	cpcCmd.AddCommand(deleteFirmwareCmd)
}
