package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhmcclient/zhmc-go/pkg/zhmc"
)

var cpcCmd = &cobra.Command{
	Use:   "cpc",
	Short: "Manage CPCs",
}

// hiddenCPCProperties are long or deeply nested CPC properties that are
// hidden in table output unless --all is given.
var hiddenCPCProperties = []string{
	"auto-start-list",
	"available-features-list",
	"cpc-power-saving-state",
	"ec-mcl-description",
	"network1-ipv6-info",
	"network2-ipv6-info",
	"stp-configuration",
}

func init() {
	rootCmd.AddCommand(cpcCmd)

	// cpc list
	var (
		listName      string
		listFilter    string
		listSort      string
		listNamesOnly bool
		listURI       bool
		listAll       bool
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the CPCs managed by the HMC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listOpts := zhmc.ListCPCOptions{Name: listName}
			if listFilter != "" {
				filters, err := parseFilter(listFilter)
				if err != nil {
					return err
				}
				for prop, value := range filters {
					switch prop {
					case "name":
						listOpts.Name = value
					case "status":
						listOpts.Status = value
					default:
						return fmt.Errorf("unsupported filter property for CPCs: %s", prop)
					}
				}
			}
			sortProps := []string{"name"}
			if listSort != "" {
				sortProps = strings.Split(listSort, ",")
			}

			client, err := buildClient()
			if err != nil {
				return err
			}
			sp := newSpinner()
			defer sp.Stop()
			cpcs, err := client.CPC.List(cmd.Context(), listOpts)
			if err != nil {
				return err
			}

			records := make([]zhmc.Properties, 0, len(cpcs))
			for _, cpc := range cpcs {
				rec := zhmc.Properties{"name": cpc.Name, "object-uri": cpc.ObjectURI}
				if !listNamesOnly {
					rec["status"] = string(cpc.Status)
					rec["dpm-enabled"] = cpc.DPMEnabled
					rec["se-version"] = cpc.SEVersion
					// The machine and description columns are not in
					// the List CPC Objects result.
					props, err := client.CPC.GetProperties(cmd.Context(), cpc.ObjectURI)
					if err != nil {
						return err
					}
					for name, value := range props {
						if _, ok := rec[name]; !ok {
							rec[name] = value
						}
					}
				}
				records = append(records, rec)
			}
			sp.Stop()

			headers := cpcListHeaders(listNamesOnly, listURI)
			if listAll && !listNamesOnly {
				headers = append(headers, remainingKeys(headers, records)...)
			}
			if err := sortRecords(records, sortProps); err != nil {
				return err
			}
			return printRecords(opts.outputFormat, headers, records)
		},
	}
	listCmd.Flags().StringVar(&listName, "name", "", "Regular expression to filter by CPC name")
	listCmd.Flags().StringVar(&listFilter, "filter", "", "Filter the CPCs by property values, as a comma-separated list of PROP=VALUE items; supported properties: name, status (regular expressions)")
	listCmd.Flags().StringVar(&listSort, "sort", "", "Sort the CPCs by property values, as a comma-separated list of property names with decreasing priority (default: name)")
	listCmd.Flags().BoolVar(&listNamesOnly, "names-only", false, "Restrict the columns shown to only the CPC names")
	listCmd.Flags().BoolVar(&listURI, "uri", false, "Show the object URI column in addition")
	listCmd.Flags().BoolVar(&listAll, "all", false, "Show all properties")
	cpcCmd.AddCommand(listCmd)

	// cpc show
	var showAll bool
	showCmd := &cobra.Command{
		Use:   "show CPC",
		Short: "Show details of a CPC",
		Long: `Show details of a CPC.

In table output formats, some long or deeply nested properties are hidden
by default; use --all to show them.`,
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
			props, err := client.CPC.GetProperties(cmd.Context(), cpc.ObjectURI)
			if err != nil {
				return err
			}
			sp.Stop()

			hide := hiddenCPCProperties
			if showAll || opts.outputFormat == formatJSON || opts.outputFormat == formatYAML {
				hide = nil
			}
			return printProperties(opts.outputFormat, props, hide)
		},
	}
	showCmd.Flags().BoolVar(&showAll, "all", false, "Show all properties")
	cpcCmd.AddCommand(showCmd)

	// cpc update
	var upd updateOptions
	updateCmd := &cobra.Command{
		Use:   "update CPC",
		Short: "Update the properties of a CPC",
		Long: `Update the properties of a CPC.

Only the properties are changed for which a corresponding option is
specified, so the default for all options is not to change properties.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			upd = updateOptionsFromFlags(cmd)
			props, err := upd.properties()
			if err != nil {
				return err
			}
			if len(props) == 0 {
				fmt.Printf("No properties specified for updating CPC '%s'.\n", args[0])
				return nil
			}

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
			if err := client.CPC.UpdateProperties(cmd.Context(), cpc.ObjectURI, props); err != nil {
				return err
			}
			sp.Stop()
			fmt.Printf("CPC '%s' has been updated.\n", args[0])
			return nil
		},
	}
	updateCmd.Flags().String("description", "", "New description of the CPC (DPM mode only)")
	updateCmd.Flags().String("acceptable-status", "", "New set of acceptable operational status values, as a comma-separated list; the empty string specifies an empty list")
	updateCmd.Flags().String("next-activation-profile", "", "Name of the new next reset activation profile (not in DPM mode)")
	updateCmd.Flags().Int("processor-time-slice", 0, "New time slice (in ms) for logical processors; 0 lets the system determine the time slice (not in DPM mode)")
	updateCmd.Flags().Bool("wait-ends-slice", false, "Make logical processors lose their time slice when they enter a wait state (not in DPM mode)")
	updateCmd.Flags().Bool("no-wait-ends-slice", false, "Do not make logical processors lose their time slice when they enter a wait state (not in DPM mode)")
	updateCmd.MarkFlagsMutuallyExclusive("wait-ends-slice", "no-wait-ends-slice")
	cpcCmd.AddCommand(updateCmd)

	// cpc set-power-save
	var powerSaving string
	powerSaveCmd := &cobra.Command{
		Use:   "set-power-save CPC",
		Short: "Set the power save settings of a CPC",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch zhmc.PowerSaving(powerSaving) {
			case zhmc.PowerSavingHighPerformance, zhmc.PowerSavingLowPower, zhmc.PowerSavingCustom:
			default:
				return fmt.Errorf("invalid power saving type %q (valid: high-performance, low-power, custom)", powerSaving)
			}

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
			if err := client.CPC.SetPowerSave(cmd.Context(), cpc.ObjectURI, zhmc.PowerSaving(powerSaving)); err != nil {
				return err
			}
			sp.Stop()
			fmt.Printf("The power save settings of CPC '%s' have been set to %s.\n", args[0], powerSaving)
			return nil
		},
	}
	powerSaveCmd.Flags().StringVar(&powerSaving, "power-saving", "high-performance", "Type of power saving: high-performance, low-power or custom")
	cpcCmd.AddCommand(powerSaveCmd)

	// cpc set-power-capping
	var cappingState string
	var capCurrent int
	powerCapCmd := &cobra.Command{
		Use:   "set-power-capping CPC",
		Short: "Set the power capping settings of a CPC",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch zhmc.PowerCappingState(cappingState) {
			case zhmc.PowerCappingDisabled, zhmc.PowerCappingEnabled, zhmc.PowerCappingCustom:
			default:
				return fmt.Errorf("invalid power capping state %q (valid: disabled, enabled, custom)", cappingState)
			}

			capOpts := zhmc.SetPowerCappingOptions{State: zhmc.PowerCappingState(cappingState)}
			if cmd.Flags().Changed("power-cap-current") {
				capOpts.CurrentCap = &capCurrent
			}

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
			if err := client.CPC.SetPowerCapping(cmd.Context(), cpc.ObjectURI, capOpts); err != nil {
				return err
			}
			sp.Stop()
			fmt.Printf("The power capping settings of CPC '%s' have been set to %s.\n", args[0], cappingState)
			return nil
		},
	}
	powerCapCmd.Flags().StringVar(&cappingState, "power-capping-state", "", "State of power capping: disabled, enabled or custom (required)")
	powerCapCmd.Flags().IntVar(&capCurrent, "power-cap-current", 0, "Current cap value for the CPC in watts; required when power capping is enabled")
	_ = powerCapCmd.MarkFlagRequired("power-capping-state")
	cpcCmd.AddCommand(powerCapCmd)

	// cpc get-em-data
	emDataCmd := &cobra.Command{
		Use:   "get-em-data CPC",
		Short: "Get all energy management data of a CPC",
		Args:  cobra.ExactArgs(1),
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
			props, err := client.CPC.GetEnergyManagementData(cmd.Context(), cpc.ObjectURI)
			if err != nil {
				return err
			}
			sp.Stop()
			return printProperties(opts.outputFormat, props, nil)
		},
	}
	cpcCmd.AddCommand(emDataCmd)

	// cpc list-api-features
	var featureName string
	apiFeaturesCmd := &cobra.Command{
		Use:   "list-api-features CPC",
		Short: "List the Web Services API features available on a CPC",
		Args:  cobra.ExactArgs(1),
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
			features, err := client.CPC.ListAPIFeatures(cmd.Context(), cpc.ObjectURI, featureName)
			if err != nil {
				return err
			}
			sp.Stop()
			return printList(opts.outputFormat, features)
		},
	}
	apiFeaturesCmd.Flags().StringVar(&featureName, "name", "", "Regular expression to filter by feature name")
	cpcCmd.AddCommand(apiFeaturesCmd)

	// cpc list-partitions
	var partName string
	partitionsCmd := &cobra.Command{
		Use:   "list-partitions CPC",
		Short: "List the partitions of a CPC in DPM mode",
		Args:  cobra.ExactArgs(1),
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
			parts, err := client.CPC.ListPartitions(cmd.Context(), cpc.ObjectURI, partName)
			if err != nil {
				return err
			}
			sp.Stop()

			headers := []string{"name", "status", "type", "object-uri"}
			rows := make([][]any, 0, len(parts))
			for _, p := range parts {
				rows = append(rows, []any{p.Name, p.Status, p.Type, p.ObjectURI})
			}
			return printTable(opts.outputFormat, headers, rows)
		},
	}
	partitionsCmd.Flags().StringVar(&partName, "name", "", "Regular expression to filter by partition name")
	cpcCmd.AddCommand(partitionsCmd)
}

// cpcListHeaders returns the columns of 'zhmc cpc list'. The object URI
// column is appended also with names-only, so both options combine.
func cpcListHeaders(namesOnly, uri bool) []string {
	headers := []string{"name"}
	if !namesOnly {
		headers = append(headers,
			"status", "dpm-enabled", "se-version",
			"machine-type", "machine-model", "machine-serial-number",
			"description")
	}
	if uri {
		headers = append(headers, "object-uri")
	}
	return headers
}

// updateOptionsFromFlags reads only the flags the user actually set, so an
// omitted option leaves its property unchanged.
func updateOptionsFromFlags(cmd *cobra.Command) updateOptions {
	var upd updateOptions
	flags := cmd.Flags()
	if flags.Changed("description") {
		v, _ := flags.GetString("description")
		upd.description = &v
	}
	if flags.Changed("acceptable-status") {
		v, _ := flags.GetString("acceptable-status")
		upd.acceptableStatus = &v
	}
	if flags.Changed("next-activation-profile") {
		v, _ := flags.GetString("next-activation-profile")
		upd.nextActivationProfile = &v
	}
	if flags.Changed("processor-time-slice") {
		v, _ := flags.GetInt("processor-time-slice")
		upd.processorTimeSlice = &v
	}
	if flags.Changed("wait-ends-slice") {
		v := true
		upd.waitEndsSlice = &v
	}
	if flags.Changed("no-wait-ends-slice") {
		v := false
		upd.waitEndsSlice = &v
	}
	return upd
}
