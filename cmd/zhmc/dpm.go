package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Meta fields added to an exported DPM configuration. The import command
// strips all keys with this prefix before sending the configuration to the
// HMC, so files round-trip cleanly.
const metaFieldPrefix = "zhmccli-meta-"

func init() {
	// cpc dpm-export
	var (
		exportFile       string
		exportFormat     string
		excludeMeta      bool
		includeUnusedAds bool
	)
	exportCmd := &cobra.Command{
		Use:   "dpm-export CPC",
		Short: "Export a DPM configuration from a CPC",
		Long: `Export a DPM configuration from a CPC.

The DPM configuration of the CPC is exported and written to a DPM
configuration file in YAML or JSON format. The file has the structure of
the payload of the Import DPM Configuration operation, plus meta fields
named 'zhmccli-meta-*' describing the export itself. Use
--exclude-meta-fields when the file is consumed by other tooling.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if exportFormat != "yaml" && exportFormat != "json" {
				return fmt.Errorf("invalid DPM file format %q (valid: yaml, json)", exportFormat)
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
			config, err := client.CPC.ExportDPMConfiguration(cmd.Context(), cpc.ObjectURI, includeUnusedAds)
			if err != nil {
				return err
			}
			sp.Stop()

			if !excludeMeta {
				now := time.Now().UTC()
				config[metaFieldPrefix+"exported-by"] = resolvedUserid
				config[metaFieldPrefix+"exported-from-cpc-name"] = args[0]
				config[metaFieldPrefix+"exported-when"] = now.Format("2006-01-02 15:04:05") + " UTC"
				config[metaFieldPrefix+"zhmc-version"] = version
			}

			if err := writeDPMFile(exportFile, exportFormat, config); err != nil {
				return err
			}

			fmt.Printf("Exported DPM configuration of CPC '%s' into DPM config file %s in %s format.\n",
				args[0], exportFile, strings.ToUpper(exportFormat))
			dumpConfigSummary(config, "Export data summary:")
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&exportFile, "dpm-file", "d", "", "Path name of the DPM configuration file to be written (required)")
	exportCmd.Flags().StringVarP(&exportFormat, "dpm-format", "f", "yaml", "Data format of the DPM configuration file: yaml or json")
	exportCmd.Flags().BoolVarP(&excludeMeta, "exclude-meta-fields", "e", false, "Do not add meta fields about the export operation")
	exportCmd.Flags().BoolVarP(&includeUnusedAds, "include-unused-adapters", "i", false, "Include adapters not referenced by other DPM objects")
	_ = exportCmd.MarkFlagRequired("dpm-file")
	cpcCmd.AddCommand(exportCmd)

	// cpc dpm-import
	var (
		importFile   string
		importFormat string
		mappingFile  string
		yes          bool
	)
	importCmd := &cobra.Command{
		Use:   "dpm-import CPC",
		Short: "Import a DPM configuration into a CPC",
		Long: `Import a DPM configuration into a CPC.

The DPM configuration is read from a DPM configuration file in YAML or
JSON format and imported into the CPC, replacing its current DPM
configuration.

Optionally, an adapter mapping file in YAML format can be specified to
accommodate different adapter PCHIDs (plug positions) between the CPC
represented in the DPM configuration and the CPC targeted for the import.
By default the PCHIDs are unchanged.

Importing a configuration can result in significant changes to the CPC,
so the command summarizes the key elements of the configuration and asks
for confirmation before importing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if importFormat != "yaml" && importFormat != "json" {
				return fmt.Errorf("invalid DPM file format %q (valid: yaml, json)", importFormat)
			}

			config, err := readDPMFile(importFile, importFormat)
			if err != nil {
				return err
			}

			var summary [][2]string
			summary = append(summary, resolvePreserveFlag(cmd, config, "preserve-uris", importFile))
			summary = append(summary, resolvePreserveFlag(cmd, config, "preserve-wwpns", importFile))

			mappingSummary, err := resolveAdapterMapping(config, mappingFile, importFile)
			if err != nil {
				return err
			}
			summary = append(summary, mappingSummary)
			summary = append(summary, dropMetaFields(config)...)

			for _, row := range summary {
				fmt.Printf("%-24s %s\n", row[0], row[1])
			}
			dumpConfigSummary(config, "Import data summary:")

			if !yes {
				message := fmt.Sprintf("Are you sure you want to import the DPM configuration from %s into CPC %s, replacing its current DPM configuration?",
					importFile, args[0])
				if !confirm(message) {
					return nil
				}
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
			result, err := client.CPC.ImportDPMConfiguration(cmd.Context(), cpc.ObjectURI, config)
			if err != nil {
				return err
			}
			sp.Stop()

			if result.Complete {
				fmt.Printf("Imported DPM configuration from DPM config file %s into CPC '%s'.\n", importFile, args[0])
				return nil
			}

			fmt.Printf("Partially imported DPM configuration from DPM config file %s into CPC '%s'. The following parts were not restored:\n",
				importFile, args[0])
			return printJSON(result.Output)
		},
	}
	importCmd.Flags().StringVarP(&importFile, "dpm-file", "d", "", "Path name of the DPM configuration file to be used (required)")
	importCmd.Flags().StringVarP(&importFormat, "dpm-format", "f", "yaml", "Data format of the DPM configuration file: yaml or json")
	importCmd.Flags().StringVarP(&mappingFile, "mapping-file", "m", "", "Path name of the adapter mapping file; default is a 1:1 adapter mapping")
	importCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip prompt to confirm import of the DPM configuration")
	importCmd.Flags().Bool("preserve-uris", false, "Preserve existing URIs and IDs of objects in the configuration file; overrides the file")
	importCmd.Flags().Bool("generate-uris", false, "Ignore URIs and IDs in the configuration file and generate new ones; overrides the file")
	importCmd.Flags().Bool("preserve-wwpns", false, "Preserve existing WWPNs of HBAs in the configuration file; overrides the file")
	importCmd.Flags().Bool("generate-wwpns", false, "Ignore WWPNs in the configuration file and generate new ones; overrides the file")
	importCmd.MarkFlagsMutuallyExclusive("preserve-uris", "generate-uris")
	importCmd.MarkFlagsMutuallyExclusive("preserve-wwpns", "generate-wwpns")
	_ = importCmd.MarkFlagRequired("dpm-file")
	cpcCmd.AddCommand(importCmd)
}

func writeDPMFile(path, format string, config map[string]any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create DPM configuration file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if format == "json" {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(config)
	}
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(config)
}

func readDPMFile(path, format string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read DPM configuration file: %w", err)
	}
	var config map[string]any
	if format == "json" {
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("error parsing DPM configuration file %s in JSON format: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("error parsing DPM configuration file %s in YAML format: %w", path, err)
		}
	}
	return config, nil
}

// resolvePreserveFlag applies the precedence command option > configuration
// file > HMC default (false) for the preserve-uris and preserve-wwpns
// flags, and reports where the effective value came from.
func resolvePreserveFlag(cmd *cobra.Command, config map[string]any, key, dpmFile string) [2]string {
	flags := cmd.Flags()
	// preserve-uris pairs with generate-uris, preserve-wwpns with
	// generate-wwpns.
	preserveFlag := key
	generateFlag := "generate-" + key[len("preserve-"):]

	if flags.Changed(preserveFlag) || flags.Changed(generateFlag) {
		value := flags.Changed(preserveFlag)
		config[key] = value
		return [2]string{key + ":", fmt.Sprintf("%t from zhmc option", value)}
	}
	if v, ok := config[key]; ok {
		return [2]string{key + ":", fmt.Sprintf("%v from %s", v, dpmFile)}
	}
	return [2]string{key + ":", "false from HMC default"}
}

// adapterMapping mirrors the structure of the adapter mapping file.
type adapterMapping struct {
	AdapterMapping []struct {
		OldAdapterID string `yaml:"old-adapter-id"`
		NewAdapterID string `yaml:"new-adapter-id"`
	} `yaml:"adapter-mapping"`
}

// resolveAdapterMapping reads the mapping file, validates it, and puts the
// mapping into the configuration in the format of the adapter-mapping
// property of the Import DPM Configuration operation. A mapping file takes
// precedence over a mapping in the configuration file.
func resolveAdapterMapping(config map[string]any, mappingFile, dpmFile string) ([2]string, error) {
	if mappingFile == "" {
		if _, ok := config["adapter-mapping"]; ok {
			return [2]string{"adapter-mapping:", "from " + dpmFile}, nil
		}
		return [2]string{"adapter-mapping:", "1 to 1 from HMC default"}, nil
	}

	data, err := os.ReadFile(mappingFile)
	if err != nil {
		return [2]string{}, fmt.Errorf("failed to read adapter mapping file: %w", err)
	}
	var mapping adapterMapping
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return [2]string{}, fmt.Errorf("error parsing adapter mapping file %s in YAML format: %w", mappingFile, err)
	}
	if len(mapping.AdapterMapping) == 0 {
		return [2]string{}, fmt.Errorf("adapter mapping file %s does not contain an adapter-mapping list", mappingFile)
	}

	entries := make([]map[string]any, 0, len(mapping.AdapterMapping))
	for i, m := range mapping.AdapterMapping {
		if m.OldAdapterID == "" || m.NewAdapterID == "" {
			return [2]string{}, fmt.Errorf("adapter mapping file %s: entry %d must have old-adapter-id and new-adapter-id", mappingFile, i)
		}
		entries = append(entries, map[string]any{
			"old-adapter-id": m.OldAdapterID,
			"new-adapter-id": m.NewAdapterID,
		})
	}
	config["adapter-mapping"] = entries
	return [2]string{"adapter-mapping:", "from " + mappingFile}, nil
}

// dropMetaFields removes the zhmccli-* meta fields from the configuration
// and returns them as summary rows.
func dropMetaFields(config map[string]any) [][2]string {
	var keys []string
	for k := range config {
		if strings.HasPrefix(k, "zhmccli-") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var summary [][2]string
	for _, k := range keys {
		summary = append(summary, [2]string{k + ":", fmt.Sprintf("%v", config[k])})
		delete(config, k)
	}
	return summary
}

// dumpConfigSummary prints counts of the list-valued elements of a DPM
// configuration and the scalar settings, so the user can judge what is
// about to be exported or imported.
func dumpConfigSummary(config map[string]any, message string) {
	type kv struct {
		key   string
		value any
	}
	var counts, values []kv
	for k, v := range config {
		switch tv := v.(type) {
		case []any:
			counts = append(counts, kv{k, len(tv)})
		case bool, string:
			values = append(values, kv{k, tv})
		}
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].key < counts[j].key })
	sort.Slice(values, func(i, j int) bool { return values[i].key < values[j].key })

	fmt.Println(message)
	for _, c := range counts {
		fmt.Printf("%3d %s\n", c.value, c.key)
	}
	for _, v := range values {
		fmt.Printf("%s: %v\n", v.key, v.value)
	}
}
