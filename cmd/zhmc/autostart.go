package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhmcclient/zhmc-go/pkg/zhmc"
)

var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Manage the auto-start list of a CPC (in DPM mode)",
}

func init() {
	cpcCmd.AddCommand(autostartCmd)

	// cpc autostart show
	showCmd := &cobra.Command{
		Use:   "show CPC",
		Short: "Show the auto-start list of a CPC",
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
			entries, present, err := client.CPC.GetAutoStartList(cmd.Context(), cpc.ObjectURI)
			if err != nil {
				return err
			}
			sp.Stop()
			if !present {
				fmt.Printf("CPC '%s' is in classic mode and has no auto-start list.\n", args[0])
				return nil
			}
			return printAutoStartList(cmd.Context(), client, cpc.ObjectURI, entries)
		},
	}
	autostartCmd.AddCommand(showCmd)

	// cpc autostart add
	var (
		groupName   string
		description string
		before      string
		after       string
	)
	addCmd := &cobra.Command{
		Use:   "add CPC PARTITIONS DELAY",
		Short: "Add a partition or group to the auto-start list of a CPC",
		Long: `Add a partition or group to the auto-start list of a CPC.

A partition group exists only in context of the auto-start list; it has
nothing to do with Group objects.

PARTITIONS is the partition name, or a comma-separated list of partition
names when adding a partition group with --group.

DELAY is the delay after starting this partition or group, in seconds.

The updated auto-start list is shown.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cpcName, partitionNames := args[0], args[1]
			delay, err := strconv.Atoi(args[2])
			if err != nil || delay < 0 {
				return fmt.Errorf("invalid DELAY value %q: must be a non-negative integer", args[2])
			}
			if before != "" && after != "" {
				return fmt.Errorf("--before and --after cannot both be specified")
			}

			client, err := buildClient()
			if err != nil {
				return err
			}
			sp := newSpinner()
			defer sp.Stop()
			cpc, err := client.CPC.FindByName(cmd.Context(), cpcName)
			if err != nil {
				return err
			}
			entries, present, err := client.CPC.GetAutoStartList(cmd.Context(), cpc.ObjectURI)
			if err != nil {
				return err
			}
			if !present {
				sp.Stop()
				fmt.Printf("CPC '%s' is in classic mode and has no auto-start list.\n", cpcName)
				return nil
			}

			var entry zhmc.AutoStartEntry
			if groupName != "" {
				uris := []string{}
				for _, name := range strings.Split(partitionNames, ",") {
					part, err := client.CPC.FindPartitionByName(cmd.Context(), cpc.ObjectURI, name)
					if err != nil {
						return err
					}
					uris = append(uris, part.ObjectURI)
				}
				entry = zhmc.AutoStartEntry{
					Type:           zhmc.AutoStartTypePartitionGroup,
					Name:           groupName,
					Description:    description,
					PartitionURIs:  uris,
					PostStartDelay: delay,
				}
			} else {
				part, err := client.CPC.FindPartitionByName(cmd.Context(), cpc.ObjectURI, partitionNames)
				if err != nil {
					return err
				}
				entry = zhmc.AutoStartEntry{
					Type:           zhmc.AutoStartTypePartition,
					PartitionURI:   part.ObjectURI,
					PostStartDelay: delay,
				}
			}

			entries, err = insertAutoStartEntry(cmd.Context(), client, cpc.ObjectURI, entries, entry, before, after)
			if err != nil {
				return err
			}
			if err := client.CPC.SetAutoStartList(cmd.Context(), cpc.ObjectURI, entries); err != nil {
				return err
			}
			sp.Stop()
			return printAutoStartList(cmd.Context(), client, cpc.ObjectURI, entries)
		},
	}
	addCmd.Flags().StringVar(&groupName, "group", "", "Add the partition(s) as a partition group with this name")
	addCmd.Flags().StringVar(&description, "description", "", "Description of the partition group")
	addCmd.Flags().StringVar(&before, "before", "", "Insert the new partition or group before this partition/group")
	addCmd.Flags().StringVar(&after, "after", "", "Insert the new partition or group after this partition/group")
	autostartCmd.AddCommand(addCmd)

	// cpc autostart delete
	deleteCmd := &cobra.Command{
		Use:   "delete CPC PARTITION_OR_GROUP",
		Short: "Delete a partition or group from the auto-start list of a CPC",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cpcName, target := args[0], args[1]

			client, err := buildClient()
			if err != nil {
				return err
			}
			sp := newSpinner()
			defer sp.Stop()
			cpc, err := client.CPC.FindByName(cmd.Context(), cpcName)
			if err != nil {
				return err
			}
			entries, present, err := client.CPC.GetAutoStartList(cmd.Context(), cpc.ObjectURI)
			if err != nil {
				return err
			}
			if !present {
				sp.Stop()
				fmt.Printf("CPC '%s' is in classic mode and has no auto-start list.\n", cpcName)
				return nil
			}

			idx, err := findAutoStartEntry(cmd.Context(), client, cpc.ObjectURI, entries, target)
			if err != nil {
				return err
			}
			if idx < 0 {
				return fmt.Errorf("could not find partition or group '%s' in CPC '%s'", target, cpcName)
			}
			entries = append(entries[:idx], entries[idx+1:]...)

			if err := client.CPC.SetAutoStartList(cmd.Context(), cpc.ObjectURI, entries); err != nil {
				return err
			}
			sp.Stop()
			return printAutoStartList(cmd.Context(), client, cpc.ObjectURI, entries)
		},
	}
	autostartCmd.AddCommand(deleteCmd)

	// cpc autostart clear
	clearCmd := &cobra.Command{
		Use:   "clear CPC",
		Short: "Clear the auto-start list of a CPC",
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
			if err := client.CPC.SetAutoStartList(cmd.Context(), cpc.ObjectURI, nil); err != nil {
				return err
			}
			sp.Stop()
			fmt.Printf("Auto-start list for CPC '%s' has been cleared.\n", args[0])
			return nil
		},
	}
	autostartCmd.AddCommand(clearCmd)
}

// entryDisplayName resolves the name under which an auto-start entry is
// addressed: the group name, or the partition name looked up from its URI.
func entryDisplayName(ctx context.Context, client *zhmc.Client, entry zhmc.AutoStartEntry) (string, error) {
	if entry.Type == zhmc.AutoStartTypePartitionGroup {
		return entry.Name, nil
	}
	props, err := client.CPC.GetProperties(ctx, entry.PartitionURI)
	if err != nil {
		return "", err
	}
	name, _ := props["name"].(string)
	return name, nil
}

func findAutoStartEntry(ctx context.Context, client *zhmc.Client, cpcURI string, entries []zhmc.AutoStartEntry, target string) (int, error) {
	for i, entry := range entries {
		name, err := entryDisplayName(ctx, client, entry)
		if err != nil {
			return -1, err
		}
		if name == target {
			return i, nil
		}
	}
	return -1, nil
}

// insertAutoStartEntry places the new entry at the requested position, or
// appends it when neither --before nor --after is given.
func insertAutoStartEntry(ctx context.Context, client *zhmc.Client, cpcURI string, entries []zhmc.AutoStartEntry, entry zhmc.AutoStartEntry, before, after string) ([]zhmc.AutoStartEntry, error) {
	target := before
	if target == "" {
		target = after
	}
	if target == "" {
		return append(entries, entry), nil
	}

	idx, err := findAutoStartEntry(ctx, client, cpcURI, entries, target)
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, fmt.Errorf("could not find partition or group '%s' in the auto-start list", target)
	}
	if after != "" {
		idx++
	}
	entries = append(entries, zhmc.AutoStartEntry{})
	copy(entries[idx+1:], entries[idx:])
	entries[idx] = entry
	return entries, nil
}

func printAutoStartList(ctx context.Context, client *zhmc.Client, cpcURI string, entries []zhmc.AutoStartEntry) error {
	headers := []string{"Partition/Group", "Post start delay", "Partitions in group", "Group description"}
	rows := make([][]any, 0, len(entries))
	for _, entry := range entries {
		if entry.Type == zhmc.AutoStartTypePartitionGroup {
			names := make([]string, 0, len(entry.PartitionURIs))
			for _, uri := range entry.PartitionURIs {
				props, err := client.CPC.GetProperties(ctx, uri)
				if err != nil {
					return err
				}
				name, _ := props["name"].(string)
				names = append(names, name)
			}
			rows = append(rows, []any{entry.Name, entry.PostStartDelay, strings.Join(names, ", "), entry.Description})
			continue
		}
		name, err := entryDisplayName(ctx, client, entry)
		if err != nil {
			return err
		}
		rows = append(rows, []any{name, entry.PostStartDelay, "", ""})
	}
	return printTable(opts.outputFormat, headers, rows)
}
