package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhmcclient/zhmc-go/pkg/zhmc"
)

var adapterCmd = &cobra.Command{
	Use:   "adapter",
	Short: "Manage adapters of CPCs in DPM mode",
}

func init() {
	rootCmd.AddCommand(adapterCmd)

	// adapter list
	var (
		listName      string
		listAdapterID string
	)
	listCmd := &cobra.Command{
		Use:   "list CPC",
		Short: "List the adapters of a CPC",
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
			adapters, err := client.Adapter.List(cmd.Context(), cpc.ObjectURI, zhmc.ListAdapterOptions{
				Name:      listName,
				AdapterID: listAdapterID,
			})
			if err != nil {
				return err
			}
			sp.Stop()

			headers := []string{"name", "adapter-id", "adapter-family", "type", "status"}
			rows := make([][]any, 0, len(adapters))
			for _, a := range adapters {
				rows = append(rows, []any{a.Name, a.AdapterID, a.AdapterFamily, a.Type, a.Status})
			}
			return printTable(opts.outputFormat, headers, rows)
		},
	}
	listCmd.Flags().StringVar(&listName, "name", "", "Regular expression to filter by adapter name")
	listCmd.Flags().StringVar(&listAdapterID, "adapter-id", "", "Regular expression to filter by adapter ID (PCHID)")
	adapterCmd.AddCommand(listCmd)

	// adapter show
	showCmd := &cobra.Command{
		Use:   "show CPC ADAPTER",
		Short: "Show details of an adapter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := buildClient()
			if err != nil {
				return err
			}
			sp := newSpinner()
			defer sp.Stop()
			adapter, err := findAdapter(cmd, client, args[0], args[1])
			if err != nil {
				return err
			}
			props, err := client.Adapter.GetProperties(cmd.Context(), adapter.ObjectURI)
			if err != nil {
				return err
			}
			sp.Stop()
			return printProperties(opts.outputFormat, props, nil)
		},
	}
	adapterCmd.AddCommand(showCmd)

	// adapter update
	var description string
	updateCmd := &cobra.Command{
		Use:   "update CPC ADAPTER",
		Short: "Update the properties of an adapter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			props := zhmc.Properties{}
			if cmd.Flags().Changed("description") {
				props["description"] = description
			}
			if len(props) == 0 {
				fmt.Println("No properties specified for updating adapter", args[1])
				return nil
			}

			client, err := buildClient()
			if err != nil {
				return err
			}
			sp := newSpinner()
			defer sp.Stop()
			adapter, err := findAdapter(cmd, client, args[0], args[1])
			if err != nil {
				return err
			}
			if err := client.Adapter.UpdateProperties(cmd.Context(), adapter.ObjectURI, props); err != nil {
				return err
			}
			sp.Stop()
			fmt.Printf("Adapter %s has been updated.\n", args[1])
			return nil
		},
	}
	updateCmd.Flags().StringVar(&description, "description", "", "New description for the adapter")
	adapterCmd.AddCommand(updateCmd)
}

func findAdapter(cmd *cobra.Command, client *zhmc.Client, cpcName, adapterName string) (*zhmc.Adapter, error) {
	cpc, err := client.CPC.FindByName(cmd.Context(), cpcName)
	if err != nil {
		return nil, err
	}
	return client.Adapter.FindByName(cmd.Context(), cpc.ObjectURI, adapterName)
}
