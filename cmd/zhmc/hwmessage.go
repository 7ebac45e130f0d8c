package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhmcclient/zhmc-go/pkg/zhmc"
)

// hwMessageTarget abstracts over the owners of hardware messages: a CPC
// named by the first positional argument, or the console.
type hwMessageTarget struct {
	// use is the positional-argument prefix in the Use string, e.g. "CPC ".
	use string
	// extraArgs is the number of leading positional arguments consumed by
	// the target.
	extraArgs int
	// resolve returns the object URI owning the hardware messages.
	resolve func(ctx context.Context, client *zhmc.Client, args []string) (string, error)
}

var cpcMessageTarget = hwMessageTarget{
	use:       "CPC ",
	extraArgs: 1,
	resolve: func(ctx context.Context, client *zhmc.Client, args []string) (string, error) {
		cpc, err := client.CPC.FindByName(ctx, args[0])
		if err != nil {
			return "", err
		}
		return cpc.ObjectURI, nil
	},
}

var consoleMessageTarget = hwMessageTarget{
	resolve: func(ctx context.Context, client *zhmc.Client, args []string) (string, error) {
		return zhmc.ConsoleURI, nil
	},
}

const hwTimestampFormat = "2006-01-02 15:04:05.000000"

// newHWMessageCmd builds the hw-message command group for a target.
func newHWMessageCmd(target hwMessageTarget) *cobra.Command {
	group := &cobra.Command{
		Use:   "hw-message",
		Short: "Manage hardware messages",
	}

	// hw-message list
	var (
		beginStr string
		endStr   string
		svcOnly  bool
		listAll  bool
	)
	listCmd := &cobra.Command{
		Use:   "list " + target.use,
		Short: "List hardware messages",
		Long: `List hardware messages.

The --begin and --end times are either HMC timestamps (milliseconds since
the epoch) or date/time strings such as '2024-05-01 10:00:00'; times
without a timezone are interpreted as UTC.`,
		Args: cobra.ExactArgs(target.extraArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			listOpts := zhmc.ListHardwareMessageOptions{}
			if beginStr != "" {
				ts, err := parseTimestamp(beginStr)
				if err != nil {
					return fmt.Errorf("invalid begin time: %w", err)
				}
				listOpts.Begin = &ts
			}
			if endStr != "" {
				ts, err := parseTimestamp(endStr)
				if err != nil {
					return fmt.Errorf("invalid end time: %w", err)
				}
				listOpts.End = &ts
			}
			if cmd.Flags().Changed("service-supported") {
				listOpts.ServiceSupported = &svcOnly
			}

			client, err := buildClient()
			if err != nil {
				return err
			}
			sp := newSpinner()
			defer sp.Stop()
			parentURI, err := target.resolve(cmd.Context(), client, args)
			if err != nil {
				return err
			}
			msgs, err := client.Message.List(cmd.Context(), parentURI, listOpts)
			if err != nil {
				return err
			}

			records := make([]zhmc.Properties, 0, len(msgs))
			for _, m := range msgs {
				rec := zhmc.Properties{
					"timestamp-utc": m.Timestamp.Time().Format(hwTimestampFormat),
					"message-id":    m.ElementID,
					"text":          m.Text,
				}
				if listAll {
					props, err := client.Message.GetProperties(cmd.Context(), m.ElementURI)
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

			headers := []string{"timestamp-utc", "message-id", "text"}
			if listAll {
				headers = append(headers, remainingKeys(headers, records)...)
			}
			return printRecords(opts.outputFormat, headers, records)
		},
	}
	listCmd.Flags().StringVar(&beginStr, "begin", "", "Only show messages created at or after this time")
	listCmd.Flags().StringVar(&endStr, "end", "", "Only show messages created at or before this time")
	listCmd.Flags().BoolVar(&svcOnly, "service-supported", false, "Filter by whether IBM service can be requested for the message")
	listCmd.Flags().BoolVar(&listAll, "all", false, "Show all properties")
	group.AddCommand(listCmd)

	// hw-message show
	showCmd := &cobra.Command{
		Use:   "show " + target.use + "MESSAGE_ID",
		Short: "Show details of a hardware message",
		Args:  cobra.ExactArgs(target.extraArgs + 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := buildClient()
			if err != nil {
				return err
			}
			sp := newSpinner()
			defer sp.Stop()
			msg, err := findMessage(cmd.Context(), client, target, args)
			if err != nil {
				return err
			}
			props, err := client.Message.GetProperties(cmd.Context(), msg.ElementURI)
			if err != nil {
				return err
			}
			sp.Stop()

			props["message-id"] = msg.ElementID
			props["timestamp-utc"] = msg.Timestamp.Time().Format(hwTimestampFormat)
			return printProperties(opts.outputFormat, props, nil)
		},
	}
	group.AddCommand(showCmd)

	// hw-message delete
	deleteCmd := &cobra.Command{
		Use:   "delete " + target.use + "MESSAGE_ID",
		Short: "Delete a hardware message",
		Args:  cobra.ExactArgs(target.extraArgs + 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := buildClient()
			if err != nil {
				return err
			}
			sp := newSpinner()
			defer sp.Stop()
			msg, err := findMessage(cmd.Context(), client, target, args)
			if err != nil {
				return err
			}
			if err := client.Message.Delete(cmd.Context(), msg.ElementURI); err != nil {
				return err
			}
			sp.Stop()
			fmt.Printf("Hardware Message '%s' has been deleted.\n", msg.ElementID)
			return nil
		},
	}
	group.AddCommand(deleteCmd)

	// hw-message request-service
	var customerName, customerPhone string
	requestCmd := &cobra.Command{
		Use:   "request-service " + target.use + "MESSAGE_ID",
		Short: "Request IBM service for the problem of a hardware message",
		Long: `Request IBM service for the problem described by a hardware message.

The message must have service-supported true. On success, the HMC deletes
the message.`,
		Args: cobra.ExactArgs(target.extraArgs + 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := buildClient()
			if err != nil {
				return err
			}
			sp := newSpinner()
			defer sp.Stop()
			msg, err := findMessage(cmd.Context(), client, target, args)
			if err != nil {
				return err
			}
			err = client.Message.RequestService(cmd.Context(), msg.ElementURI,
				zhmc.RequestServiceOptions{CustomerName: customerName, CustomerPhone: customerPhone})
			if err != nil {
				return err
			}
			sp.Stop()
			fmt.Printf("IBM service for Hardware Message '%s' has been requested and the message has been deleted.\n", msg.ElementID)
			return nil
		},
	}
	requestCmd.Flags().StringVar(&customerName, "customer-name", "", "Customer name override for the service request")
	requestCmd.Flags().StringVar(&customerPhone, "customer-phone", "", "Customer phone override for the service request")
	group.AddCommand(requestCmd)

	// hw-message get-service-info
	var deleteAfter bool
	serviceInfoCmd := &cobra.Command{
		Use:   "get-service-info " + target.use + "MESSAGE_ID",
		Short: "Get problem information for a hardware message",
		Args:  cobra.ExactArgs(target.extraArgs + 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := buildClient()
			if err != nil {
				return err
			}
			sp := newSpinner()
			defer sp.Stop()
			msg, err := findMessage(cmd.Context(), client, target, args)
			if err != nil {
				return err
			}
			info, err := client.Message.GetServiceInformation(cmd.Context(), msg.ElementURI, deleteAfter)
			if err != nil {
				return err
			}
			sp.Stop()
			if err := printProperties(opts.outputFormat, info, nil); err != nil {
				return err
			}
			if deleteAfter {
				fmt.Printf("Hardware Message '%s' has been deleted.\n", msg.ElementID)
			}
			return nil
		},
	}
	serviceInfoCmd.Flags().BoolVar(&deleteAfter, "delete", false, "Delete the message after retrieving the service information")
	group.AddCommand(serviceInfoCmd)

	// hw-message decline-service
	declineCmd := &cobra.Command{
		Use:   "decline-service " + target.use + "MESSAGE_ID",
		Short: "Decline IBM service for the problem of a hardware message",
		Args:  cobra.ExactArgs(target.extraArgs + 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := buildClient()
			if err != nil {
				return err
			}
			sp := newSpinner()
			defer sp.Stop()
			msg, err := findMessage(cmd.Context(), client, target, args)
			if err != nil {
				return err
			}
			if err := client.Message.DeclineService(cmd.Context(), msg.ElementURI); err != nil {
				return err
			}
			sp.Stop()
			fmt.Printf("IBM service for Hardware Message '%s' has been declined and the message has been deleted.\n", msg.ElementID)
			return nil
		},
	}
	group.AddCommand(declineCmd)

	return group
}

func findMessage(ctx context.Context, client *zhmc.Client, target hwMessageTarget, args []string) (*zhmc.HardwareMessage, error) {
	parentURI, err := target.resolve(ctx, client, args)
	if err != nil {
		return nil, err
	}
	return client.Message.FindByID(ctx, parentURI, args[target.extraArgs])
}

func init() {
	cpcCmd.AddCommand(newHWMessageCmd(cpcMessageTarget))
}
