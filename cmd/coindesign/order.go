package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/metalpromo/coin-design/internal/store"
)

func newOrderCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order <id>",
		Short: "Fetch an order from the CRM",
		Args:  cobra.ExactArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadState(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderFetch(cmd, st, args[0])
		},
	}

	cmd.AddCommand(newOrderDesignsCmd(st))
	return cmd
}

func newOrderDesignsCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "designs <id>",
		Short: "List stored designs for an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderDesigns(cmd, st, args[0])
		},
	}
}

func runOrderFetch(cmd *cobra.Command, st *cliState, orderID string) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("order: missing config (internal error)")
	}

	client, err := crmFromConfig(st.cfg)
	if err != nil {
		return err
	}

	order, err := client.FetchOrder(cmd.Context(), orderID)
	if err != nil {
		return err
	}

	stor, err := openStore(st.cfg)
	if err != nil {
		return err
	}
	defer func() { _ = stor.Close() }()

	record := &store.OrderRecord{
		ID:            order.ID,
		FirstName:     order.FirstName,
		LastName:      order.LastName,
		Organization:  order.Organization,
		Notes:         order.Notes,
		FirstFileURL:  order.FirstFileURL,
		SecondFileURL: order.SecondFileURL,
		FetchedAt:     time.Now().UTC(),
	}
	if err := stor.SaveOrder(cmd.Context(), record); err != nil {
		return fmt.Errorf("order: save order: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Order:        %s\n", record.ID)
	fmt.Fprintf(out, "Customer:     %s %s\n", record.FirstName, record.LastName)
	if record.Organization != "" {
		fmt.Fprintf(out, "Organization: %s\n", record.Organization)
	}
	if record.FirstFileURL != "" {
		fmt.Fprintf(out, "File 1:       %s\n", record.FirstFileURL)
	}
	if record.SecondFileURL != "" {
		fmt.Fprintf(out, "File 2:       %s\n", record.SecondFileURL)
	}
	fmt.Fprintf(out, "Notes:\n%s\n", record.Notes)
	return nil
}

func runOrderDesigns(cmd *cobra.Command, st *cliState, orderID string) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("order: missing config (internal error)")
	}

	stor, err := openStore(st.cfg)
	if err != nil {
		return err
	}
	defer func() { _ = stor.Close() }()

	designs, err := stor.ListDesigns(cmd.Context(), store.DesignFilter{OrderID: orderID})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DESIGN\tTEMPLATE\tSTATUS\tCREATED")
	for _, d := range designs {
		status := "ok"
		if !d.Success {
			status = "failed"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.TemplateID, status, d.CreatedAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}
