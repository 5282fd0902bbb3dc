// Package commands contains the subcommands of the admin CLI.
package commands

import (
	"context"
	"fmt"
	"strings"

	"civicreport/internal/models"
	"civicreport/internal/observability"
	"civicreport/internal/serviceinterfaces"
	contextutils "civicreport/internal/utils"

	"github.com/spf13/cobra"
)

// TicketCommands returns the ticket administration commands
func TicketCommands(ticketService serviceinterfaces.TicketService, logger *observability.Logger) *cobra.Command {
	ticketCmd := &cobra.Command{
		Use:   "tickets",
		Short: "Ticket administration commands",
		Long: `Ticket administration commands for the civic report application.

Available commands:
  list     - List all tickets
  overdue  - List open tickets past the overdue threshold
  show     - Show a single ticket by id
  resolve  - Resolve an open ticket by id`,
	}

	ticketCmd.AddCommand(listTicketsCmd(ticketService))
	ticketCmd.AddCommand(overdueTicketsCmd(ticketService))
	ticketCmd.AddCommand(showTicketCmd(ticketService))
	ticketCmd.AddCommand(resolveTicketCmd(ticketService, logger))

	return ticketCmd
}

func listTicketsCmd(ticketService serviceinterfaces.TicketService) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tickets",
		Long:  `List every valid ticket in the table, in submission order.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			tickets, err := ticketService.ListTickets(context.Background())
			if err != nil {
				return contextutils.WrapError(err, "failed to list tickets")
			}
			printTicketTable(tickets)
			return nil
		},
	}
}

func overdueTicketsCmd(ticketService serviceinterfaces.TicketService) *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List overdue open tickets",
		Long:  `List the open tickets that have been open longer than the overdue threshold.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			view, err := ticketService.ListForTriage(context.Background())
			if err != nil {
				return contextutils.WrapError(err, "failed to list tickets for triage")
			}
			fmt.Printf("%d open, %d overdue\n\n", len(view.Open), len(view.Overdue))
			printTicketTable(view.Overdue)
			return nil
		},
	}
}

func showTicketCmd(ticketService serviceinterfaces.TicketService) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a single ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ticket, err := ticketService.GetTicket(context.Background(), args[0])
			if err != nil {
				return contextutils.WrapError(err, "failed to get ticket")
			}

			fmt.Printf("ID:                 %s\n", ticket.ID)
			fmt.Printf("Name:               %s\n", ticket.Name)
			fmt.Printf("Description:        %s\n", ticket.Description)
			fmt.Printf("Category:           %s\n", ticket.Category)
			fmt.Printf("Suggested category: %s\n", ticket.SuggestedCategory)
			fmt.Printf("Location:           %s\n", ticket.GeoLocation.Address)
			fmt.Printf("Reported:           %s\n", ticket.Date)
			fmt.Printf("Status:             %s\n", ticket.Status)
			return nil
		},
	}
}

func resolveTicketCmd(ticketService serviceinterfaces.TicketService, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [id]",
		Short: "Resolve an open ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx := context.Background()
			ticket, err := ticketService.ResolveTicket(ctx, args[0])
			if err != nil {
				logger.Error(ctx, "Failed to resolve ticket", err, map[string]interface{}{"ticket_id": args[0]})
				return contextutils.WrapError(err, "failed to resolve ticket")
			}
			fmt.Printf("Resolved ticket %s (%s)\n", ticket.ID, ticket.Name)
			return nil
		},
	}
}

func printTicketTable(tickets []models.Ticket) {
	if len(tickets) == 0 {
		fmt.Println("No tickets found")
		return
	}

	fmt.Printf("%-36s %-15s %-20s %-20s %-10s\n", "ID", "Name", "Category", "Reported", "Status")
	fmt.Println(strings.Repeat("-", 105))
	for _, t := range tickets {
		fmt.Printf("%-36s %-15s %-20s %-20s %-10s\n", t.ID, truncate(t.Name, 15), truncate(t.Category, 20), t.Date, t.Status)
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
