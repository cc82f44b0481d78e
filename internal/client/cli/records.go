package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/estimatekeeper/internal/client/services"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
	"github.com/spf13/cobra"
)

func newCustomerCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "customer", Short: "Manage customers"}

	var in services.CustomerInput
	bind := func(c *cobra.Command) {
		c.Flags().StringVar(&in.Name, "name", "", "customer name")
		c.Flags().StringVar(&in.Phone, "phone", "", "phone number")
		c.Flags().StringVar(&in.Email, "email", "", "email address")
		c.Flags().StringVar(&in.Address, "address", "", "postal address")
		c.Flags().StringVar(&in.Notes, "notes", "", "free-form notes")
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			userID, err := app.UserID()
			if err != nil {
				return err
			}
			c, err := app.Customers.Create(cmd.Context(), userID, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.ID)
			return nil
		},
	}
	bind(add)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a customer's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			c, err := app.Customers.Update(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %d\n", c.ID, c.Version)
			return nil
		},
	}
	bind(update)

	list := &cobra.Command{
		Use:   "list",
		Short: "List customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			userID, err := app.UserID()
			if err != nil {
				return err
			}
			rows, err := app.Customers.List(cmd.Context(), userID)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPHONE\tEMAIL")
			for _, c := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Phone, c.Email)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(add, update, list, deleteCmd("customer", func(ctx context.Context, app *App, id string) error {
		return app.Customers.Delete(ctx, id)
	}))
	return cmd
}

func newEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "estimate", Short: "Manage estimates"}

	var (
		in       services.EstimateInput
		customer string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Start a draft estimate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			userID, err := app.UserID()
			if err != nil {
				return err
			}
			if customer != "" {
				in.CustomerID = &customer
			}
			e, err := app.Estimates.Create(cmd.Context(), userID, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), e.ID)
			return nil
		},
	}
	add.Flags().StringVar(&customer, "customer", "", "customer id")
	add.Flags().StringVar(&in.Date, "date", "", "estimate date")
	add.Flags().Float64Var(&in.LaborHours, "labor-hours", 0, "labor hours")
	add.Flags().Float64Var(&in.LaborRate, "labor-rate", 0, "labor rate per hour")
	add.Flags().Float64Var(&in.TaxRate, "tax-rate", 0, "tax rate, percent")
	add.Flags().Float64Var(&in.MarkupRate, "markup-rate", 0, "material markup, percent")
	add.Flags().StringVar(&in.Notes, "notes", "", "free-form notes")

	list := &cobra.Command{
		Use:   "list",
		Short: "List estimates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			userID, err := app.UserID()
			if err != nil {
				return err
			}
			rows, err := app.Estimates.List(cmd.Context(), userID)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tSTATUS\tTOTAL")
			for _, e := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\n", e.ID, e.Date, e.Status, e.Total)
			}
			return w.Flush()
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an estimate with its line items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			e, err := app.Estimates.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			items, err := app.Estimates.Items(cmd.Context(), e.ID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "estimate\t%s (%s, version %d)\n", e.ID, e.Status, e.Version)
			fmt.Fprintln(w, "ITEM\tDESCRIPTION\tQTY\tPRICE\tTOTAL")
			for _, it := range items {
				fmt.Fprintf(w, "%s\t%s\t%g\t%.2f\t%.2f\n", it.ID, it.Description, it.Quantity, it.UnitPrice, it.Total)
			}
			fmt.Fprintf(w, "materials\t\t\t\t%.2f\n", e.MaterialTotal)
			fmt.Fprintf(w, "labor\t\t\t\t%.2f\n", e.LaborTotal)
			fmt.Fprintf(w, "tax\t\t\t\t%.2f\n", e.TaxTotal)
			fmt.Fprintf(w, "total\t\t\t\t%.2f\n", e.Total)
			return w.Flush()
		},
	}

	var (
		up         services.EstimateInput
		upCustomer string
	)
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an estimate's details and re-price it",
		Long:  "Only the flags given are changed. Pass --customer \"\" to detach the customer.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			cur, err := app.Estimates.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			in := estimateInput(cur)
			f := cmd.Flags()
			if f.Changed("customer") {
				in.CustomerID = nil
				if upCustomer != "" {
					in.CustomerID = &upCustomer
				}
			}
			overlay(f.Changed("date"), &in.Date, up.Date)
			overlay(f.Changed("labor-hours"), &in.LaborHours, up.LaborHours)
			overlay(f.Changed("labor-rate"), &in.LaborRate, up.LaborRate)
			overlay(f.Changed("tax-rate"), &in.TaxRate, up.TaxRate)
			overlay(f.Changed("markup-rate"), &in.MarkupRate, up.MarkupRate)
			overlay(f.Changed("notes"), &in.Notes, up.Notes)

			e, err := app.Estimates.Update(cmd.Context(), cur.ID, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %d total %.2f\n", e.ID, e.Version, e.Total)
			return nil
		},
	}
	update.Flags().StringVar(&upCustomer, "customer", "", "customer id")
	update.Flags().StringVar(&up.Date, "date", "", "estimate date")
	update.Flags().Float64Var(&up.LaborHours, "labor-hours", 0, "labor hours")
	update.Flags().Float64Var(&up.LaborRate, "labor-rate", 0, "labor rate per hour")
	update.Flags().Float64Var(&up.TaxRate, "tax-rate", 0, "tax rate, percent")
	update.Flags().Float64Var(&up.MarkupRate, "markup-rate", 0, "material markup, percent")
	update.Flags().StringVar(&up.Notes, "notes", "", "free-form notes")

	status := &cobra.Command{
		Use:   "status <id> <draft|sent|accepted|declined>",
		Short: "Change an estimate's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			e, err := app.Estimates.SetStatus(cmd.Context(), args[0], models.EstimateStatus(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", e.ID, e.Status)
			return nil
		},
	}

	cmd.AddCommand(add, list, show, update, status, deleteCmd("estimate", func(ctx context.Context, app *App, id string) error {
		return app.Estimates.Delete(ctx, id)
	}))
	return cmd
}

func newItemCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "item", Short: "Manage estimate line items"}

	var (
		in      services.ItemInput
		catalog string
	)
	add := &cobra.Command{
		Use:   "add <estimate-id>",
		Short: "Add a line item and re-price the estimate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if catalog != "" {
				in.CatalogItemID = &catalog
			}
			it, err := app.Estimates.AddItem(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %.2f\n", it.ID, it.Total)
			return nil
		},
	}
	add.Flags().StringVar(&in.Description, "description", "", "line description")
	add.Flags().Float64Var(&in.Quantity, "qty", 0, "quantity")
	add.Flags().Float64Var(&in.UnitPrice, "price", 0, "unit price")
	add.Flags().StringVar(&catalog, "catalog", "", "catalog item id to copy from")
	add.Flags().BoolVar(&in.MarkupExcluded, "no-markup", false, "exclude this line from markup")

	var (
		up        services.ItemInput
		upCatalog string
	)
	update := &cobra.Command{
		Use:   "update <item-id>",
		Short: "Change a line item and re-price the estimate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			cur, err := app.Estimates.Item(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			in := services.ItemInput{
				Description:    cur.Description,
				Quantity:       cur.Quantity,
				UnitPrice:      cur.UnitPrice,
				CatalogItemID:  cur.CatalogItemID,
				MarkupExcluded: cur.MarkupExcluded,
			}
			f := cmd.Flags()
			if f.Changed("catalog") {
				in.CatalogItemID = nil
				if upCatalog != "" {
					in.CatalogItemID = &upCatalog
				}
			}
			overlay(f.Changed("description"), &in.Description, up.Description)
			overlay(f.Changed("qty"), &in.Quantity, up.Quantity)
			overlay(f.Changed("price"), &in.UnitPrice, up.UnitPrice)
			overlay(f.Changed("no-markup"), &in.MarkupExcluded, up.MarkupExcluded)

			it, err := app.Estimates.UpdateItem(cmd.Context(), cur.ID, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %.2f\n", it.ID, it.Total)
			return nil
		},
	}
	update.Flags().StringVar(&up.Description, "description", "", "line description")
	update.Flags().Float64Var(&up.Quantity, "qty", 0, "quantity")
	update.Flags().Float64Var(&up.UnitPrice, "price", 0, "unit price")
	update.Flags().StringVar(&upCatalog, "catalog", "", "catalog item id")
	update.Flags().BoolVar(&up.MarkupExcluded, "no-markup", false, "exclude this line from markup")

	cmd.AddCommand(add, update, deleteCmd("item", func(ctx context.Context, app *App, id string) error {
		return app.Estimates.DeleteItem(ctx, id)
	}))
	return cmd
}

func newPhotoCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "photo", Short: "Manage estimate photos"}

	var description string
	add := &cobra.Command{
		Use:   "add <estimate-id> <file>",
		Short: "Attach a photo; it is uploaded on the next sync",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			p, err := app.Photos.Add(cmd.Context(), args[0], args[1], description)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.ID)
			return nil
		},
	}
	add.Flags().StringVar(&description, "description", "", "photo caption")

	list := &cobra.Command{
		Use:   "list <estimate-id>",
		Short: "List an estimate's photos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			rows, err := app.Photos.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKEY\tLOCAL\tDESCRIPTION")
			for _, p := range rows {
				local := "-"
				if p.LocalURI != nil {
					local = *p.LocalURI
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.URI, local, p.Description)
			}
			return w.Flush()
		},
	}

	describe := &cobra.Command{
		Use:   "describe <photo-id> <description>",
		Short: "Change a photo's caption",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			p, err := app.Photos.UpdateDescription(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %d\n", p.ID, p.Version)
			return nil
		},
	}

	cmd.AddCommand(add, list, describe, deleteCmd("photo", func(ctx context.Context, app *App, id string) error {
		return app.Photos.Delete(ctx, id)
	}))
	return cmd
}

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "catalog", Short: "Manage reusable catalog items"}

	var in services.CatalogInput
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a catalog item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			userID, err := app.UserID()
			if err != nil {
				return err
			}
			c, err := app.Catalog.Create(cmd.Context(), userID, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.ID)
			return nil
		},
	}
	add.Flags().StringVar(&in.Name, "name", "", "item name")
	add.Flags().StringVar(&in.Description, "description", "", "item description")
	add.Flags().Float64Var(&in.UnitPrice, "price", 0, "unit price")
	add.Flags().Float64Var(&in.DefaultQuantity, "qty", 1, "default quantity")

	list := &cobra.Command{
		Use:   "list",
		Short: "List catalog items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			userID, err := app.UserID()
			if err != nil {
				return err
			}
			rows, err := app.Catalog.List(cmd.Context(), userID)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPRICE\tQTY")
			for _, c := range rows {
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%g\n", c.ID, c.Name, c.UnitPrice, c.DefaultQuantity)
			}
			return w.Flush()
		},
	}

	var up services.CatalogInput
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a catalog item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			cur, err := app.Catalog.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			in := services.CatalogInput{
				Name:            cur.Name,
				Description:     cur.Description,
				UnitPrice:       cur.UnitPrice,
				DefaultQuantity: cur.DefaultQuantity,
			}
			f := cmd.Flags()
			overlay(f.Changed("name"), &in.Name, up.Name)
			overlay(f.Changed("description"), &in.Description, up.Description)
			overlay(f.Changed("price"), &in.UnitPrice, up.UnitPrice)
			overlay(f.Changed("qty"), &in.DefaultQuantity, up.DefaultQuantity)

			c, err := app.Catalog.Update(cmd.Context(), cur.ID, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %d\n", c.ID, c.Version)
			return nil
		},
	}
	update.Flags().StringVar(&up.Name, "name", "", "item name")
	update.Flags().StringVar(&up.Description, "description", "", "item description")
	update.Flags().Float64Var(&up.UnitPrice, "price", 0, "unit price")
	update.Flags().Float64Var(&up.DefaultQuantity, "qty", 1, "default quantity")

	cmd.AddCommand(add, update, list, deleteCmd("catalog item", func(ctx context.Context, app *App, id string) error {
		return app.Catalog.Delete(ctx, id)
	}))
	return cmd
}

func estimateInput(e *models.Estimate) services.EstimateInput {
	return services.EstimateInput{
		CustomerID: e.CustomerID,
		Date:       e.Date,
		LaborHours: e.LaborHours,
		LaborRate:  e.LaborRate,
		TaxRate:    e.TaxRate,
		MarkupRate: e.MarkupRate,
		Notes:      e.Notes,
	}
}

// overlay sets *dst to v when the flag behind v was given.
func overlay[T any](changed bool, dst *T, v T) {
	if changed {
		*dst = v
	}
}

// deleteCmd builds "<noun> delete <id>" around a soft-delete call.
func deleteCmd(noun string, del func(ctx context.Context, app *App, id string) error) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: fmt.Sprintf("Delete a %s", noun),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if err := del(cmd.Context(), app, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s deleted\n", noun, args[0])
			return nil
		},
	}
}
