package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"go-freight/internal/client"
	"go-freight/internal/common/models"
	"go-freight/internal/features/listing"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "Show the list screens and their filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		schemas, err := api.Resources(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(schemas)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RESOURCE\tLABEL\tDATE FIELD\tFILTERS")
		for _, s := range schemas {
			var filters []string
			for key, cat := range s.Categories {
				if len(cat.Values) > 0 {
					key += "=" + strings.Join(cat.Values, "|")
				}
				filters = append(filters, key)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, s.Label, s.DateField, strings.Join(filters, " "))
		}
		return w.Flush()
	},
}

var listFilters filterFlags

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show one page of records matching the filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		page, _ := cmd.Flags().GetInt("page")

		criteria, err := listFilters.criteria(ctx)
		if err != nil {
			return err
		}
		res, err := client.NewSearchClient[models.Record](api, resource).Search(ctx, criteria, page, pageSize)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(res)
		}

		schema, err := lookupSchema(ctx)
		if err != nil {
			return err
		}
		printRecords(schema, res.Items)
		fmt.Printf("\npage %d of %d, %s %s matching %s\n",
			page, res.TotalPages, humanize.Comma(res.TotalItems), strings.ToLower(schema.Label), criteria)
		return nil
	},
}

func init() {
	listFilters.register(listCmd)
	listCmd.Flags().IntP("page", "p", 1, "page number")
}

func lookupSchema(ctx context.Context) (listing.ResourceSchema, error) {
	schemas, err := api.Resources(ctx)
	if err != nil {
		return listing.ResourceSchema{}, err
	}
	for _, s := range schemas {
		if s.Name == resource {
			return s, nil
		}
	}
	return listing.ResourceSchema{}, fmt.Errorf("%w: %s", listing.ErrUnknownResource, resource)
}

func printRecords(schema listing.ResourceSchema, records []models.Record) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	headers := []string{"ID"}
	for _, col := range schema.PrintColumns {
		headers = append(headers, strings.ToUpper(col.Header))
	}
	fmt.Fprintln(w, strings.Join(headers, "\t"))

	for _, rec := range records {
		cells := []string{rec.ID()}
		for _, col := range schema.PrintColumns {
			cells = append(cells, formatCell(rec[col.Field]))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		return humanize.Commaf(val)
	case string:
		// Dates come back as RFC 3339 timestamps.
		if len(val) > 10 && val[4] == '-' && val[10] == 'T' {
			return val[:10]
		}
		if len(val) > 40 {
			return val[:37] + "..."
		}
		return val
	default:
		return fmt.Sprint(val)
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
