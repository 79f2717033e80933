package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmynk/nekolators/internal/calculator"
	"github.com/mmynk/nekolators/internal/models"
)

// splitInput is the calculation file read by the split command. Files with
// items are split per item; otherwise per person.
type splitInput struct {
	// Basic calculations
	Persons       json.RawMessage `json:"persons"`
	DiscountValue string          `json:"discountValue"`
	TaxValue      string          `json:"taxValue"`

	// Expert calculations
	Items       []models.Item       `json:"items"`
	Assignments []models.Assignment `json:"assignments"`
	Discount    float64             `json:"discount"`
	Tax         float64             `json:"tax"`
}

func newSplitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "split <file.json>",
		Short: "Print the breakdown of a calculation file",
		Long: `Reads a calculation as JSON and prints what everyone pays.

A basic calculation lists persons with price expressions:

  {"persons": [{"id": "1", "name": "Ana", "price": "25000+12000"}],
   "discountValue": "10000", "taxValue": "5000"}

An expert calculation lists items, persons and assignments:

  {"items": [{"id": "i1", "name": "Pizza", "price": 90000}],
   "persons": [{"id": "p1", "name": "Ana"}],
   "assignments": [{"itemId": "i1", "personId": "p1"}],
   "discountValue": "10000", "tax": 5000}

Use "-" to read from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			return runSplit(cmd.OutOrStdout(), data)
		},
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading calculation: %w", err)
	}
	return data, nil
}

func runSplit(w io.Writer, data []byte) error {
	var in splitInput
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("parsing calculation: %w", err)
	}

	if in.Items != nil {
		var persons []models.Person
		if err := unmarshalPersons(in.Persons, &persons); err != nil {
			return err
		}
		discount := in.Discount
		if in.DiscountValue != "" {
			discount = calculator.ParseAdditionExpression(in.DiscountValue)
		}
		tax := in.Tax
		if in.TaxValue != "" {
			tax = calculator.ParseAdditionExpression(in.TaxValue)
		}
		return printExpert(w, in.Items, persons, in.Assignments, discount, tax)
	}

	var persons []models.Participant
	if err := unmarshalPersons(in.Persons, &persons); err != nil {
		return err
	}
	if len(persons) == 0 {
		return fmt.Errorf("calculation has no persons")
	}
	return printFlat(w, calculator.CalculateFlat(persons, in.DiscountValue, in.TaxValue))
}

func unmarshalPersons(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parsing persons: %w", err)
	}
	return nil
}

func printFlat(w io.Writer, r calculator.FlatResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "NAME\tTOTAL\tSHARE\tDISCOUNT\tTAX\tTO PAY\t")
	for _, p := range r.Participants {
		b := r.Breakdowns[p.ID]
		fmt.Fprintf(tw, "%s\t%s\t%.1f%%\t%s\t%s\t%s\t\n",
			displayName(p.Name, p.ID),
			calculator.FormatGrouped(p.TotalPrice),
			b.PercentageOfTotal*100,
			calculator.FormatGrouped(b.DiscountAmount),
			calculator.FormatGrouped(b.TaxAmount),
			calculator.FormatGrouped(p.TotalToPay),
		)
	}
	fmt.Fprintf(tw, "TOTAL\t%s\t\t%s\t%s\t%s\t\n",
		calculator.FormatGrouped(r.OverallTotal),
		calculator.FormatGrouped(r.DiscountResult),
		calculator.FormatGrouped(r.TaxResult),
		calculator.FormatGrouped(r.FinalTotal),
	)
	return tw.Flush()
}

func printExpert(w io.Writer, items []models.Item, persons []models.Person, assignments []models.Assignment, discount, tax float64) error {
	totals := calculator.ItemAssignmentTotals(items, persons, assignments, discount, tax)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "NAME\tITEMS\tTO PAY\t")
	for _, p := range persons {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n",
			displayName(p.Name, p.ID),
			calculator.FormatGrouped(totals.PersonItemTotals[p.ID]),
			calculator.FormatGrouped(totals.PersonTotals[p.ID]),
		)
	}
	fmt.Fprintf(tw, "SUBTOTAL\t%s\t\t\n", calculator.FormatGrouped(totals.Subtotal))
	fmt.Fprintf(tw, "DISCOUNT\t%s\t\t\n", calculator.FormatGrouped(discount))
	fmt.Fprintf(tw, "TAX\t%s\t\t\n", calculator.FormatGrouped(tax))
	fmt.Fprintf(tw, "TOTAL\t\t%s\t\n", calculator.FormatGrouped(totals.FinalTotal))
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, item := range calculator.UnassignedItems(items, assignments) {
		fmt.Fprintf(w, "warning: %q is not assigned to anyone\n", item.Name)
	}
	return nil
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return "#" + id
}
