package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/cloud-ru/realty-projection-go/internal/calculations"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type scheduleCmd struct {
	in        calculations.ScheduleInput
	frequency int
	asJSON    bool
	out       io.Writer
}

func (*scheduleCmd) Name() string     { return "schedule" }
func (*scheduleCmd) Synopsis() string { return "print an installment schedule with monetary correction" }
func (*scheduleCmd) Usage() string {
	return `schedule -price <amount> -months <n> [-delivery <month>] [-down <amount> | -down-pct <pct>]
         [-pre <pct>] [-post <pct>] [-keys <amount>] [-topup-freq 3|6|12 -topup <amount>] [-json]

  Builds the schedule in-process, without a database, and prints every
  month with its corrected amount and both balances.
`
}

func (c *scheduleCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.in.ListPrice, "price", 0, "List price of the unit.")
	f.Float64Var(&c.in.DownPayment, "down", 0, "Down payment amount.")
	f.Float64Var(&c.in.DownPaymentPercent, "down-pct", 0, "Down payment as percent of the price. Overrides -down.")
	f.Float64Var(&c.in.Discount, "discount", 0, "Discount granted on the price.")
	f.IntVar(&c.in.DeliveryMonth, "delivery", 0, "Month of key delivery.")
	f.IntVar(&c.in.PaymentMonths, "months", 0, "Payment horizon in months.")
	f.Float64Var(&c.in.PreDeliveryCorrection, "pre", 0, "Monthly correction before delivery, percent.")
	f.Float64Var(&c.in.PostDeliveryCorrection, "post", 0, "Monthly correction after delivery, percent.")
	f.Float64Var(&c.in.KeysValue, "keys", 0, "Payment due at key delivery.")
	f.IntVar(&c.frequency, "topup-freq", 0, "Top-up frequency in months (3, 6 or 12).")
	f.Float64Var(&c.in.TopUpValue, "topup", 0, "Top-up amount.")
	f.BoolVar(&c.asJSON, "json", false, "Print the schedule block as JSON.")
}

func (c *scheduleCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	out := c.out
	if out == nil {
		out = os.Stdout
	}
	c.in.TopUpFrequency = calculations.TopUpFrequency(c.frequency)

	rows, err := calculations.NewLocalBuilder(nil).BuildSchedule(ctx, c.in)
	if err != nil {
		return fail(err)
	}
	block := calculations.ScheduleBlock{Rows: rows, Summary: calculations.SummarizeSchedule(c.in, rows)}

	if c.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(block); err != nil {
			return fail(err)
		}
		return subcommands.ExitSuccess
	}

	writeSchedule(out, block)
	return subcommands.ExitSuccess
}

func writeSchedule(out io.Writer, block calculations.ScheduleBlock) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "month\tkind\tbase\tcorrection %\tcorrected\toutstanding\tnet\t")
	for _, r := range block.Rows {
		net := "-"
		if r.NetBalance != nil {
			net = formatBRL(*r.NetBalance)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.4f\t%s\t%s\t%s\t\n",
			r.Month, r.Kind, formatBRL(r.BaseAmount), r.CumulativeCorrection,
			formatBRL(r.CorrectedAmount), formatBRL(r.OutstandingBalance), net)
	}
	w.Flush()

	s := block.Summary
	fmt.Fprintf(out, "\nprice %s, down payment %s, financed %s\n", formatBRL(s.ListPrice), formatBRL(s.DownPayment), formatBRL(s.Financed))
	fmt.Fprintf(out, "total paid %s, correction %s (%.2f%%)\n", formatBRL(s.TotalPaid), formatBRL(s.TotalCorrection), s.CorrectionPercentage)
}

// formatBRL округляет до центов и форматирует сумму в реалах
func formatBRL(v float64) string {
	cents := decimal.NewFromFloat(v).Shift(2).Round(0).IntPart()
	return money.New(cents, "BRL").Display()
}
