package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/warp/egg-ledger/ledger"
)

// ─── Admin commands over the ledger ─────────────────────────────────────────
// Each command opens the configured store, runs one ledger operation and
// prints the result as a table or JSON (--output).

func init() {
	rootCmd.AddCommand(peopleCmd, duesCmd, summaryCmd, recordCmd, undoCmd, splitCmd)
	peopleCmd.AddCommand(peopleAddCmd, peopleRechargeCmd, peopleHistoryCmd)

	duesCmd.Flags().Bool("clear", false, "Forgive every due after printing them")
	recordCmd.Flags().String("date", "", "Entry date YYYY-MM-DD (default today)")
	recordCmd.Flags().String("price", "", "Price per egg")
	_ = recordCmd.MarkFlagRequired("price")
}

// ─── people ─────────────────────────────────────────────────────────────────

var peopleCmd = &cobra.Command{
	Use:   "people",
	Short: "List people with their totals and balances",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, _, _, closeStore, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		people, err := l.ListPeople(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd, people, func(w io.Writer) {
			tw := newTable(w, "ID", "NAME", "EGGS", "TOTAL", "BALANCE")
			for _, p := range people {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n",
					p.ID, p.Name, p.TotalEggs, ledger.Round(p.TotalAmount).StringFixed(2), ledger.Round(p.Balance).StringFixed(2))
			}
			tw.Flush()
		})
	},
}

var peopleAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a person",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, _, _, closeStore, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		p, err := l.AddPerson(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd, p, func(w io.Writer) {
			fmt.Fprintf(w, "Added %s (id %d)\n", p.Name, p.ID)
		})
	},
}

var peopleRechargeCmd = &cobra.Command{
	Use:   "recharge ID AMOUNT",
	Short: "Add credit to a person",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parsePersonID(args[0])
		if err != nil {
			return err
		}
		amount, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}

		l, _, _, closeStore, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		balance, err := l.Recharge(cmd.Context(), id, amount)
		if err != nil {
			return err
		}
		return render(cmd, map[string]string{"balance": balance.StringFixed(2)}, func(w io.Writer) {
			fmt.Fprintf(w, "New balance: %s\n", ledger.Round(balance).StringFixed(2))
		})
	},
}

var peopleHistoryCmd = &cobra.Command{
	Use:   "history ID",
	Short: "Show a person's daily lines, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parsePersonID(args[0])
		if err != nil {
			return err
		}

		l, _, _, closeStore, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		history, err := l.PersonHistory(cmd.Context(), id)
		if err != nil {
			return err
		}
		return render(cmd, history, func(w io.Writer) {
			tw := newTable(w, "DATE", "EGGS", "PRICE", "AMOUNT")
			for _, h := range history {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
					h.Date.Format(ledger.DateLayout), h.Eggs, h.EggPrice.String(), h.Amount.StringFixed(2))
			}
			tw.Flush()
		})
	},
}

// ─── dues / summary ─────────────────────────────────────────────────────────

var duesCmd = &cobra.Command{
	Use:   "dues",
	Short: "Show everyone who owes money",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, _, _, closeStore, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		dues, err := l.DueReport(cmd.Context())
		if err != nil {
			return err
		}
		if err := render(cmd, dues, func(w io.Writer) {
			names := make([]string, 0, len(dues))
			for name := range dues {
				names = append(names, name)
			}
			sort.Strings(names)

			tw := newTable(w, "NAME", "DUE")
			for _, name := range names {
				fmt.Fprintf(tw, "%s\t%s\n", name, dues[name].StringFixed(2))
			}
			tw.Flush()
		}); err != nil {
			return err
		}

		if clear, _ := cmd.Flags().GetBool("clear"); clear {
			n, err := l.ClearAllDues(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Cleared %d dues\n", n)
		}
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show total credit, total due and net balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, _, _, closeStore, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		sum, err := l.BalanceSummary(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd, map[string]string{
			"total_credit": sum.TotalCredit.StringFixed(2),
			"total_due":    sum.TotalDue.StringFixed(2),
			"net_balance":  sum.NetBalance.StringFixed(2),
		}, func(w io.Writer) {
			fmt.Fprintf(w, "Total credit: %s\n", sum.TotalCredit.StringFixed(2))
			fmt.Fprintf(w, "Total due:    %s\n", sum.TotalDue.StringFixed(2))
			fmt.Fprintf(w, "Net balance:  %s\n", sum.NetBalance.StringFixed(2))
		})
	},
}

// ─── record / undo / split ──────────────────────────────────────────────────

var recordCmd = &cobra.Command{
	Use:     "record ID=EGGS...",
	Short:   "Record a day's eggs and charge contributors",
	Example: `  eggs record --date 2025-03-10 --price 10 1=3 2=7`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := parseEntryArgs(cmd, args)
		if err != nil {
			return err
		}

		l, _, _, closeStore, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		res, err := l.AddDailyEntry(cmd.Context(), in)
		if err != nil {
			return err
		}
		return render(cmd, res, func(w io.Writer) {
			fmt.Fprintf(w, "Recorded %s: %d eggs, total %s\n",
				res.Entry.Date.Format(ledger.DateLayout), res.Entry.TotalEggs, res.TotalCost().StringFixed(2))
			tw := newTable(w, "PERSON", "EGGS", "AMOUNT")
			for _, line := range res.Lines {
				fmt.Fprintf(tw, "%d\t%d\t%s\n", line.PersonID, line.Eggs, ledger.Round(line.Amount).StringFixed(2))
			}
			tw.Flush()
		})
	},
}

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Reverse the most recently recorded day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, _, _, closeStore, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		undone, err := l.UndoLastEntry(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd, undone, func(w io.Writer) {
			fmt.Fprintf(w, "Undid %s (%d eggs, %s)\n",
				undone.Date.Format(ledger.DateLayout), undone.TotalEggs, ledger.Round(undone.TotalCost).StringFixed(2))
		})
	},
}

var splitCmd = &cobra.Command{
	Use:   "split AMOUNT",
	Short: "Preview how AMOUNT would be shared by lifetime eggs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := decimal.NewFromString(args[0])
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[0], err)
		}

		l, _, _, closeStore, err := setup(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		split, err := l.RechargeSplit(cmd.Context(), amount)
		if err != nil {
			return err
		}
		return render(cmd, split, func(w io.Writer) {
			names := make([]string, 0, len(split))
			for name := range split {
				names = append(names, name)
			}
			sort.Strings(names)

			tw := newTable(w, "NAME", "SHARE")
			for _, name := range names {
				fmt.Fprintf(tw, "%s\t%s\n", name, split[name].StringFixed(2))
			}
			tw.Flush()
		})
	},
}

// ─── helpers ────────────────────────────────────────────────────────────────

func parsePersonID(s string) (ledger.PersonID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid person id %q", s)
	}
	return ledger.PersonID(id), nil
}

func parseEntryArgs(cmd *cobra.Command, args []string) (ledger.EntryInput, error) {
	in := ledger.EntryInput{Date: ledger.Day(time.Now()), Eggs: make(map[ledger.PersonID]int64, len(args))}

	if raw, _ := cmd.Flags().GetString("date"); raw != "" {
		date, err := ledger.ParseDate(raw)
		if err != nil {
			return in, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", raw)
		}
		in.Date = date
	}

	raw, _ := cmd.Flags().GetString("price")
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return in, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	in.EggPrice = price

	for _, arg := range args {
		idPart, eggsPart, ok := strings.Cut(arg, "=")
		if !ok {
			return in, fmt.Errorf("expected ID=EGGS, got %q", arg)
		}
		id, err := parsePersonID(idPart)
		if err != nil {
			return in, err
		}
		eggs, err := strconv.ParseInt(eggsPart, 10, 64)
		if err != nil {
			return in, fmt.Errorf("invalid egg count in %q", arg)
		}
		in.Eggs[id] += eggs
	}
	return in, nil
}

func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return tw
}

// render prints v as JSON when --output=json, otherwise calls table.
func render(cmd *cobra.Command, v any, table func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if format, _ := cmd.Flags().GetString("output"); format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	table(out)
	return nil
}
