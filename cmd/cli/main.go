// Command cli is the offline counter-top interface: type what happened in the
// shop, confirm the draft, and it lands in the ledger. It talks to the local
// SQLite database directly, no server needed.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mukisa/dukabook/internal/config"
	"github.com/mukisa/dukabook/internal/domain"
	"github.com/mukisa/dukabook/internal/extractor"
	"github.com/mukisa/dukabook/internal/report"
	"github.com/mukisa/dukabook/internal/store/sqlite"
)

func main() {
	configPath := flag.String("config", os.Getenv("DUKABOOK_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	db, err := sqlite.Open(cfg.Storage.SQLitePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open database:", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()

	owner, err := db.FirstUser(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "no owner account found; run adduser first")
		os.Exit(1)
	}

	currency := owner.Currency
	if currency == "" {
		currency = cfg.Ledger.Currency
	}

	session := &session{
		db:        db,
		extractor: extractor.New(extractor.Options{}),
		ownerID:   owner.ID,
		currency:  currency,
		in:        bufio.NewScanner(os.Stdin),
		out:       os.Stdout,
	}

	if owner.BusinessName != "" {
		fmt.Fprintf(session.out, "%s ledger. ", owner.BusinessName)
	}
	fmt.Fprintln(session.out, `Type what happened ("Sold bread 5000"), or: report [today|week|month], debts, chart <file.png>, quit.`)
	session.loop(ctx)
}

type session struct {
	db        *sqlite.Store
	extractor *extractor.Extractor
	ownerID   string
	currency  string
	in        *bufio.Scanner
	out       io.Writer
}

func (s *session) loop(ctx context.Context) {
	for {
		fmt.Fprint(s.out, "> ")
		if !s.in.Scan() {
			return
		}
		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch strings.ToLower(fields[0]) {
		case "quit", "exit":
			return
		case "report":
			rangeArg := ""
			if len(fields) > 1 {
				rangeArg = strings.ToLower(fields[1])
			}
			s.report(ctx, domain.QueryRange(rangeArg))
		case "debts":
			s.debts(ctx)
		case "chart":
			if len(fields) < 2 {
				fmt.Fprintln(s.out, "usage: chart <file.png>")
				continue
			}
			s.chart(ctx, fields[1])
		default:
			s.record(ctx, line)
		}
	}
}

func (s *session) record(ctx context.Context, text string) {
	res := s.extractor.Extract(ctx, text)

	switch res.Intent {
	case domain.IntentQuery:
		s.report(ctx, res.QueryRange)
		return
	case domain.IntentUnknown:
		fmt.Fprintln(s.out, "Sorry, I could not make sense of that. Try something like \"Sold bread 5000\".")
		return
	}

	// A draft without an amount needs one before it can be saved.
	if res.Amount == nil {
		fmt.Fprintf(s.out, "How much was that (%s)? ", s.currency)
		if !s.in.Scan() {
			return
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s.in.Text()), 64)
		if err != nil || v <= 0 {
			fmt.Fprintln(s.out, "Not saved: a positive amount is required.")
			return
		}
		res.Amount = &v
	}

	if (res.Type == domain.TypeDebt || res.Type == domain.TypeDebtPayment) && res.Counterparty == "" {
		fmt.Fprint(s.out, "Who was that with? ")
		if !s.in.Scan() {
			return
		}
		res.Counterparty = strings.TrimSpace(s.in.Text())
		if res.Counterparty == "" {
			fmt.Fprintln(s.out, "Not saved: debts need a name.")
			return
		}
	}

	fmt.Fprintf(s.out, "%s of %s %s", res.Type, s.currency, formatAmount(*res.Amount))
	if res.Counterparty != "" {
		fmt.Fprintf(s.out, " with %s", res.Counterparty)
	}
	if res.Category != "" {
		fmt.Fprintf(s.out, " [%s]", res.Category)
	}
	fmt.Fprint(s.out, ". Save? [y/N] ")

	if !s.in.Scan() {
		return
	}
	answer := strings.ToLower(strings.TrimSpace(s.in.Text()))
	if answer != "y" && answer != "yes" {
		fmt.Fprintln(s.out, "Not saved.")
		return
	}

	tx := res.Transaction(uuid.NewString(), s.ownerID, time.Now())
	if err := tx.Validate(); err != nil {
		fmt.Fprintf(s.out, "Not saved: %v\n", err)
		return
	}
	if err := s.db.Insert(ctx, &tx); err != nil {
		fmt.Fprintf(s.out, "Not saved: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "Saved.")
}

func (s *session) report(ctx context.Context, r domain.QueryRange) {
	from, to := report.RangeWindow(time.Now(), r)
	txs, err := s.db.ListByUserAndRange(ctx, s.ownerID, from, to)
	if err != nil {
		fmt.Fprintf(s.out, "report failed: %v\n", err)
		return
	}
	report.WriteSummaryTable(s.out, report.Summarize(txs, from, to), s.currency)
}

func (s *session) debts(ctx context.Context) {
	txs, err := s.db.ListByUser(ctx, s.ownerID)
	if err != nil {
		fmt.Fprintf(s.out, "debts failed: %v\n", err)
		return
	}
	report.WriteDebtsTable(s.out, report.DebtBalances(txs), s.currency)
}

func (s *session) chart(ctx context.Context, path string) {
	from, to := report.RangeWindow(time.Now(), domain.RangeMonth)
	txs, err := s.db.ListByUserAndRange(ctx, s.ownerID, from, to)
	if err != nil {
		fmt.Fprintf(s.out, "chart failed: %v\n", err)
		return
	}

	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(s.out, "chart failed: %v\n", err)
		return
	}
	defer f.Close()

	if err := report.RenderCategoryChart(f, report.Summarize(txs, from, to), s.currency); err != nil {
		fmt.Fprintf(s.out, "chart failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Chart written to %s\n", path)
}

func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
