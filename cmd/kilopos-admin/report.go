package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/polkiloo/kilopos/internal/config"
	"github.com/polkiloo/kilopos/internal/domain/model"
	"github.com/polkiloo/kilopos/internal/logger"
	"github.com/polkiloo/kilopos/internal/storage/postgres"
	"github.com/polkiloo/kilopos/internal/usecase"
)

type reportRange struct {
	date string
	from string
	to   string
}

// businessDays maps dates and instants to business days.
type businessDays interface {
	DayRange(t time.Time) (time.Time, time.Time)
	Location() *time.Location
}

// resolve turns the flags into [from, to).
func (r reportRange) resolve(now time.Time, days businessDays) (time.Time, time.Time, error) {
	if r.from != "" || r.to != "" {
		from, err := time.Parse(time.RFC3339, r.from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -from: %w", err)
		}
		to, err := time.Parse(time.RFC3339, r.to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -to: %w", err)
		}
		return from, to, nil
	}
	if r.date != "" {
		day, err := time.ParseInLocation("2006-01-02", r.date, days.Location())
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -date: %w", err)
		}
		from, to := days.DayRange(day)
		return from, to, nil
	}
	from, to := days.DayRange(now)
	return from, to, nil
}

func runReport(ctx context.Context, args []string, out io.Writer) error {
	var r reportRange
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&r.date, "date", "", "business day (YYYY-MM-DD)")
	fs.StringVar(&r.from, "from", "", "range start (RFC 3339)")
	fs.StringVar(&r.to, "to", "", "range end (RFC 3339)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if cfg.DatabaseURI == "" {
		return fmt.Errorf("DATABASE_URI must be set")
	}

	log := logger.NewWithWriter(io.Discard, slog.LevelError)
	storage, err := postgres.New(ctx, cfg.DatabaseURI, log)
	if err != nil {
		return err
	}
	defer storage.Close()

	drawer := usecase.NewDrawerUseCase(storage.Drawer())
	sales := usecase.NewSalesUseCase(storage.Sales(), drawer, cfg.ReportLocation)

	from, to, err := r.resolve(time.Now(), sales)
	if err != nil {
		return err
	}
	summary, err := sales.DailySummary(ctx, from, to)
	if err != nil {
		return err
	}
	return renderSummary(out, summary)
}

func renderSummary(out io.Writer, s *model.DailySummary) error {
	if _, err := fmt.Fprintf(out, "Sales %s - %s\n", s.From.Format(time.RFC3339), s.To.Format(time.RFC3339)); err != nil {
		return err
	}

	table := tablewriter.NewWriter(out)
	table.Header("Method", "Orders", "Amount", "Change")
	for _, t := range s.ByMethod {
		if err := table.Append([]string{
			string(t.Method),
			fmt.Sprint(t.Orders),
			model.MoneyString(t.Amount),
			model.MoneyString(t.ChangeAmount),
		}); err != nil {
			return err
		}
	}
	if err := table.Append([]string{"total", fmt.Sprint(s.Orders), model.MoneyString(s.Total), ""}); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if !s.DrawerOpen {
		_, err := fmt.Fprintln(out, "Drawer closed")
		return err
	}
	_, err := fmt.Fprintf(out, "Drawer cash %s, cash sales %s, discrepancy %s\n",
		model.MoneyString(s.DrawerCash), model.MoneyString(s.CashTotal), model.MoneyString(s.CashDiscrepancy))
	return err
}
