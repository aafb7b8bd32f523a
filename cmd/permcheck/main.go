// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/carterperez-dev/joborders/internal/authz"
	"github.com/carterperez-dev/joborders/internal/config"
	"github.com/carterperez-dev/joborders/internal/core"
	"github.com/carterperez-dev/joborders/internal/joborder"
	"github.com/carterperez-dev/joborders/internal/rbac"
	"github.com/carterperez-dev/joborders/internal/user"
)

const checkTimeout = time.Minute

var errNoJobOrders = errors.New("no job orders found")

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	jobID := flag.String("job", "", "job order id (defaults to the oldest job order)")
	flag.Parse()

	if err := run(*configPath, *jobID, os.Stdout); err != nil {
		slog.Error("permission check failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, jobID string, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redis.Close() //nolint:errcheck

	registry := rbac.NewRegistry(
		rbac.NewRepository(db.DB),
		redis.Client,
		cfg.RBAC.CacheTTL,
		logger,
	)
	users := user.NewService(user.NewRepository(db.DB), registry)
	orders := joborder.NewService(joborder.NewRepository(db.DB), users, logger)

	order, err := pickJobOrder(ctx, orders, jobID)
	if err != nil {
		return err
	}

	briefs, err := users.ListBrief(ctx)
	if err != nil {
		return err
	}

	principals := make([]*authz.Principal, 0, len(briefs))
	for _, b := range briefs {
		p, err := registry.Load(ctx, b.ID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				continue
			}
			return err
		}
		principals = append(principals, p)
	}

	return writeMatrix(out, order, principals)
}

// pickJobOrder loads the requested job order, or the oldest one when id is
// empty. Listing is newest first, so the oldest is the last page of size one.
func pickJobOrder(
	ctx context.Context,
	orders *joborder.Service,
	id string,
) (*joborder.JobOrder, error) {
	if id != "" {
		return orders.Get(ctx, id)
	}

	_, total, err := orders.List(ctx, joborder.ListParams{
		Pagination: core.Pagination{PageSize: 1},
	})
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, errNoJobOrders
	}

	page, _, err := orders.List(ctx, joborder.ListParams{
		Pagination: core.Pagination{Page: total, PageSize: 1},
	})
	if err != nil {
		return nil, err
	}
	if len(page) == 0 {
		return nil, errNoJobOrders
	}

	return &page[0], nil
}

func writeMatrix(
	out io.Writer,
	order *joborder.JobOrder,
	principals []*authz.Principal,
) error {
	assignment := order.Assignment()

	fmt.Fprintf(out, "Job order %s (%s)\n", order.Number, order.ID)
	fmt.Fprintf(out, "  engineer:   %s\n", slot(assignment.EngineerID))
	fmt.Fprintf(out, "  supervisor: %s\n", slot(assignment.SupervisorID))
	fmt.Fprintf(out, "  manager:    %s\n\n", slot(assignment.ManagerID))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tEMAIL\tROLES\tASSIGNED\tCAN EDIT\tCAN DELETE")

	for _, p := range principals {
		roles := strings.Join(p.Roles, ",")
		if roles == "" {
			roles = "-"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Name,
			p.Email,
			roles,
			yesNo(authz.IsAssigned(p, assignment)),
			yesNo(authz.CanEditJobOrder(p, assignment)),
			yesNo(authz.CanDeleteJobOrder(p)),
		)
	}

	return tw.Flush()
}

func slot(id *string) string {
	if id == nil {
		return "-"
	}
	return *id
}

func yesNo(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}
