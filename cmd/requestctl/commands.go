package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/99minutos/service-requests/internal/core/domain"
	"github.com/99minutos/service-requests/internal/core/ports"
)

func newFlagSet(name string, out io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func setRoleCmd(ctx context.Context, store ports.UserRepository, args []string, out io.Writer) error {
	fs := newFlagSet("set-role", out)
	id := fs.Int64("id", 0, "user id")
	roleName := fs.String("role", "", "client, manager or master")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return domain.ErrInvalidUserID
	}
	role, err := domain.ParseRole(*roleName)
	if err != nil {
		return err
	}
	if err := store.SetRole(ctx, *id, role); err != nil {
		return err
	}
	fmt.Fprintf(out, "user %d is now %s\n", *id, role)
	return nil
}

// roster is the staff file read by seed.
type roster struct {
	Users []rosterEntry `yaml:"users"`
}

type rosterEntry struct {
	ID     int64  `yaml:"id"`
	Handle string `yaml:"handle"`
	Name   string `yaml:"name"`
	Role   string `yaml:"role"`
}

func parseRoster(r io.Reader) (*roster, error) {
	var ros roster
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ros); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	for i, u := range ros.Users {
		if u.ID <= 0 {
			return nil, fmt.Errorf("roster entry %d: %w", i+1, domain.ErrInvalidUserID)
		}
		if _, err := domain.ParseRole(u.Role); err != nil {
			return nil, fmt.Errorf("roster entry %d (%d): %w", i+1, u.ID, err)
		}
	}
	return &ros, nil
}

// seedCmd registers every roster user and applies the listed role. Known
// users keep their display data; only the role changes.
func seedCmd(ctx context.Context, store ports.UserRepository, args []string, out io.Writer) error {
	fs := newFlagSet("seed", out)
	file := fs.String("file", "", "YAML roster of users and roles")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("%w: --file is required", domain.ErrInvalidInput)
	}
	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	ros, err := parseRoster(f)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, u := range ros.Users {
		err := store.UpsertUser(ctx, &domain.User{
			ID:          u.ID,
			Handle:      u.Handle,
			DisplayName: u.Name,
			Role:        domain.RoleClient,
			CreatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("seed user %d: %w", u.ID, err)
		}
		if err := store.SetRole(ctx, u.ID, domain.Role(u.Role)); err != nil {
			return fmt.Errorf("seed user %d: %w", u.ID, err)
		}
	}
	fmt.Fprintf(out, "seeded %d users\n", len(ros.Users))
	return nil
}

func listCmd(ctx context.Context, store ports.RequestRepository, args []string, out io.Writer) error {
	fs := newFlagSet("list", out)
	status := fs.String("status", "", "new, assigned, in_progress, done or confirmed")
	client := fs.Int64("client", 0, "only requests raised by this client")
	worker := fs.Int64("worker", 0, "only requests assigned to this worker")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := ports.RequestFilter{ClientID: *client, WorkerID: *worker}
	if *status != "" {
		s, err := domain.ParseStatus(*status)
		if err != nil {
			return err
		}
		filter.Status = s
	}
	rs, err := store.ListRequests(ctx, filter)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tCLIENT\tWORKER\tCREATED\tPROBLEM")
	for _, r := range rs {
		assignee := "-"
		if r.AssignedTo != nil {
			assignee = strconv.FormatInt(*r.AssignedTo, 10)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n",
			r.ID, r.Status, r.ClientID, assignee, r.CreatedAt.Format(time.RFC3339), truncate(r.ProblemText, 40))
	}
	return tw.Flush()
}

func historyCmd(ctx context.Context, store ports.RequestRepository, args []string, out io.Writer) error {
	fs := newFlagSet("history", out)
	id := fs.Int64("id", 0, "request id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := store.GetRequest(ctx, *id); err != nil {
		return err
	}
	events, err := store.History(ctx, *id)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AT\tACTION\tFROM\tTO\tACTOR\tPHOTO")
	for _, e := range events {
		from := string(e.From)
		if from == "" {
			from = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			e.At.Format(time.RFC3339), e.Action, from, e.To, e.ActorID, e.Photo)
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
