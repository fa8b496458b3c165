package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mxdrAdvisor/internal/leads"
	"mxdrAdvisor/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the newest leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withService(cmd, func(ctx context.Context, svc *leads.Service) error {
			rows, err := svc.List(ctx, limit)
			if err != nil {
				return err
			}
			return printLeads(cmd.OutOrStdout(), rows)
		})
	},
}

var patchCmd = &cobra.Command{
	Use:   "patch <lead-id>",
	Short: "Update a lead's status, assignee or notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := patchFromFlags(cmd, args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *leads.Service) error {
			if err := svc.Apply(ctx, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", p.ID)
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write leads as JSON lines",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		path, _ := cmd.Flags().GetString("out")
		return withService(cmd, func(ctx context.Context, svc *leads.Service) error {
			rows, err := svc.List(ctx, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if path != "" && path != "-" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return leads.WriteJSONL(out, rows)
		})
	},
}

func init() {
	listCmd.Flags().Int("limit", storage.DefaultListLimit, "maximum number of leads")
	exportCmd.Flags().Int("limit", storage.DefaultListLimit, "maximum number of leads")
	exportCmd.Flags().StringP("out", "o", "-", "output file, - for stdout")

	patchCmd.Flags().String("status", "", "new status (new, contacted, qualified, proposal, won, lost)")
	patchCmd.Flags().String("assign", "", "assignee")
	patchCmd.Flags().String("notes", "", "notes")
	patchCmd.Flags().Bool("clear-assign", false, "clear the assignee")
	patchCmd.Flags().Bool("clear-notes", false, "clear the notes")
}

func patchFromFlags(cmd *cobra.Command, id string) (leads.Patch, error) {
	flags := cmd.Flags()
	p := leads.Patch{ID: id}
	p.Status, _ = flags.GetString("status")

	switch {
	case flags.Changed("assign"):
		v, _ := flags.GetString("assign")
		p.AssignedTo = leads.Some(v)
	case mustBool(cmd, "clear-assign"):
		p.AssignedTo = leads.OptionalString{Set: true}
	}
	switch {
	case flags.Changed("notes"):
		v, _ := flags.GetString("notes")
		p.Notes = leads.Some(v)
	case mustBool(cmd, "clear-notes"):
		p.Notes = leads.OptionalString{Set: true}
	}

	if p.Status == "" && !p.AssignedTo.Set && !p.Notes.Set {
		return leads.Patch{}, fmt.Errorf("nothing to update: pass --status, --assign or --notes")
	}
	return p, nil
}

func mustBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}

func withService(cmd *cobra.Command, fn func(context.Context, *leads.Service) error) error {
	url, _ := cmd.Flags().GetString("database-url")
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	store, err := storage.NewStore(ctx, url)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(ctx, leads.NewService(store, nil))
}

func printLeads(w io.Writer, rows []storage.Lead) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tSCORE\tINDUSTRY\tEMAIL\tASSIGNED")
	for _, l := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			l.ID,
			l.CreatedAt.Local().Format("2006-01-02 15:04"),
			l.Status,
			l.QualificationScore,
			deref(l.Industry),
			deref(l.ContactEmail),
			deref(l.AssignedTo),
		)
	}
	return tw.Flush()
}

func deref(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "-"
	}
	return *s
}
