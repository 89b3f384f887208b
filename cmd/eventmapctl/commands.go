package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/eventmap/internal/core"
	"github.com/JonMunkholm/eventmap/internal/web"
)

// filterFlags adjust the configured default filter.
type filterFlags struct {
	from, to      int
	search        string
	certain       bool
	names         []string
	institution   string
	noComposers   bool
	noMusicians   bool
	noNonmusician bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.from, "from", 0, "earliest year of the date range")
	fs.IntVar(&f.to, "to", 0, "latest year of the date range")
	fs.StringVar(&f.search, "search", "", "space-separated terms that must all match")
	fs.BoolVar(&f.certain, "certain", false, "only events with certain location and dates")
	fs.StringSliceVar(&f.names, "name", nil, "only events of these people (repeatable)")
	fs.StringVar(&f.institution, "institution", "", "only events at this INSID")
	fs.BoolVar(&f.noComposers, "no-composers", false, "hide composers")
	fs.BoolVar(&f.noMusicians, "no-musicians", false, "hide musicians")
	fs.BoolVar(&f.noNonmusician, "no-nonmusicians", false, "hide non-musicians")
}

// apply returns base with every changed flag applied.
func (f *filterFlags) apply(cmd *cobra.Command, base core.FilterConfig) (core.FilterConfig, error) {
	fs := cmd.Flags()
	if fs.Changed("from") {
		base.DateRange.Min = f.from
	}
	if fs.Changed("to") {
		base.DateRange.Max = f.to
	}
	if base.DateRange.Min > base.DateRange.Max {
		return base, fmt.Errorf("--from %d is after --to %d", base.DateRange.Min, base.DateRange.Max)
	}
	if fs.Changed("search") {
		base.SearchText = f.search
	}
	if fs.Changed("certain") {
		base.ShowCertainty = f.certain
	}
	if fs.Changed("name") {
		base.ActiveNames = core.NewNameSet(f.names...)
	}
	if fs.Changed("institution") {
		base.InstitutionFilter = f.institution
	}
	base.ShowComposers = base.ShowComposers && !f.noComposers
	base.ShowMusicians = base.ShowMusicians && !f.noMusicians
	base.ShowNonMusicians = base.ShowNonMusicians && !f.noNonmusician
	return base, nil
}

// filtered loads the service and applies the filter flags.
func filtered(cmd *cobra.Command, load loadFunc, ff *filterFlags) (*core.Snapshot, func(), error) {
	svc, closeFn, err := load(cmd)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := ff.apply(cmd, svc.DefaultFilter())
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return svc.SetFilter(cfg), closeFn, nil
}

func newSummaryCmd(load loadFunc) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print event, filter and sheet counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, closeFn, err := filtered(cmd, load, &ff)
			if err != nil {
				return err
			}
			defer closeFn()
			return printJSON(cmd.OutOrStdout(), web.Summarize(snap))
		},
	}
	ff.register(cmd)
	return cmd
}

func newEventsCmd(load loadFunc) *cobra.Command {
	var (
		ff       filterFlags
		mappable bool
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print filtered events joined with their locations, people and citations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, closeFn, err := filtered(cmd, load, &ff)
			if err != nil {
				return err
			}
			defer closeFn()

			out := make([]core.MappedEvent, 0, len(snap.Mapped))
			for _, m := range snap.Mapped {
				if mappable && !m.Mappable() {
					continue
				}
				out = append(out, m)
				if limit > 0 && len(out) == limit {
					break
				}
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	ff.register(cmd)
	cmd.Flags().BoolVar(&mappable, "mappable", false, "only events with a location and coordinates")
	cmd.Flags().IntVar(&limit, "limit", 0, "print at most this many events (0 for all)")
	return cmd
}

func newHistogramCmd(load loadFunc) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "histogram",
		Short: "Print the decade histogram of filtered events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, closeFn, err := filtered(cmd, load, &ff)
			if err != nil {
				return err
			}
			defer closeFn()
			return printJSON(cmd.OutOrStdout(), snap.Histogram.Buckets())
		},
	}
	ff.register(cmd)
	return cmd
}

func newPersonCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "person BIOID",
		Short: "Resolve a BIOID to its person record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := load(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			p, ok := svc.Person(args[0])
			if !ok {
				return fmt.Errorf("no person with BIOID %q", args[0])
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
}

func newNamesCmd(load loadFunc) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "names [QUERY]",
		Short: "Suggest person names matching QUERY",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := load(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			return printJSON(cmd.OutOrStdout(), svc.SuggestNames(query, limit))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of suggestions")
	return cmd
}

func newDiagnosticsCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnostics",
		Short: "Print load failures and data problems found in the workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := load(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			return printJSON(cmd.OutOrStdout(), svc.Diagnostics())
		},
	}
}
