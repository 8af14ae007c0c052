package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Laisky/errors/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/spf13/cobra"

	"github.com/Laisky/laisky-gallery-search/internal/gallery/search"
	"github.com/Laisky/laisky-gallery-search/library/config"
	"github.com/Laisky/laisky-gallery-search/library/photos"
)

var searchCMD = &cobra.Command{
	Use:   "search",
	Short: "run one search and print its pages",
	Long: `Run a single search against the photo endpoint and print the results.

Example:
  laisky-gallery-search search --query sunset --mode semantic --pages 2`,
	Args:   gcmd.NoExtraArgs,
	PreRun: preRun,
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := searchOptionFromFlags(cmd)
		if err != nil {
			return err
		}

		st := config.LoadSettings()
		cli, err := newPhotosClient(st)
		if err != nil {
			return err
		}

		return runSearch(cmd.Context(), cmd.OutOrStdout(), st, cli, opt)
	},
}

type searchOption struct {
	query     string
	mode      string
	sortBy    string
	typ       string
	source    string
	favorites string
	tag       string
	dateFrom  string
	dateTo    string
	pages     int
}

func searchOptionFromFlags(cmd *cobra.Command) (searchOption, error) {
	var (
		opt searchOption
		err error
	)
	flags := cmd.Flags()
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"query", &opt.query},
		{"mode", &opt.mode},
		{"sort", &opt.sortBy},
		{"type", &opt.typ},
		{"source", &opt.source},
		{"favorites", &opt.favorites},
		{"tag", &opt.tag},
		{"from", &opt.dateFrom},
		{"to", &opt.dateTo},
	} {
		if *f.dst, err = flags.GetString(f.name); err != nil {
			return opt, errors.Wrapf(err, "read flag `%s`", f.name)
		}
	}
	if opt.pages, err = flags.GetInt("pages"); err != nil {
		return opt, errors.Wrap(err, "read flag `pages`")
	}
	if opt.pages <= 0 {
		return opt, errors.Errorf("pages must be positive, got %d", opt.pages)
	}

	return opt, nil
}

// apply copies the non-empty filters of opt onto p.
func (opt searchOption) apply(p search.Parameters) (search.Parameters, error) {
	if opt.mode != "" {
		mode, err := search.ParseMode(opt.mode)
		if err != nil {
			return p, err
		}
		p.Mode = mode
	}
	if opt.source != "" {
		src, err := search.ParseSourceFilter(opt.source)
		if err != nil {
			return p, err
		}
		p.SourceFilter = src
	}
	if opt.sortBy != "" {
		p.SortBy = opt.sortBy
	}
	if opt.typ != "" {
		p.TypeFilter = opt.typ
	}
	if opt.favorites != "" {
		p.FavoritesFilter = opt.favorites
	}
	p.Tag = opt.tag
	p.DateFrom = opt.dateFrom
	p.DateTo = opt.dateTo

	return p, nil
}

func runSearch(ctx context.Context, out io.Writer, st config.Settings, searcher search.Searcher, opt searchOption) error {
	if ctx == nil {
		ctx = context.Background()
	}

	params, err := initialParameters(st)
	if err != nil {
		return err
	}
	if params, err = opt.apply(params); err != nil {
		return errors.Wrap(err, "parse filters")
	}

	ctrl, err := newSearchController(st, searcher, search.WithInitialParameters(params))
	if err != nil {
		return err
	}
	defer ctrl.Close() // nolint: errcheck

	if _, err = ctrl.Search(ctx, opt.query); err != nil {
		return errors.Wrap(err, "search")
	}
	for page := 1; page < opt.pages; page++ {
		if !ctrl.Snapshot().CanLoadMore() {
			break
		}
		if _, err = ctrl.LoadMore(ctx); err != nil {
			return errors.Wrapf(err, "load page %d", page+1)
		}
	}

	printSnapshot(out, ctrl.Snapshot())
	return nil
}

func printSnapshot(out io.Writer, snap search.Snapshot) {
	if snap.Empty() {
		fmt.Fprintln(out, "no photos found")
		return
	}

	for i, p := range snap.Photos {
		fmt.Fprintf(out, "%4d  %s\n", i+1, describePhoto(p))
	}

	total := len(snap.Photos)
	if snap.ResultCount != nil {
		total = *snap.ResultCount
	}
	more := ""
	if snap.HasMore {
		more = ", more available"
	}
	fmt.Fprintf(out, "showing %d of %d%s\n", len(snap.Photos), total, more)
}

func describePhoto(p photos.Photo) string {
	parts := []string{p.Filename}
	if p.Metadata.DateTaken != "" {
		parts = append(parts, p.Metadata.DateTaken)
	}
	if len(p.Metadata.Tags) > 0 {
		parts = append(parts, "["+strings.Join(p.Metadata.Tags, ", ")+"]")
	}
	if p.MatchExplanation != "" {
		parts = append(parts, "("+p.MatchExplanation+")")
	}
	return strings.Join(parts, "  ")
}

func init() {
	rootCMD.AddCommand(searchCMD)

	searchCMD.Flags().StringP("query", "q", "", "search text, empty lists every photo")
	searchCMD.Flags().String("mode", "", "metadata/semantic/hybrid, defaults to the configured mode")
	searchCMD.Flags().String("sort", "", "date_desc/date_asc/name_asc/name_desc/size_desc")
	searchCMD.Flags().String("type", "", "all/photo/video")
	searchCMD.Flags().String("source", "", "all/local/cloud/hybrid")
	searchCMD.Flags().String("favorites", "", "all/favorites")
	searchCMD.Flags().String("tag", "", "only photos carrying this tag")
	searchCMD.Flags().String("from", "", "earliest date taken, YYYY-MM-DD")
	searchCMD.Flags().String("to", "", "latest date taken, YYYY-MM-DD")
	searchCMD.Flags().Int("pages", 1, "how many pages to fetch")
}
