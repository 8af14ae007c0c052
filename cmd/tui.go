// Package cmd command line
package cmd

import (
	"context"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Laisky/laisky-gallery-search/cmd/tui"
	"github.com/Laisky/laisky-gallery-search/internal/gallery/prefs"
	"github.com/Laisky/laisky-gallery-search/internal/gallery/search"
	"github.com/Laisky/laisky-gallery-search/internal/web"
	"github.com/Laisky/laisky-gallery-search/library/config"
	"github.com/Laisky/laisky-gallery-search/library/db/sql/kv"
	"github.com/Laisky/laisky-gallery-search/library/log"
)

var tuiCMD = &cobra.Command{
	Use:   "tui",
	Short: "Launch the terminal gallery",
	Long: `Launch the terminal gallery to search and browse your photos.

Typing searches once you pause for a moment, filters apply immediately.

Example:
  laisky-gallery-search tui --with-index

Keyboard shortcuts:
  /           Type a query (enter searches now, esc stops typing)
  arrows/hjkl Move the selection, reaching the last row loads more
  m s t o f   Cycle mode, sort, type, source and favorites
  + / -       More or fewer grid columns
  n           Load more
  r           Retry after an error
  ctrl+r      Refresh, bypassing the cache
  esc         Dismiss the error
  q           Quit`,
	Args:   gcmd.NoExtraArgs,
	PreRun: preRun,
	RunE: func(cmd *cobra.Command, args []string) error {
		withIndex, err := cmd.Flags().GetBool("with-index")
		if err != nil {
			return errors.Wrap(err, "read flag `with-index`")
		}

		return runTUI(context.Background(), withIndex)
	},
}

func init() {
	rootCMD.AddCommand(tuiCMD)
	tuiCMD.Flags().Bool("with-index", false, "also serve the development photo index")
}

// runTUI starts the gallery view, optionally together with the development index.
func runTUI(ctx context.Context, withIndex bool) error {
	// the console logger shares the terminal with the view
	if !gconfig.Shared.GetBool("debug") {
		if err := log.Logger.ChangeLevel(glog.Level("error")); err != nil {
			return errors.Wrap(err, "quiet logger")
		}
	}

	st := config.LoadSettings()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	feed := tui.NewFeed()
	cli, err := newPhotosClient(st)
	if err != nil {
		return err
	}
	ctrl, err := newSearchController(st, cli, search.WithOnChange(feed.Publish))
	if err != nil {
		return err
	}
	defer ctrl.Close() // nolint: errcheck

	var zoomStore tui.ZoomStore
	if kvStore, err := kv.OpenSqlite(ctx, st.Prefs.DBPath); err != nil {
		log.Logger.Warn("open preferences, zoom level will not be saved",
			zap.String("path", st.Prefs.DBPath), zap.Error(err))
	} else {
		defer kvStore.Close() // nolint: errcheck
		if zoomStore, err = prefs.New(kvStore); err != nil {
			return errors.Wrap(err, "new preferences")
		}
	}

	var (
		idx     *web.Index
		idxOpts []web.ServerOption
	)
	if withIndex {
		if idx, err = buildIndex(st.Index); err != nil {
			return err
		}
		if idxOpts, err = indexServerOptions(st.Index); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if idx != nil {
		g.Go(func() error {
			return web.RunServer(gctx, st.Index.Listen, idx, idxOpts...)
		})
	}
	g.Go(func() error {
		// leaving the view stops the index
		defer cancel()

		p := tea.NewProgram(
			tui.NewModel(gctx, ctrl, feed, zoomStore),
			tea.WithAltScreen(),
			tea.WithContext(gctx),
		)
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return errors.Wrap(err, "run tui")
		}
		return nil
	})

	return g.Wait()
}
