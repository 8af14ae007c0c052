package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/Laisky/errors/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/laisky-gallery-search/internal/web"
	"github.com/Laisky/laisky-gallery-search/library/config"
	"github.com/Laisky/laisky-gallery-search/library/log"
	"github.com/Laisky/laisky-gallery-search/library/throttle"
)

const demoCatalogueSize = 500

var indexCMD = &cobra.Command{
	Use:   "index",
	Short: "serve a development photo index",
	Long: `Serve the photo search endpoint from a local directory or a generated catalogue.

When settings.index.photos_dir is empty a deterministic demo catalogue is served.`,
	Args:   gcmd.NoExtraArgs,
	PreRun: preRun,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st := config.LoadSettings()
		idx, err := buildIndex(st.Index)
		if err != nil {
			return err
		}

		opts, err := indexServerOptions(st.Index)
		if err != nil {
			return err
		}

		return web.RunServer(ctx, st.Index.Listen, idx, opts...)
	},
}

// indexServerOptions turns on per client throttling when a rate is configured.
func indexServerOptions(st config.IndexSettings) ([]web.ServerOption, error) {
	if st.RatePerSec <= 0 {
		return nil, nil
	}

	th, err := throttle.New(throttle.Config{
		TotalNPerSec:   st.RatePerSec * 10,
		TotalBurst:     st.Burst * 10,
		EachKeyNPerSec: st.RatePerSec,
		EachKeyBurst:   st.Burst,
	})
	if err != nil {
		return nil, errors.Wrap(err, "new throttle")
	}

	return []web.ServerOption{web.WithThrottle(th)}, nil
}

// buildIndex loads the configured catalogue into an in-memory index.
func buildIndex(st config.IndexSettings) (*web.Index, error) {
	items := web.DemoCatalogue(demoCatalogueSize)
	if st.PhotosDir != "" {
		var err error
		if items, err = web.LoadCatalogue(st.PhotosDir); err != nil {
			return nil, errors.Wrapf(err, "load catalogue from `%s`", st.PhotosDir)
		}
	}

	log.Logger.Info("photo index ready",
		zap.String("dir", st.PhotosDir),
		zap.Int("photos", len(items)),
		zap.Duration("latency", st.Latency))
	return web.NewIndex(items, web.WithLatency(st.Latency)), nil
}

func init() {
	rootCMD.AddCommand(indexCMD)
}
