// Package prefs persists gallery view preferences.
package prefs

import (
	"context"
	"strconv"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-gallery-search/library/db/sql/kv"
	appLog "github.com/Laisky/laisky-gallery-search/library/log"
)

const (
	// MinZoom is the smallest number of grid columns.
	MinZoom = 1
	// MaxZoom is the largest number of grid columns.
	MaxZoom = 6
	// DefaultZoom is used until the user picks another level.
	DefaultZoom = 3

	zoomKey = "gallery.zoom"
)

// Store reads and writes preferences through a kv store.
type Store struct {
	kv     kv.Interface
	logger logSDK.Logger
}

// New creates a preference store on kvStore.
func New(kvStore kv.Interface) (*Store, error) {
	if kvStore == nil {
		return nil, errors.New("kv store is required")
	}

	return &Store{
		kv:     kvStore,
		logger: appLog.Logger.Named("gallery_prefs"),
	}, nil
}

// ClampZoom pulls level into [MinZoom, MaxZoom].
func ClampZoom(level int) int {
	return max(MinZoom, min(MaxZoom, level))
}

// Zoom returns the stored zoom level.
// A missing, unreadable or out of range value yields DefaultZoom.
func (s *Store) Zoom(ctx context.Context) int {
	item, err := s.kv.Get(ctx, zoomKey)
	if err != nil {
		if !errors.Is(err, kv.ErrKeyNotFound) {
			s.logger.Warn("read zoom preference", zap.Error(err))
		}
		return DefaultZoom
	}

	level, err := strconv.Atoi(item.Value)
	if err != nil || level < MinZoom || level > MaxZoom {
		s.logger.Warn("ignore invalid zoom preference", zap.String("value", item.Value))
		return DefaultZoom
	}

	return level
}

// SetZoom clamps and stores level, returning the stored value.
func (s *Store) SetZoom(ctx context.Context, level int) (int, error) {
	level = ClampZoom(level)
	if err := s.kv.Set(ctx, zoomKey, strconv.Itoa(level)); err != nil {
		return level, errors.Wrap(err, "save zoom preference")
	}

	return level, nil
}
