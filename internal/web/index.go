package web

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"

	"github.com/Laisky/laisky-gallery-search/library/photos"
)

const (
	dateLayout = "2006-01-02"

	// CatalogueFile, when present in a photos dir, replaces the directory scan.
	CatalogueFile = "catalogue.json"
)

var (
	photoExts = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic", ".tif", ".tiff"}
	videoExts = []string{".mp4", ".mov", ".m4v", ".avi", ".mkv"}
)

// BadRequestError marks a search request the index refuses to run.
type BadRequestError struct {
	Field  string
	Reason string
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Index is an in-memory photo catalogue answering the search endpoint.
type Index struct {
	items   []photos.Photo
	latency time.Duration
}

// IndexOption customises an Index.
type IndexOption func(*Index)

// WithLatency delays every search by d, the delay ends early when the request is cancelled.
func WithLatency(d time.Duration) IndexOption {
	return func(idx *Index) {
		if d > 0 {
			idx.latency = d
		}
	}
}

// NewIndex creates an index over items.
func NewIndex(items []photos.Photo, opts ...IndexOption) *Index {
	idx := &Index{items: slices.Clone(items)}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Len is the catalogue size.
func (idx *Index) Len() int {
	return len(idx.items)
}

type searchFilter struct {
	terms     []string
	mode      string
	mediaType string
	favorites bool
	source    string
	tag       string
	from, to  time.Time
}

// Search filters, sorts and pages the catalogue.
func (idx *Index) Search(ctx context.Context, req photos.SearchRequest) (*photos.SearchResponse, error) {
	if idx.latency > 0 {
		timer := time.NewTimer(idx.latency)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.WithStack(ctx.Err())
		}
	}

	filter, err := parseFilter(req)
	if err != nil {
		return nil, err
	}
	sortBy, err := orDefault("sort_by", req.SortBy, "date_desc",
		"date_desc", "date_asc", "name_asc", "name_desc", "size_desc")
	if err != nil {
		return nil, err
	}

	var matched []photos.Photo
	for _, item := range idx.items {
		if err := ctx.Err(); err != nil {
			return nil, errors.WithStack(err)
		}
		if hit, ok := filter.match(item); ok {
			matched = append(matched, hit)
		}
	}
	sortPhotos(matched, sortBy)

	limit := req.Limit
	if limit <= 0 {
		limit = photos.DefaultLimit
	}
	total := len(matched)
	start := min(max(req.Offset, 0), total)
	end := min(start+limit, total)

	page := make([]photos.Photo, end-start)
	copy(page, matched[start:end])
	return &photos.SearchResponse{
		Results: page,
		Count:   &total,
	}, nil
}

func parseFilter(req photos.SearchRequest) (*searchFilter, error) {
	var err error
	f := &searchFilter{
		terms:  strings.Fields(strings.ToLower(req.Query)),
		source: req.SourceFilter,
		tag:    strings.ToLower(strings.TrimSpace(req.Tag)),
	}

	if f.mode, err = orDefault("mode", req.Mode, "hybrid", "metadata", "semantic", "hybrid"); err != nil {
		return nil, err
	}
	if f.mediaType, err = orDefault("type", req.TypeFilter, "all", "all", "photo", "video"); err != nil {
		return nil, err
	}
	favorites, err := orDefault("favorites", req.FavoritesFilter, "all", "all", "favorites")
	if err != nil {
		return nil, err
	}
	f.favorites = favorites == "favorites"
	if f.source == "all" {
		f.source = ""
	}

	if req.DateFrom != "" {
		if f.from, err = time.Parse(dateLayout, req.DateFrom); err != nil {
			return nil, &BadRequestError{Field: "date_from", Reason: "want YYYY-MM-DD"}
		}
	}
	if req.DateTo != "" {
		if f.to, err = time.Parse(dateLayout, req.DateTo); err != nil {
			return nil, &BadRequestError{Field: "date_to", Reason: "want YYYY-MM-DD"}
		}
		// inclusive of the whole day
		f.to = f.to.Add(24*time.Hour - time.Nanosecond)
	}

	return f, nil
}

func orDefault(field, value, fallback string, allowed ...string) (string, error) {
	if value == "" {
		return fallback, nil
	}
	if !slices.Contains(allowed, value) {
		return "", &BadRequestError{Field: field, Reason: fmt.Sprintf("%q not one of %v", value, allowed)}
	}
	return value, nil
}

// match reports whether p passes every filter, returning the photo as it should be served.
func (f *searchFilter) match(p photos.Photo) (photos.Photo, bool) {
	md := p.Metadata
	if f.mediaType != "all" && mediaTypeOf(p) != f.mediaType {
		return p, false
	}
	if f.favorites && !md.Favorite {
		return p, false
	}
	if f.source != "" && md.Source != f.source {
		return p, false
	}
	if f.tag != "" && !slices.ContainsFunc(md.Tags, func(t string) bool {
		return strings.EqualFold(t, f.tag)
	}) {
		return p, false
	}
	if !f.from.IsZero() || !f.to.IsZero() {
		taken, err := time.Parse(time.RFC3339, md.DateTaken)
		if err != nil {
			return p, false
		}
		if !f.from.IsZero() && taken.Before(f.from) {
			return p, false
		}
		if !f.to.IsZero() && taken.After(f.to) {
			return p, false
		}
	}

	p.MatchExplanation = ""
	if len(f.terms) == 0 {
		return p, true
	}

	metadataHit := f.mode != "semantic" && allTerms(f.terms, p.Filename, md.Camera, strings.Join(md.Tags, " "))
	semanticHit := false
	if f.mode != "metadata" {
		var reasons []string
		semanticHit, reasons = semanticMatch(f.terms, md)
		if semanticHit {
			p.MatchExplanation = strings.Join(reasons, "; ")
		}
	}

	return p, metadataHit || semanticHit
}

func allTerms(terms []string, fields ...string) bool {
	haystack := strings.ToLower(strings.Join(fields, " "))
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

// semanticMatch looks for every term in tags or description and explains where each one was found.
func semanticMatch(terms []string, md photos.Metadata) (bool, []string) {
	description := strings.ToLower(md.Description)
	reasons := make([]string, 0, len(terms))
	for _, term := range terms {
		switch {
		case slices.ContainsFunc(md.Tags, func(t string) bool { return strings.Contains(strings.ToLower(t), term) }):
			reasons = append(reasons, fmt.Sprintf("tagged %q", term))
		case strings.Contains(description, term):
			reasons = append(reasons, fmt.Sprintf("description mentions %q", term))
		default:
			return false, nil
		}
	}
	return true, reasons
}

func mediaTypeOf(p photos.Photo) string {
	if p.Metadata.MediaType != "" {
		return p.Metadata.MediaType
	}
	if slices.Contains(videoExts, strings.ToLower(filepath.Ext(p.Filename))) {
		return "video"
	}
	return "photo"
}

func sortPhotos(items []photos.Photo, sortBy string) {
	slices.SortStableFunc(items, func(a, b photos.Photo) int {
		switch sortBy {
		case "date_asc":
			return strings.Compare(a.Metadata.DateTaken, b.Metadata.DateTaken)
		case "name_asc":
			return strings.Compare(strings.ToLower(a.Filename), strings.ToLower(b.Filename))
		case "name_desc":
			return strings.Compare(strings.ToLower(b.Filename), strings.ToLower(a.Filename))
		case "size_desc":
			switch {
			case a.Metadata.Size > b.Metadata.Size:
				return -1
			case a.Metadata.Size < b.Metadata.Size:
				return 1
			}
			return 0
		default:
			return strings.Compare(b.Metadata.DateTaken, a.Metadata.DateTaken)
		}
	})
}

// LoadCatalogue reads the photos under dir.
//
// A catalogue.json file holding a JSON array of photos takes precedence,
// otherwise dir is walked for photo and video files, tagged by their parent directories.
func LoadCatalogue(dir string) ([]photos.Photo, error) {
	raw, err := os.ReadFile(filepath.Join(dir, CatalogueFile))
	switch {
	case err == nil:
		var items []photos.Photo
		if err = gutils.JSON.UnmarshalFromString(string(raw), &items); err != nil {
			return nil, errors.Wrapf(err, "parse %s", CatalogueFile)
		}
		return items, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, errors.Wrapf(err, "read %s", CatalogueFile)
	}

	var items []photos.Photo
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		mediaType := ""
		switch {
		case slices.Contains(photoExts, ext):
			mediaType = "photo"
		case slices.Contains(videoExts, ext):
			mediaType = "video"
		default:
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return errors.Wrapf(err, "stat %s", path)
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return errors.WithStack(err)
		}

		var tags []string
		for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/") {
			if part != "." && part != "" {
				tags = append(tags, strings.ToLower(part))
			}
		}

		items = append(items, photos.Photo{
			Path:     path,
			Filename: d.Name(),
			Metadata: photos.Metadata{
				DateTaken: info.ModTime().UTC().Format(time.RFC3339),
				Size:      info.Size(),
				Tags:      tags,
				Source:    "local",
				MediaType: mediaType,
			},
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", dir)
	}

	return items, nil
}

var (
	demoSubjects = []struct {
		tag         string
		description string
	}{
		{"sunset", "orange sky over the sea at dusk"},
		{"beach", "waves rolling onto a sandy shore"},
		{"forest", "tall pines with morning fog"},
		{"mountain", "snowy peaks above a valley"},
		{"city", "night skyline with bright windows"},
		{"portrait", "a smiling friend in soft light"},
		{"dog", "a golden retriever chasing a ball"},
		{"cat", "a sleepy cat on the windowsill"},
		{"lake", "calm water reflecting the hills"},
		{"food", "a bowl of ramen on a wooden table"},
	}
	demoCameras = []string{"Fujifilm X-T4", "Canon EOS R6", "iPhone 15 Pro", "Sony A7 IV"}
	demoSources = []string{"local", "cloud", "hybrid"}
)

// DemoCatalogue generates n deterministic photos for running without a photos dir.
func DemoCatalogue(n int) []photos.Photo {
	base := time.Date(2023, 1, 1, 9, 0, 0, 0, time.UTC)
	items := make([]photos.Photo, 0, n)
	for i := 0; i < n; i++ {
		subject := demoSubjects[i%len(demoSubjects)]
		mediaType, ext := "photo", ".jpg"
		if i%11 == 10 {
			mediaType, ext = "video", ".mp4"
		}
		name := fmt.Sprintf("IMG_%04d_%s%s", i+1, subject.tag, ext)

		items = append(items, photos.Photo{
			Path:     "/demo/" + name,
			Filename: name,
			Metadata: photos.Metadata{
				DateTaken:   base.Add(time.Duration(i) * 37 * time.Hour).Format(time.RFC3339),
				Width:       4000,
				Height:      3000,
				Size:        int64(1_500_000 + (i*7919)%3_000_000),
				Camera:      demoCameras[i%len(demoCameras)],
				Description: subject.description,
				Tags:        []string{subject.tag},
				Favorite:    i%7 == 0,
				Source:      demoSources[i%len(demoSources)],
				MediaType:   mediaType,
			},
		})
	}
	return items
}
