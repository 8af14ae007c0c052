// Package web serves a development photo index over the search endpoint's HTTP contract.
package web

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	gconfig "github.com/Laisky/go-config/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-gallery-search/library/log"
	"github.com/Laisky/laisky-gallery-search/library/photos"
	"github.com/Laisky/laisky-gallery-search/library/throttle"
)

const shutdownTimeout = 5 * time.Second

type serverOption struct {
	throttle *throttle.Throttle
}

// ServerOption customises the index server.
type ServerOption func(*serverOption)

// WithThrottle rejects searches over th's rate with 429, keyed by client ip.
func WithThrottle(th *throttle.Throttle) ServerOption {
	return func(opt *serverOption) {
		opt.throttle = th
	}
}

// NewRouter builds the gin engine serving idx.
func NewRouter(idx *Index, logger logSDK.Logger, opts ...ServerOption) *gin.Engine {
	if logger == nil {
		logger = log.Logger.Named("index")
	}
	opt := new(serverOption)
	for _, f := range opts {
		f(opt)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		gmw.NewLoggerMiddleware(
			gmw.WithLogger(logger.Named("gin")),
		),
		allowCORS,
	)
	if opt.throttle != nil {
		router.Use(throttleMiddleware(opt.throttle))
	}

	router.Any("/health", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "hello, world")
	})
	router.GET("/api/search", searchHandler(idx))

	return router
}

// RunServer serves idx on addr until ctx is done, then shuts down gracefully.
func RunServer(ctx context.Context, addr string, idx *Index, opts ...ServerOption) error {
	if !gconfig.Shared.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := log.Logger.Named("index")
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(idx, logger, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", addr)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("listening on http",
		zap.String("addr", ln.Addr().String()),
		zap.Int("photos", idx.Len()))

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serve http")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown http server")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve http")
	}

	logger.Info("http server stopped")
	return nil
}

func searchHandler(idx *Index) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		logger := gmw.GetLogger(ctx)
		sreq := photos.DecodeQuery(ctx.Request.URL.Query())
		if requestID := ctx.GetHeader(photos.RequestIDHeader); requestID != "" {
			ctx.Header(photos.RequestIDHeader, requestID)
			logger = logger.With(zap.String("request_id", requestID))
		}

		resp, err := idx.Search(ctx.Request.Context(), sreq)
		if err != nil {
			var badReq *BadRequestError
			switch {
			case errors.As(err, &badReq):
				ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": badReq.Error()})
			case errors.Is(err, context.Canceled):
				logger.Debug("client went away", zap.String("query", sreq.Query))
				ctx.AbortWithStatus(http.StatusRequestTimeout)
			default:
				logger.Error("search index", zap.Error(err))
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
			}
			return
		}

		logger.Debug("search served",
			zap.String("query", sreq.Query),
			zap.Int("offset", sreq.Offset),
			zap.Int("results", len(resp.Results)))
		ctx.JSON(http.StatusOK, resp)
	}
}

func throttleMiddleware(th *throttle.Throttle) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method == http.MethodOptions || th.Allow(ctx.ClientIP()) {
			ctx.Next()
			return
		}

		gmw.GetLogger(ctx).Debug("throttled", zap.String("client", ctx.ClientIP()))
		ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
	}
}

// allowCORS lets browser front ends on the local machine call the index.
func allowCORS(ctx *gin.Context) {
	origin := ctx.Request.Header.Get("Origin")
	allowedOrigin := ""

	if origin != "" {
		parsedOriginURL, err := url.Parse(origin)
		if err == nil {
			if isLoopbackHost(parsedOriginURL.Hostname()) {
				allowedOrigin = origin
			}
		}
	}

	if allowedOrigin != "" {
		ctx.Header("Access-Control-Allow-Origin", allowedOrigin)
		ctx.Header("Access-Control-Allow-Methods", "GET, OPTIONS, HEAD")
		ctx.Header("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, "+photos.RequestIDHeader)
		ctx.Header("Access-Control-Max-Age", "86400")
		ctx.Header("Vary", "Origin")

		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}
	} else if origin != "" && ctx.Request.Method == http.MethodOptions {
		ctx.AbortWithStatus(http.StatusForbidden)
		return
	}

	ctx.Next()
}

func isLoopbackHost(host string) bool {
	host = strings.ToLower(host)
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
