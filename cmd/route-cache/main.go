package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	routecache "github.com/route-cache/route-cache"
	"github.com/route-cache/route-cache/cache"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// CLI flags
	portFlag           int
	originFlag         string
	configFlag         string
	storeFlag          string
	dbFilenameFlag     string
	redisAddrFlag      string
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&originFlag, "origin", "", "Origin URL to proxy to")
	flag.StringVar(&configFlag, "config", "route-cache.yml", "Route policy config file")
	flag.IntVar(&portFlag, "port", 8080, "Port to listen on")
	flag.StringVar(&storeFlag, "store", "sqlite", "Cache store backend: memory, sqlite or redis")
	flag.StringVar(&dbFilenameFlag, "db", "cache.db", "Cache DB file name for the sqlite store")
	flag.StringVar(&redisAddrFlag, "redis", "localhost:6379", "Redis address for the redis store")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	config, err := getConfig(configFlag)
	if err != nil {
		log.Fatal().Err(err).Str("file", configFlag).Msg("Could not read config")
	}

	origin := originFlag
	if origin == "" {
		origin = config.Origin
	}
	if origin == "" {
		log.Fatal().Msg("Please specify origin")
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not parse origin url")
	}

	provider, err := createProvider()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not create cache store")
	}
	defer provider.Close()

	registry := routecache.NewPolicyRegistry()
	for _, route := range config.Routes {
		if len(route.Invalidate) > 0 {
			registry.RegisterInvalidation(route.method(), route.Path, route.Invalidate...)
		}
		if route.method() == "GET" {
			registry.Register(route.method(), route.Path, route.policy())
		}
	}

	rcache := routecache.CreateCache(routecache.Config{
		Cache:    provider,
		Registry: registry,
		Logger:   &log.Logger,
	})

	proxy := httputil.NewSingleHostReverseProxy(originURL)

	r := chi.NewRouter()
	r.Mount("/_cache", rcache.AdminHandler())
	r.Handle("/*", rcache.Middleware(proxy))

	log.Info().Msgf("Proxying port %v to %s (%s store, %d routes)",
		portFlag, originURL.String(), storeFlag, len(config.Routes))
	if err := http.ListenAndServe(fmt.Sprintf(":%d", portFlag), r); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func createProvider() (cache.CacheProvider, error) {
	switch storeFlag {
	case "memory":
		return cache.NewMemCache(), nil
	case "sqlite":
		return cache.NewSQLiteCache(dbFilenameFlag), nil
	case "redis":
		return cache.NewRedisCache(cache.RedisConfig{Addr: redisAddrFlag}, &log.Logger)
	}
	return nil, fmt.Errorf("unknown cache store %q", storeFlag)
}
