// Package main is the perseverance command-line client. It works offline
// against a local cache and syncs through the Remote API once signed in.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/atinyakov/Perseverance/internal/apperr"
	"github.com/atinyakov/Perseverance/internal/certgen"
	"github.com/atinyakov/Perseverance/internal/client/cli"
	"github.com/atinyakov/Perseverance/internal/client/gateway"
	"github.com/atinyakov/Perseverance/internal/client/prompt"
	"github.com/atinyakov/Perseverance/internal/client/remote"
	"github.com/atinyakov/Perseverance/internal/client/session"
	"github.com/atinyakov/Perseverance/internal/client/storage"
	"github.com/atinyakov/Perseverance/internal/logger"
)

var (
	version   string
	buildDate string
)

func main() {
	var app cli.CLI
	kctx := kong.Parse(&app,
		kong.Name("perseverance"),
		kong.Description("Habit tracker. Works offline, syncs when signed in."),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("%s (built %s)", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))},
	)

	log := logger.New()
	if err := log.Init(app.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
	defer func() { _ = log.Log.Sync() }()

	cache, closeCache, err := openCache(app.CacheBackend, app.Cache)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	defer closeCache()

	store := storage.NewStore(cache, log.Log)
	httpClient, err := newHTTPClient(app.CA)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		closeCache()
		os.Exit(1)
	}
	api := remote.New(app.URL, httpClient)
	gw := gateway.New(store, api, session.Default(cache), gateway.WithLogger(log.Log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	gw.Init(ctx)

	err = kctx.Run(&cli.Context{
		Context: ctx,
		Gateway: gw,
		Prompt:  prompt.Stdio(),
		Out:     os.Stdout,
		Now:     time.Now,
	})
	if err != nil {
		log.Log.Debug("command failed", zap.String("command", kctx.Command()), zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", apperr.Message(err))
		stop()
		closeCache()
		os.Exit(1)
	}
}

// openCache opens the local cache for backend at path. The returned func
// releases it.
func openCache(backend, path string) (storage.Cache, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create cache directory: %w", err)
	}
	switch backend {
	case "sqlite":
		if strings.HasSuffix(path, ".json") {
			path = strings.TrimSuffix(path, ".json") + ".db"
		}
		c, err := storage.OpenSQLiteCache(path)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { _ = c.Close() }, nil
	default:
		c, err := storage.OpenFileCache(path)
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	}
}

// newHTTPClient returns a client that trusts only the CA in caPath, or nil
// (the remote default) when caPath is empty.
func newHTTPClient(caPath string) (*http.Client, error) {
	if caPath == "" {
		return nil, nil
	}
	pool, err := certgen.LoadCertPool(caPath)
	if err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	return &http.Client{Timeout: remote.DefaultTimeout, Transport: transport}, nil
}
