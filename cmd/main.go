// Copyright 2021 Ilia Frenkel. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE.txt file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/iliafrenkel/go-pastes/src/service"
	"github.com/iliafrenkel/go-pastes/src/web"
	"github.com/jessevdk/go-flags"
)

// Version information, set with -ldflags "-X main.version=..."
var (
	version = `¯\_(ツ)_/¯`
)

type options struct {
	Timeouts struct {
		Shutdown  time.Duration `long:"shutdown" env:"SHUTDOWN" default:"10s" description:"server graceful shutdown timeout"`
		HTTPRead  time.Duration `long:"http-read" env:"HTTP_READ" default:"15s" description:"duration for reading the entire request"`
		HTTPWrite time.Duration `long:"http-write" env:"HTTP_WRITE" default:"15s" description:"duration before timing out writes of the response"`
		HTTPIdle  time.Duration `long:"http-idle" env:"HTTP_IDLE" default:"60s" description:"amount of time to wait for the next request"`
	} `group:"timeout" namespace:"timeout" env-namespace:"GOPB_TIMEOUT"`
	Web struct {
		Host         string `long:"host" env:"HOST" default:"localhost" description:"hostname part of the Web server address"`
		Port         uint16 `long:"port" env:"PORT" default:"8080" description:"port part of the Web server address"`
		LogFile      string `long:"log-file" env:"LOG_FILE" default:"" description:"full path to the log file, default is stdout"`
		LogMode      string `long:"log-mode" env:"LOG_MODE" default:"production" choice:"debug" choice:"production" description:"log mode, can be 'debug' or 'production'"`
		BrandName    string `long:"brand-name" env:"BRAND_NAME" default:"Go Pastes" description:"brand name shown in the header of every page"`
		BrandTagline string `long:"brand-tagline" env:"BRAND_TAGLINE" default:"Share snippets of text, kept in a single file." description:"brand tagline shown below the brand name"`
		Assets       string `long:"assets" env:"ASSETS" default:"./assets" description:"path to the assets folder"`
		Templates    string `long:"templates" env:"TEMPLATES" default:"./templates" description:"path to the templates folder"`
		MaxBodySize  int64  `long:"max-body-size" env:"MAX_BODY_SIZE" default:"10240" description:"maximum size for request's body"`
	} `group:"web" namespace:"web" env-namespace:"GOPB_WEB"`
	Store struct {
		Type string `long:"type" env:"TYPE" default:"file" choice:"file" choice:"memory" description:"storage type, pastes are lost on exit with memory"`
		File string `long:"file" env:"FILE" default:"./pastes.json" description:"path to the JSON file with all the pastes, ignored for memory"`
	} `group:"store" namespace:"store" env-namespace:"GOPB_STORE"`
	Debug bool `long:"debug" env:"DEBUG" description:"debug mode"`
}

func main() {
	// Say hello
	fmt.Printf("go-pastes %s\n", version)

	// Parse the flags
	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	p.NamespaceDelimiter = "-"
	p.EnvNamespaceDelimiter = "_"
	if _, err := p.Parse(); err != nil {
		if err.(*flags.Error).Type != flags.ErrHelp {
			fmt.Printf("[ERROR] cli error: %v", err)
		}
		os.Exit(2)
	}

	log := setupLog(opts.Debug)

	if opts.Debug {
		log.Logf("INFO Options: %+v", opts)
	}

	svc, err := newService(opts)
	if err != nil {
		log.Logf("FATAL can't initialise the store: %v", err)
	}
	log.Logf("INFO %s store ready, %d pastes", opts.Store.Type, svc.Count())

	// Start the server
	webServer, err := web.New(log, svc, web.ServerOptions{
		Addr:         opts.Web.Host + ":" + fmt.Sprintf("%d", opts.Web.Port),
		ReadTimeout:  opts.Timeouts.HTTPRead,
		WriteTimeout: opts.Timeouts.HTTPWrite,
		IdleTimeout:  opts.Timeouts.HTTPIdle,
		LogFile:      opts.Web.LogFile,
		LogMode:      opts.Web.LogMode,
		BrandName:    opts.Web.BrandName,
		BrandTagline: opts.Web.BrandTagline,
		Assets:       opts.Web.Assets,
		Templates:    opts.Web.Templates,
		MaxBodySize:  opts.Web.MaxBodySize,
		Version:      version,
	})
	if err != nil {
		log.Logf("FATAL %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	errc := make(chan error, 1)

	go func() {
		log.Logf("INFO Web server listening on %s:%d", opts.Web.Host, opts.Web.Port)
		errc <- webServer.ListenAndServe()
	}()

	// Wait indefinitely for either one of the OS signals (SIGTERM or SIGINT)
	// or for the server to return an error.
	select {
	case <-quit:
		log.Logf("INFO Shutting down ...")
	case err := <-errc:
		log.Logf("ERROR Startup failed, exiting: %v\n", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeouts.Shutdown)
	defer cancel()

	if err := webServer.Shutdown(ctx); err != nil {
		log.Logf("INFO \tWeb server forced to shutdown: %v\n", err)
	} else {
		log.Logf("INFO \tWeb server is down")
	}
	log.Logf("INFO Sayōnara!")
}

// newService creates the store chosen in the options and wraps it in a
// Service. The backing file is created if it doesn't exist.
func newService(opts options) (*service.Service, error) {
	switch opts.Store.Type {
	case "memory":
		return service.NewWithMemDB(), nil
	case "file":
		return service.NewWithFile(opts.Store.File)
	default:
		return nil, fmt.Errorf("unknown store type: %s", opts.Store.Type)
	}
}

func setupLog(dbg bool) *lgr.Logger {
	if dbg {
		return lgr.New(lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces)
	}
	return lgr.New()
}
