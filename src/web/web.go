// Copyright 2021 Ilia Frenkel. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE.txt file.

// Package web implements a web server that provides a front-end for the
// go-pastes application.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/iliafrenkel/go-pastes/src/metrics"
	"github.com/iliafrenkel/go-pastes/src/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerOptions defines various parameters needed to run the WebServer
type ServerOptions struct {
	Addr         string        // address to listen on, see http.Server docs for details
	ReadTimeout  time.Duration // maximum duration for reading the entire request.
	WriteTimeout time.Duration // maximum duration before timing out writes of the response
	IdleTimeout  time.Duration // maximum amount of time to wait for the next request
	LogFile      string        // if not empty, will write logs to the file
	LogMode      string        // can be either "debug" or "production"
	BrandName    string        // displayed at the top of each page, default is "Go Pastes"
	BrandTagline string        // displayed below the BrandName
	Assets       string        // location of the assets folder (css, images)
	Templates    string        // location of the templates folder
	MaxBodySize  int64         // maximum size for request's body
	Version      string        // app version, comes from build
}

// Server encapsulates a router and a server.
// Normally, you'd create a new instance by calling New which configures the
// router and then call ListenAndServe to start serving incoming requests.
type Server struct {
	router    *mux.Router
	server    *http.Server
	options   ServerOptions
	templates *template.Template
	log       *lgr.Logger
	service   *service.Service
}

var dbgLogFormatter handlers.LogFormatter = func(writer io.Writer, params handlers.LogFormatterParams) {
	const (
		green   = "\033[97;42m"
		white   = "\033[90;47m"
		yellow  = "\033[90;43m"
		red     = "\033[97;41m"
		blue    = "\033[97;44m"
		magenta = "\033[97;45m"
		cyan    = "\033[97;46m"
		reset   = "\033[0m"
	)

	code := params.StatusCode
	cclr := ""
	switch {
	case code >= http.StatusOK && code < http.StatusMultipleChoices:
		cclr = green
	case code >= http.StatusMultipleChoices && code < http.StatusBadRequest:
		cclr = white
	case code >= http.StatusBadRequest && code < http.StatusInternalServerError:
		cclr = yellow
	default:
		cclr = red
	}

	method := params.Request.Method
	mclr := ""
	switch method {
	case http.MethodGet:
		mclr = blue
	case http.MethodPost:
		mclr = cyan
	case http.MethodHead:
		mclr = magenta
	case http.MethodOptions:
		mclr = white
	default:
		mclr = reset
	}

	host, _, err := net.SplitHostPort(params.Request.RemoteAddr)
	if err != nil {
		host = params.Request.RemoteAddr
	}

	fmt.Fprintf(writer, "|%s %3d %s| %15s |%s %-7s %s| %8d | %s \n",
		cclr, code, reset,
		host,
		mclr, method, reset,
		params.Size,
		params.URL.RequestURI(),
	)
}

// ListenAndServe starts an HTTP server and binds it to the provided address.
// You have to call New() first to initialise the Server.
func (h *Server) ListenAndServe() error {
	hdlr, err := h.handler()
	if err != nil {
		return err
	}

	h.server = &http.Server{
		Addr:         h.options.Addr,
		WriteTimeout: h.options.WriteTimeout,
		ReadTimeout:  h.options.ReadTimeout,
		IdleTimeout:  h.options.IdleTimeout,
		Handler:      hdlr,
	}

	return h.server.ListenAndServe()
}

// handler wraps the router with the access log.
func (h *Server) handler() (http.Handler, error) {
	var w io.Writer
	if h.options.LogFile == "" {
		w = lgr.ToWriter(h.log, "")
	} else {
		f, err := os.OpenFile(h.options.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return nil, fmt.Errorf("Server.ListenAndServe: cannot open log file: [%s]: %w", h.options.LogFile, err)
		}
		w = f
	}

	if h.options.LogMode == "debug" {
		return handlers.CustomLoggingHandler(w, h.router, dbgLogFormatter), nil
	}
	return handlers.CombinedLoggingHandler(w, h.router), nil
}

// Shutdown gracefully shutdown the server with the given context.
func (h *Server) Shutdown(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}

// New returns an instance of the Server with initialised middleware,
// loaded templates and routes. You can call ListenAndServe on a newly
// created instance to initialise the HTTP server and start handling incoming
// requests.
func New(l *lgr.Logger, svc *service.Service, opts ServerOptions) (*Server, error) {
	if svc == nil {
		return nil, errors.New("web.New: service is required")
	}

	var handler Server
	handler.log = l
	handler.options = opts
	handler.service = svc

	// Load templates
	tpl, err := template.ParseGlob(filepath.Join(handler.options.Templates, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("web.New: error loading templates: %w", err)
	}
	handler.log.Logf("INFO loaded %d templates", len(tpl.Templates()))
	handler.templates = tpl

	// Initialise the router
	handler.router = mux.NewRouter()
	handler.router.Use(metrics.Middleware)

	// Static files
	handler.router.PathPrefix("/assets/").Handler(http.StripPrefix("/assets/", http.FileServer(http.Dir(handler.options.Assets))))

	// Define routes
	handler.router.HandleFunc("/", handler.handleGetHomePage).Methods("GET")
	handler.router.HandleFunc("/create", handler.handleGetCreatePage).Methods("GET")
	handler.router.HandleFunc("/create", handler.handlePostPaste).Methods("POST")
	handler.router.HandleFunc("/paste/{id}", handler.handleGetPastePage).Methods("GET")
	handler.router.HandleFunc("/delete/{id}", handler.handleDeletePaste).Methods("POST")
	handler.router.HandleFunc("/search", handler.handleSearch).Methods("GET")
	handler.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Common error routes
	handler.router.NotFoundHandler = http.HandlerFunc(handler.notFound)
	handler.router.MethodNotAllowedHandler = http.HandlerFunc(handler.methodNotAllowed)

	return &handler, nil
}
