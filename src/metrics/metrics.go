// Copyright 2021 Ilia Frenkel. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE.txt file.

// Package metrics exposes prometheus counters for paste operations and an
// HTTP middleware that records request durations.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PastesCreated counts pastes successfully created.
	PastesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gopastes_pastes_created_total",
		Help: "no. of pastes created",
	})

	// PastesDeleted counts delete requests that reached the store, unknown ids
	// included.
	PastesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gopastes_pastes_deleted_total",
		Help: "no. of pastes deleted",
	})

	// Searches counts searches with a non-empty query.
	Searches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gopastes_searches_total",
		Help: "no. of non-empty searches",
	})

	// StoreFailures counts store errors by the operation that hit them.
	StoreFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gopastes_store_failures_total",
			Help: "no. of failed store writes",
		},
		[]string{"operation"},
	)

	// RequestDuration observes HTTP request durations by method, route template
	// and status code.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gopastes_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records the duration of every request. Requests are labelled
// with the route template rather than the path, so paste ids don't blow up
// the number of series.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}
