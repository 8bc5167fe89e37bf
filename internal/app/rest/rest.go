// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.

// Package rest is a thin REST server used by cmd/coordctl's "serve"
// subcommand to expose a live counters region over HTTP.
package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// Values contains values extracted from the request URI according to
// the routing configuration. For example, for the route "/counter/{id}"
// Values contains the value bound to "id".
type Values struct {
	values map[string]string
}

func newValues(req *http.Request) *Values {
	return &Values{values: mux.Vars(req)}
}

// Has returns true if Values contains a value for name.
func (v *Values) Has(name string) bool {
	_, ok := v.values[name]
	return ok
}

// String returns the string value for name.
func (v *Values) String(name string) string {
	return v.values[name]
}

// Int returns the int value for name.
func (v *Values) Int(name string) (int, error) {
	val, ok := v.values[name]
	if !ok {
		return 0, fmt.Errorf("no value for the name: %s", name)
	}
	return strconv.Atoi(val)
}

// Dump writes every value as formatted JSON to w.
func (v *Values) Dump(w io.Writer) {
	b, err := json.MarshalIndent(v.values, "", "  ")
	if err == nil {
		fmt.Fprint(w, string(b))
	}
}

// Handle handles an HTTP request for one route.
type Handle func(v *Values, res http.ResponseWriter, req *http.Request) error

// Srv is a REST server routed by gorilla/mux, exposing a small
// Get/Post/Put/Delete/Start surface so handlers written against it
// don't need to learn mux's API directly.
type Srv struct {
	addr   string
	router *mux.Router
}

// NewSrv creates a new Srv bound to addr.
func NewSrv(addr string) *Srv {
	return &Srv{addr: addr, router: mux.NewRouter()}
}

// Get registers a route for HTTP GET requests. Path segments of the
// form "{name}" are exposed through Values.
func (s *Srv) Get(path string, handler Handle) {
	s.register(http.MethodGet, path, handler)
}

// Post registers a route for HTTP POST requests.
func (s *Srv) Post(path string, handler Handle) {
	s.register(http.MethodPost, path, handler)
}

// Put registers a route for HTTP PUT requests.
func (s *Srv) Put(path string, handler Handle) {
	s.register(http.MethodPut, path, handler)
}

// Delete registers a route for HTTP DELETE requests.
func (s *Srv) Delete(path string, handler Handle) {
	s.register(http.MethodDelete, path, handler)
}

func (s *Srv) register(method, path string, handler Handle) {
	s.router.HandleFunc(path, func(res http.ResponseWriter, req *http.Request) {
		if err := handler(newValues(req), res, req); err != nil {
			httpError(res, http.StatusInternalServerError, err)
		}
	}).Methods(method)
}

// Start starts the Srv; it blocks until the server stops.
func (s *Srv) Start() error {
	return http.ListenAndServe(s.addr, s.router)
}

// Handler returns the underlying http.Handler, for tests and for
// embedding in a server with its own lifecycle management.
func (s *Srv) Handler() http.Handler {
	return s.router
}

func httpError(res http.ResponseWriter, code int, cause interface{}) {
	res.WriteHeader(code)
	fmt.Fprintf(res, "An error: %v", cause)
}
