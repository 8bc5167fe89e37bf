// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.
package main

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relaygrid/corecoord/counters"
	"github.com/relaygrid/corecoord/internal/app/cli"
	"github.com/relaygrid/corecoord/internal/app/rest"
	"github.com/relaygrid/corecoord/internal/config"
	"github.com/relaygrid/corecoord/internal/mmap"
	"github.com/relaygrid/corecoord/logbuffer"
)

func runServe() {
	a, err := cli.NewNamedApp("coordctl serve")
	cli.ExitIfError(err)
	a.SetDescription("Maps a counters region and a term buffer and exposes them over REST.")

	fileArg := a.StringFlag("file", 'f', "", "path to the counters region file (created if missing)")
	a.Require("file")
	configArg := a.StringFlag("config", 'c', "", "path to a JSONC config file")
	addrArg := a.StringFlag("addr", 'a', "", "override the config's listen address")

	a.Start(func(args []string) error {
		return serve(*fileArg, *configArg, *addrArg)
	})
}

type service struct {
	logger    *zap.Logger
	manager   *counters.Manager
	appenders []*logbuffer.Appender
	file      string
	pid       int
	startedAt time.Time
}

func serve(file, configPath, addrOverride string) error {
	logger := newLogger()
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "serve")
	}
	if addrOverride != "" {
		cfg.ListenAddr = addrOverride
	}

	region, closer, err := mmap.MapNewFile(file, totalSize(cfg))
	if err != nil {
		return errors.Wrapf(err, "serve: mapping %s", file)
	}
	defer closer.Close()

	layout, err := sliceRegions(region, cfg)
	if err != nil {
		return errors.Wrap(err, "serve: carving region")
	}

	appenders := make([]*logbuffer.Appender, cfg.TermPartitions)
	for i := range appenders {
		appender, err := logbuffer.NewAppender(layout.terms[i], layout.tails, i*tailSlotLength)
		if err != nil {
			return errors.Wrapf(err, "serve: constructing appender for partition %d", i)
		}
		appenders[i] = appender
	}

	svc := &service{
		logger:    logger,
		manager:   counters.NewManager(layout.metadata, layout.values),
		appenders: appenders,
		file:      file,
		pid:       os.Getpid(),
		startedAt: time.Now(),
	}

	srv := rest.NewSrv(cfg.ListenAddr)
	svc.registerRoutes(srv)

	logger.Info("coordctl serving", zap.String("addr", cfg.ListenAddr), zap.String("file", file))
	return srv.Start()
}

func (s *service) registerRoutes(srv *rest.Srv) {
	srv.Get("/dump", s.dump)
	srv.Get("/version", s.version)
	srv.Get("/pid", s.pidHandler)
	srv.Get("/started", s.started)
	srv.Get("/counters", s.listCounters)
	srv.Get("/counter/{idOrLabel}", s.getCounter)
	srv.Post("/counter", s.allocateCounter)
	srv.Delete("/counter/{id}", s.freeCounter)
	srv.Post("/append", s.appendMessage)
	srv.Get("/term/{partition}/tail", s.termTail)
}

type counterView struct {
	ID     int32  `json:"id"`
	TypeID int32  `json:"type_id"`
	Label  string `json:"label"`
	Value  int64  `json:"value"`
}

func (s *service) collectCounters() []counterView {
	var out []counterView
	s.manager.ForEach(func(id, typeID int32, label string) bool {
		value, err := s.manager.CounterValue(id)
		if err != nil {
			return true
		}
		out = append(out, counterView{ID: id, TypeID: typeID, Label: label, Value: value})
		return true
	})
	return out
}

func (s *service) listCounters(v *rest.Values, res http.ResponseWriter, req *http.Request) error {
	return writeJSON(res, s.collectCounters())
}

type dumpView struct {
	File     string        `json:"file"`
	Version  int32         `json:"version"`
	Pid      int           `json:"pid"`
	Started  int64         `json:"started"`
	Counters []counterView `json:"counters"`
}

func (s *service) dump(v *rest.Values, res http.ResponseWriter, req *http.Request) error {
	return writeJSON(res, dumpView{
		File:     s.file,
		Version:  counters.RecordLayoutVersion,
		Pid:      s.pid,
		Started:  s.startedAt.UnixMilli(),
		Counters: s.collectCounters(),
	})
}

func (s *service) version(v *rest.Values, res http.ResponseWriter, req *http.Request) error {
	return writeJSON(res, counters.RecordLayoutVersion)
}

func (s *service) pidHandler(v *rest.Values, res http.ResponseWriter, req *http.Request) error {
	return writeJSON(res, s.pid)
}

func (s *service) started(v *rest.Values, res http.ResponseWriter, req *http.Request) error {
	return writeJSON(res, s.startedAt.UnixMilli())
}

// getCounter resolves {idOrLabel} as a numeric id first; if it doesn't
// parse as one, it falls back to a linear scan for a matching label.
func (s *service) getCounter(v *rest.Values, res http.ResponseWriter, req *http.Request) error {
	idOrLabel := v.String("idOrLabel")
	if idOrLabel == "" {
		return errors.New("no id or label specified")
	}

	if id, err := strconv.Atoi(idOrLabel); err == nil {
		value, err := s.manager.CounterValue(int32(id))
		if err != nil {
			return err
		}
		return writeJSON(res, value)
	}

	var value int64
	found := false
	s.manager.ForEach(func(id, typeID int32, label string) bool {
		if label != idOrLabel {
			return true
		}
		counterValue, err := s.manager.CounterValue(id)
		if err != nil {
			return true
		}
		value = counterValue
		found = true
		return false
	})
	if !found {
		return errors.Errorf("no counter with label %q found", idOrLabel)
	}
	return writeJSON(res, value)
}

type allocateRequest struct {
	Label  string `json:"label"`
	TypeID int32  `json:"type_id"`
}

func (s *service) allocateCounter(v *rest.Values, res http.ResponseWriter, req *http.Request) error {
	var body allocateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil && err != io.EOF {
		return err
	}

	counter, err := s.manager.Allocate(body.Label, body.TypeID)
	if err != nil {
		return err
	}
	return writeJSON(res, counter.ID())
}

func (s *service) freeCounter(v *rest.Values, res http.ResponseWriter, req *http.Request) error {
	id, err := v.Int("id")
	if err != nil {
		return err
	}
	if err := s.manager.Free(int32(id)); err != nil {
		return err
	}
	res.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *service) appendMessage(v *rest.Values, res http.ResponseWriter, req *http.Request) error {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}

	result, err := s.appenders[0].AppendUnfragmented(logbuffer.DefaultHeaderWriter{}, body, logbuffer.ZeroReservedValue)
	if err != nil {
		return err
	}
	if result.IsEndOfTerm() {
		res.WriteHeader(http.StatusServiceUnavailable)
		return writeJSON(res, "term exhausted; rotation across partitions is not wired into this demo")
	}

	return writeJSON(res, map[string]int32{"term_id": result.TermID(), "offset": result.Offset()})
}

type tailView struct {
	TermID     int32 `json:"term_id"`
	TermOffset int32 `json:"term_offset"`
}

func (s *service) termTail(v *rest.Values, res http.ResponseWriter, req *http.Request) error {
	partition, err := v.Int("partition")
	if err != nil {
		return err
	}
	if partition < 0 || partition >= len(s.appenders) {
		return errors.Errorf("partition %d out of range [0,%d)", partition, len(s.appenders))
	}

	termID, termOffset := s.appenders[partition].Tail()
	return writeJSON(res, tailView{TermID: termID, TermOffset: termOffset})
}

func writeJSON(res http.ResponseWriter, v interface{}) error {
	res.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(res).Encode(v)
}
