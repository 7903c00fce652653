package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/weberc2/dupfinder/pkg/dupes"
	"github.com/weberc2/dupfinder/pkg/notify"
	"github.com/weberc2/dupfinder/pkg/report"
	"github.com/weberc2/dupfinder/pkg/types"
	"github.com/weberc2/dupfinder/pkg/walk"
)

// Scanner runs one scan of a directory tree: enumerate, fingerprint, group,
// report.
type Scanner struct {
	Config   *Config
	Store    report.Store
	Log      logrus.FieldLogger
	Notifier notify.Notifier
	TimeFunc func() time.Time

	// Enumerate lists the files beneath a root. Defaults to a `walk.Walker`
	// honoring `Config.Ignore`.
	Enumerate func(root string) ([]types.File, []*types.ReadError)
}

func (s *Scanner) enumerate(root string) ([]types.File, []*types.ReadError) {
	if s.Enumerate != nil {
		return s.Enumerate(root)
	}
	walker := walk.Walker{Root: root, Ignore: s.Config.Ignore}
	return walker.Files()
}

func (s *Scanner) Scan(ctx context.Context, root string) (*report.Report, error) {
	fingerprinter, err := s.Config.Fingerprinter()
	if err != nil {
		return nil, err
	}

	log := s.Log.WithField("root", root)
	s.Notifier.ScanningRoot(root)
	files, skipped := s.enumerate(root)
	for _, err := range skipped {
		log.WithError(err).Warn("skipping entry")
		s.Notifier.EnumerationError(err)
	}
	var bytes int64
	for _, file := range files {
		bytes += file.Size
	}
	log.WithFields(logrus.Fields{
		"files": len(files),
		"bytes": bytes,
	}).Info("enumerated files")
	s.Notifier.Enumerated(len(files), bytes)

	engine := dupes.Engine{
		Workers:          s.Config.Workers,
		Fingerprinter:    fingerprinter,
		Policy:           s.Config.Policy(),
		Log:              log,
		OnPartition:      s.Notifier.Partitioned,
		Progress:         s.Notifier.Progress,
		ProgressInterval: s.Config.ProgressInterval,
	}
	started := s.TimeFunc()
	result, err := engine.Run(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("scanning `%s`: %w", root, err)
	}

	r := report.New(report.Run{
		ID:        uuid.New(),
		Root:      root,
		Algorithm: string(fingerprinter.Algorithm),
		Workers:   s.Config.Workers,
		Started:   started.UTC(),
		Finished:  s.TimeFunc().UTC(),
		Skipped:   skipped,
	}, result)

	s.Notifier.Failures(r.Failures)
	s.Notifier.Duplicates(result.Groups, result.Size)

	if s.Store != nil {
		if err := s.Store.Put(r); err != nil {
			return nil, fmt.Errorf("storing report `%s`: %w", r.ID, err)
		}
		log.WithField("id", r.ID).Info("stored report")
		s.Notifier.Stored(r.ID, s.Config.StoreName())
	}

	s.Notifier.Summary(r.Summary)
	return r, nil
}
