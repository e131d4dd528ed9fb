// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/DpunktS/seplos-v3-sniffer/pkg/seplos"
)

// MetricSink receives decoded metric batches and the bus link state. Sinks
// are the external-system boundary: the pipeline does not care where records
// go.
type MetricSink interface {
	Publish(batch []seplos.Metric) error
	SetLinkAlive(alive bool) error
	Close() error
}

// consoleSink prints metric batches to stdout in human-readable form
type consoleSink struct{}

func (consoleSink) Publish(batch []seplos.Metric) error {
	for _, m := range batch {
		fmt.Printf("%s %s\n", m.Key(), seplos.FormatMetric(m))
	}
	return nil
}

func (consoleSink) SetLinkAlive(alive bool) error {
	if alive {
		fmt.Println("link: alive")
	} else {
		fmt.Println("link: dead")
	}
	return nil
}

func (consoleSink) Close() error { return nil }

// jsonlRecord is one emitted line of the jsonl sink
type jsonlRecord struct {
	Time   string   `json:"time"`
	Key    string   `json:"key"`
	Device int      `json:"device"`
	Name   string   `json:"name"`
	Value  *float64 `json:"value,omitempty"`
	Text   *string  `json:"text,omitempty"`
	Unit   string   `json:"unit,omitempty"`
	Role   string   `json:"role"`
}

// jsonlSink appends one JSON object per metric to a file
type jsonlSink struct {
	f   *os.File
	enc *json.Encoder
}

func newJSONLSink(path string) (*jsonlSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output %s: %w", path, err)
	}
	return &jsonlSink{f: f, enc: json.NewEncoder(f)}, nil
}

func (s *jsonlSink) Publish(batch []seplos.Metric) error {
	now := time.Now().Format(time.RFC3339Nano)
	for _, m := range batch {
		rec := jsonlRecord{
			Time:   now,
			Key:    m.Key(),
			Device: m.Device,
			Name:   m.Name,
			Unit:   m.Unit,
			Role:   m.Role.String(),
		}
		if m.Kind == seplos.KindNumber {
			v := m.Value
			rec.Value = &v
		} else {
			t := m.Text
			rec.Text = &t
		}
		if err := s.enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *jsonlSink) SetLinkAlive(alive bool) error {
	return s.enc.Encode(map[string]interface{}{
		"time": time.Now().Format(time.RFC3339Nano),
		"key":  "info.connection",
		"link": alive,
	})
}

func (s *jsonlSink) Close() error {
	return s.f.Close()
}

// newSink builds the sink selected by the config
func newSink(cfg *Config) (MetricSink, error) {
	switch cfg.Monitor.Sink {
	case "jsonl":
		return newJSONLSink(cfg.Monitor.Output)
	default:
		return consoleSink{}, nil
	}
}
