package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/weberc2/dupfinder/pkg/dupes"
	"github.com/weberc2/dupfinder/pkg/fingerprint"
	"github.com/weberc2/dupfinder/pkg/types"
	"gopkg.in/yaml.v2"
)

// Format is an artifact encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. The empty string selects JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", &types.ConfigError{
			Field:  "format",
			Reason: fmt.Sprintf("unsupported format `%s`", s),
		}
	}
}

// Ext is the file extension for the format.
func (f Format) Ext() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

func (f Format) marshal(v interface{}) ([]byte, error) {
	if f == FormatYAML {
		return yaml.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}

func (f Format) unmarshal(data []byte, v interface{}) error {
	if f == FormatYAML {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// EncodeFingerprints renders the map as an object from path to hex
// fingerprint, in map order.
func (f Format) EncodeFingerprints(m *dupes.Map) ([]byte, error) {
	if f != FormatYAML {
		return f.marshal(m)
	}
	doc := make(yaml.MapSlice, 0, m.Len())
	for _, path := range m.Paths() {
		fp, _ := m.Get(path)
		doc = append(doc, yaml.MapItem{
			Key:   dupes.EncodePath(path),
			Value: fp.String(),
		})
	}
	return yaml.Marshal(doc)
}

func (f Format) DecodeFingerprints(data []byte) (*dupes.Map, error) {
	if f != FormatYAML {
		var m dupes.Map
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return &m, nil
	}

	var doc yaml.MapSlice
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	m := dupes.NewMap(len(doc))
	for _, item := range doc {
		key, value, err := stringItem(item)
		if err != nil {
			return nil, err
		}
		path, err := dupes.DecodePath(key)
		if err != nil {
			return nil, err
		}
		fp, err := fingerprint.Parse(value)
		if err != nil {
			return nil, err
		}
		if err := m.Insert(path, fp); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// EncodeDuplicates renders the groups as an object from hex fingerprint to
// a list of paths.
func (f Format) EncodeDuplicates(g *dupes.Groups) ([]byte, error) {
	if f != FormatYAML {
		return f.marshal(g)
	}
	doc := make(yaml.MapSlice, 0, g.Len())
	for _, group := range g.All() {
		paths := make([]string, len(group.Paths))
		for i, path := range group.Paths {
			paths[i] = dupes.EncodePath(path)
		}
		doc = append(doc, yaml.MapItem{
			Key:   group.Fingerprint.String(),
			Value: paths,
		})
	}
	return yaml.Marshal(doc)
}

func (f Format) DecodeDuplicates(data []byte) (*dupes.Groups, error) {
	if f != FormatYAML {
		var g dupes.Groups
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, err
		}
		return &g, nil
	}

	var doc yaml.MapSlice
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	g := dupes.NewGroups()
	for _, item := range doc {
		key, ok := item.Key.(string)
		if !ok {
			return nil, fmt.Errorf("wanted string key; found `%T`", item.Key)
		}
		fp, err := fingerprint.Parse(key)
		if err != nil {
			return nil, err
		}
		paths, ok := item.Value.([]interface{})
		if !ok {
			return nil, fmt.Errorf(
				"group `%s`: wanted list of paths; found `%T`",
				key,
				item.Value,
			)
		}
		for _, path := range paths {
			s, ok := path.(string)
			if !ok {
				return nil, fmt.Errorf(
					"group `%s`: wanted string path; found `%T`",
					key,
					path,
				)
			}
			decoded, err := dupes.DecodePath(s)
			if err != nil {
				return nil, err
			}
			g.Append(fp, decoded)
		}
	}
	return g, nil
}

// summaryDoc is the serialized form of everything in a report except the
// fingerprints and duplicates. Paths go through `dupes.EncodePath`.
type summaryDoc struct {
	ID        uuid.UUID    `json:"id"        yaml:"id"`
	Root      string       `json:"root"      yaml:"root"`
	Algorithm string       `json:"algorithm" yaml:"algorithm"`
	Workers   int          `json:"workers"   yaml:"workers"`
	Started   time.Time    `json:"started"   yaml:"started"`
	Finished  time.Time    `json:"finished"  yaml:"finished"`
	Summary   Summary      `json:"summary"   yaml:"summary"`
	Failures  []failureDoc `json:"failures"  yaml:"failures"`
	Skipped   []failureDoc `json:"skipped"   yaml:"skipped"`
}

type failureDoc struct {
	Path  string `json:"path"  yaml:"path"`
	Error string `json:"error" yaml:"error"`
}

func encodeFailures(failures []Failure) []failureDoc {
	docs := make([]failureDoc, len(failures))
	for i, failure := range failures {
		docs[i] = failureDoc{
			Path:  dupes.EncodePath(failure.Path),
			Error: strings.ToValidUTF8(failure.Error, "\ufffd"),
		}
	}
	return docs
}

func decodeFailures(docs []failureDoc) ([]Failure, error) {
	failures := make([]Failure, len(docs))
	for i, doc := range docs {
		path, err := dupes.DecodePath(doc.Path)
		if err != nil {
			return nil, err
		}
		failures[i] = Failure{Path: path, Error: doc.Error}
	}
	return failures, nil
}

// EncodeSummary renders everything except the fingerprints and duplicates.
func (f Format) EncodeSummary(r *Report) ([]byte, error) {
	return f.marshal(summaryDoc{
		ID:        r.ID,
		Root:      dupes.EncodePath(r.Root),
		Algorithm: r.Algorithm,
		Workers:   r.Workers,
		Started:   r.Started,
		Finished:  r.Finished,
		Summary:   r.Summary,
		Failures:  encodeFailures(r.Failures),
		Skipped:   encodeFailures(r.Skipped),
	})
}

func (f Format) DecodeSummary(data []byte) (*Report, error) {
	var doc summaryDoc
	if err := f.unmarshal(data, &doc); err != nil {
		return nil, err
	}
	root, err := dupes.DecodePath(doc.Root)
	if err != nil {
		return nil, err
	}
	r := Report{
		ID:        doc.ID,
		Root:      root,
		Algorithm: doc.Algorithm,
		Workers:   doc.Workers,
		Started:   doc.Started,
		Finished:  doc.Finished,
		Summary:   doc.Summary,
	}
	if r.Failures, err = decodeFailures(doc.Failures); err != nil {
		return nil, err
	}
	if r.Skipped, err = decodeFailures(doc.Skipped); err != nil {
		return nil, err
	}
	return &r, nil
}

func stringItem(item yaml.MapItem) (string, string, error) {
	key, ok := item.Key.(string)
	if !ok {
		return "", "", fmt.Errorf("wanted string key; found `%T`", item.Key)
	}
	value, ok := item.Value.(string)
	if !ok {
		return "", "", fmt.Errorf(
			"key `%s`: wanted string value; found `%T`",
			key,
			item.Value,
		)
	}
	return key, value, nil
}
