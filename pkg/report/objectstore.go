package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/weberc2/dupfinder/pkg/types"
)

// ObjectReportStore writes each report as three objects:
//
//	<prefix>/runs/<id>/summary.<ext>
//	<prefix>/runs/<id>/hashes.<ext>
//	<prefix>/runs/<id>/duplicates.<ext>
//
// plus an empty index object at `<prefix>/roots/<root-slug>/<id>` so the
// runs for a given root can be listed.
type ObjectReportStore struct {
	ObjectStore types.ObjectStore
	Bucket      string
	Prefix      string
	Format      Format
}

func (ors *ObjectReportStore) format() Format {
	if ors.Format == "" {
		return FormatJSON
	}
	return ors.Format
}

func (ors *ObjectReportStore) key(parts ...string) string {
	return path.Join(append([]string{ors.Prefix}, parts...)...)
}

func (ors *ObjectReportStore) artifactKey(id uuid.UUID, name string) string {
	return ors.key("runs", id.String(), name+"."+ors.format().Ext())
}

func (ors *ObjectReportStore) putObject(key string, data []byte) error {
	if err := ors.ObjectStore.PutObject(
		ors.Bucket,
		key,
		bytes.NewReader(data),
	); err != nil {
		return fmt.Errorf("putting object: %w", err)
	}
	return nil
}

func (ors *ObjectReportStore) getObject(key string) ([]byte, error) {
	body, err := ors.ObjectStore.GetObject(ors.Bucket, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading object body: %w", err)
	}
	return data, nil
}

// RootSlug is the index name used for a scanned root.
func RootSlug(root string) string {
	if s := slug.Make(root); s != "" {
		return s
	}
	return "root"
}

// Put writes the artifacts first and the summary last, so a run only shows
// up in `List` once all of its artifacts exist.
func (ors *ObjectReportStore) Put(r *Report) error {
	f := ors.format()

	hashes, err := f.EncodeFingerprints(r.Fingerprints)
	if err != nil {
		return fmt.Errorf("encoding fingerprints: %w", err)
	}
	if err := ors.putObject(ors.artifactKey(r.ID, "hashes"), hashes); err != nil {
		return fmt.Errorf("putting fingerprints for run `%s`: %w", r.ID, err)
	}

	duplicates, err := f.EncodeDuplicates(r.Duplicates)
	if err != nil {
		return fmt.Errorf("encoding duplicates: %w", err)
	}
	if err := ors.putObject(
		ors.artifactKey(r.ID, "duplicates"),
		duplicates,
	); err != nil {
		return fmt.Errorf("putting duplicates for run `%s`: %w", r.ID, err)
	}

	if err := ors.putObject(
		ors.key("roots", RootSlug(r.Root), r.ID.String()),
		nil,
	); err != nil {
		return fmt.Errorf("putting root index for run `%s`: %w", r.ID, err)
	}

	summary, err := f.EncodeSummary(r)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	if err := ors.putObject(ors.artifactKey(r.ID, "summary"), summary); err != nil {
		return fmt.Errorf("putting summary for run `%s`: %w", r.ID, err)
	}
	return nil
}

func (ors *ObjectReportStore) Get(id uuid.UUID) (*Report, error) {
	f := ors.format()

	data, err := ors.getObject(ors.artifactKey(id, "summary"))
	if err != nil {
		var e *types.ObjectNotFoundErr
		if errors.As(err, &e) {
			return nil, fmt.Errorf("getting report: %w", &NotFoundErr{ID: id})
		}
		return nil, fmt.Errorf("getting report `%s`: %w", id, err)
	}
	r, err := f.DecodeSummary(data)
	if err != nil {
		return nil, fmt.Errorf("decoding summary for run `%s`: %w", id, err)
	}

	if data, err = ors.getObject(ors.artifactKey(id, "hashes")); err != nil {
		return nil, fmt.Errorf("getting fingerprints for run `%s`: %w", id, err)
	}
	if r.Fingerprints, err = f.DecodeFingerprints(data); err != nil {
		return nil, fmt.Errorf("decoding fingerprints for run `%s`: %w", id, err)
	}

	if data, err = ors.getObject(ors.artifactKey(id, "duplicates")); err != nil {
		return nil, fmt.Errorf("getting duplicates for run `%s`: %w", id, err)
	}
	if r.Duplicates, err = f.DecodeDuplicates(data); err != nil {
		return nil, fmt.Errorf("decoding duplicates for run `%s`: %w", id, err)
	}

	return r, nil
}

// List returns the IDs of all complete runs, sorted.
func (ors *ObjectReportStore) List() ([]uuid.UUID, error) {
	prefix := ors.key("runs") + "/"
	keys, err := ors.ObjectStore.ListObjects(ors.Bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}

	summary := "/summary." + ors.format().Ext()
	var ids []uuid.UUID
	for _, key := range keys {
		if !strings.HasSuffix(key, summary) {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(
			strings.TrimPrefix(key, prefix),
			summary,
		))
		if err != nil {
			return nil, fmt.Errorf("parsing run id from key `%s`: %w", key, err)
		}
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids, nil
}

// ListRoot returns the IDs of the runs recorded for `root`, sorted.
func (ors *ObjectReportStore) ListRoot(root string) ([]uuid.UUID, error) {
	prefix := ors.key("roots", RootSlug(root)) + "/"
	keys, err := ors.ObjectStore.ListObjects(ors.Bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(keys))
	for _, key := range keys {
		id, err := uuid.Parse(path.Base(key))
		if err != nil {
			return nil, fmt.Errorf("parsing run id from key `%s`: %w", key, err)
		}
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids, nil
}

var _ Store = &ObjectReportStore{}
