package files_test

import (
	"bytes"
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/JaimeStill/strongbox/internal/acl"
	"github.com/JaimeStill/strongbox/internal/blobs"
	"github.com/JaimeStill/strongbox/internal/documents"
	"github.com/JaimeStill/strongbox/internal/events"
	"github.com/JaimeStill/strongbox/internal/files"
	"github.com/JaimeStill/strongbox/internal/translation"
	"github.com/JaimeStill/strongbox/pkg/auth"
	"github.com/JaimeStill/strongbox/pkg/logging"
)

var (
	owner      = auth.Principal{UserID: "alice"}
	stranger   = auth.Principal{UserID: "mallory"}
	createDate = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	docID = uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")
	fileA = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	fileB = uuid.MustParse("22222222-2222-4222-8222-222222222222")
	fileC = uuid.MustParse("33333333-3333-4333-8333-333333333333")
	chain = uuid.MustParse("99999999-9999-4999-8999-999999999999")
)

var fileColumns = []string{
	"id", "document_id", "version_id", "version_number", "sort_order",
	"name", "mime_type", "size", "owner_id", "create_date", "latest",
}

func fileRows(list ...files.File) *sqlmock.Rows {
	rows := sqlmock.NewRows(fileColumns)
	for _, f := range list {
		var doc driver.Value
		if f.DocumentID != nil {
			doc = f.DocumentID.String()
		}
		rows.AddRow(
			f.ID.String(), doc, f.VersionID.String(), f.VersionNumber, f.Order,
			f.Name, f.MimeType, f.Size, f.OwnerID, f.CreateDate, f.Latest,
		)
	}
	return rows
}

func orphan(id uuid.UUID, version int, latest bool) files.File {
	return files.File{
		ID:            id,
		VersionID:     chain,
		VersionNumber: version,
		Name:          "scan.pdf",
		MimeType:      "application/pdf",
		Size:          1024,
		OwnerID:       owner.UserID,
		CreateDate:    createDate,
		Latest:        latest,
	}
}

func attached(id uuid.UUID, order int) files.File {
	f := orphan(id, 0, true)
	f.VersionID = id
	f.DocumentID = &docID
	f.Order = order
	return f
}

type memBlobs struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []blobs.Handle
	fail    map[uuid.UUID]error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{data: map[string][]byte{}, fail: map[uuid.UUID]error{}}
}

func (m *memBlobs) Store(_ context.Context, h blobs.Handle, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[h.Key(blobs.Original)] = data
	return int64(len(data)), nil
}

func (m *memBlobs) Load(_ context.Context, h blobs.Handle) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[h.ID]; err != nil {
		return nil, err
	}
	data, ok := m.data[h.Key(blobs.Original)]
	if !ok {
		return nil, blobs.ErrUnavailable
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBlobs) StoreVariant(_ context.Context, h blobs.Handle, kind blobs.Kind, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[h.Key(kind)] = data
	return nil
}

func (m *memBlobs) LoadVariant(ctx context.Context, h blobs.Handle, kind blobs.Kind) (*blobs.Rendition, error) {
	if kind == blobs.Original {
		body, err := m.Load(ctx, h)
		if err != nil {
			return nil, err
		}
		return &blobs.Rendition{Body: body}, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[h.Key(kind)]
	if !ok {
		return &blobs.Rendition{Body: io.NopCloser(bytes.NewReader(nil)), ContentType: "image/png", Placeholder: true}, nil
	}
	return &blobs.Rendition{Body: io.NopCloser(bytes.NewReader(data)), ContentType: "image/jpeg"}, nil
}

func (m *memBlobs) Delete(_ context.Context, h blobs.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, h)
	delete(m.data, h.Key(blobs.Original))
	for _, k := range blobs.Variants {
		delete(m.data, h.Key(k))
	}
	return nil
}

func (m *memBlobs) has(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[id.String()]
	return ok
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(evts ...events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evts...)
	return nil
}

func (r *recorder) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]events.Kind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}

// grants is an acl.Evaluator keyed by permission and target.
type grants map[acl.Permission][]string

func (g grants) CheckPermission(_ context.Context, _ uuid.UUID, perm acl.Permission, targets []string) (bool, error) {
	for _, allowed := range g[perm] {
		for _, t := range targets {
			if t == allowed {
				return true, nil
			}
		}
	}
	return false, nil
}

type docStore map[uuid.UUID]documents.Document

func (d docStore) Find(_ context.Context, id uuid.UUID) (*documents.Document, error) {
	doc, ok := d[id]
	if !ok {
		return nil, documents.ErrNotFound
	}
	return &doc, nil
}

type fakeTranslator struct {
	err   error
	calls int
	text  string
	from  string
	to    string
}

func (f *fakeTranslator) Document(_ context.Context, text, from, to string) (*translation.Result, error) {
	f.calls++
	f.text, f.from, f.to = text, from, to
	if f.err != nil {
		return nil, f.err
	}
	return &translation.Result{Text: "translated", PDF: []byte("%PDF-1.4 translated"), Pages: 1}, nil
}

type tracker map[uuid.UUID]bool

func (t tracker) Processing(id uuid.UUID) bool { return t[id] }

type fixture struct {
	sys        files.System
	mock       sqlmock.Sqlmock
	blobs      *memBlobs
	events     *recorder
	translator *fakeTranslator
}

func newFixture(t *testing.T, g grants) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})

	fx := &fixture{
		mock:       mock,
		blobs:      newMemBlobs(),
		events:     &recorder{},
		translator: &fakeTranslator{},
	}
	fx.sys = files.New(files.Deps{
		DB:         db,
		Blobs:      fx.blobs,
		Documents:  docStore{docID: {ID: docID, Title: "Quarterly Report", Language: "en"}},
		ACL:        g,
		Events:     fx.events,
		Tracker:    tracker{fileB: true},
		Translator: fx.translator,
	}, discard)
	return fx
}

var (
	errBoom = errors.New("boom")
	discard = logging.Discard()
)

