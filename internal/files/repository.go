package files

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/strongbox/internal/acl"
	"github.com/JaimeStill/strongbox/internal/blobs"
	"github.com/JaimeStill/strongbox/internal/documents"
	"github.com/JaimeStill/strongbox/internal/events"
	"github.com/JaimeStill/strongbox/internal/translation"
	"github.com/JaimeStill/strongbox/pkg/auth"
	"github.com/JaimeStill/strongbox/pkg/repository"
)

// Translator renders a translated copy of extracted text.
type Translator interface {
	Document(ctx context.Context, text, from, to string) (*translation.Result, error)
}

// Deps are the collaborators of the file System. Tracker and Translator
// may be nil.
type Deps struct {
	DB         *sql.DB
	Blobs      blobs.System
	Documents  documents.System
	ACL        acl.Evaluator
	Events     events.Publisher
	Tracker    Tracker
	Translator Translator
}

type repo struct {
	db         *sql.DB
	blobs      blobs.System
	docs       documents.System
	acl        acl.Evaluator
	events     events.Publisher
	tracker    Tracker
	translator Translator
	logger     *slog.Logger
}

// New creates a file repository implementing the System interface.
func New(deps Deps, logger *slog.Logger) System {
	return &repo{
		db:         deps.DB,
		blobs:      deps.Blobs,
		docs:       deps.Documents,
		acl:        deps.ACL,
		events:     deps.Events,
		tracker:    deps.Tracker,
		translator: deps.Translator,
		logger:     logger.With("system", "files"),
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, maxUploadSize)
}

// placement is where a new upload lands: its owner, its document (nil for
// orphans) and the version it supersedes (nil for a new chain).
type placement struct {
	owner    string
	document *documents.Document
	previous *File
}

func (r *repo) Create(ctx context.Context, p auth.Principal, cmd CreateCommand) (*File, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}

	name, err := ValidateName(cmd.Name, false)
	if err != nil {
		return nil, err
	}

	pl, err := r.place(ctx, p, cmd)
	if err != nil {
		return nil, err
	}

	f := &File{
		ID:        uuid.New(),
		VersionID: uuid.New(),
		Name:      name,
		MimeType:  cmd.MimeType,
		OwnerID:   pl.owner,
		Latest:    true,
	}

	size, err := r.blobs.Store(ctx, f.Handle(), cmd.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStream, err)
	}
	f.Size = size

	_, err = repository.WithUnit(ctx, r.db, func(u *repository.Unit) (struct{}, error) {
		return struct{}{}, r.insert(ctx, u, p, f, pl)
	})
	if err != nil {
		r.discard(ctx, f)
		return nil, mapWriteError(err)
	}

	r.logger.Info("file created", "id", f.ID, "version", f.VersionNumber, "size", f.Size)
	return f, nil
}

func (r *repo) place(ctx context.Context, p auth.Principal, cmd CreateCommand) (placement, error) {
	if cmd.PreviousFileID != nil {
		prev, err := r.load(ctx, p, *cmd.PreviousFileID, acl.Write)
		if err != nil {
			return placement{}, err
		}
		if !prev.Latest {
			return placement{}, fmt.Errorf("%w: %s is not the current version", ErrIllegalFile, prev.ID)
		}

		pl := placement{owner: prev.OwnerID, previous: prev}
		if !prev.Orphan() {
			doc, err := r.document(ctx, p, *prev.DocumentID, acl.Write)
			if err != nil {
				return placement{}, err
			}
			pl.document = doc
		}
		return pl, nil
	}

	if cmd.DocumentID != nil {
		doc, err := r.document(ctx, p, *cmd.DocumentID, acl.Write)
		if err != nil {
			return placement{}, err
		}
		return placement{owner: p.UserID, document: doc}, nil
	}

	return placement{owner: p.UserID}, nil
}

func (r *repo) insert(ctx context.Context, u *repository.Unit, p auth.Principal, f *File, pl placement) error {
	tx := u.Tx()

	if err := reserveQuota(ctx, tx, f.OwnerID, f.Size); err != nil {
		return err
	}

	switch {
	case pl.previous != nil:
		prev, err := findFile(ctx, tx, pl.previous.ID, true)
		if err != nil {
			return err
		}
		if !prev.Latest {
			return fmt.Errorf("%w: %s was superseded", ErrIllegalFile, prev.ID)
		}
		*f = NextVersion(prev, *f)
		if err := setLatest(ctx, tx, prev.ID, false); err != nil {
			return err
		}
	case pl.document != nil:
		if err := lockDocument(ctx, tx, pl.document.ID); err != nil {
			return err
		}
		n, err := nextOrder(ctx, tx, pl.document.ID)
		if err != nil {
			return err
		}
		f.DocumentID = &pl.document.ID
		f.Order = n
	}

	if err := insertFile(ctx, tx, f); err != nil {
		return err
	}

	var language string
	if pl.document != nil {
		language = pl.document.Language
	}
	r.changed(u, p, f, language)
	return nil
}

func (r *repo) Attach(ctx context.Context, p auth.Principal, id, documentID uuid.UUID) error {
	if err := requireUser(p); err != nil {
		return err
	}

	f, err := findFile(ctx, r.db, id, false)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrIllegalFile)
	}
	if !f.Orphan() {
		return fmt.Errorf("%w: file %s is not orphan", ErrIllegalFile, id)
	}
	if f.OwnerID != p.UserID {
		return ErrNotFound
	}

	doc, err := r.document(ctx, p, documentID, acl.Write)
	if err != nil {
		return err
	}

	_, err = repository.WithUnit(ctx, r.db, func(u *repository.Unit) (struct{}, error) {
		tx := u.Tx()
		if err := lockDocument(ctx, tx, doc.ID); err != nil {
			return struct{}{}, err
		}

		cur, err := findFile(ctx, tx, id, true)
		if err != nil {
			return struct{}{}, err
		}
		if !cur.Orphan() {
			return struct{}{}, fmt.Errorf("%w: file %s is not orphan", ErrIllegalFile, id)
		}

		order, err := nextOrder(ctx, tx, doc.ID)
		if err != nil {
			return struct{}{}, err
		}
		if err := attachChain(ctx, tx, cur.VersionID, doc.ID, order); err != nil {
			return struct{}{}, err
		}

		cur.DocumentID = &doc.ID
		cur.Order = order
		r.changed(u, p, &cur, doc.Language)
		return struct{}{}, nil
	})
	if err != nil {
		return mapWriteError(err)
	}

	r.logger.Info("file attached", "id", id, "document_id", doc.ID)
	return nil
}

func (r *repo) Rename(ctx context.Context, p auth.Principal, id uuid.UUID, name string) error {
	if err := requireUser(p); err != nil {
		return err
	}

	f, err := r.load(ctx, p, id, acl.Write)
	if err != nil {
		return err
	}

	name, err = ValidateName(name, true)
	if err != nil {
		return err
	}

	if err := setName(ctx, r.db, f.ID, name); err != nil {
		return repository.MapError(err, ErrNotFound, ErrIllegalFile)
	}
	return nil
}

func (r *repo) Process(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if err := requireUser(p); err != nil {
		return err
	}

	f, err := findFile(ctx, r.db, id, false)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrIllegalFile)
	}
	if f.Orphan() {
		return ErrNotFound
	}

	doc, err := r.document(ctx, p, *f.DocumentID, acl.Write)
	if err != nil {
		return err
	}

	if err := r.publish(events.Event{
		Kind:       events.FileChanged,
		UserID:     p.UserID,
		OwnerID:    f.OwnerID,
		FileID:     f.ID,
		DocumentID: doc.ID,
		Language:   doc.Language,
	}); err != nil {
		return err
	}

	r.logger.Info("file reprocessing requested", "id", id)
	return nil
}

func (r *repo) Reorder(ctx context.Context, p auth.Principal, documentID uuid.UUID, ids []uuid.UUID) error {
	if err := requireUser(p); err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: order is required", ErrValidation)
	}
	if err := r.authorizeDocument(ctx, p, documentID, acl.Write); err != nil {
		return err
	}

	_, err := repository.WithUnit(ctx, r.db, func(u *repository.Unit) (struct{}, error) {
		tx := u.Tx()
		if err := lockDocument(ctx, tx, documentID); err != nil {
			return struct{}{}, err
		}

		active, err := listActive(ctx, tx, documentID)
		if err != nil {
			return struct{}{}, err
		}

		plan := ReorderPlan(active, ids)
		for _, f := range active {
			order, ok := plan[f.ID]
			if !ok || order == f.Order {
				continue
			}
			if err := setOrder(ctx, tx, f.ID, order); err != nil {
				return struct{}{}, err
			}
		}

		events.Attach(u, r.events, r.logger).Add(events.Event{
			Kind:       events.DocumentChanged,
			UserID:     p.UserID,
			DocumentID: documentID,
		})
		return struct{}{}, nil
	})
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if err := requireUser(p); err != nil {
		return err
	}

	f, err := r.load(ctx, p, id, acl.Write)
	if err != nil {
		return err
	}
	if !f.Latest {
		return fmt.Errorf("%w: only the current version can be deleted", ErrIllegalFile)
	}

	_, err = repository.WithUnit(ctx, r.db, func(u *repository.Unit) (struct{}, error) {
		tx := u.Tx()

		cur, err := findFile(ctx, tx, id, true)
		if err != nil {
			return struct{}{}, err
		}
		if !cur.Latest {
			return struct{}{}, fmt.Errorf("%w: only the current version can be deleted", ErrIllegalFile)
		}

		if err := deleteFile(ctx, tx, cur.ID); err != nil {
			return struct{}{}, err
		}

		if cur.VersionNumber > 0 {
			prev, err := findVersion(ctx, tx, cur.VersionID, cur.VersionNumber-1)
			if err != nil {
				return struct{}{}, fmt.Errorf("promote version %d: %w", cur.VersionNumber-1, err)
			}
			if err := setLatest(ctx, tx, prev.ID, true); err != nil {
				return struct{}{}, err
			}
		}

		outbox := events.Attach(u, r.events, r.logger)
		outbox.Add(events.Event{
			Kind:       events.FileDeleted,
			UserID:     p.UserID,
			OwnerID:    cur.OwnerID,
			FileID:     cur.ID,
			DocumentID: documentOf(&cur),
			FreedBytes: cur.Size,
		})
		if !cur.Orphan() {
			outbox.Add(events.Event{
				Kind:       events.DocumentChanged,
				UserID:     p.UserID,
				DocumentID: *cur.DocumentID,
			})
		}
		return struct{}{}, nil
	})
	if err != nil {
		return mapWriteError(err)
	}

	if err := r.blobs.Delete(ctx, f.Handle()); err != nil {
		r.logger.Warn("blob delete failed after record delete", "id", id, "error", err)
	}

	r.logger.Info("file deleted", "id", id, "freed_bytes", f.Size)
	return nil
}

// changed queues the events of a new or re-attached file on the unit.
func (r *repo) changed(u *repository.Unit, p auth.Principal, f *File, language string) {
	outbox := events.Attach(u, r.events, r.logger)
	outbox.Add(events.Event{
		Kind:       events.FileChanged,
		UserID:     p.UserID,
		OwnerID:    f.OwnerID,
		FileID:     f.ID,
		DocumentID: documentOf(f),
		Language:   language,
	})
	if !f.Orphan() {
		outbox.Add(events.Event{
			Kind:       events.DocumentChanged,
			UserID:     p.UserID,
			DocumentID: *f.DocumentID,
		})
	}
}

// publish sends events that accompany no database change.
func (r *repo) publish(evts ...events.Event) error {
	if err := r.events.Publish(evts...); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// discard removes blobs written for a unit of work that did not commit.
func (r *repo) discard(ctx context.Context, f *File) {
	if err := r.blobs.Delete(context.WithoutCancel(ctx), f.Handle()); err != nil {
		r.logger.Warn("compensating blob delete failed", "id", f.ID, "error", err)
	}
}

func documentOf(f *File) uuid.UUID {
	if f.DocumentID == nil {
		return uuid.Nil
	}
	return *f.DocumentID
}

func mapWriteError(err error) error {
	return repository.MapError(err, ErrNotFound, ErrIllegalFile)
}
