package files

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/strongbox/internal/archive"
	"github.com/JaimeStill/strongbox/internal/blobs"
	"github.com/JaimeStill/strongbox/pkg/auth"
	"github.com/JaimeStill/strongbox/pkg/handlers"
	"github.com/JaimeStill/strongbox/pkg/middleware"
	"github.com/JaimeStill/strongbox/pkg/routes"
)

const (
	statusOK = "ok"

	// multipartMemory is the part of a multipart upload kept in memory;
	// the rest spools to temporary files.
	multipartMemory = 32 << 20

	cacheLifetime = 365 * 24 * time.Hour
)

// StatusResponse acknowledges a mutation.
type StatusResponse struct {
	Status string `json:"status"`
}

// CreateResponse reports a stored upload.
type CreateResponse struct {
	Status string    `json:"status"`
	ID     uuid.UUID `json:"id"`
	Size   int64     `json:"size"`
}

// ListResponse wraps file listings.
type ListResponse struct {
	Files []File `json:"files"`
}

// TranslateRequest is the JSON body of a translation request.
type TranslateRequest struct {
	To string `json:"to"`
}

// TranslateResponse reports the translated file.
type TranslateResponse struct {
	Status string    `json:"status"`
	ID     uuid.UUID `json:"id"`
}

// Handler provides HTTP endpoints for file operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, logger, and upload size limit.
func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "files"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for file endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/files",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/list", Handler: h.List},
			{Method: "GET", Pattern: "/zip", Handler: h.ZipDocument},
			{Method: "POST", Pattern: "/zip", Handler: h.ZipFiles},
			{Method: "POST", Pattern: "/reorder", Handler: h.Reorder},
			{Method: "POST", Pattern: "/{id}", Handler: h.Rename},
			{Method: "POST", Pattern: "/{id}/attach", Handler: h.Attach},
			{Method: "POST", Pattern: "/{id}/process", Handler: h.Process},
			{Method: "POST", Pattern: "/{id}/translate", Handler: h.Translate},
			{Method: "GET", Pattern: "/{id}/versions", Handler: h.Versions},
			{Method: "GET", Pattern: "/{id}/data", Handler: h.Data},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
		Children: []routes.Group{
			{
				Middleware: []func(http.Handler) http.Handler{middleware.MaxBytes(h.maxUploadSize)},
				Routes: []routes.Route{
					{Method: "PUT", Pattern: "", Handler: h.Create},
				},
			},
		},
	}
}

// Create stores a multipart upload: part "file" with optional "id"
// (document) and "previousFileId" fields.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if tooLarge(err) {
			h.fail(w, fmt.Errorf("%w: %w", ErrFileTooLarge, err))
		} else {
			h.fail(w, fmt.Errorf("%w: %w", ErrValidation, err))
		}
		return
	}
	defer r.MultipartForm.RemoveAll()

	cmd := CreateCommand{}

	var err error
	if cmd.DocumentID, err = optionalID(r.FormValue("id")); err != nil {
		h.fail(w, err)
		return
	}
	if cmd.PreviousFileID, err = optionalID(r.FormValue("previousFileId")); err != nil {
		h.fail(w, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, fmt.Errorf("%w: %w", ErrValidation, err))
		return
	}
	defer file.Close()

	body := bufio.NewReader(file)
	cmd.Name = header.Filename
	cmd.MimeType = detectContentType(header.Header.Get("Content-Type"), body)
	cmd.Body = body

	f, err := h.sys.Create(r.Context(), auth.FromContext(r.Context()), cmd)
	if err != nil {
		if tooLarge(err) {
			err = fmt.Errorf("%w: %w", ErrFileTooLarge, err)
		}
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, CreateResponse{Status: statusOK, ID: f.ID, Size: f.Size})
}

// Attach moves an orphan file onto the document in form field "id".
func (h *Handler) Attach(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	raw := r.FormValue("id")
	if raw == "" {
		h.fail(w, fmt.Errorf("%w: id is required", ErrValidation))
		return
	}
	documentID, err := uuid.Parse(raw)
	if err != nil {
		h.fail(w, ErrNotFound)
		return
	}

	if err := h.sys.Attach(r.Context(), auth.FromContext(r.Context()), id, documentID); err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, StatusResponse{Status: statusOK})
}

// Rename updates a file's name from form field "name".
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.sys.Rename(r.Context(), auth.FromContext(r.Context()), id, r.FormValue("name")); err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, StatusResponse{Status: statusOK})
}

// Process re-emits the change event of an attached file.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.sys.Process(r.Context(), auth.FromContext(r.Context()), id); err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, StatusResponse{Status: statusOK})
}

// Reorder sets the order of a document's files from form fields "id"
// (document) and repeated "order" (file ids).
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, fmt.Errorf("%w: %w", ErrValidation, err))
		return
	}

	raw := r.PostForm.Get("id")
	if raw == "" {
		h.fail(w, fmt.Errorf("%w: id is required", ErrValidation))
		return
	}
	documentID, err := uuid.Parse(raw)
	if err != nil {
		h.fail(w, ErrNotFound)
		return
	}

	ids, err := parseIDs(r.PostForm["order"], ErrValidation)
	if err != nil {
		h.fail(w, err)
		return
	}

	if err := h.sys.Reorder(r.Context(), auth.FromContext(r.Context()), documentID, ids); err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, StatusResponse{Status: statusOK})
}

// List returns the current files of the document in query parameter "id",
// or the caller's orphan files when it is absent.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	documentID, err := optionalID(r.URL.Query().Get("id"))
	if err != nil {
		h.fail(w, err)
		return
	}

	list, err := h.sys.ListByDocument(r.Context(), auth.FromContext(r.Context()), documentID)
	if err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, ListResponse{Files: list})
}

// Versions returns every version of a file's chain, oldest first.
func (h *Handler) Versions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	list, err := h.sys.ListVersions(r.Context(), auth.FromContext(r.Context()), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, ListResponse{Files: list})
}

// Data streams a file or one of its renditions selected by query
// parameter "size" (web, thumb or content).
func (h *Handler) Data(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	kind, err := blobs.ParseKind(r.URL.Query().Get("size"))
	if err != nil {
		h.fail(w, fmt.Errorf("%w: %w", ErrSize, err))
		return
	}

	data, err := h.sys.Data(r.Context(), auth.FromContext(r.Context()), id, kind)
	if err != nil {
		h.fail(w, err)
		return
	}
	defer data.Rendition.Body.Close()

	contentType := data.Rendition.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := w.Header()
	header.Set("Content-Type", contentType)
	handlers.SetAttachment(w, "inline", archive.DisplayName(data.File.Name, "data", data.File.MimeType))
	if data.Rendition.Placeholder {
		header.Set("Cache-Control", "no-store, must-revalidate")
		header.Set("Expires", "0")
	} else {
		header.Set("Cache-Control", "private")
		header.Set("Expires", time.Now().Add(cacheLifetime).UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, data.Rendition.Body); err != nil {
		h.logger.Error("file stream aborted", "id", id, "error", err)
		panic(http.ErrAbortHandler)
	}
}

// ZipDocument streams the current files of the document in query
// parameter "id" as a zip archive.
func (h *Handler) ZipDocument(w http.ResponseWriter, r *http.Request) {
	documentID, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		h.fail(w, ErrNotFound)
		return
	}

	export, err := h.sys.ExportDocument(r.Context(), auth.FromContext(r.Context()), documentID)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.streamZip(w, r, export)
}

// ZipFiles streams the files listed in repeated form field "files" as a
// zip archive.
func (h *Handler) ZipFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, fmt.Errorf("%w: %w", ErrValidation, err))
		return
	}

	ids, err := parseIDs(r.PostForm["files"], ErrNotFound)
	if err != nil {
		h.fail(w, err)
		return
	}

	export, err := h.sys.ExportFiles(r.Context(), auth.FromContext(r.Context()), ids)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.streamZip(w, r, export)
}

// Translate creates a translated PDF copy of a file on the same document.
// The target language comes from a JSON body {"to": ...} or form field "to".
func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	to, err := targetLanguage(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	f, err := h.sys.Translate(r.Context(), auth.FromContext(r.Context()), id, to)
	if err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, TranslateResponse{Status: statusOK, ID: f.ID})
}

// Delete removes the current version of a file.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), auth.FromContext(r.Context()), id); err != nil {
		h.fail(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, StatusResponse{Status: statusOK})
}

// streamZip writes the archive. Failures before the first byte are answered
// normally; later failures abort the connection so the client never sees a
// well-formed truncated archive.
func (h *Handler) streamZip(w http.ResponseWriter, r *http.Request, export *Export) {
	w.Header().Set("Content-Type", "application/zip")
	handlers.SetAttachment(w, "attachment", export.Name+".zip")

	tw := &trackingWriter{w: w}
	if err := archive.Stream(r.Context(), tw, export.Entries); err != nil {
		if tw.n == 0 {
			w.Header().Del("Content-Disposition")
			h.fail(w, err)
			return
		}
		h.logger.Error("zip stream aborted", "name", export.Name, "written", tw.n, "error", err)
		panic(http.ErrAbortHandler)
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	handlers.RespondErrorType(w, h.logger, MapHTTPStatus(err), ErrorType(err), err)
}

// pathID parses the {id} path value. Malformed ids are reported as not found.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.fail(w, ErrNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func optionalID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrNotFound
	}
	return &id, nil
}

func parseIDs(raw []string, invalid error) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", invalid, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func targetLanguage(r *http.Request) (string, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" {
		var req TranslateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return req.To, nil
	}
	return r.FormValue("to"), nil
}

// detectContentType prefers the declared part type and sniffs the first
// bytes otherwise.
func detectContentType(declared string, body *bufio.Reader) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	head, _ := body.Peek(512)
	return http.DetectContentType(head)
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

type trackingWriter struct {
	w io.Writer
	n int64
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	t.n += int64(n)
	return n, err
}
