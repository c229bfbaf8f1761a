package prfaq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/prfaq/internal/stream"
	"github.com/JaimeStill/prfaq/internal/workflow"
	"github.com/JaimeStill/prfaq/pkg/handlers"
	"github.com/JaimeStill/prfaq/pkg/routes"
)

// HeaderWebSearch overrides use_websearch when it holds a boolean.
const HeaderWebSearch = "X-Web-Search"

// Handler provides HTTP endpoints for PR/FAQ runs.
type Handler struct {
	sys    System
	logger *slog.Logger
	cfg    Config
}

// NewHandler creates a Handler with the given system, logger, and limits.
func NewHandler(sys System, logger *slog.Logger, cfg Config) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "prfaq"),
		cfg:    cfg,
	}
}

// Routes returns the route group definition for PR/FAQ endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/prfaq",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/generate", Handler: h.Generate},
			{Method: "POST", Pattern: "/stream", Handler: h.Stream},
			{Method: "POST", Pattern: "/modify", Handler: h.Modify},
			{Method: "POST", Pattern: "/plan", Handler: h.Plan},
			{Method: "POST", Pattern: "/extract", Handler: h.Extract},
		},
	}
}

// Generate runs the pipeline to completion and returns the rendered document.
// The body is either JSON inputs or a multipart form whose "files" are
// extracted into the reference document.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	in, err := h.readInputs(w, r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	result, err := h.sys.Generate(r.Context(), in, nil)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, NewResponse(result))
}

// Stream runs the pipeline and streams its progress as server-sent events:
// a "step" event per progress observation, then one "result" event holding
// the FAQ or one "error" event.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	in, err := h.readInputs(w, r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if err := h.sys.Validate(in); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	done, err := h.track()
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	// A run outlives the server write timeout.
	http.NewResponseController(w).SetWriteDeadline(time.Time{})

	sse, err := stream.NewSSE(w)
	if err != nil {
		done()
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	ctx, cancel := h.runContext(r.Context())
	defer cancel()

	bridge := stream.NewBridge(h.cfg.StreamBuffer)
	go func() {
		defer done()
		h.run(ctx, bridge, in)
	}()

	if err := bridge.Forward(r.Context(), sse.Send); err != nil {
		h.logger.Warn("stream consumer stopped", "error", err)
	}
}

// Modify revises the current document according to the last chat message.
func (h *Handler) Modify(w http.ResponseWriter, r *http.Request) {
	var in workflow.ModifyInputs
	if err := h.decodeJSON(w, r, &in); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	applyWebSearchHeader(r, &in.Inputs)

	result, err := h.sys.Modify(r.Context(), in, nil)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, NewResponse(result))
}

// Plan returns the stages a generation run with these inputs would execute.
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	in, err := h.readInputs(w, r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, PlanResponse{Plan: h.sys.Plan(in)})
}

// Extract returns the text of the uploaded "files" and their combined
// reference document.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)

	if err := h.parseForm(r); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	uploads, err := formUploads(r.MultipartForm)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	result, err := h.sys.Extract(uploads)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// track registers a streamed run with the lifecycle so shutdown waits for
// it. Without a lifecycle the returned function is a no-op.
func (h *Handler) track() (func(), error) {
	if h.cfg.Lifecycle == nil {
		return func() {}, nil
	}
	return h.cfg.Lifecycle.Track()
}

// runContext returns the context a streamed run executes under. By default
// the run ends with the request; ContinueOnDisconnect detaches it.
func (h *Handler) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.cfg.ContinueOnDisconnect {
		return context.WithoutCancel(ctx), func() {}
	}
	return context.WithCancel(ctx)
}

func (h *Handler) run(ctx context.Context, bridge *stream.Bridge, in workflow.Inputs) {
	sink := func(e workflow.ProgressEvent) {
		if err := bridge.Push(e); err != nil {
			h.logger.Debug("progress dropped", "step", e.Step, "error", err)
		}
	}

	result, err := h.sys.Generate(ctx, in, sink)

	if err != nil {
		err = bridge.Fail(err)
	} else {
		err = bridge.Finish(result.FAQ.WithDefaults())
	}

	if err != nil {
		h.logger.Debug("terminal event dropped", "error", err)
	}
}

func (h *Handler) readInputs(w http.ResponseWriter, r *http.Request) (workflow.Inputs, error) {
	var in workflow.Inputs

	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)
		if err := h.readForm(r, &in); err != nil {
			return in, err
		}
	} else if err := h.decodeJSON(w, r, &in); err != nil {
		return in, err
	}

	applyWebSearchHeader(r, &in)
	return in, nil
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if tooLarge(err) {
			return uploadLimitError(h.cfg.MaxUploadSize)
		}
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	return nil
}

func (h *Handler) parseForm(r *http.Request) error {
	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		if tooLarge(err) {
			return uploadLimitError(h.cfg.MaxUploadSize)
		}
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	return nil
}

// readForm fills in from multipart fields. Uploaded files are extracted and
// appended to any reference_doc_content field.
func (h *Handler) readForm(r *http.Request, in *workflow.Inputs) error {
	if err := h.parseForm(r); err != nil {
		return err
	}
	defer r.MultipartForm.RemoveAll()

	values := r.MultipartForm.Value
	in.Topic = r.FormValue("topic")
	in.Problem = r.FormValue("problem")
	in.Solution = r.FormValue("solution")
	in.ChatHistory = values["chat_history"]
	in.WebScrapingLinks = values["web_scraping_links"]
	in.ReferenceDocContent = r.FormValue("reference_doc_content")
	in.UseWebSearch, _ = strconv.ParseBool(r.FormValue("use_websearch"))

	uploads, err := formUploads(r.MultipartForm)
	if err != nil {
		return err
	}
	if len(uploads) == 0 {
		return nil
	}

	extracted, err := h.sys.Extract(uploads)
	if err != nil {
		return err
	}

	if strings.TrimSpace(in.ReferenceDocContent) == "" {
		in.ReferenceDocContent = extracted.ReferenceDocContent
	} else {
		in.ReferenceDocContent += "\n\n" + extracted.ReferenceDocContent
	}
	return nil
}

func formUploads(form *multipart.Form) ([]Upload, error) {
	headers := form.File["files"]
	uploads := make([]Upload, 0, len(headers))

	for _, fh := range headers {
		data, err := readFile(fh)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrInvalidBody, fh.Filename, err)
		}
		uploads = append(uploads, Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	return uploads, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

func applyWebSearchHeader(r *http.Request, in *workflow.Inputs) {
	if v := r.Header.Get(HeaderWebSearch); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			in.UseWebSearch = b
		}
	}
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || errors.Is(err, multipart.ErrMessageTooLarge)
}
