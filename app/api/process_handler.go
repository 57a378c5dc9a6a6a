package api

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"pdfcrop/archive"
	"pdfcrop/processor"
	"pdfcrop/store"
	"pdfcrop/types"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	ArchiveName = "processed_output.zip"
	PreviewName = "preview.pdf"
)

type ProcessHandler struct {
	processor processor.PDFProcessor
	jobStore  store.JobStorer
	archiver  archive.Archiver
	logger    *slog.Logger
}

// NewProcessHandler wires the crop pipeline. archiver may be nil.
func NewProcessHandler(p processor.PDFProcessor, jobStore store.JobStorer, archiver archive.Archiver) *ProcessHandler {
	return &ProcessHandler{
		processor: p,
		jobStore:  jobStore,
		archiver:  archiver,
		logger:    slog.Default(),
	}
}

// HandleProcessPDF crops the uploaded PDF and replies with a zip holding the
// cropped document and its extracted sections.
func (h *ProcessHandler) HandleProcessPDF(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrMissingFile()
	}

	params, opts, err := parseCropForm(c)
	if err != nil {
		return err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	job := newJob(fileHeader.Filename, params)
	logCtx := h.logger.With("jobId", job.ID, "filename", job.Filename, "topCm", job.TopCm, "bottomCm", job.BottomCm, "layout", opts.Layout)
	logCtx.Info("processing PDF")

	ctx := c.UserContext()
	result, err := h.processor.Process(ctx, file, opts)
	if err != nil {
		logCtx.Error("failed to process PDF", "error", err)
		job.Status = types.JobFailed
		job.Error = err.Error()
		h.saveJob(ctx, job)
		return ErrUnprocessable("failed to process PDF: " + err.Error())
	}

	job.Status = types.JobDone
	job.Sections = result.Sections
	h.saveJob(ctx, job)
	h.archive(ctx, job, result.Archive)

	c.Set("X-Job-ID", job.ID.String())
	setMarginHeaders(c, result.Margins)
	c.Attachment(ArchiveName)
	c.Set(fiber.HeaderContentType, "application/zip")
	return c.Send(result.Archive)
}

// HandlePreview crops the uploaded PDF and replies with a single page of
// the result, chosen by the optional page form field.
func (h *ProcessHandler) HandlePreview(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrMissingFile()
	}

	_, opts, err := parseCropForm(c)
	if err != nil {
		return err
	}

	page := 0
	if v := c.FormValue("page"); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil || page < 1 {
			return NewValidationError(map[string]string{"Page": "must be a positive integer"})
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := h.processor.Preview(c.UserContext(), file, opts.Margins, page)
	if err != nil {
		h.logger.Error("failed to preview PDF", "filename", fileHeader.Filename, "error", err)
		return ErrUnprocessable("failed to preview PDF: " + err.Error())
	}

	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+PreviewName+`"`)
	c.Set(fiber.HeaderContentType, "application/pdf")
	return c.Send(data)
}

// HandleProcessBatch processes every uploaded files entry with the same
// margins and replies with one zip holding a directory per input file.
func (h *ProcessHandler) HandleProcessBatch(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return ErrBadRequest()
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return ErrMissingFile()
	}

	params, opts, err := parseCropForm(c)
	if err != nil {
		return err
	}

	sources := make([]processor.Source, len(headers))
	for i, fh := range headers {
		sources[i] = processor.Source{
			Filename: fh.Filename,
			Open:     openPart(fh),
		}
	}

	h.logger.Info("processing batch", "files", len(sources), "topCm", params.TopCm, "bottomCm", params.BottomCm)

	ctx := c.UserContext()
	batch, err := processor.ProcessBatch(ctx, h.processor, sources, opts)
	if err != nil {
		h.logger.Error("failed to process batch", "error", err)
		return ErrUnprocessable("failed to process batch: " + err.Error())
	}

	ids := make([]string, len(sources))
	for i, src := range sources {
		job := newJob(src.Filename, params)
		job.Status = types.JobDone
		job.Sections = batch.Results[i].Sections
		h.saveJob(ctx, job)
		h.archive(ctx, job, batch.Results[i].Archive)
		ids[i] = job.ID.String()
	}

	c.Set("X-Job-ID", strings.Join(ids, ","))
	c.Attachment(ArchiveName)
	c.Set(fiber.HeaderContentType, "application/zip")
	return c.Send(batch.Archive)
}

func parseCropForm(c *fiber.Ctx) (types.CropParams, types.ProcessOptions, error) {
	var params types.CropParams
	if c.BodyParser(&params) != nil {
		return params, types.ProcessOptions{}, ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return params, types.ProcessOptions{}, NewValidationError(errors)
	}

	opts, err := params.Options()
	if err != nil {
		return params, types.ProcessOptions{}, ErrBadRequest()
	}
	return params, opts, nil
}

func openPart(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}

func newJob(filename string, params types.CropParams) types.Job {
	return types.Job{
		ID:        uuid.New(),
		Filename:  filename,
		TopCm:     params.TopCm,
		BottomCm:  params.BottomCm,
		CreatedAt: time.Now().UTC(),
	}
}

// setMarginHeaders reports the applied margins, which differ from the
// request when a side was detected.
func setMarginHeaders(c *fiber.Ctx, m types.Margins) {
	c.Set("X-Crop-Top-Pt", strconv.FormatFloat(m.Top, 'f', 2, 64))
	c.Set("X-Crop-Bottom-Pt", strconv.FormatFloat(m.Bottom, 'f', 2, 64))
}

func (h *ProcessHandler) saveJob(ctx context.Context, job types.Job) {
	if err := h.jobStore.SaveJob(ctx, job); err != nil {
		h.logger.Error("failed to save job", "jobId", job.ID, "error", err)
	}
}

func (h *ProcessHandler) archive(ctx context.Context, job types.Job, data []byte) {
	if h.archiver == nil {
		return
	}
	if err := h.archiver.Archive(ctx, archive.ObjectName(job.ID.String()), data); err != nil {
		h.logger.Error("failed to archive result", "jobId", job.ID, "error", err)
	}
}
