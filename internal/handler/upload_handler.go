package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"gradebook/pkg/logger"
)

// multipartMemory is how much of an upload is held in memory before spilling
// to temporary files.
const multipartMemory = 32 << 20

type UploadHandler struct {
	importer  RosterImporter
	uploadDir string
	maxBytes  int64
	logger    logger.Logger
}

func NewUploadHandler(importer RosterImporter, uploadDir string, maxBytes int64, log logger.Logger) *UploadHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &UploadHandler{
		importer:  importer,
		uploadDir: uploadDir,
		maxBytes:  maxBytes,
		logger:    log.Named("upload"),
	}
}

// UploadCSV stores the uploaded roster files and imports them in the
// background. Progress is available from the progress endpoints.
func (h *UploadHandler) UploadCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.logger.Error(ctx, "create upload directory", logger.String("dir", h.uploadDir), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create uploads directory")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "No files uploaded")
		return
	}

	// Imports outlive the request but keep its request id for logging.
	importCtx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	fileNames := make([]string, 0, len(files))
	var busy []string

	for _, header := range files {
		name := filepath.Base(header.Filename)
		if name == "." || name == string(filepath.Separator) {
			h.logger.Warn(ctx, "skipping upload without a file name")
			continue
		}
		// A running import still reads its file and owns its progress entry.
		if err := h.importer.ReserveFile(name); err != nil {
			h.logger.Warn(ctx, "skipping upload", logger.String("file", name), logger.Error(err))
			busy = append(busy, name)
			continue
		}
		savePath := filepath.Join(h.uploadDir, name)
		if err := saveUpload(header, savePath); err != nil {
			h.logger.Error(ctx, "save upload", logger.String("file", name), logger.Error(err))
			h.importer.ReleaseFile(name, err)
			continue
		}
		fileNames = append(fileNames, name)

		wg.Add(1)
		go func(filePath string) {
			defer wg.Done()
			if err := h.importer.ProcessCSV(importCtx, filePath); err != nil {
				h.logger.Warn(importCtx, "roster file not imported", logger.String("file", filePath), logger.Error(err))
			}
		}(savePath)
	}

	if len(fileNames) == 0 {
		if len(busy) > 0 {
			writeError(w, http.StatusConflict, "File is already being processed")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save uploaded files")
		return
	}

	go func() {
		wg.Wait()
		h.logger.Info(importCtx, "all uploaded files processed", logger.Int("files", len(fileNames)))
	}()

	body := map[string]any{
		"message": "Files uploaded successfully and processing started",
		"files":   fileNames,
	}
	if len(busy) > 0 {
		body["rejected"] = busy
	}
	writeJSON(w, http.StatusAccepted, body)
}

func saveUpload(header *multipart.FileHeader, savePath string) error {
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(savePath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
