// Package intake receives single-file multipart uploads and hands them to storage.
package intake

import (
	"context"
	"errors"
	"mime/multipart"

	"go.uber.org/zap"

	"github.com/example/recognition-mock/internal/logging"
	"github.com/example/recognition-mock/internal/storage"
)

// FieldName is the multipart field that carries the image.
const FieldName = "image"

var (
	// ErrMissingInput means the request carried no file under FieldName.
	ErrMissingInput = errors.New("no image file provided")
	// ErrMultipleFiles means more than one file was sent under FieldName.
	ErrMultipleFiles = errors.New("only one image file may be provided")
	// ErrStorageFailure means the file could not be written to storage.
	ErrStorageFailure = errors.New("failed to store image")
)

// UploadedFile describes one accepted upload.
type UploadedFile struct {
	FieldName   string
	Path        string
	Size        int64
	ContentType string
}

// Intake validates an upload form and persists its single file.
type Intake struct {
	store  storage.Store
	namer  *Namer
	logger *zap.Logger
}

// New returns an Intake that names files with namer and writes them to store.
func New(store storage.Store, namer *Namer, logger *zap.Logger) *Intake {
	return &Intake{store: store, namer: namer, logger: logger.Named("intake")}
}

// Accept stores the file under FieldName and returns its descriptor.
// Nothing is written when the form has zero or several files in that field.
func (i *Intake) Accept(ctx context.Context, form *multipart.Form) (*UploadedFile, error) {
	requestID := logging.RequestID(ctx)

	var files []*multipart.FileHeader
	if form != nil {
		files = form.File[FieldName]
	}
	switch {
	case len(files) == 0:
		return nil, logging.NewOperationError("intake.accept", requestID, ErrMissingInput)
	case len(files) > 1:
		return nil, logging.NewOperationError("intake.accept", requestID, ErrMultipleFiles)
	}

	header := files[0]
	src, err := header.Open()
	if err != nil {
		return nil, logging.Wrap("intake.open", requestID, ErrStorageFailure, err)
	}
	defer src.Close()

	name := i.namer.Next(FieldName)
	contentType := header.Header.Get("Content-Type")
	opLogger := logging.WithOperation(i.logger, "intake.store", requestID)

	obj, err := i.store.Put(ctx, name, src, header.Size, contentType)
	if err != nil {
		wrapped := logging.Wrap("intake.store", requestID, ErrStorageFailure, err)
		opLogger.Error("failed to store upload", zap.String("name", name), zap.Error(err))
		return nil, wrapped
	}

	opLogger.Info("image received", zap.String("path", obj.Location), zap.Int64("size", obj.Size))
	return &UploadedFile{
		FieldName:   FieldName,
		Path:        obj.Location,
		Size:        obj.Size,
		ContentType: contentType,
	}, nil
}
