package usecase

import (
	"context"
	"mime/multipart"

	"go.uber.org/zap"

	"github.com/example/recognition-mock/internal/intake"
	"github.com/example/recognition-mock/internal/logging"
	"github.com/example/recognition-mock/internal/recognition"
)

// Intake is the upload step the recognition flow depends on.
type Intake interface {
	Accept(ctx context.Context, form *multipart.Form) (*intake.UploadedFile, error)
}

// RecognitionUseCase stores an upload and then draws a verdict for it.
type RecognitionUseCase struct {
	intake     Intake
	recognizer recognition.Recognizer
	logger     *zap.Logger
}

// NewRecognitionUseCase constructs a new use case instance.
func NewRecognitionUseCase(in Intake, recognizer recognition.Recognizer, logger *zap.Logger) *RecognitionUseCase {
	return &RecognitionUseCase{
		intake:     in,
		recognizer: recognizer,
		logger:     logger.Named("recognition_usecase"),
	}
}

// Check runs intake and, only when it succeeds, the recognizer.
func (uc *RecognitionUseCase) Check(ctx context.Context, form *multipart.Form) (recognition.Result, error) {
	requestID := logging.RequestID(ctx)

	file, err := uc.intake.Accept(ctx, form)
	if err != nil {
		return recognition.Result{}, err
	}

	result, err := uc.recognizer.Recognize(ctx, file)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.recognize", requestID, err)
		logging.WithOperation(uc.logger, "usecase.recognize", requestID).Error("recognition failed", zap.Error(wrapped))
		return recognition.Result{}, wrapped
	}

	logging.WithOperation(uc.logger, "usecase.recognize", requestID).Info("recognition verdict",
		zap.String("path", file.Path),
		zap.Bool("recognized", result.Recognized),
	)
	return result, nil
}
