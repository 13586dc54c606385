// Package recognition produces recognition verdicts for accepted uploads.
package recognition

import (
	"context"

	"github.com/example/recognition-mock/internal/config"
	"github.com/example/recognition-mock/internal/intake"
	"github.com/example/recognition-mock/internal/randsrc"
)

const (
	MessageRecognized    = "recognition succeeded"
	MessageNotRecognized = "recognition failed"
)

// Result is the outcome of one recognition attempt.
type Result struct {
	Recognized bool
	Message    string
}

// Recognizer is the seam a real recognition backend would implement.
type Recognizer interface {
	Recognize(ctx context.Context, file *intake.UploadedFile) (Result, error)
}

// Engine simulates recognition with an independent draw per call.
type Engine struct {
	successRate float64
	src         randsrc.Source
}

// NewEngine returns an engine that recognizes with probability successRate.
func NewEngine(successRate float64, src randsrc.Source) (*Engine, error) {
	if err := config.ValidateSuccessRate(successRate); err != nil {
		return nil, err
	}
	return &Engine{successRate: successRate, src: src}, nil
}

// SuccessRate returns the configured probability.
func (e *Engine) SuccessRate() float64 {
	return e.successRate
}

// Decide draws a verdict. The file content is never inspected.
func (e *Engine) Decide() Result {
	if e.src.Float64() < e.successRate {
		return Result{Recognized: true, Message: MessageRecognized}
	}
	return Result{Recognized: false, Message: MessageNotRecognized}
}

// Recognize implements Recognizer. It never fails.
func (e *Engine) Recognize(_ context.Context, _ *intake.UploadedFile) (Result, error) {
	return e.Decide(), nil
}
