package main

import (
	"context"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-pdfreport/internal/source"
)

// SourceFactory opens a record source. Tests replace it to avoid MongoDB.
type SourceFactory func(ctx context.Context, cfg source.Config, logger *zap.Logger) (source.Source, error)

// Environment holds injectable dependencies for testability.
// Includes I/O, time and the record source factory.
type Environment struct {
	Now       func() time.Time
	Stdout    io.Writer
	Stderr    io.Writer
	NewSource SourceFactory
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:       time.Now,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		NewSource: source.New,
	}
}
