package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/merge"
)

// Stages name the step a command failed in. Each has its own exit code.
const (
	stageUsage     = "usage"
	stageConfig    = "config"
	stageLoad      = "load"
	stageParse     = "parse"
	stageResolve   = "resolve"
	stageMerge     = "merge"
	stageValidate  = "validate"
	stageQuery     = "query"
	stageSerialize = "serialize"
	stageRun       = "run"
)

var exitCodes = map[string]int{
	stageRun:       1,
	stageUsage:     2,
	stageConfig:    2,
	stageLoad:      3,
	stageParse:     4,
	stageResolve:   5,
	stageMerge:     5,
	stageValidate:  6,
	stageQuery:     7,
	stageSerialize: 8,
}

// stageError tags err with the step it happened in.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func staged(stage string, err error) error {
	if err == nil {
		return nil
	}
	var se *stageError
	if errors.As(err, &se) {
		return err
	}
	return &stageError{stage: stage, err: err}
}

// stageOf names the failing step. Explicit tags win, then merge pipeline
// stages, then the error kind.
func stageOf(err error) string {
	var se *stageError
	if errors.As(err, &se) {
		return se.stage
	}
	var me *merge.StageError
	if errors.As(err, &me) {
		switch me.Stage {
		case merge.StageLoadBase, merge.StageLoadPrior:
			return stageLoad
		case merge.StageParse:
			return stageParse
		case merge.StageResolve:
			return stageResolve
		case merge.StageMerge, merge.StageEvidence:
			return stageMerge
		case merge.StageValidate:
			return stageValidate
		case merge.StageSerialize:
			return stageSerialize
		}
	}
	switch {
	case errors.Is(err, apperr.ErrLoad):
		return stageLoad
	case errors.Is(err, apperr.ErrUnresolvedConstruct), errors.Is(err, apperr.ErrNotFound):
		return stageResolve
	case errors.Is(err, apperr.ErrInvalidArgument):
		return stageUsage
	}
	return stageRun
}

func exitCode(err error) int {
	if code, ok := exitCodes[stageOf(err)]; ok {
		return code
	}
	return 1
}

func userMessage(err error) string {
	return fmt.Sprintf("%s error: %v", stageOf(err), err)
}

// PrintError prints an error message without exiting, allowing for recovery.
func PrintError(userMsg string, technicalErr error) {
	if viper.GetBool("verbose") && technicalErr != nil {
		// In verbose mode, print the detailed, underlying technical error.
		fmt.Fprintf(os.Stderr, "Error: [%s] %+v\n", stageOf(technicalErr), technicalErr)
	} else {
		// By default, print the clean, user-friendly message.
		fmt.Fprintln(os.Stderr, userMsg)
	}
}
