package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RunLogger mirrors a batch run's log to a file next to the result file, so a
// long dataset run leaves an audit trail beyond stdout. Page-level errors go
// to a separate error log.
type RunLogger struct {
	*Logger
	runDir      string
	logFile     *os.File
	errorFile   *os.File
	mu          sync.Mutex
	multiWriter io.Writer
}

func NewRunLogger(runDir string, level logrus.Level) (*RunLogger, error) {
	baseLogger := NewLogger(level)

	logFile, err := os.OpenFile(filepath.Join(runDir, "run.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	errorFile, err := os.OpenFile(filepath.Join(runDir, "error.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("failed to create error log file: %w", err)
	}

	header := fmt.Sprintf("\n=== Run Started: %s ===\n", time.Now().Format(time.RFC3339))
	header += fmt.Sprintf("Run Directory: %s\n", runDir)
	header += "==========================================\n\n"
	logFile.WriteString(header)

	multiWriter := io.MultiWriter(os.Stdout, logFile)
	baseLogger.Logger.SetOutput(multiWriter)

	return &RunLogger{
		Logger:      baseLogger,
		runDir:      runDir,
		logFile:     logFile,
		errorFile:   errorFile,
		multiWriter: multiWriter,
	}, nil
}

// LogPageError records a per-page failure without aborting the run.
func (rl *RunLogger) LogPageError(folder string, err error, fields Fields) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if fields == nil {
		fields = Fields{}
	}
	fields["folder"] = folder

	rl.WithFields(fields).WithError(err).Error("Page evaluation error")

	errorMsg := fmt.Sprintf("[%s] Error in %s: %v\n",
		time.Now().Format(time.RFC3339),
		folder,
		err,
	)
	if len(fields) > 0 {
		errorMsg += fmt.Sprintf("  Fields: %+v\n", fields)
	}
	rl.errorFile.WriteString(errorMsg)
}

// LogRunFailure records a hard operational failure that aborted the batch.
func (rl *RunLogger) LogRunFailure(reason string, err error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	timestamp := time.Now().Format(time.RFC3339)
	failureMsg := fmt.Sprintf("\n=== RUN ABORTED: %s ===\n", timestamp)
	failureMsg += fmt.Sprintf("Reason: %s\n", reason)
	if err != nil {
		failureMsg += fmt.Sprintf("Error: %v\n", err)
	}
	failureMsg += "=====================================\n\n"

	rl.logFile.WriteString(failureMsg)
	rl.errorFile.WriteString(failureMsg)

	if err != nil {
		rl.WithFields(Fields{"reason": reason}).WithError(err).Error("Run aborted")
	} else {
		rl.WithFields(Fields{"reason": reason}).Error("Run aborted")
	}
}

// LogRunSuccess records normal batch completion.
func (rl *RunLogger) LogRunSuccess() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	timestamp := time.Now().Format(time.RFC3339)
	successMsg := fmt.Sprintf("\n=== RUN COMPLETED: %s ===\n", timestamp)
	successMsg += "=========================================\n\n"

	rl.logFile.WriteString(successMsg)

	rl.Info("Run completed")
}

func (rl *RunLogger) Close() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	var errs []error

	if rl.logFile != nil {
		footer := fmt.Sprintf("\n=== Run Log Ended: %s ===\n", time.Now().Format(time.RFC3339))
		rl.logFile.WriteString(footer)

		if err := rl.logFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close log file: %w", err))
		}
	}

	if rl.errorFile != nil {
		if err := rl.errorFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close error file: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing run logger: %v", errs)
	}

	return nil
}

func (rl *RunLogger) GetLogFilePath() string {
	return filepath.Join(rl.runDir, "run.log")
}

func (rl *RunLogger) GetErrorLogFilePath() string {
	return filepath.Join(rl.runDir, "error.log")
}
