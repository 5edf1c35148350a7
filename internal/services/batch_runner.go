package services

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"brandwatch/internal/dao"
	"brandwatch/internal/models"
	"brandwatch/internal/notification"
	"brandwatch/internal/report"
	"brandwatch/pkg/logger"
	"brandwatch/pkg/pipeline"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	infoFileName = "info.txt"
	shotFileName = "shot.png"
)

// BatchRunner walks a dataset directory of per-page folders, each holding
// the page URL in info.txt and its screenshot in shot.png, and evaluates
// them serially. Folders already present in the result file are skipped so
// an interrupted batch resumes where it stopped.
type BatchRunner struct {
	evaluator Evaluator
	evalDao   dao.EvaluationDAO
	notifier  *notification.NotificationClient
	logger    *logger.Logger
	pageErr   PageErrorLogger
}

// PageErrorLogger receives per-folder failures that do not abort the batch,
// so they end up in the run's error log as well as the console.
type PageErrorLogger interface {
	LogPageError(folder string, err error, fields logger.Fields)
}

func NewBatchRunner(evaluator Evaluator, evalDao dao.EvaluationDAO, notifier *notification.NotificationClient) *BatchRunner {
	return &BatchRunner{
		evaluator: evaluator,
		evalDao:   evalDao,
		notifier:  notifier,
		logger:    logger.NewLogger(logrus.InfoLevel),
	}
}

// SetPageErrorLogger mirrors non-fatal per-folder failures to a run log.
func (b *BatchRunner) SetPageErrorLogger(pl PageErrorLogger) {
	b.pageErr = pl
}

// Run evaluates every unprocessed folder under datasetDir, appending one
// result line per page. Only hard operational errors (search quota, browser
// restart budget, cancellation) abort the batch.
func (b *BatchRunner) Run(ctx context.Context, datasetDir, resultPath string) error {
	done, err := report.ProcessedFolders(resultPath)
	if err != nil {
		return err
	}

	writer, err := report.NewWriter(resultPath)
	if err != nil {
		return err
	}
	defer writer.Close()

	folders, err := listFolders(datasetDir)
	if err != nil {
		return err
	}
	b.logger.Info("Starting batch evaluation", logger.Fields{
		"dataset": datasetDir,
		"total":   len(folders),
		"skipped": len(done),
	})

	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return err
		}
		if done[folder] {
			continue
		}

		pageURL, screenshot, readErr := readPage(filepath.Join(datasetDir, folder))
		if readErr != nil {
			b.logger.Warn("Skipping unreadable folder", logger.Fields{"folder": folder, "error": readErr})
			if b.pageErr != nil {
				b.pageErr.LogPageError(folder, readErr, nil)
			}
			continue
		}

		out, err := b.evaluator.Evaluate(ctx, pageURL, screenshot)
		if err != nil {
			return err
		}

		if err := writer.Append(folder, out); err != nil {
			return err
		}
		b.persist(folder, out)
		b.notify(out)

		b.logger.WithPage(folder, pageURL).WithFields(logrus.Fields{
			"category":        out.Category,
			"target":          out.Target,
			"found_knowledge": out.FoundKnowledge,
		}).Info("Page evaluated")
	}

	return nil
}

func (b *BatchRunner) persist(folder string, out *pipeline.Outcome) {
	if b.evalDao == nil {
		return
	}
	ev := &models.Evaluation{
		UUID:      uuid.New().String(),
		Folder:    folder,
		URL:       out.URL,
		Status:    "completed",
		CreatedAt: time.Now().Unix(),
		UpdatedAt: time.Now().Unix(),
	}
	RecordOutcome(ev, out)
	if err := b.evalDao.SaveEvaluation(ev); err != nil {
		b.logger.Error("SaveEvaluation failed", logger.Fields{"error": err, "folder": folder})
	}
}

func (b *BatchRunner) notify(out *pipeline.Outcome) {
	if b.notifier == nil {
		return
	}
	if out.FoundKnowledge {
		if err := b.notifier.NotifyBrandAdmitted(out.Target, nil, out.DiscoveryBranch); err != nil {
			b.logger.Warn("Admission notification failed", logger.Fields{"error": err})
		}
	}
	if out.Category == pipeline.CategoryPhishing {
		if err := b.notifier.NotifyPhishingDetected(out.URL, out.Target); err != nil {
			b.logger.Warn("Phishing notification failed", logger.Fields{"error": err})
		}
	}
}

func listFolders(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var folders []string
	for _, e := range entries {
		if e.IsDir() {
			folders = append(folders, e.Name())
		}
	}
	sort.Strings(folders)
	return folders, nil
}

// readPage loads a dataset folder's URL and screenshot. The screenshot is
// optional; a folder without info.txt is unreadable.
func readPage(dir string) (string, []byte, error) {
	info, err := os.ReadFile(filepath.Join(dir, infoFileName))
	if err != nil {
		return "", nil, err
	}
	pageURL, _, _ := strings.Cut(strings.TrimSpace(string(info)), "\n")

	screenshot, err := os.ReadFile(filepath.Join(dir, shotFileName))
	if err != nil {
		screenshot = nil
	}
	return pageURL, screenshot, nil
}
