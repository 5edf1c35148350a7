package services

import (
	"context"
	"sync"
	"time"

	"brandwatch/internal/dao"
	"brandwatch/internal/models"
	"brandwatch/internal/notification"
	"brandwatch/pkg/logger"
	"brandwatch/pkg/pipeline"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Evaluator decides one page; satisfied by pipeline.Orchestrator.
type Evaluator interface {
	Evaluate(ctx context.Context, pageURL string, screenshot []byte) (*pipeline.Outcome, error)
}

// Screenshotter captures a page screenshot for URLs submitted without one.
type Screenshotter func(ctx context.Context, pageURL string) ([]byte, error)

type EvaluationServiceMethods interface {
	StartEvaluation(url string) (string, error)
	GetEvaluationByUUID(id string) (*models.Evaluation, error)
	ListEvaluations() ([]models.Evaluation, error)
	ListPhishing() ([]models.Evaluation, error)
	DeleteEvaluation(id string) error
}

type evaluationService struct {
	evalDao   dao.EvaluationDAO
	evaluator Evaluator
	capture   Screenshotter
	notifier  *notification.NotificationClient
	logger    *logger.Logger

	// The reference store assumes a single sequential writer; evaluations
	// are serialized rather than run concurrently.
	evalMu sync.Mutex
}

func NewEvaluationService(evalDao dao.EvaluationDAO, evaluator Evaluator, capture Screenshotter, notifier *notification.NotificationClient) EvaluationServiceMethods {
	return &evaluationService{
		evalDao:   evalDao,
		evaluator: evaluator,
		capture:   capture,
		notifier:  notifier,
		logger:    logger.NewLogger(logrus.InfoLevel),
	}
}

func (s *evaluationService) StartEvaluation(url string) (string, error) {
	id := uuid.New().String()
	ev := &models.Evaluation{
		UUID:      id,
		URL:       url,
		Status:    "started",
		CreatedAt: time.Now().Unix(),
	}
	if err := s.evalDao.SaveEvaluation(ev); err != nil {
		s.logger.Error("SaveEvaluation failed", logger.Fields{"error": err})
		return "", err
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in background evaluation", logger.Fields{"evaluation_id": id, "panic": r})
			}
		}()
		s.runEvaluation(ev)
	}()

	return id, nil
}

func (s *evaluationService) runEvaluation(ev *models.Evaluation) {
	ctx := context.Background()

	var screenshot []byte
	if s.capture != nil {
		shot, err := s.capture(ctx, ev.URL)
		if err != nil {
			s.logger.Warn("Screenshot capture failed", logger.Fields{"error": err, "url": ev.URL})
		} else {
			screenshot = shot
		}
	}

	s.evalMu.Lock()
	out, err := s.evaluator.Evaluate(ctx, ev.URL, screenshot)
	s.evalMu.Unlock()

	if err != nil {
		s.logger.Error("Evaluation failed", logger.Fields{"error": err, "url": ev.URL})
		ev.Status = "failed"
	} else {
		ev.Status = "completed"
		RecordOutcome(ev, out)
		s.notify(out)
	}

	ev.UpdatedAt = time.Now().Unix()
	if err := s.evalDao.UpdateEvaluation(ev); err != nil {
		s.logger.Error("UpdateEvaluation failed", logger.Fields{"error": err, "evaluation_id": ev.UUID})
	}
}

func (s *evaluationService) notify(out *pipeline.Outcome) {
	if s.notifier == nil {
		return
	}
	if out.FoundKnowledge {
		if err := s.notifier.NotifyBrandAdmitted(out.Target, nil, out.DiscoveryBranch); err != nil {
			s.logger.Warn("Admission notification failed", logger.Fields{"error": err})
		}
	}
	if out.Category == pipeline.CategoryPhishing {
		if err := s.notifier.NotifyPhishingDetected(out.URL, out.Target); err != nil {
			s.logger.Warn("Phishing notification failed", logger.Fields{"error": err})
		}
	}
}

// RecordOutcome copies a decision outcome onto the persistence model.
func RecordOutcome(ev *models.Evaluation, out *pipeline.Outcome) {
	ev.Category = out.Category
	ev.Target = out.Target
	ev.HasLogo = out.HasLogo
	ev.BrandInTargetList = out.BrandInTargetList
	ev.FoundKnowledge = out.FoundKnowledge
	ev.DiscoveryBranch = out.DiscoveryBranch
	ev.DetectorSecs = out.Runtime.Detector.Seconds()
	ev.DiscoverySecs = out.Runtime.Discovery.Seconds()
	ev.InteractAlgoSecs = out.Runtime.InteractionAlgo.Seconds()
	ev.InteractTotalSecs = out.Runtime.InteractionTotal.Seconds()
	ev.InteractSuccess = out.Interaction.Success
	ev.RedirectEvasion = out.Interaction.RedirectionEvasion
	ev.NoVerification = out.Interaction.NoVerification
}

func (s *evaluationService) GetEvaluationByUUID(id string) (*models.Evaluation, error) {
	return s.evalDao.GetEvaluationByUUID(id)
}

func (s *evaluationService) ListEvaluations() ([]models.Evaluation, error) {
	return s.evalDao.ListEvaluations()
}

func (s *evaluationService) ListPhishing() ([]models.Evaluation, error) {
	return s.evalDao.ListPhishing()
}

func (s *evaluationService) DeleteEvaluation(id string) error {
	return s.evalDao.DeleteEvaluation(id)
}
