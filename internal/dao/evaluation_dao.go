package dao

import (
	"brandwatch/internal/models"

	"gorm.io/gorm"
)

type EvaluationDAO interface {
	SaveEvaluation(ev *models.Evaluation) error
	UpdateEvaluation(ev *models.Evaluation) error
	GetEvaluationByUUID(uuid string) (*models.Evaluation, error)
	ListEvaluations() ([]models.Evaluation, error)
	ListEvaluationsWithPagination(page, limit int) ([]models.Evaluation, int64, error)
	ListPhishing() ([]models.Evaluation, error)
	DeleteEvaluation(uuid string) error
}

type evaluationDAO struct {
	db *gorm.DB
}

func NewEvaluationDAO(db *gorm.DB) EvaluationDAO {
	return &evaluationDAO{db: db}
}

func (dao *evaluationDAO) SaveEvaluation(ev *models.Evaluation) error {
	return dao.db.Create(ev).Error
}

func (dao *evaluationDAO) UpdateEvaluation(ev *models.Evaluation) error {
	return dao.db.Save(ev).Error
}

func (dao *evaluationDAO) GetEvaluationByUUID(uuid string) (*models.Evaluation, error) {
	var ev models.Evaluation
	if err := dao.db.Where("uuid = ?", uuid).First(&ev).Error; err != nil {
		return nil, err
	}
	return &ev, nil
}

func (dao *evaluationDAO) ListEvaluations() ([]models.Evaluation, error) {
	var evs []models.Evaluation
	if err := dao.db.Order("created_at desc").Limit(50).Find(&evs).Error; err != nil {
		return nil, err
	}
	return evs, nil
}

func (dao *evaluationDAO) ListEvaluationsWithPagination(page, limit int) ([]models.Evaluation, int64, error) {
	var evs []models.Evaluation
	var total int64

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	offset := (page - 1) * limit

	if err := dao.db.Model(&models.Evaluation{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := dao.db.Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&evs).Error; err != nil {
		return nil, 0, err
	}

	return evs, total, nil
}

func (dao *evaluationDAO) ListPhishing() ([]models.Evaluation, error) {
	var evs []models.Evaluation
	if err := dao.db.Where("category = ?", 1).Order("created_at desc").Find(&evs).Error; err != nil {
		return nil, err
	}
	return evs, nil
}

func (dao *evaluationDAO) DeleteEvaluation(uuid string) error {
	result := dao.db.Where("uuid = ?", uuid).Delete(&models.Evaluation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
