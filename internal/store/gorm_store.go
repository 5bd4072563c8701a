package store

import (
	"context"
	"errors"

	"github.com/secdesk/backend/internal/apperr"
	"github.com/secdesk/backend/internal/models"
	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate("create user", err)
	}
	return nil
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user", id)
		}
		return nil, translate("get user", err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Entity: "user"}
		}
		return nil, translate("get user by email", err)
	}
	return &user, nil
}

func (s *GormStore) UpdateUser(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user", id)
	}
	return nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("full_name ASC, id ASC").Find(&users).Error; err != nil {
		return nil, translate("list users", err)
	}
	return users, nil
}

func (s *GormStore) GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translate("get users by ids", err)
	}
	return users, nil
}

func (s *GormStore) CreateIncident(ctx context.Context, incident *models.Incident) error {
	if err := s.db.WithContext(ctx).Create(incident).Error; err != nil {
		return translate("create incident", err)
	}
	return nil
}

func (s *GormStore) GetIncident(ctx context.Context, id uint) (*models.Incident, error) {
	var incident models.Incident
	if err := s.db.WithContext(ctx).First(&incident, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("incident", id)
		}
		return nil, translate("get incident", err)
	}
	return &incident, nil
}

func (s *GormStore) ListIncidents(ctx context.Context) ([]models.Incident, error) {
	var incidents []models.Incident
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&incidents).Error; err != nil {
		return nil, translate("list incidents", err)
	}
	return incidents, nil
}

func (s *GormStore) UpdateIncident(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.Incident{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate("update incident", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("incident", id)
	}
	return nil
}

func (s *GormStore) CreateIncidentUpdate(ctx context.Context, update *models.IncidentUpdate) error {
	if err := s.db.WithContext(ctx).Create(update).Error; err != nil {
		return translate("create incident update", err)
	}
	return nil
}

func (s *GormStore) ListIncidentUpdates(ctx context.Context, incidentID uint) ([]models.IncidentUpdate, error) {
	var updates []models.IncidentUpdate
	err := s.db.WithContext(ctx).
		Where("incident_id = ?", incidentID).
		Order("created_at DESC, id DESC").
		Find(&updates).Error
	if err != nil {
		return nil, translate("list incident updates", err)
	}
	return updates, nil
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	var fnErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&GormStore{db: tx})
		return fnErr
	})
	if err == nil {
		return nil
	}
	if fnErr != nil {
		return fnErr
	}
	return translate("commit transaction", err)
}
