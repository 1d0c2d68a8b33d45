package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"fitness_portal_backend/internal/models"
	"fitness_portal_backend/internal/repositories"
)

var (
	ErrDesignNotFound   = errors.New("card design not found")
	ErrDesignValidation = errors.New("card design validation error")
	ErrDesignInUse      = errors.New("card design is referenced by issued cards")
)

type CreateDesignRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description *string         `json:"description"`
	DesignData  json.RawMessage `json:"design_data" binding:"required"`
}

type UpdateDesignRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	DesignData  json.RawMessage `json:"design_data"`
}

// CardDesignService manages the design center. Designs are created inactive
// and switched live through Activate.
type CardDesignService interface {
	CreateDesign(req CreateDesignRequest, createdBy int64) (*models.CardDesign, error)
	GetDesignByID(id int64) (*models.CardDesign, error)
	GetDesigns() ([]models.CardDesign, error)
	GetActiveDesignData() (models.DesignData, error)
	UpdateDesign(id int64, req UpdateDesignRequest) (*models.CardDesign, error)
	ActivateDesign(id int64) (*models.CardDesign, error)
	DeleteDesign(id int64) error
}

type cardDesignService struct {
	designRepo repositories.CardDesignRepository
	db         *sql.DB
}

// NewCardDesignService creates a new instance of CardDesignService.
func NewCardDesignService(designRepo repositories.CardDesignRepository, db *sql.DB) CardDesignService {
	return &cardDesignService{designRepo: designRepo, db: db}
}

func validateDesignData(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("%w: design data is required", ErrDesignValidation)
	}
	var parsed models.DesignData
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: design data is not valid JSON: %v", ErrDesignValidation, err)
	}
	return string(raw), nil
}

// CreateDesign stores a new inactive design.
func (s *cardDesignService) CreateDesign(req CreateDesignRequest, createdBy int64) (*models.CardDesign, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrDesignValidation)
	}
	data, err := validateDesignData(req.DesignData)
	if err != nil {
		return nil, err
	}

	design := &models.CardDesign{
		Name:        name,
		Description: req.Description,
		DesignData:  data,
		IsActive:    false,
		CreatedBy:   &createdBy,
	}
	if _, err := s.designRepo.CreateDesign(s.db, design); err != nil {
		return nil, fmt.Errorf("failed to create design: %w", err)
	}
	return design, nil
}

// GetDesignByID loads one design.
func (s *cardDesignService) GetDesignByID(id int64) (*models.CardDesign, error) {
	design, err := s.designRepo.GetDesignByID(nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrDesignNotFound
		}
		return nil, fmt.Errorf("failed to load design: %w", err)
	}
	return design, nil
}

// GetDesigns lists all designs, newest first.
func (s *cardDesignService) GetDesigns() ([]models.CardDesign, error) {
	designs, err := s.designRepo.GetDesigns()
	if err != nil {
		return nil, fmt.Errorf("failed to list designs: %w", err)
	}
	return designs, nil
}

// GetActiveDesignData returns the parsed active design, falling back to the
// built-in default when no design is active.
func (s *cardDesignService) GetActiveDesignData() (models.DesignData, error) {
	design, err := s.designRepo.GetActiveDesign()
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.DefaultDesignData(), nil
		}
		return models.DesignData{}, fmt.Errorf("failed to load active design: %w", err)
	}
	var data models.DesignData
	if err := json.Unmarshal([]byte(design.DesignData), &data); err != nil {
		return models.DesignData{}, fmt.Errorf("stored design data is corrupt: %w", err)
	}
	return data, nil
}

// UpdateDesign patches name, description and design data.
func (s *cardDesignService) UpdateDesign(id int64, req UpdateDesignRequest) (*models.CardDesign, error) {
	design, err := s.designRepo.GetDesignByID(nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrDesignNotFound
		}
		return nil, fmt.Errorf("failed to load design: %w", err)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrDesignValidation)
		}
		design.Name = name
	}
	if req.Description != nil {
		design.Description = req.Description
	}
	if len(req.DesignData) > 0 {
		data, err := validateDesignData(req.DesignData)
		if err != nil {
			return nil, err
		}
		design.DesignData = data
	}

	if err := s.designRepo.UpdateDesign(s.db, design); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrDesignNotFound
		}
		return nil, fmt.Errorf("failed to update design: %w", err)
	}
	return design, nil
}

// ActivateDesign makes one design live. Deactivation of the previous design
// and activation of the new one commit in a single transaction, so at no
// point do two designs show as active and the switch is all-or-nothing.
func (s *cardDesignService) ActivateDesign(id int64) (*models.CardDesign, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.designRepo.GetDesignByID(tx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrDesignNotFound
		}
		return nil, fmt.Errorf("failed to load design: %w", err)
	}
	if err := s.designRepo.DeactivateAll(tx); err != nil {
		return nil, fmt.Errorf("failed to deactivate designs: %w", err)
	}
	design, err := s.designRepo.ActivateDesign(tx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrDesignNotFound
		}
		return nil, fmt.Errorf("failed to activate design: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit activation transaction: %w", err)
	}
	return design, nil
}

// DeleteDesign removes a design. Foreign keys from issued cards surface as
// ErrDesignInUse.
func (s *cardDesignService) DeleteDesign(id int64) error {
	if err := s.designRepo.DeleteDesign(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrDesignNotFound
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return ErrDesignInUse
		}
		return fmt.Errorf("failed to delete design: %w", err)
	}
	return nil
}
