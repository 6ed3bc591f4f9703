package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tadeyemo32/prospect-backend/integrity"
	"github.com/tadeyemo32/prospect-backend/logger"
	"github.com/tadeyemo32/prospect-backend/models"
)

var (
	ErrNotFound          = errors.New("search not found")
	ErrStatusTransition  = errors.New("status transition not allowed")
	ErrCandidatesNotSave = errors.New("candidates could not be saved")
)

type SearchRepo interface {
	Create(ctx context.Context, p integrity.Payload) (*models.SearchRecord, error)
	CreateReduced(ctx context.Context, p integrity.Payload) (*models.SearchRecord, error)
	Get(ctx context.Context, requestID string) (*models.SearchRecord, error)
	List(ctx context.Context, limit int) ([]models.SearchRecord, error)
	Update(ctx context.Context, requestID string, updates integrity.Payload) error
	SaveCandidates(ctx context.Context, searchID uint, candidates []models.Candidate) error
	Candidates(ctx context.Context, searchID uint) ([]models.Candidate, error)
	Delete(ctx context.Context, requestID string) error
	Ping(ctx context.Context) error
}

type searchRepo struct {
	db         *gorm.DB
	log        *logger.Logger
	checkpoint *integrity.CheckpointLogger
}

func NewSearchRepo(db *gorm.DB, baseLog *logger.Logger) SearchRepo {
	return &searchRepo{
		db:         db,
		log:        baseLog.With("repo", "SearchRepo"),
		checkpoint: integrity.NewCheckpointLogger(baseLog),
	}
}

// Create validates and stores a new search. JSON fields may be given decoded.
func (r *searchRepo) Create(ctx context.Context, p integrity.Payload) (*models.SearchRecord, error) {
	r.checkpoint.Log("before_create", p)
	if err := integrity.Validate("create_search", p); err != nil {
		return nil, err
	}
	stored, err := integrity.SafeTransformForStorage(p)
	if err != nil {
		return nil, err
	}
	rec, err := models.SearchRecordFromPayload(stored)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("insert search: %w", err)
	}
	r.checkpoint.Log("after_create", rec.Payload())
	return &rec, nil
}

// CreateReduced stores only the identifying fields of a search. It is the
// fallback when the full insert fails.
func (r *searchRepo) CreateReduced(ctx context.Context, p integrity.Payload) (*models.SearchRecord, error) {
	prompt, err := integrity.EnsurePromptIntegrity("create_search_reduced", p)
	if err != nil {
		return nil, err
	}
	rec := models.SearchRecord{Prompt: prompt}
	rec.RequestID, _ = p["request_id"].(string)
	rec.Status, _ = p["status"].(string)
	rec.CreatedAt, _ = p["created_at"].(string)
	if s, ok := p["error"].(string); ok && s != "" {
		rec.Error = &s
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("insert reduced search: %w", err)
	}
	r.log.Warn("Stored search with reduced fields", "request_id", rec.RequestID)
	return &rec, nil
}

func (r *searchRepo) Get(ctx context.Context, requestID string) (*models.SearchRecord, error) {
	var rec models.SearchRecord
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get search %s: %w", requestID, err)
	}
	return &rec, nil
}

// List returns the most recent searches first.
func (r *searchRepo) List(ctx context.Context, limit int) ([]models.SearchRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []models.SearchRecord
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}
	return out, nil
}

// Update merges updates into the stored search. A blank prompt in updates never
// replaces the stored one, and final statuses cannot be left.
func (r *searchRepo) Update(ctx context.Context, requestID string, updates integrity.Payload) error {
	existing, err := r.Get(ctx, requestID)
	if err != nil {
		return err
	}
	current := existing.Payload()
	r.checkpoint.Log("before_update", current)

	if to, ok := updates["status"].(string); ok && !integrity.ValidTransition(existing.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrStatusTransition, existing.Status, to)
	}

	merged, err := integrity.SafeMergeSearchUpdates(current, updates)
	if err != nil {
		return err
	}
	if err := integrity.Validate("update_search", merged); err != nil {
		return err
	}
	stored, err := integrity.SafeTransformForStorage(merged)
	if err != nil {
		return err
	}

	// Only the keys the caller touched are written, plus the guarded prompt.
	columns := models.StorageColumns(stored)
	for k := range columns {
		if _, touched := updates[k]; !touched && k != "prompt" {
			delete(columns, k)
		}
	}

	res := r.db.WithContext(ctx).Model(&models.SearchRecord{}).Where("id = ?", existing.ID).Updates(columns)
	if res.Error != nil {
		return fmt.Errorf("update search %s: %w", requestID, res.Error)
	}
	r.checkpoint.Log("after_update", stored)
	return nil
}

// SaveCandidates inserts candidates in order. A row that fails is retried with
// only its identity and assessment fields; rows that fail both ways are reported
// in the returned error after the rest are written.
func (r *searchRepo) SaveCandidates(ctx context.Context, searchID uint, candidates []models.Candidate) error {
	var failed int
	for i := range candidates {
		c := candidates[i]
		c.ID = 0
		c.SearchID = searchID
		c.Position = i
		if len(c.LinkedInProfile) == 0 {
			c.LinkedInProfile = datatypes.JSON("{}")
		}
		if c.Reasons == nil {
			c.Reasons = datatypes.JSONSlice[string]{}
		}

		err := r.db.WithContext(ctx).Create(&c).Error
		if err == nil {
			continue
		}
		r.log.Warn("Candidate insert failed, retrying with reduced fields",
			"search_id", searchID, "name", c.Name, "error", err)

		reduced := models.Candidate{
			SearchID:        searchID,
			Position:        i,
			Name:            c.Name,
			Title:           c.Title,
			Company:         c.Company,
			Email:           c.Email,
			Location:        c.Location,
			LinkedInURL:     c.LinkedInURL,
			ProfilePhotoURL: c.ProfilePhotoURL,
			Accuracy:        c.Accuracy,
			Reasons:         datatypes.JSONSlice[string]{},
			LinkedInProfile: datatypes.JSON("{}"),
		}
		if err := r.db.WithContext(ctx).Create(&reduced).Error; err != nil {
			r.log.Error("Reduced candidate insert failed", "search_id", searchID, "name", c.Name, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrCandidatesNotSave, failed, len(candidates))
	}
	return nil
}

func (r *searchRepo) Candidates(ctx context.Context, searchID uint) ([]models.Candidate, error) {
	var out []models.Candidate
	err := r.db.WithContext(ctx).
		Where("search_id = ?", searchID).
		Order("position ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list candidates for %d: %w", searchID, err)
	}
	return out, nil
}

// Delete removes a search and its candidates.
func (r *searchRepo) Delete(ctx context.Context, requestID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.SearchRecord
		err := tx.Where("request_id = ?", requestID).Take(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Where("search_id = ?", rec.ID).Delete(&models.Candidate{}).Error; err != nil {
			return fmt.Errorf("delete candidates: %w", err)
		}
		if err := tx.Delete(&rec).Error; err != nil {
			return fmt.Errorf("delete search: %w", err)
		}
		return nil
	})
}

func (r *searchRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
