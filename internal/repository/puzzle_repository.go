package repository

import (
	"takarawalk_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PuzzleRepository struct {
	DB *gorm.DB
}

func NewPuzzleRepository(db *gorm.DB) *PuzzleRepository {
	return &PuzzleRepository{DB: db}
}

func (r *PuzzleRepository) Create(p *model.Puzzle) error {
	return r.DB.Create(p).Error
}

func (r *PuzzleRepository) FindByID(id string) (*model.Puzzle, error) {
	var p model.Puzzle
	err := r.DB.First(&p, "id = ?", id).Error
	return &p, err
}

// FindByIDForUpdate reads a puzzle under a row lock. Must be called with a
// transaction handle; the lock is what serializes racing solve attempts.
// SQLite has no FOR UPDATE and serializes writers on its own, so the clause
// is skipped there.
func (r *PuzzleRepository) FindByIDForUpdate(tx *gorm.DB, id string) (*model.Puzzle, error) {
	var p model.Puzzle
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.First(&p, "id = ?", id).Error
	return &p, err
}

func (r *PuzzleRepository) List(page, limit int, unsolvedOnly bool) ([]model.Puzzle, int64, error) {
	var puzzles []model.Puzzle
	var total int64

	query := r.DB.Model(&model.Puzzle{})
	if unsolvedOnly {
		query = query.Where("solved = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&puzzles).Error
	return puzzles, total, err
}

func (r *PuzzleRepository) FindByCreator(creatorID uint) ([]model.Puzzle, error) {
	var puzzles []model.Puzzle
	err := r.DB.Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Find(&puzzles).Error
	return puzzles, err
}

func (r *PuzzleRepository) FindSolvedBy(solverUID uint) ([]model.Puzzle, error) {
	var puzzles []model.Puzzle
	err := r.DB.Where("solved_by_uid = ?", solverUID).
		Order("solved_at DESC").
		Find(&puzzles).Error
	return puzzles, err
}

// UpdateFields applies a cosmetic, non-transactional update. Callers must
// only route title/description/location edits here; solve-state fields go
// through SolveService exclusively.
func (r *PuzzleRepository) UpdateFields(id string, fields map[string]interface{}) error {
	return r.DB.Model(&model.Puzzle{}).
		Where("id = ?", id).
		Updates(fields).
		Error
}

func (r *PuzzleRepository) Delete(id string) error {
	return r.DB.Delete(&model.Puzzle{}, "id = ?", id).Error
}

func (r *PuzzleRepository) CountByCreator(creatorID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Puzzle{}).
		Where("creator_id = ?", creatorID).
		Count(&count).Error
	return count, err
}
