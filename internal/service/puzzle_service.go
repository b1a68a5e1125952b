package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"takarawalk_backend/internal/config"
	"takarawalk_backend/internal/model"
	"takarawalk_backend/internal/repository"
	"takarawalk_backend/internal/util"
	"takarawalk_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultMaxAnswers = 10

// PuzzleService owns the puzzle lifecycle around the solve transition:
// creation, reads, cosmetic edits, deletion. It never touches solve-state
// fields; those belong to SolveService alone.
type PuzzleService struct {
	Repo    *repository.PuzzleRepository
	Storage *StorageService
	Cfg     *config.Config
}

func NewPuzzleService(repo *repository.PuzzleRepository, storage *StorageService, cfg *config.Config) *PuzzleService {
	return &PuzzleService{Repo: repo, Storage: storage, Cfg: cfg}
}

type CreatePuzzleRequest struct {
	Title       string
	Description string
	Location    string
	AnswerType  model.AnswerType
	Answers     []string
}

// CreatedPuzzle pairs the stored puzzle with the solve URL handed back to
// the creator. For qrcode puzzles the URL embeds the generated token; it is
// shown exactly once here and retrievable later only by the creator.
type CreatedPuzzle struct {
	Puzzle   *model.Puzzle `json:"puzzle"`
	SolveURL string        `json:"solveUrl"`
}

func (s *PuzzleService) maxAnswers() int {
	if s.Cfg.Solve.MaxAnswers > 0 {
		return s.Cfg.Solve.MaxAnswers
	}
	return defaultMaxAnswers
}

// Create validates the accepted-answer set, stores the image, and writes the
// puzzle in the open state. Blank answers are filtered here so the matcher
// never sees one.
func (s *PuzzleService) Create(ctx context.Context, creator *util.Claims, req CreatePuzzleRequest, image io.Reader, imageSize int64, imageName, contentType string) (*CreatedPuzzle, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, errors.New("title is required")
	}
	if image == nil {
		return nil, util.ErrMissingImage
	}

	var answers []string
	switch req.AnswerType {
	case model.AnswerKeyword:
		for _, a := range req.Answers {
			if t := strings.TrimSpace(a); t != "" {
				answers = append(answers, t)
			}
		}
		if len(answers) == 0 {
			return nil, util.ErrNoAnswers
		}
		if len(answers) > s.maxAnswers() {
			return nil, util.ErrTooManyAnswers
		}
	case model.AnswerQRCode:
		answers = []string{util.GenerateScanToken()}
	default:
		return nil, fmt.Errorf("unknown answer type %q", req.AnswerType)
	}

	filename := ObjectFilename("puzzles", imageName)
	imageURL, err := s.Storage.Upload(ctx, filename, image, imageSize, contentType)
	if err != nil {
		return nil, err
	}

	p := &model.Puzzle{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		ImageURL:    imageURL,
		AnswerType:  req.AnswerType,
		Answer:      answers[0],
		Answers:     answers,
		CreatorID:   creator.UserID,
		CreatorName: creator.DisplayName,
		Solved:      false,
	}
	if err := s.Repo.Create(p); err != nil {
		return nil, err
	}

	return &CreatedPuzzle{
		Puzzle:   p,
		SolveURL: s.solveURL(p),
	}, nil
}

func (s *PuzzleService) solveURL(p *model.Puzzle) string {
	if p.AnswerType == model.AnswerQRCode {
		return fmt.Sprintf("/puzzle/%s?token=%s", p.ID, p.Answer)
	}
	return fmt.Sprintf("/puzzle/%s", p.ID)
}

func (s *PuzzleService) Get(id string) (*model.Puzzle, error) {
	p, err := s.Repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPuzzleNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PuzzleService) List(page, limit int, unsolvedOnly bool) ([]model.Puzzle, int64, error) {
	return s.Repo.List(page, limit, unsolvedOnly)
}

type UpdatePuzzleRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// Update applies a cosmetic edit: creator only, unsolved only. This is a
// plain update, deliberately outside the solve transaction; the race-safety
// contract covers solve-state fields, not title text.
func (s *PuzzleService) Update(claims *util.Claims, id string, req UpdatePuzzleRequest) (*model.Puzzle, error) {
	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if p.CreatorID != claims.UserID {
		return nil, util.ErrPermissionDenied
	}
	if p.Solved {
		return nil, util.ErrEditLocked
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, errors.New("title is required")
	}

	fields := map[string]interface{}{
		"title":       strings.TrimSpace(req.Title),
		"description": strings.TrimSpace(req.Description),
		"location":    strings.TrimSpace(req.Location),
	}
	if err := s.Repo.UpdateFields(id, fields); err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Delete removes a puzzle (creator or admin) and then its stored image.
// The image cascade is best effort: a dangling object is preferable to a
// puzzle row that refuses to die.
func (s *PuzzleService) Delete(ctx context.Context, claims *util.Claims, id string) error {
	p, err := s.Get(id)
	if err != nil {
		return err
	}
	if p.CreatorID != claims.UserID && claims.Role != model.RoleAdmin {
		return util.ErrPermissionDenied
	}

	if err := s.Repo.Delete(id); err != nil {
		return err
	}

	if p.ImageURL != "" {
		filename := s.Storage.FilenameFromURL(p.ImageURL)
		if err := s.Storage.Delete(ctx, filename); err != nil {
			logger.Log.Warn("failed to delete puzzle image",
				zap.String("puzzleId", id),
				zap.String("filename", filename),
				zap.Error(err))
		}
	}
	return nil
}

// SolveURLForCreator re-issues the solve URL (with the embedded token for
// qrcode puzzles) so a creator can regenerate a lost QR code.
func (s *PuzzleService) SolveURLForCreator(claims *util.Claims, id string) (string, error) {
	p, err := s.Get(id)
	if err != nil {
		return "", err
	}
	if p.CreatorID != claims.UserID {
		return "", util.ErrPermissionDenied
	}
	return s.solveURL(p), nil
}
