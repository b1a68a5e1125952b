package service

import (
	"errors"
	"strings"

	"takarawalk_backend/internal/model"
	"takarawalk_backend/internal/repository"
	"takarawalk_backend/internal/util"

	"gorm.io/gorm"
)

type UserService struct {
	UserRepo   *repository.UserRepository
	PuzzleRepo *repository.PuzzleRepository
}

func NewUserService(userRepo *repository.UserRepository, puzzleRepo *repository.PuzzleRepository) *UserService {
	return &UserService{UserRepo: userRepo, PuzzleRepo: puzzleRepo}
}

func (s *UserService) Get(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

type UpdateProfileRequest struct {
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoUrl"`
	TwitterURL   string `json:"twitterUrl"`
	InstagramURL string `json:"instagramUrl"`
	GithubURL    string `json:"githubUrl"`
}

func (s *UserService) UpdateProfile(userID uint, req UpdateProfileRequest) (*model.User, error) {
	if strings.TrimSpace(req.DisplayName) == "" {
		return nil, errors.New("display name is required")
	}

	fields := map[string]interface{}{
		"display_name":  strings.TrimSpace(req.DisplayName),
		"photo_url":     strings.TrimSpace(req.PhotoURL),
		"twitter_url":   strings.TrimSpace(req.TwitterURL),
		"instagram_url": strings.TrimSpace(req.InstagramURL),
		"github_url":    strings.TrimSpace(req.GithubURL),
	}
	if err := s.UserRepo.UpdateProfileFields(userID, fields); err != nil {
		return nil, err
	}
	return s.Get(userID)
}

// PublicProfile is the data behind a user page: display info plus the
// puzzles the user created and the ones they solved.
type PublicProfile struct {
	ID           uint           `json:"id"`
	DisplayName  string         `json:"displayName"`
	PhotoURL     string         `json:"photoUrl"`
	TwitterURL   string         `json:"twitterUrl"`
	InstagramURL string         `json:"instagramUrl"`
	GithubURL    string         `json:"githubUrl"`
	Created      []model.Puzzle `json:"created"`
	Solved       []model.Puzzle `json:"solved"`
}

func (s *UserService) GetPublicProfile(userID uint) (*PublicProfile, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	created, err := s.PuzzleRepo.FindByCreator(userID)
	if err != nil {
		return nil, err
	}
	solved, err := s.PuzzleRepo.FindSolvedBy(userID)
	if err != nil {
		return nil, err
	}

	return &PublicProfile{
		ID:           user.ID,
		DisplayName:  user.DisplayName,
		PhotoURL:     user.PhotoURL,
		TwitterURL:   user.TwitterURL,
		InstagramURL: user.InstagramURL,
		GithubURL:    user.GithubURL,
		Created:      created,
		Solved:       solved,
	}, nil
}

// UserSummary backs the admin user listing.
type UserSummary struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	PuzzleCount int64  `json:"puzzleCount"`
}

func (s *UserService) ListSummaries() ([]UserSummary, error) {
	users, err := s.UserRepo.ListAll()
	if err != nil {
		return nil, err
	}

	summaries := make([]UserSummary, 0, len(users))
	for _, u := range users {
		count, err := s.PuzzleRepo.CountByCreator(u.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, UserSummary{
			ID:          u.ID,
			Email:       u.Email,
			DisplayName: u.DisplayName,
			Role:        string(u.Role),
			PuzzleCount: count,
		})
	}
	return summaries, nil
}
