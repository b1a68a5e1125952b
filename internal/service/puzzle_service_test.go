package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"takarawalk_backend/internal/config"
	"takarawalk_backend/internal/model"
	"takarawalk_backend/internal/repository"
	"takarawalk_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPuzzleService(t *testing.T) *PuzzleService {
	t.Helper()

	db := setupTestDB(t)
	cfg := &config.Config{}
	cfg.Storage.Type = "local"
	cfg.Storage.LocalPath = t.TempDir()

	repo := repository.NewPuzzleRepository(db)
	return NewPuzzleService(repo, NewStorageService(cfg), cfg)
}

func creatorClaims(uid uint) *util.Claims {
	return &util.Claims{UserID: uid, Role: model.RoleUser, DisplayName: "maker"}
}

func keywordRequest(answers ...string) CreatePuzzleRequest {
	return CreatePuzzleRequest{
		Title:      "station mural",
		AnswerType: model.AnswerKeyword,
		Answers:    answers,
	}
}

func testImage() (*strings.Reader, int64) {
	data := "fake-image-bytes"
	return strings.NewReader(data), int64(len(data))
}

func TestPuzzleService_CreateKeyword(t *testing.T) {
	s := newTestPuzzleService(t)
	img, size := testImage()

	created, err := s.Create(context.Background(), creatorClaims(1), keywordRequest(" tokyo ", "", "Tokyo Tower"), img, size, "mural.jpg", "image/jpeg")
	require.NoError(t, err)

	p := created.Puzzle
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "tokyo", p.Answer, "blank entries dropped, spellings trimmed")
	assert.Equal(t, model.StringList{"tokyo", "Tokyo Tower"}, p.Answers)
	assert.Equal(t, "maker", p.CreatorName)
	assert.False(t, p.Solved)
	assert.Contains(t, p.ImageURL, "/uploads/puzzles/")
	assert.Equal(t, fmt.Sprintf("/puzzle/%s", p.ID), created.SolveURL)
}

func TestPuzzleService_CreateKeywordValidation(t *testing.T) {
	s := newTestPuzzleService(t)

	img, size := testImage()
	_, err := s.Create(context.Background(), creatorClaims(1), keywordRequest("  ", ""), img, size, "a.jpg", "image/jpeg")
	assert.ErrorIs(t, err, util.ErrNoAnswers)

	many := make([]string, 11)
	for i := range many {
		many[i] = fmt.Sprintf("answer%d", i)
	}
	img, size = testImage()
	_, err = s.Create(context.Background(), creatorClaims(1), keywordRequest(many...), img, size, "a.jpg", "image/jpeg")
	assert.ErrorIs(t, err, util.ErrTooManyAnswers)

	img, size = testImage()
	req := keywordRequest("tokyo")
	req.Title = "  "
	_, err = s.Create(context.Background(), creatorClaims(1), req, img, size, "a.jpg", "image/jpeg")
	assert.Error(t, err)

	_, err = s.Create(context.Background(), creatorClaims(1), keywordRequest("tokyo"), nil, 0, "", "")
	assert.ErrorIs(t, err, util.ErrMissingImage)
}

func TestPuzzleService_CreateQRCodeIssuesToken(t *testing.T) {
	s := newTestPuzzleService(t)
	img, size := testImage()

	req := CreatePuzzleRequest{Title: "hidden plaque", AnswerType: model.AnswerQRCode}
	created, err := s.Create(context.Background(), creatorClaims(1), req, img, size, "plaque.png", "image/png")
	require.NoError(t, err)

	p := created.Puzzle
	assert.Len(t, p.Answer, util.TokenLength)
	assert.Equal(t, fmt.Sprintf("/puzzle/%s?token=%s", p.ID, p.Answer), created.SolveURL)

	// The creator can re-derive the same URL later.
	url, err := s.SolveURLForCreator(creatorClaims(1), p.ID)
	require.NoError(t, err)
	assert.Equal(t, created.SolveURL, url)

	_, err = s.SolveURLForCreator(creatorClaims(2), p.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestPuzzleService_UpdateRules(t *testing.T) {
	s := newTestPuzzleService(t)
	img, size := testImage()
	created, err := s.Create(context.Background(), creatorClaims(1), keywordRequest("tokyo"), img, size, "a.jpg", "image/jpeg")
	require.NoError(t, err)
	id := created.Puzzle.ID

	upd := UpdatePuzzleRequest{Title: "new title", Description: "desc", Location: "shibuya"}

	_, err = s.Update(creatorClaims(2), id, upd)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	p, err := s.Update(creatorClaims(1), id, upd)
	require.NoError(t, err)
	assert.Equal(t, "new title", p.Title)
	assert.Equal(t, "shibuya", p.Location)

	// A solved puzzle is frozen.
	require.NoError(t, s.Repo.UpdateFields(id, map[string]interface{}{"solved": true}))
	_, err = s.Update(creatorClaims(1), id, upd)
	assert.ErrorIs(t, err, util.ErrEditLocked)
}

func TestPuzzleService_DeleteRules(t *testing.T) {
	s := newTestPuzzleService(t)
	img, size := testImage()
	created, err := s.Create(context.Background(), creatorClaims(1), keywordRequest("tokyo"), img, size, "a.jpg", "image/jpeg")
	require.NoError(t, err)
	id := created.Puzzle.ID

	err = s.Delete(context.Background(), creatorClaims(2), id)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	admin := &util.Claims{UserID: 99, Role: model.RoleAdmin}
	require.NoError(t, s.Delete(context.Background(), admin, id))

	_, err = s.Get(id)
	assert.ErrorIs(t, err, util.ErrPuzzleNotFound)
}
