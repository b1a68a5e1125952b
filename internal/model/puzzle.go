package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type AnswerType string

const (
	AnswerKeyword AnswerType = "keyword"
	AnswerQRCode  AnswerType = "qrcode"
)

// StringList is a JSON-encoded text column holding the accepted answers.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = nil
		return nil
	default:
		return errors.New("unsupported type for StringList")
	}
}

// Puzzle is the central solvable entity. The accepted answers are write-only
// from the API's point of view: they are never serialized in responses.
//
// Solve-state invariant: once Solved is true, SolvedBy / SolvedByUID /
// SolvedAt are set and never change again. The false->true transition happens
// exactly once, inside SolveService's transaction.
type Puzzle struct {
	UUIDBase
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Location    string `gorm:"size:255" json:"location"`
	ImageURL    string `gorm:"size:512;not null" json:"imageUrl"`

	AnswerType AnswerType `gorm:"size:20;not null" json:"answerType"`
	// Answer is the canonical accepted answer; for qrcode puzzles it is the
	// opaque scan token. Answers holds every accepted spelling.
	Answer  string     `gorm:"size:255;not null" json:"-"`
	Answers StringList `gorm:"type:text" json:"-"`

	CreatorID   uint   `gorm:"index;type:bigint unsigned" json:"creatorId"`
	Creator     User   `gorm:"foreignKey:CreatorID" json:"-"`
	CreatorName string `gorm:"size:100" json:"creatorName"`

	Solved      bool       `gorm:"index;default:false" json:"solved"`
	SolvedBy    *string    `gorm:"size:100" json:"solvedBy"`
	SolvedByUID *uint      `gorm:"index;type:bigint unsigned" json:"solvedByUid"`
	SolvedAt    *time.Time `json:"solvedAt"`
}

func (Puzzle) TableName() string {
	return "puzzles"
}

// AcceptedAnswers returns the full accepted set, falling back to the
// canonical answer for documents written before the Answers column existed.
func (p *Puzzle) AcceptedAnswers() []string {
	if len(p.Answers) > 0 {
		return p.Answers
	}
	if p.Answer != "" {
		return []string{p.Answer}
	}
	return nil
}

// SolveEvent is the append-only record of a committed solve transition.
type SolveEvent struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PuzzleID   string    `gorm:"uniqueIndex;type:varchar(36);not null" json:"puzzleId"`
	SolverName string    `gorm:"size:100;not null" json:"solverName"`
	SolverUID  *uint     `gorm:"index;type:bigint unsigned" json:"solverUid"`
	SolvedAt   time.Time `gorm:"not null" json:"solvedAt"`
}

func (SolveEvent) TableName() string {
	return "solve_events"
}
