// Package grading scores a submission against an assessment's answer key.
// It is pure: callers load the questions and persist the result.
package grading

import (
	"math"

	"github.com/google/uuid"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	apperr "github.com/yungbote/learnproof-backend/internal/pkg/errors"
)

const (
	CodeIncompleteSubmission = "incomplete_submission"
	CodeInvalidAnswer        = "invalid_answer"
	CodeEmptyAssessment      = "empty_assessment"
)

type Answer struct {
	QuestionID uuid.UUID `json:"question_id"`
	AnswerID   uuid.UUID `json:"answer_id"`
}

type QuestionResult struct {
	QuestionID      uuid.UUID `json:"question_id"`
	Correct         bool      `json:"correct"`
	CorrectAnswerID uuid.UUID `json:"correct_answer_id"`
}

type Result struct {
	Score     float64          `json:"score"`
	Passed    bool             `json:"passed"`
	Correct   int              `json:"correct"`
	Total     int              `json:"total"`
	Questions []QuestionResult `json:"questions"`
}

// Grade requires exactly one answer per question. Any missing, duplicate or
// foreign answer fails the whole submission; nothing is partially graded.
func Grade(questions []*types.Question, answers []Answer, passingScore float64) (Result, error) {
	const op = "grading.Grade"
	if len(questions) == 0 {
		return Result{}, apperr.Validation(op, CodeEmptyAssessment, "assessment has no questions")
	}

	chosen := make(map[uuid.UUID]uuid.UUID, len(answers))
	for _, a := range answers {
		if _, dup := chosen[a.QuestionID]; dup {
			return Result{}, apperr.Validation(op, CodeInvalidAnswer, "question %s answered more than once", a.QuestionID)
		}
		chosen[a.QuestionID] = a.AnswerID
	}

	known := make(map[uuid.UUID]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}
	for qid := range chosen {
		if _, ok := known[qid]; !ok {
			return Result{}, apperr.Validation(op, CodeInvalidAnswer, "question %s is not part of this assessment", qid)
		}
	}
	if len(chosen) < len(questions) {
		return Result{}, apperr.Validation(op, CodeIncompleteSubmission, "answered %d of %d questions", len(chosen), len(questions))
	}

	res := Result{Total: len(questions), Questions: make([]QuestionResult, 0, len(questions))}
	for _, q := range questions {
		answerID := chosen[q.ID]
		correctID, belongs := answerKey(q, answerID)
		if !belongs {
			return Result{}, apperr.Validation(op, CodeInvalidAnswer, "answer %s does not belong to question %s", answerID, q.ID)
		}
		ok := answerID == correctID
		if ok {
			res.Correct++
		}
		res.Questions = append(res.Questions, QuestionResult{
			QuestionID:      q.ID,
			Correct:         ok,
			CorrectAnswerID: correctID,
		})
	}

	res.Score = Percentage(res.Correct, res.Total)
	res.Passed = res.Score >= passingScore
	return res, nil
}

// answerKey returns the correct option of q and whether answerID is one of
// q's options.
func answerKey(q *types.Question, answerID uuid.UUID) (uuid.UUID, bool) {
	var correct uuid.UUID
	belongs := false
	for _, opt := range q.Answers {
		if opt.IsCorrect && correct == uuid.Nil {
			correct = opt.ID
		}
		if opt.ID == answerID {
			belongs = true
		}
	}
	return correct, belongs
}

// Percentage is 100*part/total rounded to one decimal; 0 when total is 0.
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round1(100 * float64(part) / float64(total))
}

// Round1 rounds half away from zero to one decimal place.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}
