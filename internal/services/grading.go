package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/learnproof-backend/internal/data/repos"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/modules/learning/grading"
	"github.com/yungbote/learnproof-backend/internal/observability"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/learnproof-backend/internal/pkg/errors"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
)

const (
	CodeInvalidSubmission = "invalid_submission"
	CodeKindMismatch      = "kind_mismatch"

	// CertificateFailedMessage is what learners see when issuance fails after
	// a passing attempt; details stay in the logs.
	CertificateFailedMessage = "certificate generation failed, try again later"
)

// SubmissionRequest is the tagged submission payload. Kind must match the
// stored assessment.
type SubmissionRequest struct {
	Kind         types.AssessmentKind `json:"kind" validate:"required,oneof=quiz exam"`
	AssessmentID uuid.UUID            `json:"assessment_id" validate:"required"`
	Answers      []SubmittedAnswer    `json:"answers" validate:"required,min=1,dive"`
}

type SubmittedAnswer struct {
	QuestionID uuid.UUID `json:"question_id" validate:"required"`
	AnswerID   uuid.UUID `json:"answer_id" validate:"required"`
}

type Standing struct {
	AssessmentID uuid.UUID `json:"assessment_id"`
	Attempts     int       `json:"attempts"`
	Passed       bool      `json:"passed"`
	BestScore    float64   `json:"best_score"`
}

type SubmissionResult struct {
	AttemptID uuid.UUID                `json:"attempt_id"`
	Score     float64                  `json:"score"`
	Passed    bool                     `json:"passed"`
	Correct   int                      `json:"correct"`
	Total     int                      `json:"total"`
	Questions []grading.QuestionResult `json:"questions"`
	Standing  Standing                 `json:"standing"`

	Certificate      *types.Certificate `json:"certificate,omitempty"`
	CertificateError string             `json:"certificate_error,omitempty"`
}

type GradingService interface {
	Submit(ctx context.Context, userID uuid.UUID, req SubmissionRequest) (*SubmissionResult, error)
	GetStanding(ctx context.Context, userID, assessmentID uuid.UUID) (*Standing, error)
}

type gradingService struct {
	log         *logger.Logger
	validate    *validator.Validate
	enrollments repos.EnrollmentRepo
	assessments repos.AssessmentRepo
	attempts    repos.AttemptRepo
	issuer      CertificateIssuer
}

func NewGradingService(
	baseLog *logger.Logger,
	validate *validator.Validate,
	enrollments repos.EnrollmentRepo,
	assessments repos.AssessmentRepo,
	attempts repos.AttemptRepo,
	issuer CertificateIssuer,
) GradingService {
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return &gradingService{
		log:         baseLog.With("service", "GradingService"),
		validate:    validate,
		enrollments: enrollments,
		assessments: assessments,
		attempts:    attempts,
		issuer:      issuer,
	}
}

func (s *gradingService) Submit(ctx context.Context, userID uuid.UUID, req SubmissionRequest) (*SubmissionResult, error) {
	const op = "grading.Submit"
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Validation(op, CodeInvalidSubmission, "%s", describeValidation(err))
	}
	dbc := dbctx.Context{Ctx: ctx}

	assessment, err := s.assessments.GetByID(dbc, req.AssessmentID)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	if assessment == nil {
		return nil, apperr.NotFound(op, "assessment_not_found")
	}
	if assessment.Kind != req.Kind {
		return nil, apperr.Validation(op, CodeKindMismatch, "submitted as %s but assessment is %s", req.Kind, assessment.Kind)
	}
	if err := requireApprovedEnrollment(dbc, s.enrollments, op, userID, assessment.SubjectKind, assessment.SubjectID); err != nil {
		return nil, err
	}

	questions, err := s.assessments.GetQuestionsWithAnswers(dbc, assessment.ID)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	answers := make([]grading.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, grading.Answer{QuestionID: a.QuestionID, AnswerID: a.AnswerID})
	}
	graded, err := grading.Grade(questions, answers, assessment.PassingScore)
	if err != nil {
		return nil, err
	}

	// Looked up before the insert so only the transition into "passed"
	// triggers issuance.
	passedBefore, err := s.attempts.HasPassed(dbc, userID, assessment.ID)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}

	raw, err := json.Marshal(answerMap(req.Answers))
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}
	attempt := &types.Attempt{
		UserID:       userID,
		AssessmentID: assessment.ID,
		Answers:      datatypes.JSON(raw),
		Score:        graded.Score,
		Passed:       graded.Passed,
	}
	if err := s.attempts.Create(dbc, attempt); err != nil {
		return nil, apperr.Storage(op, err)
	}
	s.log.Info("Attempt graded",
		"user_id", userID,
		"assessment_id", assessment.ID,
		"score", graded.Score,
		"passed", graded.Passed,
	)
	outcome := "failed"
	if graded.Passed {
		outcome = "passed"
	}
	observability.Current().IncSubmission(string(assessment.Kind), outcome)

	out := &SubmissionResult{
		AttemptID: attempt.ID,
		Score:     graded.Score,
		Passed:    graded.Passed,
		Correct:   graded.Correct,
		Total:     graded.Total,
		Questions: graded.Questions,
	}

	if graded.Passed && !passedBefore && assessment.IssuesCertificate() && s.issuer != nil {
		res, err := s.issuer.Issue(ctx, IssueRequest{
			UserID:      userID,
			SubjectKind: assessment.SubjectKind,
			SubjectID:   assessment.SubjectID,
			Score:       graded.Score,
		})
		if err != nil {
			// the attempt stays; POST /api/certificates/issue retries
			s.log.Error("Certificate issuance failed after passing attempt",
				"user_id", userID,
				"assessment_id", assessment.ID,
				"error", err,
			)
			out.CertificateError = CertificateFailedMessage
		} else {
			out.Certificate = res.Certificate
		}
	}

	standing, err := s.GetStanding(ctx, userID, assessment.ID)
	if err != nil {
		return nil, err
	}
	out.Standing = *standing
	return out, nil
}

// GetStanding reports the learner's best score and whether any attempt has
// passed. A later failing attempt never downgrades it.
func (s *gradingService) GetStanding(ctx context.Context, userID, assessmentID uuid.UUID) (*Standing, error) {
	const op = "grading.GetStanding"
	attempts, err := s.attempts.ListByUserAndAssessment(dbctx.Context{Ctx: ctx}, userID, assessmentID)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	st := &Standing{AssessmentID: assessmentID, Attempts: len(attempts)}
	for _, a := range attempts {
		if a.Passed {
			st.Passed = true
		}
		if a.Score > st.BestScore {
			st.BestScore = a.Score
		}
	}
	return st, nil
}

func answerMap(answers []SubmittedAnswer) map[string]string {
	out := make(map[string]string, len(answers))
	for _, a := range answers {
		out[a.QuestionID.String()] = a.AnswerID.String()
	}
	return out
}

// describeValidation flattens validator errors into "field:tag" pairs.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Namespace()+":"+fe.Tag())
	}
	return strings.Join(parts, ", ")
}
