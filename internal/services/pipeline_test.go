package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/learnproof-backend/internal/data/repos/testutil"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/modules/certificates/render"
	"github.com/yungbote/learnproof-backend/internal/modules/learning/grading"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/learnproof-backend/internal/pkg/errors"
)

// Learner passes the final exam at exactly the threshold, gets a
// certificate, verifies it, then fails a retake without losing anything.
func TestPipeline_PassAtThresholdThenFailedRetake(t *testing.T) {
	env := newTestEnv(t)
	u, c := env.learnerInCourse(nil)
	correct := zeros(10)
	exam, questions := testutil.SeedAssessment(t, env.ctx, env.db, types.SubjectCourse, c.ID, types.AssessmentExam, true, 70, correct)

	first, err := env.grader.Submit(env.ctx, u.ID, SubmissionRequest{
		Kind:         types.AssessmentExam,
		AssessmentID: exam.ID,
		Answers:      answersFor(questions, correct, 7),
	})
	if err != nil {
		t.Fatalf("Submit #1: %v", err)
	}
	if first.Score != 70.0 || !first.Passed {
		t.Fatalf("first attempt: want score=70.0 passed=true got score=%v passed=%v", first.Score, first.Passed)
	}
	if first.Correct != 7 || first.Total != 10 || len(first.Questions) != 10 {
		t.Fatalf("first attempt counts: correct=%d total=%d questions=%d", first.Correct, first.Total, len(first.Questions))
	}
	if first.Certificate == nil || first.CertificateError != "" {
		t.Fatalf("certificate: got=%v error=%q", first.Certificate, first.CertificateError)
	}
	hash := first.Certificate.Hash

	report := env.verifier.Verify(env.ctx, hash)
	if !report.Found || !report.ValidSignature || report.Score == nil || *report.Score != 70.0 {
		t.Fatalf("verify: got=%+v", report)
	}

	retake, err := env.grader.Submit(env.ctx, u.ID, SubmissionRequest{
		Kind:         types.AssessmentExam,
		AssessmentID: exam.ID,
		Answers:      answersFor(questions, correct, 5),
	})
	if err != nil {
		t.Fatalf("Submit #2: %v", err)
	}
	if retake.Score != 50.0 || retake.Passed {
		t.Fatalf("retake: want score=50.0 passed=false got score=%v passed=%v", retake.Score, retake.Passed)
	}
	if retake.Certificate != nil {
		t.Fatalf("retake must not touch certificates")
	}
	if !retake.Standing.Passed || retake.Standing.BestScore != 70.0 || retake.Standing.Attempts != 2 {
		t.Fatalf("standing: want passed at 70.0 after 2 attempts got=%+v", retake.Standing)
	}

	attempts, err := env.attempts.ListByUserAndAssessment(dbctx.Context{Ctx: env.ctx}, u.ID, exam.ID)
	if err != nil || len(attempts) != 2 {
		t.Fatalf("attempt rows: want=2 got=%d err=%v", len(attempts), err)
	}
	if n := env.certificateCount(types.SubjectCourse, u.ID); n != 1 {
		t.Fatalf("certificates: want=1 got=%d", n)
	}
	cert, err := env.certs.GetByPair(dbctx.Context{Ctx: env.ctx}, types.SubjectCourse, u.ID, c.ID)
	if err != nil || cert == nil || cert.Hash != hash || cert.Score != 70.0 {
		t.Fatalf("certificate changed: got=%+v err=%v", cert, err)
	}

	standing, err := env.grader.GetStanding(env.ctx, u.ID, exam.ID)
	if err != nil || !standing.Passed || standing.BestScore != 70.0 {
		t.Fatalf("GetStanding: got=%+v err=%v", standing, err)
	}
}

func TestPipeline_SecondPassDoesNotReissue(t *testing.T) {
	env := newTestEnv(t)
	u, c := env.learnerInCourse(nil)
	correct := zeros(4)
	exam, questions := testutil.SeedAssessment(t, env.ctx, env.db, types.SubjectCourse, c.ID, types.AssessmentExam, true, 50, correct)
	req := SubmissionRequest{Kind: types.AssessmentExam, AssessmentID: exam.ID, Answers: answersFor(questions, correct, 4)}

	if _, err := env.grader.Submit(env.ctx, u.ID, req); err != nil {
		t.Fatalf("Submit #1: %v", err)
	}
	second, err := env.grader.Submit(env.ctx, u.ID, req)
	if err != nil {
		t.Fatalf("Submit #2: %v", err)
	}
	if second.Certificate != nil {
		t.Fatalf("only the first passing attempt triggers issuance")
	}
	if env.browser.calls != 1 {
		t.Fatalf("renders: want=1 got=%d", env.browser.calls)
	}
}

func TestPipeline_IssuanceFailureKeepsAttemptAndCanBeRetried(t *testing.T) {
	env := newTestEnv(t)
	u, c := env.learnerInCourse(nil)
	correct := zeros(10)
	exam, questions := testutil.SeedAssessment(t, env.ctx, env.db, types.SubjectCourse, c.ID, types.AssessmentExam, true, 70, correct)
	env.browser.err = render.Errorf("print", "chrome crashed")

	out, err := env.grader.Submit(env.ctx, u.ID, SubmissionRequest{
		Kind:         types.AssessmentExam,
		AssessmentID: exam.ID,
		Answers:      answersFor(questions, correct, 9),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !out.Passed || out.Certificate != nil || out.CertificateError != CertificateFailedMessage {
		t.Fatalf("want passed attempt with certificate error, got passed=%v cert=%v error=%q", out.Passed, out.Certificate, out.CertificateError)
	}
	if n := env.certificateCount(types.SubjectCourse, u.ID); n != 0 {
		t.Fatalf("certificates: want=0 got=%d", n)
	}

	env.browser.err = nil
	res, err := env.issuer.IssueForLearner(env.ctx, u.ID, types.SubjectCourse, c.ID)
	if err != nil {
		t.Fatalf("IssueForLearner: %v", err)
	}
	if res.Certificate.Score != 90.0 {
		t.Fatalf("retried score: want=90.0 got=%v", res.Certificate.Score)
	}
}

func TestSubmit_QuizPassDoesNotIssue(t *testing.T) {
	env := newTestEnv(t)
	u, c := env.learnerInCourse(nil)
	correct := []int{0, 1, 2}
	quiz, questions := testutil.SeedAssessment(t, env.ctx, env.db, types.SubjectCourse, c.ID, types.AssessmentQuiz, false, 60, correct)

	out, err := env.grader.Submit(env.ctx, u.ID, SubmissionRequest{Kind: types.AssessmentQuiz, AssessmentID: quiz.ID, Answers: answersFor(questions, correct, 2)})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.Score != 66.7 || !out.Passed {
		t.Fatalf("quiz: want score=66.7 passed=true got score=%v passed=%v", out.Score, out.Passed)
	}
	if out.Certificate != nil || env.browser.calls != 0 {
		t.Fatalf("quiz pass must not issue a certificate")
	}
	if !out.Questions[0].Correct || out.Questions[2].Correct {
		t.Fatalf("per-question results: got=%+v", out.Questions)
	}
	if out.Questions[2].CorrectAnswerID != questions[2].Answers[2].ID {
		t.Fatalf("correct answer id: want=%s got=%s", questions[2].Answers[2].ID, out.Questions[2].CorrectAnswerID)
	}
}

func TestSubmit_Rejections(t *testing.T) {
	env := newTestEnv(t)
	u, c := env.learnerInCourse(nil)
	correct := zeros(3)
	exam, questions := testutil.SeedAssessment(t, env.ctx, env.db, types.SubjectCourse, c.ID, types.AssessmentExam, true, 70, correct)

	pending := testutil.SeedUser(t, env.ctx, env.db, "pending@example.com")
	testutil.SeedEnrollment(t, env.ctx, env.db, pending.ID, types.SubjectCourse, c.ID, types.EnrollmentPending)
	stranger := testutil.SeedUser(t, env.ctx, env.db, "stranger@example.com")

	full := answersFor(questions, correct, 3)
	cases := []struct {
		name   string
		userID uuid.UUID
		req    SubmissionRequest
		kind   apperr.Kind
		code   string
	}{
		{"incomplete", u.ID, SubmissionRequest{Kind: types.AssessmentExam, AssessmentID: exam.ID, Answers: full[:2]}, apperr.KindValidation, grading.CodeIncompleteSubmission},
		{"foreign answer", u.ID, SubmissionRequest{Kind: types.AssessmentExam, AssessmentID: exam.ID, Answers: []SubmittedAnswer{full[0], full[1], {QuestionID: full[2].QuestionID, AnswerID: full[0].AnswerID}}}, apperr.KindValidation, grading.CodeInvalidAnswer},
		{"no answers", u.ID, SubmissionRequest{Kind: types.AssessmentExam, AssessmentID: exam.ID}, apperr.KindValidation, CodeInvalidSubmission},
		{"bad kind tag", u.ID, SubmissionRequest{Kind: "survey", AssessmentID: exam.ID, Answers: full}, apperr.KindValidation, CodeInvalidSubmission},
		{"kind mismatch", u.ID, SubmissionRequest{Kind: types.AssessmentQuiz, AssessmentID: exam.ID, Answers: full}, apperr.KindValidation, CodeKindMismatch},
		{"pending enrollment", pending.ID, SubmissionRequest{Kind: types.AssessmentExam, AssessmentID: exam.ID, Answers: full}, apperr.KindValidation, CodeEnrollmentRequired},
		{"no enrollment", stranger.ID, SubmissionRequest{Kind: types.AssessmentExam, AssessmentID: exam.ID, Answers: full}, apperr.KindValidation, CodeEnrollmentRequired},
		{"unknown assessment", u.ID, SubmissionRequest{Kind: types.AssessmentExam, AssessmentID: uuid.New(), Answers: full}, apperr.KindNotFound, "assessment_not_found"},
	}
	for _, tc := range cases {
		_, err := env.grader.Submit(env.ctx, tc.userID, tc.req)
		if apperr.KindOf(err) != tc.kind || apperr.CodeOf(err) != tc.code {
			t.Fatalf("%s: want kind=%s code=%s got=%v", tc.name, tc.kind, tc.code, err)
		}
	}

	for _, id := range []uuid.UUID{u.ID, pending.ID, stranger.ID} {
		attempts, err := env.attempts.ListByUserAndAssessment(dbctx.Context{Ctx: env.ctx}, id, exam.ID)
		if err != nil || len(attempts) != 0 {
			t.Fatalf("rejected submissions must not be recorded: got=%d err=%v", len(attempts), err)
		}
	}
}
