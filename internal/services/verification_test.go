package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/learnproof-backend/internal/data/repos"
	"github.com/yungbote/learnproof-backend/internal/data/repos/testutil"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
)

func TestVerify_RoundTripAndTamperDetection(t *testing.T) {
	env := newTestEnv(t)
	u, c := env.learnerInCourse(nil)
	res, err := env.issuer.Issue(env.ctx, IssueRequest{UserID: u.ID, SubjectKind: types.SubjectCourse, SubjectID: c.ID, Score: 70})
	require.NoError(t, err)
	hash := res.Certificate.Hash

	report := env.verifier.Verify(env.ctx, "  "+strings.ToLower(hash)+" ")
	require.True(t, report.Found)
	assert.True(t, report.ValidSignature)
	assert.Equal(t, hash, report.Hash)
	assert.Equal(t, "Ada Lovelace", report.LearnerName)
	assert.Equal(t, "Intro to Safety", report.AssessableTitle)
	require.NotNil(t, report.Score)
	assert.Equal(t, 70.0, *report.Score)
	require.NotNil(t, report.IssueDate)

	err = env.db.Model(&types.CourseCertificate{}).Where("hash = ?", hash).Update("score", 95.0).Error
	require.NoError(t, err)

	tampered := env.verifier.Verify(env.ctx, hash)
	require.True(t, tampered.Found)
	assert.False(t, tampered.ValidSignature)
	assert.Equal(t, 95.0, *tampered.Score)
}

func TestVerify_TrainingCertificateAndLocator(t *testing.T) {
	env := newTestEnv(t)
	org := testutil.SeedOrganization(t, env.ctx, env.db, "Acme")
	u := testutil.SeedUser(t, env.ctx, env.db, "trainee@example.com")
	tr := testutil.SeedTraining(t, env.ctx, env.db, org.ID)

	res, err := env.issuer.Issue(env.ctx, IssueRequest{UserID: u.ID, SubjectKind: types.SubjectTraining, SubjectID: tr.ID, Score: 100})
	require.NoError(t, err)
	hash := res.Certificate.Hash

	// a wrong cached kind only costs a second lookup
	env.locator.kinds[hash] = types.SubjectCourse
	report := env.verifier.Verify(env.ctx, hash)
	require.True(t, report.Found)
	assert.True(t, report.ValidSignature)
	assert.Equal(t, types.SubjectTraining, report.SubjectKind)
	assert.Equal(t, "Forklift Operation", report.AssessableTitle)
	assert.Equal(t, types.SubjectTraining, env.locator.kinds[hash])

	// and an empty cache falls back to probing both tables
	delete(env.locator.kinds, hash)
	report = env.verifier.Verify(env.ctx, hash)
	require.True(t, report.Found)
	assert.Equal(t, types.SubjectTraining, env.locator.kinds[hash])
}

type erroringCertRepo struct {
	repos.CertificateRepo
}

func (r erroringCertRepo) GetByHash(dbc dbctx.Context, kind types.SubjectKind, hash string) (*types.Certificate, error) {
	return nil, errors.New("connection refused")
}

func TestVerify_NotFoundAndInternalErrorsLookTheSame(t *testing.T) {
	env := newTestEnv(t)
	u, c := env.learnerInCourse(nil)
	res, err := env.issuer.Issue(env.ctx, IssueRequest{UserID: u.ID, SubjectKind: types.SubjectCourse, SubjectID: c.ID, Score: 70})
	require.NoError(t, err)

	unknown := env.verifier.Verify(env.ctx, "0123456789ABCDEF")
	garbage := env.verifier.Verify(env.ctx, "not-a-hash'; DROP TABLE")
	empty := env.verifier.Verify(env.ctx, "")

	env.certs = erroringCertRepo{env.certs}
	env.rebuild()
	failing := env.verifier.Verify(env.ctx, res.Certificate.Hash)

	want := &VerificationReport{}
	for name, got := range map[string]*VerificationReport{
		"unknown": unknown,
		"garbage": garbage,
		"empty":   empty,
		"failing": failing,
	} {
		assert.Equal(t, want, got, name)
	}
}

func TestVerify_OrphanedCertificateIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	testutil.SeedCertificate(t, env.ctx, env.db, types.SubjectCourse, uuid.New(), uuid.New(), "BBBBBBBBBBBBBBBB")

	report := env.verifier.Verify(env.ctx, "BBBBBBBBBBBBBBBB")
	assert.Equal(t, &VerificationReport{}, report)
}
