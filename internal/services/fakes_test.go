package services

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	redisclient "github.com/yungbote/learnproof-backend/internal/clients/redis"
	"github.com/yungbote/learnproof-backend/internal/data/repos"
	"github.com/yungbote/learnproof-backend/internal/data/repos/testutil"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/modules/certificates/render"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
)

const (
	testSecret    = "test-certificate-secret"
	testVerifyURL = "https://learnproof.test"
	fakePDF       = "%PDF-1.4 synthesized"
)

type fakeBlobStore struct {
	mu        sync.Mutex
	prefix    string
	objects   map[string][]byte
	putErr    error
	getErr    error
	deleteErr error
	puts      int
	deletes   int
	gets      []string
	keys      []string
}

func newFakeBlobStore(prefix string) *fakeBlobStore {
	return &fakeBlobStore{prefix: prefix, objects: map[string][]byte{}}
}

func (f *fakeBlobStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.putErr != nil {
		return "", f.putErr
	}
	url := f.prefix + key
	f.objects[url] = append([]byte(nil), data...)
	f.keys = append(f.keys, key)
	return url, nil
}

func (f *fakeBlobStore) Get(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, url)
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[url]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", url, ErrBlobNotFound)
	}
	return data, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, url)
	return nil
}

func (f *fakeBlobStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func (f *fakeBlobStore) lastGet() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.gets) == 0 {
		return ""
	}
	return f.gets[len(f.gets)-1]
}

type fakeBrowser struct {
	mu       sync.Mutex
	calls    int
	err      error
	lastHTML string

	// when set, PrintPDF signals started and holds until release is closed
	started chan struct{}
	release chan struct{}
}

func (f *fakeBrowser) PrintPDF(ctx context.Context, html string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.lastHTML = html
	started, release, err := f.started, f.release, f.err
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return []byte(fakePDF), nil
}

type fakeConverter struct {
	mu       sync.Mutex
	calls    int
	err      error
	lastDocx []byte
}

func (f *fakeConverter) Convert(ctx context.Context, docx []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastDocx = docx
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7 converted"), nil
}

type fakeLocator struct {
	mu    sync.Mutex
	kinds map[string]types.SubjectKind
	sets  int
}

func newFakeLocator() *fakeLocator {
	return &fakeLocator{kinds: map[string]types.SubjectKind{}}
}

func (f *fakeLocator) GetKind(ctx context.Context, hash string) (types.SubjectKind, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, ok := f.kinds[hash]
	return k, ok, nil
}

func (f *fakeLocator) SetKind(ctx context.Context, hash string, kind types.SubjectKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.kinds[hash] = kind
	return nil
}

func (f *fakeLocator) Close() error { return nil }

var _ redisclient.VerificationCache = (*fakeLocator)(nil)

// testEnv wires the services over an isolated sqlite database with fake
// blob stores and renderers.
type testEnv struct {
	t   *testing.T
	ctx context.Context
	db  *gorm.DB

	users       repos.UserRepo
	subjects    repos.SubjectRepo
	enrollments repos.EnrollmentRepo
	lessons     repos.LessonRepo
	progress    repos.LessonProgressRepo
	assessments repos.AssessmentRepo
	attempts    repos.AttemptRepo
	certs       repos.CertificateRepo
	templates   repos.TemplateRepo

	certBlobs     *fakeBlobStore
	templateBlobs *fakeBlobStore
	browser       *fakeBrowser
	converter     *fakeConverter
	locator       *fakeLocator

	issuer   *certificateIssuer
	verifier VerificationService
	grader   GradingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.FreshDB(t)
	log := testutil.Logger(t)
	env := &testEnv{
		t:             t,
		ctx:           context.Background(),
		db:            db,
		users:         repos.NewUserRepo(db, log),
		subjects:      repos.NewSubjectRepo(db, log),
		enrollments:   repos.NewEnrollmentRepo(db, log),
		lessons:       repos.NewLessonRepo(db, log),
		progress:      repos.NewLessonProgressRepo(db, log),
		assessments:   repos.NewAssessmentRepo(db, log),
		attempts:      repos.NewAttemptRepo(db, log),
		certs:         repos.NewCertificateRepo(db, log),
		templates:     repos.NewTemplateRepo(db, log),
		certBlobs:     newFakeBlobStore("https://cdn.test/"),
		templateBlobs: newFakeBlobStore("https://templates.test/"),
		browser:       &fakeBrowser{},
		converter:     &fakeConverter{},
		locator:       newFakeLocator(),
	}
	env.rebuild()
	return env
}

// rebuild re-creates the services after a test swaps a dependency.
func (e *testEnv) rebuild() {
	log := testutil.Logger(e.t)
	e.issuer = NewCertificateIssuer(log, CertificateIssuerConfig{
		Secret:        testSecret,
		VerifyBaseURL: testVerifyURL,
	}, CertificateIssuerDeps{
		DB:               e.db,
		Users:            e.users,
		Subjects:         e.subjects,
		Certificates:     e.certs,
		Templates:        e.templates,
		Attempts:         e.attempts,
		Documents:        render.NewTemplateRenderer(e.converter),
		Pages:            render.NewSynthesizedRenderer(e.browser),
		CertificateBlobs: e.certBlobs,
		TemplateBlobs:    e.templateBlobs,
		Locator:          e.locator,
	}).(*certificateIssuer)
	e.verifier = NewVerificationService(log, testSecret, e.certs, e.users, e.subjects, e.locator)
	e.grader = NewGradingService(log, nil, e.enrollments, e.assessments, e.attempts, e.issuer)
}

// learnerInCourse seeds a learner with an approved enrollment in a fresh
// course owned by orgID.
func (e *testEnv) learnerInCourse(orgID *uuid.UUID) (*types.User, *types.Course) {
	e.t.Helper()
	u := testutil.SeedUser(e.t, e.ctx, e.db, uuid.NewString()+"@example.com")
	c := testutil.SeedCourse(e.t, e.ctx, e.db, orgID)
	testutil.SeedEnrollment(e.t, e.ctx, e.db, u.ID, types.SubjectCourse, c.ID, types.EnrollmentApproved)
	return u, c
}

func (e *testEnv) certificateCount(kind types.SubjectKind, userID uuid.UUID) int {
	e.t.Helper()
	rows, err := e.certs.ListByUser(dbctx.Context{Ctx: e.ctx}, userID)
	if err != nil {
		e.t.Fatalf("ListByUser: %v", err)
	}
	n := 0
	for _, r := range rows {
		if r.Kind == kind {
			n++
		}
	}
	return n
}

// answersFor answers the first nCorrect questions right and the rest wrong.
// Seeded questions have three options; correct[i] names the right one.
func answersFor(questions []*types.Question, correct []int, nCorrect int) []SubmittedAnswer {
	out := make([]SubmittedAnswer, 0, len(questions))
	for i, q := range questions {
		pick := correct[i]
		if i >= nCorrect {
			pick = (correct[i] + 1) % len(q.Answers)
		}
		out = append(out, SubmittedAnswer{QuestionID: q.ID, AnswerID: q.Answers[pick].ID})
	}
	return out
}

func zeros(n int) []int { return make([]int, n) }

const templateDocumentXML = `<?xml version="1.0" encoding="UTF-8"?>` +
	`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
	`<w:p><w:r><w:t>MARKER</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>{{learner_</w:t></w:r><w:r><w:t>name}}</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>{{course_title}} {{score}} {{hash}}</w:t></w:r></w:p>` +
	`</w:body></w:document>`

func buildTemplateDocx(t *testing.T, marker string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := w.Write([]byte(strings.Replace(templateDocumentXML, "MARKER", marker, 1))); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}
