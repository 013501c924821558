package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/gcek-placements/placement-portal/internal/repository"
	"github.com/gcek-placements/placement-portal/internal/service/integration"
)

// In-memory fakes for the repository and integration interfaces.

type fakeAccountRepo struct {
	mu         sync.Mutex
	byEmail    map[string]*models.Account
	failCreate error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{byEmail: make(map[string]*models.Account)}
}

func (r *fakeAccountRepo) Create(_ context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	if _, ok := r.byEmail[account.Email]; ok {
		return errors.New("duplicate key value violates unique constraint")
	}
	r.byEmail[account.Email] = account
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byEmail {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEmail[email], nil
}

func (r *fakeAccountRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *fakeAccountRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, a := range r.byEmail {
		if a.ID == id {
			delete(r.byEmail, email)
			return nil
		}
	}
	return nil
}

func (r *fakeAccountRepo) RegistrationStats(_ context.Context) ([]models.RegistrationStat, error) {
	return nil, nil
}

type fakeTestRepo struct {
	mu    sync.Mutex
	tests map[string]*models.Test
}

func newFakeTestRepo() *fakeTestRepo {
	return &fakeTestRepo{tests: make(map[string]*models.Test)}
}

func (r *fakeTestRepo) Create(_ context.Context, test *models.Test) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tests[test.ID] = test
	return nil
}

func (r *fakeTestRepo) Update(_ context.Context, test *models.Test) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tests[test.ID] = test
	return nil
}

func (r *fakeTestRepo) GetByID(_ context.Context, id string) (*models.Test, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tests[id], nil
}

func (r *fakeTestRepo) ListAvailable(_ context.Context, now time.Time, limit, offset int) ([]models.TestWithStats, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TestWithStats
	for _, t := range r.tests {
		if t.AvailableAt(now) {
			out = append(out, models.TestWithStats{
				Test:          *t,
				QuestionCount: len(t.Questions),
				TotalMarks:    t.TotalMarks(),
			})
		}
	}
	return out, len(out), nil
}

func (r *fakeTestRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tests, id)
	return nil
}

func (r *fakeTestRepo) Exists(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tests[id]
	return ok, nil
}

func (r *fakeTestRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tests), nil
}

type fakeAttemptRepo struct {
	mu              sync.Mutex
	attempts        map[string]*models.Attempt
	results         *fakeResultRepo
	failResultWrite error
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{attempts: make(map[string]*models.Attempt)}
}

func (r *fakeAttemptRepo) Create(_ context.Context, attempt *models.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *attempt
	r.attempts[attempt.ID] = &copied
	return nil
}

func (r *fakeAttemptRepo) GetByID(_ context.Context, id string) (*models.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.attempts[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeAttemptRepo) GetByStudentAndTest(_ context.Context, studentID, testID string) (*models.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.StudentID == studentID && a.TestID == testID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeAttemptRepo) UpdateAnswers(_ context.Context, id string, answers []*int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.attempts[id]; ok && a.Status == models.AttemptStatusRunning {
		a.Answers = answers
	}
	return nil
}

// Finalize mirrors the transactional repository: the status flip and the
// result write either both land or neither does.
func (r *fakeAttemptRepo) Finalize(ctx context.Context, id string, status models.AttemptStatus, finalizedAt time.Time, result *models.Result) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok || a.Status != models.AttemptStatusRunning {
		return false, nil
	}
	if r.failResultWrite != nil {
		err := r.failResultWrite
		r.failResultWrite = nil
		return false, err
	}
	if r.results != nil {
		if err := r.results.Create(ctx, result); err != nil {
			return false, err
		}
	}
	a.Status = status
	a.Score = &result.Score
	a.FinalizedAt = &finalizedAt
	return true, nil
}

func (r *fakeAttemptRepo) ListOverdue(_ context.Context, now time.Time, limit int) ([]models.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Attempt
	for _, a := range r.attempts {
		if a.Overdue(now) && len(out) < limit {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAttemptRepo) ExistsByTest(_ context.Context, testID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.TestID == testID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAttemptRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts), nil
}

type fakeResultRepo struct {
	mu        sync.Mutex
	byAttempt map[string]*models.Result
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{byAttempt: make(map[string]*models.Result)}
}

func (r *fakeResultRepo) Create(_ context.Context, result *models.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byAttempt[result.AttemptID]; ok {
		return errors.New("duplicate key value violates unique constraint")
	}
	r.byAttempt[result.AttemptID] = result
	return nil
}

func (r *fakeResultRepo) GetByID(_ context.Context, id string) (*models.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.byAttempt {
		if res.ID == id {
			return res, nil
		}
	}
	return nil, nil
}

func (r *fakeResultRepo) GetByAttemptID(_ context.Context, attemptID string) (*models.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byAttempt[attemptID], nil
}

type fakeSessionCache struct {
	mu        sync.Mutex
	tickets   map[string]string
	deadlines map[string]time.Time
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{
		tickets:   make(map[string]string),
		deadlines: make(map[string]time.Time),
	}
}

func (c *fakeSessionCache) SetTicket(_ context.Context, email, ticketID string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickets[email] = ticketID
	return nil
}

func (c *fakeSessionCache) GetTicket(_ context.Context, email string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.tickets[email]
	if !ok {
		return "", repository.ErrCacheMiss
	}
	return id, nil
}

func (c *fakeSessionCache) DeleteTicket(_ context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tickets, email)
	return nil
}

func (c *fakeSessionCache) SetAttemptDeadline(_ context.Context, attemptID string, deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadlines[attemptID] = deadline
	return nil
}

func (c *fakeSessionCache) GetAttemptDeadline(_ context.Context, attemptID string) (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.deadlines[attemptID]
	if !ok {
		return time.Time{}, repository.ErrCacheMiss
	}
	return d, nil
}

func (c *fakeSessionCache) DeleteAttempt(_ context.Context, attemptID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.deadlines, attemptID)
	return nil
}

func (c *fakeSessionCache) Ping(_ context.Context) error { return nil }
func (c *fakeSessionCache) Close() error                 { return nil }

type fakeMailSender struct {
	mu   sync.Mutex
	sent []string
}

func (m *fakeMailSender) Send(to, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

type fakeIdentityClient struct {
	mu         sync.Mutex
	nextUID    int
	duplicates bool
	deleted    []string
}

func (c *fakeIdentityClient) CreateUser(_ context.Context, email, _ string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.duplicates {
		return "", integration.ErrDuplicateEmail
	}
	c.nextUID++
	return email + "-uid", nil
}

func (c *fakeIdentityClient) DeleteUser(_ context.Context, uid string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, uid)
	return nil
}

func (c *fakeIdentityClient) VerifyToken(_ context.Context, _ string) (*integration.Identity, error) {
	return nil, integration.ErrInvalidToken
}

type fakePublisher struct {
	mu               sync.Mutex
	finalizedEvents  []*models.AttemptFinalizedEvent
	registeredEvents []*models.RegistrationCompletedEvent
}

func (p *fakePublisher) PublishAttemptFinalized(_ context.Context, event *models.AttemptFinalizedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finalizedEvents = append(p.finalizedEvents, event)
	return nil
}

func (p *fakePublisher) PublishRegistrationCompleted(_ context.Context, event *models.RegistrationCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registeredEvents = append(p.registeredEvents, event)
	return nil
}

func (p *fakePublisher) finalizedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.finalizedEvents)
}
