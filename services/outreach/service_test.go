package outreach

import (
	"context"
	"sync"
	"testing"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/notification"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockSubscriberRepository struct {
	mock.Mock
}

func (m *MockSubscriberRepository) Create(ctx context.Context, sub *models.Subscriber) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *MockSubscriberRepository) GetByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	args := m.Called(ctx, email)
	if s := args.Get(0); s != nil {
		return s.(*models.Subscriber), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubscriberRepository) List(ctx context.Context, params repositories.ListParams) ([]*models.Subscriber, error) {
	args := m.Called(ctx, params)
	if s := args.Get(0); s != nil {
		return s.([]*models.Subscriber), args.Error(1)
	}
	return nil, args.Error(1)
}

type stubSender struct {
	mu       sync.Mutex
	requests []notification.Request
	result   notification.Result
}

func (s *stubSender) Send(ctx context.Context, req notification.Request) *notification.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	res := s.result
	return &res
}

func newService(result notification.Result) (*OutreachService, *MockSubscriberRepository, *stubSender) {
	repo := new(MockSubscriberRepository)
	mailer := &stubSender{result: result}
	svc := NewOutreachService(repo, mailer, notification.NewTemplateStore(), "inbox@hospital.test", zap.NewNop())
	return svc, repo, mailer
}

func TestContact(t *testing.T) {
	t.Run("delivered", func(t *testing.T) {
		svc, _, mailer := newService(notification.Result{MessageID: "re_1", Accepted: []string{"inbox@hospital.test"}, Provider: "resend"})

		res, err := svc.Contact(context.Background(), ContactInput{Name: "Ada", Email: "ada@x.com", Message: "Hello"})
		require.NoError(t, err)
		assert.True(t, res.Delivered())

		require.Len(t, mailer.requests, 1)
		req := mailer.requests[0]
		assert.Equal(t, "inbox@hospital.test", req.To)
		assert.Equal(t, "ada@x.com", req.ReplyTo)
		assert.Equal(t, "New contact form message from Ada", req.Subject)
		assert.Contains(t, req.Text, "Hello")
	})

	t.Run("undelivered still succeeds", func(t *testing.T) {
		svc, _, _ := newService(notification.Result{MessageID: "log-1", Rejected: []string{"inbox@hospital.test"}, Provider: notification.ProviderLog})

		res, err := svc.Contact(context.Background(), ContactInput{Name: "Ada", Email: "ada@x.com", Message: "Hello"})
		require.NoError(t, err)
		assert.False(t, res.Delivered())
		assert.Equal(t, notification.ProviderLog, res.Provider)
	})

	t.Run("invalid input sends nothing", func(t *testing.T) {
		svc, _, mailer := newService(notification.Result{})

		_, err := svc.Contact(context.Background(), ContactInput{Name: "Ada", Email: "not-an-email"})
		require.Error(t, err)
		assert.True(t, services.IsValidationError(err))
		details := services.GetErrorDetails(err)
		assert.Contains(t, details, "email")
		assert.Contains(t, details, "message")
		assert.Empty(t, mailer.requests)
	})
}

func TestSubscribe(t *testing.T) {
	t.Run("new subscriber gets a welcome email", func(t *testing.T) {
		svc, repo, mailer := newService(notification.Result{Provider: "smtp", Accepted: []string{"ada@x.com"}})
		repo.On("Create", mock.Anything, mock.MatchedBy(func(s *models.Subscriber) bool {
			return s.Email == "ada@x.com"
		})).Return(nil)

		res, err := svc.Subscribe(context.Background(), SubscribeInput{Email: " Ada@X.com "})
		require.NoError(t, err)
		assert.True(t, res.Created)
		assert.Equal(t, "ada@x.com", res.Subscriber.Email)

		require.Len(t, mailer.requests, 1)
		assert.Equal(t, "ada@x.com", mailer.requests[0].To)
	})

	t.Run("subscribing twice returns the existing record", func(t *testing.T) {
		svc, repo, mailer := newService(notification.Result{})
		existing := &models.Subscriber{ID: uuid.New(), Email: "ada@x.com"}
		repo.On("Create", mock.Anything, mock.Anything).Return(repositories.ErrDuplicate)
		repo.On("GetByEmail", mock.Anything, "ada@x.com").Return(existing, nil)

		res, err := svc.Subscribe(context.Background(), SubscribeInput{Email: "ada@x.com"})
		require.NoError(t, err)
		assert.False(t, res.Created)
		assert.Equal(t, existing, res.Subscriber)
		assert.Empty(t, mailer.requests)
	})

	t.Run("invalid email", func(t *testing.T) {
		svc, repo, _ := newService(notification.Result{})

		_, err := svc.Subscribe(context.Background(), SubscribeInput{Email: "nope"})
		assert.True(t, services.IsValidationError(err))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestSubscribers(t *testing.T) {
	svc, repo, _ := newService(notification.Result{})
	want := []*models.Subscriber{{ID: uuid.New(), Email: "a@x.com"}}
	repo.On("List", mock.Anything, repositories.ListParams{Limit: repositories.MaxListLimit}).Return(want, nil)

	got, err := svc.Subscribers(context.Background(), repositories.ListParams{Limit: 10000})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSendTest(t *testing.T) {
	svc, _, mailer := newService(notification.Result{Provider: "smtp", Accepted: []string{"ops@x.com"}})

	res, err := svc.SendTest(context.Background(), TestInput{To: "ops@x.com"}, "admin@hospital.test")
	require.NoError(t, err)
	assert.Equal(t, "smtp", res.Provider)

	require.Len(t, mailer.requests, 1)
	assert.Equal(t, "Test email", mailer.requests[0].Subject)
	assert.Contains(t, mailer.requests[0].Text, "admin@hospital.test")

	_, err = svc.SendTest(context.Background(), TestInput{To: ""}, "admin@hospital.test")
	assert.True(t, services.IsValidationError(err))
}
