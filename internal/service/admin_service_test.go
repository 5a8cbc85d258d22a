package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/campusfound/lostfound-backend/internal/models"
	"github.com/campusfound/lostfound-backend/internal/pkg/apperror"
	"github.com/campusfound/lostfound-backend/internal/repository"
)

type mockAdminItemRepo struct {
	mock.Mock
}

func (m *mockAdminItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *mockAdminItemRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, rejectReason *string) error {
	args := m.Called(ctx, id, status, rejectReason)
	return args.Error(0)
}

func (m *mockAdminItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockAdminUserRepo struct {
	mock.Mock
}

func (m *mockAdminUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAdminUserRepo) SetBanned(ctx context.Context, userID uuid.UUID, banned bool, reason *string) error {
	args := m.Called(ctx, userID, banned, reason)
	return args.Error(0)
}

func (m *mockAdminUserRepo) UpdateRole(ctx context.Context, userID uuid.UUID, role string) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func (m *mockAdminUserRepo) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.User), args.Error(1)
}

// mockAuditLog запоминает записанные действия.
type mockAuditLog struct {
	actions []*models.AdminAction
	err     error
}

func (m *mockAuditLog) Create(ctx context.Context, action *models.AdminAction) error {
	if m.err != nil {
		return m.err
	}
	m.actions = append(m.actions, action)
	return nil
}

// mockNotifier запоминает отправленные уведомления.
type mockNotifier struct {
	sent []sentNotification
	err  error
}

type sentNotification struct {
	userID uuid.UUID
	kind   string
	data   interface{}
}

func (m *mockNotifier) Notify(ctx context.Context, userID uuid.UUID, kind string, data interface{}) (*models.Notification, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.sent = append(m.sent, sentNotification{userID: userID, kind: kind, data: data})
	return &models.Notification{ID: uuid.New(), UserID: userID, Type: kind}, nil
}

func TestAdminService_ApproveItem(t *testing.T) {
	items := new(mockAdminItemRepo)
	users := new(mockAdminUserRepo)
	audit := &mockAuditLog{}
	notifier := &mockNotifier{}
	svc := NewAdminService(items, users, audit, notifier, nil)
	ctx := context.Background()

	actorID := uuid.New()
	ownerID := uuid.New()
	itemID := uuid.New()
	item := &models.Item{
		ID:     itemID,
		UserID: ownerID,
		Title:  "Blue Backpack",
		Status: models.ItemStatusPending,
	}

	items.On("GetByID", ctx, itemID).Return(item, nil)
	items.On("UpdateStatus", ctx, itemID, models.ItemStatusApproved, (*string)(nil)).Return(nil)

	before, err := svc.ApproveItem(ctx, actorID, itemID)
	assert.NoError(t, err)

	// Возвращается снимок до перехода
	assert.Equal(t, models.ItemStatusPending, before.Status)

	if assert.Len(t, audit.actions, 1) {
		assert.Equal(t, models.ActionApproveItem, audit.actions[0].Action)
		assert.Equal(t, actorID, audit.actions[0].ActorID)
		assert.Equal(t, itemID, audit.actions[0].TargetID)
	}

	if assert.Len(t, notifier.sent, 1) {
		assert.Equal(t, ownerID, notifier.sent[0].userID)
		assert.Equal(t, models.NotificationItemApproved, notifier.sent[0].kind)
		data := notifier.sent[0].data.(itemNotificationData)
		assert.Contains(t, data.Message, "Blue Backpack")
	}
}

func TestAdminService_ApproveItem_NotFound(t *testing.T) {
	items := new(mockAdminItemRepo)
	users := new(mockAdminUserRepo)
	audit := &mockAuditLog{}
	notifier := &mockNotifier{}
	svc := NewAdminService(items, users, audit, notifier, nil)
	ctx := context.Background()

	itemID := uuid.New()
	items.On("GetByID", ctx, itemID).Return(nil, repository.ErrItemNotFound)

	_, err := svc.ApproveItem(ctx, uuid.New(), itemID)
	assert.ErrorIs(t, err, repository.ErrItemNotFound)

	// Объявление не найдено: ни журнала, ни уведомления
	assert.Empty(t, audit.actions)
	assert.Empty(t, notifier.sent)
}

func TestAdminService_RejectItem_ReasonRequired(t *testing.T) {
	items := new(mockAdminItemRepo)
	users := new(mockAdminUserRepo)
	svc := NewAdminService(items, users, &mockAuditLog{}, &mockNotifier{}, nil)
	ctx := context.Background()

	_, err := svc.RejectItem(ctx, uuid.New(), uuid.New(), "   ")
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	items.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestAdminService_RejectItem_ReasonPreserved(t *testing.T) {
	items := new(mockAdminItemRepo)
	users := new(mockAdminUserRepo)
	audit := &mockAuditLog{}
	notifier := &mockNotifier{}
	svc := NewAdminService(items, users, audit, notifier, nil)
	ctx := context.Background()

	ownerID := uuid.New()
	itemID := uuid.New()
	item := &models.Item{ID: itemID, UserID: ownerID, Title: "Кошелёк", Status: models.ItemStatusPending}
	reason := "Insufficient description"

	items.On("GetByID", ctx, itemID).Return(item, nil)
	items.On("UpdateStatus", ctx, itemID, models.ItemStatusRejected, &reason).Return(nil)

	_, err := svc.RejectItem(ctx, uuid.New(), itemID, reason)
	assert.NoError(t, err)

	// Причина передаётся дословно и в журнал, и в уведомление
	if assert.Len(t, audit.actions, 1) {
		assert.Equal(t, reason, *audit.actions[0].Reason)
	}
	if assert.Len(t, notifier.sent, 1) {
		data := notifier.sent[0].data.(itemNotificationData)
		assert.Equal(t, reason, data.Reason)
		assert.Contains(t, data.Message, reason)
	}
}

func TestAdminService_BestEffortFailuresDoNotRevert(t *testing.T) {
	items := new(mockAdminItemRepo)
	users := new(mockAdminUserRepo)
	audit := &mockAuditLog{err: errors.New("журнал недоступен")}
	notifier := &mockNotifier{err: errors.New("уведомления недоступны")}
	svc := NewAdminService(items, users, audit, notifier, nil)
	ctx := context.Background()

	itemID := uuid.New()
	item := &models.Item{ID: itemID, UserID: uuid.New(), Title: "Зонт", Status: models.ItemStatusPending}

	items.On("GetByID", ctx, itemID).Return(item, nil)
	items.On("UpdateStatus", ctx, itemID, models.ItemStatusApproved, (*string)(nil)).Return(nil)

	// Падение журнала и уведомлений не проваливает операцию
	before, err := svc.ApproveItem(ctx, uuid.New(), itemID)
	assert.NoError(t, err)
	assert.NotNil(t, before)
	items.AssertCalled(t, "UpdateStatus", ctx, itemID, models.ItemStatusApproved, (*string)(nil))
}

func TestAdminService_BanUser(t *testing.T) {
	items := new(mockAdminItemRepo)
	users := new(mockAdminUserRepo)
	audit := &mockAuditLog{}
	notifier := &mockNotifier{}
	svc := NewAdminService(items, users, audit, notifier, nil)
	ctx := context.Background()

	userID := uuid.New()
	user := &models.User{ID: userID, Username: "ivan", Role: models.RoleStudent}
	reason := "спам в объявлениях"

	users.On("GetByID", ctx, userID).Return(user, nil)
	users.On("SetBanned", ctx, userID, true, &reason).Return(nil)

	before, err := svc.BanUser(ctx, uuid.New(), userID, reason)
	assert.NoError(t, err)
	assert.False(t, before.IsBanned)

	if assert.Len(t, audit.actions, 1) {
		assert.Equal(t, models.ActionBanUser, audit.actions[0].Action)
		assert.Equal(t, models.TargetTypeUser, audit.actions[0].TargetType)
	}
	if assert.Len(t, notifier.sent, 1) {
		assert.Equal(t, models.NotificationAccountBanned, notifier.sent[0].kind)
	}
}

func TestAdminService_BanUser_ReasonRequired(t *testing.T) {
	users := new(mockAdminUserRepo)
	svc := NewAdminService(new(mockAdminItemRepo), users, &mockAuditLog{}, &mockNotifier{}, nil)

	_, err := svc.BanUser(context.Background(), uuid.New(), uuid.New(), "")
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	users.AssertNotCalled(t, "SetBanned", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminService_ChangeUserRole_AuditsTransition(t *testing.T) {
	items := new(mockAdminItemRepo)
	users := new(mockAdminUserRepo)
	audit := &mockAuditLog{}
	svc := NewAdminService(items, users, audit, &mockNotifier{}, nil)
	ctx := context.Background()

	userID := uuid.New()
	user := &models.User{ID: userID, Username: "masha", Role: models.RoleStudent}

	users.On("GetByID", ctx, userID).Return(user, nil)
	users.On("UpdateRole", ctx, userID, models.RoleAdmin).Return(nil)

	before, err := svc.ChangeUserRole(ctx, uuid.New(), userID, models.RoleAdmin)
	assert.NoError(t, err)
	assert.Equal(t, models.RoleStudent, before.Role)

	if assert.Len(t, audit.actions, 1) {
		var details map[string]interface{}
		assert.NoError(t, json.Unmarshal(audit.actions[0].Details, &details))
		assert.Equal(t, models.RoleStudent, details["previous_role"])
		assert.Equal(t, models.RoleAdmin, details["new_role"])
	}
}

func TestAdminService_ChangeUserRole_UnknownRole(t *testing.T) {
	svc := NewAdminService(new(mockAdminItemRepo), new(mockAdminUserRepo), &mockAuditLog{}, &mockNotifier{}, nil)

	_, err := svc.ChangeUserRole(context.Background(), uuid.New(), uuid.New(), "moderator")
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestAdminService_ListUsers_Cached(t *testing.T) {
	users := new(mockAdminUserRepo)
	svc := NewAdminService(new(mockAdminItemRepo), users, &mockAuditLog{}, &mockNotifier{}, NewCacheService())
	ctx := context.Background()
	actorID := uuid.New()

	page := []models.User{{ID: uuid.New(), Username: "ivanov"}}
	users.On("ListUsers", mock.Anything, 20, 0).Return(page, nil).Once()

	first, err := svc.ListUsers(ctx, actorID, 20, 0)
	assert.NoError(t, err)
	second, err := svc.ListUsers(ctx, actorID, 20, 0)
	assert.NoError(t, err)

	assert.Equal(t, first, second)
	users.AssertExpectations(t)
}

func TestAdminService_Unauthorized(t *testing.T) {
	svc := NewAdminService(new(mockAdminItemRepo), new(mockAdminUserRepo), &mockAuditLog{}, &mockNotifier{}, nil)
	ctx := context.Background()

	_, err := svc.ApproveItem(ctx, uuid.Nil, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.BanUser(ctx, uuid.Nil, uuid.New(), "причина")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.ListUsers(ctx, uuid.Nil, 20, 0)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
