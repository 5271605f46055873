package service

import (
	"context"
	"errors"
	"testing"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestAuditService_Log_PersistsToRepo(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockAuditRepository(ctrl)
	svc := NewAuditService(mockRepo, newTestLogger())

	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, entry *domain.AuditLog) error {
			assert.Equal(t, domain.AuditActionRuleUpsert, entry.Action)
			assert.Equal(t, "ops", entry.ActorID)
			assert.NotEqual(t, uuid.Nil, entry.ID)
			assert.False(t, entry.CreatedAt.IsZero())
			return nil
		},
	)

	svc.Log(context.Background(), &domain.AuditLog{
		ActorID:      "ops",
		Action:       domain.AuditActionRuleUpsert,
		ResourceType: "withdrawal_rule",
		ResourceID:   "t1",
		IPAddress:    "127.0.0.1",
	})
	svc.Close()
}

func TestAuditService_Log_RepoErrorIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockAuditRepository(ctrl)
	svc := NewAuditService(mockRepo, newTestLogger())

	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down")).Times(2)

	svc.Log(context.Background(), &domain.AuditLog{Action: domain.AuditActionSweepReset})
	svc.Log(context.Background(), &domain.AuditLog{Action: domain.AuditActionRuleDelete})
	svc.Close()
}

func TestAuditService_Log_NilRepo(t *testing.T) {
	svc := NewAuditService(nil, newTestLogger())

	svc.Log(context.Background(), &domain.AuditLog{Action: domain.AuditActionWalletCreate})
	svc.Close()
	svc.Close()
}
