package service

import (
	"context"
	"fmt"
	"time"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/pkg/apperror"

	"github.com/google/uuid"
)

// APIClient is a caller allowed to exchange its secret for a token.
type APIClient struct {
	ID         string
	SecretHash string // argon2id encoded
	Role       string
}

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	clients  map[string]APIClient
	hashSvc  ports.HashService
	tokenSvc ports.TokenService
	auditSvc ports.AuditService
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	clients []APIClient,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	auditSvc ports.AuditService,
) *AuthServiceImpl {
	byID := make(map[string]APIClient, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}
	return &AuthServiceImpl{
		clients:  byID,
		hashSvc:  hashSvc,
		tokenSvc: tokenSvc,
		auditSvc: auditSvc,
	}
}

// IssueToken validates client credentials and returns a JWT carrying the client's role.
func (s *AuthServiceImpl) IssueToken(ctx context.Context, clientID, secret string) (string, time.Time, error) {
	client, ok := s.clients[clientID]
	if !ok {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(secret, client.SecretHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify secret: %w", err))
	}
	if !valid {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiry, err := s.tokenSvc.Generate(client.ID, client.Role)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	s.auditSvc.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		ActorID:      client.ID,
		Action:       domain.AuditActionTokenIssue,
		ResourceType: "token",
		ResourceID:   client.ID,
		CreatedAt:    time.Now().UTC(),
	})

	return token, expiry, nil
}
