package service

import (
	"context"
	"sync"
	"time"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const auditQueueSize = 256

// AuditServiceImpl records audit entries through a single background writer.
// It implements ports.AuditService.
type AuditServiceImpl struct {
	repo  ports.AuditRepository
	queue chan *domain.AuditLog
	once  sync.Once
	done  chan struct{}
	log   zerolog.Logger
}

// NewAuditService starts the writer. If repo is nil, entries are only logged.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) *AuditServiceImpl {
	s := &AuditServiceImpl{
		repo:  repo,
		queue: make(chan *domain.AuditLog, auditQueueSize),
		done:  make(chan struct{}),
		log:   log,
	}
	go s.run()
	return s
}

// Log enqueues entry without blocking. A full queue drops the entry with a warning.
func (s *AuditServiceImpl) Log(_ context.Context, entry *domain.AuditLog) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	s.log.Info().
		Str("actor_id", entry.ActorID).
		Str("action", string(entry.Action)).
		Str("resource_type", entry.ResourceType).
		Str("resource_id", entry.ResourceID).
		Str("ip", entry.IPAddress).
		Msg("audit")

	select {
	case s.queue <- entry:
	default:
		s.log.Warn().Str("action", string(entry.Action)).Msg("audit queue full, entry not persisted")
	}
}

// Close stops accepting entries and waits for queued ones to be written.
func (s *AuditServiceImpl) Close() {
	s.once.Do(func() { close(s.queue) })
	<-s.done
}

func (s *AuditServiceImpl) run() {
	defer close(s.done)
	for entry := range s.queue {
		if s.repo == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.repo.Create(ctx, entry); err != nil {
			s.log.Warn().Err(err).Str("action", string(entry.Action)).Msg("failed to persist audit log")
		}
		cancel()
	}
}
