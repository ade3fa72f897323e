package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/agenda-api/internal/repository"
)

type ruleRepository struct {
	db *sqlx.DB
}

type blockRepository struct {
	db *sqlx.DB
}

type offeringRepository struct {
	db *sqlx.DB
}

type appointmentRepository struct {
	BaseRepository
}

type archiveRepository struct {
	db *sqlx.DB
}

type reminderRepository struct {
	db *sqlx.DB
}

type notificationRepository struct {
	db *sqlx.DB
}

type conversationRepository struct {
	db *sqlx.DB
}

type profileRepository struct {
	db *sqlx.DB
}

func NewRuleRepository(db *sqlx.DB) repository.RuleRepository {
	return &ruleRepository{db: db}
}

func NewBlockRepository(db *sqlx.DB) repository.BlockRepository {
	return &blockRepository{db: db}
}

func NewOfferingRepository(db *sqlx.DB) repository.OfferingRepository {
	return &offeringRepository{db: db}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db)}
}

func NewArchiveRepository(db *sqlx.DB) repository.ArchiveRepository {
	return &archiveRepository{db: db}
}

func NewReminderRepository(db *sqlx.DB) repository.ReminderRepository {
	return &reminderRepository{db: db}
}

func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func NewConversationRepository(db *sqlx.DB) repository.ConversationRepository {
	return &conversationRepository{db: db}
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}
