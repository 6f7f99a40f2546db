package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/internal/learn/store"
	"github.com/aussiebroadwan/learn/pkg/errx"
	"github.com/aussiebroadwan/learn/pkg/idx"
)

// MaxSlugLength bounds item slugs accepted from clients.
const MaxSlugLength = 200

const errTypeConflict = "item slug is already tracked as another item type"

type ProgressService struct {
	Store store.Store
	Now   func() time.Time
}

func NewProgressService(s store.Store) *ProgressService {
	return &ProgressService{Store: s, Now: time.Now}
}

// ProgressUpdate is a client request to move an item along.
type ProgressUpdate struct {
	ItemSlug     string
	ItemType     domain.ItemType
	Status       domain.ProgressStatus
	ProgressData json.RawMessage
}

// ProgressSummary is the progress view for one user and, optionally, one
// module and lesson.
type ProgressSummary struct {
	UserProgress   *domain.ProgressRecord `json:"userProgress"`
	ModuleProgress *domain.ProgressRecord `json:"moduleProgress,omitempty"`
	LessonProgress *domain.ProgressRecord `json:"lessonProgress,omitempty"`
}

// Get returns the record for the item, or nil when there is none.
func (s *ProgressService) Get(ctx context.Context, userID string, itemType domain.ItemType, itemSlug string) (*domain.ProgressRecord, error) {
	rec, err := s.Store.Progress().GetProgress(ctx, userID, itemType, itemSlug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errx.Wrap(errx.KindServer, "load progress", err)
	}
	return &rec, nil
}

// Summary loads the registration row plus the module and lesson rows when
// their ids are given.
func (s *ProgressService) Summary(ctx context.Context, userID, moduleID, lessonID string) (ProgressSummary, error) {
	var (
		out ProgressSummary
		err error
	)
	if out.UserProgress, err = s.Get(ctx, userID, domain.ItemRegistration, domain.RegistrationSlug); err != nil {
		return ProgressSummary{}, err
	}
	if moduleID != "" {
		if out.ModuleProgress, err = s.Get(ctx, userID, domain.ItemModule, moduleID); err != nil {
			return ProgressSummary{}, err
		}
	}
	if lessonID != "" {
		if out.LessonProgress, err = s.Get(ctx, userID, domain.ItemLesson, lessonID); err != nil {
			return ProgressSummary{}, err
		}
	}
	return out, nil
}

// List returns every record of userID, newest first.
func (s *ProgressService) List(ctx context.Context, userID string) ([]domain.ProgressRecord, error) {
	recs, err := s.Store.Progress().ListProgressByUser(ctx, userID)
	if err != nil {
		return nil, errx.Wrap(errx.KindServer, "list progress", err)
	}
	return recs, nil
}

func (u ProgressUpdate) validate() (ProgressUpdate, error) {
	u.ItemSlug = strings.TrimSpace(u.ItemSlug)
	switch {
	case u.ItemSlug == "":
		return u, errx.Validation("itemSlug is required")
	case len(u.ItemSlug) > MaxSlugLength:
		return u, errx.Validation("itemSlug is too long")
	case u.ItemType == domain.ItemRegistration || u.ItemSlug == domain.RegistrationSlug:
		return u, errx.Validation("registration progress is recorded by the server")
	case !u.ItemType.Valid():
		return u, errx.Validation("itemType must be one of module, lesson, course")
	case !u.Status.Valid():
		return u, errx.Validation("status must be one of started, in_progress, completed")
	}

	data := bytes.TrimSpace(u.ProgressData)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		u.ProgressData = json.RawMessage(`{}`)
		return u, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return u, errx.Validation("progressData must be a JSON object")
	}
	u.ProgressData = json.RawMessage(data)
	return u, nil
}

// Upsert records u for userID in a single atomic statement.
func (s *ProgressService) Upsert(ctx context.Context, userID string, u ProgressUpdate) (domain.ProgressRecord, error) {
	if userID == "" {
		return domain.ProgressRecord{}, errx.Authentication("not signed in")
	}
	u, err := u.validate()
	if err != nil {
		return domain.ProgressRecord{}, err
	}

	rec, err := s.Store.Progress().UpsertProgress(ctx, s.newRecord(userID, u))
	if errors.Is(err, store.ErrAlreadyExists) {
		return domain.ProgressRecord{}, errx.Validation(errTypeConflict)
	}
	if err != nil {
		return domain.ProgressRecord{}, errx.Wrap(errx.KindServer, "save progress", err)
	}
	return rec, nil
}

func (s *ProgressService) newRecord(userID string, u ProgressUpdate) domain.ProgressRecord {
	now := s.Now().UTC()
	rec := domain.ProgressRecord{
		ID:           idx.NewAt(now).String(),
		UserID:       userID,
		ItemSlug:     u.ItemSlug,
		ItemType:     u.ItemType,
		Status:       u.Status,
		ProgressData: u.ProgressData,
		StartedAt:    now,
		UpdatedAt:    now,
	}
	if u.Status == domain.StatusCompleted {
		rec.CompletedAt = &now
	}
	return rec
}

// EnsureRegistration writes the registration row for userID once.
func (s *ProgressService) EnsureRegistration(ctx context.Context, userID string) error {
	_, err := s.Store.Progress().InsertProgressIfAbsent(ctx, s.registration(userID))
	if err != nil {
		return errx.Wrap(errx.KindServer, "record registration", err)
	}
	return nil
}

func (s *ProgressService) registration(userID string) domain.ProgressRecord {
	return s.newRecord(userID, ProgressUpdate{
		ItemSlug:     domain.RegistrationSlug,
		ItemType:     domain.ItemRegistration,
		Status:       domain.StatusCompleted,
		ProgressData: json.RawMessage(`{}`),
	})
}

// Enroll starts moduleID for userID. The registration row is ensured in the
// same transaction. An existing module row is returned unchanged.
func (s *ProgressService) Enroll(ctx context.Context, userID, moduleID string) (domain.ProgressRecord, error) {
	if userID == "" {
		return domain.ProgressRecord{}, errx.Authentication("not signed in")
	}
	start, err := ProgressUpdate{
		ItemSlug: moduleID,
		ItemType: domain.ItemModule,
		Status:   domain.StatusStarted,
	}.validate()
	if err != nil {
		return domain.ProgressRecord{}, err
	}

	var out domain.ProgressRecord
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		repo := tx.Progress()
		if _, err := repo.InsertProgressIfAbsent(ctx, s.registration(userID)); err != nil {
			return err
		}
		if _, err := repo.InsertProgressIfAbsent(ctx, s.newRecord(userID, start)); err != nil {
			return err
		}
		rec, err := repo.GetProgress(ctx, userID, domain.ItemModule, start.ItemSlug)
		if errors.Is(err, store.ErrNotFound) {
			return errx.Validation(errTypeConflict)
		}
		if err != nil {
			return err
		}
		out = rec
		return nil
	})
	var e *errx.Error
	if errors.As(err, &e) {
		return domain.ProgressRecord{}, err
	}
	if err != nil {
		return domain.ProgressRecord{}, errx.Wrap(errx.KindServer, "enroll", err)
	}
	return out, nil
}
