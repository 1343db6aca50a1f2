package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/courseforge-backend/internal/data/repos"
	"github.com/yungbote/courseforge-backend/internal/pkg/ctxutil"
	"github.com/yungbote/courseforge-backend/internal/pkg/dbctx"
	errs "github.com/yungbote/courseforge-backend/internal/pkg/errors"
	"github.com/yungbote/courseforge-backend/internal/pkg/logger"
	"github.com/yungbote/courseforge-backend/internal/types"
	"github.com/yungbote/courseforge-backend/internal/utils"
)

// CoursePublishService materializes a session's outline into persistent
// course/section/lesson rows. It runs only on explicit user confirmation,
// never as part of a chat turn.
type CoursePublishService interface {
	PublishSession(dbc dbctx.Context, sessionID uuid.UUID) (*PublishResult, error)
}

type PublishResult struct {
	CourseID uuid.UUID `json:"course_id"`
	EditURL  string    `json:"edit_url"`
	Title    string    `json:"title"`
	Sections int       `json:"sections"`
	Lessons  int       `json:"lessons"`
}

type coursePublishService struct {
	db       *gorm.DB
	log      *logger.Logger
	sessions repos.SessionRepo
	courses  repos.CourseRepo
	baseURL  string
}

func NewCoursePublishService(
	db *gorm.DB,
	baseLog *logger.Logger,
	sessionRepo repos.SessionRepo,
	courseRepo repos.CourseRepo,
) CoursePublishService {
	log := baseLog.With("service", "CoursePublishService")
	return &coursePublishService{
		db:       db,
		log:      log,
		sessions: sessionRepo,
		courses:  courseRepo,
		baseURL:  strings.TrimRight(utils.GetEnv("ADMIN_BASE_URL", "http://localhost:3000", log), "/"),
	}
}

func (s *coursePublishService) PublishSession(dbc dbctx.Context, sessionID uuid.UUID) (*PublishResult, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}

	session, err := s.sessions.GetByID(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != rd.UserID {
		return nil, errs.ErrNotFound
	}
	outline := session.Outline()
	if outline == nil {
		return nil, fmt.Errorf("%w: session has no course outline to publish", errs.ErrInvalidArgument)
	}

	now := time.Now().UTC()
	course := &types.Course{
		ID:          uuid.New(),
		UserID:      rd.UserID,
		SessionID:   &session.ID,
		Title:       outline.Title,
		Description: outline.Description,
		Metadata:    datatypes.JSON([]byte(`{}`)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	lessonCount := 0
	err = s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if err := s.courses.Create(repoCtx, course); err != nil {
			return fmt.Errorf("create course: %w", err)
		}
		for i, sec := range outline.Sections {
			section := &types.CourseSection{
				ID:          uuid.New(),
				CourseID:    course.ID,
				Position:    i,
				Title:       sec.Title,
				Description: sec.Description,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := s.courses.CreateSections(repoCtx, []*types.CourseSection{section}); err != nil {
				return fmt.Errorf("create section %d: %w", i+1, err)
			}
			lessons := make([]*types.Lesson, 0, len(sec.Lessons))
			for j, les := range sec.Lessons {
				lessons = append(lessons, &types.Lesson{
					ID:        uuid.New(),
					SectionID: section.ID,
					Position:  j,
					Title:     les.Title,
					Duration:  les.Duration,
					Content:   les.Content,
					CreatedAt: now,
					UpdatedAt: now,
				})
			}
			if err := s.courses.CreateLessons(repoCtx, lessons); err != nil {
				return fmt.Errorf("create lessons for section %d: %w", i+1, err)
			}
			lessonCount += len(lessons)
		}

		editURL := fmt.Sprintf("%s/courses/%s", s.baseURL, course.ID)
		meta := session.MetadataMap()
		meta["published_course_id"] = course.ID.String()
		meta["published_course_url"] = editURL
		meta["published_at"] = now.Format(time.RFC3339)
		if err := session.SetMetadataMap(meta); err != nil {
			return err
		}
		if _, err := s.sessions.Save(repoCtx, session); err != nil {
			return fmt.Errorf("stamp session publish metadata: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Published course from session",
		"session_id", session.ID,
		"course_id", course.ID,
		"sections", len(outline.Sections),
		"lessons", lessonCount,
	)
	return &PublishResult{
		CourseID: course.ID,
		EditURL:  fmt.Sprintf("%s/courses/%s", s.baseURL, course.ID),
		Title:    course.Title,
		Sections: len(outline.Sections),
		Lessons:  lessonCount,
	}, nil
}
