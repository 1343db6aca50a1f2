package repos

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/courseforge-backend/internal/pkg/dbctx"
	"github.com/yungbote/courseforge-backend/internal/pkg/logger"
	"github.com/yungbote/courseforge-backend/internal/types"
)

type CourseRepo interface {
	Create(dbc dbctx.Context, course *types.Course) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error)
	CreateSections(dbc dbctx.Context, sections []*types.CourseSection) error
	CreateLessons(dbc dbctx.Context, lessons []*types.Lesson) error
	ListSections(dbc dbctx.Context, courseID uuid.UUID) ([]*types.CourseSection, error)
	ListLessons(dbc dbctx.Context, sectionID uuid.UUID) ([]*types.Lesson, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, log *logger.Logger) CourseRepo {
	return &courseRepo{
		db:  db,
		log: log.With("repo", "CourseRepo"),
	}
}

func (r *courseRepo) Create(dbc dbctx.Context, course *types.Course) error {
	transaction := dbc.Transaction(r.db)
	return transaction.WithContext(dbc.Ctx).Create(course).Error
}

func (r *courseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	transaction := dbc.Transaction(r.db)
	var out types.Course
	err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *courseRepo) CreateSections(dbc dbctx.Context, sections []*types.CourseSection) error {
	if len(sections) == 0 {
		return nil
	}
	transaction := dbc.Transaction(r.db)
	return transaction.WithContext(dbc.Ctx).Create(&sections).Error
}

func (r *courseRepo) CreateLessons(dbc dbctx.Context, lessons []*types.Lesson) error {
	if len(lessons) == 0 {
		return nil
	}
	transaction := dbc.Transaction(r.db)
	return transaction.WithContext(dbc.Ctx).Create(&lessons).Error
}

func (r *courseRepo) ListSections(dbc dbctx.Context, courseID uuid.UUID) ([]*types.CourseSection, error) {
	transaction := dbc.Transaction(r.db)
	var out []*types.CourseSection
	err := transaction.WithContext(dbc.Ctx).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseRepo) ListLessons(dbc dbctx.Context, sectionID uuid.UUID) ([]*types.Lesson, error) {
	transaction := dbc.Transaction(r.db)
	var out []*types.Lesson
	err := transaction.WithContext(dbc.Ctx).
		Where("section_id = ?", sectionID).
		Order("position ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
