package repository

import (
	"context"
	"log/slog"

	"storyloom/internal/models"
	"storyloom/internal/observability"

	"gorm.io/gorm"
)

// QuizRepository defines persistence operations for message questions and
// their answers. A question and its answers are always written together.
type QuizRepository interface {
	CreateQuestion(ctx context.Context, question *models.Question) error
	GetQuestion(ctx context.Context, id uint) (*models.Question, error)
	ReplaceQuestion(ctx context.Context, question *models.Question) error
	DeleteQuestion(ctx context.Context, id uint) error
}

type quizRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewQuizRepository returns a new QuizRepository implementation.
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db, log: observability.NewRepoLogger("questions")}
}

func (r *quizRepository) CreateQuestion(ctx context.Context, question *models.Question) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Answers").Create(question).Error; err != nil {
			return err
		}
		return insertAnswers(tx, question)
	})
	if err != nil {
		r.log.Failure(ctx, "create", err)
		return TranslateError(err, "Message", question.MessageID)
	}
	r.log.Mutation(ctx, "create",
		slog.Uint64("question_id", uint64(question.ID)),
		slog.Uint64("message_id", uint64(question.MessageID)),
		slog.Int("answers", len(question.Answers)),
	)
	return nil
}

func (r *quizRepository) GetQuestion(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	err := r.db.WithContext(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answer_order ASC, id ASC")
		}).
		First(&question, id).Error
	if err != nil {
		return nil, TranslateError(err, "Question", id)
	}
	return &question, nil
}

// ReplaceQuestion overwrites the question's content and reactions and swaps
// its whole answer set. Either everything is written or nothing is.
func (r *quizRepository) ReplaceQuestion(ctx context.Context, question *models.Question) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Question{ID: question.ID}).Updates(map[string]interface{}{
			"content":            question.Content,
			"positive_reactions": question.PositiveReactions,
			"negative_reactions": question.NegativeReactions,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("question_id = ?", question.ID).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		return insertAnswers(tx, question)
	})
	if err != nil {
		r.log.Failure(ctx, "update", err)
		return TranslateError(err, "Question", question.ID)
	}
	r.log.Mutation(ctx, "update",
		slog.Uint64("question_id", uint64(question.ID)),
		slog.Int("answers", len(question.Answers)),
	)
	return nil
}

func (r *quizRepository) DeleteQuestion(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Question{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return TranslateError(err, "Question", id)
	}
	r.log.Mutation(ctx, "delete", slog.Uint64("question_id", uint64(id)))
	return nil
}

func insertAnswers(tx *gorm.DB, question *models.Question) error {
	if len(question.Answers) == 0 {
		return nil
	}
	for i := range question.Answers {
		question.Answers[i].ID = 0
		question.Answers[i].QuestionID = question.ID
	}
	return tx.Create(&question.Answers).Error
}
