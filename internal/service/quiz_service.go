package service

import (
	"context"
	"strings"

	"storyloom/internal/access"
	"storyloom/internal/models"
	"storyloom/internal/repository"
)

// QuizService manages the questions attached to messages.
type QuizService struct {
	quiz          repository.QuizRepository
	conversations repository.ConversationRepository
	policy        Authorizer
}

// AnswerInput is one proposed answer. A nil Order means the answer's
// position in the list.
type AnswerInput struct {
	Content   string
	IsCorrect bool
	Order     *int
}

type QuestionInput struct {
	Content           string
	Answers           []AnswerInput
	PositiveReactions []string
	NegativeReactions []string
}

type AddQuestionInput struct {
	UserID    uint
	MessageID uint
	Question  QuestionInput
}

// UpdateQuestionInput replaces the question's content, reactions and its
// whole answer set. Answer ids do not survive an update.
type UpdateQuestionInput struct {
	UserID     uint
	QuestionID uint
	Question   QuestionInput
}

func NewQuizService(quiz repository.QuizRepository, conversations repository.ConversationRepository, policy Authorizer) *QuizService {
	return &QuizService{quiz: quiz, conversations: conversations, policy: policy}
}

// ValidateQuestion checks a question and builds the row to store. Rules are
// checked in a fixed order and the first failure is returned.
func ValidateQuestion(in QuestionInput) (*models.Question, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Question content is required")
	}
	if len(in.Answers) < 2 {
		return nil, models.NewValidationError("A question needs at least two answers")
	}

	answers := make([]models.Answer, 0, len(in.Answers))
	hasCorrect := false
	for i, a := range in.Answers {
		answerContent := strings.TrimSpace(a.Content)
		if answerContent == "" {
			return nil, models.NewValidationError("Every answer needs content")
		}
		order := i
		if a.Order != nil {
			order = *a.Order
		}
		hasCorrect = hasCorrect || a.IsCorrect
		answers = append(answers, models.Answer{Content: answerContent, IsCorrect: a.IsCorrect, Order: order})
	}
	if !hasCorrect {
		return nil, models.NewValidationError("At least one answer must be correct")
	}

	positive := cleanReactions(in.PositiveReactions)
	if len(positive) == 0 {
		return nil, models.NewValidationError("At least one positive reaction is required")
	}
	negative := cleanReactions(in.NegativeReactions)
	if len(negative) == 0 {
		return nil, models.NewValidationError("At least one negative reaction is required")
	}

	positiveBlob, err := models.EncodeReactions(positive)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	negativeBlob, err := models.EncodeReactions(negative)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &models.Question{
		Content:           content,
		PositiveReactions: positiveBlob,
		NegativeReactions: negativeBlob,
		Answers:           answers,
	}, nil
}

func cleanReactions(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func (s *QuizService) AddQuestion(ctx context.Context, in AddQuestionInput) (*models.Question, error) {
	projectID, err := s.projectOfMessage(ctx, in.MessageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, in.UserID, projectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	question, err := ValidateQuestion(in.Question)
	if err != nil {
		return nil, err
	}
	question.MessageID = in.MessageID
	if err := s.quiz.CreateQuestion(ctx, question); err != nil {
		return nil, err
	}
	return s.quiz.GetQuestion(ctx, question.ID)
}

func (s *QuizService) GetQuestion(ctx context.Context, userID, questionID uint) (*models.Question, error) {
	question, err := s.quiz.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	projectID, err := s.projectOfMessage(ctx, question.MessageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, userID, projectID, access.CapabilityRead); err != nil {
		return nil, err
	}
	return question, nil
}

// UpdateQuestion validates the new state in full before replacing the stored
// question, so a rejected update leaves it untouched.
func (s *QuizService) UpdateQuestion(ctx context.Context, in UpdateQuestionInput) (*models.Question, error) {
	existing, err := s.quiz.GetQuestion(ctx, in.QuestionID)
	if err != nil {
		return nil, err
	}
	projectID, err := s.projectOfMessage(ctx, existing.MessageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, in.UserID, projectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	question, err := ValidateQuestion(in.Question)
	if err != nil {
		return nil, err
	}
	question.ID = existing.ID
	question.MessageID = existing.MessageID
	if err := s.quiz.ReplaceQuestion(ctx, question); err != nil {
		return nil, err
	}
	return s.quiz.GetQuestion(ctx, question.ID)
}

func (s *QuizService) DeleteQuestion(ctx context.Context, userID, questionID uint) error {
	question, err := s.quiz.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	projectID, err := s.projectOfMessage(ctx, question.MessageID)
	if err != nil {
		return err
	}
	if _, err := s.policy.Authorize(ctx, userID, projectID, access.CapabilityEditContent); err != nil {
		return err
	}
	return s.quiz.DeleteQuestion(ctx, questionID)
}

func (s *QuizService) projectOfMessage(ctx context.Context, messageID uint) (uint, error) {
	message, err := s.conversations.GetMessage(ctx, messageID)
	if err != nil {
		return 0, err
	}
	conversation, err := s.conversations.GetByID(ctx, message.ConversationID)
	if err != nil {
		return 0, err
	}
	return conversation.ProjectID, nil
}
