package repository

import (
	"storyloom/internal/models"

	"gorm.io/gorm"
)

// derefID renders an optional id for error messages; nil is 0.
func derefID(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}

// Subqueries selecting the ids of rows owned by a project. They are built
// from tx so cascades stay inside the caller's transaction.

func projectDialogueIDs(tx *gorm.DB, projectID uint) *gorm.DB {
	return tx.Model(&models.Dialogue{}).Select("id").Where("project_id = ?", projectID)
}

func dialogueLineIDs(tx *gorm.DB, dialogueIDs interface{}) *gorm.DB {
	return tx.Model(&models.DialogueLine{}).Select("id").Where("dialogue_id IN (?)", dialogueIDs)
}

func projectConversationIDs(tx *gorm.DB, projectID uint) *gorm.DB {
	return tx.Model(&models.Conversation{}).Select("id").Where("project_id = ?", projectID)
}

func conversationMessageIDs(tx *gorm.DB, conversationIDs interface{}) *gorm.DB {
	return tx.Model(&models.Message{}).Select("id").Where("conversation_id IN (?)", conversationIDs)
}

func messageQuestionIDs(tx *gorm.DB, messageIDs interface{}) *gorm.DB {
	return tx.Model(&models.Question{}).Select("id").Where("message_id IN (?)", messageIDs)
}

// deleteDialogueTree removes choices, lines, and dialogues for the given
// dialogue id set (a slice or a subquery).
func deleteDialogueTree(tx *gorm.DB, dialogueIDs interface{}) error {
	if err := tx.Where("line_id IN (?)", dialogueLineIDs(tx, dialogueIDs)).Delete(&models.DialogueChoice{}).Error; err != nil {
		return err
	}
	if err := tx.Where("dialogue_id IN (?)", dialogueIDs).Delete(&models.DialogueLine{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN (?)", dialogueIDs).Delete(&models.Dialogue{}).Error
}

// deleteMessageTree removes answers, questions, and messages for the given
// message id set.
func deleteMessageTree(tx *gorm.DB, messageIDs interface{}) error {
	if err := tx.Where("question_id IN (?)", messageQuestionIDs(tx, messageIDs)).Delete(&models.Answer{}).Error; err != nil {
		return err
	}
	if err := tx.Where("message_id IN (?)", messageIDs).Delete(&models.Question{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN (?)", messageIDs).Delete(&models.Message{}).Error
}

// deleteConversationTree removes messages, participants, and conversations
// for the given conversation id set.
func deleteConversationTree(tx *gorm.DB, conversationIDs interface{}) error {
	if err := deleteMessageTree(tx, conversationMessageIDs(tx, conversationIDs)); err != nil {
		return err
	}
	if err := tx.Exec("DELETE FROM conversation_participants WHERE conversation_id IN (?)", conversationIDs).Error; err != nil {
		return err
	}
	return tx.Where("id IN (?)", conversationIDs).Delete(&models.Conversation{}).Error
}
