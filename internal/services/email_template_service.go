package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/alphaxx001/bookloop-connect-campus/internal/db"
	"github.com/alphaxx001/bookloop-connect-campus/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Template IDs known to the service.
const (
	TemplateNewMessage = "new_message"
	TemplateTestEmail  = "test_email"
)

// DefaultLocale is used when a task does not name one.
const DefaultLocale = "en-IN"

// Fallbacks used when a template is not in the database.
var defaultEmailTemplates = map[string]models.EmailTemplate{
	TemplateNewMessage: {
		TemplateID: TemplateNewMessage,
		Locale:     DefaultLocale,
		Subject:    "New message about {{.listing_title}}",
		Body:       "{{.sender_name}} wrote:\n\n{{.message_text}}\n\nReply here: {{.conversation_url}}",
	},
	TemplateTestEmail: {
		TemplateID: TemplateTestEmail,
		Locale:     DefaultLocale,
		Subject:    "{{.app_name}} test email",
		Body:       "This is a test email from {{.app_name}}.",
	},
}

// IEmailTemplateService defines the interface for email template operations.
type IEmailTemplateService interface {
	GetTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error)
}

// EmailTemplateService handles operations related to email templates
type EmailTemplateService struct {
	db *mongo.Database
}

// NewEmailTemplateService creates a new instance of EmailTemplateService
func NewEmailTemplateService(db *mongo.Database) *EmailTemplateService {
	return &EmailTemplateService{db: db}
}

// GetTemplate retrieves an email template by ID and locale, falling back to the built-in default.
func (s *EmailTemplateService) GetTemplate(ctx context.Context, templateID string, locale string) (*models.EmailTemplate, error) {
	filter := bson.M{
		"template_id": templateID,
		"locale":      locale,
	}

	var template models.EmailTemplate
	err := s.db.Collection(db.CollEmailTemplates).FindOne(ctx, filter).Decode(&template)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if defaultTemplate, ok := defaultEmailTemplates[templateID]; ok {
				return &defaultTemplate, nil
			}
			return nil, fmt.Errorf("template not found: %s (locale: %s)", templateID, locale)
		}
		return nil, fmt.Errorf("error retrieving template: %w", err)
	}

	return &template, nil
}
