package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	_ "golang.org/x/image/webp"

	"github.com/alphaxx001/bookloop-connect-campus/internal/config"
	"github.com/alphaxx001/bookloop-connect-campus/internal/email"
	"github.com/alphaxx001/bookloop-connect-campus/internal/models"
	"github.com/alphaxx001/bookloop-connect-campus/internal/services"
	"github.com/alphaxx001/bookloop-connect-campus/internal/storage"
)

// TaskType defines the type of a background task.
const (
	TypeEmailDelivery = "email:deliver"
	TypeMessageNotify = "message:notify"
	TypeImageProcess  = "image:process"
)

// Queue names.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueImages   = "images"
)

// Enqueuer is the part of *asynq.Client the processor and notifier use.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func redisClientOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(redisClientOpt(rdb))
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg                  *config.Config
	emailSender          email.Sender
	storageService       storage.IS3Storage
	listingService       services.IListingService
	profileService       services.IProfileService
	emailTemplateService services.IEmailTemplateService
	taskClient           Enqueuer
}

func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	storageService storage.IS3Storage,
	listingService services.IListingService,
	profileService services.IProfileService,
	emailTemplateService services.IEmailTemplateService,
	taskClient Enqueuer,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:                  cfg,
		emailSender:          emailSender,
		storageService:       storageService,
		listingService:       listingService,
		profileService:       profileService,
		emailTemplateService: emailTemplateService,
		taskClient:           taskClient,
	}
}

// SetupServer builds the Asynq server and its mux for the given worker roles.
// It returns nil, nil when neither role is requested. The caller runs the server.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, isImageWorker bool, isBgWorker bool) (*asynq.Server, *asynq.ServeMux) {
	if !isBgWorker && !isImageWorker {
		log.Println("Running in API mode, no task server started.")
		return nil, nil
	}

	queues := map[string]int{}
	mux := asynq.NewServeMux()

	if isBgWorker {
		queues[QueueCritical] = 6
		queues[QueueDefault] = 3
		mux.HandleFunc(TypeEmailDelivery, processor.HandleEmailDeliveryTask)
		mux.HandleFunc(TypeMessageNotify, processor.HandleMessageNotifyTask)
		log.Println("Registered background task handlers (email, message notifications).")
	}

	if isImageWorker {
		queues[QueueImages] = 5
		mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
		log.Println("Registered image processing task handlers.")
	}

	srv := asynq.NewServer(
		redisClientOpt(rdb),
		asynq.Config{
			Queues: queues,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	return srv, mux
}

// --- Email delivery ---

type EmailTaskPayload struct {
	To         string                 `json:"to"`
	TemplateID string                 `json:"template_id"`
	Locale     string                 `json:"locale,omitempty"`
	Data       map[string]interface{} `json:"data"`
}

// NewEmailDeliveryTask wraps payload in a task for the critical queue.
func NewEmailDeliveryTask(payload EmailTaskPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal email task payload: %w", err)
	}
	return asynq.NewTask(TypeEmailDelivery, data, asynq.Queue(QueueCritical), asynq.MaxRetry(5)), nil
}

// renderTemplate replaces every {{.key}} in s with the matching data value.
func renderTemplate(s string, data map[string]interface{}) string {
	for key, val := range data {
		s = strings.ReplaceAll(s, fmt.Sprintf("{{.%s}}", key), fmt.Sprintf("%v", val))
	}
	return s
}

func (p *TaskProcessor) HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload EmailTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.To == "" {
		return fmt.Errorf("email task has no recipient: %w", asynq.SkipRetry)
	}

	log.Printf("Sending email task: To=%s, Template=%s", payload.To, payload.TemplateID)

	locale := payload.Locale
	if locale == "" {
		locale = services.DefaultLocale
	}

	tmpl, err := p.emailTemplateService.GetTemplate(ctx, payload.TemplateID, locale)
	if err != nil {
		log.Printf("Error getting email template %s/%s: %v", payload.TemplateID, locale, err)
		return fmt.Errorf("email template not found: %w", asynq.SkipRetry)
	}

	subject := renderTemplate(tmpl.Subject, payload.Data)
	body := renderTemplate(tmpl.Body, payload.Data)

	fromAddress := p.cfg.SmtpFromAddress
	if fromAddress == "" {
		fromAddress = "noreply@example.com"
		log.Printf("Warning: SmtpFromAddress not configured, using fallback %s for email to %s", fromAddress, payload.To)
	}

	rawMessage := email.BuildMessage(fromAddress, payload.To, subject, payload.TemplateID, body, time.Now())
	if err := p.emailSender.Send(ctx, []string{payload.To}, subject, rawMessage); err != nil {
		log.Printf("Email sending failed: %v", err)
		return err
	}

	log.Printf("Email task processed successfully: To=%s, Template=%s", payload.To, payload.TemplateID)
	return nil
}

// --- Message notifications ---

type MessageNotifyPayload struct {
	ConversationID string `json:"conversation_id"`
	ListingID      int64  `json:"listing_id"`
	SenderID       string `json:"sender_id"`
	RecipientID    string `json:"recipient_id"`
	MessageText    string `json:"message_text"`
}

type messageNotifier struct {
	client Enqueuer
}

// NewMessageNotifier returns a services.MessageNotifier that enqueues a message:notify task.
func NewMessageNotifier(client Enqueuer) services.MessageNotifier {
	return &messageNotifier{client: client}
}

func (n *messageNotifier) NotifyNewMessage(ctx context.Context, conv *models.Conversation, msg *models.Message) error {
	if !conv.HasParticipant(msg.SenderID) {
		return fmt.Errorf("sender %s is not part of conversation %s", msg.SenderID, conv.ID.String())
	}
	recipient := conv.Counterpart(msg.SenderID)
	data, err := json.Marshal(MessageNotifyPayload{
		ConversationID: conv.ID.String(),
		ListingID:      conv.ListingID,
		SenderID:       msg.SenderID,
		RecipientID:    recipient,
		MessageText:    msg.MessageText,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notify payload: %w", err)
	}
	task := asynq.NewTask(TypeMessageNotify, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
	if _, err := n.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue notification for message %s: %w", msg.ID, err)
	}
	return nil
}

// HandleMessageNotifyTask turns a new message into an email to the other participant.
func (p *TaskProcessor) HandleMessageNotifyTask(ctx context.Context, t *asynq.Task) error {
	var payload MessageNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal notify payload: %v: %w", err, asynq.SkipRetry)
	}

	recipient, err := p.profileService.FindProfileByID(ctx, payload.RecipientID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			log.Printf("No profile for recipient %s, dropping notification.", payload.RecipientID)
			return nil
		}
		return err
	}
	if recipient.Email == "" {
		log.Printf("Recipient %s has no email address, dropping notification.", payload.RecipientID)
		return nil
	}

	listing, err := p.listingService.FindListingByID(ctx, payload.ListingID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("listing %d not found: %w", payload.ListingID, asynq.SkipRetry)
		}
		return err
	}

	senderName := "Someone"
	if sender, err := p.profileService.FindProfileByID(ctx, payload.SenderID); err == nil && sender.FullName != nil && *sender.FullName != "" {
		senderName = *sender.FullName
	}

	emailTask, err := NewEmailDeliveryTask(EmailTaskPayload{
		To:         recipient.Email,
		TemplateID: services.TemplateNewMessage,
		Data: map[string]interface{}{
			"listing_title":    listing.Title,
			"sender_name":      senderName,
			"message_text":     payload.MessageText,
			"conversation_url": fmt.Sprintf("%s/messages/%s", strings.TrimRight(p.cfg.WebBaseURL, "/"), payload.ConversationID),
		},
	})
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	info, err := p.taskClient.EnqueueContext(ctx, emailTask)
	if err != nil {
		return fmt.Errorf("failed to enqueue email for conversation %s: %w", payload.ConversationID, err)
	}
	log.Printf("Enqueued new-message email %s for conversation %s", info.ID, payload.ConversationID)
	return nil
}

// --- Image processing ---

type ImageTaskPayload struct {
	S3Key     string `json:"s3_key"`
	ListingID int64  `json:"listing_id"`
}

// NewImageProcessTask wraps an uploaded object in a task for the images queue.
func NewImageProcessTask(s3Key string, listingID int64) (*asynq.Task, error) {
	data, err := json.Marshal(ImageTaskPayload{S3Key: s3Key, ListingID: listingID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image task payload: %w", err)
	}
	return asynq.NewTask(TypeImageProcess, data, asynq.Queue(QueueImages), asynq.MaxRetry(3)), nil
}

// HandleImageProcessTask shrinks an uploaded image to the configured bounds and attaches it to its listing.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.S3Key == "" || payload.ListingID <= 0 {
		return fmt.Errorf("invalid image task payload: %w", asynq.SkipRetry)
	}

	log.Printf("Processing image task: S3Key=%s, ListingID=%d", payload.S3Key, payload.ListingID)

	imgData, _, err := p.storageService.GetObject(ctx, payload.S3Key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			log.Printf("S3 object %s not found, likely upload failed or key incorrect.", payload.S3Key)
			return fmt.Errorf("s3 object not found: %w", asynq.SkipRetry)
		}
		return fmt.Errorf("failed to download image: %w", err)
	}

	maxSizeBytes := p.cfg.ImageMaxSizeBytes()
	if int64(len(imgData)) > maxSizeBytes {
		log.Printf("Image %s exceeds max size (%d > %d bytes). Skipping.", payload.S3Key, len(imgData), maxSizeBytes)
		return fmt.Errorf("image exceeds max size: %w", asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		log.Printf("Error decoding image for key %s: %v", payload.S3Key, err)
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}

	maxDim := uint(p.cfg.ImageMaxDimension)
	if maxDim > 0 && (uint(img.Bounds().Dx()) > maxDim || uint(img.Bounds().Dy()) > maxDim) {
		log.Printf("Resizing %s image %s (original: %dx%d, max: %d)", format, payload.S3Key, img.Bounds().Dx(), img.Bounds().Dy(), maxDim)
		resized := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
			return fmt.Errorf("failed to re-encode resized image: %w", err)
		}
		if err := p.storageService.PutObject(ctx, payload.S3Key, buf.Bytes(), "image/jpeg"); err != nil {
			return fmt.Errorf("failed to upload processed image: %w", err)
		}
	}

	imageURL := p.storageService.PublicURL(payload.S3Key)
	err = p.listingService.AddImageToListing(ctx, payload.ListingID, imageURL)
	if err != nil {
		if errors.Is(err, services.ErrTooManyImages) || errors.Is(err, mongo.ErrNoDocuments) {
			log.Printf("Dropping image %s for listing %d: %v", payload.S3Key, payload.ListingID, err)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to update listing with processed image: %w", err)
	}

	log.Printf("Image task processed successfully: Key=%s, ListingID=%d", payload.S3Key, payload.ListingID)
	return nil
}
