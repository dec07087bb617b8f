package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/alphaxx001/bookloop-connect-campus/internal/api/handlers"
	"github.com/alphaxx001/bookloop-connect-campus/internal/api/middleware"
	"github.com/alphaxx001/bookloop-connect-campus/internal/config"
	"github.com/alphaxx001/bookloop-connect-campus/internal/email"
	"github.com/alphaxx001/bookloop-connect-campus/internal/services"
	"github.com/alphaxx001/bookloop-connect-campus/internal/storage"
	"github.com/alphaxx001/bookloop-connect-campus/internal/tasks"
)

// SetupRouter configures and returns the main Gin engine.
// The listing, book group and storage services are the instances main also hands to the
// workers, so both sides share one cache and one S3 client.
func SetupRouter(cfg *config.Config, db *mongo.Database, taskClient handlers.IAsynqClient, listingService services.IListingService, bookGroupService services.IBookGroupService, s3StorageService storage.IS3Storage) *gin.Engine {
	conversationService := services.NewConversationService(db, cfg, listingService)
	messageService := services.NewMessageService(db, cfg, conversationService, tasks.NewMessageNotifier(taskClient))

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware("api", cfg.RateLimitRefillRate, cfg.RateLimitBucketSize)
	messageLimiter := middleware.NewRateLimiterMiddleware("messages", cfg.RateLimitMessageRefillRate, cfg.RateLimitMessageBucketSize)

	r.Use(middleware.CORSMiddleware(cfg.WebBaseURL))
	r.Use(rateLimiter.Limit())

	restListingHandler := handlers.NewRestListingHandler(cfg, listingService, s3StorageService, taskClient)
	restBookGroupHandler := handlers.NewRestBookGroupHandler(bookGroupService)
	restConversationHandler := handlers.NewRestConversationHandler(conversationService, messageService)

	v1 := r.Group("/v1")
	{
		v1.GET("/listings", restListingHandler.ListListings)
		v1.GET("/listings/featured", restListingHandler.FeaturedListings)
		v1.GET("/listings/suggested-price", restListingHandler.SuggestedPrice)
		v1.POST("/listings/validate", restListingHandler.ValidateListing)
		v1.GET("/listings/:id", restListingHandler.GetListingByID)

		v1.GET("/book-groups", restBookGroupHandler.ListBookGroups)
		v1.GET("/book-groups/:id", restBookGroupHandler.GetBookGroupByID)

		v1.GET("/messages/suggestions", restConversationHandler.Suggestions)

		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.POST("/listings", restListingHandler.CreateListing)
			authRequired.POST("/listings/:id/images", restListingHandler.RequestImageUploads)
			authRequired.POST("/listings/:id/images/complete", restListingHandler.CompleteImageUploads)

			authRequired.GET("/listings/:id/conversation", restConversationHandler.GetListingConversation)
			authRequired.POST("/listings/:id/conversation", restConversationHandler.ResolveListingConversation)
			authRequired.GET("/conversations", restConversationHandler.ListConversations)
			authRequired.GET("/conversations/:id/messages", restConversationHandler.ListMessages)

			authRequired.POST("/listings/:id/messages", messageLimiter.Limit(), restConversationHandler.SendFirstMessage)
			authRequired.POST("/conversations/:id/messages", messageLimiter.Limit(), restConversationHandler.SendMessage)
		}
	}

	return r
}

// SetupServiceRouter configures and returns the service Gin engine.
// It is bound to the internal service port and used by tests and operators.
func SetupServiceRouter(cfg *config.Config, rdb *redis.Client, listingService services.IListingService, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			log.Println("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
				log.Println("Shutdown signal sent successfully.")
			default:
				log.Println("Shutdown channel already signaled or blocked.")
			}

		case "flushListingCache":
			if err := listingService.InvalidateCache(c.Request.Context()); err != nil {
				log.Printf("Service API: failed to flush listing cache: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to flush listing cache"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Listing cache flushed"})

		case "getTestEmail":
			var args []string // ["template_id", "email"]
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 2 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [templateID, email]"})
				return
			}
			redisKey := email.MockEmailKey(args[1], args[0])

			var emailJsonData string
			var getErr error
			found := false
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			for i := 0; i < 10; i++ {
				emailJsonData, getErr = rdb.Get(ctx, redisKey).Result()
				if getErr == nil {
					found = true
					rdb.Del(ctx, redisKey)
					break
				}
				if getErr != redis.Nil {
					log.Printf("Service API: Error getting key %s from Redis: %v", redisKey, getErr)
					c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
					return
				}
				time.Sleep(200 * time.Millisecond)
			}

			if !found {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test email not found in Redis for key %s", redisKey)})
				return
			}

			var emailData map[string]interface{}
			if err := json.Unmarshal([]byte(emailJsonData), &emailData); err != nil {
				log.Printf("Service API: Error unmarshalling email data from key %s: %v", redisKey, err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to parse stored email data"})
				return
			}

			c.JSON(http.StatusOK, gin.H{"success": true, "data": emailData})

		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}
