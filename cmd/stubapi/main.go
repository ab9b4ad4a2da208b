package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"

	"chatgw/internal/config"
	"chatgw/internal/http/middleware"
	"chatgw/internal/model"
	"chatgw/internal/storage"
)

// stubapi implements the three remote endpoints the gateway talks to, backed
// by a MinIO bucket. It exists for local development only; the hosted
// document store and chat endpoint replace it in production.

type presignRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

type presignResponse struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

type chatRequest struct {
	ChatID      string   `json:"chatId"`
	DocumentIDs []string `json:"documentIds"`
	Question    string   `json:"question"`
}

// newApp builds the stub application on top of the given object store.
func newApp(objStore storage.Storage) *fiber.App {
	app := fiber.New()
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())

	app.Get("/documents", listDocuments(objStore))
	app.Post("/presign", presignUpload(objStore))
	app.Post("/chat", answerQuestion())

	return app
}

func listDocuments(objStore storage.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		objects, err := objStore.List(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "list failed")
		}

		docs := make([]model.Document, 0, len(objects))
		for _, obj := range objects {
			lang := obj.Metadata["X-Amz-Meta-Language"]
			if lang == "" {
				lang = model.LanguageUndetermined
			}
			ct := obj.ContentType
			if ct == "" {
				ct = "application/octet-stream"
			}
			docs = append(docs, model.Document{
				ID:         obj.Key,
				Name:       baseName(obj.Key),
				Size:       obj.Size,
				Type:       ct,
				UploadDate: obj.LastModified,
				Language:   lang,
			})
		}
		return c.JSON(docs)
	}
}

func presignUpload(objStore storage.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req presignRequest
		if err := c.BodyParser(&req); err != nil || req.Filename == "" {
			return fiber.NewError(fiber.StatusBadRequest, "filename is required")
		}

		key := fmt.Sprintf("uploads/%s-%s", uuid.NewString(), req.Filename)
		grant, err := objStore.PresignPost(c.UserContext(), key, req.ContentType, 15*time.Minute)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "presign failed")
		}
		return c.JSON(presignResponse{URL: grant.URL, Fields: grant.Fields})
	}
}

func answerQuestion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req chatRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}

		// Deterministic canned answer; no model inference here.
		answer := fmt.Sprintf("You asked: %q. I looked at %d document(s) but I am only a stub.",
			req.Question, len(req.DocumentIDs))
		return c.JSON(fiber.Map{"answer": answer})
	}
}

func main() {
	cfg := config.Load()

	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	app := newApp(objStore)

	port := os.Getenv("STUB_PORT")
	if port == "" {
		port = "9090"
	}

	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("failed to start stub server: %v", err)
	}
}

func baseName(key string) string {
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		return key[i+1:]
	}
	return key
}
