package handler

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"sigillum/internal/qrstamp"
	"sigillum/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers stay
// thin; every decision about validity and outcome belongs to the service.
// adminAuth guards the registration and admin endpoints.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.CertificationService, adminAuth fiber.Handler) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api/documents")
	api.Post("/upload", adminAuth, UploadDocument(svc))
	api.Get("/upload-url", adminAuth, CreateUploadURL(svc))
	api.Post("/process", adminAuth, ProcessUpload(svc))
	api.Get("/resolve/:doc_code", ResolveDocument(svc))
	api.Post("/verify-file", VerifyDocument(svc))

	admin := app.Group("/api/admin", adminAuth)
	admin.Get("/documents", ListDocuments(svc))
	admin.Post("/revoke", RevokeDocument(svc))
}

// HealthCheck reports readiness: healthy only when the database answers a ping.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness check with no dependencies.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// qrOptions builds stamp placement options from optional request values.
func qrOptions(size, position string) qrstamp.Options {
	return qrstamp.Options{
		Size:     qrstamp.ParseSize(size),
		Position: qrstamp.ParsePosition(position),
	}
}

// UploadDocument handles the direct registration path: multipart `file` in,
// stamped + hashed + recorded document out.
func UploadDocument(svc service.CertificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, service.CodeFileRequired, "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
		}

		res, err := svc.Register(c.UserContext(), service.RegisterInput{
			Data:        data,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			QR:          qrOptions(c.FormValue("qr_size"), c.FormValue("qr_position")),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// CreateUploadURL starts the two-phase path. Local deployments have no
// presigned uploads; the client is told to fall back to the direct path.
func CreateUploadURL(svc service.CertificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !svc.PresignedUploads() {
			return c.JSON(fiber.Map{"mode": "direct"})
		}

		ticket, err := svc.InitUpload(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{
			"mode":       "presigned",
			"doc_code":   ticket.DocCode,
			"temp_key":   ticket.TempKey,
			"upload_url": ticket.UploadURL,
		})
	}
}

type processRequest struct {
	DocCode    string `json:"doc_code"`
	QRSize     string `json:"qr_size"`
	QRPosition string `json:"qr_position"`
}

// ProcessUpload finishes the two-phase path after the client PUT the file to
// the presigned URL.
func ProcessUpload(svc service.CertificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req processRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		res, err := svc.Process(c.UserContext(), req.DocCode, qrOptions(req.QRSize, req.QRPosition))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// RevokedHeader marks resolved documents whose certification was withdrawn.
// The file still downloads; the caller decides how to present the status.
const RevokedHeader = "X-Document-Revoked"

// ResolveDocument returns the certified copy for a code: an inline PDF stream
// in local mode, a temporary redirect to a signed URL in s3 mode.
func ResolveDocument(svc service.CertificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docCode := c.Params("doc_code")

		res, err := svc.Resolve(c.UserContext(), docCode)
		if err != nil {
			return writeServiceError(c, err)
		}

		if res.Record.Revoked {
			c.Set(RevokedHeader, "true")
		}

		if res.RedirectURL != "" {
			return c.Redirect(res.RedirectURL, fiber.StatusTemporaryRedirect)
		}

		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, `inline; filename="`+res.Record.DocCode+`.pdf"`)
		return c.SendStream(bytes.NewReader(res.Content), len(res.Content))
	}
}

// VerifyDocument hashes an uploaded candidate file and compares it against the
// recorded hash. Nothing is persisted.
func VerifyDocument(svc service.CertificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, service.CodeFileRequired, "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		res, err := svc.Verify(c.UserContext(), c.FormValue("doc_code"), f)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// ListDocuments returns every registered document, newest first.
func ListDocuments(svc service.CertificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.List(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"documents": items})
	}
}

type revokeRequest struct {
	DocCode string `json:"doc_code"`
}

// RevokeDocument marks a document no longer certified. Revocation is
// monotonic: a second call for the same code is a conflict.
func RevokeDocument(svc service.CertificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req revokeRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		if err := svc.Revoke(c.UserContext(), req.DocCode); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"doc_code": req.DocCode, "revoked": true})
	}
}
