package api

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"filedrop/internal/metadata"
)

type uploadResponse struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

type fileInfo struct {
	FileID     string    `json:"file_id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"upload_date"`
}

type componentStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.NewError(fiber.StatusBadRequest, "multipart field 'file' is required"))
	}

	f, err := fh.Open()
	if err != nil {
		return writeError(c, err)
	}
	defer f.Close()

	rec, err := s.catalog.Upload(c.UserContext(), fh.Filename, fh.Size, f)
	if err != nil {
		s.log.Errorx(err)
		return writeError(c, err)
	}

	return c.JSON(uploadResponse{
		FileID:   rec.ID,
		Filename: rec.Filename,
		Size:     rec.Size,
	})
}

func (s *Server) handleList(c *fiber.Ctx) error {
	records, err := s.catalog.List(c.UserContext())
	if err != nil {
		s.log.Errorx(err)
		return writeError(c, err)
	}

	return c.JSON(lo.Map(records, func(rec *metadata.FileRecord, _ int) fileInfo {
		return fileInfo{
			FileID:     rec.ID,
			Filename:   rec.Filename,
			UploadedAt: rec.UploadedAt,
		}
	}))
}

func (s *Server) handleDownload(c *fiber.Ctx) error {
	rec, content, err := s.catalog.Download(c.UserContext(), c.Params("id"))
	if err != nil {
		s.log.Errorx(err)
		return writeError(c, err)
	}

	c.Set(fiber.HeaderContentType, rec.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", rec.Filename))

	// fasthttp closes the stream after the response is sent.
	return c.SendStream(content, int(rec.Size))
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	health := s.catalog.Health(c.UserContext())

	overall := "healthy"
	components := make(map[string]componentStatus, len(health))
	for name, component := range health {
		status := componentStatus{Status: "healthy"}
		if !component.Healthy {
			overall = "unhealthy"
			status.Status = "unhealthy"
			status.Error = component.Err.Error()
		}
		components[name] = status
	}

	if overall != "healthy" {
		c.Status(fiber.StatusServiceUnavailable)
	}
	return c.JSON(healthResponse{Status: overall, Components: components})
}
