package generation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/facecast/server/internal/module/face"
	"github.com/facecast/server/internal/module/pipeline"
	"github.com/facecast/server/internal/shared/logger"
	"github.com/facecast/server/internal/shared/response"
)

// Handler handles HTTP requests for video generation.
type Handler struct {
	service   *Service
	indexFile string
	log       *logger.Logger
}

// NewHandler creates a generation handler. indexFile is the HTML page served
// at the root path.
func NewHandler(service *Service, indexFile string, log *logger.Logger) *Handler {
	return &Handler{
		service:   service,
		indexFile: indexFile,
		log:       log,
	}
}

// RegisterRoutes registers the generation routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Index)
	r.GET("/favicon.ico", h.Favicon)
	r.GET("/avatars", h.Avatars)
	r.POST("/generate", h.Generate)
	r.GET("/video/:name", h.NamedVideo)
	r.GET("/video/generated/:id", h.GeneratedVideo)
	r.GET("/download/:id", h.Download)
}

// Index serves the landing page.
func (h *Handler) Index(c *gin.Context) {
	c.File(h.indexFile)
}

// Favicon answers browsers probing for an icon with an empty 200.
func (h *Handler) Favicon(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Avatars lists the configured avatars so clients can offer a picker.
func (h *Handler) Avatars(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"avatars": h.service.Avatars()})
}

// Generate runs the pipeline for a multipart form request. The form carries
// the required text plus at most one face source: an uploaded video file or
// a named avatar.
func (h *Handler) Generate(c *gin.Context) {
	req := pipeline.Request{
		Text:   c.PostForm("text"),
		Gender: c.PostForm("gender"),
		Face: face.Request{
			AvatarID: c.PostForm("avatar"),
		},
	}

	header, err := c.FormFile("video")
	switch {
	case err == nil:
		f, err := header.Open()
		if err != nil {
			response.FromError(c, err)
			return
		}
		defer f.Close()
		req.Face.Upload = &face.Upload{Reader: f, Filename: header.Filename}
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		// a video part was sent but the form could not be parsed
		response.BadRequest(c, "invalid video upload")
		return
	}

	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		h.log.Error("generation failed", "error", err)
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "done",
		"id":        result.ID.String(),
		"video_url": result.VideoURL,
	})
}

// NamedVideo serves a reference clip by name.
func (h *Handler) NamedVideo(c *gin.Context) {
	path, err := h.service.NamedVideoPath(c.Param("name"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.Header("Content-Type", "video/mp4")
	c.File(path)
}

// GeneratedVideo serves a run's final video for inline playback. Generated
// artifacts are unique per run, so caches must never serve a stale one.
func (h *Handler) GeneratedVideo(c *gin.Context) {
	path, err := h.service.GeneratedVideoPath(c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Header("Content-Type", "video/mp4")
	c.File(path)
}

// Download serves a run's final video as an attachment.
func (h *Handler) Download(c *gin.Context) {
	id := c.Param("id")
	path, err := h.service.GeneratedVideoPath(id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.FileAttachment(path, id+".mp4")
}
