package api

import (
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"callscribe/internal/audio"
	"callscribe/internal/config"
	"callscribe/internal/ledger"
	"callscribe/internal/pipeline"
	"callscribe/internal/utils"
)

// maxUploadSize bounds one recording upload.
const maxUploadSize = 100 << 20

// Server exposes the pipeline over HTTP for the companion upload UI.
type Server struct {
	cfg  *config.Config
	pipe *pipeline.Pipeline
	jobs ledger.Store
	log  zerolog.Logger
}

// NewServer creates the API server.
func NewServer(cfg *config.Config, pipe *pipeline.Pipeline, jobs ledger.Store, log zerolog.Logger) *Server {
	return &Server{cfg: cfg, pipe: pipe, jobs: jobs, log: log}
}

// RegisterRoutes attaches all endpoints to the gin engine.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.healthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/jobs", s.uploadJob)
		v1.GET("/jobs", s.listJobs)
		v1.GET("/jobs/:job_id", s.getJob)
		v1.GET("/jobs/:job_id/status", s.getJobStatus)
		v1.POST("/jobs/:job_id/advance", s.advanceJob)
		v1.GET("/jobs/:job_id/conversation", s.getConversation)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	utils.Success(c, gin.H{
		"status":  "ok",
		"service": "callscribe",
	})
}

// uploadJob accepts one recording (or a raw transcript JSON) and starts
// a job for it. Audio goes through normalize + submit; a JSON payload
// skips the remote service and is shaped directly.
func (s *Server) uploadJob(c *gin.Context) {
	file, err := c.FormFile("audio_file")
	if err != nil {
		// Older UI builds post under different field names.
		if file, err = c.FormFile("audio"); err != nil {
			if file, err = c.FormFile("file"); err != nil {
				utils.Error(c, http.StatusBadRequest, "audio_file is required: "+err.Error())
				return
			}
		}
	}

	format, ok := audio.FormatFromExt(file.Filename)
	if !ok {
		utils.Error(c, http.StatusBadRequest, "unsupported file type. Supported: wav, mp4, m4a, mp3, aac, ogg, json")
		return
	}
	if !format.IsAudio() && format != audio.FormatJSON {
		utils.Error(c, http.StatusBadRequest, "file type "+string(format)+" cannot be processed here")
		return
	}
	if file.Size > maxUploadSize {
		utils.Error(c, http.StatusBadRequest, "file size exceeds 100MB limit")
		return
	}

	src, err := file.Open()
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "failed to open upload")
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "failed to read upload")
		return
	}

	if format == audio.FormatJSON {
		rec, err := s.pipe.IngestTranscript(data, file.Filename)
		if err != nil {
			s.log.Error().Err(err).Str("file", file.Filename).Msg("transcript ingest failed")
			utils.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		utils.Success(c, gin.H{
			"job_id": rec.JobID,
			"status": rec.Status,
		})
		return
	}

	ctx := c.Request.Context()
	wav, err := s.pipe.Normalize(ctx, data, format)
	if err != nil {
		s.log.Error().Err(err).Str("file", file.Filename).Msg("normalization failed")
		utils.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.pipe.Submit(ctx, wav, file.Filename)
	if err != nil {
		s.log.Error().Err(err).Str("file", file.Filename).Msg("submission failed")
		utils.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	s.log.Info().Str("job_id", rec.JobID).Str("file", file.Filename).Msg("job submitted")
	utils.Success(c, gin.H{
		"job_id": rec.JobID,
		"status": rec.Status,
	})
}

func (s *Server) listJobs(c *gin.Context) {
	records, err := s.jobs.List()
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.Success(c, gin.H{"jobs": records})
}

func (s *Server) getJob(c *gin.Context) {
	rec, ok := s.lookupJob(c)
	if !ok {
		return
	}
	utils.Success(c, gin.H{
		"job_id":        rec.JobID,
		"original_name": rec.OriginalName,
		"storage_key":   rec.StorageKey,
		"status":        rec.Status,
		"error":         rec.Error,
		"submitted_at":  rec.SubmittedAt,
		"updated_at":    rec.UpdatedAt,
	})
}

func (s *Server) getJobStatus(c *gin.Context) {
	rec, ok := s.lookupJob(c)
	if !ok {
		return
	}
	utils.Success(c, gin.H{
		"job_id": rec.JobID,
		"status": rec.Status,
	})
}

// advanceJob runs one poll step for a submitted job: discover, and when
// the manifest is there, retrieve and shape in the same call. A job whose
// transcription has not finished reports status "pending".
func (s *Server) advanceJob(c *gin.Context) {
	rec, ok := s.lookupJob(c)
	if !ok {
		return
	}

	switch rec.Status {
	case ledger.StatusShaped:
		utils.Success(c, gin.H{"job_id": rec.JobID, "status": rec.Status})
		return
	case ledger.StatusFailed:
		utils.Error(c, http.StatusConflict, "job already failed: "+rec.Error)
		return
	}

	ctx := c.Request.Context()
	manifest, err := s.pipe.Discover(ctx, rec.JobID)
	if err != nil {
		if errors.Is(err, pipeline.ErrManifestNotFound) {
			utils.Success(c, gin.H{"job_id": rec.JobID, "status": "pending"})
			return
		}
		utils.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	if _, err := s.pipe.Retrieve(ctx, rec.JobID, manifest); err != nil {
		utils.Error(c, http.StatusBadGateway, err.Error())
		return
	}
	if _, err := s.pipe.Shape(rec.JobID); err != nil {
		utils.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	final, err := s.jobs.Get(rec.JobID)
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.Success(c, gin.H{"job_id": final.JobID, "status": final.Status})
}

func (s *Server) getConversation(c *gin.Context) {
	rec, ok := s.lookupJob(c)
	if !ok {
		return
	}

	data, err := os.ReadFile(s.pipe.ConversationPath(rec.JobID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			utils.Error(c, http.StatusNotFound, "conversation not ready. Advance the job first")
			return
		}
		utils.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.Data(http.StatusOK, "application/json", data)
}

func (s *Server) lookupJob(c *gin.Context) (ledger.Record, bool) {
	id := c.Param("job_id")
	if id == "" {
		utils.Error(c, http.StatusBadRequest, "job_id is required")
		return ledger.Record{}, false
	}

	rec, err := s.jobs.Get(id)
	if err != nil {
		if errors.Is(err, ledger.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "job not found")
			return ledger.Record{}, false
		}
		utils.Error(c, http.StatusInternalServerError, err.Error())
		return ledger.Record{}, false
	}
	return rec, true
}
