package web

import (
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"dharma/internal/deps"
	"dharma/internal/fetcher"
	"dharma/internal/logging"
	"dharma/internal/subtitles"
)

// Download kinds served under /download/:kind/:title.
const (
	KindAudio         = "audio"
	KindTranscription = "transcription"
	KindSubtitles     = "subtitles"
)

type processRequest struct {
	YoutubeURL string `json:"youtube_url"`
}

type processResponse struct {
	Success        bool   `json:"success"`
	State          string `json:"state,omitempty"`
	ID             int64  `json:"id,omitempty"`
	Title          string `json:"title,omitempty"`
	AudioFile      string `json:"audio_file,omitempty"`
	TranscriptFile string `json:"transcript_file,omitempty"`
	SubtitleFile   string `json:"subtitle_file,omitempty"`
	Error          string `json:"error,omitempty"`
	ErrorKind      string `json:"error_kind,omitempty"`
	Stage          string `json:"stage,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
}

// DownloadURL returns the route serving kind for a sanitized title.
func DownloadURL(kind, title string) string {
	return "/download/" + kind + "/" + url.PathEscape(title)
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"Title": "Dharma Transcriptions"})
}

func (s *Server) handleRepository(c *gin.Context) {
	items, err := s.repo.List(c.Request.Context())
	if err != nil {
		logging.ErrorWithContext(logging.WithContext(c.Request.Context(), s.logger), "list transcriptions failed", "repository_list_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the transcript database path and permissions"),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "transcriptions unavailable"})
		return
	}
	if strings.EqualFold(c.Query("format"), "json") {
		c.JSON(http.StatusOK, gin.H{"transcriptions": items})
		return
	}
	c.HTML(http.StatusOK, "repository.html", gin.H{"Transcriptions": items})
}

func (s *Server) handleTranscription(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		transcriptionNotFound(c)
		return
	}
	record, err := s.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		logging.ErrorWithContext(logging.WithContext(c.Request.Context(), s.logger), "load transcription failed", "transcription_load_failed",
			logging.Int64(logging.FieldRecordID, id),
			logging.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "transcriptions unavailable"})
		return
	}
	if record == nil {
		transcriptionNotFound(c)
		return
	}
	if strings.EqualFold(c.Query("format"), "json") {
		c.JSON(http.StatusOK, record)
		return
	}
	c.HTML(http.StatusOK, "transcription.html", gin.H{
		"ID":      record.ID,
		"Title":   record.Title,
		"Content": record.Content,
	})
}

func transcriptionNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "transcription not found"})
}

func (s *Server) handleProcess(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, processResponse{Success: false, Error: "invalid request body"})
		return
	}

	// A blank url is reported by the pipeline as an idle-stage failure.
	result := s.processor.Process(c.Request.Context(), strings.TrimSpace(req.YoutubeURL))
	resp := processResponse{
		Success:   result.Success,
		State:     string(result.State),
		RequestID: result.RequestID,
	}
	if !result.Success {
		resp.Error = result.ErrorMessage()
		resp.ErrorKind = result.ErrorKind()
		resp.Stage = string(result.Stage)
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.ID = result.RecordID
	resp.Title = result.Title
	resp.AudioFile = DownloadURL(KindAudio, result.Title)
	resp.TranscriptFile = DownloadURL(KindTranscription, result.Title)
	resp.SubtitleFile = DownloadURL(KindSubtitles, result.Title)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDownload(c *gin.Context) {
	kind := c.Param("kind")
	title := c.Param("title")
	path, err := resolveDownload(s.cfg.Paths.DownloadsDir, kind, title)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "file not found"})
		return
	}
	c.FileAttachment(path, title+filepath.Ext(path))
}

// resolveDownload maps a download kind and sanitized title to an existing file.
func resolveDownload(downloadsDir, kind, title string) (string, error) {
	dir, err := fetcher.TitleDir(downloadsDir, title)
	if err != nil {
		return "", err
	}
	var path string
	switch kind {
	case KindTranscription:
		path = filepath.Join(dir, subtitles.TranscriptFileName)
	case KindSubtitles:
		path = filepath.Join(dir, subtitles.SubtitleFileName)
	case KindAudio:
		found, err := findAudio(dir)
		if err != nil {
			return "", err
		}
		path = found
	default:
		return "", errors.New("unknown download kind")
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", os.ErrNotExist
	}
	return path, nil
}

// findAudio returns the audio.<ext> file in dir. Names are compared directly
// since titles may contain glob metacharacters.
func findAudio(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	prefix := fetcher.AudioBaseName + "."
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", os.ErrNotExist
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), nil
}

func (s *Server) handleHealth(c *gin.Context) {
	statuses := s.checkDeps()
	store := "ok"
	if err := s.repo.Ping(c.Request.Context()); err != nil {
		logging.WarnWithContext(logging.WithContext(c.Request.Context(), s.logger), "transcript store unreachable", "store_ping_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "server reports not ready"),
		)
		store = "unavailable"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"dependencies": statuses,
		"store":        store,
		"ready":        store == "ok" && deps.AllRequiredAvailable(statuses),
	})
}
