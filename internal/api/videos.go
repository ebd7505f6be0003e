package api

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"playbook/internal/auth"
	"playbook/internal/httputil"
	"playbook/internal/store"
)

// Direct upload limits.
const (
	maxVideoBytes     = 100 << 20
	maxThumbnailBytes = 5 << 20
	multipartMemory   = 8 << 20

	defaultThumbnail = uploadsPrefix + "/thumbnails/default-thumbnail.jpg"
)

var (
	errFileTooLarge = errors.New("file too large")
	errWrongKind    = errors.New("unexpected file type")
)

// formFile reads a size-limited multipart file whose content type starts
// with kind. A missing file returns http.ErrMissingFile.
func formFile(w http.ResponseWriter, r *http.Request, field, kind string, limit int64) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, nil, errFileTooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, http.ErrMissingFile
		}
		return nil, nil, err
	}
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return nil, nil, err
	}
	if hdr.Size > limit {
		f.Close()
		return nil, nil, errFileTooLarge
	}
	if !strings.HasPrefix(hdr.Header.Get("Content-Type"), kind+"/") {
		f.Close()
		return nil, nil, errWrongKind
	}
	return f, hdr, nil
}

// fileError answers the request for a formFile failure.
func fileError(w http.ResponseWriter, err error, missing, kind string) {
	switch {
	case errors.Is(err, http.ErrMissingFile):
		writeMessage(w, http.StatusBadRequest, missing)
	case errors.Is(err, errFileTooLarge):
		writeMessage(w, http.StatusRequestEntityTooLarge, "File too large")
	case errors.Is(err, errWrongKind):
		writeMessage(w, http.StatusBadRequest, "Only "+kind+" files are allowed")
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid upload", "error": err.Error()})
	}
}

func (s *Server) uploadVideo(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	f, hdr, err := formFile(w, r, "video", "video", maxVideoBytes)
	if err != nil {
		fileError(w, err, "No video file uploaded", "video")
		return
	}
	defer f.Close()

	key := "videos/video-" + s.newID() + httputil.Extension(hdr.Filename, ".mp4")
	res, err := s.uploads.Upload(r.Context(), f, key, hdr.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, s.log, "Error uploading video", err)
		return
	}

	duration, _ := strconv.ParseInt(r.FormValue("duration"), 10, 64)
	video, err := s.store.CreateVideo(r.Context(), store.Video{
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		FilePath:      res.URL,
		ThumbnailPath: defaultThumbnail,
		Duration:      duration,
		UserID:        u.ID,
	})
	if err != nil {
		s.removeUpload(res.URL)
		writeError(w, s.log, "Error uploading video", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Video uploaded successfully",
		"video":   video,
	})
}

// ownedVideo loads the video in the path and checks the caller owns it.
// verb completes "Not authorized to ... this video".
func (s *Server) ownedVideo(w http.ResponseWriter, r *http.Request, verb string) (*store.Video, bool) {
	u, _ := auth.UserFromContext(r.Context())
	id, ok := pathID(w, r, "videoId", "Invalid video ID")
	if !ok {
		return nil, false
	}

	video, err := s.store.GetVideo(r.Context(), id)
	if err != nil {
		var nf *store.NotFoundError
		if errors.As(err, &nf) {
			writeMessage(w, http.StatusNotFound, "Video not found")
			return nil, false
		}
		writeError(w, s.log, "Error fetching video", err)
		return nil, false
	}
	if video.UserID != u.ID {
		writeMessage(w, http.StatusForbidden, "Not authorized to "+verb+" this video")
		return nil, false
	}
	return video, true
}

func (s *Server) uploadThumbnail(w http.ResponseWriter, r *http.Request) {
	video, ok := s.ownedVideo(w, r, "update")
	if !ok {
		return
	}

	f, hdr, err := formFile(w, r, "thumbnail", "image", maxThumbnailBytes)
	if err != nil {
		fileError(w, err, "No thumbnail file uploaded", "image")
		return
	}
	defer f.Close()

	key := "thumbnails/thumbnail-" + s.newID() + httputil.Extension(hdr.Filename, ".jpg")
	res, err := s.uploads.Upload(r.Context(), f, key, hdr.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, s.log, "Error uploading thumbnail", err)
		return
	}

	updated, err := s.store.UpdateVideo(r.Context(), video.ID, video.Title, video.Description, res.URL)
	if err != nil {
		s.removeUpload(res.URL)
		writeError(w, s.log, "Error uploading thumbnail", err)
		return
	}
	if video.ThumbnailPath != defaultThumbnail {
		s.removeUpload(video.ThumbnailPath)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Thumbnail uploaded successfully",
		"video":   updated,
	})
}

type pagination struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// pageOf reads limit and page query parameters. Invalid values fall back
// to 10 and 1; limit is capped at 100.
func pageOf(r *http.Request) pagination {
	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	limit = min(limit, 100)
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}
	return pagination{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

func (s *Server) listVideos(w http.ResponseWriter, r *http.Request) {
	p := pageOf(r)
	videos, err := s.store.ListVideos(r.Context(), p.Limit, p.Offset)
	if err != nil {
		writeError(w, s.log, "Error fetching videos", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"videos": videos, "pagination": p})
}

func (s *Server) listUserVideos(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId", "Invalid user ID")
	if !ok {
		return
	}
	p := pageOf(r)
	videos, err := s.store.ListUserVideos(r.Context(), userID, p.Limit, p.Offset)
	if err != nil {
		writeError(w, s.log, "Error fetching user videos", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"videos": videos, "pagination": p})
}

func (s *Server) getVideo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "videoId", "Invalid video ID")
	if !ok {
		return
	}
	video, err := s.store.GetVideo(r.Context(), id)
	if err != nil {
		var nf *store.NotFoundError
		if errors.As(err, &nf) {
			writeMessage(w, http.StatusNotFound, "Video not found")
			return
		}
		writeError(w, s.log, "Error fetching video", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"video": video})
}

type updateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (s *Server) updateVideo(w http.ResponseWriter, r *http.Request) {
	video, ok := s.ownedVideo(w, r, "update")
	if !ok {
		return
	}

	var req updateVideoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	title, description := video.Title, video.Description
	if req.Title != nil {
		title = *req.Title
	}
	if req.Description != nil {
		description = *req.Description
	}

	updated, err := s.store.UpdateVideo(r.Context(), video.ID, title, description, video.ThumbnailPath)
	if err != nil {
		writeError(w, s.log, "Error updating video", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Video updated successfully",
		"video":   updated,
	})
}

func (s *Server) deleteVideo(w http.ResponseWriter, r *http.Request) {
	video, ok := s.ownedVideo(w, r, "delete")
	if !ok {
		return
	}

	if err := s.store.DeleteVideo(r.Context(), video.ID); err != nil {
		writeError(w, s.log, "Error deleting video", err)
		return
	}
	s.removeUpload(video.FilePath)
	if video.ThumbnailPath != defaultThumbnail {
		s.removeUpload(video.ThumbnailPath)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Video deleted successfully",
		"videoId": video.ID,
	})
}

type linkPlayRequest struct {
	PlayID int64 `json:"play_id"`
}

func (s *Server) linkVideoPlay(w http.ResponseWriter, r *http.Request) {
	video, ok := s.ownedVideo(w, r, "update")
	if !ok {
		return
	}
	var req linkPlayRequest
	if err := decodeJSON(w, r, &req); err != nil || req.PlayID <= 0 {
		writeMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if err := s.store.LinkVideoPlay(r.Context(), video.ID, req.PlayID); err != nil {
		writeError(w, s.log, "Error linking play", err)
		return
	}
	updated, err := s.store.GetVideo(r.Context(), video.ID)
	if err != nil {
		writeError(w, s.log, "Error linking play", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Play linked successfully",
		"video":   updated,
	})
}

// removeUpload deletes a locally served file. Failures are logged only.
func (s *Server) removeUpload(publicURL string) {
	key, ok := s.uploads.KeyFor(publicURL)
	if !ok {
		return
	}
	if err := s.uploads.Delete(context.Background(), key); err != nil {
		s.log.WithFields(logrus.Fields{"key": key}).WithError(err).Warn("remove upload")
	}
}
