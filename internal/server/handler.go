package server

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	apperrors "resumescore/internal/errors"
	"resumescore/internal/extract"
	"resumescore/internal/repository"
	"resumescore/internal/types"
)

const (
	errCodeBusy = "SERVER_BUSY"

	// multipartMemory is the part of a multipart body kept in memory; the rest spills to disk.
	multipartMemory = 8 << 20

	sourceUpload = "upload"
	sourceText   = "text"
)

type createVersionForm struct {
	VersionName string `validate:"required,max=255"`
}

// analyzeUploadHandler extracts the uploaded file and returns its analysis.
func (s *Server) analyzeUploadHandler(w http.ResponseWriter, r *http.Request) {
	doc, _, err := s.readUpload(r)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	text, err := s.deps.Extractor.Extract(r.Context(), doc)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	result, err := s.analyze(r.Context(), sourceUpload, text)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) analyzeTextHandler(w http.ResponseWriter, r *http.Request) {
	var req types.AnalyzeTextRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	result, err := s.analyze(r.Context(), sourceText, req.Text)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// analyze runs the engine once a concurrency slot is free.
func (s *Server) analyze(ctx context.Context, source, text string) (types.ResumeAnalysis, error) {
	if strings.TrimSpace(text) == "" {
		return types.ResumeAnalysis{}, apperrors.NewEmptyInputError()
	}

	release, err := s.acquireSlot(ctx)
	if err != nil {
		return types.ResumeAnalysis{}, err
	}
	defer release()

	return s.metrics.TrackAnalysis(ctx, source, func(ctx context.Context) (types.ResumeAnalysis, error) {
		return s.deps.Engine.Analyze(ctx, text)
	})
}

// acquireSlot waits for an analysis slot for at most RequestTimeout.
func (s *Server) acquireSlot(ctx context.Context) (func(), error) {
	if s.slots == nil {
		return func() {}, nil
	}
	if s.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.RequestTimeout)
		defer cancel()
	}
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return nil, apperrors.NewInternalError(errCodeBusy, "no analysis slot available", err)
	}
	return func() { s.slots.Release(1) }, nil
}

// readUpload reads the multipart "file" field.
func (s *Server) readUpload(r *http.Request) (extract.Document, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errorStatus(err) == http.StatusRequestEntityTooLarge {
			return extract.Document{}, nil, err
		}
		return extract.Document{}, nil, apperrors.NewValidationError(apperrors.ErrCodeInvalidRequest,
			"expected a multipart/form-data body", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return extract.Document{}, nil, apperrors.NewValidationError(apperrors.ErrCodeInvalidRequest,
			"multipart field \"file\" is required", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.Logger.LogError(err, "Failed to close upload")
		}
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		return extract.Document{}, nil, apperrors.NewIOError(apperrors.ErrCodeFileNotReadable, "failed to read upload", err)
	}

	return extract.Document{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, header, nil
}

func (s *Server) createUserHandler(w http.ResponseWriter, r *http.Request) {
	var req types.CreateUserRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	user, err := s.deps.Store.CreateUser(r.Context(), req.Email)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.Logger.Info("User created", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, user)
}

// createVersionHandler analyzes an upload and stores it as a named version.
func (s *Server) createVersionHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.PathValue("userID")

	if _, err := s.deps.Store.GetUser(ctx, userID); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	doc, header, err := s.readUpload(r)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	form := createVersionForm{VersionName: strings.TrimSpace(r.FormValue("version_name"))}
	if err := s.validate.Struct(form); err != nil {
		s.writeAppError(w, r, apperrors.NewValidationError(apperrors.ErrCodeInvalidRequest,
			"version_name is required and at most 255 characters", err))
		return
	}

	text, err := s.deps.Extractor.Extract(ctx, doc)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	result, err := s.analyze(ctx, sourceUpload, text)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	info := types.FileInfo{
		OriginalName: header.Filename,
		Size:         header.Size,
		MimeType:     doc.ContentType,
	}
	if s.deps.Documents != nil {
		path, err := s.deps.Documents.PutDocument(ctx, userID, doc.Name, doc.ContentType, doc.Data)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		info.Path = path
	}

	version, err := s.deps.Store.CreateVersion(ctx, repository.NewVersion{
		UserID:      userID,
		VersionName: form.VersionName,
		Content:     text,
		Analysis:    result,
		File:        info,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	s.metrics.RecordVersionSaved(ctx)
	s.Logger.Info("Resume version saved",
		"user_id", userID,
		"version_id", version.ID,
		"score", version.Score)
	writeJSON(w, http.StatusCreated, version)
}

func (s *Server) listVersionsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	if _, err := s.deps.Store.GetUser(r.Context(), userID); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	versions, err := s.deps.Store.ListVersions(r.Context(), userID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":  userID,
		"count":    len(versions),
		"versions": versions,
	})
}

func (s *Server) getVersionHandler(w http.ResponseWriter, r *http.Request) {
	version, err := s.deps.Store.GetVersion(r.Context(), r.PathValue("versionID"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

func (s *Server) deleteVersionHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("versionID")
	if err := s.deps.Store.DeleteVersion(r.Context(), id); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.Logger.Info("Resume version deleted", "version_id", id)
	w.WriteHeader(http.StatusNoContent)
}
