package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"resumescore/internal/errors"
	"resumescore/internal/types"
)

// NewVersion is the input to CreateVersion.
type NewVersion struct {
	UserID      string
	VersionName string
	Content     string
	Analysis    types.ResumeAnalysis
	File        types.FileInfo
}

// CreateVersion stores an analyzed resume. The version name must be unique per user.
func (db *DB) CreateVersion(ctx context.Context, in NewVersion) (*types.ResumeVersion, error) {
	uid, err := parseID(in.UserID, "user")
	if err != nil {
		return nil, err
	}
	analysis, err := json.Marshal(in.Analysis)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeDatabase, "failed to encode analysis", err)
	}

	v := types.ResumeVersion{
		ID:          uuid.NewString(),
		UserID:      uid.String(),
		VersionName: in.VersionName,
		Content:     in.Content,
		Score:       in.Analysis.Score,
		Industry:    in.Analysis.Industry,
		Analysis:    &in.Analysis,
		File:        in.File,
		CreatedAt:   now(),
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO resume_versions
		   (id, user_id, content, score, industry, analysis, version_name,
		    file_path, file_original_name, file_size, file_mime_type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		v.ID, uid, v.Content, v.Score, string(v.Industry), analysis, v.VersionName,
		nullString(v.File.Path), nullString(v.File.OriginalName), nullInt(v.File.Size), nullString(v.File.MimeType),
		v.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err, "resume version")
	}
	return &v, nil
}

const versionColumns = `id::text, user_id::text, content, score, industry, analysis, version_name,
	COALESCE(file_path, ''), COALESCE(file_original_name, ''), COALESCE(file_size, 0), COALESCE(file_mime_type, ''),
	created_at, updated_at`

func scanVersion(row pgx.Row) (*types.ResumeVersion, error) {
	var (
		v        types.ResumeVersion
		industry string
		analysis []byte
	)
	err := row.Scan(&v.ID, &v.UserID, &v.Content, &v.Score, &industry, &analysis, &v.VersionName,
		&v.File.Path, &v.File.OriginalName, &v.File.Size, &v.File.MimeType,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.Industry = types.Industry(industry)

	var decoded types.ResumeAnalysis
	if err := json.Unmarshal(analysis, &decoded); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeDatabase, "stored analysis is corrupt", err).
			WithContext("version_id", v.ID)
	}
	v.Analysis = &decoded
	return &v, nil
}

// GetVersion returns a version that has not been deleted.
func (db *DB) GetVersion(ctx context.Context, id string) (*types.ResumeVersion, error) {
	vid, err := parseID(id, "resume version")
	if err != nil {
		return nil, err
	}
	v, err := scanVersion(db.pool.QueryRow(ctx,
		`SELECT `+versionColumns+` FROM resume_versions WHERE id = $1 AND NOT is_deleted`, vid))
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeDatabase) {
			return nil, err
		}
		return nil, mapError(err, "resume version")
	}
	return v, nil
}

// ListVersions returns a user's live versions, newest first. Content and the
// full analysis are omitted.
func (db *DB) ListVersions(ctx context.Context, userID string) ([]types.ResumeVersion, error) {
	uid, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+versionColumns+` FROM resume_versions
		 WHERE user_id = $1 AND NOT is_deleted
		 ORDER BY created_at DESC`, uid)
	if err != nil {
		return nil, mapError(err, "resume version")
	}
	defer rows.Close()

	versions := []types.ResumeVersion{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, mapError(err, "resume version")
		}
		v.Content = ""
		v.Analysis = nil
		versions = append(versions, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "resume version")
	}
	return versions, nil
}

// DeleteVersion soft-deletes a version. Deleting twice is NOT_FOUND.
func (db *DB) DeleteVersion(ctx context.Context, id string) error {
	vid, err := parseID(id, "resume version")
	if err != nil {
		return err
	}
	tag, err := db.pool.Exec(ctx,
		`UPDATE resume_versions SET is_deleted = TRUE, updated_at = $2
		 WHERE id = $1 AND NOT is_deleted`, vid, now())
	if err != nil {
		return mapError(err, "resume version")
	}
	if tag.RowsAffected() == 0 {
		return errors.NewStorageError(errors.ErrCodeNotFound, "resume version not found", nil).
			WithContext("id", id)
	}
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullInt(n int64) *int64 {
	if n == 0 {
		return nil
	}
	return &n
}
