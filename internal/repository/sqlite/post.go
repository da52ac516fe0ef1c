package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/haneul/bulletin/internal/apperror"
	"github.com/haneul/bulletin/internal/model"
	"github.com/haneul/bulletin/internal/repository"
)

// Compile-time check that *DB implements repository.PostRepository.
var _ repository.PostRepository = (*DB)(nil)

const postColumns = `id, title, content, author_name, user_id, edit_password_hash, tags, like_count, created_at, updated_at`

// scanPost is the row mapper: it reads one posts row, turning nullable
// columns into defined defaults. It is total — a row with NULL author,
// owner, and counter still yields a usable record ("anonymous", no owner,
// zero likes).
func scanPost(scan func(dest ...any) error) (*model.Post, error) {
	var (
		p          model.Post
		authorName sql.NullString
		userID     sql.NullString
		editHash   sql.NullString
		tags       string
		likeCount  sql.NullInt64
	)

	err := scan(
		&p.ID, &p.Title, &p.Content,
		&authorName, &userID, &editHash,
		&tags, &likeCount,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.AuthorName = authorName.String
	if p.AuthorName == "" {
		p.AuthorName = model.AnonymousAuthor
	}
	p.UserID = userID.String
	p.EditPasswordHash = editHash.String
	p.Tags = splitTags(tags)
	p.LikeCount = int(likeCount.Int64)

	return &p, nil
}

// Tags are stored as a single comma-joined column. The validate package
// already cleaned them, so storage only joins and splits.
func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(stored string) []string {
	if stored == "" {
		return []string{}
	}
	return strings.Split(stored, ",")
}

// nullify converts "" to NULL so empty optional fields stay NULL in storage
// rather than becoming empty strings.
func nullify(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a new post. The ID (a uuid) and timestamps are generated
// here and written back onto the caller's struct.
func (db *DB) Create(ctx context.Context, post *model.Post) error {
	post.ID = uuid.NewString()

	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (id, title, content, author_name, user_id, edit_password_hash, tags, like_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID,
		post.Title,
		post.Content,
		nullify(post.AuthorName),
		nullify(post.UserID),
		nullify(post.EditPasswordHash),
		joinTags(post.Tags),
		post.LikeCount,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}

	return nil
}

// GetByID retrieves a single post. sql.ErrNoRows is translated to the
// domain-level not-found error so callers never see driver sentinels.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Post, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = ?`, id,
	)

	post, err := scanPost(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}

	return post, nil
}

// List retrieves posts newest-first with limit/offset pagination.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows, limit)
}

// Count returns the total number of posts, for page math.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting posts: %w", err)
	}
	return n, nil
}

// Search finds posts whose title or content contains the query, newest
// first. Plain LIKE matching — good enough for a small board; swapping in
// FTS5 would be invisible to callers.
func (db *DB) Search(ctx context.Context, query string, opts repository.ListOptions) ([]model.Post, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	pattern := "%" + escapeLike(query) + "%"
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\'
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		pattern, pattern, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching posts: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows, limit)
}

// SearchCount returns the number of posts matching the query.
func (db *DB) SearchCount(ctx context.Context, query string) (int, error) {
	pattern := "%" + escapeLike(query) + "%"
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts
		 WHERE title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\'`,
		pattern, pattern,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting search results: %w", err)
	}
	return n, nil
}

// Update modifies the mutable fields of an existing post. Ownership columns
// (user_id, edit_password_hash) are immutable after creation — the authority
// over a post never changes.
func (db *DB) Update(ctx context.Context, post *model.Post) error {
	post.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE posts
		 SET title = ?, content = ?, author_name = ?, tags = ?, updated_at = ?
		 WHERE id = ?`,
		post.Title,
		post.Content,
		nullify(post.AuthorName),
		joinTags(post.Tags),
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %s: %w", post.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", post.ID)
	}

	return nil
}

// Delete removes a post by ID. RowsAffected detects "not found" without a
// separate SELECT.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", id)
	}

	return nil
}

func collectPosts(rows *sql.Rows, capacity int) ([]model.Post, error) {
	posts := make([]model.Post, 0, capacity)
	for rows.Next() {
		p, err := scanPost(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}
	return posts, nil
}

// escapeLike neutralises LIKE wildcards in user input so a search for "100%"
// matches the literal text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
