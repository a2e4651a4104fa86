// ABOUTME: Post persistence for SQLiteStore: queries, create, partial update, and trash/delete
// ABOUTME: Slugs are derived from titles and kept unique within a post type

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const postColumns = `id, type, title, slug, content, excerpt, status, author_id, parent_id,
	menu_order, comment_status, ping_status, created_at, modified_at`

func scanPost(row interface{ Scan(...any) error }) (*Post, error) {
	var p Post
	var createdAt, modifiedAt string
	err := row.Scan(&p.ID, &p.Type, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.Status,
		&p.AuthorID, &p.ParentID, &p.MenuOrder, &p.CommentStatus, &p.PingStatus,
		&createdAt, &modifiedAt)
	if err != nil {
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(DateLayout, createdAt)
	p.ModifiedAt, _ = time.Parse(DateLayout, modifiedAt)
	return &p, nil
}

var postOrderColumns = map[string]string{
	"date":     "created_at",
	"title":    "title",
	"modified": "modified_at",
	"author":   "author_id",
	"ID":       "id",
}

// ListPosts returns posts matching q.
func (s *SQLiteStore) ListPosts(ctx context.Context, q PostQuery) ([]*Post, error) {
	var conds []string
	var args []any

	if q.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, q.Type)
	}
	if q.Status == "" || q.Status == StatusAny {
		conds = append(conds, "status != ?")
		args = append(args, StatusTrash)
	} else {
		conds = append(conds, "status = ?")
		args = append(args, q.Status)
	}
	if q.Slug != "" {
		conds = append(conds, "slug = ?")
		args = append(args, q.Slug)
	}
	if q.AuthorID != 0 {
		conds = append(conds, "author_id = ?")
		args = append(args, q.AuthorID)
	}
	if q.Search != "" {
		conds = append(conds, "(title LIKE ? ESCAPE '\\' OR content LIKE ? ESCAPE '\\' OR excerpt LIKE ? ESCAPE '\\')")
		pattern := likePattern(q.Search)
		args = append(args, pattern, pattern, pattern)
	}

	column, ok := postOrderColumns[q.OrderBy]
	if !ok {
		column = "created_at"
	}
	direction := orderDirection(q.Order, "DESC")

	query := `SELECT ` + postColumns + ` FROM posts WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY ` + column + ` ` + direction + `, id ` + direction
	if q.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Limit, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	posts := []*Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPost retrieves a post by ID, including trashed posts.
func (s *SQLiteStore) GetPost(ctx context.Context, id int64) (*Post, error) {
	return getPost(ctx, s.db, id)
}

func getPost(ctx context.Context, q querier, id int64) (*Post, error) {
	p, err := scanPost(q.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(fmt.Sprintf("Content with ID %d not found", id))
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePost inserts p and returns the stored post. Empty status defaults to
// draft, empty author to DefaultAuthorID, and the slug is derived from the
// title when not given.
func (s *SQLiteStore) CreatePost(ctx context.Context, p *Post) (*Post, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, invalid("Content title cannot be empty")
	}

	in := *p
	if in.Status == "" {
		in.Status = StatusDraft
	}
	if in.AuthorID == 0 {
		in.AuthorID = DefaultAuthorID
	}
	if in.CommentStatus == "" {
		in.CommentStatus = "open"
	}
	if in.PingStatus == "" {
		in.PingStatus = "open"
	}

	var created *Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkPostRefs(ctx, tx, in.Type, in.Status, in.AuthorID, in.ParentID); err != nil {
			return err
		}

		base := Slugify(in.Slug)
		if base == "" {
			base = Slugify(in.Title)
		}
		slug, err := uniqueSlug(base, func(candidate string) (bool, error) {
			return rowExists(ctx, tx, `SELECT 1 FROM posts WHERE type = ? AND slug = ?`, in.Type, candidate)
		})
		if err != nil {
			return err
		}

		now := s.timestamp()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO posts (type, title, slug, content, excerpt, status, author_id, parent_id,
				menu_order, comment_status, ping_status, created_at, modified_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, in.Type, in.Title, slug, in.Content, in.Excerpt, in.Status, in.AuthorID, in.ParentID,
			in.MenuOrder, in.CommentStatus, in.PingStatus, now, now)
		if err != nil {
			return fmt.Errorf("inserting post: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		created, err = getPost(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("post created", "id", created.ID, "type", created.Type, "slug", created.Slug)
	return created, nil
}

// UpdatePost applies patch to post id and returns the stored post.
func (s *SQLiteStore) UpdatePost(ctx context.Context, id int64, patch PostPatch) (*Post, error) {
	var updated *Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := getPost(ctx, tx, id)
		if err != nil {
			return err
		}
		if patch.Empty() {
			updated = cur
			return nil
		}

		next := *cur
		if patch.Title != nil {
			if strings.TrimSpace(*patch.Title) == "" {
				return invalid("Content title cannot be empty")
			}
			next.Title = *patch.Title
		}
		setString(&next.Content, patch.Content)
		setString(&next.Excerpt, patch.Excerpt)
		setString(&next.Status, patch.Status)
		setString(&next.CommentStatus, patch.CommentStatus)
		setString(&next.PingStatus, patch.PingStatus)
		setInt(&next.AuthorID, patch.AuthorID)
		setInt(&next.ParentID, patch.ParentID)
		setInt(&next.MenuOrder, patch.MenuOrder)

		if next.ParentID == id {
			return invalid("Content cannot be its own parent")
		}
		if err := s.checkPostRefs(ctx, tx, next.Type, next.Status, next.AuthorID, next.ParentID); err != nil {
			return err
		}

		if patch.Slug != nil && Slugify(*patch.Slug) != cur.Slug {
			base := Slugify(*patch.Slug)
			if base == "" {
				base = Slugify(next.Title)
			}
			next.Slug, err = uniqueSlug(base, func(candidate string) (bool, error) {
				return rowExists(ctx, tx, `SELECT 1 FROM posts WHERE type = ? AND slug = ? AND id != ?`, next.Type, candidate, id)
			})
			if err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE posts SET title = ?, slug = ?, content = ?, excerpt = ?, status = ?, author_id = ?,
				parent_id = ?, menu_order = ?, comment_status = ?, ping_status = ?, modified_at = ?
			WHERE id = ?
		`, next.Title, next.Slug, next.Content, next.Excerpt, next.Status, next.AuthorID,
			next.ParentID, next.MenuOrder, next.CommentStatus, next.PingStatus, s.timestamp(), id)
		if err != nil {
			return fmt.Errorf("updating post %d: %w", id, err)
		}
		updated, err = getPost(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePost moves a post to the trash, or removes it and its term
// relationships when force is set. It returns the post as it was before.
func (s *SQLiteStore) DeletePost(ctx context.Context, id int64, force bool) (*Post, error) {
	var before *Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		before, err = getPost(ctx, tx, id)
		if err != nil {
			return err
		}

		if force {
			if _, err := tx.ExecContext(ctx, `UPDATE posts SET parent_id = ? WHERE parent_id = ?`, before.ParentID, id); err != nil {
				return fmt.Errorf("reparenting children of post %d: %w", id, err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id); err != nil {
				return fmt.Errorf("deleting post %d: %w", id, err)
			}
			return nil
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE posts SET status = ?, modified_at = ? WHERE id = ?
		`, StatusTrash, s.timestamp(), id); err != nil {
			return fmt.Errorf("trashing post %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("post deleted", "id", id, "force", force)
	return before, nil
}

// AuthorName returns the display name of an author, or "" if unknown.
func (s *SQLiteStore) AuthorName(ctx context.Context, id int64) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT display_name FROM authors WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return name, err
}

// checkPostRefs verifies the referenced post type, status, author, and parent.
func (s *SQLiteStore) checkPostRefs(ctx context.Context, q querier, postType, status string, authorID, parentID int64) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM post_types WHERE name = ?`, postType).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return invalid(fmt.Sprintf("Content type '%s' does not exist", postType))
	}
	if err != nil {
		return err
	}

	if !validStatus(status) {
		return invalid(fmt.Sprintf("Invalid post status '%s'", status))
	}

	err = q.QueryRowContext(ctx, `SELECT 1 FROM authors WHERE id = ?`, authorID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return invalid(fmt.Sprintf("Invalid author ID %d", authorID))
	}
	if err != nil {
		return err
	}

	if parentID != 0 {
		err = q.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = ?`, parentID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return invalid(fmt.Sprintf("Parent content with ID %d does not exist", parentID))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func validStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int64, v *int64) {
	if v != nil {
		*dst = *v
	}
}

func orderDirection(order, def string) string {
	switch strings.ToUpper(order) {
	case "ASC":
		return "ASC"
	case "DESC":
		return "DESC"
	}
	return def
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
