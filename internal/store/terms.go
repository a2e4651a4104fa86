// ABOUTME: Term persistence for SQLiteStore and term-to-post relationships
// ABOUTME: Term counts are computed from relationships to non-trashed posts

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const termSelect = `SELECT t.id, t.taxonomy, t.name, t.slug, t.description, t.parent,
	(SELECT COUNT(*) FROM term_relationships r JOIN posts p ON p.id = r.post_id
		WHERE r.term_id = t.id AND p.status != 'trash') AS count
	FROM terms t`

func scanTerm(row interface{ Scan(...any) error }) (*Term, error) {
	var t Term
	if err := row.Scan(&t.ID, &t.Taxonomy, &t.Name, &t.Slug, &t.Description, &t.Parent, &t.Count); err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTerms(rows *sql.Rows) ([]*Term, error) {
	defer func() { _ = rows.Close() }()

	terms := []*Term{}
	for rows.Next() {
		t, err := scanTerm(rows)
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

var termOrderColumns = map[string]string{
	"name":       "t.name",
	"slug":       "t.slug",
	"term_id":    "t.id",
	"count":      "count",
	"term_order": "t.id",
}

// ListTerms returns terms matching q. Without a limit every match is returned.
func (s *SQLiteStore) ListTerms(ctx context.Context, q TermQuery) ([]*Term, error) {
	conds := []string{"t.taxonomy = ?"}
	args := []any{q.Taxonomy}

	if q.Parent != nil {
		conds = append(conds, "t.parent = ?")
		args = append(args, *q.Parent)
	}
	if q.Search != "" {
		conds = append(conds, "(t.name LIKE ? ESCAPE '\\' OR t.slug LIKE ? ESCAPE '\\')")
		pattern := likePattern(q.Search)
		args = append(args, pattern, pattern)
	}

	query := termSelect + ` WHERE ` + strings.Join(conds, " AND ")
	if q.HideEmpty {
		query = `SELECT * FROM (` + query + `) t WHERE t.count > 0`
	}

	column, ok := termOrderColumns[q.OrderBy]
	if !ok {
		column = "t.name"
	}
	if q.HideEmpty && !strings.HasPrefix(column, "t.") {
		column = "t." + column
	}
	direction := orderDirection(q.Order, "ASC")
	query += ` ORDER BY ` + column + ` ` + direction + `, t.id ASC`

	if q.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Limit, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectTerms(rows)
}

// GetTerm returns term id within taxonomy.
func (s *SQLiteStore) GetTerm(ctx context.Context, taxonomy string, id int64) (*Term, error) {
	return getTerm(ctx, s.db, taxonomy, id)
}

func getTerm(ctx context.Context, q querier, taxonomy string, id int64) (*Term, error) {
	t, err := scanTerm(q.QueryRowContext(ctx, termSelect+` WHERE t.taxonomy = ? AND t.id = ?`, taxonomy, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(fmt.Sprintf("Term with ID %d not found in taxonomy '%s'", id, taxonomy))
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTermBySlug returns the term with slug within taxonomy.
func (s *SQLiteStore) GetTermBySlug(ctx context.Context, taxonomy, slug string) (*Term, error) {
	t, err := scanTerm(s.db.QueryRowContext(ctx, termSelect+` WHERE t.taxonomy = ? AND t.slug = ?`, taxonomy, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(fmt.Sprintf("Term '%s' not found in taxonomy '%s'", slug, taxonomy))
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTerm inserts t. A name already used under the same parent, or an
// explicit slug already in use, is a conflict. Derived slugs are made unique.
func (s *SQLiteStore) CreateTerm(ctx context.Context, t *Term) (*Term, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return nil, invalid("A name is required for this term")
	}

	var created *Term
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkTermRefs(ctx, tx, t.Taxonomy, t.Parent, 0); err != nil {
			return err
		}

		dup, err := rowExists(ctx, tx, `SELECT 1 FROM terms WHERE taxonomy = ? AND parent = ? AND name = ?`,
			t.Taxonomy, t.Parent, name)
		if err != nil {
			return err
		}
		if dup {
			return conflict("A term with the name provided already exists with this parent")
		}

		slug, err := s.termSlug(ctx, tx, t.Taxonomy, t.Slug, name, 0)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO terms (taxonomy, name, slug, description, parent) VALUES (?, ?, ?, ?, ?)
		`, t.Taxonomy, name, slug, t.Description, t.Parent)
		if err != nil {
			return fmt.Errorf("inserting term: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		created, err = getTerm(ctx, tx, t.Taxonomy, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateTerm applies patch to term id within taxonomy.
func (s *SQLiteStore) UpdateTerm(ctx context.Context, taxonomy string, id int64, patch TermPatch) (*Term, error) {
	var updated *Term
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := getTerm(ctx, tx, taxonomy, id)
		if err != nil {
			return err
		}

		next := *cur
		if patch.Name != nil {
			next.Name = strings.TrimSpace(*patch.Name)
			if next.Name == "" {
				return invalid("A name is required for this term")
			}
		}
		setString(&next.Description, patch.Description)
		setInt(&next.Parent, patch.Parent)

		if err := checkTermRefs(ctx, tx, taxonomy, next.Parent, id); err != nil {
			return err
		}

		if next.Name != cur.Name || next.Parent != cur.Parent {
			dup, err := rowExists(ctx, tx,
				`SELECT 1 FROM terms WHERE taxonomy = ? AND parent = ? AND name = ? AND id != ?`,
				taxonomy, next.Parent, next.Name, id)
			if err != nil {
				return err
			}
			if dup {
				return conflict("A term with the name provided already exists with this parent")
			}
		}

		if patch.Slug != nil && Slugify(*patch.Slug) != cur.Slug {
			if next.Slug, err = s.termSlug(ctx, tx, taxonomy, *patch.Slug, next.Name, id); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE terms SET name = ?, slug = ?, description = ?, parent = ? WHERE id = ?
		`, next.Name, next.Slug, next.Description, next.Parent, id)
		if err != nil {
			return fmt.Errorf("updating term %d: %w", id, err)
		}
		updated, err = getTerm(ctx, tx, taxonomy, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTerm removes term id and its relationships. Children move up to the
// deleted term's parent.
func (s *SQLiteStore) DeleteTerm(ctx context.Context, taxonomy string, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := getTerm(ctx, tx, taxonomy, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE terms SET parent = ? WHERE taxonomy = ? AND parent = ?`,
			cur.Parent, taxonomy, id); err != nil {
			return fmt.Errorf("reparenting children of term %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM terms WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting term %d: %w", id, err)
		}
		return nil
	})
}

// SetObjectTerms attaches termIDs of taxonomy to a post, replacing the
// post's existing terms in that taxonomy unless appendTerms is set. It returns
// the IDs of every term now attached in the taxonomy.
func (s *SQLiteStore) SetObjectTerms(ctx context.Context, postID int64, taxonomy string, termIDs []int64, appendTerms bool) ([]int64, error) {
	var attached []int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getPost(ctx, tx, postID); err != nil {
			return err
		}
		for _, id := range termIDs {
			if _, err := getTerm(ctx, tx, taxonomy, id); err != nil {
				return err
			}
		}

		if !appendTerms {
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM term_relationships
				WHERE post_id = ? AND term_id IN (SELECT id FROM terms WHERE taxonomy = ?)
			`, postID, taxonomy); err != nil {
				return fmt.Errorf("clearing terms of post %d: %w", postID, err)
			}
		}
		for i, id := range termIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO term_relationships (post_id, term_id, term_order) VALUES (?, ?, ?)
			`, postID, id, i); err != nil {
				return fmt.Errorf("attaching term %d to post %d: %w", id, postID, err)
			}
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT r.term_id FROM term_relationships r JOIN terms t ON t.id = r.term_id
			WHERE r.post_id = ? AND t.taxonomy = ? ORDER BY r.term_order, r.term_id
		`, postID, taxonomy)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		attached = []int64{}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			attached = append(attached, id)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return attached, nil
}

// GetObjectTerms returns the terms of taxonomy attached to a post.
func (s *SQLiteStore) GetObjectTerms(ctx context.Context, postID int64, taxonomy string) ([]*Term, error) {
	rows, err := s.db.QueryContext(ctx, termSelect+`
		JOIN term_relationships rel ON rel.term_id = t.id
		WHERE rel.post_id = ? AND t.taxonomy = ?
		ORDER BY rel.term_order, t.id
	`, postID, taxonomy)
	if err != nil {
		return nil, err
	}
	return collectTerms(rows)
}

// checkTermRefs verifies the taxonomy exists and parent, when set, is a term
// of the same taxonomy other than self.
func checkTermRefs(ctx context.Context, q querier, taxonomy string, parent, self int64) error {
	ok, err := rowExists(ctx, q, `SELECT 1 FROM taxonomies WHERE name = ?`, taxonomy)
	if err != nil {
		return err
	}
	if !ok {
		return invalid(fmt.Sprintf("Taxonomy '%s' does not exist", taxonomy))
	}
	if parent == 0 {
		return nil
	}
	if parent == self {
		return invalid("A term cannot be its own parent")
	}
	ok, err = rowExists(ctx, q, `SELECT 1 FROM terms WHERE taxonomy = ? AND id = ?`, taxonomy, parent)
	if err != nil {
		return err
	}
	if !ok {
		return invalid(fmt.Sprintf("Parent term with ID %d does not exist", parent))
	}
	return nil
}

// termSlug resolves the slug for a term. An explicit slug must be free; a
// slug derived from name is made unique.
func (s *SQLiteStore) termSlug(ctx context.Context, q querier, taxonomy, explicit, name string, self int64) (string, error) {
	taken := func(candidate string) (bool, error) {
		return rowExists(ctx, q, `SELECT 1 FROM terms WHERE taxonomy = ? AND slug = ? AND id != ?`, taxonomy, candidate, self)
	}

	if slug := Slugify(explicit); slug != "" {
		used, err := taken(slug)
		if err != nil {
			return "", err
		}
		if used {
			return "", conflict(fmt.Sprintf("The slug '%s' is already in use by another term", slug))
		}
		return slug, nil
	}
	return uniqueSlug(Slugify(name), taken)
}
