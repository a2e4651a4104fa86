// ABOUTME: Post type and taxonomy registration and discovery for SQLiteStore
// ABOUTME: Registrations are upserts so configured types can be reapplied on every start

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// TypeExists reports whether a post type is registered.
func (s *SQLiteStore) TypeExists(ctx context.Context, name string) (bool, error) {
	return rowExists(ctx, s.db, `SELECT 1 FROM post_types WHERE name = ?`, name)
}

// TaxonomyExists reports whether a taxonomy is registered.
func (s *SQLiteStore) TaxonomyExists(ctx context.Context, name string) (bool, error) {
	return rowExists(ctx, s.db, `SELECT 1 FROM taxonomies WHERE name = ?`, name)
}

// EnsurePostType registers pt, replacing any existing definition.
func (s *SQLiteStore) EnsurePostType(ctx context.Context, pt *PostType) error {
	if strings.TrimSpace(pt.Name) == "" {
		return invalid("Post type name is required")
	}
	supports, err := json.Marshal(nonNil(pt.Supports))
	if err != nil {
		return fmt.Errorf("encoding supports: %w", err)
	}

	label, singular := labels(pt.Name, pt.Label, pt.SingularLabel)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO post_types (name, label, singular_label, description, public, hierarchical,
			show_ui, show_in_rest, rest_base, has_archive, menu_icon, supports_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			label = excluded.label,
			singular_label = excluded.singular_label,
			description = excluded.description,
			public = excluded.public,
			hierarchical = excluded.hierarchical,
			show_ui = excluded.show_ui,
			show_in_rest = excluded.show_in_rest,
			rest_base = excluded.rest_base,
			has_archive = excluded.has_archive,
			menu_icon = excluded.menu_icon,
			supports_json = excluded.supports_json
	`, pt.Name, label, singular, pt.Description, pt.Public, pt.Hierarchical,
		pt.ShowUI, pt.ShowInRest, pt.RestBase, pt.HasArchive, pt.MenuIcon, string(supports))
	if err != nil {
		return fmt.Errorf("registering post type %s: %w", pt.Name, err)
	}
	return nil
}

// ListPostTypes returns registered post types ordered by name.
func (s *SQLiteStore) ListPostTypes(ctx context.Context, filter TypeFilter) ([]*PostType, error) {
	where, args := filter.clause()
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, label, singular_label, description, public, hierarchical,
			show_ui, show_in_rest, rest_base, has_archive, menu_icon, supports_json
		FROM post_types`+where+` ORDER BY name`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var types []*PostType
	for rows.Next() {
		var pt PostType
		var supports string
		if err := rows.Scan(&pt.Name, &pt.Label, &pt.SingularLabel, &pt.Description, &pt.Public,
			&pt.Hierarchical, &pt.ShowUI, &pt.ShowInRest, &pt.RestBase, &pt.HasArchive,
			&pt.MenuIcon, &supports); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(supports), &pt.Supports); err != nil {
			return nil, fmt.Errorf("decoding supports for %s: %w", pt.Name, err)
		}
		types = append(types, &pt)
	}
	return types, rows.Err()
}

// CountPosts returns the number of posts of postType in each status. Every
// status in Statuses is present, zero when unused.
func (s *SQLiteStore) CountPosts(ctx context.Context, postType string) (map[string]int64, error) {
	counts := make(map[string]int64, len(Statuses))
	for _, status := range Statuses {
		counts[status] = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM posts WHERE type = ? GROUP BY status
	`, postType)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// EnsureTaxonomy registers tax and its object types, replacing any existing
// definition.
func (s *SQLiteStore) EnsureTaxonomy(ctx context.Context, tax *Taxonomy) error {
	if strings.TrimSpace(tax.Name) == "" {
		return invalid("Taxonomy name is required")
	}
	label, singular := labels(tax.Name, tax.Label, tax.SingularLabel)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO taxonomies (name, label, singular_label, description, public, hierarchical,
				show_ui, show_in_rest, rest_base, show_tagcloud)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				label = excluded.label,
				singular_label = excluded.singular_label,
				description = excluded.description,
				public = excluded.public,
				hierarchical = excluded.hierarchical,
				show_ui = excluded.show_ui,
				show_in_rest = excluded.show_in_rest,
				rest_base = excluded.rest_base,
				show_tagcloud = excluded.show_tagcloud
		`, tax.Name, label, singular, tax.Description, tax.Public, tax.Hierarchical,
			tax.ShowUI, tax.ShowInRest, tax.RestBase, tax.ShowTagcloud)
		if err != nil {
			return fmt.Errorf("registering taxonomy %s: %w", tax.Name, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM taxonomy_object_types WHERE taxonomy = ?`, tax.Name); err != nil {
			return fmt.Errorf("clearing object types for %s: %w", tax.Name, err)
		}
		for _, pt := range tax.ObjectTypes {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO taxonomy_object_types (taxonomy, post_type) VALUES (?, ?)
			`, tax.Name, pt); err != nil {
				return fmt.Errorf("linking taxonomy %s to %s: %w", tax.Name, pt, err)
			}
		}
		return nil
	})
}

const taxonomyColumns = `name, label, singular_label, description, public, hierarchical,
	show_ui, show_in_rest, rest_base, show_tagcloud`

func scanTaxonomy(row interface{ Scan(...any) error }) (*Taxonomy, error) {
	var t Taxonomy
	err := row.Scan(&t.Name, &t.Label, &t.SingularLabel, &t.Description, &t.Public,
		&t.Hierarchical, &t.ShowUI, &t.ShowInRest, &t.RestBase, &t.ShowTagcloud)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTaxonomies returns registered taxonomies ordered by name.
func (s *SQLiteStore) ListTaxonomies(ctx context.Context, filter TypeFilter) ([]*Taxonomy, error) {
	where, args := filter.clause()
	rows, err := s.db.QueryContext(ctx, `SELECT `+taxonomyColumns+` FROM taxonomies`+where+` ORDER BY name`, args...)
	if err != nil {
		return nil, err
	}

	var taxonomies []*Taxonomy
	for rows.Next() {
		t, err := scanTaxonomy(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		taxonomies = append(taxonomies, t)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	// The single connection must be released before loading object types.
	for _, t := range taxonomies {
		if t.ObjectTypes, err = s.objectTypes(ctx, t.Name); err != nil {
			return nil, err
		}
	}
	return taxonomies, nil
}

// GetTaxonomy returns the taxonomy called name.
func (s *SQLiteStore) GetTaxonomy(ctx context.Context, name string) (*Taxonomy, error) {
	t, err := scanTaxonomy(s.db.QueryRowContext(ctx, `SELECT `+taxonomyColumns+` FROM taxonomies WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(fmt.Sprintf("Taxonomy '%s' not found", name))
	}
	if err != nil {
		return nil, err
	}
	if t.ObjectTypes, err = s.objectTypes(ctx, name); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *SQLiteStore) objectTypes(ctx context.Context, taxonomy string) ([]string, error) {
	return s.strings(ctx, `
		SELECT post_type FROM taxonomy_object_types WHERE taxonomy = ? ORDER BY post_type
	`, taxonomy)
}

// ObjectTaxonomies returns the taxonomies attached to postType.
func (s *SQLiteStore) ObjectTaxonomies(ctx context.Context, postType string) ([]string, error) {
	return s.strings(ctx, `
		SELECT taxonomy FROM taxonomy_object_types WHERE post_type = ? ORDER BY taxonomy
	`, postType)
}

func (s *SQLiteStore) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (f TypeFilter) clause() (string, []any) {
	var conds []string
	var args []any
	if f.Public != nil {
		conds = append(conds, "public = ?")
		args = append(args, *f.Public)
	}
	if f.ShowUI != nil {
		conds = append(conds, "show_ui = ?")
		args = append(args, *f.ShowUI)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// labels fills in missing plural and singular labels from the type name.
func labels(name, label, singular string) (string, string) {
	if singular == "" {
		singular = label
	}
	if singular == "" {
		singular = titleCase(strings.ReplaceAll(name, "_", " "))
	}
	if label == "" {
		label = singular + "s"
	}
	return label, singular
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
