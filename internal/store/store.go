// ABOUTME: Store interface and data types for CMS content persistence
// ABOUTME: Defines post types, posts, taxonomies, terms, and the Error value returned on domain failures

package store

import (
	"context"
	"errors"
	"time"
)

// Error codes carried by *Error.
const (
	CodeInvalid  = 400
	CodeNotFound = 404
	CodeConflict = 409
)

// ErrNotFound matches any *Error with CodeNotFound via errors.Is.
var ErrNotFound = errors.New("not found")

// Error is a domain failure reported by the store. Callers distinguish it
// from infrastructure errors with IsError.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// ErrorCode exposes the numeric code to error classifiers.
func (e *Error) ErrorCode() int {
	return e.Code
}

// Is reports whether target is ErrNotFound and e is a not-found error.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Code == CodeNotFound
}

// IsError reports whether err is, or wraps, a store domain error.
func IsError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}

func notFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

func conflict(message string) *Error {
	return &Error{Code: CodeConflict, Message: message}
}

func invalid(message string) *Error {
	return &Error{Code: CodeInvalid, Message: message}
}

// Post statuses.
const (
	StatusPublish = "publish"
	StatusDraft   = "draft"
	StatusPending = "pending"
	StatusPrivate = "private"
	StatusFuture  = "future"
	StatusTrash   = "trash"

	// StatusAny matches every status except trash in a PostQuery.
	StatusAny = "any"
)

// Statuses lists every stored post status in display order.
var Statuses = []string{StatusPublish, StatusDraft, StatusPending, StatusPrivate, StatusFuture, StatusTrash}

// DateLayout is the textual form of post dates.
const DateLayout = "2006-01-02 15:04:05"

// PostType describes a kind of content, such as post or page.
type PostType struct {
	Name          string
	Label         string
	SingularLabel string
	Description   string
	Public        bool
	Hierarchical  bool
	ShowUI        bool
	ShowInRest    bool
	RestBase      string
	HasArchive    bool
	MenuIcon      string
	Supports      []string
}

// Taxonomy describes a grouping of terms attached to one or more post types.
type Taxonomy struct {
	Name          string
	Label         string
	SingularLabel string
	Description   string
	Public        bool
	Hierarchical  bool
	ShowUI        bool
	ShowInRest    bool
	RestBase      string
	ShowTagcloud  bool
	ObjectTypes   []string
}

// Post is a single piece of content of any post type.
type Post struct {
	ID            int64
	Type          string
	Title         string
	Slug          string
	Content       string
	Excerpt       string
	Status        string
	AuthorID      int64
	ParentID      int64
	MenuOrder     int64
	CommentStatus string
	PingStatus    string
	CreatedAt     time.Time
	ModifiedAt    time.Time
}

// PostPatch lists post fields to change; nil fields are left alone.
type PostPatch struct {
	Title         *string
	Slug          *string
	Content       *string
	Excerpt       *string
	Status        *string
	AuthorID      *int64
	ParentID      *int64
	MenuOrder     *int64
	CommentStatus *string
	PingStatus    *string
}

// Empty reports whether the patch changes nothing.
func (p PostPatch) Empty() bool {
	return p == PostPatch{}
}

// Term is a member of a taxonomy. Count is the number of non-trashed posts
// it is attached to.
type Term struct {
	ID          int64
	Taxonomy    string
	Name        string
	Slug        string
	Description string
	Parent      int64
	Count       int64
}

// TermPatch lists term fields to change; nil fields are left alone.
type TermPatch struct {
	Name        *string
	Slug        *string
	Description *string
	Parent      *int64
}

// TypeFilter narrows post type and taxonomy discovery. Nil fields match all.
type TypeFilter struct {
	Public *bool
	ShowUI *bool
}

// PostQuery selects posts. Zero values mean "no filter" except where noted.
type PostQuery struct {
	Type     string
	Status   string // StatusAny or empty matches everything but trash
	Slug     string
	AuthorID int64
	Search   string
	OrderBy  string // date, title, modified, author, ID
	Order    string // ASC or DESC
	Limit    int
	Offset   int
}

// TermQuery selects terms within a taxonomy.
type TermQuery struct {
	Taxonomy  string
	HideEmpty bool
	Parent    *int64
	Search    string
	OrderBy   string // name, slug, term_id, count, term_order
	Order     string // ASC or DESC
	Limit     int
	Offset    int
}

// Store is the content and taxonomy backend used by the CMS tools.
type Store interface {
	// Post types
	TypeExists(ctx context.Context, name string) (bool, error)
	EnsurePostType(ctx context.Context, pt *PostType) error
	ListPostTypes(ctx context.Context, filter TypeFilter) ([]*PostType, error)
	CountPosts(ctx context.Context, postType string) (map[string]int64, error)

	// Posts
	ListPosts(ctx context.Context, q PostQuery) ([]*Post, error)
	GetPost(ctx context.Context, id int64) (*Post, error)
	CreatePost(ctx context.Context, p *Post) (*Post, error)
	UpdatePost(ctx context.Context, id int64, patch PostPatch) (*Post, error)
	DeletePost(ctx context.Context, id int64, force bool) (*Post, error)
	AuthorName(ctx context.Context, id int64) (string, error)

	// Taxonomies
	TaxonomyExists(ctx context.Context, name string) (bool, error)
	EnsureTaxonomy(ctx context.Context, tax *Taxonomy) error
	ListTaxonomies(ctx context.Context, filter TypeFilter) ([]*Taxonomy, error)
	GetTaxonomy(ctx context.Context, name string) (*Taxonomy, error)
	ObjectTaxonomies(ctx context.Context, postType string) ([]string, error)

	// Terms
	ListTerms(ctx context.Context, q TermQuery) ([]*Term, error)
	GetTerm(ctx context.Context, taxonomy string, id int64) (*Term, error)
	GetTermBySlug(ctx context.Context, taxonomy, slug string) (*Term, error)
	CreateTerm(ctx context.Context, t *Term) (*Term, error)
	UpdateTerm(ctx context.Context, taxonomy string, id int64, patch TermPatch) (*Term, error)
	DeleteTerm(ctx context.Context, taxonomy string, id int64) error
	SetObjectTerms(ctx context.Context, postID int64, taxonomy string, termIDs []int64, appendTerms bool) ([]int64, error)
	GetObjectTerms(ctx context.Context, postID int64, taxonomy string) ([]*Term, error)

	// Version reports the backing database engine version.
	Version(ctx context.Context) (string, error)
	Close() error
}
