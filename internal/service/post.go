// Package service contains the business logic layer. Services accept plain
// Go values, enforce the board's rules, and return domain errors; the HTTP
// handlers above them only parse requests and translate errors to status
// codes, and the repositories below them only run SQL.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/haneul/bulletin/internal/apperror"
	"github.com/haneul/bulletin/internal/auth"
	"github.com/haneul/bulletin/internal/model"
	"github.com/haneul/bulletin/internal/repository"
	"github.com/haneul/bulletin/internal/validate"
)

const (
	// PerPage is the board's fixed page size.
	PerPage = 12
	// LatestCount is how many posts the home page strip shows.
	LatestCount = 5
)

// PostService handles the bulletin board's post logic.
type PostService struct {
	repo      repository.PostRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// Page is one page of posts plus the pagination metadata the board UI needs.
type Page struct {
	Posts      []model.Post `json:"posts"`
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
	TotalCount int          `json:"totalCount"`
}

// PostInput is the submitted data for creating or editing a post.
type PostInput struct {
	Title               string
	Content             string
	AuthorName          string
	Tags                string // raw comma-separated form value
	EditPassword        string
	EditPasswordConfirm string
}

func NewPostService(repo repository.PostRepository, passwords *auth.PasswordService, logger *slog.Logger) *PostService {
	return &PostService{
		repo:      repo,
		passwords: passwords,
		logger:    logger,
	}
}

// Latest returns the newest posts for the home page. Read failures degrade to
// an empty list — the home page renders without the strip rather than erroring.
func (s *PostService) Latest(ctx context.Context) []model.Post {
	posts, err := s.repo.List(ctx, repository.ListOptions{Limit: LatestCount})
	if err != nil {
		s.logger.Error("failed to load latest posts", slog.String("error", err.Error()))
		return []model.Post{}
	}
	return posts
}

// List returns one page of the board, newest first. Pages are 1-based; a page
// below 1 is clamped to 1, and a page past the end returns an empty list with
// correct metadata. Read failures degrade to an empty page 1.
func (s *PostService) List(ctx context.Context, page int) Page {
	if page < 1 {
		page = 1
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("failed to count posts", slog.String("error", err.Error()))
		return emptyPage(page)
	}

	totalPages := pageCount(total)
	if page > totalPages {
		return Page{Posts: []model.Post{}, Page: page, TotalPages: totalPages, TotalCount: total}
	}

	posts, err := s.repo.List(ctx, repository.ListOptions{
		Limit:  PerPage,
		Offset: (page - 1) * PerPage,
	})
	if err != nil {
		s.logger.Error("failed to list posts",
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
		return emptyPage(page)
	}

	return Page{Posts: posts, Page: page, TotalPages: totalPages, TotalCount: total}
}

// GetByID fetches a single post.
func (s *PostService) GetByID(ctx context.Context, id string) (*model.Post, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "post ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// Search runs a paginated keyword search over titles and content. The result
// list and total count are fetched concurrently since neither depends on the
// other. A blank query is not an error: it returns no results with zero pages,
// which the search page renders as its initial empty state.
func (s *PostService) Search(ctx context.Context, query string, page int) (Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Page{Posts: []model.Post{}, Page: 1, TotalPages: 0}, nil
	}
	if page < 1 {
		page = 1
	}

	var (
		posts []model.Post
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = s.repo.Search(gctx, query, repository.ListOptions{
			Limit:  PerPage,
			Offset: (page - 1) * PerPage,
		})
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.SearchCount(gctx, query)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("search failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return Page{}, fmt.Errorf("searching posts: %w", err)
	}

	return Page{Posts: posts, Page: page, TotalPages: pageCount(total), TotalCount: total}, nil
}

// Create validates and saves a new post.
//
// The ownership invariant is established here: a logged-in author produces an
// owned post (user ID set, no edit password), a logged-out author produces an
// anonymous post (bcrypt hash of the edit password, no user ID). Exactly one
// of the two is ever stored.
func (s *PostService) Create(ctx context.Context, input PostInput, userID string) (*model.Post, error) {
	isLoggedIn := userID != ""

	result := validate.ValidatePostInput(validate.PostInput{
		Title:               input.Title,
		Content:             input.Content,
		EditPassword:        input.EditPassword,
		EditPasswordConfirm: input.EditPasswordConfirm,
	}, validate.NewPostContext(isLoggedIn, false))
	if result.HasErrors {
		return nil, apperror.ValidationFields(result.FieldErrors)
	}

	post := &model.Post{
		Title:      strings.TrimSpace(input.Title),
		Content:    input.Content,
		AuthorName: strings.TrimSpace(input.AuthorName),
		Tags:       validate.ParseTags(input.Tags),
	}
	if post.AuthorName == "" {
		post.AuthorName = model.AnonymousAuthor
	}

	if isLoggedIn {
		post.UserID = userID
	} else {
		hash, err := s.passwords.Hash(input.EditPassword)
		if err != nil {
			return nil, fmt.Errorf("hashing edit password: %w", err)
		}
		post.EditPasswordHash = hash
	}

	if err := s.repo.Create(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.String("title", post.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.String("id", post.ID),
		slog.Bool("anonymous", post.Anonymous()),
	)

	return post, nil
}

// Update edits an existing post after the ownership check passes. The edit
// form has no password confirmation field, so confirmation is not required
// here. Ownership never changes on edit: an anonymous post stays anonymous
// and keeps its original edit password.
func (s *PostService) Update(ctx context.Context, id string, input PostInput, req model.EditRequest) (*model.Post, error) {
	post, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := post.Ownership().CanEdit(req, s.passwords.Verify); err != nil {
		return nil, err
	}

	vctx := validate.NewPostContext(req.UserID != "", post.Anonymous())
	vctx.RequirePasswordConfirm = false
	result := validate.ValidatePostInput(validate.PostInput{
		Title:        input.Title,
		Content:      input.Content,
		EditPassword: input.EditPassword,
	}, vctx)
	if result.HasErrors {
		return nil, apperror.ValidationFields(result.FieldErrors)
	}

	post.Title = strings.TrimSpace(input.Title)
	post.Content = input.Content
	post.Tags = validate.ParseTags(input.Tags)
	if name := strings.TrimSpace(input.AuthorName); name != "" {
		post.AuthorName = name
	}

	if err := s.repo.Update(ctx, post); err != nil {
		s.logger.Error("failed to update post",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating post: %w", err)
	}

	s.logger.Info("post updated", slog.String("id", id))

	return post, nil
}

// Delete removes a post after the same ownership check an edit requires.
func (s *PostService) Delete(ctx context.Context, id string, req model.EditRequest) error {
	post, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := post.Ownership().CanEdit(req, s.passwords.Verify); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, post.ID); err != nil {
		s.logger.Error("failed to delete post",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting post: %w", err)
	}

	s.logger.Info("post deleted", slog.String("id", id))

	return nil
}

// pageCount is ceil(total/PerPage), with a floor of one page so an empty
// board still renders as "page 1 of 1".
func pageCount(total int) int {
	pages := (total + PerPage - 1) / PerPage
	if pages < 1 {
		return 1
	}
	return pages
}

func emptyPage(page int) Page {
	return Page{Posts: []model.Post{}, Page: page, TotalPages: 1}
}
