package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/haneul/bulletin/internal/apperror"
	"github.com/haneul/bulletin/internal/auth"
	"github.com/haneul/bulletin/internal/model"
	"github.com/haneul/bulletin/internal/repository"
)

// mockPostRepo stores posts in memory, newest first, and can be told to fail
// so the degraded read paths are testable.
type mockPostRepo struct {
	posts  []*model.Post
	nextID int

	listErr   error
	countErr  error
	searchErr error
}

func (m *mockPostRepo) Create(_ context.Context, post *model.Post) error {
	m.nextID++
	post.ID = fmt.Sprintf("mock-%d", m.nextID)
	stored := *post
	m.posts = append([]*model.Post{&stored}, m.posts...)
	return nil
}

func (m *mockPostRepo) GetByID(_ context.Context, id string) (*model.Post, error) {
	for _, p := range m.posts {
		if p.ID == id {
			result := *p
			return &result, nil
		}
	}
	return nil, apperror.NotFound("post", id)
}

func (m *mockPostRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Post, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.window(m.posts, opts), nil
}

func (m *mockPostRepo) Count(_ context.Context) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.posts), nil
}

func (m *mockPostRepo) Search(_ context.Context, query string, opts repository.ListOptions) ([]model.Post, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.window(m.match(query), opts), nil
}

func (m *mockPostRepo) SearchCount(_ context.Context, query string) (int, error) {
	if m.searchErr != nil {
		return 0, m.searchErr
	}
	return len(m.match(query)), nil
}

func (m *mockPostRepo) Update(_ context.Context, post *model.Post) error {
	for i, p := range m.posts {
		if p.ID == post.ID {
			stored := *post
			m.posts[i] = &stored
			return nil
		}
	}
	return apperror.NotFound("post", post.ID)
}

func (m *mockPostRepo) Delete(_ context.Context, id string) error {
	for i, p := range m.posts {
		if p.ID == id {
			m.posts = append(m.posts[:i], m.posts[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("post", id)
}

func (m *mockPostRepo) match(query string) []*model.Post {
	var out []*model.Post
	for _, p := range m.posts {
		if strings.Contains(p.Title, query) || strings.Contains(p.Content, query) {
			out = append(out, p)
		}
	}
	return out
}

func (m *mockPostRepo) window(posts []*model.Post, opts repository.ListOptions) []model.Post {
	if opts.Offset >= len(posts) {
		return []model.Post{}
	}
	posts = posts[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(posts) {
		posts = posts[:opts.Limit]
	}
	out := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		out = append(out, *p)
	}
	return out
}

var _ repository.PostRepository = (*mockPostRepo)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPasswords() *auth.PasswordService {
	return auth.NewPasswordServiceForTest(bcrypt.MinCost)
}

func newPostService(repo *mockPostRepo) *PostService {
	return NewPostService(repo, testPasswords(), testLogger())
}

func seedPosts(t *testing.T, svc *PostService, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := svc.Create(context.Background(), PostInput{
			Title:               fmt.Sprintf("post %d", i),
			Content:             "<p>body</p>",
			EditPassword:        "pw1234",
			EditPasswordConfirm: "pw1234",
		}, "")
		if err != nil {
			t.Fatalf("seeding post %d: %v", i, err)
		}
	}
}

func TestPostCreate_Anonymous(t *testing.T) {
	repo := &mockPostRepo{}
	svc := newPostService(repo)

	post, err := svc.Create(context.Background(), PostInput{
		Title:               "hello",
		Content:             "<p>hi</p>",
		Tags:                "a, #b ,,c",
		EditPassword:        "pw1234",
		EditPasswordConfirm: "pw1234",
	}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if post.UserID != "" {
		t.Errorf("anonymous post has UserID %q", post.UserID)
	}
	if post.EditPasswordHash == "" || post.EditPasswordHash == "pw1234" {
		t.Errorf("edit password was not hashed: %q", post.EditPasswordHash)
	}
	if post.AuthorName != model.AnonymousAuthor {
		t.Errorf("AuthorName = %q, want %q", post.AuthorName, model.AnonymousAuthor)
	}
	if len(post.Tags) != 3 || post.Tags[1] != "b" {
		t.Errorf("Tags = %v, want [a b c]", post.Tags)
	}
}

func TestPostCreate_LoggedIn(t *testing.T) {
	svc := newPostService(&mockPostRepo{})

	post, err := svc.Create(context.Background(), PostInput{
		Title:      "hello",
		Content:    "<p>hi</p>",
		AuthorName: "sunny",
	}, "user-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if post.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", post.UserID)
	}
	if post.EditPasswordHash != "" {
		t.Errorf("owned post stored an edit password hash: %q", post.EditPasswordHash)
	}
	if post.AuthorName != "sunny" {
		t.Errorf("AuthorName = %q, want sunny", post.AuthorName)
	}
}

func TestPostCreate_ValidationErrors(t *testing.T) {
	svc := newPostService(&mockPostRepo{})

	// Logged out with nothing filled in: every required field is reported.
	_, err := svc.Create(context.Background(), PostInput{Content: "<p><br></p>"}, "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Create() error = %v, want ErrValidation", err)
	}

	var fields *apperror.FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("Create() error %T does not carry field errors", err)
	}
	for _, key := range []string{"title", "content", "editPassword"} {
		if _, ok := fields.Fields[key]; !ok {
			t.Errorf("missing field error for %q: %v", key, fields.Fields)
		}
	}
}

func TestPostCreate_PasswordConfirmMismatch(t *testing.T) {
	svc := newPostService(&mockPostRepo{})

	_, err := svc.Create(context.Background(), PostInput{
		Title:               "t",
		Content:             "<p>c</p>",
		EditPassword:        "pw1234",
		EditPasswordConfirm: "different",
	}, "")

	var fields *apperror.FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("Create() error = %v, want field errors", err)
	}
	if _, ok := fields.Fields["editPasswordConfirm"]; !ok {
		t.Errorf("missing editPasswordConfirm error: %v", fields.Fields)
	}
}

func TestPostList_Pagination(t *testing.T) {
	repo := &mockPostRepo{}
	svc := newPostService(repo)
	seedPosts(t, svc, 13)

	page := svc.List(context.Background(), 1)
	if len(page.Posts) != PerPage {
		t.Errorf("page 1 has %d posts, want %d", len(page.Posts), PerPage)
	}
	if page.TotalPages != 2 || page.TotalCount != 13 {
		t.Errorf("meta = %d pages / %d total, want 2 / 13", page.TotalPages, page.TotalCount)
	}

	page = svc.List(context.Background(), 2)
	if len(page.Posts) != 1 {
		t.Errorf("page 2 has %d posts, want 1", len(page.Posts))
	}
}

func TestPostList_EmptyBoardIsOnePage(t *testing.T) {
	svc := newPostService(&mockPostRepo{})

	page := svc.List(context.Background(), 1)
	if page.TotalPages != 1 {
		t.Errorf("TotalPages = %d, want 1", page.TotalPages)
	}
	if page.Posts == nil || len(page.Posts) != 0 {
		t.Errorf("Posts = %v, want empty non-nil", page.Posts)
	}
}

func TestPostList_PastTheEnd(t *testing.T) {
	repo := &mockPostRepo{}
	svc := newPostService(repo)
	seedPosts(t, svc, 3)

	page := svc.List(context.Background(), 99)
	if len(page.Posts) != 0 {
		t.Errorf("past-the-end page has %d posts, want 0", len(page.Posts))
	}
	if page.TotalPages != 1 || page.TotalCount != 3 {
		t.Errorf("meta = %d pages / %d total, want 1 / 3", page.TotalPages, page.TotalCount)
	}
}

func TestPostList_ErrorDegradesToEmpty(t *testing.T) {
	repo := &mockPostRepo{countErr: errors.New("db gone")}
	svc := newPostService(repo)

	page := svc.List(context.Background(), 1)
	if len(page.Posts) != 0 || page.TotalPages != 1 {
		t.Errorf("degraded page = %+v, want empty page", page)
	}
}

func TestPostLatest(t *testing.T) {
	repo := &mockPostRepo{}
	svc := newPostService(repo)
	seedPosts(t, svc, 8)

	latest := svc.Latest(context.Background())
	if len(latest) != LatestCount {
		t.Errorf("Latest() returned %d posts, want %d", len(latest), LatestCount)
	}
	// Newest first.
	if latest[0].Title != "post 7" {
		t.Errorf("Latest()[0].Title = %q, want post 7", latest[0].Title)
	}
}

func TestPostLatest_ErrorDegradesToEmpty(t *testing.T) {
	repo := &mockPostRepo{listErr: errors.New("db gone")}
	svc := newPostService(repo)

	if latest := svc.Latest(context.Background()); len(latest) != 0 {
		t.Errorf("Latest() = %v, want empty", latest)
	}
}

func TestPostSearch(t *testing.T) {
	repo := &mockPostRepo{}
	svc := newPostService(repo)

	for _, title := range []string{"growing tomatoes", "weekend market", "tomatoes again"} {
		if _, err := svc.Create(context.Background(), PostInput{
			Title: title, Content: "<p>x</p>", EditPassword: "pw1234", EditPasswordConfirm: "pw1234",
		}, ""); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	page, err := svc.Search(context.Background(), "tomatoes", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(page.Posts) != 2 || page.TotalCount != 2 || page.TotalPages != 1 {
		t.Errorf("Search() = %d posts, %d total, %d pages", len(page.Posts), page.TotalCount, page.TotalPages)
	}
}

func TestPostSearch_BlankQueryHasZeroPages(t *testing.T) {
	repo := &mockPostRepo{}
	svc := newPostService(repo)
	seedPosts(t, svc, 3)

	page, err := svc.Search(context.Background(), "   ", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(page.Posts) != 0 || page.TotalPages != 0 {
		t.Errorf("blank search = %d posts, %d pages, want 0 / 0", len(page.Posts), page.TotalPages)
	}
}

func TestPostSearch_ErrorPropagates(t *testing.T) {
	repo := &mockPostRepo{searchErr: errors.New("db gone")}
	svc := newPostService(repo)

	if _, err := svc.Search(context.Background(), "q", 1); err == nil {
		t.Error("Search() error = nil, want error")
	}
}

func TestPostUpdate_AnonymousWithPassword(t *testing.T) {
	repo := &mockPostRepo{}
	svc := newPostService(repo)

	post, err := svc.Create(context.Background(), PostInput{
		Title: "before", Content: "<p>old</p>",
		EditPassword: "pw1234", EditPasswordConfirm: "pw1234",
	}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := svc.Update(context.Background(), post.ID, PostInput{
		Title: "after", Content: "<p>new</p>",
	}, model.EditRequest{Password: "pw1234"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "after" {
		t.Errorf("Title = %q, want after", updated.Title)
	}
	if updated.EditPasswordHash != post.EditPasswordHash {
		t.Error("edit password hash changed on update")
	}
}

func TestPostUpdate_WrongPassword(t *testing.T) {
	repo := &mockPostRepo{}
	svc := newPostService(repo)

	post, _ := svc.Create(context.Background(), PostInput{
		Title: "t", Content: "<p>c</p>",
		EditPassword: "pw1234", EditPasswordConfirm: "pw1234",
	}, "")

	_, err := svc.Update(context.Background(), post.ID, PostInput{
		Title: "x", Content: "<p>y</p>",
	}, model.EditRequest{Password: "wrong"})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Update() error = %v, want ErrForbidden", err)
	}
}

func TestPostUpdate_AnonymousWhileLoggedIn(t *testing.T) {
	repo := &mockPostRepo{}
	svc := newPostService(repo)

	post, _ := svc.Create(context.Background(), PostInput{
		Title: "t", Content: "<p>c</p>",
		EditPassword: "pw1234", EditPasswordConfirm: "pw1234",
	}, "")

	// Even the right password doesn't help while signed in.
	_, err := svc.Update(context.Background(), post.ID, PostInput{
		Title: "x", Content: "<p>y</p>",
	}, model.EditRequest{UserID: "user-1", Password: "pw1234"})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Update() error = %v, want ErrForbidden", err)
	}
}

func TestPostUpdate_OwnedPost(t *testing.T) {
	repo := &mockPostRepo{}
	svc := newPostService(repo)

	post, _ := svc.Create(context.Background(), PostInput{
		Title: "t", Content: "<p>c</p>", AuthorName: "sunny",
	}, "user-1")

	if _, err := svc.Update(context.Background(), post.ID, PostInput{
		Title: "x", Content: "<p>y</p>",
	}, model.EditRequest{UserID: "user-1"}); err != nil {
		t.Errorf("owner Update() error = %v", err)
	}

	_, err := svc.Update(context.Background(), post.ID, PostInput{
		Title: "x", Content: "<p>y</p>",
	}, model.EditRequest{UserID: "user-2"})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("non-owner Update() error = %v, want ErrForbidden", err)
	}

	_, err = svc.Update(context.Background(), post.ID, PostInput{
		Title: "x", Content: "<p>y</p>",
	}, model.EditRequest{})
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("logged-out Update() error = %v, want ErrUnauthorized", err)
	}
}

func TestPostDelete(t *testing.T) {
	repo := &mockPostRepo{}
	svc := newPostService(repo)

	post, _ := svc.Create(context.Background(), PostInput{
		Title: "t", Content: "<p>c</p>",
		EditPassword: "pw1234", EditPasswordConfirm: "pw1234",
	}, "")

	if err := svc.Delete(context.Background(), post.ID, model.EditRequest{Password: "wrong"}); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Delete() with wrong password: %v, want ErrForbidden", err)
	}

	if err := svc.Delete(context.Background(), post.ID, model.EditRequest{Password: "pw1234"}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := svc.GetByID(context.Background(), post.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("after delete: %v, want ErrNotFound", err)
	}
}
