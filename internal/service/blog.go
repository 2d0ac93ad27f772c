package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"foundation-backend/internal/domain"
	"foundation-backend/internal/logger"
	"foundation-backend/internal/repository"
)

const maxSlugAttempts = 20

type blogService struct {
	posts repository.BlogPostRepository
	now   func() time.Time
}

func NewBlogService(posts repository.BlogPostRepository) BlogService {
	return &blogService{posts: posts, now: time.Now}
}

func validatePost(p *domain.BlogPost) error {
	p.Title = strings.TrimSpace(p.Title)
	p.Tags = normalizeTags(p.Tags)
	if p.Content == nil {
		p.Content = []domain.ContentBlock{}
	}

	verr := &domain.ValidationError{}
	validateStruct(p, verr)
	return verr.OrNil()
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// resolveSlug picks the slug for post. A slug typed by the admin must be
// free; one derived from the title gets a numeric suffix until it is.
func (s *blogService) resolveSlug(ctx context.Context, post *domain.BlogPost, explicit bool) error {
	base := domain.Slugify(post.Slug)
	if !explicit {
		base = domain.Slugify(post.Title)
	}
	if base == "" {
		return domain.NewValidationError("slug", "must contain letters or digits")
	}

	candidate := base
	for n := 2; n <= maxSlugAttempts+1; n++ {
		existing, err := s.posts.GetBySlug(ctx, candidate)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && existing.ID == post.ID) {
			post.Slug = candidate
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to check slug: %w", err)
		}
		if explicit {
			return fmt.Errorf("%w: slug %q is already in use", domain.ErrConflict, candidate)
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return fmt.Errorf("%w: no free slug for %q", domain.ErrConflict, base)
}

func (s *blogService) CreatePost(ctx context.Context, post *domain.BlogPost) error {
	logger.EnterMethod("blogService.CreatePost", "title", post.Title)

	if err := validatePost(post); err != nil {
		logger.ExitMethodWithError("blogService.CreatePost", err)
		return err
	}
	if err := s.resolveSlug(ctx, post, strings.TrimSpace(post.Slug) != ""); err != nil {
		logger.ExitMethodWithError("blogService.CreatePost", err)
		return err
	}

	switch post.Status {
	case "", domain.PublishStatusDraft:
		post.Status = domain.PublishStatusDraft
		post.PublishedAt = nil
	case domain.PublishStatusPublished:
		now := s.now().UTC()
		post.PublishedAt = &now
	default:
		return domain.NewValidationError("status", "must be draft or published")
	}

	if err := s.posts.Create(ctx, post); err != nil {
		logger.ExitMethodWithError("blogService.CreatePost", err)
		return fmt.Errorf("failed to create blog post: %w", err)
	}

	logger.ExitMethod("blogService.CreatePost", "postID", post.ID, "slug", post.Slug)
	return nil
}

// UpdatePost edits content. Publication state is changed by Publish and Unpublish.
func (s *blogService) UpdatePost(ctx context.Context, post *domain.BlogPost) error {
	existing, err := s.posts.GetByID(ctx, post.ID)
	if err != nil {
		return err
	}
	if err := validatePost(post); err != nil {
		return err
	}
	if strings.TrimSpace(post.Slug) == "" {
		post.Slug = existing.Slug
	} else if err := s.resolveSlug(ctx, post, true); err != nil {
		return err
	}
	post.Status = existing.Status
	post.PublishedAt = existing.PublishedAt

	if err := s.posts.Update(ctx, post); err != nil {
		return fmt.Errorf("failed to update blog post: %w", err)
	}
	updated, err := s.posts.GetByID(ctx, post.ID)
	if err != nil {
		return err
	}
	*post = *updated
	return nil
}

func (s *blogService) Publish(ctx context.Context, id string) (*domain.BlogPost, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Status == domain.PublishStatusPublished {
		return post, nil
	}
	now := s.now().UTC()
	post.Status = domain.PublishStatusPublished
	post.PublishedAt = &now
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to publish blog post: %w", err)
	}
	logger.Info("Blog post published", "postID", id, "slug", post.Slug)
	return s.posts.GetByID(ctx, id)
}

func (s *blogService) Unpublish(ctx context.Context, id string) (*domain.BlogPost, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Status == domain.PublishStatusDraft {
		return post, nil
	}
	post.Status = domain.PublishStatusDraft
	post.PublishedAt = nil
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to unpublish blog post: %w", err)
	}
	return s.posts.GetByID(ctx, id)
}

func (s *blogService) DeletePost(ctx context.Context, id string) error {
	return s.posts.Delete(ctx, id)
}

func (s *blogService) GetPost(ctx context.Context, id string) (*domain.BlogPost, error) {
	return s.posts.GetByID(ctx, id)
}

func (s *blogService) GetPostBySlug(ctx context.Context, slug string) (*domain.BlogPost, error) {
	return s.posts.GetBySlug(ctx, slug)
}

func (s *blogService) ListPosts(ctx context.Context, filter domain.BlogPostFilter) ([]domain.BlogPost, error) {
	filter.Tag = strings.ToLower(strings.TrimSpace(filter.Tag))
	return s.posts.List(ctx, filter)
}
