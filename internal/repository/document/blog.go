package document

import (
	"context"
	"slices"

	"foundation-backend/internal/docstore"
	"foundation-backend/internal/domain"
	"foundation-backend/internal/repository"
)

type blogPostRepository struct {
	coll collection[domain.BlogPost]
}

func NewBlogPostRepository(store docstore.Store) repository.BlogPostRepository {
	return &blogPostRepository{
		coll: collection[domain.BlogPost]{
			store:     store,
			name:      docstore.CollectionBlogPosts,
			entity:    "blogPost",
			clearable: []string{"publishedAt", "coverImage", "tags", "excerpt"},
		},
	}
}

func (r *blogPostRepository) Create(ctx context.Context, post *domain.BlogPost) error {
	return r.coll.create(ctx, post)
}

func (r *blogPostRepository) GetByID(ctx context.Context, id string) (*domain.BlogPost, error) {
	return r.coll.get(ctx, id)
}

func (r *blogPostRepository) GetBySlug(ctx context.Context, slug string) (*domain.BlogPost, error) {
	return r.coll.findOne(ctx, docstore.Query{}.Where("slug", slug), slug)
}

func (r *blogPostRepository) Update(ctx context.Context, post *domain.BlogPost) error {
	return r.coll.update(ctx, post.ID, post)
}

func (r *blogPostRepository) Delete(ctx context.Context, id string) error {
	return r.coll.delete(ctx, id)
}

// List filters tags in process since the store only supports equality.
func (r *blogPostRepository) List(ctx context.Context, filter domain.BlogPostFilter) ([]domain.BlogPost, error) {
	q := docstore.Query{}
	if filter.Status != "" {
		q = q.Where("status", string(filter.Status))
	}
	if filter.Tag == "" {
		return r.coll.list(ctx, limitQuery(q, filter.Limit))
	}

	posts, err := r.coll.list(ctx, limitQuery(q, 0))
	if err != nil {
		return nil, err
	}
	out := make([]domain.BlogPost, 0, len(posts))
	for _, p := range posts {
		if slices.Contains(p.Tags, filter.Tag) {
			out = append(out, p)
		}
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}
