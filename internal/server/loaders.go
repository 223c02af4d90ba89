package server

import (
	"context"
	"strconv"
	"time"

	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/graph-gophers/dataloader"
)

const loadersKey = "loaders"

// CommentCounter counts comments for a batch of posts in one query.
type CommentCounter interface {
	CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int, error)
}

// Loaders holds the per-request batch loaders.
type Loaders struct {
	CommentCounts *dataloader.Loader
}

func newLoaders(counter CommentCounter) *Loaders {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := make([]uint, 0, len(keys))
		for _, key := range keys {
			id, err := strconv.ParseUint(key.String(), 10, 64)
			if err != nil {
				continue
			}
			ids = append(ids, uint(id))
		}

		counts, err := counter.CountByPosts(ctx, ids)
		results := make([]*dataloader.Result, len(keys))
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		// Results must line up with keys; posts without comments count zero.
		for i, key := range keys {
			id, _ := strconv.ParseUint(key.String(), 10, 64)
			results[i] = &dataloader.Result{Data: counts[uint(id)]}
		}
		return results
	}

	return &Loaders{
		CommentCounts: dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(time.Millisecond)),
	}
}

// loadersMiddleware gives every request a fresh set of loaders so batches
// and their caches never leak between requests.
func (s *Server) loadersMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(loadersKey, newLoaders(s.commentService))
		return c.Next()
	}
}

func loadersFor(c *fiber.Ctx, fallback CommentCounter) *Loaders {
	if l, ok := c.Locals(loadersKey).(*Loaders); ok {
		return l
	}
	return newLoaders(fallback)
}

// attachCommentCounts fills CommentsCount on posts with one batched query.
func (s *Server) attachCommentCounts(c *fiber.Ctx, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	keys := make(dataloader.Keys, len(posts))
	for i, p := range posts {
		keys[i] = dataloader.StringKey(strconv.FormatUint(uint64(p.ID), 10))
	}

	values, errs := loadersFor(c, s.commentService).CommentCounts.LoadMany(c.UserContext(), keys)()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	for i, p := range posts {
		if n, ok := values[i].(int); ok {
			p.CommentsCount = n
		}
	}
	return nil
}
