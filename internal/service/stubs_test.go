package service

import (
	"context"
	"sync"

	"yatube/internal/models"
	"yatube/internal/repository"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn  func(context.Context, *models.Post) error
	getByIDFn func(context.Context, uint) (*models.Post, error)
	listFn    func(context.Context, repository.PostFilter, int, int) ([]*models.Post, error)
	countFn   func(context.Context, repository.PostFilter) (int64, error)
	updateFn  func(context.Context, *models.Post) error
	deleteFn  func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, f repository.PostFilter, limit, offset int) ([]*models.Post, error) {
	return s.listFn(ctx, f, limit, offset)
}
func (s *postRepoStub) Count(ctx context.Context, f repository.PostFilter) (int64, error) {
	return s.countFn(ctx, f)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
	countFn      func(context.Context, []uint) (map[uint]int, error)
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) CountByPostIDs(ctx context.Context, ids []uint) (map[uint]int, error) {
	return s.countFn(ctx, ids)
}

type pageCacheStub struct {
	mu     sync.Mutex
	clears int
	err    error
}

func (c *pageCacheStub) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (c *pageCacheStub) Set(context.Context, string, []byte)        {}
func (c *pageCacheStub) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clears++
	return c.err
}

func (c *pageCacheStub) Clears() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clears
}

type imageStoreStub struct {
	saved   []*ImageUpload
	removed []string
	saveErr error
	// existing lists filenames reported as already on disk.
	existing map[string]bool
}

func (s *imageStoreStub) Save(up *ImageUpload) (StoredImage, error) {
	if s.saveErr != nil {
		return StoredImage{}, s.saveErr
	}
	s.saved = append(s.saved, up)
	return StoredImage{Path: "posts/" + up.Filename, Created: !s.existing[up.Filename]}, nil
}

func (s *imageStoreStub) Remove(rel string) {
	s.removed = append(s.removed, rel)
}
