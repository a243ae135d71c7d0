package repository

import (
	"context"

	"thoughtstream/internal/cache"
	"thoughtstream/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
	ListByParent(ctx context.Context, postID, parentID uint) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, comment *models.Comment) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts the comment and drops every cache entry that embeds the
// post's comment count: the tree, the single-post entry and the listing pages.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Create(comment).Error
	if err == nil {
		cache.InvalidateCommentTree(ctx, comment.PostID)
		cache.InvalidatePost(ctx, comment.PostID)
	}
	return err
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByPost returns every comment on the post as a flat slice ordered by
// created_at with id as the tiebreaker. Tree assembly happens in the service.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at asc, id asc").
		Find(&comments).Error
	return comments, err
}

// ListByParent returns the direct children of a comment, oldest first.
func (r *commentRepository) ListByParent(ctx context.Context, postID, parentID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ? AND parent_comment_id = ?", postID, parentID).
		Order("created_at asc, id asc").
		Find(&comments).Error
	return comments, err
}

// Update only changes comment content, so the comment count stays put and
// the tree is the only entry that goes stale.
func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Save(comment).Error
	if err == nil {
		cache.InvalidateCommentTree(ctx, comment.PostID)
	}
	return err
}

func (r *commentRepository) Delete(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Delete(&models.Comment{}, comment.ID).Error
	if err == nil {
		cache.InvalidateCommentTree(ctx, comment.PostID)
		cache.InvalidatePost(ctx, comment.PostID)
	}
	return err
}
