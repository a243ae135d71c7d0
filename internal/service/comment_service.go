package service

import (
	"context"
	"errors"

	"thoughtstream/internal/auth"
	"thoughtstream/internal/cache"
	"thoughtstream/internal/models"
	"thoughtstream/internal/observability"
	"thoughtstream/internal/repository"

	"gorm.io/gorm"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	UserID          uint
	PostID          uint
	ParentCommentID *uint
	Content         string
}

type UpdateCommentInput struct {
	UserID    uint
	PostID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	PostID    uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

const maxCommentLen = 10000

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := s.requirePost(ctx, in.PostID); err != nil {
		return nil, err
	}

	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	// A reply's parent must be a live comment on the same post. A parent on
	// another post is reported as not found, not as a validation hint about
	// where the comment actually lives.
	if in.ParentCommentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentCommentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundError("Parent comment", *in.ParentCommentID)
			}
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewNotFoundError("Parent comment", *in.ParentCommentID)
		}
	}

	comment := &models.Comment{
		Content:         in.Content,
		UserID:          in.UserID,
		PostID:          in.PostID,
		ParentCommentID: in.ParentCommentID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

// ListCommentTree returns the post's comments as a forest of root comments
// with nested replies. The whole post's comments are fetched flat in one
// ordered query and assembled in memory.
func (s *CommentService) ListCommentTree(ctx context.Context, postID uint) ([]*models.Comment, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	return cache.GetOrLoad(ctx, "comment_tree", cache.CommentTreeKey(postID), cache.CommentTreeTTL,
		func(ctx context.Context) ([]*models.Comment, error) {
			flat, err := s.commentRepo.ListByPost(ctx, postID)
			if err != nil {
				return nil, err
			}
			observability.CommentTreeSize.Observe(float64(len(flat)))
			return buildCommentTree(flat), nil
		})
}

// ListReplies returns the direct children of one comment on the post.
func (s *CommentService) ListReplies(ctx context.Context, postID, parentID uint) ([]*models.Comment, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	parent, err := s.commentRepo.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", parentID)
		}
		return nil, err
	}
	if parent.PostID != postID {
		return nil, models.NewNotFoundError("Comment", parentID)
	}

	return s.commentRepo.ListByParent(ctx, postID, parentID)
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.getPostComment(ctx, in.PostID, in.CommentID)
	if err != nil {
		return nil, err
	}

	if err := auth.AuthorizeOwner(comment.UserID, in.UserID); err != nil {
		observability.RecordOwnershipDenial("comment")
		return nil, err
	}

	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	comment.Content = in.Content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	comment, err := s.getPostComment(ctx, in.PostID, in.CommentID)
	if err != nil {
		return nil, err
	}

	if err := auth.AuthorizeOwner(comment.UserID, in.UserID); err != nil {
		observability.RecordOwnershipDenial("comment")
		return nil, err
	}

	if err := s.commentRepo.Delete(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

func (s *CommentService) requirePost(ctx context.Context, postID uint) error {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", postID)
		}
		return err
	}
	return nil
}

// getPostComment loads a comment and verifies it belongs to the post named
// in the URL, so mutations can't reach across posts.
func (s *CommentService) getPostComment(ctx context.Context, postID, commentID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", commentID)
		}
		return nil, err
	}
	if comment.PostID != postID {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	return comment, nil
}

// buildCommentTree assembles the flat, pre-sorted slice into a forest. The
// input order (created_at, then id) is preserved for roots and siblings, so
// no re-sorting happens here. Orphans and rows caught in a parent cycle are
// promoted to roots rather than dropped; a cycle can only come from direct
// data tampering but must never hang the request or recurse forever during
// serialization.
func buildCommentTree(flat []*models.Comment) []*models.Comment {
	byID := make(map[uint]*models.Comment, len(flat))
	for _, c := range flat {
		c.Replies = []*models.Comment{}
		byID[c.ID] = c
	}

	roots := []*models.Comment{}
	for _, c := range flat {
		if c.ParentCommentID == nil {
			roots = append(roots, c)
			continue
		}
		parent, ok := byID[*c.ParentCommentID]
		if !ok || parent == c || inParentCycle(byID, c, len(flat)) {
			roots = append(roots, c)
			continue
		}
		parent.Replies = append(parent.Replies, c)
	}
	return roots
}

// inParentCycle walks the parent chain from start, bounded by the total
// comment count, and reports whether the chain loops back.
func inParentCycle(byID map[uint]*models.Comment, start *models.Comment, limit int) bool {
	cur := start
	for i := 0; i < limit; i++ {
		if cur.ParentCommentID == nil {
			return false
		}
		parent, ok := byID[*cur.ParentCommentID]
		if !ok {
			return false
		}
		if parent == start {
			return true
		}
		cur = parent
	}
	return true
}
