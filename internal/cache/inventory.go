package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix        = "user:%d"
	PostKeyPrefix        = "post:%d"
	PostsPageKeyPrefix   = "posts:page:%d:%d"
	CommentTreeKeyPrefix = "post:%d:comments"
)

const (
	UserTTL        = 5 * time.Minute
	PostTTL        = 30 * time.Minute
	PostsPageTTL   = 1 * time.Minute
	CommentTreeTTL = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func PostsPageKey(limit, offset int) string {
	return fmt.Sprintf(PostsPageKeyPrefix, limit, offset)
}

func CommentTreeKey(postID uint) string {
	return fmt.Sprintf(CommentTreeKeyPrefix, postID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidatePost drops both the single-post entry and the listing pages,
// since listings embed post payloads and comment counts.
func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
	InvalidatePostPages(ctx)
}

// InvalidatePostPages drops every cached listing page.
func InvalidatePostPages(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, "posts:page:*", 0).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}

// InvalidateCommentTree drops the assembled tree for a post. Any comment
// create, update or delete on the post must go through here.
func InvalidateCommentTree(ctx context.Context, postID uint) {
	Invalidate(ctx, CommentTreeKey(postID))
}
