package service

import (
	"context"
	"sync"

	"realtime-threads/internal/models"
	"realtime-threads/internal/repository"
)

func strPtr(s string) *string { return &s }

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	byExt  map[string]*models.User
	byID   map[uint]*models.User
	err    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byExt: map[string]*models.User{}, byID: map[uint]*models.User{}}
}

func (r *fakeUserRepo) UpsertByExternalID(_ context.Context, externalID string, displayName, avatarURL *string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if u, ok := r.byExt[externalID]; ok {
		return u, nil
	}
	r.nextID++
	u := &models.User{ID: r.nextID, ExternalID: externalID, DisplayName: displayName, AvatarURL: avatarURL}
	r.byExt[externalID] = u
	r.byID[u.ID] = u
	return u, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, userID uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[userID]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindByExternalID(_ context.Context, externalID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byExt[externalID]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, userID uint, updates map[string]interface{}) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for col, v := range updates {
		var val *string
		if s, ok := v.(string); ok {
			val = &s
		}
		switch col {
		case "display_name":
			u.DisplayName = val
		case "handle":
			u.Handle = val
		case "bio":
			u.Bio = val
		case "avatar_url":
			u.AvatarURL = val
		}
	}
	return u, nil
}

func (r *fakeUserRepo) ListOthers(_ context.Context, userID uint) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for id := uint(1); id <= r.nextID; id++ {
		if u, ok := r.byID[id]; ok && id != userID {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeThreadRepo struct {
	threads    map[uint]*models.Thread
	replies    map[uint]*models.Reply
	likes      map[[2]uint]bool
	nextID     uint
	lastFilter repository.ThreadFilter
}

func newFakeThreadRepo() *fakeThreadRepo {
	return &fakeThreadRepo{
		threads: map[uint]*models.Thread{},
		replies: map[uint]*models.Reply{},
		likes:   map[[2]uint]bool{},
	}
}

var fakeCategories = []*models.Category{
	{ID: 1, Slug: "general", Name: "General"},
	{ID: 2, Slug: "help", Name: "Help"},
}

func (r *fakeThreadRepo) ListCategories(context.Context) ([]*models.Category, error) {
	return fakeCategories, nil
}

func (r *fakeThreadRepo) FindCategoryBySlug(_ context.Context, slug string) (*models.Category, error) {
	for _, c := range fakeCategories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeThreadRepo) CreateThread(_ context.Context, categoryID, authorID uint, title, body string) (*models.Thread, error) {
	r.nextID++
	t := &models.Thread{ID: r.nextID, CategoryID: categoryID, AuthorUserID: authorID, Title: title, Body: body}
	for _, c := range fakeCategories {
		if c.ID == categoryID {
			t.Category = *c
		}
	}
	r.threads[t.ID] = t
	return t, nil
}

// ListThreads records the filter it was called with and returns every thread.
func (r *fakeThreadRepo) ListThreads(_ context.Context, filter repository.ThreadFilter) ([]*models.Thread, error) {
	r.lastFilter = filter
	var out []*models.Thread
	for id := uint(1); id <= r.nextID; id++ {
		if t, ok := r.threads[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeThreadRepo) FindThreadByID(_ context.Context, threadID uint) (*models.Thread, error) {
	if t, ok := r.threads[threadID]; ok {
		return t, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeThreadRepo) Stats(_ context.Context, threadID, viewerID uint) (*repository.ThreadStats, error) {
	var stats repository.ThreadStats
	for k := range r.likes {
		if k[0] == threadID {
			stats.LikeCount++
		}
	}
	for _, reply := range r.replies {
		if reply.ThreadID == threadID {
			stats.ReplyCount++
		}
	}
	stats.ViewerHasLiked = r.likes[[2]uint{threadID, viewerID}]
	return &stats, nil
}

func (r *fakeThreadRepo) InsertReply(_ context.Context, threadID, authorID uint, body string) (*models.Reply, error) {
	r.nextID++
	reply := &models.Reply{ID: r.nextID, ThreadID: threadID, AuthorUserID: authorID, Body: body}
	r.replies[reply.ID] = reply
	return reply, nil
}

func (r *fakeThreadRepo) ListReplies(_ context.Context, threadID uint) ([]*models.Reply, error) {
	var out []*models.Reply
	for id := uint(1); id <= r.nextID; id++ {
		if reply, ok := r.replies[id]; ok && reply.ThreadID == threadID {
			out = append(out, reply)
		}
	}
	return out, nil
}

func (r *fakeThreadRepo) FindReplyAuthor(_ context.Context, replyID uint) (uint, error) {
	if reply, ok := r.replies[replyID]; ok {
		return reply.AuthorUserID, nil
	}
	return 0, repository.ErrNotFound
}

func (r *fakeThreadRepo) DeleteReply(_ context.Context, replyID uint) error {
	delete(r.replies, replyID)
	return nil
}

func (r *fakeThreadRepo) LikeThread(_ context.Context, threadID, userID uint) (bool, error) {
	key := [2]uint{threadID, userID}
	if r.likes[key] {
		return false, nil
	}
	r.likes[key] = true
	return true, nil
}

func (r *fakeThreadRepo) UnlikeThread(_ context.Context, threadID, userID uint) error {
	delete(r.likes, [2]uint{threadID, userID})
	return nil
}

type notifyCall struct {
	kind     string
	threadID uint
	actorID  uint
}

type recordingNotifier struct {
	calls []notifyCall
}

func (n *recordingNotifier) NotifyReplyCreated(_ context.Context, threadID, actorUserID uint) {
	n.calls = append(n.calls, notifyCall{kind: "reply", threadID: threadID, actorID: actorUserID})
}

func (n *recordingNotifier) NotifyLikeCreated(_ context.Context, threadID, actorUserID uint) {
	n.calls = append(n.calls, notifyCall{kind: "like", threadID: threadID, actorID: actorUserID})
}
