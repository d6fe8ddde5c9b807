package main

import (
	"context"
	"sort"
	"sync"
	"time"

	"foodspot/internal/domain/community"
	"foodspot/internal/domain/notifications"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

type fakeMedia struct {
	mu        sync.Mutex
	uploaded  []string
	destroyed []string
}

func (f *fakeMedia) Upload(_ context.Context, _ interface{}, p uploader.UploadParams) (*uploader.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	url := "https://res.cloudinary.com/demo/image/upload/v1/" + p.Folder + "/" + p.PublicID + ".jpg"
	f.uploaded = append(f.uploaded, url)
	return &uploader.UploadResult{SecureURL: url}, nil
}

func (f *fakeMedia) Destroy(_ context.Context, p uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, p.PublicID)
	return &uploader.DestroyResult{}, nil
}

type relation struct {
	postID int64
	userID uuid.UUID
}

type fakeCommunityStore struct {
	community.Store
	mu       sync.Mutex
	nextID   int64
	posts    map[int64]*community.Post
	comments map[int64]*community.Comment
	likes    map[relation]bool
	saves    map[relation]bool
	// failWrites makes SetLike and SetSaved fail with this error.
	failWrites error
}

func newFakeCommunityStore() *fakeCommunityStore {
	return &fakeCommunityStore{
		posts:    map[int64]*community.Post{},
		comments: map[int64]*community.Comment{},
		likes:    map[relation]bool{},
		saves:    map[relation]bool{},
	}
}

func (f *fakeCommunityStore) id() int64 {
	f.nextID++
	return f.nextID
}

// putPost stores a post authored by author and returns its id.
func (f *fakeCommunityStore) putPost(author uuid.UUID, caption string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &community.Post{
		ID:        f.id(),
		UserID:    author,
		ImageURL:  "https://res.cloudinary.com/demo/image/upload/v1/food-images/post.jpg",
		Caption:   caption,
		CreatedAt: time.Now(),
	}
	f.posts[p.ID] = p
	return p.ID
}

func (f *fakeCommunityStore) view(p *community.Post, viewer uuid.UUID) community.Post {
	out := *p
	out.LikeCount = 0
	for rel, on := range f.likes {
		if on && rel.postID == p.ID {
			out.LikeCount++
		}
	}
	for _, c := range f.comments {
		if c.PostID == p.ID {
			out.CommentCount++
		}
	}
	out.Liked = f.likes[relation{p.ID, viewer}]
	out.Saved = f.saves[relation{p.ID, viewer}]
	return out
}

func (f *fakeCommunityStore) CreatePost(_ context.Context, p *community.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.id()
	p.CreatedAt = time.Now()
	cp := *p
	f.posts[p.ID] = &cp
	return nil
}

func (f *fakeCommunityStore) GetPost(_ context.Context, postID int64, viewer uuid.UUID) (*community.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[postID]
	if !ok {
		return nil, community.ErrPostNotFound
	}
	out := f.view(p, viewer)
	return &out, nil
}

func (f *fakeCommunityStore) list(viewer uuid.UUID, limit, offset int, keep func(*community.Post) bool) []community.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []community.Post{}
	for _, p := range f.posts {
		if keep(p) {
			out = append(out, f.view(p, viewer))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return []community.Post{}
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f *fakeCommunityStore) ListFeed(_ context.Context, viewer uuid.UUID, limit, offset int) ([]community.Post, error) {
	return f.list(viewer, limit, offset, func(*community.Post) bool { return true }), nil
}

func (f *fakeCommunityStore) ListSaved(_ context.Context, viewer uuid.UUID, limit, offset int) ([]community.Post, error) {
	return f.list(viewer, limit, offset, func(p *community.Post) bool {
		return f.saves[relation{p.ID, viewer}]
	}), nil
}

func (f *fakeCommunityStore) DeletePost(_ context.Context, postID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[postID]; !ok {
		return community.ErrPostNotFound
	}
	delete(f.posts, postID)
	return nil
}

func (f *fakeCommunityStore) setRelation(set map[relation]bool, postID int64, userID uuid.UUID, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return f.failWrites
	}
	if _, ok := f.posts[postID]; !ok {
		return community.ErrPostNotFound
	}
	set[relation{postID, userID}] = on
	return nil
}

func (f *fakeCommunityStore) SetLike(_ context.Context, postID int64, userID uuid.UUID, liked bool) error {
	return f.setRelation(f.likes, postID, userID, liked)
}

func (f *fakeCommunityStore) SetSaved(_ context.Context, postID int64, userID uuid.UUID, saved bool) error {
	return f.setRelation(f.saves, postID, userID, saved)
}

func (f *fakeCommunityStore) AddComment(_ context.Context, c *community.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[c.PostID]; !ok {
		return community.ErrPostNotFound
	}
	c.ID = f.id()
	c.CreatedAt = time.Now()
	cp := *c
	f.comments[c.ID] = &cp
	return nil
}

func (f *fakeCommunityStore) ListComments(_ context.Context, postID int64) ([]community.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []community.Comment{}
	for _, c := range f.comments {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCommunityStore) CommentAuthor(_ context.Context, commentID int64) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[commentID]
	if !ok {
		return uuid.Nil, community.ErrCommentNotFound
	}
	return c.UserID, nil
}

func (f *fakeCommunityStore) DeleteComment(_ context.Context, commentID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[commentID]; !ok {
		return community.ErrCommentNotFound
	}
	delete(f.comments, commentID)
	return nil
}

type readKey struct {
	notificationID int64
	userID         uuid.UUID
}

type fakeNotificationStore struct {
	notifications.Store
	mu     sync.Mutex
	items  []*notifications.Notification
	reads  map[readKey]time.Time
	nextID int64
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{reads: map[readKey]time.Time{}}
}

func (f *fakeNotificationStore) Create(_ context.Context, n *notifications.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	n.ID = f.nextID
	n.Active = true
	n.CreatedAt = time.Now()
	cp := *n
	f.items = append(f.items, &cp)
	return nil
}

// visible returns the active notifications userID can see, newest first.
func (f *fakeNotificationStore) visible(userID uuid.UUID) []*notifications.Notification {
	var out []*notifications.Notification
	for i := len(f.items) - 1; i >= 0; i-- {
		n := f.items[i]
		if n.Active && (n.UserID == nil || *n.UserID == userID) {
			out = append(out, n)
		}
	}
	return out
}

func (f *fakeNotificationStore) ListForUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]notifications.Inbox, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []notifications.Inbox{}
	for i, n := range f.visible(userID) {
		if i < offset || len(out) == limit {
			continue
		}
		item := notifications.Inbox{Notification: *n}
		if at, ok := f.reads[readKey{n.ID, userID}]; ok {
			item.Read, item.ReadAt = true, &at
		}
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeNotificationStore) UnreadCount(_ context.Context, userID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, n := range f.visible(userID) {
		if _, ok := f.reads[readKey{n.ID, userID}]; !ok {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationStore) MarkRead(_ context.Context, notificationID int64, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.visible(userID) {
		if n.ID == notificationID {
			if _, ok := f.reads[readKey{n.ID, userID}]; !ok {
				f.reads[readKey{n.ID, userID}] = time.Now()
			}
			return nil
		}
	}
	return notifications.ErrNotificationNotFound
}

func (f *fakeNotificationStore) MarkAllRead(_ context.Context, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var marked int64
	for _, n := range f.visible(userID) {
		if _, ok := f.reads[readKey{n.ID, userID}]; !ok {
			f.reads[readKey{n.ID, userID}] = time.Now()
			marked++
		}
	}
	return marked, nil
}

func (f *fakeNotificationStore) Deactivate(_ context.Context, notificationID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.items {
		if n.ID == notificationID {
			n.Active = false
			return nil
		}
	}
	return notifications.ErrNotificationNotFound
}

func (f *fakeNotificationStore) ListAll(_ context.Context, limit, offset int) ([]notifications.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []notifications.Notification{}
	for i := len(f.items) - 1; i >= 0; i-- {
		out = append(out, *f.items[i])
	}
	if offset >= len(out) {
		return []notifications.Notification{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
