package testutil

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/videotube/internal/apperrors"
	"github.com/nkiryanov/videotube/internal/models"
	"github.com/nkiryanov/videotube/internal/repository"
)

// In memory repository.Storage for service tests that don't need postgres
// InTx gives no isolation and no rollback
type MemStorage struct {
	mu sync.Mutex

	users         map[uuid.UUID]models.User
	videos        map[uuid.UUID]models.Video
	comments      map[uuid.UUID]models.Comment
	tweets        map[uuid.UUID]models.Tweet
	likes         []models.Like
	subscriptions []models.Subscription
}

var _ repository.Storage = (*MemStorage)(nil)

func NewMemStorage() *MemStorage {
	return &MemStorage{
		users:    make(map[uuid.UUID]models.User),
		videos:   make(map[uuid.UUID]models.Video),
		comments: make(map[uuid.UUID]models.Comment),
		tweets:   make(map[uuid.UUID]models.Tweet),
	}
}

func (s *MemStorage) User() repository.UserRepo                 { return memUsers{s} }
func (s *MemStorage) Video() repository.VideoRepo               { return memVideos{s} }
func (s *MemStorage) Comment() repository.CommentRepo           { return memComments{s} }
func (s *MemStorage) Tweet() repository.TweetRepo               { return memTweets{s} }
func (s *MemStorage) Like() repository.LikeRepo                 { return memLikes{s} }
func (s *MemStorage) Subscription() repository.SubscriptionRepo { return memSubscriptions{s} }

func (s *MemStorage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	return fn(s)
}

type memUsers struct{ s *MemStorage }

func (r memUsers) CreateUser(ctx context.Context, p models.CreateUserParams) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Username, p.Username) || strings.EqualFold(u.Email, p.Email) {
			return models.User{}, apperrors.ErrUserAlreadyExists
		}
	}

	user := models.User{
		ID:             uuid.New(),
		CreatedAt:      time.Now(),
		Username:       p.Username,
		Email:          p.Email,
		Fullname:       p.Fullname,
		HashedPassword: p.HashedPassword,
	}
	r.s.users[user.ID] = user

	return user, nil
}

func (r memUsers) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}
	return user, nil
}

func (r memUsers) GetUserByLogin(ctx context.Context, login string) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Username, login) {
			return u, nil
		}
	}
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, login) {
			return u, nil
		}
	}
	return models.User{}, apperrors.ErrUserNotFound
}

func (r memUsers) UpdateAccount(ctx context.Context, id uuid.UUID, p models.UpdateAccountParams) (models.User, error) {
	return r.update(id, func(u *models.User) error {
		if p.Email != nil {
			for otherID, other := range r.s.users {
				if otherID != id && strings.EqualFold(other.Email, *p.Email) {
					return apperrors.ErrUserAlreadyExists
				}
			}
			u.Email = *p.Email
		}
		if p.Fullname != nil {
			u.Fullname = *p.Fullname
		}
		return nil
	})
}

func (r memUsers) UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	_, err := r.update(id, func(u *models.User) error {
		u.HashedPassword = hashedPassword
		return nil
	})
	return err
}

func (r memUsers) SetImage(ctx context.Context, id uuid.UUID, kind string, url string, key string) (models.User, error) {
	return r.update(id, func(u *models.User) error {
		switch kind {
		case models.UserImageAvatar:
			u.AvatarURL, u.AvatarKey = url, key
		case models.UserImageCover:
			u.CoverImageURL, u.CoverImageKey = url, key
		default:
			return fmt.Errorf("unknown user image %q", kind)
		}
		return nil
	})
}

func (r memUsers) SetRefreshToken(ctx context.Context, id uuid.UUID, tokenHash string) error {
	_, err := r.update(id, func(u *models.User) error {
		u.RefreshTokenHash = tokenHash
		return nil
	})
	return err
}

func (r memUsers) RotateRefreshToken(ctx context.Context, id uuid.UUID, oldHash string, newHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok || user.RefreshTokenHash == "" || user.RefreshTokenHash != oldHash {
		return apperrors.ErrRefreshTokenStale
	}
	user.RefreshTokenHash = newHash
	r.s.users[id] = user

	return nil
}

func (r memUsers) update(id uuid.UUID, fn func(u *models.User) error) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}
	if err := fn(&user); err != nil {
		return models.User{}, err
	}
	r.s.users[id] = user

	return user, nil
}

type memVideos struct{ s *MemStorage }

func (r memVideos) CreateVideo(ctx context.Context, v models.Video) (models.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = time.Now()
	v.UpdatedAt = v.CreatedAt
	r.s.videos[v.ID] = v

	return v, nil
}

func (r memVideos) GetVideo(ctx context.Context, id uuid.UUID) (models.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	v, ok := r.s.videos[id]
	if !ok {
		return models.Video{}, apperrors.ErrVideoNotFound
	}
	return v, nil
}

func (r memVideos) ListVideos(ctx context.Context, q models.VideoQuery) ([]models.Video, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var videos []models.Video
	for _, v := range r.s.videos {
		switch {
		case !v.IsPublished && v.OwnerID != q.ViewerID:
			continue
		case q.OwnerID != uuid.Nil && v.OwnerID != q.OwnerID:
			continue
		case q.Query != "" && !strings.Contains(strings.ToLower(v.Title), strings.ToLower(q.Query)):
			continue
		}
		videos = append(videos, v)
	}

	slices.SortFunc(videos, func(a, b models.Video) int {
		var c int
		switch q.SortBy {
		case models.VideoSortViews:
			c = cmp.Compare(a.Views, b.Views)
		case models.VideoSortTitle:
			c = strings.Compare(a.Title, b.Title)
		case models.VideoSortDuration:
			c = a.Duration.Cmp(b.Duration)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if q.SortDesc {
			c = -c
		}
		return cmp.Or(c, strings.Compare(a.ID.String(), b.ID.String()))
	})

	return paginate(videos, q.Page, q.Limit), int64(len(videos)), nil
}

func (r memVideos) UpdateVideo(ctx context.Context, id uuid.UUID, p models.UpdateVideoParams) (models.Video, error) {
	return r.update(id, func(v *models.Video) {
		setIfNotNil(&v.Title, p.Title)
		setIfNotNil(&v.Description, p.Description)
		setIfNotNil(&v.ThumbnailURL, p.ThumbnailURL)
		setIfNotNil(&v.ThumbnailKey, p.ThumbnailKey)
	})
}

func (r memVideos) SetPublished(ctx context.Context, id uuid.UUID, published bool) (models.Video, error) {
	return r.update(id, func(v *models.Video) { v.IsPublished = published })
}

func (r memVideos) IncrementViews(ctx context.Context, id uuid.UUID) error {
	_, err := r.update(id, func(v *models.Video) { v.Views++ })
	return err
}

func (r memVideos) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.videos[id]; !ok {
		return apperrors.ErrVideoNotFound
	}
	delete(r.s.videos, id)
	for commentID, c := range r.s.comments {
		if c.VideoID == id {
			delete(r.s.comments, commentID)
		}
	}

	return nil
}

func (r memVideos) ChannelStats(ctx context.Context, channelID uuid.UUID) (models.ChannelStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var stats models.ChannelStats
	for _, v := range r.s.videos {
		if v.OwnerID != channelID {
			continue
		}
		stats.TotalVideos++
		stats.TotalViews += v.Views
		for _, l := range r.s.likes {
			if l.TargetType == models.LikeTargetVideo && l.TargetID == v.ID {
				stats.TotalLikes++
			}
		}
	}
	for _, sub := range r.s.subscriptions {
		if sub.ChannelID == channelID {
			stats.TotalSubscribers++
		}
	}

	return stats, nil
}

func (r memVideos) update(id uuid.UUID, fn func(v *models.Video)) (models.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	v, ok := r.s.videos[id]
	if !ok {
		return models.Video{}, apperrors.ErrVideoNotFound
	}
	fn(&v)
	v.UpdatedAt = time.Now()
	r.s.videos[id] = v

	return v, nil
}

type memComments struct{ s *MemStorage }

func (r memComments) CreateComment(ctx context.Context, c models.Comment) (models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.s.comments[c.ID] = c

	return c, nil
}

func (r memComments) GetComment(ctx context.Context, id uuid.UUID) (models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.comments[id]
	if !ok {
		return models.Comment{}, apperrors.ErrCommentNotFound
	}
	return c, nil
}

func (r memComments) ListComments(ctx context.Context, q models.CommentQuery) ([]models.Comment, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var comments []models.Comment
	for _, c := range r.s.comments {
		switch {
		case c.VideoID != q.VideoID:
			continue
		case q.OwnerID != uuid.Nil && c.OwnerID != q.OwnerID:
			continue
		case q.Query != "" && !strings.Contains(strings.ToLower(c.Content), strings.ToLower(q.Query)):
			continue
		}
		comments = append(comments, c)
	}

	slices.SortFunc(comments, func(a, b models.Comment) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if q.SortDesc {
			c = -c
		}
		return cmp.Or(c, strings.Compare(a.ID.String(), b.ID.String()))
	})

	return paginate(comments, q.Page, q.Limit), int64(len(comments)), nil
}

func (r memComments) UpdateComment(ctx context.Context, id uuid.UUID, content string) (models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.comments[id]
	if !ok {
		return models.Comment{}, apperrors.ErrCommentNotFound
	}
	c.Content = content
	c.UpdatedAt = time.Now()
	r.s.comments[id] = c

	return c, nil
}

func (r memComments) DeleteComment(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[id]; !ok {
		return apperrors.ErrCommentNotFound
	}
	delete(r.s.comments, id)

	return nil
}

type memTweets struct{ s *MemStorage }

func (r memTweets) CreateTweet(ctx context.Context, t models.Tweet) (models.Tweet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	r.s.tweets[t.ID] = t

	return t, nil
}

func (r memTweets) GetTweet(ctx context.Context, id uuid.UUID) (models.Tweet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tweets[id]
	if !ok {
		return models.Tweet{}, apperrors.ErrTweetNotFound
	}
	return t, nil
}

func (r memTweets) ListTweetsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Tweet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var tweets []models.Tweet
	for _, t := range r.s.tweets {
		if t.OwnerID == ownerID {
			tweets = append(tweets, t)
		}
	}
	slices.SortFunc(tweets, func(a, b models.Tweet) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
	})

	return tweets, nil
}

func (r memTweets) UpdateTweet(ctx context.Context, id uuid.UUID, content string) (models.Tweet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tweets[id]
	if !ok {
		return models.Tweet{}, apperrors.ErrTweetNotFound
	}
	t.Content = content
	t.UpdatedAt = time.Now()
	r.s.tweets[id] = t

	return t, nil
}

func (r memTweets) DeleteTweet(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tweets[id]; !ok {
		return apperrors.ErrTweetNotFound
	}
	delete(r.s.tweets, id)

	return nil
}

type memLikes struct{ s *MemStorage }

func (r memLikes) ToggleLike(ctx context.Context, userID uuid.UUID, targetType string, targetID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	idx := slices.IndexFunc(r.s.likes, func(l models.Like) bool {
		return l.LikedBy == userID && l.TargetType == targetType && l.TargetID == targetID
	})
	if idx >= 0 {
		r.s.likes = slices.Delete(r.s.likes, idx, idx+1)
		return false, nil
	}

	r.s.likes = append(r.s.likes, models.Like{
		ID:         uuid.New(),
		LikedBy:    userID,
		TargetType: targetType,
		TargetID:   targetID,
		CreatedAt:  time.Now(),
	})
	return true, nil
}

func (r memLikes) ListLikedVideos(ctx context.Context, userID uuid.UUID) ([]models.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var videos []models.Video
	for i := len(r.s.likes) - 1; i >= 0; i-- {
		l := r.s.likes[i]
		if l.LikedBy != userID || l.TargetType != models.LikeTargetVideo {
			continue
		}
		if v, ok := r.s.videos[l.TargetID]; ok && v.VisibleTo(userID) {
			videos = append(videos, v)
		}
	}

	return videos, nil
}

func (r memLikes) ListLikedComments(ctx context.Context, userID uuid.UUID) ([]models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var comments []models.Comment
	for i := len(r.s.likes) - 1; i >= 0; i-- {
		l := r.s.likes[i]
		if l.LikedBy != userID || l.TargetType != models.LikeTargetComment {
			continue
		}
		c, ok := r.s.comments[l.TargetID]
		if !ok {
			continue
		}
		if v, ok := r.s.videos[c.VideoID]; ok && v.VisibleTo(userID) {
			comments = append(comments, c)
		}
	}

	return comments, nil
}

func (r memLikes) ListLikedTweets(ctx context.Context, userID uuid.UUID) ([]models.Tweet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var tweets []models.Tweet
	for i := len(r.s.likes) - 1; i >= 0; i-- {
		l := r.s.likes[i]
		if l.LikedBy != userID || l.TargetType != models.LikeTargetTweet {
			continue
		}
		if t, ok := r.s.tweets[l.TargetID]; ok {
			tweets = append(tweets, t)
		}
	}

	return tweets, nil
}

type memSubscriptions struct{ s *MemStorage }

func (r memSubscriptions) ToggleSubscription(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	idx := slices.IndexFunc(r.s.subscriptions, func(sub models.Subscription) bool {
		return sub.SubscriberID == subscriberID && sub.ChannelID == channelID
	})
	if idx >= 0 {
		r.s.subscriptions = slices.Delete(r.s.subscriptions, idx, idx+1)
		return false, nil
	}

	r.s.subscriptions = append(r.s.subscriptions, models.Subscription{
		SubscriberID: subscriberID,
		ChannelID:    channelID,
		CreatedAt:    time.Now(),
	})
	return true, nil
}

func (r memSubscriptions) ListSubscribers(ctx context.Context, channelID uuid.UUID) ([]models.User, error) {
	return r.list(func(sub models.Subscription) (uuid.UUID, bool) {
		return sub.SubscriberID, sub.ChannelID == channelID
	}), nil
}

func (r memSubscriptions) ListChannels(ctx context.Context, subscriberID uuid.UUID) ([]models.User, error) {
	return r.list(func(sub models.Subscription) (uuid.UUID, bool) {
		return sub.ChannelID, sub.SubscriberID == subscriberID
	}), nil
}

func (r memSubscriptions) list(match func(models.Subscription) (uuid.UUID, bool)) []models.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var users []models.User
	for i := len(r.s.subscriptions) - 1; i >= 0; i-- {
		if id, ok := match(r.s.subscriptions[i]); ok {
			users = append(users, r.s.users[id])
		}
	}
	return users
}

func paginate[T any](items []T, page, limit int) []T {
	page, limit = models.NormalizePage(page, limit)
	start := min((page-1)*limit, len(items))
	end := min(start+limit, len(items))
	return items[start:end]
}

func setIfNotNil(field *string, value *string) {
	if value != nil {
		*field = *value
	}
}
