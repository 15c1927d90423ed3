package posts

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/256dpi/fire/coal"
	"github.com/256dpi/fire/stick"

	"github.com/256dpi/ember/models"
)

// UserInfo carries the displayed subset of a user.
type UserInfo struct {
	ID     coal.ID `json:"id"`
	Name   string  `json:"name"`
	Avatar string  `json:"avatar,omitempty"`
}

// CommunityInfo carries the displayed subset of a community.
type CommunityInfo struct {
	ID   coal.ID `json:"id"`
	Name string  `json:"name"`
}

// View is a post enriched for display with its author, community, engagement
// sets and a relative age.
type View struct {
	ID        coal.ID       `json:"id"`
	Author    UserInfo      `json:"author"`
	Community CommunityInfo `json:"community"`
	Body      string        `json:"body"`
	FileURL   string        `json:"file-url,omitempty"`
	Likes     []coal.ID     `json:"likes"`
	Comments  []coal.ID     `json:"comments"`
	Created   time.Time     `json:"created-at"`
	Age       string        `json:"age"`
	SavedBy   int64         `json:"saved-by-count,omitempty"`
	Reported  bool          `json:"is-reported,omitempty"`
}

// CommentView is a comment enriched for display with its author and a
// relative age.
type CommentView struct {
	ID      coal.ID  `json:"id"`
	Author  UserInfo `json:"author"`
	Post    coal.ID  `json:"post"`
	Body    string   `json:"body"`
	Created time.Time `json:"created-at"`
	Age     string   `json:"age"`
}

// Age renders the specified timestamp as a relative age.
func Age(timestamp time.Time) string {
	return humanize.Time(timestamp)
}

// Views will enrich the specified posts with their authors and communities.
// The returned slice preserves the input order.
func Views(ctx context.Context, store *coal.Store, list []*models.Post) ([]View, error) {
	// collect references
	userIDs := make([]coal.ID, 0, len(list))
	communityIDs := make([]coal.ID, 0, len(list))
	for _, post := range list {
		userIDs = append(userIDs, post.Author)
		communityIDs = append(communityIDs, post.Community)
	}

	// load users
	var users []*models.User
	err := store.M(&models.User{}).FindAll(ctx, &users, bson.M{
		"_id": bson.M{
			"$in": stick.Unique(userIDs),
		},
	}, nil, 0, 0, false, coal.NoTransaction)
	if err != nil {
		return nil, err
	}

	// load communities
	var communities []*models.Community
	err = store.M(&models.Community{}).FindAll(ctx, &communities, bson.M{
		"_id": bson.M{
			"$in": stick.Unique(communityIDs),
		},
	}, nil, 0, 0, false, coal.NoTransaction)
	if err != nil {
		return nil, err
	}

	// index users
	userInfos := map[coal.ID]UserInfo{}
	for _, user := range users {
		userInfos[user.ID()] = UserInfo{
			ID:     user.ID(),
			Name:   user.Name,
			Avatar: user.Avatar,
		}
	}

	// index communities
	communityInfos := map[coal.ID]CommunityInfo{}
	for _, community := range communities {
		communityInfos[community.ID()] = CommunityInfo{
			ID:   community.ID(),
			Name: community.Name,
		}
	}

	// build views
	views := make([]View, 0, len(list))
	for _, post := range list {
		views = append(views, View{
			ID:        post.ID(),
			Author:    userInfos[post.Author],
			Community: communityInfos[post.Community],
			Body:      post.Body,
			FileURL:   post.FileURL,
			Likes:     post.Likes,
			Comments:  post.Comments,
			Created:   post.Created,
			Age:       Age(post.Created),
		})
	}

	return views, nil
}

// Resolve will enrich a single post.
func Resolve(ctx context.Context, store *coal.Store, post *models.Post) (*View, error) {
	// build views
	views, err := Views(ctx, store, []*models.Post{post})
	if err != nil {
		return nil, err
	}

	return &views[0], nil
}

// SavedByCount will count the users that saved the specified post.
func SavedByCount(ctx context.Context, store *coal.Store, post coal.ID) (int64, error) {
	return store.M(&models.User{}).Count(ctx, bson.M{
		"SavedPosts": post,
	}, 0, 0, false, coal.NoTransaction)
}

// IsReported will return whether a report exists for the specified post and
// user pair.
func IsReported(ctx context.Context, store *coal.Store, post, user coal.ID) (bool, error) {
	return store.M(&models.Report{}).FindFirst(ctx, nil, bson.M{
		"Post":     post,
		"Reporter": user,
	}, nil, 0, false)
}

// CommentViews will enrich the specified comments with their authors. The
// returned slice preserves the input order.
func CommentViews(ctx context.Context, store *coal.Store, list []*models.Comment) ([]CommentView, error) {
	// collect references
	userIDs := make([]coal.ID, 0, len(list))
	for _, comment := range list {
		userIDs = append(userIDs, comment.Author)
	}

	// load users
	var users []*models.User
	err := store.M(&models.User{}).FindAll(ctx, &users, bson.M{
		"_id": bson.M{
			"$in": stick.Unique(userIDs),
		},
	}, nil, 0, 0, false, coal.NoTransaction)
	if err != nil {
		return nil, err
	}

	// index users
	userInfos := map[coal.ID]UserInfo{}
	for _, user := range users {
		userInfos[user.ID()] = UserInfo{
			ID:     user.ID(),
			Name:   user.Name,
			Avatar: user.Avatar,
		}
	}

	// build views
	views := make([]CommentView, 0, len(list))
	for _, comment := range list {
		views = append(views, CommentView{
			ID:      comment.ID(),
			Author:  userInfos[comment.Author],
			Post:    comment.Post,
			Body:    comment.Body,
			Created: comment.Created,
			Age:     Age(comment.Created),
		})
	}

	return views, nil
}
