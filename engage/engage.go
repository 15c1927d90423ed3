// Package engage implements the engagement engine: likes, saves, comments
// and reports as idempotent set operations on top of atomic filtered updates.
package engage

import (
	"context"
	"time"

	"github.com/256dpi/xo"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/256dpi/fire/coal"

	"github.com/256dpi/ember/graph"
	"github.com/256dpi/ember/models"
	"github.com/256dpi/ember/posts"
)

// ErrUserNotFound is returned if a referenced user is absent.
var ErrUserNotFound = xo.BF("user not found")

// Like will add the specified user to the posts like set. Liking an already
// liked post is a no-op that returns the unchanged view. A missing post
// yields posts.ErrNotFound.
func Like(ctx context.Context, store *coal.Store, post, user coal.ID) (*posts.View, error) {
	// trace
	ctx, span := xo.Trace(ctx, "engage/Like")
	defer span.End()

	// add to like set only if absent
	var model models.Post
	found, err := store.M(&models.Post{}).UpdateFirst(ctx, &model, bson.M{
		"_id": post,
		"Likes": bson.M{
			"$ne": user,
		},
	}, bson.M{
		"$addToSet": bson.M{
			"Likes": user,
		},
	}, nil, false)
	if err != nil {
		return nil, err
	}

	// a miss either means the post is absent or the user already liked it
	if !found {
		found, err = store.M(&models.Post{}).Find(ctx, &model, post, false)
		if err != nil {
			return nil, err
		} else if !found {
			return nil, posts.ErrNotFound.Wrap()
		}
	}

	return resolve(ctx, store, &model)
}

// Unlike will remove the specified user from the posts like set. Unliking a
// post that is not liked is a no-op that returns the unchanged view. A
// missing post yields posts.ErrNotFound.
func Unlike(ctx context.Context, store *coal.Store, post, user coal.ID) (*posts.View, error) {
	// trace
	ctx, span := xo.Trace(ctx, "engage/Unlike")
	defer span.End()

	// remove from like set only if present
	var model models.Post
	found, err := store.M(&models.Post{}).UpdateFirst(ctx, &model, bson.M{
		"_id":   post,
		"Likes": user,
	}, bson.M{
		"$pull": bson.M{
			"Likes": user,
		},
	}, nil, false)
	if err != nil {
		return nil, err
	}

	// a miss either means the post is absent or the user never liked it
	if !found {
		found, err = store.M(&models.Post{}).Find(ctx, &model, post, false)
		if err != nil {
			return nil, err
		} else if !found {
			return nil, posts.ErrNotFound.Wrap()
		}
	}

	return resolve(ctx, store, &model)
}

func resolve(ctx context.Context, store *coal.Store, model *models.Post) (*posts.View, error) {
	// resolve view
	view, err := posts.Resolve(ctx, store, model)
	if err != nil {
		return nil, err
	}

	// count savers
	view.SavedBy, err = posts.SavedByCount(ctx, store, model.ID())
	if err != nil {
		return nil, err
	}

	return view, nil
}

// Save will add the specified post to the users saved set and return the
// updated saved list. Saving a saved post is a no-op. A missing user yields
// ErrUserNotFound.
func Save(ctx context.Context, store *coal.Store, post, user coal.ID) ([]posts.View, error) {
	// trace
	ctx, span := xo.Trace(ctx, "engage/Save")
	defer span.End()

	// add to saved set
	var model models.User
	found, err := store.M(&models.User{}).UpdateFirst(ctx, &model, bson.M{
		"_id": user,
	}, bson.M{
		"$addToSet": bson.M{
			"SavedPosts": post,
		},
	}, nil, false)
	if err != nil {
		return nil, err
	} else if !found {
		return nil, ErrUserNotFound.Wrap()
	}

	return savedViews(ctx, store, model.SavedPosts, nil)
}

// Unsave will remove the specified post from the users saved set and return
// the updated saved list. Unsaving an unsaved post is a no-op. A missing user
// yields ErrUserNotFound.
func Unsave(ctx context.Context, store *coal.Store, post, user coal.ID) ([]posts.View, error) {
	// trace
	ctx, span := xo.Trace(ctx, "engage/Unsave")
	defer span.End()

	// remove from saved set
	var model models.User
	found, err := store.M(&models.User{}).UpdateFirst(ctx, &model, bson.M{
		"_id": user,
	}, bson.M{
		"$pull": bson.M{
			"SavedPosts": post,
		},
	}, nil, false)
	if err != nil {
		return nil, err
	} else if !found {
		return nil, ErrUserNotFound.Wrap()
	}

	return savedViews(ctx, store, model.SavedPosts, nil)
}

// Saved will return the users saved posts restricted to the communities the
// user currently belongs to. Posts saved in a community the user has since
// left are suppressed, not removed from the saved set. A missing user yields
// ErrUserNotFound.
func Saved(ctx context.Context, store *coal.Store, user coal.ID) ([]posts.View, error) {
	// trace
	ctx, span := xo.Trace(ctx, "engage/Saved")
	defer span.End()

	// load user
	var model models.User
	found, err := store.M(&models.User{}).Find(ctx, &model, user, false)
	if err != nil {
		return nil, err
	} else if !found {
		return nil, ErrUserNotFound.Wrap()
	}

	// get current communities
	communities, err := graph.Communities(ctx, store, user)
	if err != nil {
		return nil, err
	}

	return savedViews(ctx, store, model.SavedPosts, communities)
}

func savedViews(ctx context.Context, store *coal.Store, saved, communities []coal.ID) ([]posts.View, error) {
	// prepare filter
	filter := bson.M{
		"_id": bson.M{
			"$in": saved,
		},
	}

	// restrict to communities if provided
	if communities != nil {
		filter["Community"] = bson.M{
			"$in": communities,
		}
	}

	// load posts
	var list []*models.Post
	err := store.M(&models.Post{}).FindAll(ctx, &list, filter, []string{"-Created"}, 0, 0, false, coal.NoTransaction)
	if err != nil {
		return nil, err
	}

	return posts.Views(ctx, store, list)
}

// Comment will create a comment by the specified author and attach it to the
// specified post. The comment is only persisted if the post exists; a missing
// post yields posts.ErrNotFound.
func Comment(ctx context.Context, store *coal.Store, post, author coal.ID, body string) (*posts.CommentView, error) {
	// trace
	ctx, span := xo.Trace(ctx, "engage/Comment")
	defer span.End()

	// prepare comment
	comment := &models.Comment{
		Base:    coal.B(),
		Author:  author,
		Post:    post,
		Body:    body,
		Created: time.Now(),
	}

	// validate comment
	err := comment.Validate()
	if err != nil {
		return nil, err
	}

	// insert comment and attach reference together
	err = store.T(ctx, false, func(ctx context.Context) error {
		// insert comment
		err := store.M(&models.Comment{}).Insert(ctx, comment)
		if err != nil {
			return err
		}

		// attach reference
		found, err := store.M(&models.Post{}).UpdateFirst(ctx, nil, bson.M{
			"_id": post,
		}, bson.M{
			"$addToSet": bson.M{
				"Comments": comment.ID(),
			},
		}, nil, false)
		if err != nil {
			return err
		} else if !found {
			return posts.ErrNotFound.Wrap()
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// resolve view
	views, err := posts.CommentViews(ctx, store, []*models.Comment{comment})
	if err != nil {
		return nil, err
	}

	return &views[0], nil
}

// Comments will return the comments of the specified post, most recent first.
func Comments(ctx context.Context, store *coal.Store, post coal.ID) ([]posts.CommentView, error) {
	// trace
	ctx, span := xo.Trace(ctx, "engage/Comments")
	defer span.End()

	// load comments
	var list []*models.Comment
	err := store.M(&models.Comment{}).FindAll(ctx, &list, bson.M{
		"Post": post,
	}, []string{"-Created"}, 0, 0, false, coal.NoTransaction)
	if err != nil {
		return nil, err
	}

	return posts.CommentViews(ctx, store, list)
}

// Report will flag the specified post for the specified user. The flag is a
// boolean: reporting an already reported post is a no-op. It will return
// whether a new report has been created. A missing post yields
// posts.ErrNotFound.
func Report(ctx context.Context, store *coal.Store, post, user coal.ID) (bool, error) {
	// trace
	ctx, span := xo.Trace(ctx, "engage/Report")
	defer span.End()

	// check post
	found, err := store.M(&models.Post{}).Find(ctx, nil, post, false)
	if err != nil {
		return false, err
	} else if !found {
		return false, posts.ErrNotFound.Wrap()
	}

	// prepare report
	report := &models.Report{
		Base:     coal.B(),
		Post:     post,
		Reporter: user,
		Created:  time.Now(),
	}

	// validate report
	err = report.Validate()
	if err != nil {
		return false, err
	}

	// insert report if missing
	inserted, err := store.M(&models.Report{}).InsertIfMissing(ctx, bson.M{
		"Post":     post,
		"Reporter": user,
	}, report, false)
	if err != nil {
		return false, err
	}

	return inserted, nil
}
