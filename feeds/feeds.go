// Package feeds implements the feed composer: the four read views that
// combine community memberships, the follow graph and the post store behind
// the uniform visibility gate.
package feeds

import (
	"context"

	"github.com/256dpi/xo"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/256dpi/fire/coal"

	"github.com/256dpi/ember/graph"
	"github.com/256dpi/ember/models"
	"github.com/256dpi/ember/posts"
)

// The fixed feed limits.
const (
	DefaultLimit   = 10
	FollowingLimit = 20
	ProfileLimit   = 10
)

// Home will return the newest posts of all communities the viewer belongs
// to, together with the total count of matching posts.
func Home(ctx context.Context, store *coal.Store, viewer coal.ID, skip, limit int64) ([]posts.View, int64, error) {
	// trace
	ctx, span := xo.Trace(ctx, "feeds/Home")
	defer span.End()

	// get memberships
	communities, err := graph.Communities(ctx, store, viewer)
	if err != nil {
		return nil, 0, err
	}

	// list posts
	return list(ctx, store, bson.M{
		"Community": bson.M{
			"$in": communities,
		},
	}, skip, limit)
}

// Community will return the newest posts of the specified community,
// together with the total count of matching posts. A viewer that is not a
// member receives graph.ErrUnauthorized.
func Community(ctx context.Context, store *coal.Store, viewer, community coal.ID, skip, limit int64) ([]posts.View, int64, error) {
	// trace
	ctx, span := xo.Trace(ctx, "feeds/Community")
	defer span.End()

	// check membership
	err := graph.Authorize(ctx, store, viewer, community)
	if err != nil {
		return nil, 0, err
	}

	// list posts
	return list(ctx, store, bson.M{
		"Community": community,
	}, skip, limit)
}

// Following will return the newest posts authored by users the viewer
// follows within the specified community, capped at FollowingLimit. The same
// membership gate applies as for the community feed.
func Following(ctx context.Context, store *coal.Store, viewer, community coal.ID) ([]posts.View, error) {
	// trace
	ctx, span := xo.Trace(ctx, "feeds/Following")
	defer span.End()

	// check membership
	err := graph.Authorize(ctx, store, viewer, community)
	if err != nil {
		return nil, err
	}

	// get followed users
	following, err := graph.Following(ctx, store, viewer)
	if err != nil {
		return nil, err
	}

	// load posts
	var list []*models.Post
	err = store.M(&models.Post{}).FindAll(ctx, &list, bson.M{
		"Author": bson.M{
			"$in": following,
		},
		"Community": community,
	}, []string{"-Created"}, 0, FollowingLimit, false, coal.NoTransaction)
	if err != nil {
		return nil, err
	}

	return posts.Views(ctx, store, list)
}

// Profile will return the newest posts of the specified user restricted to
// the communities shared with the viewer, capped at ProfileLimit. The second
// return value reports whether the viewer follows the user; without a follow
// edge no posts are returned and no error is raised.
func Profile(ctx context.Context, store *coal.Store, viewer, user coal.ID) ([]posts.View, bool, error) {
	// trace
	ctx, span := xo.Trace(ctx, "feeds/Profile")
	defer span.End()

	// check follow edge
	follows, err := graph.Follows(ctx, store, viewer, user)
	if err != nil {
		return nil, false, err
	} else if !follows {
		return nil, false, nil
	}

	// get shared communities
	shared, err := graph.SharedCommunities(ctx, store, viewer, user)
	if err != nil {
		return nil, false, err
	}

	// load posts
	var list []*models.Post
	err = store.M(&models.Post{}).FindAll(ctx, &list, bson.M{
		"Community": bson.M{
			"$in": shared,
		},
		"Author": user,
	}, []string{"-Created"}, 0, ProfileLimit, false, coal.NoTransaction)
	if err != nil {
		return nil, false, err
	}

	// build views
	views, err := posts.Views(ctx, store, list)
	if err != nil {
		return nil, false, err
	}

	return views, true, nil
}

func list(ctx context.Context, store *coal.Store, filter bson.M, skip, limit int64) ([]posts.View, int64, error) {
	// normalize paging
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	// load posts
	var list []*models.Post
	err := store.M(&models.Post{}).FindAll(ctx, &list, filter, []string{"-Created"}, skip, limit, false, coal.NoTransaction)
	if err != nil {
		return nil, 0, err
	}

	// count posts
	total, err := store.M(&models.Post{}).Count(ctx, filter, 0, 0, false, coal.NoTransaction)
	if err != nil {
		return nil, 0, err
	}

	// build views
	views, err := posts.Views(ctx, store, list)
	if err != nil {
		return nil, 0, err
	}

	return views, total, nil
}
