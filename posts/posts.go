// Package posts implements the post store: creation, retrieval, deletion and
// the enriched views shared by the engagement and feed packages.
package posts

import (
	"context"
	"time"

	"github.com/256dpi/xo"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/256dpi/fire/coal"
	"github.com/256dpi/fire/stick"

	"github.com/256dpi/ember/graph"
	"github.com/256dpi/ember/models"
)

// ErrNotFound is returned if a referenced post is absent.
var ErrNotFound = xo.BF("post not found")

// Create will persist a new post authored by the specified user in the
// specified community. It will return graph.ErrUnauthorized unless the author
// is a member of the community at call time.
func Create(ctx context.Context, store *coal.Store, author, community coal.ID, body, fileURL string) (*View, error) {
	// trace
	ctx, span := xo.Trace(ctx, "posts/Create")
	defer span.End()

	// check membership
	err := graph.Authorize(ctx, store, author, community)
	if err != nil {
		return nil, err
	}

	// prepare post
	post := &models.Post{
		Base:      coal.B(),
		Author:    author,
		Community: community,
		Body:      body,
		FileURL:   fileURL,
		Likes:     []coal.ID{},
		Comments:  []coal.ID{},
		Created:   time.Now(),
	}

	// validate post
	err = post.Validate()
	if err != nil {
		return nil, err
	}

	// insert post
	err = store.M(&models.Post{}).Insert(ctx, post)
	if err != nil {
		return nil, err
	}

	return Resolve(ctx, store, post)
}

// Find will return the view of the specified post for the specified viewer,
// enriched with the saved-by count and the viewers report flag. The uniform
// visibility gate applies: a viewer that is not a member of the posts
// community receives graph.ErrUnauthorized.
func Find(ctx context.Context, store *coal.Store, id, viewer coal.ID) (*View, error) {
	// trace
	ctx, span := xo.Trace(ctx, "posts/Find")
	defer span.End()

	// load post
	var post models.Post
	found, err := store.M(&models.Post{}).Find(ctx, &post, id, false)
	if err != nil {
		return nil, err
	} else if !found {
		return nil, ErrNotFound.Wrap()
	}

	// check visibility
	err = graph.Authorize(ctx, store, viewer, post.Community)
	if err != nil {
		return nil, err
	}

	// resolve view
	view, err := Resolve(ctx, store, &post)
	if err != nil {
		return nil, err
	}

	// count savers
	view.SavedBy, err = SavedByCount(ctx, store, id)
	if err != nil {
		return nil, err
	}

	// check report flag
	view.Reported, err = IsReported(ctx, store, id, viewer)
	if err != nil {
		return nil, err
	}

	return view, nil
}

// Delete will hard-delete the specified post and cascade to its comments and
// reports. It will return whether a post has been deleted.
func Delete(ctx context.Context, store *coal.Store, id coal.ID) (bool, error) {
	// trace
	ctx, span := xo.Trace(ctx, "posts/Delete")
	defer span.End()

	// delete post, comments and reports together
	var found bool
	err := store.T(ctx, false, func(ctx context.Context) error {
		// delete post
		var err error
		found, err = store.M(&models.Post{}).Delete(ctx, nil, id)
		if err != nil {
			return err
		} else if !found {
			return nil
		}

		// delete comments
		_, err = store.M(&models.Comment{}).DeleteAll(ctx, bson.M{
			"Post": id,
		})
		if err != nil {
			return err
		}

		// delete reports
		_, err = store.M(&models.Report{}).DeleteAll(ctx, bson.M{
			"Post": id,
		})
		if err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	return found, nil
}

// Cleanup will remove comments and reports that reference a nonexistent post.
// Orphans only appear if a writer crashed between the steps of an older
// non-transactional delete.
func Cleanup(ctx context.Context, store *coal.Store) (int64, error) {
	// trace
	ctx, span := xo.Trace(ctx, "posts/Cleanup")
	defer span.End()

	// collect referenced posts
	commentRefs, err := store.M(&models.Comment{}).Distinct(ctx, "Post", bson.M{}, false, coal.NoTransaction)
	if err != nil {
		return 0, err
	}
	reportRefs, err := store.M(&models.Report{}).Distinct(ctx, "Post", bson.M{}, false, coal.NoTransaction)
	if err != nil {
		return 0, err
	}

	// merge references
	refs := make([]coal.ID, 0, len(commentRefs)+len(reportRefs))
	for _, ref := range commentRefs {
		refs = append(refs, ref.(coal.ID))
	}
	for _, ref := range reportRefs {
		refs = append(refs, ref.(coal.ID))
	}
	refs = stick.Unique(refs)

	// determine orphans
	var removed int64
	for _, ref := range refs {
		// check post
		found, err := store.M(&models.Post{}).Find(ctx, nil, ref, false)
		if err != nil {
			return removed, err
		} else if found {
			continue
		}

		// remove orphaned comments
		num, err := store.M(&models.Comment{}).DeleteAll(ctx, bson.M{
			"Post": ref,
		})
		if err != nil {
			return removed, err
		}
		removed += num

		// remove orphaned reports
		num, err = store.M(&models.Report{}).DeleteAll(ctx, bson.M{
			"Post": ref,
		})
		if err != nil {
			return removed, err
		}
		removed += num
	}

	return removed, nil
}
