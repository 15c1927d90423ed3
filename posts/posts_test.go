package posts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/256dpi/fire/coal"

	"github.com/256dpi/ember/graph"
	"github.com/256dpi/ember/models"
)

func TestCreate(t *testing.T) {
	withTester(t, func(t *testing.T, tester *coal.Tester) {
		author := insertUser(tester, "amy")
		community := insertCommunity(tester, "gophers", author.ID())

		view, err := Create(nil, tester.Store, author.ID(), community.ID(), "Hello World!", "")
		assert.NoError(t, err)
		assert.Equal(t, "Hello World!", view.Body)
		assert.Equal(t, author.ID(), view.Author.ID)
		assert.Equal(t, "amy", view.Author.Name)
		assert.Equal(t, community.ID(), view.Community.ID)
		assert.Equal(t, "gophers", view.Community.Name)
		assert.Empty(t, view.Likes)
		assert.Empty(t, view.Comments)
		assert.NotEmpty(t, view.Age)

		post := tester.FindLast(&models.Post{}).(*models.Post)
		assert.Equal(t, view.ID, post.ID())
		assert.Equal(t, []coal.ID{}, post.Likes)
		assert.Equal(t, []coal.ID{}, post.Comments)
	})
}

func TestCreateUnauthorized(t *testing.T) {
	withTester(t, func(t *testing.T, tester *coal.Tester) {
		author := insertUser(tester, "amy")
		community := insertCommunity(tester, "gophers")

		// a non-member cannot post, even a former member
		view, err := Create(nil, tester.Store, author.ID(), community.ID(), "Hello World!", "")
		assert.True(t, graph.ErrUnauthorized.Is(err))
		assert.Nil(t, view)
		assert.Equal(t, 0, tester.Count(&models.Post{}))
	})
}

func TestCreateInvalid(t *testing.T) {
	withTester(t, func(t *testing.T, tester *coal.Tester) {
		author := insertUser(tester, "amy")
		community := insertCommunity(tester, "gophers", author.ID())

		// neither body nor attachment
		view, err := Create(nil, tester.Store, author.ID(), community.ID(), "", "")
		assert.Error(t, err)
		assert.Nil(t, view)

		// attachment only is fine
		view, err = Create(nil, tester.Store, author.ID(), community.ID(), "", "http://example.com/blobs/foo.png")
		assert.NoError(t, err)
		assert.Equal(t, "http://example.com/blobs/foo.png", view.FileURL)
	})
}

func TestFind(t *testing.T) {
	withTester(t, func(t *testing.T, tester *coal.Tester) {
		author := insertUser(tester, "amy")
		viewer := insertUser(tester, "bob")
		community := insertCommunity(tester, "gophers", author.ID(), viewer.ID())
		post := insertPost(tester, author.ID(), community.ID(), "Hello World!", time.Hour)

		view, err := Find(nil, tester.Store, post.ID(), viewer.ID())
		assert.NoError(t, err)
		assert.Equal(t, post.ID(), view.ID)
		assert.Equal(t, "Hello World!", view.Body)
		assert.Zero(t, view.SavedBy)
		assert.False(t, view.Reported)

		// enrich with the saved-by count and the viewers report flag
		tester.Insert(&models.User{
			Base:       coal.B(),
			Name:       "cara",
			Email:      "cara@example.com",
			Password:   "secret",
			SavedPosts: []coal.ID{post.ID()},
		})
		tester.Insert(&models.Report{
			Base:     coal.B(),
			Post:     post.ID(),
			Reporter: viewer.ID(),
			Created:  time.Now(),
		})

		view, err = Find(nil, tester.Store, post.ID(), viewer.ID())
		assert.NoError(t, err)
		assert.Equal(t, int64(1), view.SavedBy)
		assert.True(t, view.Reported)
	})
}

func TestFindGate(t *testing.T) {
	withTester(t, func(t *testing.T, tester *coal.Tester) {
		author := insertUser(tester, "amy")
		outsider := insertUser(tester, "bob")
		community := insertCommunity(tester, "gophers", author.ID())
		post := insertPost(tester, author.ID(), community.ID(), "Hello World!", time.Hour)

		view, err := Find(nil, tester.Store, post.ID(), outsider.ID())
		assert.True(t, graph.ErrUnauthorized.Is(err))
		assert.Nil(t, view)

		view, err = Find(nil, tester.Store, coal.New(), author.ID())
		assert.True(t, ErrNotFound.Is(err))
		assert.Nil(t, view)
	})
}

func TestDelete(t *testing.T) {
	withTester(t, func(t *testing.T, tester *coal.Tester) {
		author := insertUser(tester, "amy")
		community := insertCommunity(tester, "gophers", author.ID())
		post := insertPost(tester, author.ID(), community.ID(), "Hello World!", time.Hour)
		other := insertPost(tester, author.ID(), community.ID(), "Still here!", time.Minute)

		tester.Insert(&models.Comment{
			Base:    coal.B(),
			Author:  author.ID(),
			Post:    post.ID(),
			Body:    "Nice!",
			Created: time.Now(),
		})
		tester.Insert(&models.Comment{
			Base:    coal.B(),
			Author:  author.ID(),
			Post:    other.ID(),
			Body:    "Also nice!",
			Created: time.Now(),
		})
		tester.Insert(&models.Report{
			Base:     coal.B(),
			Post:     post.ID(),
			Reporter: author.ID(),
			Created:  time.Now(),
		})

		found, err := Delete(nil, tester.Store, post.ID())
		assert.NoError(t, err)
		assert.True(t, found)

		// the cascade only removes dependents of the deleted post
		assert.Equal(t, 1, tester.Count(&models.Post{}))
		assert.Equal(t, 1, tester.Count(&models.Comment{}))
		assert.Equal(t, 0, tester.Count(&models.Report{}))

		found, err = Delete(nil, tester.Store, post.ID())
		assert.NoError(t, err)
		assert.False(t, found)
	})
}

func TestCleanup(t *testing.T) {
	withTester(t, func(t *testing.T, tester *coal.Tester) {
		author := insertUser(tester, "amy")
		community := insertCommunity(tester, "gophers", author.ID())
		post := insertPost(tester, author.ID(), community.ID(), "Hello World!", time.Hour)
		gone := coal.New()

		tester.Insert(&models.Comment{
			Base:    coal.B(),
			Author:  author.ID(),
			Post:    post.ID(),
			Body:    "Nice!",
			Created: time.Now(),
		})
		tester.Insert(&models.Comment{
			Base:    coal.B(),
			Author:  author.ID(),
			Post:    gone,
			Body:    "Orphaned!",
			Created: time.Now(),
		})
		tester.Insert(&models.Report{
			Base:     coal.B(),
			Post:     gone,
			Reporter: author.ID(),
			Created:  time.Now(),
		})

		removed, err := Cleanup(nil, tester.Store)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), removed)
		assert.Equal(t, 1, tester.Count(&models.Comment{}))
		assert.Equal(t, 0, tester.Count(&models.Report{}))
	})
}

func TestViewsOrder(t *testing.T) {
	withTester(t, func(t *testing.T, tester *coal.Tester) {
		author := insertUser(tester, "amy")
		community := insertCommunity(tester, "gophers", author.ID())
		post1 := insertPost(tester, author.ID(), community.ID(), "One", time.Hour)
		post2 := insertPost(tester, author.ID(), community.ID(), "Two", time.Minute)

		var list []*models.Post
		err := tester.Store.M(&models.Post{}).FindAll(nil, &list, bson.M{}, []string{"-Created"}, 0, 0, false, coal.NoTransaction)
		assert.NoError(t, err)

		views, err := Views(nil, tester.Store, list)
		assert.NoError(t, err)
		assert.Len(t, views, 2)
		assert.Equal(t, post2.ID(), views[0].ID)
		assert.Equal(t, post1.ID(), views[1].ID)
		assert.Equal(t, "amy", views[0].Author.Name)
		assert.Equal(t, "gophers", views[0].Community.Name)
	})
}
