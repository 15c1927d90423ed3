package posts

import (
	"testing"
	"time"

	"github.com/256dpi/fire/coal"

	"github.com/256dpi/ember/models"
)

var lungoStore = coal.MustOpen(nil, "test-ember-posts", nil)

func withTester(t *testing.T, fn func(*testing.T, *coal.Tester)) {
	t.Run("Lungo", func(t *testing.T) {
		tester := coal.NewTester(lungoStore, models.All()...)
		tester.Clean()
		fn(t, tester)
	})
}

func insertUser(tester *coal.Tester, name string) *models.User {
	return tester.Insert(&models.User{
		Base:       coal.B(),
		Name:       name,
		Email:      name + "@example.com",
		Password:   "secret",
		SavedPosts: []coal.ID{},
	}).(*models.User)
}

func insertCommunity(tester *coal.Tester, name string, members ...coal.ID) *models.Community {
	return tester.Insert(&models.Community{
		Base:    coal.B(),
		Name:    name,
		Members: members,
	}).(*models.Community)
}

func insertPost(tester *coal.Tester, author, community coal.ID, body string, age time.Duration) *models.Post {
	return tester.Insert(&models.Post{
		Base:      coal.B(),
		Author:    author,
		Community: community,
		Body:      body,
		Likes:     []coal.ID{},
		Comments:  []coal.ID{},
		Created:   time.Now().Add(-age),
	}).(*models.Post)
}
