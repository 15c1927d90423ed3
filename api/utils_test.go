package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/256dpi/fire/coal"

	"github.com/256dpi/ember/models"
	"github.com/256dpi/ember/storage"
)

var lungoStore = coal.MustOpen(nil, "test-ember-api", nil)

var testSecret = []byte("0123456789abcdef")

func withTester(t *testing.T, fn func(*testing.T, *coal.Tester)) {
	t.Run("Lungo", func(t *testing.T) {
		tester := coal.NewTester(lungoStore, models.All()...)
		tester.Clean()
		fn(t, tester)
	})
}

func newHandler(tester *coal.Tester) http.Handler {
	return Handler(Config{
		Store:   tester.Store,
		Storage: storage.NewMemory("mem://blobs"),
		Secret:  testSecret,
		Reporter: func(err error) {
			panic(err)
		},
	})
}

func insertUser(tester *coal.Tester, name, password string) *models.User {
	user := &models.User{
		Base:       coal.B(),
		Name:       name,
		Email:      name + "@example.com",
		Password:   password,
		SavedPosts: []coal.ID{},
	}
	err := user.Validate()
	if err != nil {
		panic(err)
	}
	return tester.Insert(user).(*models.User)
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

func authHeader(user coal.ID) map[string]string {
	token, err := IssueToken(testSecret, user)
	if err != nil {
		panic(err)
	}
	return map[string]string{
		"Authorization": "Bearer " + token,
	}
}
