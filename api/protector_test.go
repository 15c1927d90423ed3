package api

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/256dpi/serve"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/256dpi/fire/coal"
)

func TestBodyLimiter(t *testing.T) {
	withTester(t, func(t *testing.T, tester *coal.Tester) {
		handler := serve.Compose(DefaultBodyLimiter(), newHandler(tester))
		user := insertUser(tester, "amy", "secret")
		community := insertCommunity(tester, "hiking", user.ID())
		post := insertPost(tester, user.ID(), community.ID(), "Trail?", 0)

		// an oversized comment body is cut off and rejected
		body := `{"post": "` + post.ID().Hex() + `", "body": "` + strings.Repeat("x", 5000) + `"}`
		res := serve.Record(context.Background(), handler, "POST", "/comments", authHeader(user.ID()), body)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "Invalid request", gjson.Get(res.Body.String(), "message").String())

		// post creation is granted the upload limit
		body = `{"communityId": "` + community.ID().Hex() + `", "body": "` + strings.Repeat("y", 5000) + `"}`
		res = serve.Record(context.Background(), handler, "POST", "/posts", authHeader(user.ID()), body)
		assert.Equal(t, http.StatusOK, res.Code)
	})
}
