// Package api exposes the ember operations as plain JSON endpoints. Requests
// are routed by path segments in the manner of fire's group endpoint and the
// viewer identity is taken from a verified bearer token.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/256dpi/fire/coal"

	"github.com/256dpi/ember/engage"
	"github.com/256dpi/ember/feeds"
	"github.com/256dpi/ember/graph"
	"github.com/256dpi/ember/posts"
	"github.com/256dpi/ember/storage"
)

// Config is used to configure the handler.
type Config struct {
	// The store to operate on.
	Store *coal.Store

	// The attachment storage service.
	Storage storage.Service

	// The secret used to sign and verify tokens.
	Secret []byte

	// The reporter used to report unexpected errors.
	Reporter func(error)
}

type payload map[string]interface{}

type handler struct {
	store    *coal.Store
	storage  storage.Service
	secret   []byte
	reporter func(error)
}

// Handler returns an http.Handler that serves the ember API.
func Handler(config Config) http.Handler {
	// ensure reporter
	if config.Reporter == nil {
		config.Reporter = DefaultReporter()
	}

	return &handler{
		store:    config.Store,
		storage:  config.Storage,
		secret:   config.Secret,
		reporter: config.Reporter,
	}
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// trim and split path
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	// serve login without a viewer
	if len(segments) == 2 && segments[0] == "auth" && segments[1] == "login" && r.Method == "POST" {
		h.login(w, r)
		return
	}

	// require a viewer for everything else
	viewer, err := VerifyToken(h.secret, bearerToken(r))
	if err != nil {
		respond(w, http.StatusUnauthorized, payload{"message": "Unauthorized"})
		return
	}
	r = withViewer(r, viewer)

	// route request
	switch segments[0] {
	case "posts":
		h.servePosts(w, r, segments[1:])
	case "comments":
		if len(segments) == 1 && r.Method == "POST" {
			h.addComment(w, r)
			return
		}
		respond(w, http.StatusNotFound, payload{"message": "Not found"})
	default:
		respond(w, http.StatusNotFound, payload{"message": "Not found"})
	}
}

func (h *handler) servePosts(w http.ResponseWriter, r *http.Request, segments []string) {
	// collection endpoints
	if len(segments) == 0 {
		switch r.Method {
		case "GET":
			h.homeFeed(w, r)
		case "POST":
			h.createPost(w, r)
		default:
			respond(w, http.StatusMethodNotAllowed, payload{"message": "Method not allowed"})
		}
		return
	}

	// saved list
	if len(segments) == 1 && segments[0] == "saved" {
		if r.Method != "GET" {
			respond(w, http.StatusMethodNotAllowed, payload{"message": "Method not allowed"})
			return
		}
		h.savedPosts(w, r)
		return
	}

	// community feed
	if len(segments) == 2 && segments[0] == "community" {
		if r.Method != "GET" {
			respond(w, http.StatusMethodNotAllowed, payload{"message": "Method not allowed"})
			return
		}
		h.communityFeed(w, r, segments[1])
		return
	}

	// parse id
	id, err := coal.FromHex(segments[0])
	if err != nil {
		respond(w, http.StatusBadRequest, payload{"message": "Invalid id"})
		return
	}

	// single post endpoints
	if len(segments) == 1 {
		switch r.Method {
		case "GET":
			h.getPost(w, r, id)
		case "DELETE":
			h.deletePost(w, r, id)
		default:
			respond(w, http.StatusMethodNotAllowed, payload{"message": "Method not allowed"})
		}
		return
	}

	// sub resource endpoints
	if len(segments) == 2 && r.Method == "GET" {
		switch segments[1] {
		case "following":
			h.followingFeed(w, r, id)
			return
		case "userPosts":
			h.profileFeed(w, r, id)
			return
		case "comments":
			h.getComments(w, r, id)
			return
		}
	}
	if len(segments) == 2 && r.Method == "POST" {
		switch segments[1] {
		case "like":
			h.likePost(w, r, id)
			return
		case "unlike":
			h.unlikePost(w, r, id)
			return
		case "save":
			h.savePost(w, r, id)
			return
		case "unsave":
			h.unsavePost(w, r, id)
			return
		case "report":
			h.reportPost(w, r, id)
			return
		}
	}

	respond(w, http.StatusNotFound, payload{"message": "Not found"})
}

func (h *handler) createPost(w http.ResponseWriter, r *http.Request) {
	// gather input either from a multipart form with a file or a JSON body
	var community coal.ID
	var body, fileURL string
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		// get file
		file, header, err := r.FormFile("file")
		if err != nil && err != http.ErrMissingFile {
			respond(w, http.StatusBadRequest, payload{"message": "Invalid request"})
			return
		}

		// upload file if available
		if file != nil {
			defer file.Close()
			fileURL, err = h.storage.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file, header.Size)
			if err != nil {
				h.fail(w, err, "Error creating post")
				return
			}
		}

		// get fields
		community, err = coal.FromHex(r.FormValue("communityId"))
		if err != nil {
			respond(w, http.StatusBadRequest, payload{"message": "Invalid id"})
			return
		}
		body = r.FormValue("body")
	} else {
		var input struct {
			CommunityID string `json:"communityId"`
			Body        string `json:"body"`
		}
		if !decode(w, r, &input) {
			return
		}
		var err error
		community, err = coal.FromHex(input.CommunityID)
		if err != nil {
			respond(w, http.StatusBadRequest, payload{"message": "Invalid id"})
			return
		}
		body = input.Body
	}

	// create post
	view, err := posts.Create(r.Context(), h.store, Viewer(r), community, body, fileURL)
	if graph.ErrUnauthorized.Is(err) {
		respond(w, http.StatusUnauthorized, payload{"message": "Unauthorized to post in this community"})
		return
	} else if err != nil {
		h.fail(w, err, "Error creating post")
		return
	}

	respond(w, http.StatusOK, view)
}

func (h *handler) getPost(w http.ResponseWriter, r *http.Request, id coal.ID) {
	view, err := posts.Find(r.Context(), h.store, id, Viewer(r))
	if posts.ErrNotFound.Is(err) {
		respond(w, http.StatusNotFound, payload{"message": "Post not found"})
		return
	} else if graph.ErrUnauthorized.Is(err) {
		respond(w, http.StatusUnauthorized, payload{"message": "Unauthorized to view this post"})
		return
	} else if err != nil {
		h.fail(w, err, "Error getting post")
		return
	}

	respond(w, http.StatusOK, view)
}

func (h *handler) deletePost(w http.ResponseWriter, r *http.Request, id coal.ID) {
	found, err := posts.Delete(r.Context(), h.store, id)
	if err != nil {
		h.fail(w, err, "An error occurred while deleting the post")
		return
	} else if !found {
		respond(w, http.StatusNotFound, payload{"message": "Post not found. It may have been deleted already"})
		return
	}

	respond(w, http.StatusOK, payload{"message": "Post deleted successfully"})
}

func (h *handler) homeFeed(w http.ResponseWriter, r *http.Request) {
	views, total, err := feeds.Home(r.Context(), h.store, Viewer(r), queryInt(r, "skip"), queryInt(r, "limit"))
	if err != nil {
		h.fail(w, err, "Error retrieving posts")
		return
	}

	respond(w, http.StatusOK, payload{
		"posts": views,
		"total": total,
	})
}

func (h *handler) communityFeed(w http.ResponseWriter, r *http.Request, community string) {
	// parse id
	id, err := coal.FromHex(community)
	if err != nil {
		respond(w, http.StatusBadRequest, payload{"message": "Invalid id"})
		return
	}

	// compose feed
	views, total, err := feeds.Community(r.Context(), h.store, Viewer(r), id, queryInt(r, "skip"), queryInt(r, "limit"))
	if graph.ErrUnauthorized.Is(err) {
		respond(w, http.StatusUnauthorized, payload{"message": "Unauthorized to view posts in this community"})
		return
	} else if err != nil {
		h.fail(w, err, "Error retrieving posts")
		return
	}

	respond(w, http.StatusOK, payload{
		"posts": views,
		"total": total,
	})
}

func (h *handler) followingFeed(w http.ResponseWriter, r *http.Request, community coal.ID) {
	views, err := feeds.Following(r.Context(), h.store, Viewer(r), community)
	if graph.ErrUnauthorized.Is(err) {
		respond(w, http.StatusUnauthorized, payload{"message": "Unauthorized to view posts in this community"})
		return
	} else if err != nil {
		h.fail(w, err, "Server error")
		return
	}

	respond(w, http.StatusOK, views)
}

func (h *handler) profileFeed(w http.ResponseWriter, r *http.Request, user coal.ID) {
	views, follows, err := feeds.Profile(r.Context(), h.store, Viewer(r), user)
	if err != nil {
		h.fail(w, err, "Server error")
		return
	}

	// a missing follow edge yields an empty result, not an error
	if !follows {
		respond(w, http.StatusOK, nil)
		return
	}

	respond(w, http.StatusOK, views)
}

func (h *handler) likePost(w http.ResponseWriter, r *http.Request, id coal.ID) {
	view, err := engage.Like(r.Context(), h.store, id, Viewer(r))
	if posts.ErrNotFound.Is(err) {
		respond(w, http.StatusNotFound, payload{"message": "Post not found. It may have been deleted already"})
		return
	} else if err != nil {
		h.fail(w, err, "Error liking post")
		return
	}

	respond(w, http.StatusOK, view)
}

func (h *handler) unlikePost(w http.ResponseWriter, r *http.Request, id coal.ID) {
	view, err := engage.Unlike(r.Context(), h.store, id, Viewer(r))
	if posts.ErrNotFound.Is(err) {
		respond(w, http.StatusNotFound, payload{"message": "Post not found. It may have been deleted already"})
		return
	} else if err != nil {
		h.fail(w, err, "Error unliking post")
		return
	}

	respond(w, http.StatusOK, view)
}

func (h *handler) savePost(w http.ResponseWriter, r *http.Request, id coal.ID) {
	views, err := engage.Save(r.Context(), h.store, id, Viewer(r))
	if engage.ErrUserNotFound.Is(err) {
		respond(w, http.StatusNotFound, payload{"message": "User not found"})
		return
	} else if err != nil {
		h.fail(w, err, "Server error")
		return
	}

	respond(w, http.StatusOK, views)
}

func (h *handler) unsavePost(w http.ResponseWriter, r *http.Request, id coal.ID) {
	views, err := engage.Unsave(r.Context(), h.store, id, Viewer(r))
	if engage.ErrUserNotFound.Is(err) {
		respond(w, http.StatusNotFound, payload{"message": "User not found"})
		return
	} else if err != nil {
		h.fail(w, err, "Server error")
		return
	}

	respond(w, http.StatusOK, views)
}

func (h *handler) savedPosts(w http.ResponseWriter, r *http.Request) {
	views, err := engage.Saved(r.Context(), h.store, Viewer(r))
	if engage.ErrUserNotFound.Is(err) {
		respond(w, http.StatusNotFound, payload{"message": "User not found"})
		return
	} else if err != nil {
		h.fail(w, err, "Server error")
		return
	}

	respond(w, http.StatusOK, views)
}

func (h *handler) reportPost(w http.ResponseWriter, r *http.Request, id coal.ID) {
	_, err := engage.Report(r.Context(), h.store, id, Viewer(r))
	if posts.ErrNotFound.Is(err) {
		respond(w, http.StatusNotFound, payload{"message": "Post not found"})
		return
	} else if err != nil {
		h.fail(w, err, "Server error")
		return
	}

	respond(w, http.StatusOK, payload{"message": "Post reported successfully"})
}

func (h *handler) addComment(w http.ResponseWriter, r *http.Request) {
	// decode input
	var input struct {
		Body string `json:"body"`
		Post string `json:"post"`
	}
	if !decode(w, r, &input) {
		return
	}

	// parse id
	post, err := coal.FromHex(input.Post)
	if err != nil {
		respond(w, http.StatusBadRequest, payload{"message": "Invalid id"})
		return
	}

	// add comment
	_, err = engage.Comment(r.Context(), h.store, post, Viewer(r), input.Body)
	if posts.ErrNotFound.Is(err) {
		respond(w, http.StatusNotFound, payload{"message": "Post not found"})
		return
	} else if err != nil {
		h.fail(w, err, "Error adding comment")
		return
	}

	respond(w, http.StatusOK, payload{"message": "Comment added successfully"})
}

func (h *handler) getComments(w http.ResponseWriter, r *http.Request, id coal.ID) {
	views, err := engage.Comments(r.Context(), h.store, id)
	if err != nil {
		h.fail(w, err, "Server error")
		return
	}

	respond(w, http.StatusOK, views)
}

func (h *handler) fail(w http.ResponseWriter, err error, message string) {
	// report unexpected error
	h.reporter(err)

	// respond with a fixed message only
	respond(w, http.StatusInternalServerError, payload{"message": message})
}

func respond(w http.ResponseWriter, status int, value interface{}) {
	// set content type
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	// write status
	w.WriteHeader(status)

	// encode value
	_ = json.NewEncoder(w).Encode(value)
}

func decode(w http.ResponseWriter, r *http.Request, value interface{}) bool {
	// decode body
	err := json.NewDecoder(r.Body).Decode(value)
	if err != nil {
		respond(w, http.StatusBadRequest, payload{"message": "Invalid request"})
		return false
	}

	return true
}

func queryInt(r *http.Request, name string) int64 {
	value, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return value
}
